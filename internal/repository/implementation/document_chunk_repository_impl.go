package implementation

import (
	"context"

	"github.com/ehcaw/documix/internal/entity"
	"github.com/ehcaw/documix/internal/mapper"
	"github.com/ehcaw/documix/internal/model"
	"github.com/ehcaw/documix/internal/repository/contract"
	"github.com/ehcaw/documix/internal/repository/specification"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DocumentChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentChunkMapper
}

func NewDocumentChunkRepository(db *gorm.DB) contract.DocumentChunkRepository {
	return &DocumentChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewDocumentChunkMapper(),
	}
}

func (r *DocumentChunkRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *DocumentChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	models := make([]*model.DocumentChunk, len(chunks))
	for i, c := range chunks {
		models[i] = r.mapper.ToModel(c)
	}
	return r.db.WithContext(ctx).Create(models).Error
}

func (r *DocumentChunkRepositoryImpl) DeleteBySource(ctx context.Context, scope entity.ScopeKey, source string) error {
	return r.db.WithContext(ctx).
		Where("scope_key = ? AND source = ?", scope.String(), source).
		Delete(&model.DocumentChunk{}).Error
}

func (r *DocumentChunkRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error) {
	var models []*model.DocumentChunk
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.DocumentChunk, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *DocumentChunkRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.DocumentChunk{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

type scoredChunkRow struct {
	model.DocumentChunk
	Similarity float64 `gorm:"column:similarity"`
}

func (r *DocumentChunkRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, scope entity.ScopeKey, minSimilarity float64) ([]*contract.ScoredDocumentChunk, error) {
	if limit <= 0 {
		limit = 5
	}

	var rows []*scoredChunkRow

	// Cosine similarity = 1 - cosine distance (<=>). The scope key is bound
	// as a parameter, never interpolated into the filter.
	vec := pgvector.NewVector(embedding)
	err := r.db.WithContext(ctx).
		Model(&model.DocumentChunk{}).
		Select("document_chunks.*, 1 - (embedding_value <=> ?) AS similarity", vec).
		Where("scope_key = ?", scope.String()).
		Where("deleted_at IS NULL").
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:                "embedding_value <=> ?",
			Vars:               []interface{}{vec},
			WithoutParentheses: true,
		}}).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	results := make([]*contract.ScoredDocumentChunk, 0, len(rows))
	for _, row := range rows {
		if row.Similarity < minSimilarity {
			continue
		}
		results = append(results, &contract.ScoredDocumentChunk{
			Chunk:      r.mapper.ToEntity(&row.DocumentChunk),
			Similarity: row.Similarity,
		})
	}
	return results, nil
}

func (r *DocumentChunkRepositoryImpl) ListSources(ctx context.Context, scope entity.ScopeKey) ([]*entity.DocumentSummary, error) {
	var summaries []*entity.DocumentSummary
	err := r.db.WithContext(ctx).
		Model(&model.DocumentChunk{}).
		Select("source, MAX(title) AS title, COUNT(*) AS chunk_count, MIN(created_at) AS created_at").
		Where("scope_key = ?", scope.String()).
		Where("deleted_at IS NULL").
		Group("source").
		Order("MIN(created_at) DESC").
		Find(&summaries).Error
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

package contract

import (
	"context"

	"github.com/ehcaw/documix/internal/entity"
	"github.com/ehcaw/documix/internal/repository/specification"
)

// ScoredDocumentChunk pairs a chunk with its similarity to a query vector.
type ScoredDocumentChunk struct {
	Chunk      *entity.DocumentChunk
	Similarity float64
}

type DocumentChunkRepository interface {
	CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error
	DeleteBySource(ctx context.Context, scope entity.ScopeKey, source string) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// SearchSimilarWithScore runs a cosine-distance search restricted to one
	// scope key, ordered by descending similarity, at most limit rows.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, scope entity.ScopeKey, minSimilarity float64) ([]*ScoredDocumentChunk, error)

	// ListSources aggregates chunks per source locator for one scope.
	ListSources(ctx context.Context, scope entity.ScopeKey) ([]*entity.DocumentSummary, error)
}

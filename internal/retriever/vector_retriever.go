package retriever

import (
	"context"
	"fmt"

	"github.com/ehcaw/documix/internal/entity"
	"github.com/ehcaw/documix/internal/repository/unitofwork"
	"github.com/ehcaw/documix/pkg/embedding"
)

// VectorRetriever embeds the query and runs a cosine-distance search over the
// scoped document chunks.
type VectorRetriever struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	minSimilarity     float64
}

var _ Retriever = &VectorRetriever{}

func NewVectorRetriever(uowFactory unitofwork.RepositoryFactory, embeddingProvider embedding.EmbeddingProvider) *VectorRetriever {
	return &VectorRetriever{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		minSimilarity:     0.0,
	}
}

func (r *VectorRetriever) Retrieve(ctx context.Context, query string, scope entity.ScopeKey, k int) ([]*entity.Passage, error) {
	if isBlank(query) || k <= 0 {
		return nil, nil
	}
	if err := scope.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scope key: %w", err)
	}

	embeddingResp, err := r.embeddingProvider.Generate(query, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	uow := r.uowFactory.NewUnitOfWork(ctx)
	scored, err := uow.DocumentChunkRepository().SearchSimilarWithScore(ctx, embeddingResp.Embedding.Values, k, scope, r.minSimilarity)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	passages := make([]*entity.Passage, 0, len(scored))
	for _, sc := range scored {
		passages = append(passages, &entity.Passage{
			Text:   sc.Chunk.Content,
			Source: sc.Chunk.Source,
			Score:  float32(sc.Similarity),
			Scope:  scope,
		})
	}
	return passages, nil
}

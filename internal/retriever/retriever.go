// Package retriever resolves a query text into the passages most similar to
// it within one scope of the vector index.
package retriever

import (
	"context"
	"strings"

	"github.com/ehcaw/documix/internal/entity"
)

type Retriever interface {
	// Retrieve returns at most k passages for the query, highest similarity
	// first. A blank query yields nil without touching the backend.
	Retrieve(ctx context.Context, query string, scope entity.ScopeKey, k int) ([]*entity.Passage, error)
}

// Disabled is the retriever used when no vector backend is configured.
// Every turn proceeds ungrounded.
type Disabled struct{}

func (Disabled) Retrieve(_ context.Context, _ string, _ entity.ScopeKey, _ int) ([]*entity.Passage, error) {
	return nil, nil
}

func isBlank(query string) bool {
	return strings.TrimSpace(query) == ""
}

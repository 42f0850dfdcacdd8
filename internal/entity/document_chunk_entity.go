package entity

import (
	"time"

	"github.com/google/uuid"
)

type DocumentChunk struct {
	Id         uuid.UUID
	ScopeKey   ScopeKey
	Source     string
	Title      string
	Content    string
	Embedding  []float32
	ChunkIndex int
	CreatedAt  time.Time
	UpdatedAt  *time.Time
	DeletedAt  *time.Time
	IsDeleted  bool
}

// DocumentSummary aggregates the chunks ingested from one source locator.
type DocumentSummary struct {
	Source     string
	Title      string
	ChunkCount int
	CreatedAt  time.Time
}

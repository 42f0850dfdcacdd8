package dto

import "time"

type UploadDocumentRequest struct {
	Title   string `json:"title"`
	Source  string `json:"source" validate:"required"`
	Content string `json:"content" validate:"required"`
}

type UploadDocumentResponse struct {
	Source     string `json:"source"`
	ChunkCount int    `json:"chunk_count"`
}

type DocumentSummaryResponse struct {
	Source     string    `json:"source"`
	Title      string    `json:"title"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
}

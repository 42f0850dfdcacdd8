package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ehcaw/documix/internal/dto"
	"github.com/ehcaw/documix/internal/entity"
	"github.com/ehcaw/documix/internal/pkg/logger"
	"github.com/ehcaw/documix/internal/repository/unitofwork"
	"github.com/ehcaw/documix/pkg/embedding"
	"github.com/ehcaw/documix/pkg/utils"

	"github.com/google/uuid"
)

const (
	chunkSize    = 1000
	chunkOverlap = 100
)

type IIngestService interface {
	// Upload replaces the stored chunks for the request's source locator
	// within the caller's scope.
	Upload(ctx context.Context, scope entity.ScopeKey, req *dto.UploadDocumentRequest) (*dto.UploadDocumentResponse, error)

	// ListDocuments summarizes the sources ingested into the scope.
	ListDocuments(ctx context.Context, scope entity.ScopeKey) ([]dto.DocumentSummaryResponse, error)
}

type ingestService struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	logger            logger.ILogger
}

func NewIngestService(
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	log logger.ILogger,
) IIngestService {
	return &ingestService{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		logger:            log,
	}
}

func (s *ingestService) Upload(ctx context.Context, scope entity.ScopeKey, req *dto.UploadDocumentRequest) (*dto.UploadDocumentResponse, error) {
	if err := scope.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scope key: %w", err)
	}

	text := normalizeWhitespace(req.Content)
	if text == "" {
		return &dto.UploadDocumentResponse{Source: req.Source, ChunkCount: 0}, nil
	}

	pieces := utils.SplitText(text, chunkSize, chunkOverlap)

	chunks := make([]*entity.DocumentChunk, 0, len(pieces))
	for i, piece := range pieces {
		embeddingRes, err := s.embeddingProvider.Generate(piece, "RETRIEVAL_DOCUMENT")
		if err != nil {
			return nil, fmt.Errorf("embed chunk %d: %w", i, err)
		}
		chunks = append(chunks, &entity.DocumentChunk{
			Id:         uuid.New(),
			ScopeKey:   scope,
			Source:     req.Source,
			Title:      req.Title,
			Content:    piece,
			Embedding:  embeddingRes.Embedding.Values,
			ChunkIndex: i,
			CreatedAt:  time.Now(),
		})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	// Re-uploading a source replaces its chunks wholesale.
	if err := uow.DocumentChunkRepository().DeleteBySource(ctx, scope, req.Source); err != nil {
		uow.Rollback()
		return nil, err
	}
	if err := uow.DocumentChunkRepository().CreateBulk(ctx, chunks); err != nil {
		uow.Rollback()
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("IngestService", "Document ingested", map[string]interface{}{
		"scope":  scope.String(),
		"source": req.Source,
		"chunks": len(chunks),
	})

	return &dto.UploadDocumentResponse{
		Source:     req.Source,
		ChunkCount: len(chunks),
	}, nil
}

func (s *ingestService) ListDocuments(ctx context.Context, scope entity.ScopeKey) ([]dto.DocumentSummaryResponse, error) {
	if err := scope.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scope key: %w", err)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	summaries, err := uow.DocumentChunkRepository().ListSources(ctx, scope)
	if err != nil {
		return nil, err
	}

	res := make([]dto.DocumentSummaryResponse, 0, len(summaries))
	for _, sm := range summaries {
		res = append(res, dto.DocumentSummaryResponse{
			Source:     sm.Source,
			Title:      sm.Title,
			ChunkCount: sm.ChunkCount,
			CreatedAt:  sm.CreatedAt,
		})
	}
	return res, nil
}

// normalizeWhitespace collapses runs of whitespace so chunk boundaries do not
// depend on the source's formatting.
func normalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

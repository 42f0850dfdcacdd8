package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ehcaw/documix/internal/dto"
	"github.com/ehcaw/documix/internal/entity"
	"github.com/ehcaw/documix/internal/pkg/logger"
	"github.com/ehcaw/documix/internal/repository/contract"
	"github.com/ehcaw/documix/internal/repository/specification"
	"github.com/ehcaw/documix/internal/repository/unitofwork"
	"github.com/ehcaw/documix/pkg/embedding"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChunkRepo struct {
	created        []*entity.DocumentChunk
	deletedSources []string
	summaries      []*entity.DocumentSummary
}

func (f *fakeChunkRepo) CreateBulk(_ context.Context, chunks []*entity.DocumentChunk) error {
	f.created = append(f.created, chunks...)
	return nil
}

func (f *fakeChunkRepo) DeleteBySource(_ context.Context, _ entity.ScopeKey, source string) error {
	f.deletedSources = append(f.deletedSources, source)
	return nil
}

func (f *fakeChunkRepo) FindAll(_ context.Context, _ ...specification.Specification) ([]*entity.DocumentChunk, error) {
	return nil, nil
}

func (f *fakeChunkRepo) Count(_ context.Context, _ ...specification.Specification) (int64, error) {
	return int64(len(f.created)), nil
}

func (f *fakeChunkRepo) SearchSimilarWithScore(_ context.Context, _ []float32, _ int, _ entity.ScopeKey, _ float64) ([]*contract.ScoredDocumentChunk, error) {
	return nil, nil
}

func (f *fakeChunkRepo) ListSources(_ context.Context, _ entity.ScopeKey) ([]*entity.DocumentSummary, error) {
	return f.summaries, nil
}

type fakeUow struct {
	chunkRepo *fakeChunkRepo
	begun     bool
	committed bool
	rolled    bool
}

func (f *fakeUow) Begin(_ context.Context) error { f.begun = true; return nil }
func (f *fakeUow) Commit() error                 { f.committed = true; return nil }
func (f *fakeUow) Rollback() error               { f.rolled = true; return nil }

func (f *fakeUow) ConversationRepository() contract.ConversationRepository { return nil }
func (f *fakeUow) MessageRepository() contract.MessageRepository           { return nil }
func (f *fakeUow) DocumentChunkRepository() contract.DocumentChunkRepository {
	return f.chunkRepo
}

type fakeUowFactory struct {
	uow *fakeUow
}

func (f *fakeUowFactory) NewUnitOfWork(_ context.Context) unitofwork.UnitOfWork {
	return f.uow
}

type fakeEmbedder struct {
	calls int
}

func (f *fakeEmbedder) Generate(_ string, _ string) (*embedding.EmbeddingResponse, error) {
	f.calls++
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{0.1, 0.2, 0.3}},
	}, nil
}

func TestUploadSplitsAndStoresChunks(t *testing.T) {
	uow := &fakeUow{chunkRepo: &fakeChunkRepo{}}
	embedder := &fakeEmbedder{}
	svc := NewIngestService(&fakeUowFactory{uow: uow}, embedder, logger.NewNopLogger())

	content := strings.Repeat("pgvector stores embeddings. ", 100)
	res, err := svc.Upload(context.Background(), "alice", &dto.UploadDocumentRequest{
		Title:   "Vector Guide",
		Source:  "docs://pgvector",
		Content: content,
	})

	require.NoError(t, err)
	assert.Greater(t, res.ChunkCount, 1)
	assert.Equal(t, res.ChunkCount, len(uow.chunkRepo.created))
	assert.Equal(t, res.ChunkCount, embedder.calls)

	// Re-upload replaces the previous chunks for the source
	assert.Equal(t, []string{"docs://pgvector"}, uow.chunkRepo.deletedSources)
	assert.True(t, uow.begun)
	assert.True(t, uow.committed)
	assert.False(t, uow.rolled)

	first := uow.chunkRepo.created[0]
	assert.Equal(t, entity.ScopeKey("alice"), first.ScopeKey)
	assert.Equal(t, "docs://pgvector", first.Source)
	assert.Equal(t, "Vector Guide", first.Title)
	assert.Equal(t, 0, first.ChunkIndex)
	assert.NotEmpty(t, first.Embedding)
}

func TestUploadNormalizesWhitespace(t *testing.T) {
	uow := &fakeUow{chunkRepo: &fakeChunkRepo{}}
	svc := NewIngestService(&fakeUowFactory{uow: uow}, &fakeEmbedder{}, logger.NewNopLogger())

	res, err := svc.Upload(context.Background(), "alice", &dto.UploadDocumentRequest{
		Source:  "docs://messy",
		Content: "  a\n\n\tb   c  ",
	})

	require.NoError(t, err)
	require.Equal(t, 1, res.ChunkCount)
	assert.Equal(t, "a b c", uow.chunkRepo.created[0].Content)
}

func TestUploadEmptyContentStoresNothing(t *testing.T) {
	uow := &fakeUow{chunkRepo: &fakeChunkRepo{}}
	svc := NewIngestService(&fakeUowFactory{uow: uow}, &fakeEmbedder{}, logger.NewNopLogger())

	res, err := svc.Upload(context.Background(), "alice", &dto.UploadDocumentRequest{
		Source:  "docs://empty",
		Content: "   \n\t  ",
	})

	require.NoError(t, err)
	assert.Equal(t, 0, res.ChunkCount)
	assert.Empty(t, uow.chunkRepo.created)
	assert.False(t, uow.begun)
}

func TestUploadRejectsInvalidScope(t *testing.T) {
	svc := NewIngestService(&fakeUowFactory{uow: &fakeUow{chunkRepo: &fakeChunkRepo{}}}, &fakeEmbedder{}, logger.NewNopLogger())

	_, err := svc.Upload(context.Background(), "bad scope!", &dto.UploadDocumentRequest{
		Source:  "docs://x",
		Content: "text",
	})
	assert.Error(t, err)
}

func TestListDocuments(t *testing.T) {
	now := time.Now()
	uow := &fakeUow{chunkRepo: &fakeChunkRepo{
		summaries: []*entity.DocumentSummary{
			{Source: "docs://a", Title: "A", ChunkCount: 3, CreatedAt: now},
		},
	}}
	svc := NewIngestService(&fakeUowFactory{uow: uow}, &fakeEmbedder{}, logger.NewNopLogger())

	res, err := svc.ListDocuments(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "docs://a", res[0].Source)
	assert.Equal(t, 3, res[0].ChunkCount)
}

package transcript

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ehcaw/documix/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userMsg(text string) entity.Message {
	return entity.Message{
		Id:        uuid.New(),
		Role:      entity.MessageRoleUser,
		Content:   text,
		CreatedAt: time.Now(),
	}
}

func assistantMsg(text string) entity.Message {
	return entity.Message{
		Id:        uuid.New(),
		Role:      entity.MessageRoleAssistant,
		Content:   text,
		CreatedAt: time.Now(),
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	id, err := store.Create(ctx, "user-1")
	require.NoError(t, err)

	msgs := []entity.Message{userMsg("hello"), assistantMsg("hi there")}
	require.NoError(t, store.Save(ctx, id, msgs))

	loaded, err := store.Load(ctx, id)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "hello", loaded[0].Content)
	assert.Equal(t, entity.MessageRoleAssistant, loaded[1].Role)
}

func TestMemoryStoreUnknownIdIsEmpty(t *testing.T) {
	store := NewMemoryStore()

	loaded, err := store.Load(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestMemoryStoreSaveIsFullReplace(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	id, err := store.Create(ctx, "user-1")
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, id, []entity.Message{userMsg("a"), assistantMsg("b"), userMsg("c")}))
	require.NoError(t, store.Save(ctx, id, []entity.Message{userMsg("only")}))

	loaded, err := store.Load(ctx, id)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "only", loaded[0].Content)
}

func TestMemoryStoreArchive(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	id, err := store.Create(ctx, "user-1")
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, id, []entity.Message{userMsg("hello")}))

	require.NoError(t, store.Archive(ctx, id))

	loaded, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, loaded)

	summaries, err := store.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, summaries)

	// Archiving again, or archiving an unknown id, still succeeds.
	assert.NoError(t, store.Archive(ctx, id))
	assert.NoError(t, store.Archive(ctx, uuid.New()))
}

func TestMemoryStoreListScopedAndOrdered(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first, err := store.Create(ctx, "alice")
	require.NoError(t, err)
	older := userMsg("first question")
	older.CreatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, store.Save(ctx, first, []entity.Message{older}))

	second, err := store.Create(ctx, "alice")
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, second, []entity.Message{userMsg("second question")}))

	_, err = store.Create(ctx, "bob")
	require.NoError(t, err)

	summaries, err := store.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, second, summaries[0].Id)
	assert.Equal(t, first, summaries[1].Id)
}

func TestDeriveTitle(t *testing.T) {
	id := uuid.MustParse("deadbeef-0000-0000-0000-000000000000")

	t.Run("first user message", func(t *testing.T) {
		msgs := []entity.Message{assistantMsg("welcome"), userMsg("explain pgvector")}
		assert.Equal(t, "explain pgvector", DeriveTitle(id, msgs))
	})

	t.Run("truncates at 48 runes", func(t *testing.T) {
		long := strings.Repeat("é", 60)
		title := DeriveTitle(id, []entity.Message{userMsg(long)})
		assert.Equal(t, strings.Repeat("é", 48)+"…", title)
	})

	t.Run("fallback uses id prefix", func(t *testing.T) {
		assert.Equal(t, "Conversation deadbeef", DeriveTitle(id, nil))
	})
}

package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ehcaw/documix/internal/entity"
	"github.com/ehcaw/documix/internal/pkg/logger"
	"github.com/ehcaw/documix/internal/transcript"
	"github.com/ehcaw/documix/pkg/llm"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRetriever struct {
	mu       sync.Mutex
	passages []*entity.Passage
	err      error
	queries  []string
	scopes   []entity.ScopeKey
}

func (f *fakeRetriever) Retrieve(_ context.Context, query string, scope entity.ScopeKey, _ int) ([]*entity.Passage, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.scopes = append(f.scopes, scope)
	f.mu.Unlock()
	return f.passages, f.err
}

func echoProvider(answer string) *scriptedProvider {
	return &scriptedProvider{script: func(ctx context.Context, ch chan<- llm.StreamChunk) {
		emit(ctx, ch, llm.StreamChunk{Delta: answer})
		emit(ctx, ch, llm.StreamChunk{Done: true})
	}}
}

func newTestCoordinator(store transcript.Store, ret *fakeRetriever, provider llm.LLMProvider) *Coordinator {
	return NewCoordinator(store, ret, NewStreamController(provider), nil, logger.NewNopLogger(), 3, 20)
}

func TestSubmitGroundedTurn(t *testing.T) {
	ctx := context.Background()
	store := transcript.NewMemoryStore()
	ret := &fakeRetriever{passages: []*entity.Passage{
		{Text: "X is a vector database extension.", Source: "docs://x", Score: 0.92},
	}}
	provider := echoProvider("X extends Postgres.")
	c := newTestCoordinator(store, ret, provider)

	var streamed strings.Builder
	result, err := c.Submit(ctx, nil, "alice", "What is X?", func(delta string) {
		streamed.WriteString(delta)
	})

	require.NoError(t, err)
	assert.Equal(t, "X extends Postgres.", result.Message.Content)
	assert.Equal(t, "X extends Postgres.", streamed.String())
	assert.False(t, result.Interrupted)

	require.Len(t, result.Citations, 1)
	assert.Equal(t, "docs://x", result.Citations[0].Source)

	// Retrieval used the user's text and scope
	assert.Equal(t, []string{"What is X?"}, ret.queries)
	assert.Equal(t, []entity.ScopeKey{"alice"}, ret.scopes)

	// The provider saw the grounding block first, then the user turn
	history := provider.lastHistory()
	require.NotEmpty(t, history)
	assert.Equal(t, entity.MessageRoleSystem, history[0].Role)
	assert.Contains(t, history[0].Content, "docs://x")
	assert.Contains(t, history[0].Content, "X is a vector database extension.")
	assert.Equal(t, "What is X?", history[len(history)-1].Content)

	// In-memory history now has the full turn
	msgs, err := c.History(ctx, result.ConversationId)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, entity.MessageRoleUser, msgs[0].Role)
	assert.Equal(t, entity.MessageRoleAssistant, msgs[1].Role)
}

func TestSubmitCompletesWhenRetrievalFails(t *testing.T) {
	store := transcript.NewMemoryStore()
	ret := &fakeRetriever{err: errors.New("index offline")}
	provider := echoProvider("answered anyway")
	c := newTestCoordinator(store, ret, provider)

	result, err := c.Submit(context.Background(), nil, "alice", "hello", nil)

	require.NoError(t, err)
	assert.Equal(t, "answered anyway", result.Message.Content)
	assert.Empty(t, result.Citations)

	// No grounding block was injected
	history := provider.lastHistory()
	require.NotEmpty(t, history)
	assert.NotEqual(t, entity.MessageRoleSystem, history[0].Role)
}

func TestSubmitUnknownIdBehavesAsFresh(t *testing.T) {
	store := transcript.NewMemoryStore()
	c := newTestCoordinator(store, &fakeRetriever{}, echoProvider("hi"))

	unknown := uuid.New()
	result, err := c.Submit(context.Background(), &unknown, "alice", "anyone there?", nil)

	require.NoError(t, err)
	assert.Equal(t, unknown, result.ConversationId)

	msgs, err := c.History(context.Background(), unknown)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestSubmitRejectsConcurrentTurn(t *testing.T) {
	ctx := context.Background()
	store := transcript.NewMemoryStore()

	started := make(chan struct{})
	var startedOnce sync.Once
	release := make(chan struct{})
	provider := &scriptedProvider{script: func(ctx context.Context, ch chan<- llm.StreamChunk) {
		// The script also runs for the follow-up turn; only signal once.
		startedOnce.Do(func() { close(started) })
		select {
		case <-release:
		case <-ctx.Done():
			return
		}
		emit(ctx, ch, llm.StreamChunk{Delta: "done waiting"})
		emit(ctx, ch, llm.StreamChunk{Done: true})
	}}
	c := newTestCoordinator(store, &fakeRetriever{}, provider)

	id, err := c.Create(ctx, "alice")
	require.NoError(t, err)

	firstDone := make(chan error, 1)
	go func() {
		_, err := c.Submit(ctx, &id, "alice", "slow question", nil)
		firstDone <- err
	}()

	<-started
	_, err = c.Submit(ctx, &id, "alice", "impatient question", nil)
	assert.ErrorIs(t, err, ErrTurnInProgress)

	close(release)
	require.NoError(t, <-firstDone)

	// The conversation is Ready again
	_, err = c.Submit(ctx, &id, "alice", "follow-up", nil)
	require.NoError(t, err)
}

func TestStopFinalizesPartialAnswer(t *testing.T) {
	ctx := context.Background()
	store := transcript.NewMemoryStore()

	provider := &scriptedProvider{script: func(ctx context.Context, ch chan<- llm.StreamChunk) {
		emit(ctx, ch, llm.StreamChunk{Delta: "partial answer"})
		<-ctx.Done()
	}}
	c := newTestCoordinator(store, &fakeRetriever{}, provider)

	id, err := c.Create(ctx, "alice")
	require.NoError(t, err)

	result, err := c.Submit(ctx, &id, "alice", "tell me everything", func(delta string) {
		require.NoError(t, c.Stop(id))
	})

	require.NoError(t, err)
	assert.True(t, result.Interrupted)
	assert.Equal(t, "partial answer", result.Message.Content)

	// Partial answer is part of the history
	msgs, err := c.History(ctx, id)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "partial answer", msgs[1].Content)
}

func TestStopWithoutActiveStream(t *testing.T) {
	c := newTestCoordinator(transcript.NewMemoryStore(), &fakeRetriever{}, echoProvider("hi"))

	id, err := c.Create(context.Background(), "alice")
	require.NoError(t, err)

	assert.ErrorIs(t, c.Stop(id), ErrNotStreaming)
	assert.ErrorIs(t, c.Stop(uuid.New()), ErrNotStreaming)
}

func TestArchiveIsTerminalAndIdempotent(t *testing.T) {
	ctx := context.Background()
	store := transcript.NewMemoryStore()
	c := newTestCoordinator(store, &fakeRetriever{}, echoProvider("hi"))

	id, err := c.Create(ctx, "alice")
	require.NoError(t, err)
	_, err = c.Submit(ctx, &id, "alice", "hello", nil)
	require.NoError(t, err)

	require.NoError(t, c.Archive(ctx, id))
	require.NoError(t, c.Archive(ctx, id)) // idempotent

	_, err = c.Submit(ctx, &id, "alice", "still there?", nil)
	assert.ErrorIs(t, err, ErrConversationArchived)

	// Reads against an archived id behave like reads of an unknown id
	msgs, err := c.History(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestStopRacesWithSubmit(t *testing.T) {
	ctx := context.Background()
	store := transcript.NewMemoryStore()
	c := newTestCoordinator(store, &fakeRetriever{}, echoProvider("pong"))

	id, err := c.Create(ctx, "alice")
	require.NoError(t, err)

	stop := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		for {
			select {
			case <-stop:
				return
			default:
				// Racing against claimTurn; ErrNotStreaming between turns
				// is expected, a panic is not.
				_ = c.Stop(id)
			}
		}
	}()

	for i := 0; i < 500; i++ {
		_, err := c.Submit(ctx, &id, "alice", "ping", nil)
		require.NoError(t, err)
	}

	close(stop)
	<-stopped
}

func TestCompletedTurnIsPersisted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := transcript.NewMemoryStore()
	persister := NewPersister(store, logger.NewNopLogger())
	defer persister.Close()
	go persister.Run(ctx)
	time.Sleep(50 * time.Millisecond) // let the subscriber attach

	c := NewCoordinator(store, &fakeRetriever{}, NewStreamController(echoProvider("saved")), persister, logger.NewNopLogger(), 3, 20)

	result, err := c.Submit(ctx, nil, "alice", "persist me", nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		msgs, err := store.Load(context.Background(), result.ConversationId)
		return err == nil && len(msgs) == 2
	}, 2*time.Second, 10*time.Millisecond)

	// The persisted title comes from the first user message
	summaries, err := c.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.True(t, strings.HasPrefix(summaries[0].Title, "persist me"))
}

// Package session coordinates the per-turn pipeline: history resolution,
// scoped retrieval, streamed grounded generation and scheduled persistence.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/ehcaw/documix/internal/entity"
	"github.com/ehcaw/documix/internal/pkg/logger"
	"github.com/ehcaw/documix/internal/retriever"
	"github.com/ehcaw/documix/internal/transcript"
	"github.com/ehcaw/documix/pkg/llm"
	"github.com/ehcaw/documix/pkg/rag/grounding"

	"github.com/google/uuid"
)

type conversationStatus int

const (
	statusReady conversationStatus = iota
	statusStreaming
	statusArchived
)

type conversationState struct {
	scope    entity.ScopeKey
	messages []entity.Message
	status   conversationStatus
	cancel   context.CancelFunc
	loaded   bool
}

// TurnResult is the outcome of one completed submit.
type TurnResult struct {
	ConversationId uuid.UUID
	Message        entity.Message
	Interrupted    bool
	Citations      []grounding.Citation
}

// Coordinator owns conversation state for the lifetime of the process. Each
// conversation is Ready, Streaming or Archived; at most one turn streams per
// conversation while independent conversations stream concurrently.
type Coordinator struct {
	store     transcript.Store
	retriever retriever.Retriever
	streams   *StreamController
	persister *Persister
	log       logger.ILogger

	topK         int
	historyLimit int

	mu     sync.Mutex
	states map[uuid.UUID]*conversationState
}

func NewCoordinator(
	store transcript.Store,
	ret retriever.Retriever,
	streams *StreamController,
	persister *Persister,
	log logger.ILogger,
	topK int,
	historyLimit int,
) *Coordinator {
	return &Coordinator{
		store:        store,
		retriever:    ret,
		streams:      streams,
		persister:    persister,
		log:          log,
		topK:         topK,
		historyLimit: historyLimit,
		states:       make(map[uuid.UUID]*conversationState),
	}
}

// Create allocates a fresh conversation for the scope.
func (c *Coordinator) Create(ctx context.Context, scope entity.ScopeKey) (uuid.UUID, error) {
	id, err := c.store.Create(ctx, scope)
	if err != nil {
		return uuid.Nil, err
	}

	c.mu.Lock()
	c.states[id] = &conversationState{scope: scope, status: statusReady, loaded: true}
	c.mu.Unlock()

	return id, nil
}

// List returns the scope's conversation summaries, newest first.
func (c *Coordinator) List(ctx context.Context, scope entity.ScopeKey) ([]entity.ConversationSummary, error) {
	return c.store.List(ctx, scope)
}

// History returns the message sequence for a conversation. While a turn is
// streaming the in-memory sequence is authoritative; the durable copy is only
// consulted for conversations this process has not touched.
func (c *Coordinator) History(ctx context.Context, conversationId uuid.UUID) ([]entity.Message, error) {
	c.mu.Lock()
	state, ok := c.states[conversationId]
	if ok {
		if state.status == statusArchived {
			// Archived ids read as empty, matching the store's behavior for
			// unknown ids.
			c.mu.Unlock()
			return []entity.Message{}, nil
		}
		if state.loaded {
			snapshot := make([]entity.Message, len(state.messages))
			copy(snapshot, state.messages)
			c.mu.Unlock()
			return snapshot, nil
		}
	}
	c.mu.Unlock()

	return c.store.Load(ctx, conversationId)
}

// Stop cancels the conversation's active stream. The turn finalizes whatever
// fragments already arrived and the conversation returns to Ready.
func (c *Coordinator) Stop(conversationId uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, ok := c.states[conversationId]
	if !ok || state.status != statusStreaming {
		return ErrNotStreaming
	}
	state.cancel()
	return nil
}

// Archive permanently retires a conversation. An active stream is cancelled
// first. Archiving an unknown or already archived conversation succeeds.
func (c *Coordinator) Archive(ctx context.Context, conversationId uuid.UUID) error {
	c.mu.Lock()
	state, ok := c.states[conversationId]
	if ok {
		if state.status == statusStreaming {
			state.cancel()
		}
		state.status = statusArchived
		state.messages = nil
	} else {
		c.states[conversationId] = &conversationState{status: statusArchived, loaded: true}
	}
	c.mu.Unlock()

	return c.store.Archive(ctx, conversationId)
}

// Submit runs one turn. A nil conversationId starts a fresh conversation; an
// unknown id behaves as a fresh, empty one. Fragments reach sink as they
// stream; the finalized assistant message comes back in the TurnResult.
func (c *Coordinator) Submit(ctx context.Context, conversationId *uuid.UUID, scope entity.ScopeKey, text string, sink FragmentSink) (*TurnResult, error) {
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	id, state, err := c.claimTurn(ctx, conversationId, scope, cancel)
	if err != nil {
		return nil, err
	}

	c.ensureLoaded(ctx, id, state)

	userMsg := entity.Message{
		Id:        uuid.New(),
		Role:      entity.MessageRoleUser,
		Content:   text,
		CreatedAt: time.Now(),
	}

	c.mu.Lock()
	state.messages = append(state.messages, userMsg)
	history := c.buildHistory(state.messages)
	c.mu.Unlock()

	block, citations := c.ground(streamCtx, userMsg.FlattenedContent(), scope)
	if block != "" {
		history = append([]llm.Message{{Role: entity.MessageRoleSystem, Content: block}}, history...)
	}

	assistantMsg, interrupted, err := c.streams.Run(streamCtx, history, sink)
	if err != nil {
		c.finishTurn(id, state)
		return nil, err
	}

	c.mu.Lock()
	if state.status == statusStreaming {
		state.messages = append(state.messages, assistantMsg)
	}
	c.mu.Unlock()

	c.finishTurn(id, state)

	return &TurnResult{
		ConversationId: id,
		Message:        assistantMsg,
		Interrupted:    interrupted,
		Citations:      citations,
	}, nil
}

// claimTurn resolves the conversation id and moves it to Streaming, rejecting
// concurrent or archived submits. The cancel func is installed under the same
// lock that flips the status, so anything observing Streaming can cancel.
func (c *Coordinator) claimTurn(ctx context.Context, conversationId *uuid.UUID, scope entity.ScopeKey, cancel context.CancelFunc) (uuid.UUID, *conversationState, error) {
	var id uuid.UUID
	if conversationId == nil {
		created, err := c.store.Create(ctx, scope)
		if err != nil {
			// Degrade to an in-memory conversation; persistence will retry
			// the upsert path on save.
			c.log.Warn("session.coordinator", "store create failed, continuing in memory", map[string]interface{}{
				"error": err.Error(),
			})
			created = uuid.New()
		}
		id = created
	} else {
		id = *conversationId
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	state, ok := c.states[id]
	if !ok {
		state = &conversationState{scope: scope}
		c.states[id] = state
		if conversationId == nil {
			state.loaded = true
		}
	}
	switch state.status {
	case statusArchived:
		return uuid.Nil, nil, ErrConversationArchived
	case statusStreaming:
		return uuid.Nil, nil, ErrTurnInProgress
	}
	state.status = statusStreaming
	state.cancel = cancel
	state.scope = scope
	return id, state, nil
}

// ensureLoaded pulls the durable history into memory the first time this
// process touches the conversation. A load failure degrades to an empty
// sequence rather than failing the turn.
func (c *Coordinator) ensureLoaded(ctx context.Context, id uuid.UUID, state *conversationState) {
	c.mu.Lock()
	loaded := state.loaded
	c.mu.Unlock()
	if loaded {
		return
	}

	msgs, err := c.store.Load(ctx, id)
	if err != nil {
		c.log.Warn("session.coordinator", "history load failed, starting empty", map[string]interface{}{
			"conversation_id": id.String(),
			"error":           err.Error(),
		})
		msgs = nil
	}

	c.mu.Lock()
	if !state.loaded {
		state.messages = msgs
		state.loaded = true
	}
	c.mu.Unlock()
}

// ground retrieves and assembles the optional context block. Retrieval is
// best effort; any failure yields an ungrounded turn.
func (c *Coordinator) ground(ctx context.Context, query string, scope entity.ScopeKey) (string, []grounding.Citation) {
	passages, err := c.retriever.Retrieve(ctx, query, scope, c.topK)
	if err != nil {
		c.log.Warn("session.coordinator", "retrieval failed, answering ungrounded", map[string]interface{}{
			"scope": scope.String(),
			"error": err.Error(),
		})
		return "", nil
	}
	return grounding.Assemble(passages, c.topK)
}

// buildHistory maps the most recent window of the transcript into the
// provider's message shape. Call with c.mu held.
func (c *Coordinator) buildHistory(messages []entity.Message) []llm.Message {
	window := messages
	if c.historyLimit > 0 && len(window) > c.historyLimit {
		window = window[len(window)-c.historyLimit:]
	}

	history := make([]llm.Message, 0, len(window))
	for _, m := range window {
		history = append(history, llm.Message{Role: m.Role, Content: m.FlattenedContent()})
	}
	return history
}

// finishTurn releases the conversation back to Ready and schedules exactly
// one persist for the completed turn. A conversation archived mid-stream
// stays archived and is not persisted.
func (c *Coordinator) finishTurn(id uuid.UUID, state *conversationState) {
	c.mu.Lock()
	if state.status != statusStreaming {
		c.mu.Unlock()
		return
	}
	state.status = statusReady
	state.cancel = nil
	snapshot := make([]entity.Message, len(state.messages))
	copy(snapshot, state.messages)
	c.mu.Unlock()

	if c.persister != nil {
		c.persister.Schedule(id, snapshot)
	}
}

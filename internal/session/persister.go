package session

import (
	"context"
	"sync"

	"github.com/ehcaw/documix/internal/entity"
	"github.com/ehcaw/documix/internal/pkg/logger"
	"github.com/ehcaw/documix/internal/transcript"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

const persistTopic = "transcript.persist"

// Persister applies transcript saves asynchronously, off the streaming path.
// Each scheduled save holds the full message sequence; bursts for one
// conversation coalesce so only the latest snapshot reaches the store, and
// snapshots for one conversation are applied in the order they were
// scheduled.
type Persister struct {
	store  transcript.Store
	pubsub *gochannel.GoChannel
	log    logger.ILogger

	mu      sync.Mutex
	pending map[uuid.UUID][]entity.Message
}

func NewPersister(store transcript.Store, log logger.ILogger) *Persister {
	return &Persister{
		store: store,
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 64,
		}, watermill.NopLogger{}),
		log:     log,
		pending: make(map[uuid.UUID][]entity.Message),
	}
}

// Schedule records the snapshot as the pending state for the conversation and
// queues an apply. A newer Schedule for the same conversation before the
// apply runs supersedes the older snapshot.
func (p *Persister) Schedule(conversationId uuid.UUID, messages []entity.Message) {
	snapshot := make([]entity.Message, len(messages))
	copy(snapshot, messages)

	p.mu.Lock()
	p.pending[conversationId] = snapshot
	p.mu.Unlock()

	msg := message.NewMessage(watermill.NewUUID(), []byte(conversationId.String()))
	if err := p.pubsub.Publish(persistTopic, msg); err != nil {
		p.log.Warn("session.persister", "failed to queue transcript save", map[string]interface{}{
			"conversation_id": conversationId.String(),
			"error":           err.Error(),
		})
	}
}

// Run consumes the persist queue until ctx is cancelled. Save failures are
// logged and dropped; the in-memory transcript remains the working copy.
func (p *Persister) Run(ctx context.Context) error {
	messages, err := p.pubsub.Subscribe(ctx, persistTopic)
	if err != nil {
		return err
	}

	for msg := range messages {
		p.apply(ctx, msg)
		msg.Ack()
	}
	return nil
}

func (p *Persister) apply(ctx context.Context, msg *message.Message) {
	conversationId, err := uuid.Parse(string(msg.Payload))
	if err != nil {
		p.log.Warn("session.persister", "dropping malformed persist event", map[string]interface{}{
			"payload": string(msg.Payload),
		})
		return
	}

	p.mu.Lock()
	snapshot, ok := p.pending[conversationId]
	delete(p.pending, conversationId)
	p.mu.Unlock()

	// Already applied by an earlier event that picked up a newer snapshot.
	if !ok {
		return
	}

	if err := p.store.Save(ctx, conversationId, snapshot); err != nil {
		p.log.Warn("session.persister", "transcript save failed", map[string]interface{}{
			"conversation_id": conversationId.String(),
			"messages":        len(snapshot),
			"error":           err.Error(),
		})
	}
}

// Close shuts down the underlying queue.
func (p *Persister) Close() error {
	return p.pubsub.Close()
}

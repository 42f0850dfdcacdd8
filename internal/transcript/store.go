// Package transcript provides durable, keyed persistence of conversation
// message sequences. The store owns the durable copy; the session coordinator
// owns the in-memory copy for the duration of an active turn and supplies the
// complete sequence on every save (last-writer-wins).
package transcript

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ehcaw/documix/internal/entity"

	"github.com/google/uuid"
)

// ErrStoreUnavailable signals that the backing medium cannot be reached.
// The in-memory transcript stays usable for the rest of the session.
var ErrStoreUnavailable = errors.New("transcript store unavailable")

type Store interface {
	// Create allocates a fresh conversation id with an empty sequence.
	Create(ctx context.Context, scope entity.ScopeKey) (uuid.UUID, error)

	// Load returns the stored sequence. An unknown id is not an error: it
	// models a new/empty chat and yields an empty sequence.
	Load(ctx context.Context, id uuid.UUID) ([]entity.Message, error)

	// Save replaces the stored sequence for id in full.
	Save(ctx context.Context, id uuid.UUID, messages []entity.Message) error

	// List returns summaries for a scope, most recently created first.
	List(ctx context.Context, scope entity.ScopeKey) ([]entity.ConversationSummary, error)

	// Archive removes id permanently. Archiving an unknown or already
	// archived id is a no-op success.
	Archive(ctx context.Context, id uuid.UUID) error
}

const titleMaxRunes = 48

// DeriveTitle produces the display title for a conversation: the first user
// message truncated to a bounded length, or a synthetic label from the id
// when no user message exists yet.
func DeriveTitle(id uuid.UUID, messages []entity.Message) string {
	for _, m := range messages {
		if m.Role != entity.MessageRoleUser {
			continue
		}
		text := m.FlattenedContent()
		runes := []rune(text)
		if len(runes) > titleMaxRunes {
			return string(runes[:titleMaxRunes]) + "…"
		}
		if text != "" {
			return text
		}
	}
	return fmt.Sprintf("Conversation %s", id.String()[:8])
}

// deriveCreatedAt takes the conversation creation time from the first
// message, falling back to the wall clock for empty sequences.
func deriveCreatedAt(messages []entity.Message) time.Time {
	if len(messages) > 0 {
		return messages[0].CreatedAt
	}
	return time.Now()
}

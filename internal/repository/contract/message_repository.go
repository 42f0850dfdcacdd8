package contract

import (
	"context"

	"github.com/ehcaw/documix/internal/entity"
	"github.com/ehcaw/documix/internal/repository/specification"

	"github.com/google/uuid"
)

type MessageRepository interface {
	// ReplaceAll swaps the full message sequence for a conversation.
	// The transcript store supplies the complete sequence on every save.
	ReplaceAll(ctx context.Context, conversationId uuid.UUID, messages []entity.Message) error
	DeleteByConversationId(ctx context.Context, conversationId uuid.UUID) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error)
}

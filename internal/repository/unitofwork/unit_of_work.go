package unitofwork

import (
	"context"

	"github.com/ehcaw/documix/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ConversationRepository() contract.ConversationRepository
	MessageRepository() contract.MessageRepository
	DocumentChunkRepository() contract.DocumentChunkRepository
}

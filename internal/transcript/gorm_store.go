package transcript

import (
	"context"
	"fmt"
	"time"

	"github.com/ehcaw/documix/internal/entity"
	"github.com/ehcaw/documix/internal/repository/specification"
	"github.com/ehcaw/documix/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// GormStore persists transcripts in Postgres through the unit-of-work
// repositories. Save replaces the full message set in one transaction.
type GormStore struct {
	uowFactory unitofwork.RepositoryFactory
}

var _ Store = &GormStore{}

func NewGormStore(uowFactory unitofwork.RepositoryFactory) *GormStore {
	return &GormStore{uowFactory: uowFactory}
}

func (s *GormStore) Create(ctx context.Context, scope entity.ScopeKey) (uuid.UUID, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	id := uuid.New()
	conversation := entity.Conversation{
		Id:        id,
		ScopeKey:  scope,
		Title:     DeriveTitle(id, nil),
		CreatedAt: time.Now(),
	}
	if err := uow.ConversationRepository().Create(ctx, &conversation); err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return conversation.Id, nil
}

func (s *GormStore) Load(ctx context.Context, id uuid.UUID) ([]entity.Message, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	conversation, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	if conversation == nil {
		// Unknown conversation models a fresh chat, not an error.
		return []entity.Message{}, nil
	}

	messages, err := uow.MessageRepository().FindAll(ctx,
		specification.ByConversationID{ConversationID: id},
		specification.OrderBy{Field: "seq", Desc: false},
	)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	sequence := make([]entity.Message, len(messages))
	for i, m := range messages {
		sequence[i] = *m
	}
	return sequence, nil
}

func (s *GormStore) Save(ctx context.Context, id uuid.UUID, messages []entity.Message) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer uow.Rollback()

	existing, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}

	if existing == nil {
		conversation := entity.Conversation{
			Id:        id,
			Title:     DeriveTitle(id, messages),
			CreatedAt: deriveCreatedAt(messages),
		}
		if err := uow.ConversationRepository().Create(ctx, &conversation); err != nil {
			return fmt.Errorf("save conversation: %w", err)
		}
	} else {
		existing.Title = DeriveTitle(id, messages)
		if err := uow.ConversationRepository().Update(ctx, existing); err != nil {
			return fmt.Errorf("save conversation: %w", err)
		}
	}

	if err := uow.MessageRepository().ReplaceAll(ctx, id, messages); err != nil {
		return fmt.Errorf("save messages: %w", err)
	}

	return uow.Commit()
}

func (s *GormStore) List(ctx context.Context, scope entity.ScopeKey) ([]entity.ConversationSummary, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	conversations, err := uow.ConversationRepository().FindAll(ctx,
		specification.ByScopeKey{Scope: scope},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	summaries := make([]entity.ConversationSummary, 0, len(conversations))
	for _, c := range conversations {
		summaries = append(summaries, entity.ConversationSummary{
			Id:        c.Id,
			Title:     c.Title,
			CreatedAt: c.CreatedAt,
		})
	}
	return summaries, nil
}

func (s *GormStore) Archive(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer uow.Rollback()

	// Deleting an unknown id is a no-op success, which makes archive
	// idempotent.
	if err := uow.ConversationRepository().Delete(ctx, id); err != nil {
		return fmt.Errorf("archive conversation: %w", err)
	}
	if err := uow.MessageRepository().DeleteByConversationId(ctx, id); err != nil {
		return fmt.Errorf("archive messages: %w", err)
	}

	return uow.Commit()
}

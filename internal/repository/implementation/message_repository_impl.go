package implementation

import (
	"context"

	"github.com/ehcaw/documix/internal/entity"
	"github.com/ehcaw/documix/internal/mapper"
	"github.com/ehcaw/documix/internal/model"
	"github.com/ehcaw/documix/internal/repository/contract"
	"github.com/ehcaw/documix/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ConversationMapper
}

func NewMessageRepository(db *gorm.DB) contract.MessageRepository {
	return &MessageRepositoryImpl{
		db:     db,
		mapper: mapper.NewConversationMapper(),
	}
}

func (r *MessageRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *MessageRepositoryImpl) ReplaceAll(ctx context.Context, conversationId uuid.UUID, messages []entity.Message) error {
	if err := r.DeleteByConversationId(ctx, conversationId); err != nil {
		return err
	}
	if len(messages) == 0 {
		return nil
	}
	models := make([]*model.ConversationMessage, len(messages))
	for i := range messages {
		models[i] = r.mapper.MessageToModel(conversationId, i, &messages[i])
	}
	return r.db.WithContext(ctx).Create(models).Error
}

func (r *MessageRepositoryImpl) DeleteByConversationId(ctx context.Context, conversationId uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationId).
		Delete(&model.ConversationMessage{}).Error
}

func (r *MessageRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error) {
	var models []*model.ConversationMessage
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Message, len(models))
	for i, m := range models {
		entities[i] = r.mapper.MessageToEntity(m)
	}
	return entities, nil
}

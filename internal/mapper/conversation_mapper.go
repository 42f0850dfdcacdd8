package mapper

import (
	"encoding/json"
	"time"

	"github.com/ehcaw/documix/internal/entity"
	"github.com/ehcaw/documix/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ConversationMapper struct{}

func NewConversationMapper() *ConversationMapper {
	return &ConversationMapper{}
}

// Conversation Mappers

func (m *ConversationMapper) ConversationToEntity(c *model.Conversation) *entity.Conversation {
	if c == nil {
		return nil
	}

	var deletedAt *time.Time
	if c.DeletedAt.Valid {
		t := c.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	return &entity.Conversation{
		Id:        c.Id,
		ScopeKey:  entity.ScopeKey(c.ScopeKey),
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
		IsDeleted: c.DeletedAt.Valid,
	}
}

func (m *ConversationMapper) ConversationToModel(c *entity.Conversation) *model.Conversation {
	if c == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if c.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *c.DeletedAt, Valid: true}
	} else if c.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if c.UpdatedAt != nil {
		updatedAt = *c.UpdatedAt
	}

	return &model.Conversation{
		Id:        c.Id,
		ScopeKey:  c.ScopeKey.String(),
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
	}
}

// Message Mappers

func (m *ConversationMapper) MessageToEntity(msg *model.ConversationMessage) *entity.Message {
	if msg == nil {
		return nil
	}

	var parts []entity.MessagePart
	if len(msg.Parts) > 0 {
		// A corrupt parts column degrades to flattened content only.
		_ = json.Unmarshal(msg.Parts, &parts)
	}

	return &entity.Message{
		Id:        msg.Id,
		Role:      msg.Role,
		Content:   msg.Content,
		Parts:     parts,
		CreatedAt: msg.CreatedAt,
	}
}

func (m *ConversationMapper) MessageToModel(conversationId uuid.UUID, seq int, msg *entity.Message) *model.ConversationMessage {
	if msg == nil {
		return nil
	}

	var parts datatypes.JSON
	if len(msg.Parts) > 0 {
		if raw, err := json.Marshal(msg.Parts); err == nil {
			parts = datatypes.JSON(raw)
		}
	}

	return &model.ConversationMessage{
		Id:             msg.Id,
		ConversationId: conversationId,
		Role:           msg.Role,
		Content:        msg.Content,
		Parts:          parts,
		Seq:            seq,
		CreatedAt:      msg.CreatedAt,
	}
}

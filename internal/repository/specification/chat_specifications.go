package specification

import (
	"github.com/ehcaw/documix/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByConversationID struct {
	ConversationID uuid.UUID
}

func (s ByConversationID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("conversation_id = ?", s.ConversationID)
}

// ByScopeKey restricts rows to one retrieval/listing partition. The value is
// bound as a query parameter, never interpolated into the filter text.
type ByScopeKey struct {
	Scope entity.ScopeKey
}

func (s ByScopeKey) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("scope_key = ?", s.Scope.String())
}

type BySource struct {
	Source string
}

func (s BySource) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("source = ?", s.Source)
}

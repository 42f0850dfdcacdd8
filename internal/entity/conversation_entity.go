package entity

import (
	"time"

	"github.com/google/uuid"
)

type Conversation struct {
	Id        uuid.UUID
	ScopeKey  ScopeKey
	Title     string
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}

type ConversationSummary struct {
	Id        uuid.UUID
	Title     string
	CreatedAt time.Time
}

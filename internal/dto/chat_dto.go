package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionResponse struct {
	Id uuid.UUID `json:"id"`
}

type SessionSummaryResponse struct {
	Id        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatMessageResponse struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type SendChatRequest struct {
	// Omit to start a fresh conversation
	ConversationId *uuid.UUID `json:"conversation_id"`
	Chat           string     `json:"chat" validate:"required"`
}

type CitationResponse struct {
	Source string  `json:"source"`
	Score  float32 `json:"score"`
}

type SendChatResponse struct {
	ConversationId uuid.UUID           `json:"conversation_id"`
	Message        ChatMessageResponse `json:"message"`
	Interrupted    bool                `json:"interrupted"`
	Citations      []CitationResponse  `json:"citations,omitempty"`
}

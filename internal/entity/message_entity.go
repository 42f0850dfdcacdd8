package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
	MessageRoleSystem    = "system"
)

// MessagePart is an optional structured fragment of message content.
// The engine itself only ever needs the flattened text.
type MessagePart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type Message struct {
	Id        uuid.UUID
	Role      string
	Content   string
	Parts     []MessagePart
	CreatedAt time.Time
}

// FlattenedContent returns the plain-text view of the message, joining
// structured parts when present. Used to build retrieval queries.
func (m Message) FlattenedContent() string {
	if len(m.Parts) == 0 {
		return m.Content
	}
	texts := make([]string, 0, len(m.Parts))
	for _, p := range m.Parts {
		if strings.TrimSpace(p.Text) != "" {
			texts = append(texts, p.Text)
		}
	}
	if len(texts) == 0 {
		return m.Content
	}
	return strings.Join(texts, "\n")
}

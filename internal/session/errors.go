package session

import "errors"

var (
	// ErrTurnInProgress rejects a submit while another turn holds the
	// conversation. At most one generation stream runs per conversation.
	ErrTurnInProgress = errors.New("turn already in progress")

	// ErrConversationArchived rejects any operation on an archived
	// conversation. Archived is terminal.
	ErrConversationArchived = errors.New("conversation archived")

	// ErrNotStreaming rejects a stop when no turn is active.
	ErrNotStreaming = errors.New("conversation is not streaming")
)

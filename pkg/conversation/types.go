package conversation

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a message.
type Role string

const (
	// RoleSystem is an instruction message injected by the application.
	RoleSystem Role = "system"

	// RoleUser is a message authored by the end user.
	RoleUser Role = "user"

	// RoleAssistant is a model-generated reply.
	RoleAssistant Role = "assistant"

	// RoleFunction is the result of a function/tool invocation.
	RoleFunction Role = "function"
)

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleFunction:
		return true
	}
	return false
}

// Message is a single turn in a conversation.
//
// Messages are owned by the external conversation store; the session core
// only reads them. Tokens is optional and zero when no estimate is known.
type Message struct {
	// ID uniquely identifies the message.
	ID uuid.UUID

	// Role is the message author.
	Role Role

	// Content is the message text.
	Content string

	// Timestamp is when the message was produced.
	Timestamp time.Time

	// Tokens is the estimated token count, or 0 if unknown.
	Tokens int

	// ParentID links a reply to the message it responds to, if any.
	ParentID uuid.UUID

	// Metadata carries caller-defined annotations.
	Metadata map[string]any
}

// NewMessage creates a message with a fresh id and the given timestamp.
func NewMessage(role Role, content string, at time.Time) Message {
	return Message{
		ID:        uuid.New(),
		Role:      role,
		Content:   content,
		Timestamp: at,
	}
}

// TokenWindow returns the newest suffix of messages whose combined token
// counts fit within maxTokens. Messages with an unknown token count (zero)
// are included without consuming budget. Order is preserved.
func TokenWindow(messages []Message, maxTokens int) []Message {
	window := make([]Message, 0, len(messages))
	total := 0

	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		if msg.Tokens > 0 && total+msg.Tokens > maxTokens {
			break
		}
		window = append(window, msg)
		total += msg.Tokens
	}

	// Restore chronological order.
	for i, j := 0, len(window)-1; i < j; i, j = i+1, j-1 {
		window[i], window[j] = window[j], window[i]
	}

	return window
}

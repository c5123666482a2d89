package models

import "time"

// Role tags a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ChatMessage is a single conversation turn. Immutable once appended to the
// history.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatRequest carries an ordered sequence of turns plus optional free-text
// context about the embedded report.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
	Context  string        `json:"context,omitempty"`
}

// ChatResponse holds the assistant's reply for one exchange.
type ChatResponse struct {
	Message string `json:"message"`
	Role    Role   `json:"role"`
}

// HistoryEntry is a ChatMessage with the time it was recorded, as persisted
// by the history store.
type HistoryEntry struct {
	ID        int64     `json:"id,omitempty"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Package chat manages multi-turn advisory conversations: per-session
// history windows, serialized turns, and pluggable reply strategies.
package chat

import "github.com/kalambet/loanbot/internal/engine"

const (
	RoleUser      = engine.RoleUser
	RoleAssistant = engine.RoleAssistant

	DefaultHistoryWindow = 20

	EmptyMessageReply = "I didn't receive a message. How can I help you today?"
	FallbackReply     = "I'm having trouble connecting to my AI service right now. Please try again in a moment."
)

// Turn is one message in a session's history.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

package branch

import (
	"time"

	"github.com/genecyber/NOESIS-sub002/stance"
)

// Role represents the sender of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid returns true if this is a known role.
func (r Role) IsValid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// Message is a single conversation turn. Once appended to a branch it is
// never edited; forks only ever trim the sequence.
type Message struct {
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Stance    *stance.Stance `json:"stance,omitempty"`
}

// NewMessage creates a message stamped with the current time.
func NewMessage(role Role, content string) Message {
	return Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// WithStance attaches a copy of the stance captured at this turn.
func (m Message) WithStance(s *stance.Stance) Message {
	m.Stance = s.Clone()
	return m
}

// Clone returns a deep copy of the message.
func (m Message) Clone() Message {
	m.Stance = m.Stance.Clone()
	return m
}

// Validate checks if the message is valid.
func (m Message) Validate() *stance.ValidationError {
	if !m.Role.IsValid() {
		return &stance.ValidationError{Field: "role", Message: "unknown role " + string(m.Role)}
	}
	if m.Timestamp.IsZero() {
		return &stance.ValidationError{Field: "timestamp", Message: "timestamp is required"}
	}
	if m.Stance != nil {
		if err := m.Stance.Validate(); err != nil {
			return &stance.ValidationError{Field: "stance." + err.Field, Message: err.Message}
		}
	}
	return nil
}

func cloneMessages(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.Clone()
	}
	return out
}

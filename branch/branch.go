// Package branch manages a tree of conversation branches with one active
// branch, plus time travel that forks new branches from past messages.
//
// History is copy-on-write: forks and merges allocate new branches and never
// touch the records they were built from.
package branch

import (
	"strconv"
	"time"

	"github.com/genecyber/NOESIS-sub002/stance"
)

// BranchPoint records where a branch forked from its parent.
//
// MessageIndex always counts into the branch the fork was taken from. When
// that branch is deleted its children move to the grandparent but keep the
// original index, so it is a historical marker rather than a position in
// the new parent.
type BranchPoint struct {
	ID           string    `json:"id"`
	MessageIndex int       `json:"message_index"`
	Timestamp    time.Time `json:"timestamp"`
	Reason       string    `json:"reason,omitempty"`

	// StanceInferred is set when the message at MessageIndex carried no
	// stance and the parent's current stance was used instead.
	StanceInferred bool `json:"stance_inferred,omitempty"`
}

// Metadata holds counters derived from a branch's history.
type Metadata struct {
	MessageCount int     `json:"message_count"`
	TotalDrift   float64 `json:"total_drift"`
	FrameChanges int     `json:"frame_changes"`
}

// Branch is an independently mutable fork of conversation history and stance.
type Branch struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	ParentID    string            `json:"parent_id,omitempty"`
	BranchPoint *BranchPoint      `json:"branch_point,omitempty"`
	Messages    []Message         `json:"messages"`
	Stance      *stance.Stance    `json:"stance"`
	Config      stance.ModeConfig `json:"config"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Archived    bool              `json:"archived"`
	Metadata    Metadata          `json:"metadata"`
}

// IsRoot returns true for the branch with no parent.
func (b *Branch) IsRoot() bool {
	return b.ParentID == ""
}

// LastIndex returns the index of the final message, or -1 if empty.
func (b *Branch) LastIndex() int {
	return len(b.Messages) - 1
}

// Clone returns a deep copy that shares nothing with b.
func (b *Branch) Clone() *Branch {
	if b == nil {
		return nil
	}
	c := *b
	if b.BranchPoint != nil {
		bp := *b.BranchPoint
		c.BranchPoint = &bp
	}
	c.Messages = cloneMessages(b.Messages)
	c.Stance = b.Stance.Clone()
	return &c
}

// Validate checks if the branch is structurally valid.
// Returns a ValidationError if invalid, nil if valid.
func (b *Branch) Validate() *stance.ValidationError {
	if b.ID == "" {
		return &stance.ValidationError{Field: "id", Message: "id is required"}
	}
	if b.Stance == nil {
		return &stance.ValidationError{Field: "stance", Message: "stance is required"}
	}
	if (b.ParentID == "") != (b.BranchPoint == nil) {
		return &stance.ValidationError{Field: "branch_point", Message: "branch_point must be set exactly when parent_id is set"}
	}
	if b.CreatedAt.IsZero() {
		return &stance.ValidationError{Field: "created_at", Message: "created_at is required"}
	}
	if err := b.Stance.Validate(); err != nil {
		return &stance.ValidationError{Field: "stance." + err.Field, Message: err.Message}
	}

	// Cascade validation: validate all messages
	for i, msg := range b.Messages {
		if err := msg.Validate(); err != nil {
			return &stance.ValidationError{
				Field:   "messages[" + strconv.Itoa(i) + "]." + err.Field,
				Message: err.Message,
			}
		}
	}
	return nil
}

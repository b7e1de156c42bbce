package branch

import (
	"time"

	"github.com/genecyber/NOESIS-sub002/stance"
)

// Comparison describes how two branches relate.
type Comparison struct {
	Branch1ID string `json:"branch1_id"`
	Branch2ID string `json:"branch2_id"`

	// CommonAncestorIndex is the last index at which both branches hold the
	// same message content, or -1 if they differ from the first message.
	CommonAncestorIndex int `json:"common_ancestor_index"`

	// MessageCountDelta is len(branch2) - len(branch1).
	MessageCountDelta int `json:"message_count_delta"`

	FrameDiffers     bool                `json:"frame_differs"`
	SelfModelDiffers bool                `json:"self_model_differs"`
	StanceDelta      stance.Delta        `json:"stance_delta"`
	DivergedAt       time.Time           `json:"diverged_at"`
	Frames           [2]stance.Frame     `json:"frames"`
	SelfModels       [2]stance.SelfModel `json:"self_models"`
}

// Compare reports the common ancestor, size difference and stance delta
// between two branches. Only message content is compared when looking for
// the ancestor; identical text with different stances counts as shared.
func (m *Manager) Compare(id1, id2 string) (*Comparison, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b1, ok := m.branches[id1]
	if !ok {
		return nil, ErrBranchNotFound
	}
	b2, ok := m.branches[id2]
	if !ok {
		return nil, ErrBranchNotFound
	}

	ancestor := commonAncestor(b1.Messages, b2.Messages)
	delta := stance.Diff(b1.Stance, b2.Stance)

	return &Comparison{
		Branch1ID:           id1,
		Branch2ID:           id2,
		CommonAncestorIndex: ancestor,
		MessageCountDelta:   len(b2.Messages) - len(b1.Messages),
		FrameDiffers:        delta.FrameChanged,
		SelfModelDiffers:    delta.SelfModelChanged,
		StanceDelta:         delta,
		DivergedAt:          divergedAt(b2, ancestor),
		Frames:              [2]stance.Frame{b1.Stance.Frame, b2.Stance.Frame},
		SelfModels:          [2]stance.SelfModel{b1.Stance.SelfModel, b2.Stance.SelfModel},
	}, nil
}

// commonAncestor returns the index before the first position where the
// message content differs.
func commonAncestor(a, b []Message) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i].Content != b[i].Content {
			return i - 1
		}
	}
	return n - 1
}

// divergedAt is the timestamp of b's first message past the ancestor, or
// the moment b was forked when it has nothing new.
func divergedAt(b *Branch, ancestor int) time.Time {
	if next := ancestor + 1; next < len(b.Messages) {
		return b.Messages[next].Timestamp
	}
	if b.BranchPoint != nil {
		return b.BranchPoint.Timestamp
	}
	return b.CreatedAt
}

// Package identity keeps a timeline of named stance checkpoints. It
// fingerprints and diffs them, tracks reinforced core values, and prunes old
// entries without ever dropping a milestone.
package identity

import (
	"time"

	"github.com/genecyber/NOESIS-sub002/stance"
)

// CoreValue is a value the persona has come to hold. It is dropped from
// the active set once its strength falls below the configured threshold,
// unless it has been reinforced at least three times.
type CoreValue struct {
	Name           string    `json:"name"`
	Strength       float64   `json:"strength"`
	Description    string    `json:"description"`
	EstablishedAt  time.Time `json:"established_at"`
	Reinforcements int       `json:"reinforcements"`
}

// Checkpoint is an immutable snapshot of the stance and derived identity.
type Checkpoint struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Timestamp      time.Time      `json:"timestamp"`
	Stance         *stance.Stance `json:"stance"`
	CoreValues     []CoreValue    `json:"core_values"`
	EmergentTraits []string       `json:"emergent_traits"`
	Fingerprint    string         `json:"fingerprint"`
	Milestone      string         `json:"milestone,omitempty"`
	ParentID       string         `json:"parent_id,omitempty"`
}

// Clone returns a deep copy.
func (c *Checkpoint) Clone() *Checkpoint {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Stance = c.Stance.Clone()
	cp.CoreValues = append([]CoreValue(nil), c.CoreValues...)
	cp.EmergentTraits = append([]string(nil), c.EmergentTraits...)
	return &cp
}

// TimelineEntry pairs a checkpoint with its diff from the previous entry.
// Diff is nil for the first entry.
type TimelineEntry struct {
	Checkpoint  *Checkpoint   `json:"checkpoint"`
	Diff        *stance.Delta `json:"diff,omitempty"`
	IsMilestone bool          `json:"is_milestone"`
}

func (e *TimelineEntry) clone() *TimelineEntry {
	c := &TimelineEntry{
		Checkpoint:  e.Checkpoint.Clone(),
		IsMilestone: e.IsMilestone,
	}
	if e.Diff != nil {
		d := *e.Diff
		d.ValueDrift = make(map[stance.Dimension]float64, len(e.Diff.ValueDrift))
		for k, v := range e.Diff.ValueDrift {
			d.ValueDrift[k] = v
		}
		d.GoalsAdded = append([]string(nil), e.Diff.GoalsAdded...)
		d.GoalsRemoved = append([]string(nil), e.Diff.GoalsRemoved...)
		c.Diff = &d
	}
	return c
}

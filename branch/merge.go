package branch

import (
	"math"

	"github.com/genecyber/NOESIS-sub002/stance"
)

// ConflictField names a stance field that cannot be averaged.
type ConflictField string

const (
	FieldFrame     ConflictField = "frame"
	FieldSelfModel ConflictField = "self_model"
)

// Side selects which branch wins a merge conflict.
type Side string

const (
	// SideTarget keeps the target's value. It is the default.
	SideTarget Side = "target"
	// SideSource takes the source's value.
	SideSource Side = "source"
	// SideManual keeps the target's value and flags the conflict for review.
	SideManual Side = "manual"
)

// IsValid returns true if this is a known side.
func (s Side) IsValid() bool {
	switch s {
	case SideTarget, SideSource, SideManual:
		return true
	default:
		return false
	}
}

// Resolutions maps conflicting fields to the side that should win.
type Resolutions map[ConflictField]Side

// Conflict records one field the two branches disagreed on.
type Conflict struct {
	Field       ConflictField `json:"field"`
	TargetValue string        `json:"target_value"`
	SourceValue string        `json:"source_value"`
	Resolution  Side          `json:"resolution"`
	Explicit    bool          `json:"explicit"`
}

// MergeResult is the outcome of merging a source branch into a target.
type MergeResult struct {
	Branch              *Branch    `json:"branch"`
	Conflicts           []Conflict `json:"conflicts"`
	AutoResolved        int        `json:"auto_resolved"`
	ManualRequired      int        `json:"manual_required"`
	CommonAncestorIndex int        `json:"common_ancestor_index"`
}

// Merge combines source into target as a brand-new branch parented at the
// target. Neither input is modified. Frame and self model mismatches become
// conflicts resolved by res (target wins by default); every differing value
// weight is averaged and counted as auto-resolved. The merged messages are
// the target's followed by the source's messages after the common ancestor.
func (m *Manager) Merge(targetID, sourceID string, res Resolutions) (*MergeResult, error) {
	for _, side := range res {
		if !side.IsValid() {
			return nil, ErrInvalidResolution
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	target, ok := m.branches[targetID]
	if !ok {
		return nil, ErrBranchNotFound
	}
	source, ok := m.branches[sourceID]
	if !ok {
		return nil, ErrBranchNotFound
	}

	result := &MergeResult{
		CommonAncestorIndex: commonAncestor(target.Messages, source.Messages),
		Conflicts:           []Conflict{},
	}

	merged := target.Stance.Clone()

	if target.Stance.Frame != source.Stance.Frame {
		c := resolve(FieldFrame, string(target.Stance.Frame), string(source.Stance.Frame), res)
		if c.Resolution == SideSource {
			merged.Frame = source.Stance.Frame
		}
		result.addConflict(c)
	}
	if target.Stance.SelfModel != source.Stance.SelfModel {
		c := resolve(FieldSelfModel, string(target.Stance.SelfModel), string(source.Stance.SelfModel), res)
		if c.Resolution == SideSource {
			merged.SelfModel = source.Stance.SelfModel
		}
		result.addConflict(c)
	}

	for _, dim := range stance.Dimensions {
		t, s := target.Stance.Values.Get(dim), source.Stance.Values.Get(dim)
		if t != s {
			merged.Values.Set(dim, math.Round((t+s)/2))
			result.AutoResolved++
		}
	}

	messages := cloneMessages(target.Messages)
	for _, msg := range source.Messages[result.CommonAncestorIndex+1:] {
		msg = msg.Clone()
		msg.Content = provenance(source.Name) + msg.Content
		messages = append(messages, msg)
	}

	now := m.now()
	b := &Branch{
		ID:       m.newID(),
		Name:     target.Name + "+" + source.Name,
		ParentID: target.ID,
		BranchPoint: &BranchPoint{
			ID:           m.newID(),
			MessageIndex: target.LastIndex(),
			Timestamp:    now,
			Reason:       "merge " + source.Name + " into " + target.Name,
		},
		Messages:  messages,
		Stance:    merged,
		Config:    target.Config,
		CreatedAt: now,
		UpdatedAt: now,
	}
	b.Metadata.MessageCount = len(messages)

	m.branches[b.ID] = b
	result.Branch = b.Clone()
	return result, nil
}

func resolve(field ConflictField, targetVal, sourceVal string, res Resolutions) Conflict {
	side, explicit := res[field]
	if !explicit {
		side = SideTarget
	}
	return Conflict{
		Field:       field,
		TargetValue: targetVal,
		SourceValue: sourceVal,
		Resolution:  side,
		Explicit:    explicit,
	}
}

func (r *MergeResult) addConflict(c Conflict) {
	r.Conflicts = append(r.Conflicts, c)
	if c.Resolution == SideManual {
		r.ManualRequired++
	}
}

// provenance tags messages carried over from the source branch.
func provenance(name string) string {
	return "[merged from " + name + "] "
}

package branch

import (
	"fmt"
	"sync"
	"time"

	"github.com/genecyber/NOESIS-sub002/stance"
)

// DefaultMaxSnapshots bounds how many travel snapshots are remembered.
const DefaultMaxSnapshots = 32

// Snapshot points at a past message. It only exists to seed a new branch.
type Snapshot struct {
	ID           string            `json:"id"`
	BranchID     string            `json:"branch_id"`
	MessageIndex int               `json:"message_index"`
	Stance       *stance.Stance    `json:"stance"`
	Config       stance.ModeConfig `json:"config"`
	Timestamp    time.Time         `json:"timestamp"`

	// StanceInferred is set when the message had no recorded stance.
	StanceInferred bool `json:"stance_inferred,omitempty"`
}

func (s *Snapshot) clone() *Snapshot {
	c := *s
	c.Stance = s.Stance.Clone()
	return &c
}

// TimeTravel turns "go back to message N" into a fork at N. It never
// rewrites or switches the active branch.
type TimeTravel struct {
	manager   *Manager
	snapshots map[string]*Snapshot
	order     []string
	max       int

	mu sync.Mutex
}

// NewTimeTravel creates a helper over m that keeps at most maxSnapshots
// snapshots, evicting the oldest.
func NewTimeTravel(m *Manager, maxSnapshots int) *TimeTravel {
	if maxSnapshots <= 0 {
		maxSnapshots = DefaultMaxSnapshots
	}
	return &TimeTravel{
		manager:   m,
		snapshots: make(map[string]*Snapshot),
		max:       maxSnapshots,
	}
}

// TravelTo captures the stance recorded at messageIndex on the given branch.
// Configuration is not tracked per message, so the branch's current config
// is used.
func (tt *TimeTravel) TravelTo(branchID string, messageIndex int) (*Snapshot, error) {
	m := tt.manager

	m.mu.RLock()
	b, ok := m.branches[branchID]
	if !ok {
		m.mu.RUnlock()
		return nil, ErrBranchNotFound
	}
	if messageIndex < 0 || messageIndex >= len(b.Messages) {
		n := len(b.Messages)
		m.mu.RUnlock()
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, messageIndex, n)
	}
	st, inferred := stanceAt(b, messageIndex)
	snap := &Snapshot{
		ID:             m.newID(),
		BranchID:       branchID,
		MessageIndex:   messageIndex,
		Stance:         st.Clone(),
		Config:         b.Config,
		Timestamp:      m.now(),
		StanceInferred: inferred,
	}
	m.mu.RUnlock()

	tt.mu.Lock()
	defer tt.mu.Unlock()

	tt.snapshots[snap.ID] = snap
	tt.order = append(tt.order, snap.ID)
	for len(tt.order) > tt.max {
		delete(tt.snapshots, tt.order[0])
		tt.order = tt.order[1:]
	}
	return snap.clone(), nil
}

// Snapshot returns a previously captured snapshot.
func (tt *TimeTravel) Snapshot(id string) (*Snapshot, bool) {
	tt.mu.Lock()
	defer tt.mu.Unlock()

	s, ok := tt.snapshots[id]
	if !ok {
		return nil, false
	}
	return s.clone(), true
}

// Snapshots returns all remembered snapshots, oldest first.
func (tt *TimeTravel) Snapshots() []*Snapshot {
	tt.mu.Lock()
	defer tt.mu.Unlock()

	out := make([]*Snapshot, 0, len(tt.order))
	for _, id := range tt.order {
		out = append(out, tt.snapshots[id].clone())
	}
	return out
}

// Forget drops a snapshot. Returns false if it was unknown.
func (tt *TimeTravel) Forget(id string) bool {
	tt.mu.Lock()
	defer tt.mu.Unlock()

	if _, ok := tt.snapshots[id]; !ok {
		return false
	}
	delete(tt.snapshots, id)
	for i, oid := range tt.order {
		if oid == id {
			tt.order = append(tt.order[:i], tt.order[i+1:]...)
			break
		}
	}
	return true
}

// Restore forks a new branch at the snapshot's message, seeded with the
// snapshot's stance. The active branch is left as it was.
func (tt *TimeTravel) Restore(snapshotID, name string) (*Branch, error) {
	snap, ok := tt.Snapshot(snapshotID)
	if !ok {
		return nil, ErrSnapshotNotFound
	}

	m := tt.manager
	m.mu.Lock()
	defer m.mu.Unlock()

	src, ok := m.branches[snap.BranchID]
	if !ok {
		return nil, ErrBranchNotFound
	}
	reason := fmt.Sprintf("time travel to message %d", snap.MessageIndex)
	b, err := m.forkLocked(src, snap.MessageIndex, name, reason, snap.Stance)
	if err != nil {
		return nil, err
	}
	b.BranchPoint.StanceInferred = snap.StanceInferred
	b.Config = snap.Config
	return b.Clone(), nil
}

package identity

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/genecyber/NOESIS-sub002/stance"
)

// reinforcementsToKeep is how many reinforcements protect a weak core value.
const reinforcementsToKeep = 3

// CreateOptions are optional checkpoint attributes.
type CreateOptions struct {
	// Milestone labels the checkpoint and exempts it from pruning.
	Milestone string
	// ParentCheckpoint defaults to the previous checkpoint.
	ParentCheckpoint string
}

// Manager owns the checkpoint timeline and the core value set.
type Manager struct {
	cfg                  Config
	timeline             []*TimelineEntry
	coreValues           []CoreValue
	currentFingerprint   string
	turnsSinceCheckpoint int

	now   func() time.Time
	newID func() string

	mu sync.RWMutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithIDGenerator replaces uuid generation for checkpoint ids.
func WithIDGenerator(newID func() string) Option {
	return func(m *Manager) { m.newID = newID }
}

// NewManager creates an empty checkpoint manager.
func NewManager(cfg Config, opts ...Option) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &Manager{
		cfg:   cfg,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Config returns the manager's configuration.
func (m *Manager) Config() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// SetConfig replaces the configuration and prunes if the cap shrank.
func (m *Manager) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = cfg
	m.pruneLocked()
	return nil
}

// Create records a checkpoint of st. The entry is diffed against the
// previous one and becomes a milestone if labeled or if the change was
// major or fundamental. The timeline is then pruned to capacity.
func (m *Manager) Create(st *stance.Stance, name string, opts CreateOptions) (*TimelineEntry, error) {
	if st == nil {
		return nil, ErrNilStance
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := st.Clone()
	cp := &Checkpoint{
		ID:             m.newID(),
		Name:           name,
		Timestamp:      m.now(),
		Stance:         snapshot,
		CoreValues:     append([]CoreValue(nil), m.coreValues...),
		EmergentTraits: Traits(snapshot),
		Fingerprint:    Fingerprint(snapshot),
		Milestone:      opts.Milestone,
		ParentID:       opts.ParentCheckpoint,
	}

	entry := &TimelineEntry{Checkpoint: cp, IsMilestone: opts.Milestone != ""}
	if n := len(m.timeline); n > 0 {
		prev := m.timeline[n-1].Checkpoint
		d := stance.Diff(prev.Stance, snapshot)
		entry.Diff = &d
		if d.Significance.IsMajor() {
			entry.IsMilestone = true
		}
		if cp.ParentID == "" {
			cp.ParentID = prev.ID
		}
	}

	m.timeline = append(m.timeline, entry)
	m.currentFingerprint = cp.Fingerprint
	m.turnsSinceCheckpoint = 0
	m.pruneLocked()

	return entry.clone(), nil
}

// Prune enforces the checkpoint cap and returns how many entries it removed.
// Milestones are always kept, even past the cap; the newest non-milestones
// fill whatever budget remains. The latest entry is never removed, so the
// current fingerprint always names a stored checkpoint.
func (m *Manager) Prune() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pruneLocked()
}

func (m *Manager) pruneLocked() int {
	if len(m.timeline) <= m.cfg.MaxCheckpoints {
		return 0
	}

	milestones := 0
	for _, e := range m.timeline {
		if e.IsMilestone {
			milestones++
		}
	}
	budget := m.cfg.MaxCheckpoints - milestones
	if budget < 0 {
		budget = 0
	}

	last := len(m.timeline) - 1
	keep := make([]bool, len(m.timeline))
	for i := last; i >= 0; i-- {
		e := m.timeline[i]
		switch {
		case e.IsMilestone:
			keep[i] = true
		case budget > 0:
			keep[i] = true
			budget--
		case i == last:
			keep[i] = true
		}
	}

	kept := make([]*TimelineEntry, 0, len(m.timeline))
	for i, e := range m.timeline {
		if keep[i] {
			kept = append(kept, e)
		}
	}
	removed := len(m.timeline) - len(kept)
	m.timeline = kept
	return removed
}

// GetDiffFromLast diffs st against the latest checkpoint without storing
// anything. Returns false when the timeline is empty.
func (m *Manager) GetDiffFromLast(st *stance.Stance) (stance.Delta, bool) {
	if st == nil {
		return stance.Delta{}, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.timeline) == 0 {
		return stance.Delta{}, false
	}
	last := m.timeline[len(m.timeline)-1].Checkpoint
	return stance.Diff(last.Stance, st), true
}

// RecordTurn advances the turns-since-checkpoint counter.
func (m *Manager) RecordTurn() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turnsSinceCheckpoint++
}

// TurnsSinceCheckpoint returns the current turn counter.
func (m *Manager) TurnsSinceCheckpoint() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.turnsSinceCheckpoint
}

// ShouldAutoCheckpoint reports whether the interval trigger has fired.
func (m *Manager) ShouldAutoCheckpoint() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.Enabled && m.turnsSinceCheckpoint >= m.cfg.Interval
}

// CurrentFingerprint returns the fingerprint of the latest checkpoint.
func (m *Manager) CurrentFingerprint() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentFingerprint
}

// FingerprintMatches reports whether st has the same shape as the latest
// checkpoint.
func (m *Manager) FingerprintMatches(st *stance.Stance) bool {
	if st == nil {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentFingerprint != "" && Fingerprint(st) == m.currentFingerprint
}

// FindByFingerprint returns every checkpoint with the exact fingerprint.
func (m *Manager) FindByFingerprint(fp string) []*Checkpoint {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Checkpoint
	for _, e := range m.timeline {
		if e.Checkpoint.Fingerprint == fp {
			out = append(out, e.Checkpoint.Clone())
		}
	}
	return out
}

// Get returns the checkpoint with the given id.
func (m *Manager) Get(id string) (*Checkpoint, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, e := range m.timeline {
		if e.Checkpoint.ID == id {
			return e.Checkpoint.Clone(), true
		}
	}
	return nil, false
}

// StanceAt returns a copy of the stance stored in a checkpoint, for callers
// that want to roll back to it.
func (m *Manager) StanceAt(id string) (*stance.Stance, error) {
	cp, ok := m.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return cp.Stance, nil
}

// Latest returns the most recent checkpoint.
func (m *Manager) Latest() (*Checkpoint, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.timeline) == 0 {
		return nil, false
	}
	return m.timeline[len(m.timeline)-1].Checkpoint.Clone(), true
}

// Timeline returns copies of all entries, oldest first.
func (m *Manager) Timeline() []*TimelineEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*TimelineEntry, len(m.timeline))
	for i, e := range m.timeline {
		out[i] = e.clone()
	}
	return out
}

// Checkpoints returns copies of the stored checkpoints without their diffs.
func (m *Manager) Checkpoints() []*Checkpoint {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Checkpoint, len(m.timeline))
	for i, e := range m.timeline {
		out[i] = e.Checkpoint.Clone()
	}
	return out
}

// Milestones returns only the milestone entries.
func (m *Manager) Milestones() []*TimelineEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*TimelineEntry
	for _, e := range m.timeline {
		if e.IsMilestone {
			out = append(out, e.clone())
		}
	}
	return out
}

// Len returns the number of stored checkpoints.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.timeline)
}

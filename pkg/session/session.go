// Package session ties one branch tree, its time-travel snapshots and one
// identity timeline together into a named, persistable conversation.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/genecyber/NOESIS-sub002/branch"
	"github.com/genecyber/NOESIS-sub002/identity"
	"github.com/genecyber/NOESIS-sub002/pkg/config"
	"github.com/genecyber/NOESIS-sub002/pkg/metrics"
	"github.com/genecyber/NOESIS-sub002/stance"
)

// Session is a persona conversation with branching history and identity
// checkpoints. Managers are safe for concurrent reads; compound operations
// on the session are serialized.
type Session struct {
	ID        string
	Name      string
	CreatedAt time.Time

	Branches *branch.Manager
	Identity *identity.Manager

	timeTravel   *branch.TimeTravel
	updatedAt    time.Time
	maxSnapshots int

	logger   *zap.Logger
	metrics  *metrics.Metrics
	listener func(Event)
	now      func() time.Time
	newID    func() string

	mu sync.Mutex
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// WithListener registers a callback for session events. It is called
// synchronously after each change, outside the session lock.
func WithListener(fn func(Event)) Option {
	return func(s *Session) { s.listener = fn }
}

// WithClock replaces time.Now for the session and its managers.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithIDGenerator replaces uuid generation for the session and its managers.
func WithIDGenerator(newID func() string) Option {
	return func(s *Session) { s.newID = newID }
}

func newSession(id, name string, cfg *config.Config, opts []Option) (*Session, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Session{
		ID:           id,
		Name:         name,
		maxSnapshots: cfg.Branching.MaxSnapshots,
		logger:       zap.NewNop(),
		now:          time.Now,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ID == "" {
		s.ID = s.newID()
	}

	s.Branches = branch.NewManager(branch.WithClock(s.now), branch.WithIDGenerator(s.newID))
	s.timeTravel = branch.NewTimeTravel(s.Branches, s.maxSnapshots)
	im, err := identity.NewManager(cfg.Identity, identity.WithClock(s.now), identity.WithIDGenerator(s.newID))
	if err != nil {
		return nil, err
	}
	s.Identity = im
	s.logger = s.logger.With(zap.String("session", s.ID))
	return s, nil
}

// New creates a session whose root branch starts from the default stance
// and the configured mode.
func New(name string, cfg *config.Config, opts ...Option) (*Session, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	s, err := newSession("", name, cfg, opts)
	if err != nil {
		return nil, err
	}
	if _, err := s.Branches.InitializeRoot(nil, stance.Default(), cfg.Mode, cfg.Branching.RootName); err != nil {
		return nil, err
	}
	s.CreatedAt = s.now()
	s.updatedAt = s.CreatedAt
	s.logger.Info("session created", zap.String("name", name))
	return s, nil
}

// UpdatedAt returns the time of the last change.
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

func (s *Session) touch() {
	s.updatedAt = s.now()
}

func (s *Session) emit(ev Event) {
	if s.listener == nil {
		return
	}
	ev.SessionID = s.ID
	if ev.Timestamp.IsZero() {
		ev.Timestamp = s.now()
	}
	s.listener(ev)
}

// Resolve finds a branch by id or, failing that, by name.
func (s *Session) Resolve(ref string) (*branch.Branch, error) {
	if b, ok := s.Branches.Get(ref); ok {
		return b, nil
	}
	if b, ok := s.Branches.FindByName(ref); ok {
		return b, nil
	}
	return nil, fmt.Errorf("%w: %q", branch.ErrBranchNotFound, ref)
}

// RecordTurn appends msg to the active branch. When st is non-nil it
// becomes the branch's stance and replaces any stance recorded on the
// message; a stance already carried by msg is used otherwise. The turn
// counter advances and an automatic checkpoint is taken when the interval is
// reached; that entry is returned, or nil if none was taken. An invalid
// stance rejects the turn before anything is appended.
func (s *Session) RecordTurn(msg branch.Message, st *stance.Stance) (*identity.TimelineEntry, error) {
	if st == nil {
		st = msg.Stance
	} else {
		msg = msg.WithStance(st)
	}
	if st != nil {
		if verr := st.Validate(); verr != nil {
			return nil, verr
		}
	}

	s.mu.Lock()

	prev := s.Branches.Active()
	if err := s.Branches.AddMessage(msg); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	drift := 0.0
	if st != nil {
		if prev != nil {
			drift = stance.Diff(prev.Stance, st).OverallDrift
		}
		if err := s.Branches.UpdateStance(st); err != nil {
			s.mu.Unlock()
			return nil, err
		}
	}
	s.Identity.RecordTurn()
	s.metrics.Turn(drift)

	var auto *identity.TimelineEntry
	if s.Identity.ShouldAutoCheckpoint() {
		active := s.Branches.Active()
		name := fmt.Sprintf("auto-%d", s.Identity.Len()+1)
		entry, err := s.Identity.Create(active.Stance, name, identity.CreateOptions{})
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
		auto = entry
		s.metrics.Checkpoint("auto")
		s.logger.Debug("auto checkpoint", zap.String("checkpoint", entry.Checkpoint.ID))
	}
	s.touch()
	activeID := s.Branches.ActiveID()
	s.mu.Unlock()

	s.emit(Event{Type: EventTurnRecorded, BranchID: activeID})
	if auto != nil {
		s.emit(Event{Type: EventCheckpointCreated, BranchID: activeID, CheckpointID: auto.Checkpoint.ID})
	}
	return auto, nil
}

// SetStance replaces the active stance without recording a turn.
func (s *Session) SetStance(st *stance.Stance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.Branches.UpdateStance(st); err != nil {
		return err
	}
	s.touch()
	return nil
}

// Rollback replaces the active stance with the one stored in a checkpoint.
// The timeline itself is not changed.
func (s *Session) Rollback(checkpointID string) (*stance.Stance, error) {
	st, err := s.Identity.StanceAt(checkpointID)
	if err != nil {
		return nil, err
	}
	if err := s.SetStance(st); err != nil {
		return nil, err
	}
	s.logger.Info("stance rolled back", zap.String("checkpoint", checkpointID))
	return st, nil
}

// Fork branches the active branch at index, or at its latest message when
// index is negative.
func (s *Session) Fork(name string, index int, reason string) (*branch.Branch, error) {
	s.mu.Lock()
	var (
		b   *branch.Branch
		err error
	)
	if index < 0 {
		b, err = s.Branches.BranchNow(name, reason)
	} else {
		b, err = s.Branches.BranchAt(index, name, reason)
	}
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.touch()
	s.mu.Unlock()

	s.metrics.BranchOp("fork")
	s.logger.Info("branch created",
		zap.String("branch", b.ID),
		zap.String("name", b.Name),
		zap.Int("index", b.BranchPoint.MessageIndex),
	)
	s.emit(Event{Type: EventBranchCreated, BranchID: b.ID})
	return b, nil
}

// Switch activates the branch named or identified by ref.
func (s *Session) Switch(ref string) (*branch.Branch, error) {
	return s.branchOp("switch", EventBranchSwitched, ref, func(id string) (*branch.Branch, error) {
		return s.Branches.Switch(id)
	})
}

// Archive soft-deletes the branch named or identified by ref.
func (s *Session) Archive(ref string) (*branch.Branch, error) {
	return s.branchOp("archive", EventBranchArchived, ref, func(id string) (*branch.Branch, error) {
		if err := s.Branches.Archive(id); err != nil {
			return nil, err
		}
		b, _ := s.Branches.Get(id)
		return b, nil
	})
}

// Restore un-archives the branch named or identified by ref.
func (s *Session) Restore(ref string) (*branch.Branch, error) {
	return s.branchOp("restore", EventBranchRestored, ref, func(id string) (*branch.Branch, error) {
		if err := s.Branches.Restore(id); err != nil {
			return nil, err
		}
		b, _ := s.Branches.Get(id)
		return b, nil
	})
}

// Delete removes the archived branch named or identified by ref.
func (s *Session) Delete(ref string) (*branch.Branch, error) {
	return s.branchOp("delete", EventBranchDeleted, ref, func(id string) (*branch.Branch, error) {
		b, _ := s.Branches.Get(id)
		if err := s.Branches.Delete(id); err != nil {
			return nil, err
		}
		return b, nil
	})
}

func (s *Session) branchOp(op, event, ref string, fn func(id string) (*branch.Branch, error)) (*branch.Branch, error) {
	s.mu.Lock()
	target, err := s.Resolve(ref)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	b, err := fn(target.ID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.touch()
	s.mu.Unlock()

	s.metrics.BranchOp(op)
	s.logger.Info("branch "+op, zap.String("branch", target.ID), zap.String("name", target.Name))
	s.emit(Event{Type: event, BranchID: target.ID})
	return b, nil
}

// Compare compares two branches named or identified by a and b.
func (s *Session) Compare(a, b string) (*branch.Comparison, error) {
	b1, err := s.Resolve(a)
	if err != nil {
		return nil, err
	}
	b2, err := s.Resolve(b)
	if err != nil {
		return nil, err
	}
	return s.Branches.Compare(b1.ID, b2.ID)
}

// Merge merges source into target, producing a new branch.
func (s *Session) Merge(target, source string, res branch.Resolutions) (*branch.MergeResult, error) {
	s.mu.Lock()
	t, err := s.Resolve(target)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	src, err := s.Resolve(source)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	result, err := s.Branches.Merge(t.ID, src.ID, res)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.touch()
	s.mu.Unlock()

	s.metrics.BranchOp("merge")
	s.logger.Info("branches merged",
		zap.String("target", t.ID),
		zap.String("source", src.ID),
		zap.String("result", result.Branch.ID),
		zap.Int("conflicts", len(result.Conflicts)),
		zap.Int("manual_required", result.ManualRequired),
	)
	s.emit(Event{Type: EventBranchMerged, BranchID: result.Branch.ID})
	return result, nil
}

// Travel snapshots the stance at a message of the referenced branch.
func (s *Session) Travel(ref string, index int) (*branch.Snapshot, error) {
	b, err := s.Resolve(ref)
	if err != nil {
		return nil, err
	}
	snap, err := s.TimeTravel().TravelTo(b.ID, index)
	if err != nil {
		return nil, err
	}
	s.metrics.BranchOp("travel")
	return snap, nil
}

// Rewind turns a travel snapshot into a new branch.
func (s *Session) Rewind(snapshotID, name string) (*branch.Branch, error) {
	s.mu.Lock()
	b, err := s.TimeTravel().Restore(snapshotID, name)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.touch()
	s.mu.Unlock()

	s.metrics.BranchOp("rewind")
	s.logger.Info("rewound to snapshot",
		zap.String("snapshot", snapshotID),
		zap.String("branch", b.ID),
	)
	s.emit(Event{Type: EventBranchCreated, BranchID: b.ID})
	return b, nil
}

// ForgetSnapshot drops a travel snapshot that is no longer needed.
func (s *Session) ForgetSnapshot(snapshotID string) error {
	if !s.TimeTravel().Forget(snapshotID) {
		return fmt.Errorf("%w: %q", branch.ErrSnapshotNotFound, snapshotID)
	}
	return nil
}

// DecayCoreValues weakens every core value by amount and returns the names
// that fell away.
func (s *Session) DecayCoreValues(amount float64) ([]string, error) {
	if amount < 0 {
		return nil, &stance.ValidationError{Field: "amount", Message: "decay amount must not be negative"}
	}
	s.mu.Lock()
	dropped := s.Identity.DecayCoreValues(amount)
	s.touch()
	s.mu.Unlock()

	if len(dropped) > 0 {
		s.logger.Info("core values dropped", zap.Strings("values", dropped))
	}
	return dropped, nil
}

// TimeTravel returns the session's snapshot helper.
func (s *Session) TimeTravel() *branch.TimeTravel {
	return s.timeTravel
}

// Checkpoint records the active branch's stance. A non-empty milestone
// label pins the checkpoint.
func (s *Session) Checkpoint(name, milestone string) (*identity.TimelineEntry, error) {
	s.mu.Lock()
	active := s.Branches.Active()
	if active == nil {
		s.mu.Unlock()
		return nil, branch.ErrNoRoot
	}
	entry, err := s.Identity.Create(active.Stance, name, identity.CreateOptions{Milestone: milestone})
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.touch()
	s.mu.Unlock()

	kind := "manual"
	if entry.IsMilestone {
		kind = "milestone"
	}
	s.metrics.Checkpoint(kind)
	s.logger.Info("checkpoint created",
		zap.String("checkpoint", entry.Checkpoint.ID),
		zap.String("fingerprint", entry.Checkpoint.Fingerprint),
		zap.Bool("milestone", entry.IsMilestone),
	)
	s.emit(Event{Type: EventCheckpointCreated, BranchID: active.ID, CheckpointID: entry.Checkpoint.ID})
	return entry, nil
}

// Status summarizes the session.
func (s *Session) Status() Status {
	active := s.Branches.Active()
	st := Status{
		ID:                   s.ID,
		Name:                 s.Name,
		CreatedAt:            s.CreatedAt,
		UpdatedAt:            s.UpdatedAt(),
		Branches:             len(s.Branches.List(false)),
		Checkpoints:          s.Identity.Len(),
		TurnsSinceCheckpoint: s.Identity.TurnsSinceCheckpoint(),
		Fingerprint:          s.Identity.CurrentFingerprint(),
	}
	if active != nil {
		st.ActiveBranch = active.Name
		st.ActiveBranchID = active.ID
		st.Messages = len(active.Messages)
		st.Frame = active.Stance.Frame
	}
	return st
}

// Status is a point-in-time summary of a session.
type Status struct {
	ID                   string       `json:"id"`
	Name                 string       `json:"name"`
	CreatedAt            time.Time    `json:"created_at"`
	UpdatedAt            time.Time    `json:"updated_at"`
	ActiveBranch         string       `json:"active_branch"`
	ActiveBranchID       string       `json:"active_branch_id"`
	Messages             int          `json:"messages"`
	Frame                stance.Frame `json:"frame"`
	Branches             int          `json:"branches"`
	Checkpoints          int          `json:"checkpoints"`
	TurnsSinceCheckpoint int          `json:"turns_since_checkpoint"`
	Fingerprint          string       `json:"fingerprint,omitempty"`
}

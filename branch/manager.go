package branch

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/genecyber/NOESIS-sub002/stance"
)

// DefaultRootName is used when InitializeRoot is given an empty name.
const DefaultRootName = "main"

// Manager owns a tree of branches keyed by id, a root and one active branch.
// Only the active branch is mutated by turn-level operations. Every branch
// handed out is a deep copy.
type Manager struct {
	branches map[string]*Branch
	rootID   string
	activeID string

	now   func() time.Time
	newID func() string

	mu sync.RWMutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now as the manager's time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithIDGenerator replaces uuid generation for branch and branch point ids.
func WithIDGenerator(newID func() string) Option {
	return func(m *Manager) {
		m.newID = newID
	}
}

// NewManager creates an empty manager. Call InitializeRoot before use.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		branches: make(map[string]*Branch),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// InitializeRoot creates the unique root branch and makes it active.
// A nil stance starts from stance.Default().
func (m *Manager) InitializeRoot(messages []Message, st *stance.Stance, cfg stance.ModeConfig, name string) (*Branch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rootID != "" {
		return nil, ErrRootExists
	}
	if st == nil {
		st = stance.Default()
	}
	if name == "" {
		name = DefaultRootName
	}

	now := m.now()
	root := &Branch{
		ID:        m.newID(),
		Name:      name,
		Messages:  cloneMessages(messages),
		Stance:    st.Clone(),
		Config:    cfg,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i := range root.Messages {
		if root.Messages[i].Timestamp.IsZero() {
			root.Messages[i].Timestamp = now
		}
	}
	root.Metadata.MessageCount = len(root.Messages)
	if err := root.Validate(); err != nil {
		return nil, err
	}

	m.branches[root.ID] = root
	m.rootID = root.ID
	m.activeID = root.ID
	return root.Clone(), nil
}

// BranchAt forks the active branch at messageIndex. The new branch holds a
// copy of messages[0..messageIndex] and inherits the stance recorded on that
// message, falling back to the active branch's current stance. Activity does
// not change.
func (m *Manager) BranchAt(messageIndex int, name, reason string) (*Branch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	active, err := m.activeLocked()
	if err != nil {
		return nil, err
	}
	b, err := m.forkLocked(active, messageIndex, name, reason, nil)
	if err != nil {
		return nil, err
	}
	return b.Clone(), nil
}

// BranchNow forks the active branch at its latest message.
func (m *Manager) BranchNow(name, reason string) (*Branch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	active, err := m.activeLocked()
	if err != nil {
		return nil, err
	}
	b, err := m.forkLocked(active, active.LastIndex(), name, reason, nil)
	if err != nil {
		return nil, err
	}
	return b.Clone(), nil
}

// forkLocked creates a child of src at idx. If st is nil the stance is taken
// from the message at idx, then from src's current stance.
func (m *Manager) forkLocked(src *Branch, idx int, name, reason string, st *stance.Stance) (*Branch, error) {
	if idx < 0 || idx >= len(src.Messages) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, idx, len(src.Messages))
	}

	inferred := false
	if st == nil {
		st, inferred = stanceAt(src, idx)
	}
	if name == "" {
		name = fmt.Sprintf("%s@%d", src.Name, idx)
	}

	now := m.now()
	b := &Branch{
		ID:       m.newID(),
		Name:     name,
		ParentID: src.ID,
		BranchPoint: &BranchPoint{
			ID:             m.newID(),
			MessageIndex:   idx,
			Timestamp:      now,
			Reason:         reason,
			StanceInferred: inferred,
		},
		Messages:  cloneMessages(src.Messages[:idx+1]),
		Stance:    st.Clone(),
		Config:    src.Config,
		CreatedAt: now,
		UpdatedAt: now,
	}
	b.Metadata.MessageCount = len(b.Messages)

	m.branches[b.ID] = b
	return b, nil
}

// stanceAt returns the stance recorded at idx, or the branch's current
// stance with inferred set when the message has none.
func stanceAt(b *Branch, idx int) (*stance.Stance, bool) {
	if s := b.Messages[idx].Stance; s != nil {
		return s, false
	}
	return b.Stance, true
}

// Switch makes the branch with the given id active.
func (m *Manager) Switch(id string) (*Branch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.branches[id]
	if !ok {
		return nil, ErrBranchNotFound
	}
	if b.Archived {
		return nil, ErrBranchArchived
	}
	m.activeID = id
	return b.Clone(), nil
}

// AddMessage appends a message to the active branch.
func (m *Manager) AddMessage(msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	active, err := m.activeLocked()
	if err != nil {
		return err
	}

	msg = msg.Clone()
	if msg.Timestamp.IsZero() {
		msg.Timestamp = m.now()
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	active.Messages = append(active.Messages, msg)
	active.Metadata.MessageCount = len(active.Messages)
	active.UpdatedAt = m.now()
	return nil
}

// UpdateStance replaces the active branch's stance, counting frame changes
// and accumulating drift.
func (m *Manager) UpdateStance(st *stance.Stance) error {
	if st == nil {
		return ErrNilStance
	}
	if err := st.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	active, err := m.activeLocked()
	if err != nil {
		return err
	}

	prev := active.Stance
	if prev.Frame != st.Frame {
		active.Metadata.FrameChanges++
	}
	active.Metadata.TotalDrift += stance.Diff(prev, st).OverallDrift
	active.Stance = st.Clone()
	active.UpdatedAt = m.now()
	return nil
}

// UpdateConfig replaces the active branch's mode configuration.
func (m *Manager) UpdateConfig(cfg stance.ModeConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	active, err := m.activeLocked()
	if err != nil {
		return err
	}
	active.Config = cfg
	active.UpdatedAt = m.now()
	return nil
}

// Archive soft-deletes a branch. Archiving the active branch moves activity
// to its parent, or to the root if the parent is archived too.
func (m *Manager) Archive(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.branches[id]
	if !ok {
		return ErrBranchNotFound
	}
	if id == m.rootID {
		return ErrRootProtected
	}
	if b.Archived {
		return nil
	}

	b.Archived = true
	b.UpdatedAt = m.now()

	if m.activeID == id {
		m.activeID = m.rootID
		if parent, ok := m.branches[b.ParentID]; ok && !parent.Archived {
			m.activeID = parent.ID
		}
	}
	return nil
}

// Restore brings an archived branch back.
func (m *Manager) Restore(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.branches[id]
	if !ok {
		return ErrBranchNotFound
	}
	if !b.Archived {
		return nil
	}
	b.Archived = false
	b.UpdatedAt = m.now()
	return nil
}

// Delete hard-deletes an archived branch. Branches with non-archived
// children are rejected; archived children move up to the deleted branch's
// parent.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.branches[id]
	if !ok {
		return ErrBranchNotFound
	}
	if id == m.rootID {
		return ErrRootProtected
	}
	if !b.Archived {
		return ErrNotArchived
	}

	children := m.childrenLocked(id, true)
	for _, c := range children {
		if !c.Archived {
			return ErrHasChildren
		}
	}
	// Children keep their branch point; see BranchPoint.
	for _, c := range children {
		c.ParentID = b.ParentID
	}
	delete(m.branches, id)
	return nil
}

// Get returns a copy of the branch with the given id.
func (m *Manager) Get(id string) (*Branch, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.branches[id]
	if !ok {
		return nil, false
	}
	return b.Clone(), true
}

// FindByName returns the oldest branch with the given name.
func (m *Manager) FindByName(name string) (*Branch, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, b := range m.sortedLocked(true) {
		if b.Name == name {
			return b.Clone(), true
		}
	}
	return nil, false
}

// Active returns a copy of the active branch, or nil before InitializeRoot.
func (m *Manager) Active() *Branch {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.branches[m.activeID].Clone()
}

// Root returns a copy of the root branch, or nil before InitializeRoot.
func (m *Manager) Root() *Branch {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.branches[m.rootID].Clone()
}

// ActiveID returns the id of the active branch.
func (m *Manager) ActiveID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeID
}

// RootID returns the id of the root branch.
func (m *Manager) RootID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rootID
}

// List returns copies of all branches ordered by creation time.
func (m *Manager) List(includeArchived bool) []*Branch {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sorted := m.sortedLocked(includeArchived)
	result := make([]*Branch, len(sorted))
	for i, b := range sorted {
		result[i] = b.Clone()
	}
	return result
}

// Len returns the number of branches, archived ones included.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.branches)
}

// Lineage returns the path from the root down to the given branch.
func (m *Manager) Lineage(id string) ([]*Branch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var path []*Branch
	seen := make(map[string]bool)
	for cur := id; cur != ""; {
		b, ok := m.branches[cur]
		if !ok {
			return nil, ErrBranchNotFound
		}
		if seen[cur] {
			return nil, fmt.Errorf("branch: parent cycle at %s", cur)
		}
		seen[cur] = true
		path = append(path, b.Clone())
		cur = b.ParentID
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

func (m *Manager) activeLocked() (*Branch, error) {
	if m.rootID == "" {
		return nil, ErrNoRoot
	}
	b, ok := m.branches[m.activeID]
	if !ok {
		return nil, ErrBranchNotFound
	}
	return b, nil
}

// childrenLocked returns the direct children of id in creation order.
func (m *Manager) childrenLocked(id string, includeArchived bool) []*Branch {
	var out []*Branch
	for _, b := range m.sortedLocked(includeArchived) {
		if b.ParentID == id && b.ID != m.rootID {
			out = append(out, b)
		}
	}
	return out
}

func (m *Manager) sortedLocked(includeArchived bool) []*Branch {
	out := make([]*Branch, 0, len(m.branches))
	for _, b := range m.branches {
		if b.Archived && !includeArchived {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

package branch

import (
	"fmt"
)

// State is a plain, serializable copy of everything a Manager holds.
type State struct {
	RootID   string    `json:"root_id"`
	ActiveID string    `json:"active_id"`
	Branches []*Branch `json:"branches"`
}

// Export returns a deep copy of the manager's state ordered by creation time.
func (m *Manager) Export() State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sorted := m.sortedLocked(true)
	st := State{
		RootID:   m.rootID,
		ActiveID: m.activeID,
		Branches: make([]*Branch, len(sorted)),
	}
	for i, b := range sorted {
		st.Branches[i] = b.Clone()
	}
	return st
}

// Import replaces the manager's contents with st after checking that it
// describes a single rooted tree with a live active branch.
func (m *Manager) Import(st State) error {
	branches := make(map[string]*Branch, len(st.Branches))
	for _, b := range st.Branches {
		if b == nil {
			return fmt.Errorf("branch: import: nil branch")
		}
		if err := b.Validate(); err != nil {
			return fmt.Errorf("branch: import %s: %w", b.ID, err)
		}
		if _, dup := branches[b.ID]; dup {
			return fmt.Errorf("branch: import: duplicate id %s", b.ID)
		}
		branches[b.ID] = b.Clone()
	}

	roots := 0
	for _, b := range branches {
		if b.IsRoot() {
			roots++
			if b.ID != st.RootID {
				return fmt.Errorf("branch: import: root %s does not match root_id %s", b.ID, st.RootID)
			}
			if b.Archived {
				return fmt.Errorf("branch: import: %w", ErrRootProtected)
			}
			continue
		}
		if _, ok := branches[b.ParentID]; !ok {
			return fmt.Errorf("branch: import %s: parent %s: %w", b.ID, b.ParentID, ErrBranchNotFound)
		}
	}
	if roots != 1 {
		return fmt.Errorf("branch: import: expected exactly one root, found %d", roots)
	}
	for _, b := range branches {
		if !reachesRoot(branches, b, st.RootID) {
			return fmt.Errorf("branch: import %s: parent chain does not reach root %s", b.ID, st.RootID)
		}
	}
	active, ok := branches[st.ActiveID]
	if !ok {
		return fmt.Errorf("branch: import: active %s: %w", st.ActiveID, ErrBranchNotFound)
	}
	if active.Archived {
		return fmt.Errorf("branch: import: active %s: %w", st.ActiveID, ErrBranchArchived)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.branches = branches
	m.rootID = st.RootID
	m.activeID = st.ActiveID
	return nil
}

// reachesRoot walks b's parents and reports whether the walk ends at rootID.
// A chain longer than the branch count must contain a cycle.
func reachesRoot(branches map[string]*Branch, b *Branch, rootID string) bool {
	for steps := 0; steps <= len(branches); steps++ {
		if b.ID == rootID {
			return true
		}
		parent, ok := branches[b.ParentID]
		if !ok {
			return false
		}
		b = parent
	}
	return false
}

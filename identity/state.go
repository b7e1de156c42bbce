package identity

import "fmt"

// State is a plain, serializable copy of a Manager.
type State struct {
	Timeline             []*TimelineEntry `json:"timeline"`
	CoreValues           []CoreValue      `json:"core_values"`
	CurrentFingerprint   string           `json:"current_fingerprint"`
	TurnsSinceCheckpoint int              `json:"turns_since_checkpoint"`
}

// Export returns a deep copy of the manager's state.
func (m *Manager) Export() State {
	return State{
		Timeline:             m.Timeline(),
		CoreValues:           m.CoreValues(),
		CurrentFingerprint:   m.CurrentFingerprint(),
		TurnsSinceCheckpoint: m.TurnsSinceCheckpoint(),
	}
}

// Import replaces the manager's contents with st.
func (m *Manager) Import(st State) error {
	timeline := make([]*TimelineEntry, 0, len(st.Timeline))
	for i, e := range st.Timeline {
		if e == nil || e.Checkpoint == nil || e.Checkpoint.Stance == nil {
			return fmt.Errorf("identity: import: timeline entry %d is incomplete", i)
		}
		timeline = append(timeline, e.clone())
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeline = timeline
	m.coreValues = append([]CoreValue(nil), st.CoreValues...)
	m.currentFingerprint = st.CurrentFingerprint
	m.turnsSinceCheckpoint = st.TurnsSinceCheckpoint
	return nil
}

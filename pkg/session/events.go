package session

import "time"

// Event types emitted by a Session.
const (
	EventTurnRecorded      = "turn.recorded"
	EventBranchCreated     = "branch.created"
	EventBranchSwitched    = "branch.switched"
	EventBranchMerged      = "branch.merged"
	EventBranchArchived    = "branch.archived"
	EventBranchRestored    = "branch.restored"
	EventBranchDeleted     = "branch.deleted"
	EventCheckpointCreated = "checkpoint.created"
)

// Event describes a change to a session.
type Event struct {
	Type         string    `json:"type"`
	SessionID    string    `json:"session_id"`
	BranchID     string    `json:"branch_id,omitempty"`
	CheckpointID string    `json:"checkpoint_id,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Channel returns the subscription channel the event belongs to:
// "checkpoints" for checkpoint events and "branches" for everything else.
func (e Event) Channel() string {
	if e.Type == EventCheckpointCreated {
		return "checkpoints"
	}
	return "branches"
}

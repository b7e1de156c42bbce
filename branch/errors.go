package branch

import "errors"

// Sentinel errors returned by the Manager and TimeTravel. A call that
// returns one of these has left all state untouched.
var (
	ErrNoRoot            = errors.New("branch: manager has no root branch")
	ErrRootExists        = errors.New("branch: root branch already initialized")
	ErrBranchNotFound    = errors.New("branch: branch not found")
	ErrBranchArchived    = errors.New("branch: branch is archived")
	ErrNotArchived       = errors.New("branch: branch must be archived first")
	ErrRootProtected     = errors.New("branch: root branch cannot be archived or deleted")
	ErrHasChildren       = errors.New("branch: branch has active children")
	ErrIndexOutOfRange   = errors.New("branch: message index out of range")
	ErrNilStance         = errors.New("branch: stance is required")
	ErrSnapshotNotFound  = errors.New("branch: snapshot not found")
	ErrInvalidResolution = errors.New("branch: invalid merge resolution")
)

package errors

// -----------------------------------------------------------------------------
// Branch Error Codes
// -----------------------------------------------------------------------------

const (
	ErrBranchNotFound     = "BRANCH_NOT_FOUND"
	ErrBranchArchived     = "BRANCH_ARCHIVED"
	ErrBranchNotArchived  = "BRANCH_NOT_ARCHIVED"
	ErrBranchRootLocked   = "BRANCH_ROOT_PROTECTED"
	ErrBranchHasChildren  = "BRANCH_HAS_CHILDREN"
	ErrBranchIndexRange   = "BRANCH_INDEX_OUT_OF_RANGE"
	ErrBranchNoRoot       = "BRANCH_NO_ROOT"
	ErrBranchRootExists   = "BRANCH_ROOT_EXISTS"
	ErrBranchMergeInvalid = "BRANCH_MERGE_INVALID"
	ErrSnapshotNotFound   = "SNAPSHOT_NOT_FOUND"
)

// -----------------------------------------------------------------------------
// Checkpoint Error Codes
// -----------------------------------------------------------------------------

const (
	ErrCheckpointNotFound = "CHECKPOINT_NOT_FOUND"
	ErrCheckpointEmpty    = "CHECKPOINT_TIMELINE_EMPTY"
	ErrCoreValueInvalid   = "CORE_VALUE_INVALID"
	ErrCheckpointConfig   = "CHECKPOINT_CONFIG_INVALID"
)

// -----------------------------------------------------------------------------
// Session Error Codes
// -----------------------------------------------------------------------------

const (
	ErrSessionNotFound      = "SESSION_NOT_FOUND"
	ErrSessionAlreadyExists = "SESSION_ALREADY_EXISTS"
)

// -----------------------------------------------------------------------------
// Command Error Codes
// -----------------------------------------------------------------------------

const (
	ErrCommandUnknown     = "COMMAND_UNKNOWN"
	ErrCommandMissingArgs = "COMMAND_MISSING_ARGS"
	ErrCommandInvalidArg  = "COMMAND_INVALID_ARG"
)

// -----------------------------------------------------------------------------
// Configuration Error Codes
// -----------------------------------------------------------------------------

const (
	ErrConfigNotFound    = "CONFIG_NOT_FOUND"
	ErrConfigParseFailed = "CONFIG_PARSE_FAILED"
	ErrConfigInvalid     = "CONFIG_INVALID"
	ErrConfigWriteFailed = "CONFIG_WRITE_FAILED"
)

// -----------------------------------------------------------------------------
// Storage Error Codes
// -----------------------------------------------------------------------------

const (
	ErrStorageOpenFailed  = "STORAGE_OPEN_FAILED"
	ErrStorageReadFailed  = "STORAGE_READ_FAILED"
	ErrStorageWriteFailed = "STORAGE_WRITE_FAILED"
	ErrStorageNotFound    = "STORAGE_NOT_FOUND"
)

// -----------------------------------------------------------------------------
// Validation and Internal Error Codes
// -----------------------------------------------------------------------------

const (
	ErrValidationFailed = "VALIDATION_FAILED"
	ErrInternal         = "INTERNAL_ERROR"
)

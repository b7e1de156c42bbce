package errors

import (
	stderrors "errors"

	"github.com/genecyber/NOESIS-sub002/branch"
	"github.com/genecyber/NOESIS-sub002/identity"
	"github.com/genecyber/NOESIS-sub002/stance"
)

type coreMapping struct {
	sentinel   error
	code       string
	category   Category
	message    string
	suggestion string
}

var coreMappings = []coreMapping{
	{branch.ErrBranchNotFound, ErrBranchNotFound, CategoryBranch, "branch not found",
		"Use /branches to list branch names and ids"},
	{branch.ErrBranchArchived, ErrBranchArchived, CategoryBranch, "branch is archived",
		"Use /unarchive <branch> to bring it back first"},
	{branch.ErrNotArchived, ErrBranchNotArchived, CategoryBranch, "only archived branches can be deleted",
		"Use /archive <branch> before /delete"},
	{branch.ErrRootProtected, ErrBranchRootLocked, CategoryBranch, "the root branch cannot be archived or deleted", ""},
	{branch.ErrHasChildren, ErrBranchHasChildren, CategoryBranch, "branch still has active children",
		"Archive its child branches first (see /tree)"},
	{branch.ErrIndexOutOfRange, ErrBranchIndexRange, CategoryBranch, "message index out of range",
		"Use /history to see valid message indexes"},
	{branch.ErrNoRoot, ErrBranchNoRoot, CategoryBranch, "no conversation has been started", ""},
	{branch.ErrRootExists, ErrBranchRootExists, CategoryBranch, "the root branch already exists", ""},
	{branch.ErrInvalidResolution, ErrBranchMergeInvalid, CategoryBranch, "invalid merge resolution",
		"Resolutions are target, source or manual"},
	{branch.ErrSnapshotNotFound, ErrSnapshotNotFound, CategoryBranch, "time travel snapshot not found",
		"Use /travel <branch> <index> to take a new snapshot"},
	{branch.ErrNilStance, ErrValidationFailed, CategoryValidation, "a stance is required", ""},
	{identity.ErrNotFound, ErrCheckpointNotFound, CategoryCheckpoint, "checkpoint not found",
		"Use /timeline to list checkpoint ids"},
	{identity.ErrNilStance, ErrValidationFailed, CategoryValidation, "a stance is required", ""},
	{identity.ErrEmptyName, ErrCoreValueInvalid, CategoryCheckpoint, "core value name is required", ""},
	{identity.ErrInvalidConfig, ErrCheckpointConfig, CategoryConfig, "invalid checkpoint configuration", ""},
}

// FromCore converts an error returned by the stance, branch or identity
// packages into a NoesisError. NoesisErrors pass through unchanged and
// anything unrecognized becomes an internal error.
func FromCore(err error) *NoesisError {
	if err == nil {
		return nil
	}
	if ne, ok := As(err); ok {
		return ne
	}

	for _, m := range coreMappings {
		if stderrors.Is(err, m.sentinel) {
			ne := Wrap(err, m.code, m.category, m.message)
			if m.suggestion != "" {
				ne.WithSuggestion(m.suggestion)
			}
			return ne
		}
	}

	var ve *stance.ValidationError
	if stderrors.As(err, &ve) {
		return New(ErrValidationFailed, CategoryValidation, ve.Message).
			WithContext("field", ve.Field)
	}

	return Wrap(err, ErrInternal, CategoryInternal, "unexpected error")
}

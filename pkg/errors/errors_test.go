// Package errors tests for structured error types.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/genecyber/NOESIS-sub002/branch"
	"github.com/genecyber/NOESIS-sub002/identity"
	"github.com/genecyber/NOESIS-sub002/stance"
)

// -----------------------------------------------------------------------------
// NoesisError Construction Tests
// -----------------------------------------------------------------------------

func TestNew(t *testing.T) {
	ne := New("TEST_ERROR", CategoryBranch, "test message")

	if ne.Code != "TEST_ERROR" {
		t.Errorf("expected Code 'TEST_ERROR', got %q", ne.Code)
	}
	if ne.Category != CategoryBranch {
		t.Errorf("expected Category CategoryBranch, got %v", ne.Category)
	}
	if ne.Context == nil {
		t.Error("expected Context map to be initialized, got nil")
	}
	if ne.Suggestions != nil {
		t.Errorf("expected Suggestions to be nil, got %v", ne.Suggestions)
	}
}

func TestNoesisError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *NoesisError
		expected string
	}{
		{
			name:     "without cause",
			err:      New(ErrBranchNotFound, CategoryBranch, "branch not found"),
			expected: "BRANCH_NOT_FOUND: branch not found",
		},
		{
			name:     "with cause",
			err:      Wrap(fmt.Errorf("disk full"), ErrStorageWriteFailed, CategoryStorage, "save failed"),
			expected: "STORAGE_WRITE_FAILED: save failed: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestIsMatchesByCode(t *testing.T) {
	a := New(ErrSessionNotFound, CategorySession, "one")
	b := New(ErrSessionNotFound, CategorySession, "two")
	c := New(ErrBranchNotFound, CategoryBranch, "three")

	if !errors.Is(a, b) {
		t.Error("errors with the same code should match")
	}
	if errors.Is(a, c) {
		t.Error("errors with different codes should not match")
	}

	wrapped := fmt.Errorf("outer: %w", a)
	if !IsCode(wrapped, ErrSessionNotFound) || !IsCategory(wrapped, CategorySession) {
		t.Error("IsCode/IsCategory should look through wrapping")
	}
}

func TestContextString(t *testing.T) {
	ne := New("X", CategoryCommand, "x").
		WithContext("zeta", "1").
		WithContext("alpha", "2")

	if got := ne.ContextString(); got != `alpha="2", zeta="1"` {
		t.Errorf("ContextString() = %q", got)
	}
}

// -----------------------------------------------------------------------------
// Core Mapping Tests
// -----------------------------------------------------------------------------

func TestFromCore(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     string
		category Category
	}{
		{"branch not found", branch.ErrBranchNotFound, ErrBranchNotFound, CategoryBranch},
		{"wrapped index", fmt.Errorf("%w: 9 not in [0, 3)", branch.ErrIndexOutOfRange), ErrBranchIndexRange, CategoryBranch},
		{"root protected", branch.ErrRootProtected, ErrBranchRootLocked, CategoryBranch},
		{"checkpoint missing", fmt.Errorf("%w: abc", identity.ErrNotFound), ErrCheckpointNotFound, CategoryCheckpoint},
		{"validation", &stance.ValidationError{Field: "frame", Message: "bad"}, ErrValidationFailed, CategoryValidation},
		{"unknown", fmt.Errorf("boom"), ErrInternal, CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ne := FromCore(tt.err)
			if ne.Code != tt.code || ne.Category != tt.category {
				t.Errorf("FromCore() = %s/%s, want %s/%s", ne.Code, ne.Category, tt.code, tt.category)
			}
		})
	}

	if FromCore(nil) != nil {
		t.Error("FromCore(nil) should be nil")
	}
	orig := New(ErrCommandUnknown, CategoryCommand, "nope")
	if FromCore(orig) != orig {
		t.Error("NoesisError should pass through unchanged")
	}
	if !errors.Is(FromCore(branch.ErrBranchArchived), branch.ErrBranchArchived) {
		t.Error("mapped error should keep the sentinel in its chain")
	}
}

// -----------------------------------------------------------------------------
// Formatter Tests
// -----------------------------------------------------------------------------

func TestFormatPlain(t *testing.T) {
	ne := FromCore(branch.ErrHasChildren).WithContext("branch", "alt")
	out := Sprint(ne)

	for _, want := range []string{
		"ERROR [BRANCH_HAS_CHILDREN]: branch still has active children",
		"  branch: alt",
		"  cause: branch: branch has active children",
		"  → Archive its child branches first",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("plain output should not contain ANSI codes")
	}
}

func TestFormatStandardError(t *testing.T) {
	f := &Formatter{Indent: "  "}
	if got := f.Format(fmt.Errorf("plain")); got != "Error: plain" {
		t.Errorf("Format() = %q", got)
	}
	if f.Format(nil) != "" {
		t.Error("nil error should format empty")
	}
}

func TestFormatColor(t *testing.T) {
	f := &Formatter{UseColor: true, Indent: "  "}
	out := f.Format(New(ErrInternal, CategoryInternal, "x"))
	if !strings.Contains(out, "\x1b[") {
		t.Errorf("colored output should contain ANSI codes: %q", out)
	}
}

func TestCategoryLabel(t *testing.T) {
	if CategoryLabel(CategoryBranch) != "Branch Error" {
		t.Error("unexpected branch label")
	}
	if CategoryLabel(Category("other")) != "Error" {
		t.Error("unknown categories should fall back to Error")
	}
}

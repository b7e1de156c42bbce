// Package errors provides structured, user-facing error types for NOESIS.
// Errors carry a code, a category, context and actionable suggestions.
package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// Category classifies errors for consistent handling and display.
type Category string

const (
	CategoryBranch     Category = "branch"     // Branch tree operations
	CategoryCheckpoint Category = "checkpoint" // Identity timeline operations
	CategorySession    Category = "session"    // Session lookup and lifecycle
	CategoryCommand    Category = "command"    // Shell command errors
	CategoryConfig     Category = "config"     // Configuration loading/parsing
	CategoryStorage    Category = "storage"    // Durable store errors
	CategoryValidation Category = "validation" // Input validation errors
	CategoryInternal   Category = "internal"   // Unexpected errors
)

// NoesisError is a structured error with context and suggestions.
type NoesisError struct {
	// Code is a unique identifier for this error type (e.g., "BRANCH_NOT_FOUND")
	Code string `json:"code"`

	Category Category `json:"category"`
	Message  string   `json:"message"`

	// Context provides additional key-value details about the error
	Context map[string]string `json:"context,omitempty"`

	Cause error `json:"-"`

	// Suggestions are actionable remediation steps for the user
	Suggestions []string `json:"suggestions,omitempty"`
}

// Error implements the error interface.
func (e *NoesisError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain inspection.
func (e *NoesisError) Unwrap() error {
	return e.Cause
}

// Is reports whether e matches target. Two NoesisErrors match if they have
// the same Code.
func (e *NoesisError) Is(target error) bool {
	if t, ok := target.(*NoesisError); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a new NoesisError.
func New(code string, category Category, message string) *NoesisError {
	return &NoesisError{
		Code:     code,
		Category: category,
		Message:  message,
		Context:  make(map[string]string),
	}
}

// Newf creates a new NoesisError with a formatted message.
func Newf(code string, category Category, format string, args ...any) *NoesisError {
	return New(code, category, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with a NoesisError.
func Wrap(err error, code string, category Category, message string) *NoesisError {
	return New(code, category, message).WithCause(err)
}

// WithContext adds a context key-value pair and returns the error for chaining.
func (e *NoesisError) WithContext(key, value string) *NoesisError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithCause wraps an underlying error and returns the error for chaining.
func (e *NoesisError) WithCause(cause error) *NoesisError {
	e.Cause = cause
	return e
}

// WithSuggestion adds a remediation suggestion and returns the error for chaining.
func (e *NoesisError) WithSuggestion(suggestion string) *NoesisError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// HasContext returns true if the error has context information.
func (e *NoesisError) HasContext() bool {
	return len(e.Context) > 0
}

// HasSuggestions returns true if the error has suggestions.
func (e *NoesisError) HasSuggestions() bool {
	return len(e.Suggestions) > 0
}

// ContextString returns the context entries as sorted key="value" pairs.
func (e *NoesisError) ContextString() string {
	if len(e.Context) == 0 {
		return ""
	}
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k, e.Context[k]))
	}
	return strings.Join(parts, ", ")
}

// As finds the first NoesisError in err's chain.
func As(err error) (*NoesisError, bool) {
	var ne *NoesisError
	if stderrors.As(err, &ne) {
		return ne, true
	}
	return nil, false
}

// IsCode checks if err's chain holds a NoesisError with the given code.
func IsCode(err error, code string) bool {
	if ne, ok := As(err); ok {
		return ne.Code == code
	}
	return false
}

// IsCategory checks if err's chain holds a NoesisError with the given category.
func IsCategory(err error, category Category) bool {
	if ne, ok := As(err); ok {
		return ne.Category == category
	}
	return false
}

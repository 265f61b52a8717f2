package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/habitual/internal/logger"
)

var (
	// ErrValidation marks malformed input; the habit was not created or changed
	ErrValidation = stderrors.New("validation failed")
	// ErrNotFound marks a habit id that does not exist or is not visible to the owner
	ErrNotFound = stderrors.New("not found")
	// ErrInconsistentState marks a ledger/streak desync detected during a toggle
	ErrInconsistentState = stderrors.New("inconsistent habit state")
	// ErrConflict marks a lost optimistic-concurrency race
	ErrConflict = stderrors.New("concurrent modification")
)

// ValidationError describes one rejected input field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidation builds a ValidationError
func NewValidation(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a missing record
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFound builds a NotFoundError
func NewNotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// InconsistentStateError reports a habit whose streak or last-done marker
// disagrees with its completion ledger
type InconsistentStateError struct {
	HabitID     string
	Streak      int
	LedgerCount int
	Reason      string
}

func (e *InconsistentStateError) Error() string {
	return fmt.Sprintf("habit %s is inconsistent: %s (streak %d, %d completions); run 'habitual habit repair'",
		e.HabitID, e.Reason, e.Streak, e.LedgerCount)
}

func (e *InconsistentStateError) Unwrap() error { return ErrInconsistentState }

// ConflictError reports a version mismatch on write
type ConflictError struct {
	HabitID string
	Version int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("habit %s was modified concurrently (expected version %d)", e.HabitID, e.Version)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// Is and As forward to the standard library so callers need only one import
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target interface{}) bool { return stderrors.As(err, target) }

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

package store

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// ErrConnectionFailed is returned when the database cannot be opened.
	ErrConnectionFailed = errors.New("database connection failed")

	// ErrMigrationFailed is returned when database migration fails.
	ErrMigrationFailed = errors.New("database migration failed")

	// ErrInvalidEvent is returned when an event is missing required fields.
	ErrInvalidEvent = errors.New("invalid event")
)

// StoreError wraps errors with additional context.
type StoreError struct {
	Op      string // Operation that failed (e.g., "RecordEvent")
	Target  string // Target name if applicable
	Message string
	Err     error
}

func (e *StoreError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Target, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(op, targetName, message string, err error) *StoreError {
	return &StoreError{
		Op:      op,
		Target:  targetName,
		Message: message,
		Err:     err,
	}
}

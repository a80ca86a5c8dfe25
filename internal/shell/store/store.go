// Package store persists the local deployment history ledger.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Event
// =============================================================================

// Action is a lifecycle operation recorded in the ledger.
type Action string

const (
	ActionBuild  Action = "build"
	ActionDeploy Action = "deploy"
	ActionRun    Action = "run"
	ActionStop   Action = "stop"
)

// Status is the recorded outcome of an operation.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Event is one recorded lifecycle operation against a target.
type Event struct {
	ID          int64     `db:"id"`
	ReferenceID string    `db:"reference_id"`
	Target      string    `db:"target"`
	Action      Action    `db:"action"`
	Host        string    `db:"host"`
	Status      Status    `db:"status"`
	Error       string    `db:"error"`
	CreatedAt   time.Time `db:"created_at"`
}

// NewEventID generates a reference ID for an event.
func NewEventID() string {
	return "evt_" + uuid.New().String()[:8]
}

// =============================================================================
// Store Interface
// =============================================================================

// Store records and lists lifecycle events.
type Store interface {
	RecordEvent(ctx context.Context, event *Event) error
	ListEvents(ctx context.Context, targetName string, limit int) ([]Event, error)
	Close() error
}

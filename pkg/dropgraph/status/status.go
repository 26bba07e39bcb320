// Package status records the completion status of drops per run.
package status

import (
	"errors"
	"fmt"
	"time"
)

// Status is the terminal state reported by a drop.
type Status string

// Drop statuses.
const (
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusCompleted || s == StatusError
}

// ParseStatus converts a stored or transmitted name into a Status.
func ParseStatus(name string) (Status, error) {
	s := Status(name)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, name)
	}
	return s, nil
}

// Store persists drop statuses.
// Implementations must be safe for concurrent use.
type Store interface {
	// Set records the status of a drop within a run.
	// Overwrites any earlier status and moves the record to the end of List.
	Set(runID, uid string, st Status) error

	// Get retrieves a status.
	// Returns ErrNotFound if the drop has no status in the run.
	Get(runID, uid string) (Status, error)

	// List returns all records for a run, ordered by sequence.
	// Returns empty slice (not error) if the run has no records.
	List(runID string) ([]Record, error)

	// DeleteRun removes all records for a run.
	// Returns nil if the run has no records.
	DeleteRun(runID string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Record is one stored status.
type Record struct {
	RunID     string
	UID       string
	Status    Status
	Sequence  int
	Timestamp time.Time
}

// Sentinel errors for status operations.
var (
	// ErrNotFound indicates a drop has no recorded status.
	ErrNotFound = errors.New("status not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("status store closed")

	// ErrInvalidStatus indicates an unknown status value.
	ErrInvalidStatus = errors.New("invalid status")
)

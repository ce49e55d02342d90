package job

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a job is unknown to the store, either because
// it was never created or because its retention window elapsed. Callers must
// treat it as pending, not as a failure.
var ErrNotFound = errors.New("job: not found")

// Store is the single source of truth for in-flight and recently completed
// jobs. Each job ID has exactly one writer, so implementations need no
// read-modify-write coordination beyond a consistent map.
type Store interface {
	// Put writes a record under its ID, resetting the retention window.
	Put(ctx context.Context, rec Record) error

	// Get returns the record for the ID, or ErrNotFound if absent or expired.
	Get(ctx context.Context, id string) (Record, error)
}

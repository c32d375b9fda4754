package domain

import "time"

// Cached is a query result served from the local cache.
// Err carries the last refresh failure while Data still holds the previous
// value, so callers can show stale data alongside the error.
type Cached[T any] struct {
	Data      T
	UpdatedAt time.Time
	Stale     bool
	Err       error
}

// MutationResult is the outcome of a write. Queued is true when the client
// was offline and the write waits for reconnect; Data then holds the
// optimistic value, if any.
type MutationResult[T any] struct {
	Data     T
	RecordID string
	Queued   bool
}

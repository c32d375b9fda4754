// Package messages defines Bubbletea message types for the sync monitor.
package messages

import (
	"github.com/custodia-labs/stockline/internal/core/domain"
)

// StateChanged carries a sync summary pushed by the aggregator.
type StateChanged struct {
	State domain.SyncState
}

// RefreshCompleted carries the result of a server status fetch.
type RefreshCompleted struct {
	State domain.SyncState
	Err   error
}

// QueueLoaded carries the current outstanding and failed writes.
type QueueLoaded struct {
	Records []domain.MutationRecord
}

// FlushCompleted signals queued writes were sent.
type FlushCompleted struct {
	Err error
}

// AckCompleted signals failed writes were dismissed.
type AckCompleted struct {
	Dismissed int
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

package tui

import "errors"

// ErrMissingSyncStatus is returned when the sync status service is not provided.
var ErrMissingSyncStatus = errors.New("tui: sync status service is required")

// ErrMissingQueue is returned when the mutation queue is not provided.
var ErrMissingQueue = errors.New("tui: mutation queue is required")

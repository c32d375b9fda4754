// Package tui provides the interactive sync monitor.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/stockline/internal/core/ports/driving"
)

// Ports aggregates the driving ports the monitor reads from.
type Ports struct {
	// Sync supplies the derived sync summary.
	Sync driving.SyncStatus

	// Queue lists and flushes outstanding writes.
	Queue driving.MutationQueue
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Sync == nil {
		return ErrMissingSyncStatus
	}
	if p.Queue == nil {
		return ErrMissingQueue
	}
	return nil
}

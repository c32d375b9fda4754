package driving

import (
	"context"

	"github.com/custodia-labs/stockline/internal/core/domain"
)

// SyncStatus aggregates client and server synchronisation state.
type SyncStatus interface {
	// State returns the current summary without network access.
	State() domain.SyncState

	// Refresh fetches the server status and returns the new summary.
	Refresh(ctx context.Context) (domain.SyncState, error)

	// Subscribe calls fn with every new summary until the returned func is called.
	Subscribe(fn func(domain.SyncState)) func()
}

// Connectivity reports and controls the online state.
type Connectivity interface {
	// IsOnline reports the current state.
	IsOnline() bool

	// Check probes the network and updates the state.
	Check(ctx context.Context) bool

	// SetOnline records an observed state change.
	SetOnline(online bool)

	// Subscribe calls fn on every transition until the returned func is called.
	Subscribe(fn func(online bool)) func()
}

// Package domain defines the core business entities for stockline.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Product, Supplier, Category, Sale: inventory entities mirrored from the API
//   - QueryKey: structural identity of a cached server collection
//   - MutationRecord: a tracked write and its lifecycle
//   - SyncState: the derived synchronisation indicator
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain

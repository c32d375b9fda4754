// Package driving defines interfaces that external actors (CLI, TUI) use
// to interact with core services. These are the "driving" ports in hexagonal
// architecture terminology - they drive the application.
//
// Reads go through CatalogService and are served from the query cache.
// Writes go through the per-entity command interfaces and are applied
// optimistically, queued while offline.
//
// Implementations of these interfaces live in internal/core/services.
package driving

// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Gateway: Authenticated HTTP transport to the inventory API
//   - InventoryAPI: Typed endpoints of the inventory API
//   - KeyValueStore: Durable storage for the cache snapshot and mutation queue
//   - TokenStore: Bearer token persistence
//   - TokenDecoder: Reads subject and expiry from an access token
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - UnauthorizedNotifier: Receives 401/403 signals. Without it, they are only returned as errors.
//   - NetworkProbe: Reports reachability. Without it, the client assumes it is online.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven

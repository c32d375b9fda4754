// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// QueryCache holds server query results and MutationCache tracks writes
// until they settle. The controllers (ProductMutations, SaleMutations, ...)
// patch the query cache optimistically before sending, roll back on failure
// and queue while offline. Client wires them to connectivity, the pollers and
// durable storage.
//
// Services are pure Go with no CGO.
package services

// Package auth provides the bearer token adapters used by the HTTP gateway.
//
// Adapters:
//   - FileTokenStore: JSON token file, reloaded when another process edits it
//   - MemoryTokenStore: process-local token, for tests and --data-dir=:memory:
//   - JWTDecoder: reads subject and expiry claims without verifying
//   - TokenSource: exposes a TokenStore as an oauth2.TokenSource
package auth

// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage with STOCKLINE_*
//     environment overrides
//
// The bearer token file lives in the auth adapter.
package file

package driven

import "time"

// ConfigStore provides access to application configuration.
// Keys use dot notation ("cache.gc_time"). Typed getters return the zero
// value when the key is missing or holds an incompatible value.
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	// Returns the value and a boolean indicating if the key exists.
	Get(key string) (any, bool)

	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetFloat(key string) float64

	// GetDuration parses string values such as "5s" and treats integers
	// as seconds.
	GetDuration(key string) time.Duration

	// Set stores a configuration value.
	// The value is persisted immediately.
	Set(key string, value any) error

	// Save persists the current configuration to storage.
	Save() error

	// Load reads configuration from storage.
	Load() error

	// Path returns the configuration file path.
	Path() string
}

package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/stockline/internal/adapters/driven/config/value"
	"github.com/custodia-labs/stockline/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// envOverrides are environment variables that take precedence over the
// file. They are never written back.
type envOverrides struct {
	APIBaseURL       string `env:"STOCKLINE_API_BASE_URL"`
	APITimeout       string `env:"STOCKLINE_API_TIMEOUT"`
	APIRateLimit     string `env:"STOCKLINE_API_RATE_LIMIT"`
	PollInterval     string `env:"STOCKLINE_POLL_INTERVAL"`
	StatusInterval   string `env:"STOCKLINE_STATUS_INTERVAL"`
	ProbeInterval    string `env:"STOCKLINE_PROBE_INTERVAL"`
	GCTime           string `env:"STOCKLINE_GC_TIME"`
	StaleTime        string `env:"STOCKLINE_STALE_TIME"`
	QueryRetries     string `env:"STOCKLINE_QUERY_RETRIES"`
	PersistThrottle  string `env:"STOCKLINE_PERSIST_THROTTLE"`
	PersistMutations string `env:"STOCKLINE_PERSIST_MUTATIONS"`
}

func (o envOverrides) values() map[string]any {
	out := make(map[string]any)
	for key, v := range map[string]string{
		"api.base_url":            o.APIBaseURL,
		"api.timeout":             o.APITimeout,
		"api.rate_limit":          o.APIRateLimit,
		"sync.poll_interval":      o.PollInterval,
		"sync.status_interval":    o.StatusInterval,
		"network.probe_interval":  o.ProbeInterval,
		"cache.gc_time":           o.GCTime,
		"cache.stale_time":        o.StaleTime,
		"cache.query_retries":     o.QueryRetries,
		"cache.persist_throttle":  o.PersistThrottle,
		"cache.persist_mutations": o.PersistMutations,
	} {
		if v != "" {
			out[key] = v
		}
	}
	return out
}

// Option configures a ConfigStore.
type Option func(*env.Options)

// WithEnvironment reads overrides from environ instead of the process
// environment.
func WithEnvironment(environ map[string]string) Option {
	return func(o *env.Options) { o.Environment = environ }
}

// ConfigStore is a file-based implementation of driven.ConfigStore using TOML.
// Configuration is stored in config.toml within the stockline data directory.
type ConfigStore struct {
	mu        sync.RWMutex
	filePath  string
	data      map[string]any
	overrides map[string]any
}

// NewConfigStore creates a new TOML-based config store.
// If configDir is empty, defaults to ~/.stockline/config.toml.
func NewConfigStore(configDir string, opts ...Option) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".stockline")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	var envOpts env.Options
	for _, opt := range opts {
		opt(&envOpts)
	}
	var o envOverrides
	if err := env.ParseWithOptions(&o, envOpts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	s := &ConfigStore{
		filePath:  filepath.Join(configDir, "config.toml"),
		data:      make(map[string]any),
		overrides: o.values(),
	}

	if err := s.Load(); err != nil {
		return nil, err
	}

	return s, nil
}

// Get retrieves a configuration value by key. Environment overrides win.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if v, ok := s.overrides[key]; ok {
		return v, true
	}
	val, ok := s.data[key]
	return val, ok
}

// GetString retrieves a string configuration value.
func (s *ConfigStore) GetString(key string) string {
	v, _ := s.Get(key)
	return value.String(v)
}

// GetInt retrieves an integer configuration value.
func (s *ConfigStore) GetInt(key string) int {
	v, _ := s.Get(key)
	return value.Int(v)
}

// GetBool retrieves a boolean configuration value.
func (s *ConfigStore) GetBool(key string) bool {
	v, _ := s.Get(key)
	return value.Bool(v)
}

// GetFloat retrieves a float configuration value.
func (s *ConfigStore) GetFloat(key string) float64 {
	v, _ := s.Get(key)
	return value.Float(v)
}

// GetDuration retrieves a duration configuration value.
func (s *ConfigStore) GetDuration(key string) time.Duration {
	v, _ := s.Get(key)
	return value.Duration(v)
}

// Set stores a configuration value and persists immediately.
func (s *ConfigStore) Set(key string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = v
	return s.save()
}

// Save persists the current configuration to disk.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// save writes configuration to the TOML file (caller must hold lock).
func (s *ConfigStore) save() error {
	data, err := toml.Marshal(value.Nest(s.data))
	if err != nil {
		return err
	}

	// Write with restricted permissions
	return os.WriteFile(s.filePath, data, 0600)
}

// Load reads configuration from the TOML file.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			// No config file yet - that's fine, start empty
			s.data = make(map[string]any)
			return nil
		}
		return err
	}

	var loaded map[string]any
	if err := toml.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parse %s: %w", s.filePath, err)
	}

	s.data = value.Flatten(loaded, "")
	return nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

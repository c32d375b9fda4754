package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/custodia-labs/stockline/internal/core/domain"
	"github.com/custodia-labs/stockline/internal/core/ports/driven"
	"github.com/custodia-labs/stockline/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyAPIBaseURL       = domain.SettingAPIBaseURL
	keyAPITimeout       = domain.SettingAPITimeout
	keyAPIRateLimit     = domain.SettingAPIRateLimit
	keyPollInterval     = domain.SettingPollInterval
	keyStatusInterval   = domain.SettingStatusInterval
	keyProbeInterval    = domain.SettingProbeInterval
	keyGCTime           = domain.SettingGCTime
	keyStaleTime        = domain.SettingStaleTime
	keyQueryRetries     = domain.SettingQueryRetries
	keyPersistThrottle  = domain.SettingPersistThrottle
	keyPersistMutations = domain.SettingPersistMutations
)

var settingKeys = []string{
	keyAPIBaseURL,
	keyAPITimeout,
	keyAPIRateLimit,
	keyPollInterval,
	keyStatusInterval,
	keyProbeInterval,
	keyGCTime,
	keyStaleTime,
	keyQueryRetries,
	keyPersistThrottle,
	keyPersistMutations,
}

// SettingsService manages client settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.ClientSettings {
	return domain.DefaultClientSettings()
}

// Keys lists the settable keys.
func (s *SettingsService) Keys() []string {
	return append([]string(nil), settingKeys...)
}

// Get retrieves current settings, falling back to defaults per key.
func (s *SettingsService) Get() (domain.ClientSettings, error) {
	d := domain.DefaultClientSettings()
	out := domain.ClientSettings{
		APIBaseURL:       s.getString(keyAPIBaseURL, d.APIBaseURL),
		RequestTimeout:   s.getDuration(keyAPITimeout, d.RequestTimeout),
		RateLimit:        s.getFloat(keyAPIRateLimit, d.RateLimit),
		PollInterval:     s.getDuration(keyPollInterval, d.PollInterval),
		StatusInterval:   s.getDuration(keyStatusInterval, d.StatusInterval),
		ProbeInterval:    s.getDuration(keyProbeInterval, d.ProbeInterval),
		GCTime:           s.getDuration(keyGCTime, d.GCTime),
		StaleTime:        s.getDuration(keyStaleTime, d.StaleTime),
		QueryRetries:     s.getInt(keyQueryRetries, d.QueryRetries),
		PersistThrottle:  s.getDuration(keyPersistThrottle, d.PersistThrottle),
		PersistMutations: s.getBool(keyPersistMutations, d.PersistMutations),
	}
	return out, nil
}

// Set parses value for key, validates the resulting settings and persists it.
func (s *SettingsService) Set(key, value string) error {
	current, err := s.Get()
	if err != nil {
		return err
	}
	var stored any
	switch key {
	case keyAPIBaseURL:
		current.APIBaseURL, stored = value, value
	case keyAPITimeout, keyPollInterval, keyStatusInterval, keyProbeInterval,
		keyGCTime, keyStaleTime, keyPersistThrottle:
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
		}
		if d < 0 {
			return fmt.Errorf("%w: %s cannot be negative", domain.ErrInvalidInput, key)
		}
		setDuration(&current, key, d)
		stored = d.String()
	case keyAPIRateLimit:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
		}
		current.RateLimit, stored = f, f
	case keyQueryRetries:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
		}
		current.QueryRetries, stored = n, n
	case keyPersistMutations:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
		}
		current.PersistMutations, stored = b, b
	default:
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	if err := current.Validate(); err != nil {
		return err
	}
	if err := s.configStore.Set(key, stored); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func setDuration(c *domain.ClientSettings, key string, d time.Duration) {
	switch key {
	case keyAPITimeout:
		c.RequestTimeout = d
	case keyPollInterval:
		c.PollInterval = d
	case keyStatusInterval:
		c.StatusInterval = d
	case keyProbeInterval:
		c.ProbeInterval = d
	case keyGCTime:
		c.GCTime = d
	case keyStaleTime:
		c.StaleTime = d
	case keyPersistThrottle:
		c.PersistThrottle = d
	}
}

// Helper methods for reading config values with defaults.

func (s *SettingsService) has(key string) bool {
	_, ok := s.configStore.Get(key)
	return ok
}

func (s *SettingsService) getString(key, defaultVal string) string {
	if val := s.configStore.GetString(key); val != "" {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if s.has(key) {
		return s.configStore.GetInt(key)
	}
	return defaultVal
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if s.has(key) {
		return s.configStore.GetBool(key)
	}
	return defaultVal
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if s.has(key) {
		return s.configStore.GetFloat(key)
	}
	return defaultVal
}

// getDuration falls back to the default when the stored value does not
// parse; a stored "0s" is kept.
func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	raw := s.configStore.GetString(key)
	if raw == "" {
		return defaultVal
	}
	if d := s.configStore.GetDuration(key); d != 0 || raw == "0s" || raw == "0" {
		return d
	}
	return defaultVal
}

package domain

import (
	"strconv"
	"time"
)

// Setting keys, as stored in the config file.
const (
	SettingAPIBaseURL       = "api.base_url"
	SettingAPITimeout       = "api.timeout"
	SettingAPIRateLimit     = "api.rate_limit"
	SettingPollInterval     = "sync.poll_interval"
	SettingStatusInterval   = "sync.status_interval"
	SettingProbeInterval    = "network.probe_interval"
	SettingGCTime           = "cache.gc_time"
	SettingStaleTime        = "cache.stale_time"
	SettingQueryRetries     = "cache.query_retries"
	SettingPersistThrottle  = "cache.persist_throttle"
	SettingPersistMutations = "cache.persist_mutations"
)

// ClientSettings holds tunables for the cache, pollers and API client.
type ClientSettings struct {
	APIBaseURL       string
	RequestTimeout   time.Duration
	RateLimit        float64
	PollInterval     time.Duration
	StatusInterval   time.Duration
	ProbeInterval    time.Duration
	GCTime           time.Duration
	StaleTime        time.Duration
	QueryRetries     int
	PersistThrottle  time.Duration
	PersistMutations bool
}

// Default values.
const (
	DefaultAPIBaseURL      = "http://localhost:8080"
	DefaultRequestTimeout  = 30 * time.Second
	DefaultRateLimit       = 10.0
	DefaultPollInterval    = 5 * time.Second
	DefaultStatusInterval  = 5 * time.Second
	DefaultProbeInterval   = 10 * time.Second
	DefaultGCTime          = 24 * time.Hour
	DefaultStaleTime       = 0
	DefaultQueryRetries    = 3
	DefaultPersistThrottle = time.Second
)

// DefaultClientSettings returns settings with default values.
func DefaultClientSettings() ClientSettings {
	return ClientSettings{
		APIBaseURL:       DefaultAPIBaseURL,
		RequestTimeout:   DefaultRequestTimeout,
		RateLimit:        DefaultRateLimit,
		PollInterval:     DefaultPollInterval,
		StatusInterval:   DefaultStatusInterval,
		ProbeInterval:    DefaultProbeInterval,
		GCTime:           DefaultGCTime,
		StaleTime:        DefaultStaleTime,
		QueryRetries:     DefaultQueryRetries,
		PersistThrottle:  DefaultPersistThrottle,
		PersistMutations: true,
	}
}

// Validate rejects settings the client cannot run with.
func (s ClientSettings) Validate() error {
	switch {
	case s.APIBaseURL == "":
		return wrapInvalid("api.base_url is required")
	case s.PollInterval <= 0:
		return wrapInvalid("sync.poll_interval must be positive")
	case s.StatusInterval <= 0:
		return wrapInvalid("sync.status_interval must be positive")
	case s.QueryRetries < 0:
		return wrapInvalid("cache.query_retries cannot be negative")
	case s.RateLimit < 0:
		return wrapInvalid("api.rate_limit cannot be negative")
	}
	return nil
}

// Value returns the setting stored under key, formatted as it is entered.
func (s ClientSettings) Value(key string) (string, bool) {
	switch key {
	case SettingAPIBaseURL:
		return s.APIBaseURL, true
	case SettingAPITimeout:
		return s.RequestTimeout.String(), true
	case SettingAPIRateLimit:
		return strconv.FormatFloat(s.RateLimit, 'f', -1, 64), true
	case SettingPollInterval:
		return s.PollInterval.String(), true
	case SettingStatusInterval:
		return s.StatusInterval.String(), true
	case SettingProbeInterval:
		return s.ProbeInterval.String(), true
	case SettingGCTime:
		return s.GCTime.String(), true
	case SettingStaleTime:
		return s.StaleTime.String(), true
	case SettingQueryRetries:
		return strconv.Itoa(s.QueryRetries), true
	case SettingPersistThrottle:
		return s.PersistThrottle.String(), true
	case SettingPersistMutations:
		return strconv.FormatBool(s.PersistMutations), true
	}
	return "", false
}

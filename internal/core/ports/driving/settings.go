package driving

import "github.com/custodia-labs/stockline/internal/core/domain"

// SettingsService manages client settings.
type SettingsService interface {
	// Get returns the effective settings: stored values over defaults.
	Get() (domain.ClientSettings, error)

	// Set validates and stores one setting by key, e.g. "sync.poll_interval".
	Set(key, value string) error

	// Keys lists the settable keys in display order.
	Keys() []string

	// GetDefaults returns default settings.
	GetDefaults() domain.ClientSettings
}

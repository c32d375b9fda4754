package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/stockline/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/stockline/internal/core/domain"
)

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultClientSettings(), settings)
	assert.Equal(t, service.GetDefaults(), settings)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		"api.base_url":            "https://stock.example.com",
		"sync.poll_interval":      "15s",
		"cache.query_retries":     int64(1),
		"api.rate_limit":          int64(4),
		"cache.persist_mutations": false,
		"cache.stale_time":        "0s",
	})
	service := NewSettingsService(store)

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, "https://stock.example.com", settings.APIBaseURL)
	assert.Equal(t, 15*time.Second, settings.PollInterval)
	assert.Equal(t, 1, settings.QueryRetries)
	assert.Equal(t, 4.0, settings.RateLimit)
	assert.False(t, settings.PersistMutations)
	assert.Zero(t, settings.StaleTime)
	assert.Equal(t, domain.DefaultGCTime, settings.GCTime)
}

func TestSettingsService_Get_UnparseableDurationFallsBack(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{"cache.gc_time": "forever"})
	settings, err := NewSettingsService(store).Get()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultGCTime, settings.GCTime)
}

func TestSettingsService_Set(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	require.NoError(t, service.Set("sync.poll_interval", "30s"))
	require.NoError(t, service.Set("cache.query_retries", "0"))
	require.NoError(t, service.Set("cache.persist_mutations", "false"))
	require.NoError(t, service.Set("api.rate_limit", "2.5"))

	assert.Equal(t, "30s", store.GetString("sync.poll_interval"))
	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, settings.PollInterval)
	assert.Zero(t, settings.QueryRetries)
	assert.False(t, settings.PersistMutations)
	assert.Equal(t, 2.5, settings.RateLimit)
}

func TestSettingsService_Set_Rejects(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	tests := []struct {
		key, value string
	}{
		{"unknown.key", "1"},
		{"sync.poll_interval", "often"},
		{"sync.poll_interval", "0s"},
		{"cache.gc_time", "-1m"},
		{"cache.query_retries", "-1"},
		{"cache.query_retries", "many"},
		{"api.base_url", ""},
		{"cache.persist_mutations", "perhaps"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			err := service.Set(tt.key, tt.value)
			assert.True(t, errors.Is(err, domain.ErrInvalidInput), "got %v", err)
		})
	}
	_, ok := store.Get("sync.poll_interval")
	assert.False(t, ok, "rejected values are not stored")
}

func TestSettingsService_Keys(t *testing.T) {
	keys := NewSettingsService(memory.NewConfigStore()).Keys()
	assert.Contains(t, keys, "cache.gc_time")
	assert.Contains(t, keys, "api.base_url")
	assert.Len(t, keys, 11)
}

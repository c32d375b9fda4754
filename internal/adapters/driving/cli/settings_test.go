package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/stockline/internal/core/domain"
)

func TestSettingsShow_Defaults(t *testing.T) {
	setupFakes(t)

	out, err := execute(t, "settings")
	require.NoError(t, err)
	assert.Contains(t, out, domain.SettingAPIBaseURL)
	assert.Contains(t, out, domain.SettingPersistMutations)
	assert.NotContains(t, out, "*")
}

func TestSettingsSet_MarksChanged(t *testing.T) {
	f := setupFakes(t)

	out, err := execute(t, "settings", "set", domain.SettingPollInterval, "10s")
	require.NoError(t, err)
	assert.Contains(t, out, "sync.poll_interval set to 10s")

	s, err := f.settings.Get()
	require.NoError(t, err)
	assert.Equal(t, "10s", s.PollInterval.String())

	out, err = execute(t, "settings", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "10s")
	assert.Contains(t, out, "*")
}

func TestSettingsShow_JSON(t *testing.T) {
	setupFakes(t)

	_, err := execute(t, "settings", "set", domain.SettingAPIBaseURL, "https://stock.example.com")
	require.NoError(t, err)

	out, err := execute(t, "settings", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"api.base_url": "https://stock.example.com"`)
}

func TestSettingsSet_Invalid(t *testing.T) {
	setupFakes(t)

	_, err := execute(t, "settings", "set", "no.such.key", "1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = execute(t, "settings", "set", domain.SettingAPITimeout, "soon")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

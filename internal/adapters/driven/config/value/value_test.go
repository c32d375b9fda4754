package value

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDuration(t *testing.T) {
	assert.Equal(t, 5*time.Second, Duration("5s"))
	assert.Equal(t, 3*time.Second, Duration(int64(3)))
	assert.Equal(t, 2*time.Minute, Duration(2*time.Minute))
	assert.Zero(t, Duration("soon"))
	assert.Zero(t, Duration(true))
}

func TestNumbersAcceptStrings(t *testing.T) {
	assert.Equal(t, 7, Int("7"))
	assert.Equal(t, 7, Int(int64(7)))
	assert.Equal(t, 2.5, Float("2.5"))
	assert.Equal(t, 10.0, Float(int64(10)))
	assert.True(t, Bool("true"))
	assert.False(t, Bool("nope"))
	assert.Equal(t, "10", String(int64(10)))
	assert.Equal(t, "1m0s", String(time.Minute))
}

func TestFlattenNestRoundTrip(t *testing.T) {
	nested := map[string]any{
		"api":   map[string]any{"base_url": "http://x", "timeout": "30s"},
		"cache": map[string]any{"gc_time": "24h"},
		"top":   int64(1),
	}
	flat := Flatten(nested, "")
	assert.Equal(t, map[string]any{
		"api.base_url":  "http://x",
		"api.timeout":   "30s",
		"cache.gc_time": "24h",
		"top":           int64(1),
	}, flat)
	assert.Equal(t, nested, Nest(flat))
}

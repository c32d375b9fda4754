package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAuthToken_IsExpired(t *testing.T) {
	tests := []struct {
		name   string
		expiry time.Time
		want   bool
	}{
		{"zero expiry never expires", time.Time{}, false},
		{"future expiry", time.Now().Add(time.Hour), false},
		{"past expiry", time.Now().Add(-time.Minute), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := &AuthToken{AccessToken: "x", Expiry: tt.expiry}
			assert.Equal(t, tt.want, tok.IsExpired())
		})
	}
}

package domain

import "time"

// AuthToken is the stored bearer credential for the inventory API.
type AuthToken struct {
	// AccessToken is the bearer token sent with every request.
	AccessToken string `json:"access_token"`
	// TokenType is typically "Bearer".
	TokenType string `json:"token_type,omitempty"`
	// Subject is the user the token was issued to, when known.
	Subject string `json:"subject,omitempty"`
	// Expiry is when the access token expires. Zero means unknown.
	Expiry time.Time `json:"expiry,omitempty"`
}

// IsExpired returns true if the token has a known expiry in the past.
func (t *AuthToken) IsExpired() bool {
	if t.Expiry.IsZero() {
		return false
	}
	return time.Now().After(t.Expiry)
}

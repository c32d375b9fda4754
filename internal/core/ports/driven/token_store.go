package driven

import (
	"context"

	"github.com/custodia-labs/stockline/internal/core/domain"
)

// TokenStore persists the bearer token used by the Gateway.
// The store only keeps the token; issuing it is the auth service's job.
type TokenStore interface {
	// Load returns the stored token or domain.ErrAuthRequired when none exists.
	Load(ctx context.Context) (domain.AuthToken, error)

	// Save replaces the stored token.
	Save(ctx context.Context, token domain.AuthToken) error

	// Clear removes the stored token.
	Clear(ctx context.Context) error
}

// TokenDecoder reads the claims of a raw access token. It does not verify
// the signature; the server does.
type TokenDecoder interface {
	Decode(raw string) (domain.AuthToken, error)
}

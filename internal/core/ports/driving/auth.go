package driving

import (
	"context"

	"github.com/custodia-labs/stockline/internal/core/domain"
)

// AuthService manages the stored API credential.
type AuthService interface {
	// Login stores an access token issued elsewhere.
	Login(ctx context.Context, accessToken string) (*domain.AuthToken, error)

	// Logout removes the stored token.
	Logout(ctx context.Context) error

	// Status returns the stored token, or domain.ErrAuthRequired.
	Status(ctx context.Context) (*domain.AuthToken, error)
}

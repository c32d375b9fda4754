package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/custodia-labs/stockline/internal/core/domain"
	"github.com/custodia-labs/stockline/internal/core/ports/driven"
)

// Ensure JWTDecoder implements the interface.
var _ driven.TokenDecoder = JWTDecoder{}

// JWTDecoder reads the registered claims of a JWT access token. The
// signature is not checked; only the server can do that.
type JWTDecoder struct{}

// Decode returns a token carrying the sub and exp claims of raw.
func (JWTDecoder) Decode(raw string) (domain.AuthToken, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return domain.AuthToken{}, fmt.Errorf("parse jwt: %w", err)
	}
	token := domain.AuthToken{
		AccessToken: raw,
		TokenType:   "Bearer",
		Subject:     claims.Subject,
	}
	if claims.ExpiresAt != nil {
		token.Expiry = claims.ExpiresAt.Time
	}
	return token, nil
}

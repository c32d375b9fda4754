package auth

import (
	"context"
	"errors"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/stockline/internal/core/domain"
	"github.com/custodia-labs/stockline/internal/core/ports/driven"
)

// TokenSource adapts a driven.TokenStore to oauth2.TokenSource. A missing
// token yields an empty oauth2.Token, not an error, so requests go out
// unauthenticated and the server decides.
type TokenSource struct {
	store driven.TokenStore
	ctx   context.Context
}

// NewTokenSource creates an oauth2.TokenSource reading from store.
func NewTokenSource(ctx context.Context, store driven.TokenStore) *TokenSource {
	return &TokenSource{store: store, ctx: ctx}
}

// Token implements oauth2.TokenSource.
func (t *TokenSource) Token() (*oauth2.Token, error) {
	stored, err := t.store.Load(t.ctx)
	if errors.Is(err, domain.ErrAuthRequired) {
		return &oauth2.Token{}, nil
	}
	if err != nil {
		return nil, err
	}
	tokenType := stored.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return &oauth2.Token{
		AccessToken: stored.AccessToken,
		TokenType:   tokenType,
		Expiry:      stored.Expiry,
	}, nil
}

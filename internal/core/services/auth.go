package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/stockline/internal/core/domain"
	"github.com/custodia-labs/stockline/internal/core/ports/driven"
	"github.com/custodia-labs/stockline/internal/core/ports/driving"
	"github.com/custodia-labs/stockline/internal/logger"
)

// Verify interface compliance.
var (
	_ driving.AuthService         = (*AuthService)(nil)
	_ driven.UnauthorizedNotifier = (*AuthEvents)(nil)
)

// AuthEvents dispatches the process-wide unauthorized signal to every
// current subscriber, synchronously.
type AuthEvents struct {
	mu        sync.Mutex
	listeners map[int]func()
	nextSub   int
}

// NewAuthEvents creates an event bus with no subscribers.
func NewAuthEvents() *AuthEvents {
	return &AuthEvents{listeners: make(map[int]func())}
}

// Subscribe registers fn until the returned func is called.
func (e *AuthEvents) Subscribe(fn func()) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextSub
	e.nextSub++
	e.listeners[id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.listeners, id)
	}
}

// NotifyUnauthorized calls every subscriber.
func (e *AuthEvents) NotifyUnauthorized() {
	e.mu.Lock()
	fns := make([]func(), 0, len(e.listeners))
	for _, fn := range e.listeners {
		fns = append(fns, fn)
	}
	e.mu.Unlock()
	logger.Debug("auth: unauthorized response, notifying %d subscribers", len(fns))
	for _, fn := range fns {
		fn()
	}
}

// AuthService stores the API credential. Tokens are issued by the server's
// login flow elsewhere; this client only keeps them.
type AuthService struct {
	store   driven.TokenStore
	decoder driven.TokenDecoder
}

// NewAuthService creates an auth service. decoder may be nil, in which case
// tokens are stored without subject or expiry.
func NewAuthService(store driven.TokenStore, decoder driven.TokenDecoder) *AuthService {
	return &AuthService{store: store, decoder: decoder}
}

// Login stores accessToken after reading its claims.
func (s *AuthService) Login(ctx context.Context, accessToken string) (*domain.AuthToken, error) {
	accessToken = stripScheme(accessToken)
	if accessToken == "" {
		return nil, fmt.Errorf("%w: access token is required", domain.ErrInvalidInput)
	}
	token := domain.AuthToken{AccessToken: accessToken, TokenType: "Bearer"}
	if s.decoder != nil {
		decoded, err := s.decoder.Decode(accessToken)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		token = decoded
	}
	if token.IsExpired() {
		return nil, fmt.Errorf("%w: token expired at %s", domain.ErrInvalidInput, token.Expiry)
	}
	if err := s.store.Save(ctx, token); err != nil {
		return nil, fmt.Errorf("save token: %w", err)
	}
	return &token, nil
}

// Logout removes the stored token.
func (s *AuthService) Logout(ctx context.Context) error {
	return s.store.Clear(ctx)
}

// Status returns the stored token.
func (s *AuthService) Status(ctx context.Context) (*domain.AuthToken, error) {
	token, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// stripScheme trims whitespace and a leading "Bearer" scheme.
func stripScheme(raw string) string {
	raw = strings.TrimSpace(raw)
	if fields := strings.Fields(raw); len(fields) > 0 && strings.EqualFold(fields[0], "bearer") {
		raw = strings.TrimSpace(raw[len(fields[0]):])
	}
	return raw
}

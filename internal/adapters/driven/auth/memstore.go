package auth

import (
	"context"
	"sync"

	"github.com/custodia-labs/stockline/internal/core/domain"
	"github.com/custodia-labs/stockline/internal/core/ports/driven"
)

// Ensure MemoryTokenStore implements the interface.
var _ driven.TokenStore = (*MemoryTokenStore)(nil)

// MemoryTokenStore holds the token for the life of the process.
type MemoryTokenStore struct {
	mu    sync.RWMutex
	token *domain.AuthToken
}

// NewMemoryTokenStore creates an empty store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) Load(_ context.Context) (domain.AuthToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil {
		return domain.AuthToken{}, domain.ErrAuthRequired
	}
	return *s.token, nil
}

func (s *MemoryTokenStore) Save(_ context.Context, token domain.AuthToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = &token
	return nil
}

func (s *MemoryTokenStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = nil
	return nil
}

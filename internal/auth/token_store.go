package auth

import (
	"context"
	"sync"

	"github.com/spec-kit/data-collector/internal/domain"
)

// TokenStore holds the single current access token. Save replaces any previous value.
type TokenStore interface {
	Load(ctx context.Context) (domain.AccessToken, bool, error)
	Save(ctx context.Context, token domain.AccessToken) error
}

// MemoryTokenStore keeps the token in process memory.
type MemoryTokenStore struct {
	mu    sync.RWMutex
	token domain.AccessToken
}

// NewMemoryTokenStore returns an empty store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) Load(_ context.Context) (domain.AccessToken, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token.Valid(), nil
}

func (s *MemoryTokenStore) Save(_ context.Context, token domain.AccessToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

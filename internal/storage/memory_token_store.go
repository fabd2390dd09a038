package storage

import (
	"context"
	"errors"
	"sync"
)

// MemoryTokenStore keeps the refresh token in process memory.
// A rotated token survives only as long as the process, so it suits a token
// supplied through the environment on every start.
type MemoryTokenStore struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryTokenStore creates a MemoryTokenStore seeded with token.
func NewMemoryTokenStore(token string) (*MemoryTokenStore, error) {
	if token == "" {
		return nil, errors.New("refresh token is required")
	}
	return &MemoryTokenStore{token: token}, nil
}

// RefreshToken returns the current refresh token.
func (m *MemoryTokenStore) RefreshToken(_ context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, nil
}

// SaveRefreshToken replaces the refresh token.
func (m *MemoryTokenStore) SaveRefreshToken(_ context.Context, token string) error {
	if token == "" {
		return errors.New("token cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

package tokenstore

import (
	"context"
	"sync"

	"github.com/you/storefront/domain"
)

// MemoryStore keeps credentials in process memory. Used in tests and by
// the integration example; nothing survives a restart.
type MemoryStore struct {
	mu    sync.Mutex
	creds *domain.Credentials
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load implements domain.TokenStore
func (s *MemoryStore) Load(ctx context.Context) (*domain.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds == nil {
		return nil, nil
	}
	copied := *s.creds
	return &copied, nil
}

// Save implements domain.TokenStore
func (s *MemoryStore) Save(ctx context.Context, creds *domain.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *creds
	s.creds = &copied
	return nil
}

// Clear implements domain.TokenStore
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = nil
	return nil
}

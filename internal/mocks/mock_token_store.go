package mocks

import (
	"context"
	"sync"

	"github.com/you/storefront/domain"
)

// MockTokenStore implements domain.TokenStore for testing. Without
// overrides it behaves like the in-memory store, so tests can also use
// it as a real credential holder.
type MockTokenStore struct {
	LoadFunc  func(ctx context.Context) (*domain.Credentials, error)
	SaveFunc  func(ctx context.Context, creds *domain.Credentials) error
	ClearFunc func(ctx context.Context) error

	mu    sync.Mutex
	creds *domain.Credentials
}

// NewMockTokenStore creates a new MockTokenStore with default behaviors
func NewMockTokenStore() *MockTokenStore {
	return &MockTokenStore{}
}

// SeedCredentials installs a credential pair for the default behavior to return.
func (m *MockTokenStore) SeedCredentials(access, refresh string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = &domain.Credentials{AccessToken: access, RefreshToken: refresh}
}

// Credentials returns a copy of the currently held pair, or nil.
func (m *MockTokenStore) Credentials() *domain.Credentials {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.creds == nil {
		return nil
	}
	clone := *m.creds
	return &clone
}

func (m *MockTokenStore) Load(ctx context.Context) (*domain.Credentials, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx)
	}
	return m.Credentials(), nil
}

func (m *MockTokenStore) Save(ctx context.Context, creds *domain.Credentials) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, creds)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *creds
	m.creds = &clone
	return nil
}

func (m *MockTokenStore) Clear(ctx context.Context) error {
	if m.ClearFunc != nil {
		return m.ClearFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = nil
	return nil
}

// Compile-time interface compliance verification
var _ domain.TokenStore = (*MockTokenStore)(nil)

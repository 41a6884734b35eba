package mocks

import (
	"encoding/json"
	"strings"

	"github.com/you/storefront/domain"
)

// MockTokenService implements domain.TokenService interface for testing.
// Default tokens are prefix-tagged JSON claims, so validation round-trips
// without any signing key.
type MockTokenService struct {
	GenerateAccessTokenFunc  func(claims *domain.TokenClaims) (string, error)
	GenerateRefreshTokenFunc func(claims *domain.TokenClaims) (string, error)
	ValidateAccessTokenFunc  func(token string) (*domain.TokenClaims, error)
	ValidateRefreshTokenFunc func(token string) (*domain.TokenClaims, error)
}

// NewMockTokenService creates a new MockTokenService with default behaviors
func NewMockTokenService() *MockTokenService {
	return &MockTokenService{}
}

func (m *MockTokenService) GenerateAccessToken(claims *domain.TokenClaims) (string, error) {
	if m.GenerateAccessTokenFunc != nil {
		return m.GenerateAccessTokenFunc(claims)
	}
	return encodeClaims("access.", claims)
}

func (m *MockTokenService) GenerateRefreshToken(claims *domain.TokenClaims) (string, error) {
	if m.GenerateRefreshTokenFunc != nil {
		return m.GenerateRefreshTokenFunc(claims)
	}
	return encodeClaims("refresh.", claims)
}

func (m *MockTokenService) ValidateAccessToken(token string) (*domain.TokenClaims, error) {
	if m.ValidateAccessTokenFunc != nil {
		return m.ValidateAccessTokenFunc(token)
	}
	return decodeClaims("access.", token)
}

func (m *MockTokenService) ValidateRefreshToken(token string) (*domain.TokenClaims, error) {
	if m.ValidateRefreshTokenFunc != nil {
		return m.ValidateRefreshTokenFunc(token)
	}
	return decodeClaims("refresh.", token)
}

func encodeClaims(prefix string, claims *domain.TokenClaims) (string, error) {
	data, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	return prefix + string(data), nil
}

func decodeClaims(prefix, token string) (*domain.TokenClaims, error) {
	if !strings.HasPrefix(token, prefix) {
		return nil, domain.ErrTokenInvalid
	}
	var claims domain.TokenClaims
	if err := json.Unmarshal([]byte(strings.TrimPrefix(token, prefix)), &claims); err != nil {
		return nil, domain.ErrTokenInvalid
	}
	return &claims, nil
}

// Compile-time interface compliance verification
var _ domain.TokenService = (*MockTokenService)(nil)

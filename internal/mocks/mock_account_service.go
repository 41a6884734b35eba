package mocks

import (
	"context"

	"github.com/you/storefront/domain"
)

// MockAccountService implements domain.AccountService interface for testing
type MockAccountService struct {
	SendOTPFunc      func(ctx context.Context, method domain.Method, identifier string) error
	VerifyOTPFunc    func(ctx context.Context, method domain.Method, identifier, code string) (*domain.AuthResult, error)
	RefreshTokenFunc func(ctx context.Context, refreshToken string) (*domain.AuthResult, error)
	CreateUserFunc   func(ctx context.Context, claims *domain.TokenClaims, profile *domain.Profile) (*domain.User, error)
	GetUserFunc      func(ctx context.Context, userID uint) (*domain.User, error)
	LogoutFunc       func(ctx context.Context, sessionID string) error
}

// NewMockAccountService creates a new MockAccountService with default behaviors
func NewMockAccountService() *MockAccountService {
	return &MockAccountService{}
}

func (m *MockAccountService) SendOTP(ctx context.Context, method domain.Method, identifier string) error {
	if m.SendOTPFunc != nil {
		return m.SendOTPFunc(ctx, method, identifier)
	}
	return nil
}

func (m *MockAccountService) VerifyOTP(ctx context.Context, method domain.Method, identifier, code string) (*domain.AuthResult, error) {
	if m.VerifyOTPFunc != nil {
		return m.VerifyOTPFunc(ctx, method, identifier, code)
	}
	if code != "123456" {
		return nil, domain.ErrOTPInvalid
	}
	return &domain.AuthResult{
		User:         &domain.User{ID: 1, Email: identifier, IsActive: true},
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		SessionID:    "session-1",
	}, nil
}

func (m *MockAccountService) RefreshToken(ctx context.Context, refreshToken string) (*domain.AuthResult, error) {
	if m.RefreshTokenFunc != nil {
		return m.RefreshTokenFunc(ctx, refreshToken)
	}
	if refreshToken == "" {
		return nil, domain.ErrTokenInvalid
	}
	return &domain.AuthResult{
		AccessToken:  "access-token-rotated",
		RefreshToken: refreshToken,
		SessionID:    "session-1",
	}, nil
}

func (m *MockAccountService) CreateUser(ctx context.Context, claims *domain.TokenClaims, profile *domain.Profile) (*domain.User, error) {
	if m.CreateUserFunc != nil {
		return m.CreateUserFunc(ctx, claims, profile)
	}
	return &domain.User{
		ID:        1,
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
		Email:     profile.Email,
		Phone:     profile.PhoneNumber,
		IsActive:  true,
	}, nil
}

func (m *MockAccountService) GetUser(ctx context.Context, userID uint) (*domain.User, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, userID)
	}
	return &domain.User{ID: userID, IsActive: true}, nil
}

func (m *MockAccountService) Logout(ctx context.Context, sessionID string) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, sessionID)
	}
	return nil
}

// Compile-time interface compliance verification
var _ domain.AccountService = (*MockAccountService)(nil)

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/you/storefront/domain"
)

// AccountServiceImpl implements domain.AccountService
type AccountServiceImpl struct {
	userRepo    domain.UserRepository
	sessionRepo domain.SessionRepository
	passwordSvc domain.PasswordService
	tokenSvc    domain.TokenService
	otpSvc      domain.OTPService
	accessTTL   time.Duration
	sessionTTL  time.Duration
}

// NewAccountService creates a new account service
func NewAccountService(
	userRepo domain.UserRepository,
	sessionRepo domain.SessionRepository,
	passwordSvc domain.PasswordService,
	tokenSvc domain.TokenService,
	otpSvc domain.OTPService,
	accessTTL time.Duration,
	sessionTTL time.Duration,
) domain.AccountService {
	return &AccountServiceImpl{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		passwordSvc: passwordSvc,
		tokenSvc:    tokenSvc,
		otpSvc:      otpSvc,
		accessTTL:   accessTTL,
		sessionTTL:  sessionTTL,
	}
}

// SendOTP implements domain.AccountService
func (s *AccountServiceImpl) SendOTP(ctx context.Context, method domain.Method, identifier string) error {
	_, err := s.otpSvc.Generate(ctx, method, identifier)
	return err
}

// VerifyOTP implements domain.AccountService. A valid code signs the
// identifier in: for an existing account the user rides along in the
// result, for an unknown identifier the result carries a nil user and
// the issued tokens authorize the subsequent onboarding call.
func (s *AccountServiceImpl) VerifyOTP(ctx context.Context, method domain.Method, identifier, code string) (*domain.AuthResult, error) {
	valid, err := s.otpSvc.Verify(ctx, identifier, code)
	if err != nil {
		return nil, err
	}
	if !valid {
		return nil, domain.ErrOTPInvalid
	}

	user, err := s.findByIdentifier(ctx, method, identifier)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	var userID uint
	if user != nil {
		if !user.IsActive {
			return nil, domain.ErrUserInactive
		}
		userID = user.ID
		s.markVerified(ctx, user, method)
	}

	session := &domain.Session{
		ID:         uuid.NewString(),
		UserID:     userID,
		Method:     method,
		Identifier: identifier,
		ExpiresAt:  time.Now().Add(s.sessionTTL),
		CreatedAt:  time.Now(),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	claims := &domain.TokenClaims{
		UserID:     userID,
		SessionID:  session.ID,
		Method:     string(method),
		Identifier: identifier,
	}
	accessToken, err := s.tokenSvc.GenerateAccessToken(claims)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, err := s.tokenSvc.GenerateRefreshToken(claims)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &domain.AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		SessionID:    session.ID,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

// RefreshToken implements domain.AccountService
func (s *AccountServiceImpl) RefreshToken(ctx context.Context, refreshToken string) (*domain.AuthResult, error) {
	claims, err := s.tokenSvc.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}

	session, err := s.sessionRepo.FindByID(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if session.ExpiresAt.Before(time.Now()) {
		return nil, domain.ErrSessionExpired
	}

	var user *domain.User
	if session.UserID != 0 {
		user, err = s.userRepo.FindByID(ctx, session.UserID)
		if err != nil {
			return nil, err
		}
	}

	accessToken, err := s.tokenSvc.GenerateAccessToken(&domain.TokenClaims{
		UserID:     session.UserID,
		SessionID:  session.ID,
		Method:     string(session.Method),
		Identifier: session.Identifier,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &domain.AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken, // Keep same refresh token
		SessionID:    session.ID,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

// CreateUser implements domain.AccountService. The caller has proven
// ownership of claims.Identifier via OTP; the profile becomes an account
// with that identifier marked verified.
func (s *AccountServiceImpl) CreateUser(ctx context.Context, claims *domain.TokenClaims, profile *domain.Profile) (*domain.User, error) {
	if claims.Identifier == "" {
		return nil, domain.ErrTokenInvalid
	}

	email := profile.Email
	phone := profile.PhoneNumber
	method := domain.Method(claims.Method)
	if method == domain.MethodEmail {
		email = claims.Identifier
	} else {
		phone = claims.Identifier
	}

	if email != "" {
		if existing, err := s.userRepo.FindByEmail(ctx, email); err == nil && existing != nil {
			return nil, domain.ErrUserAlreadyExists
		}
	}
	if phone != "" {
		if existing, err := s.userRepo.FindByPhone(ctx, phone); err == nil && existing != nil {
			return nil, domain.ErrUserAlreadyExists
		}
	}

	hashedPassword, err := s.passwordSvc.Hash(profile.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		FirstName:     profile.FirstName,
		LastName:      profile.LastName,
		Email:         email,
		Phone:         phone,
		DateOfBirth:   profile.DateOfBirth,
		PasswordHash:  hashedPassword,
		IsActive:      true,
		EmailVerified: method == domain.MethodEmail,
		PhoneVerified: method == domain.MethodPhone,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// Bind the onboarding session to the account it just created.
	if session, err := s.sessionRepo.FindByID(ctx, claims.SessionID); err == nil {
		session.UserID = user.ID
		if err := s.sessionRepo.Update(ctx, session); err != nil {
			return nil, fmt.Errorf("failed to bind session to user: %w", err)
		}
	}

	return user, nil
}

// GetUser implements domain.AccountService
func (s *AccountServiceImpl) GetUser(ctx context.Context, userID uint) (*domain.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}

// Logout implements domain.AccountService
func (s *AccountServiceImpl) Logout(ctx context.Context, sessionID string) error {
	return s.sessionRepo.Delete(ctx, sessionID)
}

func (s *AccountServiceImpl) findByIdentifier(ctx context.Context, method domain.Method, identifier string) (*domain.User, error) {
	if method == domain.MethodEmail {
		return s.userRepo.FindByEmail(ctx, identifier)
	}
	return s.userRepo.FindByPhone(ctx, identifier)
}

// markVerified records a successful OTP check on the account. Failures
// here do not block sign-in.
func (s *AccountServiceImpl) markVerified(ctx context.Context, user *domain.User, method domain.Method) {
	changed := false
	if method == domain.MethodEmail && !user.EmailVerified {
		user.EmailVerified = true
		changed = true
	}
	if method == domain.MethodPhone && !user.PhoneVerified {
		user.PhoneVerified = true
		changed = true
	}
	if changed {
		_ = s.userRepo.Update(ctx, user)
	}
}

package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/storefront/domain"
	"github.com/you/storefront/internal/mocks"
)

type accountFixture struct {
	svc         domain.AccountService
	userRepo    *mocks.MockUserRepository
	sessionRepo *mocks.MockSessionRepository
	otpSvc      *mocks.MockOTPService
	tokenSvc    *mocks.MockTokenService
}

func newAccountFixture(t *testing.T) *accountFixture {
	t.Helper()
	f := &accountFixture{
		userRepo:    mocks.NewMockUserRepository(),
		sessionRepo: mocks.NewMockSessionRepository(),
		otpSvc:      mocks.NewMockOTPService(),
		tokenSvc:    mocks.NewMockTokenService(),
	}
	f.svc = NewAccountService(
		f.userRepo,
		f.sessionRepo,
		mocks.NewMockPasswordService(),
		f.tokenSvc,
		f.otpSvc,
		15*time.Minute,
		24*time.Hour,
	)
	return f
}

func TestAccountService_VerifyOTP_ExistingUser(t *testing.T) {
	ctx := context.Background()
	f := newAccountFixture(t)
	f.userRepo.Seed(&domain.User{Email: "dana@example.com", IsActive: true})

	result, err := f.svc.VerifyOTP(ctx, domain.MethodEmail, "dana@example.com", "123456")
	require.NoError(t, err)
	require.NotNil(t, result.User)
	assert.Equal(t, "dana@example.com", result.User.Email)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
	assert.NotEmpty(t, result.SessionID)

	// The issued tokens carry the session and identifier.
	claims, err := f.tokenSvc.ValidateAccessToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, claims.UserID)
	assert.Equal(t, result.SessionID, claims.SessionID)
	assert.Equal(t, "dana@example.com", claims.Identifier)

	session, err := f.sessionRepo.FindByID(ctx, result.SessionID)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, session.UserID)
}

func TestAccountService_VerifyOTP_MarksIdentifierVerified(t *testing.T) {
	ctx := context.Background()
	f := newAccountFixture(t)
	seeded := f.userRepo.Seed(&domain.User{Email: "dana@example.com", IsActive: true})

	_, err := f.svc.VerifyOTP(ctx, domain.MethodEmail, "dana@example.com", "123456")
	require.NoError(t, err)

	user, err := f.userRepo.FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.True(t, user.EmailVerified)
	assert.False(t, user.PhoneVerified)
}

func TestAccountService_VerifyOTP_UnknownIdentifierIssuesOnboardingGrant(t *testing.T) {
	ctx := context.Background()
	f := newAccountFixture(t)

	result, err := f.svc.VerifyOTP(ctx, domain.MethodPhone, "+4512345678", "123456")
	require.NoError(t, err)
	assert.Nil(t, result.User, "no account yet")
	assert.NotEmpty(t, result.AccessToken)

	claims, err := f.tokenSvc.ValidateAccessToken(result.AccessToken)
	require.NoError(t, err)
	assert.Zero(t, claims.UserID)
	assert.Equal(t, "+4512345678", claims.Identifier)
	assert.Equal(t, string(domain.MethodPhone), claims.Method)
}

func TestAccountService_VerifyOTP_WrongCode(t *testing.T) {
	ctx := context.Background()
	f := newAccountFixture(t)

	_, err := f.svc.VerifyOTP(ctx, domain.MethodEmail, "dana@example.com", "000000")
	assert.ErrorIs(t, err, domain.ErrOTPInvalid)
}

func TestAccountService_VerifyOTP_InactiveUser(t *testing.T) {
	ctx := context.Background()
	f := newAccountFixture(t)
	f.userRepo.Seed(&domain.User{Email: "dana@example.com", IsActive: false})

	_, err := f.svc.VerifyOTP(ctx, domain.MethodEmail, "dana@example.com", "123456")
	assert.ErrorIs(t, err, domain.ErrUserInactive)
}

func TestAccountService_RefreshToken(t *testing.T) {
	ctx := context.Background()
	f := newAccountFixture(t)
	f.userRepo.Seed(&domain.User{Email: "dana@example.com", IsActive: true})

	first, err := f.svc.VerifyOTP(ctx, domain.MethodEmail, "dana@example.com", "123456")
	require.NoError(t, err)

	refreshed, err := f.svc.RefreshToken(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, first.RefreshToken, refreshed.RefreshToken, "refresh token is not rotated by the stub backend")
	assert.Equal(t, first.SessionID, refreshed.SessionID)
}

func TestAccountService_RefreshToken_Invalid(t *testing.T) {
	ctx := context.Background()
	f := newAccountFixture(t)

	_, err := f.svc.RefreshToken(ctx, "garbage")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestAccountService_RefreshToken_SessionGone(t *testing.T) {
	ctx := context.Background()
	f := newAccountFixture(t)
	f.userRepo.Seed(&domain.User{Email: "dana@example.com", IsActive: true})

	result, err := f.svc.VerifyOTP(ctx, domain.MethodEmail, "dana@example.com", "123456")
	require.NoError(t, err)
	require.NoError(t, f.svc.Logout(ctx, result.SessionID))

	_, err = f.svc.RefreshToken(ctx, result.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestAccountService_CreateUser_BindsIdentifierFromClaims(t *testing.T) {
	ctx := context.Background()
	f := newAccountFixture(t)

	grant, err := f.svc.VerifyOTP(ctx, domain.MethodEmail, "dana@example.com", "123456")
	require.NoError(t, err)
	claims, err := f.tokenSvc.ValidateAccessToken(grant.AccessToken)
	require.NoError(t, err)

	user, err := f.svc.CreateUser(ctx, claims, &domain.Profile{
		FirstName:   "Dana",
		LastName:    "Cole",
		DateOfBirth: "1994-02-11",
		Email:       "spoofed@example.com", // the verified identifier wins
		Password:    "Str0ngPass",
	})
	require.NoError(t, err)
	assert.Equal(t, "dana@example.com", user.Email)
	assert.True(t, user.EmailVerified)
	assert.False(t, user.PhoneVerified)
	assert.True(t, user.IsActive)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "Str0ngPass", user.PasswordHash)

	// The onboarding session now belongs to the new account.
	session, err := f.sessionRepo.FindByID(ctx, claims.SessionID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.UserID)
}

func TestAccountService_CreateUser_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	f := newAccountFixture(t)
	f.userRepo.Seed(&domain.User{Email: "dana@example.com", IsActive: true})

	_, err := f.svc.CreateUser(ctx, &domain.TokenClaims{
		Method:     string(domain.MethodEmail),
		Identifier: "dana@example.com",
		SessionID:  "s1",
	}, &domain.Profile{FirstName: "Dana", LastName: "Cole", Password: "Str0ngPass"})
	assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)
}

func TestAccountService_CreateUser_RequiresVerifiedIdentifier(t *testing.T) {
	ctx := context.Background()
	f := newAccountFixture(t)

	_, err := f.svc.CreateUser(ctx, &domain.TokenClaims{}, &domain.Profile{
		FirstName: "Dana", LastName: "Cole", Password: "Str0ngPass",
	})
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

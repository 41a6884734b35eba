package domain

import "context"

// TokenStore defines persistent credential storage. Implementations stand
// in for the platform keychain: opaque strings in, opaque strings out.
// Load returns (nil, nil) when no credentials have been saved yet.
type TokenStore interface {
	Load(ctx context.Context) (*Credentials, error)
	Save(ctx context.Context, creds *Credentials) error
	Clear(ctx context.Context) error
}

// UserRepository defines user data access operations
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByPhone(ctx context.Context, phone string) (*User, error)
	FindByID(ctx context.Context, id uint) (*User, error)
	Update(ctx context.Context, user *User) error
}

// SessionRepository defines session data access operations
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	FindByID(ctx context.Context, sessionID string) (*Session, error)
	Update(ctx context.Context, session *Session) error
	Delete(ctx context.Context, sessionID string) error
}

// AccountService defines the backend-side authentication business logic
type AccountService interface {
	SendOTP(ctx context.Context, method Method, identifier string) error
	VerifyOTP(ctx context.Context, method Method, identifier, code string) (*AuthResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*AuthResult, error)
	CreateUser(ctx context.Context, claims *TokenClaims, profile *Profile) (*User, error)
	GetUser(ctx context.Context, userID uint) (*User, error)
	Logout(ctx context.Context, sessionID string) error
}

// OTPService defines OTP operations
type OTPService interface {
	Generate(ctx context.Context, method Method, identifier string) (*OTPGrant, error)
	Verify(ctx context.Context, identifier, code string) (bool, error)
	CanResend(ctx context.Context, identifier string) (bool, int64, error)
}

// PasswordService defines password operations
type PasswordService interface {
	Hash(password string) (string, error)
	Verify(hashedPassword, password string) bool
}

// TokenService defines token operations
type TokenService interface {
	GenerateAccessToken(claims *TokenClaims) (string, error)
	GenerateRefreshToken(claims *TokenClaims) (string, error)
	ValidateAccessToken(token string) (*TokenClaims, error)
	ValidateRefreshToken(token string) (*TokenClaims, error)
}

// NotificationService defines notification operations
type NotificationService interface {
	SendSMS(to, message string) error
	SendEmail(to, subject, body string) error
}

package domain

import "time"

// Method identifies how the user chose to authenticate.
type Method string

const (
	MethodEmail Method = "email"
	MethodPhone Method = "phone"
)

// Step identifies the current stage of the auth flow.
type Step string

const (
	StepLogin      Step = "login"
	StepOTP        Step = "otp"
	StepOnboarding Step = "onboarding"
)

// Credentials is the access/refresh token pair persisted between launches.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// User represents a storefront account
type User struct {
	ID            uint      `json:"id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone_number"`
	DateOfBirth   string    `json:"date_of_birth"`
	PasswordHash  string    `json:"-"`
	IsActive      bool      `json:"is_active"`
	EmailVerified bool      `json:"email_verified"`
	PhoneVerified bool      `json:"phone_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Profile holds the onboarding form data for a brand-new account.
type Profile struct {
	FirstName   string
	LastName    string
	DateOfBirth string
	Email       string
	PhoneNumber string
	Password    string
}

// AuthSession is the in-memory state of one run through the auth flow.
// It lives from the moment the flow opens until it completes or is
// cancelled; nothing in it is persisted.
type AuthSession struct {
	Step         Step
	Method       Method
	Email        string
	Phone        string
	OTP          string
	Profile      Profile
	IsNewAccount bool
	IsLoading    bool
	Errors       map[string][]string

	// Generation increments on every reset. Completions of in-flight
	// requests compare it against the value they captured at dispatch and
	// discard themselves when it moved.
	Generation uint64
}

// AuthResult represents a successful verify or refresh outcome.
type AuthResult struct {
	User         *User
	AccessToken  string
	RefreshToken string
	SessionID    string
	ExpiresIn    int64
}

// Session is a server-side session record backing a refresh token.
type Session struct {
	ID         string
	UserID     uint
	Method     Method
	Identifier string
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

// OTPGrant describes an OTP issued for an identifier.
type OTPGrant struct {
	Method     Method
	Identifier string
	Code       string
	ExpiresAt  time.Time
	Attempts   int
}

// TokenClaims represents JWT token claims
type TokenClaims struct {
	UserID     uint   `json:"user_id"`
	SessionID  string `json:"session_id,omitempty"`
	Method     string `json:"method,omitempty"`
	Identifier string `json:"identifier,omitempty"`
	IssuedAt   int64  `json:"iat"`
	ExpiresAt  int64  `json:"exp"`
}

package domain

import "errors"

// Authentication errors
var (
	ErrUnauthenticated     = errors.New("authentication required")
	ErrRefreshTokenMissing = errors.New("no refresh token available")
	ErrUserNotFound        = errors.New("user not found")
	ErrUserAlreadyExists   = errors.New("user already exists")
	ErrUserInactive        = errors.New("user account is inactive")
)

// OTP errors
var (
	ErrOTPExpired     = errors.New("otp has expired")
	ErrOTPInvalid     = errors.New("invalid otp code")
	ErrOTPMaxAttempts = errors.New("maximum otp attempts exceeded")
	ErrOTPNotFound    = errors.New("otp not found")
	ErrOTPResendLimit = errors.New("otp resend limit exceeded")
)

// Token errors
var (
	ErrTokenInvalid   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenMalformed = errors.New("malformed token")
)

// Session errors
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session has expired")
)

// Auth flow errors
var (
	ErrValidation    = errors.New("validation failed")
	ErrWrongStep     = errors.New("operation not valid for current step")
	ErrStaleResponse = errors.New("response arrived for a cancelled flow")
)

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/storefront/domain"
)

// AuthHandlers handles the authentication endpoints of the storefront API
type AuthHandlers struct {
	accountSvc domain.AccountService
	audit      domain.AuditLogger
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(accountSvc domain.AccountService, audit domain.AuditLogger) *AuthHandlers {
	return &AuthHandlers{
		accountSvc: accountSvc,
		audit:      audit,
	}
}

// SendOTPRequest carries exactly one of email or phone_number.
type SendOTPRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone_number"`
}

// VerifyOTPRequest carries the code plus the identifier that requested it.
type VerifyOTPRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone_number"`
	OTP   string `json:"otp" binding:"required"`
}

// RefreshRequest represents token refresh request
type RefreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

// method resolves which identifier a request carries. ok is false when
// the request has none or both.
func resolveIdentifier(email, phone string) (domain.Method, string, bool) {
	switch {
	case email != "" && phone == "":
		return domain.MethodEmail, email, true
	case phone != "" && email == "":
		return domain.MethodPhone, phone, true
	default:
		return "", "", false
	}
}

// SendOTP handles OTP generation and delivery
func (h *AuthHandlers) SendOTP(c *gin.Context) {
	var req SendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	method, identifier, ok := resolveIdentifier(req.Email, req.Phone)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"non_field_errors": []string{"Provide either an email address or a phone number."},
		})
		return
	}

	err := h.accountSvc.SendOTP(c.Request.Context(), method, identifier)
	event := domain.NewAuditEvent(domain.OTPRequestEvent, 0).WithIdentifier(method, identifier)
	if err != nil {
		_ = h.audit.LogEvent(c.Request.Context(), event.WithError(err))
		if errors.Is(err, domain.ErrOTPResendLimit) {
			c.JSON(http.StatusTooManyRequests, gin.H{"detail": "Please wait before requesting another code."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to send OTP"})
		return
	}
	_ = h.audit.LogEvent(c.Request.Context(), event)

	c.JSON(http.StatusOK, gin.H{"message": "OTP sent successfully"})
}

// VerifyOTP handles OTP verification. The response carries the signed-in
// user, or a null user plus onboarding tokens when the identifier has no
// account yet.
func (h *AuthHandlers) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"field_errors": gin.H{"otp": []string{"The verification code is required."}}})
		return
	}

	method, identifier, ok := resolveIdentifier(req.Email, req.Phone)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"non_field_errors": []string{"Provide either an email address or a phone number."},
		})
		return
	}

	result, err := h.accountSvc.VerifyOTP(c.Request.Context(), method, identifier, req.OTP)
	if err != nil {
		event := domain.NewAuditEvent(domain.OTPVerifyFailureEvent, 0).WithIdentifier(method, identifier).WithError(err)
		_ = h.audit.LogEvent(c.Request.Context(), event)
		switch {
		case errors.Is(err, domain.ErrOTPNotFound), errors.Is(err, domain.ErrOTPExpired):
			c.JSON(http.StatusBadRequest, gin.H{"detail": "The code has expired. Request a new one."})
		case errors.Is(err, domain.ErrOTPMaxAttempts):
			c.JSON(http.StatusTooManyRequests, gin.H{"detail": "Too many attempts. Request a new code."})
		case errors.Is(err, domain.ErrOTPInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"field_errors": gin.H{"otp": []string{"Invalid verification code."}}})
		case errors.Is(err, domain.ErrUserInactive):
			c.JSON(http.StatusForbidden, gin.H{"detail": "Account is inactive"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "OTP verification failed"})
		}
		return
	}

	event := domain.NewAuditEvent(domain.OTPVerifyEvent, userIDOf(result.User)).
		WithIdentifier(method, identifier).
		WithSession(result.SessionID)
	_ = h.audit.LogEvent(c.Request.Context(), event)

	c.JSON(http.StatusOK, gin.H{
		"user":    result.User,
		"access":  result.AccessToken,
		"refresh": result.RefreshToken,
	})
}

// Refresh handles token refresh
func (h *AuthHandlers) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	result, err := h.accountSvc.RefreshToken(c.Request.Context(), req.Refresh)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTokenInvalid), errors.Is(err, domain.ErrTokenExpired):
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid or expired refresh token"})
		case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrSessionExpired):
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Session expired"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "Token refresh failed"})
		}
		return
	}

	event := domain.NewAuditEvent(domain.TokenRefreshEvent, userIDOf(result.User)).WithSession(result.SessionID)
	_ = h.audit.LogEvent(c.Request.Context(), event)

	c.JSON(http.StatusOK, gin.H{
		"access":  result.AccessToken,
		"refresh": result.RefreshToken,
	})
}

// Logout handles user logout (requires authentication)
func (h *AuthHandlers) Logout(c *gin.Context) {
	claims, ok := claimsFrom(c)
	if !ok || claims.SessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Session ID not found"})
		return
	}

	if err := h.accountSvc.Logout(c.Request.Context(), claims.SessionID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Logout failed"})
		return
	}

	event := domain.NewAuditEvent(domain.UserLogoutEvent, claims.UserID).WithSession(claims.SessionID)
	_ = h.audit.LogEvent(c.Request.Context(), event)

	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func userIDOf(user *domain.User) uint {
	if user == nil {
		return 0
	}
	return user.ID
}

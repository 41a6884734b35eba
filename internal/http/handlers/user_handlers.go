package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/storefront/domain"
	"github.com/you/storefront/internal/http/middleware"
)

// UserHandlers handles account creation and profile endpoints
type UserHandlers struct {
	accountSvc domain.AccountService
	audit      domain.AuditLogger
}

// NewUserHandlers creates new user handlers
func NewUserHandlers(accountSvc domain.AccountService, audit domain.AuditLogger) *UserHandlers {
	return &UserHandlers{
		accountSvc: accountSvc,
		audit:      audit,
	}
}

// CreateUserRequest is the onboarding payload. The verified identifier
// comes from the caller's token, not from the body.
type CreateUserRequest struct {
	FirstName   string `json:"first_name" binding:"required"`
	LastName    string `json:"last_name" binding:"required"`
	DateOfBirth string `json:"date_of_birth" binding:"required"`
	Email       string `json:"email"`
	Phone       string `json:"phone_number"`
	Password    string `json:"password" binding:"required,min=8"`
}

// Create handles onboarding: it turns a verified-OTP grant into an
// account.
func (h *UserHandlers) Create(c *gin.Context) {
	claims, ok := claimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Authentication required"})
		return
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"non_field_errors": []string{err.Error()}})
		return
	}

	profile := &domain.Profile{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DateOfBirth: req.DateOfBirth,
		Email:       req.Email,
		PhoneNumber: req.Phone,
		Password:    req.Password,
	}

	user, err := h.accountSvc.CreateUser(c.Request.Context(), claims, profile)
	if err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			field := "email"
			if domain.Method(claims.Method) == domain.MethodPhone {
				field = "phone_number"
			}
			c.JSON(http.StatusBadRequest, gin.H{
				"field_errors": gin.H{field: []string{"An account with this identifier already exists."}},
			})
			return
		}
		if errors.Is(err, domain.ErrTokenInvalid) {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid token"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to create user"})
		return
	}

	event := domain.NewAuditEvent(domain.UserOnboardedEvent, user.ID).
		WithIdentifier(domain.Method(claims.Method), claims.Identifier).
		WithSession(claims.SessionID)
	_ = h.audit.LogEvent(c.Request.Context(), event)

	c.JSON(http.StatusCreated, user)
}

// Me returns the authenticated user's profile.
func (h *UserHandlers) Me(c *gin.Context) {
	claims, ok := claimsFrom(c)
	if !ok || claims.UserID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Authentication required"})
		return
	}

	user, err := h.accountSvc.GetUser(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to get user profile"})
		return
	}

	c.JSON(http.StatusOK, user)
}

func claimsFrom(c *gin.Context) (*domain.TokenClaims, bool) {
	return middleware.ClaimsFrom(c)
}

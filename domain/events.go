package domain

import (
	"context"
	"time"
)

// AuditEventType defines the type of audit event
type AuditEventType string

const (
	// OTP events
	OTPRequestEvent       AuditEventType = "OTP_REQUESTED"
	OTPVerifyEvent        AuditEventType = "OTP_VERIFIED"
	OTPVerifyFailureEvent AuditEventType = "OTP_VERIFICATION_FAILED"

	// Account events
	UserOnboardedEvent  AuditEventType = "USER_ONBOARDED"
	TokenRefreshEvent   AuditEventType = "TOKEN_REFRESHED"
	UserLogoutEvent     AuditEventType = "USER_LOGOUT"
	AccessDeniedEvent   AuditEventType = "ACCESS_DENIED"
	SessionExpiredEvent AuditEventType = "SESSION_EXPIRED"
)

// AuditEvent represents a business event that occurred in the system
type AuditEvent struct {
	EventType  AuditEventType `json:"event_type"`
	UserID     uint           `json:"user_id"`
	Method     Method         `json:"method,omitempty"`
	Identifier string         `json:"identifier,omitempty"`
	SessionID  string         `json:"session_id,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	ErrorMsg   string         `json:"error_msg,omitempty"`
	Success    bool           `json:"success"`
}

// AuditLogger defines operations for audit logging
type AuditLogger interface {
	LogEvent(ctx context.Context, event *AuditEvent) error
}

// NewAuditEvent creates a new audit event with common fields populated
func NewAuditEvent(eventType AuditEventType, userID uint) *AuditEvent {
	return &AuditEvent{
		EventType: eventType,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
		Success:   true,
	}
}

// WithError sets error information on the audit event
func (e *AuditEvent) WithError(err error) *AuditEvent {
	e.Success = false
	if err != nil {
		e.ErrorMsg = err.Error()
	}
	return e
}

// WithIdentifier sets the method and identifier that initiated the event
func (e *AuditEvent) WithIdentifier(method Method, identifier string) *AuditEvent {
	e.Method = method
	e.Identifier = identifier
	return e
}

// WithSession sets the session field
func (e *AuditEvent) WithSession(sessionID string) *AuditEvent {
	e.SessionID = sessionID
	return e
}

package mocks

import (
	"sync"

	"github.com/you/storefront/domain"
)

// SentMessage records one delivery made through the mock.
type SentMessage struct {
	To      string
	Subject string
	Body    string
}

// MockNotificationService implements domain.NotificationService for
// testing. Default behavior records every message so tests can assert
// on delivery without a provider.
type MockNotificationService struct {
	SendSMSFunc   func(to, message string) error
	SendEmailFunc func(to, subject, body string) error

	mu     sync.Mutex
	sms    []SentMessage
	emails []SentMessage
}

// NewMockNotificationService creates a new MockNotificationService with default behaviors
func NewMockNotificationService() *MockNotificationService {
	return &MockNotificationService{}
}

func (m *MockNotificationService) SendSMS(to, message string) error {
	if m.SendSMSFunc != nil {
		return m.SendSMSFunc(to, message)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sms = append(m.sms, SentMessage{To: to, Body: message})
	return nil
}

func (m *MockNotificationService) SendEmail(to, subject, body string) error {
	if m.SendEmailFunc != nil {
		return m.SendEmailFunc(to, subject, body)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emails = append(m.emails, SentMessage{To: to, Subject: subject, Body: body})
	return nil
}

// SentSMS returns all SMS messages recorded by the default behavior.
func (m *MockNotificationService) SentSMS() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMessage(nil), m.sms...)
}

// SentEmails returns all emails recorded by the default behavior.
func (m *MockNotificationService) SentEmails() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMessage(nil), m.emails...)
}

// Compile-time interface compliance verification
var _ domain.NotificationService = (*MockNotificationService)(nil)

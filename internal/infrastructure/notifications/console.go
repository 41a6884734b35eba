package notifications

import (
	"go.uber.org/zap"

	"github.com/you/storefront/domain"
)

// ConsoleService implements domain.NotificationService by logging the
// message instead of delivering it. This is the dev-mode notifier: the
// OTP shows up in the stub server's log so the flow can be exercised
// without Twilio credentials.
type ConsoleService struct {
	log *zap.Logger
}

// NewConsoleService creates a logging notification service
func NewConsoleService(log *zap.Logger) domain.NotificationService {
	return &ConsoleService{log: log.Named("notify")}
}

// SendSMS implements domain.NotificationService
func (c *ConsoleService) SendSMS(to, message string) error {
	c.log.Info("sms", zap.String("to", to), zap.String("message", message))
	return nil
}

// SendEmail implements domain.NotificationService
func (c *ConsoleService) SendEmail(to, subject, body string) error {
	c.log.Info("email", zap.String("to", to), zap.String("subject", subject), zap.String("body", body))
	return nil
}

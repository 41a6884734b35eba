package logger

import (
	"context"

	"go.uber.org/zap"

	"github.com/you/storefront/domain"
)

// ZapAuditLogger implements domain.AuditLogger on top of a zap logger.
type ZapAuditLogger struct {
	log *zap.Logger
}

// NewAuditLogger creates an audit logger writing structured events.
func NewAuditLogger(log *zap.Logger) *ZapAuditLogger {
	return &ZapAuditLogger{log: log.Named("audit")}
}

// LogEvent implements domain.AuditLogger
func (a *ZapAuditLogger) LogEvent(ctx context.Context, event *domain.AuditEvent) error {
	fields := []zap.Field{
		zap.String("event_type", string(event.EventType)),
		zap.Uint("user_id", event.UserID),
		zap.Bool("success", event.Success),
		zap.Time("timestamp", event.Timestamp),
	}
	if event.Identifier != "" {
		fields = append(fields,
			zap.String("method", string(event.Method)),
			zap.String("identifier", event.Identifier))
	}
	if event.SessionID != "" {
		fields = append(fields, zap.String("session_id", event.SessionID))
	}
	if event.ErrorMsg != "" {
		fields = append(fields, zap.String("error", event.ErrorMsg))
	}

	if event.Success {
		a.log.Info(string(event.EventType), fields...)
	} else {
		a.log.Warn(string(event.EventType), fields...)
	}
	return nil
}

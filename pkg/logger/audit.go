package logger

import (
	"context"
	"log/slog"
	"time"
)

// AuditEvent represents one authentication attempt for the structured log sink
type AuditEvent struct {
	Action      string
	Outcome     string
	Email       string
	ClientKey   string
	ClientAgent string
	Detail      string
}

// AuditLogger emits audit events to the structured log. It is one half of the
// dual-write audit path; the database half lives in the audit service.
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{logger: logger}
}

// LogAuthAttempt logs one issuance or verification attempt
func (al *AuditLogger) LogAuthAttempt(event AuditEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "admin_auth"),
		slog.String("action", event.Action),
		slog.String("outcome", event.Outcome),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if event.Email != "" {
		attrs = append(attrs, slog.String("email", SanitizedEmail(event.Email)))
	}
	if event.ClientKey != "" {
		attrs = append(attrs, slog.String("client_key", event.ClientKey))
	}
	if event.ClientAgent != "" {
		attrs = append(attrs, slog.String("client_agent", event.ClientAgent))
	}
	if event.Detail != "" {
		attrs = append(attrs, slog.String("detail", event.Detail))
	}

	level := slog.LevelInfo
	if event.Outcome != "success" {
		level = slog.LevelWarn
	}

	al.logger.LogAttrs(context.Background(), level, "audit", attrs...)
}

package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/gauravkhatriweb/nextsubscription-productio-version-sub002/internal/models"
	pkglogger "github.com/gauravkhatriweb/nextsubscription-productio-version-sub002/pkg/logger"
)

// AuditLogRepository defines the interface for persisting audit entries
type AuditLogRepository interface {
	Create(ctx context.Context, entry *models.AuditEntry) error
}

// AuditService handles audit logging with dual-write pattern (slog + database).
// The database write is detached from the request context so audit persistence
// can never block or fail an authentication path.
type AuditService struct {
	repo        AuditLogRepository
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewAuditService creates a new AuditService
func NewAuditService(repo AuditLogRepository, logger *slog.Logger) *AuditService {
	return &AuditService{
		repo:        repo,
		logger:      logger,
		auditLogger: pkglogger.NewAuditLogger(logger),
	}
}

// Record writes the entry to the structured log and persists it asynchronously
func (s *AuditService) Record(ctx context.Context, entry *models.AuditEntry) {
	event := pkglogger.AuditEvent{
		Action:      entry.Action,
		Outcome:     entry.Outcome,
		ClientKey:   entry.ClientKey,
		ClientAgent: entry.ClientAgent,
	}
	if entry.Email != nil {
		event.Email = *entry.Email
	}
	if entry.Detail != nil {
		event.Detail = *entry.Detail
	}
	s.auditLogger.LogAuthAttempt(event)

	// Detach from the request context so cancellation doesn't lose the record
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	go func() {
		defer cancel()
		if err := s.repo.Create(persistCtx, entry); err != nil {
			s.logger.Error("failed to persist audit entry",
				slog.String("action", entry.Action),
				slog.String("outcome", entry.Outcome),
				slog.Any("error", err))
		}
	}()
}

package repositories

import (
	"context"
	"fmt"

	"github.com/gauravkhatriweb/nextsubscription-productio-version-sub002/internal/database"
	"github.com/gauravkhatriweb/nextsubscription-productio-version-sub002/internal/models"
)

// AuditLogRepository persists audit entries. The table is append-only; this
// subsystem never updates or deletes rows, and review tooling reads them out
// of band.
type AuditLogRepository struct {
	db *database.DB
}

// NewAuditLogRepository creates a new AuditLogRepository
func NewAuditLogRepository(db *database.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// Create appends one audit entry
func (r *AuditLogRepository) Create(ctx context.Context, entry *models.AuditEntry) error {
	query := `
		INSERT INTO audit_logs (action, outcome, email, client_key, client_agent, detail)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		entry.Action,
		entry.Outcome,
		entry.Email,
		entry.ClientKey,
		entry.ClientAgent,
		entry.Detail,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	return nil
}

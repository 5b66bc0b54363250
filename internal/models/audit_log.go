package models

import (
	"time"

	"github.com/google/uuid"
)

// Audit actions
const (
	AuditActionRequestCode = "request_code"
	AuditActionVerifyCode  = "verify_code"
	AuditActionSendCode    = "send_code"
)

// Audit outcomes
const (
	AuditOutcomeSuccess     = "success"
	AuditOutcomeFailure     = "failure"
	AuditOutcomeRateLimited = "rate_limited"
)

// AuditEntry is an immutable, append-only record of one authentication
// attempt. Detail holds non-sensitive context only (e.g. a masked code tail).
type AuditEntry struct {
	ID          uuid.UUID `db:"id"`
	Action      string    `db:"action"`
	Outcome     string    `db:"outcome"`
	Email       *string   `db:"email"`
	ClientKey   string    `db:"client_key"`
	ClientAgent string    `db:"client_agent"`
	Detail      *string   `db:"detail"`
	CreatedAt   time.Time `db:"created_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// LoginCode represents one outstanding one-time-code challenge for the
// administrator. The plaintext code is never persisted, only its bcrypt digest.
type LoginCode struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	CodeDigest   string    `json:"-"` // Never expose the digest
	IssuedAt     time.Time `json:"issued_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	AttemptsUsed int       `json:"attempts_used"`
	MaxAttempts  int       `json:"max_attempts"`
	Consumed     bool      `json:"consumed"`
}

// IsExpired checks if the code has passed its expiry time
func (c *LoginCode) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}

// AttemptsRemaining returns how many failed verifications the code can still absorb
func (c *LoginCode) AttemptsRemaining() int {
	remaining := c.MaxAttempts - c.AttemptsUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsLive checks whether the code can still succeed a verification:
// not consumed, not expired, and under the attempt budget
func (c *LoginCode) IsLive() bool {
	return !c.Consumed && !c.IsExpired() && c.AttemptsUsed < c.MaxAttempts
}

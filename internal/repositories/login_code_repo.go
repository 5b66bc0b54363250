package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gauravkhatriweb/nextsubscription-productio-version-sub002/internal/database"
	"github.com/gauravkhatriweb/nextsubscription-productio-version-sub002/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// LoginCodeRepository handles login code data access. All mutating operations
// are single statements or single transactions so that concurrent verify and
// issue calls cannot interleave between a read and a write.
type LoginCodeRepository struct {
	db *database.DB
}

// NewLoginCodeRepository creates a new LoginCodeRepository
func NewLoginCodeRepository(db *database.DB) *LoginCodeRepository {
	return &LoginCodeRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLoginCodeRow(row rowScanner) (*models.LoginCode, error) {
	var code models.LoginCode

	err := row.Scan(
		&code.ID, &code.Email, &code.CodeDigest,
		&code.IssuedAt, &code.ExpiresAt,
		&code.AttemptsUsed, &code.MaxAttempts, &code.Consumed,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &code, nil
}

// Issue invalidates any existing live code for the email and persists a new
// record, in one transaction. A partial unique index on (email) WHERE NOT
// consumed guarantees at most one live row even when two issuance calls race;
// the loser of the race retries once against the fresh state.
func (r *LoginCodeRepository) Issue(ctx context.Context, email, codeDigest string, ttl time.Duration, maxAttempts int) (*models.LoginCode, error) {
	var code *models.LoginCode
	expiresAt := time.Now().Add(ttl)

	issue := func() error {
		return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
			_, err := tx.Exec(ctx,
				`UPDATE login_codes SET consumed = TRUE WHERE email = $1 AND consumed = FALSE`,
				email,
			)
			if err != nil {
				return database.MapPostgresError(err)
			}

			row := tx.QueryRow(ctx, `
				INSERT INTO login_codes (email, code_digest, expires_at, max_attempts)
				VALUES ($1, $2, $3, $4)
				RETURNING id, email, code_digest, issued_at, expires_at, attempts_used, max_attempts, consumed
			`, email, codeDigest, expiresAt, maxAttempts)

			code, err = scanLoginCodeRow(row)
			return err
		})
	}

	err := issue()
	if errors.Is(err, models.ErrConflict) {
		// Lost an issuance race; the winner's row is now committed and our
		// UPDATE will see it on retry.
		err = issue()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to issue login code: %w", err)
	}

	return code, nil
}

// GetLive returns the current unconsumed, unexpired code for the email.
// Expiry is enforced here at read time; expired rows are never swept, they
// simply stop being visible.
func (r *LoginCodeRepository) GetLive(ctx context.Context, email string) (*models.LoginCode, error) {
	query := `
		SELECT id, email, code_digest, issued_at, expires_at, attempts_used, max_attempts, consumed
		FROM login_codes
		WHERE email = $1 AND consumed = FALSE AND expires_at > NOW()
	`

	code, err := scanLoginCodeRow(r.db.Pool.QueryRow(ctx, query, email))
	if err != nil {
		return nil, err
	}

	return code, nil
}

// RecordFailedAttempt atomically increments the attempt counter and, in the
// same statement, marks the record consumed when the budget is reached. There
// is no window between the increment and the invalidation for a concurrent
// verify to sneak through.
func (r *LoginCodeRepository) RecordFailedAttempt(ctx context.Context, id uuid.UUID) (attemptsUsed int, consumed bool, err error) {
	query := `
		UPDATE login_codes
		SET attempts_used = attempts_used + 1,
		    consumed = (consumed OR attempts_used + 1 >= max_attempts)
		WHERE id = $1
		RETURNING attempts_used, consumed
	`

	err = r.db.Pool.QueryRow(ctx, query, id).Scan(&attemptsUsed, &consumed)
	if err != nil {
		return 0, false, database.MapPostgresError(err)
	}

	return attemptsUsed, consumed, nil
}

// Consume sets consumed = TRUE only if it was previously FALSE and reports
// whether this call performed the transition. Compare-and-swap semantics: of
// two racing verify calls, exactly one observes true.
func (r *LoginCodeRepository) Consume(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `UPDATE login_codes SET consumed = TRUE WHERE id = $1 AND consumed = FALSE`

	result, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return false, database.MapPostgresError(err)
	}

	return result.RowsAffected() == 1, nil
}

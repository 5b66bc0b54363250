package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gauravkhatriweb/nextsubscription-productio-version-sub002/internal/auth"
	"github.com/gauravkhatriweb/nextsubscription-productio-version-sub002/internal/models"
	pkgauth "github.com/gauravkhatriweb/nextsubscription-productio-version-sub002/pkg/auth"
)

// LoginCodeStore defines the interface for login code persistence
type LoginCodeStore interface {
	Issue(ctx context.Context, email, codeDigest string, ttl time.Duration, maxAttempts int) (*models.LoginCode, error)
	GetLive(ctx context.Context, email string) (*models.LoginCode, error)
	RecordFailedAttempt(ctx context.Context, id uuid.UUID) (attemptsUsed int, consumed bool, err error)
	Consume(ctx context.Context, id uuid.UUID) (bool, error)
}

// RateLimiter defines the interface for per-client attempt budgets
type RateLimiter interface {
	Check(ctx context.Context, clientKey string, action Action) (Decision, error)
}

// TokenIssuer defines the interface for minting session tokens
type TokenIssuer interface {
	IssueSession(email, role string) (string, error)
}

// AuditRecorder defines the interface for recording authentication attempts
type AuditRecorder interface {
	Record(ctx context.Context, entry *models.AuditEntry)
}

// CodePolicy holds the issuance parameters for login codes
type CodePolicy struct {
	TTL         time.Duration
	MinLength   int
	MaxLength   int
	MaxAttempts int
}

// AdminAuthService implements the passwordless login flow for the single
// configured admin. Request issues a one-time code and emails it; Verify
// consumes the code and mints a session token.
type AdminAuthService struct {
	adminEmail string
	policy     CodePolicy
	repo       LoginCodeStore
	limiter    RateLimiter
	email      EmailService
	tokens     TokenIssuer
	audit      AuditRecorder
	timing     *auth.TimingDelay
	logger     *slog.Logger
}

// NewAdminAuthService creates a new AdminAuthService
func NewAdminAuthService(adminEmail string, policy CodePolicy, repo LoginCodeStore, limiter RateLimiter, email EmailService, tokens TokenIssuer, audit AuditRecorder, timing *auth.TimingDelay, logger *slog.Logger) *AdminAuthService {
	return &AdminAuthService{
		adminEmail: strings.ToLower(strings.TrimSpace(adminEmail)),
		policy:     policy,
		repo:       repo,
		limiter:    limiter,
		email:      email,
		tokens:     tokens,
		audit:      audit,
		timing:     timing,
		logger:     logger,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AdminAuthService) auditEntry(action, outcome, email, clientKey, clientAgent string, detail string) *models.AuditEntry {
	entry := &models.AuditEntry{
		Action:      action,
		Outcome:     outcome,
		ClientKey:   clientKey,
		ClientAgent: clientAgent,
	}
	if email != "" {
		entry.Email = &email
	}
	if detail != "" {
		entry.Detail = &detail
	}
	return entry
}

// RequestCode issues a fresh one-time code for the admin and dispatches it by
// email. Issuing invalidates any previous live code for the same address.
func (s *AdminAuthService) RequestCode(ctx context.Context, email, clientKey, clientAgent string) error {
	email = normalizeEmail(email)

	if email != s.adminEmail {
		s.audit.Record(ctx, s.auditEntry(models.AuditActionRequestCode, models.AuditOutcomeFailure, email, clientKey, clientAgent, "identity mismatch"))
		s.timing.Wait()
		return models.ErrIdentityMismatch
	}

	decision, err := s.limiter.Check(ctx, clientKey, ActionRequestCode)
	if err != nil {
		return models.ErrInternalServer
	}
	if !decision.Allowed {
		s.audit.Record(ctx, s.auditEntry(models.AuditActionRequestCode, models.AuditOutcomeRateLimited, email, clientKey, clientAgent, ""))
		return &models.RateLimitError{RetryAfter: decision.RetryAfter}
	}

	code, err := pkgauth.GenerateLoginCode(s.policy.MinLength, s.policy.MaxLength)
	if err != nil {
		s.logger.Error("failed to generate login code", slog.Any("error", err))
		return models.ErrInternalServer
	}

	digest, err := pkgauth.HashLoginCode(code)
	if err != nil {
		s.logger.Error("failed to hash login code", slog.Any("error", err))
		return models.ErrInternalServer
	}

	record, err := s.repo.Issue(ctx, email, digest, s.policy.TTL, s.policy.MaxAttempts)
	if err != nil {
		s.logger.Error("failed to persist login code", slog.Any("error", err))
		return models.ErrInternalServer
	}

	// Email dispatch is decoupled from issuance: the code record stands even
	// when delivery fails, and delivery failures are audit-logged.
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	go func() {
		defer cancel()
		if sendErr := s.email.SendLoginCode(sendCtx, email, code, record.ExpiresAt); sendErr != nil {
			s.audit.Record(sendCtx, s.auditEntry(models.AuditActionSendCode, models.AuditOutcomeFailure, email, clientKey, clientAgent, sendErr.Error()))
			return
		}
		s.audit.Record(sendCtx, s.auditEntry(models.AuditActionSendCode, models.AuditOutcomeSuccess, email, clientKey, clientAgent, ""))
	}()

	detail := fmt.Sprintf("code %s expires at %s", pkgauth.MaskCode(code), record.ExpiresAt.UTC().Format(time.RFC3339))
	s.audit.Record(ctx, s.auditEntry(models.AuditActionRequestCode, models.AuditOutcomeSuccess, email, clientKey, clientAgent, detail))

	return nil
}

// VerifyCode checks the submitted code against the live record and mints a
// session token on success. Wrong codes burn attempts; a used, expired, or
// exhausted code reads the same to the caller as a code that never existed.
func (s *AdminAuthService) VerifyCode(ctx context.Context, email, code, clientKey, clientAgent string) (string, error) {
	email = normalizeEmail(email)

	if email != s.adminEmail {
		s.audit.Record(ctx, s.auditEntry(models.AuditActionVerifyCode, models.AuditOutcomeFailure, email, clientKey, clientAgent, "identity mismatch"))
		s.timing.Wait()
		return "", models.ErrIdentityMismatch
	}

	decision, err := s.limiter.Check(ctx, clientKey, ActionVerifyCode)
	if err != nil {
		return "", models.ErrInternalServer
	}
	if !decision.Allowed {
		s.audit.Record(ctx, s.auditEntry(models.AuditActionVerifyCode, models.AuditOutcomeRateLimited, email, clientKey, clientAgent, ""))
		return "", &models.RateLimitError{RetryAfter: decision.RetryAfter}
	}

	record, err := s.repo.GetLive(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.audit.Record(ctx, s.auditEntry(models.AuditActionVerifyCode, models.AuditOutcomeFailure, email, clientKey, clientAgent, "no live code"))
			s.timing.Wait()
			return "", models.ErrInvalidOrExpiredCode
		}
		s.logger.Error("failed to load login code", slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	if err := pkgauth.CompareLoginCode(record.CodeDigest, code); err != nil {
		attemptsUsed, consumed, attemptErr := s.repo.RecordFailedAttempt(ctx, record.ID)
		if attemptErr != nil {
			s.logger.Error("failed to record failed attempt", slog.Any("error", attemptErr))
			return "", models.ErrInternalServer
		}

		detail := fmt.Sprintf("wrong code, attempt %d of %d", attemptsUsed, record.MaxAttempts)
		s.audit.Record(ctx, s.auditEntry(models.AuditActionVerifyCode, models.AuditOutcomeFailure, email, clientKey, clientAgent, detail))
		s.timing.Wait()

		if consumed {
			return "", models.ErrAttemptsExhausted
		}
		return "", models.ErrInvalidOrExpiredCode
	}

	ok, err := s.repo.Consume(ctx, record.ID)
	if err != nil {
		s.logger.Error("failed to consume login code", slog.Any("error", err))
		return "", models.ErrInternalServer
	}
	if !ok {
		// Lost the race to a concurrent verify; the code is already spent
		s.audit.Record(ctx, s.auditEntry(models.AuditActionVerifyCode, models.AuditOutcomeFailure, email, clientKey, clientAgent, "code already consumed"))
		s.timing.Wait()
		return "", models.ErrInvalidOrExpiredCode
	}

	token, err := s.tokens.IssueSession(email, models.AdminRole)
	if err != nil {
		s.logger.Error("failed to issue session token", slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	s.audit.Record(ctx, s.auditEntry(models.AuditActionVerifyCode, models.AuditOutcomeSuccess, email, clientKey, clientAgent, ""))

	return token, nil
}

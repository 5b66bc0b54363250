package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gauravkhatriweb/nextsubscription-productio-version-sub002/internal/auth"
	"github.com/gauravkhatriweb/nextsubscription-productio-version-sub002/internal/models"
)

const testAdminEmail = "admin@example.com"

func newTestAuthService(store LoginCodeStore, limiter RateLimiter, email EmailService) (*AdminAuthService, *MockAuditRecorder) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	audit := &MockAuditRecorder{}
	if limiter == nil {
		limiter = &MockRateLimiter{}
	}
	if email == nil {
		email = &MockEmailService{}
	}
	svc := NewAdminAuthService(testAdminEmail, CodePolicy{
		TTL:         10 * time.Minute,
		MinLength:   20,
		MaxLength:   30,
		MaxAttempts: 5,
	}, store, limiter, email, &MockTokenIssuer{}, audit, auth.NewTimingDelay(auth.TimingConfig{}), logger)
	return svc, audit
}

// requestAndCapture runs RequestCode and waits for the async email dispatch,
// returning the plaintext code that was mailed
func requestAndCapture(t *testing.T, svc *AdminAuthService, emailCh chan string) string {
	t.Helper()
	err := svc.RequestCode(context.Background(), testAdminEmail, "203.0.113.10", "cli-test")
	require.NoError(t, err)

	select {
	case code := <-emailCh:
		return code
	case <-time.After(5 * time.Second):
		t.Fatal("login code email was never dispatched")
		return ""
	}
}

func captureEmailService(emailCh chan string) *MockEmailService {
	return &MockEmailService{
		SendLoginCodeFunc: func(ctx context.Context, email, code string, expiresAt time.Time) error {
			emailCh <- code
			return nil
		},
	}
}

func TestAdminAuthService_RequestCode_Success(t *testing.T) {
	store := newFakeLoginCodeStore()
	emailCh := make(chan string, 1)
	svc, audit := newTestAuthService(store, nil, captureEmailService(emailCh))

	code := requestAndCapture(t, svc, emailCh)

	assert.GreaterOrEqual(t, len(code), 20)
	assert.LessOrEqual(t, len(code), 30)

	record, err := store.GetLive(context.Background(), testAdminEmail)
	require.NoError(t, err)
	assert.Equal(t, testAdminEmail, record.Email)
	assert.Equal(t, 5, record.MaxAttempts)

	entries := audit.ByAction(models.AuditActionRequestCode)
	require.Len(t, entries, 1)
	assert.Equal(t, models.AuditOutcomeSuccess, entries[0].Outcome)
	require.NotNil(t, entries[0].Detail)
	assert.NotContains(t, *entries[0].Detail, code, "audit detail must not carry the full code")
}

func TestAdminAuthService_RequestCode_IdentityMismatch(t *testing.T) {
	store := &MockLoginCodeStore{
		IssueFunc: func(ctx context.Context, email, codeDigest string, ttl time.Duration, maxAttempts int) (*models.LoginCode, error) {
			t.Fatal("no code should be issued for a non-admin address")
			return nil, nil
		},
	}
	svc, audit := newTestAuthService(store, nil, nil)

	err := svc.RequestCode(context.Background(), "intruder@example.com", "203.0.113.10", "cli-test")
	assert.ErrorIs(t, err, models.ErrIdentityMismatch)

	entries := audit.ByAction(models.AuditActionRequestCode)
	require.Len(t, entries, 1)
	assert.Equal(t, models.AuditOutcomeFailure, entries[0].Outcome)
}

func TestAdminAuthService_RequestCode_RateLimited(t *testing.T) {
	limiter := &MockRateLimiter{
		CheckFunc: func(ctx context.Context, clientKey string, action Action) (Decision, error) {
			return Decision{Allowed: false, RetryAfter: 7 * time.Minute}, nil
		},
	}
	svc, audit := newTestAuthService(newFakeLoginCodeStore(), limiter, nil)

	err := svc.RequestCode(context.Background(), testAdminEmail, "203.0.113.10", "cli-test")
	assert.ErrorIs(t, err, models.ErrRateLimited)

	var rle *models.RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.Equal(t, 7*time.Minute, rle.RetryAfter)

	entries := audit.ByAction(models.AuditActionRequestCode)
	require.Len(t, entries, 1)
	assert.Equal(t, models.AuditOutcomeRateLimited, entries[0].Outcome)
}

func TestAdminAuthService_RequestCode_EmailFailureKeepsRecord(t *testing.T) {
	store := newFakeLoginCodeStore()
	sent := make(chan struct{})
	email := &MockEmailService{
		SendLoginCodeFunc: func(ctx context.Context, email, code string, expiresAt time.Time) error {
			defer close(sent)
			return errors.New("ses unavailable")
		},
	}
	svc, audit := newTestAuthService(store, nil, email)

	err := svc.RequestCode(context.Background(), testAdminEmail, "203.0.113.10", "cli-test")
	require.NoError(t, err, "issuance succeeds even when delivery fails")

	select {
	case <-sent:
	case <-time.After(5 * time.Second):
		t.Fatal("email dispatch never attempted")
	}

	_, err = store.GetLive(context.Background(), testAdminEmail)
	assert.NoError(t, err, "the code record survives a delivery failure")

	require.Eventually(t, func() bool {
		return len(audit.ByAction(models.AuditActionSendCode)) == 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, models.AuditOutcomeFailure, audit.ByAction(models.AuditActionSendCode)[0].Outcome)
}

func TestAdminAuthService_VerifyCode_SuccessThenReplayFails(t *testing.T) {
	store := newFakeLoginCodeStore()
	emailCh := make(chan string, 1)
	svc, audit := newTestAuthService(store, nil, captureEmailService(emailCh))

	code := requestAndCapture(t, svc, emailCh)

	token, err := svc.VerifyCode(context.Background(), testAdminEmail, code, "203.0.113.10", "cli-test")
	require.NoError(t, err)
	assert.Equal(t, "mock-session-token", token)

	// The code is single-use: replaying it reads as if it never existed
	_, err = svc.VerifyCode(context.Background(), testAdminEmail, code, "203.0.113.10", "cli-test")
	assert.ErrorIs(t, err, models.ErrInvalidOrExpiredCode)

	entries := audit.ByAction(models.AuditActionVerifyCode)
	require.Len(t, entries, 2)
	assert.Equal(t, models.AuditOutcomeSuccess, entries[0].Outcome)
	assert.Equal(t, models.AuditOutcomeFailure, entries[1].Outcome)
}

func TestAdminAuthService_VerifyCode_WrongCodeExhaustsAttempts(t *testing.T) {
	store := newFakeLoginCodeStore()
	emailCh := make(chan string, 1)
	svc, _ := newTestAuthService(store, nil, captureEmailService(emailCh))

	code := requestAndCapture(t, svc, emailCh)

	for i := 1; i <= 5; i++ {
		_, err := svc.VerifyCode(context.Background(), testAdminEmail, "WrongCode-123456789!wrong", "203.0.113.10", "cli-test")
		if i < 5 {
			assert.ErrorIs(t, err, models.ErrInvalidOrExpiredCode, "attempt %d", i)
		} else {
			assert.ErrorIs(t, err, models.ErrAttemptsExhausted, "attempt %d burns the budget", i)
		}
	}

	// Exhaustion consumed the code, so even the right code is refused now
	_, err := svc.VerifyCode(context.Background(), testAdminEmail, code, "203.0.113.10", "cli-test")
	assert.ErrorIs(t, err, models.ErrInvalidOrExpiredCode)
}

func TestAdminAuthService_VerifyCode_ExpiredCode(t *testing.T) {
	store := newFakeLoginCodeStore()
	ctx := context.Background()
	_, err := store.Issue(ctx, testAdminEmail, mustHash("Expired-Code-123456!Abcd"), -time.Minute, 5)
	require.NoError(t, err)

	svc, _ := newTestAuthService(store, nil, nil)

	_, err = svc.VerifyCode(ctx, testAdminEmail, "Expired-Code-123456!Abcd", "203.0.113.10", "cli-test")
	assert.ErrorIs(t, err, models.ErrInvalidOrExpiredCode)
}

func TestAdminAuthService_VerifyCode_NewCodeInvalidatesOld(t *testing.T) {
	store := newFakeLoginCodeStore()
	emailCh := make(chan string, 2)
	svc, _ := newTestAuthService(store, nil, captureEmailService(emailCh))

	oldCode := requestAndCapture(t, svc, emailCh)
	newCode := requestAndCapture(t, svc, emailCh)

	_, err := svc.VerifyCode(context.Background(), testAdminEmail, oldCode, "203.0.113.10", "cli-test")
	assert.ErrorIs(t, err, models.ErrInvalidOrExpiredCode, "issuing a new code retires the old one")

	token, err := svc.VerifyCode(context.Background(), testAdminEmail, newCode, "203.0.113.10", "cli-test")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestAdminAuthService_VerifyCode_IdentityMismatch(t *testing.T) {
	store := newFakeLoginCodeStore()
	emailCh := make(chan string, 1)
	svc, _ := newTestAuthService(store, nil, captureEmailService(emailCh))

	code := requestAndCapture(t, svc, emailCh)

	_, err := svc.VerifyCode(context.Background(), "intruder@example.com", code, "203.0.113.10", "cli-test")
	assert.ErrorIs(t, err, models.ErrIdentityMismatch)

	// The admin's live code is untouched by the mismatch
	record, err := store.GetLive(context.Background(), testAdminEmail)
	require.NoError(t, err)
	assert.Zero(t, record.AttemptsUsed)
}

func TestAdminAuthService_VerifyCode_ConcurrentExactlyOneSucceeds(t *testing.T) {
	store := newFakeLoginCodeStore()
	emailCh := make(chan string, 1)
	svc, _ := newTestAuthService(store, nil, captureEmailService(emailCh))

	code := requestAndCapture(t, svc, emailCh)

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.VerifyCode(context.Background(), testAdminEmail, code, "203.0.113.10", "cli-test")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, models.ErrInvalidOrExpiredCode)
		}
	}
	assert.Equal(t, 1, successes, "a code grants exactly one session")
}

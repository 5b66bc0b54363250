package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gauravkhatriweb/nextsubscription-productio-version-sub002/internal/models"
	pkgauth "github.com/gauravkhatriweb/nextsubscription-productio-version-sub002/pkg/auth"
)

// MockLoginCodeStore implements LoginCodeStore for testing
type MockLoginCodeStore struct {
	IssueFunc               func(ctx context.Context, email, codeDigest string, ttl time.Duration, maxAttempts int) (*models.LoginCode, error)
	GetLiveFunc             func(ctx context.Context, email string) (*models.LoginCode, error)
	RecordFailedAttemptFunc func(ctx context.Context, id uuid.UUID) (int, bool, error)
	ConsumeFunc             func(ctx context.Context, id uuid.UUID) (bool, error)
}

func (m *MockLoginCodeStore) Issue(ctx context.Context, email, codeDigest string, ttl time.Duration, maxAttempts int) (*models.LoginCode, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(ctx, email, codeDigest, ttl, maxAttempts)
	}
	return nil, models.ErrInternalServer
}

func (m *MockLoginCodeStore) GetLive(ctx context.Context, email string) (*models.LoginCode, error) {
	if m.GetLiveFunc != nil {
		return m.GetLiveFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockLoginCodeStore) RecordFailedAttempt(ctx context.Context, id uuid.UUID) (int, bool, error) {
	if m.RecordFailedAttemptFunc != nil {
		return m.RecordFailedAttemptFunc(ctx, id)
	}
	return 0, false, models.ErrInternalServer
}

func (m *MockLoginCodeStore) Consume(ctx context.Context, id uuid.UUID) (bool, error) {
	if m.ConsumeFunc != nil {
		return m.ConsumeFunc(ctx, id)
	}
	return false, models.ErrInternalServer
}

// MockWindowStore implements WindowStore for testing
type MockWindowStore struct {
	IncrementFunc func(ctx context.Context, key string, window time.Duration) (int, time.Time, error)
}

func (m *MockWindowStore) Increment(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	if m.IncrementFunc != nil {
		return m.IncrementFunc(ctx, key, window)
	}
	return 1, time.Now(), nil
}

// MockRateLimiter implements RateLimiter for testing
type MockRateLimiter struct {
	CheckFunc func(ctx context.Context, clientKey string, action Action) (Decision, error)
}

func (m *MockRateLimiter) Check(ctx context.Context, clientKey string, action Action) (Decision, error) {
	if m.CheckFunc != nil {
		return m.CheckFunc(ctx, clientKey, action)
	}
	return Decision{Allowed: true}, nil
}

// MockEmailService implements EmailService for testing
type MockEmailService struct {
	SendLoginCodeFunc func(ctx context.Context, email, code string, expiresAt time.Time) error
}

func (m *MockEmailService) SendLoginCode(ctx context.Context, email, code string, expiresAt time.Time) error {
	if m.SendLoginCodeFunc != nil {
		return m.SendLoginCodeFunc(ctx, email, code, expiresAt)
	}
	return nil
}

// MockTokenIssuer implements TokenIssuer for testing
type MockTokenIssuer struct {
	IssueSessionFunc func(email, role string) (string, error)
}

func (m *MockTokenIssuer) IssueSession(email, role string) (string, error) {
	if m.IssueSessionFunc != nil {
		return m.IssueSessionFunc(email, role)
	}
	return "mock-session-token", nil
}

// MockAuditRecorder implements AuditRecorder for testing; it captures entries
// so tests can assert on the audit trail
type MockAuditRecorder struct {
	mu      sync.Mutex
	Entries []*models.AuditEntry
}

func (m *MockAuditRecorder) Record(ctx context.Context, entry *models.AuditEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, entry)
}

func (m *MockAuditRecorder) ByAction(action string) []*models.AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.AuditEntry
	for _, e := range m.Entries {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

// fakeLoginCodeStore is an in-memory LoginCodeStore with the same atomicity
// guarantees as the database implementation, for exercising races
type fakeLoginCodeStore struct {
	mu    sync.Mutex
	codes map[uuid.UUID]*models.LoginCode
}

func newFakeLoginCodeStore() *fakeLoginCodeStore {
	return &fakeLoginCodeStore{codes: make(map[uuid.UUID]*models.LoginCode)}
}

func (f *fakeLoginCodeStore) Issue(ctx context.Context, email, codeDigest string, ttl time.Duration, maxAttempts int) (*models.LoginCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.codes {
		if c.Email == email && !c.Consumed {
			c.Consumed = true
		}
	}
	code := &models.LoginCode{
		ID:          uuid.New(),
		Email:       email,
		CodeDigest:  codeDigest,
		IssuedAt:    time.Now(),
		ExpiresAt:   time.Now().Add(ttl),
		MaxAttempts: maxAttempts,
	}
	f.codes[code.ID] = code
	return code, nil
}

func (f *fakeLoginCodeStore) GetLive(ctx context.Context, email string) (*models.LoginCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.codes {
		if c.Email == email && !c.Consumed && !c.IsExpired() {
			clone := *c
			return &clone, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeLoginCodeStore) RecordFailedAttempt(ctx context.Context, id uuid.UUID) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.codes[id]
	if !ok {
		return 0, false, models.ErrNotFound
	}
	c.AttemptsUsed++
	if c.AttemptsUsed >= c.MaxAttempts {
		c.Consumed = true
	}
	return c.AttemptsUsed, c.Consumed, nil
}

func (f *fakeLoginCodeStore) Consume(ctx context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.codes[id]
	if !ok || c.Consumed {
		return false, nil
	}
	c.Consumed = true
	return true, nil
}

func mustHash(code string) string {
	digest, err := pkgauth.HashLoginCode(code)
	if err != nil {
		panic(err)
	}
	return digest
}

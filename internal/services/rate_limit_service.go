package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Action identifies a rate-limited operation
type Action string

const (
	ActionRequestCode Action = "request_code"
	ActionVerifyCode  Action = "verify_code"
)

// WindowStore defines the interface for fixed-window counter storage
type WindowStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (count int, windowStart time.Time, err error)
}

// RateLimitConfig holds per-action attempt budgets and the shared window size
type RateLimitConfig struct {
	RequestCodeLimit int
	VerifyCodeLimit  int
	Window           time.Duration
}

// Decision is the outcome of a rate limit check
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// RateLimitService implements fixed-window rate limiting keyed by client and action.
// Counters reset at the window boundary; an attempt at the boundary starts a
// fresh window rather than sliding.
type RateLimitService struct {
	store  WindowStore
	config RateLimitConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewRateLimitService creates a new RateLimitService
func NewRateLimitService(store WindowStore, config RateLimitConfig, logger *slog.Logger) *RateLimitService {
	return &RateLimitService{
		store:  store,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

func (s *RateLimitService) limitFor(action Action) int {
	switch action {
	case ActionRequestCode:
		return s.config.RequestCodeLimit
	case ActionVerifyCode:
		return s.config.VerifyCodeLimit
	default:
		return 0
	}
}

// Check counts the attempt and decides whether it is allowed. Every call
// increments the window counter, including calls that end up denied.
func (s *RateLimitService) Check(ctx context.Context, clientKey string, action Action) (Decision, error) {
	limit := s.limitFor(action)
	if limit <= 0 {
		return Decision{}, fmt.Errorf("no rate limit configured for action %q", action)
	}

	key := fmt.Sprintf("%s:%s", clientKey, action)
	count, windowStart, err := s.store.Increment(ctx, key, s.config.Window)
	if err != nil {
		s.logger.Error("failed to check rate limit",
			slog.String("action", string(action)),
			slog.Any("error", err))
		// Fail open for availability - store errors shouldn't block the admin
		return Decision{Allowed: true}, nil
	}

	if count > limit {
		retryAfter := windowStart.Add(s.config.Window).Sub(s.now())
		if retryAfter < 0 {
			retryAfter = 0
		}
		s.logger.Warn("rate limit exceeded",
			slog.String("action", string(action)),
			slog.String("client_key", clientKey),
			slog.Int("count", count),
			slog.Duration("retry_after", retryAfter))
		return Decision{Allowed: false, RetryAfter: retryAfter}, nil
	}

	return Decision{Allowed: true}, nil
}

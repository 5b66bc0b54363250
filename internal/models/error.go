package models

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Authentication flow errors
	ErrIdentityMismatch     = errors.New("identity is not the authorized administrator")
	ErrInvalidOrExpiredCode = errors.New("invalid or expired code")
	ErrAttemptsExhausted    = errors.New("verification attempts exhausted")
	ErrRateLimited          = errors.New("rate limit exceeded")
	ErrStoreUnavailable     = errors.New("store unavailable")
)

// RateLimitError carries the retry-after hint for a denied request.
// errors.Is(err, ErrRateLimited) matches it so handlers can dispatch
// on the sentinel while still reading the hint.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s", e.RetryAfter)
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

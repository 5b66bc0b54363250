package repositories

import (
	"context"
	"sync"
	"time"
)

type window struct {
	start time.Time
	count int
}

// MemoryWindowStore keeps fixed-window counters in process memory behind a
// mutex. Suitable for a single-instance deployment; use RedisWindowStore when
// counters must be shared across instances.
type MemoryWindowStore struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

// NewMemoryWindowStore creates a new MemoryWindowStore
func NewMemoryWindowStore() *MemoryWindowStore {
	return &MemoryWindowStore{
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Increment counts one request against the key's current window. If no window
// exists or the current one has elapsed, a fresh window starts at count 1.
// The mutex makes the read-check-write atomic: no two concurrent callers can
// both observe the same count.
func (s *MemoryWindowStore) Increment(ctx context.Context, key string, windowDuration time.Duration) (int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	w, ok := s.windows[key]
	if !ok || now.Sub(w.start) >= windowDuration {
		w = &window{start: now, count: 1}
		s.windows[key] = w
		return w.count, w.start, nil
	}

	w.count++
	return w.count, w.start, nil
}

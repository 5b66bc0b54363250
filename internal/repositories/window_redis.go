package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const windowKeyPrefix = "rate_limit:"

// RedisWindowStore keeps fixed-window counters in Redis so that multiple
// service instances share one view of the window. INCR is atomic on the
// server side; the key's TTL doubles as the window boundary.
type RedisWindowStore struct {
	client *redis.Client
}

// NewRedisWindowStore creates a new RedisWindowStore
func NewRedisWindowStore(client *redis.Client) *RedisWindowStore {
	return &RedisWindowStore{client: client}
}

// Increment counts one request against the key's current window. The first
// increment of a window sets the TTL; when the key expires the window has
// elapsed and the next increment starts a fresh one.
func (s *RedisWindowStore) Increment(ctx context.Context, key string, windowDuration time.Duration) (int, time.Time, error) {
	redisKey := windowKeyPrefix + key

	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("failed to increment window counter: %w", err)
	}

	if count == 1 {
		if err := s.client.Expire(ctx, redisKey, windowDuration).Err(); err != nil {
			return 0, time.Time{}, fmt.Errorf("failed to set window expiry: %w", err)
		}
		return int(count), time.Now(), nil
	}

	ttl, err := s.client.TTL(ctx, redisKey).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("failed to read window expiry: %w", err)
	}
	if ttl < 0 {
		// Key survived without a TTL (e.g. a crashed first increment);
		// re-arm it rather than letting the counter live forever.
		if err := s.client.Expire(ctx, redisKey, windowDuration).Err(); err != nil {
			return 0, time.Time{}, fmt.Errorf("failed to re-arm window expiry: %w", err)
		}
		ttl = windowDuration
	}

	windowStart := time.Now().Add(ttl - windowDuration)
	return int(count), windowStart, nil
}

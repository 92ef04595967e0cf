package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window limiter shared by every instance.
// Counters are stored as: INCR ratelimit:{key} with PEXPIRE window on the first hit.
type RateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	clock  func() time.Time
}

func NewRateLimiter(client *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, limit: limit, window: window, clock: time.Now}
}

// Allow counts a hit for key and reports whether it is within the limit,
// together with the end of the current window.
func (l *RateLimiter) Allow(ctx context.Context, key string) (bool, time.Time, error) {
	k := "ratelimit:" + key

	n, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return false, time.Time{}, err
	}
	if n == 1 {
		if err := l.client.PExpire(ctx, k, l.window).Err(); err != nil {
			return false, time.Time{}, err
		}
	}

	ttl, err := l.client.PTTL(ctx, k).Result()
	if err != nil {
		return false, time.Time{}, err
	}
	if ttl < 0 {
		// counter lost its expiry; start the window now
		if err := l.client.PExpire(ctx, k, l.window).Err(); err != nil {
			return false, time.Time{}, err
		}
		ttl = l.window
	}
	return n <= int64(l.limit), l.clock().Add(ttl), nil
}

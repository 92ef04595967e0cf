package memory

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a fixed-window limiter for a single process.
type RateLimiter struct {
	limit  int
	window time.Duration
	clock  func() time.Time

	mu      sync.Mutex
	windows map[string]window
}

type window struct {
	count   int
	resetAt time.Time
}

func NewRateLimiter(limit int, d time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  d,
		clock:   time.Now,
		windows: make(map[string]window),
	}
}

// Allow counts a hit for key and reports whether it is within the limit,
// together with the end of the current window.
func (l *RateLimiter) Allow(_ context.Context, key string) (bool, time.Time, error) {
	now := l.clock()

	l.mu.Lock()
	defer l.mu.Unlock()
	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = window{resetAt: now.Add(l.window)}
		l.sweep(now)
	}
	w.count++
	l.windows[key] = w
	return w.count <= l.limit, w.resetAt, nil
}

// sweep drops expired windows so idle keys do not accumulate.
func (l *RateLimiter) sweep(now time.Time) {
	for k, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, k)
		}
	}
}

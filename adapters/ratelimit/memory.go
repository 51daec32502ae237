package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/layer-3/simorgh/ports"
)

// MemoryLimiter is a fixed-window limiter for tests and local development.
type MemoryLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	counts  map[string]*windowCounter
}

type windowCounter struct {
	windowStart time.Time
	count       int
}

// NewMemoryLimiter creates an in-process limiter allowing limit requests per
// window.
func NewMemoryLimiter(limit int, window time.Duration) ports.RateLimiter {
	return &MemoryLimiter{
		limit:  limit,
		window: window,
		counts: make(map[string]*windowCounter),
	}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	counter, ok := l.counts[key]
	if !ok || now.Sub(counter.windowStart) >= l.window {
		counter = &windowCounter{windowStart: now}
		l.counts[key] = counter
	}

	counter.count++
	if counter.count > l.limit {
		reset := counter.windowStart.Add(l.window).Sub(now)
		return false, reset, nil
	}
	return true, 0, nil
}

package ratelimit

import (
	"context"
	"sync"
	"time"
)

type counter struct {
	firstAt time.Time
	lastAt  time.Time
	count   int
}

// MemoryLimiter keeps counters in process memory. Suitable for tests and
// single-instance deployments without Redis or Postgres.
type MemoryLimiter struct {
	mu       sync.Mutex
	counters map[string]*counter
	cfg      Config

	// now is swappable so tests can move the clock.
	now func() time.Time
}

// NewMemoryLimiter creates an in-memory sliding-window limiter.
func NewMemoryLimiter(cfg Config) *MemoryLimiter {
	return &MemoryLimiter{
		counters: make(map[string]*counter),
		cfg:      cfg,
		now:      time.Now,
	}
}

// Allow counts the attempt and reports whether it stays within the window.
func (l *MemoryLimiter) Allow(ctx context.Context, identifier string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	c, ok := l.counters[identifier]
	if !ok || now.Sub(c.firstAt) >= l.cfg.Window {
		c = &counter{firstAt: now, lastAt: now, count: 1}
		l.counters[identifier] = c
	} else {
		c.count++
		c.lastAt = now
	}

	return Decision{
		Allowed:   c.count <= l.cfg.Max,
		Count:     c.count,
		Limit:     l.cfg.Max,
		WindowEnd: c.firstAt.Add(l.cfg.Window),
	}, nil
}

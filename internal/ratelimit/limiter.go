// Package ratelimit implements the sliding-window submission counter used
// by the lead intake pipeline. The window is anchored at the first counted
// submission and resets once it elapses; a rejected attempt still consumes
// a slot so a bot cannot busy-loop its way past the limit.
package ratelimit

import (
	"context"
	"time"
)

// Decision reports the result of one Allow call.
type Decision struct {
	Allowed   bool
	Count     int
	Limit     int
	WindowEnd time.Time
}

// Limiter evaluates a submission attempt for an identifier such as
// "phone:9876543210" or "ip:203.0.113.7". Implementations must increment
// and compare atomically; two concurrent calls may never both observe the
// same pre-increment count.
type Limiter interface {
	Allow(ctx context.Context, identifier string) (Decision, error)
}

// Config holds the window policy shared by all backends.
type Config struct {
	Max    int
	Window time.Duration
}

// DefaultConfig is the deployed policy: 5 submissions per identifier per
// 10 minutes.
func DefaultConfig() Config {
	return Config{Max: 5, Window: 10 * time.Minute}
}

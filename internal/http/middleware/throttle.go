package middleware

import (
	"net/http"
	"sync"
	"time"
)

// Throttler provides per-IP request throttling using a token bucket. This
// is the transport-level guard in front of the whole API; the submission
// sliding window in internal/ratelimit is a separate, stricter policy.
type Throttler struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64 // tokens per second
	burst   int     // max tokens
}

type bucket struct {
	tokens   float64
	lastTime time.Time
}

// NewThrottler creates a throttler allowing rate requests/sec with the
// given burst size per IP.
func NewThrottler(rate float64, burst int) *Throttler {
	t := &Throttler{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
	}
	// Periodically evict stale entries to prevent memory growth.
	go t.cleanup()
	return t
}

// Allow returns true if the request from ip is within the rate.
func (t *Throttler) Allow(ip string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	b, ok := t.buckets[ip]
	if !ok {
		b = &bucket{tokens: float64(t.burst), lastTime: now}
		t.buckets[ip] = b
	}

	elapsed := now.Sub(b.lastTime).Seconds()
	b.tokens += elapsed * t.rate
	if b.tokens > float64(t.burst) {
		b.tokens = float64(t.burst)
	}
	b.lastTime = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (t *Throttler) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		t.mu.Lock()
		cutoff := time.Now().Add(-10 * time.Minute)
		for ip, b := range t.buckets {
			if b.lastTime.Before(cutoff) {
				delete(t.buckets, ip)
			}
		}
		t.mu.Unlock()
	}
}

// Throttle returns an HTTP middleware that rejects requests exceeding the
// configured rate with 429 Too Many Requests.
func Throttle(rate float64, burst int) func(http.Handler) http.Handler {
	throttler := NewThrottler(rate, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := r.RemoteAddr
			// Prefer X-Real-Ip set by chi's RealIP middleware.
			if xri := r.Header.Get("X-Real-Ip"); xri != "" {
				ip = xri
			}
			if !throttler.Allow(ip) {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

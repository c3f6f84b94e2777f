package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/park63/lead-intake/pkg/logging"
)

var tracer = otel.Tracer("lead-intake/ratelimit")

// RedisLimiter counts submissions with INCR and anchors the window by
// setting the key TTL on the first increment only, so the window runs from
// the first submission rather than sliding with each attempt.
type RedisLimiter struct {
	client *redis.Client
	cfg    Config
	logger *logging.Logger
}

// NewRedisLimiter creates a Redis-backed limiter.
func NewRedisLimiter(client *redis.Client, cfg Config, logger *logging.Logger) *RedisLimiter {
	if client == nil {
		panic("ratelimit: redis client required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisLimiter{client: client, cfg: cfg, logger: logger}
}

// Allow increments the identifier's counter and compares against the limit.
func (l *RedisLimiter) Allow(ctx context.Context, identifier string) (Decision, error) {
	ctx, span := tracer.Start(ctx, "ratelimit.allow")
	defer span.End()

	key := "ratelimit:" + identifier

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit: incr failed: %w", err)
	}
	if count == 1 {
		// A dropped expiry would leave the counter blocking the identifier
		// forever, so the failure has to be visible somewhere.
		if err := l.client.Expire(ctx, key, l.cfg.Window).Err(); err != nil {
			l.logger.Error("rate limit expiry not set", "identifier", identifier, "error", err)
		}
	}

	ttl, err := l.client.TTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		ttl = l.cfg.Window
	}

	d := Decision{
		Allowed:   int(count) <= l.cfg.Max,
		Count:     int(count),
		Limit:     l.cfg.Max,
		WindowEnd: time.Now().Add(ttl),
	}
	if !d.Allowed {
		span.SetAttributes(attribute.Bool("ratelimit.exceeded", true))
		l.logger.Warn("submission rate limit exceeded",
			"identifier", identifier,
			"count", d.Count,
			"max", d.Limit,
		)
	}
	return d, nil
}

// Reset clears the counter for an identifier. Operator use.
func (l *RedisLimiter) Reset(ctx context.Context, identifier string) error {
	return l.client.Del(ctx, "ratelimit:"+identifier).Err()
}

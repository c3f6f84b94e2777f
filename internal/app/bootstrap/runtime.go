// Package bootstrap wires configured backends into runtime dependencies.
// Every builder degrades gracefully: missing configuration selects an
// in-process fallback instead of failing startup.
package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/park63/lead-intake/internal/captcha"
	appconfig "github.com/park63/lead-intake/internal/config"
	"github.com/park63/lead-intake/internal/leads"
	"github.com/park63/lead-intake/internal/notify"
	"github.com/park63/lead-intake/internal/observability/metrics"
	"github.com/park63/lead-intake/internal/ratelimit"
	"github.com/park63/lead-intake/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// BuildPgxPool connects to Postgres, or returns nil when no DATABASE_URL is
// configured or the database is unreachable.
func BuildPgxPool(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *pgxpool.Pool {
	if cfg == nil || cfg.UseMemoryStore || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Warn("postgres pool init failed", "error", err)
		return nil
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Warn("postgres not available", "error", err)
		pool.Close()
		return nil
	}
	return pool
}

// BuildRepository selects the lead store: Postgres when a pool is up,
// otherwise the in-memory map.
func BuildRepository(pool *pgxpool.Pool, logger *logging.Logger) leads.Repository {
	if logger == nil {
		logger = logging.Default()
	}
	if pool != nil {
		return leads.NewPostgresRepository(pool)
	}
	logger.Warn("using in-memory lead store; leads will not survive restarts")
	return leads.NewInMemoryRepository()
}

// BuildLimiter selects the sliding-window backend: Redis when available,
// then Postgres, then process memory.
func BuildLimiter(redisClient *redis.Client, pool *pgxpool.Pool, cfg *appconfig.Config, logger *logging.Logger) ratelimit.Limiter {
	if logger == nil {
		logger = logging.Default()
	}
	rlCfg := ratelimit.Config{Max: cfg.RateLimitMax, Window: cfg.RateLimitWindow}
	if rlCfg.Max <= 0 || rlCfg.Window <= 0 {
		rlCfg = ratelimit.DefaultConfig()
	}

	if redisClient != nil {
		return ratelimit.NewRedisLimiter(redisClient, rlCfg, logger)
	}
	if pool != nil {
		return ratelimit.NewPostgresLimiter(pool, rlCfg)
	}
	logger.Warn("using in-memory rate limiter; counters are per-instance")
	return ratelimit.NewMemoryLimiter(rlCfg)
}

// BuildVerifier selects CAPTCHA verification: the real reCAPTCHA check when
// a secret is configured, pass-through otherwise.
func BuildVerifier(cfg *appconfig.Config, logger *logging.Logger) captcha.Verifier {
	if cfg == nil || strings.TrimSpace(cfg.RecaptchaSecret) == "" {
		return captcha.NoopVerifier{}
	}
	return captcha.NewRecaptchaVerifier(cfg.RecaptchaSecret, cfg.RecaptchaVerifyURL, logger)
}

// BuildDispatcher assembles the notification pipeline from whatever sinks
// are configured. Returns nil when there is nothing to notify; m may be nil.
func BuildDispatcher(cfg *appconfig.Config, m *metrics.IntakeMetrics, logger *logging.Logger) *notify.Dispatcher {
	if cfg == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	var sinks []notify.Sink
	if strings.TrimSpace(cfg.CRMWebhookURL) != "" {
		sinks = append(sinks, notify.NewCRMWebhook(cfg.CRMWebhookURL, cfg.CRMWebhookTimeout, logger))
	}
	if len(cfg.NotifyEmails) > 0 {
		var sender notify.EmailSender
		if sg := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); sg != nil {
			sender = sg
		} else {
			sender = notify.NewStubEmailSender(logger)
		}
		sinks = append(sinks, notify.NewEmailSink(sender, cfg.NotifyEmails, logger))
	}
	if len(sinks) == 0 {
		return nil
	}
	var failures notify.FailureCounter
	if m != nil {
		failures = m
	}
	return notify.NewDispatcher(cfg.NotifyBuffer, sinks, failures, logger)
}

package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresLimiter maintains one submission_rate_limit row per identifier.
// The whole read-reset-increment cycle runs as a single upsert so two
// concurrent submissions can never both observe the same count.
type PostgresLimiter struct {
	db  querier
	cfg Config

	now func() time.Time
}

// NewPostgresLimiter creates a Postgres-backed limiter.
func NewPostgresLimiter(pool *pgxpool.Pool, cfg Config) *PostgresLimiter {
	if pool == nil {
		panic("ratelimit: pgx pool required")
	}
	return &PostgresLimiter{db: pool, cfg: cfg, now: time.Now}
}

func newPostgresLimiterWithQuerier(db querier, cfg Config) *PostgresLimiter {
	return &PostgresLimiter{db: db, cfg: cfg, now: time.Now}
}

// Allow upserts the counter row: insert on first sight, reset when the
// window anchored at first_submission_at has elapsed, increment otherwise.
func (l *PostgresLimiter) Allow(ctx context.Context, identifier string) (Decision, error) {
	now := l.now().UTC()
	windowStart := now.Add(-l.cfg.Window)

	query := `
		INSERT INTO submission_rate_limit (identifier, first_submission_at, last_submission_at, submission_count)
		VALUES ($1, $2, $2, 1)
		ON CONFLICT (identifier) DO UPDATE SET
			submission_count = CASE
				WHEN submission_rate_limit.first_submission_at < $3 THEN 1
				ELSE submission_rate_limit.submission_count + 1
			END,
			first_submission_at = CASE
				WHEN submission_rate_limit.first_submission_at < $3 THEN $2
				ELSE submission_rate_limit.first_submission_at
			END,
			last_submission_at = $2
		RETURNING submission_count, first_submission_at
	`

	var count int
	var firstAt time.Time
	if err := l.db.QueryRow(ctx, query, identifier, now, windowStart).Scan(&count, &firstAt); err != nil {
		return Decision{}, fmt.Errorf("ratelimit: counter upsert failed: %w", err)
	}

	return Decision{
		Allowed:   count <= l.cfg.Max,
		Count:     count,
		Limit:     l.cfg.Max,
		WindowEnd: firstAt.Add(l.cfg.Window),
	}, nil
}

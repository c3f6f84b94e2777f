package ratelimit

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestPostgresLimiterAllowWithinWindow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	l := newPostgresLimiterWithQuerier(mock, Config{Max: 5, Window: 10 * time.Minute})
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	mock.ExpectQuery("INSERT INTO submission_rate_limit").
		WithArgs("phone:9123456789", now, now.Add(-10*time.Minute)).
		WillReturnRows(pgxmock.NewRows([]string{"submission_count", "first_submission_at"}).
			AddRow(3, now.Add(-2*time.Minute)))

	d, err := l.Allow(context.Background(), "phone:9123456789")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Allowed || d.Count != 3 {
		t.Fatalf("expected allowed count 3, got allowed=%v count=%d", d.Allowed, d.Count)
	}
	if want := now.Add(8 * time.Minute); !d.WindowEnd.Equal(want) {
		t.Fatalf("expected window end %v, got %v", want, d.WindowEnd)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresLimiterDeniesPastLimit(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	l := newPostgresLimiterWithQuerier(mock, Config{Max: 5, Window: 10 * time.Minute})
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	mock.ExpectQuery("INSERT INTO submission_rate_limit").
		WithArgs("ip:203.0.113.7", now, now.Add(-10*time.Minute)).
		WillReturnRows(pgxmock.NewRows([]string{"submission_count", "first_submission_at"}).
			AddRow(6, now.Add(-5*time.Minute)))

	d, err := l.Allow(context.Background(), "ip:203.0.113.7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Allowed {
		t.Fatal("count past the limit should be denied")
	}
	// The denied attempt was still counted by the upsert.
	if d.Count != 6 {
		t.Fatalf("expected count 6, got %d", d.Count)
	}
}

func TestPostgresLimiterSingleStatementPerAllow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	l := newPostgresLimiterWithQuerier(mock, Config{Max: 5, Window: 10 * time.Minute})
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	// Exactly one expectation: a second round-trip would fail the mock.
	mock.ExpectQuery("INSERT INTO submission_rate_limit").
		WithArgs("phone:9123456789", now, now.Add(-10*time.Minute)).
		WillReturnRows(pgxmock.NewRows([]string{"submission_count", "first_submission_at"}).
			AddRow(1, now))

	if _, err := l.Allow(context.Background(), "phone:9123456789"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expected a single upsert round-trip: %v", err)
	}
}

package leads

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestPostgresRepositoryInsert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := newPostgresRepositoryWithQuerier(mock)

	createdAt := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO leads").
		WithArgs("lead-1", "Asha Rao", "9123456789", "asha@example.com", "interested", "hero").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(createdAt))

	lead := &Lead{
		ID:      "lead-1",
		Name:    "Asha Rao",
		Phone:   "9123456789",
		Email:   "asha@example.com",
		Message: "interested",
		Source:  SourceHero,
	}
	if err := repo.Insert(context.Background(), lead); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !lead.CreatedAt.Equal(createdAt) {
		t.Fatalf("expected created_at %v, got %v", createdAt, lead.CreatedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresRepositoryInsertNullsOptionalFields(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := newPostgresRepositoryWithQuerier(mock)

	mock.ExpectQuery("INSERT INTO leads").
		WithArgs("lead-1", "Asha Rao", "9123456789", nil, nil, "contact-form").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	lead := &Lead{ID: "lead-1", Name: "Asha Rao", Phone: "9123456789", Source: SourceContactForm}
	if err := repo.Insert(context.Background(), lead); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresRepositoryInsertUniqueViolation(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := newPostgresRepositoryWithQuerier(mock)

	mock.ExpectQuery("INSERT INTO leads").
		WithArgs("lead-1", "Asha Rao", "9123456789", nil, nil, "hero").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "leads_phone_key"})

	lead := &Lead{ID: "lead-1", Name: "Asha Rao", Phone: "9123456789", Source: SourceHero}
	if err := repo.Insert(context.Background(), lead); !errors.Is(err, ErrDuplicatePhone) {
		t.Fatalf("expected ErrDuplicatePhone, got %v", err)
	}
}

func TestPostgresRepositoryFindByPhone(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := newPostgresRepositoryWithQuerier(mock)

	createdAt := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{"id", "name", "phone", "email", "message", "source", "created_at"}).
		AddRow("lead-1", "Asha Rao", "9123456789", "", "", Source("hero"), createdAt)
	mock.ExpectQuery("SELECT (.+) FROM leads").
		WithArgs("9123456789").
		WillReturnRows(rows)

	lead, err := repo.FindByPhone(context.Background(), "9123456789")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lead.ID != "lead-1" || lead.Source != SourceHero {
		t.Fatalf("unexpected lead: %+v", lead)
	}
}

func TestPostgresRepositoryFindByPhoneNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := newPostgresRepositoryWithQuerier(mock)

	mock.ExpectQuery("SELECT (.+) FROM leads").
		WithArgs("9999999999").
		WillReturnError(pgx.ErrNoRows)

	if _, err := repo.FindByPhone(context.Background(), "9999999999"); !errors.Is(err, ErrLeadNotFound) {
		t.Fatalf("expected ErrLeadNotFound, got %v", err)
	}
}

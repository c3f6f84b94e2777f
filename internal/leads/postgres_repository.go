package leads

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the Postgres error code raised when the unique index
// on leads.phone rejects a concurrent insert.
const uniqueViolation = "23505"

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	db querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

func newPostgresRepositoryWithQuerier(db querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert adds a new row. The unique index on phone is the safety net for
// the check-then-insert race: a concurrent duplicate surfaces here as
// ErrDuplicatePhone, never as a server error.
func (r *PostgresRepository) Insert(ctx context.Context, lead *Lead) error {
	query := `
		INSERT INTO leads (id, name, phone, email, message, source)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	err := r.db.QueryRow(ctx, query,
		lead.ID,
		lead.Name,
		lead.Phone,
		nullIfEmpty(lead.Email),
		nullIfEmpty(lead.Message),
		string(lead.Source),
	).Scan(&lead.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicatePhone
		}
		return fmt.Errorf("leads: insert failed: %w", err)
	}
	return nil
}

// FindByPhone fetches the lead registered under phone.
func (r *PostgresRepository) FindByPhone(ctx context.Context, phone string) (*Lead, error) {
	query := `
		SELECT id, name, phone, COALESCE(email, ''), COALESCE(message, ''), source, created_at
		FROM leads
		WHERE phone = $1
	`
	var lead Lead
	err := r.db.QueryRow(ctx, query, phone).Scan(
		&lead.ID,
		&lead.Name,
		&lead.Phone,
		&lead.Email,
		&lead.Message,
		&lead.Source,
		&lead.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: select failed: %w", err)
	}
	return &lead, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

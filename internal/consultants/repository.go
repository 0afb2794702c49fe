package consultants

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the subset of pgxpool.Pool the repository needs, so tests can
// substitute pgxmock.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides read access to consultant profiles in Postgres.
type Repository struct {
	pool PgxPool
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool PgxPool) *Repository {
	if pool == nil {
		panic("consultants: pgx pool required")
	}
	return &Repository{pool: pool}
}

const consultantColumns = `id, specialization, hourly_rate, years_experience, is_preferred, is_active, working_hours, created_at, updated_at`

// GetByID loads a single consultant. A missing id returns nil, nil.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Consultant, error) {
	query := `SELECT ` + consultantColumns + ` FROM consultants WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, id)
	c, err := scanConsultant(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("consultants: load %s: %w", id, err)
	}
	return c, nil
}

// Match returns active consultants whose specialization equals the given one
// case-insensitively, optionally restricted to preferred consultants.
// Preferred and more experienced consultants sort first.
func (r *Repository) Match(ctx context.Context, specialization string, preferredOnly bool) ([]Consultant, error) {
	query := `
		SELECT ` + consultantColumns + `
		FROM consultants
		WHERE is_active = TRUE
		  AND lower(specialization) = lower($1)
		  AND ($2::boolean = FALSE OR is_preferred = TRUE)
		ORDER BY is_preferred DESC, years_experience DESC, id
	`
	pgRows, err := r.pool.Query(ctx, query, specialization, preferredOnly)
	if err != nil {
		return nil, fmt.Errorf("consultants: match %q: %w", specialization, err)
	}
	defer pgRows.Close()

	var out []Consultant
	for pgRows.Next() {
		c, err := scanConsultant(pgRows)
		if err != nil {
			return nil, fmt.Errorf("consultants: scan match row: %w", err)
		}
		out = append(out, *c)
	}
	if err := pgRows.Err(); err != nil {
		return nil, fmt.Errorf("consultants: match rows: %w", err)
	}
	return out, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanConsultant(row scannable) (*Consultant, error) {
	var (
		c  Consultant
		wh []byte
	)
	err := row.Scan(
		&c.ID,
		&c.Specialization,
		&c.HourlyRate,
		&c.YearsExperience,
		&c.Preferred,
		&c.Active,
		&wh,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(wh) > 0 {
		if err := json.Unmarshal(wh, &c.WorkingHours); err != nil {
			return nil, fmt.Errorf("decode working hours: %w", err)
		}
	}
	return &c, nil
}

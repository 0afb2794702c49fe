package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the query surface shared by the pool and an open transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgxPool is the subset of pgxpool.Pool the store needs, so tests can
// substitute pgxmock.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists slot holds and appointments in Postgres. It owns the
// concurrency-critical check+insert path.
type Store struct {
	pool       PgxPool
	maxRetries int
	retryDelay time.Duration
}

// NewStore creates a store over the given pool. maxRetries bounds the
// serialization-failure retry budget for hold creation.
func NewStore(pool PgxPool, maxRetries int, retryDelay time.Duration) *Store {
	if pool == nil {
		panic("scheduling: pgx pool required")
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelay <= 0 {
		retryDelay = 50 * time.Millisecond
	}
	return &Store{pool: pool, maxRetries: maxRetries, retryDelay: retryDelay}
}

const overlapCountQuery = `
	SELECT (
		SELECT count(*) FROM appointments
		WHERE consultant_id = $1
		  AND status IN ('pending', 'confirmed')
		  AND start_time < $3 AND end_time > $2
	) + (
		SELECT count(*) FROM slot_holds
		WHERE consultant_id = $1
		  AND status = 'active'
		  AND expires_at >= $4
		  AND start_time < $3 AND end_time > $2
	)
`

// CountOverlaps counts active holds and pending/confirmed appointments that
// strictly overlap the interval. When q is nil the pool is used; hold
// creation passes its open transaction instead.
func (s *Store) CountOverlaps(ctx context.Context, q Querier, consultantID uuid.UUID, iv Interval, now time.Time) (int, error) {
	if q == nil {
		q = s.pool
	}
	var count int
	err := q.QueryRow(ctx, overlapCountQuery, consultantID, iv.Start, iv.End, now).Scan(&count)
	if err != nil {
		return 0, storeErr("count overlaps", err)
	}
	return count, nil
}

// CreateHold atomically checks availability and inserts the hold. The check
// and the insert run inside one transaction serialized per consultant via a
// transaction-scoped advisory lock; interval-keyed locks cannot detect
// partial overlaps, so the lock key is the consultant id. Returns
// ErrConflict when the interval is taken. Serialization failures are retried
// within a bounded budget and then surfaced as ErrConflict.
func (s *Store) CreateHold(ctx context.Context, hold *Hold) error {
	var lastErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.retryDelay * time.Duration(attempt)):
			}
		}
		err := s.tryCreateHold(ctx, hold)
		if err == nil || !isSerializationFailure(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("%w: retry budget exhausted: %v", ErrConflict, lastErr)
}

func (s *Store) tryCreateHold(ctx context.Context, hold *Hold) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return storeErr("begin hold tx", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Serialize concurrent hold attempts for this consultant. The lock is
	// released automatically at commit or rollback.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`, hold.ConsultantID); err != nil {
		return storeErr("acquire consultant lock", err)
	}

	var count int
	if err := tx.QueryRow(ctx, overlapCountQuery, hold.ConsultantID, hold.Interval.Start, hold.Interval.End, hold.CreatedAt).Scan(&count); err != nil {
		return storeErr("check availability", err)
	}
	if count > 0 {
		return ErrConflict
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO slot_holds (id, consultant_id, client_id, start_time, end_time, status, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		hold.ID, hold.ConsultantID, hold.ClientID,
		hold.Interval.Start, hold.Interval.End,
		string(hold.Status), hold.CreatedAt, hold.ExpiresAt,
	)
	if err != nil {
		return storeErr("insert hold", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return storeErr("commit hold tx", err)
	}
	return nil
}

// GetHold loads a hold by id.
func (s *Store) GetHold(ctx context.Context, id uuid.UUID) (*Hold, error) {
	var (
		h      Hold
		status string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, consultant_id, client_id, start_time, end_time, status, created_at, expires_at
		FROM slot_holds WHERE id = $1`, id).
		Scan(&h.ID, &h.ConsultantID, &h.ClientID, &h.Interval.Start, &h.Interval.End, &status, &h.CreatedAt, &h.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrHoldNotFound
	}
	if err != nil {
		return nil, storeErr("load hold", err)
	}
	h.Status = HoldStatus(status)
	return &h, nil
}

// ExpireHold performs the atomic active -> expired transition. It is a
// conditional update so concurrent validators and a racing conversion can
// never double-transition; the return reports whether this caller won.
func (s *Store) ExpireHold(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE slot_holds SET status = 'expired'
		WHERE id = $1 AND status = 'active' AND expires_at < $2`, id, now)
	if err != nil {
		return false, storeErr("expire hold", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ConvertHold atomically validates and converts the hold, creating the
// appointment in the same transaction. A hold that raced with an expiry
// sweep fails with ErrHoldExpired; an already-converted hold with
// ErrHoldInvalidState. Overdue-but-still-active holds are lazily expired.
func (s *Store) ConvertHold(ctx context.Context, holdID uuid.UUID, now time.Time) (*Appointment, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, storeErr("begin convert tx", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt := &Appointment{Status: AppointmentConfirmed, CreatedAt: now}
	err = tx.QueryRow(ctx, `
		UPDATE slot_holds SET status = 'converted'
		WHERE id = $1 AND status = 'active' AND expires_at >= $2
		RETURNING consultant_id, client_id, start_time, end_time`, holdID, now).
		Scan(&appt.ConsultantID, &appt.ClientID, &appt.Interval.Start, &appt.Interval.End)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, s.classifyConvertFailure(ctx, tx, holdID, now)
	}
	if err != nil {
		return nil, storeErr("convert hold", err)
	}

	appt.ID = uuid.New()
	_, err = tx.Exec(ctx, `
		INSERT INTO appointments (id, consultant_id, client_id, start_time, end_time, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
		appt.ID, appt.ConsultantID, appt.ClientID,
		appt.Interval.Start, appt.Interval.End,
		string(appt.Status), now,
	)
	if err != nil {
		return nil, storeErr("insert appointment", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storeErr("commit convert tx", err)
	}
	return appt, nil
}

// classifyConvertFailure distinguishes why the conditional conversion
// matched no row, lazily expiring an overdue hold on the way out.
func (s *Store) classifyConvertFailure(ctx context.Context, tx pgx.Tx, holdID uuid.UUID, now time.Time) error {
	var (
		status    string
		expiresAt time.Time
	)
	err := tx.QueryRow(ctx, `SELECT status, expires_at FROM slot_holds WHERE id = $1`, holdID).
		Scan(&status, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrHoldNotFound
	}
	if err != nil {
		return storeErr("inspect hold", err)
	}

	switch HoldStatus(status) {
	case HoldConverted:
		return ErrHoldInvalidState
	case HoldExpired:
		return ErrHoldExpired
	case HoldActive:
		// Active but expires_at < now: expire lazily and commit that
		// transition before reporting the failure.
		if _, err := tx.Exec(ctx, `
			UPDATE slot_holds SET status = 'expired'
			WHERE id = $1 AND status = 'active' AND expires_at < $2`, holdID, now); err != nil {
			return storeErr("lazy expire hold", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return storeErr("commit lazy expire", err)
		}
		return ErrHoldExpired
	default:
		return ErrHoldInvalidState
	}
}

// ExpireOverdueHolds transitions a batch of overdue active holds to expired
// and returns them so callers can clean up side-index entries. SKIP LOCKED
// keeps concurrent sweepers from contending.
func (s *Store) ExpireOverdueHolds(ctx context.Context, now time.Time, limit int) ([]Hold, error) {
	rows, err := s.pool.Query(ctx, `
		UPDATE slot_holds SET status = 'expired'
		WHERE id IN (
			SELECT id FROM slot_holds
			WHERE status = 'active' AND expires_at < $1
			ORDER BY expires_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, consultant_id, client_id, start_time, end_time, status, created_at, expires_at`,
		now, limit)
	if err != nil {
		return nil, storeErr("expire overdue holds", err)
	}
	defer rows.Close()

	var out []Hold
	for rows.Next() {
		var (
			h      Hold
			status string
		)
		if err := rows.Scan(&h.ID, &h.ConsultantID, &h.ClientID, &h.Interval.Start, &h.Interval.End, &status, &h.CreatedAt, &h.ExpiresAt); err != nil {
			return nil, storeErr("scan expired hold", err)
		}
		h.Status = HoldStatus(status)
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("expire overdue rows", err)
	}
	return out, nil
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	// 40001 serialization_failure, 40P01 deadlock_detected
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

// storeErr wraps a driver error. Server-reported errors keep their detail;
// transport-level failures are tagged ErrStoreUnavailable so callers can
// tell "store down" apart from every business outcome.
func storeErr(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("scheduling: %s: %w", op, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("scheduling: %s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}

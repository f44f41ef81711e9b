package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"caseflow/internal/sla"
	"caseflow/pkg/domain"
	"caseflow/pkg/platform/sentinel"
	"caseflow/pkg/platform/tx"
)

// PostgresExclusionStore persists exclusion periods in PostgreSQL. The
// at-most-one-open invariant is backed by a partial unique index on
// (request_id) WHERE end_date IS NULL.
type PostgresExclusionStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed exclusion store.
func NewPostgres(db *sql.DB) *PostgresExclusionStore {
	return &PostgresExclusionStore{db: db}
}

func (s *PostgresExclusionStore) Open(ctx context.Context, period *sla.ExclusionPeriod) error {
	q := tx.Resolve(ctx, s.db)
	query := `
		INSERT INTO clock_exclusion_periods (id, request_id, reason, start_date, end_date)
		VALUES ($1, $2, $3, $4, NULL)
	`
	_, err := q.ExecContext(ctx, query,
		period.ID,
		uuid.UUID(period.RequestID),
		string(period.Reason),
		period.StartDate,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("open exclusion period: %w", err)
	}
	return nil
}

func (s *PostgresExclusionStore) CloseOpen(ctx context.Context, requestID domain.RequestID, endDate time.Time) (*sla.ExclusionPeriod, error) {
	q := tx.Resolve(ctx, s.db)
	query := `
		UPDATE clock_exclusion_periods
		SET end_date = $2
		WHERE request_id = $1 AND end_date IS NULL
		RETURNING id, request_id, reason, start_date, end_date
	`
	period, err := scanPeriod(q.QueryRowContext(ctx, query, uuid.UUID(requestID), endDate))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("close exclusion period: %w", err)
	}
	return period, nil
}

func (s *PostgresExclusionStore) FindOpen(ctx context.Context, requestID domain.RequestID) (*sla.ExclusionPeriod, error) {
	q := tx.Resolve(ctx, s.db)
	query := `
		SELECT id, request_id, reason, start_date, end_date
		FROM clock_exclusion_periods
		WHERE request_id = $1 AND end_date IS NULL
	`
	period, err := scanPeriod(q.QueryRowContext(ctx, query, uuid.UUID(requestID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find open exclusion period: %w", err)
	}
	return period, nil
}

func (s *PostgresExclusionStore) ListByRequest(ctx context.Context, requestID domain.RequestID) ([]sla.ExclusionPeriod, error) {
	q := tx.Resolve(ctx, s.db)
	query := `
		SELECT id, request_id, reason, start_date, end_date
		FROM clock_exclusion_periods
		WHERE request_id = $1
		ORDER BY start_date
	`
	rows, err := q.QueryContext(ctx, query, uuid.UUID(requestID))
	if err != nil {
		return nil, fmt.Errorf("list exclusion periods: %w", err)
	}
	defer rows.Close()

	var periods []sla.ExclusionPeriod
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("scan exclusion period: %w", err)
		}
		periods = append(periods, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exclusion periods: %w", err)
	}
	return periods, nil
}

type periodRow interface {
	Scan(dest ...any) error
}

func scanPeriod(row periodRow) (*sla.ExclusionPeriod, error) {
	var p sla.ExclusionPeriod
	var requestID uuid.UUID
	var reason string
	var endDate sql.NullTime
	if err := row.Scan(&p.ID, &requestID, &reason, &p.StartDate, &endDate); err != nil {
		return nil, err
	}
	p.RequestID = domain.RequestID(requestID)
	p.Reason = sla.ExclusionReason(reason)
	if endDate.Valid {
		p.EndDate = &endDate.Time
	}
	return &p, nil
}

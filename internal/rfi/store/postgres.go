package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"caseflow/internal/rfi/models"
	"caseflow/pkg/domain"
	"caseflow/pkg/platform/sentinel"
	"caseflow/pkg/platform/tx"
)

// PostgresRFIStore persists information requests. A partial unique index on
// (request_id) WHERE status = 'Issued' backs the one-open-RFI invariant at
// the storage layer.
type PostgresRFIStore struct {
	db *sql.DB
}

func NewPostgresRFIStore(db *sql.DB) *PostgresRFIStore {
	return &PostgresRFIStore{db: db}
}

const rfiColumns = `id, request_id, questions, status, issued_by, issued_date,
	response_deadline, received_date, response, created_at, updated_at`

func (s *PostgresRFIStore) Create(ctx context.Context, rfi *models.InformationRequest) error {
	q := tx.Resolve(ctx, s.db)
	_, err := q.ExecContext(ctx, `
		INSERT INTO information_requests (`+rfiColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rfi.ID.String(), rfi.RequestID.String(), pq.Array(rfi.Questions),
		string(rfi.Status), rfi.IssuedBy, rfi.IssuedDate, rfi.ResponseDeadline,
		nullTime(rfi.ReceivedDate), rfi.Response, rfi.CreatedAt, rfi.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert information request: %w", err)
	}
	return nil
}

func (s *PostgresRFIStore) Get(ctx context.Context, id domain.RFIID) (*models.InformationRequest, error) {
	q := tx.Resolve(ctx, s.db)
	row := q.QueryRowContext(ctx, `SELECT `+rfiColumns+` FROM information_requests WHERE id = $1`, id.String())
	return scanRFI(row)
}

func (s *PostgresRFIStore) Update(ctx context.Context, rfi *models.InformationRequest) error {
	q := tx.Resolve(ctx, s.db)
	res, err := q.ExecContext(ctx, `
		UPDATE information_requests SET status = $1, received_date = $2, response = $3, updated_at = $4
		WHERE id = $5`,
		string(rfi.Status), nullTime(rfi.ReceivedDate), rfi.Response, rfi.UpdatedAt, rfi.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("update information request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update information request rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresRFIStore) FindOpen(ctx context.Context, requestID domain.RequestID) (*models.InformationRequest, error) {
	q := tx.Resolve(ctx, s.db)
	row := q.QueryRowContext(ctx, `
		SELECT `+rfiColumns+` FROM information_requests
		WHERE request_id = $1 AND status = 'Issued'`, requestID.String())
	return scanRFI(row)
}

func (s *PostgresRFIStore) ListByRequest(ctx context.Context, requestID domain.RequestID) ([]*models.InformationRequest, error) {
	q := tx.Resolve(ctx, s.db)
	rows, err := q.QueryContext(ctx, `
		SELECT `+rfiColumns+` FROM information_requests
		WHERE request_id = $1 ORDER BY issued_date`, requestID.String())
	if err != nil {
		return nil, fmt.Errorf("list information requests: %w", err)
	}
	defer rows.Close()

	var out []*models.InformationRequest
	for rows.Next() {
		rfi, err := scanRFI(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rfi)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRFI(row rowScanner) (*models.InformationRequest, error) {
	var (
		rfi      models.InformationRequest
		id, rid  string
		status   string
		received sql.NullTime
	)
	err := row.Scan(&id, &rid, pq.Array(&rfi.Questions), &status, &rfi.IssuedBy,
		&rfi.IssuedDate, &rfi.ResponseDeadline, &received, &rfi.Response,
		&rfi.CreatedAt, &rfi.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan information request: %w", err)
	}
	rfi.ID, err = domain.ParseRFIID(id)
	if err != nil {
		return nil, fmt.Errorf("parse rfi id: %w", err)
	}
	rfi.RequestID, err = domain.ParseRequestID(rid)
	if err != nil {
		return nil, fmt.Errorf("parse rfi request id: %w", err)
	}
	rfi.Status = models.Status(status)
	if received.Valid {
		t := received.Time
		rfi.ReceivedDate = &t
	}
	return &rfi, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

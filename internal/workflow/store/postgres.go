package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"caseflow/internal/sla"
	"caseflow/internal/workflow/models"
	"caseflow/pkg/domain"
	"caseflow/pkg/platform/sentinel"
	"caseflow/pkg/platform/tx"
)

// PostgresRequestStore persists requests with optimistic locking: every
// UPDATE carries the expected version in its WHERE clause and bumps it on
// success. Zero rows affected means somebody else won the write.
type PostgresRequestStore struct {
	db *sql.DB
}

func NewPostgresRequestStore(db *sql.DB) *PostgresRequestStore {
	return &PostgresRequestStore{db: db}
}

func (s *PostgresRequestStore) Create(ctx context.Context, req *models.Request) error {
	q := tx.Resolve(ctx, s.db)
	_, err := q.ExecContext(ctx, `
		INSERT INTO requests (
			id, type, council, title, applicant_id, state, version,
			acknowledged_date, deadline_days, elapsed_working_days, target_date,
			sla_band, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		req.ID.String(), string(req.Type), string(req.Council), req.Title, req.ApplicantID,
		string(req.State), req.Version, nullTime(req.AcknowledgedDate), req.DeadlineDays,
		req.ElapsedWorkingDays, nullTime(req.TargetDate), string(req.SLABand),
		req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert request: %w", err)
	}
	return nil
}

func (s *PostgresRequestStore) Get(ctx context.Context, id domain.RequestID) (*models.Request, error) {
	q := tx.Resolve(ctx, s.db)
	row := q.QueryRowContext(ctx, `
		SELECT id, type, council, title, applicant_id, state, version,
		       acknowledged_date, deadline_days, elapsed_working_days, target_date,
		       sla_band, created_at, updated_at
		FROM requests WHERE id = $1`, id.String())
	return scanRequest(row)
}

func (s *PostgresRequestStore) Update(ctx context.Context, req *models.Request) error {
	q := tx.Resolve(ctx, s.db)
	res, err := q.ExecContext(ctx, `
		UPDATE requests SET
			state = $1, version = version + 1, acknowledged_date = $2,
			deadline_days = $3, elapsed_working_days = $4, target_date = $5,
			sla_band = $6, updated_at = $7
		WHERE id = $8 AND version = $9`,
		string(req.State), nullTime(req.AcknowledgedDate), req.DeadlineDays,
		req.ElapsedWorkingDays, nullTime(req.TargetDate), string(req.SLABand),
		req.UpdatedAt, req.ID.String(), req.Version,
	)
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update request rows affected: %w", err)
	}
	if n == 0 {
		// Distinguish a stale version from a missing row.
		var exists bool
		if err := q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM requests WHERE id = $1)`, req.ID.String()).Scan(&exists); err != nil {
			return fmt.Errorf("check request exists: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrVersionMismatch
	}
	req.Version++
	return nil
}

func (s *PostgresRequestStore) ListByState(ctx context.Context, state models.State) ([]*models.Request, error) {
	q := tx.Resolve(ctx, s.db)
	rows, err := q.QueryContext(ctx, `
		SELECT id, type, council, title, applicant_id, state, version,
		       acknowledged_date, deadline_days, elapsed_working_days, target_date,
		       sla_band, created_at, updated_at
		FROM requests WHERE state = $1 ORDER BY created_at`, string(state))
	if err != nil {
		return nil, fmt.Errorf("list requests by state: %w", err)
	}
	defer rows.Close()

	var out []*models.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*models.Request, error) {
	var (
		req              models.Request
		id               string
		reqType, council string
		state, band      string
		acknowledged     sql.NullTime
		target           sql.NullTime
	)
	err := row.Scan(&id, &reqType, &council, &req.Title, &req.ApplicantID, &state,
		&req.Version, &acknowledged, &req.DeadlineDays, &req.ElapsedWorkingDays,
		&target, &band, &req.CreatedAt, &req.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan request: %w", err)
	}
	req.ID, err = domain.ParseRequestID(id)
	if err != nil {
		return nil, fmt.Errorf("parse request id: %w", err)
	}
	req.Type = domain.RequestType(reqType)
	req.Council = domain.Council(council)
	req.State = models.State(state)
	req.SLABand = sla.Band(band)
	if acknowledged.Valid {
		t := acknowledged.Time
		req.AcknowledgedDate = &t
	}
	if target.Valid {
		t := target.Time
		req.TargetDate = &t
	}
	return &req, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// PostgresHistoryStore appends status history rows. Rows are never updated
// or deleted.
type PostgresHistoryStore struct {
	db *sql.DB
}

func NewPostgresHistoryStore(db *sql.DB) *PostgresHistoryStore {
	return &PostgresHistoryStore{db: db}
}

func (s *PostgresHistoryStore) Append(ctx context.Context, entry *models.StatusHistoryEntry) error {
	q := tx.Resolve(ctx, s.db)
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("marshal history metadata: %w", err)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO status_history (id, request_id, from_state, to_state, actor_id, comment, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID.String(), entry.RequestID.String(), string(entry.FromState),
		string(entry.ToState), entry.ActorID, entry.Comment, metadata, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

func (s *PostgresHistoryStore) ListByRequest(ctx context.Context, requestID domain.RequestID) ([]*models.StatusHistoryEntry, error) {
	q := tx.Resolve(ctx, s.db)
	rows, err := q.QueryContext(ctx, `
		SELECT id, request_id, from_state, to_state, actor_id, comment, metadata, created_at
		FROM status_history WHERE request_id = $1 ORDER BY created_at, id`, requestID.String())
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var out []*models.StatusHistoryEntry
	for rows.Next() {
		var (
			entry    models.StatusHistoryEntry
			id, rid  string
			from, to string
			metadata []byte
		)
		if err := rows.Scan(&id, &rid, &from, &to, &entry.ActorID, &entry.Comment, &metadata, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		entry.ID, err = domain.ParseHistoryEntryID(id)
		if err != nil {
			return nil, fmt.Errorf("parse history entry id: %w", err)
		}
		entry.RequestID, err = domain.ParseRequestID(rid)
		if err != nil {
			return nil, fmt.Errorf("parse history request id: %w", err)
		}
		entry.FromState = models.State(from)
		entry.ToState = models.State(to)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &entry.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal history metadata: %w", err)
			}
		}
		out = append(out, &entry)
	}
	return out, rows.Err()
}

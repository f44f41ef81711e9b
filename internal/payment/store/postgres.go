package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/lib/pq"

	"caseflow/internal/payment/models"
	"caseflow/pkg/domain"
	"caseflow/pkg/platform/sentinel"
	"caseflow/pkg/platform/tx"
)

// PostgresRecordStore persists payment records. request_id is the primary
// key: the payment sub-workflow is strictly one record per request.
type PostgresRecordStore struct {
	db *sql.DB
}

func NewPostgresRecordStore(db *sql.DB) *PostgresRecordStore {
	return &PostgresRecordStore{db: db}
}

func (s *PostgresRecordStore) Create(ctx context.Context, record *models.Record) error {
	q := tx.Resolve(ctx, s.db)
	var amountMinor sql.NullInt64
	var currency sql.NullString
	if record.Amount != nil {
		amountMinor = sql.NullInt64{Int64: record.Amount.Amount(), Valid: true}
		currency = sql.NullString{String: record.Amount.Currency().Code, Valid: true}
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO payment_records (request_id, method, status, amount_minor, currency,
			payment_date, reference, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		record.RequestID.String(), record.Method, string(record.Status),
		amountMinor, currency, nullTime(record.PaymentDate), record.Reference,
		record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert payment record: %w", err)
	}
	return nil
}

func (s *PostgresRecordStore) GetByRequest(ctx context.Context, requestID domain.RequestID) (*models.Record, error) {
	q := tx.Resolve(ctx, s.db)
	var (
		record      models.Record
		rid, status string
		amountMinor sql.NullInt64
		currency    sql.NullString
		paymentDate sql.NullTime
	)
	err := q.QueryRowContext(ctx, `
		SELECT request_id, method, status, amount_minor, currency, payment_date,
		       reference, created_at, updated_at
		FROM payment_records WHERE request_id = $1`, requestID.String()).
		Scan(&rid, &record.Method, &status, &amountMinor, &currency, &paymentDate,
			&record.Reference, &record.CreatedAt, &record.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan payment record: %w", err)
	}
	record.RequestID, err = domain.ParseRequestID(rid)
	if err != nil {
		return nil, fmt.Errorf("parse payment request id: %w", err)
	}
	record.Status = models.Status(status)
	if amountMinor.Valid && currency.Valid {
		record.Amount = money.New(amountMinor.Int64, currency.String)
	}
	if paymentDate.Valid {
		t := paymentDate.Time
		record.PaymentDate = &t
	}
	return &record, nil
}

func (s *PostgresRecordStore) Update(ctx context.Context, record *models.Record) error {
	q := tx.Resolve(ctx, s.db)
	res, err := q.ExecContext(ctx, `
		UPDATE payment_records SET status = $1, payment_date = $2, reference = $3, updated_at = $4
		WHERE request_id = $5`,
		string(record.Status), nullTime(record.PaymentDate), record.Reference,
		record.UpdatedAt, record.RequestID.String(),
	)
	if err != nil {
		return fmt.Errorf("update payment record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update payment record rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// Package store persists payment records, one per request.
package store

import (
	"context"

	"caseflow/internal/payment/models"
	"caseflow/pkg/domain"
)

// RecordStore persists payment records keyed by request. Create fails with
// sentinel.ErrConflict when the request already has a record.
type RecordStore interface {
	Create(ctx context.Context, record *models.Record) error
	GetByRequest(ctx context.Context, requestID domain.RequestID) (*models.Record, error)
	Update(ctx context.Context, record *models.Record) error
}

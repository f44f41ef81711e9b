// Package store persists workflow requests and their status history.
package store

import (
	"context"

	"caseflow/internal/workflow/models"
	"caseflow/pkg/domain"
)

// RequestStore persists the request aggregate. Update is version-checked:
// implementations must fail with sentinel.ErrVersionMismatch when the stored
// version differs from the one on the passed aggregate.
type RequestStore interface {
	Create(ctx context.Context, req *models.Request) error
	Get(ctx context.Context, id domain.RequestID) (*models.Request, error)
	Update(ctx context.Context, req *models.Request) error
	ListByState(ctx context.Context, state models.State) ([]*models.Request, error)
}

// HistoryStore is append-only. Entries come back in insertion order so the
// sequence replays to the request's current state.
type HistoryStore interface {
	Append(ctx context.Context, entry *models.StatusHistoryEntry) error
	ListByRequest(ctx context.Context, requestID domain.RequestID) ([]*models.StatusHistoryEntry, error)
}

// Package store persists clock exclusion periods.
package store

import (
	"context"
	"time"

	"caseflow/internal/sla"
	"caseflow/pkg/domain"
)

// ExclusionStore persists exclusion periods. Implementations enforce the
// at-most-one-open-period invariant and return sentinel.ErrConflict when a
// second open period is attempted.
type ExclusionStore interface {
	// Open records a new open period. Fails with sentinel.ErrConflict when
	// the request already has an open period.
	Open(ctx context.Context, period *sla.ExclusionPeriod) error

	// CloseOpen sets the end date of the request's open period and returns
	// it. Fails with sentinel.ErrNotFound when no period is open.
	CloseOpen(ctx context.Context, requestID domain.RequestID, endDate time.Time) (*sla.ExclusionPeriod, error)

	// FindOpen returns the open period, or sentinel.ErrNotFound.
	FindOpen(ctx context.Context, requestID domain.RequestID) (*sla.ExclusionPeriod, error)

	// ListByRequest returns all periods ordered by start date.
	ListByRequest(ctx context.Context, requestID domain.RequestID) ([]sla.ExclusionPeriod, error)
}

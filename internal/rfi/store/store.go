// Package store persists information requests.
package store

import (
	"context"

	"caseflow/internal/rfi/models"
	"caseflow/pkg/domain"
)

// RFIStore persists information requests. FindOpen returns the request's
// Issued RFI, or sentinel.ErrNotFound when none is awaiting a response.
type RFIStore interface {
	Create(ctx context.Context, rfi *models.InformationRequest) error
	Get(ctx context.Context, id domain.RFIID) (*models.InformationRequest, error)
	Update(ctx context.Context, rfi *models.InformationRequest) error
	FindOpen(ctx context.Context, requestID domain.RequestID) (*models.InformationRequest, error)
	ListByRequest(ctx context.Context, requestID domain.RequestID) ([]*models.InformationRequest, error)
}

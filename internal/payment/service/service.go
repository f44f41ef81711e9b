// Package service implements the post-approval payment sub-workflow.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Rhymond/go-money"

	"caseflow/internal/payment/models"
	"caseflow/internal/payment/store"
	"caseflow/internal/platform/config"
	"caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/platform/sentinel"
	"caseflow/pkg/platform/tx"
	"caseflow/pkg/requestcontext"
)

// Service tracks payment state for approved requests.
type Service struct {
	records store.RecordStore
	runner  tx.Runner
	cfg     config.Workflow
	logger  *slog.Logger
}

// Option configures optional service collaborators.
type Option func(*Service)

func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.logger = l } }

// New constructs the payment service.
func New(records store.RecordStore, runner tx.Runner, cfg config.Workflow, opts ...Option) *Service {
	s := &Service{records: records, runner: runner, cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InitializeForRequest opens the payment record at Pending. Called from the
// approval transition hook, inside the transition's unit of work. An
// existing record is left alone so re-approval paths stay idempotent.
func (s *Service) InitializeForRequest(ctx context.Context, requestID domain.RequestID, amount *money.Money) error {
	now := requestcontext.Now(ctx)
	record := &models.Record{
		RequestID: requestID,
		Method:    "invoice",
		Status:    models.StatusPending,
		Amount:    amount,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.records.Create(ctx, record)
	if errors.Is(err, sentinel.ErrConflict) {
		return nil
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "create payment record")
	}
	s.logger.InfoContext(ctx, "payment record initialized",
		slog.String("request_id", requestID.String()))
	return nil
}

// GetByRequest returns the request's payment record.
func (s *Service) GetByRequest(ctx context.Context, requestID domain.RequestID) (*models.Record, error) {
	record, err := s.records.GetByRequest(ctx, requestID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "no payment record for request")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load payment record")
	}
	return record, nil
}

// MarkApproved moves the record from Pending to Approved.
func (s *Service) MarkApproved(ctx context.Context, requestID domain.RequestID) (*models.Record, error) {
	var result *models.Record
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		record, err := s.GetByRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if record.Status != models.StatusPending {
			return dErrors.New(dErrors.CodeInvalidState, "payment can only be approved from Pending").
				WithDetail("status", string(record.Status))
		}
		record.Status = models.StatusApproved
		record.UpdatedAt = requestcontext.Now(ctx)
		if err := s.records.Update(ctx, record); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "persist payment record")
		}
		result = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// MarkPaid settles the record. Requires Approved status and a non-empty
// payment date and reference.
func (s *Service) MarkPaid(ctx context.Context, requestID domain.RequestID, paymentDate time.Time, reference string) (*models.Record, error) {
	if paymentDate.IsZero() || reference == "" {
		return nil, dErrors.New(dErrors.CodeIncompletePaymentDetails, "payment date and reference are required")
	}
	var result *models.Record
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		record, err := s.GetByRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if record.Status != models.StatusApproved {
			return dErrors.New(dErrors.CodeInvalidState, "payment can only be settled from Approved").
				WithDetail("status", string(record.Status))
		}
		record.Status = models.StatusPaid
		record.PaymentDate = &paymentDate
		record.Reference = reference
		record.UpdatedAt = requestcontext.Now(ctx)
		if err := s.records.Update(ctx, record); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "persist payment record")
		}
		result = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "payment settled",
		slog.String("request_id", requestID.String()),
		slog.String("reference", reference))
	return result, nil
}

// CheckSettled is the Completed transition guard: the parent request may
// only complete when payment has settled, unless the request type does not
// require payment at all.
func (s *Service) CheckSettled(ctx context.Context, requestID domain.RequestID, requestType domain.RequestType) error {
	if !s.cfg.PaymentRequired(requestType) {
		return nil
	}
	record, err := s.records.GetByRequest(ctx, requestID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeInvalidState, "payment has not been initialized for this request")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "load payment record")
	}
	if !record.Settled() {
		return dErrors.New(dErrors.CodeInvalidState, "payment has not been settled").
			WithDetail("payment_status", string(record.Status))
	}
	return nil
}

// Package service implements the information-request sub-workflow. Each
// operation pairs an RFI record change with the matching parent-request
// transition; the pairing is atomic because the record change runs as an
// effect inside the transition's unit of work.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"caseflow/internal/calendar"
	"caseflow/internal/platform/config"
	"caseflow/internal/rfi/models"
	"caseflow/internal/rfi/store"
	wfmodels "caseflow/internal/workflow/models"
	wfservice "caseflow/internal/workflow/service"
	"caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/platform/sentinel"
	"caseflow/pkg/requestcontext"
)

// Service runs RFI cycles against the workflow engine.
type Service struct {
	rfis      store.RFIStore
	workflow  *wfservice.Service
	calendars *calendar.Service
	cfg       config.Workflow

	logger *slog.Logger
	tracer trace.Tracer
}

// Option configures optional service collaborators.
type Option func(*Service)

func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.logger = l } }

// New constructs the RFI service.
func New(rfis store.RFIStore, workflow *wfservice.Service, calendars *calendar.Service, cfg config.Workflow, opts ...Option) *Service {
	s := &Service{
		rfis:      rfis,
		workflow:  workflow,
		calendars: calendars,
		cfg:       cfg,
		logger:    slog.Default(),
		tracer:    otel.Tracer("caseflow/rfi"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue opens a new RFI cycle: creates the Issued record and moves the
// parent request to RFIIssued, which opens the clock exclusion period.
//
// Issuing is only meaningful while the request is actively being processed;
// any other state fails with CodeInvalidState before the transition is even
// attempted. A still-open RFI fails with CodeConflictingRFI: cycles are
// sequential, never concurrent.
func (s *Service) Issue(ctx context.Context, requestID domain.RequestID, questions []string) (*models.InformationRequest, error) {
	ctx, span := s.tracer.Start(ctx, "rfi.Issue", trace.WithAttributes(
		attribute.String("request.id", requestID.String()),
	))
	defer span.End()

	if len(questions) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one question is required")
	}
	actor, ok := requestcontext.Actor(ctx)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "no authenticated actor")
	}

	req, err := s.workflow.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.State != wfmodels.StateProcessing {
		return nil, dErrors.New(dErrors.CodeInvalidState,
			fmt.Sprintf("an RFI can only be issued while the request is in %s", wfmodels.StateProcessing)).
			WithDetail("state", string(req.State))
	}

	// Calendar I/O for the response deadline happens out here, before the
	// workflow engine takes the per-request lock.
	cal, err := s.calendars.Resolve(ctx, req.Council)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "resolve council calendar")
	}
	now := requestcontext.Now(ctx)

	rfi := &models.InformationRequest{
		ID:               domain.NewRFIID(),
		RequestID:        requestID,
		Questions:        questions,
		Status:           models.StatusIssued,
		IssuedBy:         actor.ID,
		IssuedDate:       now,
		ResponseDeadline: cal.AddWorkingDays(now, s.cfg.RFIResponseWindowDays),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	_, _, err = s.workflow.Transition(ctx, wfservice.TransitionInput{
		RequestID: requestID,
		Target:    wfmodels.StateRFIIssued,
		Comment:   "information request issued",
		Metadata:  map[string]string{"rfi_id": rfi.ID.String()},
		Effects: []func(ctx context.Context) error{
			func(ctx context.Context) error {
				if _, err := s.rfis.FindOpen(ctx, requestID); err == nil {
					return dErrors.New(dErrors.CodeConflictingRFI, "an information request is already awaiting a response")
				} else if !errors.Is(err, sentinel.ErrNotFound) {
					return dErrors.Wrap(err, dErrors.CodeInternal, "check open information request")
				}
				if err := s.rfis.Create(ctx, rfi); err != nil {
					if errors.Is(err, sentinel.ErrConflict) {
						return dErrors.Wrap(err, dErrors.CodeConflictingRFI, "an information request is already awaiting a response")
					}
					return dErrors.Wrap(err, dErrors.CodeInternal, "create information request")
				}
				return nil
			},
		},
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "rfi issued",
		slog.String("request_id", requestID.String()),
		slog.String("rfi_id", rfi.ID.String()),
		slog.Time("response_deadline", rfi.ResponseDeadline))
	return rfi, nil
}

// ReceiveResponse records the applicant's response and moves the parent
// request to RFIReceived, which closes the exclusion period opened by this
// cycle's issuance.
func (s *Service) ReceiveResponse(ctx context.Context, rfiID domain.RFIID, response string) (*models.InformationRequest, error) {
	rfi, err := s.rfis.Get(ctx, rfiID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "information request not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load information request")
	}
	if !rfi.IsOpen() {
		return nil, dErrors.New(dErrors.CodeInvalidState, "information request is not awaiting a response").
			WithDetail("status", string(rfi.Status))
	}

	var updated *models.InformationRequest
	_, _, err = s.workflow.Transition(ctx, wfservice.TransitionInput{
		RequestID: rfi.RequestID,
		Target:    wfmodels.StateRFIReceived,
		Comment:   "information request response received",
		Metadata:  map[string]string{"rfi_id": rfi.ID.String()},
		Effects: []func(ctx context.Context) error{
			func(ctx context.Context) error {
				current, err := s.rfis.Get(ctx, rfiID)
				if err != nil {
					return dErrors.Wrap(err, dErrors.CodeInternal, "reload information request")
				}
				if !current.IsOpen() {
					return dErrors.New(dErrors.CodeInvalidState, "information request is not awaiting a response")
				}
				now := requestcontext.Now(ctx)
				current.Status = models.StatusReceived
				current.ReceivedDate = &now
				current.Response = response
				current.UpdatedAt = now
				if err := s.rfis.Update(ctx, current); err != nil {
					return dErrors.Wrap(err, dErrors.CodeInternal, "persist information request")
				}
				updated = current
				return nil
			},
		},
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ResumeProcessing moves the parent request from RFIReceived back to
// Processing once staff have reviewed the response.
func (s *Service) ResumeProcessing(ctx context.Context, requestID domain.RequestID) error {
	_, _, err := s.workflow.Transition(ctx, wfservice.TransitionInput{
		RequestID: requestID,
		Target:    wfmodels.StateProcessing,
		Comment:   "processing resumed after information request",
	})
	return err
}

// ListByRequest returns the request's RFI cycles in issuance order.
func (s *Service) ListByRequest(ctx context.Context, requestID domain.RequestID) ([]*models.InformationRequest, error) {
	rfis, err := s.rfis.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list information requests")
	}
	return rfis, nil
}

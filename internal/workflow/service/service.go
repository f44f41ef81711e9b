// Package service implements the request workflow engine: state transitions,
// the working-day SLA clock, and the guards and hooks other modules attach
// to transitions.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"caseflow/internal/calendar"
	"caseflow/internal/platform/config"
	"caseflow/internal/platform/metrics"
	"caseflow/internal/sla"
	slastore "caseflow/internal/sla/store"
	"caseflow/internal/workflow/models"
	"caseflow/internal/workflow/store"
	"caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/platform/sentinel"
	"caseflow/pkg/platform/tx"
	"caseflow/pkg/requestcontext"
)

// Guard vetoes a transition into its registered target state. Guards run
// inside the transaction, after adjacency and role checks, before any state
// is written.
type Guard interface {
	Check(ctx context.Context, req *models.Request) error
}

// GuardFunc adapts a function to the Guard interface.
type GuardFunc func(ctx context.Context, req *models.Request) error

func (f GuardFunc) Check(ctx context.Context, req *models.Request) error { return f(ctx, req) }

// Hook runs inside the transaction after the request has moved into the
// hook's registered target state. A hook error rolls the whole transition
// back.
type Hook interface {
	OnEnter(ctx context.Context, req *models.Request, from models.State) error
}

// HookFunc adapts a function to the Hook interface.
type HookFunc func(ctx context.Context, req *models.Request, from models.State) error

func (f HookFunc) OnEnter(ctx context.Context, req *models.Request, from models.State) error {
	return f(ctx, req, from)
}

// AuditPublisher receives applied transitions after commit. Publishing is
// fire-and-forget: a failed publish never fails the transition.
type AuditPublisher interface {
	TransitionApplied(ctx context.Context, req *models.Request, entry *models.StatusHistoryEntry)
}

// Service orchestrates the request lifecycle.
type Service struct {
	requests   store.RequestStore
	history    store.HistoryStore
	exclusions slastore.ExclusionStore
	calendars  *calendar.Service
	runner     tx.Runner
	cfg        config.Workflow

	locks  *requestLocks
	guards map[models.State][]Guard
	hooks  map[models.State][]Hook

	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   AuditPublisher
	tracer  trace.Tracer
}

// Option configures optional service collaborators.
type Option func(*Service)

func WithLogger(l *slog.Logger) Option           { return func(s *Service) { s.logger = l } }
func WithMetrics(m *metrics.Metrics) Option      { return func(s *Service) { s.metrics = m } }
func WithAuditPublisher(p AuditPublisher) Option { return func(s *Service) { s.audit = p } }

// New constructs the workflow service.
func New(requests store.RequestStore, history store.HistoryStore, exclusions slastore.ExclusionStore, calendars *calendar.Service, runner tx.Runner, cfg config.Workflow, opts ...Option) *Service {
	s := &Service{
		requests:   requests,
		history:    history,
		exclusions: exclusions,
		calendars:  calendars,
		runner:     runner,
		cfg:        cfg,
		locks:      newRequestLocks(),
		guards:     make(map[models.State][]Guard),
		hooks:      make(map[models.State][]Hook),
		logger:     slog.Default(),
		tracer:     otel.Tracer("caseflow/workflow"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterGuard attaches a guard to transitions into target.
func (s *Service) RegisterGuard(target models.State, g Guard) {
	s.guards[target] = append(s.guards[target], g)
}

// RegisterHook attaches a hook to transitions into target.
func (s *Service) RegisterHook(target models.State, h Hook) {
	s.hooks[target] = append(s.hooks[target], h)
}

// CreateRequestInput carries the fields a new draft needs.
type CreateRequestInput struct {
	Type        domain.RequestType
	Council     domain.Council
	Title       string
	ApplicantID string
}

// CreateRequest opens a new request in Draft.
func (s *Service) CreateRequest(ctx context.Context, input CreateRequestInput) (*models.Request, error) {
	if input.Type == "" || input.Council == "" || input.ApplicantID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "type, council and applicantId are required")
	}
	now := requestcontext.Now(ctx)
	req := &models.Request{
		ID:           domain.NewRequestID(),
		Type:         input.Type,
		Council:      input.Council,
		Title:        input.Title,
		ApplicantID:  input.ApplicantID,
		State:        models.StateDraft,
		DeadlineDays: s.cfg.DeadlineFor(input.Type),
		SLABand:      sla.BandGreen,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create request")
	}
	s.logger.InfoContext(ctx, "request created",
		slog.String("request_id", req.ID.String()),
		slog.String("type", string(req.Type)),
		slog.String("council", string(req.Council)))
	return req, nil
}

// GetRequest loads a request by ID.
func (s *Service) GetRequest(ctx context.Context, id domain.RequestID) (*models.Request, error) {
	req, err := s.requests.Get(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "request not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load request")
	}
	return req, nil
}

// ListHistory returns the request's status history in order.
func (s *Service) ListHistory(ctx context.Context, id domain.RequestID) ([]*models.StatusHistoryEntry, error) {
	if _, err := s.GetRequest(ctx, id); err != nil {
		return nil, err
	}
	entries, err := s.history.ListByRequest(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load history")
	}
	return entries, nil
}

// LegalTransition describes one reachable target and who may take it.
type LegalTransition struct {
	Target       models.State
	RequiredRole domain.Role
}

// LegalTransitions returns the targets adjacent to the request's current
// state. Guards are not evaluated here; a listed target can still be vetoed
// when attempted.
func (s *Service) LegalTransitions(ctx context.Context, id domain.RequestID) ([]LegalTransition, error) {
	req, err := s.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	next := req.State.NextStates()
	out := make([]LegalTransition, len(next))
	for i, target := range next {
		out[i] = LegalTransition{Target: target, RequiredRole: models.RequiredRole(target)}
	}
	return out, nil
}

// SLASnapshot computes the request's SLA position fresh from the calendar
// and exclusion periods as of now. The stored derived fields are only as
// current as the last transition; reads recompute.
func (s *Service) SLASnapshot(ctx context.Context, id domain.RequestID) (*sla.Snapshot, error) {
	req, err := s.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.AcknowledgedDate == nil {
		return nil, dErrors.New(dErrors.CodeInvalidState, "request has not been acknowledged; the clock has not started")
	}
	cal, err := s.calendars.Resolve(ctx, req.Council)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "resolve council calendar")
	}
	exclusions, err := s.exclusions.ListByRequest(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load exclusion periods")
	}
	snap := sla.Compute(cal, *req.AcknowledgedDate, req.DeadlineDays, exclusions, requestcontext.Now(ctx))
	return &snap, nil
}

// TransitionInput carries a transition command. Effects run inside the same
// transaction as the state change, after hooks; callers use them to make a
// companion write (an RFI record, a payment update) atomic with the
// transition.
type TransitionInput struct {
	RequestID domain.RequestID
	Target    models.State
	Comment   string
	Metadata  map[string]string
	Effects   []func(ctx context.Context) error
}

// Transition moves a request to the target state and returns the moved
// request together with the status history entry the move appended, so
// callers can correlate the transition with its audit record. The whole unit
// of work is atomic: validation, guards, the state write, SLA recomputation,
// clock exclusion bookkeeping, the history append, hooks and caller effects
// all commit together or not at all.
//
// Concurrent transitions on the same request are serialized by a per-request
// lock; a lost optimistic-version race is retried up to the configured
// attempt budget before surfacing CodeConcurrentModification.
func (s *Service) Transition(ctx context.Context, input TransitionInput) (*models.Request, *models.StatusHistoryEntry, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.Transition", trace.WithAttributes(
		attribute.String("request.id", input.RequestID.String()),
		attribute.String("transition.target", string(input.Target)),
	))
	defer span.End()

	actor, ok := requestcontext.Actor(ctx)
	if !ok {
		return nil, nil, dErrors.New(dErrors.CodeUnauthorized, "no authenticated actor")
	}
	if !input.Target.IsValid() {
		return nil, nil, dErrors.New(dErrors.CodeInvalidInput, "unknown target state").
			WithDetail("target", string(input.Target))
	}

	// Calendar resolution is provider I/O. Do it before taking the
	// per-request lock; day arithmetic inside the critical section is pure.
	loaded, err := s.GetRequest(ctx, input.RequestID)
	if err != nil {
		return nil, nil, err
	}
	cal, err := s.calendars.Resolve(ctx, loaded.Council)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "resolve council calendar")
	}

	release := s.locks.Acquire(input.RequestID)
	defer release()

	start := time.Now()
	attempts := s.cfg.MaxTxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var (
		result *models.Request
		entry  *models.StatusHistoryEntry
		from   models.State
	)
	for attempt := 1; ; attempt++ {
		result, entry, from, err = s.runTransition(ctx, cal, actor, input)
		if err == nil {
			break
		}
		if errors.Is(err, sentinel.ErrVersionMismatch) && attempt < attempts {
			s.logger.WarnContext(ctx, "transition lost version race, retrying",
				slog.String("request_id", input.RequestID.String()),
				slog.Int("attempt", attempt))
			continue
		}
		if errors.Is(err, sentinel.ErrVersionMismatch) {
			err = dErrors.Wrap(err, dErrors.CodeConcurrentModification,
				fmt.Sprintf("transition abandoned after %d attempts", attempts))
		}
		s.metrics.ObserveTransition(string(loaded.State), string(input.Target), "failure", time.Since(start))
		span.RecordError(err)
		return nil, nil, err
	}

	s.metrics.ObserveTransition(string(from), string(result.State), "success", time.Since(start))
	s.metrics.ObserveSLABand(string(result.SLABand))
	if result.State == models.StateRFIIssued {
		s.metrics.IncRFICycles()
	}
	s.logger.InfoContext(ctx, "transition applied",
		slog.String("request_id", result.ID.String()),
		slog.String("from", string(from)),
		slog.String("to", string(result.State)),
		slog.String("actor_id", actor.ID))
	if s.audit != nil {
		s.audit.TransitionApplied(ctx, result, entry)
	}
	return result, entry, nil
}

// runTransition executes a single transactional transition attempt.
func (s *Service) runTransition(ctx context.Context, cal *calendar.Calendar, actor domain.Actor, input TransitionInput) (*models.Request, *models.StatusHistoryEntry, models.State, error) {
	var (
		result *models.Request
		entry  *models.StatusHistoryEntry
		from   models.State
	)
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		req, err := s.requests.Get(ctx, input.RequestID)
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "request not found")
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "load request")
		}
		from = req.State

		if err := s.validate(req, input.Target, actor); err != nil {
			return err
		}
		for _, g := range s.guards[input.Target] {
			if err := g.Check(ctx, req); err != nil {
				return err
			}
		}

		now := requestcontext.Now(ctx)
		if err := s.applyClockRules(ctx, cal, req, input.Target, now); err != nil {
			return err
		}

		req.State = input.Target
		req.UpdatedAt = now
		if err := s.requests.Update(ctx, req); err != nil {
			if errors.Is(err, sentinel.ErrVersionMismatch) {
				return err
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "persist request")
		}

		entry = &models.StatusHistoryEntry{
			ID:        domain.NewHistoryEntryID(),
			RequestID: req.ID,
			FromState: from,
			ToState:   input.Target,
			ActorID:   actor.ID,
			Comment:   input.Comment,
			Metadata:  input.Metadata,
			CreatedAt: now,
		}
		if err := s.history.Append(ctx, entry); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "append history")
		}

		for _, h := range s.hooks[input.Target] {
			if err := h.OnEnter(ctx, req, from); err != nil {
				return err
			}
		}
		for _, effect := range input.Effects {
			if err := effect(ctx); err != nil {
				return err
			}
		}
		result = req
		return nil
	})
	return result, entry, from, err
}

// validate enforces adjacency and role requirements. Order matters: an
// illegal transition reads as invalid even to a caller lacking the role for
// it.
func (s *Service) validate(req *models.Request, target models.State, actor domain.Actor) error {
	if req.State.IsTerminal() {
		return dErrors.New(dErrors.CodeInvalidTransition, "request is in a terminal state").
			WithDetail("request_id", req.ID.String()).
			WithDetail("state", string(req.State))
	}
	if !req.State.CanTransitionTo(target) {
		return dErrors.New(dErrors.CodeInvalidTransition,
			fmt.Sprintf("cannot transition from %s to %s", req.State, target)).
			WithDetail("request_id", req.ID.String()).
			WithDetail("from", string(req.State)).
			WithDetail("to", string(target))
	}
	if required := models.RequiredRole(target); !actor.HasRole(required) {
		return dErrors.New(dErrors.CodePermissionDenied,
			fmt.Sprintf("transition to %s requires the %s role", target, required)).
			WithDetail("request_id", req.ID.String()).
			WithDetail("required_role", string(required))
	}
	return nil
}

// applyClockRules starts the clock on acknowledgment, opens and closes
// exclusion periods around paused states, and recomputes the derived SLA
// fields. Runs before the state field changes so req.State is still the
// source state.
func (s *Service) applyClockRules(ctx context.Context, cal *calendar.Calendar, req *models.Request, target models.State, now time.Time) error {
	if target == models.StateAcknowledged && req.AcknowledgedDate == nil {
		ack := calendar.DateOnly(now)
		req.AcknowledgedDate = &ack
		req.DeadlineDays = s.cfg.DeadlineFor(req.Type)
	}

	wasPaused := pausedState(req.State)
	willPause := pausedState(target)

	if wasPaused && !willPause {
		if _, err := s.exclusions.CloseOpen(ctx, req.ID, calendar.DateOnly(now)); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "close exclusion period")
		}
	}
	if !wasPaused && willPause {
		period := &sla.ExclusionPeriod{
			ID:        uuid.New(),
			RequestID: req.ID,
			Reason:    exclusionReason(target),
			StartDate: calendar.DateOnly(now),
		}
		if err := s.exclusions.Open(ctx, period); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.Wrap(err, dErrors.CodeInvariantViolation, "an exclusion period is already open")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "open exclusion period")
		}
	}

	if req.AcknowledgedDate == nil {
		return nil
	}
	exclusions, err := s.exclusions.ListByRequest(ctx, req.ID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "load exclusion periods")
	}
	req.ApplySnapshot(sla.Compute(cal, *req.AcknowledgedDate, req.DeadlineDays, exclusions, now))
	return nil
}

func pausedState(s models.State) bool {
	return s == models.StateRFIIssued || s == models.StateOnHold
}

func exclusionReason(target models.State) sla.ExclusionReason {
	if target == models.StateOnHold {
		return sla.ReasonHold
	}
	return sla.ReasonRFI
}

// Package service implements the assessment engine operations: instantiation
// from templates, task progression, and the cost rollup.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Rhymond/go-money"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"caseflow/internal/assessment"
	"caseflow/internal/assessment/models"
	"caseflow/internal/assessment/store"
	"caseflow/internal/platform/metrics"
	"caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/platform/sentinel"
	"caseflow/pkg/platform/tx"
	"caseflow/pkg/requestcontext"
)

// Service runs the assessment engine.
type Service struct {
	projects  store.ProjectStore
	tasks     store.TaskStore
	templates assessment.TemplateStore
	rates     assessment.RateCard
	runner    tx.Runner

	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// Option configures optional service collaborators.
type Option func(*Service)

func WithLogger(l *slog.Logger) Option      { return func(s *Service) { s.logger = l } }
func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }

// New constructs the assessment service.
func New(projects store.ProjectStore, tasks store.TaskStore, templates assessment.TemplateStore, rates assessment.RateCard, runner tx.Runner, opts ...Option) *Service {
	s := &Service{
		projects:  projects,
		tasks:     tasks,
		templates: templates,
		rates:     rates,
		runner:    runner,
		logger:    slog.Default(),
		tracer:    otel.Tracer("caseflow/assessment"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateForRequest instantiates the assessment for a freshly acknowledged
// request: one project with the template's stages (ordered, Pending) and one
// task per template row with the hourly rate resolved from the rate card.
//
// Called from the acknowledgment transition hook, so it runs inside the
// transition's unit of work. A missing template fails the whole transition
// with CodeNoTemplateConfigured; acknowledgment without an assessment is
// never allowed to slip through.
func (s *Service) CreateForRequest(ctx context.Context, requestID domain.RequestID, requestType domain.RequestType, council domain.Council) error {
	set, err := s.templates.Resolve(ctx, requestType, council)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNoTemplateConfigured,
			fmt.Sprintf("no assessment template configured for %s in %s", requestType, council)).
			WithDetail("request_type", string(requestType)).
			WithDetail("council", string(council))
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "resolve assessment template")
	}

	now := requestcontext.Now(ctx)
	project := &models.Project{
		ID:            domain.NewAssessmentID(),
		RequestID:     requestID,
		TemplateID:    set.ID,
		Stages:        make([]models.Stage, len(set.Stages)),
		BudgetedHours: set.BudgetedHours(),
		OverallStatus: models.ProjectInProgress,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for i, st := range set.Stages {
		project.Stages[i] = models.Stage{
			Sequence:            st.Sequence,
			Name:                st.Name,
			Status:              models.StagePending,
			RequiredForDecision: st.RequiredForDecision,
		}
	}
	if err := s.projects.Create(ctx, project); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.Wrap(err, dErrors.CodeInvariantViolation, "request already has an assessment")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "create assessment")
	}

	for _, tt := range set.Tasks {
		task := &models.Task{
			ID:             domain.NewTaskID(),
			AssessmentID:   project.ID,
			RequestID:      requestID,
			StageSequence:  tt.StageSequence,
			Code:           tt.Code,
			Name:           tt.Name,
			Status:         models.TaskPending,
			EstimatedHours: tt.EstimatedHours,
			HourlyRate:     s.rates.RateFor(tt.Role),
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.tasks.Create(ctx, task); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "create task")
		}
	}

	s.logger.InfoContext(ctx, "assessment created",
		slog.String("request_id", requestID.String()),
		slog.String("assessment_id", project.ID.String()),
		slog.String("template_id", set.ID),
		slog.Int("stages", len(project.Stages)),
		slog.Int("tasks", len(set.Tasks)))
	return nil
}

// GetByRequest returns the request's assessment with its tasks.
func (s *Service) GetByRequest(ctx context.Context, requestID domain.RequestID) (*models.Project, []*models.Task, error) {
	project, err := s.projects.GetByRequest(ctx, requestID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil, dErrors.New(dErrors.CodeNotFound, "no assessment for request")
	}
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "load assessment")
	}
	tasks, err := s.tasks.ListByAssessment(ctx, project.ID)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "load tasks")
	}
	return project, tasks, nil
}

// CheckDecisionReady is the PendingDecision transition guard: the parent
// request cannot move to decision while any requiredForDecision stage is
// incomplete.
func (s *Service) CheckDecisionReady(ctx context.Context, requestID domain.RequestID) error {
	project, err := s.projects.GetByRequest(ctx, requestID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeAssessmentIncomplete, "request has no assessment")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "load assessment")
	}
	if project.OverallStatus != models.ProjectComplete {
		incomplete := make([]string, 0, len(project.Stages))
		for _, stage := range project.Stages {
			if stage.RequiredForDecision && stage.Status != models.StageComplete {
				incomplete = append(incomplete, stage.Name)
			}
		}
		return dErrors.New(dErrors.CodeAssessmentIncomplete, "assessment has incomplete required stages").
			WithDetail("incomplete_stages", fmt.Sprintf("%v", incomplete))
	}
	return nil
}

// RecordTaskTime books hours against a task and recomputes the assessment
// rollup in the same unit of work.
func (s *Service) RecordTaskTime(ctx context.Context, taskID domain.TaskID, hours float64) (*models.Task, error) {
	ctx, span := s.tracer.Start(ctx, "assessment.RecordTaskTime", trace.WithAttributes(
		attribute.String("task.id", taskID.String()),
		attribute.Float64("task.hours", hours),
	))
	defer span.End()

	if hours <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "hours must be positive")
	}

	var result *models.Task
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		task, err := s.loadTask(ctx, taskID)
		if err != nil {
			return err
		}
		if task.Status.IsTerminal() {
			return dErrors.New(dErrors.CodeInvalidState, "cannot record time against a terminal task").
				WithDetail("status", string(task.Status))
		}
		now := requestcontext.Now(ctx)
		task.ActualHours += hours
		task.TotalCost = models.Cost(task.ActualHours, task.HourlyRate)
		if task.Status == models.TaskPending {
			task.Status = models.TaskInProgress
		}
		task.UpdatedAt = now
		if err := s.tasks.Update(ctx, task); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "persist task")
		}
		if err := s.rollup(ctx, task.AssessmentID, now); err != nil {
			return err
		}
		result = task
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return result, nil
}

// CompleteTask moves a task to Completed and cascades stage and overall
// completion.
func (s *Service) CompleteTask(ctx context.Context, taskID domain.TaskID) (*models.Task, error) {
	task, err := s.finishTask(ctx, taskID, models.TaskCompleted)
	if err != nil {
		return nil, err
	}
	s.metrics.IncTasksCompleted()
	return task, nil
}

// CancelTask strikes a task off. Cancelled counts as terminal for stage
// completion just like Completed.
func (s *Service) CancelTask(ctx context.Context, taskID domain.TaskID) (*models.Task, error) {
	return s.finishTask(ctx, taskID, models.TaskCancelled)
}

// AssignTask sets the task's assignee.
func (s *Service) AssignTask(ctx context.Context, taskID domain.TaskID, assignee string) (*models.Task, error) {
	if assignee == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "assignee is required")
	}
	var result *models.Task
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		task, err := s.loadTask(ctx, taskID)
		if err != nil {
			return err
		}
		if task.Status.IsTerminal() {
			return dErrors.New(dErrors.CodeInvalidState, "cannot assign a terminal task").
				WithDetail("status", string(task.Status))
		}
		task.AssignedTo = assignee
		task.UpdatedAt = requestcontext.Now(ctx)
		if err := s.tasks.Update(ctx, task); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "persist task")
		}
		result = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) finishTask(ctx context.Context, taskID domain.TaskID, status models.TaskStatus) (*models.Task, error) {
	var result *models.Task
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		task, err := s.loadTask(ctx, taskID)
		if err != nil {
			return err
		}
		if task.Status.IsTerminal() {
			return dErrors.New(dErrors.CodeInvalidState, "task already terminal").
				WithDetail("status", string(task.Status))
		}
		now := requestcontext.Now(ctx)
		task.Status = status
		task.UpdatedAt = now
		if err := s.tasks.Update(ctx, task); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "persist task")
		}
		if err := s.rollup(ctx, task.AssessmentID, now); err != nil {
			return err
		}
		result = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "task finished",
		slog.String("task_id", taskID.String()),
		slog.String("status", string(status)))
	return result, nil
}

func (s *Service) loadTask(ctx context.Context, taskID domain.TaskID) (*models.Task, error) {
	task, err := s.tasks.Get(ctx, taskID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "task not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load task")
	}
	return task, nil
}

// rollup recomputes the assessment's derived totals and stage statuses from
// its tasks. Recomputation is eager and idempotent: it always rebuilds the
// totals from scratch, so re-running it on unchanged inputs yields identical
// values.
func (s *Service) rollup(ctx context.Context, assessmentID domain.AssessmentID, now time.Time) error {
	project, err := s.projects.Get(ctx, assessmentID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "assessment not found")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "load assessment")
	}
	tasks, err := s.tasks.ListByAssessment(ctx, assessmentID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "load tasks")
	}

	var totalHours float64
	var totalCostMinor int64
	stageOpen := make(map[int]bool)
	stageStarted := make(map[int]bool)
	for _, task := range tasks {
		totalHours += task.ActualHours
		if task.TotalCost != nil {
			totalCostMinor += task.TotalCost.Amount()
		}
		if !task.Status.IsTerminal() {
			stageOpen[task.StageSequence] = true
		}
		if task.Status != models.TaskPending {
			stageStarted[task.StageSequence] = true
		}
	}

	for i := range project.Stages {
		seq := project.Stages[i].Sequence
		switch {
		case !stageOpen[seq]:
			project.Stages[i].Status = models.StageComplete
		case stageStarted[seq]:
			project.Stages[i].Status = models.StageInProgress
		default:
			project.Stages[i].Status = models.StagePending
		}
	}

	project.ActualHours = totalHours
	project.ActualCost = money.New(totalCostMinor, s.rates.Currency())
	if project.DecisionReady() {
		project.OverallStatus = models.ProjectComplete
	} else {
		project.OverallStatus = models.ProjectInProgress
	}
	project.UpdatedAt = now

	if err := s.projects.Update(ctx, project); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "persist assessment")
	}
	return nil
}

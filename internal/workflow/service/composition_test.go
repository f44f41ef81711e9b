package service

import (
	"context"
	"testing"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseflow/internal/assessment"
	assessmentservice "caseflow/internal/assessment/service"
	assessmentstore "caseflow/internal/assessment/store"
	"caseflow/internal/calendar"
	paymentmodels "caseflow/internal/payment/models"
	paymentservice "caseflow/internal/payment/service"
	paymentstore "caseflow/internal/payment/store"
	slastore "caseflow/internal/sla/store"
	"caseflow/internal/workflow/models"
	"caseflow/internal/workflow/store"
	"caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/platform/tx"
)

// compositionFixture wires real assessment and payment services into the
// workflow engine through the same guards and hooks the server registers, so
// the cross-module behavior is tested as one unit of work over shared
// memory stores.
type compositionFixture struct {
	workflow    *Service
	assessments *assessmentservice.Service
	payments    *paymentservice.Service
}

func newCompositionFixture() *compositionFixture {
	requests := store.NewMemoryRequestStore()
	history := store.NewMemoryHistoryStore()
	exclusions := slastore.NewMemory()
	projects := assessmentstore.NewMemoryProjectStore()
	tasks := assessmentstore.NewMemoryTaskStore()
	records := paymentstore.NewMemoryRecordStore()
	runner := tx.NewMemoryRunner(requests, history, exclusions, projects, tasks, records)

	templates := assessment.NewMemoryTemplateStore()
	templates.Register("building-consent", "northshore", &assessment.TemplateSet{
		ID: "building-consent-v1",
		Stages: []assessment.StageTemplate{
			{Sequence: 1, Name: "Vetting", RequiredForDecision: true},
			{Sequence: 2, Name: "Technical Review", RequiredForDecision: true},
		},
		Tasks: []assessment.TaskTemplate{
			{Code: "VET-01", Name: "Completeness check", StageSequence: 1, Role: domain.RoleStaff, EstimatedHours: 2},
			{Code: "TEC-01", Name: "Structural review", StageSequence: 2, Role: domain.RoleManager, EstimatedHours: 1},
		},
	})
	rates := assessment.NewRateCard(map[domain.Role]int64{
		domain.RoleStaff:   9500,
		domain.RoleManager: 14000,
	}, money.NZD)
	assessments := assessmentservice.New(projects, tasks, templates, rates, runner)
	payments := paymentservice.New(records, runner, testConfig())

	calendars := calendar.NewService(calendar.NewStaticProvider(nil))
	workflow := New(requests, history, exclusions, calendars, runner, testConfig())

	workflow.RegisterHook(models.StateAcknowledged, HookFunc(
		func(ctx context.Context, req *models.Request, _ models.State) error {
			return assessments.CreateForRequest(ctx, req.ID, req.Type, req.Council)
		}))
	workflow.RegisterGuard(models.StatePendingDecision, GuardFunc(
		func(ctx context.Context, req *models.Request) error {
			return assessments.CheckDecisionReady(ctx, req.ID)
		}))
	initPayment := HookFunc(func(ctx context.Context, req *models.Request, _ models.State) error {
		var amount *money.Money
		if project, _, err := assessments.GetByRequest(ctx, req.ID); err == nil {
			amount = project.ActualCost
		}
		return payments.InitializeForRequest(ctx, req.ID, amount)
	})
	workflow.RegisterHook(models.StateApproved, initPayment)
	workflow.RegisterHook(models.StateApprovedWithConditions, initPayment)
	workflow.RegisterGuard(models.StateCompleted, GuardFunc(
		func(ctx context.Context, req *models.Request) error {
			return payments.CheckSettled(ctx, req.ID, req.Type)
		}))

	return &compositionFixture{workflow: workflow, assessments: assessments, payments: payments}
}

func TestAssessmentAndPaymentComposition(t *testing.T) {
	f := newCompositionFixture()
	ctx := managerCtx(t)

	req, err := f.workflow.CreateRequest(ctx, CreateRequestInput{
		Type:        "building-consent",
		Council:     "northshore",
		Title:       "New carport",
		ApplicantID: "applicant-1",
	})
	require.NoError(t, err)
	for _, target := range []models.State{models.StateSubmitted, models.StateAcknowledged, models.StateProcessing} {
		req, _, err = f.workflow.Transition(ctx, TransitionInput{RequestID: req.ID, Target: target})
		require.NoError(t, err)
	}

	t.Run("acknowledgment instantiated the assessment", func(t *testing.T) {
		project, tasks, err := f.assessments.GetByRequest(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, "building-consent-v1", project.TemplateID)
		require.Len(t, tasks, 2)
	})

	t.Run("decision is blocked while required stages are open", func(t *testing.T) {
		_, _, err := f.workflow.Transition(ctx, TransitionInput{RequestID: req.ID, Target: models.StatePendingDecision})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAssessmentIncomplete))

		got, err := f.workflow.GetRequest(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StateProcessing, got.State, "the vetoed transition left no trace")
		entries, err := f.workflow.ListHistory(ctx, req.ID)
		require.NoError(t, err)
		assert.Len(t, entries, 3)
	})

	t.Run("completing the required tasks unblocks the decision", func(t *testing.T) {
		_, tasks, err := f.assessments.GetByRequest(ctx, req.ID)
		require.NoError(t, err)
		for _, task := range tasks {
			_, err := f.assessments.RecordTaskTime(ctx, task.ID, 2)
			require.NoError(t, err)
			_, err = f.assessments.CompleteTask(ctx, task.ID)
			require.NoError(t, err)
		}

		req, _, err = f.workflow.Transition(ctx, TransitionInput{RequestID: req.ID, Target: models.StatePendingDecision})
		require.NoError(t, err)
		assert.Equal(t, models.StatePendingDecision, req.State)
	})

	t.Run("approval opens the payment at the assessed cost", func(t *testing.T) {
		req, _, err = f.workflow.Transition(ctx, TransitionInput{RequestID: req.ID, Target: models.StateApproved})
		require.NoError(t, err)

		record, err := f.payments.GetByRequest(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, paymentmodels.StatusPending, record.Status)
		require.NotNil(t, record.Amount)
		assert.Equal(t, int64(2*9500+2*14000), record.Amount.Amount(), "two booked hours per rate")
	})

	t.Run("completion is blocked until the payment settles", func(t *testing.T) {
		_, _, err := f.workflow.Transition(ctx, TransitionInput{RequestID: req.ID, Target: models.StateCompleted})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
		assert.Equal(t, "Pending", dErrors.DetailsOf(err)["payment_status"])

		_, err = f.payments.MarkApproved(ctx, req.ID)
		require.NoError(t, err)
		_, err = f.payments.MarkPaid(ctx, req.ID, time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC), "INV-2025-0042")
		require.NoError(t, err)

		req, _, err = f.workflow.Transition(ctx, TransitionInput{RequestID: req.ID, Target: models.StateCompleted})
		require.NoError(t, err)
		assert.True(t, req.State.IsTerminal())
	})
}

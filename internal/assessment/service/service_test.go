package service

import (
	"context"
	"testing"

	"github.com/Rhymond/go-money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseflow/internal/assessment"
	"caseflow/internal/assessment/models"
	"caseflow/internal/assessment/store"
	"caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/platform/tx"
	"caseflow/pkg/testutil"
)

type fixture struct {
	svc      *Service
	projects *store.MemoryProjectStore
	tasks    *store.MemoryTaskStore
}

func buildingConsentTemplate() *assessment.TemplateSet {
	return &assessment.TemplateSet{
		ID: "building-consent-v1",
		Stages: []assessment.StageTemplate{
			{Sequence: 1, Name: "Vetting", RequiredForDecision: true},
			{Sequence: 2, Name: "Technical Review", RequiredForDecision: true},
			{Sequence: 3, Name: "Site Notes", RequiredForDecision: false},
		},
		Tasks: []assessment.TaskTemplate{
			{Code: "VET-01", Name: "Completeness check", StageSequence: 1, Role: domain.RoleStaff, EstimatedHours: 2},
			{Code: "TEC-01", Name: "Structural review", StageSequence: 2, Role: domain.RoleStaff, EstimatedHours: 8},
			{Code: "TEC-02", Name: "Peer sign-off", StageSequence: 2, Role: domain.RoleManager, EstimatedHours: 1},
			{Code: "SIT-01", Name: "Site walkover notes", StageSequence: 3, Role: domain.RoleStaff, EstimatedHours: 3},
		},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	templates := assessment.NewMemoryTemplateStore()
	templates.Register("building-consent", "northshore", buildingConsentTemplate())

	projects := store.NewMemoryProjectStore()
	tasks := store.NewMemoryTaskStore()
	rates := assessment.NewRateCard(map[domain.Role]int64{
		domain.RoleStaff:   9500,  // 95.00/h
		domain.RoleManager: 14000, // 140.00/h
	}, money.NZD)
	runner := tx.NewMemoryRunner(projects, tasks)
	return &fixture{
		svc:      New(projects, tasks, templates, rates, runner),
		projects: projects,
		tasks:    tasks,
	}
}

// seed instantiates an assessment and returns its project and tasks.
func (f *fixture) seed(t *testing.T, ctx context.Context) (*models.Project, []*models.Task) {
	t.Helper()
	requestID := domain.NewRequestID()
	require.NoError(t, f.svc.CreateForRequest(ctx, requestID, "building-consent", "northshore"))
	project, tasks, err := f.svc.GetByRequest(ctx, requestID)
	require.NoError(t, err)
	return project, tasks
}

func taskByCode(t *testing.T, tasks []*models.Task, code string) *models.Task {
	t.Helper()
	for _, task := range tasks {
		if task.Code == code {
			return task
		}
	}
	t.Fatalf("no task with code %s", code)
	return nil
}

func TestCreateForRequest(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx(t, "officer-1")

	t.Run("instantiates stages and tasks from the template", func(t *testing.T) {
		project, tasks := f.seed(t, ctx)

		assert.Equal(t, "building-consent-v1", project.TemplateID)
		assert.Equal(t, models.ProjectInProgress, project.OverallStatus)
		assert.Equal(t, 14.0, project.BudgetedHours)
		require.Len(t, project.Stages, 3)
		for _, stage := range project.Stages {
			assert.Equal(t, models.StagePending, stage.Status)
		}

		require.Len(t, tasks, 4)
		for _, task := range tasks {
			assert.Equal(t, models.TaskPending, task.Status)
			assert.Zero(t, task.ActualHours)
		}
		signOff := taskByCode(t, tasks, "TEC-02")
		require.NotNil(t, signOff.HourlyRate)
		assert.Equal(t, int64(14000), signOff.HourlyRate.Amount(), "manager rate from the rate card")
	})

	t.Run("missing template fails loudly", func(t *testing.T) {
		err := f.svc.CreateForRequest(ctx, domain.NewRequestID(), "liquor-license", "northshore")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNoTemplateConfigured))
		assert.Equal(t, "liquor-license", dErrors.DetailsOf(err)["request_type"])
	})

	t.Run("second assessment for the same request violates the invariant", func(t *testing.T) {
		requestID := domain.NewRequestID()
		require.NoError(t, f.svc.CreateForRequest(ctx, requestID, "building-consent", "northshore"))
		err := f.svc.CreateForRequest(ctx, requestID, "building-consent", "northshore")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func TestRecordTaskTime(t *testing.T) {
	ctx := testutil.Ctx(t, "officer-1")

	t.Run("books hours, prices the task and rolls up", func(t *testing.T) {
		f := newFixture(t)
		project, tasks := f.seed(t, ctx)
		vetting := taskByCode(t, tasks, "VET-01")

		got, err := f.svc.RecordTaskTime(ctx, vetting.ID, 1.5)
		require.NoError(t, err)
		assert.Equal(t, models.TaskInProgress, got.Status, "first booking starts the task")
		assert.Equal(t, 1.5, got.ActualHours)
		require.NotNil(t, got.TotalCost)
		assert.Equal(t, int64(14250), got.TotalCost.Amount(), "1.5h at 95.00")

		rolled, _, err := f.svc.GetByRequest(ctx, project.RequestID)
		require.NoError(t, err)
		assert.Equal(t, 1.5, rolled.ActualHours)
		assert.Equal(t, int64(14250), rolled.ActualCost.Amount())
		assert.Equal(t, models.StageInProgress, rolled.StageBySequence(1).Status)
		assert.Equal(t, models.StagePending, rolled.StageBySequence(2).Status)
	})

	t.Run("bookings accumulate", func(t *testing.T) {
		f := newFixture(t)
		_, tasks := f.seed(t, ctx)
		vetting := taskByCode(t, tasks, "VET-01")

		_, err := f.svc.RecordTaskTime(ctx, vetting.ID, 1)
		require.NoError(t, err)
		got, err := f.svc.RecordTaskTime(ctx, vetting.ID, 2)
		require.NoError(t, err)
		assert.Equal(t, 3.0, got.ActualHours)
		assert.Equal(t, int64(28500), got.TotalCost.Amount())
	})

	t.Run("rejects non-positive hours", func(t *testing.T) {
		f := newFixture(t)
		_, tasks := f.seed(t, ctx)
		_, err := f.svc.RecordTaskTime(ctx, tasks[0].ID, 0)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects terminal tasks", func(t *testing.T) {
		f := newFixture(t)
		_, tasks := f.seed(t, ctx)
		vetting := taskByCode(t, tasks, "VET-01")
		_, err := f.svc.CancelTask(ctx, vetting.ID)
		require.NoError(t, err)

		_, err = f.svc.RecordTaskTime(ctx, vetting.ID, 1)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	t.Run("unknown task is not found", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.RecordTaskTime(ctx, domain.NewTaskID(), 1)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestStageAndOverallCompletion(t *testing.T) {
	ctx := testutil.Ctx(t, "officer-1")

	t.Run("a stage completes when all its tasks are terminal", func(t *testing.T) {
		f := newFixture(t)
		project, tasks := f.seed(t, ctx)

		_, err := f.svc.CompleteTask(ctx, taskByCode(t, tasks, "TEC-01").ID)
		require.NoError(t, err)
		rolled, _, err := f.svc.GetByRequest(ctx, project.RequestID)
		require.NoError(t, err)
		assert.Equal(t, models.StageInProgress, rolled.StageBySequence(2).Status, "peer sign-off still open")

		_, err = f.svc.CancelTask(ctx, taskByCode(t, tasks, "TEC-02").ID)
		require.NoError(t, err)
		rolled, _, err = f.svc.GetByRequest(ctx, project.RequestID)
		require.NoError(t, err)
		assert.Equal(t, models.StageComplete, rolled.StageBySequence(2).Status, "cancelled counts as terminal")
	})

	t.Run("decision readiness needs every required stage complete", func(t *testing.T) {
		f := newFixture(t)
		project, tasks := f.seed(t, ctx)
		requestID := project.RequestID

		err := f.svc.CheckDecisionReady(ctx, requestID)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAssessmentIncomplete))

		// Complete both required stages; the optional site-notes stage stays open.
		for _, code := range []string{"VET-01", "TEC-01", "TEC-02"} {
			_, err := f.svc.CompleteTask(ctx, taskByCode(t, tasks, code).ID)
			require.NoError(t, err)
		}
		assert.NoError(t, f.svc.CheckDecisionReady(ctx, requestID))

		rolled, _, err := f.svc.GetByRequest(ctx, requestID)
		require.NoError(t, err)
		assert.Equal(t, models.ProjectComplete, rolled.OverallStatus)
	})

	t.Run("a request with no assessment is never decision ready", func(t *testing.T) {
		f := newFixture(t)
		err := f.svc.CheckDecisionReady(ctx, domain.NewRequestID())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAssessmentIncomplete))
	})
}

func TestRollupIdempotency(t *testing.T) {
	ctx := testutil.Ctx(t, "officer-1")
	f := newFixture(t)
	project, tasks := f.seed(t, ctx)

	_, err := f.svc.RecordTaskTime(ctx, taskByCode(t, tasks, "VET-01").ID, 2)
	require.NoError(t, err)
	_, err = f.svc.RecordTaskTime(ctx, taskByCode(t, tasks, "TEC-02").ID, 1)
	require.NoError(t, err)

	first, _, err := f.svc.GetByRequest(ctx, project.RequestID)
	require.NoError(t, err)
	assert.Equal(t, 3.0, first.ActualHours)
	assert.Equal(t, int64(2*9500+14000), first.ActualCost.Amount())

	// Assigning re-runs nothing cost-related; totals must not drift.
	_, err = f.svc.AssignTask(ctx, taskByCode(t, tasks, "VET-01").ID, "officer-2")
	require.NoError(t, err)
	second, _, err := f.svc.GetByRequest(ctx, project.RequestID)
	require.NoError(t, err)
	assert.Equal(t, first.ActualHours, second.ActualHours)
	assert.Equal(t, first.ActualCost.Amount(), second.ActualCost.Amount())
}

func TestAssignTask(t *testing.T) {
	ctx := testutil.Ctx(t, "officer-1")
	f := newFixture(t)
	_, tasks := f.seed(t, ctx)
	vetting := taskByCode(t, tasks, "VET-01")

	t.Run("sets the assignee", func(t *testing.T) {
		got, err := f.svc.AssignTask(ctx, vetting.ID, "officer-2")
		require.NoError(t, err)
		assert.Equal(t, "officer-2", got.AssignedTo)
	})

	t.Run("rejects an empty assignee", func(t *testing.T) {
		_, err := f.svc.AssignTask(ctx, vetting.ID, "")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

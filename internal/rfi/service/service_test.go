package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseflow/internal/calendar"
	"caseflow/internal/platform/config"
	"caseflow/internal/rfi/models"
	rfistore "caseflow/internal/rfi/store"
	slastore "caseflow/internal/sla/store"
	wfmodels "caseflow/internal/workflow/models"
	wfservice "caseflow/internal/workflow/service"
	wfstore "caseflow/internal/workflow/store"
	"caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/platform/tx"
	"caseflow/pkg/testutil"
)

var monday = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc        *Service
	workflow   *wfservice.Service
	rfis       *rfistore.MemoryRFIStore
	exclusions *slastore.MemoryExclusionStore
}

func newFixture() *fixture {
	cfg := config.Workflow{
		RFIResponseWindowDays: 15,
		MaxTxAttempts:         3,
		DefaultDeadlineDays:   20,
	}
	requests := wfstore.NewMemoryRequestStore()
	history := wfstore.NewMemoryHistoryStore()
	exclusions := slastore.NewMemory()
	rfis := rfistore.NewMemoryRFIStore()
	calendars := calendar.NewService(calendar.NewStaticProvider(nil))
	runner := tx.NewMemoryRunner(requests, history, exclusions, rfis)

	workflow := wfservice.New(requests, history, exclusions, calendars, runner, cfg)
	svc := New(rfis, workflow, calendars, cfg)
	return &fixture{svc: svc, workflow: workflow, rfis: rfis, exclusions: exclusions}
}

// processingRequest creates a request and advances it to Processing.
func (f *fixture) processingRequest(t *testing.T, ctx context.Context) domain.RequestID {
	t.Helper()
	req, err := f.workflow.CreateRequest(ctx, wfservice.CreateRequestInput{
		Type: "building-consent", Council: "northshore", ApplicantID: "applicant-1",
	})
	require.NoError(t, err)
	for _, target := range []wfmodels.State{
		wfmodels.StateSubmitted, wfmodels.StateAcknowledged, wfmodels.StateProcessing,
	} {
		req, _, err = f.workflow.Transition(ctx, wfservice.TransitionInput{RequestID: req.ID, Target: target})
		require.NoError(t, err)
	}
	return req.ID
}

func TestIssue(t *testing.T) {
	ctx := testutil.CtxAt(t, "officer-1", monday)

	t.Run("creates the record and pauses the parent request", func(t *testing.T) {
		f := newFixture()
		requestID := f.processingRequest(t, ctx)

		rfi, err := f.svc.Issue(ctx, requestID, []string{"Please supply the site plan."})
		require.NoError(t, err)
		assert.Equal(t, models.StatusIssued, rfi.Status)
		assert.Equal(t, "officer-1", rfi.IssuedBy)
		assert.True(t, rfi.IsOpen())
		assert.Equal(t, time.Date(2025, time.March, 24, 0, 0, 0, 0, time.UTC), rfi.ResponseDeadline,
			"15 working days from Monday March 3rd")

		req, err := f.workflow.GetRequest(ctx, requestID)
		require.NoError(t, err)
		assert.Equal(t, wfmodels.StateRFIIssued, req.State)

		open, err := f.exclusions.FindOpen(context.Background(), requestID)
		require.NoError(t, err)
		assert.True(t, open.IsOpen())
	})

	t.Run("requires at least one question", func(t *testing.T) {
		f := newFixture()
		requestID := f.processingRequest(t, ctx)
		_, err := f.svc.Issue(ctx, requestID, nil)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("only a processing request can receive an RFI", func(t *testing.T) {
		f := newFixture()
		req, err := f.workflow.CreateRequest(ctx, wfservice.CreateRequestInput{
			Type: "building-consent", Council: "northshore", ApplicantID: "applicant-1",
		})
		require.NoError(t, err)

		_, err = f.svc.Issue(ctx, req.ID, []string{"q"})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
		assert.Equal(t, "Draft", dErrors.DetailsOf(err)["state"])
	})

	t.Run("a second open RFI is a conflict", func(t *testing.T) {
		f := newFixture()
		requestID := f.processingRequest(t, ctx)
		_, err := f.svc.Issue(ctx, requestID, []string{"q1"})
		require.NoError(t, err)

		// The parent is now RFIIssued, so the state pre-check fires first.
		_, err = f.svc.Issue(ctx, requestID, []string{"q2"})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	t.Run("a failed record write rolls the transition back", func(t *testing.T) {
		f := newFixture()
		requestID := f.processingRequest(t, ctx)

		// Seed an open RFI record directly so the in-transaction conflict
		// check trips while the state machine would otherwise allow the move.
		now := monday
		require.NoError(t, f.rfis.Create(context.Background(), &models.InformationRequest{
			ID: domain.NewRFIID(), RequestID: requestID, Questions: []string{"seeded"},
			Status: models.StatusIssued, IssuedDate: now, ResponseDeadline: now,
			CreatedAt: now, UpdatedAt: now,
		}))

		_, err := f.svc.Issue(ctx, requestID, []string{"q"})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflictingRFI))

		req, err := f.workflow.GetRequest(ctx, requestID)
		require.NoError(t, err)
		assert.Equal(t, wfmodels.StateProcessing, req.State, "transition rolled back")
	})
}

func TestReceiveResponse(t *testing.T) {
	ctx := testutil.CtxAt(t, "officer-1", monday)

	t.Run("records the response and closes the cycle", func(t *testing.T) {
		f := newFixture()
		requestID := f.processingRequest(t, ctx)
		rfi, err := f.svc.Issue(ctx, requestID, []string{"Please supply the site plan."})
		require.NoError(t, err)

		weekLater := testutil.CtxAt(t, "officer-1", monday.AddDate(0, 0, 7))
		got, err := f.svc.ReceiveResponse(weekLater, rfi.ID, "Site plan attached.")
		require.NoError(t, err)
		assert.Equal(t, models.StatusReceived, got.Status)
		assert.Equal(t, "Site plan attached.", got.Response)
		require.NotNil(t, got.ReceivedDate)

		req, err := f.workflow.GetRequest(ctx, requestID)
		require.NoError(t, err)
		assert.Equal(t, wfmodels.StateRFIReceived, req.State)

		periods, err := f.exclusions.ListByRequest(context.Background(), requestID)
		require.NoError(t, err)
		require.Len(t, periods, 1)
		assert.False(t, periods[0].IsOpen(), "exclusion closed on receipt")
	})

	t.Run("an already answered RFI cannot be answered again", func(t *testing.T) {
		f := newFixture()
		requestID := f.processingRequest(t, ctx)
		rfi, err := f.svc.Issue(ctx, requestID, []string{"q"})
		require.NoError(t, err)
		_, err = f.svc.ReceiveResponse(ctx, rfi.ID, "answer")
		require.NoError(t, err)

		_, err = f.svc.ReceiveResponse(ctx, rfi.ID, "answer again")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	t.Run("unknown RFI is not found", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.ReceiveResponse(ctx, domain.NewRFIID(), "answer")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestRFICycleSequencing(t *testing.T) {
	ctx := testutil.CtxAt(t, "officer-1", monday)
	f := newFixture()
	requestID := f.processingRequest(t, ctx)

	later := testutil.CtxAt(t, "officer-1", monday.AddDate(0, 0, 7))

	first, err := f.svc.Issue(ctx, requestID, []string{"round one"})
	require.NoError(t, err)
	_, err = f.svc.ReceiveResponse(ctx, first.ID, "answer one")
	require.NoError(t, err)
	require.NoError(t, f.svc.ResumeProcessing(ctx, requestID))

	second, err := f.svc.Issue(later, requestID, []string{"round two"})
	require.NoError(t, err)
	_, err = f.svc.ReceiveResponse(later, second.ID, "answer two")
	require.NoError(t, err)

	cycles, err := f.svc.ListByRequest(ctx, requestID)
	require.NoError(t, err)
	require.Len(t, cycles, 2)
	assert.Equal(t, first.ID, cycles[0].ID)
	assert.Equal(t, second.ID, cycles[1].ID)
	for _, c := range cycles {
		assert.Equal(t, models.StatusReceived, c.Status)
	}

	req, err := f.workflow.GetRequest(ctx, requestID)
	require.NoError(t, err)
	assert.Equal(t, wfmodels.StateRFIReceived, req.State)
}

package handler

import (
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"caseflow/internal/sla"
	"caseflow/internal/workflow/handler/mocks"
	"caseflow/internal/workflow/models"
	"caseflow/internal/workflow/service"
	"caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
	"caseflow/pkg/testutil"
)

func newTestHandler(t *testing.T) (http.Handler, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockService(ctrl)

	r := chi.NewRouter()
	New(mockService, slog.Default()).Register(r)
	return r, mockService
}

func sampleRequest(state models.State) *models.Request {
	now := time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)
	return &models.Request{
		ID:           domain.NewRequestID(),
		Type:         "building-consent",
		Council:      "northshore",
		Title:        "New carport",
		ApplicantID:  "applicant-1",
		State:        state,
		DeadlineDays: 20,
		SLABand:      sla.BandGreen,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestHandleCreate(t *testing.T) {
	t.Run("creates and returns the draft", func(t *testing.T) {
		router, mockService := newTestHandler(t)
		req := sampleRequest(models.StateDraft)
		mockService.EXPECT().
			CreateRequest(gomock.Any(), service.CreateRequestInput{
				Type: "building-consent", Council: "northshore",
				Title: "New carport", ApplicantID: "applicant-1",
			}).
			Return(req, nil)

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/requests", map[string]string{
			"type":        "building-consent",
			"council":     "northshore",
			"title":       "New carport",
			"applicantId": "applicant-1",
		}))

		testutil.AssertStatus(t, rr, http.StatusCreated)
		got := testutil.UnmarshalResponse[requestResponse](t, rr)
		assert.Equal(t, req.ID.String(), got.ID)
		assert.Equal(t, "Draft", got.State)
		assert.Equal(t, 20, got.DeadlineDays)
	})

	t.Run("malformed body is a bad request", func(t *testing.T) {
		router, _ := newTestHandler(t)
		rr := testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodPost, "/requests", "{nope"))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
	})

	t.Run("validation failures map to 400", func(t *testing.T) {
		router, mockService := newTestHandler(t)
		mockService.EXPECT().
			CreateRequest(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeValidation, "type, council and applicantId are required"))

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/requests", map[string]string{}))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_failed")
	})
}

func TestHandleGet(t *testing.T) {
	t.Run("returns the request", func(t *testing.T) {
		router, mockService := newTestHandler(t)
		req := sampleRequest(models.StateProcessing)
		mockService.EXPECT().GetRequest(gomock.Any(), req.ID).Return(req, nil)

		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/requests/"+req.ID.String()))
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "state", "Processing")
	})

	t.Run("an invalid id never reaches the service", func(t *testing.T) {
		router, _ := newTestHandler(t)
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/requests/not-a-uuid"))
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("unknown request is 404", func(t *testing.T) {
		router, mockService := newTestHandler(t)
		id := domain.NewRequestID()
		mockService.EXPECT().GetRequest(gomock.Any(), id).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "request not found"))

		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/requests/"+id.String()))
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})
}

func TestHandleTransition(t *testing.T) {
	t.Run("applies the transition", func(t *testing.T) {
		router, mockService := newTestHandler(t)
		req := sampleRequest(models.StateSubmitted)
		entry := &models.StatusHistoryEntry{
			ID:        domain.NewHistoryEntryID(),
			RequestID: req.ID,
			FromState: models.StateDraft,
			ToState:   models.StateSubmitted,
		}
		mockService.EXPECT().
			Transition(gomock.Any(), service.TransitionInput{
				RequestID: req.ID,
				Target:    models.StateSubmitted,
				Comment:   "lodged by counter staff",
			}).
			Return(req, entry, nil)

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost,
			"/requests/"+req.ID.String()+"/transition", map[string]string{
				"target":  "Submitted",
				"comment": "lodged by counter staff",
			}))

		testutil.AssertStatusOK(t, rr)
		got := testutil.UnmarshalResponse[transitionResponse](t, rr)
		assert.Equal(t, "Submitted", got.NewState)
		assert.Equal(t, req.ID.String(), got.Request.ID)
		assert.Equal(t, entry.ID.String(), got.HistoryEntryID)
	})

	t.Run("an unknown target state is rejected before the service", func(t *testing.T) {
		router, _ := newTestHandler(t)
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost,
			"/requests/"+domain.NewRequestID().String()+"/transition", map[string]string{
				"target": "Lost",
			}))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
	})

	t.Run("illegal transitions map to 422", func(t *testing.T) {
		router, mockService := newTestHandler(t)
		id := domain.NewRequestID()
		mockService.EXPECT().
			Transition(gomock.Any(), gomock.Any()).
			Return(nil, nil, dErrors.New(dErrors.CodeInvalidTransition, "cannot transition from Draft to Completed"))

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost,
			"/requests/"+id.String()+"/transition", map[string]string{"target": "Completed"}))
		testutil.AssertStatusAndError(t, rr, http.StatusUnprocessableEntity, "invalid_transition")
	})

	t.Run("missing authority maps to 403", func(t *testing.T) {
		router, mockService := newTestHandler(t)
		mockService.EXPECT().
			Transition(gomock.Any(), gomock.Any()).
			Return(nil, nil, dErrors.New(dErrors.CodePermissionDenied, "transition to Approved requires the manager role"))

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost,
			"/requests/"+domain.NewRequestID().String()+"/transition", map[string]string{"target": "Approved"}))
		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "permission_denied")
	})
}

func TestHandleListTransitions(t *testing.T) {
	router, mockService := newTestHandler(t)
	id := domain.NewRequestID()
	mockService.EXPECT().LegalTransitions(gomock.Any(), id).Return([]service.LegalTransition{
		{Target: models.StateApproved, RequiredRole: domain.RoleManager},
		{Target: models.StateReturnedForRework, RequiredRole: domain.RoleStaff},
	}, nil)

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/requests/"+id.String()+"/transitions"))
	testutil.AssertStatusOK(t, rr)

	got := testutil.UnmarshalResponse[struct {
		Transitions []legalTransitionResponse `json:"transitions"`
	}](t, rr)
	require.Len(t, got.Transitions, 2)
	assert.Equal(t, "Approved", got.Transitions[0].Target)
	assert.Equal(t, "manager", got.Transitions[0].RequiredRole)
}

func TestHandleSLA(t *testing.T) {
	t.Run("returns the computed snapshot", func(t *testing.T) {
		router, mockService := newTestHandler(t)
		id := domain.NewRequestID()
		mockService.EXPECT().SLASnapshot(gomock.Any(), id).Return(&sla.Snapshot{
			Elapsed:    10,
			Remaining:  10,
			TargetDate: time.Date(2025, time.April, 7, 0, 0, 0, 0, time.UTC),
			Band:       sla.BandGreen,
		}, nil)

		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/requests/"+id.String()+"/sla"))
		testutil.AssertStatusOK(t, rr)
		got := testutil.UnmarshalResponse[slaResponse](t, rr)
		assert.Equal(t, 10, got.Elapsed)
		assert.Equal(t, "green", got.Band)
	})

	t.Run("an unstarted clock maps to 422", func(t *testing.T) {
		router, mockService := newTestHandler(t)
		id := domain.NewRequestID()
		mockService.EXPECT().SLASnapshot(gomock.Any(), id).
			Return(nil, dErrors.New(dErrors.CodeInvalidState, "request has not been acknowledged"))

		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/requests/"+id.String()+"/sla"))
		testutil.AssertStatusAndError(t, rr, http.StatusUnprocessableEntity, "invalid_state")
	})
}

func TestHandleHistory(t *testing.T) {
	router, mockService := newTestHandler(t)
	id := domain.NewRequestID()
	now := time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)
	mockService.EXPECT().ListHistory(gomock.Any(), id).Return([]*models.StatusHistoryEntry{
		{ID: domain.NewHistoryEntryID(), RequestID: id, FromState: models.StateDraft, ToState: models.StateSubmitted, ActorID: "officer-1", CreatedAt: now},
		{ID: domain.NewHistoryEntryID(), RequestID: id, FromState: models.StateSubmitted, ToState: models.StateAcknowledged, ActorID: "officer-1", CreatedAt: now},
	}, nil)

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/requests/"+id.String()+"/history"))
	testutil.AssertStatusOK(t, rr)

	got := testutil.UnmarshalResponse[struct {
		History []historyEntryResponse `json:"history"`
	}](t, rr)
	require.Len(t, got.History, 2)
	assert.Equal(t, "Draft", got.History[0].FromState)
	assert.Equal(t, "Acknowledged", got.History[1].ToState)
}

// Package handler exposes the workflow engine over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"caseflow/internal/sla"
	"caseflow/internal/transport/http/shared"
	"caseflow/internal/workflow/models"
	"caseflow/internal/workflow/service"
	"caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
)

//go:generate mockgen -source=handler.go -destination=mocks/workflow-mocks.go -package=mocks Service

// Service is the slice of the workflow engine the HTTP layer needs.
type Service interface {
	CreateRequest(ctx context.Context, input service.CreateRequestInput) (*models.Request, error)
	GetRequest(ctx context.Context, id domain.RequestID) (*models.Request, error)
	Transition(ctx context.Context, input service.TransitionInput) (*models.Request, *models.StatusHistoryEntry, error)
	LegalTransitions(ctx context.Context, id domain.RequestID) ([]service.LegalTransition, error)
	SLASnapshot(ctx context.Context, id domain.RequestID) (*sla.Snapshot, error)
	ListHistory(ctx context.Context, id domain.RequestID) ([]*models.StatusHistoryEntry, error)
}

// Handler serves the request workflow endpoints.
type Handler struct {
	workflow Service
	logger   *slog.Logger
}

// New creates the workflow Handler.
func New(workflow Service, logger *slog.Logger) *Handler {
	return &Handler{workflow: workflow, logger: logger}
}

// Register mounts the workflow routes. Auth and the rest of the middleware
// chain are applied by the parent router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/requests", h.handleCreate)
	r.Get("/requests/{id}", h.handleGet)
	r.Post("/requests/{id}/transition", h.handleTransition)
	r.Get("/requests/{id}/transitions", h.handleListTransitions)
	r.Get("/requests/{id}/sla", h.handleSLA)
	r.Get("/requests/{id}/history", h.handleHistory)
}

type createRequest struct {
	Type        string `json:"type"`
	Council     string `json:"council"`
	Title       string `json:"title"`
	ApplicantID string `json:"applicantId"`
}

type requestResponse struct {
	ID                 string     `json:"id"`
	Type               string     `json:"type"`
	Council            string     `json:"council"`
	Title              string     `json:"title"`
	ApplicantID        string     `json:"applicantId"`
	State              string     `json:"state"`
	AcknowledgedDate   *time.Time `json:"acknowledgedDate,omitempty"`
	DeadlineDays       int        `json:"statutoryDeadlineDays"`
	ElapsedWorkingDays int        `json:"workingDaysElapsed"`
	TargetDate         *time.Time `json:"targetCompletionDate,omitempty"`
	SLABand            string     `json:"slaBand"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

func toRequestResponse(req *models.Request) requestResponse {
	return requestResponse{
		ID:                 req.ID.String(),
		Type:               string(req.Type),
		Council:            string(req.Council),
		Title:              req.Title,
		ApplicantID:        req.ApplicantID,
		State:              string(req.State),
		AcknowledgedDate:   req.AcknowledgedDate,
		DeadlineDays:       req.DeadlineDays,
		ElapsedWorkingDays: req.ElapsedWorkingDays,
		TargetDate:         req.TargetDate,
		SLABand:            string(req.SLABand),
		CreatedAt:          req.CreatedAt,
		UpdatedAt:          req.UpdatedAt,
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var body createRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	req, err := h.workflow.CreateRequest(ctx, service.CreateRequestInput{
		Type:        domain.RequestType(body.Type),
		Council:     domain.Council(body.Council),
		Title:       body.Title,
		ApplicantID: body.ApplicantID,
	})
	if err != nil {
		h.logError(ctx, "create request failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toRequestResponse(req))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	req, err := h.workflow.GetRequest(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toRequestResponse(req))
}

type transitionRequest struct {
	Target   string            `json:"target"`
	Comment  string            `json:"comment"`
	Metadata map[string]string `json:"metadata"`
}

type transitionResponse struct {
	Request        requestResponse `json:"request"`
	NewState       string          `json:"newState"`
	HistoryEntryID string          `json:"historyEntryId"`
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var body transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	target, err := models.ParseState(body.Target)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	req, entry, err := h.workflow.Transition(ctx, service.TransitionInput{
		RequestID: id,
		Target:    target,
		Comment:   body.Comment,
		Metadata:  body.Metadata,
	})
	if err != nil {
		h.logError(ctx, "transition failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, transitionResponse{
		Request:        toRequestResponse(req),
		NewState:       string(req.State),
		HistoryEntryID: entry.ID.String(),
	})
}

type legalTransitionResponse struct {
	Target       string `json:"target"`
	RequiredRole string `json:"requiredRole"`
}

func (h *Handler) handleListTransitions(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	transitions, err := h.workflow.LegalTransitions(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	out := make([]legalTransitionResponse, len(transitions))
	for i, t := range transitions {
		out[i] = legalTransitionResponse{
			Target:       string(t.Target),
			RequiredRole: string(t.RequiredRole),
		}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"transitions": out})
}

type slaResponse struct {
	Elapsed    int       `json:"workingDaysElapsed"`
	Remaining  int       `json:"workingDaysRemaining"`
	TargetDate time.Time `json:"targetCompletionDate"`
	Band       string    `json:"band"`
}

func (h *Handler) handleSLA(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	snap, err := h.workflow.SLASnapshot(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, slaResponse{
		Elapsed:    snap.Elapsed,
		Remaining:  snap.Remaining,
		TargetDate: snap.TargetDate,
		Band:       string(snap.Band),
	})
}

type historyEntryResponse struct {
	ID        string            `json:"id"`
	FromState string            `json:"fromState"`
	ToState   string            `json:"toState"`
	ActorID   string            `json:"actorId"`
	Comment   string            `json:"comment,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	entries, err := h.workflow.ListHistory(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	out := make([]historyEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = historyEntryResponse{
			ID:        e.ID.String(),
			FromState: string(e.FromState),
			ToState:   string(e.ToState),
			ActorID:   e.ActorID,
			Comment:   e.Comment,
			Metadata:  e.Metadata,
			CreatedAt: e.CreatedAt,
		}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"history": out})
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	h.logger.ErrorContext(ctx, msg, slog.String("error", err.Error()))
}

// Package handler exposes the RFI sub-workflow over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"caseflow/internal/rfi/models"
	"caseflow/internal/transport/http/shared"
	"caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
)

// Service is the slice of the RFI sub-workflow the HTTP layer needs.
type Service interface {
	Issue(ctx context.Context, requestID domain.RequestID, questions []string) (*models.InformationRequest, error)
	ReceiveResponse(ctx context.Context, rfiID domain.RFIID, response string) (*models.InformationRequest, error)
	ResumeProcessing(ctx context.Context, requestID domain.RequestID) error
	ListByRequest(ctx context.Context, requestID domain.RequestID) ([]*models.InformationRequest, error)
}

// Handler serves the information-request endpoints.
type Handler struct {
	rfi    Service
	logger *slog.Logger
}

// New creates the RFI Handler.
func New(rfi Service, logger *slog.Logger) *Handler {
	return &Handler{rfi: rfi, logger: logger}
}

// Register mounts the RFI routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/requests/{id}/rfi", h.handleIssue)
	r.Get("/requests/{id}/rfi", h.handleList)
	r.Post("/requests/{id}/rfi/resume", h.handleResume)
	r.Post("/rfi/{rfiId}/response", h.handleResponse)
}

type rfiResponse struct {
	ID               string     `json:"id"`
	RequestID        string     `json:"requestId"`
	Questions        []string   `json:"questions"`
	Status           string     `json:"status"`
	IssuedBy         string     `json:"issuedBy"`
	IssuedDate       time.Time  `json:"issuedDate"`
	ResponseDeadline time.Time  `json:"responseDeadline"`
	ReceivedDate     *time.Time `json:"receivedDate,omitempty"`
	Response         string     `json:"response,omitempty"`
}

func toRFIResponse(rfi *models.InformationRequest) rfiResponse {
	return rfiResponse{
		ID:               rfi.ID.String(),
		RequestID:        rfi.RequestID.String(),
		Questions:        rfi.Questions,
		Status:           string(rfi.Status),
		IssuedBy:         rfi.IssuedBy,
		IssuedDate:       rfi.IssuedDate,
		ResponseDeadline: rfi.ResponseDeadline,
		ReceivedDate:     rfi.ReceivedDate,
		Response:         rfi.Response,
	}
}

type issueRequest struct {
	Questions []string `json:"questions"`
}

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var body issueRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	rfi, err := h.rfi.Issue(ctx, id, body.Questions)
	if err != nil {
		h.logger.WarnContext(ctx, "issue rfi failed",
			slog.String("request_id", id.String()),
			slog.String("error", err.Error()))
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toRFIResponse(rfi))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	rfis, err := h.rfi.ListByRequest(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	out := make([]rfiResponse, len(rfis))
	for i, rfi := range rfis {
		out[i] = toRFIResponse(rfi)
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"informationRequests": out})
}

type responseRequest struct {
	Response string `json:"response"`
}

func (h *Handler) handleResponse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rfiID, err := domain.ParseRFIID(chi.URLParam(r, "rfiId"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var body responseRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	rfi, err := h.rfi.ReceiveResponse(ctx, rfiID, body.Response)
	if err != nil {
		h.logger.WarnContext(ctx, "receive rfi response failed",
			slog.String("rfi_id", rfiID.String()),
			slog.String("error", err.Error()))
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toRFIResponse(rfi))
}

func (h *Handler) handleResume(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.rfi.ResumeProcessing(r.Context(), id); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Package handler exposes the payment sub-workflow over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"caseflow/internal/payment/models"
	"caseflow/internal/transport/http/shared"
	"caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
)

// Service is the slice of the payment sub-workflow the HTTP layer needs.
type Service interface {
	GetByRequest(ctx context.Context, requestID domain.RequestID) (*models.Record, error)
	MarkApproved(ctx context.Context, requestID domain.RequestID) (*models.Record, error)
	MarkPaid(ctx context.Context, requestID domain.RequestID, paymentDate time.Time, reference string) (*models.Record, error)
}

// Handler serves the payment endpoints.
type Handler struct {
	payment Service
	logger  *slog.Logger
}

// New creates the payment Handler.
func New(payment Service, logger *slog.Logger) *Handler {
	return &Handler{payment: payment, logger: logger}
}

// Register mounts the payment routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/requests/{id}/payment", h.handleGet)
	r.Post("/requests/{id}/payment/approve", h.handleApprove)
	r.Post("/requests/{id}/payment/paid", h.handlePaid)
}

type paymentResponse struct {
	RequestID   string     `json:"requestId"`
	Method      string     `json:"method"`
	Status      string     `json:"status"`
	Amount      string     `json:"amount,omitempty"`
	PaymentDate *time.Time `json:"paymentDate,omitempty"`
	Reference   string     `json:"reference,omitempty"`
}

func toPaymentResponse(record *models.Record) paymentResponse {
	resp := paymentResponse{
		RequestID:   record.RequestID.String(),
		Method:      record.Method,
		Status:      string(record.Status),
		PaymentDate: record.PaymentDate,
		Reference:   record.Reference,
	}
	if record.Amount != nil {
		resp.Amount = record.Amount.Display()
	}
	return resp
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	record, err := h.payment.GetByRequest(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toPaymentResponse(record))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	record, err := h.payment.MarkApproved(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toPaymentResponse(record))
}

type paidRequest struct {
	PaymentDate time.Time `json:"paymentDate"`
	Reference   string    `json:"reference"`
}

func (h *Handler) handlePaid(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var body paidRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	record, err := h.payment.MarkPaid(ctx, id, body.PaymentDate, body.Reference)
	if err != nil {
		h.logger.WarnContext(ctx, "mark paid failed",
			slog.String("request_id", id.String()),
			slog.String("error", err.Error()))
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toPaymentResponse(record))
}

// Package handler exposes the assessment engine over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"caseflow/internal/assessment/models"
	"caseflow/internal/transport/http/shared"
	"caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
)

// Service is the slice of the assessment engine the HTTP layer needs.
type Service interface {
	GetByRequest(ctx context.Context, requestID domain.RequestID) (*models.Project, []*models.Task, error)
	RecordTaskTime(ctx context.Context, taskID domain.TaskID, hours float64) (*models.Task, error)
	CompleteTask(ctx context.Context, taskID domain.TaskID) (*models.Task, error)
	CancelTask(ctx context.Context, taskID domain.TaskID) (*models.Task, error)
	AssignTask(ctx context.Context, taskID domain.TaskID, assignee string) (*models.Task, error)
}

// Handler serves the assessment endpoints.
type Handler struct {
	assessment Service
	logger     *slog.Logger
}

// New creates the assessment Handler.
func New(assessment Service, logger *slog.Logger) *Handler {
	return &Handler{assessment: assessment, logger: logger}
}

// Register mounts the assessment routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/requests/{id}/assessment", h.handleGet)
	r.Post("/tasks/{taskId}/time", h.handleRecordTime)
	r.Post("/tasks/{taskId}/complete", h.handleComplete)
	r.Post("/tasks/{taskId}/cancel", h.handleCancel)
	r.Post("/tasks/{taskId}/assign", h.handleAssign)
}

type stageResponse struct {
	Sequence            int    `json:"sequence"`
	Name                string `json:"name"`
	Status              string `json:"status"`
	RequiredForDecision bool   `json:"requiredForDecision"`
}

type taskResponse struct {
	ID             string    `json:"id"`
	StageSequence  int       `json:"stageSequence"`
	Code           string    `json:"code"`
	Name           string    `json:"name"`
	Status         string    `json:"status"`
	AssignedTo     string    `json:"assignedTo,omitempty"`
	EstimatedHours float64   `json:"estimatedHours"`
	ActualHours    float64   `json:"actualHours"`
	HourlyRate     string    `json:"hourlyRate,omitempty"`
	TotalCost      string    `json:"totalCost,omitempty"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type assessmentResponse struct {
	ID            string          `json:"id"`
	RequestID     string          `json:"requestId"`
	TemplateID    string          `json:"templateId"`
	Stages        []stageResponse `json:"stages"`
	Tasks         []taskResponse  `json:"tasks"`
	BudgetedHours float64         `json:"budgetedHours"`
	ActualHours   float64         `json:"actualHours"`
	ActualCost    string          `json:"actualCost,omitempty"`
	OverallStatus string          `json:"overallStatus"`
}

func toTaskResponse(task *models.Task) taskResponse {
	resp := taskResponse{
		ID:             task.ID.String(),
		StageSequence:  task.StageSequence,
		Code:           task.Code,
		Name:           task.Name,
		Status:         string(task.Status),
		AssignedTo:     task.AssignedTo,
		EstimatedHours: task.EstimatedHours,
		ActualHours:    task.ActualHours,
		UpdatedAt:      task.UpdatedAt,
	}
	if task.HourlyRate != nil {
		resp.HourlyRate = task.HourlyRate.Display()
	}
	if task.TotalCost != nil {
		resp.TotalCost = task.TotalCost.Display()
	}
	return resp
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	project, tasks, err := h.assessment.GetByRequest(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	resp := assessmentResponse{
		ID:            project.ID.String(),
		RequestID:     project.RequestID.String(),
		TemplateID:    project.TemplateID,
		Stages:        make([]stageResponse, len(project.Stages)),
		Tasks:         make([]taskResponse, len(tasks)),
		BudgetedHours: project.BudgetedHours,
		ActualHours:   project.ActualHours,
		OverallStatus: string(project.OverallStatus),
	}
	for i, stage := range project.Stages {
		resp.Stages[i] = stageResponse{
			Sequence:            stage.Sequence,
			Name:                stage.Name,
			Status:              string(stage.Status),
			RequiredForDecision: stage.RequiredForDecision,
		}
	}
	for i, task := range tasks {
		resp.Tasks[i] = toTaskResponse(task)
	}
	if project.ActualCost != nil {
		resp.ActualCost = project.ActualCost.Display()
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

type recordTimeRequest struct {
	Hours float64 `json:"hours"`
}

func (h *Handler) handleRecordTime(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	taskID, err := domain.ParseTaskID(chi.URLParam(r, "taskId"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var body recordTimeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	task, err := h.assessment.RecordTaskTime(ctx, taskID, body.Hours)
	if err != nil {
		h.logger.WarnContext(ctx, "record task time failed",
			slog.String("task_id", taskID.String()),
			slog.String("error", err.Error()))
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toTaskResponse(task))
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	h.finishTask(w, r, h.assessment.CompleteTask)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	h.finishTask(w, r, h.assessment.CancelTask)
}

func (h *Handler) finishTask(w http.ResponseWriter, r *http.Request, op func(context.Context, domain.TaskID) (*models.Task, error)) {
	taskID, err := domain.ParseTaskID(chi.URLParam(r, "taskId"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	task, err := op(r.Context(), taskID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toTaskResponse(task))
}

type assignRequest struct {
	Assignee string `json:"assignee"`
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	taskID, err := domain.ParseTaskID(chi.URLParam(r, "taskId"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var body assignRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	task, err := h.assessment.AssignTask(r.Context(), taskID, body.Assignee)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toTaskResponse(task))
}

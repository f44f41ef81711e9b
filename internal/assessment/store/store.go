// Package store persists assessment projects and tasks.
package store

import (
	"context"

	"caseflow/internal/assessment/models"
	"caseflow/pkg/domain"
)

// ProjectStore persists the assessment aggregate. A request has at most one
// project; Create fails with sentinel.ErrConflict on a second.
type ProjectStore interface {
	Create(ctx context.Context, project *models.Project) error
	Get(ctx context.Context, id domain.AssessmentID) (*models.Project, error)
	GetByRequest(ctx context.Context, requestID domain.RequestID) (*models.Project, error)
	Update(ctx context.Context, project *models.Project) error
}

// TaskStore persists tasks.
type TaskStore interface {
	Create(ctx context.Context, task *models.Task) error
	Get(ctx context.Context, id domain.TaskID) (*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	ListByAssessment(ctx context.Context, assessmentID domain.AssessmentID) ([]*models.Task, error)
}

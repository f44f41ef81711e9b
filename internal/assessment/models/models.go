// Package models defines the assessment aggregate: the project auto-created
// when a request is acknowledged, its ordered stages, and the tasks staff
// book time against.
package models

import (
	"math"
	"time"

	"github.com/Rhymond/go-money"

	"caseflow/pkg/domain"
)

// ProjectStatus is the overall assessment status.
type ProjectStatus string

const (
	ProjectInProgress ProjectStatus = "InProgress"
	ProjectComplete   ProjectStatus = "Complete"
)

// StageStatus tracks a single assessment stage.
type StageStatus string

const (
	StagePending    StageStatus = "Pending"
	StageInProgress StageStatus = "InProgress"
	StageComplete   StageStatus = "Complete"
)

// TaskStatus tracks a single task. Completed and Cancelled are both
// terminal: a stage does not distinguish between work done and work struck
// off.
type TaskStatus string

const (
	TaskPending    TaskStatus = "Pending"
	TaskInProgress TaskStatus = "InProgress"
	TaskCompleted  TaskStatus = "Completed"
	TaskCancelled  TaskStatus = "Cancelled"
)

// IsTerminal reports whether the task can no longer change.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskCompleted || s == TaskCancelled
}

// Project is the assessment record, created exactly once per request.
type Project struct {
	ID            domain.AssessmentID
	RequestID     domain.RequestID
	TemplateID    string
	Stages        []Stage
	BudgetedHours float64
	ActualHours   float64
	ActualCost    *money.Money
	OverallStatus ProjectStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Stage is an ordered phase of the assessment.
type Stage struct {
	Sequence            int         `json:"sequence"`
	Name                string      `json:"name"`
	Status              StageStatus `json:"status"`
	RequiredForDecision bool        `json:"requiredForDecision"`
}

// StageBySequence returns a pointer into Stages, or nil.
func (p *Project) StageBySequence(seq int) *Stage {
	for i := range p.Stages {
		if p.Stages[i].Sequence == seq {
			return &p.Stages[i]
		}
	}
	return nil
}

// DecisionReady reports whether every stage that gates the decision is
// complete.
func (p *Project) DecisionReady() bool {
	for _, stage := range p.Stages {
		if stage.RequiredForDecision && stage.Status != StageComplete {
			return false
		}
	}
	return true
}

// Task is a unit of assessable work instantiated from a template row.
// TotalCost is derived from ActualHours and HourlyRate and recomputed on
// every hours change.
type Task struct {
	ID             domain.TaskID
	AssessmentID   domain.AssessmentID
	RequestID      domain.RequestID
	StageSequence  int
	Code           string
	Name           string
	Status         TaskStatus
	AssignedTo     string
	EstimatedHours float64
	ActualHours    float64
	HourlyRate     *money.Money
	TotalCost      *money.Money
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Cost computes hours × rate, rounding to the nearest minor unit.
func Cost(hours float64, rate *money.Money) *money.Money {
	if rate == nil {
		return nil
	}
	amount := int64(math.Round(hours * float64(rate.Amount())))
	return money.New(amount, rate.Currency().Code)
}

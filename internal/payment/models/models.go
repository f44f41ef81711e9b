// Package models defines the post-approval payment record.
package models

import (
	"time"

	"github.com/Rhymond/go-money"

	"caseflow/pkg/domain"
)

// Status is the linear payment state: Pending → Approved → Paid. No
// skipping, no backward movement.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusPaid     Status = "Paid"
)

// Record tracks payment for a request. Created when the parent request
// reaches Approved or ApprovedWithConditions.
type Record struct {
	RequestID   domain.RequestID
	Method      string
	Status      Status
	Amount      *money.Money
	PaymentDate *time.Time
	Reference   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Settled reports whether the parent request may complete on the strength of
// this record.
func (r *Record) Settled() bool { return r.Status == StatusPaid }

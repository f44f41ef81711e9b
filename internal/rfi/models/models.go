// Package models defines the information-request record.
package models

import (
	"time"

	"caseflow/pkg/domain"
)

// Status is the RFI lifecycle. An Issued RFI holds the parent request's SLA
// clock; receipt releases it.
type Status string

const (
	StatusIssued   Status = "Issued"
	StatusReceived Status = "Received"
)

// InformationRequest is one RFI cycle. Cycles are sequential: a request has
// at most one RFI in Issued status at a time.
type InformationRequest struct {
	ID               domain.RFIID
	RequestID        domain.RequestID
	Questions        []string
	Status           Status
	IssuedBy         string
	IssuedDate       time.Time
	ResponseDeadline time.Time
	ReceivedDate     *time.Time
	Response         string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsOpen reports whether the RFI is still awaiting a response.
func (r *InformationRequest) IsOpen() bool { return r.Status == StatusIssued }

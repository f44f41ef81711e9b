package models

import (
	"time"

	"caseflow/internal/sla"
	"caseflow/pkg/domain"
)

// Request is the workflow aggregate. SLA fields are derived: they are
// recomputed from the acknowledged date, the council calendar and the
// exclusion periods on every state change, never incremented in place.
type Request struct {
	ID          domain.RequestID
	Type        domain.RequestType
	Council     domain.Council
	Title       string
	ApplicantID string

	State   State
	Version int64

	// AcknowledgedDate is set exactly once, on the transition into
	// Acknowledged. It anchors the SLA clock.
	AcknowledgedDate *time.Time

	DeadlineDays       int
	ElapsedWorkingDays int
	TargetDate         *time.Time
	SLABand            sla.Band

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ClockRunning reports whether the SLA clock accrues elapsed days in the
// request's current state.
func (r *Request) ClockRunning() bool {
	if r.AcknowledgedDate == nil {
		return false
	}
	switch r.State {
	case StateRFIIssued, StateOnHold:
		return false
	}
	return !r.State.IsTerminal()
}

// ApplySnapshot writes a computed SLA snapshot onto the derived fields.
func (r *Request) ApplySnapshot(s sla.Snapshot) {
	r.ElapsedWorkingDays = s.Elapsed
	target := s.TargetDate
	r.TargetDate = &target
	r.SLABand = s.Band
}

// StatusHistoryEntry is the append-only record of a single transition. The
// sequence of entries for a request replays to its current state.
type StatusHistoryEntry struct {
	ID        domain.HistoryEntryID
	RequestID domain.RequestID
	FromState State
	ToState   State
	ActorID   string
	Comment   string
	Metadata  map[string]string
	CreatedAt time.Time
}

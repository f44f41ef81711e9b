package sla

import (
	"time"

	"github.com/google/uuid"

	"caseflow/internal/calendar"
	"caseflow/pkg/domain"
)

// ExclusionReason says why the statutory clock paused.
type ExclusionReason string

const (
	ReasonRFI  ExclusionReason = "rfi"
	ReasonHold ExclusionReason = "hold"
)

// ExclusionPeriod is an interval during which elapsed-day counting pauses.
//
// Invariants:
//   - At most one open period (EndDate == nil) per request at any time.
//   - StartDate is immutable; EndDate is set exactly once, on close.
type ExclusionPeriod struct {
	ID        uuid.UUID
	RequestID domain.RequestID
	Reason    ExclusionReason
	StartDate time.Time
	EndDate   *time.Time
}

// IsOpen reports whether the period is still excluding days.
func (p ExclusionPeriod) IsOpen() bool { return p.EndDate == nil }

// ExcludedWorkingDays counts the working days this period removes from the
// elapsed count as of today. The start day itself is not excluded (it had
// already elapsed when the period opened); the end day is. Open periods are
// measured up to today.
func (p ExclusionPeriod) ExcludedWorkingDays(cal *calendar.Calendar, today time.Time) int {
	end := calendar.DateOnly(today)
	if p.EndDate != nil && p.EndDate.Before(end) {
		end = calendar.DateOnly(*p.EndDate)
	}
	return cal.WorkingDaysBetween(p.StartDate, end)
}

// Band is the SLA health classification.
type Band string

const (
	BandGreen Band = "green"
	BandAmber Band = "amber"
	BandRed   Band = "red"
)

// Snapshot holds the derived SLA fields for a request at a point in time.
type Snapshot struct {
	Elapsed    int
	Remaining  int
	TargetDate time.Time
	Band       Band
}

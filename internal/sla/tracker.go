// Package sla derives elapsed/remaining working days and target completion
// dates from acknowledgment dates and clock exclusion periods. Everything
// here is pure computation; persistence of exclusion periods lives in
// sla/store and orchestration in the workflow service.
package sla

import (
	"time"

	"caseflow/internal/calendar"
)

// GreenThreshold and AmberThreshold band the consumed share of the statutory
// deadline: Green ≤ 80%, Amber ≤ 100%, Red beyond.
const (
	GreenThreshold = 0.8
	AmberThreshold = 1.0
)

// Compute derives the SLA snapshot for a request.
//
// Elapsed counts working days in (acknowledged, today] minus every working
// day inside an exclusion period (open or closed). Days counted before a
// period opened are never retroactively un-counted: exclusion intervals start
// at the day the pause began and only remove days from that point on.
//
// The target date starts at acknowledged + deadline working days and shifts
// forward by the working-day length of each closed exclusion period. Open
// periods do not shift the target until they close, since their eventual
// length is unknown.
func Compute(cal *calendar.Calendar, acknowledged time.Time, deadlineDays int, exclusions []ExclusionPeriod, today time.Time) Snapshot {
	elapsed := cal.WorkingDaysBetween(acknowledged, today)
	shift := 0
	for _, p := range exclusions {
		elapsed -= p.ExcludedWorkingDays(cal, today)
		if !p.IsOpen() {
			shift += p.ExcludedWorkingDays(cal, today)
		}
	}
	if elapsed < 0 {
		elapsed = 0
	}

	return Snapshot{
		Elapsed:    elapsed,
		Remaining:  deadlineDays - elapsed,
		TargetDate: cal.AddWorkingDays(acknowledged, deadlineDays+shift),
		Band:       BandFor(elapsed, deadlineDays),
	}
}

// BandFor classifies consumed deadline share.
func BandFor(elapsed, deadlineDays int) Band {
	if deadlineDays <= 0 {
		return BandRed
	}
	consumed := float64(elapsed) / float64(deadlineDays)
	switch {
	case consumed <= GreenThreshold:
		return BandGreen
	case consumed <= AmberThreshold:
		return BandAmber
	default:
		return BandRed
	}
}

package calendar

import (
	"time"

	"caseflow/pkg/domain"
)

// dateLayout is the canonical key format for calendar dates.
const dateLayout = "2006-01-02"

// Calendar is a resolved holiday calendar for one council. All working-day
// arithmetic is pure so callers can resolve once (before acquiring locks) and
// compute as often as they like.
type Calendar struct {
	Council  domain.Council
	Holidays map[string]struct{}
}

// NewCalendar builds a Calendar from a list of yyyy-mm-dd holiday dates.
// Malformed dates are skipped.
func NewCalendar(council domain.Council, holidayDates []string) *Calendar {
	holidays := make(map[string]struct{}, len(holidayDates))
	for _, d := range holidayDates {
		if _, err := time.Parse(dateLayout, d); err == nil {
			holidays[d] = struct{}{}
		}
	}
	return &Calendar{Council: council, Holidays: holidays}
}

// DateOnly truncates a timestamp to its calendar day (midnight UTC). All SLA
// arithmetic operates on calendar days, never on clock times.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsWorkingDay reports whether the date is neither a weekend nor a configured
// holiday.
func (c *Calendar) IsWorkingDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	_, holiday := c.Holidays[DateOnly(t).Format(dateLayout)]
	return !holiday
}

// WorkingDaysBetween counts working days in (start, end]: start exclusive,
// end inclusive. This is the single boundary convention used everywhere in
// the SLA engine: the acknowledgment day itself is day zero. Returns 0 when
// end is not after start.
func (c *Calendar) WorkingDaysBetween(start, end time.Time) int {
	start, end = DateOnly(start), DateOnly(end)
	if !end.After(start) {
		return 0
	}
	count := 0
	for d := start.AddDate(0, 0, 1); !d.After(end); d = d.AddDate(0, 0, 1) {
		if c.IsWorkingDay(d) {
			count++
		}
	}
	return count
}

// AddWorkingDays returns the date n working days after start, skipping
// weekends and holidays. n must be non-negative; n == 0 returns start's day.
func (c *Calendar) AddWorkingDays(start time.Time, n int) time.Time {
	d := DateOnly(start)
	for remaining := n; remaining > 0; {
		d = d.AddDate(0, 0, 1)
		if c.IsWorkingDay(d) {
			remaining--
		}
	}
	return d
}

package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"caseflow/pkg/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIsWorkingDay(t *testing.T) {
	cal := NewCalendar(domain.Council("northshore"), []string{"2025-03-05", "not-a-date"})

	t.Run("weekday is working", func(t *testing.T) {
		assert.True(t, cal.IsWorkingDay(date(2025, time.March, 3))) // Monday
	})

	t.Run("weekend is not working", func(t *testing.T) {
		assert.False(t, cal.IsWorkingDay(date(2025, time.March, 1))) // Saturday
		assert.False(t, cal.IsWorkingDay(date(2025, time.March, 2))) // Sunday
	})

	t.Run("holiday is not working", func(t *testing.T) {
		assert.False(t, cal.IsWorkingDay(date(2025, time.March, 5)))
	})

	t.Run("malformed holiday entries are ignored", func(t *testing.T) {
		assert.Len(t, cal.Holidays, 1)
	})

	t.Run("time of day does not matter", func(t *testing.T) {
		assert.False(t, cal.IsWorkingDay(time.Date(2025, time.March, 5, 23, 59, 0, 0, time.UTC)))
	})
}

func TestWorkingDaysBetween(t *testing.T) {
	cal := NewCalendar(domain.Council("northshore"), []string{"2025-03-05"})

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  int
	}{
		{"same day counts as zero", date(2025, time.March, 3), date(2025, time.March, 3), 0},
		{"end before start counts as zero", date(2025, time.March, 10), date(2025, time.March, 3), 0},
		{"start exclusive end inclusive", date(2025, time.March, 10), date(2025, time.March, 11), 1},
		{"skips weekend", date(2025, time.March, 7), date(2025, time.March, 10), 1},
		{"skips holiday", date(2025, time.March, 3), date(2025, time.March, 7), 3},
		{"full week over weekend", date(2025, time.March, 10), date(2025, time.March, 17), 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cal.WorkingDaysBetween(tt.start, tt.end))
		})
	}
}

func TestAddWorkingDays(t *testing.T) {
	cal := NewCalendar(domain.Council("northshore"), []string{"2025-03-05"})

	t.Run("zero returns same day", func(t *testing.T) {
		assert.Equal(t, date(2025, time.March, 3), cal.AddWorkingDays(date(2025, time.March, 3), 0))
	})

	t.Run("spans weekend", func(t *testing.T) {
		// Friday + 1 working day lands on Monday.
		assert.Equal(t, date(2025, time.March, 10), cal.AddWorkingDays(date(2025, time.March, 7), 1))
	})

	t.Run("spans holiday", func(t *testing.T) {
		// Tuesday + 2: Wednesday the 5th is a holiday, so Thursday and Friday.
		assert.Equal(t, date(2025, time.March, 7), cal.AddWorkingDays(date(2025, time.March, 4), 2))
	})

	t.Run("inverse of WorkingDaysBetween", func(t *testing.T) {
		start := date(2025, time.March, 3)
		for n := 1; n <= 30; n++ {
			end := cal.AddWorkingDays(start, n)
			assert.Equal(t, n, cal.WorkingDaysBetween(start, end), "n=%d end=%s", n, end)
		}
	})
}

func TestDateOnly(t *testing.T) {
	got := DateOnly(time.Date(2025, time.March, 3, 17, 45, 12, 99, time.UTC))
	assert.Equal(t, date(2025, time.March, 3), got)
}

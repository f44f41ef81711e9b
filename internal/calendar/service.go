// Package calendar computes working days against per-council holiday
// calendars. Resolution hits the provider (cached); all day arithmetic on a
// resolved Calendar is pure.
package calendar

import (
	"context"
	"time"

	"caseflow/pkg/domain"
)

// Service resolves council calendars for working-day arithmetic.
type Service struct {
	provider Provider
}

// NewService constructs a Service over the given provider.
func NewService(provider Provider) *Service {
	return &Service{provider: provider}
}

// Resolve fetches the calendar for a council. Resolve performs provider I/O;
// call it before entering any per-request critical section and use the
// returned Calendar's pure methods inside.
func (s *Service) Resolve(ctx context.Context, council domain.Council) (*Calendar, error) {
	return s.provider.Calendar(ctx, council)
}

// IsWorkingDay resolves the council calendar and checks a single date.
func (s *Service) IsWorkingDay(ctx context.Context, council domain.Council, date time.Time) (bool, error) {
	cal, err := s.Resolve(ctx, council)
	if err != nil {
		return false, err
	}
	return cal.IsWorkingDay(date), nil
}

// WorkingDaysBetween resolves the council calendar and counts working days in
// (start, end].
func (s *Service) WorkingDaysBetween(ctx context.Context, council domain.Council, start, end time.Time) (int, error) {
	cal, err := s.Resolve(ctx, council)
	if err != nil {
		return 0, err
	}
	return cal.WorkingDaysBetween(start, end), nil
}

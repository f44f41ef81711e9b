package calendar

import (
	"context"

	"caseflow/pkg/domain"
)

// Provider supplies the holiday calendar for a council. The real provider is
// an external jurisdiction service; StaticProvider serves configuration.
type Provider interface {
	Calendar(ctx context.Context, council domain.Council) (*Calendar, error)
}

// StaticProvider serves calendars from configured holiday lists. Councils
// without configured holidays get a weekends-only calendar: an empty holiday
// list is valid configuration, not an error.
type StaticProvider struct {
	holidays map[domain.Council][]string
}

// NewStaticProvider builds a provider over configured holidays.
func NewStaticProvider(holidays map[domain.Council][]string) *StaticProvider {
	m := make(map[domain.Council][]string, len(holidays))
	for council, dates := range holidays {
		m[council] = append([]string(nil), dates...)
	}
	return &StaticProvider{holidays: m}
}

func (p *StaticProvider) Calendar(_ context.Context, council domain.Council) (*Calendar, error) {
	return NewCalendar(council, p.holidays[council]), nil
}

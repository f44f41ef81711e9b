package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"caseflow/internal/sla"
	"caseflow/pkg/domain"
	"caseflow/pkg/platform/sentinel"
)

// MemoryExclusionStore is the in-memory ExclusionStore used by tests and
// local development.
type MemoryExclusionStore struct {
	mu      sync.RWMutex
	periods map[domain.RequestID][]sla.ExclusionPeriod
}

// NewMemory constructs an empty in-memory exclusion store.
func NewMemory() *MemoryExclusionStore {
	return &MemoryExclusionStore{periods: make(map[domain.RequestID][]sla.ExclusionPeriod)}
}

func (s *MemoryExclusionStore) Open(_ context.Context, period *sla.ExclusionPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.periods[period.RequestID] {
		if p.IsOpen() {
			return sentinel.ErrConflict
		}
	}
	s.periods[period.RequestID] = append(s.periods[period.RequestID], clonePeriod(*period))
	return nil
}

func (s *MemoryExclusionStore) CloseOpen(_ context.Context, requestID domain.RequestID, endDate time.Time) (*sla.ExclusionPeriod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	periods := s.periods[requestID]
	for i := range periods {
		if periods[i].IsOpen() {
			end := endDate
			periods[i].EndDate = &end
			closed := clonePeriod(periods[i])
			return &closed, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *MemoryExclusionStore) FindOpen(_ context.Context, requestID domain.RequestID) (*sla.ExclusionPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.periods[requestID] {
		if p.IsOpen() {
			open := clonePeriod(p)
			return &open, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *MemoryExclusionStore) ListByRequest(_ context.Context, requestID domain.RequestID) ([]sla.ExclusionPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]sla.ExclusionPeriod, 0, len(s.periods[requestID]))
	for _, p := range s.periods[requestID] {
		out = append(out, clonePeriod(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

// Snapshot implements tx.Snapshotter.
func (s *MemoryExclusionStore) Snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := make(map[domain.RequestID][]sla.ExclusionPeriod, len(s.periods))
	for id, periods := range s.periods {
		cloned := make([]sla.ExclusionPeriod, len(periods))
		for i, p := range periods {
			cloned[i] = clonePeriod(p)
		}
		snap[id] = cloned
	}
	return snap
}

// Restore implements tx.Snapshotter.
func (s *MemoryExclusionStore) Restore(snapshot any) {
	periods, ok := snapshot.(map[domain.RequestID][]sla.ExclusionPeriod)
	if !ok {
		return
	}
	s.mu.Lock()
	s.periods = periods
	s.mu.Unlock()
}

func clonePeriod(p sla.ExclusionPeriod) sla.ExclusionPeriod {
	if p.EndDate != nil {
		end := *p.EndDate
		p.EndDate = &end
	}
	return p
}

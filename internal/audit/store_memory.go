package audit

import (
	"context"
	"sync"

	"caseflow/pkg/domain"
)

// MemoryStore keeps events in insertion order per request.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[domain.RequestID][]Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: make(map[domain.RequestID][]Event)}
}

func (s *MemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.RequestID] = append(s.events[event.RequestID], event)
	return nil
}

func (s *MemoryStore) ListByRequest(_ context.Context, requestID domain.RequestID) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event(nil), s.events[requestID]...), nil
}

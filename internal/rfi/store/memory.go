package store

import (
	"context"
	"sort"
	"sync"

	"caseflow/internal/rfi/models"
	"caseflow/pkg/domain"
	"caseflow/pkg/platform/sentinel"
)

// MemoryRFIStore keeps information requests in a map.
type MemoryRFIStore struct {
	mu   sync.RWMutex
	rfis map[domain.RFIID]*models.InformationRequest
}

func NewMemoryRFIStore() *MemoryRFIStore {
	return &MemoryRFIStore{rfis: make(map[domain.RFIID]*models.InformationRequest)}
}

func (s *MemoryRFIStore) Create(_ context.Context, rfi *models.InformationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rfis[rfi.ID]; ok {
		return sentinel.ErrConflict
	}
	s.rfis[rfi.ID] = cloneRFI(rfi)
	return nil
}

func (s *MemoryRFIStore) Get(_ context.Context, id domain.RFIID) (*models.InformationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rfi, ok := s.rfis[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneRFI(rfi), nil
}

func (s *MemoryRFIStore) Update(_ context.Context, rfi *models.InformationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rfis[rfi.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.rfis[rfi.ID] = cloneRFI(rfi)
	return nil
}

func (s *MemoryRFIStore) FindOpen(_ context.Context, requestID domain.RequestID) (*models.InformationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rfi := range s.rfis {
		if rfi.RequestID == requestID && rfi.IsOpen() {
			return cloneRFI(rfi), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *MemoryRFIStore) ListByRequest(_ context.Context, requestID domain.RequestID) ([]*models.InformationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.InformationRequest
	for _, rfi := range s.rfis {
		if rfi.RequestID == requestID {
			out = append(out, cloneRFI(rfi))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssuedDate.Before(out[j].IssuedDate) })
	return out, nil
}

// Snapshot implements tx.Snapshotter.
func (s *MemoryRFIStore) Snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := make(map[domain.RFIID]*models.InformationRequest, len(s.rfis))
	for id, rfi := range s.rfis {
		snap[id] = cloneRFI(rfi)
	}
	return snap
}

// Restore implements tx.Snapshotter.
func (s *MemoryRFIStore) Restore(snap any) {
	rfis, ok := snap.(map[domain.RFIID]*models.InformationRequest)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rfis = rfis
}

func cloneRFI(r *models.InformationRequest) *models.InformationRequest {
	c := *r
	c.Questions = append([]string(nil), r.Questions...)
	if r.ReceivedDate != nil {
		t := *r.ReceivedDate
		c.ReceivedDate = &t
	}
	return &c
}

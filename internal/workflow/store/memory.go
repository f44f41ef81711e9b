package store

import (
	"context"
	"sync"

	"caseflow/internal/workflow/models"
	"caseflow/pkg/domain"
	"caseflow/pkg/platform/sentinel"
)

// MemoryRequestStore keeps requests in a map. Update enforces the same
// version check the Postgres store does so optimistic-concurrency tests run
// without a database.
type MemoryRequestStore struct {
	mu       sync.RWMutex
	requests map[domain.RequestID]*models.Request
}

func NewMemoryRequestStore() *MemoryRequestStore {
	return &MemoryRequestStore{requests: make(map[domain.RequestID]*models.Request)}
}

func (s *MemoryRequestStore) Create(_ context.Context, req *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[req.ID]; ok {
		return sentinel.ErrConflict
	}
	s.requests[req.ID] = cloneRequest(req)
	return nil
}

func (s *MemoryRequestStore) Get(_ context.Context, id domain.RequestID) (*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneRequest(req), nil
}

func (s *MemoryRequestStore) Update(_ context.Context, req *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.requests[req.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Version != req.Version {
		return sentinel.ErrVersionMismatch
	}
	updated := cloneRequest(req)
	updated.Version++
	s.requests[req.ID] = updated
	req.Version = updated.Version
	return nil
}

func (s *MemoryRequestStore) ListByState(_ context.Context, state models.State) ([]*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Request
	for _, req := range s.requests {
		if req.State == state {
			out = append(out, cloneRequest(req))
		}
	}
	return out, nil
}

// Snapshot implements tx.Snapshotter.
func (s *MemoryRequestStore) Snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := make(map[domain.RequestID]*models.Request, len(s.requests))
	for id, req := range s.requests {
		snap[id] = cloneRequest(req)
	}
	return snap
}

// Restore implements tx.Snapshotter.
func (s *MemoryRequestStore) Restore(snap any) {
	requests, ok := snap.(map[domain.RequestID]*models.Request)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = requests
}

func cloneRequest(req *models.Request) *models.Request {
	c := *req
	if req.AcknowledgedDate != nil {
		t := *req.AcknowledgedDate
		c.AcknowledgedDate = &t
	}
	if req.TargetDate != nil {
		t := *req.TargetDate
		c.TargetDate = &t
	}
	return &c
}

// MemoryHistoryStore keeps status history in insertion order per request.
type MemoryHistoryStore struct {
	mu      sync.RWMutex
	entries map[domain.RequestID][]*models.StatusHistoryEntry
}

func NewMemoryHistoryStore() *MemoryHistoryStore {
	return &MemoryHistoryStore{entries: make(map[domain.RequestID][]*models.StatusHistoryEntry)}
}

func (s *MemoryHistoryStore) Append(_ context.Context, entry *models.StatusHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.RequestID] = append(s.entries[entry.RequestID], cloneHistoryEntry(entry))
	return nil
}

func (s *MemoryHistoryStore) ListByRequest(_ context.Context, requestID domain.RequestID) ([]*models.StatusHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.entries[requestID]
	out := make([]*models.StatusHistoryEntry, len(entries))
	for i, e := range entries {
		out[i] = cloneHistoryEntry(e)
	}
	return out, nil
}

// Snapshot implements tx.Snapshotter.
func (s *MemoryHistoryStore) Snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := make(map[domain.RequestID][]*models.StatusHistoryEntry, len(s.entries))
	for id, entries := range s.entries {
		cp := make([]*models.StatusHistoryEntry, len(entries))
		for i, e := range entries {
			cp[i] = cloneHistoryEntry(e)
		}
		snap[id] = cp
	}
	return snap
}

// Restore implements tx.Snapshotter.
func (s *MemoryHistoryStore) Restore(snap any) {
	entries, ok := snap.(map[domain.RequestID][]*models.StatusHistoryEntry)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = entries
}

func cloneHistoryEntry(e *models.StatusHistoryEntry) *models.StatusHistoryEntry {
	c := *e
	if e.Metadata != nil {
		c.Metadata = make(map[string]string, len(e.Metadata))
		for k, v := range e.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

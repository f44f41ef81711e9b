package store

import (
	"context"
	"sync"

	"caseflow/internal/payment/models"
	"caseflow/pkg/domain"
	"caseflow/pkg/platform/sentinel"
)

// MemoryRecordStore keeps payment records in a map keyed by request.
type MemoryRecordStore struct {
	mu      sync.RWMutex
	records map[domain.RequestID]*models.Record
}

func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{records: make(map[domain.RequestID]*models.Record)}
}

func (s *MemoryRecordStore) Create(_ context.Context, record *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.RequestID]; ok {
		return sentinel.ErrConflict
	}
	s.records[record.RequestID] = cloneRecord(record)
	return nil
}

func (s *MemoryRecordStore) GetByRequest(_ context.Context, requestID domain.RequestID) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneRecord(record), nil
}

func (s *MemoryRecordStore) Update(_ context.Context, record *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.RequestID]; !ok {
		return sentinel.ErrNotFound
	}
	s.records[record.RequestID] = cloneRecord(record)
	return nil
}

// Snapshot implements tx.Snapshotter.
func (s *MemoryRecordStore) Snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := make(map[domain.RequestID]*models.Record, len(s.records))
	for id, record := range s.records {
		snap[id] = cloneRecord(record)
	}
	return snap
}

// Restore implements tx.Snapshotter.
func (s *MemoryRecordStore) Restore(snap any) {
	records, ok := snap.(map[domain.RequestID]*models.Record)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = records
}

func cloneRecord(r *models.Record) *models.Record {
	c := *r
	if r.PaymentDate != nil {
		t := *r.PaymentDate
		c.PaymentDate = &t
	}
	return &c
}

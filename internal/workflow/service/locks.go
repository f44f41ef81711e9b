package service

import (
	"sync"

	"caseflow/pkg/domain"
)

// requestLocks serializes transitions per request. The optimistic version
// check on the store is the correctness backstop; the lock keeps concurrent
// transitions on the same request from burning retries against each other.
type requestLocks struct {
	mu    sync.Mutex
	locks map[domain.RequestID]*requestLock
}

type requestLock struct {
	mu   sync.Mutex
	refs int
}

func newRequestLocks() *requestLocks {
	return &requestLocks{locks: make(map[domain.RequestID]*requestLock)}
}

// Acquire blocks until the per-request lock is held and returns the release
// func. Lock entries are reference counted and removed when unused so the map
// does not grow with request history.
func (l *requestLocks) Acquire(id domain.RequestID) func() {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &requestLock{}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

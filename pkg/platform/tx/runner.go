package tx

import (
	"context"
	"database/sql"
	"sync"
	"time"

	dErrors "caseflow/pkg/domain-errors"
)

const defaultTxTimeout = 5 * time.Second

// Runner executes a unit of work atomically: every store write inside fn
// commits together or not at all.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// PostgresRunner wraps fn in a database transaction carried through context.
// Stores resolve the transaction via Resolve.
type PostgresRunner struct {
	db      *sql.DB
	timeout time.Duration
}

// NewPostgresRunner constructs a runner over the given pool.
func NewPostgresRunner(db *sql.DB) *PostgresRunner {
	return &PostgresRunner{db: db}
}

func (r *PostgresRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := r.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = dbTx.Rollback()
	}()

	if err := fn(WithTx(ctx, dbTx)); err != nil {
		return err
	}
	return dbTx.Commit()
}

// Snapshotter lets in-memory stores participate in rollback: Snapshot before
// the unit of work, Restore on failure.
type Snapshotter interface {
	Snapshot() any
	Restore(snapshot any)
}

// MemoryRunner provides transactional semantics over in-memory stores by
// snapshotting registered stores and restoring them when the unit of work
// fails. Units of work are serialized.
type MemoryRunner struct {
	mu     sync.Mutex
	stores []Snapshotter
}

// NewMemoryRunner constructs a runner over the given stores.
func NewMemoryRunner(stores ...Snapshotter) *MemoryRunner {
	return &MemoryRunner{stores: stores}
}

func (r *MemoryRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	snapshots := make([]any, len(r.stores))
	for i, s := range r.stores {
		snapshots[i] = s.Snapshot()
	}
	if err := fn(ctx); err != nil {
		for i := len(r.stores) - 1; i >= 0; i-- {
			r.stores[i].Restore(snapshots[i])
		}
		return err
	}
	return nil
}

package ledger

import (
	"context"
	"database/sql"
	"sync"
	"time"

	txcontext "h2ledger/pkg/platform/tx"
)

// Tx is the all-or-nothing boundary for state-changing entry points. Every
// public mutation runs inside RunInTx: calls are totally ordered relative to
// each other and either fully apply or fully revert. Queries bypass it and
// observe the most recently committed state.
type Tx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// defaultTxTimeout bounds a single state transition. The core has no internal
// timeout concept; this only protects against a wedged backend.
const defaultTxTimeout = 5 * time.Second

// MemoryTx serializes state transitions with one global mutex. With the
// in-memory stores there is nothing to roll back: services validate every
// failure condition before their first write, so an aborted call has written
// nothing.
type MemoryTx struct {
	mu sync.Mutex
}

func NewMemoryTx() *MemoryTx {
	return &MemoryTx{}
}

func (t *MemoryTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}

// PostgresTx wraps each state transition in a SQL transaction, injected into
// context so every participating store joins it. The mutex keeps transitions
// totally ordered within this process as well, matching the memory semantics.
type PostgresTx struct {
	mu sync.Mutex
	db *sql.DB
}

func NewPostgresTx(db *sql.DB) *PostgresTx {
	return &PostgresTx{db: db}
}

func (t *PostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTxTimeout)
		defer cancel()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}
	return tx.Commit()
}

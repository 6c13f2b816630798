package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/syssam/dirtydb"
	"github.com/syssam/dirtydb/dialect"
)

// txDriver runs every statement of a transaction-bound handle on the
// transaction and holds the write records until commit.
type txDriver struct {
	dialect.Tx

	mu       sync.Mutex
	onCommit []func()
}

func (t *txDriver) addCommitHook(f func()) {
	t.mu.Lock()
	t.onCommit = append(t.onCommit, f)
	t.mu.Unlock()
}

func (t *txDriver) commitHooks() []func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]func(){}, t.onCommit...)
}

// WithTx runs fn in a transaction on the write pool of the backend. The
// handle fn receives sends reads and writes to the transaction. The
// transaction commits when fn returns nil and rolls back otherwise,
// including when fn panics. Writes start the sticky window and reach
// subscribers only after commit.
//
// Calling WithTx on a transaction-bound handle runs fn in the same
// transaction.
func (m *Manager) WithTx(ctx context.Context, fn func(tx *Manager) error) (rerr error) {
	if m.tx != nil {
		return fn(m)
	}
	b := m.backend()
	if b.write == nil {
		return dirtydb.ErrReadOnly
	}
	tx, err := b.write.Tx(ctx)
	if err != nil {
		return fmt.Errorf("manager: begin transaction: %w", err)
	}
	td := &txDriver{Tx: tx}
	defer func() {
		if v := recover(); v != nil {
			_ = tx.Rollback()
			panic(v)
		}
	}()
	if err := fn(&Manager{shared: m.shared, kind: m.kind, tx: td}); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return errors.Join(err, fmt.Errorf("manager: rollback: %w", rerr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("manager: commit: %w", err)
	}
	for _, f := range td.commitHooks() {
		f()
	}
	return nil
}

// InTx reports whether the handle is bound to a transaction.
func (m *Manager) InTx() bool { return m.tx != nil }

// root returns the handle of the same backend outside any transaction.
func (m *Manager) root() *Manager {
	return &Manager{shared: m.shared, kind: m.kind}
}

package manager

import (
	"context"

	"github.com/syssam/dirtydb"
	"github.com/syssam/dirtydb/field"
)

// The raw methods run hand-written statements. Placeholders must match
// the backend: "?" on MySQL and SQLite, "$n" on Postgres. Writes are
// recorded like those of the builder methods, under an empty table name,
// so they start the sticky window but invalidate no cached table.

// RawInsert runs an insert and reports whether a row was inserted.
func (m *Manager) RawInsert(ctx context.Context, stmt string, args ...any) (bool, error) {
	n, err := m.rawExec(ctx, "raw_insert", stmt, args)
	return n > 0, err
}

// RawUpdate runs an update and returns the number of affected rows.
func (m *Manager) RawUpdate(ctx context.Context, stmt string, args ...any) (int64, error) {
	return m.rawExec(ctx, "raw_update", stmt, args)
}

// RawDelete runs a delete and returns the number of affected rows.
func (m *Manager) RawDelete(ctx context.Context, stmt string, args ...any) (int64, error) {
	return m.rawExec(ctx, "raw_delete", stmt, args)
}

// RawStatement runs any statement on the write pool.
func (m *Manager) RawStatement(ctx context.Context, stmt string, args ...any) (bool, error) {
	if _, err := m.rawExec(ctx, "raw_statement", stmt, args); err != nil {
		return false, err
	}
	return true, nil
}

// RawSelect runs a select on the routed read pool.
func (m *Manager) RawSelect(ctx context.Context, stmt string, args ...any) ([]field.ColumnAndValue, error) {
	argv, err := bindArgs(args)
	if err != nil {
		return nil, dirtydb.NewQueryError("", "raw_select", err)
	}
	drv, _ := m.reader(ctx)
	rows, err := queryRows(ctx, drv, stmt, argv)
	if err != nil {
		return nil, dirtydb.NewQueryError("", "raw_select", err)
	}
	if rows == nil {
		rows = []field.ColumnAndValue{}
	}
	return rows, nil
}

func (m *Manager) rawExec(ctx context.Context, op, stmt string, args []any) (int64, error) {
	argv, err := bindArgs(args)
	if err != nil {
		return 0, dirtydb.NewMutationError("", op, err)
	}
	res, err := m.exec(ctx, stmt, argv)
	if err != nil {
		return 0, dirtydb.NewMutationError("", op, err)
	}
	m.wrote(ctx, "")
	n, err := res.RowsAffected()
	if err != nil {
		// Some drivers cannot count; the statement itself succeeded.
		return 0, nil
	}
	return n, nil
}

// bindArgs converts arguments through field.Of so Go values and
// field.Values bind the same way as in compiled statements.
func bindArgs(args []any) ([]any, error) {
	out := make([]any, len(args))
	for i, a := range args {
		fv, err := field.TryOf(a)
		if err != nil {
			return nil, err
		}
		v, err := fv.Value()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

package manager

import (
	"context"

	"github.com/syssam/dirtydb"
	"github.com/syssam/dirtydb/dialect/sql"
	"github.com/syssam/dirtydb/field"
	"github.com/syssam/dirtydb/query"
)

// Insert inserts one row into table.
func (m *Manager) Insert(ctx context.Context, table string, row field.ToColumnAndValue) error {
	return m.InsertMulti(ctx, table, row)
}

// InsertInto inserts rec into its own table.
func (m *Manager) InsertInto(ctx context.Context, rec dirtydb.Entity) error {
	return m.Insert(ctx, rec.TableName(), rec)
}

// InsertMulti inserts rows into table with one statement. The columns are
// those of the first row.
func (m *Manager) InsertMulti(ctx context.Context, table string, rows ...field.ToColumnAndValue) error {
	return m.mutate(ctx, query.Insert(table, columnValues(rows)...), "insert")
}

// SoftInsert inserts row into table and silently skips it when it
// violates a unique constraint.
func (m *Manager) SoftInsert(ctx context.Context, table string, row field.ToColumnAndValue) error {
	return m.SoftInsertMulti(ctx, table, row)
}

// SoftInsertMulti is SoftInsert for several rows.
func (m *Manager) SoftInsertMulti(ctx context.Context, table string, rows ...field.ToColumnAndValue) error {
	return m.mutate(ctx, query.InsertIgnore(table, columnValues(rows)...), "soft_insert")
}

// Upsert inserts row, or updates the toUpdate columns of the row that
// conflicts with it on the unique columns.
func (m *Manager) Upsert(ctx context.Context, table string, row field.ToColumnAndValue, toUpdate, unique []string) error {
	return m.UpsertMulti(ctx, table, []field.ToColumnAndValue{row}, toUpdate, unique)
}

// UpsertMulti is Upsert for several rows.
func (m *Manager) UpsertMulti(ctx context.Context, table string, rows []field.ToColumnAndValue, toUpdate, unique []string) error {
	return m.mutate(ctx, query.Upsert(table, columnValues(rows), toUpdate, unique), "upsert")
}

// Update sets the columns of row on the rows of table fn selects.
// NotSet columns are left untouched. Without conditions every row is
// updated.
func (m *Manager) Update(ctx context.Context, table string, row field.ToColumnAndValue, fn func(*query.Builder)) error {
	b := query.Update(table, row.ToColumnAndValue())
	if fn != nil {
		fn(b)
	}
	return m.mutate(ctx, b, "update")
}

// UpdateTable is Update on the table of e.
func (m *Manager) UpdateTable(ctx context.Context, e dirtydb.TableEntity, row field.ToColumnAndValue, fn func(*query.Builder)) error {
	return m.Update(ctx, e.TableName(), row, fn)
}

// Delete deletes the rows of table fn selects. Without conditions every
// row is deleted.
func (m *Manager) Delete(ctx context.Context, table string, fn func(*query.Builder)) error {
	b := query.Delete(table)
	if fn != nil {
		fn(b)
	}
	return m.mutate(ctx, b, "delete")
}

// DeleteFromTable is Delete on the table of e.
func (m *Manager) DeleteFromTable(ctx context.Context, e dirtydb.TableEntity, fn func(*query.Builder)) error {
	return m.Delete(ctx, e.TableName(), fn)
}

// Exec runs a write builder built elsewhere.
func (m *Manager) Exec(ctx context.Context, b *query.Builder) error {
	return m.mutate(ctx, b, b.Action().String())
}

// mutate compiles and runs a write on the write pool and records it.
func (m *Manager) mutate(ctx context.Context, b *query.Builder, op string) error {
	_, err := m.execBuilder(ctx, b, op)
	return err
}

func (m *Manager) execBuilder(ctx context.Context, b *query.Builder, op string) (sql.Result, error) {
	b, err := m.authorize(ctx, b)
	if err != nil {
		return nil, dirtydb.NewMutationError(b.Table(), op, err)
	}
	stmt, args, err := sql.Compile(m.kind, b)
	if err != nil {
		return nil, dirtydb.NewMutationError(b.Table(), op, err)
	}
	res, err := m.exec(ctx, stmt, args)
	if err != nil {
		return nil, dirtydb.NewMutationError(b.Table(), op, err)
	}
	m.wrote(ctx, b.Table())
	return res, nil
}

// exec runs a statement on the write pool. It does not record the write.
func (m *Manager) exec(ctx context.Context, stmt string, args []any) (sql.Result, error) {
	drv, err := m.writer()
	if err != nil {
		return nil, err
	}
	var res sql.Result
	if err := drv.Exec(ctx, stmt, args, &res); err != nil {
		return nil, sql.ConvertError(err)
	}
	return res, nil
}

func columnValues(rows []field.ToColumnAndValue) []field.ColumnAndValue {
	out := make([]field.ColumnAndValue, 0, len(rows))
	for _, r := range rows {
		if r != nil {
			out = append(out, r.ToColumnAndValue())
		}
	}
	return out
}

package manager

import (
	"context"
	"errors"
	"fmt"

	atlas "ariga.io/atlas/sql/schema"

	"github.com/syssam/dirtydb"
	"github.com/syssam/dirtydb/dialect"
	"github.com/syssam/dirtydb/dialect/sql"
	"github.com/syssam/dirtydb/dialect/sql/schema"
	"github.com/syssam/dirtydb/query"
	dsl "github.com/syssam/dirtydb/schema"
)

// CreateTableSchema creates table as declared by fn. It does nothing
// when the table already exists.
//
//	err := m.CreateTableSchema(ctx, "users", func(t *schema.TableBlueprint) {
//		t.IDSet()
//		t.String("name")
//		t.Timestamps()
//	})
func (m *Manager) CreateTableSchema(ctx context.Context, table string, fn func(*dsl.TableBlueprint)) error {
	drv, err := m.writer()
	if err != nil {
		return dirtydb.NewMutationError(table, "create_table", err)
	}
	exists, err := m.hasTable(ctx, drv, table)
	if err != nil {
		return dirtydb.NewMutationError(table, "create_table", err)
	}
	if exists {
		m.logger.DebugContext(ctx, "table exists, create skipped", "kind", m.kind, "table", table)
		return nil
	}
	bp := dsl.NewTable(table)
	if fn != nil {
		fn(bp)
	}
	return m.applyBlueprint(ctx, bp, "create_table", nil)
}

// UpdateTableSchema adds the columns and indexes fn declares to an
// existing table. It returns a *dirtydb.NotFoundError when the table
// does not exist.
func (m *Manager) UpdateTableSchema(ctx context.Context, table string, fn func(*dsl.TableBlueprint)) error {
	drv, err := m.writer()
	if err != nil {
		return dirtydb.NewMutationError(table, "update_table", err)
	}
	exists, err := m.hasTable(ctx, drv, table)
	if err != nil {
		return dirtydb.NewMutationError(table, "update_table", err)
	}
	if !exists {
		return dirtydb.NewMutationError(table, "update_table", dirtydb.NewNotFoundError(table))
	}
	bp := dsl.AlterTable(table)
	if fn != nil {
		fn(bp)
	}
	var live *atlas.Table
	if m.tx == nil {
		if live, _, err = m.Inspect(ctx, table); err != nil {
			m.logger.WarnContext(ctx, "live inspection failed", "table", table, "error", err)
		}
	}
	return m.applyBlueprint(ctx, bp, "update_table", live)
}

// CreateViewFromTable creates the view name selecting from fromTable as
// narrowed by fn.
func (m *Manager) CreateViewFromTable(ctx context.Context, name, fromTable string, fn func(*query.Builder)) error {
	q := query.Select(fromTable)
	if fn != nil {
		fn(q)
	}
	return m.applyBlueprint(ctx, dsl.NewView(name, q), "create_view", nil)
}

// Apply runs the DDL of a blueprint built elsewhere, such as one
// produced by a schema mixin or a migration. Unlike CreateTableSchema it
// does not check that the table is absent.
func (m *Manager) Apply(ctx context.Context, bp *dsl.TableBlueprint) error {
	op := "update_table"
	if bp.IsNew() {
		op = "create_table"
	}
	return m.applyBlueprint(ctx, bp, op, nil)
}

func (m *Manager) applyBlueprint(ctx context.Context, bp *dsl.TableBlueprint, op string, live *atlas.Table) error {
	if !bp.IsView() {
		r := schema.ValidateBlueprint(bp)
		if live != nil {
			r.Merge(schema.ValidateLive(live, bp))
		}
		for _, w := range r.Warnings {
			m.logger.WarnContext(ctx, "schema warning", "table", w.Table, "column", w.Column, "message", w.Message)
		}
		if r.HasErrors() {
			return dirtydb.NewMutationError(bp.Name, op, errors.New(r.String()))
		}
	}
	stmts, err := schema.Statements(m.kind, bp)
	if err != nil {
		return dirtydb.NewMutationError(bp.Name, op, err)
	}
	if err := m.execAll(ctx, stmts); err != nil {
		return dirtydb.NewMutationError(bp.Name, op, err)
	}
	m.logger.InfoContext(ctx, "schema applied", "kind", m.kind, "table", bp.Name, "op", op, "statements", len(stmts))
	m.wrote(ctx, bp.Name)
	if bp.NewName != "" {
		m.invalidate(ctx, bp.NewName)
	}
	return nil
}

// execAll runs DDL statements in order. On SQLite and Postgres they run
// in one transaction so a failure leaves nothing half applied. MySQL
// commits DDL implicitly.
func (m *Manager) execAll(ctx context.Context, stmts []string) error {
	if m.tx != nil || m.kind == dialect.MySQL || len(stmts) < 2 {
		for _, s := range stmts {
			if _, err := m.exec(ctx, s, []any{}); err != nil {
				return err
			}
		}
		return nil
	}
	b := m.backend()
	if b.write == nil {
		return dirtydb.ErrReadOnly
	}
	tx, err := b.write.Tx(ctx)
	if err != nil {
		return err
	}
	for _, s := range stmts {
		if err := tx.Exec(ctx, s, []any{}, nil); err != nil {
			return errors.Join(sql.ConvertError(err), tx.Rollback())
		}
	}
	return tx.Commit()
}

// HasTable reports whether a table or view named name exists.
func (m *Manager) HasTable(ctx context.Context, name string) (bool, error) {
	drv, _ := m.reader(ctx)
	ok, err := m.hasTable(ctx, drv, name)
	if err != nil {
		return false, dirtydb.NewQueryError(name, "has_table", err)
	}
	return ok, nil
}

func (m *Manager) hasTable(ctx context.Context, drv dialect.ExecQuerier, name string) (bool, error) {
	stmt, args := schema.HasTableQuery(m.kind, name)
	rows, err := queryRows(ctx, drv, stmt, args)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// DropTable drops table if it exists.
func (m *Manager) DropTable(ctx context.Context, table string) error {
	return m.mutate(ctx, query.DropTable(table), "drop_table")
}

// DropView drops the view name if it exists.
func (m *Manager) DropView(ctx context.Context, name string) error {
	if _, err := m.exec(ctx, schema.DropViewStatement(m.kind, name), []any{}); err != nil {
		return dirtydb.NewMutationError(name, "drop_view", err)
	}
	m.wrote(ctx, name)
	return nil
}

// RenameTable renames table to newName.
func (m *Manager) RenameTable(ctx context.Context, table, newName string) error {
	if err := m.mutate(ctx, query.RenameTable(table, newName), "rename_table"); err != nil {
		return err
	}
	m.invalidate(ctx, newName)
	return nil
}

// DropColumn drops column from table.
func (m *Manager) DropColumn(ctx context.Context, table, column string) error {
	return m.mutate(ctx, query.DropColumn(table, column), "drop_column")
}

// RenameColumn renames column old of table to newName.
func (m *Manager) RenameColumn(ctx context.Context, table, old, newName string) error {
	return m.mutate(ctx, query.RenameColumn(table, old, newName), "rename_column")
}

// Inspect returns the live definition of table. The boolean is false
// when the table does not exist.
func (m *Manager) Inspect(ctx context.Context, table string) (*atlas.Table, bool, error) {
	b := m.backend()
	drv := b.write
	if drv == nil {
		drv = b.read
	}
	db, ok := sql.DBOf(drv)
	if !ok {
		return nil, false, fmt.Errorf("manager: %s driver %T cannot be inspected", m.kind, drv)
	}
	insp, err := schema.NewInspector(m.kind, db)
	if err != nil {
		return nil, false, err
	}
	return insp.Table(ctx, table)
}

// ValidateTableSchema checks bp against itself and, when the table
// exists, against its live definition.
func (m *Manager) ValidateTableSchema(ctx context.Context, bp *dsl.TableBlueprint, opts ...schema.ValidateOption) (*schema.ValidationResult, error) {
	r := schema.ValidateBlueprint(bp)
	live, ok, err := m.Inspect(ctx, bp.Name)
	if err != nil {
		return nil, err
	}
	if ok {
		r.Merge(schema.ValidateLive(live, bp, opts...))
	}
	return r, nil
}

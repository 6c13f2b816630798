package query

import (
	"slices"

	"github.com/syssam/dirtydb"
	"github.com/syssam/dirtydb/field"
)

// DeletedAtColumn is the conventional soft delete column.
const DeletedAtColumn = "deleted_at"

// Action is the kind of statement a Builder describes.
type Action uint8

// Statement actions.
const (
	ActionSelect Action = iota
	ActionInsert
	ActionUpsert
	ActionUpdate
	ActionDelete
	ActionDropTable
	ActionRenameTable
	ActionDropColumn
	ActionRenameColumn
)

var actionNames = [...]string{
	ActionSelect:       "select",
	ActionInsert:       "insert",
	ActionUpsert:       "upsert",
	ActionUpdate:       "update",
	ActionDelete:       "delete",
	ActionDropTable:    "drop_table",
	ActionRenameTable:  "rename_table",
	ActionDropColumn:   "drop_column",
	ActionRenameColumn: "rename_column",
}

// String returns the action name used in errors and logs.
func (a Action) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return "unknown"
}

// IsWrite reports whether the action changes data or structure.
func (a Action) IsWrite() bool { return a != ActionSelect }

// Builder describes one statement.
type Builder struct {
	table  string
	action Action

	columns  []Column
	rows     []field.ColumnAndValue
	ignore   bool
	values   field.ColumnAndValue
	toUpdate []string
	unique   []string
	column   string
	newName  string

	wheres []Where
	joins  []*Join
	orders []Order
	limit  int
	offset int
	trash  string
}

// New returns a builder for table with the given action.
func New(table string, action Action) *Builder {
	return &Builder{table: table, action: action}
}

// Select returns a select builder. Without Select calls every column is
// selected.
func Select(table string) *Builder {
	return New(table, ActionSelect)
}

// Insert returns an insert of rows.
func Insert(table string, rows ...field.ColumnAndValue) *Builder {
	b := New(table, ActionInsert)
	b.rows = rows
	return b
}

// InsertIgnore returns an insert that skips rows violating a uniqueness
// constraint.
func InsertIgnore(table string, rows ...field.ColumnAndValue) *Builder {
	b := Insert(table, rows...)
	b.ignore = true
	return b
}

// Upsert returns an insert that updates toUpdate columns of rows that
// collide on the unique columns.
func Upsert(table string, rows []field.ColumnAndValue, toUpdate, unique []string) *Builder {
	b := New(table, ActionUpsert)
	b.rows = rows
	b.toUpdate = toUpdate
	b.unique = unique
	return b
}

// Update returns an update setting values. NotSet entries are skipped
// when compiled.
func Update(table string, values field.ColumnAndValue) *Builder {
	b := New(table, ActionUpdate)
	b.values = values
	return b
}

// Delete returns a delete builder.
func Delete(table string) *Builder {
	return New(table, ActionDelete)
}

// DropTable returns a DROP TABLE IF EXISTS.
func DropTable(table string) *Builder {
	return New(table, ActionDropTable)
}

// RenameTable renames table to newName.
func RenameTable(table, newName string) *Builder {
	b := New(table, ActionRenameTable)
	b.newName = newName
	return b
}

// DropColumn drops column from table.
func DropColumn(table, column string) *Builder {
	b := New(table, ActionDropColumn)
	b.column = column
	return b
}

// RenameColumn renames a column of table.
func RenameColumn(table, old, newName string) *Builder {
	b := New(table, ActionRenameColumn)
	b.column = old
	b.newName = newName
	return b
}

// Table returns the target table.
func (b *Builder) Table() string { return b.table }

// Action returns the statement action.
func (b *Builder) Action() Action { return b.action }

// Columns returns the select list. Nil means every column.
func (b *Builder) Columns() []Column { return b.columns }

// AllColumns reports whether no explicit select list was given.
func (b *Builder) AllColumns() bool { return len(b.columns) == 0 }

// Rows returns the rows of an insert or upsert.
func (b *Builder) Rows() []field.ColumnAndValue { return b.rows }

// Ignored reports whether an insert skips conflicting rows.
func (b *Builder) Ignored() bool { return b.ignore }

// Values returns the assignments of an update.
func (b *Builder) Values() field.ColumnAndValue { return b.values }

// ToUpdate returns the columns an upsert overwrites on conflict.
func (b *Builder) ToUpdate() []string { return b.toUpdate }

// Unique returns the conflict target of an upsert.
func (b *Builder) Unique() []string { return b.unique }

// Column returns the column a DropColumn or RenameColumn targets.
func (b *Builder) Column() string { return b.column }

// NewName returns the new name of a rename.
func (b *Builder) NewName() string { return b.newName }

// Joins returns the joins in the order they were first added.
func (b *Builder) Joins() []*Join { return b.joins }

// Orders returns the ordering.
func (b *Builder) Orders() []Order { return b.orders }

// Paging returns the limit and offset; zero means unset.
func (b *Builder) Paging() (limit, offset int) { return b.limit, b.offset }

// Trashed returns the soft delete column the builder is scoped on, or "".
func (b *Builder) Trashed() string { return b.trash }

// Wheres returns the conditions, with the soft delete scope appended when
// set. Conditions joined by OR are grouped first so the scope applies to
// all of them.
func (b *Builder) Wheres() []Where {
	if b.trash == "" {
		return b.wheres
	}
	scope := Where{Join: JoinAnd, Condition: Condition{Column: b.trash, Operator: Null}}
	switch {
	case len(b.wheres) == 0:
		scope.Join = JoinNone
		return []Where{scope}
	case hasOr(b.wheres):
		return []Where{{Join: JoinNone, Group: b.wheres}, scope}
	default:
		return append(slices.Clone(b.wheres), scope)
	}
}

func hasOr(ws []Where) bool {
	for _, w := range ws {
		if w.Join == JoinOr {
			return true
		}
	}
	return false
}

// SetColumn sets one assignment of an update.
func (b *Builder) SetColumn(col string, x any) *Builder {
	if b.values == nil {
		b.values = make(field.ColumnAndValue)
	}
	b.values[col] = field.Of(x)
	return b
}

// SetRows replaces the rows of an insert or upsert.
func (b *Builder) SetRows(rows ...field.ColumnAndValue) *Builder {
	b.rows = rows
	return b
}

// Select appends columns to the select list.
func (b *Builder) Select(columns ...string) *Builder {
	b.columns = append(b.columns, cols(columns)...)
	return b
}

// Unselect clears the select list, including columns selected through
// joins. The joins themselves are kept.
func (b *Builder) Unselect() *Builder {
	b.columns = nil
	for i, j := range b.joins {
		if len(j.Columns) > 0 {
			bare := *j
			bare.Columns = nil
			b.joins[i] = &bare
		}
	}
	return b
}

// SelectColumn appends a prepared column to the select list.
func (b *Builder) SelectColumn(columns ...Column) *Builder {
	b.columns = append(b.columns, columns...)
	return b
}

// SelectAs selects column of the builder's table under alias.
func (b *Builder) SelectAs(column, alias string) *Builder {
	return b.SelectColumn(Column{Name: column, Table: b.table, Alias: alias})
}

// SelectTable selects every column of e qualified with its table name.
func (b *Builder) SelectTable(e dirtydb.TableEntity) *Builder {
	return b.Select(dirtydb.FullNames(e)...)
}

// SelectTableAs selects every column of e aliased "prefix.col", so joined
// rows can be nested with field.Structure.
func (b *Builder) SelectTableAs(e dirtydb.TableEntity, prefix string) *Builder {
	return b.SelectColumn(aliased(e, prefix)...)
}

// SubQueryColumn selects the result of a nested select on table.
func (b *Builder) SubQueryColumn(table string, fn func(*Builder), alias string) *Builder {
	sub := Select(table)
	fn(sub)
	return b.SelectColumn(Column{Sub: sub, Table: table, Alias: alias})
}

func (b *Builder) aggregate(agg Aggregate, column, alias string) *Builder {
	return b.SelectColumn(Column{Name: column, Alias: alias, Aggregate: agg})
}

// Count selects COUNT(column) as count_column.
func (b *Builder) Count(column string) *Builder { return b.CountAs(column, "count_"+column) }

// CountAs selects COUNT(column) under alias.
func (b *Builder) CountAs(column, alias string) *Builder { return b.aggregate(Count, column, alias) }

// Max selects MAX(column) as max_column.
func (b *Builder) Max(column string) *Builder { return b.MaxAs(column, "max_"+column) }

// MaxAs selects MAX(column) under alias.
func (b *Builder) MaxAs(column, alias string) *Builder { return b.aggregate(Max, column, alias) }

// Min selects MIN(column).
func (b *Builder) Min(column string) *Builder { return b.aggregate(Min, column, "") }

// MinAs selects MIN(column) under alias.
func (b *Builder) MinAs(column, alias string) *Builder { return b.aggregate(Min, column, alias) }

// Sum selects SUM(column).
func (b *Builder) Sum(column string) *Builder { return b.aggregate(Sum, column, "") }

// SumAs selects SUM(column) under alias.
func (b *Builder) SumAs(column, alias string) *Builder { return b.aggregate(Sum, column, alias) }

// Avg selects AVG(column).
func (b *Builder) Avg(column string) *Builder { return b.aggregate(Avg, column, "") }

// AvgAs selects AVG(column) under alias.
func (b *Builder) AvgAs(column, alias string) *Builder { return b.aggregate(Avg, column, alias) }

// Asc orders by column ascending.
func (b *Builder) Asc(column string) *Builder {
	b.orders = append(b.orders, Order{Column: column})
	return b
}

// Desc orders by column descending.
func (b *Builder) Desc(column string) *Builder {
	b.orders = append(b.orders, Order{Column: column, Desc: true})
	return b
}

// Limit caps the number of rows.
func (b *Builder) Limit(n int) *Builder {
	b.limit = n
	return b
}

// Offset skips the first n rows.
func (b *Builder) Offset(n int) *Builder {
	b.offset = n
	return b
}

// WithoutTrash scopes the builder to rows whose deleted_at is NULL.
func (b *Builder) WithoutTrash() *Builder {
	b.trash = DeletedAtColumn
	return b
}

// WithoutTableTrash scopes the builder on e's deleted-at column, qualified
// with its table name. Entities without one are left unscoped.
func (b *Builder) WithoutTableTrash(e dirtydb.TableEntity) *Builder {
	if col := e.DeletedAtColumn(); col != "" {
		b.trash = dirtydb.Prefix(e, col)
	}
	return b
}

// WithTrash removes the soft delete scope.
func (b *Builder) WithTrash() *Builder {
	b.trash = ""
	return b
}

// Clone returns a copy that can be changed without affecting b. Nested
// sub-queries are shared.
func (b *Builder) Clone() *Builder {
	c := *b
	c.columns = slices.Clone(b.columns)
	c.rows = slices.Clone(b.rows)
	c.values = b.values.Clone()
	c.toUpdate = slices.Clone(b.toUpdate)
	c.unique = slices.Clone(b.unique)
	c.wheres = slices.Clone(b.wheres)
	c.joins = slices.Clone(b.joins)
	c.orders = slices.Clone(b.orders)
	return &c
}

package sql

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/syssam/dirtydb/dialect"
	"github.com/syssam/dirtydb/field"
	"github.com/syssam/dirtydb/query"
)

// Compile errors.
var (
	ErrNoRows       = errors.New("dialect/sql: insert without rows")
	ErrEmptyUpdate  = errors.New("dialect/sql: update without values")
	ErrNoUnique     = errors.New("dialect/sql: upsert without unique columns")
	ErrUnknownKind  = errors.New("dialect/sql: unknown database kind")
	ErrUnknownQuery = errors.New("dialect/sql: unknown query action")
)

// mysqlMaxLimit is the row count MySQL needs for an OFFSET without LIMIT.
const mysqlMaxLimit = "18446744073709551615"

// Compile renders b as a statement of the given backend and returns it
// with its arguments. Arguments are converted with field.Value.Value so
// they can be handed to database/sql as is.
func Compile(kind dialect.Kind, b *query.Builder) (string, []any, error) {
	switch kind {
	case dialect.MySQL, dialect.Postgres, dialect.SQLite:
	default:
		return "", nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	c := &compiler{kind: kind}
	var q string
	switch b.Action() {
	case query.ActionSelect:
		q = c.selectSQL(b)
	case query.ActionInsert, query.ActionUpsert:
		q = c.insertSQL(b)
	case query.ActionUpdate:
		q = c.updateSQL(b)
	case query.ActionDelete:
		q = c.deleteSQL(b)
	case query.ActionDropTable:
		q = "DROP TABLE IF EXISTS " + b.Table()
	case query.ActionRenameTable:
		q = "ALTER TABLE " + b.Table() + " RENAME TO " + b.NewName()
	case query.ActionDropColumn:
		q = "ALTER TABLE " + b.Table() + " DROP COLUMN " + b.Column()
	case query.ActionRenameColumn:
		q = "ALTER TABLE " + b.Table() + " RENAME COLUMN " + b.Column() + " TO " + b.NewName()
	default:
		return "", nil, fmt.Errorf("%w: %s", ErrUnknownQuery, b.Action())
	}
	if c.err != nil {
		return "", nil, c.err
	}
	return q, c.args, nil
}

// Placeholder returns the n-th (1-based) bind placeholder of kind.
func Placeholder(kind dialect.Kind, n int) string {
	if kind == dialect.Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Quote quotes an identifier for kind.
func Quote(kind dialect.Kind, ident string) string {
	if kind == dialect.Postgres {
		return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
	}
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

// QuoteAlias quotes a select alias. Aliases hold dots ("author.name") so
// they are always quoted.
func QuoteAlias(kind dialect.Kind, alias string) string {
	if kind == dialect.Postgres {
		return `"` + strings.ReplaceAll(alias, `"`, `""`) + `"`
	}
	return "'" + strings.ReplaceAll(alias, "'", "''") + "'"
}

type compiler struct {
	kind dialect.Kind
	args []any
	err  error
}

// bind appends v to the arguments and returns its placeholder.
func (c *compiler) bind(v field.Value) string {
	arg, err := v.Value()
	if err != nil && c.err == nil {
		c.err = fmt.Errorf("dialect/sql: bind %s: %w", v.Kind(), err)
	}
	c.args = append(c.args, arg)
	return Placeholder(c.kind, len(c.args))
}

func (c *compiler) selectSQL(b *query.Builder) string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(c.columns(b))
	sb.WriteString(" FROM ")
	sb.WriteString(b.Table())
	c.joins(&sb, b)
	c.where(&sb, b)
	if order := query.OrderClause(b.Orders()); order != "" {
		sb.WriteString(" ")
		sb.WriteString(order)
	}
	c.paging(&sb, b)
	return sb.String()
}

func (c *compiler) columns(b *query.Builder) string {
	var parts []string
	if b.AllColumns() {
		parts = append(parts, "*")
	}
	for _, col := range b.Columns() {
		parts = append(parts, c.column(col))
	}
	for _, j := range b.Joins() {
		for _, col := range j.Columns {
			parts = append(parts, c.column(col))
		}
	}
	return strings.Join(parts, ", ")
}

func (c *compiler) column(col query.Column) string {
	if col.Sub != nil {
		return "(" + c.selectSQL(col.Sub) + ") as " + QuoteAlias(c.kind, col.Alias)
	}
	expr := col.Aggregate.Wrap(col.Expr())
	if col.Alias != "" {
		expr += " as " + QuoteAlias(c.kind, col.Alias)
	}
	return expr
}

func (c *compiler) joins(sb *strings.Builder, b *query.Builder) {
	for _, j := range b.Joins() {
		sb.WriteString(" ")
		sb.WriteString(j.Type.String())
		sb.WriteString(" JOIN ")
		sb.WriteString(j.Table)
		sb.WriteString(" ON ")
		sb.WriteString(j.Clause)
	}
}

func (c *compiler) where(sb *strings.Builder, b *query.Builder) {
	ws := b.Wheres()
	if len(ws) == 0 {
		return
	}
	sb.WriteString(" WHERE ")
	sb.WriteString(c.wheres(ws))
}

func (c *compiler) wheres(ws []query.Where) string {
	var sb strings.Builder
	for i, w := range ws {
		if i > 0 {
			join := w.Join
			if join == query.JoinNone {
				join = query.JoinAnd
			}
			sb.WriteString(" ")
			sb.WriteString(join.String())
			sb.WriteString(" ")
		}
		if w.IsGroup() {
			sb.WriteString("(")
			sb.WriteString(c.wheres(w.Group))
			sb.WriteString(")")
			continue
		}
		sb.WriteString(c.condition(w.Condition))
	}
	return sb.String()
}

func (c *compiler) condition(cond query.Condition) string {
	op, v := cond.Operator, cond.Value
	if !op.HasValue() {
		return op.Clause(cond.Column, "")
	}
	switch v.Kind() {
	case query.ValueColumn:
		return op.Clause(cond.Column, v.Column())
	case query.ValueSubQuery:
		sub := c.selectSQL(v.Sub())
		if !op.IsList() {
			sub = "(" + sub + ")"
		}
		return op.Clause(cond.Column, sub)
	case query.ValueNone:
		return op.Clause(cond.Column, "")
	}
	f := v.Field()
	if !op.IsList() {
		return op.Clause(cond.Column, c.bind(f))
	}
	items := []field.Value{f}
	if f.Kind() == field.KindArray {
		items = f.Values()
	}
	if len(items) == 0 {
		// An empty IN matches nothing and an empty NOT IN everything.
		if op == query.In {
			return "1 = 0"
		}
		return "1 = 1"
	}
	phs := make([]string, len(items))
	for i, item := range items {
		phs[i] = c.bind(item)
	}
	return op.Clause(cond.Column, strings.Join(phs, ", "))
}

func (c *compiler) paging(sb *strings.Builder, b *query.Builder) {
	limit, offset := b.Paging()
	switch {
	case limit > 0:
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(limit))
	case offset > 0 && c.kind == dialect.SQLite:
		sb.WriteString(" LIMIT -1")
	case offset > 0 && c.kind == dialect.MySQL:
		sb.WriteString(" LIMIT " + mysqlMaxLimit)
	}
	if offset > 0 {
		sb.WriteString(" OFFSET ")
		sb.WriteString(strconv.Itoa(offset))
	}
}

// insertColumns returns the sorted columns of the first row, skipping
// NotSet entries.
func insertColumns(rows []field.ColumnAndValue) []string {
	return rows[0].Compact().Columns()
}

func (c *compiler) insertSQL(b *query.Builder) string {
	rows := b.Rows()
	if len(rows) == 0 {
		c.err = ErrNoRows
		return ""
	}
	cols := insertColumns(rows)
	if len(cols) == 0 {
		c.err = ErrNoRows
		return ""
	}
	upsert := b.Action() == query.ActionUpsert
	if upsert && len(b.Unique()) == 0 && c.kind != dialect.MySQL {
		c.err = ErrNoUnique
		return ""
	}
	var sb strings.Builder
	switch {
	case b.Ignored() && c.kind == dialect.SQLite:
		sb.WriteString("INSERT OR IGNORE INTO ")
	case b.Ignored() && c.kind == dialect.MySQL:
		sb.WriteString("INSERT IGNORE INTO ")
	default:
		sb.WriteString("INSERT INTO ")
	}
	sb.WriteString(b.Table())
	sb.WriteString(" (")
	sb.WriteString(strings.Join(cols, ", "))
	sb.WriteString(") VALUES ")
	for i, row := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for j, col := range cols {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(c.bind(row.Get(col)))
		}
		sb.WriteString(")")
	}
	switch {
	case upsert:
		c.onConflict(&sb, b)
	case b.Ignored() && c.kind == dialect.Postgres:
		sb.WriteString(" ON CONFLICT DO NOTHING")
	}
	return sb.String()
}

func (c *compiler) onConflict(sb *strings.Builder, b *query.Builder) {
	toUpdate := b.ToUpdate()
	if c.kind == dialect.MySQL {
		sb.WriteString(" ON DUPLICATE KEY UPDATE ")
		for i, col := range toUpdate {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(col + " = VALUES(" + col + ")")
		}
		return
	}
	sb.WriteString(" ON CONFLICT (")
	sb.WriteString(strings.Join(b.Unique(), ", "))
	if len(toUpdate) == 0 {
		sb.WriteString(") DO NOTHING")
		return
	}
	sb.WriteString(") DO UPDATE SET ")
	for i, col := range toUpdate {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(col + " = excluded." + col)
	}
}

func (c *compiler) updateSQL(b *query.Builder) string {
	values := b.Values().Compact()
	if len(values) == 0 {
		c.err = ErrEmptyUpdate
		return ""
	}
	cols := values.Columns()
	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(b.Table())
	c.joins(&sb, b)
	sb.WriteString(" SET ")
	for i, col := range cols {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(col + " = " + c.bind(values[col]))
	}
	c.where(&sb, b)
	return sb.String()
}

func (c *compiler) deleteSQL(b *query.Builder) string {
	var sb strings.Builder
	sb.WriteString("DELETE FROM ")
	sb.WriteString(b.Table())
	c.joins(&sb, b)
	c.where(&sb, b)
	return sb.String()
}

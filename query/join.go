package query

import (
	"strings"

	"github.com/syssam/dirtydb"
)

// JoinType is the kind of a table join.
type JoinType uint8

// Join types.
const (
	InnerJoin JoinType = iota
	LeftJoin
	RightJoin
)

// String returns the SQL keyword.
func (t JoinType) String() string {
	switch t {
	case LeftJoin:
		return "LEFT"
	case RightJoin:
		return "RIGHT"
	default:
		return "INNER"
	}
}

// Join joins a table on a raw clause "left op right". Columns, when set,
// are appended to the select list.
type Join struct {
	Table   string
	Clause  string
	Type    JoinType
	Columns []Column
}

// Join adds a join keyed by table. Joining the same table again replaces
// the earlier join in place.
func (b *Builder) Join(table, left, op, right string, typ JoinType, columns ...Column) *Builder {
	j := &Join{
		Table:   table,
		Clause:  strings.Join([]string{left, op, right}, " "),
		Type:    typ,
		Columns: columns,
	}
	for i, existing := range b.joins {
		if existing.Table == table {
			b.joins[i] = j
			return b
		}
	}
	b.joins = append(b.joins, j)
	return b
}

// InnerJoin adds an INNER JOIN on left op right.
func (b *Builder) InnerJoin(table, left, op, right string) *Builder {
	return b.Join(table, left, op, right, InnerJoin)
}

// InnerJoinAndSelect adds an INNER JOIN and selects columns from it.
func (b *Builder) InnerJoinAndSelect(table, left, op, right string, columns ...string) *Builder {
	return b.Join(table, left, op, right, InnerJoin, cols(columns)...)
}

// InnerJoinTable joins r to l on l.leftCol = r.rightCol.
func (b *Builder) InnerJoinTable(l, r dirtydb.TableEntity, leftCol, rightCol string) *Builder {
	return b.joinTable(l, r, leftCol, rightCol, InnerJoin, false, "")
}

// InnerJoinTableAndSelect joins r to l and selects every column of r
// aliased "prefix.col", the way dirtydb.ColumnAliases renders them. An
// empty prefix defaults to r's table name.
func (b *Builder) InnerJoinTableAndSelect(l, r dirtydb.TableEntity, leftCol, rightCol, prefix string) *Builder {
	return b.joinTable(l, r, leftCol, rightCol, InnerJoin, true, prefix)
}

// LeftJoin adds a LEFT JOIN on left op right.
func (b *Builder) LeftJoin(table, left, op, right string) *Builder {
	return b.Join(table, left, op, right, LeftJoin)
}

// LeftJoinAndSelect adds a LEFT JOIN and selects columns from it.
func (b *Builder) LeftJoinAndSelect(table, left, op, right string, columns ...string) *Builder {
	return b.Join(table, left, op, right, LeftJoin, cols(columns)...)
}

// LeftJoinTable joins r to l on l.leftCol = r.rightCol.
func (b *Builder) LeftJoinTable(l, r dirtydb.TableEntity, leftCol, rightCol string) *Builder {
	return b.joinTable(l, r, leftCol, rightCol, LeftJoin, false, "")
}

// LeftJoinTableAndSelect is the LEFT JOIN form of InnerJoinTableAndSelect.
func (b *Builder) LeftJoinTableAndSelect(l, r dirtydb.TableEntity, leftCol, rightCol, prefix string) *Builder {
	return b.joinTable(l, r, leftCol, rightCol, LeftJoin, true, prefix)
}

// RightJoin adds a RIGHT JOIN on left op right.
func (b *Builder) RightJoin(table, left, op, right string) *Builder {
	return b.Join(table, left, op, right, RightJoin)
}

// RightJoinAndSelect adds a RIGHT JOIN and selects columns from it.
func (b *Builder) RightJoinAndSelect(table, left, op, right string, columns ...string) *Builder {
	return b.Join(table, left, op, right, RightJoin, cols(columns)...)
}

// RightJoinTable joins r to l on l.leftCol = r.rightCol.
func (b *Builder) RightJoinTable(l, r dirtydb.TableEntity, leftCol, rightCol string) *Builder {
	return b.joinTable(l, r, leftCol, rightCol, RightJoin, false, "")
}

// RightJoinTableAndSelect is the RIGHT JOIN form of InnerJoinTableAndSelect.
func (b *Builder) RightJoinTableAndSelect(l, r dirtydb.TableEntity, leftCol, rightCol, prefix string) *Builder {
	return b.joinTable(l, r, leftCol, rightCol, RightJoin, true, prefix)
}

func (b *Builder) joinTable(l, r dirtydb.TableEntity, leftCol, rightCol string, typ JoinType, sel bool, prefix string) *Builder {
	var columns []Column
	if sel {
		columns = aliased(r, prefix)
	}
	return b.Join(r.TableName(), dirtydb.Prefix(l, leftCol), "=", dirtydb.Prefix(r, rightCol), typ, columns...)
}

func cols(names []string) []Column {
	out := make([]Column, len(names))
	for i, n := range names {
		out[i] = Col(n)
	}
	return out
}

// aliased selects every column of e as "prefix.col".
func aliased(e dirtydb.TableEntity, prefix string) []Column {
	if prefix == "" {
		prefix = e.TableName()
	}
	names := e.TableColumns()
	out := make([]Column, len(names))
	for i, n := range names {
		out[i] = Column{Name: n, Table: e.TableName(), Alias: prefix + "." + n}
	}
	return out
}

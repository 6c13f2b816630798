package relation

import (
	"context"
	"fmt"
	"strings"

	"github.com/syssam/dirtydb"
	"github.com/syssam/dirtydb/field"
	"github.com/syssam/dirtydb/manager"
	"github.com/syssam/dirtydb/query"
)

// Entity is the constraint on the record types a relation resolves to.
type Entity[T any] interface {
	*T
	dirtydb.FromColumnAndValue
	dirtydb.TableEntity
}

// describe returns the contract of T.
func describe[T any, PT Entity[T]]() dirtydb.TableEntity {
	var zero T
	return PT(&zero)
}

// resolver holds the select every relation kind is built on. build
// returns the unconstrained select and column is the key column the
// constraint is placed on. Joined relations select their target under
// nested.
type resolver[T any, PT Entity[T]] struct {
	m      *manager.Manager
	b      *query.Builder
	build  func() *query.Builder
	column string
	nested string
}

func newResolver[T any, PT Entity[T]](m *manager.Manager, column, nested string, build func() *query.Builder) resolver[T, PT] {
	r := resolver[T, PT]{m: m, build: build, column: column, nested: nested}
	r.constrain(nil)
	return r
}

// constrain replaces the select with one matching keys. Without keys the
// select matches nothing.
func (r *resolver[T, PT]) constrain(keys []any) {
	r.b = where(r.build(), r.column, keys)
}

// Query returns the pending select for further conditions.
func (r *resolver[T, PT]) Query() *query.Builder { return r.b }

// OneRow returns the first structured row, or nil when the relation is
// absent.
func (r *resolver[T, PT]) OneRow(ctx context.Context) (field.ColumnAndValue, error) {
	return r.m.ExecuteQuery(r.b).First(ctx)
}

// GetRows returns every structured row.
func (r *resolver[T, PT]) GetRows(ctx context.Context) ([]field.ColumnAndValue, error) {
	return r.m.ExecuteQuery(r.b).All(ctx)
}

// One returns the first related record, or nil when there is none.
func (r *resolver[T, PT]) One(ctx context.Context) (*T, error) {
	row, err := r.OneRow(ctx)
	if err != nil || row == nil {
		return nil, err
	}
	return r.decode(row)
}

// Get returns every related record. It returns an empty slice when
// there is none.
func (r *resolver[T, PT]) Get(ctx context.Context) ([]*T, error) {
	rows, err := r.GetRows(ctx)
	if err != nil {
		return nil, err
	}
	return r.decodeAll(rows)
}

func (r *resolver[T, PT]) decode(row field.ColumnAndValue) (*T, error) {
	if r.nested != "" {
		row = row.Nested(r.nested)
		if absent[T, PT](row) {
			return nil, nil
		}
	}
	return dirtydb.Decode[T, PT](row)
}

func (r *resolver[T, PT]) decodeAll(rows []field.ColumnAndValue) ([]*T, error) {
	out := make([]*T, 0, len(rows))
	for _, row := range rows {
		v, err := r.decode(row)
		if err != nil {
			return nil, err
		}
		if v != nil {
			out = append(out, v)
		}
	}
	return out, nil
}

// absent reports whether a joined object is missing: an outer join
// without a match yields an object of NULLs.
func absent[T any, PT Entity[T]](row field.ColumnAndValue) bool {
	if row == nil {
		return true
	}
	if id := describe[T, PT]().IDColumn(); id != "" {
		v := row.Get(id)
		return v.IsNull() || v.IsNotSet()
	}
	for _, v := range row {
		if !v.IsNull() {
			return false
		}
	}
	return true
}

// where constrains column to keys: a single key is an equality, several
// an IN list.
func where(b *query.Builder, column string, keys []any) *query.Builder {
	if len(keys) == 1 {
		return b.Eq(column, keys[0])
	}
	vs := make([]field.Value, len(keys))
	for i, k := range keys {
		vs[i] = field.Of(k)
	}
	return b.In(column, field.Array(vs...))
}

// qualify returns "table.column" unless column is already qualified.
func qualify(table, column string) string {
	if strings.Contains(column, ".") {
		return column
	}
	return table + "." + column
}

// bare strips the table from a qualified column.
func bare(column string) string {
	if i := strings.LastIndexByte(column, '.'); i >= 0 {
		return column[i+1:]
	}
	return column
}

// selectColumns selects columns of table qualified with it.
func selectColumns(table string, columns []string) []query.Column {
	out := make([]query.Column, len(columns))
	for i, c := range columns {
		out[i] = query.Column{Name: c, Table: table}
	}
	return out
}

// aliasColumns selects columns of table as "table.col", so the rows nest
// under the table name.
func aliasColumns(table string, columns []string) []query.Column {
	out := make([]query.Column, len(columns))
	for i, c := range columns {
		out[i] = query.Column{Name: c, Table: table, Alias: table + "." + c}
	}
	return out
}

// keyed pairs a decoded record with the string form of its key column,
// for grouping in eager loads.
type keyed[T any] struct {
	key string
	v   *T
}

// keyStrings normalizes keys to strings, dropping duplicates, and maps
// each back to its first original value.
func keyStrings(keys []any) ([]string, map[string]any) {
	strs := make([]string, len(keys))
	orig := make(map[string]any, len(keys))
	for i, k := range keys {
		s := field.Of(k).String()
		strs[i] = s
		if _, ok := orig[s]; !ok {
			orig[s] = k
		}
	}
	return strs, orig
}

func originals(batch []string, orig map[string]any) []any {
	out := make([]any, len(batch))
	for i, s := range batch {
		out[i] = orig[s]
	}
	return out
}

// fetchKeyed runs b and decodes every row, keyed by column.
func fetchKeyed[T any, PT Entity[T]](ctx context.Context, m *manager.Manager, b *query.Builder, column string) ([]keyed[T], error) {
	rows, err := m.ExecuteQuery(b).FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]keyed[T], 0, len(rows))
	for _, row := range rows {
		v, err := dirtydb.Decode[T, PT](row)
		if err != nil {
			return nil, fmt.Errorf("relation: decode %s: %w", describe[T, PT]().TableName(), err)
		}
		out = append(out, keyed[T]{key: row.Get(column).String(), v: v})
	}
	return out, nil
}

package relation

import (
	"context"

	"github.com/syssam/dirtydb"
	"github.com/syssam/dirtydb/manager"
	"github.com/syssam/dirtydb/query"
)

// Pivot names the tables and columns of a relation through a pivot
// table. The select reads Table where Field matches the keys, joined
// with TargetTable on Table.TargetField = TargetTable.TargetColumn.
type Pivot struct {
	Table        string
	Field        string
	TargetField  string
	TargetTable  string
	TargetColumn string
}

// pivoted is a resolver over a pivot joined with its target. Pivot
// columns are aliased under the pivot table name and target columns
// under the target table name.
type pivoted[T any, PT Entity[T], V any, PV Entity[V]] struct {
	resolver[T, PT]
	pivotTable string
}

func newPivoted[T any, PT Entity[T], V any, PV Entity[V]](m *manager.Manager, p Pivot, join query.JoinType) pivoted[T, PT, V, PV] {
	target, pivot := describe[T, PT](), describe[V, PV]()
	build := func() *query.Builder {
		return query.Select(p.Table).
			SelectColumn(aliasColumns(p.Table, pivot.TableColumns())...).
			Join(p.TargetTable,
				qualify(p.Table, p.TargetField), "=", qualify(p.TargetTable, p.TargetColumn),
				join, aliasColumns(p.TargetTable, target.TableColumns())...)
	}
	return pivoted[T, PT, V, PV]{
		resolver:   newResolver[T, PT](m, qualify(p.Table, p.Field), p.TargetTable, build),
		pivotTable: p.Table,
	}
}

// Pivots returns the pivot records of the relation.
func (r *pivoted[T, PT, V, PV]) Pivots(ctx context.Context) ([]*V, error) {
	rows, err := r.GetRows(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*V, 0, len(rows))
	for _, row := range rows {
		nested := row.Nested(r.pivotTable)
		if nested == nil {
			continue
		}
		v, err := dirtydb.Decode[V, PV](nested)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// HasManyThrough resolves the children of a parent linked through a
// pivot table of V: the pivot holds the parent's foreign key and the
// child's. Pivot rows whose child is gone are skipped.
type HasManyThrough[C any, PC Entity[C], V any, PV Entity[V]] struct {
	pivoted[C, PC, V, PV]
}

// NewHasManyThrough returns the children of type C of a parent of type
// parent, through the pivot V.
func NewHasManyThrough[C any, PC Entity[C], V any, PV Entity[V]](m *manager.Manager, parent dirtydb.TableEntity) *HasManyThrough[C, PC, V, PV] {
	return NewHasManyThroughOn[C, PC, V, PV](m, throughPivot[C, PC, V, PV](parent))
}

// NewHasManyThroughOn is NewHasManyThrough with explicit names.
func NewHasManyThroughOn[C any, PC Entity[C], V any, PV Entity[V]](m *manager.Manager, p Pivot) *HasManyThrough[C, PC, V, PV] {
	return &HasManyThrough[C, PC, V, PV]{pivoted: newPivoted[C, PC, V, PV](m, p, query.LeftJoin)}
}

// ConstrainKey sets the parent key.
func (r *HasManyThrough[C, PC, V, PV]) ConstrainKey(key any) *HasManyThrough[C, PC, V, PV] {
	return r.ConstrainKeys(key)
}

// ConstrainKeys sets several parent keys.
func (r *HasManyThrough[C, PC, V, PV]) ConstrainKeys(keys ...any) *HasManyThrough[C, PC, V, PV] {
	r.constrain(keys)
	return r
}

// HasOneThrough is HasManyThrough for a single child.
type HasOneThrough[C any, PC Entity[C], V any, PV Entity[V]] struct {
	pivoted[C, PC, V, PV]
}

// NewHasOneThrough returns the child of type C of a parent of type
// parent, through the pivot V.
func NewHasOneThrough[C any, PC Entity[C], V any, PV Entity[V]](m *manager.Manager, parent dirtydb.TableEntity) *HasOneThrough[C, PC, V, PV] {
	return NewHasOneThroughOn[C, PC, V, PV](m, throughPivot[C, PC, V, PV](parent))
}

// NewHasOneThroughOn is NewHasOneThrough with explicit names.
func NewHasOneThroughOn[C any, PC Entity[C], V any, PV Entity[V]](m *manager.Manager, p Pivot) *HasOneThrough[C, PC, V, PV] {
	return &HasOneThrough[C, PC, V, PV]{pivoted: newPivoted[C, PC, V, PV](m, p, query.LeftJoin)}
}

// ConstrainKey sets the parent key.
func (r *HasOneThrough[C, PC, V, PV]) ConstrainKey(key any) *HasOneThrough[C, PC, V, PV] {
	r.constrain([]any{key})
	return r
}

func throughPivot[C any, PC Entity[C], V any, PV Entity[V]](parent dirtydb.TableEntity) Pivot {
	child, pivot := describe[C, PC](), describe[V, PV]()
	return Pivot{
		Table:        pivot.TableName(),
		Field:        parent.ForeignIDColumn(),
		TargetField:  child.ForeignIDColumn(),
		TargetTable:  child.TableName(),
		TargetColumn: child.IDColumn(),
	}
}

package relation

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/syssam/dirtydb"
	"github.com/syssam/dirtydb/contrib/dataloader"
	"github.com/syssam/dirtydb/field"
	"github.com/syssam/dirtydb/manager"
	"github.com/syssam/dirtydb/query"
)

// BelongsTo resolves the parent of a child: the row of P whose id is
// the child's foreign key. The first resolved parent is cached, so
// repeated calls to One issue a single query. Concurrent first calls
// for the same keys share it.
type BelongsTo[P any, PP Entity[P]] struct {
	resolver[P, PP]

	group  singleflight.Group
	mu     sync.Mutex
	gen    int
	loaded bool
	parent *P
}

// NewBelongsTo returns the parent of type P, keyed by the id column P
// declares.
//
//	author, err := relation.NewBelongsTo[User](m).ConstrainKey(post.UserID).One(ctx)
func NewBelongsTo[P any, PP Entity[P]](m *manager.Manager) *BelongsTo[P, PP] {
	parent := describe[P, PP]()
	return NewBelongsToOn[P, PP](m, parent.TableName(), parent.IDColumn())
}

// NewBelongsToOn is NewBelongsTo with an explicit parent table and key
// column.
func NewBelongsToOn[P any, PP Entity[P]](m *manager.Manager, table, column string) *BelongsTo[P, PP] {
	parent := describe[P, PP]()
	return &BelongsTo[P, PP]{
		resolver: newResolver[P, PP](m, qualify(table, column), "", func() *query.Builder {
			return query.Select(table).SelectColumn(selectColumns(table, parent.TableColumns())...)
		}),
	}
}

// ConstrainKey sets the child's foreign key value.
func (r *BelongsTo[P, PP]) ConstrainKey(key any) *BelongsTo[P, PP] {
	return r.ConstrainKeys(key)
}

// ConstrainKeys sets several keys and drops the cached parent.
func (r *BelongsTo[P, PP]) ConstrainKeys(keys ...any) *BelongsTo[P, PP] {
	r.constrain(keys)
	r.Reset()
	return r
}

// Reset drops the cached parent. Call it after changing Query.
func (r *BelongsTo[P, PP]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	r.loaded, r.parent = false, nil
}

// One returns the parent, or nil when the child has none. A missing
// parent is cached too.
func (r *BelongsTo[P, PP]) One(ctx context.Context) (*P, error) {
	r.mu.Lock()
	if r.loaded {
		p := r.parent
		r.mu.Unlock()
		return p, nil
	}
	gen := r.gen
	r.mu.Unlock()

	v, err, _ := r.group.Do(strconv.Itoa(gen), func() (any, error) {
		p, err := r.resolver.One(ctx)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		if r.gen == gen {
			r.loaded, r.parent = true, p
		}
		r.mu.Unlock()
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*P), nil
}

// LoadMany resolves the parents of many children at once. The result
// has one entry per key, in key order; keys without a parent get nil.
func (r *BelongsTo[P, PP]) LoadMany(ctx context.Context, keys ...any) ([]*P, error) {
	strs, orig := keyStrings(keys)
	col := bare(r.column)
	found, err := dataloader.Load(ctx, strs, dataloader.DefaultBatchSize, func(ctx context.Context, batch []string) ([]keyed[P], error) {
		return fetchKeyed[P, PP](ctx, r.m, where(r.build(), r.column, originals(batch, orig)), col)
	})
	if err != nil {
		return nil, err
	}
	ordered := dataloader.OrderByKeysNoError(strs, found, func(k keyed[P]) string { return k.key })
	out := make([]*P, len(ordered))
	for i, k := range ordered {
		out[i] = k.v
	}
	return out, nil
}

// BelongsToMany resolves the parents of a child through a pivot table
// of V holding both foreign keys. Rows are read from the pivot joined
// with the parent table, so Pivots returns the pivot records of the same
// select.
type BelongsToMany[P any, PP Entity[P], V any, PV Entity[V]] struct {
	pivoted[P, PP, V, PV]

	pivotField       string
	pivotParentField string
}

// NewBelongsToMany returns the parents of type P of a child of type
// child, through the pivot V. The pivot columns are the foreign id
// columns of child and P.
//
//	roles := relation.NewBelongsToMany[Role, *Role, RoleUser](m, User{})
//	list, err := roles.ConstrainKey(u.ID).Get(ctx)
func NewBelongsToMany[P any, PP Entity[P], V any, PV Entity[V]](m *manager.Manager, child dirtydb.TableEntity) *BelongsToMany[P, PP, V, PV] {
	parent, pivot := describe[P, PP](), describe[V, PV]()
	return NewBelongsToManyOn[P, PP, V, PV](m, Pivot{
		Table:        pivot.TableName(),
		Field:        child.ForeignIDColumn(),
		TargetField:  parent.ForeignIDColumn(),
		TargetTable:  parent.TableName(),
		TargetColumn: parent.IDColumn(),
	})
}

// NewBelongsToManyOn is NewBelongsToMany with explicit names.
func NewBelongsToManyOn[P any, PP Entity[P], V any, PV Entity[V]](m *manager.Manager, p Pivot) *BelongsToMany[P, PP, V, PV] {
	return &BelongsToMany[P, PP, V, PV]{
		pivoted:          newPivoted[P, PP, V, PV](m, p, query.InnerJoin),
		pivotField:       bare(p.Field),
		pivotParentField: bare(p.TargetField),
	}
}

// ConstrainKey sets the child key.
func (r *BelongsToMany[P, PP, V, PV]) ConstrainKey(key any) *BelongsToMany[P, PP, V, PV] {
	return r.ConstrainKeys(key)
}

// ConstrainKeys sets several child keys.
func (r *BelongsToMany[P, PP, V, PV]) ConstrainKeys(keys ...any) *BelongsToMany[P, PP, V, PV] {
	r.constrain(keys)
	return r
}

// Attach links the child key to each parent key by inserting pivot
// rows. Links that already exist are skipped.
func (r *BelongsToMany[P, PP, V, PV]) Attach(ctx context.Context, key any, parentKeys ...any) error {
	if len(parentKeys) == 0 {
		return nil
	}
	rows := make([]field.ToColumnAndValue, len(parentKeys))
	for i, pk := range parentKeys {
		rows[i] = field.NewBuilder().
			Insert(r.pivotField, key).
			Insert(r.pivotParentField, pk).
			Build()
	}
	return r.m.SoftInsertMulti(ctx, r.pivotTable, rows...)
}

// Detach deletes the pivot rows linking the child key to the parent
// keys, or to every parent when none are given.
func (r *BelongsToMany[P, PP, V, PV]) Detach(ctx context.Context, key any, parentKeys ...any) error {
	return r.m.Delete(ctx, r.pivotTable, func(q *query.Builder) {
		q.Eq(r.pivotField, key)
		if len(parentKeys) > 0 {
			where(q, r.pivotParentField, parentKeys)
		}
	})
}

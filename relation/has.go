package relation

import (
	"context"

	"github.com/syssam/dirtydb"
	"github.com/syssam/dirtydb/contrib/dataloader"
	"github.com/syssam/dirtydb/manager"
	"github.com/syssam/dirtydb/query"
)

// CountAlias is the alias of the count selected by HasMany.Count.
const CountAlias = "has_many_total"

// HasMany resolves the children of a parent: the rows of C whose foreign
// key column holds the parent's id.
type HasMany[C any, PC Entity[C]] struct {
	resolver[C, PC]
}

// NewHasMany returns the children of parent's type, keyed by the
// foreign id column parent declares.
//
//	posts, err := relation.NewHasMany[Post](m, User{}).ConstrainKey(u.ID).Get(ctx)
func NewHasMany[C any, PC Entity[C]](m *manager.Manager, parent dirtydb.TableEntity) *HasMany[C, PC] {
	child := describe[C, PC]()
	return NewHasManyOn[C, PC](m, child.TableName(), parent.ForeignIDColumn())
}

// NewHasManyOn is NewHasMany with an explicit child table and key column.
func NewHasManyOn[C any, PC Entity[C]](m *manager.Manager, table, column string) *HasMany[C, PC] {
	child := describe[C, PC]()
	return &HasMany[C, PC]{
		resolver: newResolver[C, PC](m, qualify(table, column), "", func() *query.Builder {
			return query.Select(table).SelectColumn(selectColumns(table, child.TableColumns())...)
		}),
	}
}

// ConstrainKey limits the children to those of one parent.
func (h *HasMany[C, PC]) ConstrainKey(key any) *HasMany[C, PC] {
	return h.ConstrainKeys(key)
}

// ConstrainKeys limits the children to those of the given parents.
func (h *HasMany[C, PC]) ConstrainKeys(keys ...any) *HasMany[C, PC] {
	h.constrain(keys)
	return h
}

// Count returns the number of children.
func (h *HasMany[C, PC]) Count(ctx context.Context) (int64, error) {
	b := h.b.Clone().Unselect().CountAs(h.column, CountAlias)
	row, err := h.m.ExecuteQuery(b).FetchOne(ctx)
	if err != nil || row == nil {
		return 0, err
	}
	return row.Get(CountAlias).Int64(), nil
}

// LoadMany loads the children of many parents at once. The result has
// one slice per key, in key order; parents without children get nil.
func (h *HasMany[C, PC]) LoadMany(ctx context.Context, keys ...any) ([][]*C, error) {
	strs, orig := keyStrings(keys)
	col := bare(h.column)
	found, err := dataloader.Load(ctx, strs, dataloader.DefaultBatchSize, func(ctx context.Context, batch []string) ([]keyed[C], error) {
		return fetchKeyed[C, PC](ctx, h.m, where(h.build(), h.column, originals(batch, orig)), col)
	})
	if err != nil {
		return nil, err
	}
	groups := dataloader.GroupByKey(found, func(k keyed[C]) string { return k.key })
	out := make([][]*C, len(strs))
	for i, ks := range dataloader.OrderGroupsByKeys(strs, groups) {
		for _, k := range ks {
			out[i] = append(out[i], k.v)
		}
	}
	return out, nil
}

// HasOne resolves the single child of a parent.
type HasOne[C any, PC Entity[C]] struct {
	resolver[C, PC]
}

// NewHasOne returns the child of parent's type, keyed by the foreign id
// column parent declares.
func NewHasOne[C any, PC Entity[C]](m *manager.Manager, parent dirtydb.TableEntity) *HasOne[C, PC] {
	child := describe[C, PC]()
	return NewHasOneOn[C, PC](m, child.TableName(), parent.ForeignIDColumn())
}

// NewHasOneOn is NewHasOne with an explicit child table and key column.
func NewHasOneOn[C any, PC Entity[C]](m *manager.Manager, table, column string) *HasOne[C, PC] {
	child := describe[C, PC]()
	return &HasOne[C, PC]{
		resolver: newResolver[C, PC](m, qualify(table, column), "", func() *query.Builder {
			return query.Select(table).SelectColumn(selectColumns(table, child.TableColumns())...)
		}),
	}
}

// ConstrainKey sets the parent key.
func (h *HasOne[C, PC]) ConstrainKey(key any) *HasOne[C, PC] {
	return h.ConstrainKeys(key)
}

// ConstrainKeys sets several parent keys; One returns the first match.
func (h *HasOne[C, PC]) ConstrainKeys(keys ...any) *HasOne[C, PC] {
	h.constrain(keys)
	return h
}

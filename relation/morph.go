package relation

import (
	"context"
	"errors"
	"fmt"

	"github.com/syssam/dirtydb"
	"github.com/syssam/dirtydb/field"
	"github.com/syssam/dirtydb/manager"
	"github.com/syssam/dirtydb/query"
)

// ErrUnknownMorphType is returned when a discriminator names a table no
// morph target was registered for.
var ErrUnknownMorphType = errors.New("relation: unknown morph type")

// MorphColumns returns the id and type columns of the morph relation
// name: "{name}_id" and "{name}_type".
func MorphColumns(name string) (idColumn, typeColumn string) {
	return name + "_id", name + "_type"
}

// MorphMany resolves the children of a parent through a polymorphic
// pair of columns: the child stores the parent's id and the parent's
// table name.
type MorphMany[C any, PC Entity[C]] struct {
	resolver[C, PC]
}

// NewMorphMany returns the children of type C pointing at parent through
// the morph relation name.
//
//	comments := relation.NewMorphMany[Comment](m, Post{}, "commentable")
func NewMorphMany[C any, PC Entity[C]](m *manager.Manager, parent dirtydb.TableEntity, name string) *MorphMany[C, PC] {
	child := describe[C, PC]()
	idCol, typeCol := MorphColumns(name)
	return NewMorphManyOn[C, PC](m, child.TableName(), idCol, typeCol, parent.TableName())
}

// NewMorphManyOn is NewMorphMany with explicit names. Only children
// whose typeColumn equals typeValue are matched.
func NewMorphManyOn[C any, PC Entity[C]](m *manager.Manager, table, idColumn, typeColumn, typeValue string) *MorphMany[C, PC] {
	return &MorphMany[C, PC]{resolver: morphResolver[C, PC](m, table, idColumn, typeColumn, typeValue)}
}

// ConstrainKey sets the parent key.
func (r *MorphMany[C, PC]) ConstrainKey(key any) *MorphMany[C, PC] {
	return r.ConstrainKeys(key)
}

// ConstrainKeys sets several parent keys.
func (r *MorphMany[C, PC]) ConstrainKeys(keys ...any) *MorphMany[C, PC] {
	r.constrain(keys)
	return r
}

// MorphOne is MorphMany for a single child.
type MorphOne[C any, PC Entity[C]] struct {
	resolver[C, PC]
}

// NewMorphOne returns the child of type C pointing at parent through the
// morph relation name.
func NewMorphOne[C any, PC Entity[C]](m *manager.Manager, parent dirtydb.TableEntity, name string) *MorphOne[C, PC] {
	child := describe[C, PC]()
	idCol, typeCol := MorphColumns(name)
	return &MorphOne[C, PC]{resolver: morphResolver[C, PC](m, child.TableName(), idCol, typeCol, parent.TableName())}
}

// ConstrainKey sets the parent key.
func (r *MorphOne[C, PC]) ConstrainKey(key any) *MorphOne[C, PC] {
	r.constrain([]any{key})
	return r
}

func morphResolver[C any, PC Entity[C]](m *manager.Manager, table, idColumn, typeColumn, typeValue string) resolver[C, PC] {
	child := describe[C, PC]()
	return newResolver[C, PC](m, qualify(table, idColumn), "", func() *query.Builder {
		return query.Select(table).
			SelectColumn(selectColumns(table, child.TableColumns())...).
			Eq(qualify(table, typeColumn), typeValue)
	})
}

// MorphTo resolves the parent of a child row that stores the parent's
// table name and id. The table is looked up among the registered
// targets before the id is matched.
type MorphTo struct {
	m          *manager.Manager
	idColumn   string
	typeColumn string
	targets    map[string]dirtydb.TableEntity
}

// NewMorphTo returns the inverse of the morph relation name over the
// given target types.
//
//	owner := relation.NewMorphTo(m, "commentable", Post{}, Video{})
//	row, err := owner.One(ctx, commentRow)
func NewMorphTo(m *manager.Manager, name string, targets ...dirtydb.TableEntity) *MorphTo {
	idCol, typeCol := MorphColumns(name)
	r := &MorphTo{m: m, idColumn: idCol, typeColumn: typeCol, targets: make(map[string]dirtydb.TableEntity, len(targets))}
	for _, t := range targets {
		r.targets[t.TableName()] = t
	}
	return r
}

// Query returns the select of the parent of child. The boolean is false
// when child has no parent set.
func (r *MorphTo) Query(child field.ColumnAndValue) (*query.Builder, bool, error) {
	typ, id := child.Get(r.typeColumn), child.Get(r.idColumn)
	if typ.IsNull() || typ.IsNotSet() || id.IsNull() || id.IsNotSet() {
		return nil, false, nil
	}
	target, ok := r.targets[typ.String()]
	if !ok {
		return nil, false, fmt.Errorf("%w: %q", ErrUnknownMorphType, typ.String())
	}
	if target.IDColumn() == "" {
		return nil, false, fmt.Errorf("relation: morph target %s has no id column", target.TableName())
	}
	table := target.TableName()
	b := query.Select(table).
		SelectColumn(selectColumns(table, target.TableColumns())...).
		Eq(qualify(table, target.IDColumn()), id)
	return b, true, nil
}

// Type returns the table name the child points at, or "" when unset.
func (r *MorphTo) Type(child field.ColumnAndValue) string {
	return child.Get(r.typeColumn).String()
}

// One returns the parent row of child, or nil when child has none or the
// parent is gone.
func (r *MorphTo) One(ctx context.Context, child field.ColumnAndValue) (field.ColumnAndValue, error) {
	b, ok, err := r.Query(child)
	if err != nil || !ok {
		return nil, err
	}
	return r.m.ExecuteQuery(b).First(ctx)
}

// MorphToAs resolves the parent of child as a T. It returns nil when the
// child points at another table.
func MorphToAs[T any, PT Entity[T]](ctx context.Context, r *MorphTo, child field.ColumnAndValue) (*T, error) {
	if r.Type(child) != describe[T, PT]().TableName() {
		return nil, nil
	}
	row, err := r.One(ctx, child)
	if err != nil || row == nil {
		return nil, err
	}
	return dirtydb.Decode[T, PT](row)
}

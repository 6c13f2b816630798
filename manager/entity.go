package manager

import (
	"context"

	"github.com/syssam/dirtydb"
	"github.com/syssam/dirtydb/query"
)

// CountAlias is the alias EntityQuery.Count selects the row count as.
const CountAlias = "count_all"

// EntityQuery is a select whose rows decode into T.
type EntityQuery[T any, PT interface {
	*T
	dirtydb.FromColumnAndValue
}] struct {
	m *Manager
	b *query.Builder
}

// For returns a typed select of table.
//
//	users, err := manager.For[User](m, "users").
//		Where(func(q *query.Builder) { q.Eq("active", true) }).
//		All(ctx)
func For[T any, PT interface {
	*T
	dirtydb.FromColumnAndValue
}](m *Manager, table string) *EntityQuery[T, PT] {
	return &EntityQuery[T, PT]{m: m, b: m.Table(table)}
}

// QueryOf is For on the table T declares.
func QueryOf[T any, PT interface {
	*T
	dirtydb.FromColumnAndValue
	dirtydb.TableEntity
}](m *Manager) *EntityQuery[T, PT] {
	var zero T
	table := PT(&zero).TableName()
	return &EntityQuery[T, PT]{m: m, b: m.Table(table)}
}

// Query returns the underlying builder for direct changes.
func (q *EntityQuery[T, PT]) Query() *query.Builder { return q.b }

// Where applies fn to the underlying builder.
func (q *EntityQuery[T, PT]) Where(fn func(*query.Builder)) *EntityQuery[T, PT] {
	fn(q.b)
	return q
}

// All returns every matching row.
func (q *EntityQuery[T, PT]) All(ctx context.Context) ([]*T, error) {
	return GetTo[T, PT](ctx, q.m.ExecuteQuery(q.b))
}

// One returns the first matching row, or nil.
func (q *EntityQuery[T, PT]) One(ctx context.Context) (*T, error) {
	return FirstTo[T, PT](ctx, q.m.ExecuteQuery(q.b))
}

// Latest returns the row with the greatest column, or nil.
func (q *EntityQuery[T, PT]) Latest(ctx context.Context, column string) (*T, error) {
	return FirstTo[T, PT](ctx, q.m.ExecuteQuery(q.b.Clone().Desc(column)))
}

// Oldest returns the row with the smallest column, or nil.
func (q *EntityQuery[T, PT]) Oldest(ctx context.Context, column string) (*T, error) {
	return FirstTo[T, PT](ctx, q.m.ExecuteQuery(q.b.Clone().Asc(column)))
}

// Count returns the number of matching rows.
func (q *EntityQuery[T, PT]) Count(ctx context.Context) (int64, error) {
	row, err := q.m.ExecuteQuery(q.b.Clone().CountAs("*", CountAlias)).FetchOne(ctx)
	if err != nil || row == nil {
		return 0, err
	}
	return row.Get(CountAlias).Int64(), nil
}

// Stream decodes the matching rows as they are read.
func (q *EntityQuery[T, PT]) Stream(ctx context.Context) *Stream[*T] {
	return StreamTo[T, PT](ctx, q.m.ExecuteQuery(q.b))
}

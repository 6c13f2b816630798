package manager

import (
	"github.com/syssam/dirtydb"
	"github.com/syssam/dirtydb/query"
)

// SelectFromTable returns the pending select of table, narrowed by fn.
//
//	rows, err := m.SelectFromTable("users", func(q *query.Builder) {
//		q.Eq("status", "active").Desc("id").Limit(10)
//	}).All(ctx)
func (m *Manager) SelectFromTable(table string, fn func(*query.Builder)) *Result {
	b := m.Table(table)
	if fn != nil {
		fn(b)
	}
	return m.ExecuteQuery(b)
}

// SelectFrom is SelectFromTable on the table of e.
func (m *Manager) SelectFrom(e dirtydb.TableEntity, fn func(*query.Builder)) *Result {
	return m.SelectFromTable(e.TableName(), fn)
}

// Table returns a select builder of table, to be run with ExecuteQuery.
func (m *Manager) Table(table string) *query.Builder {
	return query.Select(table)
}

// SelectTable returns a select builder of the table of e.
func (m *Manager) SelectTable(e dirtydb.TableEntity) *query.Builder {
	return m.Table(e.TableName())
}

// ExecuteQuery wraps a select builder built elsewhere.
func (m *Manager) ExecuteQuery(b *query.Builder) *Result {
	return &Result{m: m, b: b}
}

package manager

import (
	"context"

	"github.com/syssam/dirtydb"
	"github.com/syssam/dirtydb/field"
	"github.com/syssam/dirtydb/query"
)

// cacheKey returns the key of a select, and false when its result must
// not be cached. Joined selects and selects inside a transaction are
// never cached: a write to a joined table would not invalidate them.
func (m *Manager) cacheKey(b *query.Builder, op, stmt string, args []any) (string, bool) {
	if m.cache == nil || m.tx != nil || len(b.Joins()) > 0 {
		return "", false
	}
	return dirtydb.CacheKey{
		Table:     b.Table(),
		Operation: op,
		Statement: stmt,
		Args:      args,
	}.String(), true
}

func (m *Manager) cached(ctx context.Context, key string) ([]field.ColumnAndValue, bool) {
	data, err := m.cache.Get(ctx, key)
	if err != nil {
		m.logger.WarnContext(ctx, "cache get failed", "key", key, "error", err)
		return nil, false
	}
	if data == nil {
		return nil, false
	}
	rows, err := field.UnmarshalRows(data)
	if err != nil {
		m.logger.WarnContext(ctx, "cache entry unreadable", "key", key, "error", err)
		return nil, false
	}
	return rows, true
}

func (m *Manager) store(ctx context.Context, key string, rows []field.ColumnAndValue) {
	data, err := field.MarshalRows(rows)
	if err == nil {
		err = m.cache.Set(ctx, key, data, m.cacheTTL)
	}
	if err != nil {
		m.logger.WarnContext(ctx, "cache set failed", "key", key, "error", err)
	}
}

// invalidate drops the cached selects of table.
func (m *Manager) invalidate(ctx context.Context, table string) {
	if m.cache == nil || table == "" {
		return
	}
	if err := m.cache.DeletePrefix(ctx, dirtydb.TablePrefix(table)); err != nil {
		m.logger.WarnContext(ctx, "cache invalidation failed", "table", table, "error", err)
	}
}

package sqlite_test

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/dirtydb/config"
	"github.com/syssam/dirtydb/dialect"
	"github.com/syssam/dirtydb/dialect/sql"
	"github.com/syssam/dirtydb/dialect/sqlite"
)

func pragmas(t *testing.T, dsn string) (string, url.Values) {
	t.Helper()
	path, query, ok := strings.Cut(dsn, "?")
	require.True(t, ok)
	q, err := url.ParseQuery(query)
	require.NoError(t, err)
	return path, q
}

func TestDSN(t *testing.T) {
	t.Run("Write", func(t *testing.T) {
		cfg := config.Default()
		cfg.URL = "sqlite://data/app.db"
		path, q := pragmas(t, sqlite.DSN(cfg))
		assert.Equal(t, "file:data/app.db", path)
		assert.ElementsMatch(t, []string{"foreign_keys(1)", "busy_timeout(60000)", "journal_mode(WAL)"}, q["_pragma"])
		assert.Empty(t, q.Get("mode"))
	})
	t.Run("Read", func(t *testing.T) {
		cfg := config.Default()
		cfg.URL = "file:app.db?cache=private"
		cfg.ClientType = dialect.Read
		cfg.ForeignKey = false
		path, q := pragmas(t, sqlite.DSN(cfg))
		assert.Equal(t, "file:app.db", path)
		assert.Equal(t, "ro", q.Get("mode"))
		assert.Equal(t, "private", q.Get("cache"))
		assert.Empty(t, q["_pragma"])
	})
	t.Run("Memory", func(t *testing.T) {
		a, qa := pragmas(t, sqlite.DSN(config.Default()))
		b, _ := pragmas(t, sqlite.DSN(config.Default()))
		assert.NotEqual(t, a, b, "every in-memory pool gets its own database")
		assert.Equal(t, "memory", qa.Get("mode"))
	})
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	assert.Contains(t, sql.Connectors(), dialect.SQLite)

	drv, err := sql.OpenConfig(ctx, config.Default())
	require.NoError(t, err)
	defer drv.Close()
	assert.Equal(t, dialect.SQLite, drv.Kind())

	require.NoError(t, drv.Exec(ctx, "CREATE TABLE t (id INTEGER)", []any{}, nil))
	require.NoError(t, drv.Exec(ctx, "INSERT INTO t (id) VALUES (?)", []any{int64(7)}, nil))
	var rows sql.Rows
	require.NoError(t, drv.Query(ctx, "SELECT id FROM t", []any{}, &rows))
	out, err := sql.ScanRows(rows)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int64(7), out[0].Get("id").Int64())
}

// Package sqlite registers the sqlite connector, backed by the pure Go
// modernc.org/sqlite driver.
//
//	import _ "github.com/syssam/dirtydb/dialect/sqlite"
//
// Write pools open the database in WAL mode with the configured busy
// timeout. Read pools open it read-only. In-memory databases are private
// to the pool that opened them and are limited to one connection.
package sqlite

import (
	"context"
	stdsql "database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"

	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver

	"github.com/syssam/dirtydb/config"
	"github.com/syssam/dirtydb/dialect"
	"github.com/syssam/dirtydb/dialect/sql"
)

// DriverName is the database/sql driver name of modernc.org/sqlite.
const DriverName = "sqlite"

func init() {
	sql.Register(dialect.SQLite, sql.ConnectorFunc(Open))
}

var memoryID atomic.Int64

// DSN converts a configured URL into a modernc.org/sqlite data source
// name. Accepted forms are "sqlite::memory:", "sqlite://path",
// "sqlite:path", "file:path?query" and a bare path.
func DSN(cfg config.BaseConfig) string {
	q := url.Values{}
	path := cfg.URL
	if i := strings.IndexByte(path, '?'); i >= 0 {
		q, _ = url.ParseQuery(path[i+1:])
		path = path[:i]
	}
	switch {
	case strings.HasPrefix(path, "sqlite://"):
		path = strings.TrimPrefix(path, "sqlite://")
	case strings.HasPrefix(path, "sqlite:"):
		path = strings.TrimPrefix(path, "sqlite:")
	case strings.HasPrefix(path, "file:"):
		path = strings.TrimPrefix(path, "file:")
	}
	if cfg.IsInMemory() {
		path = "dirtydb_memory_" + strconv.FormatInt(memoryID.Add(1), 10)
		q.Set("mode", "memory")
		q.Set("cache", "shared")
	} else if cfg.ClientType == dialect.Read {
		q.Set("mode", "ro")
	}
	pragmas := q["_pragma"]
	if cfg.ForeignKey {
		pragmas = append(pragmas, "foreign_keys(1)")
	}
	if cfg.ClientType == dialect.Write {
		pragmas = append(pragmas, "busy_timeout("+strconv.FormatInt(cfg.BusyTimeoutDuration().Milliseconds(), 10)+")")
		if !cfg.IsInMemory() {
			pragmas = append(pragmas, "journal_mode(WAL)")
		}
	}
	q["_pragma"] = pragmas
	return "file:" + path + "?" + q.Encode()
}

// Open opens a sqlite pool.
func Open(ctx context.Context, cfg config.BaseConfig) (*sql.Driver, error) {
	db, err := stdsql.Open(DriverName, DSN(cfg))
	if err != nil {
		return nil, err
	}
	maxConns := cfg.Max
	if cfg.IsInMemory() {
		maxConns = 1
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	slog.Info("sqlite pool opened", "client", cfg.ClientType, "max", maxConns)
	return sql.OpenDB(dialect.SQLite, db), nil
}

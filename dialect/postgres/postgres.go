// Package postgres registers the PostgreSQL connector, backed by
// github.com/lib/pq.
//
//	import _ "github.com/syssam/dirtydb/dialect/postgres"
package postgres

import (
	"context"
	stdsql "database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/lib/pq"

	"github.com/syssam/dirtydb/config"
	"github.com/syssam/dirtydb/dialect"
	"github.com/syssam/dirtydb/dialect/sql"
)

func init() {
	sql.Register(dialect.Postgres, sql.ConnectorFunc(Open))
}

// ConnString converts a configured URL into a lib/pq connection string.
// Read pools open their sessions read-only. Custom entries are passed as
// run-time parameters.
func ConnString(cfg config.BaseConfig) (string, error) {
	conn := cfg.URL
	if strings.HasPrefix(conn, "postgres://") || strings.HasPrefix(conn, "postgresql://") {
		var err error
		if conn, err = pq.ParseURL(conn); err != nil {
			return "", fmt.Errorf("postgres: parse url: %w", err)
		}
	}
	params := make(map[string]string, len(cfg.Custom)+1)
	for k, v := range cfg.Custom {
		params[k] = v
	}
	if cfg.ClientType == dialect.Read {
		params["default_transaction_read_only"] = "on"
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		conn += " " + k + "=" + quote(params[k])
	}
	return strings.TrimSpace(conn), nil
}

func quote(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v) + "'"
}

// Open opens a PostgreSQL pool.
func Open(ctx context.Context, cfg config.BaseConfig) (*sql.Driver, error) {
	conn, err := ConnString(cfg)
	if err != nil {
		return nil, err
	}
	connector, err := pq.NewConnector(conn)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	db := stdsql.OpenDB(connector)
	db.SetMaxOpenConns(cfg.Max)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	slog.Info("postgres pool opened", "client", cfg.ClientType, "max", cfg.Max)
	return sql.OpenDB(dialect.Postgres, db), nil
}

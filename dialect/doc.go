// Package dialect names the database backends and defines the driver
// interfaces every backend pool implements.
//
// # Backends
//
//	dialect.MySQL    = "mysql"
//	dialect.Postgres = "postgres"
//	dialect.SQLite   = "sqlite"
//
// Each backend may have two pools, one per ClientType: Read and Write.
//
// # Driver Interface
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// # Sub-packages
//
//   - dialect/sql: database/sql driver wrapper, statement compiler, row scanning
//   - dialect/sql/schema: DDL compiler, live inspection and blueprint validation
//   - dialect/sqlite, dialect/mysql, dialect/postgres: connectors that open
//     pools from configuration and register themselves on import
//
// Opening a pool directly:
//
//	import (
//	    "github.com/syssam/dirtydb/config"
//	    "github.com/syssam/dirtydb/dialect/sql"
//	    _ "github.com/syssam/dirtydb/dialect/sqlite"
//	)
//
//	drv, err := sql.OpenConfig(ctx, config.Default())
package dialect

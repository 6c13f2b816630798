// Package sql runs dirtydb queries on database/sql backends.
//
// Compile renders a query.Builder into the SQL text and arguments of one
// backend. Placeholders are "?" on SQLite and MySQL and "$n" on
// PostgreSQL, and sub-queries share the numbering of their parent:
//
//	q, args, err := sql.Compile(dialect.Postgres, query.Select("users").
//	    Eq("status", "active").
//	    InSub("id", "posts", func(b *query.Builder) { b.Select("user_id") }))
//	// SELECT * FROM users WHERE status = $1 AND id IN (SELECT user_id FROM posts)
//
// # Drivers
//
// A Driver wraps a *sql.DB and implements dialect.Driver. Backend packages
// (dialect/sqlite, dialect/mysql, dialect/postgres) register a Connector
// that opens one from a config.BaseConfig:
//
//	import _ "github.com/syssam/dirtydb/dialect/sqlite"
//
//	drv, err := sql.OpenConfig(ctx, config.Default())
//
// Query results are read with ScanRows, which converts each column into a
// field.Value using the database type reported by the driver.
//
// # Errors
//
// ConvertError wraps unique, foreign key and check violations of every
// backend into a dirtydb.ConstraintError.
//
// # Statistics
//
// StatsDriver collects query counts and latencies and reports slow
// queries. DebugDriver logs every statement at Debug level. Both wrap any
// dialect.Driver and stack.
package sql

package dialect

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strings"
)

// Kind identifies a database backend.
type Kind string

// Database backends.
const (
	MySQL    Kind = "mysql"
	Postgres Kind = "postgres"
	SQLite   Kind = "sqlite"
)

// Kinds lists the supported backends.
var Kinds = []Kind{MySQL, Postgres, SQLite}

// String returns the backend name.
func (k Kind) String() string { return string(k) }

// ParseKind parses a backend name. "mariadb" is served by the MySQL
// backend, "postgresql" and "pgsql" by Postgres and "sqlite3" by SQLite.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mysql", "mariadb":
		return MySQL, nil
	case "postgres", "postgresql", "pgsql":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return "", fmt.Errorf("dialect: unknown database kind %q", s)
}

// ClientType tells whether a pool serves reads or writes.
type ClientType string

// Client types.
const (
	Read  ClientType = "read"
	Write ClientType = "write"
)

// String returns the client type name.
func (c ClientType) String() string { return string(c) }

// ParseClientType parses "read" or "write".
func ParseClientType(s string) (ClientType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "read":
		return Read, nil
	case "write":
		return Write, nil
	}
	return "", fmt.Errorf("dialect: unknown client type %q", s)
}

// ExecQuerier wraps the 2 database operations.
type ExecQuerier interface {
	// Exec executes a query that does not return records. For example, in SQL, INSERT or UPDATE.
	// It scans the result into the pointer v. For SQL drivers, it is dialect/sql.Result.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a query that returns rows, typically a SELECT in SQL.
	// It scans the result into the pointer v. For SQL drivers, it is *dialect/sql.Rows.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the interface that wraps all necessary operations for a
// backend pool.
type Driver interface {
	ExecQuerier
	// Tx starts and returns a new transaction.
	// The provided context is used until the transaction is committed or rolled back.
	Tx(context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Tx wraps the Exec and Query operations in transaction.
type Tx interface {
	ExecQuerier
	driver.Tx
}

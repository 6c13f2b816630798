package sql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/syssam/dirtydb/dialect"
)

// Driver is a dialect.Driver over a database/sql pool of one backend.
type Driver struct {
	Conn
	kind dialect.Kind
}

// NewDriver returns a Driver of kind running statements on c.
func NewDriver(kind dialect.Kind, c Conn) *Driver {
	return &Driver{kind: kind, Conn: c}
}

// Open opens a database/sql pool using the registered driverName and
// wraps it as a Driver of the given kind. The modernc sqlite driver
// registers as "sqlite", lib/pq as "postgres" and go-sql-driver as "mysql".
func Open(kind dialect.Kind, driverName, source string) (*Driver, error) {
	db, err := sql.Open(driverName, source)
	if err != nil {
		return nil, err
	}
	return OpenDB(kind, db), nil
}

// OpenDB wraps an opened pool.
func OpenDB(kind dialect.Kind, db *sql.DB) *Driver {
	return NewDriver(kind, Conn{db, kind})
}

// DB returns the pool under d.
func (d Driver) DB() *sql.DB {
	return d.ExecQuerier.(*sql.DB)
}

// DBOf returns the *sql.DB under drv, looking through the stats and debug
// decorators. It returns false for drivers that are not backed by
// database/sql.
func DBOf(drv dialect.Driver) (*sql.DB, bool) {
	switch d := drv.(type) {
	case *Driver:
		db, ok := d.ExecQuerier.(*sql.DB)
		return db, ok
	case *StatsDriver:
		return DBOf(d.Driver)
	case *DebugDriver:
		return DBOf(d.Driver)
	}
	return nil, false
}

// Kind returns the backend kind of the driver.
func (d Driver) Kind() dialect.Kind { return d.kind }

// Dialect implements the dialect.Dialect method.
func (d Driver) Dialect() string { return d.kind.String() }

// Tx begins a transaction on one connection of the pool.
func (d *Driver) Tx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Tx{Conn: Conn{tx, d.kind}, Tx: tx}, nil
}

// Close closes the pool.
func (d *Driver) Close() error { return d.DB().Close() }

// Tx implements dialect.Tx.
type Tx struct {
	Conn
	driver.Tx
}

// ExecQuerier is the part of *sql.DB and *sql.Tx a Conn runs on.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Conn implements dialect.ExecQuerier over an ExecQuerier.
type Conn struct {
	ExecQuerier
	kind dialect.Kind
}

// Exec runs a statement. args must be a []any; v is nil or a *Result
// receiving the outcome.
func (c Conn) Exec(ctx context.Context, query string, args, v any) error {
	argv, err := argList(args)
	if err != nil {
		return err
	}
	switch v := v.(type) {
	case nil:
		if _, err := c.ExecContext(ctx, query, argv...); err != nil {
			return fmt.Errorf("dialect/sql: exec: %w", err)
		}
	case *Result:
		res, err := c.ExecContext(ctx, query, argv...)
		if err != nil {
			return fmt.Errorf("dialect/sql: exec: %w", err)
		}
		*v = res
	default:
		return fmt.Errorf("dialect/sql: exec into %T, want *sql.Result", v)
	}
	return nil
}

// Query runs a select into v, which must be a *Rows. The caller closes
// the rows.
func (c Conn) Query(ctx context.Context, query string, args, v any) error {
	rows, ok := v.(*Rows)
	if !ok {
		return fmt.Errorf("dialect/sql: query into %T, want *sql.Rows", v)
	}
	argv, err := argList(args)
	if err != nil {
		return err
	}
	r, err := c.QueryContext(ctx, query, argv...)
	if err != nil {
		return fmt.Errorf("dialect/sql: query: %w", err)
	}
	*rows = Rows{r}
	return nil
}

func argList(args any) ([]any, error) {
	switch args := args.(type) {
	case nil:
		return nil, nil
	case []any:
		return args, nil
	default:
		return nil, fmt.Errorf("dialect/sql: args of type %T, want []any", args)
	}
}

var _ dialect.Driver = (*Driver)(nil)

type (
	// Rows holds the result of Query.
	Rows struct{ ColumnScanner }
	// Result is an alias to sql.Result.
	Result = sql.Result
)

// ColumnScanner is the part of *sql.Rows that row scanning needs.
type ColumnScanner interface {
	Close() error
	ColumnTypes() ([]*sql.ColumnType, error)
	Columns() ([]string, error)
	Err() error
	Next() bool
	Scan(dest ...any) error
}

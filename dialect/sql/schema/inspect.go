package schema

import (
	"context"
	"fmt"

	"ariga.io/atlas/sql/migrate"
	"ariga.io/atlas/sql/mysql"
	"ariga.io/atlas/sql/postgres"
	atlas "ariga.io/atlas/sql/schema"
	"ariga.io/atlas/sql/sqlite"

	"github.com/syssam/dirtydb/dialect"
	"github.com/syssam/dirtydb/dialect/sql"
)

// Inspector reads live table definitions from a database.
type Inspector struct {
	drv migrate.Driver
}

// NewInspector returns an inspector for the given backend.
func NewInspector(kind dialect.Kind, db atlas.ExecQuerier) (*Inspector, error) {
	var (
		drv migrate.Driver
		err error
	)
	switch kind {
	case dialect.SQLite:
		drv, err = sqlite.Open(db)
	case dialect.MySQL:
		drv, err = mysql.Open(db)
	case dialect.Postgres:
		drv, err = postgres.Open(db)
	default:
		return nil, fmt.Errorf("%w: %q", sql.ErrUnknownKind, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("dialect/sql/schema: open %s inspector: %w", kind, err)
	}
	return &Inspector{drv: drv}, nil
}

// Table returns the live definition of name. The boolean is false when
// the table does not exist.
func (i *Inspector) Table(ctx context.Context, name string) (*atlas.Table, bool, error) {
	s, err := i.drv.InspectSchema(ctx, "", &atlas.InspectOptions{Tables: []string{name}})
	switch {
	case atlas.IsNotExistError(err):
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("dialect/sql/schema: inspect %s: %w", name, err)
	}
	t, ok := s.Table(name)
	return t, ok, nil
}

// Tables returns the live definitions of all tables in the current
// schema.
func (i *Inspector) Tables(ctx context.Context) ([]*atlas.Table, error) {
	s, err := i.drv.InspectSchema(ctx, "", nil)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql/schema: inspect schema: %w", err)
	}
	return s.Tables, nil
}

// Package migrate runs named schema migrations against a manager and
// records them in a migrations table.
//
//	r, err := migrate.NewRunner(m, []migrate.Migration{
//		migrate.New("2024_01_01_create_users",
//			func(ctx context.Context, m *manager.Manager) error {
//				return m.CreateTableSchema(ctx, "users", func(t *schema.TableBlueprint) {
//					t.IDSet()
//					t.String("name")
//				})
//			},
//			func(ctx context.Context, m *manager.Manager) error {
//				return m.DropTable(ctx, "users")
//			}),
//	})
//	applied, err := r.Up(ctx)
//
// Up runs every pending migration as one batch. Down rolls back the last
// batch, Reset rolls back everything and Refresh is Reset followed by Up.
// On SQLite and Postgres each migration runs in a transaction together
// with its record.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/syssam/dirtydb"
	"github.com/syssam/dirtydb/dialect"
	"github.com/syssam/dirtydb/field"
	"github.com/syssam/dirtydb/manager"
	"github.com/syssam/dirtydb/query"
	"github.com/syssam/dirtydb/schema"
)

// DefaultTable is the name of the migrations table.
const DefaultTable = "migrations"

// Migration columns.
const (
	IDColumn        = "id"
	NameColumn      = "name"
	BatchColumn     = "batch"
	CreatedAtColumn = "created_at"
)

// ErrUnknownMigration is returned when a recorded migration is not
// registered with the runner and cannot be rolled back.
var ErrUnknownMigration = errors.New("migrate: unknown migration")

// Migration is a named, reversible schema change.
type Migration interface {
	Name() string
	Up(context.Context, *manager.Manager) error
	Down(context.Context, *manager.Manager) error
}

// StepFunc is the body of one direction of a migration.
type StepFunc func(context.Context, *manager.Manager) error

type funcMigration struct {
	name     string
	up, down StepFunc
}

// New returns a migration running up and down. A nil down is a no-op.
func New(name string, up, down StepFunc) Migration {
	return &funcMigration{name: name, up: up, down: down}
}

func (f *funcMigration) Name() string { return f.name }

func (f *funcMigration) Up(ctx context.Context, m *manager.Manager) error {
	if f.up == nil {
		return nil
	}
	return f.up(ctx, m)
}

func (f *funcMigration) Down(ctx context.Context, m *manager.Manager) error {
	if f.down == nil {
		return nil
	}
	return f.down(ctx, m)
}

// Record is a row of the migrations table.
type Record struct {
	dirtydb.Table
	ID        int64
	Name      string
	Batch     int64
	CreatedAt *time.Time
}

func (Record) TableName() string { return DefaultTable }

func (Record) TableColumns() []string {
	return []string{IDColumn, NameColumn, BatchColumn, CreatedAtColumn}
}

func (Record) IDColumn() string        { return IDColumn }
func (Record) CreatedAtColumn() string { return CreatedAtColumn }

// FromColumnAndValue implements dirtydb.FromColumnAndValue.
func (r *Record) FromColumnAndValue(cv field.ColumnAndValue) error {
	if !cv.Has(NameColumn) {
		return fmt.Errorf("migrate: record without %s column", NameColumn)
	}
	r.ID = cv.Get(IDColumn).Int64()
	r.Name = cv.Get(NameColumn).String()
	r.Batch = cv.Get(BatchColumn).Int64()
	r.CreatedAt = cv.Get(CreatedAtColumn).NullableTime()
	return nil
}

// Status is the state of one registered migration.
type Status struct {
	Name    string
	Applied bool
	Batch   int64
	At      *time.Time
}

// Runner applies and rolls back migrations in registration order.
type Runner struct {
	m          *manager.Manager
	migrations []Migration
	byName     map[string]Migration
	table      string
	logger     *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithTable sets the migrations table name.
func WithTable(table string) Option {
	return func(r *Runner) { r.table = table }
}

// WithLogger sets the logger of migration steps.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// NewRunner returns a runner of migrations on m. Names must be unique.
func NewRunner(m *manager.Manager, migrations []Migration, opts ...Option) (*Runner, error) {
	r := &Runner{
		m:          m,
		migrations: migrations,
		byName:     make(map[string]Migration, len(migrations)),
		table:      DefaultTable,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "dirtydb.migrate", "table", r.table)
	for _, mg := range migrations {
		if mg.Name() == "" {
			return nil, errors.New("migrate: migration without name")
		}
		if _, ok := r.byName[mg.Name()]; ok {
			return nil, fmt.Errorf("migrate: duplicate migration %q", mg.Name())
		}
		r.byName[mg.Name()] = mg
	}
	return r, nil
}

// init creates the migrations table when it is missing.
func (r *Runner) init(ctx context.Context) error {
	return r.m.CreateTableSchema(ctx, r.table, func(t *schema.TableBlueprint) {
		t.ID(IDColumn)
		t.Text(NameColumn)
		t.Integer(BatchColumn)
		t.CreatedAt()
		t.UniqueIndex(NameColumn)
	})
}

// applied returns the recorded migrations, oldest first.
func (r *Runner) applied(ctx context.Context) ([]*Record, error) {
	return manager.GetTo[Record](ctx, r.m.SelectFromTable(r.table, func(q *query.Builder) {
		q.Asc(IDColumn)
	}))
}

// Status reports every registered migration and whether it was applied.
func (r *Runner) Status(ctx context.Context) ([]Status, error) {
	if err := r.init(ctx); err != nil {
		return nil, err
	}
	recs, err := r.applied(ctx)
	if err != nil {
		return nil, err
	}
	done := make(map[string]*Record, len(recs))
	for _, rec := range recs {
		done[rec.Name] = rec
	}
	out := make([]Status, len(r.migrations))
	for i, mg := range r.migrations {
		out[i] = Status{Name: mg.Name()}
		if rec, ok := done[mg.Name()]; ok {
			out[i].Applied, out[i].Batch, out[i].At = true, rec.Batch, rec.CreatedAt
		}
	}
	return out, nil
}

// Up runs the pending migrations as a new batch and returns their names.
// It stops at the first failure; migrations applied before it stay
// recorded.
func (r *Runner) Up(ctx context.Context) ([]string, error) {
	if err := r.init(ctx); err != nil {
		return nil, err
	}
	recs, err := r.applied(ctx)
	if err != nil {
		return nil, err
	}
	var batch int64
	done := make(map[string]bool, len(recs))
	for _, rec := range recs {
		done[rec.Name] = true
		batch = max(batch, rec.Batch)
	}
	batch++
	var ran []string
	for _, mg := range r.migrations {
		if done[mg.Name()] {
			r.logger.DebugContext(ctx, "migration already applied", "name", mg.Name())
			continue
		}
		r.logger.DebugContext(ctx, "migrating up", "name", mg.Name(), "batch", batch)
		err := r.step(ctx, func(m *manager.Manager) error {
			if err := mg.Up(ctx, m); err != nil {
				return err
			}
			return m.Insert(ctx, r.table, field.NewBuilder().
				Insert(NameColumn, mg.Name()).
				Insert(BatchColumn, batch).
				Build())
		})
		if err != nil {
			return ran, fmt.Errorf("migrate: up %s: %w", mg.Name(), err)
		}
		r.logger.InfoContext(ctx, "migration applied", "name", mg.Name(), "batch", batch)
		ran = append(ran, mg.Name())
	}
	return ran, nil
}

// Down rolls back the last batch, newest first, and returns the names
// rolled back.
func (r *Runner) Down(ctx context.Context) ([]string, error) {
	if err := r.init(ctx); err != nil {
		return nil, err
	}
	recs, err := r.applied(ctx)
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	last := recs[len(recs)-1].Batch
	recs = slices.DeleteFunc(recs, func(rec *Record) bool { return rec.Batch != last })
	return r.rollback(ctx, recs)
}

// Reset rolls back every applied migration, newest first.
func (r *Runner) Reset(ctx context.Context) ([]string, error) {
	if err := r.init(ctx); err != nil {
		return nil, err
	}
	recs, err := r.applied(ctx)
	if err != nil {
		return nil, err
	}
	return r.rollback(ctx, recs)
}

// Refresh resets and then runs every migration again. It returns the
// names applied by the final Up.
func (r *Runner) Refresh(ctx context.Context) ([]string, error) {
	if _, err := r.Reset(ctx); err != nil {
		return nil, err
	}
	return r.Up(ctx)
}

// rollback runs Down for recs in reverse order and deletes their
// records.
func (r *Runner) rollback(ctx context.Context, recs []*Record) ([]string, error) {
	var ran []string
	for _, rec := range slices.Backward(recs) {
		mg, ok := r.byName[rec.Name]
		if !ok {
			return ran, fmt.Errorf("%w: %q", ErrUnknownMigration, rec.Name)
		}
		r.logger.DebugContext(ctx, "migrating down", "name", rec.Name, "batch", rec.Batch)
		err := r.step(ctx, func(m *manager.Manager) error {
			if err := mg.Down(ctx, m); err != nil {
				return err
			}
			return m.Delete(ctx, r.table, func(q *query.Builder) { q.Eq(IDColumn, rec.ID) })
		})
		if err != nil {
			return ran, fmt.Errorf("migrate: down %s: %w", rec.Name, err)
		}
		r.logger.InfoContext(ctx, "migration rolled back", "name", rec.Name, "batch", rec.Batch)
		ran = append(ran, rec.Name)
	}
	return ran, nil
}

// step runs fn in a transaction where DDL is transactional.
func (r *Runner) step(ctx context.Context, fn func(*manager.Manager) error) error {
	if r.m.Kind() == dialect.MySQL {
		return fn(r.m)
	}
	return r.m.WithTx(ctx, fn)
}

package manager

import (
	"context"

	"github.com/syssam/dirtydb"
	"github.com/syssam/dirtydb/dialect"
	"github.com/syssam/dirtydb/dialect/sql"
	"github.com/syssam/dirtydb/field"
	"github.com/syssam/dirtydb/query"
)

// StreamBuffer is the channel capacity of Stream and StreamTo.
const StreamBuffer = 100

// Result is a pending select. Nothing runs until one of its methods is
// called, and every call runs the statement again on the read pool
// chosen at that moment.
type Result struct {
	m *Manager
	b *query.Builder
}

// Query returns the builder of the pending select.
func (r *Result) Query() *query.Builder { return r.b }

// FetchAll returns the flat rows, keyed by column name or alias. It
// returns an empty slice when nothing matches.
func (r *Result) FetchAll(ctx context.Context) ([]field.ColumnAndValue, error) {
	rows, err := r.m.fetch(ctx, r.b, "select")
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []field.ColumnAndValue{}
	}
	return rows, nil
}

// All returns the rows with "table.column" aliases nested into objects.
func (r *Result) All(ctx context.Context) ([]field.ColumnAndValue, error) {
	rows, err := r.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return field.StructureAll(rows), nil
}

// Get is All.
func (r *Result) Get(ctx context.Context) ([]field.ColumnAndValue, error) {
	return r.All(ctx)
}

// FetchOne returns the first flat row, or nil when nothing matches. The
// statement is limited to one row.
func (r *Result) FetchOne(ctx context.Context) (field.ColumnAndValue, error) {
	rows, err := r.m.fetch(ctx, r.b.Clone().Limit(1), "select_one")
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// First returns the first structured row, or nil when nothing matches.
func (r *Result) First(ctx context.Context) (field.ColumnAndValue, error) {
	row, err := r.FetchOne(ctx)
	if err != nil || row == nil {
		return nil, err
	}
	return field.Structure(row), nil
}

// Stream is a row stream. C is closed once the rows are exhausted or the
// statement fails; Err reports the failure after that.
type Stream[T any] struct {
	C    <-chan T
	done chan struct{}
	err  error
}

// Err waits for the stream to end and returns the error that ended it.
func (s *Stream[T]) Err() error {
	<-s.done
	return s.err
}

// Stream sends the structured rows on a buffered channel as they are
// read. Cancel ctx to stop early.
func (r *Result) Stream(ctx context.Context) *Stream[field.ColumnAndValue] {
	return stream(ctx, r, func(row field.ColumnAndValue) (field.ColumnAndValue, error) {
		return field.Structure(row), nil
	})
}

func stream[T any](ctx context.Context, r *Result, conv func(field.ColumnAndValue) (T, error)) *Stream[T] {
	ch := make(chan T, StreamBuffer)
	s := &Stream[T]{C: ch, done: make(chan struct{})}
	go func() {
		defer close(s.done)
		defer close(ch)
		s.err = r.m.each(ctx, r.b, func(row field.ColumnAndValue) error {
			v, err := conv(row)
			if err != nil {
				return err
			}
			select {
			case ch <- v:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()
	return s
}

// GetTo decodes every row into a T.
func GetTo[T any, PT interface {
	*T
	dirtydb.FromColumnAndValue
}](ctx context.Context, r *Result) ([]*T, error) {
	rows, err := r.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return dirtydb.DecodeAll[T, PT](rows)
}

// FirstTo decodes the first row into a T. It returns nil when nothing
// matches.
func FirstTo[T any, PT interface {
	*T
	dirtydb.FromColumnAndValue
}](ctx context.Context, r *Result) (*T, error) {
	row, err := r.FetchOne(ctx)
	if err != nil || row == nil {
		return nil, err
	}
	return dirtydb.Decode[T, PT](row)
}

// StreamTo decodes the rows into Ts as they are read.
func StreamTo[T any, PT interface {
	*T
	dirtydb.FromColumnAndValue
}](ctx context.Context, r *Result) *Stream[*T] {
	return stream(ctx, r, dirtydb.Decode[T, PT])
}

// fetch runs a select, going through the cache when one is set.
func (m *Manager) fetch(ctx context.Context, b *query.Builder, op string) ([]field.ColumnAndValue, error) {
	b, err := m.authorize(ctx, b)
	if err != nil {
		return nil, dirtydb.NewQueryError(b.Table(), op, err)
	}
	stmt, args, err := sql.Compile(m.kind, b)
	if err != nil {
		return nil, dirtydb.NewQueryError(b.Table(), op, err)
	}
	key, cacheable := m.cacheKey(b, op, stmt, args)
	if cacheable {
		if rows, ok := m.cached(ctx, key); ok {
			return rows, nil
		}
	}
	drv, _ := m.reader(ctx)
	rows, err := queryRows(ctx, drv, stmt, args)
	if err != nil {
		return nil, dirtydb.NewQueryError(b.Table(), op, err)
	}
	if cacheable {
		m.store(ctx, key, rows)
	}
	return rows, nil
}

// each runs a select and hands the rows to fn one at a time. Streams
// bypass the cache.
func (m *Manager) each(ctx context.Context, b *query.Builder, fn func(field.ColumnAndValue) error) error {
	b, err := m.authorize(ctx, b)
	if err != nil {
		return dirtydb.NewQueryError(b.Table(), "stream", err)
	}
	stmt, args, err := sql.Compile(m.kind, b)
	if err != nil {
		return dirtydb.NewQueryError(b.Table(), "stream", err)
	}
	drv, _ := m.reader(ctx)
	rows := &sql.Rows{}
	if err := drv.Query(ctx, stmt, args, rows); err != nil {
		return dirtydb.NewQueryError(b.Table(), "stream", sql.ConvertError(err))
	}
	return sql.EachRow(rows, fn)
}

func queryRows(ctx context.Context, drv dialect.ExecQuerier, stmt string, args []any) ([]field.ColumnAndValue, error) {
	rows := &sql.Rows{}
	if err := drv.Query(ctx, stmt, args, rows); err != nil {
		return nil, sql.ConvertError(err)
	}
	return sql.ScanRows(rows)
}

package manager

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/dirtydb"
	"github.com/syssam/dirtydb/config"
	"github.com/syssam/dirtydb/dialect"
	"github.com/syssam/dirtydb/dialect/sql"
	"github.com/syssam/dirtydb/field"
	"github.com/syssam/dirtydb/query"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type pair struct {
	m     *Manager
	write sqlmock.Sqlmock
	read  sqlmock.Sqlmock
	clock *fakeClock
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newPair returns a manager over a mocked write pool and read pool with
// a 10 second sticky window.
func newPair(t *testing.T, kind dialect.Kind, opts ...Option) *pair {
	t.Helper()
	wdb, wmock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	rdb, rmock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	clock := newClock()
	m, err := New([]Pool{{
		Kind:           kind,
		Write:          sql.OpenDB(kind, wdb),
		Read:           sql.OpenDB(kind, rdb),
		Sticky:         true,
		StickyDuration: 10 * time.Second,
	}}, append([]Option{WithClock(clock.Now), WithLogger(quietLogger())}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() {
		wmock.ExpectClose()
		rmock.ExpectClose()
		require.NoError(t, m.Close())
		require.NoError(t, wmock.ExpectationsWereMet())
		require.NoError(t, rmock.ExpectationsWereMet())
	})
	return &pair{m: m, write: wmock, read: rmock, clock: clock}
}

func TestStickyReadRouting(t *testing.T) {
	ctx := context.Background()
	p := newPair(t, dialect.SQLite)
	assert.Equal(t, dialect.Read, p.m.Route(), "no write yet")

	p.write.ExpectExec("INSERT INTO users (name) VALUES (?)").
		WithArgs("Ada").
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, p.m.Insert(ctx, "users", field.NewBuilder().Insert("name", "Ada").Build()))

	p.clock.Advance(5 * time.Second)
	assert.Equal(t, dialect.Write, p.m.Route())
	p.write.ExpectQuery("SELECT * FROM users WHERE name = ?").
		WithArgs("Ada").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(1), "Ada"))
	rows, err := p.m.SelectFromTable("users", func(q *query.Builder) { q.Eq("name", "Ada") }).FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	p.clock.Advance(10 * time.Second)
	assert.Equal(t, dialect.Read, p.m.Route())
	p.read.ExpectQuery("SELECT * FROM users WHERE name = ?").
		WithArgs("Ada").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))
	rows, err = p.m.SelectFromTable("users", func(q *query.Builder) { q.Eq("name", "Ada") }).FetchAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestStickyDisabled(t *testing.T) {
	ctx := context.Background()
	p := newPair(t, dialect.Postgres)
	p.m.backend().setSticky(false, 10*time.Second)

	p.write.ExpectExec(`DELETE FROM users WHERE id = $1`).WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, p.m.Delete(ctx, "users", func(q *query.Builder) { q.Eq("id", 3) }))
	assert.Equal(t, dialect.Read, p.m.Route())
}

func TestRegistryWindowIsExclusive(t *testing.T) {
	r := NewRegistry()
	at := time.Unix(100, 0)
	assert.False(t, r.WithinWindow(dialect.MySQL, at, time.Minute))

	r.Touch(dialect.MySQL, at)
	assert.True(t, r.WithinWindow(dialect.MySQL, at.Add(9*time.Second), 10*time.Second))
	assert.False(t, r.WithinWindow(dialect.MySQL, at.Add(10*time.Second), 10*time.Second))
	assert.False(t, r.WithinWindow(dialect.Postgres, at, 10*time.Second))

	last, ok := r.LastWrite(dialect.MySQL)
	require.True(t, ok)
	assert.Equal(t, at, last)
}

func TestWriteOnReadOnlyBackend(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	m, err := New([]Pool{{Kind: dialect.MySQL, Read: sql.OpenDB(dialect.MySQL, db)}}, WithLogger(quietLogger()))
	require.NoError(t, err)
	assert.False(t, m.IsWritable())
	assert.Equal(t, dialect.Read, m.Route())

	err = m.Insert(context.Background(), "users", field.ColumnAndValue{"name": field.Of("a")})
	require.ErrorIs(t, err, dirtydb.ErrReadOnly)
	assert.True(t, dirtydb.IsMutationError(err))
	require.ErrorIs(t, m.WithTx(context.Background(), func(*Manager) error { return nil }), dirtydb.ErrReadOnly)

	mock.ExpectClose()
	require.NoError(t, m.Close())
	require.NoError(t, m.Close(), "close is idempotent")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewErrors(t *testing.T) {
	_, err := New(nil)
	require.ErrorIs(t, err, dirtydb.ErrNoConnection)

	_, err = New([]Pool{{Kind: dialect.SQLite}})
	require.ErrorIs(t, err, dirtydb.ErrNoConnection)

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	drv := sql.OpenDB(dialect.SQLite, db)
	_, err = New([]Pool{{Kind: dialect.SQLite, Write: drv}, {Kind: dialect.SQLite, Write: drv}})
	require.Error(t, err)

	_, err = New([]Pool{{Kind: dialect.SQLite, Write: drv}}, WithKind(dialect.MySQL))
	require.ErrorIs(t, err, dirtydb.ErrNoConnection)
}

func TestOnSharesRegistry(t *testing.T) {
	sdb, smock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	pdb, pmock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	prdb, prmock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	clock := newClock()
	m, err := New([]Pool{
		{Kind: dialect.SQLite, Write: sql.OpenDB(dialect.SQLite, sdb)},
		{Kind: dialect.Postgres, Write: sql.OpenDB(dialect.Postgres, pdb), Read: sql.OpenDB(dialect.Postgres, prdb), Sticky: true, StickyDuration: time.Second},
	}, WithClock(clock.Now), WithLogger(quietLogger()))
	require.NoError(t, err)
	assert.Equal(t, dialect.SQLite, m.Kind())
	assert.Equal(t, []dialect.Kind{dialect.Postgres, dialect.SQLite}, m.Kinds())

	pg, err := m.On(dialect.Postgres)
	require.NoError(t, err)
	_, err = m.On(dialect.MySQL)
	require.ErrorIs(t, err, dirtydb.ErrNoConnection)

	smock.ExpectExec("UPDATE users SET name = ?").WithArgs("b").WillReturnResult(sqlmock.NewResult(0, 2))
	require.NoError(t, m.Update(context.Background(), "users", field.ColumnAndValue{"name": field.Of("b")}, nil))
	assert.Equal(t, dialect.Read, pg.Route(), "a sqlite write does not make postgres sticky")

	_, ok := pg.Registry().LastWrite(dialect.SQLite)
	assert.True(t, ok, "handles share one registry")

	smock.ExpectClose()
	pmock.ExpectClose()
	prmock.ExpectClose()
	require.NoError(t, pg.Close())
	require.NoError(t, smock.ExpectationsWereMet())
	require.NoError(t, pmock.ExpectationsWereMet())
	require.NoError(t, prmock.ExpectationsWereMet())
}

func TestWriteErrors(t *testing.T) {
	ctx := context.Background()
	p := newPair(t, dialect.Postgres)

	p.write.ExpectExec("INSERT INTO users (email) VALUES ($1)").
		WithArgs("a@b").
		WillReturnError(&pq.Error{Code: "23505"})
	err := p.m.Insert(ctx, "users", field.ColumnAndValue{"email": field.Of("a@b")})
	require.Error(t, err)
	assert.True(t, dirtydb.IsConstraintError(err))
	var merr *dirtydb.MutationError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, "users", merr.Table)
	assert.Equal(t, "insert", merr.Op)
	_, ok := p.m.Registry().LastWrite(dialect.Postgres)
	assert.False(t, ok, "failed writes are not recorded")

	err = p.m.Update(ctx, "users", field.ColumnAndValue{"email": field.NotSet()}, nil)
	require.ErrorIs(t, err, sql.ErrEmptyUpdate)

	p.read.ExpectQuery("SELECT * FROM users").WillReturnError(errors.New("connection reset"))
	_, err = p.m.SelectFromTable("users", nil).All(ctx)
	require.Error(t, err)
	assert.True(t, dirtydb.IsQueryError(err))
}

func TestWriteStatements(t *testing.T) {
	ctx := context.Background()
	p := newPair(t, dialect.SQLite)
	rows := []field.ToColumnAndValue{
		field.ColumnAndValue{"email": field.Of("a@b"), "name": field.Of("a")},
		field.ColumnAndValue{"email": field.Of("c@d"), "name": field.Of("c")},
	}

	p.write.ExpectExec("INSERT INTO users (email, name) VALUES (?, ?), (?, ?)").
		WithArgs("a@b", "a", "c@d", "c").WillReturnResult(sqlmock.NewResult(2, 2))
	require.NoError(t, p.m.InsertMulti(ctx, "users", rows...))

	p.write.ExpectExec("INSERT OR IGNORE INTO users (email, name) VALUES (?, ?)").
		WithArgs("a@b", "a").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, p.m.SoftInsert(ctx, "users", rows[0]))

	p.write.ExpectExec("INSERT INTO users (email, name) VALUES (?, ?), (?, ?) ON CONFLICT (email) DO UPDATE SET name = excluded.name").
		WithArgs("a@b", "a", "c@d", "c").WillReturnResult(sqlmock.NewResult(0, 2))
	require.NoError(t, p.m.UpsertMulti(ctx, "users", rows, []string{"name"}, []string{"email"}))

	p.write.ExpectExec("ALTER TABLE users RENAME COLUMN name TO full_name").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, p.m.RenameColumn(ctx, "users", "name", "full_name"))

	p.write.ExpectExec("DROP TABLE IF EXISTS users").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, p.m.DropTable(ctx, "users"))
}

func TestRawStatements(t *testing.T) {
	ctx := context.Background()
	p := newPair(t, dialect.MySQL)

	p.write.ExpectExec("UPDATE users SET active = ? WHERE id > ?").
		WithArgs(true, int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 4))
	n, err := p.m.RawUpdate(ctx, "UPDATE users SET active = ? WHERE id > ?", true, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	p.write.ExpectExec("INSERT IGNORE INTO tags (name) VALUES (?)").
		WithArgs("go").
		WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err := p.m.RawInsert(ctx, "INSERT IGNORE INTO tags (name) VALUES (?)", field.String("go"))
	require.NoError(t, err)
	assert.False(t, ok)

	// Within the sticky window the raw select uses the write pool.
	p.write.ExpectQuery("SELECT COUNT(*) AS n FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(int64(4)))
	rows, err := p.m.RawSelect(ctx, "SELECT COUNT(*) AS n FROM users")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(4), rows[0].Get("n").Int64())

	p.write.ExpectExec("TRUNCATE tags").WillReturnError(errors.New("denied"))
	ok, err = p.m.RawStatement(ctx, "TRUNCATE tags")
	require.Error(t, err)
	assert.False(t, ok)
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	p := newPair(t, dialect.SQLite)
	got := make(chan SchemeWroteEvent, 4)
	unsubscribe := p.m.Subscribe(func(ev SchemeWroteEvent) { got <- ev })

	p.write.ExpectExec("DELETE FROM sessions").WillReturnResult(sqlmock.NewResult(0, 7))
	require.NoError(t, p.m.Delete(ctx, "sessions", nil))

	select {
	case ev := <-got:
		assert.Equal(t, dialect.SQLite, ev.Kind)
		assert.Equal(t, "sessions", ev.Table)
		assert.Equal(t, p.clock.Now(), ev.Timestamp)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}

	unsubscribe()
	unsubscribe()
	p.write.ExpectExec("DELETE FROM sessions").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, p.m.Delete(ctx, "sessions", nil))
	select {
	case ev := <-got:
		t.Fatalf("unexpected event after unsubscribe: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCacheInvalidation(t *testing.T) {
	ctx := context.Background()
	cache := dirtydb.NewMemoryCache()
	p := newPair(t, dialect.SQLite, WithCache(cache, time.Minute))
	sel := func() *Result {
		return p.m.SelectFromTable("users", func(q *query.Builder) { q.Eq("id", 1) })
	}

	p.read.ExpectQuery("SELECT * FROM users WHERE id = ?").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(1), "Ada"))
	first, err := sel().FetchAll(ctx)
	require.NoError(t, err)
	second, err := sel().FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, second, 1, "second read is served from the cache")
	assert.Equal(t, first[0].Get("name").String(), second[0].Get("name").String())
	assert.Equal(t, 1, cache.Len())

	p.write.ExpectExec("UPDATE users SET name = ? WHERE id = ?").
		WithArgs("Grace", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, p.m.Update(ctx, "users", field.ColumnAndValue{"name": field.Of("Grace")}, func(q *query.Builder) { q.Eq("id", 1) }))
	assert.Zero(t, cache.Len())

	p.write.ExpectQuery("SELECT * FROM users WHERE id = ?").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(1), "Grace"))
	third, err := sel().FetchAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Grace", third[0].Get("name").String())
}

func TestStatsOption(t *testing.T) {
	ctx := context.Background()
	p := newPair(t, dialect.SQLite, WithStats(sql.WithSlowThreshold(time.Hour)), WithDebug())

	p.write.ExpectExec("DELETE FROM t").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, p.m.Delete(ctx, "t", nil))
	p.write.ExpectQuery("SELECT * FROM t").WillReturnRows(sqlmock.NewRows([]string{"a"}))
	_, err := p.m.SelectFromTable("t", nil).FetchAll(ctx)
	require.NoError(t, err)

	snap := p.m.Stats()
	assert.Equal(t, int64(1), snap.TotalExecs)
	assert.Equal(t, int64(1), snap.TotalQueries)
}

func TestApplyConfig(t *testing.T) {
	p := newPair(t, dialect.SQLite)
	p.m.Registry().Touch(dialect.SQLite, p.clock.Now())
	assert.Equal(t, dialect.Write, p.m.Route())

	w := config.Default()
	w.Sticky = false
	p.m.ApplyConfig(&config.ConfigSet{
		Default: config.DefaultClient,
		Clients: map[string]config.ClientConfig{config.DefaultClient: {Write: &w}},
	})
	assert.Equal(t, dialect.Read, p.m.Route())
}

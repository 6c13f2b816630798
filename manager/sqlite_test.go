package manager_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/dirtydb"
	"github.com/syssam/dirtydb/config"
	"github.com/syssam/dirtydb/dialect"
	_ "github.com/syssam/dirtydb/dialect/sqlite"
	"github.com/syssam/dirtydb/field"
	"github.com/syssam/dirtydb/manager"
	"github.com/syssam/dirtydb/query"
	"github.com/syssam/dirtydb/schema"
)

type user struct {
	dirtydb.Table
	ID    int64
	Name  string
	Email *string
}

func (user) TableName() string      { return "users" }
func (user) TableColumns() []string { return []string{"id", "name", "email"} }
func (user) IDColumn() string       { return "id" }

func (u *user) FromColumnAndValue(cv field.ColumnAndValue) error {
	u.ID = cv.Get("id").Int64()
	u.Name = cv.Get("name").String()
	u.Email = cv.Get("email").NullableString()
	return nil
}

func (u user) ToColumnAndValue() field.ColumnAndValue {
	return field.NewBuilder().
		Insert("name", u.Name).
		TryInsert("email", u.Email).
		Build()
}

func openMemory(t *testing.T) *manager.Manager {
	t.Helper()
	m, err := manager.Open(context.Background(), config.InMemorySet())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, m.Close()) })
	return m
}

func createUsers(t *testing.T, m *manager.Manager) {
	t.Helper()
	err := m.CreateTableSchema(context.Background(), "users", func(t *schema.TableBlueprint) {
		t.ID("")
		t.String("name")
		t.String("email").Nullable().Uniq()
	})
	require.NoError(t, err)
}

func TestOpenInMemory(t *testing.T) {
	m := openMemory(t)
	assert.Equal(t, dialect.SQLite, m.Kind())
	assert.True(t, m.IsWritable())
	assert.Equal(t, dialect.Write, m.Route(), "in-memory databases have no read pool")
}

func TestOpenFailure(t *testing.T) {
	set := config.InMemorySet()
	set.Clients[config.DefaultClient].Write.URL = "sqlite:///nonexistent-dir/sub/db.sqlite"
	_, err := manager.Open(context.Background(), set)
	require.Error(t, err)
	assert.True(t, dirtydb.IsConnectionError(err))
	assert.Panics(t, func() { manager.MustOpen(context.Background(), set) })
}

func TestCreateTableSchemaIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := openMemory(t)
	createUsers(t, m)
	createUsers(t, m)

	ok, err := m.HasTable(ctx, "users")
	require.NoError(t, err)
	assert.True(t, ok)
	rows, err := m.RawSelect(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", "users")
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	ok, err = m.HasTable(ctx, "posts")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreateTableSchemaRejectsInvalidBlueprint(t *testing.T) {
	m := openMemory(t)
	err := m.CreateTableSchema(context.Background(), "tags", func(t *schema.TableBlueprint) {
		t.ID("")
		t.Enum("kind")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enum without options")
	ok, err := m.HasTable(context.Background(), "tags")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdateTableSchema(t *testing.T) {
	ctx := context.Background()
	m := openMemory(t)

	err := m.UpdateTableSchema(ctx, "users", func(t *schema.TableBlueprint) { t.Integer("age") })
	require.Error(t, err)
	assert.True(t, dirtydb.IsNotFound(err))

	createUsers(t, m)
	require.NoError(t, m.UpdateTableSchema(ctx, "users", func(t *schema.TableBlueprint) {
		t.Integer("age").Nullable()
		t.Index("age")
	}))
	live, ok, err := m.Inspect(ctx, "users")
	require.NoError(t, err)
	require.True(t, ok)
	_, ok = live.Column("age")
	assert.True(t, ok)

	err = m.UpdateTableSchema(ctx, "users", func(t *schema.TableBlueprint) { t.Integer("age").Nullable() })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "column already exists")

	r, err := m.ValidateTableSchema(ctx, schema.NewTable("users"))
	require.NoError(t, err)
	assert.True(t, r.HasBreakingChanges())
}

func TestCrudRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := openMemory(t)
	createUsers(t, m)

	email := "ada@example.com"
	require.NoError(t, m.InsertInto(ctx, user{Name: "Ada", Email: &email}))
	require.NoError(t, m.InsertMulti(ctx, "users", user{Name: "Grace"}, user{Name: "Linus"}))
	require.NoError(t, m.SoftInsert(ctx, "users", user{Name: "Dup", Email: &email}))

	all, err := manager.GetTo[user](ctx, m.SelectFromTable("users", func(q *query.Builder) { q.Asc("id") }))
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Ada", all[0].Name)
	require.NotNil(t, all[0].Email)
	assert.Nil(t, all[1].Email)

	require.NoError(t, m.Update(ctx, "users", field.ColumnAndValue{"name": field.Of("Grace Hopper")}, func(q *query.Builder) {
		q.Eq("name", "Grace")
	}))
	one, err := manager.FirstTo[user](ctx, m.SelectFromTable("users", func(q *query.Builder) { q.Eq("name", "Grace Hopper") }))
	require.NoError(t, err)
	require.NotNil(t, one)

	require.NoError(t, m.Upsert(ctx, "users", field.ColumnAndValue{"name": field.Of("Ada L."), "email": field.Of(email)}, []string{"name"}, []string{"email"}))
	row, err := m.SelectFromTable("users", func(q *query.Builder) { q.Eq("email", email) }).First(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", row.Get("name").String())

	require.NoError(t, m.Delete(ctx, "users", func(q *query.Builder) { q.Eq("name", "Linus") }))
	missing, err := m.SelectFromTable("users", func(q *query.Builder) { q.Eq("name", "Linus") }).FetchOne(ctx)
	require.NoError(t, err)
	assert.Nil(t, missing)

	err = m.Insert(ctx, "users", field.ColumnAndValue{"name": field.Of("Eve"), "email": field.Of(email)})
	assert.True(t, dirtydb.IsConstraintError(err))
}

func TestNullColumnDecodesNil(t *testing.T) {
	ctx := context.Background()
	m := openMemory(t)
	createUsers(t, m)

	require.NoError(t, m.InsertInto(ctx, user{Name: "Grace"}))
	require.NoError(t, m.Insert(ctx, "users", field.ColumnAndValue{"name": field.Of("Linus"), "email": field.Null()}))

	for _, name := range []string{"Grace", "Linus"} {
		row, err := m.SelectFromTable("users", func(q *query.Builder) { q.Eq("name", name) }).First(ctx)
		require.NoError(t, err)
		require.NotNil(t, row)
		assert.True(t, row.Get("email").IsNull(), name)

		u, err := manager.FirstTo[user](ctx, m.SelectFromTable("users", func(q *query.Builder) { q.Eq("name", name) }))
		require.NoError(t, err)
		require.NotNil(t, u)
		assert.Nil(t, u.Email, name)
	}
}

func TestEntityQuery(t *testing.T) {
	ctx := context.Background()
	m := openMemory(t)
	createUsers(t, m)
	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, m.Insert(ctx, "users", user{Name: name}))
	}

	n, err := manager.QueryOf[user](m).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = manager.For[user](m, "users").Where(func(q *query.Builder) { q.NotEq("name", "a") }).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	latest, err := manager.QueryOf[user](m).Latest(ctx, "id")
	require.NoError(t, err)
	assert.Equal(t, "c", latest.Name)
	oldest, err := manager.QueryOf[user](m).Oldest(ctx, "id")
	require.NoError(t, err)
	assert.Equal(t, "a", oldest.Name)

	none, err := manager.QueryOf[user](m).Where(func(q *query.Builder) { q.Eq("name", "z") }).One(ctx)
	require.NoError(t, err)
	assert.Nil(t, none)

	s := manager.QueryOf[user](m).Stream(ctx)
	var names []string
	for u := range s.C {
		names = append(names, u.Name)
	}
	require.NoError(t, s.Err())
	assert.ElementsMatch(t, []string{"a", "b", "c"}, names)
}

func TestViewAndRename(t *testing.T) {
	ctx := context.Background()
	m := openMemory(t)
	createUsers(t, m)
	require.NoError(t, m.Insert(ctx, "users", user{Name: "Ada"}))

	require.NoError(t, m.CreateViewFromTable(ctx, "ada_users", "users", func(q *query.Builder) {
		q.Select("id", "name").Eq("name", "Ada")
	}))
	rows, err := m.SelectFromTable("ada_users", nil).All(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NoError(t, m.DropView(ctx, "ada_users"))

	require.NoError(t, m.RenameColumn(ctx, "users", "name", "full_name"))
	require.NoError(t, m.RenameTable(ctx, "users", "people"))
	require.NoError(t, m.DropColumn(ctx, "people", "full_name"))
	ok, err := m.HasTable(ctx, "people")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, m.DropTable(ctx, "people"))
	ok, err = m.HasTable(ctx, "people")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWithTx(t *testing.T) {
	ctx := context.Background()
	m := openMemory(t)
	createUsers(t, m)
	events := make(chan manager.SchemeWroteEvent, 8)
	defer m.Subscribe(func(ev manager.SchemeWroteEvent) { events <- ev })()

	errRollback := errors.New("rollback")
	err := m.WithTx(ctx, func(tx *manager.Manager) error {
		require.True(t, tx.InTx())
		require.NoError(t, tx.Insert(ctx, "users", user{Name: "temp"}))
		rows, err := tx.SelectFromTable("users", nil).FetchAll(ctx)
		require.NoError(t, err)
		assert.Len(t, rows, 1, "the transaction sees its own write")
		return errRollback
	})
	require.ErrorIs(t, err, errRollback)
	assert.Empty(t, events, "rolled back writes are not published")
	n, err := manager.QueryOf[user](m).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, m.WithTx(ctx, func(tx *manager.Manager) error {
		if err := tx.Insert(ctx, "users", user{Name: "kept"}); err != nil {
			return err
		}
		return tx.WithTx(ctx, func(inner *manager.Manager) error {
			return inner.Insert(ctx, "users", user{Name: "nested"})
		})
	}))
	n, err = manager.QueryOf[user](m).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Eventually(t, func() bool { return len(events) == 2 }, time.Second, 10*time.Millisecond)
}

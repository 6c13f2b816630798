package relation_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/dirtydb"
	"github.com/syssam/dirtydb/config"
	"github.com/syssam/dirtydb/dialect"
	"github.com/syssam/dirtydb/dialect/sql"
	_ "github.com/syssam/dirtydb/dialect/sqlite"
	"github.com/syssam/dirtydb/field"
	"github.com/syssam/dirtydb/manager"
	"github.com/syssam/dirtydb/query"
	"github.com/syssam/dirtydb/relation"
	"github.com/syssam/dirtydb/schema"
)

type User struct {
	dirtydb.Table
	ID   int64
	Name string
}

func (User) TableName() string       { return "users" }
func (User) TableColumns() []string  { return []string{"id", "name"} }
func (User) IDColumn() string        { return "id" }
func (User) ForeignIDColumn() string { return "user_id" }

func (u User) ToColumnAndValue() field.ColumnAndValue {
	return field.NewBuilder().Insert("name", u.Name).Build()
}

func (u *User) FromColumnAndValue(cv field.ColumnAndValue) error {
	u.ID, u.Name = cv.Get("id").Int64(), cv.Get("name").String()
	return nil
}

type Post struct {
	dirtydb.Table
	ID     int64
	UserID string
	Title  string
}

func (Post) TableName() string      { return "posts" }
func (Post) TableColumns() []string { return []string{"id", "user_id", "title"} }
func (Post) IDColumn() string       { return "id" }

func (p Post) ToColumnAndValue() field.ColumnAndValue {
	return field.NewBuilder().Insert("user_id", p.UserID).Insert("title", p.Title).Build()
}

func (p *Post) FromColumnAndValue(cv field.ColumnAndValue) error {
	p.ID, p.UserID, p.Title = cv.Get("id").Int64(), cv.Get("user_id").String(), cv.Get("title").String()
	return nil
}

type Role struct {
	dirtydb.Table
	ID   int64
	Name string
}

func (Role) TableName() string       { return "roles" }
func (Role) TableColumns() []string  { return []string{"id", "name"} }
func (Role) IDColumn() string        { return "id" }
func (Role) ForeignIDColumn() string { return "role_id" }

func (r Role) ToColumnAndValue() field.ColumnAndValue {
	return field.NewBuilder().Insert("name", r.Name).Build()
}

func (r *Role) FromColumnAndValue(cv field.ColumnAndValue) error {
	r.ID, r.Name = cv.Get("id").Int64(), cv.Get("name").String()
	return nil
}

type RoleUser struct {
	dirtydb.Table
	UserID int64
	RoleID int64
}

func (RoleUser) TableName() string      { return "role_user" }
func (RoleUser) TableColumns() []string { return []string{"user_id", "role_id"} }

func (ru *RoleUser) FromColumnAndValue(cv field.ColumnAndValue) error {
	ru.UserID, ru.RoleID = cv.Get("user_id").Int64(), cv.Get("role_id").Int64()
	return nil
}

type Comment struct {
	dirtydb.Table
	ID   int64
	Body string
}

func (Comment) TableName() string      { return "comments" }
func (Comment) TableColumns() []string { return []string{"id", "body", "commentable_id", "commentable_type"} }
func (Comment) IDColumn() string       { return "id" }

func (c *Comment) FromColumnAndValue(cv field.ColumnAndValue) error {
	c.ID, c.Body = cv.Get("id").Int64(), cv.Get("body").String()
	return nil
}

func quiet() manager.Option {
	return manager.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func mocked(t *testing.T) (*manager.Manager, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	m, err := manager.New([]manager.Pool{{Kind: dialect.SQLite, Write: sql.OpenDB(dialect.SQLite, db)}}, quiet())
	require.NoError(t, err)
	t.Cleanup(func() {
		mock.ExpectClose()
		require.NoError(t, m.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	})
	return m, mock
}

func TestHasManyScopesToParentKey(t *testing.T) {
	m, mock := mocked(t)
	posts := relation.NewHasMany[Post](m, User{}).ConstrainKey("abc")

	ws := posts.Query().Wheres()
	require.Len(t, ws, 1)
	assert.Equal(t, "posts.user_id", ws[0].Condition.Column)
	assert.Equal(t, query.Equal, ws[0].Condition.Operator)
	assert.Equal(t, "abc", ws[0].Condition.Value.Field().String())

	mock.ExpectQuery("SELECT posts.id, posts.user_id, posts.title FROM posts WHERE posts.user_id = ?").
		WithArgs("abc").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title"}).
			AddRow(int64(1), "abc", "first").
			AddRow(int64(2), "abc", "second"))
	got, err := posts.Get(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "second", got[1].Title)
}

func TestUnconstrainedRelationMatchesNothing(t *testing.T) {
	m, mock := mocked(t)
	mock.ExpectQuery("SELECT posts.id, posts.user_id, posts.title FROM posts WHERE 1 = 0").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title"}))
	got, err := relation.NewHasMany[Post](m, User{}).Get(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBelongsToCachesParent(t *testing.T) {
	ctx := context.Background()
	m, mock := mocked(t)
	author := relation.NewBelongsTo[User](m).ConstrainKey(int64(7))

	mock.ExpectQuery("SELECT users.id, users.name FROM users WHERE users.id = ? LIMIT 1").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(7), "Ada"))
	first, err := author.One(ctx)
	require.NoError(t, err)
	require.NotNil(t, first)
	second, err := author.One(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second, "second call is served from the cache")

	mock.ExpectQuery("SELECT users.id, users.name FROM users WHERE users.id = ? LIMIT 1").
		WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))
	missing, err := author.ConstrainKey(int64(8)).One(ctx)
	require.NoError(t, err)
	assert.Nil(t, missing)
	missing, err = author.One(ctx)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

// gatedDriver holds its first query until release is closed.
type gatedDriver struct {
	*sql.Driver
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (d *gatedDriver) Query(ctx context.Context, q string, args, v any) error {
	first := false
	d.once.Do(func() { first = true })
	if first {
		close(d.started)
		<-d.release
	}
	return d.Driver.Query(ctx, q, args, v)
}

func TestBelongsToNewKeyDuringLoad(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	mock.MatchExpectationsInOrder(false)
	gate := &gatedDriver{
		Driver:  sql.OpenDB(dialect.SQLite, db),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	m, err := manager.New([]manager.Pool{{Kind: dialect.SQLite, Write: gate}}, quiet())
	require.NoError(t, err)
	t.Cleanup(func() {
		mock.ExpectClose()
		require.NoError(t, m.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	mock.ExpectQuery("SELECT users.id, users.name FROM users WHERE users.id = ? LIMIT 1").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(7), "Ada"))
	mock.ExpectQuery("SELECT users.id, users.name FROM users WHERE users.id = ? LIMIT 1").
		WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(8), "Grace"))

	type result struct {
		u   *User
		err error
	}
	author := relation.NewBelongsTo[User](m).ConstrainKey(int64(7))
	stale := make(chan result, 1)
	go func() {
		u, err := author.One(ctx)
		stale <- result{u, err}
	}()
	<-gate.started

	author.ConstrainKey(int64(8))
	fresh := make(chan result, 1)
	go func() {
		u, err := author.One(ctx)
		fresh <- result{u, err}
	}()
	var got result
	select {
	case got = <-fresh:
	case <-time.After(5 * time.Second):
		close(gate.release)
		t.Fatal("One for the new key waited on the load of the previous key")
	}
	close(gate.release)
	require.NoError(t, got.err)
	require.NotNil(t, got.u)
	assert.Equal(t, "Grace", got.u.Name)

	old := <-stale
	require.NoError(t, old.err)
	require.NotNil(t, old.u)
	assert.Equal(t, "Ada", old.u.Name)

	cached, err := author.One(ctx)
	require.NoError(t, err)
	assert.Same(t, got.u, cached, "the previous key's result is not cached")
}

func TestMorphToUnknownType(t *testing.T) {
	m, _ := mocked(t)
	owner := relation.NewMorphTo(m, "commentable", User{})

	_, err := owner.One(context.Background(), field.ColumnAndValue{
		"commentable_id":   field.Int64(1),
		"commentable_type": field.String("videos"),
	})
	assert.ErrorIs(t, err, relation.ErrUnknownMorphType)

	row, err := owner.One(context.Background(), field.ColumnAndValue{"commentable_type": field.Null()})
	require.NoError(t, err)
	assert.Nil(t, row)
}

// seeded opens an in-memory database with users, posts, roles and
// comments.
func seeded(t *testing.T) *manager.Manager {
	t.Helper()
	ctx := context.Background()
	m, err := manager.Open(ctx, config.InMemorySet(), quiet())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, m.Close()) })

	require.NoError(t, m.CreateTableSchema(ctx, "users", func(t *schema.TableBlueprint) {
		t.ID("")
		t.String("name")
	}))
	require.NoError(t, m.CreateTableSchema(ctx, "posts", func(t *schema.TableBlueprint) {
		t.ID("")
		t.String("user_id")
		t.String("title")
	}))
	require.NoError(t, m.CreateTableSchema(ctx, "roles", func(t *schema.TableBlueprint) {
		t.ID("")
		t.String("name")
	}))
	require.NoError(t, m.CreateTableSchema(ctx, "role_user", func(t *schema.TableBlueprint) {
		t.Integer("user_id")
		t.Integer("role_id")
		t.UniqueIndex("user_id", "role_id")
	}))
	require.NoError(t, m.CreateTableSchema(ctx, "comments", func(t *schema.TableBlueprint) {
		t.ID("")
		t.String("body")
		t.Integer("commentable_id").Nullable()
		t.String("commentable_type").Nullable()
	}))

	require.NoError(t, m.InsertMulti(ctx, "users", User{Name: "ada"}, User{Name: "linus"}, User{Name: "grace"}))
	require.NoError(t, m.InsertMulti(ctx, "posts",
		Post{UserID: "1", Title: "a1"},
		Post{UserID: "1", Title: "a2"},
		Post{UserID: "2", Title: "l1"},
	))
	require.NoError(t, m.InsertMulti(ctx, "roles", Role{Name: "admin"}, Role{Name: "editor"}))
	require.NoError(t, m.InsertMulti(ctx, "comments",
		field.NewBuilder().Insert("body", "on user").Insert("commentable_id", 1).Insert("commentable_type", "users").Build(),
		field.NewBuilder().Insert("body", "on post").Insert("commentable_id", 1).Insert("commentable_type", "posts").Build(),
	))
	require.NoError(t, m.Insert(ctx, "comments", field.NewBuilder().Insert("body", "orphan").Build()))
	return m
}

func TestHasMany(t *testing.T) {
	ctx := context.Background()
	m := seeded(t)
	posts := relation.NewHasMany[Post](m, User{})

	n, err := posts.ConstrainKey("1").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	first, err := posts.One(ctx)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "1", first.UserID)

	none, err := posts.ConstrainKey("3").Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, none)

	loaded, err := posts.LoadMany(ctx, "2", "3", "1")
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	assert.Len(t, loaded[0], 1)
	assert.Nil(t, loaded[1])
	assert.Len(t, loaded[2], 2)
}

func TestHasOneAndBelongsTo(t *testing.T) {
	ctx := context.Background()
	m := seeded(t)

	post, err := relation.NewHasOne[Post](m, User{}).ConstrainKey("2").One(ctx)
	require.NoError(t, err)
	require.NotNil(t, post)
	assert.Equal(t, "l1", post.Title)

	author, err := relation.NewBelongsTo[User](m).ConstrainKey(post.UserID).One(ctx)
	require.NoError(t, err)
	require.NotNil(t, author)
	assert.Equal(t, "linus", author.Name)

	authors, err := relation.NewBelongsTo[User](m).LoadMany(ctx, int64(3), int64(9), int64(1))
	require.NoError(t, err)
	require.Len(t, authors, 3)
	assert.Equal(t, "grace", authors[0].Name)
	assert.Nil(t, authors[1])
	assert.Equal(t, "ada", authors[2].Name)
}

func TestBelongsToManyPivot(t *testing.T) {
	ctx := context.Background()
	m := seeded(t)
	roles := relation.NewBelongsToMany[Role, *Role, RoleUser](m, User{}).ConstrainKey(int64(1))

	require.NoError(t, roles.Attach(ctx, int64(1), int64(1), int64(2)))
	require.NoError(t, roles.Attach(ctx, int64(1), int64(1)), "attaching twice is a no-op")

	got, err := roles.Get(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	names := []string{got[0].Name, got[1].Name}
	assert.ElementsMatch(t, []string{"admin", "editor"}, names)

	pivots, err := roles.Pivots(ctx)
	require.NoError(t, err)
	require.Len(t, pivots, 2)
	assert.Equal(t, int64(1), pivots[0].UserID)

	require.NoError(t, roles.Detach(ctx, int64(1), int64(2)))
	got, err = roles.Get(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "admin", got[0].Name)

	require.NoError(t, roles.Detach(ctx, int64(1)))
	got, err = roles.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestHasManyThroughSkipsMissingChildren(t *testing.T) {
	ctx := context.Background()
	m := seeded(t)
	require.NoError(t, m.InsertMulti(ctx, "role_user",
		field.NewBuilder().Insert("user_id", 3).Insert("role_id", 2).Build(),
		field.NewBuilder().Insert("user_id", 3).Insert("role_id", 42).Build(),
	))

	roles := relation.NewHasManyThrough[Role, *Role, RoleUser](m, User{}).ConstrainKey(int64(3))
	got, err := roles.Get(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "editor", got[0].Name)

	pivots, err := roles.Pivots(ctx)
	require.NoError(t, err)
	assert.Len(t, pivots, 2)

	one, err := relation.NewHasOneThrough[Role, *Role, RoleUser](m, User{}).ConstrainKey(int64(1)).One(ctx)
	require.NoError(t, err)
	assert.Nil(t, one)
}

func TestMorph(t *testing.T) {
	ctx := context.Background()
	m := seeded(t)

	comments, err := relation.NewMorphMany[Comment](m, User{}, "commentable").ConstrainKey(int64(1)).Get(ctx)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "on user", comments[0].Body)

	c, err := relation.NewMorphOne[Comment](m, Post{}, "commentable").ConstrainKey(int64(1)).One(ctx)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "on post", c.Body)

	rows, err := m.SelectFromTable("comments", func(q *query.Builder) { q.Asc("id") }).FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	owner := relation.NewMorphTo(m, "commentable", User{}, Post{})

	u, err := relation.MorphToAs[User](ctx, owner, rows[0])
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "ada", u.Name)

	notUser, err := relation.MorphToAs[User](ctx, owner, rows[1])
	require.NoError(t, err)
	assert.Nil(t, notUser)
	p, err := owner.One(ctx, rows[1])
	require.NoError(t, err)
	assert.Equal(t, "a1", p.Get("title").String())

	orphan, err := owner.One(ctx, rows[2])
	require.NoError(t, err)
	assert.Nil(t, orphan)
}

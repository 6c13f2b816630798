package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/dirtydb/dialect"
	"github.com/syssam/dirtydb/field"
	"github.com/syssam/dirtydb/query"
)

func TestCompileSelect(t *testing.T) {
	tests := []struct {
		name  string
		kind  dialect.Kind
		b     *query.Builder
		want  string
		wantA []any
	}{
		{
			name: "All",
			kind: dialect.SQLite,
			b:    query.Select("users"),
			want: "SELECT * FROM users",
		},
		{
			name:  "Postgres placeholders",
			kind:  dialect.Postgres,
			b:     query.Select("users").Select("id", "name").Eq("name", "a").OrGt("age", 3),
			want:  "SELECT id, name FROM users WHERE name = $1 OR age > $2",
			wantA: []any{"a", int64(3)},
		},
		{
			name:  "Group",
			kind:  dialect.MySQL,
			b:     query.Select("users").Eq("a", 1).OrGroup(func(b *query.Builder) { b.Eq("b", 2).Eq("c", 3) }),
			want:  "SELECT * FROM users WHERE a = ? OR (b = ? AND c = ?)",
			wantA: []any{int64(1), int64(2), int64(3)},
		},
		{
			name:  "Trash scope wraps OR",
			kind:  dialect.SQLite,
			b:     query.Select("users").Eq("a", 1).OrEq("b", 2).WithoutTrash(),
			want:  "SELECT * FROM users WHERE (a = ? OR b = ?) AND deleted_at IS NULL",
			wantA: []any{int64(1), int64(2)},
		},
		{
			name:  "In list",
			kind:  dialect.Postgres,
			b:     query.Select("users").In("id", []int{1, 2}).NotEq("x", "y"),
			want:  "SELECT * FROM users WHERE id IN ($1, $2) AND x <> $3",
			wantA: []any{int64(1), int64(2), "y"},
		},
		{
			name: "Empty in",
			kind: dialect.SQLite,
			b:    query.Select("users").In("id", []int{}),
			want: "SELECT * FROM users WHERE 1 = 0",
		},
		{
			name: "Empty not in",
			kind: dialect.SQLite,
			b:    query.Select("users").NotIn("id", []int{}),
			want: "SELECT * FROM users WHERE 1 = 1",
		},
		{
			name: "Sub query shares numbering",
			kind: dialect.Postgres,
			b: query.Select("posts").Eq("status", "live").
				InSub("user_id", "users", func(b *query.Builder) { b.Select("id").Eq("role", "admin") }).
				Lt("id", 10),
			want:  "SELECT * FROM posts WHERE status = $1 AND user_id IN (SELECT id FROM users WHERE role = $2) AND id < $3",
			wantA: []any{"live", "admin", int64(10)},
		},
		{
			name: "Sub query column and aggregates",
			kind: dialect.SQLite,
			b: query.Select("users").Select("id").CountAs("id", "total").
				SubQueryColumn("posts", func(b *query.Builder) { b.CountAs("id", "n") }, "posts"),
			want: "SELECT id, COUNT(id) as 'total', (SELECT COUNT(id) as 'n' FROM posts) as 'posts' FROM users",
		},
		{
			name: "Join and select",
			kind: dialect.Postgres,
			b:    query.Select("posts").LeftJoinAndSelect("users", "posts.user_id", "=", "users.id", "users.name"),
			want: "SELECT *, users.name FROM posts LEFT JOIN users ON posts.user_id = users.id",
		},
		{
			name: "Null binds nothing",
			kind: dialect.MySQL,
			b:    query.Select("users").IsNull("a").IsNotNull("b"),
			want: "SELECT * FROM users WHERE a IS NULL AND b IS NOT NULL",
		},
		{
			name:  "Negated comparisons",
			kind:  dialect.SQLite,
			b:     query.Select("t").NotGt("a", 1).NotLtOrEq("b", 2),
			want:  "SELECT * FROM t WHERE NOT a >= ? AND NOT b <= ?",
			wantA: []any{int64(1), int64(2)},
		},
		{
			name: "Order and limit",
			kind: dialect.SQLite,
			b:    query.Select("t").Desc("id").Asc("name").Limit(10).Offset(20),
			want: "SELECT * FROM t ORDER BY id DESC,name ASC LIMIT 10 OFFSET 20",
		},
		{
			name: "Offset without limit on sqlite",
			kind: dialect.SQLite,
			b:    query.Select("t").Offset(5),
			want: "SELECT * FROM t LIMIT -1 OFFSET 5",
		},
		{
			name: "Offset without limit on mysql",
			kind: dialect.MySQL,
			b:    query.Select("t").Offset(5),
			want: "SELECT * FROM t LIMIT 18446744073709551615 OFFSET 5",
		},
		{
			name: "Offset without limit on postgres",
			kind: dialect.Postgres,
			b:    query.Select("t").Offset(5),
			want: "SELECT * FROM t OFFSET 5",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, args, err := Compile(tt.kind, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantA, args)
		})
	}
}

func TestCompileSelectAlias(t *testing.T) {
	b := query.Select("users").SelectAs("name", "user.name")
	got, _, err := Compile(dialect.Postgres, b)
	require.NoError(t, err)
	assert.Equal(t, `SELECT users.name as "user.name" FROM users`, got)
	got, _, err = Compile(dialect.MySQL, b)
	require.NoError(t, err)
	assert.Equal(t, `SELECT users.name as 'user.name' FROM users`, got)
}

func TestCompileInsert(t *testing.T) {
	rows := []field.ColumnAndValue{
		{"name": field.Of("a"), "age": field.Of(1), "skip": field.NotSet()},
		{"name": field.Of("b"), "age": field.Null()},
	}

	got, args, err := Compile(dialect.Postgres, query.Insert("users", rows...))
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO users (age, name) VALUES ($1, $2), ($3, $4)", got)
	assert.Equal(t, []any{int64(1), "a", nil, "b"}, args)

	soft := map[dialect.Kind]string{
		dialect.SQLite:   "INSERT OR IGNORE INTO users (age, name) VALUES (?, ?), (?, ?)",
		dialect.MySQL:    "INSERT IGNORE INTO users (age, name) VALUES (?, ?), (?, ?)",
		dialect.Postgres: "INSERT INTO users (age, name) VALUES ($1, $2), ($3, $4) ON CONFLICT DO NOTHING",
	}
	for kind, want := range soft {
		got, _, err := Compile(kind, query.InsertIgnore("users", rows...))
		require.NoError(t, err)
		assert.Equal(t, want, got, kind)
	}

	_, _, err = Compile(dialect.SQLite, query.Insert("users"))
	require.ErrorIs(t, err, ErrNoRows)
}

func TestCompileUpsert(t *testing.T) {
	rows := []field.ColumnAndValue{{"email": field.Of("a@b"), "name": field.Of("a")}}

	got, _, err := Compile(dialect.SQLite, query.Upsert("users", rows, []string{"name"}, []string{"email"}))
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO users (email, name) VALUES (?, ?) ON CONFLICT (email) DO UPDATE SET name = excluded.name", got)

	got, _, err = Compile(dialect.Postgres, query.Upsert("users", rows, nil, []string{"email"}))
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO users (email, name) VALUES ($1, $2) ON CONFLICT (email) DO NOTHING", got)

	got, _, err = Compile(dialect.MySQL, query.Upsert("users", rows, []string{"name"}, nil))
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO users (email, name) VALUES (?, ?) ON DUPLICATE KEY UPDATE name = VALUES(name)", got)

	_, _, err = Compile(dialect.SQLite, query.Upsert("users", rows, []string{"name"}, nil))
	require.ErrorIs(t, err, ErrNoUnique)
}

func TestCompileUpdateDelete(t *testing.T) {
	values := field.ColumnAndValue{"name": field.Of("z"), "age": field.Of(2), "skip": field.NotSet()}
	got, args, err := Compile(dialect.Postgres, query.Update("users", values).Eq("id", 7))
	require.NoError(t, err)
	assert.Equal(t, "UPDATE users SET age = $1, name = $2 WHERE id = $3", got)
	assert.Equal(t, []any{int64(2), "z", int64(7)}, args)

	_, _, err = Compile(dialect.SQLite, query.Update("users", field.ColumnAndValue{"a": field.NotSet()}))
	require.ErrorIs(t, err, ErrEmptyUpdate)

	got, args, err = Compile(dialect.SQLite, query.Delete("users").Lt("age", 18))
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM users WHERE age < ?", got)
	assert.Equal(t, []any{int64(18)}, args)
}

func TestCompileSchemaActions(t *testing.T) {
	tests := map[string]*query.Builder{
		"DROP TABLE IF EXISTS users":                 query.DropTable("users"),
		"ALTER TABLE users RENAME TO people":         query.RenameTable("users", "people"),
		"ALTER TABLE users DROP COLUMN age":          query.DropColumn("users", "age"),
		"ALTER TABLE users RENAME COLUMN age TO old": query.RenameColumn("users", "age", "old"),
	}
	for want, b := range tests {
		got, args, err := Compile(dialect.SQLite, b)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Empty(t, args)
	}

	_, _, err := Compile(dialect.Kind("oracle"), query.Select("users"))
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestQuote(t *testing.T) {
	assert.Equal(t, "`a``b`", Quote(dialect.MySQL, "a`b"))
	assert.Equal(t, `"a""b"`, Quote(dialect.Postgres, `a"b`))
	assert.Equal(t, "$3", Placeholder(dialect.Postgres, 3))
	assert.Equal(t, "?", Placeholder(dialect.SQLite, 3))
}

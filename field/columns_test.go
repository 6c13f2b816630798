package field_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/dirtydb/field"
)

type profile struct {
	Bio *string
}

func (p profile) ToColumnAndValue() field.ColumnAndValue {
	return field.NewBuilder().TryInsert("bio", p.Bio).Build()
}

func TestBuilder(t *testing.T) {
	t.Run("OptionalOmitted", func(t *testing.T) {
		cv := field.NewBuilder().
			Insert("name", "Ada").
			TryInsert("nickname", (*string)(nil)).
			Build()
		assert.True(t, cv.Has("name"))
		assert.False(t, cv.Has("nickname"))
		assert.Equal(t, "Ada", cv.Get("name").String())
	})

	t.Run("TryInsertValueSkipsNotSet", func(t *testing.T) {
		cv := field.NewBuilder().
			TryInsertValue("a", field.NotSet()).
			TryInsertValue("b", field.Null()).
			Build()
		assert.False(t, cv.Has("a"))
		assert.True(t, cv.Has("b"))
	})

	t.Run("Merge", func(t *testing.T) {
		bio := "hi"
		cv := field.NewBuilder().
			Add("name", "Ada").
			Merge(field.ColumnAndValue{"name": field.String("Grace"), "age": field.Int(3)}).
			MergeColumnValue(profile{Bio: &bio}).
			MergeColumnValue(profile{}).
			Build()
		assert.Equal(t, []string{"age", "bio", "name"}, cv.Columns())
		assert.Equal(t, "Grace", cv.Get("name").String())
	})

	t.Run("Compact", func(t *testing.T) {
		cv := field.ColumnAndValue{"a": field.NotSet(), "b": field.Int(1)}
		assert.Equal(t, []string{"b"}, cv.Compact().Columns())
		assert.Len(t, cv.Clone(), 2)
	})
}

func TestStructure(t *testing.T) {
	row := field.ColumnAndValue{
		"users.id":         field.Int64(1),
		"users.name":       field.String("ada"),
		"posts.meta.title": field.String("hello"),
		"total":            field.Int64(3),
	}
	out := field.Structure(row)

	users := out.Nested("users")
	require.NotNil(t, users)
	assert.Equal(t, "ada", users.Get("name").String())
	assert.Equal(t, "hello", out.Nested("posts").Get("meta").Get("title").String())
	assert.Equal(t, int64(3), out.Get("total").Int64())
	assert.Nil(t, out.Nested("total"))

	all := field.StructureAll([]field.ColumnAndValue{row, {"x.y": field.Bool(true)}})
	require.Len(t, all, 2)
	assert.True(t, all[1].Nested("x").Get("y").Bool())
}

func TestMsgpackRows(t *testing.T) {
	now := time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := []field.ColumnAndValue{{
		"id":      field.Uint32(9),
		"name":    field.String("ada"),
		"gone":    field.Null(),
		"at":      field.Timestamp(now),
		"day":     field.Date(now),
		"key":     field.UUID(uuid.MustParse("8f14e45f-ceea-467f-a0e6-5c2b0b8f7d3a")),
		"payload": field.Binary([]byte{1, 2}),
		"tags":    field.Strings("a", "b"),
		"meta":    field.Object(map[string]field.Value{"n": field.Int8(-1)}),
	}}

	data, err := field.MarshalRows(rows)
	require.NoError(t, err)
	back, err := field.UnmarshalRows(data)
	require.NoError(t, err)
	require.Len(t, back, 1)
	for col, want := range rows[0] {
		got := back[0].Get(col)
		assert.Equal(t, want.Kind(), got.Kind(), col)
		assert.True(t, want.Equal(got), col)
	}
}

package field_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/dirtydb/field"
)

func TestRoundTrip(t *testing.T) {
	now := time.Date(2024, 5, 17, 10, 30, 15, 0, time.UTC)
	id := uuid.MustParse("8f14e45f-ceea-467f-a0e6-5c2b0b8f7d3a")

	t.Run("Bool", func(t *testing.T) {
		assert.True(t, field.Bool(true).Bool())
		assert.False(t, field.Bool(false).Bool())
	})
	t.Run("Signed", func(t *testing.T) {
		assert.Equal(t, int8(math.MinInt8), field.Int8(math.MinInt8).Int8())
		assert.Equal(t, int16(math.MaxInt16), field.Int16(math.MaxInt16).Int16())
		assert.Equal(t, int32(-7), field.Int32(-7).Int32())
		assert.Equal(t, int64(math.MinInt64), field.Int64(math.MinInt64).Int64())
		assert.Equal(t, 42, field.Int(42).Int())
	})
	t.Run("Unsigned", func(t *testing.T) {
		assert.Equal(t, uint8(math.MaxUint8), field.Uint8(math.MaxUint8).Uint8())
		assert.Equal(t, uint16(9), field.Uint16(9).Uint16())
		assert.Equal(t, uint32(math.MaxUint32), field.Uint32(math.MaxUint32).Uint32())
		assert.Equal(t, uint64(math.MaxUint64), field.Uint64(math.MaxUint64).Uint64())
	})
	t.Run("Float", func(t *testing.T) {
		assert.Equal(t, 3.25, field.Float64(3.25).Float64())
	})
	t.Run("String", func(t *testing.T) {
		assert.Equal(t, "Ada", field.String("Ada").String())
		assert.Equal(t, "", field.String("").String())
	})
	t.Run("Temporal", func(t *testing.T) {
		assert.Equal(t, now, field.DateTime(now).Time())
		assert.Equal(t, now, field.Timestamp(now).Time())
	})
	t.Run("Binary", func(t *testing.T) {
		assert.Equal(t, []byte{0, 1, 2}, field.Binary([]byte{0, 1, 2}).Bytes())
	})
	t.Run("UUID", func(t *testing.T) {
		assert.Equal(t, id, field.UUID(id).UUID())
	})
	t.Run("Collections", func(t *testing.T) {
		arr := field.Strings("a", "b")
		assert.Equal(t, []string{"a", "b"}, arr.StringSlice())
		obj := field.Object(map[string]field.Value{"k": field.Int64(1)})
		assert.Equal(t, int64(1), obj.Get("k").Int64())
	})
}

func TestNotSetToOption(t *testing.T) {
	v := field.NotSet()
	assert.Nil(t, v.OptBool())
	assert.Nil(t, v.OptInt64())
	assert.Nil(t, v.OptInt())
	assert.Nil(t, v.OptUint64())
	assert.Nil(t, v.OptFloat64())
	assert.Nil(t, v.OptString())
	assert.Nil(t, v.OptTime())
	assert.Nil(t, v.OptUUID())

	s := field.String("x").OptString()
	require.NotNil(t, s)
	assert.Equal(t, "x", *s)

	// Null is a value, only NotSet means "absent".
	n := field.Null().OptInt64()
	require.NotNil(t, n)
	assert.Zero(t, *n)
}

func TestNullableAccessors(t *testing.T) {
	for _, v := range []field.Value{field.NotSet(), field.Null()} {
		assert.Nil(t, v.NullableBool(), v.Kind())
		assert.Nil(t, v.NullableInt64(), v.Kind())
		assert.Nil(t, v.NullableInt(), v.Kind())
		assert.Nil(t, v.NullableUint64(), v.Kind())
		assert.Nil(t, v.NullableFloat64(), v.Kind())
		assert.Nil(t, v.NullableString(), v.Kind())
		assert.Nil(t, v.NullableTime(), v.Kind())
		assert.Nil(t, v.NullableUUID(), v.Kind())
	}

	s := field.String("").NullableString()
	require.NotNil(t, s)
	assert.Empty(t, *s)

	i := field.String("7").NullableInt64()
	require.NotNil(t, i)
	assert.Equal(t, int64(7), *i)

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ts := field.DateTime(now).NullableTime()
	require.NotNil(t, ts)
	assert.True(t, now.Equal(*ts))
}

func TestNotSetDistinctFromNull(t *testing.T) {
	assert.True(t, field.NotSet().IsNotSet())
	assert.False(t, field.NotSet().IsNull())
	assert.True(t, field.Null().IsNull())
	assert.False(t, field.NotSet().Equal(field.Null()))
	assert.Equal(t, field.KindNotSet, field.Value{}.Kind())
}

func TestLossyConversions(t *testing.T) {
	tests := []struct {
		name string
		give field.Value
		want int64
	}{
		{"string number", field.String("42"), 42},
		{"string float", field.String("4.9"), 4},
		{"garbage", field.String("nope"), 0},
		{"bool", field.Bool(true), 1},
		{"null", field.Null(), 0},
		{"not set", field.NotSet(), 0},
		{"array", field.Strings("1"), 0},
		{"unsigned", field.Uint32(7), 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.give.Int64())
		})
	}

	assert.Equal(t, "", field.Null().String())
	assert.False(t, field.String("yes").Bool())
	assert.True(t, field.String("true").Bool())
	assert.Equal(t, uint64(0), field.Int64(-3).Uint64())
	assert.Equal(t, uuid.Nil, field.Int64(3).UUID())
	assert.True(t, field.Bool(true).Time().IsZero())
}

func TestStrictConversions(t *testing.T) {
	_, err := field.String("42").TryInt64()
	require.Error(t, err)
	assert.True(t, errors.Is(err, field.ErrKindMismatch))

	var merr *field.MismatchError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, field.KindString, merr.Have)

	n, err := field.Uint16(12).TryInt64()
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)

	_, err = field.Uint64(math.MaxUint64).TryInt64()
	assert.ErrorIs(t, err, field.ErrKindMismatch)

	_, err = field.Int8(-1).TryUint64()
	assert.ErrorIs(t, err, field.ErrKindMismatch)

	ts, err := field.String("2024-01-02 03:04:05").TryTime()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), ts)

	_, err = field.String("not-a-uuid").TryUUID()
	assert.ErrorIs(t, err, field.ErrKindMismatch)
}

func TestOf(t *testing.T) {
	name := "ada"
	var missing *string

	assert.Equal(t, field.KindString, field.Of(&name).Kind())
	assert.Equal(t, field.KindNotSet, field.Of(missing).Kind())
	assert.Equal(t, field.KindNull, field.Of(nil).Kind())
	assert.Equal(t, field.KindI64, field.Of(3).Kind())
	assert.Equal(t, field.KindU16, field.Of(uint16(3)).Kind())
	assert.Equal(t, field.KindArray, field.Of([]string{"a"}).Kind())
	assert.Equal(t, field.KindObject, field.Of(map[string]any{"a": 1}).Kind())
}

type point struct{ X, Y int }

type label struct{ name string }

func (l *label) String() string { return "label:" + l.name }

func TestOfPointers(t *testing.T) {
	f, u := float32(1.5), uint(7)
	assert.Equal(t, field.KindF64, field.Of(&f).Kind())
	assert.Equal(t, 1.5, field.Of(&f).Float64())
	assert.Equal(t, field.KindU64, field.Of(&u).Kind())
	assert.Equal(t, uint64(7), field.Of(&u).Uint64())
	assert.Equal(t, field.KindNotSet, field.Of((*float32)(nil)).Kind())
	assert.Equal(t, field.KindNotSet, field.Of((*uint)(nil)).Kind())

	cv := field.NewBuilder().
		Insert("name", "ada").
		TryInsert("score", (*float32)(nil)).
		TryInsert("rank", (*uint)(nil)).
		Build()
	assert.Equal(t, []string{"name"}, cv.Columns())

	assert.Equal(t, "label:x", field.Of(&label{name: "x"}).String())

	for _, x := range []any{&point{X: 1}, (*point)(nil), (*label)(nil), new(*string)} {
		_, err := field.TryOf(x)
		assert.ErrorIs(t, err, field.ErrUnsupportedType, "%T", x)
		assert.Panics(t, func() { field.Of(x) }, "%T", x)
	}

	v, err := field.TryOf(point{X: 1, Y: 2})
	require.NoError(t, err)
	assert.Equal(t, "{1 2}", v.String())
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "NULL", field.Null().Display())
	assert.Equal(t, "", field.NotSet().Display())
	assert.Equal(t, "1", field.Bool(true).Display())
	assert.Equal(t, "0a0b", field.Binary([]byte{10, 11}).Display())
	assert.Equal(t, "[a, b]", field.Strings("a", "b").Display())
}

func TestFromDriver(t *testing.T) {
	assert.Equal(t, field.KindBinary, field.FromDriver([]byte("x"), "BLOB").Kind())
	assert.Equal(t, field.KindString, field.FromDriver([]byte("x"), "VARCHAR").Kind())
	assert.Equal(t, field.KindBool, field.FromDriver(int64(1), "BOOLEAN").Kind())

	obj := field.FromDriver(`{"a":[1,2]}`, "json")
	require.Equal(t, field.KindObject, obj.Kind())
	assert.Equal(t, int64(2), obj.Get("a").Index(1).Int64())
}

func TestJSON(t *testing.T) {
	v := field.Object(map[string]field.Value{
		"n":    field.Int64(1),
		"s":    field.String("x"),
		"null": field.Null(),
		"list": field.Array(field.Bool(true), field.Float64(1.5)),
	})
	b, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":1,"s":"x","null":null,"list":[true,1.5]}`, string(b))

	var back field.Value
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, v.Equal(back))
}

package field

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind identifies the variant held by a Value.
type Kind uint8

// Value kinds. KindNotSet is the zero value.
const (
	KindNotSet Kind = iota
	KindNull
	KindBool
	KindI8
	KindI16
	KindI32
	KindI64
	KindU8
	KindU16
	KindU32
	KindU64
	KindF64
	KindString
	KindDateTime
	KindTimestamp
	KindDate
	KindTime
	KindBinary
	KindUUID
	KindArray
	KindObject
)

var kindNames = [...]string{
	KindNotSet:    "NotSet",
	KindNull:      "Null",
	KindBool:      "Boolean",
	KindI8:        "I8",
	KindI16:       "I16",
	KindI32:       "I32",
	KindI64:       "I64",
	KindU8:        "U8",
	KindU16:       "U16",
	KindU32:       "U32",
	KindU64:       "U64",
	KindF64:       "F64",
	KindString:    "String",
	KindDateTime:  "DateTime",
	KindTimestamp: "Timestamp",
	KindDate:      "Date",
	KindTime:      "Time",
	KindBinary:    "Binary",
	KindUUID:      "Uuid",
	KindArray:     "Array",
	KindObject:    "Object",
}

// String returns the variant name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// IsSigned reports whether k is one of the signed integer kinds.
func (k Kind) IsSigned() bool { return k >= KindI8 && k <= KindI64 }

// IsUnsigned reports whether k is one of the unsigned integer kinds.
func (k Kind) IsUnsigned() bool { return k >= KindU8 && k <= KindU64 }

// IsTemporal reports whether k holds a time.Time.
func (k Kind) IsTemporal() bool { return k >= KindDateTime && k <= KindTime }

// Value is a column value that can be stored in any supported backend.
// The zero Value is NotSet.
type Value struct {
	kind Kind
	i    int64
	u    uint64
	f    float64
	b    bool
	s    string
	t    time.Time
	id   uuid.UUID
	raw  []byte
	arr  []Value
	obj  map[string]Value
}

// NotSet returns a value that instructs builders to omit the column.
func NotSet() Value { return Value{} }

// Null returns the SQL NULL value.
func Null() Value { return Value{kind: KindNull} }

// Bool returns a Boolean value.
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// Int8 returns an I8 value.
func Int8(v int8) Value { return Value{kind: KindI8, i: int64(v)} }

// Int16 returns an I16 value.
func Int16(v int16) Value { return Value{kind: KindI16, i: int64(v)} }

// Int32 returns an I32 value.
func Int32(v int32) Value { return Value{kind: KindI32, i: int64(v)} }

// Int64 returns an I64 value.
func Int64(v int64) Value { return Value{kind: KindI64, i: v} }

// Int returns an I64 value.
func Int(v int) Value { return Value{kind: KindI64, i: int64(v)} }

// Uint8 returns a U8 value.
func Uint8(v uint8) Value { return Value{kind: KindU8, u: uint64(v)} }

// Uint16 returns a U16 value.
func Uint16(v uint16) Value { return Value{kind: KindU16, u: uint64(v)} }

// Uint32 returns a U32 value.
func Uint32(v uint32) Value { return Value{kind: KindU32, u: uint64(v)} }

// Uint64 returns a U64 value.
func Uint64(v uint64) Value { return Value{kind: KindU64, u: v} }

// Float64 returns an F64 value.
func Float64(v float64) Value { return Value{kind: KindF64, f: v} }

// String returns a String value.
func String(v string) Value { return Value{kind: KindString, s: v} }

// DateTime returns a DateTime value normalized to UTC.
func DateTime(v time.Time) Value { return Value{kind: KindDateTime, t: v.UTC()} }

// Timestamp returns a Timestamp value normalized to UTC.
func Timestamp(v time.Time) Value { return Value{kind: KindTimestamp, t: v.UTC()} }

// Date returns a Date value truncated to midnight UTC.
func Date(v time.Time) Value {
	y, m, d := v.Date()
	return Value{kind: KindDate, t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// Time returns a Time value holding only the clock part of v.
func Time(v time.Time) Value {
	return Value{kind: KindTime, t: time.Date(0, 1, 1, v.Hour(), v.Minute(), v.Second(), v.Nanosecond(), time.UTC)}
}

// Binary returns a Binary value.
func Binary(v []byte) Value { return Value{kind: KindBinary, raw: v} }

// UUID returns a Uuid value.
func UUID(v uuid.UUID) Value { return Value{kind: KindUUID, id: v} }

// Array returns an Array value.
func Array(vs ...Value) Value {
	if vs == nil {
		vs = []Value{}
	}
	return Value{kind: KindArray, arr: vs}
}

// Object returns an Object value.
func Object(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{kind: KindObject, obj: m}
}

// Slice builds an Array value from a native slice using conv for each element.
func Slice[T any](xs []T, conv func(T) Value) Value {
	out := make([]Value, len(xs))
	for i, x := range xs {
		out[i] = conv(x)
	}
	return Array(out...)
}

// Strings builds an Array of String values.
func Strings(xs ...string) Value { return Slice(xs, String) }

// Int64s builds an Array of I64 values.
func Int64s(xs ...int64) Value { return Slice(xs, Int64) }

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNotSet reports whether v is NotSet.
func (v Value) IsNotSet() bool { return v.kind == KindNotSet }

// IsNull reports whether v is Null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Len returns the number of elements of an Array or Object and 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return len(v.obj)
	default:
		return 0
	}
}

// Get returns the member of an Object, or NotSet.
func (v Value) Get(key string) Value {
	if v.kind != KindObject {
		return NotSet()
	}
	return v.obj[key]
}

// Index returns the i-th element of an Array, or NotSet.
func (v Value) Index(i int) Value {
	if v.kind != KindArray || i < 0 || i >= len(v.arr) {
		return NotSet()
	}
	return v.arr[i]
}

// Equal reports whether v and o hold the same variant and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNotSet, KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindI8, KindI16, KindI32, KindI64:
		return v.i == o.i
	case KindU8, KindU16, KindU32, KindU64:
		return v.u == o.u
	case KindF64:
		return v.f == o.f || (math.IsNaN(v.f) && math.IsNaN(o.f))
	case KindString:
		return v.s == o.s
	case KindDateTime, KindTimestamp, KindDate, KindTime:
		return v.t.Equal(o.t)
	case KindBinary:
		return string(v.raw) == string(o.raw)
	case KindUUID:
		return v.id == o.id
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.obj) != len(o.obj) {
			return false
		}
		for k, x := range v.obj {
			y, ok := o.obj[k]
			if !ok || !x.Equal(y) {
				return false
			}
		}
		return true
	}
	return false
}

// Display renders v the way it is shown in logs and raw SQL dumps:
// Null is "NULL", NotSet is empty, booleans are 1/0 and binary is hex.
func (v Value) Display() string {
	switch v.kind {
	case KindNotSet:
		return ""
	case KindNull:
		return "NULL"
	case KindBool:
		if v.b {
			return "1"
		}
		return "0"
	case KindBinary:
		return hex.EncodeToString(v.raw)
	case KindArray:
		parts := make([]string, len(v.arr))
		for i, x := range v.arr {
			parts[i] = x.Display()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindObject:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	default:
		return v.String()
	}
}

// GoString implements fmt.GoStringer.
func (v Value) GoString() string {
	return fmt.Sprintf("field.%s(%s)", v.kind, v.Display())
}

// ErrUnsupportedType is returned by TryOf for pointer types it cannot
// dereference.
var ErrUnsupportedType = errors.New("field: unsupported type")

// Of converts a native Go value into a Value. Pointers are dereferenced and a
// nil pointer becomes NotSet, which lets optional struct fields be passed
// straight to Builder.TryInsert. An untyped nil becomes Null. Of panics on
// the pointer types TryOf rejects.
func Of(x any) Value {
	v, err := TryOf(x)
	if err != nil {
		panic(err)
	}
	return v
}

// TryOf is like Of but returns ErrUnsupportedType for a pointer to a type
// without a Value representation instead of panicking. Other unknown types
// are stored as their string form.
func TryOf(x any) (Value, error) {
	if v, ok := of(x); ok {
		return v, nil
	}
	rv := reflect.ValueOf(x)
	isPtr := rv.Kind() == reflect.Pointer
	if s, ok := x.(fmt.Stringer); ok && !(isPtr && rv.IsNil()) {
		return String(s.String()), nil
	}
	if isPtr {
		return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedType, x)
	}
	return String(fmt.Sprint(x)), nil
}

// of converts the types with a native Value representation.
func of(x any) (Value, bool) {
	switch x := x.(type) {
	case nil:
		return Null(), true
	case Value:
		return x, true
	case *Value:
		if x == nil {
			return NotSet(), true
		}
		return *x, true
	case bool:
		return Bool(x), true
	case int:
		return Int(x), true
	case int8:
		return Int8(x), true
	case int16:
		return Int16(x), true
	case int32:
		return Int32(x), true
	case int64:
		return Int64(x), true
	case uint:
		return Uint64(uint64(x)), true
	case uint8:
		return Uint8(x), true
	case uint16:
		return Uint16(x), true
	case uint32:
		return Uint32(x), true
	case uint64:
		return Uint64(x), true
	case float32:
		return Float64(float64(x)), true
	case float64:
		return Float64(x), true
	case string:
		return String(x), true
	case []byte:
		return Binary(x), true
	case time.Time:
		return DateTime(x), true
	case uuid.UUID:
		return UUID(x), true
	case []Value:
		return Array(x...), true
	case map[string]Value:
		return Object(x), true
	case ColumnAndValue:
		return Object(x), true
	case []string:
		return Strings(x...), true
	case []int64:
		return Int64s(x...), true
	case []int:
		return Slice(x, Int), true
	case []any:
		return Slice(x, Of), true
	case map[string]any:
		m := make(map[string]Value, len(x))
		for k, e := range x {
			m[k] = Of(e)
		}
		return Object(m), true
	case *bool:
		return ofPtr(x, Bool), true
	case *int:
		return ofPtr(x, Int), true
	case *int8:
		return ofPtr(x, Int8), true
	case *int16:
		return ofPtr(x, Int16), true
	case *int32:
		return ofPtr(x, Int32), true
	case *int64:
		return ofPtr(x, Int64), true
	case *uint8:
		return ofPtr(x, Uint8), true
	case *uint16:
		return ofPtr(x, Uint16), true
	case *uint32:
		return ofPtr(x, Uint32), true
	case *uint64:
		return ofPtr(x, Uint64), true
	case *uint:
		return ofPtr(x, func(u uint) Value { return Uint64(uint64(u)) }), true
	case *float32:
		return ofPtr(x, func(f float32) Value { return Float64(float64(f)) }), true
	case *float64:
		return ofPtr(x, Float64), true
	case *string:
		return ofPtr(x, String), true
	case *time.Time:
		return ofPtr(x, DateTime), true
	case *uuid.UUID:
		return ofPtr(x, UUID), true
	default:
		return Value{}, false
	}
}

func ofPtr[T any](p *T, conv func(T) Value) Value {
	if p == nil {
		return NotSet()
	}
	return conv(*p)
}

// FromDriver converts a value returned by database/sql into a Value. dbType
// is the database type name reported by the driver and is used to tell
// binary, JSON and textual byte slices apart.
func FromDriver(x any, dbType string) Value {
	dbType = strings.ToUpper(dbType)
	switch x := x.(type) {
	case nil:
		return Null()
	case int64:
		if dbType == "BOOLEAN" || dbType == "BOOL" {
			return Bool(x != 0)
		}
		return Int64(x)
	case float64:
		return Float64(x)
	case bool:
		return Bool(x)
	case time.Time:
		if dbType == "TIMESTAMP" || dbType == "TIMESTAMPTZ" {
			return Timestamp(x)
		}
		return DateTime(x)
	case string:
		return fromText(x, dbType)
	case []byte:
		switch {
		case dbType == "BLOB" || dbType == "BYTEA" || strings.HasSuffix(dbType, "BINARY"):
			return Binary(append([]byte(nil), x...))
		default:
			return fromText(string(x), dbType)
		}
	default:
		return Of(x)
	}
}

func fromText(s, dbType string) Value {
	switch {
	case strings.Contains(dbType, "JSON"):
		var v Value
		if err := json.Unmarshal([]byte(s), &v); err == nil {
			return v
		}
	case dbType == "UUID":
		if id, err := uuid.Parse(s); err == nil {
			return UUID(id)
		}
	case strings.Contains(dbType, "INT"):
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Int64(n)
		}
	case dbType == "DECIMAL" || dbType == "NUMERIC" || dbType == "DOUBLE" || dbType == "FLOAT" || dbType == "REAL":
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return Float64(f)
		}
	}
	return String(s)
}

// sortedKeys returns the keys of m in lexical order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

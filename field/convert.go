package field

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrKindMismatch is returned by the Try accessors when the held variant
// cannot be converted without loss.
var ErrKindMismatch = errors.New("field: kind mismatch")

// MismatchError describes a failed strict conversion.
type MismatchError struct {
	Want string
	Have Kind
}

// Error returns the error string.
func (e *MismatchError) Error() string {
	return fmt.Sprintf("field: cannot convert %s to %s", e.Have, e.Want)
}

// Is reports whether target is ErrKindMismatch.
func (e *MismatchError) Is(target error) bool { return target == ErrKindMismatch }

func mismatch(want string, have Kind) error { return &MismatchError{Want: want, Have: have} }

// textTimeLayouts are tried in order when a String value is read as a time.
var textTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"15:04:05",
}

// Bool converts v to a bool. Numbers are true when non-zero and strings are
// parsed with strconv.ParseBool.
func (v Value) Bool() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindI8, KindI16, KindI32, KindI64:
		return v.i != 0
	case KindU8, KindU16, KindU32, KindU64:
		return v.u != 0
	case KindF64:
		return v.f != 0
	case KindString:
		b, _ := strconv.ParseBool(strings.TrimSpace(v.s))
		return b
	case KindNotSet, KindNull, KindDateTime, KindTimestamp, KindDate, KindTime,
		KindBinary, KindUUID, KindArray, KindObject:
		return false
	}
	return false
}

// Int64 converts v to an int64.
func (v Value) Int64() int64 {
	switch v.kind {
	case KindI8, KindI16, KindI32, KindI64:
		return v.i
	case KindU8, KindU16, KindU32, KindU64:
		if v.u > math.MaxInt64 {
			return math.MaxInt64
		}
		return int64(v.u)
	case KindF64:
		return int64(v.f)
	case KindBool:
		if v.b {
			return 1
		}
		return 0
	case KindString:
		s := strings.TrimSpace(v.s)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int64(f)
		}
		return 0
	case KindDateTime, KindTimestamp, KindDate, KindTime:
		return v.t.Unix()
	case KindNotSet, KindNull, KindBinary, KindUUID, KindArray, KindObject:
		return 0
	}
	return 0
}

// Int converts v to an int.
func (v Value) Int() int { return int(v.Int64()) }

// Int8 converts v to an int8, truncating out of range values.
func (v Value) Int8() int8 { return int8(v.Int64()) }

// Int16 converts v to an int16, truncating out of range values.
func (v Value) Int16() int16 { return int16(v.Int64()) }

// Int32 converts v to an int32, truncating out of range values.
func (v Value) Int32() int32 { return int32(v.Int64()) }

// Uint64 converts v to a uint64. Negative numbers become 0.
func (v Value) Uint64() uint64 {
	switch v.kind {
	case KindU8, KindU16, KindU32, KindU64:
		return v.u
	case KindI8, KindI16, KindI32, KindI64:
		if v.i < 0 {
			return 0
		}
		return uint64(v.i)
	case KindF64:
		if v.f < 0 {
			return 0
		}
		return uint64(v.f)
	case KindBool:
		if v.b {
			return 1
		}
		return 0
	case KindString:
		n, _ := strconv.ParseUint(strings.TrimSpace(v.s), 10, 64)
		return n
	case KindNotSet, KindNull, KindDateTime, KindTimestamp, KindDate, KindTime,
		KindBinary, KindUUID, KindArray, KindObject:
		return 0
	}
	return 0
}

// Uint8 converts v to a uint8, truncating out of range values.
func (v Value) Uint8() uint8 { return uint8(v.Uint64()) }

// Uint16 converts v to a uint16, truncating out of range values.
func (v Value) Uint16() uint16 { return uint16(v.Uint64()) }

// Uint32 converts v to a uint32, truncating out of range values.
func (v Value) Uint32() uint32 { return uint32(v.Uint64()) }

// Float64 converts v to a float64.
func (v Value) Float64() float64 {
	switch v.kind {
	case KindF64:
		return v.f
	case KindI8, KindI16, KindI32, KindI64:
		return float64(v.i)
	case KindU8, KindU16, KindU32, KindU64:
		return float64(v.u)
	case KindBool:
		if v.b {
			return 1
		}
		return 0
	case KindString:
		f, _ := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		return f
	case KindNotSet, KindNull, KindDateTime, KindTimestamp, KindDate, KindTime,
		KindBinary, KindUUID, KindArray, KindObject:
		return 0
	}
	return 0
}

// String converts v to its textual form. Null and NotSet are empty.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindI8, KindI16, KindI32, KindI64:
		return strconv.FormatInt(v.i, 10)
	case KindU8, KindU16, KindU32, KindU64:
		return strconv.FormatUint(v.u, 10)
	case KindF64:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindDateTime, KindTimestamp:
		return v.t.Format(time.RFC3339Nano)
	case KindDate:
		return v.t.Format(time.DateOnly)
	case KindTime:
		return v.t.Format(time.TimeOnly)
	case KindUUID:
		return v.id.String()
	case KindBinary:
		return string(v.raw)
	case KindArray, KindObject:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	case KindNotSet, KindNull:
		return ""
	}
	return ""
}

// Time converts v to a time.Time. Strings are parsed with a small set of
// common layouts and integers are read as Unix seconds.
func (v Value) Time() time.Time {
	switch v.kind {
	case KindDateTime, KindTimestamp, KindDate, KindTime:
		return v.t
	case KindString:
		t, _ := parseTime(v.s)
		return t
	case KindI8, KindI16, KindI32, KindI64:
		return time.Unix(v.i, 0).UTC()
	case KindU8, KindU16, KindU32, KindU64:
		return time.Unix(int64(v.u), 0).UTC()
	case KindNotSet, KindNull, KindBool, KindF64, KindBinary, KindUUID, KindArray, KindObject:
		return time.Time{}
	}
	return time.Time{}
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range textTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, mismatch("time", KindString)
}

// UUID converts v to a uuid.UUID. Strings and 16 byte binaries are parsed.
func (v Value) UUID() uuid.UUID {
	switch v.kind {
	case KindUUID:
		return v.id
	case KindString:
		id, _ := uuid.Parse(v.s)
		return id
	case KindBinary:
		id, _ := uuid.FromBytes(v.raw)
		return id
	case KindNotSet, KindNull, KindBool, KindI8, KindI16, KindI32, KindI64, KindU8, KindU16,
		KindU32, KindU64, KindF64, KindDateTime, KindTimestamp, KindDate, KindTime, KindArray, KindObject:
		return uuid.Nil
	}
	return uuid.Nil
}

// Bytes converts v to a byte slice. Only Binary and String hold bytes.
func (v Value) Bytes() []byte {
	switch v.kind {
	case KindBinary:
		return v.raw
	case KindString:
		return []byte(v.s)
	default:
		return nil
	}
}

// Values returns the elements of an Array, or nil.
func (v Value) Values() []Value {
	if v.kind != KindArray {
		return nil
	}
	return v.arr
}

// Map returns the members of an Object, or nil.
func (v Value) Map() map[string]Value {
	if v.kind != KindObject {
		return nil
	}
	return v.obj
}

// StringSlice converts an Array to a []string.
func (v Value) StringSlice() []string {
	if v.kind != KindArray {
		return nil
	}
	out := make([]string, len(v.arr))
	for i, x := range v.arr {
		out[i] = x.String()
	}
	return out
}

// opt maps NotSet to nil and everything else through conv.
func opt[T any](v Value, conv func(Value) T) *T {
	if v.kind == KindNotSet {
		return nil
	}
	x := conv(v)
	return &x
}

// OptBool returns nil for NotSet and a pointer to Bool() otherwise.
func (v Value) OptBool() *bool { return opt(v, Value.Bool) }

// OptInt64 returns nil for NotSet and a pointer to Int64() otherwise.
func (v Value) OptInt64() *int64 { return opt(v, Value.Int64) }

// OptInt returns nil for NotSet and a pointer to Int() otherwise.
func (v Value) OptInt() *int { return opt(v, Value.Int) }

// OptUint64 returns nil for NotSet and a pointer to Uint64() otherwise.
func (v Value) OptUint64() *uint64 { return opt(v, Value.Uint64) }

// OptFloat64 returns nil for NotSet and a pointer to Float64() otherwise.
func (v Value) OptFloat64() *float64 { return opt(v, Value.Float64) }

// OptString returns nil for NotSet and a pointer to String() otherwise.
func (v Value) OptString() *string { return opt(v, Value.String) }

// OptTime returns nil for NotSet and a pointer to Time() otherwise.
func (v Value) OptTime() *time.Time { return opt(v, Value.Time) }

// OptUUID returns nil for NotSet and a pointer to UUID() otherwise.
func (v Value) OptUUID() *uuid.UUID { return opt(v, Value.UUID) }

// nullable maps NotSet and Null to nil and everything else through conv.
func nullable[T any](v Value, conv func(Value) T) *T {
	if v.kind == KindNull {
		return nil
	}
	return opt(v, conv)
}

// NullableBool returns nil for NotSet and Null and a pointer to Bool()
// otherwise. Entities decode nullable columns with the Nullable accessors.
func (v Value) NullableBool() *bool { return nullable(v, Value.Bool) }

// NullableInt64 is OptInt64 with Null mapped to nil.
func (v Value) NullableInt64() *int64 { return nullable(v, Value.Int64) }

// NullableInt is OptInt with Null mapped to nil.
func (v Value) NullableInt() *int { return nullable(v, Value.Int) }

// NullableUint64 is OptUint64 with Null mapped to nil.
func (v Value) NullableUint64() *uint64 { return nullable(v, Value.Uint64) }

// NullableFloat64 is OptFloat64 with Null mapped to nil.
func (v Value) NullableFloat64() *float64 { return nullable(v, Value.Float64) }

// NullableString is OptString with Null mapped to nil.
func (v Value) NullableString() *string { return nullable(v, Value.String) }

// NullableTime is OptTime with Null mapped to nil.
func (v Value) NullableTime() *time.Time { return nullable(v, Value.Time) }

// NullableUUID is OptUUID with Null mapped to nil.
func (v Value) NullableUUID() *uuid.UUID { return nullable(v, Value.UUID) }

// TryBool returns the held boolean or ErrKindMismatch.
func (v Value) TryBool() (bool, error) {
	if v.kind != KindBool {
		return false, mismatch("bool", v.kind)
	}
	return v.b, nil
}

// TryInt64 returns the held integer when it fits in an int64.
func (v Value) TryInt64() (int64, error) {
	switch {
	case v.kind.IsSigned():
		return v.i, nil
	case v.kind.IsUnsigned() && v.u <= math.MaxInt64:
		return int64(v.u), nil
	}
	return 0, mismatch("int64", v.kind)
}

// TryUint64 returns the held integer when it is non-negative.
func (v Value) TryUint64() (uint64, error) {
	switch {
	case v.kind.IsUnsigned():
		return v.u, nil
	case v.kind.IsSigned() && v.i >= 0:
		return uint64(v.i), nil
	}
	return 0, mismatch("uint64", v.kind)
}

// TryFloat64 returns the held number as a float64.
func (v Value) TryFloat64() (float64, error) {
	switch {
	case v.kind == KindF64:
		return v.f, nil
	case v.kind.IsSigned():
		return float64(v.i), nil
	case v.kind.IsUnsigned():
		return float64(v.u), nil
	}
	return 0, mismatch("float64", v.kind)
}

// TryString returns the held string.
func (v Value) TryString() (string, error) {
	if v.kind != KindString {
		return "", mismatch("string", v.kind)
	}
	return v.s, nil
}

// TryTime returns the held time, parsing strings.
func (v Value) TryTime() (time.Time, error) {
	switch {
	case v.kind.IsTemporal():
		return v.t, nil
	case v.kind == KindString:
		return parseTime(v.s)
	}
	return time.Time{}, mismatch("time", v.kind)
}

// TryUUID returns the held uuid, parsing strings.
func (v Value) TryUUID() (uuid.UUID, error) {
	switch v.kind {
	case KindUUID:
		return v.id, nil
	case KindString:
		id, err := uuid.Parse(v.s)
		if err != nil {
			return uuid.Nil, fmt.Errorf("%w: %w", mismatch("uuid", v.kind), err)
		}
		return id, nil
	}
	return uuid.Nil, mismatch("uuid", v.kind)
}

package field

import (
	"bytes"
	"database/sql/driver"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

var (
	_ driver.Valuer         = Value{}
	_ json.Marshaler        = Value{}
	_ json.Unmarshaler      = (*Value)(nil)
	_ msgpack.CustomEncoder = Value{}
	_ msgpack.CustomDecoder = (*Value)(nil)
	_ msgpack.CustomEncoder = ColumnAndValue{}
	_ msgpack.CustomDecoder = (*ColumnAndValue)(nil)
)

// Value implements driver.Valuer so a Value can be bound directly as a
// statement argument. Arrays and objects are bound as JSON text.
func (v Value) Value() (driver.Value, error) {
	switch v.kind {
	case KindNotSet, KindNull:
		return nil, nil
	case KindBool:
		return v.b, nil
	case KindI8, KindI16, KindI32, KindI64:
		return v.i, nil
	case KindU8, KindU16, KindU32, KindU64:
		if v.u > math.MaxInt64 {
			return fmt.Sprint(v.u), nil
		}
		return int64(v.u), nil
	case KindF64:
		return v.f, nil
	case KindString:
		return v.s, nil
	case KindDateTime, KindTimestamp, KindDate, KindTime:
		return v.t, nil
	case KindBinary:
		return v.raw, nil
	case KindUUID:
		return v.id.String(), nil
	case KindArray, KindObject:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	}
	return nil, fmt.Errorf("field: unknown kind %d", v.kind)
}

// MarshalJSON encodes v as plain JSON. NotSet and Null both encode as null,
// binaries as base64 and times as RFC 3339 strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNotSet, KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindI8, KindI16, KindI32, KindI64:
		return json.Marshal(v.i)
	case KindU8, KindU16, KindU32, KindU64:
		return json.Marshal(v.u)
	case KindF64:
		return json.Marshal(v.f)
	case KindString:
		return json.Marshal(v.s)
	case KindDateTime, KindTimestamp, KindDate, KindTime:
		return json.Marshal(v.String())
	case KindBinary:
		return json.Marshal(base64.StdEncoding.EncodeToString(v.raw))
	case KindUUID:
		return json.Marshal(v.id.String())
	case KindArray:
		return json.Marshal(v.arr)
	case KindObject:
		return json.Marshal(v.obj)
	}
	return nil, fmt.Errorf("field: unknown kind %d", v.kind)
}

// UnmarshalJSON decodes any JSON document into v. Integral numbers become I64
// (or U64 when they overflow int64), other numbers F64.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*v = fromJSON(raw)
	return nil
}

func fromJSON(raw any) Value {
	switch x := raw.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(x)
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return Int64(n)
		}
		if u, err := strconv.ParseUint(x.String(), 10, 64); err == nil {
			return Uint64(u)
		}
		f, _ := x.Float64()
		return Float64(f)
	case string:
		return String(x)
	case []any:
		out := make([]Value, len(x))
		for i, e := range x {
			out[i] = fromJSON(e)
		}
		return Array(out...)
	case map[string]any:
		m := make(map[string]Value, len(x))
		for k, e := range x {
			m[k] = fromJSON(e)
		}
		return Object(m)
	}
	return NotSet()
}

// EncodeMsgpack writes v as a two element array of kind and payload so the
// exact variant survives a round trip through a cache or cursor.
func (v Value) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeArrayLen(2); err != nil {
		return err
	}
	if err := enc.EncodeUint8(uint8(v.kind)); err != nil {
		return err
	}
	switch v.kind {
	case KindNotSet, KindNull:
		return enc.EncodeNil()
	case KindBool:
		return enc.EncodeBool(v.b)
	case KindI8, KindI16, KindI32, KindI64:
		return enc.EncodeInt(v.i)
	case KindU8, KindU16, KindU32, KindU64:
		return enc.EncodeUint(v.u)
	case KindF64:
		return enc.EncodeFloat64(v.f)
	case KindString:
		return enc.EncodeString(v.s)
	case KindDateTime, KindTimestamp, KindDate, KindTime:
		return enc.EncodeTime(v.t)
	case KindBinary:
		return enc.EncodeBytes(v.raw)
	case KindUUID:
		return enc.EncodeBytes(v.id[:])
	case KindArray:
		if err := enc.EncodeArrayLen(len(v.arr)); err != nil {
			return err
		}
		for _, e := range v.arr {
			if err := e.EncodeMsgpack(enc); err != nil {
				return err
			}
		}
		return nil
	case KindObject:
		return encodeMsgpackMap(enc, v.obj)
	}
	return fmt.Errorf("field: unknown kind %d", v.kind)
}

func encodeMsgpackMap(enc *msgpack.Encoder, m map[string]Value) error {
	if err := enc.EncodeMapLen(len(m)); err != nil {
		return err
	}
	for _, k := range sortedKeys(m) {
		if err := enc.EncodeString(k); err != nil {
			return err
		}
		if err := m[k].EncodeMsgpack(enc); err != nil {
			return err
		}
	}
	return nil
}

// DecodeMsgpack reads a value written by EncodeMsgpack.
func (v *Value) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return err
	}
	if n != 2 {
		return fmt.Errorf("field: msgpack value has %d elements, want 2", n)
	}
	k, err := dec.DecodeUint8()
	if err != nil {
		return err
	}
	kind := Kind(k)
	switch kind {
	case KindNotSet, KindNull:
		*v = Value{kind: kind}
		return dec.DecodeNil()
	case KindBool:
		b, err := dec.DecodeBool()
		*v = Bool(b)
		return err
	case KindI8, KindI16, KindI32, KindI64:
		i, err := dec.DecodeInt64()
		*v = Value{kind: kind, i: i}
		return err
	case KindU8, KindU16, KindU32, KindU64:
		u, err := dec.DecodeUint64()
		*v = Value{kind: kind, u: u}
		return err
	case KindF64:
		f, err := dec.DecodeFloat64()
		*v = Float64(f)
		return err
	case KindString:
		s, err := dec.DecodeString()
		*v = String(s)
		return err
	case KindDateTime, KindTimestamp, KindDate, KindTime:
		t, err := dec.DecodeTime()
		*v = Value{kind: kind, t: t.UTC()}
		return err
	case KindBinary:
		b, err := dec.DecodeBytes()
		*v = Binary(b)
		return err
	case KindUUID:
		b, err := dec.DecodeBytes()
		if err != nil {
			return err
		}
		id, err := uuid.FromBytes(b)
		*v = UUID(id)
		return err
	case KindArray:
		l, err := dec.DecodeArrayLen()
		if err != nil {
			return err
		}
		arr := make([]Value, max(l, 0))
		for i := range arr {
			if err := arr[i].DecodeMsgpack(dec); err != nil {
				return err
			}
		}
		*v = Array(arr...)
		return nil
	case KindObject:
		m, err := decodeMsgpackMap(dec)
		*v = Object(m)
		return err
	}
	return fmt.Errorf("field: unknown msgpack kind %d", k)
}

func decodeMsgpackMap(dec *msgpack.Decoder) (map[string]Value, error) {
	l, err := dec.DecodeMapLen()
	if err != nil {
		return nil, err
	}
	m := make(map[string]Value, max(l, 0))
	for i := 0; i < l; i++ {
		key, err := dec.DecodeString()
		if err != nil {
			return nil, err
		}
		var e Value
		if err := e.DecodeMsgpack(dec); err != nil {
			return nil, err
		}
		m[key] = e
	}
	return m, nil
}

// EncodeMsgpack writes the column map with sorted keys.
func (cv ColumnAndValue) EncodeMsgpack(enc *msgpack.Encoder) error {
	return encodeMsgpackMap(enc, cv)
}

// DecodeMsgpack reads a column map written by EncodeMsgpack.
func (cv *ColumnAndValue) DecodeMsgpack(dec *msgpack.Decoder) error {
	m, err := decodeMsgpackMap(dec)
	if err != nil {
		return err
	}
	*cv = m
	return nil
}

// MarshalRows encodes a result set with msgpack.
func MarshalRows(rows []ColumnAndValue) ([]byte, error) {
	return msgpack.Marshal(rows)
}

// UnmarshalRows decodes a result set written by MarshalRows.
func UnmarshalRows(data []byte) ([]ColumnAndValue, error) {
	var rows []ColumnAndValue
	if err := msgpack.Unmarshal(data, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

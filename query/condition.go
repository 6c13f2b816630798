package query

import "github.com/syssam/dirtydb/field"

// WhereJoin is the operator joining a condition to the ones before it.
type WhereJoin uint8

// Where join operators.
const (
	JoinNone WhereJoin = iota
	JoinAnd
	JoinOr
)

// String returns the SQL keyword of the join, or "" for JoinNone.
func (j WhereJoin) String() string {
	switch j {
	case JoinAnd:
		return "AND"
	case JoinOr:
		return "OR"
	default:
		return ""
	}
}

// ValueKind tells what a condition compares its column with.
type ValueKind uint8

// Value kinds.
const (
	ValueField ValueKind = iota
	ValueSubQuery
	ValueColumn
	ValueNone
)

// Value is the right hand side of a condition: a literal field value, a
// nested select, or a reference to another column.
type Value struct {
	kind   ValueKind
	field  field.Value
	sub    *Builder
	column string
}

// FieldValue wraps a literal.
func FieldValue(v field.Value) Value { return Value{kind: ValueField, field: v} }

// SubQuery wraps a nested select.
func SubQuery(b *Builder) Value { return Value{kind: ValueSubQuery, sub: b} }

// ColumnRef compares with another column instead of a bound value.
func ColumnRef(col string) Value { return Value{kind: ValueColumn, column: col} }

// Kind returns the value kind.
func (v Value) Kind() ValueKind { return v.kind }

// Field returns the literal. It is NotSet for other kinds.
func (v Value) Field() field.Value { return v.field }

// Sub returns the nested select, or nil.
func (v Value) Sub() *Builder { return v.sub }

// Column returns the referenced column name.
func (v Value) Column() string { return v.column }

// Len is the number of placeholders the value binds.
func (v Value) Len() int {
	switch {
	case v.kind != ValueField:
		return 0
	case v.field.Kind() == field.KindArray:
		return v.field.Len()
	default:
		return 1
	}
}

// toValue converts the loose arguments accepted by the condition helpers.
func toValue(x any) Value {
	switch x := x.(type) {
	case Value:
		return x
	case *Builder:
		return SubQuery(x)
	case field.Value:
		return FieldValue(x)
	default:
		return FieldValue(field.Of(x))
	}
}

// Condition compares a column with a value.
type Condition struct {
	Column   string
	Operator Operator
	Value    Value
}

// Where is a condition, or a parenthesized group of them, with the
// operator joining it to the previous entry.
type Where struct {
	Join      WhereJoin
	Condition Condition
	Group     []Where
}

// IsGroup reports whether the entry is a group.
func (w Where) IsGroup() bool { return w.Group != nil }

// Conditions flattens w into the conditions it holds, in order.
func (w Where) Conditions() []Condition {
	if !w.IsGroup() {
		return []Condition{w.Condition}
	}
	var out []Condition
	for _, g := range w.Group {
		out = append(out, g.Conditions()...)
	}
	return out
}

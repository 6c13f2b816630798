package query

import "strings"

// Operator is a condition operator.
type Operator uint8

// The condition operators.
const (
	Equal Operator = iota
	NotEqual
	Greater
	NotGreater
	GreaterOrEqual
	NotGreaterOrEqual
	Less
	NotLess
	LessOrEqual
	NotLessOrEqual
	Like
	NotLike
	Null
	NotNull
	In
	NotIn
)

var operatorNames = [...]string{
	Equal:             "Equal",
	NotEqual:          "NotEqual",
	Greater:           "Greater",
	NotGreater:        "NotGreater",
	GreaterOrEqual:    "GreaterOrEqual",
	NotGreaterOrEqual: "NotGreaterOrEqual",
	Less:              "Less",
	NotLess:           "NotLess",
	LessOrEqual:       "LessOrEqual",
	NotLessOrEqual:    "NotLessOrEqual",
	Like:              "Like",
	NotLike:           "NotLike",
	Null:              "Null",
	NotNull:           "NotNull",
	In:                "In",
	NotIn:             "NotIn",
}

// clauses holds the clause template of every operator. The negated
// comparison templates are kept as existing stored queries expect them:
// NotGreater renders "NOT c >= p" and NotGreaterOrEqual renders the same
// clause as GreaterOrEqual.
var clauses = [...]string{
	Equal:             "{col} = {ph}",
	NotEqual:          "{col} <> {ph}",
	Greater:           "{col} > {ph}",
	NotGreater:        "NOT {col} >= {ph}",
	GreaterOrEqual:    "{col} >= {ph}",
	NotGreaterOrEqual: "{col} >= {ph}",
	Less:              "{col} < {ph}",
	NotLess:           "NOT {col} < {ph}",
	LessOrEqual:       "{col} <= {ph}",
	NotLessOrEqual:    "NOT {col} <= {ph}",
	Like:              "{col} LIKE {ph}",
	NotLike:           "NOT {col} LIKE {ph}",
	Null:              "{col} IS NULL",
	NotNull:           "{col} IS NOT NULL",
	In:                "{col} IN ({ph})",
	NotIn:             "{col} NOT IN ({ph})",
}

// String returns the operator name.
func (o Operator) String() string {
	if int(o) < len(operatorNames) {
		return operatorNames[o]
	}
	return "Unknown"
}

// Clause renders the operator for the given column and placeholder.
func (o Operator) Clause(col, placeholder string) string {
	if int(o) >= len(clauses) {
		return ""
	}
	return strings.NewReplacer("{col}", col, "{ph}", placeholder).Replace(clauses[o])
}

// HasValue reports whether the operator binds a value. Null and NotNull
// do not.
func (o Operator) HasValue() bool {
	return o != Null && o != NotNull
}

// IsList reports whether the placeholder is a comma separated list.
func (o Operator) IsList() bool {
	return o == In || o == NotIn
}

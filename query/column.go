package query

import "strings"

// Aggregate is an aggregate function applied to a selected column.
type Aggregate uint8

// Aggregate functions.
const (
	AggNone Aggregate = iota
	Count
	Max
	Min
	Sum
	Avg
)

// String returns the SQL function name.
func (a Aggregate) String() string {
	switch a {
	case Count:
		return "COUNT"
	case Max:
		return "MAX"
	case Min:
		return "MIN"
	case Sum:
		return "SUM"
	case Avg:
		return "AVG"
	default:
		return ""
	}
}

// Wrap renders FUNC(expr). AggNone returns expr unchanged.
func (a Aggregate) Wrap(expr string) string {
	if a == AggNone {
		return expr
	}
	return a.String() + "(" + expr + ")"
}

// Column is an entry of a select list.
type Column struct {
	Name      string
	Table     string
	Alias     string
	Aggregate Aggregate
	Sub       *Builder
}

// Col is a plain select column.
func Col(name string) Column { return Column{Name: name} }

// Expr renders the column reference without alias or aggregate. Sub-query
// columns have no static expression and return "".
func (c Column) Expr() string {
	if c.Sub != nil {
		return ""
	}
	if c.Table != "" && !strings.Contains(c.Name, ".") {
		return c.Table + "." + c.Name
	}
	return c.Name
}

// Order is one ORDER BY entry.
type Order struct {
	Column string
	Desc   bool
}

// String renders "col ASC" or "col DESC".
func (o Order) String() string {
	if o.Desc {
		return o.Column + " DESC"
	}
	return o.Column + " ASC"
}

// OrderClause renders the ORDER BY clause, or "" for no ordering.
func OrderClause(orders []Order) string {
	if len(orders) == 0 {
		return ""
	}
	parts := make([]string, len(orders))
	for i, o := range orders {
		parts[i] = o.String()
	}
	return "ORDER BY " + strings.Join(parts, ",")
}

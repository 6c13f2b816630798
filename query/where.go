package query

// Where appends a condition. The first condition of a builder ignores
// join; later ones default to AND when join is JoinNone.
//
// value may be a field.Value, a Value, a *Builder (rendered as a
// sub-query) or any Go value accepted by field.Of.
func (b *Builder) Where(join WhereJoin, column string, op Operator, value any) *Builder {
	return b.push(Where{Join: join, Condition: Condition{Column: column, Operator: op, Value: toValue(value)}})
}

func (b *Builder) push(w Where) *Builder {
	switch {
	case len(b.wheres) == 0:
		w.Join = JoinNone
	case w.Join == JoinNone:
		w.Join = JoinAnd
	}
	b.wheres = append(b.wheres, w)
	return b
}

// Group adds a parenthesized group built by fn, joined with AND.
func (b *Builder) Group(fn func(*Builder)) *Builder {
	return b.group(JoinAnd, fn)
}

// OrGroup adds a parenthesized group built by fn, joined with OR.
func (b *Builder) OrGroup(fn func(*Builder)) *Builder {
	return b.group(JoinOr, fn)
}

// Scope ANDs the conditions built by fn to every existing condition.
// Existing conditions joined with OR are parenthesized first, so that
// "a OR b" scoped with "t = 1" becomes "(a OR b) AND t = 1".
func (b *Builder) Scope(fn func(*Builder)) *Builder {
	g := Select(b.table)
	fn(g)
	if len(g.wheres) == 0 {
		return b
	}
	if hasOr(b.wheres) {
		b.wheres = []Where{{Join: JoinNone, Group: b.wheres}}
	}
	if hasOr(g.wheres) {
		return b.push(Where{Join: JoinAnd, Group: g.wheres})
	}
	for _, w := range g.wheres {
		b.push(w)
	}
	return b
}

func (b *Builder) group(join WhereJoin, fn func(*Builder)) *Builder {
	g := Select(b.table)
	fn(g)
	if len(g.wheres) == 0 {
		return b
	}
	return b.push(Where{Join: join, Group: g.wheres})
}

// Eq adds column = value.
func (b *Builder) Eq(column string, value any) *Builder {
	return b.Where(JoinAnd, column, Equal, value)
}

// OrEq adds OR column = value.
func (b *Builder) OrEq(column string, value any) *Builder {
	return b.Where(JoinOr, column, Equal, value)
}

// NotEq adds column <> value.
func (b *Builder) NotEq(column string, value any) *Builder {
	return b.Where(JoinAnd, column, NotEqual, value)
}

// OrNotEq adds OR column <> value.
func (b *Builder) OrNotEq(column string, value any) *Builder {
	return b.Where(JoinOr, column, NotEqual, value)
}

// Gt adds column > value.
func (b *Builder) Gt(column string, value any) *Builder {
	return b.Where(JoinAnd, column, Greater, value)
}

// OrGt adds OR column > value.
func (b *Builder) OrGt(column string, value any) *Builder {
	return b.Where(JoinOr, column, Greater, value)
}

// NotGt adds a NotGreater condition.
func (b *Builder) NotGt(column string, value any) *Builder {
	return b.Where(JoinAnd, column, NotGreater, value)
}

// OrNotGt adds an OR NotGreater condition.
func (b *Builder) OrNotGt(column string, value any) *Builder {
	return b.Where(JoinOr, column, NotGreater, value)
}

// GtOrEq adds column >= value.
func (b *Builder) GtOrEq(column string, value any) *Builder {
	return b.Where(JoinAnd, column, GreaterOrEqual, value)
}

// OrGtOrEq adds OR column >= value.
func (b *Builder) OrGtOrEq(column string, value any) *Builder {
	return b.Where(JoinOr, column, GreaterOrEqual, value)
}

// NotGtOrEq adds a NotGreaterOrEqual condition.
func (b *Builder) NotGtOrEq(column string, value any) *Builder {
	return b.Where(JoinAnd, column, NotGreaterOrEqual, value)
}

// OrNotGtOrEq adds an OR NotGreaterOrEqual condition.
func (b *Builder) OrNotGtOrEq(column string, value any) *Builder {
	return b.Where(JoinOr, column, NotGreaterOrEqual, value)
}

// Lt adds column < value.
func (b *Builder) Lt(column string, value any) *Builder {
	return b.Where(JoinAnd, column, Less, value)
}

// OrLt adds OR column < value.
func (b *Builder) OrLt(column string, value any) *Builder {
	return b.Where(JoinOr, column, Less, value)
}

// NotLt adds NOT column < value.
func (b *Builder) NotLt(column string, value any) *Builder {
	return b.Where(JoinAnd, column, NotLess, value)
}

// OrNotLt adds OR NOT column < value.
func (b *Builder) OrNotLt(column string, value any) *Builder {
	return b.Where(JoinOr, column, NotLess, value)
}

// LtOrEq adds column <= value.
func (b *Builder) LtOrEq(column string, value any) *Builder {
	return b.Where(JoinAnd, column, LessOrEqual, value)
}

// OrLtOrEq adds OR column <= value.
func (b *Builder) OrLtOrEq(column string, value any) *Builder {
	return b.Where(JoinOr, column, LessOrEqual, value)
}

// NotLtOrEq adds NOT column <= value.
func (b *Builder) NotLtOrEq(column string, value any) *Builder {
	return b.Where(JoinAnd, column, NotLessOrEqual, value)
}

// OrNotLtOrEq adds OR NOT column <= value.
func (b *Builder) OrNotLtOrEq(column string, value any) *Builder {
	return b.Where(JoinOr, column, NotLessOrEqual, value)
}

// Like adds column LIKE value.
func (b *Builder) Like(column string, value any) *Builder {
	return b.Where(JoinAnd, column, Like, value)
}

// OrLike adds OR column LIKE value.
func (b *Builder) OrLike(column string, value any) *Builder {
	return b.Where(JoinOr, column, Like, value)
}

// NotLike adds NOT column LIKE value.
func (b *Builder) NotLike(column string, value any) *Builder {
	return b.Where(JoinAnd, column, NotLike, value)
}

// OrNotLike adds OR NOT column LIKE value.
func (b *Builder) OrNotLike(column string, value any) *Builder {
	return b.Where(JoinOr, column, NotLike, value)
}

// IsNull adds column IS NULL.
func (b *Builder) IsNull(column string) *Builder {
	return b.Where(JoinAnd, column, Null, Value{kind: ValueNone})
}

// OrIsNull adds OR column IS NULL.
func (b *Builder) OrIsNull(column string) *Builder {
	return b.Where(JoinOr, column, Null, Value{kind: ValueNone})
}

// IsNotNull adds column IS NOT NULL.
func (b *Builder) IsNotNull(column string) *Builder {
	return b.Where(JoinAnd, column, NotNull, Value{kind: ValueNone})
}

// OrIsNotNull adds OR column IS NOT NULL.
func (b *Builder) OrIsNotNull(column string) *Builder {
	return b.Where(JoinOr, column, NotNull, Value{kind: ValueNone})
}

// In adds column IN (values). values is usually a slice; a *Builder is
// rendered as a sub-query.
func (b *Builder) In(column string, values any) *Builder {
	return b.Where(JoinAnd, column, In, values)
}

// OrIn adds OR column IN (values).
func (b *Builder) OrIn(column string, values any) *Builder {
	return b.Where(JoinOr, column, In, values)
}

// NotIn adds column NOT IN (values).
func (b *Builder) NotIn(column string, values any) *Builder {
	return b.Where(JoinAnd, column, NotIn, values)
}

// OrNotIn adds OR column NOT IN (values).
func (b *Builder) OrNotIn(column string, values any) *Builder {
	return b.Where(JoinOr, column, NotIn, values)
}

// InSub adds column IN (SELECT ... FROM table) with the select built by fn.
func (b *Builder) InSub(column, table string, fn func(*Builder)) *Builder {
	return b.In(column, Sub(table, fn))
}

// OrInSub is the OR form of InSub.
func (b *Builder) OrInSub(column, table string, fn func(*Builder)) *Builder {
	return b.OrIn(column, Sub(table, fn))
}

// NotInSub adds column NOT IN (SELECT ... FROM table).
func (b *Builder) NotInSub(column, table string, fn func(*Builder)) *Builder {
	return b.NotIn(column, Sub(table, fn))
}

// OrNotInSub is the OR form of NotInSub.
func (b *Builder) OrNotInSub(column, table string, fn func(*Builder)) *Builder {
	return b.OrNotIn(column, Sub(table, fn))
}

// Between adds column >= first AND column <= last.
func (b *Builder) Between(column string, first, last any) *Builder {
	return b.GtOrEq(column, first).LtOrEq(column, last)
}

// OrBetween adds OR column >= first AND column <= last.
func (b *Builder) OrBetween(column string, first, last any) *Builder {
	return b.OrGtOrEq(column, first).LtOrEq(column, last)
}

// NotBetween pairs NotGtOrEq on first with NotLtOrEq on last.
func (b *Builder) NotBetween(column string, first, last any) *Builder {
	return b.NotGtOrEq(column, first).NotLtOrEq(column, last)
}

// OrNotBetween is the OR form of NotBetween.
func (b *Builder) OrNotBetween(column string, first, last any) *Builder {
	return b.OrNotGtOrEq(column, first).NotLtOrEq(column, last)
}

// Sub builds a nested select on table for use as a condition value.
func Sub(table string, fn func(*Builder)) Value {
	b := Select(table)
	fn(b)
	return SubQuery(b)
}

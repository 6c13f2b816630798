package schema

import (
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
)

// ToFKColumn returns the foreign key column name referencing table: the
// singular snake-cased table name joined with "_" to idColumn, or "id"
// when idColumn is empty.
func ToFKColumn(table, idColumn string) string {
	if idColumn == "" {
		idColumn = IDColumn
	}
	return Snake(inflect.Singularize(table)) + "_" + idColumn
}

// Snake converts a name to snake_case. Names already in snake case are
// returned unchanged.
func Snake(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	prev := rune(0)
	for i, r := range s {
		out := r
		switch {
		case r == '-' || r == ' ' || r == '.':
			out = '_'
		case unicode.IsUpper(r):
			if i > 0 && prev != '_' && !unicode.IsUpper(prev) {
				b.WriteByte('_')
			}
			out = unicode.ToLower(r)
		}
		b.WriteRune(out)
		if out == '_' {
			prev = out
		} else {
			prev = r
		}
	}
	return b.String()
}

// Package field provides the backend-neutral value model used by every other
// dirtydb package.
//
// A Value is a closed tagged union. Its Kind tells which variant is held and
// every conversion site switches over the full set of kinds, so adding a new
// variant is a compile-visible change rather than a silent runtime one.
//
// # NotSet versus Null
//
// The two "empty" kinds mean different things:
//
//   - NotSet: omit the column from the statement entirely.
//   - Null:   write SQL NULL.
//
// Builders skip NotSet values, so they never reach SQL generation.
//
// # Conversions
//
// Native accessors are lossy-safe: asking for the wrong variant returns the
// type's zero value instead of failing.
//
//	v := field.String("42")
//	v.Int64()   // 42, strings are parsed
//	v.Bool()    // false
//
// The Opt accessors map NotSet to nil and everything else to a pointer:
//
//	field.NotSet().OptString() // nil
//	field.Null().OptString()   // pointer to ""
//
// Row decoders use the Nullable accessors instead, which also map Null to
// nil so a NULL column decodes as a nil pointer:
//
//	field.Null().NullableString() // nil
//
// Callers that prefer strictness use the Try accessors, which return
// ErrKindMismatch when the variant cannot be represented exactly.
//
// # Column maps
//
// ColumnAndValue maps column names to values for insert and update
// statements. Build one incrementally with a Builder:
//
//	cv := field.NewBuilder().
//	    Insert("name", "Ada").
//	    TryInsert("nickname", (*string)(nil)).
//	    Build()
//	// cv has "name" and no "nickname".
package field

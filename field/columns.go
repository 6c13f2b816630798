package field

import "strings"

// ColumnAndValue maps column names to values. Iteration order is not
// significant; statement compilers sort the keys.
type ColumnAndValue map[string]Value

// ToColumnAndValue is implemented by records that can be written to a table.
type ToColumnAndValue interface {
	ToColumnAndValue() ColumnAndValue
}

// ToColumnAndValue returns cv, so a plain map can be written like a record.
func (cv ColumnAndValue) ToColumnAndValue() ColumnAndValue { return cv }

// Get returns the value stored for col, or NotSet when absent.
func (cv ColumnAndValue) Get(col string) Value {
	return cv[col]
}

// Has reports whether col is present.
func (cv ColumnAndValue) Has(col string) bool {
	_, ok := cv[col]
	return ok
}

// Columns returns the column names in lexical order.
func (cv ColumnAndValue) Columns() []string {
	return sortedKeys(cv)
}

// Clone returns a shallow copy of cv.
func (cv ColumnAndValue) Clone() ColumnAndValue {
	out := make(ColumnAndValue, len(cv))
	for k, v := range cv {
		out[k] = v
	}
	return out
}

// Compact returns a copy of cv with every NotSet entry removed.
func (cv ColumnAndValue) Compact() ColumnAndValue {
	out := make(ColumnAndValue, len(cv))
	for k, v := range cv {
		if !v.IsNotSet() {
			out[k] = v
		}
	}
	return out
}

// Builder assembles a ColumnAndValue incrementally.
type Builder struct {
	cv ColumnAndValue
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{cv: make(ColumnAndValue)}
}

// Insert stores the value of x under col. See Of for the accepted types.
func (b *Builder) Insert(col string, x any) *Builder {
	b.cv[col] = Of(x)
	return b
}

// Add is an alias of Insert.
func (b *Builder) Add(col string, x any) *Builder {
	return b.Insert(col, x)
}

// InsertValue stores v under col as is, NotSet included.
func (b *Builder) InsertValue(col string, v Value) *Builder {
	b.cv[col] = v
	return b
}

// TryInsert stores x under col unless it converts to NotSet, which is what a
// nil pointer converts to.
func (b *Builder) TryInsert(col string, x any) *Builder {
	return b.TryInsertValue(col, Of(x))
}

// TryInsertValue stores v under col unless v is NotSet.
func (b *Builder) TryInsertValue(col string, v Value) *Builder {
	if !v.IsNotSet() {
		b.cv[col] = v
	}
	return b
}

// Merge copies every entry of other into the builder, overwriting existing
// columns.
func (b *Builder) Merge(other ColumnAndValue) *Builder {
	for k, v := range other {
		b.cv[k] = v
	}
	return b
}

// MergeColumnValue merges the columns produced by a record.
func (b *Builder) MergeColumnValue(rec ToColumnAndValue) *Builder {
	return b.Merge(rec.ToColumnAndValue())
}

// Build returns the assembled map. The builder must not be used afterwards.
func (b *Builder) Build() ColumnAndValue {
	return b.cv
}

// Structure nests dotted keys into Object values, so that the row
// {"user.id": 1, "user.name": "ada", "total": 3} becomes
// {"user": {"id": 1, "name": "ada"}, "total": 3}. Joined selects alias their
// columns as "table.column" for this purpose.
func Structure(row ColumnAndValue) ColumnAndValue {
	out := make(ColumnAndValue, len(row))
	for _, key := range row.Columns() {
		place(out, strings.Split(key, "."), row[key])
	}
	return out
}

func place(dst map[string]Value, path []string, v Value) {
	head := path[0]
	if len(path) == 1 {
		if existing, ok := dst[head]; ok && existing.kind == KindObject {
			// a nested object already claimed this key; keep it
			return
		}
		dst[head] = v
		return
	}
	child, ok := dst[head]
	if !ok || child.kind != KindObject {
		child = Object(nil)
		dst[head] = child
	}
	place(child.obj, path[1:], v)
}

// StructureAll applies Structure to every row.
func StructureAll(rows []ColumnAndValue) []ColumnAndValue {
	out := make([]ColumnAndValue, len(rows))
	for i, r := range rows {
		out[i] = Structure(r)
	}
	return out
}

// Nested returns the object stored under key as a ColumnAndValue, or nil.
func (cv ColumnAndValue) Nested(key string) ColumnAndValue {
	v, ok := cv[key]
	if !ok || v.kind != KindObject {
		return nil
	}
	return v.obj
}

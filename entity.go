package dirtydb

import (
	"strings"

	"github.com/syssam/dirtydb/field"
)

// TableEntity describes how a record type maps to a table. Implementations
// are stateless and usually generated by cmd/dirtygen; hand-written ones
// embed Table to inherit the "no such column" defaults.
//
// TableColumns must list exactly the columns read by FromColumnAndValue and
// written by ToColumnAndValue.
type TableEntity interface {
	TableName() string
	TableColumns() []string

	// The optional conventional columns. An empty string means the
	// convention does not apply to the table.
	IDColumn() string
	ForeignIDColumn() string
	CreatedAtColumn() string
	UpdatedAtColumn() string
	DeletedAtColumn() string
	CreatorIDColumn() string
	EditorIDColumn() string
}

// FromColumnAndValue is implemented by pointer receivers that can populate
// themselves from a fetched row.
type FromColumnAndValue interface {
	FromColumnAndValue(field.ColumnAndValue) error
}

// ToColumnAndValue is implemented by records that can be written to a table.
type ToColumnAndValue = field.ToColumnAndValue

// Entity is the full contract a record type implements to be used with the
// typed query surface.
type Entity interface {
	TableEntity
	ToColumnAndValue
}

// Table is the default implementation for the optional column accessors
// of TableEntity. Embed it and override what applies.
//
//	type User struct {
//	    dirtydb.Table
//	    ID   string
//	    Name string
//	}
//
//	func (User) TableName() string      { return "users" }
//	func (User) TableColumns() []string { return []string{"id", "name"} }
//	func (User) IDColumn() string       { return "id" }
type Table struct{}

// IDColumn returns "".
func (Table) IDColumn() string { return "" }

// ForeignIDColumn returns "".
func (Table) ForeignIDColumn() string { return "" }

// CreatedAtColumn returns "".
func (Table) CreatedAtColumn() string { return "" }

// UpdatedAtColumn returns "".
func (Table) UpdatedAtColumn() string { return "" }

// DeletedAtColumn returns "".
func (Table) DeletedAtColumn() string { return "" }

// CreatorIDColumn returns "".
func (Table) CreatorIDColumn() string { return "" }

// EditorIDColumn returns "".
func (Table) EditorIDColumn() string { return "" }

// Prefix qualifies col with the entity's table name: "table.col".
func Prefix(e TableEntity, col string) string {
	return e.TableName() + "." + col
}

// FullNames returns every column of e qualified with its table name.
func FullNames(e TableEntity) []string {
	cols := e.TableColumns()
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = Prefix(e, c)
	}
	return out
}

// QueryAliases returns the "table.col" aliases used when e's columns are
// selected through ColumnAliases with the default prefix.
func QueryAliases(e TableEntity) []string {
	return FullNames(e)
}

// ColumnAliases renders a select list of the form
//
//	table.col as 'prefix.col'
//
// for every column of e. An empty prefix defaults to the table name. The
// dotted aliases are what field.Structure nests back into sub-objects.
func ColumnAliases(e TableEntity, prefix string) string {
	return columnAliases(e, prefix, '\'')
}

// ModelColumnAliases is ColumnAliases with double-quoted aliases, for
// backends where single quotes denote string literals in the select list.
func ModelColumnAliases(e TableEntity, prefix string) string {
	return columnAliases(e, prefix, '"')
}

func columnAliases(e TableEntity, prefix string, quote byte) string {
	if prefix == "" {
		prefix = e.TableName()
	}
	var sb strings.Builder
	for i, c := range e.TableColumns() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(e.TableName())
		sb.WriteByte('.')
		sb.WriteString(c)
		sb.WriteString(" as ")
		sb.WriteByte(quote)
		sb.WriteString(prefix)
		sb.WriteByte('.')
		sb.WriteString(c)
		sb.WriteByte(quote)
	}
	return sb.String()
}

// Decode builds a T from a row through its FromColumnAndValue method.
func Decode[T any, PT interface {
	*T
	FromColumnAndValue
}](row field.ColumnAndValue) (*T, error) {
	v := new(T)
	if err := PT(v).FromColumnAndValue(row); err != nil {
		return nil, err
	}
	return v, nil
}

// DecodeAll decodes every row.
func DecodeAll[T any, PT interface {
	*T
	FromColumnAndValue
}](rows []field.ColumnAndValue) ([]*T, error) {
	out := make([]*T, 0, len(rows))
	for _, r := range rows {
		v, err := Decode[T, PT](r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// DecodeNested structures joined rows and decodes the object stored under
// each row's top-level key. Rows selected with ColumnAliases(e, "") have a
// single top-level key, the table name.
func DecodeNested[T any, PT interface {
	*T
	FromColumnAndValue
}](rows []field.ColumnAndValue, key string) ([]*T, error) {
	out := make([]*T, 0, len(rows))
	for _, r := range field.StructureAll(rows) {
		nested := r.Nested(key)
		if nested == nil {
			continue
		}
		v, err := Decode[T, PT](nested)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

package gen

import (
	"fmt"
	"go/token"
	"slices"

	"github.com/syssam/dirtydb/compiler/load"
	"github.com/syssam/dirtydb/schema"
)

// Kind is the Go type family of a generated field.
type Kind string

// Supported field kinds.
const (
	KindBool    Kind = "bool"
	KindInt     Kind = "int"
	KindInt64   Kind = "int64"
	KindUint64  Kind = "uint64"
	KindFloat64 Kind = "float64"
	KindString  Kind = "string"
	KindTime    Kind = "time"
	KindUUID    Kind = "uuid"
	KindBytes   Kind = "bytes"
	KindJSON    Kind = "json"
)

// kinds maps each kind to the field.Value accessor decoding it.
var kinds = map[Kind]struct {
	get, opt string
	zero     bool // comparable against a zero value
}{
	KindBool:    {"Bool", "NullableBool", true},
	KindInt:     {"Int", "NullableInt", true},
	KindInt64:   {"Int64", "NullableInt64", true},
	KindUint64:  {"Uint64", "NullableUint64", true},
	KindFloat64: {"Float64", "NullableFloat64", true},
	KindString:  {"String", "NullableString", true},
	KindTime:    {"Time", "NullableTime", true},
	KindUUID:    {"UUID", "NullableUUID", true},
	KindBytes:   {"Bytes", "", false},
	KindJSON:    {"", "", false},
}

type (
	// Graph holds the validated entities of one generated package.
	Graph struct {
		*Config
		Nodes []*Type
	}

	// Type is one entity.
	Type struct {
		Name    string
		Table   string
		Comment string
		Fields  []*Field
		// Conventional columns. Empty when the entity has none.
		ID, ForeignKey, CreatedAt, UpdatedAt, DeletedAt, CreatorID, EditorID string
	}

	// Field is one column of an entity.
	Field struct {
		Name     string
		Kind     Kind
		Comment  string
		Optional bool
		Auto     bool
		ReadOnly bool
	}
)

// NewGraph validates the loaded entities and resolves their defaults.
func NewGraph(c *Config, schemas ...*load.Schema) (*Graph, error) {
	if c == nil {
		return nil, NewConfigError("Config", nil, "config cannot be nil")
	}
	if c.Package == "" {
		return nil, NewConfigError("Package", nil, "package is required")
	}
	g := &Graph{Config: c}
	names := make(map[string]bool, len(schemas))
	for _, s := range schemas {
		t, err := NewType(s)
		if err != nil {
			return nil, err
		}
		if names[t.Name] {
			return nil, NewSchemaError(t.Name, "", "duplicate entity", nil)
		}
		names[t.Name] = true
		g.Nodes = append(g.Nodes, t)
	}
	return g, nil
}

// NewType builds a Type from a loaded schema.
func NewType(s *load.Schema) (*Type, error) {
	if !token.IsIdentifier(s.Name) || !token.IsExported(s.Name) {
		return nil, NewSchemaError(s.Name, "", "entity name must be an exported Go identifier", nil)
	}
	t := &Type{
		Name:      s.Name,
		Table:     s.Table,
		Comment:   s.Comment,
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		DeletedAt: s.DeletedAt,
		CreatorID: s.CreatorID,
		EditorID:  s.EditorID,
	}
	if t.Table == "" {
		t.Table = tableName(t.Name)
	}
	if len(s.Fields) == 0 {
		return nil, NewSchemaError(t.Name, "", "entity without fields", nil)
	}
	seen := make(map[string]bool, len(s.Fields))
	for _, lf := range s.Fields {
		f, err := newField(t.Name, lf)
		if err != nil {
			return nil, err
		}
		if seen[f.Name] {
			return nil, NewSchemaError(t.Name, f.Name, "duplicate field", nil)
		}
		seen[f.Name] = true
		t.Fields = append(t.Fields, f)
	}
	for _, col := range []string{t.ID, t.CreatedAt, t.UpdatedAt, t.DeletedAt, t.CreatorID, t.EditorID} {
		if col != "" && !seen[col] {
			return nil, NewSchemaError(t.Name, col, "conventional column is not a field", nil)
		}
	}
	t.ForeignKey = s.ForeignKey
	if t.ForeignKey == "" && t.ID != "" {
		t.ForeignKey = schema.ToFKColumn(t.Table, t.ID)
	}
	return t, nil
}

func newField(typ string, lf *load.Field) (*Field, error) {
	if lf.Name == "" {
		return nil, NewSchemaError(typ, "", "field without name", nil)
	}
	f := &Field{
		Name:     lf.Name,
		Kind:     Kind(lf.Type),
		Comment:  lf.Comment,
		Optional: lf.Optional,
		Auto:     lf.Auto,
		ReadOnly: lf.ReadOnly,
	}
	k, ok := kinds[f.Kind]
	switch {
	case !ok:
		return nil, NewSchemaError(typ, f.Name, fmt.Sprintf("unknown type %q", lf.Type), nil)
	case f.Optional && f.Kind == KindBytes:
		return nil, NewSchemaError(typ, f.Name, "bytes fields cannot be optional; a nil slice is written as an empty value", nil)
	case f.Auto && (!k.zero || f.Optional):
		return nil, NewSchemaError(typ, f.Name, "auto requires a required field with a comparable type", nil)
	case !token.IsIdentifier(f.StructField()):
		return nil, NewSchemaError(typ, f.Name, "name does not convert to a Go identifier", nil)
	}
	return f, nil
}

// Receiver returns the receiver name used in the methods of t.
func (t *Type) Receiver() string { return receiver(t.Name) }

// File returns the generated file name of t.
func (t *Type) File() string { return fileName(t.Name) }

// TableConst returns the name of the table constant.
func (t *Type) TableConst() string { return t.Name + "Table" }

// ColumnConst returns the name of the constant holding the column of f.
func (t *Type) ColumnConst(f *Field) string { return t.Name + "Column" + f.StructField() }

// FieldByName returns the field of column name.
func (t *Type) FieldByName(name string) (*Field, bool) {
	i := slices.IndexFunc(t.Fields, func(f *Field) bool { return f.Name == name })
	if i < 0 {
		return nil, false
	}
	return t.Fields[i], true
}

// Writable returns the fields ToColumnAndValue writes.
func (t *Type) Writable() []*Field {
	return slices.DeleteFunc(slices.Clone(t.Fields), func(f *Field) bool { return f.ReadOnly })
}

// StructField returns the Go name of f.
func (f *Field) StructField() string { return pascal(f.Name) }

// Nillable reports whether the struct field is a pointer.
func (f *Field) Nillable() bool {
	return f.Optional && f.Kind != KindJSON
}

// Getter returns the field.Value accessor decoding f, or "" when the
// value is kept as is.
func (f *Field) Getter() string {
	k := kinds[f.Kind]
	if f.Nillable() {
		return k.opt
	}
	return k.get
}

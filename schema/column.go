package schema

import "github.com/syssam/dirtydb/field"

// TypeKind enumerates the dialect-neutral column types.
type TypeKind uint8

// Column type kinds.
const (
	TypeAutoIncrementID TypeKind = iota
	TypeBoolean
	TypeChar
	TypeDatetime
	TypeDate
	TypeTimestamp
	TypeFloat
	TypeInteger
	TypeJSON
	TypeBinary
	TypeEnum
	TypeNumber
	TypeString
	TypeText
	TypeUUID
)

var typeNames = [...]string{
	TypeAutoIncrementID: "auto_increment_id",
	TypeBoolean:         "boolean",
	TypeChar:            "char",
	TypeDatetime:        "datetime",
	TypeDate:            "date",
	TypeTimestamp:       "timestamp",
	TypeFloat:           "float",
	TypeInteger:         "integer",
	TypeJSON:            "json",
	TypeBinary:          "binary",
	TypeEnum:            "enum",
	TypeNumber:          "number",
	TypeString:          "string",
	TypeText:            "text",
	TypeUUID:            "uuid",
}

// String returns the kind name.
func (k TypeKind) String() string {
	if int(k) < len(typeNames) {
		return typeNames[k]
	}
	return "unknown"
}

// ColumnType is a column kind with its size or enum options.
type ColumnType struct {
	Kind    TypeKind
	Size    int
	Options []string
}

// DefaultStringSize is the size of String columns.
const DefaultStringSize = 255

// DefaultKind enumerates column default expressions.
type DefaultKind uint8

// Column default kinds.
const (
	DefaultCustom DefaultKind = iota + 1
	DefaultEmptyString
	DefaultCreatedAt
	DefaultUpdatedAt
	DefaultZero
	DefaultEmptyObject
	DefaultEmptyArray
	DefaultUUID
	DefaultULID
)

// ColumnDefault is the default of a column. Value is set for
// DefaultCustom only.
type ColumnDefault struct {
	Kind  DefaultKind
	Value string
}

// ForeignKey is a column reference to another table.
type ForeignKey struct {
	Table         string
	Column        string
	CascadeDelete bool
}

// ColumnBlueprint declares one column. Columns are NOT NULL unless
// Nullable is called.
type ColumnBlueprint struct {
	Name     string
	Type     ColumnType
	Default  *ColumnDefault
	After    string
	Unique   bool
	Primary  bool
	Null     bool
	Relation *ForeignKey
	Check    string
}

// NewColumn returns a column of the given type.
func NewColumn(name string, typ ColumnType) *ColumnBlueprint {
	return &ColumnBlueprint{Name: name, Type: typ}
}

// SetType changes the column type.
func (c *ColumnBlueprint) SetType(t ColumnType) *ColumnBlueprint {
	c.Type = t
	return c
}

func (c *ColumnBlueprint) setDefault(k DefaultKind, v string) *ColumnBlueprint {
	c.Default = &ColumnDefault{Kind: k, Value: v}
	return c
}

// DefaultRaw sets a literal default.
func (c *ColumnBlueprint) DefaultRaw(v string) *ColumnBlueprint {
	return c.setDefault(DefaultCustom, v)
}

// DefaultValue sets the default from a Go value, rendered through
// field.Value.Display.
func (c *ColumnBlueprint) DefaultValue(x any) *ColumnBlueprint {
	return c.setDefault(DefaultCustom, field.Of(x).Display())
}

// DefaultEmptyString defaults the column to ''.
func (c *ColumnBlueprint) DefaultEmptyString() *ColumnBlueprint {
	return c.setDefault(DefaultEmptyString, "")
}

// DefaultCreatedAt defaults the column to the insert time.
func (c *ColumnBlueprint) DefaultCreatedAt() *ColumnBlueprint {
	return c.setDefault(DefaultCreatedAt, "")
}

// DefaultUpdatedAt defaults the column to the insert time.
func (c *ColumnBlueprint) DefaultUpdatedAt() *ColumnBlueprint {
	return c.setDefault(DefaultUpdatedAt, "")
}

// DefaultZero defaults the column to 0.
func (c *ColumnBlueprint) DefaultZero() *ColumnBlueprint {
	return c.setDefault(DefaultZero, "")
}

// DefaultEmptyObject defaults a JSON column to {}.
func (c *ColumnBlueprint) DefaultEmptyObject() *ColumnBlueprint {
	return c.setDefault(DefaultEmptyObject, "")
}

// DefaultEmptyArray defaults a JSON column to [].
func (c *ColumnBlueprint) DefaultEmptyArray() *ColumnBlueprint {
	return c.setDefault(DefaultEmptyArray, "")
}

// DefaultUUID marks the column as filled with a generated UUID. Backends
// without a generator leave the value to the application.
func (c *ColumnBlueprint) DefaultUUID() *ColumnBlueprint {
	return c.setDefault(DefaultUUID, "")
}

// DefaultULID marks the column as filled with a generated ULID by the
// application.
func (c *ColumnBlueprint) DefaultULID() *ColumnBlueprint {
	return c.setDefault(DefaultULID, "")
}

// UnsetDefault removes the default.
func (c *ColumnBlueprint) UnsetDefault() *ColumnBlueprint {
	c.Default = nil
	return c
}

// SetAfter places the column after another one when altering a table, on
// backends that support column positions.
func (c *ColumnBlueprint) SetAfter(col string) *ColumnBlueprint {
	c.After = col
	return c
}

// SetUnique sets the unique flag.
func (c *ColumnBlueprint) SetUnique(unique bool) *ColumnBlueprint {
	c.Unique = unique
	return c
}

// Uniq marks the column unique.
func (c *ColumnBlueprint) Uniq() *ColumnBlueprint { return c.SetUnique(true) }

// SetPrimary marks the column as the primary key.
func (c *ColumnBlueprint) SetPrimary() *ColumnBlueprint {
	c.Primary = true
	return c
}

// SetCheck adds a CHECK constraint expression.
func (c *ColumnBlueprint) SetCheck(expr string) *ColumnBlueprint {
	c.Check = expr
	return c
}

// SetNullable sets whether the column accepts NULL.
func (c *ColumnBlueprint) SetNullable(null bool) *ColumnBlueprint {
	c.Null = null
	return c
}

// Nullable allows NULL.
func (c *ColumnBlueprint) Nullable() *ColumnBlueprint { return c.SetNullable(true) }

// References adds a foreign key to table.column.
func (c *ColumnBlueprint) References(table, column string, cascadeDelete bool) *ColumnBlueprint {
	c.Relation = &ForeignKey{Table: table, Column: column, CascadeDelete: cascadeDelete}
	return c
}

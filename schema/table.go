package schema

import (
	"github.com/syssam/dirtydb"
	"github.com/syssam/dirtydb/query"
)

// ULIDLength is the length of the string form of a ULID.
const ULIDLength = 26

// Conventional column names.
const (
	InternalIDColumn = "internal_id"
	IDColumn         = "id"
	CreatorIDColumn  = "creator_id"
	EditorIDColumn   = "editor_id"
	CreatedAtColumn  = "created_at"
	UpdatedAtColumn  = "updated_at"
	DeletedAtColumn  = query.DeletedAtColumn
)

// UserTable is the table Blame columns reference.
var UserTable = "core_user"

// TableBlueprint declares a table, or the changes to an existing one.
type TableBlueprint struct {
	Name    string
	NewName string
	Columns []*ColumnBlueprint
	Indexes []Index
	View    *query.Builder

	isNew bool
}

// NewTable returns the blueprint of a table to create.
func NewTable(name string) *TableBlueprint {
	return &TableBlueprint{Name: name, isNew: true}
}

// AlterTable returns the blueprint of changes to an existing table.
func AlterTable(name string) *TableBlueprint {
	return &TableBlueprint{Name: name}
}

// NewView returns the blueprint of a view selecting with q.
func NewView(name string, q *query.Builder) *TableBlueprint {
	return &TableBlueprint{Name: name, View: q, isNew: true}
}

// IsNew reports whether the blueprint creates the table.
func (t *TableBlueprint) IsNew() bool { return t.isNew }

// IsView reports whether the blueprint declares a view.
func (t *TableBlueprint) IsView() bool { return t.View != nil }

// Rename renames an existing table.
func (t *TableBlueprint) Rename(newName string) *TableBlueprint {
	t.NewName = newName
	return t
}

// Mixin applies the conventions of every mixin in order.
func (t *TableBlueprint) Mixin(ms ...Mixin) *TableBlueprint {
	for _, m := range ms {
		m.Apply(t)
	}
	return t
}

// Column appends a VARCHAR(255) column and lets fn adjust it.
func (t *TableBlueprint) Column(name string, fn func(*ColumnBlueprint)) *ColumnBlueprint {
	c := NewColumn(name, ColumnType{Kind: TypeString, Size: DefaultStringSize})
	if fn != nil {
		fn(c)
	}
	t.Columns = append(t.Columns, c)
	return c
}

// Lookup returns the column declared with name, or nil.
func (t *TableBlueprint) Lookup(name string) *ColumnBlueprint {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ColumnNames returns the declared column names in order.
func (t *TableBlueprint) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

func (t *TableBlueprint) typed(name string, typ ColumnType) *ColumnBlueprint {
	return t.Column(name, func(c *ColumnBlueprint) { c.SetType(typ) })
}

// Boolean adds a boolean column.
func (t *TableBlueprint) Boolean(name string) *ColumnBlueprint {
	return t.typed(name, ColumnType{Kind: TypeBoolean})
}

// Char adds a fixed length string column.
func (t *TableBlueprint) Char(name string, length int) *ColumnBlueprint {
	return t.typed(name, ColumnType{Kind: TypeChar, Size: length})
}

// Datetime adds a date and time column.
func (t *TableBlueprint) Datetime(name string) *ColumnBlueprint {
	return t.typed(name, ColumnType{Kind: TypeDatetime})
}

// Date adds a date column.
func (t *TableBlueprint) Date(name string) *ColumnBlueprint {
	return t.typed(name, ColumnType{Kind: TypeDate})
}

// Timestamp adds a timestamp column.
func (t *TableBlueprint) Timestamp(name string) *ColumnBlueprint {
	return t.typed(name, ColumnType{Kind: TypeTimestamp})
}

// Float adds a floating point column.
func (t *TableBlueprint) Float(name string) *ColumnBlueprint {
	return t.typed(name, ColumnType{Kind: TypeFloat})
}

// Integer adds an integer column.
func (t *TableBlueprint) Integer(name string) *ColumnBlueprint {
	return t.typed(name, ColumnType{Kind: TypeInteger})
}

// JSON adds a JSON column.
func (t *TableBlueprint) JSON(name string) *ColumnBlueprint {
	return t.typed(name, ColumnType{Kind: TypeJSON})
}

// Number adds a numeric column.
func (t *TableBlueprint) Number(name string) *ColumnBlueprint {
	return t.typed(name, ColumnType{Kind: TypeNumber})
}

// Enum adds a string column restricted to options.
func (t *TableBlueprint) Enum(name string, options ...string) *ColumnBlueprint {
	return t.typed(name, ColumnType{Kind: TypeEnum, Options: options})
}

// String adds a VARCHAR(255) column.
func (t *TableBlueprint) String(name string) *ColumnBlueprint {
	return t.SizedString(name, DefaultStringSize)
}

// SizedString adds a VARCHAR(length) column.
func (t *TableBlueprint) SizedString(name string, length int) *ColumnBlueprint {
	return t.typed(name, ColumnType{Kind: TypeString, Size: length})
}

// Text adds an unbounded text column.
func (t *TableBlueprint) Text(name string) *ColumnBlueprint {
	return t.typed(name, ColumnType{Kind: TypeText})
}

// Binary adds a binary column.
func (t *TableBlueprint) Binary(name string) *ColumnBlueprint {
	return t.typed(name, ColumnType{Kind: TypeBinary})
}

// UUID adds a UUID column.
func (t *TableBlueprint) UUID(name string) *ColumnBlueprint {
	return t.typed(name, ColumnType{Kind: TypeUUID})
}

// ULID adds a CHAR(26) column for a ULID.
func (t *TableBlueprint) ULID(name string) *ColumnBlueprint {
	return t.Char(name, ULIDLength)
}

// ID adds an auto-increment integer key named name, or "id".
func (t *TableBlueprint) ID(name string) *ColumnBlueprint {
	if name == "" {
		name = IDColumn
	}
	return t.typed(name, ColumnType{Kind: TypeAutoIncrementID})
}

// ColumnFKAs adds a column of type typ referencing foreignTable. An empty
// foreignColumn references "id".
func (t *TableBlueprint) ColumnFKAs(foreignTable, name string, cascadeDelete bool, foreignColumn string, typ ColumnType) *ColumnBlueprint {
	if foreignColumn == "" {
		foreignColumn = IDColumn
	}
	return t.typed(name, typ).References(foreignTable, foreignColumn, cascadeDelete)
}

// ULIDFK adds a ULID column referencing foreignTable.id, named by
// ToFKColumn.
func (t *TableBlueprint) ULIDFK(foreignTable string, cascadeDelete bool) *ColumnBlueprint {
	return t.ULIDFKAs(foreignTable, ToFKColumn(foreignTable, ""), cascadeDelete, "")
}

// ULIDFKAs adds a ULID column with an explicit name.
func (t *TableBlueprint) ULIDFKAs(foreignTable, name string, cascadeDelete bool, foreignColumn string) *ColumnBlueprint {
	return t.ColumnFKAs(foreignTable, name, cascadeDelete, foreignColumn, ColumnType{Kind: TypeChar, Size: ULIDLength})
}

// UUIDFK adds a UUID column referencing foreignTable.id.
func (t *TableBlueprint) UUIDFK(foreignTable string, cascadeDelete bool) *ColumnBlueprint {
	return t.UUIDFKAs(foreignTable, ToFKColumn(foreignTable, ""), cascadeDelete, "")
}

// UUIDFKAs adds a UUID column with an explicit name.
func (t *TableBlueprint) UUIDFKAs(foreignTable, name string, cascadeDelete bool, foreignColumn string) *ColumnBlueprint {
	return t.ColumnFKAs(foreignTable, name, cascadeDelete, foreignColumn, ColumnType{Kind: TypeUUID})
}

// IDFKAs adds an integer column with an explicit name.
func (t *TableBlueprint) IDFKAs(foreignTable, name string, cascadeDelete bool, foreignColumn string) *ColumnBlueprint {
	return t.ColumnFKAs(foreignTable, name, cascadeDelete, foreignColumn, ColumnType{Kind: TypeInteger})
}

// ULIDTableFK adds a ULID column referencing e's id column.
func (t *TableBlueprint) ULIDTableFK(e dirtydb.TableEntity, cascadeDelete bool) *ColumnBlueprint {
	return t.tableFK(e, cascadeDelete, ColumnType{Kind: TypeChar, Size: ULIDLength})
}

// UUIDTableFK adds a UUID column referencing e's id column.
func (t *TableBlueprint) UUIDTableFK(e dirtydb.TableEntity, cascadeDelete bool) *ColumnBlueprint {
	return t.tableFK(e, cascadeDelete, ColumnType{Kind: TypeUUID})
}

// IDTableFK adds an integer column referencing e's id column.
func (t *TableBlueprint) IDTableFK(e dirtydb.TableEntity, cascadeDelete bool) *ColumnBlueprint {
	return t.tableFK(e, cascadeDelete, ColumnType{Kind: TypeInteger})
}

func (t *TableBlueprint) tableFK(e dirtydb.TableEntity, cascadeDelete bool, typ ColumnType) *ColumnBlueprint {
	id := e.IDColumn()
	if id == "" {
		id = IDColumn
	}
	return t.ColumnFKAs(e.TableName(), ToFKColumn(e.TableName(), id), cascadeDelete, id, typ)
}

// IDSet adds the dual key: an auto-increment internal_id for joins and a
// unique ULID id exposed to clients.
func (t *TableBlueprint) IDSet() {
	t.ID(InternalIDColumn)
	t.ULID(IDColumn).Uniq()
}

// ULIDAsID adds a ULID primary key named name, or "id".
func (t *TableBlueprint) ULIDAsID(name string) *ColumnBlueprint {
	if name == "" {
		name = IDColumn
	}
	return t.ULID(name).Uniq().SetPrimary()
}

// UUIDIDSet adds an auto-increment internal_id and a UUID primary id.
func (t *TableBlueprint) UUIDIDSet() {
	t.ID(InternalIDColumn)
	t.UUIDAsID("")
}

// UUIDAsID adds a UUID primary key named name, or "id".
func (t *TableBlueprint) UUIDAsID(name string) *ColumnBlueprint {
	if name == "" {
		name = IDColumn
	}
	return t.UUID(name).Uniq().SetPrimary()
}

// CreatedAt adds created_at defaulting to the insert time.
func (t *TableBlueprint) CreatedAt() *ColumnBlueprint {
	return t.Timestamp(CreatedAtColumn).DefaultCreatedAt()
}

// UpdatedAt adds updated_at defaulting to the insert time.
func (t *TableBlueprint) UpdatedAt() *ColumnBlueprint {
	return t.Timestamp(UpdatedAtColumn).DefaultUpdatedAt()
}

// Timestamps adds created_at and updated_at.
func (t *TableBlueprint) Timestamps() {
	t.CreatedAt()
	t.UpdatedAt()
}

// Blame adds nullable creator_id and editor_id referencing UserTable.
func (t *TableBlueprint) Blame() {
	t.ULID(CreatorIDColumn).Nullable().References(UserTable, IDColumn, false)
	t.ULID(EditorIDColumn).Nullable().References(UserTable, IDColumn, false)
}

// SoftDeletable adds a nullable deleted_at.
func (t *TableBlueprint) SoftDeletable() *ColumnBlueprint {
	return t.Timestamp(DeletedAtColumn).Nullable()
}

func (t *TableBlueprint) index(kind IndexKind, columns []string) *TableBlueprint {
	t.Indexes = append(t.Indexes, Index{Kind: kind, Columns: columns})
	return t
}

// Index adds a plain index on columns.
func (t *TableBlueprint) Index(columns ...string) *TableBlueprint {
	return t.index(IndexPlain, columns)
}

// UniqueIndex adds a unique index on columns.
func (t *TableBlueprint) UniqueIndex(columns ...string) *TableBlueprint {
	return t.index(IndexUnique, columns)
}

// PrimaryIndex declares a composite primary key on columns.
func (t *TableBlueprint) PrimaryIndex(columns ...string) *TableBlueprint {
	return t.index(IndexPrimary, columns)
}

// DropIndex drops the plain or unique index on columns.
func (t *TableBlueprint) DropIndex(columns ...string) *TableBlueprint {
	t.Indexes = append(t.Indexes, Index{Kind: IndexPlain, Columns: columns, Drop: true})
	return t
}

// DropUniqueIndex drops the unique index on columns.
func (t *TableBlueprint) DropUniqueIndex(columns ...string) *TableBlueprint {
	t.Indexes = append(t.Indexes, Index{Kind: IndexUnique, Columns: columns, Drop: true})
	return t
}

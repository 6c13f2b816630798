package mixin

import "github.com/syssam/dirtydb/schema"

// Schema is the default implementation for the schema.Mixin interface.
// It should be embedded in all custom mixin definitions.
type Schema struct{}

// Apply adds nothing. Override this method to add columns and indexes.
func (Schema) Apply(*schema.TableBlueprint) {}

// schema mixin must implement `Mixin` interface.
var _ schema.Mixin = (*Schema)(nil)

// IDSet adds the dual key pattern: an auto-increment internal_id used by
// joins and a unique ULID id exposed to clients.
type IDSet struct {
	Schema
}

// Apply adds internal_id and id.
func (IDSet) Apply(t *schema.TableBlueprint) { t.IDSet() }

// UUIDIDSet is IDSet with a UUID primary id.
type UUIDIDSet struct {
	Schema
}

// Apply adds internal_id and id.
func (UUIDIDSet) Apply(t *schema.TableBlueprint) { t.UUIDIDSet() }

// Time adds created_at and updated_at timestamp columns.
type Time struct {
	Schema
}

// Apply adds the timestamp columns.
func (Time) Apply(t *schema.TableBlueprint) { t.Timestamps() }

// CreateTime adds only created_at.
type CreateTime struct {
	Schema
}

// Apply adds created_at.
func (CreateTime) Apply(t *schema.TableBlueprint) { t.CreatedAt() }

// UpdateTime adds only updated_at.
type UpdateTime struct {
	Schema
}

// Apply adds updated_at.
func (UpdateTime) Apply(t *schema.TableBlueprint) { t.UpdatedAt() }

// SoftDelete adds a nullable deleted_at. Rows with a value are treated as
// deleted by query.Builder.WithoutTrash.
type SoftDelete struct {
	Schema
}

// Apply adds deleted_at.
func (SoftDelete) Apply(t *schema.TableBlueprint) { t.SoftDeletable() }

// TimeSoftDelete combines Time and SoftDelete.
type TimeSoftDelete struct {
	Schema
}

// Apply adds created_at, updated_at and deleted_at.
func (TimeSoftDelete) Apply(t *schema.TableBlueprint) {
	Time{}.Apply(t)
	SoftDelete{}.Apply(t)
}

// Blame adds nullable creator_id and editor_id columns referencing the
// user table.
type Blame struct {
	Schema
}

// Apply adds the blame columns.
func (Blame) Apply(t *schema.TableBlueprint) { t.Blame() }

// TenantID adds an indexed tenant_id ULID column. Table, when set, adds a
// foreign key to that table's id.
type TenantID struct {
	Schema
	Table string
}

// Apply adds tenant_id.
func (m TenantID) Apply(t *schema.TableBlueprint) {
	if m.Table != "" {
		t.ULIDFKAs(m.Table, "tenant_id", true, "")
	} else {
		t.ULID("tenant_id")
	}
	t.Index("tenant_id")
}

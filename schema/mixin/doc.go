// Package mixin provides reusable column conventions for table blueprints.
//
// # Built-in Mixins
//
//	mixin.IDSet{}          // internal_id (auto-increment) + id (ULID, unique)
//	mixin.UUIDIDSet{}      // internal_id (auto-increment) + id (UUID, primary)
//	mixin.Time{}           // created_at, updated_at
//	mixin.SoftDelete{}     // deleted_at (nullable)
//	mixin.TimeSoftDelete{} // Time and SoftDelete
//	mixin.Blame{}          // creator_id, editor_id (nullable, reference users)
//	mixin.TenantID{}       // tenant_id (ULID, indexed)
//
// # Using Mixins
//
//	m.CreateTableSchema(ctx, "posts", func(t *schema.TableBlueprint) {
//	    t.Mixin(mixin.IDSet{}, mixin.Time{}, mixin.SoftDelete{})
//	    t.String("title")
//	})
//
// Mixins are applied in the order they are listed, so their columns come
// first in the table.
//
// # Creating Custom Mixins
//
// Embed Schema and override Apply:
//
//	type Audit struct{ mixin.Schema }
//
//	func (Audit) Apply(t *schema.TableBlueprint) {
//	    t.String("created_by").Nullable()
//	    t.String("updated_by").Nullable()
//	}
//
// or wrap a function with schema.MixinFunc.
package mixin

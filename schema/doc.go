// Package schema provides the declarative table blueprints consumed by
// the schema surface of the manager.
//
// A TableBlueprint is an ordered list of typed column declarations plus
// indexes. It is built once per migration step and compiled into DDL by
// dialect/sql/schema:
//
//	m.CreateTableSchema(ctx, "posts", func(t *schema.TableBlueprint) {
//	    t.IDSet()                     // internal_id + ULID id
//	    t.ULIDFK("users", true)       // user_id -> users.id ON DELETE CASCADE
//	    t.String("title")
//	    t.Text("body").Nullable()
//	    t.Enum("status", "draft", "published").DefaultValue("draft")
//	    t.Timestamps()                // created_at, updated_at
//	    t.SoftDeletable()             // deleted_at
//	    t.Index("status", "created_at")
//	})
//
// # Column Types
//
//	t.ID("internal_id")     // auto-increment integer key
//	t.String("name")        // VARCHAR(255)
//	t.SizedString("c", 32)  // VARCHAR(32)
//	t.Char("code", 2)       // CHAR(2)
//	t.Text("bio")           // TEXT
//	t.Integer("count")      // INTEGER / BIGINT
//	t.Number("price")       // DOUBLE / NUMERIC
//	t.Boolean("active")     // BOOLEAN
//	t.JSON("meta")          // JSON / TEXT
//	t.Datetime("seen_at")   // DATETIME / TIMESTAMP
//	t.Binary("blob")        // BLOB / BYTEA
//	t.UUID("token")         // UUID / BLOB
//
// # Foreign Keys
//
// Foreign key columns are named by ToFKColumn: the referenced table is
// singularized and snake cased, then "_" and the referenced id column are
// appended ("users" -> "user_id", "addresses" -> "address_id").
//
// # Conventions
//
// IDSet, Timestamps, SoftDeletable and Blame expand to the conventional
// column sets. The mixin package wraps them for reuse across tables.
package schema

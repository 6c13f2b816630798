// Package dirtydb is a backend-agnostic relational database layer.
//
// The root package holds the pieces every other package agrees on: the
// entity contract (TableEntity, FromColumnAndValue, ToColumnAndValue), the
// error types and the result cache interface.
//
// # Layout
//
//   - field:      the tagged column value and column maps
//   - query:      dialect-neutral statement descriptions
//   - schema:     declarative table blueprints
//   - dialect:    backends, drivers, SQL compilers and connectors
//   - manager:    pool routing with sticky reads and the query surface
//   - relation:   has-one/many, belongs-to, pivot and morph resolvers
//   - migrate:    the migration runner
//   - privacy:    statement authorization rules evaluated by the manager
//
// # Entities
//
// A record type describes its table by implementing TableEntity. Embedding
// Table provides empty defaults for the optional conventional columns:
//
//	type Post struct {
//	    dirtydb.Table
//	    ID     string
//	    UserID string
//	    Title  string
//	}
//
//	func (Post) TableName() string      { return "posts" }
//	func (Post) TableColumns() []string { return []string{"id", "user_id", "title"} }
//	func (Post) IDColumn() string       { return "id" }
//
//	func (p Post) ToColumnAndValue() field.ColumnAndValue {
//	    return field.NewBuilder().
//	        Insert("id", p.ID).
//	        Insert("user_id", p.UserID).
//	        Insert("title", p.Title).
//	        Build()
//	}
//
//	func (p *Post) FromColumnAndValue(cv field.ColumnAndValue) error {
//	    p.ID = cv.Get("id").String()
//	    p.UserID = cv.Get("user_id").String()
//	    p.Title = cv.Get("title").String()
//	    return nil
//	}
//
// cmd/dirtygen writes these methods from a YAML description.
package dirtydb

// Package query describes SQL statements without committing to a dialect.
//
// A Builder carries a table, an action (select, insert, upsert, update,
// delete or one of the table/column alterations), an ordered list of
// conditions, joins, ordering and paging. Building never fails; the
// dialect/sql package compiles a Builder into a statement and arguments,
// and the manager package executes it.
//
//	q := query.Select("posts").
//	    Eq("user_id", "abc").
//	    OrIsNull("published_at").
//	    Desc("created_at").
//	    Limit(10)
//
// Conditions keep insertion order. The first condition has no join
// operator, every helper without an Or prefix joins with AND.
package query

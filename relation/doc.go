// Package relation resolves related records through a manager.
//
// Each relation kind builds a select on the related table constrained
// by key values taken from the record it starts at:
//
//   - HasOne and HasMany: children whose foreign key holds the parent id.
//   - BelongsTo: the parent whose id is the child's foreign key.
//   - BelongsToMany: parents linked through a pivot table.
//   - HasOneThrough and HasManyThrough: children linked through a pivot.
//   - MorphOne, MorphMany and MorphTo: polymorphic relations keyed by an
//     id column and a type column holding the related table name.
//
// Every relation has ConstrainKey, One and Get, plus OneRow and GetRows
// for the structured rows. A missing relation is nil or empty, never an
// error.
//
//	posts, err := relation.NewHasMany[Post](m, User{}).
//		ConstrainKey(user.ID).
//		Get(ctx)
package relation

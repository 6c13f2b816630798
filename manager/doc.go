// Package manager routes statements to the connection pools of one or
// more database backends.
//
// Each backend has a write pool and an optional read pool. Writes always
// run on the write pool. After a successful write the manager records the
// time in its Registry and publishes a SchemeWroteEvent to subscribers.
// A read runs on the write pool while the backend is inside its sticky
// window (now minus last write is less than the sticky duration), and on
// the read pool otherwise, so a client reads its own writes despite
// replica lag.
//
//	set, err := config.Load("database.yaml")
//	if err != nil {
//		return err
//	}
//	m := manager.MustOpen(ctx, set, manager.WithLogger(logger))
//	defer m.Close()
//
//	err = m.CreateTableSchema(ctx, "users", func(t *schema.TableBlueprint) {
//		t.IDSet()
//		t.String("name")
//	})
//	err = m.Insert(ctx, "users", field.NewBuilder().Insert("name", "Ada").Build())
//	rows, err := m.SelectFromTable("users", func(q *query.Builder) {
//		q.Eq("name", "Ada")
//	}).All(ctx)
//
// WithPolicy installs privacy rules that see every builder the manager
// compiles, so a tenant filter scopes selects, updates and deletes alike.
//
// The backend packages must be imported for Open to find their
// connectors:
//
//	import _ "github.com/syssam/dirtydb/dialect/sqlite"
package manager

package manager

import (
	"context"

	"github.com/syssam/dirtydb/query"
)

// authorize evaluates the policy on a copy of b, since filter rules add
// conditions to it. On denial the original builder is returned with the
// decision.
func (m *Manager) authorize(ctx context.Context, b *query.Builder) (*query.Builder, error) {
	if len(m.policy) == 0 {
		return b, nil
	}
	c := b.Clone()
	var err error
	switch c.Action() {
	case query.ActionSelect:
		err = m.policy.EvalQuery(ctx, c)
	case query.ActionInsert, query.ActionUpsert, query.ActionUpdate, query.ActionDelete:
		err = m.policy.EvalMutation(ctx, c)
	default:
		return b, nil
	}
	if err != nil {
		m.logger.DebugContext(ctx, "statement denied by policy",
			"table", b.Table(), "action", b.Action().String(), "error", err)
		return b, err
	}
	return c, nil
}

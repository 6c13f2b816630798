package privacy

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/syssam/dirtydb/query"
)

// Decisions returned by rules. Rules may wrap them; evaluation matches
// with errors.Is.
var (
	// Allow ends the evaluation and lets the statement run.
	Allow = errors.New("dirtydb/privacy: allow rule")

	// Deny ends the evaluation and rejects the statement.
	Deny = errors.New("dirtydb/privacy: deny rule")

	// Skip passes the statement to the next rule.
	Skip = errors.New("dirtydb/privacy: skip rule")
)

// Allowf returns a formatted wrapped Allow decision.
func Allowf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Allow)...)
}

// Denyf returns a formatted wrapped Deny decision.
func Denyf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Deny)...)
}

// Skipf returns a formatted wrapped Skip decision.
func Skipf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Skip)...)
}

// AlwaysAllowRule returns a rule that always returns an Allow decision.
func AlwaysAllowRule() QueryMutationRule {
	return fixedDecision{Allow}
}

// AlwaysDenyRule returns a rule that always returns a Deny decision.
func AlwaysDenyRule() QueryMutationRule {
	return fixedDecision{Deny}
}

// ContextQueryMutationRule returns a rule deciding from the context alone.
// A nil result counts as Skip.
func ContextQueryMutationRule(eval func(context.Context) error) QueryMutationRule {
	return contextDecision{eval}
}

type (
	// QueryRule decides whether a select is allowed and may add
	// conditions to it.
	QueryRule interface {
		EvalQuery(context.Context, *query.Builder) error
	}

	// QueryPolicy combines multiple query rules into a single policy.
	QueryPolicy []QueryRule

	// MutationRule decides whether a write is allowed and may add
	// conditions to it.
	MutationRule interface {
		EvalMutation(context.Context, *query.Builder) error
	}

	// MutationPolicy combines multiple mutation rules into a single policy.
	MutationPolicy []MutationRule

	// QueryMutationRule is an interface which groups query and mutation rules.
	QueryMutationRule interface {
		QueryRule
		MutationRule
	}
)

// QueryRuleFunc type is an adapter which allows the use of
// ordinary functions as query rules.
type QueryRuleFunc func(context.Context, *query.Builder) error

// EvalQuery returns f(ctx, q).
func (f QueryRuleFunc) EvalQuery(ctx context.Context, q *query.Builder) error {
	return f(ctx, q)
}

// MutationRuleFunc type is an adapter which allows the use of
// ordinary functions as mutation rules.
type MutationRuleFunc func(context.Context, *query.Builder) error

// EvalMutation returns f(ctx, m).
func (f MutationRuleFunc) EvalMutation(ctx context.Context, m *query.Builder) error {
	return f(ctx, m)
}

// OnMutationOperation evaluates the given rule only on the given actions.
func OnMutationOperation(rule MutationRule, actions ...query.Action) MutationRule {
	return MutationRuleFunc(func(ctx context.Context, m *query.Builder) error {
		if slices.Contains(actions, m.Action()) {
			return rule.EvalMutation(ctx, m)
		}
		return Skip
	})
}

// DenyMutationOperationRule returns a rule denying the given actions.
func DenyMutationOperationRule(actions ...query.Action) MutationRule {
	rule := MutationRuleFunc(func(_ context.Context, m *query.Builder) error {
		return Denyf("dirtydb/privacy: operation %s is not allowed", m.Action())
	})
	return OnMutationOperation(rule, actions...)
}

// AllowMutationOperationRule returns a rule allowing the given actions.
func AllowMutationOperationRule(actions ...query.Action) MutationRule {
	rule := MutationRuleFunc(func(context.Context, *query.Builder) error {
		return Allow
	})
	return OnMutationOperation(rule, actions...)
}

// OnTable evaluates rule only on statements against one of tables.
func OnTable(rule QueryMutationRule, tables ...string) QueryMutationRule {
	return tableRule{rule: rule, tables: tables}
}

type tableRule struct {
	rule   QueryMutationRule
	tables []string
}

func (t tableRule) EvalQuery(ctx context.Context, q *query.Builder) error {
	if !slices.Contains(t.tables, q.Table()) {
		return Skip
	}
	return t.rule.EvalQuery(ctx, q)
}

func (t tableRule) EvalMutation(ctx context.Context, m *query.Builder) error {
	if !slices.Contains(t.tables, m.Table()) {
		return Skip
	}
	return t.rule.EvalMutation(ctx, m)
}

// Policy groups query and mutation policies.
type Policy struct {
	Query    QueryPolicy
	Mutation MutationPolicy
}

// EvalQuery forwards evaluation to query a policy.
func (p Policy) EvalQuery(ctx context.Context, q *query.Builder) error {
	return p.Query.EvalQuery(ctx, q)
}

// EvalMutation forwards evaluation to mutate a policy.
func (p Policy) EvalMutation(ctx context.Context, m *query.Builder) error {
	return p.Mutation.EvalMutation(ctx, m)
}

// Policies combines multiple policies into a single policy. A statement
// every policy skips is allowed; end a policy with AlwaysDenyRule to
// deny by default.
type Policies []QueryMutationRule

// EvalQuery evaluates the query policies. If the Allow error is returned
// from one of the policies, it stops the evaluation with a nil error.
func (policies Policies) EvalQuery(ctx context.Context, q *query.Builder) error {
	return policies.eval(ctx, func(policy QueryMutationRule) error {
		return policy.EvalQuery(ctx, q)
	})
}

// EvalMutation evaluates the mutation policies. If the Allow error is returned
// from one of the policies, it stops the evaluation with a nil error.
func (policies Policies) EvalMutation(ctx context.Context, m *query.Builder) error {
	return policies.eval(ctx, func(policy QueryMutationRule) error {
		return policy.EvalMutation(ctx, m)
	})
}

func (policies Policies) eval(ctx context.Context, eval func(QueryMutationRule) error) error {
	if decision, ok := DecisionFromContext(ctx); ok {
		return decision
	}
	for _, policy := range policies {
		switch decision := eval(policy); {
		case decision == nil || errors.Is(decision, Skip):
		case errors.Is(decision, Allow):
			return nil
		default:
			return decision
		}
	}
	return nil
}

// EvalQuery evaluates a query against a query policy.
func (policies QueryPolicy) EvalQuery(ctx context.Context, q *query.Builder) error {
	for _, policy := range policies {
		switch decision := policy.EvalQuery(ctx, q); {
		case decision == nil || errors.Is(decision, Skip):
		default:
			return decision
		}
	}
	return nil
}

// EvalMutation evaluates a mutation against a mutation policy.
func (policies MutationPolicy) EvalMutation(ctx context.Context, m *query.Builder) error {
	for _, policy := range policies {
		switch decision := policy.EvalMutation(ctx, m); {
		case decision == nil || errors.Is(decision, Skip):
		default:
			return decision
		}
	}
	return nil
}

type decisionCtxKey struct{}

// DecisionContext creates a new context from the given parent context with
// a policy decision attach to it.
func DecisionContext(parent context.Context, decision error) context.Context {
	if decision == nil || errors.Is(decision, Skip) {
		return parent
	}
	return context.WithValue(parent, decisionCtxKey{}, decision)
}

// DecisionFromContext retrieves the policy decision from the context.
func DecisionFromContext(ctx context.Context) (error, bool) {
	decision, ok := ctx.Value(decisionCtxKey{}).(error)
	if ok && errors.Is(decision, Allow) {
		decision = nil
	}
	return decision, ok
}

type fixedDecision struct {
	decision error
}

func (f fixedDecision) EvalQuery(context.Context, *query.Builder) error {
	return f.decision
}

func (f fixedDecision) EvalMutation(context.Context, *query.Builder) error {
	return f.decision
}

type contextDecision struct {
	eval func(context.Context) error
}

func (c contextDecision) EvalQuery(ctx context.Context, _ *query.Builder) error {
	return c.eval(ctx)
}

func (c contextDecision) EvalMutation(ctx context.Context, _ *query.Builder) error {
	return c.eval(ctx)
}

// FilterFunc is an adapter that allows using ordinary functions as
// query/mutation rules that add conditions to selects, updates and
// deletes. Other writes are skipped.
//
//	privacy.FilterFunc(func(ctx context.Context, q *query.Builder) error {
//	    q.Scope(func(s *query.Builder) { s.Eq("workspace_id", workspaceID) })
//	    return privacy.Skip
//	})
type FilterFunc func(context.Context, *query.Builder) error

// EvalQuery calls f(ctx, q).
func (f FilterFunc) EvalQuery(ctx context.Context, q *query.Builder) error {
	return f(ctx, q)
}

// EvalMutation calls f(ctx, m) on updates and deletes.
func (f FilterFunc) EvalMutation(ctx context.Context, m *query.Builder) error {
	switch m.Action() {
	case query.ActionUpdate, query.ActionDelete:
		return f(ctx, m)
	default:
		return Skip
	}
}

var _ QueryMutationRule = FilterFunc(nil)

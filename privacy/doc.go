// Package privacy provides statement-level authorization for a manager.
//
// Rules run before a statement is compiled and may allow it, deny it, or
// add conditions to it. Selects are evaluated as queries and every other
// action as a mutation:
//
//	m, err := manager.New(pools, manager.WithPolicy(
//	    privacy.DenyIfNoViewer(),
//	    privacy.TenantFilter("tenant_id"),
//	    privacy.OnTable(privacy.AlwaysDenyRule(), "audit_log"),
//	))
//
// # Rule Evaluation
//
// Rules are evaluated in order until one returns a final decision:
//
//   - Allow: Grants access and stops evaluation
//   - Deny: Denies access and stops evaluation
//   - Skip: Continues to the next rule
//
// A statement every rule skips is allowed.
//
// # Built-in Rules
//
//   - DenyIfNoViewer: Denies if no viewer is present in context
//   - AlwaysAllowRule, AlwaysDenyRule: fixed decisions
//   - HasRole, HasAnyRole: Allows if the viewer has a role
//   - IsOwner: Allows writes of rows owned by the viewer
//   - TenantRule, TenantQueryRule, TenantFilter: multi-tenant isolation
//   - OnTable, OnMutationOperation: narrow a rule to tables or actions
//
// Blueprint DDL and raw statements are not evaluated.
package privacy

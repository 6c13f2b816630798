package privacy

import (
	"context"
	"slices"

	"github.com/syssam/dirtydb/field"
	"github.com/syssam/dirtydb/query"
)

// Viewer represents the authenticated user making a request.
// This interface should be implemented by application-specific user types.
type Viewer interface {
	// GetID returns the viewer's unique identifier.
	GetID() string
	// GetRoles returns the viewer's roles.
	GetRoles() []string
	// GetTenantID returns the viewer's tenant identifier for multi-tenancy.
	// Returns empty string if not applicable.
	GetTenantID() string
}

// viewerCtxKey is the context key for storing the viewer.
type viewerCtxKey struct{}

// WithViewer returns a new context with the viewer attached.
func WithViewer(ctx context.Context, viewer Viewer) context.Context {
	return context.WithValue(ctx, viewerCtxKey{}, viewer)
}

// ViewerFromContext retrieves the viewer from the context.
// Returns nil if no viewer is present.
func ViewerFromContext(ctx context.Context) Viewer {
	v, _ := ctx.Value(viewerCtxKey{}).(Viewer)
	return v
}

// SimpleViewer is a basic implementation of the Viewer interface.
type SimpleViewer struct {
	UserID   string
	Roles    []string
	TenantID string
}

// GetID returns the user ID.
func (v *SimpleViewer) GetID() string {
	return v.UserID
}

// GetRoles returns the user's roles.
func (v *SimpleViewer) GetRoles() []string {
	return v.Roles
}

// GetTenantID returns the tenant ID.
func (v *SimpleViewer) GetTenantID() string {
	return v.TenantID
}

// DenyIfNoViewer returns a rule that denies access if no viewer is present in the context.
// This is typically used as the first rule in a policy to require authentication.
func DenyIfNoViewer() QueryMutationRule {
	return ContextQueryMutationRule(func(ctx context.Context) error {
		if ViewerFromContext(ctx) == nil {
			return Denyf("privacy: viewer required")
		}
		return Skip
	})
}

// HasRole returns a rule that allows access if the viewer has the specified role.
// Skips if the viewer doesn't have the role.
func HasRole(role string) QueryMutationRule {
	return HasAnyRole(role)
}

// HasAnyRole returns a rule that allows access if the viewer has any of the specified roles.
// Skips if the viewer doesn't have any of the roles.
//
//	manager.WithPolicy(
//	    privacy.DenyIfNoViewer(),
//	    privacy.HasAnyRole("admin", "moderator"),
//	    privacy.AlwaysDenyRule(),
//	)
func HasAnyRole(roles ...string) QueryMutationRule {
	return ContextQueryMutationRule(func(ctx context.Context) error {
		viewer := ViewerFromContext(ctx)
		if viewer == nil {
			return Skip
		}
		viewerRoles := viewer.GetRoles()
		for _, role := range roles {
			if slices.Contains(viewerRoles, role) {
				return Allow
			}
		}
		return Skip
	})
}

// IsOwner returns a mutation rule that allows a write when every row it
// writes holds the viewer's id in column. Deletes and writes that do not
// set column are skipped.
func IsOwner(column string) MutationRule {
	return MutationRuleFunc(func(ctx context.Context, m *query.Builder) error {
		viewer := ViewerFromContext(ctx)
		if viewer == nil {
			return Skip
		}
		rows := written(m)
		if len(rows) == 0 {
			return Skip
		}
		for _, row := range rows {
			v, ok := row[column]
			if !ok || v.String() != viewer.GetID() {
				return Skip
			}
		}
		return Allow
	})
}

// TenantRule returns a mutation rule for multi-tenant isolation. A write
// whose rows all hold the viewer's tenant in column is allowed, one
// holding another tenant is denied. Writes not setting column are
// skipped.
func TenantRule(column string) MutationRule {
	return MutationRuleFunc(func(ctx context.Context, m *query.Builder) error {
		viewer := ViewerFromContext(ctx)
		if viewer == nil || viewer.GetTenantID() == "" {
			return Skip
		}
		rows := written(m)
		set := 0
		for _, row := range rows {
			v, ok := row[column]
			if !ok {
				continue
			}
			if v.String() != viewer.GetTenantID() {
				return Denyf("privacy: tenant mismatch")
			}
			set++
		}
		if set == 0 || set != len(rows) {
			return Skip
		}
		return Allow
	})
}

// TenantQueryRule returns a query rule that denies queries if no viewer
// or tenant is present. Use this as a guard in front of TenantFilter.
func TenantQueryRule() QueryRule {
	return QueryRuleFunc(func(ctx context.Context, _ *query.Builder) error {
		viewer := ViewerFromContext(ctx)
		if viewer == nil {
			return Denyf("privacy: viewer required for tenant-filtered query")
		}
		if viewer.GetTenantID() == "" {
			return Denyf("privacy: tenant required")
		}
		return Skip
	})
}

// TenantFilter returns a filter scoping selects, updates and deletes to
// the rows whose column holds the viewer's tenant. Statements without a
// viewer tenant are left untouched.
func TenantFilter(column string) FilterFunc {
	return func(ctx context.Context, q *query.Builder) error {
		viewer := ViewerFromContext(ctx)
		if viewer == nil || viewer.GetTenantID() == "" {
			return Skip
		}
		q.Scope(func(s *query.Builder) { s.Eq(q.Table()+"."+column, viewer.GetTenantID()) })
		return Skip
	}
}

// written returns the rows a write sets: the inserted rows, or the
// assignments of an update.
func written(m *query.Builder) []field.ColumnAndValue {
	switch m.Action() {
	case query.ActionInsert, query.ActionUpsert:
		return m.Rows()
	case query.ActionUpdate:
		return []field.ColumnAndValue{m.Values()}
	default:
		return nil
	}
}

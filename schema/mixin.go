package schema

// Mixin is a reusable set of column conventions applied to a blueprint.
// See package schema/mixin for the built-in ones.
type Mixin interface {
	Apply(*TableBlueprint)
}

// MixinFunc adapts a function to Mixin.
type MixinFunc func(*TableBlueprint)

// Apply calls f(t).
func (f MixinFunc) Apply(t *TableBlueprint) { f(t) }

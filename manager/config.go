package manager

import (
	"context"

	"github.com/syssam/dirtydb/config"
)

// ApplyConfig updates the sticky settings of the open backends from set.
// Pools are not reopened: URL and size changes need a new Manager, and
// backends missing from set keep their settings.
func (m *Manager) ApplyConfig(set *config.ConfigSet) {
	for _, c := range set.Clients {
		b, ok := m.backends[c.Kind()]
		if !ok || c.Write == nil {
			continue
		}
		b.setSticky(c.Write.Sticky, c.Write.StickyWindow())
		m.logger.Info("sticky settings updated", "kind", b.kind, "sticky", c.Write.Sticky, "duration", c.Write.StickyWindow())
	}
}

// Watch applies the configuration file at path every time it changes,
// until ctx is done. Files that fail to load are logged and skipped.
func (m *Manager) Watch(ctx context.Context, path string) error {
	return config.Watch(ctx, path, func(set *config.ConfigSet, err error) {
		if err != nil {
			m.logger.ErrorContext(ctx, "configuration reload failed", "path", path, "error", err)
			return
		}
		m.ApplyConfig(set)
	})
}

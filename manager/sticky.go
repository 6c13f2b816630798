package manager

import (
	"sync"
	"time"

	"github.com/syssam/dirtydb/dialect"
)

// Registry records the time of the last successful write per backend.
// Reads consult it far more often than writes update it.
type Registry struct {
	mu   sync.RWMutex
	last map[dialect.Kind]time.Time
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{last: make(map[dialect.Kind]time.Time)}
}

// Touch records a write to kind at ts. Concurrent writers race and the
// last one wins.
func (r *Registry) Touch(kind dialect.Kind, ts time.Time) {
	r.mu.Lock()
	r.last[kind] = ts
	r.mu.Unlock()
}

// LastWrite returns the time of the last write to kind.
func (r *Registry) LastWrite(kind dialect.Kind) (time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ts, ok := r.last[kind]
	return ts, ok
}

// WithinWindow reports whether now - lastWrite(kind) < window.
func (r *Registry) WithinWindow(kind dialect.Kind, now time.Time, window time.Duration) bool {
	ts, ok := r.LastWrite(kind)
	if !ok {
		return false
	}
	return now.Sub(ts) < window
}

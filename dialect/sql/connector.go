package sql

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/syssam/dirtydb/config"
	"github.com/syssam/dirtydb/dialect"
)

// Connector opens a pool for a configuration of its backend.
type Connector interface {
	Open(ctx context.Context, cfg config.BaseConfig) (*Driver, error)
}

// ConnectorFunc adapts a function to Connector.
type ConnectorFunc func(ctx context.Context, cfg config.BaseConfig) (*Driver, error)

// Open calls f.
func (f ConnectorFunc) Open(ctx context.Context, cfg config.BaseConfig) (*Driver, error) {
	return f(ctx, cfg)
}

var (
	connectorsMu sync.RWMutex
	connectors   = make(map[dialect.Kind]Connector)
)

// Register makes a connector available for kind. The backend packages
// register themselves on import. Registering a kind twice replaces the
// previous connector.
func Register(kind dialect.Kind, c Connector) {
	connectorsMu.Lock()
	defer connectorsMu.Unlock()
	if c == nil {
		panic("dialect/sql: Register connector is nil")
	}
	connectors[kind] = c
}

// Connectors returns the registered kinds in order.
func Connectors() []dialect.Kind {
	connectorsMu.RLock()
	defer connectorsMu.RUnlock()
	kinds := make([]dialect.Kind, 0, len(connectors))
	for k := range connectors {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// OpenConfig opens a pool with the connector registered for cfg.Kind.
func OpenConfig(ctx context.Context, cfg config.BaseConfig) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	connectorsMu.RLock()
	c, ok := connectors[cfg.Kind]
	connectorsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("dialect/sql: no connector for %q (forgotten import?)", cfg.Kind)
	}
	drv, err := c.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: open %s %s pool: %w", cfg.Kind, cfg.ClientType, err)
	}
	return drv, nil
}

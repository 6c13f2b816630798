package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/syssam/dirtydb/dialect"
)

// Defaults of a BaseConfig.
const (
	DefaultURL            = "sqlite::memory:"
	DefaultMax            = 2
	DefaultStickyDuration = 10
	DefaultBusyTimeout    = 60
	DefaultClient         = "main"
)

// BaseConfig configures one pool.
type BaseConfig struct {
	Enable     bool               `yaml:"enable"`
	Kind       dialect.Kind       `yaml:"kind"`
	ClientType dialect.ClientType `yaml:"client_type"`
	URL        string             `yaml:"url"`
	Max        int                `yaml:"max"`
	Sticky     bool               `yaml:"sticky"`
	// StickyDuration is in seconds.
	StickyDuration int  `yaml:"sticky_duration"`
	ForeignKey     bool `yaml:"foreign_key"`
	// BusyTimeout is in seconds. sqlite only.
	BusyTimeout int               `yaml:"busy_timeout"`
	Custom      map[string]string `yaml:"custom,omitempty"`
}

// Default returns the in-memory sqlite write pool configuration.
func Default() BaseConfig {
	return BaseConfig{
		Enable:         true,
		Kind:           dialect.SQLite,
		ClientType:     dialect.Write,
		URL:            DefaultURL,
		Max:            DefaultMax,
		Sticky:         true,
		StickyDuration: DefaultStickyDuration,
		ForeignKey:     true,
		BusyTimeout:    DefaultBusyTimeout,
	}
}

// StickyWindow returns the sticky read window, or 0 when sticky reads are
// disabled.
func (c BaseConfig) StickyWindow() time.Duration {
	if !c.Sticky {
		return 0
	}
	return time.Duration(c.StickyDuration) * time.Second
}

// BusyTimeoutDuration returns the sqlite busy timeout.
func (c BaseConfig) BusyTimeoutDuration() time.Duration {
	return time.Duration(c.BusyTimeout) * time.Second
}

// IsInMemory reports whether the pool is an in-memory sqlite database.
func (c BaseConfig) IsInMemory() bool {
	return c.Kind == dialect.SQLite && (c.URL == DefaultURL || strings.Contains(c.URL, ":memory:") || strings.Contains(c.URL, "mode=memory"))
}

// Validate checks the fields a connector relies on.
func (c BaseConfig) Validate() error {
	var errs []string
	if _, err := dialect.ParseKind(string(c.Kind)); err != nil {
		errs = append(errs, err.Error())
	}
	if _, err := dialect.ParseClientType(string(c.ClientType)); err != nil {
		errs = append(errs, err.Error())
	}
	if strings.TrimSpace(c.URL) == "" {
		errs = append(errs, "url is required")
	}
	if c.Max < 1 {
		errs = append(errs, "max must be at least 1")
	}
	if c.StickyDuration < 0 || c.BusyTimeout < 0 {
		errs = append(errs, "durations must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %s %s: %s", c.Kind, c.ClientType, strings.Join(errs, "; "))
	}
	return nil
}

// ClientConfig holds the pools of one database. Read is optional; without
// it every statement uses Write.
type ClientConfig struct {
	Write *BaseConfig `yaml:"write"`
	Read  *BaseConfig `yaml:"read,omitempty"`
}

// Kind returns the kind of the write pool.
func (c ClientConfig) Kind() dialect.Kind {
	if c.Write == nil {
		return ""
	}
	return c.Write.Kind
}

// Pools returns the enabled pools, write first.
func (c ClientConfig) Pools() []BaseConfig {
	var out []BaseConfig
	for _, p := range []*BaseConfig{c.Write, c.Read} {
		if p != nil && p.Enable {
			out = append(out, *p)
		}
	}
	return out
}

// ConfigSet is the content of a database.yaml file.
type ConfigSet struct {
	Default string                  `yaml:"default"`
	Clients map[string]ClientConfig `yaml:"clients"`
}

// InMemorySet returns a set with a single in-memory sqlite write pool.
func InMemorySet() *ConfigSet {
	w := Default()
	return &ConfigSet{
		Default: DefaultClient,
		Clients: map[string]ClientConfig{DefaultClient: {Write: &w}},
	}
}

// DefaultClientConfig returns the configuration of the default client.
func (s *ConfigSet) DefaultClientConfig() (ClientConfig, bool) {
	c, ok := s.Clients[s.Default]
	return c, ok
}

// Validate checks every pool and that each backend kind is configured
// once.
func (s *ConfigSet) Validate() error {
	if len(s.Clients) == 0 {
		return fmt.Errorf("config: no clients configured")
	}
	if _, ok := s.Clients[s.Default]; !ok {
		return fmt.Errorf("config: default client %q is not configured", s.Default)
	}
	seen := make(map[dialect.Kind]string, len(s.Clients))
	for name, c := range s.Clients {
		if c.Write == nil {
			return fmt.Errorf("config: client %q has no write pool", name)
		}
		if other, ok := seen[c.Kind()]; ok {
			return fmt.Errorf("config: clients %q and %q both use %s", other, name, c.Kind())
		}
		seen[c.Kind()] = name
		for _, p := range c.Pools() {
			if err := p.Validate(); err != nil {
				return fmt.Errorf("client %q: %w", name, err)
			}
		}
		if c.Read != nil && c.Read.Kind != c.Write.Kind {
			return fmt.Errorf("config: client %q mixes %s and %s pools", name, c.Write.Kind, c.Read.Kind)
		}
	}
	return nil
}

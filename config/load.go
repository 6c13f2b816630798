package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/syssam/dirtydb/dialect"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DTY_DB_"

// UnmarshalYAML decodes a pool on top of Default, so omitted fields keep
// their default values.
func (c *BaseConfig) UnmarshalYAML(node *yaml.Node) error {
	type plain BaseConfig
	p := plain(Default())
	if err := node.Decode(&p); err != nil {
		return err
	}
	*c = BaseConfig(p)
	return nil
}

// UnmarshalYAML decodes the write pool, then the read pool on top of a
// copy of the write pool, so a read pool only lists what differs.
func (c *ClientConfig) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Write *BaseConfig `yaml:"write"`
		Read  yaml.Node   `yaml:"read"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	c.Write = raw.Write
	if raw.Read.Kind == 0 {
		return nil
	}
	base := Default()
	if raw.Write != nil {
		base = *raw.Write
	}
	base.ClientType = dialect.Read
	type plain BaseConfig
	p := plain(base)
	if err := raw.Read.Decode(&p); err != nil {
		return err
	}
	read := BaseConfig(p)
	c.Read = &read
	return nil
}

// Parse decodes a database.yaml document.
func Parse(data []byte) (*ConfigSet, error) {
	set := &ConfigSet{Default: DefaultClient}
	if err := yaml.Unmarshal(data, set); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	return set, nil
}

// Load reads the configuration file at path, the .env file next to it and
// the DTY_DB_ environment overrides, in that order. A missing file yields
// InMemorySet.
func Load(path string) (*ConfigSet, error) {
	envFile := filepath.Join(filepath.Dir(path), ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load %s: %w", envFile, err)
	}
	var set *ConfigSet
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		set = InMemorySet()
	case err != nil:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	default:
		if set, err = Parse(data); err != nil {
			return nil, err
		}
	}
	if err := ApplyEnv(set, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}

// ApplyEnv overrides the default client of set with DTY_DB_ variables
// read through lookup.
func ApplyEnv(set *ConfigSet, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvPrefix + "DEFAULT"); ok && v != "" {
		set.Default = v
	}
	if set.Clients == nil {
		set.Clients = make(map[string]ClientConfig)
	}
	client := set.Clients[set.Default]
	if client.Write == nil {
		w := Default()
		client.Write = &w
	}
	if err := applyPool(client.Write, "WRITE", lookup); err != nil {
		return err
	}
	if hasAny(lookup, "READ") {
		if client.Read == nil {
			r := *client.Write
			r.ClientType = dialect.Read
			client.Read = &r
		}
		if err := applyPool(client.Read, "READ", lookup); err != nil {
			return err
		}
	}
	set.Clients[set.Default] = client
	return nil
}

var poolKeys = []string{"ENABLE", "KIND", "URL", "MAX", "STICKY", "STICKY_DURATION", "FOREIGN_KEY", "BUSY_TIMEOUT"}

func hasAny(lookup func(string) (string, bool), client string) bool {
	for _, k := range poolKeys {
		if _, ok := lookup(EnvPrefix + client + "_" + k); ok {
			return true
		}
	}
	return false
}

func applyPool(c *BaseConfig, client string, lookup func(string) (string, bool)) error {
	for _, k := range poolKeys {
		name := EnvPrefix + client + "_" + k
		v, ok := lookup(name)
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		var err error
		switch k {
		case "ENABLE":
			c.Enable, err = strconv.ParseBool(v)
		case "KIND":
			c.Kind, err = dialect.ParseKind(v)
		case "URL":
			c.URL = v
		case "MAX":
			c.Max, err = strconv.Atoi(v)
		case "STICKY":
			c.Sticky, err = strconv.ParseBool(v)
		case "STICKY_DURATION":
			c.StickyDuration, err = strconv.Atoi(v)
		case "FOREIGN_KEY":
			c.ForeignKey, err = strconv.ParseBool(v)
		case "BUSY_TIMEOUT":
			c.BusyTimeout, err = strconv.Atoi(v)
		}
		if err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
	}
	return nil
}

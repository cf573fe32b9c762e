package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config describes a proxy scenario: how runtimes behave, which actions the
// host exposes, which proxy stores to build and which actions to replay.
type Config struct {
	Runtime RuntimeConfig  `json:"runtime"`
	Logging LoggingConfig  `json:"logging"`
	Metrics MetricsConfig  `json:"metrics"`
	Actions []string       `json:"actions"`
	Stores  []PluginConfig `json:"stores"`
	Steps   []Step         `json:"steps"`
}

// Load reads a YAML or JSON file, applies K_ prefixed environment overrides
// (K_RUNTIME__ON_DUPLICATE=replace) and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every section with its defaults.
func (c *Config) SetDefaults() {
	c.Runtime.SetDefaults()
	c.Logging.SetDefaults()
	c.Metrics.SetDefaults()
	for i := range c.Steps {
		if c.Steps[i].Target == "" {
			c.Steps[i].Target = TargetProxy
		}
	}
}

// Validate checks every section and cross references between steps and actions.
func (c Config) Validate() error {
	if err := c.Runtime.Validate(); err != nil {
		return fmt.Errorf("runtime: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	known := make(map[string]bool, len(c.Actions))
	for _, a := range c.Actions {
		if strings.TrimSpace(a) == "" {
			return fmt.Errorf("actions: blank action name")
		}
		known[a] = true
	}
	for i, s := range c.Stores {
		if s.Type == "" {
			return fmt.Errorf("stores[%d]: type is required", i)
		}
	}
	for i, s := range c.Steps {
		if !known[s.Action] {
			return fmt.Errorf("steps[%d]: unknown action %q", i, s.Action)
		}
		if s.Target != TargetProxy && s.Target != TargetReal {
			return fmt.Errorf("steps[%d]: unknown target %q", i, s.Target)
		}
	}
	return nil
}

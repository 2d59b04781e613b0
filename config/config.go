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

	"github.com/kilianp07/depotsim/core/depot"
	"github.com/kilianp07/depotsim/core/experiment"
	"github.com/kilianp07/depotsim/core/metrics"
	"github.com/kilianp07/depotsim/infra/mqtt"
)

// Config is the full application configuration.
type Config struct {
	// Preset seeds the simulation section before the file is applied.
	Preset     string            `json:"preset" yaml:"preset,omitempty"`
	Simulation depot.Config      `json:"simulation" yaml:"simulation"`
	Experiment experiment.Config `json:"experiment" yaml:"experiment"`
	Store      StoreConfig       `json:"store" yaml:"store"`
	Metrics    metrics.Config    `json:"metrics" yaml:"metrics"`
	Analysis   AnalysisConfig    `json:"analysis" yaml:"analysis"`
	Sentry     SentryConfig      `json:"sentry" yaml:"sentry"`
	Server     ServerConfig      `json:"server" yaml:"server"`
	MQTT       mqtt.Config       `json:"mqtt" yaml:"mqtt"`
	Log        LogConfig         `json:"log" yaml:"log"`
}

// LogConfig sets the minimum log level.
type LogConfig struct {
	Level string `json:"level" yaml:"level"`
}

// Default returns a configuration with every section defaulted.
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Simulation.SetDefaults()
	c.Experiment.SetDefaults()
	c.Store.SetDefaults()
	c.Analysis.SetDefaults()
	c.Server.SetDefaults()
	c.MQTT.SetDefaults()
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Simulation.Validate(); err != nil {
		return fmt.Errorf("simulation: %w", err)
	}
	if err := c.Experiment.Validate(); err != nil {
		return fmt.Errorf("experiment: %w", err)
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := c.Analysis.Validate(); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	if err := c.Sentry.Validate(); err != nil {
		return err
	}
	if err := c.MQTT.Validate(); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	return nil
}

// Load reads the configuration file at path, applies K_ environment
// overrides, defaults and validation. An empty path loads the environment
// only. preset, when set, takes precedence over the preset key of the file.
func Load(path, preset string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
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
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if preset == "" {
		preset = k.String("preset")
	}
	if preset != "" {
		base, err := depot.Preset(preset)
		if err != nil {
			return nil, err
		}
		cfg.Simulation = base
		// Lists from the file replace the preset ones instead of merging element-wise.
		if k.Exists("simulation.chargers") {
			cfg.Simulation.Chargers = nil
		}
		if k.Exists("simulation.delivery_types") {
			cfg.Simulation.DeliveryTypes = nil
		}
	}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Preset = preset
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Package scenarios runs YAML-described depot experiments and checks their
// outcome against expectations.
package scenarios

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/depotsim/core/depot"
	"github.com/kilianp07/depotsim/core/experiment"
)

// Expected bounds the outcome of every iteration. Zero values are not checked.
type Expected struct {
	Failed         int     `yaml:"failed"`
	MinDeliveries  int     `yaml:"min_deliveries"`
	MinSessions    int     `yaml:"min_sessions"`
	MaxMeanWait    float64 `yaml:"max_mean_wait"`
	MaxUnassigned  *int    `yaml:"max_unassigned,omitempty"`
	MinUtilization float64 `yaml:"min_utilization"`
	MaxUtilization float64 `yaml:"max_utilization"`
	// Reproducible reruns the experiment and compares the summaries.
	Reproducible bool `yaml:"reproducible"`
}

// Scenario is a preset plus overrides and expectations.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Preset      string `yaml:"preset"`
	// Simulation keys override the preset; lists replace the preset ones.
	Simulation yaml.Node         `yaml:"simulation"`
	Experiment experiment.Config `yaml:"experiment"`
	Expected   Expected          `yaml:"expected"`
}

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("%s: scenario name is required", path)
	}
	return &sc, nil
}

// DepotConfig applies the overrides to the preset.
func (sc *Scenario) DepotConfig() (depot.Config, error) {
	cfg := depot.DefaultConfig()
	if sc.Preset != "" {
		p, err := depot.Preset(sc.Preset)
		if err != nil {
			return depot.Config{}, err
		}
		cfg = p
	}
	if !sc.Simulation.IsZero() {
		if err := sc.Simulation.Decode(&cfg); err != nil {
			return depot.Config{}, fmt.Errorf("%s: simulation: %w", sc.Name, err)
		}
	}
	cfg.SetDefaults()
	return cfg, cfg.Validate()
}

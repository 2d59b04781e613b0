package config

import (
	"fmt"

	"github.com/kilianp07/depotsim/core/analysis"
	"github.com/kilianp07/depotsim/pkg/export"
)

// AnalysisConfig controls the analyze command.
type AnalysisConfig struct {
	// LogDir overrides the store path when analysing json logs.
	LogDir    string `json:"log_dir" yaml:"log_dir"`
	OutputDir string `json:"output_dir" yaml:"output_dir"`
	Bins      int    `json:"bins" yaml:"bins"`
	// RunID selects the analysed run; empty means the latest.
	RunID string `json:"run_id" yaml:"run_id,omitempty"`
	// Servers overrides the server count read from the logs.
	Servers       int      `json:"servers" yaml:"servers"`
	Distributions []string `json:"distributions" yaml:"distributions"`
	Formats       []string `json:"formats" yaml:"formats"`
}

// SetDefaults applies sane defaults.
func (c *AnalysisConfig) SetDefaults() {
	if c.OutputDir == "" {
		c.OutputDir = "analysis"
	}
	if c.Bins == 0 {
		c.Bins = export.DefaultBins
	}
	if len(c.Distributions) == 0 {
		for _, d := range analysis.DefaultDistributions() {
			c.Distributions = append(c.Distributions, string(d))
		}
	}
	if len(c.Formats) == 0 {
		c.Formats = export.Formats()
	}
}

// Validate checks bins, servers, distributions and formats.
func (c AnalysisConfig) Validate() error {
	if c.Bins < 1 {
		return fmt.Errorf("analysis bins must be >= 1")
	}
	if c.Servers < 0 {
		return fmt.Errorf("analysis servers must be >= 0")
	}
	if _, err := c.DistributionList(); err != nil {
		return err
	}
	for _, f := range c.Formats {
		known := false
		for _, k := range export.Formats() {
			known = known || f == k
		}
		if !known {
			return fmt.Errorf("unknown analysis format %q", f)
		}
	}
	return nil
}

// DistributionList parses the candidate families.
func (c AnalysisConfig) DistributionList() ([]analysis.Distribution, error) {
	out := make([]analysis.Distribution, 0, len(c.Distributions))
	for _, s := range c.Distributions {
		d, err := analysis.ParseDistribution(s)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

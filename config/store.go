package config

import (
	"fmt"

	"github.com/kilianp07/depotsim/core/store"
)

// StoreConfig defines where simulation logs are written and how they rotate.
type StoreConfig struct {
	// Backend selects the log store type: "json", "jsonl", "rotating" or "sqlite".
	Backend string `json:"backend" yaml:"backend"`
	// Path is a directory for the json backend and a file otherwise.
	Path string `json:"path" yaml:"path"`
	// MaxSizeMB triggers rotation when the file exceeds this size in megabytes.
	MaxSizeMB int `json:"max_size_mb" yaml:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups" yaml:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days" yaml:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *StoreConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = store.BackendJSON
	}
	if c.Path == "" {
		switch c.Backend {
		case store.BackendJSON:
			c.Path = "logs"
		case store.BackendSQLite:
			c.Path = "logs/events.db"
		default:
			c.Path = "logs/events.jsonl"
		}
	}
	if c.Backend == store.BackendRotating && c.MaxSizeMB == 0 {
		c.MaxSizeMB = 100
	}
}

// Validate checks mandatory fields.
func (c StoreConfig) Validate() error {
	switch c.Backend {
	case store.BackendJSON, store.BackendJSONL, store.BackendRotating, store.BackendSQLite:
	default:
		return fmt.Errorf("unknown store backend %s", c.Backend)
	}
	if c.Path == "" {
		return fmt.Errorf("store path is required")
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return fmt.Errorf("store rotation limits must be >= 0")
	}
	return nil
}

// Options converts the section into store.Open options.
func (c StoreConfig) Options() store.Options {
	return store.Options{
		Backend:    c.Backend,
		Path:       c.Path,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
	}
}

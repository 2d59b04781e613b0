package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/depotsim/core/factory"
)

// ManifestFile is the name of the manifest written next to the logs.
const ManifestFile = "manifest.yaml"

const redacted = "***"

// Manifest records how a run was produced.
type Manifest struct {
	RunID     string    `yaml:"run_id"`
	CreatedAt time.Time `yaml:"created_at"`
	Version   string    `yaml:"version,omitempty"`
	Config    Config    `yaml:"config"`
}

// Redacted returns a copy of c with credentials masked.
func (c Config) Redacted() Config {
	out := c
	if out.Server.Token != "" {
		out.Server.Token = redacted
	}
	if out.Sentry.DSN != "" {
		out.Sentry.DSN = redacted
	}
	if out.MQTT.Password != "" {
		out.MQTT.Password = redacted
	}
	out.Metrics.Sinks = make([]factory.ModuleConfig, len(c.Metrics.Sinks))
	for i, s := range c.Metrics.Sinks {
		conf := make(map[string]any, len(s.Conf))
		for k, v := range s.Conf {
			switch k {
			case "token", "password":
				v = redacted
			}
			conf[k] = v
		}
		out.Metrics.Sinks[i] = factory.ModuleConfig{Type: s.Type, Conf: conf}
	}
	return out
}

// WriteManifest writes m as YAML into dir and returns the file path.
func WriteManifest(dir string, m Manifest) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	m.Config = m.Config.Redacted()
	data, err := yaml.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode manifest: %w", err)
	}
	path := filepath.Join(dir, ManifestFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("decode manifest: %w", err)
	}
	return m, nil
}

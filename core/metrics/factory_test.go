package metrics_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/depotsim/core/factory"
	metrics "github.com/kilianp07/depotsim/core/metrics"
	_ "github.com/kilianp07/depotsim/infra/metrics"
)

func TestSinkTypesRegistered(t *testing.T) {
	types := metrics.SinkTypes()
	for _, want := range []string{"influx", "nop", "prometheus"} {
		assert.Contains(t, types, want)
	}
}

func TestNewMetricsSinkDefaultsToNop(t *testing.T) {
	s, err := metrics.NewMetricsSink(nil)
	require.NoError(t, err)
	if _, ok := s.(metrics.NopSink); !ok {
		t.Fatalf("expected NopSink, got %T", s)
	}
}

func TestNewMetricsSinkFromYAML(t *testing.T) {
	data := `sinks:
  - type: nop
  - type: influx
    conf:
      url: http://127.0.0.1:1
      token: t
      org: depot
      bucket: sim
prometheus_addr: ":9100"
`
	var cfg metrics.Config
	require.NoError(t, yaml.Unmarshal([]byte(data), &cfg))
	assert.Equal(t, ":9100", cfg.PrometheusAddr)

	s, err := metrics.NewMetricsSink(cfg.Sinks)
	require.NoError(t, err)
	m, ok := s.(*metrics.MultiSink)
	require.True(t, ok, "expected MultiSink, got %T", s)
	require.Len(t, m.Sinks, 2)
	// unreachable influx falls back to a no-op sink
	assert.IsType(t, metrics.NopSink{}, m.Sinks[1])
}

func TestNewMetricsSinkUnknownType(t *testing.T) {
	data := `{"sinks":[{"type":"nop"},{"type":"missing"}]}`
	var cfg metrics.Config
	require.NoError(t, json.Unmarshal([]byte(data), &cfg))
	_, err := metrics.NewMetricsSink(cfg.Sinks)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "sink 1:"), err.Error())

	_, err = metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "missing"}})
	assert.Error(t, err)
}

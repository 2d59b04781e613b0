package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/depotsim/api/simulations"
	"github.com/kilianp07/depotsim/config"
	"github.com/kilianp07/depotsim/core/depot"
	coremqtt "github.com/kilianp07/depotsim/core/mqtt"
	"github.com/kilianp07/depotsim/core/store"
	"github.com/kilianp07/depotsim/infra/mqtt"
	"github.com/kilianp07/depotsim/pkg/export"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{}
	sim, err := depot.Preset("simple")
	require.NoError(t, err)
	sim.Days = 2
	cfg.Simulation = sim
	cfg.Experiment.Iterations = 2
	cfg.Experiment.Concurrency = 2
	cfg.Store.Path = filepath.Join(dir, "logs")
	cfg.Analysis.OutputDir = filepath.Join(dir, "out")
	cfg.Analysis.Formats = []string{export.FormatCSV}
	cfg.Server.Token = "secret"
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestServiceSimulateAndAnalyze(t *testing.T) {
	cfg := testConfig(t)
	svc, err := New(cfg)
	require.NoError(t, err)
	defer func() {
		if err := svc.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	}()

	rep, err := svc.Simulate(context.Background())
	require.NoError(t, err)
	require.Len(t, rep.Iterations, 2)
	assert.Zero(t, rep.Failed())

	m, err := config.ReadManifest(filepath.Join(cfg.Store.Path, config.ManifestFile))
	require.NoError(t, err)
	assert.Equal(t, rep.RunID, m.RunID)
	assert.Equal(t, "***", m.Config.Server.Token)

	arep, files, err := svc.Analyze(context.Background())
	require.NoError(t, err)
	assert.Len(t, arep.Simulations, 2)
	require.Len(t, files, 2)
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			t.Fatalf("missing output %s: %v", f, err)
		}
	}
}

func TestServiceHandler(t *testing.T) {
	cfg := testConfig(t)
	svc, err := New(cfg)
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()
	_, err = svc.Simulate(context.Background())
	require.NoError(t, err)

	srv := httptest.NewServer(svc.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/simulations")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/simulations", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var entries []simulations.Entry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "simple_000", entries[0].Simulation)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

type disconnectingPublisher struct {
	*mqtt.MockPublisher
	disconnected int
}

func (d *disconnectingPublisher) Disconnect() { d.disconnected++ }

func TestServiceStreamsToMQTTSection(t *testing.T) {
	orig := newMQTTPublisher
	t.Cleanup(func() { newMQTTPublisher = orig })
	pub := &disconnectingPublisher{MockPublisher: mqtt.NewMockPublisher()}
	var got mqtt.Config
	newMQTTPublisher = func(c mqtt.Config) (coremqtt.Publisher, error) {
		got = c
		return pub, nil
	}

	cfg := testConfig(t)
	cfg.MQTT.Broker = "tcp://broker:1883"
	cfg.MQTT.TopicPrefix = "yard"
	svc, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, "tcp://broker:1883", got.Broker)

	_, err = svc.Simulate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, pub.Count("yard/simple_000/summary"))
	assert.Equal(t, 1, pub.Count("yard/simple_001/summary"))
	assert.Positive(t, pub.Count("yard/simple_000/EV1/events"))

	require.NoError(t, svc.Close())
	assert.Equal(t, 1, pub.disconnected)
}

func TestServiceWithoutBrokerSkipsMQTT(t *testing.T) {
	orig := newMQTTPublisher
	t.Cleanup(func() { newMQTTPublisher = orig })
	called := false
	newMQTTPublisher = func(mqtt.Config) (coremqtt.Publisher, error) {
		called = true
		return nil, nil
	}
	svc, err := New(testConfig(t))
	require.NoError(t, err)
	require.NoError(t, svc.Close())
	assert.False(t, called)
}

func TestServiceAnalyzesLatestRunOfAppendingStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Backend = store.BackendJSONL
	cfg.Store.Path = filepath.Join(t.TempDir(), "events.jsonl")
	svc, err := New(cfg)
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()
	ctx := context.Background()

	run1, err := svc.Simulate(ctx)
	require.NoError(t, err)
	rep1, _, err := svc.Analyze(ctx)
	require.NoError(t, err)

	run2, err := svc.Simulate(ctx)
	require.NoError(t, err)
	rep2, _, err := svc.Analyze(ctx)
	require.NoError(t, err)

	assert.Equal(t, run1.RunID, rep1.RunID)
	assert.Equal(t, run2.RunID, rep2.RunID)
	require.Len(t, rep2.Simulations, len(rep1.Simulations))
	for i := range rep1.Simulations {
		a, b := rep1.Simulations[i].Metrics, rep2.Simulations[i].Metrics
		assert.Equal(t, a.Simulation, b.Simulation)
		assert.Equal(t, a.Pairs, b.Pairs)
		assert.InDelta(t, a.LambdaPerHour, b.LambdaPerHour, 1e-12)
	}
}

package experiment

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/depotsim/core/depot"
	"github.com/kilianp07/depotsim/core/events"
	"github.com/kilianp07/depotsim/core/metrics"
	"github.com/kilianp07/depotsim/core/model"
	"github.com/kilianp07/depotsim/core/monitoring"
	"github.com/kilianp07/depotsim/core/store"
	"github.com/kilianp07/depotsim/internal/eventbus"
)

var fixedClock = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }

type countingSink struct {
	mu         sync.Mutex
	events     int
	iterations int
}

func (c *countingSink) RecordEvents(ev []model.Event) error {
	c.mu.Lock()
	c.events += len(ev)
	c.mu.Unlock()
	return nil
}

func (c *countingSink) RecordIteration(metrics.IterationEvent) error {
	c.mu.Lock()
	c.iterations++
	c.mu.Unlock()
	return nil
}

func TestRunnerWritesEveryIteration(t *testing.T) {
	s, err := store.NewJSONStore(filepath.Join(t.TempDir(), "logs"))
	require.NoError(t, err)
	sink := &countingSink{}
	bus := eventbus.New()
	sub := bus.SubscribeBuffered(64)

	cfg := depot.DefaultConfig()
	cfg.Name = "depot"
	cfg.Seed = 100
	r, err := NewRunner(cfg, Config{Iterations: 4, Concurrency: 2},
		WithStore(s), WithSink(sink), WithBus(bus), WithRunID("run-1"), WithClock(fixedClock))
	require.NoError(t, err)

	rep, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, rep.Iterations, 4)
	assert.Equal(t, "run-1", rep.RunID)
	assert.Equal(t, 0, rep.Failed())
	for i, it := range rep.Iterations {
		assert.Equal(t, i, it.Iteration)
		assert.Equal(t, SimulationName("depot", i), it.Simulation)
		assert.Equal(t, uint64(100+i), it.Seed)
	}

	all, err := s.Query(context.Background(), store.Query{})
	require.NoError(t, err)
	total := 0
	for _, it := range rep.Iterations {
		total += it.Summary.Events
	}
	assert.Equal(t, total, len(all))
	assert.Equal(t, total, sink.events)
	assert.Equal(t, 4, sink.iterations)
	for _, e := range all {
		assert.Equal(t, "run-1", e.RunID)
	}

	finished := 0
	var run *events.RunFinished
	bus.Close()
	for ev := range sub {
		switch e := ev.(type) {
		case events.IterationFinished:
			finished++
		case events.RunFinished:
			run = &e
		}
	}
	assert.Equal(t, 4, finished)
	require.NotNil(t, run)
	assert.Equal(t, 4, run.Iterations)
}

func TestRunnerSameSeedsSameLogs(t *testing.T) {
	cfg := depot.DefaultConfig()
	cfg.Seed = 9
	a, _, err := Collect(context.Background(), cfg, Config{Iterations: 3, Concurrency: 3}, WithClock(fixedClock), WithRunID("x"))
	require.NoError(t, err)
	b, _, err := Collect(context.Background(), cfg, Config{Iterations: 3, Concurrency: 1}, WithClock(fixedClock), WithRunID("x"))
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 3)
}

type failingStore struct{ store.LogStore }

func (failingStore) Write(context.Context, string, []model.Event) error {
	return errors.New("disk full")
}

func TestRunnerCapturesFailures(t *testing.T) {
	rec := &monitoring.Recorder{}
	r, err := NewRunner(depot.DefaultConfig(), Config{Iterations: 2, Concurrency: 1},
		WithStore(failingStore{}), WithMonitor(rec))
	require.NoError(t, err)
	rep, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Failed())
	captured := rec.Captured()
	require.Len(t, captured, 2)
	assert.Equal(t, "depot_000", captured[0].Tags["simulation"])
}

func TestRunnerFailFast(t *testing.T) {
	r, err := NewRunner(depot.DefaultConfig(), Config{Iterations: 5, Concurrency: 1, FailFast: true},
		WithStore(failingStore{}))
	require.NoError(t, err)
	rep, err := r.Run(context.Background())
	assert.Error(t, err)
	assert.Less(t, len(rep.Iterations), 5)
}

func TestRunnerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r, err := NewRunner(depot.DefaultConfig(), Config{Iterations: 3, Concurrency: 1})
	require.NoError(t, err)
	_, err = r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConfig(t *testing.T) {
	var c Config
	c.SetDefaults()
	require.NoError(t, c.Validate())
	assert.Equal(t, 1, c.Iterations)
	assert.GreaterOrEqual(t, c.Concurrency, 1)
	assert.Error(t, Config{Iterations: 0, Concurrency: 1}.Validate())

	_, err := NewRunner(depot.Config{}, c)
	assert.Error(t, err)
}

func TestRunnerDeliversRunFinishedToFullSubscriber(t *testing.T) {
	bus := eventbus.New()
	sub := bus.SubscribeBuffered(1)

	cfg := depot.DefaultConfig()
	r, err := NewRunner(cfg, Config{Iterations: 3, Concurrency: 1}, WithBus(bus), WithClock(fixedClock))
	require.NoError(t, err)

	done := make(chan []eventbus.Event)
	go func() {
		// let the buffer fill before draining
		time.Sleep(50 * time.Millisecond)
		var got []eventbus.Event
		for ev := range sub {
			got = append(got, ev)
		}
		done <- got
	}()

	_, err = r.Run(context.Background())
	require.NoError(t, err)
	bus.Close()
	got := <-done

	require.NotEmpty(t, got)
	last, ok := got[len(got)-1].(events.RunFinished)
	require.True(t, ok, "last event is %T", got[len(got)-1])
	assert.Equal(t, 3, last.Iterations)
}

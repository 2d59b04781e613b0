package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/depotsim/core/analysis"
	coremetrics "github.com/kilianp07/depotsim/core/metrics"
	"github.com/kilianp07/depotsim/core/model"
)

func TestPromSink_RecordEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)

	evs := []model.Event{
		{Type: model.EventRequestingCharger, Charger: "L3", Extra: map[string]float64{model.ExtraQueueLength: 2}},
		{Type: model.EventStartsCharging, Charger: "L3", Extra: map[string]float64{model.ExtraWaitTime: 7}},
		{Type: model.EventCharging, Charger: "L3", Extra: map[string]float64{model.ExtraChargingTime: 45}},
		{Type: model.EventDeparts},
		{Type: model.EventDeparts},
	}
	require.NoError(t, sink.RecordEvents(evs))

	assert.Equal(t, 2.0, testutil.ToFloat64(sink.events.WithLabelValues("departs", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.events.WithLabelValues("charging", "L3")))
	assert.Equal(t, 2.0, testutil.ToFloat64(sink.queue.WithLabelValues("L3")))
	assert.Equal(t, 1, testutil.CollectAndCount(sink.wait))
	assert.Equal(t, 1, testutil.CollectAndCount(sink.charging))

	expected := `
# HELP depot_charging_minutes Length of charging sessions in minutes
# TYPE depot_charging_minutes histogram
depot_charging_minutes_bucket{charger="L3",le="1"} 0
depot_charging_minutes_bucket{charger="L3",le="5"} 0
depot_charging_minutes_bucket{charger="L3",le="10"} 0
depot_charging_minutes_bucket{charger="L3",le="15"} 0
depot_charging_minutes_bucket{charger="L3",le="30"} 0
depot_charging_minutes_bucket{charger="L3",le="60"} 1
depot_charging_minutes_bucket{charger="L3",le="90"} 1
depot_charging_minutes_bucket{charger="L3",le="120"} 1
depot_charging_minutes_bucket{charger="L3",le="180"} 1
depot_charging_minutes_bucket{charger="L3",le="240"} 1
depot_charging_minutes_bucket{charger="L3",le="360"} 1
depot_charging_minutes_bucket{charger="L3",le="480"} 1
depot_charging_minutes_bucket{charger="L3",le="+Inf"} 1
depot_charging_minutes_sum{charger="L3"} 45
depot_charging_minutes_count{charger="L3"} 1
`
	require.NoError(t, testutil.CollectAndCompare(sink.charging, strings.NewReader(expected)))
}

func TestPromSink_IterationsAndRuns(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)

	require.NoError(t, sink.RecordIteration(coremetrics.IterationEvent{}))
	require.NoError(t, sink.RecordIteration(coremetrics.IterationEvent{}))
	require.NoError(t, sink.RecordIteration(coremetrics.IterationEvent{Err: errors.New("x")}))
	require.NoError(t, sink.RecordRun(coremetrics.RunEvent{Duration: 3 * time.Second}))

	assert.Equal(t, 2.0, testutil.ToFloat64(sink.iterations.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.iterations.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.runs))
	assert.Equal(t, 3.0, testutil.ToFloat64(sink.runDuration))
}

func TestPromSink_RecordAnalysis(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)

	m := analysis.SimulationMetrics{
		Simulation:    "fastslow_000",
		LambdaPerHour: 3,
		MuPerHour:     1.5,
		Utilization:   2,
		Queue:         analysis.QueueMetrics{PWait: 0.4},
	}
	require.NoError(t, sink.RecordAnalysis(m))
	assert.Equal(t, 3.0, testutil.ToFloat64(sink.lambda.WithLabelValues("fastslow_000")))
	assert.Equal(t, 1.5, testutil.ToFloat64(sink.mu.WithLabelValues("fastslow_000")))
	assert.Equal(t, 2.0, testutil.ToFloat64(sink.utilization.WithLabelValues("fastslow_000")))
	assert.Equal(t, 0.4, testutil.ToFloat64(sink.pWait.WithLabelValues("fastslow_000")))
}

func TestPromSink_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)
	second, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)

	require.NoError(t, second.RecordEvents([]model.Event{{Type: model.EventHolding}}))
	assert.Equal(t, 1.0, testutil.ToFloat64(first.events.WithLabelValues("holding", "")))
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)
	require.NoError(t, sink.RecordEvents([]model.Event{{Type: model.EventReturns}}))

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `depot_events_total{charger="",event="returns"} 1`)
}

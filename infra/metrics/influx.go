package metrics

import (
	"context"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/kilianp07/depotsim/core/analysis"
	coremetrics "github.com/kilianp07/depotsim/core/metrics"
	"github.com/kilianp07/depotsim/core/model"
	"github.com/kilianp07/depotsim/infra/logger"
)

// DefaultEpoch anchors simulated minute 0 on the InfluxDB time axis.
var DefaultEpoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// maxBatch bounds the number of points sent in one write request.
const maxBatch = 5000

// InfluxSink writes simulation events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	epoch    time.Time
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		epoch:    DefaultEpoch,
		log:      logger.New("influx-sink"),
	}
}

// WithEpoch sets the wall-clock time of simulated minute 0.
func (s *InfluxSink) WithEpoch(t time.Time) *InfluxSink {
	if !t.IsZero() {
		s.epoch = t
	}
	return s
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordEvents writes one depot_event point per log record.
func (s *InfluxSink) RecordEvents(events []model.Event) error {
	if len(events) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	batch := make([]*write.Point, 0, min(len(events), maxBatch))
	for _, e := range events {
		batch = append(batch, s.eventPoint(e))
		if len(batch) == maxBatch {
			if err := s.writeAPI.WritePoint(ctx, batch...); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if len(batch) == 0 {
		return nil
	}
	return s.writeAPI.WritePoint(ctx, batch...)
}

func (s *InfluxSink) eventPoint(e model.Event) *write.Point {
	p := write.NewPointWithMeasurement("depot_event").
		AddTag("simulation", e.Simulation).
		AddTag("ev_id", e.EVID).
		AddTag("event", string(e.Type))
	if e.Charger != "" {
		p.AddTag("charger", e.Charger)
	}
	if e.DeliveryType != "" {
		p.AddTag("delivery_type", e.DeliveryType)
	}
	p.AddField("time_min", round3(e.Time)).
		AddField("day", e.Day).
		AddField("battery_pct", round3(e.BatteryPct))
	keys := make([]string, 0, len(e.Extra))
	for k := range e.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := e.Extra[k]; !math.IsNaN(v) {
			p.AddField(k, round3(v))
		}
	}
	return p.SetTime(s.epoch.Add(time.Duration(e.Time * float64(time.Minute))))
}

// RecordIteration persists the summary of a finished iteration.
func (s *InfluxSink) RecordIteration(ev coremetrics.IterationEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sum := ev.Summary
	p := write.NewPointWithMeasurement("iteration_summary").
		AddTag("run_id", ev.RunID).
		AddTag("simulation", sum.Simulation).
		AddTag("status", status(ev.Err)).
		AddField("iteration", ev.Iteration).
		AddField("events", sum.Events).
		AddField("deliveries", sum.Deliveries).
		AddField("sessions", sum.Sessions).
		AddField("interruptions", sum.Interruptions).
		AddField("energy_kwh", round3(sum.EnergyKWh)).
		AddField("mean_wait", round3(sum.MeanWait)).
		AddField("max_wait", round3(sum.MaxWait)).
		AddField("duration_ms", ev.Duration.Milliseconds()).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordRun persists the outcome of an experiment run.
func (s *InfluxSink) RecordRun(ev coremetrics.RunEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("run_summary").
		AddTag("run_id", ev.RunID).
		AddField("iterations", ev.Iterations).
		AddField("failed", ev.Failed).
		AddField("duration_ms", ev.Duration.Milliseconds()).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordAnalysis persists the queueing estimates of a simulation.
func (s *InfluxSink) RecordAnalysis(m analysis.SimulationMetrics) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("queue_analysis").
		AddTag("simulation", m.Simulation).
		AddField("lambda_per_hour", round3(m.LambdaPerHour)).
		AddField("mu_per_hour", round3(m.MuPerHour)).
		AddField("utilization", round3(m.Utilization)).
		AddField("servers", m.Servers).
		AddField("p_wait", round3(m.Queue.PWait)).
		AddField("mean_wait", round3(m.MeanWait)).
		SetTime(s.epoch)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying HTTP client.
func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

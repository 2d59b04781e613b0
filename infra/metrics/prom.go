package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/depotsim/core/analysis"
	coremetrics "github.com/kilianp07/depotsim/core/metrics"
	"github.com/kilianp07/depotsim/core/model"
)

// PromSink exposes depot simulation activity as Prometheus metrics.
type PromSink struct {
	events      *prometheus.CounterVec
	wait        *prometheus.HistogramVec
	charging    *prometheus.HistogramVec
	queue       *prometheus.GaugeVec
	iterations  *prometheus.CounterVec
	runs        prometheus.Counter
	runDuration prometheus.Gauge
	lambda      *prometheus.GaugeVec
	mu          *prometheus.GaugeVec
	utilization *prometheus.GaugeVec
	pWait       *prometheus.GaugeVec
}

var minuteBuckets = []float64{1, 5, 10, 15, 30, 60, 90, 120, 180, 240, 360, 480}

// NewPromSink registers depot metrics on the default Prometheus registerer.
// The HTTP endpoint is started separately with StartPromServer.
func NewPromSink(cfg coremetrics.Config) (*PromSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "depot_events_total",
			Help: "Total number of simulation log events",
		}, []string{"event", "charger"}),
		wait: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "depot_wait_minutes",
			Help:    "Minutes spent queueing for a charger",
			Buckets: minuteBuckets,
		}, []string{"charger"}),
		charging: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "depot_charging_minutes",
			Help:    "Length of charging sessions in minutes",
			Buckets: minuteBuckets,
		}, []string{"charger"}),
		queue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "depot_queue_length",
			Help: "Load of the charger at the last request",
		}, []string{"charger"}),
		iterations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "depot_iterations_total",
			Help: "Simulation iterations by outcome",
		}, []string{"status"}),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "depot_runs_total",
			Help: "Finished experiment runs",
		}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "depot_run_duration_seconds",
			Help: "Wall-clock duration of the last run",
		}),
		lambda: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "depot_lambda_per_hour",
			Help: "Estimated arrival rate of charging requests",
		}, []string{"simulation"}),
		mu: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "depot_mu_per_hour",
			Help: "Estimated service rate of one charger",
		}, []string{"simulation"}),
		utilization: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "depot_utilization",
			Help: "Offered load lambda/mu",
		}, []string{"simulation"}),
		pWait: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "depot_p_wait",
			Help: "Erlang-C probability that a request waits",
		}, []string{"simulation"}),
	}
	var err error
	if s.events, err = register(reg, s.events); err != nil {
		return nil, err
	}
	if s.wait, err = register(reg, s.wait); err != nil {
		return nil, err
	}
	if s.charging, err = register(reg, s.charging); err != nil {
		return nil, err
	}
	if s.queue, err = register(reg, s.queue); err != nil {
		return nil, err
	}
	if s.iterations, err = register(reg, s.iterations); err != nil {
		return nil, err
	}
	if s.runs, err = register(reg, s.runs); err != nil {
		return nil, err
	}
	if s.runDuration, err = register(reg, s.runDuration); err != nil {
		return nil, err
	}
	if s.lambda, err = register(reg, s.lambda); err != nil {
		return nil, err
	}
	if s.mu, err = register(reg, s.mu); err != nil {
		return nil, err
	}
	if s.utilization, err = register(reg, s.utilization); err != nil {
		return nil, err
	}
	if s.pWait, err = register(reg, s.pWait); err != nil {
		return nil, err
	}
	return s, nil
}

// register reuses an already registered collector of the same type.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordEvents counts every event and observes waits, sessions and queue loads.
func (s *PromSink) RecordEvents(events []model.Event) error {
	for _, e := range events {
		s.events.WithLabelValues(string(e.Type), e.Charger).Inc()
		switch e.Type {
		case model.EventStartsCharging:
			if v, ok := e.ExtraValue(model.ExtraWaitTime); ok {
				s.wait.WithLabelValues(e.Charger).Observe(v)
			}
		case model.EventCharging:
			if v, ok := e.ExtraValue(model.ExtraChargingTime); ok {
				s.charging.WithLabelValues(e.Charger).Observe(v)
			}
		case model.EventRequestingCharger:
			if v, ok := e.ExtraValue(model.ExtraQueueLength); ok {
				s.queue.WithLabelValues(e.Charger).Set(v)
			}
		}
	}
	return nil
}

// RecordIteration counts the iteration by outcome.
func (s *PromSink) RecordIteration(ev coremetrics.IterationEvent) error {
	s.iterations.WithLabelValues(status(ev.Err)).Inc()
	return nil
}

// RecordRun counts the run and keeps its duration.
func (s *PromSink) RecordRun(ev coremetrics.RunEvent) error {
	s.runs.Inc()
	s.runDuration.Set(ev.Duration.Seconds())
	return nil
}

// RecordAnalysis publishes the queueing estimates of one simulation.
func (s *PromSink) RecordAnalysis(m analysis.SimulationMetrics) error {
	s.lambda.WithLabelValues(m.Simulation).Set(m.LambdaPerHour)
	s.mu.WithLabelValues(m.Simulation).Set(m.MuPerHour)
	s.utilization.WithLabelValues(m.Simulation).Set(m.Utilization)
	s.pWait.WithLabelValues(m.Simulation).Set(m.Queue.PWait)
	return nil
}

func status(err error) string {
	if err != nil {
		return "failed"
	}
	return "ok"
}

package metrics

import (
	"errors"
	"time"

	"github.com/kilianp07/depotsim/core/analysis"
	"github.com/kilianp07/depotsim/core/depot"
	"github.com/kilianp07/depotsim/core/model"
)

// MetricsSink records simulation events for observability purposes.
type MetricsSink interface {
	RecordEvents(events []model.Event) error
}

// IterationEvent describes a finished simulation iteration.
type IterationEvent struct {
	RunID     string
	Iteration int
	Summary   depot.Summary
	Duration  time.Duration
	Err       error
	Time      time.Time
}

// IterationRecorder records finished iterations.
type IterationRecorder interface {
	RecordIteration(ev IterationEvent) error
}

// RunEvent summarises a finished experiment run.
type RunEvent struct {
	RunID      string
	Iterations int
	Failed     int
	Duration   time.Duration
	Time       time.Time
}

// RunRecorder records finished runs.
type RunRecorder interface {
	RecordRun(ev RunEvent) error
}

// AnalysisRecorder records the queueing estimates of a simulation.
type AnalysisRecorder interface {
	RecordAnalysis(m analysis.SimulationMetrics) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordEvents([]model.Event) error                { return nil }
func (NopSink) RecordIteration(IterationEvent) error            { return nil }
func (NopSink) RecordAnalysis(analysis.SimulationMetrics) error { return nil }
func (NopSink) RecordRun(RunEvent) error                        { return nil }

// Closer is implemented by sinks holding connections or buffers.
type Closer interface {
	Close() error
}

// MultiSink fans records out to multiple sinks. Every sink receives each
// record; failures are joined.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordEvents forwards the events to all sinks.
func (m *MultiSink) RecordEvents(events []model.Event) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordEvents(events); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordIteration forwards iteration results when supported by the sink.
func (m *MultiSink) RecordIteration(ev IterationEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(IterationRecorder); ok {
			if err := r.RecordIteration(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecordAnalysis forwards analysis results when supported by the sink.
func (m *MultiSink) RecordAnalysis(a analysis.SimulationMetrics) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(AnalysisRecorder); ok {
			if err := r.RecordAnalysis(a); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecordRun forwards run results when supported by the sink.
func (m *MultiSink) RecordRun(ev RunEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(RunRecorder); ok {
			if err := r.RecordRun(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink implementing Closer.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.Sinks {
		if c, ok := s.(Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

package scenarios

import (
	"context"
	"reflect"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/depotsim/core/analysis"
	"github.com/kilianp07/depotsim/core/experiment"
	coremetrics "github.com/kilianp07/depotsim/core/metrics"
	"github.com/kilianp07/depotsim/infra/logger"
	"github.com/kilianp07/depotsim/infra/metrics"
	"github.com/kilianp07/depotsim/internal/eventbus"
)

// RunScenario simulates sc and reports every violated expectation.
func RunScenario(t *testing.T, sc *Scenario) {
	t.Helper()
	dc, err := sc.DepotConfig()
	if err != nil {
		t.Fatalf("depot config: %v", err)
	}
	ec := sc.Experiment
	ec.SetDefaults()

	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}
	bus := eventbus.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := metrics.StartEventCollector(ctx, bus, sink, logger.NopLogger{})

	groups, rep, err := experiment.Collect(ctx, dc, ec,
		experiment.WithSink(sink),
		experiment.WithBus(bus),
		experiment.WithRunID(sc.Name),
	)
	bus.Close()
	<-done
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	exp := sc.Expected
	if got := rep.Failed(); got != exp.Failed {
		t.Errorf("expected %d failed iterations, got %d", exp.Failed, got)
	}
	if got := iterationsRecorded(t, reg); got != float64(len(rep.Iterations)) {
		t.Errorf("expected %d iterations in metrics, got %v", len(rep.Iterations), got)
	}
	for _, it := range rep.Iterations {
		if it.Err != nil {
			continue
		}
		s := it.Summary
		if s.Deliveries < exp.MinDeliveries {
			t.Errorf("%s: expected at least %d deliveries, got %d", it.Simulation, exp.MinDeliveries, s.Deliveries)
		}
		if s.Sessions < exp.MinSessions {
			t.Errorf("%s: expected at least %d sessions, got %d", it.Simulation, exp.MinSessions, s.Sessions)
		}
		if exp.MaxMeanWait > 0 && s.MeanWait > exp.MaxMeanWait {
			t.Errorf("%s: mean wait %.1f above %.1f", it.Simulation, s.MeanWait, exp.MaxMeanWait)
		}
		if exp.MaxUnassigned != nil && s.Unassigned > *exp.MaxUnassigned {
			t.Errorf("%s: %d unassigned deliveries, at most %d expected", it.Simulation, s.Unassigned, *exp.MaxUnassigned)
		}
		if exp.MinUtilization > 0 || exp.MaxUtilization > 0 {
			m := analysis.ComputeMetrics(it.Simulation, analysis.Preprocess(groups[it.Simulation]), analysis.MetricsOptions{})
			if m.Utilization < exp.MinUtilization {
				t.Errorf("%s: utilization %.3f below %.3f", it.Simulation, m.Utilization, exp.MinUtilization)
			}
			if exp.MaxUtilization > 0 && m.Utilization > exp.MaxUtilization {
				t.Errorf("%s: utilization %.3f above %.3f", it.Simulation, m.Utilization, exp.MaxUtilization)
			}
		}
	}

	if exp.Reproducible {
		_, again, err := experiment.Collect(context.Background(), dc, ec, experiment.WithRunID(sc.Name))
		if err != nil {
			t.Fatalf("rerun: %v", err)
		}
		for i := range rep.Iterations {
			if !reflect.DeepEqual(rep.Iterations[i].Summary, again.Iterations[i].Summary) {
				t.Errorf("%s: rerun summary differs", rep.Iterations[i].Simulation)
			}
		}
	}
}

func iterationsRecorded(t *testing.T, reg *prometheus.Registry) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	total := 0.0
	for _, mf := range mfs {
		if mf.GetName() != "depot_iterations_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

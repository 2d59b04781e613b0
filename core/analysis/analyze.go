package analysis

import (
	"context"

	"github.com/kilianp07/depotsim/core/logger"
	"github.com/kilianp07/depotsim/core/store"
)

// Sample names used as keys of SimulationResult.Fits.
const (
	SampleWaitTimes     = "wait_times"
	SampleChargingTimes = "charging_times"
	SampleQueueLengths  = "queue_lengths"
)

// SampleNames lists the analysed samples in output order.
func SampleNames() []string {
	return []string{SampleWaitTimes, SampleChargingTimes, SampleQueueLengths}
}

// Options configure Analyze.
type Options struct {
	// RunID selects the analysed run. Empty means the latest one.
	RunID         string
	Servers       int
	Distributions []Distribution
	Logger        logger.Logger
}

// SimulationResult bundles the metrics and fits of one simulation.
type SimulationResult struct {
	Metrics SimulationMetrics    `json:"metrics"`
	Fits    map[string]FitReport `json:"fits"`
}

// Samples returns the raw sample for a sample name.
func (r SimulationResult) Samples(name string) []float64 {
	switch name {
	case SampleWaitTimes:
		return r.Metrics.WaitTimes
	case SampleChargingTimes:
		return r.Metrics.ChargingTimes
	case SampleQueueLengths:
		return r.Metrics.QueueLengths
	}
	return nil
}

// Report is the outcome of analysing a set of simulations.
type Report struct {
	RunID       string             `json:"run_id,omitempty"`
	Simulations []SimulationResult `json:"simulations"`
}

// Analyze loads every simulation of one run from s, computes its metrics and fits the
// candidate distributions to its samples.
func Analyze(ctx context.Context, s store.LogStore, opts Options) (Report, error) {
	log := logger.OrNop(opts.Logger)
	ds, err := Load(ctx, s, opts.RunID)
	if err != nil {
		return Report{}, err
	}
	rep := Report{RunID: ds.RunID}
	for _, name := range ds.Names {
		if err := ctx.Err(); err != nil {
			return Report{}, err
		}
		m := ComputeMetrics(name, ds.Groups[name], MetricsOptions{Servers: opts.Servers})
		res := SimulationResult{Metrics: m, Fits: map[string]FitReport{}}
		for _, sample := range SampleNames() {
			fr, err := Fit(res.Samples(sample), opts.Distributions)
			if err != nil {
				log.Warnf("%s: %s: %v", name, sample, err)
				continue
			}
			for _, r := range fr.Results {
				if r.Err != nil {
					log.Debugf("%s: %s: fit failed: %v", name, sample, r.Err)
				}
			}
			res.Fits[sample] = fr
		}
		log.Infof("%s: lambda=%.3f/h mu=%.3f/h utilization=%.3f P(wait)=%.3f",
			name, m.LambdaPerHour, m.MuPerHour, m.Utilization, m.Queue.PWait)
		rep.Simulations = append(rep.Simulations, res)
	}
	return rep, nil
}

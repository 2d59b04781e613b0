// Package analysis turns simulation event logs into queueing metrics.
//
// It pairs charger requests with charging starts to recover waiting times,
// estimates arrival and service rates, evaluates the M/M/c (Erlang-C) model
// for the estimated rates and fits candidate distributions to the observed
// samples.
package analysis

package events

import (
	"time"

	"github.com/kilianp07/depotsim/core/depot"
)

// IterationStarted is published before an iteration is simulated.
type IterationStarted struct {
	RunID      string
	Simulation string
	Iteration  int
	Seed       uint64
}

// IterationFinished is published once an iteration has been simulated and
// its log stored. Err is set when either step failed.
type IterationFinished struct {
	RunID      string
	Simulation string
	Iteration  int
	Summary    depot.Summary
	Duration   time.Duration
	Err        error
}

// RunFinished closes an experiment.
type RunFinished struct {
	RunID      string
	Iterations int
	Failed     int
	Duration   time.Duration
}

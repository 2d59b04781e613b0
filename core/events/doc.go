// Package events defines the experiment events emitted on the event bus.
//
// Available event types:
//   - IterationStarted: a simulation iteration begins
//   - IterationFinished: an iteration completed or failed
//   - RunFinished: every iteration of an experiment is done
package events

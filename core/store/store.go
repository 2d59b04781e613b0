package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kilianp07/depotsim/core/model"
)

// Query defines filters for retrieving events. Zero values match everything.
type Query struct {
	RunID      string
	Simulation string
	EVID       string
	Events     []model.EventType
	Day        *int
	FromTime   float64
	// ToTime is exclusive; zero means unbounded.
	ToTime float64
}

// Match reports whether e satisfies every filter of q.
func (q Query) Match(e model.Event) bool {
	if q.RunID != "" && e.RunID != q.RunID {
		return false
	}
	if q.Simulation != "" && e.Simulation != q.Simulation {
		return false
	}
	if q.EVID != "" && e.EVID != q.EVID {
		return false
	}
	if len(q.Events) > 0 {
		found := false
		for _, t := range q.Events {
			if t == e.Type {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.Day != nil && e.Day != *q.Day {
		return false
	}
	if e.Time < q.FromTime {
		return false
	}
	if q.ToTime > 0 && e.Time >= q.ToTime {
		return false
	}
	return true
}

// LogStore persists simulation event logs and supports querying.
type LogStore interface {
	// Write appends the events of one simulation. Events without a
	// simulation name are tagged with simulation.
	Write(ctx context.Context, simulation string, events []model.Event) error
	Query(ctx context.Context, q Query) ([]model.Event, error)
	Close() error
}

// Backend names accepted by Open.
const (
	BackendJSON     = "json"
	BackendJSONL    = "jsonl"
	BackendRotating = "rotating"
	BackendSQLite   = "sqlite"
)

// Options selects and configures a backend.
type Options struct {
	Backend    string
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Open creates the store described by opts.
func Open(opts Options) (LogStore, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("store path is required")
	}
	switch opts.Backend {
	case BackendJSON, "":
		return NewJSONStore(opts.Path)
	case BackendJSONL:
		return NewJSONLStore(opts.Path)
	case BackendRotating:
		return NewRotatingJSONLStore(opts.Path, opts.MaxSizeMB, opts.MaxBackups, opts.MaxAgeDays)
	case BackendSQLite:
		return NewSQLiteStore(opts.Path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}

func tag(simulation string, events []model.Event) []model.Event {
	out := make([]model.Event, len(events))
	copy(out, events)
	for i := range out {
		if out[i].Simulation == "" {
			out[i].Simulation = simulation
		}
	}
	return out
}

// GroupBySimulation splits events by simulation name and returns the names
// in sorted order.
func GroupBySimulation(events []model.Event) (map[string][]model.Event, []string) {
	groups := map[string][]model.Event{}
	for _, e := range events {
		groups[e.Simulation] = append(groups[e.Simulation], e)
	}
	names := make([]string, 0, len(groups))
	for n := range groups {
		names = append(names, n)
	}
	sort.Strings(names)
	return groups, names
}

// LatestRun returns the run id of the most recent run found in events. Runs
// are ordered by their newest timestamp, then by their last position in
// events, so append-only stores resolve ties to the last written run.
func LatestRun(events []model.Event) string {
	type seen struct {
		ts  time.Time
		pos int
	}
	runs := map[string]seen{}
	for i, e := range events {
		r := runs[e.RunID]
		if e.Timestamp.After(r.ts) {
			r.ts = e.Timestamp
		}
		r.pos = i
		runs[e.RunID] = r
	}
	latest, best := "", seen{pos: -1}
	for id, r := range runs {
		if r.ts.After(best.ts) || (r.ts.Equal(best.ts) && r.pos > best.pos) {
			latest, best = id, r
		}
	}
	return latest
}

// FilterRun keeps the events of one run.
func FilterRun(events []model.Event, runID string) []model.Event {
	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if e.RunID == runID {
			out = append(out, e)
		}
	}
	return out
}

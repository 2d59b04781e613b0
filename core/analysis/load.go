package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/kilianp07/depotsim/core/model"
	"github.com/kilianp07/depotsim/core/store"
)

// ErrNoData is returned when a store holds no analysable events.
var ErrNoData = errors.New("no charging events found")

// analysisEvents are the events needed to rebuild the charger queues.
var analysisEvents = []model.EventType{
	model.EventRequestingCharger,
	model.EventStartsCharging,
	model.EventCharging,
}

// Dataset holds the charger events of one run, grouped by simulation name.
type Dataset struct {
	RunID  string
	Groups map[string][]model.Event
	Names  []string
}

// Load reads the charger events of one run from s. An empty runID selects
// the latest run, since append-only stores keep every previous run.
func Load(ctx context.Context, s store.LogStore, runID string) (Dataset, error) {
	events, err := s.Query(ctx, store.Query{RunID: runID, Events: analysisEvents})
	if err != nil {
		return Dataset{}, fmt.Errorf("query events: %w", err)
	}
	events = Preprocess(events)
	if len(events) == 0 {
		return Dataset{}, ErrNoData
	}
	if runID == "" {
		runID = store.LatestRun(events)
		events = store.FilterRun(events, runID)
	}
	groups, names := store.GroupBySimulation(events)
	return Dataset{RunID: runID, Groups: groups, Names: names}, nil
}

// Preprocess keeps the charger events with a usable time.
func Preprocess(events []model.Event) []model.Event {
	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if math.IsNaN(e.Time) || math.IsInf(e.Time, 0) {
			continue
		}
		switch e.Type {
		case model.EventRequestingCharger, model.EventStartsCharging, model.EventCharging:
			out = append(out, e)
		}
	}
	return out
}

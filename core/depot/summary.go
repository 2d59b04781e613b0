package depot

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/depotsim/core/des"
)

type counters struct {
	deliveries    int
	sessions      int
	interruptions int
	holdings      int
	unassigned    int
	energy        float64
	waits         []float64
}

// Summary aggregates the outcome of one simulation.
type Summary struct {
	Simulation       string         `json:"simulation" yaml:"simulation"`
	Iteration        int            `json:"iteration" yaml:"iteration"`
	Seed             uint64         `json:"seed" yaml:"seed"`
	HorizonMinutes   float64        `json:"horizon_minutes" yaml:"horizon_minutes"`
	Vehicles         int            `json:"vehicles" yaml:"vehicles"`
	Events           int            `json:"events" yaml:"events"`
	Deliveries       int            `json:"deliveries" yaml:"deliveries"`
	DeliveriesByType map[string]int `json:"deliveries_by_type" yaml:"deliveries_by_type"`
	Sessions         int            `json:"sessions" yaml:"sessions"`
	Interruptions    int            `json:"interruptions" yaml:"interruptions"`
	Holdings         int            `json:"holdings" yaml:"holdings"`
	Unassigned       int            `json:"unassigned" yaml:"unassigned"`
	EnergyKWh        float64        `json:"energy_kwh" yaml:"energy_kwh"`
	MeanWait         float64        `json:"mean_wait" yaml:"mean_wait"`
	MaxWait          float64        `json:"max_wait" yaml:"max_wait"`
	Chargers         []des.Stats    `json:"chargers" yaml:"chargers"`
}

func (s *Simulation) summary(horizon float64) Summary {
	sum := Summary{
		Simulation:       s.name,
		Iteration:        s.iteration,
		Seed:             s.cfg.Seed,
		HorizonMinutes:   horizon,
		Vehicles:         s.vehicles,
		Events:           len(s.events),
		Deliveries:       s.stats.deliveries,
		DeliveriesByType: s.quota.totals(),
		Sessions:         s.stats.sessions,
		Interruptions:    s.stats.interruptions,
		Holdings:         s.stats.holdings,
		Unassigned:       s.stats.unassigned,
		EnergyKWh:        s.stats.energy,
	}
	if len(s.stats.waits) > 0 {
		sum.MeanWait = stat.Mean(s.stats.waits, nil)
		sum.MaxWait = floats.Max(s.stats.waits)
	}
	for _, st := range s.stations {
		sum.Chargers = append(sum.Chargers, st.res.Stats(horizon))
	}
	return sum
}

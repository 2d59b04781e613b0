package depot

import (
	"math/rand/v2"

	"github.com/kilianp07/depotsim/core/des"
	"github.com/kilianp07/depotsim/core/model"
)

// station is an instantiated charger group.
type station struct {
	spec model.ChargerSpec
	res  *des.Resource
}

// selectStation picks the charger a vehicle queues at.
func selectStation(policy Policy, stations []*station, rng *rand.Rand) *station {
	switch policy {
	case PolicyRandom:
		return stations[rng.IntN(len(stations))]
	case PolicyFastestIdle:
		var best *station
		for _, s := range stations {
			if s.res.Idle() && (best == nil || s.spec.RateKW > best.spec.RateKW) {
				best = s
			}
		}
		if best != nil {
			return best
		}
	}
	return shortestQueue(stations)
}

// shortestQueue returns the station with the fewest vehicles in service or
// waiting; ties go to the first configured.
func shortestQueue(stations []*station) *station {
	best := stations[0]
	for _, s := range stations[1:] {
		if s.res.Load() < best.res.Load() {
			best = s
		}
	}
	return best
}

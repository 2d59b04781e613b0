package depot

import (
	"fmt"
	"sort"

	"github.com/kilianp07/depotsim/core/model"
)

var presets = map[string]func() Config{
	// A fleet of 11 vehicles sharing one fast charger, around the clock.
	"simple": func() Config {
		c := Config{
			Name:         "simple",
			Mode:         ModeFleet,
			EVs:          11,
			WorkdayStart: 0,
			WorkdayEnd:   24,
			Policy:       PolicyRandom,
		}
		c.SetDefaults()
		return c
	},
	// Ten fresh vehicles per day, one delivery each, three single chargers.
	"daily": func() Config {
		c := Config{
			Name:             "daily",
			Mode:             ModeDaily,
			EVsPerDay:        10,
			Policy:           PolicyShortestQueue,
			StopAtWorkdayEnd: true,
			Chargers: []model.ChargerSpec{
				{Name: "slow", Level: model.LevelL1, RateKW: 10, Amount: 1, Servers: 1},
				{Name: "medium", Level: model.LevelL2, RateKW: 25, Amount: 1, Servers: 1},
				{Name: "fast", Level: model.LevelL3, RateKW: 50, Amount: 1, Servers: 1},
			},
			DeliveryTypes: []model.DeliveryType{
				{Name: "short", MinMiles: 0, MaxMiles: 25, Weight: 1},
				{Name: "medium", MinMiles: 25, MaxMiles: 50, Weight: 1},
				{Name: "long", MinMiles: 50, MaxMiles: 75, Weight: 1},
			},
		}
		c.SetDefaults()
		return c
	},
	// One fast single-server charger next to a slow two-server one.
	"fastslow": func() Config {
		c := Config{
			Name:   "fastslow",
			Mode:   ModeFleet,
			EVs:    10,
			Policy: PolicyRandom,
			Chargers: []model.ChargerSpec{
				{Name: "fast", Level: model.LevelL3, RateKW: 50, Amount: 1, Servers: 1},
				{Name: "slow", Level: model.LevelL2, RateKW: 25, Amount: 1, Servers: 2},
			},
		}
		c.SetDefaults()
		return c
	},
}

// Preset returns a named configuration.
func Preset(name string) (Config, error) {
	fn, ok := presets[name]
	if !ok {
		return Config{}, fmt.Errorf("unknown preset %q (available: %v)", name, PresetNames())
	}
	return fn(), nil
}

// PresetNames lists the available presets in alphabetical order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

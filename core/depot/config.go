package depot

import (
	"errors"
	"fmt"

	"github.com/kilianp07/depotsim/core/model"
)

// Mode selects how vehicles enter the simulation.
type Mode string

const (
	// ModeFleet keeps a fixed fleet cycling until the horizon.
	ModeFleet Mode = "fleet"
	// ModeDaily spawns a fresh batch of vehicles every midnight, each
	// performing a single delivery cycle.
	ModeDaily Mode = "daily"
)

// Policy selects the charger a vehicle queues at.
type Policy string

const (
	PolicyRandom        Policy = "random"
	PolicyShortestQueue Policy = "shortest_queue"
	PolicyFastestIdle   Policy = "fastest_idle"
)

// ErrNoChargers is returned when no charger group has a positive capacity.
var ErrNoChargers = errors.New("no charger with positive capacity")

// Config holds the parameters of one depot simulation.
type Config struct {
	Name            string  `json:"name" yaml:"name"`
	Mode            Mode    `json:"mode" yaml:"mode"`
	Days            int     `json:"days" yaml:"days"`
	Seed            uint64  `json:"seed" yaml:"seed"`
	EVs             int     `json:"evs" yaml:"evs"`
	EVsPerDay       int     `json:"evs_per_day" yaml:"evs_per_day"`
	BatteryKWh      float64 `json:"battery_kwh" yaml:"battery_kwh"`
	FullChargeMiles float64 `json:"full_charge_miles" yaml:"full_charge_miles"`
	// Optional fields where zero is meaningful. Nil selects the default.
	InitialCharge    *float64             `json:"initial_charge" yaml:"initial_charge,omitempty"`
	TargetCharge     *float64             `json:"target_charge" yaml:"target_charge,omitempty"`
	ThresholdCharge  *float64             `json:"threshold_charge" yaml:"threshold_charge,omitempty"`
	SpeedMPH         *float64             `json:"speed_mph" yaml:"speed_mph,omitempty"`
	TurnaroundMin    *float64             `json:"turnaround_min" yaml:"turnaround_min,omitempty"`
	TurnaroundMax    *float64             `json:"turnaround_max" yaml:"turnaround_max,omitempty"`
	WorkdayStart     float64              `json:"workday_start_hour" yaml:"workday_start_hour"`
	WorkdayEnd       float64              `json:"workday_end_hour" yaml:"workday_end_hour"`
	StopAtWorkdayEnd bool                 `json:"stop_at_workday_end" yaml:"stop_at_workday_end"`
	MaxCycles        int                  `json:"max_cycles" yaml:"max_cycles"`
	Policy           Policy               `json:"policy" yaml:"policy"`
	Chargers         []model.ChargerSpec  `json:"chargers" yaml:"chargers"`
	DeliveryTypes    []model.DeliveryType `json:"delivery_types" yaml:"delivery_types"`
}

// DefaultChargers returns the single fast charger layout.
func DefaultChargers() []model.ChargerSpec {
	return []model.ChargerSpec{
		{Name: "L1", Level: model.LevelL1, RateKW: model.LevelL1.DefaultRate()},
		{Name: "L2", Level: model.LevelL2, RateKW: model.LevelL2.DefaultRate()},
		{Name: "L3", Level: model.LevelL3, RateKW: model.LevelL3.DefaultRate(), Amount: 1, Servers: 1},
	}
}

// DefaultConfig returns a fully populated configuration.
func DefaultConfig() Config {
	var c Config
	c.SetDefaults()
	return c
}

const (
	defaultInitialCharge   = 1
	defaultTargetCharge    = 0.95
	defaultThresholdCharge = 0.80
	defaultSpeedMPH        = 30
	defaultTurnaroundMin   = 5
	defaultTurnaroundMax   = 15
)

// Float returns a pointer to v for the optional fields of Config.
func Float(v float64) *float64 { return &v }

func setFloat(p **float64, def float64) {
	if *p == nil {
		*p = Float(def)
	}
}

func floatOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// InitialChargeFraction is the state of charge vehicles start with.
func (c Config) InitialChargeFraction() float64 {
	return floatOr(c.InitialCharge, defaultInitialCharge)
}

// TargetChargeFraction is the state of charge a session stops at.
func (c Config) TargetChargeFraction() float64 {
	return floatOr(c.TargetCharge, defaultTargetCharge)
}

// ThresholdChargeFraction is the state of charge below which a returning
// vehicle queues for a charger.
func (c Config) ThresholdChargeFraction() float64 {
	return floatOr(c.ThresholdCharge, defaultThresholdCharge)
}

// Speed returns the driving speed in miles per hour. Zero means deliveries
// take no driving time.
func (c Config) Speed() float64 { return floatOr(c.SpeedMPH, defaultSpeedMPH) }

// Turnaround returns the range of the pause between delivery cycles, in minutes.
func (c Config) Turnaround() (lo, hi float64) {
	return floatOr(c.TurnaroundMin, defaultTurnaroundMin), floatOr(c.TurnaroundMax, defaultTurnaroundMax)
}

// SetDefaults fills zero values and unset optional fields. Booleans are left
// untouched.
func (c *Config) SetDefaults() {
	if c.Name == "" {
		c.Name = "depot"
	}
	if c.Mode == "" {
		c.Mode = ModeFleet
	}
	if c.Days == 0 {
		c.Days = 1
	}
	if c.EVs == 0 && c.Mode == ModeFleet {
		c.EVs = 11
	}
	if c.EVsPerDay == 0 && c.Mode == ModeDaily {
		c.EVsPerDay = 10
	}
	if c.BatteryKWh == 0 {
		c.BatteryKWh = 135
	}
	if c.FullChargeMiles == 0 {
		c.FullChargeMiles = 150
	}
	setFloat(&c.InitialCharge, defaultInitialCharge)
	setFloat(&c.TargetCharge, defaultTargetCharge)
	setFloat(&c.ThresholdCharge, defaultThresholdCharge)
	setFloat(&c.SpeedMPH, defaultSpeedMPH)
	setFloat(&c.TurnaroundMin, defaultTurnaroundMin)
	setFloat(&c.TurnaroundMax, defaultTurnaroundMax)
	if c.WorkdayStart == 0 && c.WorkdayEnd == 0 {
		c.WorkdayStart, c.WorkdayEnd = 7, 21
	}
	if c.Policy == "" {
		c.Policy = PolicyRandom
	}
	if len(c.Chargers) == 0 {
		c.Chargers = DefaultChargers()
	}
	for i := range c.Chargers {
		if c.Chargers[i].RateKW == 0 {
			c.Chargers[i].RateKW = c.Chargers[i].Level.DefaultRate()
		}
	}
	if len(c.DeliveryTypes) == 0 {
		c.DeliveryTypes = model.DefaultDeliveryTypes()
	}
}

// KWhPerMile is the energy a vehicle uses per mile driven.
func (c Config) KWhPerMile() float64 {
	if c.FullChargeMiles <= 0 {
		return 0
	}
	return c.BatteryKWh / c.FullChargeMiles
}

// Horizon returns the simulated duration in minutes.
func (c Config) Horizon() float64 { return float64(c.Days) * model.MinutesPerDay }

// TotalCapacity returns the number of vehicles all chargers can serve at once.
func (c Config) TotalCapacity() int {
	n := 0
	for _, ch := range c.Chargers {
		n += ch.Capacity()
	}
	return n
}

// Validate checks the configuration. SetDefaults should be called first.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeFleet:
		if c.EVs <= 0 {
			return fmt.Errorf("evs must be positive in fleet mode")
		}
	case ModeDaily:
		if c.EVsPerDay <= 0 {
			return fmt.Errorf("evs_per_day must be positive in daily mode")
		}
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	if c.Days <= 0 {
		return fmt.Errorf("days must be positive")
	}
	if c.BatteryKWh <= 0 || c.FullChargeMiles <= 0 {
		return fmt.Errorf("battery_kwh and full_charge_miles must be positive")
	}
	for name, v := range map[string]float64{
		"initial_charge":   c.InitialChargeFraction(),
		"target_charge":    c.TargetChargeFraction(),
		"threshold_charge": c.ThresholdChargeFraction(),
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be within [0, 1], got %v", name, v)
		}
	}
	if c.Speed() < 0 {
		return fmt.Errorf("speed_mph must be >= 0")
	}
	if lo, hi := c.Turnaround(); lo < 0 || hi < lo {
		return fmt.Errorf("invalid turnaround range [%v, %v]", lo, hi)
	}
	if c.WorkdayStart < 0 || c.WorkdayEnd > 24 || c.WorkdayEnd <= c.WorkdayStart {
		return fmt.Errorf("invalid workday [%v, %v)", c.WorkdayStart, c.WorkdayEnd)
	}
	if c.MaxCycles < 0 {
		return fmt.Errorf("max_cycles must be >= 0")
	}
	switch c.Policy {
	case PolicyRandom, PolicyShortestQueue, PolicyFastestIdle:
	default:
		return fmt.Errorf("unknown charger policy %q", c.Policy)
	}
	for _, ch := range c.Chargers {
		if err := ch.Validate(); err != nil {
			return err
		}
	}
	if c.TotalCapacity() == 0 {
		return ErrNoChargers
	}
	if len(c.DeliveryTypes) == 0 {
		return fmt.Errorf("at least one delivery type is required")
	}
	seen := map[string]bool{}
	for _, d := range c.DeliveryTypes {
		if err := d.Validate(); err != nil {
			return err
		}
		if seen[d.Name] {
			return fmt.Errorf("duplicate delivery type %q", d.Name)
		}
		seen[d.Name] = true
	}
	return nil
}

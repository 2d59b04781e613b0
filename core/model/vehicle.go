package model

import "fmt"

// Vehicle represents an electric delivery vehicle assigned to the depot.
type Vehicle struct {
	ID         string
	UUID       string
	BatteryKWh float64 // total battery capacity in kWh
	ChargeKWh  float64 // current energy in the battery
	Delivery   string  // delivery type of the current cycle, empty when none
	Cycles     int     // completed delivery cycles
	MaxCycles  int     // 0 means unlimited
	KWhPerMile float64 // energy used per mile
}

// Validate checks that the vehicle configuration is sound.
func (v Vehicle) Validate() error {
	if v.BatteryKWh <= 0 {
		return fmt.Errorf("battery capacity must be positive")
	}
	if v.ChargeKWh < 0 || v.ChargeKWh > v.BatteryKWh {
		return fmt.Errorf("charge %.2f outside [0, %.2f]", v.ChargeKWh, v.BatteryKWh)
	}
	return nil
}

// SoC returns the state of charge between 0 and 1.
func (v Vehicle) SoC() float64 {
	if v.BatteryKWh <= 0 {
		return 0
	}
	return v.ChargeKWh / v.BatteryKWh
}

// BatteryPct returns the state of charge as a percentage.
func (v Vehicle) BatteryPct() float64 { return v.SoC() * 100 }

// Drive consumes the energy needed for the given distance and returns the
// energy actually drawn. The battery never goes below zero.
func (v *Vehicle) Drive(miles float64) float64 {
	used := miles * v.KWhPerMile
	if used > v.ChargeKWh {
		used = v.ChargeKWh
	}
	v.ChargeKWh -= used
	return used
}

// EnergyToTarget returns the energy in kWh needed to reach target SoC.
func (v Vehicle) EnergyToTarget(target float64) float64 {
	need := target*v.BatteryKWh - v.ChargeKWh
	if need < 0 {
		return 0
	}
	return need
}

// AddEnergy charges the battery, clamped to its capacity, and returns the
// energy actually stored.
func (v *Vehicle) AddEnergy(kwh float64) float64 {
	if kwh < 0 {
		return 0
	}
	room := v.BatteryKWh - v.ChargeKWh
	if kwh > room {
		kwh = room
	}
	v.ChargeKWh += kwh
	return kwh
}

// Done reports whether the vehicle reached its cycle limit.
func (v Vehicle) Done() bool {
	return v.MaxCycles > 0 && v.Cycles >= v.MaxCycles
}

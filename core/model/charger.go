package model

import "fmt"

// ChargerLevel identifies the charging station class.
type ChargerLevel string

const (
	LevelL1 ChargerLevel = "L1"
	LevelL2 ChargerLevel = "L2"
	LevelL3 ChargerLevel = "L3"
)

// DefaultRate returns the nominal power of the level in kW.
func (l ChargerLevel) DefaultRate() float64 {
	switch l {
	case LevelL1:
		return 10
	case LevelL2:
		return 25
	case LevelL3:
		return 50
	default:
		return 0
	}
}

// ChargerSpec describes a group of identical charging stations.
type ChargerSpec struct {
	Name    string       `json:"name" yaml:"name"`
	Level   ChargerLevel `json:"level" yaml:"level"`
	RateKW  float64      `json:"rate_kw" yaml:"rate_kw"`
	Amount  int          `json:"amount" yaml:"amount"`
	Servers int          `json:"servers" yaml:"servers"`
}

// Capacity is the number of vehicles the group can charge at once.
func (c ChargerSpec) Capacity() int {
	if c.Amount <= 0 || c.Servers <= 0 {
		return 0
	}
	return c.Amount * c.Servers
}

// Label returns the name, falling back to the level.
func (c ChargerSpec) Label() string {
	if c.Name != "" {
		return c.Name
	}
	return string(c.Level)
}

// Validate checks the charger parameters.
func (c ChargerSpec) Validate() error {
	if c.Amount < 0 || c.Servers < 0 {
		return fmt.Errorf("charger %s: amount and servers must be >= 0", c.Label())
	}
	if c.Capacity() > 0 && c.RateKW <= 0 {
		return fmt.Errorf("charger %s: rate_kw must be positive", c.Label())
	}
	return nil
}

// ChargingMinutes returns the minutes needed to deliver kwh at the charger rate.
func (c ChargerSpec) ChargingMinutes(kwh float64) float64 {
	if c.RateKW <= 0 || kwh <= 0 {
		return 0
	}
	return kwh / c.RateKW * 60
}

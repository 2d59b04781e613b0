package model

import "fmt"

// DeliveryType is a class of delivery route with its distance range and
// daily assignment limits.
type DeliveryType struct {
	Name       string  `json:"name" yaml:"name"`
	MinMiles   float64 `json:"min_miles" yaml:"min_miles"`
	MaxMiles   float64 `json:"max_miles" yaml:"max_miles"`
	Weight     float64 `json:"weight" yaml:"weight"`
	DailyQuota int     `json:"daily_quota" yaml:"daily_quota"` // 0 means unlimited
}

// Validate checks range and weight.
func (d DeliveryType) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("delivery type name is required")
	}
	if d.MinMiles < 0 || d.MaxMiles < d.MinMiles {
		return fmt.Errorf("delivery %s: invalid range [%v, %v]", d.Name, d.MinMiles, d.MaxMiles)
	}
	if d.Weight <= 0 {
		return fmt.Errorf("delivery %s: weight must be positive", d.Name)
	}
	if d.DailyQuota < 0 {
		return fmt.Errorf("delivery %s: daily_quota must be >= 0", d.Name)
	}
	return nil
}

// DefaultDeliveryTypes returns the short/medium/long split used by the depot.
func DefaultDeliveryTypes() []DeliveryType {
	return []DeliveryType{
		{Name: "short", MinMiles: 5, MaxMiles: 25, Weight: 0.5, DailyQuota: 5},
		{Name: "medium", MinMiles: 25, MaxMiles: 50, Weight: 0.3, DailyQuota: 3},
		{Name: "long", MinMiles: 50, MaxMiles: 75, Weight: 0.2, DailyQuota: 2},
	}
}

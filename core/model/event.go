package model

import (
	"math"
	"time"
)

// EventType names a step of the vehicle lifecycle as written to the logs.
type EventType string

const (
	EventWaitingForShift   EventType = "waiting for shift"
	EventNoDelivery        EventType = "no delivery available"
	EventDeparts           EventType = "departs"
	EventReturns           EventType = "returns"
	EventHolding           EventType = "holding"
	EventRequestingCharger EventType = "requesting charger"
	EventStartsCharging    EventType = "starts charging"
	EventCharging          EventType = "charging"
	EventInterrupted       EventType = "interrupted"
)

// Keys used in Event.Extra.
const (
	ExtraQueueLength  = "queue_length"
	ExtraServers      = "servers"
	ExtraCapacity     = "capacity"
	ExtraWaitTime     = "wait_time"
	ExtraChargingTime = "charging_time"
	ExtraEnergyKWh    = "energy_kwh"
	ExtraMiles        = "miles"
)

// MinutesPerDay is the length of a simulated day.
const MinutesPerDay = 24 * 60

// Event is one log record emitted by the simulation. Time is expressed in
// simulated minutes since midnight of day 0.
type Event struct {
	Timestamp    time.Time          `json:"timestamp"`
	RunID        string             `json:"run_id,omitempty"`
	Simulation   string             `json:"simulation,omitempty"`
	Iteration    int                `json:"iteration"`
	EVID         string             `json:"ev_id"`
	EVUUID       string             `json:"ev_uuid,omitempty"`
	Type         EventType          `json:"event"`
	Time         float64            `json:"time"`
	Day          int                `json:"day"`
	BatteryPct   float64            `json:"battery_pct"`
	DeliveryType string             `json:"delivery_type,omitempty"`
	Charger      string             `json:"charger,omitempty"`
	Extra        map[string]float64 `json:"extra,omitempty"`
}

// Hour returns the simulated time in hours.
func (e Event) Hour() float64 { return e.Time / 60 }

// ExtraValue returns the extra field and whether it was set.
func (e Event) ExtraValue(key string) (float64, bool) {
	if e.Extra == nil {
		return 0, false
	}
	v, ok := e.Extra[key]
	if !ok || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// DayOf returns the simulated day for a time in minutes.
func DayOf(t float64) int { return int(math.Floor(t / MinutesPerDay)) }

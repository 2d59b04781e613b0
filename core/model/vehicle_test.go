package model

import (
	"math"
	"testing"
)

func TestVehicleDriveClampsAtZero(t *testing.T) {
	v := Vehicle{BatteryKWh: 135, ChargeKWh: 10, KWhPerMile: 0.9}
	used := v.Drive(50)
	if used != 10 {
		t.Fatalf("expected 10 kWh used got %v", used)
	}
	if v.ChargeKWh != 0 {
		t.Fatalf("expected empty battery got %v", v.ChargeKWh)
	}
}

func TestVehicleDrive(t *testing.T) {
	v := Vehicle{BatteryKWh: 135, ChargeKWh: 135, KWhPerMile: 0.9}
	v.Drive(20)
	if math.Abs(v.ChargeKWh-117) > 1e-9 {
		t.Fatalf("expected 117 got %v", v.ChargeKWh)
	}
	if math.Abs(v.BatteryPct()-100*117.0/135) > 1e-9 {
		t.Fatalf("unexpected pct %v", v.BatteryPct())
	}
}

func TestVehicleEnergyToTarget(t *testing.T) {
	v := Vehicle{BatteryKWh: 100, ChargeKWh: 60}
	if got := v.EnergyToTarget(0.75); math.Abs(got-15) > 1e-9 {
		t.Fatalf("expected 15 got %v", got)
	}
	v.ChargeKWh = 78
	if got := v.EnergyToTarget(0.75); got != 0 {
		t.Fatalf("expected 0 above target got %v", got)
	}
}

func TestVehicleAddEnergyClamped(t *testing.T) {
	v := Vehicle{BatteryKWh: 100, ChargeKWh: 95}
	if got := v.AddEnergy(20); got != 5 {
		t.Fatalf("expected 5 stored got %v", got)
	}
	if v.ChargeKWh != 100 {
		t.Fatalf("expected full battery got %v", v.ChargeKWh)
	}
	if got := v.AddEnergy(-1); got != 0 {
		t.Fatalf("negative energy stored %v", got)
	}
}

func TestVehicleValidate(t *testing.T) {
	if err := (Vehicle{}).Validate(); err == nil {
		t.Fatal("expected error for zero capacity")
	}
	if err := (Vehicle{BatteryKWh: 10, ChargeKWh: 11}).Validate(); err == nil {
		t.Fatal("expected error for overcharge")
	}
	if err := (Vehicle{BatteryKWh: 10, ChargeKWh: 5}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestVehicleDone(t *testing.T) {
	v := Vehicle{MaxCycles: 1}
	if v.Done() {
		t.Fatal("not done before first cycle")
	}
	v.Cycles = 1
	if !v.Done() {
		t.Fatal("expected done")
	}
	if (Vehicle{Cycles: 10}).Done() {
		t.Fatal("unlimited vehicle reported done")
	}
}

func TestChargerSpec(t *testing.T) {
	c := ChargerSpec{Level: LevelL3, RateKW: 50, Amount: 2, Servers: 2}
	if c.Capacity() != 4 {
		t.Fatalf("expected capacity 4 got %d", c.Capacity())
	}
	if c.Label() != "L3" {
		t.Fatalf("unexpected label %s", c.Label())
	}
	if got := c.ChargingMinutes(25); got != 30 {
		t.Fatalf("expected 30 minutes got %v", got)
	}
	if err := (ChargerSpec{Level: LevelL1, Amount: 1, Servers: 1}).Validate(); err == nil {
		t.Fatal("expected error for missing rate")
	}
	if (ChargerSpec{Amount: 1}).Capacity() != 0 {
		t.Fatal("charger without servers has capacity")
	}
}

func TestDeliveryTypeValidate(t *testing.T) {
	for _, d := range DefaultDeliveryTypes() {
		if err := d.Validate(); err != nil {
			t.Fatalf("default %s invalid: %v", d.Name, err)
		}
	}
	bad := DeliveryType{Name: "x", MinMiles: 10, MaxMiles: 5, Weight: 1}
	if err := bad.Validate(); err == nil {
		t.Fatal("expected range error")
	}
}

func TestEventHelpers(t *testing.T) {
	ev := Event{Time: 90, Extra: map[string]float64{ExtraQueueLength: 2}}
	if ev.Hour() != 1.5 {
		t.Fatalf("unexpected hour %v", ev.Hour())
	}
	if v, ok := ev.ExtraValue(ExtraQueueLength); !ok || v != 2 {
		t.Fatalf("unexpected extra %v %v", v, ok)
	}
	if _, ok := ev.ExtraValue(ExtraWaitTime); ok {
		t.Fatal("missing key reported present")
	}
	if DayOf(1439.9) != 0 || DayOf(1440) != 1 {
		t.Fatal("unexpected day boundaries")
	}
}

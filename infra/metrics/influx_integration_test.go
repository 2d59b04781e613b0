//go:build integration

package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/kilianp07/depotsim/core/model"
	"github.com/kilianp07/depotsim/test/util"
)

func TestInfluxSinkIntegration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	url, cleanup, err := util.StartInfluxDB(ctx)
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	defer cleanup()

	sink, ok := NewInfluxSinkWithFallback(url, util.InfluxToken, util.InfluxOrg, util.InfluxBucket).(*InfluxSink)
	if !ok {
		t.Fatal("health check failed against a running instance")
	}
	defer sink.Close()

	evs := []model.Event{
		{Simulation: "it_000", EVID: "EV1", Type: model.EventDeparts, Time: 420, BatteryPct: 1},
		{Simulation: "it_000", EVID: "EV1", Type: model.EventReturns, Time: 480, BatteryPct: 0.7},
	}
	if err := sink.RecordEvents(evs); err != nil {
		t.Fatalf("record: %v", err)
	}

	client := util.NewInfluxClient(url, util.InfluxOrg, util.InfluxBucket, util.InfluxToken)
	defer client.Close()
	n, err := client.Count(ctx, "depot_event", "battery_pct")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 battery points, got %d", n)
	}
}

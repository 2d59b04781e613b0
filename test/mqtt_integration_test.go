//go:build integration

package test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/depotsim/app"
	"github.com/kilianp07/depotsim/core/factory"
	"github.com/kilianp07/depotsim/test/util"
)

func TestMQTTSinkPublishesRun(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	broker, cleanup, err := util.StartMosquitto(ctx)
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	defer cleanup()

	var (
		mu        sync.Mutex
		summaries = map[string]bool{}
		events    int
		status    []string
	)
	sub := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID("observer"))
	if tok := sub.Connect(); tok.Wait() && tok.Error() != nil {
		t.Fatalf("connect: %v", tok.Error())
	}
	defer sub.Disconnect(100)
	tok := sub.Subscribe("depot/#", 1, func(_ paho.Client, m paho.Message) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case strings.HasSuffix(m.Topic(), "/summary"):
			summaries[m.Topic()] = true
		case strings.HasSuffix(m.Topic(), "/events"):
			events++
		case m.Topic() == "depot/status":
			status = append(status, string(m.Payload()))
		}
	})
	if tok.Wait() && tok.Error() != nil {
		t.Fatalf("subscribe: %v", tok.Error())
	}

	cfg := newConfig(t, factory.ModuleConfig{Type: "mqtt", Conf: map[string]any{
		"broker":    broker,
		"client_id": "depotsim-it",
		"qos":       1,
	}})
	svc, err := app.New(cfg)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	defer func() { _ = svc.Close() }()
	if _, err := svc.Simulate(ctx); err != nil {
		t.Fatalf("simulate: %v", err)
	}

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		done := len(summaries) == 2 && events > 0
		mu.Unlock()
		if done {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	mu.Lock()
	defer mu.Unlock()
	if !summaries["depot/fastslow_000/summary"] || !summaries["depot/fastslow_001/summary"] {
		t.Fatalf("missing summaries: %v", summaries)
	}
	if events == 0 {
		t.Fatal("no event messages received")
	}
	if len(status) == 0 || status[0] != "online" {
		t.Fatalf("expected online status, got %v", status)
	}
}

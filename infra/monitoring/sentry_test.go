package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/kilianp07/depotsim/config"
	coremon "github.com/kilianp07/depotsim/core/monitoring"
)

func TestNewSentryMonitorWithoutDSN(t *testing.T) {
	m, err := NewSentryMonitor(config.SentryConfig{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, ok := m.(coremon.NopMonitor); !ok {
		t.Fatalf("expected NopMonitor, got %T", m)
	}
}

func TestNewSentryMonitorInvalidDSN(t *testing.T) {
	if _, err := NewSentryMonitor(config.SentryConfig{DSN: "::not a dsn"}); err == nil {
		t.Fatalf("expected error for invalid dsn")
	}
}

func TestSentryMonitorCapture(t *testing.T) {
	m, err := NewSentryMonitor(config.SentryConfig{DSN: "https://public@example.com/1", Environment: "test"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	m.CaptureException(errors.New("iteration failed"), map[string]string{"simulation": "depot_000"})
	m.CaptureException(nil, nil)
	m.CapturePanic("boom", nil)
	m.Flush(10 * time.Millisecond)
}

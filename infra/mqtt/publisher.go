package mqtt

import (
	"encoding/json"
	"fmt"
	"sync"

	coremetrics "github.com/kilianp07/depotsim/core/metrics"
	"github.com/kilianp07/depotsim/core/model"
	coremqtt "github.com/kilianp07/depotsim/core/mqtt"
)

// EventPublisher streams simulation records to MQTT. It implements
// core/metrics.MetricsSink so it can be listed among the metrics sinks.
type EventPublisher struct {
	pub    coremqtt.Publisher
	prefix string
}

// NewEventPublisher wraps pub. An empty prefix uses the default topic root.
func NewEventPublisher(pub coremqtt.Publisher, prefix string) *EventPublisher {
	return &EventPublisher{pub: pub, prefix: prefix}
}

// RecordEvents publishes each event as JSON on its vehicle topic.
func (p *EventPublisher) RecordEvents(events []model.Event) error {
	for _, e := range events {
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode event: %w", err)
		}
		if err := p.pub.Publish(coremqtt.EventTopic(p.prefix, e.Simulation, e.EVID), payload); err != nil {
			return fmt.Errorf("publish %s event of %s: %w", e.Type, e.EVID, err)
		}
	}
	return nil
}

// RecordIteration publishes the iteration summary.
func (p *EventPublisher) RecordIteration(ev coremetrics.IterationEvent) error {
	msg := struct {
		RunID     string `json:"run_id"`
		Iteration int    `json:"iteration"`
		Error     string `json:"error,omitempty"`
		Summary   any    `json:"summary"`
	}{RunID: ev.RunID, Iteration: ev.Iteration, Summary: ev.Summary}
	if ev.Err != nil {
		msg.Error = ev.Err.Error()
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.pub.Publish(coremqtt.SummaryTopic(p.prefix, ev.Summary.Simulation), payload)
}

// Close disconnects the underlying client when it supports it, which
// publishes the retained offline status.
func (p *EventPublisher) Close() error {
	if d, ok := p.pub.(interface{ Disconnect() }); ok {
		d.Disconnect()
	}
	return nil
}

var _ coremetrics.Closer = (*EventPublisher)(nil)

// MockPublisher records published messages in memory.
type MockPublisher struct {
	mu       sync.Mutex
	Messages map[string][][]byte
	Fail     error
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{Messages: make(map[string][][]byte)}
}

// Publish records the payload or returns the configured failure.
func (m *MockPublisher) Publish(topic string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	m.Messages[topic] = append(m.Messages[topic], append([]byte(nil), payload...))
	return nil
}

// Count returns the number of messages published on topic.
func (m *MockPublisher) Count(topic string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Messages[topic])
}

package eventbus

import "context"

// Event represents an arbitrary event passed on the bus.
type Event interface{}

// EventBus implements a simple publish/subscribe event bus.
type EventBus interface {
	Publish(Event)
	// PublishWait blocks until every subscriber received the event or ctx
	// is done. Used for events that must not be dropped.
	PublishWait(context.Context, Event) error
	Subscribe() <-chan Event
	Unsubscribe(<-chan Event)
	Close()
}

// Bus is the default EventBus implementation, an untyped TypedBus.
type Bus struct {
	*TypedBus[Event]
}

// New creates a new Bus.
func New() *Bus { return &Bus{TypedBus: NewTyped[Event]()} }

var _ EventBus = (*Bus)(nil)

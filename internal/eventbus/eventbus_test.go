package eventbus

import "testing"

type finished struct {
	run string
	n   int
}

func TestBusDeliversStructEvents(t *testing.T) {
	bus := New()
	a := bus.Subscribe()
	b := bus.SubscribeBuffered(1)
	bus.Publish(finished{run: "r1", n: 3})

	for _, ch := range []<-chan Event{a, b} {
		ev, ok := (<-ch).(finished)
		if !ok || ev.run != "r1" || ev.n != 3 {
			t.Fatalf("unexpected event %#v", ev)
		}
	}
	bus.Unsubscribe(a)
	if _, ok := <-a; ok {
		t.Fatal("expected unsubscribed channel to be closed")
	}
	bus.Publish(finished{run: "r2"})
	if got := len(b); got != 1 {
		t.Fatalf("expected remaining subscriber to get r2, buffered %d", got)
	}
	bus.Close()
}

func TestBusSubscribeAfterClose(t *testing.T) {
	bus := New()
	bus.Close()
	ch := bus.Subscribe()
	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel from a closed bus")
	}
	bus.Publish("ignored")
	if bus.Dropped() != 0 {
		t.Fatalf("publish on a closed bus must not count drops, got %d", bus.Dropped())
	}
	bus.Unsubscribe(ch)
}

package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/depotsim/core/events"
	coremetrics "github.com/kilianp07/depotsim/core/metrics"
	"github.com/kilianp07/depotsim/infra/logger"
	"github.com/kilianp07/depotsim/internal/eventbus"
)

const collectorBuffer = 256

// StartEventCollector subscribes to the event bus and records run lifecycle
// events. It stops when the context is canceled. The returned channel is
// closed once the collector has drained its subscription.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	var sub <-chan eventbus.Event
	if b, ok := bus.(interface {
		SubscribeBuffered(int) <-chan eventbus.Event
	}); ok {
		sub = b.SubscribeBuffered(collectorBuffer)
	} else {
		sub = bus.Subscribe()
	}
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				switch e := ev.(type) {
				case events.IterationStarted:
					log.Debugw("iteration started", map[string]any{
						"run_id":     e.RunID,
						"simulation": e.Simulation,
						"seed":       e.Seed,
					})
				case events.IterationFinished:
					if e.Err != nil {
						log.Warnf("%s failed after %s: %v", e.Simulation, e.Duration, e.Err)
						continue
					}
					log.Infof("%s: %d events, %d sessions, mean wait %.1f min",
						e.Simulation, e.Summary.Events, e.Summary.Sessions, e.Summary.MeanWait)
				case events.RunFinished:
					if r, ok := sink.(coremetrics.RunRecorder); ok {
						if err := r.RecordRun(coremetrics.RunEvent{
							RunID:      e.RunID,
							Iterations: e.Iterations,
							Failed:     e.Failed,
							Duration:   e.Duration,
							Time:       time.Now(),
						}); err != nil {
							log.Warnf("record run: %v", err)
						}
					}
				}
			}
		}
	}()
	return done
}

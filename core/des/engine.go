package des

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/sarchlab/akita/v4/sim"
)

// ErrHalted is returned by Run when the context was cancelled before the
// event queue drained.
var ErrHalted = errors.New("simulation halted")

// callback is the akita event that wakes the environment at one instant.
// The closures due at that instant are queued in Environment.pending.
type callback struct {
	at  sim.VTimeInSec
	env *Environment
}

func (c callback) Time() sim.VTimeInSec { return c.at }
func (c callback) Handler() sim.Handler { return c.env }
func (c callback) IsSecondary() bool    { return false }

// Environment schedules callbacks on simulated time. Times are minutes.
type Environment struct {
	engine    *sim.SerialEngine
	now       float64
	until     float64
	ctx       context.Context
	halted    bool
	processed int
	// FIFO queues per instant; akita does not order events sharing a time.
	pending map[float64][]func()
}

// NewEnvironment returns an environment whose clock starts at zero.
func NewEnvironment() *Environment {
	return &Environment{
		engine:  sim.NewSerialEngine(),
		until:   math.Inf(1),
		ctx:     context.Background(),
		pending: map[float64][]func(){},
	}
}

// Now returns the current simulated time.
func (e *Environment) Now() float64 { return e.now }

// Until returns the horizon of the current run.
func (e *Environment) Until() float64 { return e.until }

// Processed returns the number of callbacks executed so far.
func (e *Environment) Processed() int { return e.processed }

// Schedule runs fn at the absolute time at. Callbacks sharing a time run in
// the order they were scheduled. Callbacks at or past the horizon are dropped
// and false is returned.
func (e *Environment) Schedule(at float64, fn func()) bool {
	if e.halted || fn == nil || math.IsNaN(at) {
		return false
	}
	if at < e.now {
		at = e.now
	}
	if at >= e.until {
		return false
	}
	q, queued := e.pending[at]
	e.pending[at] = append(q, fn)
	if !queued {
		e.engine.Schedule(callback{at: sim.VTimeInSec(at), env: e})
	}
	return true
}

// After runs fn delay minutes from now.
func (e *Environment) After(delay float64, fn func()) (bool, error) {
	if delay < 0 || math.IsNaN(delay) {
		return false, fmt.Errorf("invalid delay %v", delay)
	}
	return e.Schedule(e.now+delay, fn), nil
}

// Handle implements sim.Handler.
func (e *Environment) Handle(evt sim.Event) error {
	cb, ok := evt.(callback)
	if !ok {
		return fmt.Errorf("unexpected event %T", evt)
	}
	at := float64(cb.at)
	defer delete(e.pending, at)
	for {
		q := e.pending[at]
		if len(q) == 0 || e.halted || at >= e.until {
			return nil
		}
		if err := e.ctx.Err(); err != nil {
			e.halted = true
			return nil
		}
		fn := q[0]
		e.pending[at] = q[1:]
		e.now = at
		e.processed++
		fn()
	}
}

// Run processes events until the queue drains. No callback is scheduled at
// or after until. The context is checked before every callback.
func (e *Environment) Run(ctx context.Context, until float64) error {
	if until <= e.now {
		return fmt.Errorf("horizon %v must be after current time %v", until, e.now)
	}
	e.ctx = ctx
	e.until = until
	if err := e.engine.Run(); err != nil {
		return err
	}
	if e.halted {
		return fmt.Errorf("%w: %v", ErrHalted, ctx.Err())
	}
	return nil
}

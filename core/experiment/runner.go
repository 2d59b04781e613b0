package experiment

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/depotsim/core/depot"
	"github.com/kilianp07/depotsim/core/events"
	"github.com/kilianp07/depotsim/core/logger"
	"github.com/kilianp07/depotsim/core/metrics"
	"github.com/kilianp07/depotsim/core/model"
	"github.com/kilianp07/depotsim/core/monitoring"
	"github.com/kilianp07/depotsim/core/store"
	"github.com/kilianp07/depotsim/internal/eventbus"
)

// runFinishedTimeout bounds the wait for slow bus subscribers.
const runFinishedTimeout = 5 * time.Second

// Config controls how many iterations run and how many run at once.
type Config struct {
	Iterations  int `json:"iterations" yaml:"iterations"`
	Concurrency int `json:"concurrency" yaml:"concurrency"`
	// FailFast stops remaining iterations after the first failure.
	FailFast bool `json:"fail_fast" yaml:"fail_fast"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Iterations == 0 {
		c.Iterations = 1
	}
	if c.Concurrency == 0 {
		c.Concurrency = runtime.GOMAXPROCS(0)
	}
}

// Validate checks the settings.
func (c Config) Validate() error {
	if c.Iterations < 1 {
		return fmt.Errorf("iterations must be >= 1")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be >= 1")
	}
	return nil
}

// IterationReport describes one finished iteration.
type IterationReport struct {
	Iteration  int           `json:"iteration"`
	Simulation string        `json:"simulation"`
	Seed       uint64        `json:"seed"`
	Summary    depot.Summary `json:"summary"`
	Duration   time.Duration `json:"duration"`
	Err        error         `json:"-"`
}

// Report gathers the iterations of a run in iteration order.
type Report struct {
	RunID      string            `json:"run_id"`
	Iterations []IterationReport `json:"iterations"`
	Duration   time.Duration     `json:"duration"`
}

// Failed returns the number of iterations that ended with an error.
func (r Report) Failed() int {
	n := 0
	for _, it := range r.Iterations {
		if it.Err != nil {
			n++
		}
	}
	return n
}

// Runner executes independent simulations of the same depot configuration.
type Runner struct {
	depot   depot.Config
	cfg     Config
	store   store.LogStore
	sink    metrics.MetricsSink
	bus     eventbus.EventBus
	monitor monitoring.Monitor
	log     logger.Logger
	runID   string
	clock   func() time.Time
}

// Option customises a Runner.
type Option func(*Runner)

func WithStore(s store.LogStore) Option       { return func(r *Runner) { r.store = s } }
func WithSink(s metrics.MetricsSink) Option   { return func(r *Runner) { r.sink = s } }
func WithBus(b eventbus.EventBus) Option      { return func(r *Runner) { r.bus = b } }
func WithMonitor(m monitoring.Monitor) Option { return func(r *Runner) { r.monitor = m } }
func WithLogger(l logger.Logger) Option       { return func(r *Runner) { r.log = logger.OrNop(l) } }
func WithRunID(id string) Option              { return func(r *Runner) { r.runID = id } }
func WithClock(fn func() time.Time) Option    { return func(r *Runner) { r.clock = fn } }

// NewRunner validates both configurations.
func NewRunner(dc depot.Config, cfg Config, opts ...Option) (*Runner, error) {
	if err := dc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid depot config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Runner{
		depot:   dc,
		cfg:     cfg,
		sink:    metrics.NopSink{},
		monitor: monitoring.NopMonitor{},
		log:     logger.Nop{},
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.runID == "" {
		r.runID = uuid.NewString()
	}
	return r, nil
}

// RunID identifies the run in every event and log record.
func (r *Runner) RunID() string { return r.runID }

// SimulationName returns the name of iteration i.
func SimulationName(base string, i int) string {
	return fmt.Sprintf("%s_%03d", base, i)
}

// Run simulates every iteration. Iteration failures are reported in the
// Report; the returned error is set when ctx is cancelled, or on the first
// failure when FailFast is enabled.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	started := r.clock()
	r.log.Infof("run %s: %d iteration(s) of %s, concurrency %d", r.runID, r.cfg.Iterations, r.depot.Name, r.cfg.Concurrency)

	var (
		mu      sync.Mutex
		reports = make([]IterationReport, 0, r.cfg.Iterations)
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)
	for i := 0; i < r.cfg.Iterations; i++ {
		i := i
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			rep := r.iteration(gctx, i)
			mu.Lock()
			reports = append(reports, rep)
			mu.Unlock()
			if rep.Err != nil && r.cfg.FailFast {
				return rep.Err
			}
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	sort.Slice(reports, func(a, b int) bool { return reports[a].Iteration < reports[b].Iteration })
	report := Report{RunID: r.runID, Iterations: reports, Duration: r.clock().Sub(started)}
	if r.bus != nil {
		// RunFinished must reach the collectors even after cancellation.
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), runFinishedTimeout)
		perr := r.bus.PublishWait(pctx, events.RunFinished{
			RunID:      r.runID,
			Iterations: len(reports),
			Failed:     report.Failed(),
			Duration:   report.Duration,
		})
		cancel()
		if perr != nil {
			r.log.Warnf("run %s: publish run finished: %v", r.runID, perr)
		}
	}
	r.log.Infof("run %s: %d iteration(s) done, %d failed in %s", r.runID, len(reports), report.Failed(), report.Duration)
	return report, err
}

func (r *Runner) iteration(ctx context.Context, i int) (rep IterationReport) {
	cfg := r.depot
	cfg.Seed = r.depot.Seed + uint64(i)
	name := SimulationName(r.depot.Name, i)
	rep = IterationReport{Iteration: i, Simulation: name, Seed: cfg.Seed}
	start := r.clock()
	tags := map[string]string{"run_id": r.runID, "simulation": name, "iteration": strconv.Itoa(i)}

	defer func() {
		if v := recover(); v != nil {
			r.monitor.CapturePanic(v, tags)
			rep.Err = fmt.Errorf("%s: panic: %v", name, v)
		}
		rep.Duration = r.clock().Sub(start)
		r.finish(rep, tags)
	}()

	if r.bus != nil {
		r.bus.Publish(events.IterationStarted{RunID: r.runID, Simulation: name, Iteration: i, Seed: cfg.Seed})
	}
	sim, err := depot.New(cfg,
		depot.WithIdentity(r.runID, name, i),
		depot.WithLogger(r.log),
		depot.WithClock(r.clock),
	)
	if err != nil {
		rep.Err = err
		return rep
	}
	res, err := sim.Run(ctx)
	if err != nil {
		rep.Err = err
		return rep
	}
	rep.Summary = res.Summary
	if r.store != nil {
		if err := r.store.Write(ctx, name, res.Events); err != nil {
			rep.Err = fmt.Errorf("%s: store: %w", name, err)
			return rep
		}
	}
	if err := r.sink.RecordEvents(res.Events); err != nil {
		r.log.Warnf("%s: metrics sink: %v", name, err)
	}
	return rep
}

func (r *Runner) finish(rep IterationReport, tags map[string]string) {
	if rep.Err != nil {
		r.log.Errorf("%s failed: %v", rep.Simulation, rep.Err)
		r.monitor.CaptureException(rep.Err, tags)
	} else {
		r.log.Debugw("iteration finished", map[string]any{
			"simulation": rep.Simulation,
			"seed":       rep.Seed,
			"events":     rep.Summary.Events,
			"sessions":   rep.Summary.Sessions,
			"duration":   rep.Duration.String(),
		})
	}
	if rec, ok := r.sink.(metrics.IterationRecorder); ok {
		if err := rec.RecordIteration(metrics.IterationEvent{
			RunID:     r.runID,
			Iteration: rep.Iteration,
			Summary:   rep.Summary,
			Duration:  rep.Duration,
			Err:       rep.Err,
			Time:      r.clock(),
		}); err != nil {
			r.log.Warnf("%s: metrics sink: %v", rep.Simulation, err)
		}
	}
	if r.bus != nil {
		r.bus.Publish(events.IterationFinished{
			RunID:      r.runID,
			Simulation: rep.Simulation,
			Iteration:  rep.Iteration,
			Summary:    rep.Summary,
			Duration:   rep.Duration,
			Err:        rep.Err,
		})
	}
}

// Collect runs the experiment without a store and returns every event,
// grouped by simulation name.
func Collect(ctx context.Context, dc depot.Config, cfg Config, opts ...Option) (map[string][]model.Event, Report, error) {
	mem := &memoryStore{events: map[string][]model.Event{}}
	r, err := NewRunner(dc, cfg, append(opts, WithStore(mem))...)
	if err != nil {
		return nil, Report{}, err
	}
	rep, err := r.Run(ctx)
	return mem.events, rep, err
}

type memoryStore struct {
	mu     sync.Mutex
	events map[string][]model.Event
}

func (m *memoryStore) Write(_ context.Context, simulation string, events []model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[simulation] = append(m.events[simulation], events...)
	return nil
}

func (m *memoryStore) Query(_ context.Context, q store.Query) ([]model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.events))
	for n := range m.events {
		names = append(names, n)
	}
	sort.Strings(names)
	var out []model.Event
	for _, n := range names {
		for _, e := range m.events[n] {
			if q.Match(e) {
				out = append(out, e)
			}
		}
	}
	return out, nil
}

func (m *memoryStore) Close() error { return nil }

package depot

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/kilianp07/depotsim/core/des"
	"github.com/kilianp07/depotsim/core/logger"
	"github.com/kilianp07/depotsim/core/model"
)

// Result holds everything produced by one simulation run.
type Result struct {
	Events  []model.Event
	Summary Summary
}

// Simulation runs the depot model once. It is not safe for concurrent use;
// independent simulations may run in parallel.
type Simulation struct {
	cfg       Config
	runID     string
	name      string
	iteration int

	env      *des.Environment
	rng      *rand.Rand
	log      logger.Logger
	clock    func() time.Time
	observer func(model.Event)

	stations []*station
	quota    *quotaBook
	parked   []*process
	vehicles int
	events   []model.Event
	stats    counters
	ran      bool
}

// Option customises a Simulation.
type Option func(*Simulation)

// WithLogger sets the logger used for progress messages.
func WithLogger(l logger.Logger) Option {
	return func(s *Simulation) { s.log = logger.OrNop(l) }
}

// WithIdentity tags every event with the run, simulation name and iteration.
func WithIdentity(runID, name string, iteration int) Option {
	return func(s *Simulation) {
		s.runID = runID
		s.name = name
		s.iteration = iteration
	}
}

// WithObserver registers a callback invoked for each event as it is logged.
func WithObserver(fn func(model.Event)) Option {
	return func(s *Simulation) { s.observer = fn }
}

// WithClock overrides the wall clock used for event timestamps.
func WithClock(fn func() time.Time) Option {
	return func(s *Simulation) { s.clock = fn }
}

// New validates cfg and prepares a simulation.
func New(cfg Config, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid depot config: %w", err)
	}
	s := &Simulation{
		cfg:   cfg,
		name:  cfg.Name,
		env:   des.NewEnvironment(),
		rng:   rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		log:   logger.Nop{},
		clock: time.Now,
		quota: newQuotaBook(cfg.DeliveryTypes),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, spec := range cfg.Chargers {
		if spec.Capacity() == 0 {
			continue
		}
		res, err := des.NewResource(s.env, spec.Label(), spec.Capacity())
		if err != nil {
			return nil, err
		}
		s.stations = append(s.stations, &station{spec: spec, res: res})
	}
	if len(s.stations) == 0 {
		return nil, ErrNoChargers
	}
	return s, nil
}

// Run executes the simulation until the configured horizon.
func (s *Simulation) Run(ctx context.Context) (Result, error) {
	if s.ran {
		return Result{}, fmt.Errorf("simulation %s already ran", s.name)
	}
	s.ran = true
	horizon := s.cfg.Horizon()
	for day := 0; day < s.cfg.Days; day++ {
		day := day
		s.env.Schedule(float64(day)*model.MinutesPerDay, func() { s.midnight(day) })
	}
	s.log.Debugf("simulation %s: running %d day(s) with %d charger group(s)", s.name, s.cfg.Days, len(s.stations))
	if err := s.env.Run(ctx, horizon); err != nil {
		return Result{}, fmt.Errorf("simulation %s: %w", s.name, err)
	}
	sum := s.summary(horizon)
	s.log.Infof("simulation %s: %d events, %d deliveries, %d charging sessions", s.name, len(s.events), sum.Deliveries, sum.Sessions)
	return Result{Events: s.events, Summary: sum}, nil
}

// midnight resets delivery quotas, brings in new vehicles and wakes the ones
// parked until the next workday.
func (s *Simulation) midnight(day int) {
	if day > 0 {
		s.quota.reset()
	}
	switch s.cfg.Mode {
	case ModeFleet:
		if day == 0 {
			for i := 0; i < s.cfg.EVs; i++ {
				s.spawn(s.cfg.MaxCycles).cycle()
			}
		}
	case ModeDaily:
		for i := 0; i < s.cfg.EVsPerDay; i++ {
			s.spawn(1).cycle()
		}
	}
	start := float64(day)*model.MinutesPerDay + s.cfg.WorkdayStart*60
	parked := s.parked
	s.parked = nil
	for _, p := range parked {
		s.env.Schedule(start, p.cycle)
	}
}

func (s *Simulation) spawn(maxCycles int) *process {
	s.vehicles++
	ev := &model.Vehicle{
		ID:         fmt.Sprintf("EV%d", s.vehicles),
		UUID:       s.uuid(),
		BatteryKWh: s.cfg.BatteryKWh,
		ChargeKWh:  s.cfg.InitialChargeFraction() * s.cfg.BatteryKWh,
		MaxCycles:  maxCycles,
		KWhPerMile: s.cfg.KWhPerMile(),
	}
	return &process{sim: s, ev: ev}
}

// uuid derives vehicle identifiers from the seeded generator so that runs
// stay reproducible.
func (s *Simulation) uuid() string {
	id, err := uuid.NewRandomFromReader(rngReader{s.rng})
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

type rngReader struct{ r *rand.Rand }

func (r rngReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(r.r.Uint32())
	}
	return len(p), nil
}

func (s *Simulation) hourOf(t float64) float64 {
	return math.Mod(t, model.MinutesPerDay) / 60
}

func (s *Simulation) inWorkday(t float64) bool {
	h := s.hourOf(t)
	return h >= s.cfg.WorkdayStart && h < s.cfg.WorkdayEnd
}

// workdayEnd returns the end of the workday of the day containing t.
func (s *Simulation) workdayEnd(t float64) float64 {
	return float64(model.DayOf(t))*model.MinutesPerDay + s.cfg.WorkdayEnd*60
}

// after schedules fn delay minutes from now. Delays are never negative here.
func (s *Simulation) after(delay float64, fn func()) {
	if _, err := s.env.After(delay, fn); err != nil {
		s.log.Errorf("simulation %s: %v", s.name, err)
	}
}

// uniform draws from U[lo, hi].
func (s *Simulation) uniform(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return distuv.Uniform{Min: lo, Max: hi, Src: s.rng}.Rand()
}

func (s *Simulation) emit(ev *model.Vehicle, typ model.EventType, charger string, extra map[string]float64) {
	now := s.env.Now()
	e := model.Event{
		Timestamp:    s.clock().UTC(),
		RunID:        s.runID,
		Simulation:   s.name,
		Iteration:    s.iteration,
		EVID:         ev.ID,
		EVUUID:       ev.UUID,
		Type:         typ,
		Time:         now,
		Day:          model.DayOf(now),
		BatteryPct:   ev.BatteryPct(),
		DeliveryType: ev.Delivery,
		Charger:      charger,
		Extra:        extra,
	}
	s.events = append(s.events, e)
	if s.observer != nil {
		s.observer(e)
	}
}

package depot

import (
	"github.com/kilianp07/depotsim/core/des"
	"github.com/kilianp07/depotsim/core/model"
)

// process drives one vehicle through its delivery and charging cycles. Each
// step is a scheduler callback; the vehicle is suspended between them.
type process struct {
	sim *Simulation
	ev  *model.Vehicle
}

// cycle starts a new delivery cycle, or waits when outside the workday or
// when no delivery type has quota left.
func (p *process) cycle() {
	s := p.sim
	if p.ev.Done() {
		return
	}
	now := s.env.Now()
	if !s.inWorkday(now) {
		p.ev.Delivery = ""
		s.emit(p.ev, model.EventWaitingForShift, "", nil)
		p.waitForShift(now)
		return
	}
	dt, ok := s.quota.assign(s.rng)
	if !ok {
		p.ev.Delivery = ""
		s.stats.unassigned++
		s.emit(p.ev, model.EventNoDelivery, "", nil)
		s.parked = append(s.parked, p)
		return
	}
	p.ev.Delivery = dt.Name
	miles := s.uniform(dt.MinMiles, dt.MaxMiles)
	s.stats.deliveries++
	s.emit(p.ev, model.EventDeparts, "", map[string]float64{model.ExtraMiles: miles})
	var drive float64
	if speed := s.cfg.Speed(); speed > 0 {
		drive = miles / speed * 60
	}
	s.after(drive, func() { p.returned(miles) })
}

// waitForShift resumes the vehicle at the next workday start. Vehicles past
// the end of the workday are parked until midnight.
func (p *process) waitForShift(now float64) {
	s := p.sim
	if s.hourOf(now) < s.cfg.WorkdayStart {
		start := float64(model.DayOf(now))*model.MinutesPerDay + s.cfg.WorkdayStart*60
		s.env.Schedule(start, p.cycle)
		return
	}
	s.parked = append(s.parked, p)
}

func (p *process) returned(miles float64) {
	s := p.sim
	used := p.ev.Drive(miles)
	s.emit(p.ev, model.EventReturns, "", map[string]float64{
		model.ExtraMiles:     miles,
		model.ExtraEnergyKWh: used,
	})
	if p.ev.SoC() < s.cfg.ThresholdChargeFraction() {
		p.requestCharger()
		return
	}
	s.stats.holdings++
	s.emit(p.ev, model.EventHolding, "", nil)
	p.finishCycle()
}

func (p *process) requestCharger() {
	s := p.sim
	st := selectStation(s.cfg.Policy, s.stations, s.rng)
	requested := s.env.Now()
	s.emit(p.ev, model.EventRequestingCharger, st.spec.Label(), map[string]float64{
		model.ExtraQueueLength: float64(st.res.Load()),
		model.ExtraServers:     float64(st.res.Capacity()),
		model.ExtraCapacity:    float64(s.cfg.TotalCapacity()),
	})
	var req *des.Request
	req = st.res.Request(func() { p.startCharging(st, req, requested) })
}

func (p *process) startCharging(st *station, req *des.Request, requested float64) {
	s := p.sim
	now := s.env.Now()
	wait := now - requested
	s.stats.waits = append(s.stats.waits, wait)
	s.emit(p.ev, model.EventStartsCharging, st.spec.Label(), map[string]float64{
		model.ExtraWaitTime: wait,
	})
	energy := p.ev.EnergyToTarget(s.cfg.TargetChargeFraction())
	duration := st.spec.ChargingMinutes(energy)
	interrupted := false
	if s.cfg.StopAtWorkdayEnd {
		if end := s.workdayEnd(now); now+duration > end {
			duration = end - now
			if duration < 0 {
				duration = 0
			}
			energy = st.spec.RateKW * duration / 60
			interrupted = true
		}
	}
	s.after(duration, func() { p.finishCharging(st, req, energy, duration, interrupted) })
}

func (p *process) finishCharging(st *station, req *des.Request, energy, duration float64, interrupted bool) {
	s := p.sim
	stored := p.ev.AddEnergy(energy)
	s.stats.sessions++
	s.stats.energy += stored
	extra := map[string]float64{
		model.ExtraChargingTime: duration,
		model.ExtraEnergyKWh:    stored,
	}
	if interrupted {
		s.stats.interruptions++
		s.emit(p.ev, model.EventInterrupted, st.spec.Label(), extra)
	}
	s.emit(p.ev, model.EventCharging, st.spec.Label(), extra)
	if err := st.res.Release(req); err != nil {
		s.log.Errorf("simulation %s: %s release: %v", s.name, p.ev.ID, err)
	}
	p.finishCycle()
}

func (p *process) finishCycle() {
	s := p.sim
	p.ev.Cycles++
	if p.ev.Done() {
		return
	}
	s.after(s.uniform(s.cfg.Turnaround()), p.cycle)
}

package analysis

import (
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/depotsim/core/model"
)

// Pair links a charger request to the charging start that served it.
type Pair struct {
	EVID    string  `json:"ev_id"`
	Request float64 `json:"request"`
	Start   float64 `json:"start"`
	Day     int     `json:"day"`
}

// Wait returns the queueing time in minutes.
func (p Pair) Wait() float64 { return p.Start - p.Request }

// SimulationMetrics are the queueing estimates for one simulation.
type SimulationMetrics struct {
	Simulation      string       `json:"simulation"`
	Requests        int          `json:"requests"`
	Starts          int          `json:"starts"`
	Pairs           int          `json:"pairs"`
	LambdaPerHour   float64      `json:"lambda_per_hour"`
	MuPerHour       float64      `json:"mu_per_hour"`
	Utilization     float64      `json:"utilization"`
	Servers         int          `json:"servers"`
	Queue           QueueMetrics `json:"queue"`
	MeanWait        float64      `json:"mean_wait"`
	PredictedWait   float64      `json:"predicted_wait"`
	MeanCharging    float64      `json:"mean_charging"`
	MeanQueueLength float64      `json:"mean_queue_length"`
	HourlyArrivals  []float64    `json:"hourly_arrivals"`
	DispersionIndex float64      `json:"dispersion_index"`
	ArrivalTrend    float64      `json:"arrival_trend"`
	WaitTimes       []float64    `json:"-"`
	ChargingTimes   []float64    `json:"-"`
	QueueLengths    []float64    `json:"-"`
}

// MetricsOptions tune the estimation.
type MetricsOptions struct {
	// Servers overrides the server count read from the logs.
	Servers int
}

// PairRequests matches each request with the next start of the same vehicle
// in the same run and iteration, in order. Requests never served are dropped.
func PairRequests(events []model.Event) []Pair {
	pending := map[string][]model.Event{}
	var pairs []Pair
	for _, e := range sortedByTime(events) {
		key := vehicleKey(e)
		switch e.Type {
		case model.EventRequestingCharger:
			pending[key] = append(pending[key], e)
		case model.EventStartsCharging:
			q := pending[key]
			if len(q) == 0 {
				continue
			}
			req := q[0]
			pending[key] = q[1:]
			pairs = append(pairs, Pair{EVID: e.EVID, Request: req.Time, Start: e.Time, Day: req.Day})
		}
	}
	return pairs
}

// vehicleKey identifies one vehicle of one iteration of one run.
func vehicleKey(e model.Event) string {
	return e.RunID + "/" + strconv.Itoa(e.Iteration) + "/" + e.EVID
}

// ComputeMetrics estimates arrival and service rates and evaluates the
// matching M/M/c queue. Times in samples are minutes and rates are per hour.
func ComputeMetrics(simulation string, events []model.Event, opts MetricsOptions) SimulationMetrics {
	m := SimulationMetrics{Simulation: simulation}
	servers := 0
	for _, e := range events {
		switch e.Type {
		case model.EventRequestingCharger:
			m.Requests++
			if v, ok := e.ExtraValue(model.ExtraQueueLength); ok {
				m.QueueLengths = append(m.QueueLengths, v)
			}
			v, ok := e.ExtraValue(model.ExtraCapacity)
			if !ok {
				v, ok = e.ExtraValue(model.ExtraServers)
			}
			if ok && int(v) > servers {
				servers = int(v)
			}
		case model.EventStartsCharging:
			m.Starts++
		case model.EventCharging:
			if v, ok := e.ExtraValue(model.ExtraChargingTime); ok {
				m.ChargingTimes = append(m.ChargingTimes, v)
			}
		}
	}
	if opts.Servers > 0 {
		servers = opts.Servers
	}
	if servers == 0 {
		servers = 1
	}
	m.Servers = servers

	pairs := PairRequests(events)
	m.Pairs = len(pairs)
	hours := make([]float64, len(pairs))
	for i, p := range pairs {
		m.WaitTimes = append(m.WaitTimes, p.Wait())
		hours[i] = p.Request / 60
	}
	if len(hours) > 0 {
		lo, hi := hours[0], hours[0]
		for _, h := range hours {
			lo = math.Min(lo, h)
			hi = math.Max(hi, h)
		}
		if span := hi - lo; span > 0 {
			m.LambdaPerHour = float64(len(pairs)) / span
		}
		m.HourlyArrivals = hourlyCounts(hours, lo, hi)
		m.DispersionIndex = dispersion(m.HourlyArrivals)
		m.ArrivalTrend = trend(m.HourlyArrivals)
	}
	if len(m.ChargingTimes) > 0 {
		m.MeanCharging = stat.Mean(m.ChargingTimes, nil)
		if m.MeanCharging > 0 {
			m.MuPerHour = 60 / m.MeanCharging
		}
	}
	if m.MuPerHour > 0 {
		m.Utilization = m.LambdaPerHour / m.MuPerHour
	} else {
		m.Utilization = math.NaN()
	}
	if len(m.WaitTimes) > 0 {
		m.MeanWait = stat.Mean(m.WaitTimes, nil)
	}
	if len(m.QueueLengths) > 0 {
		m.MeanQueueLength = stat.Mean(m.QueueLengths, nil)
	}
	if q, err := MMc(m.LambdaPerHour, m.MuPerHour, servers); err == nil {
		m.Queue = q
		m.PredictedWait = q.Wq * 60
	} else {
		m.Queue = QueueMetrics{Lambda: m.LambdaPerHour, Servers: servers, PWait: math.NaN(),
			Lq: math.NaN(), Wq: math.NaN(), L: math.NaN(), W: math.NaN(), Rho: math.NaN()}
		m.PredictedWait = math.NaN()
	}
	return m
}

// hourlyCounts bins arrival hours into one-hour buckets from lo to hi.
func hourlyCounts(hours []float64, lo, hi float64) []float64 {
	first := math.Floor(lo)
	n := int(math.Floor(hi)-first) + 1
	counts := make([]float64, n)
	for _, h := range hours {
		counts[int(math.Floor(h)-first)]++
	}
	return counts
}

// dispersion returns the variance to mean ratio of the counts, 1 for a
// Poisson process.
func dispersion(counts []float64) float64 {
	if len(counts) < 2 {
		return math.NaN()
	}
	mean, variance := stat.MeanVariance(counts, nil)
	if mean == 0 {
		return math.NaN()
	}
	return variance / mean
}

// trend returns the least-squares slope of the counts against the bucket
// index, in arrivals per hour per hour.
func trend(counts []float64) float64 {
	n := len(counts)
	if n < 2 {
		return 0
	}
	x := mat.NewDense(n, 2, nil)
	y := mat.NewVecDense(n, counts)
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
		x.Set(i, 1, float64(i))
	}
	var beta mat.VecDense
	if err := beta.SolveVec(x, y); err != nil {
		return 0
	}
	return beta.AtVec(1)
}

func sortedByTime(events []model.Event) []model.Event {
	out := make([]model.Event, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}

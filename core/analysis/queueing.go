package analysis

import (
	"fmt"
	"math"
)

// QueueMetrics holds steady-state M/M/c results. Rates are per hour and
// times are in hours.
type QueueMetrics struct {
	Lambda      float64 `json:"lambda"`
	Mu          float64 `json:"mu"`
	Servers     int     `json:"servers"`
	OfferedLoad float64 `json:"offered_load"`
	Rho         float64 `json:"rho"`
	Stable      bool    `json:"stable"`
	PWait       float64 `json:"p_wait"`
	Lq          float64 `json:"lq"`
	Wq          float64 `json:"wq"`
	L           float64 `json:"l"`
	W           float64 `json:"w"`
}

// ErlangB returns the blocking probability of an M/M/c/c system with
// offered load a = lambda/mu, using the stable recurrence
// B(0) = 1, B(k) = a B(k-1) / (k + a B(k-1)).
func ErlangB(servers int, a float64) float64 {
	if servers < 0 || a < 0 || math.IsNaN(a) {
		return math.NaN()
	}
	b := 1.0
	for k := 1; k <= servers; k++ {
		b = a * b / (float64(k) + a*b)
	}
	return b
}

// ErlangC returns the probability that an arrival has to wait in an M/M/c
// queue with offered load a. It is 1 when the queue is unstable.
func ErlangC(servers int, a float64) float64 {
	if servers <= 0 || a < 0 || math.IsNaN(a) {
		return math.NaN()
	}
	if a == 0 {
		return 0
	}
	rho := a / float64(servers)
	if rho >= 1 {
		return 1
	}
	b := ErlangB(servers, a)
	return b / (1 - rho*(1-b))
}

// MMc evaluates an M/M/c queue. Unstable queues report infinite lengths
// and times.
func MMc(lambda, mu float64, servers int) (QueueMetrics, error) {
	if lambda < 0 || math.IsNaN(lambda) {
		return QueueMetrics{}, fmt.Errorf("arrival rate must be >= 0, got %v", lambda)
	}
	if mu <= 0 || math.IsNaN(mu) {
		return QueueMetrics{}, fmt.Errorf("service rate must be positive, got %v", mu)
	}
	if servers < 1 {
		return QueueMetrics{}, fmt.Errorf("servers must be >= 1, got %d", servers)
	}
	a := lambda / mu
	m := QueueMetrics{
		Lambda:      lambda,
		Mu:          mu,
		Servers:     servers,
		OfferedLoad: a,
		Rho:         a / float64(servers),
	}
	m.Stable = m.Rho < 1
	if !m.Stable {
		inf := math.Inf(1)
		m.PWait, m.Lq, m.Wq, m.L, m.W = 1, inf, inf, inf, inf
		return m, nil
	}
	m.PWait = ErlangC(servers, a)
	if lambda > 0 {
		m.Wq = m.PWait / (float64(servers)*mu - lambda)
	}
	m.Lq = lambda * m.Wq
	m.W = m.Wq + 1/mu
	m.L = lambda * m.W
	return m, nil
}

// MM1 evaluates a single-server queue.
func MM1(lambda, mu float64) (QueueMetrics, error) {
	return MMc(lambda, mu, 1)
}

// ServersFor returns the smallest number of servers keeping the waiting
// probability at or below target.
func ServersFor(lambda, mu, target float64, limit int) (int, error) {
	if mu <= 0 || lambda < 0 {
		return 0, fmt.Errorf("invalid rates lambda=%v mu=%v", lambda, mu)
	}
	a := lambda / mu
	for c := 1; c <= limit; c++ {
		if float64(c) > a && ErlangC(c, a) <= target {
			return c, nil
		}
	}
	return 0, fmt.Errorf("no server count up to %d reaches P(wait) <= %v", limit, target)
}

package simulations

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"

	apievents "github.com/kilianp07/depotsim/api/events"
	"github.com/kilianp07/depotsim/core/analysis"
	"github.com/kilianp07/depotsim/core/model"
	"github.com/kilianp07/depotsim/core/store"
)

// Entry summarises one stored simulation of one run.
type Entry struct {
	RunID      string `json:"run_id,omitempty"`
	Simulation string `json:"simulation"`
	Events     int    `json:"events"`
	Vehicles   int    `json:"vehicles"`
	Days       int    `json:"days"`
}

// NewListHandler exposes the stored simulations via GET /api/simulations.
func NewListHandler(s store.LogStore, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !apievents.Authorized(r, token) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		evs, err := s.Query(r.Context(), store.Query{})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		out := []Entry{}
		for _, runID := range runIDs(evs) {
			groups, names := store.GroupBySimulation(store.FilterRun(evs, runID))
			for _, name := range names {
				vehicles := map[string]struct{}{}
				days := 0
				for _, e := range groups[name] {
					vehicles[e.EVID] = struct{}{}
					days = max(days, e.Day+1)
				}
				out = append(out, Entry{RunID: runID, Simulation: name, Events: len(groups[name]), Vehicles: len(vehicles), Days: days})
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	})
}

// Metrics is the JSON view of analysis.SimulationMetrics. Undefined or
// infinite values are null.
type Metrics struct {
	Simulation    string   `json:"simulation"`
	Pairs         int      `json:"pairs"`
	LambdaPerHour *float64 `json:"lambda_per_hour"`
	MuPerHour     *float64 `json:"mu_per_hour"`
	Utilization   *float64 `json:"utilization"`
	Servers       int      `json:"servers"`
	Rho           *float64 `json:"rho"`
	Stable        bool     `json:"stable"`
	PWait         *float64 `json:"p_wait"`
	Lq            *float64 `json:"lq"`
	PredictedWait *float64 `json:"predicted_wait"`
	MeanWait      *float64 `json:"mean_wait"`
	MeanCharging  *float64 `json:"mean_charging"`
	Dispersion    *float64 `json:"dispersion_index"`
}

// NewMetricsHandler computes queueing metrics via GET /api/simulations/{name}/metrics.
// A servers query parameter overrides the server count read from the logs and
// run_id selects the run, the latest one by default.
func NewMetricsHandler(s store.LogStore, token string, opts analysis.MetricsOptions) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !apievents.Authorized(r, token) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		path := strings.TrimPrefix(r.URL.Path, "/api/simulations/")
		parts := strings.Split(path, "/")
		if len(parts) != 2 || parts[0] == "" || parts[1] != "metrics" {
			http.NotFound(w, r)
			return
		}
		name := parts[0]
		runID := r.URL.Query().Get("run_id")
		evs, err := s.Query(r.Context(), store.Query{RunID: runID, Simulation: name})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if runID == "" {
			evs = store.FilterRun(evs, store.LatestRun(evs))
		}
		if len(evs) == 0 {
			http.NotFound(w, r)
			return
		}
		o := opts
		if v := r.URL.Query().Get("servers"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				http.Error(w, "invalid servers", http.StatusBadRequest)
				return
			}
			o.Servers = n
		}
		m := analysis.ComputeMetrics(name, analysis.Preprocess(evs), o)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(view(m))
	})
}

// runIDs lists the runs of evs in order of first appearance.
func runIDs(evs []model.Event) []string {
	var ids []string
	seen := map[string]bool{}
	for _, e := range evs {
		if !seen[e.RunID] {
			seen[e.RunID] = true
			ids = append(ids, e.RunID)
		}
	}
	return ids
}

func view(m analysis.SimulationMetrics) Metrics {
	return Metrics{
		Simulation:    m.Simulation,
		Pairs:         m.Pairs,
		LambdaPerHour: num(m.LambdaPerHour),
		MuPerHour:     num(m.MuPerHour),
		Utilization:   num(m.Utilization),
		Servers:       m.Servers,
		Rho:           num(m.Queue.Rho),
		Stable:        m.Queue.Stable,
		PWait:         num(m.Queue.PWait),
		Lq:            num(m.Queue.Lq),
		PredictedWait: num(m.PredictedWait),
		MeanWait:      num(m.MeanWait),
		MeanCharging:  num(m.MeanCharging),
		Dispersion:    num(m.DispersionIndex),
	}
}

func num(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

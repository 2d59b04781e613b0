package events

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/kilianp07/depotsim/core/model"
	"github.com/kilianp07/depotsim/core/store"
)

// NewHandler returns an HTTP handler exposing simulation logs via GET /api/events.
// Requests must include an Authorization header with "Bearer <token>" when token is non-empty.
//
// Filters: run_id, simulation, ev_id, event (repeatable), day, from, to (minutes, to exclusive).
func NewHandler(s store.LogStore, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !Authorized(r, token) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		q, err := ParseQuery(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		records, err := s.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []model.Event{}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

// Authorized checks the bearer token. An empty token disables the check.
func Authorized(r *http.Request, token string) bool {
	return token == "" || r.Header.Get("Authorization") == "Bearer "+token
}

// ParseQuery builds a store query from the URL parameters.
func ParseQuery(r *http.Request) (store.Query, error) {
	v := r.URL.Query()
	q := store.Query{
		RunID:      v.Get("run_id"),
		Simulation: v.Get("simulation"),
		EVID:       v.Get("ev_id"),
	}
	for _, e := range v["event"] {
		q.Events = append(q.Events, model.EventType(e))
	}
	if s := v.Get("day"); s != "" {
		d, err := strconv.Atoi(s)
		if err != nil || d < 0 {
			return q, fmt.Errorf("invalid day %q", s)
		}
		q.Day = &d
	}
	var err error
	if q.FromTime, err = minutes(v.Get("from")); err != nil {
		return q, err
	}
	if q.ToTime, err = minutes(v.Get("to")); err != nil {
		return q, err
	}
	return q, nil
}

func minutes(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return f, nil
}

package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/kilianp07/depotsim/core/model"
	"github.com/kilianp07/depotsim/core/store"
)

func seededStore(t *testing.T) store.LogStore {
	t.Helper()
	s, err := store.NewJSONLStore(filepath.Join(t.TempDir(), "events.jsonl"))
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	evs := []model.Event{
		{EVID: "EV1", Type: model.EventDeparts, Time: 420},
		{EVID: "EV1", Type: model.EventRequestingCharger, Time: 600},
		{EVID: "EV2", Type: model.EventRequestingCharger, Time: 1500, Day: 1},
	}
	if err := s.Write(context.Background(), "simple_000", evs); err != nil {
		t.Fatalf("write: %v", err)
	}
	return s
}

func get(t *testing.T, h http.Handler, url, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHandler_AuthAndFilters(t *testing.T) {
	h := NewHandler(seededStore(t), "tok")

	cases := []struct {
		url  string
		want int
	}{
		{"/api/events", 3},
		{"/api/events?ev_id=EV1", 2},
		{"/api/events?event=requesting+charger", 2},
		{"/api/events?event=departs&event=requesting+charger&ev_id=EV1", 2},
		{"/api/events?day=1", 1},
		{"/api/events?from=500&to=1500", 1},
		{"/api/events?simulation=other", 0},
	}
	for _, c := range cases {
		rr := get(t, h, c.url, "tok")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: status %d", c.url, rr.Code)
		}
		var out []model.Event
		if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
			t.Fatalf("%s: unmarshal: %v", c.url, err)
		}
		if len(out) != c.want {
			t.Fatalf("%s: expected %d events, got %d", c.url, c.want, len(out))
		}
	}

	if rr := get(t, h, "/api/events", ""); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rr.Code)
	}
	if rr := get(t, h, "/api/events", "wrong"); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rr.Code)
	}
}

func TestHandler_BadRequest(t *testing.T) {
	h := NewHandler(seededStore(t), "")
	for _, url := range []string{"/api/events?day=x", "/api/events?day=-1", "/api/events?from=abc", "/api/events?to=-5"} {
		if rr := get(t, h, url, ""); rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 got %d", url, rr.Code)
		}
	}
}

func TestHandler_Method(t *testing.T) {
	h := NewHandler(seededStore(t), "")
	req := httptest.NewRequest(http.MethodPost, "/api/events", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 got %d", rr.Code)
	}
}

func TestHandler_EmptyIsArray(t *testing.T) {
	h := NewHandler(seededStore(t), "")
	rr := get(t, h, "/api/events?ev_id=nobody", "")
	if got := rr.Body.String(); got != "[]\n" {
		t.Fatalf("expected empty array, got %q", got)
	}
}

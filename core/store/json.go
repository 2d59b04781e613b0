package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/kilianp07/depotsim/core/model"
)

const jsonSuffix = "_logs.json"

// JSONStore keeps one JSON array file per simulation in a directory, named
// <simulation>_logs.json.
type JSONStore struct {
	dir string
	mu  sync.Mutex
}

// NewJSONStore creates dir when needed.
func NewJSONStore(dir string) (*JSONStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &JSONStore{dir: dir}, nil
}

// Dir returns the log directory.
func (s *JSONStore) Dir() string { return s.dir }

// Write replaces the log file of simulation with events.
func (s *JSONStore) Write(ctx context.Context, simulation string, events []model.Event) error {
	if simulation == "" {
		return fmt.Errorf("simulation name is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := json.MarshalIndent(tag(simulation, events), "", "    ")
	if err != nil {
		return err
	}
	path := filepath.Join(s.dir, simulation+jsonSuffix)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Query reads every *logs.json file of the directory in name order.
func (s *JSONStore) Query(ctx context.Context, q Query) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	files, err := filepath.Glob(filepath.Join(s.dir, "*logs.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	var res []model.Event
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := SimulationFromFile(f)
		if q.Simulation != "" && name != q.Simulation {
			continue
		}
		b, err := os.ReadFile(f)
		if err != nil {
			return nil, err
		}
		var events []model.Event
		if err := json.Unmarshal(b, &events); err != nil {
			return nil, fmt.Errorf("decode %s: %w", filepath.Base(f), err)
		}
		for _, e := range events {
			if e.Simulation == "" {
				e.Simulation = name
			}
			if q.Match(e) {
				res = append(res, e)
			}
		}
	}
	return res, nil
}

// Close is a no-op.
func (s *JSONStore) Close() error { return nil }

// SimulationFromFile derives a simulation name from a log file path.
func SimulationFromFile(path string) string {
	base := filepath.Base(path)
	if strings.HasSuffix(base, jsonSuffix) {
		return strings.TrimSuffix(base, jsonSuffix)
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

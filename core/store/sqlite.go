package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/depotsim/core/model"
)

// SQLiteStore persists events to a single-file SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS depot_events (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        simulation TEXT,
        ev_id TEXT,
        event TEXT,
        time REAL,
        day INTEGER,
        record TEXT
    );
    CREATE INDEX IF NOT EXISTS depot_events_sim ON depot_events (simulation, time);`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Write inserts the events in a single transaction.
func (s *SQLiteStore) Write(ctx context.Context, simulation string, events []model.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO depot_events (simulation, ev_id, event, time, day, record) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer func() { _ = stmt.Close() }()
	for _, e := range tag(simulation, events) {
		b, err := json.Marshal(e)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := stmt.ExecContext(ctx, e.Simulation, e.EVID, string(e.Type), e.Time, e.Day, string(b)); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Query returns events matching q in insertion order.
func (s *SQLiteStore) Query(ctx context.Context, q Query) ([]model.Event, error) {
	var args []any
	query := `SELECT record FROM depot_events WHERE 1=1`
	if q.Simulation != "" {
		query += ` AND simulation = ?`
		args = append(args, q.Simulation)
	}
	if q.EVID != "" {
		query += ` AND ev_id = ?`
		args = append(args, q.EVID)
	}
	if len(q.Events) > 0 {
		query += ` AND event IN (?` + strings.Repeat(`, ?`, len(q.Events)-1) + `)`
		for _, t := range q.Events {
			args = append(args, string(t))
		}
	}
	if q.Day != nil {
		query += ` AND day = ?`
		args = append(args, *q.Day)
	}
	if q.FromTime > 0 {
		query += ` AND time >= ?`
		args = append(args, q.FromTime)
	}
	if q.ToTime > 0 {
		query += ` AND time < ?`
		args = append(args, q.ToTime)
	}
	query += ` ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.Event
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var e model.Event
		if err := json.Unmarshal([]byte(data), &e); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		if q.RunID != "" && e.RunID != q.RunID {
			continue
		}
		res = append(res, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

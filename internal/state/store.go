package state

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"logsentinel/internal/correlate"
	"logsentinel/internal/logging"
)

// Store persists tracker windows across restarts so an attacker cannot
// reset their counters by timing a daemon restart.
type Store struct {
	db *sql.DB
}

func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	query := `
	CREATE TABLE IF NOT EXISTS tracker_windows (
		rule TEXT NOT NULL,
		key TEXT NOT NULL,
		event_times TEXT NOT NULL,
		PRIMARY KEY (rule, key)
	);`
	if _, err := db.Exec(query); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// SaveSnapshot replaces the stored state with the given snapshot. A full
// replace keeps the table in lockstep with the tracker; stale rows from
// evicted keys must not survive.
func (s *Store) SaveSnapshot(snap map[correlate.TrackerKey][]time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM tracker_windows"); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO tracker_windows (rule, key, event_times)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for k, times := range snap {
		if len(times) == 0 {
			continue
		}
		encoded, _ := json.Marshal(times)
		if _, err := stmt.Exec(k.Rule, k.Key, string(encoded)); err != nil {
			logging.Log.Warnf("[STATE] failed to save window %s/%s: %v", k.Rule, k.Key, err)
		}
	}

	return tx.Commit()
}

// LoadSnapshot reads back every stored window. Rows that fail to decode are
// skipped rather than aborting the whole restore.
func (s *Store) LoadSnapshot() (map[correlate.TrackerKey][]time.Time, error) {
	rows, err := s.db.Query("SELECT rule, key, event_times FROM tracker_windows")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snap := make(map[correlate.TrackerKey][]time.Time)
	for rows.Next() {
		var rule, key, encoded string
		if err := rows.Scan(&rule, &key, &encoded); err != nil {
			continue
		}

		var times []time.Time
		if err := json.Unmarshal([]byte(encoded), &times); err != nil {
			logging.Log.Warnf("[STATE] skipping corrupt window %s/%s: %v", rule, key, err)
			continue
		}
		snap[correlate.TrackerKey{Rule: rule, Key: key}] = times
	}

	return snap, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}

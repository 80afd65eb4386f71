// CLAUDE:SUMMARY SQLite audit log of dictionary mutations (one row per variant added).
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Event is one variant added to a canonical name.
type Event struct {
	ID        int64  `json:"id"`
	Path      string `json:"path"`
	Canonical string `json:"canonical"`
	Variant   string `json:"variant"`
	Total     int    `json:"total"`
	CreatedAt int64  `json:"created_at"`
}

// DB stores term_events in SQLite.
type DB struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	const ddl = `CREATE TABLE IF NOT EXISTS term_events (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		path        TEXT NOT NULL,
		canonical   TEXT NOT NULL,
		variant     TEXT NOT NULL,
		total       INTEGER NOT NULL,
		created_at  INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS term_events_canonical ON term_events(canonical)`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("create term_events table: %w", err)
	}

	return &DB{db: db, now: time.Now}, nil
}

// Close closes the database.
func (h *DB) Close() error {
	return h.db.Close()
}

// RecordAdd stores one event per added variant in a single transaction.
func (h *DB) RecordAdd(path, canonical string, added []string, total int) error {
	if len(added) == 0 {
		return nil
	}
	tx, err := h.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	const q = `INSERT INTO term_events (path, canonical, variant, total, created_at)
		VALUES (?, ?, ?, ?, ?)`
	now := h.now().Unix()
	for _, v := range added {
		if _, err := tx.Exec(q, path, canonical, v, total, now); err != nil {
			return fmt.Errorf("record %q -> %q: %w", v, canonical, err)
		}
	}
	return tx.Commit()
}

// List returns the most recent events first. canonical filters when non-empty.
func (h *DB) List(canonical string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT id, path, canonical, variant, total, created_at FROM term_events`
	args := []any{}
	if canonical != "" {
		q += ` WHERE canonical = ?`
		args = append(args, canonical)
	}
	q += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := h.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.Path, &ev.Canonical, &ev.Variant, &ev.Total, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Count returns the number of recorded events.
func (h *DB) Count() (int, error) {
	var n int
	if err := h.db.QueryRow(`SELECT COUNT(*) FROM term_events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

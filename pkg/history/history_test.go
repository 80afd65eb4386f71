package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func tempDB(t *testing.T) *DB {
	t.Helper()
	h, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}

func TestOpen_CreatesTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "h.db")

	h, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer h.Close()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("db file not created: %v", err)
	}
	events, err := h.List("", 10)
	if err != nil {
		t.Fatalf("List on empty db: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected 0 events, got %d", len(events))
	}
}

func TestRecordAndList(t *testing.T) {
	h := tempDB(t)
	h.now = func() time.Time { return time.Unix(1700000000, 0) }

	if err := h.RecordAdd("/t.json", "Claude Code", []string{"Cloudcode", "ClaudeCode"}, 2); err != nil {
		t.Fatalf("RecordAdd: %v", err)
	}
	if err := h.RecordAdd("/t.json", "Cursor", []string{"Curser"}, 1); err != nil {
		t.Fatalf("RecordAdd: %v", err)
	}
	if err := h.RecordAdd("/t.json", "Cursor", nil, 1); err != nil {
		t.Fatalf("RecordAdd empty: %v", err)
	}

	n, err := h.Count()
	if err != nil || n != 3 {
		t.Fatalf("Count = %d, %v, want 3", n, err)
	}

	events, err := h.List("", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("events = %d, want 3", len(events))
	}
	if events[0].Canonical != "Cursor" || events[0].Variant != "Curser" {
		t.Errorf("newest event = %+v", events[0])
	}
	if events[2].CreatedAt != 1700000000 {
		t.Errorf("CreatedAt = %d", events[2].CreatedAt)
	}

	filtered, err := h.List("Claude Code", 1)
	if err != nil {
		t.Fatalf("List filtered: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Variant != "ClaudeCode" {
		t.Errorf("filtered = %+v", filtered)
	}
}

package terms

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// fileLocks serializes read-modify-write cycles per dictionary path.
var fileLocks sync.Map // path -> *sync.Mutex

func lockFor(path string) *sync.Mutex {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	mu, _ := fileLocks.LoadOrStore(path, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// AddResult describes the outcome of MergeTerm.
type AddResult struct {
	Canonical string   `json:"canonical"`
	Added     []string `json:"added"`
	Total     int      `json:"total"`
}

func (r *AddResult) String() string {
	return fmt.Sprintf("added %d new variant(s) for '%s'; %d total", len(r.Added), r.Canonical, r.Total)
}

// MergeTerm adds variants to the entry for canonical in the dictionary at
// path and writes the file back. Variants are deduplicated as literal
// strings; a variant equal to the canonical name (ignoring case) is dropped
// because the canonical rule already covers it. An existing key that differs
// from canonical only in case is reused.
func MergeTerm(path, canonical string, variants []string) (*AddResult, error) {
	canonical, variants = normalizeEntry(canonical, variants)
	if canonical == "" {
		return nil, ErrEmptyCanonical
	}

	mu := lockFor(path)
	mu.Lock()
	defer mu.Unlock()

	d, err := Load(path)
	if err != nil {
		return nil, err
	}

	key := d.resolveKey(canonical)
	existing, present := d.Get(key)

	seen := make(map[string]bool, len(existing)+len(variants))
	for _, v := range existing {
		seen[v] = true
	}
	merged := append([]string(nil), existing...)
	var added []string
	keyFold := foldKey(key)
	for _, v := range variants {
		if seen[v] || foldKey(v) == keyFold {
			continue
		}
		seen[v] = true
		merged = append(merged, v)
		added = append(added, v)
	}

	res := &AddResult{Canonical: key, Added: added, Total: len(merged)}
	if present && len(added) == 0 {
		return res, nil
	}
	d.Set(key, merged)
	if err := Save(path, d); err != nil {
		return nil, err
	}
	return res, nil
}

// writeFileAtomic writes data to a temp file next to path and renames it
// into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// DefaultDictionary returns the built-in seed dictionary.
func DefaultDictionary() *Dictionary {
	return NewDictionary(
		TermEntry{"Claude Code", []string{"Cloudcode", "Cloud Code", "ClaudeCode"}},
		TermEntry{"Antigravity", []string{"Antygravity", "AntiGravity", "Anti-gravity"}},
		TermEntry{"Wispr Flow", []string{"Wisprflow", "WisprFlow", "Whispr Flow"}},
		TermEntry{"Cursor", []string{"Curser"}},
		TermEntry{"Windsurf", []string{"WindSurf", "Wind Surf"}},
		TermEntry{"Firecrawl", []string{"Fire Crawl", "FireCrawl"}},
		TermEntry{"Snowflake", []string{"SnowFlake"}},
		TermEntry{"Lovable", []string{"Loveable"}},
		TermEntry{"Replit", []string{"Repl.it"}},
	)
}

// EnsureFile writes the seed dictionary to path unless a file already exists.
func EnsureFile(path string) (bool, error) {
	mu := lockFor(path)
	mu.Lock()
	defer mu.Unlock()

	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, &IOError{Op: "stat", Path: path, Err: err}
	}
	if err := Save(path, DefaultDictionary()); err != nil {
		return false, err
	}
	return true, nil
}

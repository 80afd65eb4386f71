// CLAUDE:SUMMARY Process-wide compiled rule cache keyed on the dictionary file's modification marker, with atomic swaps.
package terms

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

type cacheState struct {
	rules   RuleSet
	path    string
	marker  Marker
	digest  string
	entries int
	version uint64
	err     error
}

func (s *cacheState) fresh(path string, m Marker, version uint64) bool {
	return s.path == path && s.marker == m && s.version == version
}

// Cache holds the RuleSet compiled from a dictionary file and rebuilds it
// when the file's Marker changes or after Invalidate. Readers never block on
// each other and never see a half-built RuleSet.
type Cache struct {
	mu      sync.Mutex // serializes rebuilds
	state   atomic.Pointer[cacheState]
	version atomic.Uint64
	logger  *slog.Logger
}

// NewCache returns an empty cache.
func NewCache(logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{logger: logger}
}

// Current returns the rules for path, reloading the dictionary when stale.
// Load failures are logged and produce an empty RuleSet.
func (c *Cache) Current(path string) RuleSet {
	return c.current(path).rules
}

func (c *Cache) current(path string) *cacheState {
	if st := c.state.Load(); st != nil && st.fresh(path, ModificationMarker(path), c.version.Load()) {
		return st
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	marker := ModificationMarker(path)
	version := c.version.Load()
	prev := c.state.Load()
	if prev != nil && prev.fresh(path, marker, version) {
		return prev
	}

	next := c.rebuild(path, marker, version, prev)
	c.state.Store(next)
	return next
}

func (c *Cache) rebuild(path string, marker Marker, version uint64, prev *cacheState) *cacheState {
	next := &cacheState{path: path, marker: marker, version: version}

	d, err := Load(path)
	if err != nil {
		c.logger.Warn("dictionary unavailable, no rules active", "path", path, "error", err)
		next.err = err
		return next
	}
	next.digest = d.Digest()
	next.entries = d.Len()

	if prev != nil && prev.err == nil && prev.path == path && prev.digest == next.digest {
		c.logger.Debug("dictionary content unchanged, keeping rules", "path", path)
		next.rules = prev.rules
		return next
	}

	rules, errs := Compile(d)
	for _, e := range errs {
		c.logger.Warn("skipping rule", "path", path, "error", e)
	}
	next.rules = rules
	c.logger.Debug("rules compiled", "path", path, "entries", d.Len(), "rules", len(rules))
	return next
}

// Invalidate forces the next Current call to reload.
func (c *Cache) Invalidate() {
	c.version.Add(1)
}

// Stats describes the cached state.
type Stats struct {
	Path    string `json:"path"`
	Entries int    `json:"entries"`
	Rules   int    `json:"rules"`
	Digest  string `json:"digest,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Stats refreshes the cache for path and reports what it holds.
func (c *Cache) Stats(path string) Stats {
	st := c.current(path)
	s := Stats{Path: st.path, Entries: st.entries, Rules: len(st.rules), Digest: st.digest}
	if st.err != nil {
		s.Error = st.err.Error()
	}
	return s
}

// Watch polls the dictionary every interval and rebuilds as soon as it
// changes, so requests do not pay the compile. Returns when ctx is done.
func (c *Cache) Watch(ctx context.Context, path func() string, interval time.Duration) {
	c.current(path())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			before := c.state.Load()
			after := c.current(path())
			if before != after {
				c.logger.Info("dictionary reloaded", "path", after.path, "entries", after.entries, "rules", len(after.rules))
			}
		}
	}
}

// CLAUDE:SUMMARY Normalizer: fixes product names in text spans using the cached rules; adds terms and invalidates the cache.
package terms

import (
	"log/slog"
	"sync"
)

// Recorder receives a notification for every successful AddTerm.
type Recorder interface {
	RecordAdd(path, canonical string, added []string, total int) error
}

// Normalizer rewrites known misspellings in text.
type Normalizer struct {
	path     func() string
	cache    *Cache
	logger   *slog.Logger
	recorder Recorder
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithPath pins the dictionary to a fixed file.
func WithPath(path string) Option {
	return func(n *Normalizer) { n.path = func() string { return path } }
}

// WithPathFunc resolves the dictionary path on every call.
func WithPathFunc(fn func() string) Option {
	return func(n *Normalizer) { n.path = fn }
}

// WithLogger sets the logger used by the Normalizer and its cache.
func WithLogger(l *slog.Logger) Option {
	return func(n *Normalizer) { n.logger = l }
}

// WithCache shares a Cache between Normalizers.
func WithCache(c *Cache) Option {
	return func(n *Normalizer) { n.cache = c }
}

// WithRecorder records dictionary mutations.
func WithRecorder(r Recorder) Option {
	return func(n *Normalizer) { n.recorder = r }
}

// New returns a Normalizer. By default the path comes from ResolvePath.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{path: ResolvePath, logger: slog.Default()}
	for _, o := range opts {
		o(n)
	}
	if n.cache == nil {
		n.cache = NewCache(n.logger)
	}
	return n
}

// Path returns the dictionary path currently in effect.
func (n *Normalizer) Path() string { return n.path() }

// Cache returns the rule cache.
func (n *Normalizer) Cache() *Cache { return n.cache }

// FixTerms returns text with every known variant outside markup replaced by
// its canonical name. It never fails: with no usable dictionary the input
// comes back unchanged.
func (n *Normalizer) FixTerms(text string) string {
	if text == "" {
		return text
	}
	rules := n.cache.Current(n.path())
	if len(rules) == 0 {
		return text
	}
	spans := Split(text)
	for i := range spans {
		if spans[i].Kind == SpanText {
			spans[i].Text = rules.Apply(spans[i].Text)
		}
	}
	return Join(spans)
}

// AddTerm merges variants into the dictionary and makes them visible to the
// next FixTerms call. It returns a one-line confirmation.
func (n *Normalizer) AddTerm(canonical string, variants []string) (string, error) {
	res, err := n.Add(canonical, variants)
	if err != nil {
		return "", err
	}
	return res.String(), nil
}

// Add is AddTerm returning the structured result.
func (n *Normalizer) Add(canonical string, variants []string) (*AddResult, error) {
	path := n.path()
	res, err := MergeTerm(path, canonical, variants)
	if err != nil {
		n.logger.Error("add term failed", "path", path, "canonical", canonical, "error", err)
		return nil, err
	}
	n.cache.Invalidate()

	if n.recorder != nil && len(res.Added) > 0 {
		if err := n.recorder.RecordAdd(path, res.Canonical, res.Added, res.Total); err != nil {
			n.logger.Warn("history record failed", "canonical", res.Canonical, "error", err)
		}
	}
	n.logger.Info("term added", "canonical", res.Canonical, "added", len(res.Added), "total", res.Total)
	return res, nil
}

// Terms loads the current dictionary.
func (n *Normalizer) Terms() (*Dictionary, error) {
	return Load(n.path())
}

var (
	defaultMu   sync.Mutex
	defaultNorm *Normalizer
)

// Default returns the process-wide Normalizer, created on first use.
func Default() *Normalizer {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultNorm == nil {
		defaultNorm = New()
	}
	return defaultNorm
}

// ResetDefault drops the process-wide Normalizer and its cache.
func ResetDefault() {
	defaultMu.Lock()
	defaultNorm = nil
	defaultMu.Unlock()
}

// FixTerms normalizes text with the default Normalizer.
func FixTerms(text string) string { return Default().FixTerms(text) }

// AddTerm adds variants with the default Normalizer.
func AddTerm(canonical string, variants []string) (string, error) {
	return Default().AddTerm(canonical, variants)
}

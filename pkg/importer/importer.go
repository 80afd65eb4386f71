package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/termfix/pkg/terms"
)

// Importer merges external dictionaries into the local one.
type Importer struct {
	fetcher *Fetcher
	norm    *terms.Normalizer
	logger  *slog.Logger
}

// New returns an Importer writing through norm, so the rule cache and the
// history recorder see every merge.
func New(fetcher *Fetcher, norm *terms.Normalizer, logger *slog.Logger) *Importer {
	if fetcher == nil {
		fetcher = NewFetcher()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{fetcher: fetcher, norm: norm, logger: logger}
}

// Summary reports what an import changed.
type Summary struct {
	Source  string   `json:"source"`
	Entries int      `json:"entries"`
	Added   int      `json:"added"`
	Changed []string `json:"changed,omitempty"`
}

// Import fetches src, validates it as a dictionary and merges every entry.
func (im *Importer) Import(ctx context.Context, src string) (*Summary, error) {
	data, err := im.fetcher.Fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	d, err := terms.Parse(src, data)
	if err != nil {
		return nil, err
	}

	sum := &Summary{Source: src, Entries: d.Len()}
	for _, e := range d.Entries() {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		res, err := im.norm.Add(e.Canonical, e.Variants)
		if errors.Is(err, terms.ErrEmptyCanonical) {
			im.logger.Warn("skipping entry without canonical name", "source", src)
			continue
		}
		if err != nil {
			return sum, fmt.Errorf("merge %q: %w", e.Canonical, err)
		}
		if len(res.Added) > 0 {
			sum.Added += len(res.Added)
			sum.Changed = append(sum.Changed, res.Canonical)
		}
	}
	im.logger.Info("dictionary imported", "source", src, "entries", sum.Entries, "added", sum.Added)
	return sum, nil
}

// CLAUDE:SUMMARY Fetches a dictionary document from an HTTP(S) URL (with retries) or a local path.
package importer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// MaxDocumentSize caps how much of a remote dictionary is read.
const MaxDocumentSize = 8 << 20

// Fetcher downloads dictionary documents.
type Fetcher struct {
	Client   *http.Client
	Attempts int
	Backoff  time.Duration
}

// NewFetcher returns a Fetcher with three attempts and exponential backoff.
func NewFetcher() *Fetcher {
	return &Fetcher{
		Client:   &http.Client{Timeout: 30 * time.Second},
		Attempts: 3,
		Backoff:  time.Second,
	}
}

// Fetch reads src, which is either an http(s) URL or a file path.
func (f *Fetcher) Fetch(ctx context.Context, src string) ([]byte, error) {
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", src, err)
		}
		return data, nil
	}

	var lastErr error
	for attempt := 0; attempt < f.Attempts; attempt++ {
		if attempt > 0 {
			backoff := f.Backoff * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		data, retry, err := f.get(ctx, src)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !retry {
			break
		}
	}
	return nil, fmt.Errorf("fetch %s failed after %d attempt(s): %w", src, f.Attempts, lastErr)
}

// get performs one GET. retry is false for errors another attempt cannot fix.
func (f *Fetcher) get(ctx context.Context, url string) (data []byte, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests,
			fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}

	data, err = io.ReadAll(io.LimitReader(resp.Body, MaxDocumentSize+1))
	if err != nil {
		return nil, true, fmt.Errorf("read body: %w", err)
	}
	if len(data) > MaxDocumentSize {
		return nil, false, fmt.Errorf("document larger than %d bytes", MaxDocumentSize)
	}
	return data, false, nil
}

package terms

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCache_ReusesRulesWhileFresh(t *testing.T) {
	path := writeTerms(t, `{"Claude Code": ["Cloudcode"]}`)
	c := NewCache(quietLogger())

	first := c.Current(path)
	if len(first) != 2 {
		t.Fatalf("rules = %d, want 2", len(first))
	}
	second := c.Current(path)
	if &first[0] != &second[0] {
		t.Error("rules recompiled although the file did not change")
	}
}

func TestCache_ReloadsOnExternalEdit(t *testing.T) {
	path := writeTerms(t, `{"Claude Code": ["Cloudcode"]}`)
	c := NewCache(quietLogger())

	if got := c.Current(path).Apply("Antygravity"); got != "Antygravity" {
		t.Fatalf("Apply before edit = %q", got)
	}

	if err := os.WriteFile(path, []byte(`{"Claude Code": ["Cloudcode"], "Antigravity": ["Antygravity"]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	future := time.Now().Add(time.Minute)
	os.Chtimes(path, future, future)

	if got := c.Current(path).Apply("Antygravity"); got != "Antigravity" {
		t.Errorf("Apply after edit = %q, want Antigravity", got)
	}
}

func TestCache_InvalidateKeepsRulesForSameContent(t *testing.T) {
	path := writeTerms(t, `{"Claude Code": ["Cloudcode"]}`)
	c := NewCache(quietLogger())

	first := c.Current(path)
	c.Invalidate()
	second := c.Current(path)
	if &first[0] != &second[0] {
		t.Error("identical content was recompiled after Invalidate")
	}
}

func TestCache_PathChange(t *testing.T) {
	a := writeTerms(t, `{"A": ["Aa"]}`)
	b := writeTerms(t, `{"B": ["Bb"]}`)
	c := NewCache(quietLogger())

	if got := c.Current(a).Apply("Aa Bb"); got != "A Bb" {
		t.Errorf("path a: %q", got)
	}
	if got := c.Current(b).Apply("Aa Bb"); got != "Aa B" {
		t.Errorf("path b: %q", got)
	}
}

func TestCache_BrokenDictionaryYieldsNoRules(t *testing.T) {
	path := writeTerms(t, `{"Claude Code": "Cloudcode"}`)
	c := NewCache(quietLogger())

	if rules := c.Current(path); len(rules) != 0 {
		t.Errorf("rules = %d, want 0", len(rules))
	}
	st := c.Stats(path)
	if st.Error == "" {
		t.Error("Stats.Error empty for a broken dictionary")
	}
}

func TestCache_Stats(t *testing.T) {
	path := writeTerms(t, `{"Claude Code": ["Cloudcode", "ClaudeCode"], "Cursor": ["Curser"]}`)
	c := NewCache(quietLogger())

	st := c.Stats(path)
	if st.Entries != 2 || st.Rules != 5 || st.Digest == "" || st.Path != path {
		t.Errorf("Stats = %+v", st)
	}
}

func TestCache_ConcurrentReaders(t *testing.T) {
	path := writeTerms(t, `{"Claude Code": ["Cloudcode"]}`)
	c := NewCache(quietLogger())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if j%10 == 0 && i == 0 {
					c.Invalidate()
				}
				if got := c.Current(path).Apply("Cloudcode"); got != "Claude Code" {
					t.Errorf("Apply = %q", got)
					return
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestCache_Watch(t *testing.T) {
	path := writeTerms(t, `{"A": ["Aa"]}`)
	c := NewCache(quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Watch(ctx, func() string { return path }, 10*time.Millisecond)
		close(done)
	}()

	os.WriteFile(path, []byte(`{"A": ["Aa"], "B": ["Bb"]}`), 0o644)
	future := time.Now().Add(time.Minute)
	os.Chtimes(path, future, future)

	deadline := time.Now().Add(2 * time.Second)
	for {
		st := c.state.Load()
		if st != nil && st.entries == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("watch did not pick up the edit")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

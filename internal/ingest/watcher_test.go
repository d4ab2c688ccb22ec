package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func collectEvents(events <-chan string, want int, deadline time.Duration) map[string]struct{} {
	got := map[string]struct{}{}
	timeout := time.After(deadline)
	for len(got) < want {
		select {
		case p, ok := <-events:
			if !ok {
				return got
			}
			got[p] = struct{}{}
		case <-timeout:
			return got
		}
	}
	return got
}

func TestWatcherEmitsCreatedDocuments(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := StartWatcher(ctx, nil, WatchConfig{Root: dir, Debounce: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("start watcher: %v", err)
	}

	p := filepath.Join(dir, "permit.pdf")
	if err := os.WriteFile(p, []byte("doc"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got := collectEvents(events, 1, 3*time.Second)
	if _, ok := got[p]; !ok {
		t.Errorf("no event for %s, got %v", p, got)
	}
}

func TestWatcherIgnoresUnsupportedFiles(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := StartWatcher(ctx, nil, WatchConfig{Root: dir, Debounce: 0})
	if err != nil {
		t.Fatalf("start watcher: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	pdf := filepath.Join(dir, "real.pdf")
	if err := os.WriteFile(pdf, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got := collectEvents(events, 1, 3*time.Second)
	if _, ok := got[pdf]; !ok {
		t.Errorf("pdf event missing, got %v", got)
	}
	if _, ok := got[filepath.Join(dir, "notes.txt")]; ok {
		t.Error("txt file should not be emitted")
	}
}

// A tight debounce under an event burst exercises the timer-triggered flush
// concurrently with event handling; run with -race.
func TestWatcherEventBurstWithTightDebounce(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := StartWatcher(ctx, nil, WatchConfig{Root: dir, Debounce: time.Microsecond})
	if err != nil {
		t.Fatalf("start watcher: %v", err)
	}

	const n = 500
	for i := 0; i < n; i++ {
		p := filepath.Join(dir, fmt.Sprintf("doc_%03d.pdf", i))
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	got := collectEvents(events, n, 5*time.Second)
	if len(got) == 0 {
		t.Fatal("no events received from burst")
	}
	for p := range got {
		if filepath.Ext(p) != ".pdf" {
			t.Errorf("unexpected event path %q", p)
		}
	}
}

func TestWatcherClosesOnCancel(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())

	events, errs, err := StartWatcher(ctx, nil, WatchConfig{Root: dir, Debounce: time.Millisecond})
	if err != nil {
		t.Fatalf("start watcher: %v", err)
	}
	cancel()

	deadline := time.After(3 * time.Second)
	for events != nil || errs != nil {
		select {
		case _, ok := <-events:
			if !ok {
				events = nil
			}
		case _, ok := <-errs:
			if !ok {
				errs = nil
			}
		case <-deadline:
			t.Fatal("channels did not close after cancel")
		}
	}
}

func TestWatcherRequiresRoot(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), nil, WatchConfig{})
	if err == nil {
		t.Error("expected error for empty root")
	}
}

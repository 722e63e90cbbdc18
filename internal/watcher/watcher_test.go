package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/atikulmunna/towerscan/internal/logging"
)

func TestExpand(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.csv", "b.csv", "sub/c.csv", "notes.txt"} {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := Expand([]string{filepath.Join(dir, "**", "*.csv"), filepath.Join(dir, "a.csv")})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 unique files, got %v", got)
	}
	for _, p := range got {
		if !filepath.IsAbs(p) {
			t.Errorf("expected absolute path, got %s", p)
		}
	}
}

func TestExpandNoMatch(t *testing.T) {
	if _, err := Expand([]string{filepath.Join(t.TempDir(), "*.csv")}); err == nil {
		t.Fatal("expected error for pattern with no matches")
	}
}

func TestWatcherReportsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "carrier.csv")
	if err := os.WriteFile(path, []byte("Page\n"), 0644); err != nil {
		t.Fatal(err)
	}

	w, err := New([]string{path}, logging.Discard())
	if err != nil {
		t.Fatal(err)
	}
	if len(w.Paths()) != 1 {
		t.Fatalf("expected 1 watched path, got %v", w.Paths())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	changes := Debounce(ctx, w.Events, 50*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = f.WriteString("1\n")
	_, _ = f.WriteString("2\n")
	f.Close()

	select {
	case <-changes:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for change notification")
	}

	cancel()
	time.Sleep(100 * time.Millisecond)
}

func TestDebounceCollapsesBursts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan Event, 10)
	changes := Debounce(ctx, events, 100*time.Millisecond)

	for i := 0; i < 5; i++ {
		events <- Event{Path: "x"}
	}

	select {
	case <-changes:
	case <-time.After(time.Second):
		t.Fatal("expected one change signal")
	}

	select {
	case <-changes:
		t.Fatal("expected burst to collapse into a single signal")
	case <-time.After(250 * time.Millisecond):
	}

	close(events)
	select {
	case _, ok := <-changes:
		if ok {
			t.Fatal("expected channel closed after events closed")
		}
	case <-time.After(time.Second):
		t.Fatal("debounce did not stop")
	}
}

package aggregator

import (
	"context"
	"testing"
	"time"

	"github.com/atikulmunna/towerscan/internal/model"
)

func TestSummarizeDominantState(t *testing.T) {
	records := []model.LocationRecord{
		{State: "NY"}, {State: "NJ"}, {State: "NY"}, {State: ""},
		{State: "PA"}, {State: "NJ"}, {State: "NY"},
		{State: ""},
	}
	windows := []model.Window{
		{Index: 0, Indices: []int{0, 1, 2, 3}},
		{Index: 1, Indices: []int{4, 5, 6}},
		{Index: 2, Indices: []int{7}},
	}

	got := Summarize(records, windows, DefaultMinStateShare)
	if len(got) != 3 {
		t.Fatalf("expected 3 windows, got %d", len(got))
	}

	w0 := got[0]
	if w0.DominantState != "NY" {
		t.Errorf("expected NY, got %q", w0.DominantState)
	}
	if w0.Records != 4 {
		t.Errorf("expected 4 records, got %d", w0.Records)
	}
	if w0.Share < 0.66 || w0.Share > 0.67 {
		t.Errorf("expected share 2/3, got %v", w0.Share)
	}
	if w0.Mixed {
		t.Error("expected window 0 not mixed at 2/3 share")
	}

	w1 := got[1]
	if w1.DominantState != "PA" {
		t.Errorf("expected first-seen PA on a three-way tie, got %q", w1.DominantState)
	}
	if !w1.Mixed {
		t.Error("expected window 1 mixed")
	}
	if w1.StateCounts["NJ"] != 1 {
		t.Errorf("expected NJ count 1, got %d", w1.StateCounts["NJ"])
	}

	w2 := got[2]
	if w2.DominantState != "" || w2.Share != 0 || w2.Mixed {
		t.Errorf("expected empty unmixed window, got %+v", w2)
	}
}

func TestSummarizeSingleStateNeverMixed(t *testing.T) {
	records := []model.LocationRecord{{State: "TX"}, {State: "TX"}}
	got := Summarize(records, []model.Window{{Indices: []int{0, 1}}}, 1.5)
	if got[0].Mixed {
		t.Error("a single-state window cannot be mixed")
	}
}

func TestAggregatorTracksLatest(t *testing.T) {
	ch := make(chan model.Report, 10)
	agg := New(ch, func() int64 { return 3 }, func() int { return 2 })

	if _, ok := agg.Latest(); ok {
		t.Fatal("expected no report before any run")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go agg.Start(ctx)

	ch <- model.Report{RunID: "first"}
	ch <- model.Report{
		RunID:   "second",
		Summary: model.Summary{RecordsLoaded: 12, JumpsFound: 2},
		Windows: []model.StateWindow{{Mixed: true}, {}, {Mixed: true}},
	}

	time.Sleep(200 * time.Millisecond)

	stats := agg.Snapshot()
	if stats.Runs != 2 {
		t.Errorf("expected 2 runs, got %d", stats.Runs)
	}
	if stats.LastRunID != "second" {
		t.Errorf("expected last run 'second', got %q", stats.LastRunID)
	}
	if stats.JumpsFound != 2 || stats.RecordsLoaded != 12 {
		t.Errorf("unexpected counters %+v", stats)
	}
	if stats.MixedWindows != 2 {
		t.Errorf("expected 2 mixed windows, got %d", stats.MixedWindows)
	}
	if stats.DroppedReports != 3 || stats.FilesWatched != 2 {
		t.Errorf("expected live values from callbacks, got %+v", stats)
	}

	latest, ok := agg.Latest()
	if !ok || latest.RunID != "second" {
		t.Errorf("expected latest report 'second', got %+v", latest)
	}

	cancel()
}

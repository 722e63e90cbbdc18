package aggregator

import (
	"context"
	"sync"
	"time"

	"github.com/atikulmunna/towerscan/internal/model"
)

// Stats holds a point-in-time snapshot of analysis activity.
type Stats struct {
	Uptime         string    `json:"uptime"`
	Runs           int64     `json:"runs"`
	LastRunID      string    `json:"last_run_id,omitempty"`
	LastRunAt      time.Time `json:"last_run_at,omitempty"`
	RecordsLoaded  int       `json:"records_loaded"`
	JumpsFound     int       `json:"jumps_found"`
	MixedWindows   int       `json:"mixed_windows"`
	DroppedReports int64     `json:"dropped_reports"`
	FilesWatched   int       `json:"files_watched"`
}

// Aggregator subscribes to the Hub and tracks the latest report.
type Aggregator struct {
	mu        sync.RWMutex
	startTime time.Time
	runs      int64
	latest    *model.Report
	dropped   func() int64
	fileCount func() int
	reports   <-chan model.Report
}

// New creates an Aggregator that reads from the given Hub subscriber channel.
// droppedFn and fileCountFn provide live values from Hub and Watcher respectively.
func New(reports <-chan model.Report, droppedFn func() int64, fileCountFn func() int) *Aggregator {
	return &Aggregator{
		startTime: time.Now(),
		dropped:   droppedFn,
		fileCount: fileCountFn,
		reports:   reports,
	}
}

// Latest returns the most recent report, if any.
func (a *Aggregator) Latest() (model.Report, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.latest == nil {
		return model.Report{}, false
	}
	return *a.latest, true
}

// Snapshot returns the current metrics.
func (a *Aggregator) Snapshot() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	s := Stats{
		Uptime:         time.Since(a.startTime).Truncate(time.Second).String(),
		Runs:           a.runs,
		DroppedReports: a.dropped(),
		FilesWatched:   a.fileCount(),
	}
	if r := a.latest; r != nil {
		s.LastRunID = r.RunID
		s.LastRunAt = r.GeneratedAt
		s.RecordsLoaded = r.Summary.RecordsLoaded
		s.JumpsFound = r.Summary.JumpsFound
		for _, w := range r.Windows {
			if w.Mixed {
				s.MixedWindows++
			}
		}
	}
	return s
}

// Start consumes reports until the context is cancelled or the channel closes.
func (a *Aggregator) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case r, ok := <-a.reports:
			if !ok {
				return
			}
			a.record(r)
		}
	}
}

func (a *Aggregator) record(r model.Report) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.runs++
	a.latest = &r
}

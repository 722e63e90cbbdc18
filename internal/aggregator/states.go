package aggregator

import (
	"strings"

	"github.com/atikulmunna/towerscan/internal/model"
)

// DefaultMinStateShare is the dominant-state share below which a
// multi-state window is reported as mixed.
const DefaultMinStateShare = 0.6

// Summarize reports the dominant state of each detector window. A window is
// Mixed when its records name more than one state and the most common one
// accounts for less than minShare of them. Records with a blank state are
// counted in Records but not in the share.
func Summarize(records []model.LocationRecord, windows []model.Window, minShare float64) []model.StateWindow {
	out := make([]model.StateWindow, 0, len(windows))

	for _, w := range windows {
		sw := model.StateWindow{
			Index:       w.Index,
			Start:       w.Start,
			End:         w.End,
			Records:     len(w.Indices),
			StateCounts: make(map[string]int),
		}

		var order []string
		stated := 0
		for _, idx := range w.Indices {
			s := strings.TrimSpace(records[idx].State)
			if s == "" {
				continue
			}
			if sw.StateCounts[s] == 0 {
				order = append(order, s)
			}
			sw.StateCounts[s]++
			stated++
		}

		for _, s := range order {
			if sw.DominantState == "" || sw.StateCounts[s] > sw.StateCounts[sw.DominantState] {
				sw.DominantState = s
			}
		}
		if stated > 0 {
			sw.Share = float64(sw.StateCounts[sw.DominantState]) / float64(stated)
		}
		sw.Mixed = len(sw.StateCounts) > 1 && sw.Share < minShare

		out = append(out, sw)
	}

	return out
}

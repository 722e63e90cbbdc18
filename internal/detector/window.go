package detector

import (
	"time"

	"github.com/atikulmunna/towerscan/internal/model"
)

// partition groups the kept indices into consecutive windows in one pass.
// A record joins the open window when it lies within span of the window's
// first record; otherwise it opens a new one.
func partition(records []model.LocationRecord, kept []int, span time.Duration) []model.Window {
	var windows []model.Window
	var cur *model.Window

	for _, idx := range kept {
		t := records[idx].UTCTime
		if cur != nil && t.Sub(cur.Start) <= span {
			cur.Indices = append(cur.Indices, idx)
			cur.End = t
			continue
		}
		windows = append(windows, model.Window{
			Index:   len(windows),
			Start:   t,
			End:     t,
			Indices: []int{idx},
		})
		cur = &windows[len(windows)-1]
	}

	return windows
}

// pairs lists the index pairs to evaluate inside one window.
func pairs(indices []int, mode PairMode) [][2]int {
	if len(indices) < 2 {
		return nil
	}

	if mode == PairExhaustive {
		out := make([][2]int, 0, len(indices)*(len(indices)-1)/2)
		for a := 0; a < len(indices); a++ {
			for b := a + 1; b < len(indices); b++ {
				out = append(out, [2]int{indices[a], indices[b]})
			}
		}
		return out
	}

	out := make([][2]int, 0, len(indices)-1)
	for a := 1; a < len(indices); a++ {
		out = append(out, [2]int{indices[a-1], indices[a]})
	}
	return out
}

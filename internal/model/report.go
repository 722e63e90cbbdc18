package model

import "time"

// StateWindow is the dominant-state view of one detector window.
type StateWindow struct {
	Index         int            `json:"index"`
	Start         time.Time      `json:"start"`
	End           time.Time      `json:"end"`
	Records       int            `json:"records"`
	DominantState string         `json:"dominant_state"`
	Share         float64        `json:"share"`
	StateCounts   map[string]int `json:"state_counts"`
	Mixed         bool           `json:"mixed"`
}

// ReportConfig echoes the parameters a report was produced with.
type ReportConfig struct {
	TimeWindowSeconds float64 `json:"time_window_seconds"`
	MinConfidence     float64 `json:"min_confidence"`
	SpeedCeilingKmh   float64 `json:"speed_ceiling_kmh"`
	PairMode          string  `json:"pair_mode"`
	MinStateShare     float64 `json:"min_state_share"`
}

// Report is everything one analysis run produces.
type Report struct {
	RunID        string           `json:"run_id"`
	GeneratedAt  time.Time        `json:"generated_at"`
	Sources      []string         `json:"sources"`
	Config       ReportConfig     `json:"config"`
	Summary      Summary          `json:"summary"`
	RowsRejected int              `json:"rows_rejected"`
	StatesFilled int              `json:"states_filled"`
	Records      []LocationRecord `json:"-"`
	Findings     []JumpFinding    `json:"findings"`
	Windows      []StateWindow    `json:"windows"`
}

// Filter returns the findings with the given classification.
func (r Report) Filter(c Classification) []JumpFinding {
	var out []JumpFinding
	for _, f := range r.Findings {
		if f.Classification == c {
			out = append(out, f)
		}
	}
	return out
}

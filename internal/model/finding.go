package model

import (
	"fmt"
	"time"
)

// Classification is the verdict for one evaluated transition.
type Classification string

const (
	Plausible     Classification = "plausible"
	Jump          Classification = "jump"
	Indeterminate Classification = "indeterminate"
)

// ParseClassification accepts the lowercase names used in reports and query strings.
func ParseClassification(s string) (Classification, error) {
	switch c := Classification(s); c {
	case Plausible, Jump, Indeterminate:
		return c, nil
	}
	return "", fmt.Errorf("unknown classification %q", s)
}

// JumpFinding describes a transition between two records.
// FromIndex and ToIndex point into the record slice handed to the detector.
type JumpFinding struct {
	FromIndex       int            `json:"from_index"`
	ToIndex         int            `json:"to_index"`
	FromTime        time.Time      `json:"from_time"`
	ToTime          time.Time      `json:"to_time"`
	ElapsedSeconds  float64        `json:"elapsed_seconds"`
	DistanceKm      *float64       `json:"distance_km"`
	ImpliedSpeedKmh *float64       `json:"implied_speed_kmh"`
	Classification  Classification `json:"classification"`
	ConfidenceUsed  float64        `json:"confidence_used"`
	Window          int            `json:"window"`
}

// Window is a contiguous group of records no wider than the configured span.
type Window struct {
	Index   int       `json:"index"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Indices []int     `json:"indices"`
}

// Summary holds the counters reported alongside the findings.
type Summary struct {
	RecordsLoaded              int `json:"records_loaded"`
	RecordsDroppedByConfidence int `json:"records_dropped_by_confidence"`
	WindowsEvaluated           int `json:"windows_evaluated"`
	PairsEvaluated             int `json:"pairs_evaluated"`
	JumpsFound                 int `json:"jumps_found"`
	IndeterminateFound         int `json:"indeterminate_found"`
	PlausibleFound             int `json:"plausible_found"`
}

// Package detector finds tower jumps in a time-ordered sequence of location fixes.
//
// Detect is a pure function: it never mutates its input, holds no state
// between calls and may be called concurrently on different inputs.
package detector

import (
	"github.com/atikulmunna/towerscan/internal/geo"
	"github.com/atikulmunna/towerscan/internal/model"
)

// Result is the output of a successful Detect call.
type Result struct {
	Findings []model.JumpFinding
	Windows  []model.Window
	Summary  model.Summary
}

// Detect filters records by confidence, groups the survivors into time
// windows and classifies the transitions inside each window.
//
// records must be sorted ascending by UTCTime. On error the returned Result
// is empty.
func Detect(records []model.LocationRecord, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	if err := checkOrder(records); err != nil {
		return Result{}, err
	}

	kept, dropped := filterConfidence(records, cfg.MinConfidence)
	windows := partition(records, kept, cfg.TimeWindow)

	res := Result{
		Windows: windows,
		Summary: model.Summary{
			RecordsLoaded:              len(records),
			RecordsDroppedByConfidence: dropped,
			WindowsEvaluated:           len(windows),
		},
	}

	// Windows are chronological and pairs are generated in index order
	// within each window, so findings come out sorted by FromTime.
	for _, w := range windows {
		for _, p := range pairs(w.Indices, cfg.PairMode) {
			f := evaluate(records, p[0], p[1], cfg.SpeedCeilingKmh)
			f.Window = w.Index
			res.Findings = append(res.Findings, f)

			switch f.Classification {
			case model.Jump:
				res.Summary.JumpsFound++
			case model.Indeterminate:
				res.Summary.IndeterminateFound++
			default:
				res.Summary.PlausibleFound++
			}
		}
	}
	res.Summary.PairsEvaluated = len(res.Findings)

	return res, nil
}

// checkOrder returns an *OrderingError for the first out-of-order record.
func checkOrder(records []model.LocationRecord) error {
	for i := 1; i < len(records); i++ {
		if records[i].UTCTime.Before(records[i-1].UTCTime) {
			return &OrderingError{
				Index:    i,
				Previous: records[i-1].UTCTime,
				Current:  records[i].UTCTime,
			}
		}
	}
	return nil
}

// filterConfidence returns the indices of records at or above threshold.
func filterConfidence(records []model.LocationRecord, threshold float64) (kept []int, dropped int) {
	kept = make([]int, 0, len(records))
	for i, r := range records {
		if r.Confidence >= threshold {
			kept = append(kept, i)
		} else {
			dropped++
		}
	}
	return kept, dropped
}

// evaluate classifies the transition from records[i] to records[j].
func evaluate(records []model.LocationRecord, i, j int, ceiling float64) model.JumpFinding {
	from, to := records[i], records[j]

	f := model.JumpFinding{
		FromIndex:      i,
		ToIndex:        j,
		FromTime:       from.UTCTime,
		ToTime:         to.UTCTime,
		ElapsedSeconds: to.UTCTime.Sub(from.UTCTime).Seconds(),
		ConfidenceUsed: min(from.Confidence, to.Confidence),
	}

	if !from.HasLocation() || !to.HasLocation() {
		f.Classification = model.Indeterminate
		return f
	}

	dist := geo.HaversineKm(from.Latitude, from.Longitude, to.Latitude, to.Longitude)
	f.DistanceKm = &dist

	speed, ok := geo.SpeedKmh(dist, f.ElapsedSeconds)
	if !ok {
		// Simultaneous fixes: any displacement is an infinite speed.
		if from.Latitude != to.Latitude || from.Longitude != to.Longitude {
			f.Classification = model.Jump
		} else {
			f.Classification = model.Plausible
		}
		return f
	}

	f.ImpliedSpeedKmh = &speed
	if speed > ceiling {
		f.Classification = model.Jump
	} else {
		f.Classification = model.Plausible
	}
	return f
}

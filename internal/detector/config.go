package detector

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// DefaultSpeedCeilingKmh allows for commercial air travel while still
// catching transitions no device could physically make.
const DefaultSpeedCeilingKmh = 1000.0

// PairMode selects which pairs inside a window are evaluated.
type PairMode int

const (
	// PairAdjacent evaluates consecutive records only.
	PairAdjacent PairMode = iota
	// PairExhaustive evaluates every ordered pair within a window.
	PairExhaustive
)

func (m PairMode) String() string {
	switch m {
	case PairAdjacent:
		return "adjacent"
	case PairExhaustive:
		return "exhaustive"
	default:
		return fmt.Sprintf("PairMode(%d)", int(m))
	}
}

// ParsePairMode maps a config string to a PairMode.
func ParsePairMode(s string) (PairMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "adjacent":
		return PairAdjacent, nil
	case "exhaustive", "all":
		return PairExhaustive, nil
	}
	return 0, &ConfigurationError{Field: "pair_mode", Value: s, Reason: "must be adjacent or exhaustive"}
}

// Config controls a single Detect call.
type Config struct {
	TimeWindow      time.Duration
	MinConfidence   float64 // inclusive
	SpeedCeilingKmh float64
	PairMode        PairMode
}

// DefaultConfig returns a 5 minute window, no confidence filtering and
// adjacent-pair evaluation.
func DefaultConfig() Config {
	return Config{
		TimeWindow:      5 * time.Minute,
		MinConfidence:   0,
		SpeedCeilingKmh: DefaultSpeedCeilingKmh,
		PairMode:        PairAdjacent,
	}
}

// Validate returns a *ConfigurationError for the first out-of-range field.
func (c Config) Validate() error {
	if c.TimeWindow <= 0 {
		return &ConfigurationError{Field: "time_window", Value: c.TimeWindow, Reason: "must be positive"}
	}
	if math.IsNaN(c.MinConfidence) {
		return &ConfigurationError{Field: "min_confidence", Value: c.MinConfidence, Reason: "must be a number"}
	}
	if !(c.SpeedCeilingKmh > 0) || math.IsInf(c.SpeedCeilingKmh, 0) {
		return &ConfigurationError{Field: "speed_ceiling_kmh", Value: c.SpeedCeilingKmh, Reason: "must be positive and finite"}
	}
	if c.PairMode != PairAdjacent && c.PairMode != PairExhaustive {
		return &ConfigurationError{Field: "pair_mode", Value: c.PairMode, Reason: "must be adjacent or exhaustive"}
	}
	return nil
}

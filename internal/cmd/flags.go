package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// analysisFlags maps flag names to config keys.
var analysisFlags = map[string]string{
	"window":             "detector.time_window_seconds",
	"min-confidence":     "detector.min_confidence",
	"speed-ceiling":      "detector.speed_ceiling_kmh",
	"pair-mode":          "detector.pair_mode",
	"format":             "input.format",
	"default-confidence": "input.default_confidence",
	"fill-states":        "input.fill_states",
	"state-precision":    "input.state_precision",
	"sort":               "input.sort",
	"min-state-share":    "report.min_state_share",
	"only-flagged":       "report.only_flagged",
	"preview":            "report.preview_rows",
	"report-file":        "report.file",
	"findings-file":      "report.findings_file",
}

// addAnalysisFlags declares the flags shared by analyze, watch and serve.
func addAnalysisFlags(fs *pflag.FlagSet) {
	fs.Float64P("window", "w", 300, "time window in seconds")
	fs.Float64("min-confidence", 0, "drop records below this confidence")
	fs.Float64("speed-ceiling", 1000, "implied speed in km/h above which a transition is a jump")
	fs.String("pair-mode", "adjacent", "pairs compared per window: adjacent, exhaustive")
	fs.String("format", "auto", "input format: auto, csv, jsonl")
	fs.Float64("default-confidence", 1.0, "confidence for rows without one")
	fs.Bool("fill-states", true, "fill missing states from matching coordinates")
	fs.Int("state-precision", 3, "decimal places used to match coordinates when filling states")
	fs.Bool("sort", false, "sort input by utc time instead of rejecting out-of-order logs")
	fs.Float64("min-state-share", 0.6, "dominant-state share below which a window is mixed")
	fs.Bool("only-flagged", false, "hide plausible findings")
	fs.Int("preview", 5, "number of windows listed in text output")
	fs.String("report-file", "", "also write the window report as CSV to this file")
	fs.String("findings-file", "", "also write findings as CSV to this file")
}

// bindAnalysisFlags binds the running command's flags. Flags the user did
// not set do not override the config file.
func bindAnalysisFlags(cmd *cobra.Command) error {
	for name, key := range analysisFlags {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

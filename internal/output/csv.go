package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/atikulmunna/towerscan/internal/model"
)

const csvTime = "2006-01-02 15:04:05"

var (
	windowHeader  = []string{"start_time", "end_time", "state", "state_flip", "confidence_percentage", "total_records", "states_count"}
	findingHeader = []string{"from_index", "to_index", "from_time", "to_time", "elapsed_seconds", "distance_km", "implied_speed_kmh", "classification", "confidence_used", "window"}
)

// CSVRenderer writes the window report to one stream and, optionally, the
// findings to another.
type CSVRenderer struct {
	windows  io.Writer
	findings io.Writer
	opts     Options
}

// NewCSVRenderer returns a CSV renderer. findings may be nil.
func NewCSVRenderer(windows, findings io.Writer, opts Options) *CSVRenderer {
	return &CSVRenderer{windows: windows, findings: findings, opts: opts}
}

func (r *CSVRenderer) Render(report model.Report) error {
	if err := writeWindows(r.windows, report.Windows); err != nil {
		return fmt.Errorf("write windows: %w", err)
	}
	if r.findings == nil {
		return nil
	}
	if err := writeFindings(r.findings, visibleFindings(report, r.opts.OnlyFlagged)); err != nil {
		return fmt.Errorf("write findings: %w", err)
	}
	return nil
}

func writeWindows(w io.Writer, windows []model.StateWindow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(windowHeader); err != nil {
		return err
	}
	for _, sw := range windows {
		flip := "no"
		if sw.Mixed {
			flip = "yes"
		}
		row := []string{
			sw.Start.Format(csvTime),
			sw.End.Format(csvTime),
			sw.DominantState,
			flip,
			decimal.NewFromFloat(sw.Share * 100).Round(2).StringFixed(2),
			strconv.Itoa(sw.Records),
			formatCounts(sw.StateCounts),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeFindings(w io.Writer, findings []model.JumpFinding) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(findingHeader); err != nil {
		return err
	}
	for _, f := range findings {
		row := []string{
			strconv.Itoa(f.FromIndex),
			strconv.Itoa(f.ToIndex),
			f.FromTime.Format(csvTime),
			f.ToTime.Format(csvTime),
			decimal.NewFromFloat(f.ElapsedSeconds).String(),
			optional(f.DistanceKm, 3),
			optional(f.ImpliedSpeedKmh, 1),
			string(f.Classification),
			decimal.NewFromFloat(f.ConfidenceUsed).Round(4).String(),
			strconv.Itoa(f.Window),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// optional renders nil as an empty cell.
func optional(v *float64, places int32) string {
	if v == nil {
		return ""
	}
	return decimal.NewFromFloat(*v).Round(places).StringFixed(places)
}

// formatCounts renders state counts as "NJ=1;PA=2" with keys sorted.
func formatCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + strconv.Itoa(counts[k])
	}
	return strings.Join(parts, ";")
}

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/atikulmunna/towerscan/internal/model"
)

// Renderer writes a Report to an output stream.
type Renderer interface {
	Render(report model.Report) error
}

// Options shared by all renderers.
type Options struct {
	// OnlyFlagged hides plausible findings.
	OnlyFlagged bool
	// PreviewRows limits how many windows the text renderer lists; 0 lists none.
	PreviewRows int
}

// New returns the renderer for a format name: text, json or csv.
func New(format string, w io.Writer, opts Options) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		return NewTextRenderer(w, opts), nil
	case "json":
		return NewJSONRenderer(w, opts), nil
	case "csv":
		return NewCSVRenderer(w, nil, opts), nil
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}

func visibleFindings(r model.Report, onlyFlagged bool) []model.JumpFinding {
	if !onlyFlagged {
		return r.Findings
	}
	out := make([]model.JumpFinding, 0, r.Summary.JumpsFound+r.Summary.IndeterminateFound)
	for _, f := range r.Findings {
		if f.Classification != model.Plausible {
			out = append(out, f)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Text Renderer (colorized terminal output)
// ---------------------------------------------------------------------------

var (
	stylePlausible     = lipgloss.NewStyle().Foreground(lipgloss.Color("245")) // gray
	styleIndeterminate = lipgloss.NewStyle().Foreground(lipgloss.Color("220")) // yellow
	styleJump          = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	styleMixed         = lipgloss.NewStyle().
				Foreground(lipgloss.Color("255")).
				Background(lipgloss.Color("196")).
				Bold(true) // white on red
	styleHeading = lipgloss.NewStyle().Bold(true).Underline(true)
	styleMuted   = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Faint(true) // cyan
)

// TextRenderer prints a human-readable report with classification colors.
type TextRenderer struct {
	w    io.Writer
	opts Options
}

// NewTextRenderer returns a Renderer that writes colorized text to w.
func NewTextRenderer(w io.Writer, opts Options) *TextRenderer {
	return &TextRenderer{w: w, opts: opts}
}

func (r *TextRenderer) Render(report model.Report) error {
	var b strings.Builder
	s := report.Summary

	fmt.Fprintf(&b, "%s %s\n", styleHeading.Render("Tower jump analysis"), styleMuted.Render(report.RunID))
	fmt.Fprintf(&b, "records %d  dropped %d  rejected %d  states filled %d\n",
		s.RecordsLoaded, s.RecordsDroppedByConfidence, report.RowsRejected, report.StatesFilled)
	fmt.Fprintf(&b, "windows %d  pairs %d  jumps %d  indeterminate %d  plausible %d\n",
		s.WindowsEvaluated, s.PairsEvaluated, s.JumpsFound, s.IndeterminateFound, s.PlausibleFound)
	if s.PairsEvaluated > 0 {
		fmt.Fprintf(&b, "jump rate %.2f%%\n", float64(s.JumpsFound)/float64(s.PairsEvaluated)*100)
	}

	if n := min(r.opts.PreviewRows, len(report.Windows)); n > 0 {
		fmt.Fprintf(&b, "\n%s\n", styleHeading.Render(fmt.Sprintf("First %d windows", n)))
		for i, w := range report.Windows[:n] {
			state := w.DominantState
			if state == "" {
				state = "-"
			}
			line := fmt.Sprintf("%3d. %s to %s  %-4s %6.2f%%  records %d",
				i+1, w.Start.Format("2006-01-02 15:04:05"), w.End.Format("15:04:05"),
				state, w.Share*100, w.Records)
			if w.Mixed {
				line += " " + styleMixed.Render("MIXED")
			}
			b.WriteString(line + "\n")
		}
	}

	findings := visibleFindings(report, r.opts.OnlyFlagged)
	if len(findings) > 0 {
		fmt.Fprintf(&b, "\n%s\n", styleHeading.Render("Findings"))
		for _, f := range findings {
			b.WriteString(r.findingLine(report, f) + "\n")
		}
	}

	_, err := io.WriteString(r.w, b.String())
	return err
}

func (r *TextRenderer) findingLine(report model.Report, f model.JumpFinding) string {
	dist, speed := "    -    ", "      -      "
	if f.DistanceKm != nil {
		dist = fmt.Sprintf("%7.2f km", *f.DistanceKm)
	}
	if f.ImpliedSpeedKmh != nil {
		speed = fmt.Sprintf("%8.0f km/h", *f.ImpliedSpeedKmh)
	} else if f.Classification == model.Jump {
		speed = "      ∞ km/h"
	}

	line := fmt.Sprintf("%s → %s  %s  %s  %s  conf %.2f",
		f.FromTime.Format("2006-01-02 15:04:05"), f.ToTime.Format("15:04:05"),
		styleClass(f.Classification), dist, speed, f.ConfidenceUsed)

	if place := placeOf(report, f.FromIndex) + " → " + placeOf(report, f.ToIndex); place != " → " {
		line += "  " + styleMuted.Render(place)
	}
	return line
}

func styleClass(c model.Classification) string {
	padded := fmt.Sprintf("%-13s", strings.ToUpper(string(c)))
	switch c {
	case model.Jump:
		return styleJump.Render(padded)
	case model.Indeterminate:
		return styleIndeterminate.Render(padded)
	default:
		return stylePlausible.Render(padded)
	}
}

// placeOf describes a record as "City, State" when the report carries records.
func placeOf(report model.Report, idx int) string {
	if idx < 0 || idx >= len(report.Records) {
		return ""
	}
	rec := report.Records[idx]
	parts := make([]string, 0, 2)
	for _, p := range []string{rec.City, rec.State} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "?"
	}
	return strings.Join(parts, ", ")
}

// ---------------------------------------------------------------------------
// JSON Renderer (structured output for piping)
// ---------------------------------------------------------------------------

// JSONRenderer prints each report as a single JSON object per line.
type JSONRenderer struct {
	enc  *json.Encoder
	opts Options
}

// NewJSONRenderer returns a Renderer that writes JSON lines to w.
func NewJSONRenderer(w io.Writer, opts Options) *JSONRenderer {
	return &JSONRenderer{enc: json.NewEncoder(w), opts: opts}
}

func (r *JSONRenderer) Render(report model.Report) error {
	report.Findings = visibleFindings(report, r.opts.OnlyFlagged)
	return r.enc.Encode(report)
}

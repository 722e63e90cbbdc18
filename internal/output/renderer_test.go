package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/atikulmunna/towerscan/internal/model"
)

func f64(v float64) *float64 { return &v }

func sampleReport() model.Report {
	t0 := time.Date(2025, 7, 9, 14, 0, 0, 0, time.UTC)
	return model.Report{
		RunID: "run-123",
		Summary: model.Summary{
			RecordsLoaded: 3, WindowsEvaluated: 1, PairsEvaluated: 2,
			JumpsFound: 1, PlausibleFound: 1,
		},
		Records: []model.LocationRecord{
			{City: "Philadelphia", State: "PA"},
			{City: "Trenton", State: "NJ"},
			{City: "Trenton", State: "NJ"},
		},
		Findings: []model.JumpFinding{
			{
				FromIndex: 0, ToIndex: 1, FromTime: t0, ToTime: t0.Add(time.Minute),
				ElapsedSeconds: 60, DistanceKm: f64(55.5975), ImpliedSpeedKmh: f64(3335.85),
				Classification: model.Jump, ConfidenceUsed: 1,
			},
			{
				FromIndex: 1, ToIndex: 2, FromTime: t0.Add(time.Minute), ToTime: t0.Add(2 * time.Minute),
				ElapsedSeconds: 60, DistanceKm: f64(0), ImpliedSpeedKmh: f64(0),
				Classification: model.Plausible, ConfidenceUsed: 1,
			},
		},
		Windows: []model.StateWindow{
			{
				Start: t0, End: t0.Add(2 * time.Minute), Records: 3,
				DominantState: "NJ", Share: 2.0 / 3.0,
				StateCounts: map[string]int{"PA": 1, "NJ": 2},
			},
		},
	}
}

func TestJSONRenderer(t *testing.T) {
	var buf bytes.Buffer
	renderer := NewJSONRenderer(&buf, Options{})

	if err := renderer.Render(sampleReport()); err != nil {
		t.Fatal(err)
	}

	var got model.Report
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON output: %v\nraw: %s", err, buf.String())
	}
	if got.RunID != "run-123" {
		t.Errorf("expected run id run-123, got %q", got.RunID)
	}
	if len(got.Findings) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(got.Findings))
	}
	if got.Findings[0].Classification != model.Jump {
		t.Errorf("expected jump, got %s", got.Findings[0].Classification)
	}
	if got.Records != nil {
		t.Error("expected records to be omitted from JSON")
	}
}

func TestJSONRendererOnlyFlagged(t *testing.T) {
	var buf bytes.Buffer
	renderer := NewJSONRenderer(&buf, Options{OnlyFlagged: true})

	report := sampleReport()
	if err := renderer.Render(report); err != nil {
		t.Fatal(err)
	}

	var got model.Report
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Findings) != 1 {
		t.Errorf("expected 1 flagged finding, got %d", len(got.Findings))
	}
	if len(report.Findings) != 2 {
		t.Error("renderer must not modify the caller's report")
	}
}

func TestJSONRendererIndeterminateHasNullDistance(t *testing.T) {
	var buf bytes.Buffer
	report := model.Report{Findings: []model.JumpFinding{{Classification: model.Indeterminate}}}

	if err := NewJSONRenderer(&buf, Options{}).Render(report); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"distance_km":null`) {
		t.Errorf("expected null distance, got %s", buf.String())
	}
}

func TestTextRenderer(t *testing.T) {
	var buf bytes.Buffer
	renderer := NewTextRenderer(&buf, Options{PreviewRows: 5, OnlyFlagged: true})

	if err := renderer.Render(sampleReport()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{"run-123", "jumps 1", "JUMP", "Philadelphia, PA", "Trenton, NJ", "66.67%", "jump rate 50.00%"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "PLAUSIBLE") {
		t.Errorf("expected plausible findings hidden\n%s", out)
	}
}

func TestCSVRenderer(t *testing.T) {
	var windows, findings bytes.Buffer
	renderer := NewCSVRenderer(&windows, &findings, Options{})

	if err := renderer.Render(sampleReport()); err != nil {
		t.Fatal(err)
	}

	rows, err := csv.NewReader(&windows).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(rows))
	}
	want := []string{"2025-07-09 14:00:00", "2025-07-09 14:02:00", "NJ", "no", "66.67", "3", "NJ=2;PA=1"}
	for i, v := range want {
		if rows[1][i] != v {
			t.Errorf("column %s: expected %q, got %q", rows[0][i], v, rows[1][i])
		}
	}

	frows, err := csv.NewReader(&findings).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(frows) != 3 {
		t.Fatalf("expected header + 2 findings, got %d", len(frows))
	}
	if frows[1][5] != "55.598" || frows[1][6] != "3335.9" || frows[1][7] != "jump" {
		t.Errorf("unexpected finding row %v", frows[1])
	}
}

func TestCSVRendererEmptyOptional(t *testing.T) {
	var windows, findings bytes.Buffer
	report := model.Report{Findings: []model.JumpFinding{{Classification: model.Indeterminate, ConfidenceUsed: 0.25}}}

	if err := NewCSVRenderer(&windows, &findings, Options{}).Render(report); err != nil {
		t.Fatal(err)
	}
	frows, err := csv.NewReader(&findings).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if frows[1][5] != "" || frows[1][6] != "" {
		t.Errorf("expected blank distance and speed, got %v", frows[1])
	}
	if frows[1][8] != "0.25" {
		t.Errorf("expected confidence 0.25, got %q", frows[1][8])
	}
}

func TestNewRenderer(t *testing.T) {
	for _, f := range []string{"text", "JSON", "csv", ""} {
		if _, err := New(f, &bytes.Buffer{}, Options{}); err != nil {
			t.Errorf("format %q: %v", f, err)
		}
	}
	if _, err := New("yaml", &bytes.Buffer{}, Options{}); err == nil {
		t.Error("expected error for unknown format")
	}
}

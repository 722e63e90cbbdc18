// Package analysis runs one end-to-end pass over a device log: load, fill
// missing states, detect jumps and summarize windows.
package analysis

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/atikulmunna/towerscan/internal/aggregator"
	"github.com/atikulmunna/towerscan/internal/config"
	"github.com/atikulmunna/towerscan/internal/detector"
	"github.com/atikulmunna/towerscan/internal/model"
	"github.com/atikulmunna/towerscan/internal/parser"
)

// Analyzer holds the validated settings for repeated runs over the same inputs.
type Analyzer struct {
	cfg      config.Config
	detector detector.Config
	parser   parser.Parser
	log      logrus.FieldLogger
	now      func() time.Time
}

// New validates cfg and prepares an Analyzer.
func New(cfg config.Config, log logrus.FieldLogger) (*Analyzer, error) {
	dc, err := cfg.DetectorConfig()
	if err != nil {
		return nil, err
	}
	p, err := parser.New(cfg.Input.Format, parser.Options{DefaultConfidence: cfg.Input.DefaultConfidence})
	if err != nil {
		return nil, err
	}
	return &Analyzer{
		cfg:      cfg,
		detector: dc,
		parser:   p,
		log:      log.WithField("component", "analysis"),
		now:      time.Now,
	}, nil
}

// Run loads paths and analyzes the combined record sequence.
func (a *Analyzer) Run(ctx context.Context, paths []string) (model.Report, error) {
	if err := ctx.Err(); err != nil {
		return model.Report{}, err
	}

	start := a.now()
	batch, err := parser.LoadFiles(a.parser, paths)
	if err != nil {
		return model.Report{}, fmt.Errorf("load input: %w", err)
	}
	for _, re := range batch.Rejected {
		a.log.WithFields(logrus.Fields{
			"source": re.Source,
			"line":   re.Line,
			"column": re.Column,
		}).Debugf("rejected row: %v", re.Err)
	}
	if n := len(batch.Rejected); n > 0 {
		a.log.WithField("rows_rejected", n).Warn("some rows could not be parsed")
	}
	if err := ctx.Err(); err != nil {
		return model.Report{}, err
	}

	report, err := a.Analyze(batch.Records)
	if err != nil {
		return model.Report{}, err
	}
	report.Sources = append([]string(nil), paths...)
	report.RowsRejected = len(batch.Rejected)

	a.log.WithFields(logrus.Fields{
		"run_id":        report.RunID,
		"records":       report.Summary.RecordsLoaded,
		"dropped":       report.Summary.RecordsDroppedByConfidence,
		"windows":       report.Summary.WindowsEvaluated,
		"jumps":         report.Summary.JumpsFound,
		"indeterminate": report.Summary.IndeterminateFound,
		"elapsed":       a.now().Sub(start).Truncate(time.Millisecond).String(),
	}).Info("analysis complete")

	return report, nil
}

// Analyze runs the in-memory part of the pipeline on already parsed records.
func (a *Analyzer) Analyze(records []model.LocationRecord) (model.Report, error) {
	if a.cfg.Input.Sort {
		records = sortByTime(records, a.log)
	}

	filled := 0
	if a.cfg.Input.FillStates {
		records, filled = parser.FillMissingStates(records, a.cfg.Input.StatePrecision)
		a.log.WithField("states_filled", filled).Debug("filled missing states")
	}

	res, err := detector.Detect(records, a.detector)
	if err != nil {
		return model.Report{}, fmt.Errorf("detect: %w", err)
	}

	return model.Report{
		RunID:        uuid.NewString(),
		GeneratedAt:  a.now().UTC(),
		Config:       a.reportConfig(),
		Summary:      res.Summary,
		StatesFilled: filled,
		Records:      records,
		Findings:     res.Findings,
		Windows:      aggregator.Summarize(records, res.Windows, a.cfg.Report.MinStateShare),
	}, nil
}

func (a *Analyzer) reportConfig() model.ReportConfig {
	return model.ReportConfig{
		TimeWindowSeconds: a.detector.TimeWindow.Seconds(),
		MinConfidence:     a.detector.MinConfidence,
		SpeedCeilingKmh:   a.detector.SpeedCeilingKmh,
		PairMode:          a.detector.PairMode.String(),
		MinStateShare:     a.cfg.Report.MinStateShare,
	}
}

// sortByTime returns a stably sorted copy and logs how many records moved.
func sortByTime(records []model.LocationRecord, log logrus.FieldLogger) []model.LocationRecord {
	out := make([]model.LocationRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool { return out[i].UTCTime.Before(out[j].UTCTime) })

	moved := 0
	for i := range out {
		if out[i].Source != records[i].Source || out[i].Line != records[i].Line {
			moved++
		}
	}
	if moved > 0 {
		log.WithField("records_moved", moved).Warn("input was not in time order; sorted")
	}
	return out
}

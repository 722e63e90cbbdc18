package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/atikulmunna/towerscan/internal/analysis"
	"github.com/atikulmunna/towerscan/internal/config"
	"github.com/atikulmunna/towerscan/internal/model"
	"github.com/atikulmunna/towerscan/internal/output"
	"github.com/atikulmunna/towerscan/internal/watcher"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [paths...]",
	Short: "Analyze location logs for tower jumps",
	Long: `Load one or more location logs (CSV or JSON lines, optionally gzip or
zstd compressed), group fixes into time windows and classify each
transition as plausible, jump or indeterminate.

Examples:
  towerscan analyze carrier.csv
  towerscan analyze "exports/**/*.csv.gz" --window 900 --only-flagged
  towerscan analyze carrier.csv -o json --pair-mode exhaustive
  towerscan analyze carrier.csv --report-file windows.csv --findings-file jumps.csv`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	addAnalysisFlags(analyzeCmd.Flags())
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if err := bindAnalysisFlags(cmd); err != nil {
		return err
	}
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	paths, err := watcher.Expand(args)
	if err != nil {
		return err
	}
	a, err := analysis.New(cfg, log)
	if err != nil {
		return err
	}

	report, err := a.Run(cmd.Context(), paths)
	if err != nil {
		return err
	}
	return emit(cmd.OutOrStdout(), cfg, report, log)
}

// emit renders report to w and writes the optional CSV files.
func emit(w io.Writer, cfg config.Config, report model.Report, log logrus.FieldLogger) error {
	opts := output.Options{OnlyFlagged: cfg.Report.OnlyFlagged, PreviewRows: cfg.Report.PreviewRows}

	renderer, err := output.New(cfg.Report.Output, w, opts)
	if err != nil {
		return err
	}
	if err := renderer.Render(report); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if cfg.Report.File == "" && cfg.Report.FindingsFile == "" {
		return nil
	}
	return writeCSVFiles(cfg.Report.File, cfg.Report.FindingsFile, report, opts, log)
}

func writeCSVFiles(windowsPath, findingsPath string, report model.Report, opts output.Options, log logrus.FieldLogger) error {
	windows, findings := io.Discard, io.Writer(nil)

	if windowsPath != "" {
		f, err := os.Create(windowsPath)
		if err != nil {
			return fmt.Errorf("create window report: %w", err)
		}
		defer f.Close()
		windows = f
	}
	if findingsPath != "" {
		f, err := os.Create(findingsPath)
		if err != nil {
			return fmt.Errorf("create findings report: %w", err)
		}
		defer f.Close()
		findings = f
	}

	if err := output.NewCSVRenderer(windows, findings, opts).Render(report); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"windows_file":  windowsPath,
		"findings_file": findingsPath,
	}).Info("csv report written")
	return nil
}

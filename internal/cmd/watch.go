package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/atikulmunna/towerscan/internal/analysis"
	"github.com/atikulmunna/towerscan/internal/model"
	"github.com/atikulmunna/towerscan/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch [paths...]",
	Short: "Re-analyze location logs whenever they change",
	Long: `Analyze the given logs once, then watch them and print a fresh report
each time a file is written or replaced. Bursts of writes are collapsed
into a single run.

Examples:
  towerscan watch carrier.csv
  towerscan watch "exports/*.csv" --only-flagged -o json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	addAnalysisFlags(watchCmd.Flags())
	watchCmd.Flags().Duration("debounce", 0, "quiet period before re-running (default from config, 500ms)")
	rootCmd.AddCommand(watchCmd)
}

// signalContext cancels on SIGINT or SIGTERM.
func signalContext(parent context.Context, log logrus.FieldLogger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			log.Info("shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := bindAnalysisFlags(cmd); err != nil {
		return err
	}
	if f := cmd.Flags().Lookup("debounce"); f.Changed {
		if err := v.BindPFlag("watch.debounce", f); err != nil {
			return err
		}
	}
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context(), log)
	defer cancel()

	a, err := analysis.New(cfg, log)
	if err != nil {
		return err
	}
	w, err := watcher.New(args, log)
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	out := cmd.OutOrStdout()
	return watchLoop(ctx, a, w, cfg.Watch.Debounce, log, func(r model.Report) {
		if err := emit(out, cfg, r, log); err != nil {
			log.WithError(err).Error("render failed")
		}
	})
}

// watchLoop runs the analysis once and again after every debounced change
// until ctx is cancelled. Failed runs are logged; the previous report stays
// current.
func watchLoop(ctx context.Context, a *analysis.Analyzer, w *watcher.Watcher, quiet time.Duration, log logrus.FieldLogger, publish func(model.Report)) error {
	paths := w.Paths()
	if len(paths) == 0 {
		return fmt.Errorf("no watchable files")
	}
	log.WithField("files", len(paths)).Info("watching")

	run := func() {
		report, err := a.Run(ctx, paths)
		if err != nil {
			if ctx.Err() == nil {
				log.WithError(err).Error("analysis failed")
			}
			return
		}
		publish(report)
	}

	go w.Start(ctx)
	changes := watcher.Debounce(ctx, w.Events, quiet)

	run()
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			run()
		}
	}
}

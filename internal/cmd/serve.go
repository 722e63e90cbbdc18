package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/atikulmunna/towerscan/internal/aggregator"
	"github.com/atikulmunna/towerscan/internal/analysis"
	"github.com/atikulmunna/towerscan/internal/hub"
	"github.com/atikulmunna/towerscan/internal/model"
	"github.com/atikulmunna/towerscan/internal/server"
	"github.com/atikulmunna/towerscan/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:   "serve [paths...]",
	Short: "Serve the latest report over HTTP and WebSocket",
	Long: `Analyze the given logs, keep re-analyzing them as they change and
expose the newest report on a small HTTP API. WebSocket clients on /ws
receive every new report as it is produced.

Examples:
  towerscan serve carrier.csv
  towerscan serve "exports/*.csv" --port 9090`,
	Args: cobra.MinimumNArgs(1),
	RunE: runServe,
}

func init() {
	addAnalysisFlags(serveCmd.Flags())
	serveCmd.Flags().StringP("port", "p", "", "HTTP port (default from config, 8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := bindAnalysisFlags(cmd); err != nil {
		return err
	}
	if f := cmd.Flags().Lookup("port"); f.Changed {
		if err := v.BindPFlag("server.port", f); err != nil {
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

	reports := make(chan model.Report, 4)
	h := hub.New(reports, log)
	agg := aggregator.New(h.Subscribe(), h.Dropped, func() int { return len(w.Paths()) })
	srv := server.New(h, agg, cfg.Server.Port, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { h.Start(gctx); return nil })
	g.Go(func() error { agg.Start(gctx); return nil })
	g.Go(func() error { return srv.Start(gctx) })
	g.Go(func() error {
		return watchLoop(gctx, a, w, cfg.Watch.Debounce, log, func(r model.Report) {
			select {
			case reports <- r:
			case <-gctx.Done():
			}
		})
	})
	return g.Wait()
}

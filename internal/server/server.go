package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/pprof"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/atikulmunna/towerscan/internal/aggregator"
	"github.com/atikulmunna/towerscan/internal/hub"
	"github.com/atikulmunna/towerscan/internal/model"
)

// Server holds the Gin engine and dependencies for the report dashboard.
type Server struct {
	engine     *gin.Engine
	hub        *hub.Hub
	aggregator *aggregator.Aggregator
	log        logrus.FieldLogger
	port       string
}

// New creates a web server exposing the latest report.
func New(h *hub.Hub, agg *aggregator.Aggregator, port string, log logrus.FieldLogger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	// Disable automatic redirects that cause 301 issues.
	engine.RedirectTrailingSlash = false
	engine.RedirectFixedPath = false

	s := &Server{
		engine:     engine,
		hub:        h,
		aggregator: agg,
		log:        log.WithField("component", "server"),
		port:       port,
	}

	s.setupRoutes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) setupRoutes() {
	// Health check.
	s.engine.GET("/healthz", func(c *gin.Context) {
		stats := s.aggregator.Snapshot()
		c.JSON(http.StatusOK, gin.H{
			"status":        "ok",
			"uptime":        stats.Uptime,
			"files_watched": stats.FilesWatched,
			"runs":          stats.Runs,
			"last_run_id":   stats.LastRunID,
		})
	})

	api := s.engine.Group("/api")
	api.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.aggregator.Snapshot())
	})
	api.GET("/report", s.handleReport)
	api.GET("/findings", s.handleFindings)
	api.GET("/windows", s.handleWindows)

	// WebSocket.
	s.engine.GET("/ws", s.handleWebSocket)

	// pprof profiling endpoints.
	s.engine.GET("/debug/pprof/", gin.WrapF(pprof.Index))
	s.engine.GET("/debug/pprof/cmdline", gin.WrapF(pprof.Cmdline))
	s.engine.GET("/debug/pprof/profile", gin.WrapF(pprof.Profile))
	s.engine.GET("/debug/pprof/symbol", gin.WrapF(pprof.Symbol))
	s.engine.GET("/debug/pprof/trace", gin.WrapF(pprof.Trace))
	s.engine.GET("/debug/pprof/allocs", gin.WrapH(pprof.Handler("allocs")))
	s.engine.GET("/debug/pprof/heap", gin.WrapH(pprof.Handler("heap")))
	s.engine.GET("/debug/pprof/goroutine", gin.WrapH(pprof.Handler("goroutine")))
}

// latest writes a 404 and returns false when no analysis has completed yet.
func (s *Server) latest(c *gin.Context) (model.Report, bool) {
	r, ok := s.aggregator.Latest()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no report available yet"})
	}
	return r, ok
}

func (s *Server) handleReport(c *gin.Context) {
	if r, ok := s.latest(c); ok {
		c.JSON(http.StatusOK, r)
	}
}

// handleFindings serves findings, optionally filtered by ?class=jump|indeterminate|plausible.
func (s *Server) handleFindings(c *gin.Context) {
	r, ok := s.latest(c)
	if !ok {
		return
	}

	findings := r.Findings
	if raw := c.Query("class"); raw != "" {
		class, err := model.ParseClassification(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		findings = r.Filter(class)
	}
	if findings == nil {
		findings = []model.JumpFinding{}
	}

	c.JSON(http.StatusOK, gin.H{"run_id": r.RunID, "count": len(findings), "findings": findings})
}

// handleWindows serves state windows, optionally only mixed ones with ?mixed=true.
func (s *Server) handleWindows(c *gin.Context) {
	r, ok := s.latest(c)
	if !ok {
		return
	}

	windows := r.Windows
	if raw := c.Query("mixed"); raw != "" {
		want, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "mixed must be a boolean"})
			return
		}
		filtered := make([]model.StateWindow, 0, len(windows))
		for _, w := range windows {
			if w.Mixed == want {
				filtered = append(filtered, w)
			}
		}
		windows = filtered
	}

	c.JSON(http.StatusOK, gin.H{"run_id": r.RunID, "count": len(windows), "windows": windows})
}

// Start runs the server until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.port,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", srv.Addr).Info("dashboard listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

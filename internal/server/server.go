// Package server exposes the carbon engine over an HTTP JSON API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/rshade/netzero-testops/internal/carbon"
	"github.com/rshade/netzero-testops/internal/config"
	"github.com/rshade/netzero-testops/internal/history"
	"github.com/rshade/netzero-testops/internal/report"
)

// ReportStore persists generated reports.
type ReportStore interface {
	Save(ctx context.Context, r *report.Report) error
	List(ctx context.Context, limit int) ([]history.Entry, error)
	Get(ctx context.Context, reportID string) (*report.Report, error)
}

// ReportObserver receives every report the server generates.
type ReportObserver interface {
	Observe(r *report.Report)
}

// Options configures a Server.
type Options struct {
	Config config.Config

	// Store enables the report history routes when set.
	Store ReportStore

	// Observer is notified of generated reports, typically the metrics exporter.
	Observer ReportObserver

	// Gatherer backs GET /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	CORS   CORSConfig
	Logger zerolog.Logger

	// Now and NewID stamp generated reports. Defaults are time.Now and uuid.NewString.
	Now   func() time.Time
	NewID func() string
}

// Server routes API requests to the engine.
type Server struct {
	opts   Options
	router *gin.Engine
}

const maxBodyBytes = 1 << 20

// New builds the router.
func New(opts Options) *Server {
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	s := &Server{opts: opts, router: router}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	if s.opts.CORS.Enabled() {
		s.router.Use(s.opts.CORS.middleware())
	}
	s.router.Use(s.loggingMiddleware())
	s.router.Use(gin.Recovery())
}

// loggingMiddleware logs every request except health checks.
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		if path == "/healthz" {
			return
		}
		s.opts.Logger.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request handled")
	}
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		writeJSON(c, http.StatusOK, gin.H{
			"status":  "ok",
			"version": carbon.CalculatorVersion,
			"history": s.opts.Store != nil,
		})
	})
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{})))

	api := s.router.Group("/v1")
	api.POST("/estimate", s.estimate)
	api.POST("/compare", s.compare)
	api.POST("/project", s.project)
	api.POST("/reports", s.createReport)

	if s.opts.Store != nil {
		api.GET("/reports", s.listReports)
		api.GET("/reports/:id", s.getReport)
	}
}

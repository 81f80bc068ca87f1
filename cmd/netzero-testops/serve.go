package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rshade/netzero-testops/internal/exporter"
	"github.com/rshade/netzero-testops/internal/history"
	"github.com/rshade/netzero-testops/internal/server"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var (
		listenAddr  string
		historyPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the carbon engine over HTTP",
		Long: `Starts the HTTP API. Reports generated through POST /v1/reports are
exported as Prometheus gauges on /metrics and, when a history database is
configured, stored and served from GET /v1/reports.

CORS is configured with NETZERO_CORS_ALLOWED_ORIGINS,
NETZERO_CORS_ALLOW_CREDENTIALS and NETZERO_CORS_MAX_AGE.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("listen") {
				a.cfg.ListenAddr = listenAddr
			}
			if cmd.Flags().Changed("history-path") {
				a.cfg.HistoryPath = historyPath
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
		},
	}

	cmd.Flags().StringVar(&listenAddr, "listen", "", "address to listen on (default from config, :8080)")
	cmd.Flags().StringVar(&historyPath, "history-path", "", "SQLite history database; enables the report history routes")
	return cmd
}

// serve wires the API and blocks until ctx is cancelled.
func (a *app) serve(ctx context.Context, reg prometheus.Registerer, gatherer prometheus.Gatherer) error {
	corsConfig, err := server.ParseCORSConfig(a.logger)
	if err != nil {
		return err
	}

	exp, err := exporter.New(reg)
	if err != nil {
		return err
	}

	opts := server.Options{
		Config:   a.cfg,
		Observer: exp,
		Gatherer: gatherer,
		CORS:     corsConfig,
		Logger:   a.logger,
	}

	if a.cfg.HistoryPath != "" {
		store, err := history.Open(history.Config{
			Path:       a.cfg.HistoryPath,
			MaxEntries: history.DefaultConfig().MaxEntries,
			Logger:     a.logger,
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				a.logger.Error().Err(err).Msg("closing history database")
			}
		}()
		opts.Store = store
	}

	ln, err := net.Listen("tcp", a.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", a.cfg.ListenAddr, err)
	}

	srv := &http.Server{
		Handler:           server.New(opts).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	a.logger.Info().
		Str("addr", ln.Addr().String()).
		Bool("history", opts.Store != nil).
		Float64("grid_intensity", a.cfg.Coefficients.GridIntensityGPerKWh).
		Msg("Starting netzero-testops API")

	return runServer(ctx, srv, ln, a.logger)
}

// runServer serves on ln until ctx is done, then shuts down gracefully.
func runServer(ctx context.Context, srv *http.Server, ln net.Listener, logger zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logger.Info().Msg("Shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

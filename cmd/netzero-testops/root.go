package main

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rshade/netzero-testops/internal/carbon"
	"github.com/rshade/netzero-testops/internal/config"
)

// app carries state shared by all subcommands.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	region     string
	debug      bool

	logger zerolog.Logger
	cfg    config.Config
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "netzero-testops",
		Short: "Estimate and project the carbon impact of test executions",
		Long: `netzero-testops estimates the energy and carbon footprint of test executions
from their resource utilization, compares baseline and optimized runs, and
projects the savings over a year of test volume.

Configuration is read from an optional YAML file (--config) and NETZERO_*
environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a YAML configuration file")
	root.PersistentFlags().StringVar(&a.region, "region", "", "cloud region whose grid intensity to use (overrides config)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newReportCmd(a),
		newCompareCmd(a),
		newSummarizeCmd(a),
		newServeCmd(a),
		newVersionCmd(a),
	)
	return root
}

// init builds the logger and resolves configuration.
func (a *app) init() error {
	level := zerolog.InfoLevel
	if a.debug {
		level = zerolog.DebugLevel
	}
	a.logger = zerolog.New(zerolog.ConsoleWriter{Out: a.stderr}).
		Level(level).
		With().
		Timestamp().
		Logger()
	carbon.SetLogger(a.logger)

	cfg, err := config.Load(a.configPath, a.logger)
	if err != nil {
		return err
	}
	if a.region != "" {
		if cfg, err = cfg.WithRegion(a.region); err != nil {
			return err
		}
	}
	a.cfg = cfg
	return nil
}

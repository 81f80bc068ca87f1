package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rshade/netzero-testops/internal/history"
	"github.com/rshade/netzero-testops/internal/render"
	"github.com/rshade/netzero-testops/internal/report"
	"github.com/rshade/netzero-testops/internal/results"
	"github.com/rshade/netzero-testops/internal/scenario"
)

type reportFlags struct {
	scenariosPath string
	outputPath    string
	resultsOut    string
	dailyTests    int
	horizonDays   int
	save          bool
	quiet         bool
}

func newReportCmd(a *app) *cobra.Command {
	var f reportFlags

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate a carbon impact report for baseline/optimized scenarios",
		Long: `Compares every scenario in the scenarios file (or the built-in e-commerce
demo when none is given), aggregates the reductions and projects the annual
savings. The JSON report goes to --output or stdout; a console summary goes
to stderr unless --quiet is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runReport(cmd.Context(), cmd, f)
		},
	}

	cmd.Flags().StringVarP(&f.scenariosPath, "scenarios", "s", "", "YAML or JSON scenarios file (default: built-in demo)")
	cmd.Flags().StringVarP(&f.outputPath, "output", "o", "", "write the JSON report to this file instead of stdout")
	cmd.Flags().StringVar(&f.resultsOut, "results-out", "", "also write one test result file per scenario profile to this directory")
	cmd.Flags().IntVar(&f.dailyTests, "daily-tests", 0, "daily test volume for the projection (default from config)")
	cmd.Flags().IntVar(&f.horizonDays, "horizon-days", 0, "projection horizon in days (default from config)")
	cmd.Flags().BoolVar(&f.save, "save", false, "save the report to the history database")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "do not print the console summary")
	return cmd
}

func (a *app) runReport(ctx context.Context, cmd *cobra.Command, f reportFlags) error {
	scenarios := scenario.Demo()
	if f.scenariosPath != "" {
		var err error
		if scenarios, err = scenario.Load(f.scenariosPath); err != nil {
			return err
		}
	}

	opts := report.Options{
		Coefficients: a.cfg.Coefficients,
		DailyTests:   a.cfg.DailyTests,
		HorizonDays:  a.cfg.HorizonDays,
		GeneratedAt:  time.Now().UTC(),
		ReportID:     uuid.NewString(),
	}
	if cmd.Flags().Changed("daily-tests") {
		opts.DailyTests = f.dailyTests
	}
	if cmd.Flags().Changed("horizon-days") {
		opts.HorizonDays = f.horizonDays
	}

	r, err := report.Build(scenarios, opts)
	if err != nil {
		return err
	}
	a.logger.Info().
		Str("report_id", r.Metadata.ReportID).
		Int("scenarios", r.Metadata.ScenariosAnalyzed).
		Int("undefined", r.Summary.ScenariosUndefined).
		Msg("report generated")

	if err := writeReport(r, f.outputPath, a.stdout); err != nil {
		return err
	}

	if f.resultsOut != "" {
		if err := writeScenarioResults(r, f.resultsOut); err != nil {
			return err
		}
	}

	if f.save {
		if err := a.saveReport(ctx, r); err != nil {
			return err
		}
	}

	if !f.quiet {
		fmt.Fprint(a.stderr, render.Report(r))
	}
	return nil
}

func writeReport(r *report.Report, path string, stdout io.Writer) error {
	if path == "" || path == "-" {
		return r.WriteJSON(stdout)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	if err := r.WriteJSON(file); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func (a *app) saveReport(ctx context.Context, r *report.Report) error {
	cfg := history.DefaultConfig()
	if a.cfg.HistoryPath != "" {
		cfg.Path = a.cfg.HistoryPath
	}
	cfg.Logger = a.logger

	store, err := history.Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			a.logger.Error().Err(err).Msg("closing history database")
		}
	}()

	if err := store.Save(ctx, r); err != nil {
		return err
	}
	a.logger.Info().Str("db_path", cfg.Path).Msg("report saved to history")
	return nil
}

// writeScenarioResults writes each included scenario's two profiles as test
// result files, so they can be fed back through summarize.
func writeScenarioResults(r *report.Report, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating results directory: %w", err)
	}
	for _, sc := range r.Scenarios {
		if sc.ComparisonResult == nil {
			continue
		}
		profiles := []struct {
			suite string
			rec   results.TestResult
		}{
			{"sustainable", results.FromAssessment(sc.ScenarioName, "sustainable", sc.Optimized)},
			{"wasteful", results.FromAssessment(sc.ScenarioName, "wasteful", sc.Baseline)},
		}
		for _, p := range profiles {
			data, err := json.MarshalIndent(p.rec, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding result: %w", err)
			}
			name := fmt.Sprintf("%s_%s.json", slug(sc.ScenarioName), p.suite)
			if err := os.WriteFile(filepath.Join(dir, name), append(data, '\n'), 0o644); err != nil {
				return fmt.Errorf("writing result: %w", err)
			}
		}
	}
	return nil
}

func slug(name string) string {
	return strings.Trim(strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return '_'
	}, name), "_")
}

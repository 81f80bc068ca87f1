package main

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/rshade/netzero-testops/internal/render"
	"github.com/rshade/netzero-testops/internal/results"
)

func newSummarizeCmd(a *app) *cobra.Command {
	var (
		format  string
		csvPath string
	)

	cmd := &cobra.Command{
		Use:   "summarize <results-dir>",
		Short: "Summarize the energy and carbon metrics of recorded test results",
		Long: `Reads every *.json test result in the directory and prints aggregate
green metrics. Result files using the older energy/co2/memory/cpu keys are
accepted. Unreadable files are skipped with a warning.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "json" {
				return fmt.Errorf("--format must be text or json, got %q", format)
			}

			rs, err := results.LoadDir(args[0], a.logger)
			if err != nil {
				return err
			}
			summary, err := results.Summarize(rs)
			if err != nil {
				return err
			}

			if csvPath != "" {
				if err := writeResultsCSV(csvPath, rs); err != nil {
					return err
				}
				a.logger.Info().Str("path", csvPath).Int("results", len(rs)).Msg("results exported")
			}

			if format == "text" {
				_, err = fmt.Fprint(a.stdout, render.Results(summary))
				return err
			}
			data, err := json.MarshalIndent(summary, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding summary: %w", err)
			}
			_, err = fmt.Fprintln(a.stdout, string(data))
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text or json")
	cmd.Flags().StringVar(&csvPath, "csv", "", "also export the results as CSV to this file")
	return cmd
}

func writeResultsCSV(path string, rs []results.TestResult) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating csv file: %w", err)
	}
	if err := results.WriteCSV(file, rs); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

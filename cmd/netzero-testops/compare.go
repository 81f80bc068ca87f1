package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/rshade/netzero-testops/internal/carbon"
)

func newCompareCmd(a *app) *cobra.Command {
	var baseline, optimized string

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare a baseline and an optimized test execution",
		Long: `Compares two utilization samples and prints the comparison as JSON.

Samples are comma-separated key=value pairs:

  duration=6.8,cpu=75%,memory=3.2,storage=0.5,network=8.1

duration is in seconds, cpu is a fraction or percentage, memory and storage
are in GB and network is in MB. Omitted quantities are zero.`,
		Example: `  netzero-testops compare \
    --baseline duration=6.8,cpu=75%,memory=3.2,storage=0.5,network=8.1 \
    --optimized duration=2.1,cpu=20%,memory=0.8,storage=0.1,network=2.5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := parseSample(baseline)
			if err != nil {
				return fmt.Errorf("--baseline: %w", err)
			}
			o, err := parseSample(optimized)
			if err != nil {
				return fmt.Errorf("--optimized: %w", err)
			}

			result, err := carbon.Compare(b, o, a.cfg.Coefficients)
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding comparison: %w", err)
			}
			_, err = fmt.Fprintln(a.stdout, string(data))
			return err
		},
	}

	cmd.Flags().StringVar(&baseline, "baseline", "", "baseline sample (required)")
	cmd.Flags().StringVar(&optimized, "optimized", "", "optimized sample (required)")
	_ = cmd.MarkFlagRequired("baseline")
	_ = cmd.MarkFlagRequired("optimized")
	return cmd
}

// parseSample parses a comma-separated key=value sample.
func parseSample(input string) (carbon.UtilizationSample, error) {
	var s carbon.UtilizationSample
	seen := make(map[string]bool)

	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return carbon.UtilizationSample{}, fmt.Errorf("%w: %q is not key=value", carbon.ErrInvalidInput, part)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if seen[key] {
			return carbon.UtilizationSample{}, fmt.Errorf("%w: %s given twice", carbon.ErrInvalidInput, key)
		}
		seen[key] = true

		if key == "cpu" {
			v, err := carbon.ParseUtilization(value)
			if err != nil {
				return carbon.UtilizationSample{}, err
			}
			s.CPUUtilization = v
			continue
		}

		var dst *float64
		switch key {
		case "duration":
			dst = &s.DurationSeconds
		case "memory":
			dst = &s.MemoryGB
		case "storage":
			dst = &s.StorageGB
		case "network":
			dst = &s.NetworkMB
		default:
			return carbon.UtilizationSample{}, fmt.Errorf("%w: unknown key %q", carbon.ErrInvalidInput, key)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return carbon.UtilizationSample{}, fmt.Errorf("%w: %s: %v", carbon.ErrInvalidInput, key, err)
		}
		*dst = v
	}

	if !seen["duration"] {
		return carbon.UtilizationSample{}, fmt.Errorf("%w: duration is required", carbon.ErrInvalidInput)
	}
	return s, s.Validate()
}

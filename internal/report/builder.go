package report

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/stat"

	"github.com/rshade/netzero-testops/internal/carbon"
)

// Build compares every scenario and assembles the report.
//
// Scenarios are evaluated concurrently; output order follows input order.
// A scenario whose comparison fails with carbon.ErrDivisionByZero is kept with
// StatusUndefined and excluded from the aggregates. Any other scenario error
// aborts the report. The projection uses the mean per-scenario saving, not
// the sum.
//
// Returns carbon.ErrEmptyInput when scenarios is empty and
// carbon.ErrInvalidInput for invalid options or duplicate scenario names.
func Build(scenarios []Scenario, opts Options) (*Report, error) {
	if len(scenarios) == 0 {
		return nil, fmt.Errorf("%w: no scenarios to report", carbon.ErrEmptyInput)
	}
	if err := opts.Coefficients.Validate(); err != nil {
		return nil, err
	}
	if opts.DailyTests < 0 {
		return nil, fmt.Errorf("%w: daily_tests must be >= 0, got %d", carbon.ErrInvalidInput, opts.DailyTests)
	}
	if opts.HorizonDays <= 0 {
		return nil, fmt.Errorf("%w: horizon_days must be > 0, got %d", carbon.ErrInvalidInput, opts.HorizonDays)
	}
	seen := make(map[string]bool, len(scenarios))
	for _, sc := range scenarios {
		if seen[sc.Name] {
			return nil, fmt.Errorf("%w: duplicate scenario name %q", carbon.ErrInvalidInput, sc.Name)
		}
		seen[sc.Name] = true
	}

	results := make([]ScenarioResult, len(scenarios))
	errs := make([]error, len(scenarios))

	var wg sync.WaitGroup
	for i, sc := range scenarios {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = compareScenario(sc, opts.Coefficients)
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", scenarios[i].Name, err)
		}
	}

	summary, mean := summarize(results)

	var projection *carbon.ProjectionResult
	if summary.ScenariosIncluded > 0 {
		p, err := carbon.ProjectSavings(mean, opts.DailyTests, opts.HorizonDays, opts.Coefficients.Economics)
		if err != nil {
			return nil, fmt.Errorf("projecting savings: %w", err)
		}
		projection = &p
	}

	c := opts.Coefficients
	return &Report{
		Metadata: Metadata{
			ReportID:           opts.ReportID,
			GeneratedTimestamp: opts.GeneratedAt,
			ScenariosAnalyzed:  len(scenarios),
			CalculatorVersion:  carbon.CalculatorVersion,
		},
		Summary:     summary,
		Scenarios:   results,
		Projections: projection,
		Methodology: Methodology{
			GridIntensity:           c.GridIntensityGPerKWh,
			CPUBaseWatts:            c.CPUBaseWatts,
			MemoryWattsPerGB:        c.MemoryWattsPerGB,
			StorageWattsPerGB:       c.StorageWattsPerGB,
			NetworkWattsPerMB:       c.NetworkWattsPerMB,
			CloudPUEFactor:          c.OverheadFactor,
			EnergyCostPerKWh:        c.Economics.EnergyCostPerKWh,
			CarbonCreditCostPerTon:  c.Economics.CarbonCreditCostPerTon,
			StandardsCompliance:     append([]string(nil), StandardsCompliance...),
			UndefinedScenarioPolicy: UndefinedScenarioPolicy,
		},
	}, nil
}

// compareScenario runs one comparison, converting a zero denominator into an
// undefined result.
func compareScenario(sc Scenario, c carbon.Coefficients) (ScenarioResult, error) {
	cmp, err := carbon.Compare(sc.Baseline, sc.Optimized, c)
	switch {
	case errors.Is(err, carbon.ErrDivisionByZero):
		return ScenarioResult{
			ScenarioName: sc.Name,
			Status:       StatusUndefined,
			Error:        err.Error(),
		}, nil
	case err != nil:
		return ScenarioResult{}, err
	}
	return ScenarioResult{
		ComparisonResult: &cmp,
		ScenarioName:     sc.Name,
		Status:           StatusOK,
	}, nil
}

// summarize aggregates the included scenarios and returns the mean per-test savings.
func summarize(results []ScenarioResult) (ExecutiveSummary, carbon.Savings) {
	var (
		summary    ExecutiveSummary
		carbonPcts []float64
		energyPcts []float64
	)

	for _, r := range results {
		if r.Status != StatusOK {
			summary.ScenariosUndefined++
			continue
		}
		summary.ScenariosIncluded++
		carbonPcts = append(carbonPcts, r.Summary.CarbonReductionPct)
		energyPcts = append(energyPcts, r.Summary.EnergyReductionPct)
		summary.TotalEnergySavedJoules += r.Summary.EnergySavedJoules
		summary.TotalCarbonSavedG += r.Summary.CarbonSavedG
	}

	if summary.ScenariosIncluded == 0 {
		return summary, carbon.Savings{}
	}

	avgCarbon := stat.Mean(carbonPcts, nil)
	avgEnergy := stat.Mean(energyPcts, nil)
	summary.AverageCarbonReductionPct = &avgCarbon
	summary.AverageEnergyReductionPct = &avgEnergy

	n := float64(summary.ScenariosIncluded)
	return summary, carbon.Savings{
		EnergySavedJoules: summary.TotalEnergySavedJoules / n,
		CarbonSavedG:      summary.TotalCarbonSavedG / n,
	}
}

// MarshalIndent encodes the report as indented JSON.
func (r *Report) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// WriteJSON writes the indented JSON report followed by a newline.
func (r *Report) WriteJSON(w io.Writer) error {
	data, err := r.MarshalIndent()
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

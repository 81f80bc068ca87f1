package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/netzero-testops/internal/carbon"
)

const relTolerance = 1e-9

func demoScenarios() []Scenario {
	return []Scenario{
		{
			Name:      "E-commerce Login Test",
			Optimized: carbon.UtilizationSample{DurationSeconds: 2.1, CPUUtilization: 0.20, MemoryGB: 0.8, StorageGB: 0.1, NetworkMB: 2.5},
			Baseline:  carbon.UtilizationSample{DurationSeconds: 6.8, CPUUtilization: 0.75, MemoryGB: 3.2, StorageGB: 0.5, NetworkMB: 8.1},
		},
		{
			Name:      "Product Search Test",
			Optimized: carbon.UtilizationSample{DurationSeconds: 1.8, CPUUtilization: 0.18, MemoryGB: 0.9, StorageGB: 0.2, NetworkMB: 3.1},
			Baseline:  carbon.UtilizationSample{DurationSeconds: 5.9, CPUUtilization: 0.68, MemoryGB: 2.8, StorageGB: 0.7, NetworkMB: 9.4},
		},
		{
			Name:      "Checkout Process Test",
			Optimized: carbon.UtilizationSample{DurationSeconds: 3.2, CPUUtilization: 0.25, MemoryGB: 1.1, StorageGB: 0.3, NetworkMB: 4.2},
			Baseline:  carbon.UtilizationSample{DurationSeconds: 8.7, CPUUtilization: 0.82, MemoryGB: 3.8, StorageGB: 0.9, NetworkMB: 12.6},
		},
	}
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.GeneratedAt = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	opts.ReportID = "report-1"
	return opts
}

func TestBuild_DemoScenarios(t *testing.T) {
	r, err := Build(demoScenarios(), testOptions())
	require.NoError(t, err)

	assert.Equal(t, "report-1", r.Metadata.ReportID)
	assert.Equal(t, 3, r.Metadata.ScenariosAnalyzed)
	assert.Equal(t, carbon.CalculatorVersion, r.Metadata.CalculatorVersion)

	require.Len(t, r.Scenarios, 3)
	for i, sc := range demoScenarios() {
		assert.Equal(t, sc.Name, r.Scenarios[i].ScenarioName, "input order must be preserved")
		assert.Equal(t, StatusOK, r.Scenarios[i].Status)
		require.NotNil(t, r.Scenarios[i].ComparisonResult)
	}

	s := r.Summary
	assert.Equal(t, 3, s.ScenariosIncluded)
	assert.Equal(t, 0, s.ScenariosUndefined)
	require.NotNil(t, s.AverageCarbonReductionPct)
	require.NotNil(t, s.AverageEnergyReductionPct)
	assert.InEpsilon(t, 90.81117048819277, *s.AverageCarbonReductionPct, relTolerance)
	assert.InEpsilon(t, 90.81117048819277, *s.AverageEnergyReductionPct, relTolerance)
	assert.InEpsilon(t, 531.72688128, s.TotalEnergySavedJoules, relTolerance)
	assert.InEpsilon(t, 0.05908076458666667, s.TotalCarbonSavedG, relTolerance)

	require.NotNil(t, r.Projections)
	assert.Equal(t, 100, r.Projections.Parameters.DailyTests)
	assert.Equal(t, 365, r.Projections.Parameters.ProjectionDays)
	assert.InEpsilon(t, 1.7970399228444447, r.Projections.Environmental.EnergySavedKWh, relTolerance)
	assert.InEpsilon(t, 0.7188159691377777, r.Projections.Environmental.CarbonSavedKg, relTolerance)
}

func TestBuild_ProjectionUsesMeanNotSum(t *testing.T) {
	scenarios := demoScenarios()
	r, err := Build(scenarios, testOptions())
	require.NoError(t, err)

	mean := carbon.Savings{
		EnergySavedJoules: r.Summary.TotalEnergySavedJoules / 3,
		CarbonSavedG:      r.Summary.TotalCarbonSavedG / 3,
	}
	want, err := carbon.ProjectSavings(mean, 100, 365, carbon.DefaultCoefficients().Economics)
	require.NoError(t, err)

	assert.InEpsilon(t, want.Environmental.EnergySavedKWh, r.Projections.Environmental.EnergySavedKWh, relTolerance)
	assert.InEpsilon(t, want.Cost.TotalSavings, r.Projections.Cost.TotalSavings, relTolerance)
}

func TestBuild_EmptyInput(t *testing.T) {
	_, err := Build(nil, testOptions())
	assert.ErrorIs(t, err, carbon.ErrEmptyInput)

	_, err = Build([]Scenario{}, testOptions())
	assert.ErrorIs(t, err, carbon.ErrEmptyInput)
}

func TestBuild_UndefinedScenarioExcluded(t *testing.T) {
	scenarios := append(demoScenarios()[:1], Scenario{
		Name:      "Idle Baseline",
		Baseline:  carbon.UtilizationSample{DurationSeconds: 0, CPUUtilization: 0.5, MemoryGB: 1},
		Optimized: carbon.UtilizationSample{DurationSeconds: 1, CPUUtilization: 0.1, MemoryGB: 1},
	})

	r, err := Build(scenarios, testOptions())
	require.NoError(t, err)

	require.Len(t, r.Scenarios, 2)
	undefined := r.Scenarios[1]
	assert.Equal(t, "Idle Baseline", undefined.ScenarioName)
	assert.Equal(t, StatusUndefined, undefined.Status)
	assert.Nil(t, undefined.ComparisonResult)
	assert.Contains(t, undefined.Error, "division by zero")

	assert.Equal(t, 1, r.Summary.ScenariosIncluded)
	assert.Equal(t, 1, r.Summary.ScenariosUndefined)
	assert.InEpsilon(t, 91.81644413538862, *r.Summary.AverageCarbonReductionPct, relTolerance)
	assert.InEpsilon(t, 168.13736576, r.Summary.TotalEnergySavedJoules, relTolerance)
	assert.Equal(t, 2, r.Metadata.ScenariosAnalyzed)
}

func TestBuild_AllUndefined(t *testing.T) {
	scenarios := []Scenario{{
		Name:      "Idle",
		Baseline:  carbon.UtilizationSample{DurationSeconds: 3},
		Optimized: carbon.UtilizationSample{DurationSeconds: 1},
	}}

	r, err := Build(scenarios, testOptions())
	require.NoError(t, err)

	assert.Nil(t, r.Summary.AverageCarbonReductionPct)
	assert.Nil(t, r.Summary.AverageEnergyReductionPct)
	assert.Nil(t, r.Projections)
	assert.Equal(t, 1, r.Summary.ScenariosUndefined)
}

func TestBuild_InvalidScenarioAborts(t *testing.T) {
	scenarios := append(demoScenarios(), Scenario{
		Name:      "Broken",
		Baseline:  carbon.UtilizationSample{DurationSeconds: 5, CPUUtilization: 1.5},
		Optimized: carbon.UtilizationSample{DurationSeconds: 1, CPUUtilization: 0.1},
	})

	_, err := Build(scenarios, testOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, carbon.ErrInvalidInput)
	assert.Contains(t, err.Error(), `"Broken"`)
}

func TestBuild_InvalidOptions(t *testing.T) {
	allUndefined := []Scenario{{
		Name:      "Idle",
		Baseline:  carbon.UtilizationSample{DurationSeconds: 3},
		Optimized: carbon.UtilizationSample{DurationSeconds: 1},
	}}

	tests := []struct {
		name      string
		scenarios []Scenario
		mutate    func(*Options)
	}{
		{"negative daily tests", demoScenarios(), func(o *Options) { o.DailyTests = -5 }},
		{"zero horizon", demoScenarios(), func(o *Options) { o.HorizonDays = 0 }},
		{"overhead below one", demoScenarios(), func(o *Options) { o.Coefficients.OverheadFactor = 0.5 }},
		// No projection is computed here, so the options must be checked up front.
		{"negative daily tests without projection", allUndefined, func(o *Options) { o.DailyTests = -5 }},
		{"negative horizon without projection", allUndefined, func(o *Options) { o.HorizonDays = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions()
			tt.mutate(&opts)
			r, err := Build(tt.scenarios, opts)
			assert.ErrorIs(t, err, carbon.ErrInvalidInput)
			assert.Nil(t, r)
		})
	}
}

func TestBuild_DuplicateScenarioNames(t *testing.T) {
	scenarios := demoScenarios()
	scenarios[2].Name = scenarios[0].Name

	_, err := Build(scenarios, testOptions())
	require.ErrorIs(t, err, carbon.ErrInvalidInput)
	assert.Contains(t, err.Error(), `"E-commerce Login Test"`)
}

func TestBuild_OverflowingScenarioAborts(t *testing.T) {
	scenarios := append(demoScenarios(), Scenario{
		Name:      "Huge",
		Baseline:  carbon.UtilizationSample{DurationSeconds: 3600, CPUUtilization: 1, MemoryGB: 1e308},
		Optimized: carbon.UtilizationSample{DurationSeconds: 2.1, CPUUtilization: 0.2, MemoryGB: 0.8},
	})

	_, err := Build(scenarios, testOptions())
	require.ErrorIs(t, err, carbon.ErrInvalidInput)
	assert.Contains(t, err.Error(), `"Huge"`)
	assert.Contains(t, err.Error(), "total_joules")
}

func TestBuild_Deterministic(t *testing.T) {
	first, err := Build(demoScenarios(), testOptions())
	require.NoError(t, err)
	firstJSON, err := first.MarshalIndent()
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		again, err := Build(demoScenarios(), testOptions())
		require.NoError(t, err)
		againJSON, err := again.MarshalIndent()
		require.NoError(t, err)
		assert.Equal(t, string(firstJSON), string(againJSON))
	}
}

func TestBuild_MethodologyRecordsCoefficients(t *testing.T) {
	opts := testOptions()
	opts.Coefficients = opts.Coefficients.WithGridIntensity(8.8)

	r, err := Build(demoScenarios(), opts)
	require.NoError(t, err)

	m := r.Methodology
	assert.Equal(t, 8.8, m.GridIntensity)
	assert.Equal(t, carbon.DefaultCPUBaseWatts, m.CPUBaseWatts)
	assert.Equal(t, carbon.DefaultMemoryWattsPerGB, m.MemoryWattsPerGB)
	assert.Equal(t, carbon.DefaultOverheadFactor, m.CloudPUEFactor)
	assert.Equal(t, StandardsCompliance, m.StandardsCompliance)
	assert.Equal(t, UndefinedScenarioPolicy, m.UndefinedScenarioPolicy)
}

func TestReport_JSONShape(t *testing.T) {
	scenarios := append(demoScenarios()[:1], Scenario{
		Name:     "Idle",
		Baseline: carbon.UtilizationSample{DurationSeconds: 0},
	})
	r, err := Build(scenarios, testOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.WriteJSON(&buf))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	for _, key := range []string{"report_metadata", "executive_summary", "detailed_scenarios", "annual_projections", "methodology"} {
		assert.Contains(t, doc, key)
	}

	meta := doc["report_metadata"].(map[string]any)
	assert.Equal(t, "2026-10-19T12:00:00Z", meta["generated_timestamp"])
	assert.Equal(t, "1.0.0", meta["calculator_version"])

	detailed := doc["detailed_scenarios"].([]any)
	require.Len(t, detailed, 2)

	ok := detailed[0].(map[string]any)
	assert.Equal(t, "E-commerce Login Test", ok["scenario_name"])
	assert.Equal(t, "ok", ok["status"])
	for _, key := range []string{"comparison_summary", "sustainable_framework", "wasteful_framework", "efficiency_analysis"} {
		assert.Contains(t, ok, key)
	}
	summary := ok["comparison_summary"].(map[string]any)
	for _, key := range []string{"energy_reduction_percent", "carbon_reduction_percent", "performance_improvement_percent", "energy_saved_joules", "carbon_saved_g_co2e"} {
		assert.Contains(t, summary, key)
	}
	energy := ok["wasteful_framework"].(map[string]any)["energy"].(map[string]any)
	assert.Contains(t, energy["breakdown"], "pue_overhead_wh")

	undefined := detailed[1].(map[string]any)
	assert.Equal(t, "undefined", undefined["status"])
	assert.NotContains(t, undefined, "comparison_summary")

	annual := doc["annual_projections"].(map[string]any)
	for _, key := range []string{"projection_parameters", "annual_environmental_impact", "annual_cost_savings", "daily_impact"} {
		assert.Contains(t, annual, key)
	}
	impact := annual["annual_environmental_impact"].(map[string]any)
	assert.Contains(t, impact, "equivalent_cars_removed")
	assert.Contains(t, impact, "equivalent_trees_planted")
}

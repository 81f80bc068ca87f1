// Package report aggregates scenario comparisons into a single carbon impact
// report with summary statistics, annual projections, and methodology metadata.
package report

import (
	"time"

	"github.com/rshade/netzero-testops/internal/carbon"
)

// Status marks whether a scenario's comparison is defined.
type Status string

const (
	// StatusOK means the scenario contributed to averages and totals.
	StatusOK Status = "ok"

	// StatusUndefined means a reduction denominator was zero; the scenario is
	// listed but excluded from averages, totals, and projections.
	StatusUndefined Status = "undefined"
)

// UndefinedScenarioPolicy documents how zero-baseline scenarios are treated.
const UndefinedScenarioPolicy = "scenarios with a zero baseline energy, carbon, or duration are reported as undefined and excluded from averages, totals, and projections"

// StandardsCompliance lists the methodologies the estimator follows.
var StandardsCompliance = []string{
	"Software Carbon Intensity (SCI) Specification",
	"GHG Protocol Scope 2 Guidance",
	"Green Software Foundation Standards",
}

// Scenario is one named baseline/optimized pair.
type Scenario struct {
	Name      string
	Baseline  carbon.UtilizationSample
	Optimized carbon.UtilizationSample
}

// Options controls report assembly. Start from DefaultOptions.
type Options struct {
	// Coefficients are applied to every scenario.
	Coefficients carbon.Coefficients

	// DailyTests scales the mean per-test saving in the projection.
	DailyTests int

	// HorizonDays is the projection horizon.
	HorizonDays int

	// GeneratedAt is stamped into the metadata. Build never reads the clock.
	GeneratedAt time.Time

	// ReportID is an optional caller-assigned identifier.
	ReportID string
}

// DefaultOptions returns default coefficients, 100 daily tests, and a one-year horizon.
func DefaultOptions() Options {
	return Options{
		Coefficients: carbon.DefaultCoefficients(),
		DailyTests:   carbon.DefaultDailyTests,
		HorizonDays:  carbon.DefaultHorizonDays,
	}
}

// Metadata identifies a report.
type Metadata struct {
	ReportID           string    `json:"report_id,omitempty"`
	GeneratedTimestamp time.Time `json:"generated_timestamp"`
	ScenariosAnalyzed  int       `json:"scenarios_analyzed"`
	CalculatorVersion  string    `json:"calculator_version"`
}

// ExecutiveSummary aggregates the included scenarios. Averages are nil when no
// scenario is included.
type ExecutiveSummary struct {
	AverageCarbonReductionPct *float64 `json:"average_carbon_reduction_percent"`
	AverageEnergyReductionPct *float64 `json:"average_energy_reduction_percent"`
	TotalEnergySavedJoules    float64  `json:"total_energy_saved_joules"`
	TotalCarbonSavedG         float64  `json:"total_carbon_saved_g_co2e"`
	ScenariosIncluded         int      `json:"scenarios_included"`
	ScenariosUndefined        int      `json:"scenarios_undefined"`
}

// ScenarioResult is one scenario's comparison. The comparison fields are
// inlined in JSON and absent when Status is StatusUndefined.
type ScenarioResult struct {
	*carbon.ComparisonResult
	ScenarioName string `json:"scenario_name"`
	Status       Status `json:"status"`
	Error        string `json:"error,omitempty"`
}

// Methodology records the coefficients behind the numbers.
type Methodology struct {
	GridIntensity           float64  `json:"grid_intensity_g_co2_kwh"`
	CPUBaseWatts            float64  `json:"cpu_base_watts"`
	MemoryWattsPerGB        float64  `json:"memory_watts_per_gb"`
	StorageWattsPerGB       float64  `json:"storage_watts_per_gb"`
	NetworkWattsPerMB       float64  `json:"network_watts_per_mb"`
	CloudPUEFactor          float64  `json:"cloud_pue_factor"`
	EnergyCostPerKWh        float64  `json:"energy_cost_per_kwh"`
	CarbonCreditCostPerTon  float64  `json:"carbon_credit_cost_per_ton"`
	StandardsCompliance     []string `json:"standards_compliance"`
	UndefinedScenarioPolicy string   `json:"undefined_scenario_policy"`
}

// Report is the assembled result of one invocation. It is not modified after
// Build returns.
type Report struct {
	Metadata    Metadata                 `json:"report_metadata"`
	Summary     ExecutiveSummary         `json:"executive_summary"`
	Scenarios   []ScenarioResult         `json:"detailed_scenarios"`
	Projections *carbon.ProjectionResult `json:"annual_projections"`
	Methodology Methodology              `json:"methodology"`
}

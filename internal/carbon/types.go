package carbon

import (
	"fmt"
	"math"
)

// Economics holds the prices used to monetize projected savings.
type Economics struct {
	// EnergyCostPerKWh is the electricity price in USD per kWh.
	EnergyCostPerKWh float64 `json:"energy_cost_per_kwh" yaml:"energy_cost_per_kwh"`

	// CarbonCreditCostPerTon is the carbon credit price in USD per metric ton CO2e.
	CarbonCreditCostPerTon float64 `json:"carbon_credit_cost_per_ton" yaml:"carbon_credit_cost_per_ton"`
}

// Coefficients is the immutable set of physical and economic factors threaded
// through every estimation stage.
type Coefficients struct {
	// GridIntensityGPerKWh is the grid carbon intensity in gCO2e/kWh.
	GridIntensityGPerKWh float64 `json:"grid_intensity_g_co2_kwh" yaml:"grid_intensity_g_co2_kwh"`

	// CPUBaseWatts is the CPU draw at full utilization in watts.
	CPUBaseWatts float64 `json:"cpu_base_watts" yaml:"cpu_base_watts"`

	// MemoryWattsPerGB is the memory draw in watts per GB.
	MemoryWattsPerGB float64 `json:"memory_watts_per_gb" yaml:"memory_watts_per_gb"`

	// StorageWattsPerGB is the storage draw in watts per GB accessed.
	StorageWattsPerGB float64 `json:"storage_watts_per_gb" yaml:"storage_watts_per_gb"`

	// NetworkWattsPerMB is the network draw in watts per MB transferred.
	NetworkWattsPerMB float64 `json:"network_watts_per_mb" yaml:"network_watts_per_mb"`

	// OverheadFactor is the datacenter PUE multiplier (>= 1).
	OverheadFactor float64 `json:"cloud_pue_factor" yaml:"cloud_pue_factor"`

	// Economics prices the projected savings.
	Economics Economics `json:"economics" yaml:"economics"`
}

// DefaultCoefficients returns the documented default coefficient set.
func DefaultCoefficients() Coefficients {
	return Coefficients{
		GridIntensityGPerKWh: DefaultGridIntensity,
		CPUBaseWatts:         DefaultCPUBaseWatts,
		MemoryWattsPerGB:     DefaultMemoryWattsPerGB,
		StorageWattsPerGB:    DefaultStorageWattsPerGB,
		NetworkWattsPerMB:    DefaultNetworkWattsPerMB,
		OverheadFactor:       DefaultOverheadFactor,
		Economics: Economics{
			EnergyCostPerKWh:       DefaultEnergyCostPerKWh,
			CarbonCreditCostPerTon: DefaultCarbonCreditCostPerTon,
		},
	}
}

// WithGridIntensity returns a copy of c using the given grid intensity.
func (c Coefficients) WithGridIntensity(gPerKWh float64) Coefficients {
	c.GridIntensityGPerKWh = gPerKWh
	return c
}

// Validate checks that every coefficient is finite and non-negative and that
// the overhead factor is at least 1.
func (c Coefficients) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"grid_intensity_g_co2_kwh", c.GridIntensityGPerKWh},
		{"cpu_base_watts", c.CPUBaseWatts},
		{"memory_watts_per_gb", c.MemoryWattsPerGB},
		{"storage_watts_per_gb", c.StorageWattsPerGB},
		{"network_watts_per_mb", c.NetworkWattsPerMB},
		{"cloud_pue_factor", c.OverheadFactor},
	}
	for _, f := range fields {
		if err := nonNegative(f.name, f.value); err != nil {
			return err
		}
	}
	if c.OverheadFactor < 1 {
		return fmt.Errorf("%w: cloud_pue_factor must be >= 1, got %g", ErrInvalidInput, c.OverheadFactor)
	}
	return c.Economics.Validate()
}

// Validate checks that both prices are finite and non-negative.
func (e Economics) Validate() error {
	if err := nonNegative("energy_cost_per_kwh", e.EnergyCostPerKWh); err != nil {
		return err
	}
	return nonNegative("carbon_credit_cost_per_ton", e.CarbonCreditCostPerTon)
}

// UtilizationSample is the resource consumption of a single test execution.
// Field names and units are part of the external interface.
type UtilizationSample struct {
	// DurationSeconds is the wall-clock duration of the execution.
	DurationSeconds float64 `json:"duration_seconds" yaml:"duration_seconds"`

	// CPUUtilization is the CPU utilization as a fraction (0.0 to 1.0).
	CPUUtilization float64 `json:"cpu_utilization" yaml:"cpu_utilization"`

	// MemoryGB is the resident memory in gigabytes.
	MemoryGB float64 `json:"memory_gb" yaml:"memory_gb"`

	// StorageGB is the storage accessed in gigabytes (optional).
	StorageGB float64 `json:"storage_gb" yaml:"storage_gb"`

	// NetworkMB is the network traffic in megabytes (optional).
	NetworkMB float64 `json:"network_mb" yaml:"network_mb"`
}

// Validate rejects negative quantities, non-finite values, and a CPU
// utilization outside [0, 1].
func (s UtilizationSample) Validate() error {
	if err := nonNegative("duration_seconds", s.DurationSeconds); err != nil {
		return err
	}
	if err := nonNegative("cpu_utilization", s.CPUUtilization); err != nil {
		return err
	}
	if s.CPUUtilization > 1 {
		return fmt.Errorf("%w: cpu_utilization must be within [0, 1], got %g", ErrInvalidInput, s.CPUUtilization)
	}
	if err := nonNegative("memory_gb", s.MemoryGB); err != nil {
		return err
	}
	if err := nonNegative("storage_gb", s.StorageGB); err != nil {
		return err
	}
	return nonNegative("network_mb", s.NetworkMB)
}

// ComponentEnergy is the per-component energy of one execution in watt-hours.
type ComponentEnergy struct {
	CPUWh      float64 `json:"cpu_wh"`
	MemoryWh   float64 `json:"memory_wh"`
	StorageWh  float64 `json:"storage_wh"`
	NetworkWh  float64 `json:"network_wh"`
	OverheadWh float64 `json:"pue_overhead_wh"`
}

// RawWh is the component sum before datacenter overhead.
func (c ComponentEnergy) RawWh() float64 {
	return c.CPUWh + c.MemoryWh + c.StorageWh + c.NetworkWh
}

// EnergyBreakdown is the estimated energy of one execution.
// TotalWh = Breakdown.RawWh() * overhead factor.
type EnergyBreakdown struct {
	TotalWh     float64         `json:"total_wh"`
	TotalJoules float64         `json:"total_joules"`
	TotalKWh    float64         `json:"total_kwh"`
	Breakdown   ComponentEnergy `json:"breakdown"`
}

// CarbonEstimate is the carbon mass attributed to an energy figure.
type CarbonEstimate struct {
	// TotalG is the carbon mass in grams CO2e.
	TotalG float64 `json:"total_g_co2e"`

	// TotalKg is the carbon mass in kilograms CO2e.
	TotalKg float64 `json:"total_kg_co2e"`

	// GridIntensity is the gCO2e/kWh value used for the conversion.
	GridIntensity float64 `json:"grid_intensity_used"`
}

// Assessment is the energy and carbon estimate of one sample.
type Assessment struct {
	Energy EnergyBreakdown   `json:"energy"`
	Carbon CarbonEstimate    `json:"carbon"`
	Input  UtilizationSample `json:"input_parameters"`
}

// Savings is the absolute per-test saving of one profile over another.
type Savings struct {
	EnergySavedJoules float64 `json:"energy_saved_joules"`
	CarbonSavedG      float64 `json:"carbon_saved_g_co2e"`
}

// ComparisonSummary holds the derived reductions of a comparison.
type ComparisonSummary struct {
	EnergyReductionPct   float64 `json:"energy_reduction_percent"`
	CarbonReductionPct   float64 `json:"carbon_reduction_percent"`
	DurationReductionPct float64 `json:"performance_improvement_percent"`
	Savings
}

// EfficiencyAnalysis compares per-resource intensity of the two profiles.
// A nil field means the baseline quantity was zero and the ratio is undefined.
type EfficiencyAnalysis struct {
	CPUImprovementPct    *float64 `json:"cpu_efficiency_improvement"`
	MemoryImprovementPct *float64 `json:"memory_efficiency_improvement"`
}

// ComparisonResult pairs a baseline and an optimized assessment.
type ComparisonResult struct {
	Summary    ComparisonSummary  `json:"comparison_summary"`
	Optimized  Assessment         `json:"sustainable_framework"`
	Baseline   Assessment         `json:"wasteful_framework"`
	Efficiency EfficiencyAnalysis `json:"efficiency_analysis"`
}

// Savings returns the absolute per-test savings of the comparison.
func (r ComparisonResult) Savings() Savings {
	return r.Summary.Savings
}

// ProjectionParameters records the inputs of a projection.
type ProjectionParameters struct {
	DailyTests             int     `json:"daily_tests"`
	ProjectionDays         int     `json:"projection_days"`
	EnergyCostPerKWh       float64 `json:"energy_cost_per_kwh"`
	CarbonCreditCostPerTon float64 `json:"carbon_credit_cost_per_ton"`
}

// EnvironmentalImpact is the projected saving over the horizon.
type EnvironmentalImpact struct {
	EnergySavedKWh  float64 `json:"energy_saved_kwh"`
	CarbonSavedKg   float64 `json:"carbon_saved_kg"`
	CarbonSavedTons float64 `json:"carbon_saved_tons"`
	CarsRemoved     float64 `json:"equivalent_cars_removed"`
	TreesPlanted    float64 `json:"equivalent_trees_planted"`
}

// CostSavings is the projected monetary saving over the horizon in USD.
type CostSavings struct {
	EnergyCostSavings   float64 `json:"energy_cost_savings"`
	CarbonCreditSavings float64 `json:"carbon_credit_savings"`
	TotalSavings        float64 `json:"total_savings"`
}

// DailyImpact is the projected saving for a single day.
type DailyImpact struct {
	EnergySavedKWh float64 `json:"energy_saved_kwh"`
	CarbonSavedKg  float64 `json:"carbon_saved_kg"`
}

// ProjectionResult extrapolates per-test savings to a daily volume and horizon.
type ProjectionResult struct {
	Parameters    ProjectionParameters `json:"projection_parameters"`
	Environmental EnvironmentalImpact  `json:"annual_environmental_impact"`
	Cost          CostSavings          `json:"annual_cost_savings"`
	Daily         DailyImpact          `json:"daily_impact"`
}

// finite rejects NaN and infinite values.
func finite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be finite, got %g", ErrInvalidInput, name, v)
	}
	return nil
}

// nonNegative rejects negative, NaN, and infinite values.
func nonNegative(name string, v float64) error {
	if err := finite(name, v); err != nil {
		return err
	}
	if v < 0 {
		return fmt.Errorf("%w: %s must be >= 0, got %g", ErrInvalidInput, name, v)
	}
	return nil
}

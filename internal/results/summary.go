package results

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/rshade/netzero-testops/internal/carbon"
)

// Summary aggregates a set of test results.
type Summary struct {
	TestsAnalyzed            int     `json:"tests_analyzed"`
	TotalEnergyJoules        float64 `json:"total_energy_consumed_joules"`
	AvgEnergyPerTestJoules   float64 `json:"avg_energy_per_test_joules"`
	TotalExecutionTimeSec    float64 `json:"total_execution_time_sec"`
	AvgExecutionTimeSec      float64 `json:"avg_execution_time_sec"`
	TotalCarbonFootprintG    float64 `json:"total_carbon_footprint_g"`
	PeakMemoryUsageMB        float64 `json:"peak_memory_usage_mb"`
	AvgCPUUtilizationPercent float64 `json:"avg_cpu_utilization_percent"`

	// Set only when every result carries a positive test_complexity.
	EnergyPerComplexity *float64 `json:"energy_per_complexity,omitempty"`
	MostEfficientTest   string   `json:"most_efficient_test,omitempty"`
	LeastEfficientTest  string   `json:"least_efficient_test,omitempty"`
}

// Summarize aggregates rs. Ties in efficiency resolve to the earliest result.
// Returns carbon.ErrEmptyInput when rs is empty.
func Summarize(rs []TestResult) (Summary, error) {
	if len(rs) == 0 {
		return Summary{}, fmt.Errorf("%w: no test results to summarize", carbon.ErrEmptyInput)
	}

	n := len(rs)
	energy := make([]float64, n)
	duration := make([]float64, n)
	co2 := make([]float64, n)
	memory := make([]float64, n)
	cpu := make([]float64, n)
	for i, r := range rs {
		energy[i] = r.EnergyJoules
		duration[i] = r.ExecutionTimeSec
		co2[i] = r.CarbonFootprintG
		memory[i] = r.MemoryMB
		cpu[i] = r.CPUPercent
	}

	s := Summary{
		TestsAnalyzed:            n,
		TotalEnergyJoules:        floats.Sum(energy),
		AvgEnergyPerTestJoules:   stat.Mean(energy, nil),
		TotalExecutionTimeSec:    floats.Sum(duration),
		AvgExecutionTimeSec:      stat.Mean(duration, nil),
		TotalCarbonFootprintG:    floats.Sum(co2),
		PeakMemoryUsageMB:        floats.Max(memory),
		AvgCPUUtilizationPercent: stat.Mean(cpu, nil),
	}

	ratios, ok := complexityRatios(rs)
	if !ok {
		return s, nil
	}
	perComplexity := stat.Mean(ratios, nil)
	s.EnergyPerComplexity = &perComplexity
	s.MostEfficientTest = rs[floats.MinIdx(ratios)].TestName
	s.LeastEfficientTest = rs[floats.MaxIdx(ratios)].TestName
	return s, nil
}

// complexityRatios returns energy per unit of complexity for each result, or
// false if any result lacks a positive complexity.
func complexityRatios(rs []TestResult) ([]float64, bool) {
	ratios := make([]float64, len(rs))
	for i, r := range rs {
		if r.TestComplexity == nil || *r.TestComplexity <= 0 {
			return nil, false
		}
		ratios[i] = r.EnergyJoules / *r.TestComplexity
	}
	return ratios, true
}

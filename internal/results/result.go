// Package results ingests per-test execution records written by test
// frameworks and summarizes their energy and carbon metrics.
package results

import (
	"github.com/goccy/go-json"

	"github.com/rshade/netzero-testops/internal/carbon"
)

// MBPerGB converts the engine's memory unit to the result record's unit.
const MBPerGB = 1024.0

// TestResult is one test execution record.
type TestResult struct {
	TestName         string   `json:"test_name"`
	TestSuite        string   `json:"test_suite,omitempty"`
	EnergyJoules     float64  `json:"energy_joules"`
	ExecutionTimeSec float64  `json:"execution_time"`
	CarbonFootprintG float64  `json:"carbon_footprint"`
	MemoryMB         float64  `json:"memory_mb"`
	CPUPercent       float64  `json:"cpu_percent"`
	TestComplexity   *float64 `json:"test_complexity,omitempty"`
}

// wireResult accepts both the canonical keys and the legacy short keys
// emitted by older framework versions.
type wireResult struct {
	TestName        string   `json:"test_name"`
	TestSuite       string   `json:"test_suite"`
	EnergyJoules    *float64 `json:"energy_joules"`
	Energy          *float64 `json:"energy"`
	ExecutionTime   *float64 `json:"execution_time"`
	CarbonFootprint *float64 `json:"carbon_footprint"`
	CO2             *float64 `json:"co2"`
	MemoryMB        *float64 `json:"memory_mb"`
	Memory          *float64 `json:"memory"`
	CPUPercent      *float64 `json:"cpu_percent"`
	CPU             *float64 `json:"cpu"`
	TestComplexity  *float64 `json:"test_complexity"`
}

// UnmarshalJSON migrates legacy records at the ingestion boundary:
//
//	energy -> energy_joules
//	co2    -> carbon_footprint
//	memory -> memory_mb
//	cpu    -> cpu_percent
//
// When both spellings are present the canonical key wins. Missing values are zero.
func (r *TestResult) UnmarshalJSON(data []byte) error {
	var w wireResult
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = TestResult{
		TestName:         w.TestName,
		TestSuite:        w.TestSuite,
		EnergyJoules:     firstOf(w.EnergyJoules, w.Energy),
		ExecutionTimeSec: firstOf(w.ExecutionTime),
		CarbonFootprintG: firstOf(w.CarbonFootprint, w.CO2),
		MemoryMB:         firstOf(w.MemoryMB, w.Memory),
		CPUPercent:       firstOf(w.CPUPercent, w.CPU),
		TestComplexity:   w.TestComplexity,
	}
	return nil
}

func firstOf(values ...*float64) float64 {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return 0
}

// FromAssessment builds a result record from an engine assessment.
func FromAssessment(name, suite string, a carbon.Assessment) TestResult {
	return TestResult{
		TestName:         name,
		TestSuite:        suite,
		EnergyJoules:     a.Energy.TotalJoules,
		ExecutionTimeSec: a.Input.DurationSeconds,
		CarbonFootprintG: a.Carbon.TotalG,
		MemoryMB:         a.Input.MemoryGB * MBPerGB,
		CPUPercent:       a.Input.CPUUtilization * 100,
	}
}

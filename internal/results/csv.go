package results

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

var csvHeader = []string{
	"test_name",
	"test_suite",
	"energy_joules",
	"execution_time",
	"carbon_footprint",
	"memory_mb",
	"cpu_percent",
	"test_complexity",
}

// WriteCSV writes rs as CSV with a header row. A missing complexity is an
// empty cell.
func WriteCSV(w io.Writer, rs []TestResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, r := range rs {
		complexity := ""
		if r.TestComplexity != nil {
			complexity = formatFloat(*r.TestComplexity)
		}
		record := []string{
			r.TestName,
			r.TestSuite,
			formatFloat(r.EnergyJoules),
			formatFloat(r.ExecutionTimeSec),
			formatFloat(r.CarbonFootprintG),
			formatFloat(r.MemoryMB),
			formatFloat(r.CPUPercent),
			complexity,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing csv row %q: %w", r.TestName, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

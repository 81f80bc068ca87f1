package carbon

import (
	_ "embed"
	"encoding/csv"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// CSV column indices for the grid intensity table.
const (
	colGridRegion    = 0 // region (e.g., "us-east-1")
	colGridLocation  = 1 // human-readable location
	colGridIntensity = 2 // grid_intensity_g_co2e_per_kwh
)

// Values are converted from the Cloud Carbon Footprint regional emission
// factors (metric tons CO2e/kWh × 1,000,000).
// Reference: https://www.cloudcarbonfootprint.org/docs/methodology
//
//go:embed data/grid_intensity.csv
var gridIntensityCSV string

// GridRegion is one row of the regional grid intensity table.
type GridRegion struct {
	Region    string
	Location  string
	Intensity float64 // gCO2e/kWh
}

var (
	gridRegions     map[string]GridRegion
	gridRegionsOnce sync.Once
)

// parseGridIntensity loads the embedded grid intensity CSV. Rows with an empty
// region or a negative or unparseable intensity are logged and skipped.
func parseGridIntensity() {
	gridRegions = make(map[string]GridRegion)

	reader := csv.NewReader(strings.NewReader(gridIntensityCSV))

	// Skip header row
	if _, err := reader.Read(); err != nil {
		logger.Error().Err(err).Msg("failed to read grid intensity CSV header")
		return
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Warn().Err(err).Msg("skipping malformed grid intensity CSV row")
			continue
		}
		if len(record) <= colGridIntensity {
			continue
		}

		region := strings.ToLower(strings.TrimSpace(record[colGridRegion]))
		if region == "" {
			continue
		}

		intensity, err := strconv.ParseFloat(strings.TrimSpace(record[colGridIntensity]), 64)
		if err != nil || intensity < 0 {
			logger.Warn().
				Str("region", region).
				Str("value", record[colGridIntensity]).
				Msg("skipping grid intensity row with invalid value")
			continue
		}

		gridRegions[region] = GridRegion{
			Region:    region,
			Location:  strings.TrimSpace(record[colGridLocation]),
			Intensity: intensity,
		}
	}
}

// GetGridIntensity returns the grid carbon intensity for region in gCO2e/kWh.
// Lookup is case-insensitive. Unknown regions return (DefaultGridIntensity, false).
func GetGridIntensity(region string) (float64, bool) {
	gridRegionsOnce.Do(parseGridIntensity)
	r, ok := gridRegions[strings.ToLower(strings.TrimSpace(region))]
	if !ok {
		return DefaultGridIntensity, false
	}
	return r.Intensity, true
}

// GridIntensityRegions returns every known region sorted by name.
func GridIntensityRegions() []GridRegion {
	gridRegionsOnce.Do(parseGridIntensity)
	out := make([]GridRegion, 0, len(gridRegions))
	for _, r := range gridRegions {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Region < out[j].Region })
	return out
}

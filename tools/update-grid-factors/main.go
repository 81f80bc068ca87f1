// Package main provides a tool to update the regional grid intensity table from
// the Cloud Carbon Footprint (CCF) cloud-carbon-coefficients repository.
//
// The tool fetches the latest grid emission factors, converts them from metric
// tons CO2e/kWh to gCO2e/kWh, and rewrites
// internal/carbon/data/grid_intensity.csv, which is embedded at build time.
//
// Usage:
//
//	go run ./tools/update-grid-factors [--dry-run] [--validate]
//
// Flags:
//
//	--dry-run   Print the table without writing the file
//	--validate  Validate the fetched values are within expected range
//	--output    Path to grid_intensity.csv (default: ./internal/carbon/data/grid_intensity.csv)
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const (
	ccfGridFactorsURL = "https://raw.githubusercontent.com/cloud-carbon-footprint/cloud-carbon-coefficients/main/data/grid-emissions-factors-aws.json"

	// gramsPerMetricTon converts CCF factors to the table's gCO2e/kWh unit.
	gramsPerMetricTon = 1_000_000

	// Valid range for grid intensity in gCO2e/kWh.
	minValidIntensity = 0.0 // Some regions like Sweden have near-zero carbon grids
	maxValidIntensity = 2000.0

	csvHeader = "region,location,grid_intensity_g_co2e_per_kwh"
)

// regionLocations maps AWS region codes to the location written to the table.
var regionLocations = map[string]string{
	"us-east-1":      "Virginia (SERC)",
	"us-east-2":      "Ohio (RFC)",
	"us-west-1":      "N. California (WECC)",
	"us-west-2":      "Oregon (WECC)",
	"ca-central-1":   "Canada",
	"eu-west-1":      "Ireland",
	"eu-west-2":      "London",
	"eu-west-3":      "Paris",
	"eu-central-1":   "Frankfurt",
	"eu-north-1":     "Sweden",
	"eu-south-1":     "Milan",
	"ap-southeast-1": "Singapore",
	"ap-southeast-2": "Sydney",
	"ap-northeast-1": "Tokyo",
	"ap-northeast-2": "Seoul",
	"ap-northeast-3": "Osaka",
	"ap-south-1":     "Mumbai",
	"ap-east-1":      "Hong Kong",
	"me-south-1":     "Bahrain",
	"sa-east-1":      "São Paulo",
	"af-south-1":     "Cape Town",
}

// aggregateRows are appended after the regional rows. The CCF data has no
// aggregate entries.
var aggregateRows = []gridRow{
	{Region: "global", Location: "Global average", Intensity: 392.78},
	{Region: "us-average", Location: "US average", Intensity: 400},
}

// gridRow is one row of grid_intensity.csv.
type gridRow struct {
	Region    string
	Location  string
	Intensity float64 // gCO2e/kWh
}

// ccfGridData is one entry of CCF's grid emission factors JSON.
type ccfGridData struct {
	Region       string  `json:"region"`
	MtCO2ePerKwh float64 `json:"mtCO2ePerKwh"`
}

func main() {
	dryRun := flag.Bool("dry-run", false, "Print the table without writing the file")
	validate := flag.Bool("validate", true, "Validate fetched values are within expected range")
	output := flag.String("output", "./internal/carbon/data/grid_intensity.csv", "Path to grid_intensity.csv")
	flag.Parse()

	fmt.Println("Fetching Cloud Carbon Footprint grid emission factors...")
	fmt.Printf("Source: %s\n", ccfGridFactorsURL)

	rows, err := fetchGridRows()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching grid factors: %v\n", err)
		os.Exit(1)
	}

	if *validate {
		if err := validateRows(rows); err != nil {
			fmt.Fprintf(os.Stderr, "Validation error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Validation passed")
	}

	var out strings.Builder
	if err := writeTable(&out, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating table: %v\n", err)
		os.Exit(1)
	}

	if *dryRun {
		fmt.Println("\n--- Dry run output ---")
		fmt.Print(out.String())
		return
	}

	if err := os.WriteFile(*output, []byte(out.String()), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Updated %s with %d regions\n", *output, len(rows))
	fmt.Println("Run 'go test ./internal/carbon/...' to verify the changes")
}

// fetchGridRows downloads the CCF factors and keeps the regions we know.
func fetchGridRows() ([]gridRow, error) {
	client := &http.Client{Timeout: 30 * time.Second}

	resp, err := client.Get(ccfGridFactorsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch grid factors: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	return decodeCCF(resp.Body)
}

// decodeCCF converts CCF JSON into table rows. Unknown regions are dropped.
func decodeCCF(r io.Reader) ([]gridRow, error) {
	var ccfData []ccfGridData
	if err := json.NewDecoder(r).Decode(&ccfData); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}

	var rows []gridRow
	for _, d := range ccfData {
		location, ok := regionLocations[d.Region]
		if !ok {
			continue
		}
		rows = append(rows, gridRow{
			Region:    d.Region,
			Location:  location,
			Intensity: d.MtCO2ePerKwh * gramsPerMetricTon,
		})
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no known regions in CCF data")
	}
	return rows, nil
}

// validateRows checks every intensity is within the expected range.
func validateRows(rows []gridRow) error {
	var errors []string

	for _, row := range rows {
		if row.Intensity < minValidIntensity || row.Intensity > maxValidIntensity {
			errors = append(errors, fmt.Sprintf(
				"%s: intensity %.2f is outside valid range [%.0f, %.0f]",
				row.Region, row.Intensity, minValidIntensity, maxValidIntensity,
			))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation failed:\n%s", strings.Join(errors, "\n"))
	}
	return nil
}

// writeTable writes the regional rows sorted by region, then the aggregates.
func writeTable(w io.Writer, rows []gridRow) error {
	sorted := append([]gridRow(nil), rows...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Region < sorted[j].Region
	})

	if _, err := fmt.Fprintln(w, csvHeader); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	for _, row := range append(sorted, aggregateRows...) {
		record := []string{
			row.Region,
			row.Location,
			strconv.FormatFloat(row.Intensity, 'f', -1, 64),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Package scenario reads baseline/optimized scenario definitions from YAML or
// JSON documents.
package scenario

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rshade/netzero-testops/internal/carbon"
	"github.com/rshade/netzero-testops/internal/report"
)

//go:embed data/demo_scenarios.yaml
var demoScenariosYAML []byte

// File is the on-disk scenario document.
//
//	scenarios:
//	  - name: Login Test
//	    sustainable_metrics: {duration_seconds: 2.1, cpu_utilization: 0.2, memory_gb: 0.8}
//	    wasteful_metrics:    {duration_seconds: 6.8, cpu_utilization: 0.75, memory_gb: 3.2}
//
// sustainable_metrics is the optimized profile and wasteful_metrics the baseline.
type File struct {
	Scenarios []Entry `yaml:"scenarios" json:"scenarios"`
}

// Entry is one scenario as written in a file.
type Entry struct {
	Name        string                    `yaml:"name" json:"name"`
	Sustainable *carbon.UtilizationSample `yaml:"sustainable_metrics" json:"sustainable_metrics"`
	Wasteful    *carbon.UtilizationSample `yaml:"wasteful_metrics" json:"wasteful_metrics"`
}

// Load reads and parses the scenario file at path.
func Load(path string) ([]report.Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenarios: %w", err)
	}
	scenarios, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return scenarios, nil
}

// Parse decodes a scenario document. JSON input is accepted as YAML.
func Parse(data []byte) ([]report.Scenario, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: decoding scenarios: %v", carbon.ErrInvalidInput, err)
	}
	return FromEntries(f.Scenarios)
}

// FromEntries converts file entries to report scenarios. Each entry needs a
// name and both metric blocks. Sample values are validated later by the
// estimator.
func FromEntries(entries []Entry) ([]report.Scenario, error) {
	out := make([]report.Scenario, 0, len(entries))
	for i, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: scenario %d has no name", carbon.ErrInvalidInput, i)
		}
		if e.Sustainable == nil {
			return nil, fmt.Errorf("%w: scenario %q has no sustainable_metrics", carbon.ErrInvalidInput, name)
		}
		if e.Wasteful == nil {
			return nil, fmt.Errorf("%w: scenario %q has no wasteful_metrics", carbon.ErrInvalidInput, name)
		}
		out = append(out, report.Scenario{
			Name:      name,
			Baseline:  *e.Wasteful,
			Optimized: *e.Sustainable,
		})
	}
	return out, nil
}

// Demo returns the built-in e-commerce demo scenarios.
func Demo() []report.Scenario {
	scenarios, err := Parse(demoScenariosYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded demo scenarios: %v", err))
	}
	return scenarios
}

// Package exporter publishes the most recent carbon impact report as
// Prometheus gauges.
package exporter

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rshade/netzero-testops/internal/report"
)

const namespace = "netzero"

// Exporter holds the report gauges. Observe replaces all values atomically
// with respect to other Observe calls.
type Exporter struct {
	mu sync.Mutex

	energyReduction *prometheus.GaugeVec
	carbonReduction *prometheus.GaugeVec
	energySaved     *prometheus.GaugeVec
	carbonSaved     *prometheus.GaugeVec
	scenarios       *prometheus.GaugeVec

	annualEnergySaved prometheus.Gauge
	annualCarbonSaved prometheus.Gauge
	annualCostSavings prometheus.Gauge
	lastReport        prometheus.Gauge
}

// New creates the gauges and registers them with reg.
func New(reg prometheus.Registerer) (*Exporter, error) {
	scenarioLabels := []string{"scenario"}
	e := &Exporter{
		energyReduction: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scenario_energy_reduction_percent",
			Help:      "Energy reduction of the optimized profile over the baseline",
		}, scenarioLabels),
		carbonReduction: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scenario_carbon_reduction_percent",
			Help:      "Carbon reduction of the optimized profile over the baseline",
		}, scenarioLabels),
		energySaved: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scenario_energy_saved_joules",
			Help:      "Energy saved per test execution in joules",
		}, scenarioLabels),
		carbonSaved: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scenario_carbon_saved_grams",
			Help:      "Carbon saved per test execution in grams CO2e",
		}, scenarioLabels),
		scenarios: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "report_scenarios",
			Help:      "Scenarios in the last report by status",
		}, []string{"status"}),
		annualEnergySaved: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "projected_energy_saved_kwh",
			Help:      "Projected energy saved over the projection horizon in kWh",
		}),
		annualCarbonSaved: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "projected_carbon_saved_kg",
			Help:      "Projected carbon saved over the projection horizon in kg CO2e",
		}),
		annualCostSavings: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "projected_cost_savings_usd",
			Help:      "Projected energy and carbon credit savings over the projection horizon in USD",
		}),
		lastReport: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_report_timestamp_seconds",
			Help:      "Generation time of the last observed report",
		}),
	}

	for _, c := range []prometheus.Collector{
		e.energyReduction,
		e.carbonReduction,
		e.energySaved,
		e.carbonSaved,
		e.scenarios,
		e.annualEnergySaved,
		e.annualCarbonSaved,
		e.annualCostSavings,
		e.lastReport,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering report metrics: %w", err)
		}
	}
	return e, nil
}

// Observe replaces the gauges with the values from r. Undefined scenarios are
// counted but have no per-scenario series. Projection gauges are zero when the
// report has no projection.
func (e *Exporter) Observe(r *report.Report) {
	if r == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.energyReduction.Reset()
	e.carbonReduction.Reset()
	e.energySaved.Reset()
	e.carbonSaved.Reset()

	for _, sc := range r.Scenarios {
		if sc.Status != report.StatusOK || sc.ComparisonResult == nil {
			continue
		}
		s := sc.Summary
		e.energyReduction.WithLabelValues(sc.ScenarioName).Set(s.EnergyReductionPct)
		e.carbonReduction.WithLabelValues(sc.ScenarioName).Set(s.CarbonReductionPct)
		e.energySaved.WithLabelValues(sc.ScenarioName).Set(s.EnergySavedJoules)
		e.carbonSaved.WithLabelValues(sc.ScenarioName).Set(s.CarbonSavedG)
	}

	e.scenarios.WithLabelValues(string(report.StatusOK)).Set(float64(r.Summary.ScenariosIncluded))
	e.scenarios.WithLabelValues(string(report.StatusUndefined)).Set(float64(r.Summary.ScenariosUndefined))

	if p := r.Projections; p != nil {
		e.annualEnergySaved.Set(p.Environmental.EnergySavedKWh)
		e.annualCarbonSaved.Set(p.Environmental.CarbonSavedKg)
		e.annualCostSavings.Set(p.Cost.TotalSavings)
	} else {
		e.annualEnergySaved.Set(0)
		e.annualCarbonSaved.Set(0)
		e.annualCostSavings.Set(0)
	}

	if !r.Metadata.GeneratedTimestamp.IsZero() {
		e.lastReport.Set(float64(r.Metadata.GeneratedTimestamp.Unix()))
	}
}

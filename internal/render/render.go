// Package render formats reports for the terminal.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rshade/netzero-testops/internal/report"
	"github.com/rshade/netzero-testops/internal/results"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#2E8B57"))

	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#2E8B57")).
			Padding(0, 1)
)

// Report renders the executive summary, per-scenario reductions and the
// annual projection of r.
func Report(r *report.Report) string {
	blocks := []string{
		box("Executive Summary", summaryLines(r)),
		box("Scenarios", scenarioLines(r)),
	}
	if p := r.Projections; p != nil {
		blocks = append(blocks, box(fmt.Sprintf("Projected Impact (%d tests/day, %d days)", p.Parameters.DailyTests, p.Parameters.ProjectionDays), []string{
			line("Energy saved", fmt.Sprintf("%.2f kWh", p.Environmental.EnergySavedKWh)),
			line("Carbon saved", fmt.Sprintf("%.2f kg CO2e", p.Environmental.CarbonSavedKg)),
			line("Cars removed", fmt.Sprintf("%.4f", p.Environmental.CarsRemoved)),
			line("Trees planted", fmt.Sprintf("%.2f", p.Environmental.TreesPlanted)),
			line("Energy cost savings", fmt.Sprintf("$%.2f", p.Cost.EnergyCostSavings)),
			line("Carbon credit savings", fmt.Sprintf("$%.2f", p.Cost.CarbonCreditSavings)),
			line("Total savings", fmt.Sprintf("$%.2f", p.Cost.TotalSavings)),
		}))
	} else {
		blocks = append(blocks, warnStyle.Render("No projection: no scenario had a defined reduction."))
	}
	return lipgloss.JoinVertical(lipgloss.Left, blocks...) + "\n"
}

func summaryLines(r *report.Report) []string {
	s := r.Summary
	lines := []string{
		line("Scenarios analyzed", fmt.Sprintf("%d", r.Metadata.ScenariosAnalyzed)),
	}
	if s.ScenariosUndefined > 0 {
		lines = append(lines, line("Scenarios undefined", warnStyle.Render(fmt.Sprintf("%d", s.ScenariosUndefined))))
	}
	lines = append(lines,
		line("Avg carbon reduction", percent(s.AverageCarbonReductionPct)),
		line("Avg energy reduction", percent(s.AverageEnergyReductionPct)),
		line("Total energy saved", fmt.Sprintf("%.2f J", s.TotalEnergySavedJoules)),
		line("Total carbon saved", fmt.Sprintf("%.6f g CO2e", s.TotalCarbonSavedG)),
	)
	return lines
}

func scenarioLines(r *report.Report) []string {
	lines := make([]string, 0, len(r.Scenarios))
	for _, sc := range r.Scenarios {
		if sc.Status != report.StatusOK || sc.ComparisonResult == nil {
			lines = append(lines, line(sc.ScenarioName, warnStyle.Render("undefined")))
			continue
		}
		lines = append(lines, line(sc.ScenarioName, fmt.Sprintf("%.1f%% carbon, %.1f%% faster",
			sc.Summary.CarbonReductionPct, sc.Summary.DurationReductionPct)))
	}
	return lines
}

// Results renders a test result summary.
func Results(s results.Summary) string {
	lines := []string{
		line("Tests analyzed", fmt.Sprintf("%d", s.TestsAnalyzed)),
		line("Total energy", fmt.Sprintf("%.2f J", s.TotalEnergyJoules)),
		line("Avg energy per test", fmt.Sprintf("%.2f J", s.AvgEnergyPerTestJoules)),
		line("Total execution time", fmt.Sprintf("%.2f s", s.TotalExecutionTimeSec)),
		line("Total carbon", fmt.Sprintf("%.6f g CO2e", s.TotalCarbonFootprintG)),
		line("Peak memory", fmt.Sprintf("%.1f MB", s.PeakMemoryUsageMB)),
		line("Avg CPU", fmt.Sprintf("%.1f%%", s.AvgCPUUtilizationPercent)),
	}
	if s.EnergyPerComplexity != nil {
		lines = append(lines,
			line("Energy per complexity", fmt.Sprintf("%.2f J", *s.EnergyPerComplexity)),
			line("Most efficient", s.MostEfficientTest),
			line("Least efficient", s.LeastEfficientTest),
		)
	}
	return box("Green Metrics", lines) + "\n"
}

func box(title string, lines []string) string {
	return boxStyle.Render(titleStyle.Render(title) + "\n" + strings.Join(lines, "\n"))
}

func line(label, value string) string {
	return labelStyle.Render(label+": ") + valueStyle.Render(value)
}

func percent(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", *v)
}

package carbon

import "fmt"

// Compare estimates baseline and optimized samples independently and derives
// the reductions of the optimized profile relative to the baseline.
//
//	energy_reduction_pct   = (baseline J − optimized J) / baseline J × 100
//	carbon_reduction_pct   = (baseline g − optimized g) / baseline g × 100
//	duration_reduction_pct = (baseline s − optimized s) / baseline s × 100
//
// Saved quantities are baseline minus optimized and go negative when the
// optimized profile is worse. Returns ErrDivisionByZero when the baseline
// energy, carbon, or duration is zero.
func Compare(baseline, optimized UtilizationSample, c Coefficients) (ComparisonResult, error) {
	base, err := Assess(baseline, c)
	if err != nil {
		return ComparisonResult{}, fmt.Errorf("baseline: %w", err)
	}
	opt, err := Assess(optimized, c)
	if err != nil {
		return ComparisonResult{}, fmt.Errorf("optimized: %w", err)
	}

	energyPct, err := reductionPct("total_joules", base.Energy.TotalJoules, opt.Energy.TotalJoules)
	if err != nil {
		return ComparisonResult{}, err
	}
	carbonPct, err := reductionPct("carbon_g_co2e", base.Carbon.TotalG, opt.Carbon.TotalG)
	if err != nil {
		return ComparisonResult{}, err
	}
	durationPct, err := reductionPct("duration_seconds", baseline.DurationSeconds, optimized.DurationSeconds)
	if err != nil {
		return ComparisonResult{}, err
	}

	return ComparisonResult{
		Summary: ComparisonSummary{
			EnergyReductionPct:   energyPct,
			CarbonReductionPct:   carbonPct,
			DurationReductionPct: durationPct,
			Savings: Savings{
				EnergySavedJoules: base.Energy.TotalJoules - opt.Energy.TotalJoules,
				CarbonSavedG:      base.Carbon.TotalG - opt.Carbon.TotalG,
			},
		},
		Optimized: opt,
		Baseline:  base,
		Efficiency: EfficiencyAnalysis{
			CPUImprovementPct:    optionalReductionPct(baseline.CPUUtilization, optimized.CPUUtilization),
			MemoryImprovementPct: optionalReductionPct(baseline.MemoryGB, optimized.MemoryGB),
		},
	}, nil
}

// reductionPct returns the reduction of optimized relative to baseline in percent.
func reductionPct(name string, baseline, optimized float64) (float64, error) {
	if baseline == 0 {
		return 0, fmt.Errorf("%w: baseline %s is zero", ErrDivisionByZero, name)
	}
	pct := (baseline - optimized) / baseline * 100
	if err := finite(name+" reduction", pct); err != nil {
		return 0, err
	}
	return pct, nil
}

// optionalReductionPct is reductionPct with an undefined (nil) result for a
// zero baseline.
func optionalReductionPct(baseline, optimized float64) *float64 {
	if baseline == 0 {
		return nil
	}
	pct := (baseline - optimized) / baseline * 100
	return &pct
}

package carbon

import "fmt"

// Project extrapolates the per-test savings of a comparison across a daily
// test volume and a horizon in days. See ProjectSavings.
func Project(comparison ComparisonResult, dailyTests, horizonDays int, economics Economics) (ProjectionResult, error) {
	return ProjectSavings(comparison.Savings(), dailyTests, horizonDays, economics)
}

// ProjectSavings extrapolates per-test savings into environmental and cost
// projections.
//
//	daily kWh   = saved J × dailyTests / 3,600,000
//	daily kg    = saved g × dailyTests / 1000
//	annual      = daily × horizonDays
//	tons        = annual kg / 1000
//	energy cost = annual kWh × energy price
//	credits     = tons × carbon credit price
//	cars        = tons / 4.6
//	trees       = annual kg / 22
//
// Returns ErrInvalidInput for a negative dailyTests, a non-positive horizon,
// or invalid economics.
func ProjectSavings(savings Savings, dailyTests, horizonDays int, economics Economics) (ProjectionResult, error) {
	if dailyTests < 0 {
		return ProjectionResult{}, fmt.Errorf("%w: daily_tests must be >= 0, got %d", ErrInvalidInput, dailyTests)
	}
	if horizonDays <= 0 {
		return ProjectionResult{}, fmt.Errorf("%w: projection_days must be > 0, got %d", ErrInvalidInput, horizonDays)
	}
	if err := economics.Validate(); err != nil {
		return ProjectionResult{}, err
	}
	if err := finite("energy_saved_joules", savings.EnergySavedJoules); err != nil {
		return ProjectionResult{}, err
	}
	if err := finite("carbon_saved_g_co2e", savings.CarbonSavedG); err != nil {
		return ProjectionResult{}, err
	}

	daily := float64(dailyTests)
	days := float64(horizonDays)

	dailyEnergyKWh := savings.EnergySavedJoules * daily / JoulesPerKWh
	dailyCarbonKg := savings.CarbonSavedG * daily / GramsPerKg

	annualEnergyKWh := dailyEnergyKWh * days
	annualCarbonKg := dailyCarbonKg * days
	annualCarbonTons := annualCarbonKg / KgPerTon

	energyCost := annualEnergyKWh * economics.EnergyCostPerKWh
	creditCost := annualCarbonTons * economics.CarbonCreditCostPerTon

	return ProjectionResult{
		Parameters: ProjectionParameters{
			DailyTests:             dailyTests,
			ProjectionDays:         horizonDays,
			EnergyCostPerKWh:       economics.EnergyCostPerKWh,
			CarbonCreditCostPerTon: economics.CarbonCreditCostPerTon,
		},
		Environmental: EnvironmentalImpact{
			EnergySavedKWh:  annualEnergyKWh,
			CarbonSavedKg:   annualCarbonKg,
			CarbonSavedTons: annualCarbonTons,
			CarsRemoved:     annualCarbonTons / CarTonsPerYear,
			TreesPlanted:    annualCarbonKg / TreeKgPerYear,
		},
		Cost: CostSavings{
			EnergyCostSavings:   energyCost,
			CarbonCreditSavings: creditCost,
			TotalSavings:        energyCost + creditCost,
		},
		Daily: DailyImpact{
			EnergySavedKWh: dailyEnergyKWh,
			CarbonSavedKg:  dailyCarbonKg,
		},
	}, nil
}

package carbon

import "fmt"

// Estimate converts one utilization sample into per-component and total energy.
//
// The calculation:
//  1. Hours = duration_seconds / 3600
//  2. Component Wh = power coefficient × quantity × hours
//     (CPU uses cpu_base_watts × cpu_utilization)
//  3. Raw Wh = CPU + memory + storage + network
//  4. Total Wh = Raw Wh × overhead factor (PUE)
//  5. Joules = Total Wh × 3600, kWh = Total Wh / 1000
//
// Returns ErrInvalidInput for an out-of-range sample, invalid coefficients,
// or a sample whose energy overflows float64. A zero-duration sample is valid and yields zero energy.
func Estimate(sample UtilizationSample, c Coefficients) (EnergyBreakdown, error) {
	if err := c.Validate(); err != nil {
		return EnergyBreakdown{}, err
	}
	if err := sample.Validate(); err != nil {
		return EnergyBreakdown{}, err
	}

	hours := sample.DurationSeconds / SecondsPerHour

	components := ComponentEnergy{
		CPUWh:     c.CPUBaseWatts * sample.CPUUtilization * hours,
		MemoryWh:  c.MemoryWattsPerGB * sample.MemoryGB * hours,
		StorageWh: c.StorageWattsPerGB * sample.StorageGB * hours,
		NetworkWh: c.NetworkWattsPerMB * sample.NetworkMB * hours,
	}

	rawWh := components.RawWh()
	totalWh := rawWh * c.OverheadFactor
	components.OverheadWh = totalWh - rawWh

	energy := EnergyBreakdown{
		TotalWh:     totalWh,
		TotalJoules: totalWh * JoulesPerWh,
		TotalKWh:    totalWh / WhPerKWh,
		Breakdown:   components,
	}

	// Large finite inputs can still overflow the products above.
	for _, v := range []struct {
		name  string
		value float64
	}{
		{"total_wh", energy.TotalWh},
		{"total_joules", energy.TotalJoules},
		{"total_kwh", energy.TotalKWh},
	} {
		if err := finite(v.name, v.value); err != nil {
			return EnergyBreakdown{}, err
		}
	}
	return energy, nil
}

// ToCarbon converts an energy figure into carbon mass.
//
//	carbon_g  = kWh × grid intensity (gCO2e/kWh)
//	carbon_kg = carbon_g / 1000
func ToCarbon(totalKWh, gridIntensity float64) (CarbonEstimate, error) {
	if err := nonNegative("total_kwh", totalKWh); err != nil {
		return CarbonEstimate{}, err
	}
	if err := nonNegative("grid_intensity_g_co2_kwh", gridIntensity); err != nil {
		return CarbonEstimate{}, err
	}

	carbonG := totalKWh * gridIntensity
	if err := finite("total_g_co2e", carbonG); err != nil {
		return CarbonEstimate{}, err
	}
	return CarbonEstimate{
		TotalG:        carbonG,
		TotalKg:       carbonG / GramsPerKg,
		GridIntensity: gridIntensity,
	}, nil
}

// Assess runs the estimator and the carbon converter on one sample.
func Assess(sample UtilizationSample, c Coefficients) (Assessment, error) {
	energy, err := Estimate(sample, c)
	if err != nil {
		return Assessment{}, err
	}
	carbon, err := ToCarbon(energy.TotalKWh, c.GridIntensityGPerKWh)
	if err != nil {
		return Assessment{}, fmt.Errorf("converting energy to carbon: %w", err)
	}
	return Assessment{Energy: energy, Carbon: carbon, Input: sample}, nil
}

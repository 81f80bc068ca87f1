// Package carbon estimates the energy and carbon footprint of test executions
// from resource-utilization samples, compares two execution profiles, and
// projects the annual impact of adopting the more efficient one.
package carbon

const (
	// DefaultGridIntensity is the reference grid carbon intensity in gCO2e/kWh.
	// Source: US grid average used by the NetZero TestOps methodology.
	DefaultGridIntensity = 400.0

	// DefaultCPUBaseWatts is the CPU power draw at 100% utilization in watts.
	DefaultCPUBaseWatts = 30.0

	// DefaultMemoryWattsPerGB is the memory power draw in watts per GB resident.
	DefaultMemoryWattsPerGB = 0.372

	// DefaultStorageWattsPerGB is the storage power draw in watts per GB accessed.
	DefaultStorageWattsPerGB = 0.65

	// DefaultNetworkWattsPerMB is the network power draw in watts per MB transferred.
	DefaultNetworkWattsPerMB = 0.0036

	// DefaultOverheadFactor is the Power Usage Effectiveness of a modern cloud
	// datacenter (cooling and power distribution losses).
	DefaultOverheadFactor = 1.12

	// DefaultEnergyCostPerKWh is the electricity price in USD per kWh.
	DefaultEnergyCostPerKWh = 0.12

	// DefaultCarbonCreditCostPerTon is the carbon credit price in USD per metric ton CO2e.
	DefaultCarbonCreditCostPerTon = 25.0
)

const (
	// SecondsPerHour converts sample durations to hours.
	SecondsPerHour = 3600.0

	// JoulesPerWh converts watt-hours to joules.
	JoulesPerWh = 3600.0

	// WhPerKWh converts watt-hours to kilowatt-hours.
	WhPerKWh = 1000.0

	// JoulesPerKWh converts joules to kilowatt-hours (3.6 MJ).
	JoulesPerKWh = 3_600_000.0

	// GramsPerKg converts grams to kilograms.
	GramsPerKg = 1000.0

	// KgPerTon converts kilograms to metric tons.
	KgPerTon = 1000.0
)

const (
	// DefaultHorizonDays is the projection horizon (one year).
	DefaultHorizonDays = 365

	// DefaultDailyTests is the daily test volume assumed by reports.
	DefaultDailyTests = 100

	// CarTonsPerYear is the annual emissions of an average passenger car.
	// Source: US EPA, 4.6 metric tons CO2e per vehicle per year.
	CarTonsPerYear = 4.6

	// TreeKgPerYear is the CO2e absorbed by one tree per year.
	// Source: commonly cited ~22 kg CO2e per mature tree per year.
	TreeKgPerYear = 22.0

	// CalculatorVersion is stamped into report metadata.
	CalculatorVersion = "1.0.0"
)

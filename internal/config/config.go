// Package config resolves runtime settings from defaults, an optional YAML
// file and NETZERO_* environment variables, in that order.
package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/rshade/netzero-testops/internal/carbon"
)

// Environment variables read by Load.
const (
	EnvRegion                 = "NETZERO_REGION"
	EnvGridIntensity          = "NETZERO_GRID_INTENSITY"
	EnvPUE                    = "NETZERO_PUE"
	EnvCPUWatts               = "NETZERO_CPU_WATTS"
	EnvDailyTests             = "NETZERO_DAILY_TESTS"
	EnvEnergyCostPerKWh       = "NETZERO_ENERGY_COST_PER_KWH"
	EnvCarbonCreditCostPerTon = "NETZERO_CARBON_CREDIT_COST_PER_TON"
	EnvHistoryPath            = "NETZERO_HISTORY_PATH"
)

// DefaultListenAddr is the HTTP API listen address.
const DefaultListenAddr = ":8080"

// Config is the resolved runtime configuration.
type Config struct {
	// Region selects the grid intensity from the regional table. An explicit
	// grid_intensity_g_co2_kwh takes precedence.
	Region string `yaml:"region"`

	Coefficients carbon.Coefficients `yaml:"coefficients"`
	DailyTests   int                 `yaml:"daily_tests"`
	HorizonDays  int                 `yaml:"horizon_days"`

	// HistoryPath is the SQLite database for saved reports. Empty disables history.
	HistoryPath string `yaml:"history_path"`
	ListenAddr  string `yaml:"listen_addr"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Coefficients: carbon.DefaultCoefficients(),
		DailyTests:   carbon.DefaultDailyTests,
		HorizonDays:  carbon.DefaultHorizonDays,
		ListenAddr:   DefaultListenAddr,
	}
}

// explicitFields records which keys the YAML file actually set.
type explicitFields struct {
	Coefficients struct {
		GridIntensity *float64 `yaml:"grid_intensity_g_co2_kwh"`
	} `yaml:"coefficients"`
}

// Load builds the configuration. path may be empty to skip the file.
// Unparseable environment values are logged and ignored. The result is validated.
func Load(path string, logger zerolog.Logger) (Config, error) {
	cfg := Default()
	gridExplicit := false

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("%w: parsing config %s: %v", carbon.ErrInvalidInput, path, err)
		}
		var explicit explicitFields
		if err := yaml.Unmarshal(data, &explicit); err == nil {
			gridExplicit = explicit.Coefficients.GridIntensity != nil
		}
		logger.Debug().Str("path", path).Msg("loaded config file")
	}

	if applyEnv(&cfg, logger) {
		gridExplicit = true
	}

	cfg.Region = strings.TrimSpace(cfg.Region)
	if cfg.Region != "" && !gridExplicit {
		intensity, ok := carbon.GetGridIntensity(cfg.Region)
		if !ok {
			logger.Warn().
				Str("region", cfg.Region).
				Float64("grid_intensity", intensity).
				Msg("unknown region, using default grid intensity")
		}
		cfg.Coefficients = cfg.Coefficients.WithGridIntensity(intensity)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	logger.Debug().
		Str("region", cfg.Region).
		Float64("grid_intensity", cfg.Coefficients.GridIntensityGPerKWh).
		Float64("pue", cfg.Coefficients.OverheadFactor).
		Int("daily_tests", cfg.DailyTests).
		Msg("configuration applied")

	return cfg, nil
}

// WithRegion returns a copy of c using the grid intensity of region. Unlike
// Load, an unknown region is an error.
func (c Config) WithRegion(region string) (Config, error) {
	intensity, ok := carbon.GetGridIntensity(region)
	if !ok {
		return Config{}, fmt.Errorf("%w: unknown region %q", carbon.ErrInvalidInput, region)
	}
	c.Region = strings.TrimSpace(region)
	c.Coefficients = c.Coefficients.WithGridIntensity(intensity)
	return c, nil
}

// Validate checks coefficients and projection parameters.
func (c Config) Validate() error {
	if err := c.Coefficients.Validate(); err != nil {
		return err
	}
	if c.DailyTests < 0 {
		return fmt.Errorf("%w: daily_tests must be >= 0, got %d", carbon.ErrInvalidInput, c.DailyTests)
	}
	if c.HorizonDays <= 0 {
		return fmt.Errorf("%w: horizon_days must be > 0, got %d", carbon.ErrInvalidInput, c.HorizonDays)
	}
	return nil
}

// applyEnv applies environment overrides and reports whether the grid
// intensity was set explicitly.
func applyEnv(cfg *Config, logger zerolog.Logger) bool {
	if region, ok := os.LookupEnv(EnvRegion); ok && strings.TrimSpace(region) != "" {
		cfg.Region = region
	}
	if path, ok := os.LookupEnv(EnvHistoryPath); ok {
		cfg.HistoryPath = strings.TrimSpace(path)
	}

	gridExplicit := envFloat(EnvGridIntensity, &cfg.Coefficients.GridIntensityGPerKWh, logger)
	envFloat(EnvPUE, &cfg.Coefficients.OverheadFactor, logger)
	envFloat(EnvCPUWatts, &cfg.Coefficients.CPUBaseWatts, logger)
	envFloat(EnvEnergyCostPerKWh, &cfg.Coefficients.Economics.EnergyCostPerKWh, logger)
	envFloat(EnvCarbonCreditCostPerTon, &cfg.Coefficients.Economics.CarbonCreditCostPerTon, logger)

	if raw, ok := os.LookupEnv(EnvDailyTests); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && parsed >= 0 {
			cfg.DailyTests = parsed
		} else {
			logger.Warn().Str("value", raw).Msg("invalid " + EnvDailyTests + ", using configured value")
		}
	}

	return gridExplicit
}

// envFloat overwrites dst from the named variable and reports whether it did.
func envFloat(name string, dst *float64, logger zerolog.Logger) bool {
	raw, ok := os.LookupEnv(name)
	if !ok || strings.TrimSpace(raw) == "" {
		return false
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || parsed < 0 || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		logger.Warn().Str("value", raw).Msg("invalid " + name + ", using configured value")
		return false
	}
	*dst = parsed
	return true
}

package config

import (
	"os"
	"runtime"
	"strconv"

	"github.com/elstanto/muncon/domain/usnp"
	"github.com/elstanto/muncon/internal"
	"github.com/elstanto/muncon/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Estimation EstimationConfig
	Sampling   SamplingConfig
	Output     OutputConfig
	LogLevel   internal.LogLevel
}

// EstimationConfig holds covariance estimation settings
type EstimationConfig struct {
	UseEnsembleMean    bool
	FrequencyTolerance float64 // relative tolerance when comparing frequency axes
	Workers            int
}

// SamplingConfig holds correlated sampling settings
type SamplingConfig struct {
	Seed    int64
	Samples int
}

// OutputConfig holds writer settings
type OutputConfig struct {
	Dir                   string
	Format                usnp.Format
	Unit                  usnp.FrequencyUnit
	LegacyCovarianceOrder bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Estimation: *loadEstimationConfig(),
		Sampling:   *loadSamplingConfig(),
		LogLevel:   internal.ParseLogLevel(os.Getenv("LOG_LEVEL")),
	}

	outputConfig, err := loadOutputConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load output configuration")
	}
	config.Output = *outputConfig

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadEstimationConfig() *EstimationConfig {
	return &EstimationConfig{
		UseEnsembleMean:    getEnvBoolOrDefault("MUNCON_USE_ENSEMBLE_MEAN", false),
		FrequencyTolerance: getEnvFloatOrDefault("MUNCON_FREQ_TOLERANCE", 1e-9),
		Workers:            getEnvIntOrDefault("MUNCON_WORKERS", runtime.NumCPU()),
	}
}

func loadSamplingConfig() *SamplingConfig {
	return &SamplingConfig{
		Seed:    getEnvInt64OrDefault("MUNCON_SEED", 1),
		Samples: getEnvIntOrDefault("MUNCON_SAMPLES", 1000),
	}
}

func loadOutputConfig() (*OutputConfig, error) {
	format := usnp.Format(getEnvOrDefault("MUNCON_FORMAT", string(usnp.FormatRI)))
	if !format.Valid() {
		return nil, errors.ConfigInvalid("MUNCON_FORMAT must be RI, MA or DB")
	}

	unit, err := usnp.ParseFrequencyUnit(getEnvOrDefault("MUNCON_FREQ_UNIT", string(usnp.GHz)))
	if err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, err)
	}

	return &OutputConfig{
		Dir:                   getEnvOrDefault("MUNCON_OUTPUT_DIR", "."),
		Format:                format,
		Unit:                  unit,
		LegacyCovarianceOrder: getEnvBoolOrDefault("MUNCON_LEGACY_COVARIANCE_ORDER", false),
	}, nil
}

func validateConfig(config *Config) error {
	if config.Sampling.Samples < 1 {
		return errors.ConfigInvalid("MUNCON_SAMPLES must be at least 1")
	}
	if config.Estimation.Workers < 1 {
		return errors.ConfigInvalid("MUNCON_WORKERS must be at least 1")
	}
	if config.Estimation.FrequencyTolerance < 0 {
		return errors.ConfigInvalid("MUNCON_FREQ_TOLERANCE must not be negative")
	}
	if config.Output.Dir == "" {
		return errors.ConfigInvalid("output directory is required")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

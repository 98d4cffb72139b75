package config

import (
	"os"
	"strconv"

	"ablab/domain/core"
)

// Config represents the complete application configuration
type Config struct {
	Database  DatabaseConfig
	Metrics   MetricsConfig
	Splitting SplittingConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL string
}

// MetricsConfig selects and configures the metric provider
type MetricsConfig struct {
	// Source is "postgres" or "excel".
	Source string
	// Table is the metric table name for the postgres provider.
	Table string
	// ExcelFile is the workbook path for the excel provider.
	ExcelFile string
}

// SplittingConfig holds traffic-splitting settings
type SplittingConfig struct {
	BucketCount int
	GlobalSalt  string
}

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Metrics: MetricsConfig{
			Source:    getEnv("METRIC_SOURCE", "postgres"),
			Table:     getEnv("METRIC_TABLE", "metrics"),
			ExcelFile: os.Getenv("METRIC_EXCEL_FILE"),
		},
		Splitting: SplittingConfig{
			BucketCount: getEnvInt("BUCKET_COUNT", 100),
			GlobalSalt:  getEnv("BUCKET_SALT", ""),
		},
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	switch c.Metrics.Source {
	case "postgres":
		if c.Database.URL == "" {
			return core.NewInvalidConfigurationError("DATABASE_URL", "<empty>")
		}
	case "excel":
		if c.Metrics.ExcelFile == "" {
			return core.NewInvalidConfigurationError("METRIC_EXCEL_FILE", "<empty>")
		}
	default:
		return core.NewInvalidConfigurationError("METRIC_SOURCE", c.Metrics.Source)
	}
	if c.Splitting.BucketCount <= 0 {
		return core.NewInvalidConfigurationError("BUCKET_COUNT", c.Splitting.BucketCount)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

package config

import (
	"fmt"
	"os"
	"strconv"

	// Load environment variables from .env files when present.
	_ "github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Pipeline      PipelineConfig
	Thresholds    ThresholdConfig
	Database      DatabaseConfig
	Observability ObservabilityConfig
}

// PipelineConfig tunes the canonicalization and gating behaviour.
type PipelineConfig struct {
	// BalanceTolerance is the absolute post-scale EUR tolerance for the
	// assets-vs-liabilities check. The default is an assumption pending
	// domain-expert confirmation, not a regulatory citation.
	BalanceTolerance float64
	// ScaleUncertainBelow flags scale detections under this confidence.
	ScaleUncertainBelow float64
	// MappingHighFloor / MappingMediumFloor split code confidences into
	// the high/medium/low bands the gate counts.
	MappingHighFloor   float64
	MappingMediumFloor float64
	// CriticalConfidenceFloor is the floor under which a high-priority
	// transfer-pricing code triggers a review action.
	CriticalConfidenceFloor float64
}

// ThresholdConfig carries the 2-of-3 company-size cutoffs. Defaults follow
// Directive 2013/34/EU as transposed in Luxembourg.
type ThresholdConfig struct {
	SmallBalanceSheet  float64
	SmallTurnover      float64
	SmallHeadcount     int
	MediumBalanceSheet float64
	MediumTurnover     float64
	MediumHeadcount    int
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

type ObservabilityConfig struct {
	MetricsEnabled bool
	MetricsPort    int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Pipeline: PipelineConfig{
			BalanceTolerance:        getEnvAsFloat("BALANCE_TOLERANCE_EUR", 100),
			ScaleUncertainBelow:     getEnvAsFloat("SCALE_UNCERTAIN_BELOW", 0.8),
			MappingHighFloor:        getEnvAsFloat("MAPPING_HIGH_FLOOR", 0.9),
			MappingMediumFloor:      getEnvAsFloat("MAPPING_MEDIUM_FLOOR", 0.7),
			CriticalConfidenceFloor: getEnvAsFloat("CRITICAL_CONFIDENCE_FLOOR", 0.7),
		},
		Thresholds: ThresholdConfig{
			SmallBalanceSheet:  getEnvAsFloat("SIZE_SMALL_BALANCE_SHEET", 4_400_000),
			SmallTurnover:      getEnvAsFloat("SIZE_SMALL_TURNOVER", 8_800_000),
			SmallHeadcount:     getEnvAsInt("SIZE_SMALL_HEADCOUNT", 50),
			MediumBalanceSheet: getEnvAsFloat("SIZE_MEDIUM_BALANCE_SHEET", 20_000_000),
			MediumTurnover:     getEnvAsFloat("SIZE_MEDIUM_TURNOVER", 40_000_000),
			MediumHeadcount:    getEnvAsInt("SIZE_MEDIUM_HEADCOUNT", 250),
		},
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			Database: getEnv("POSTGRES_DB", "ecdf-dev"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
			MetricsPort:    getEnvAsInt("METRICS_PORT", 9090),
		},
	}

	if cfg.Pipeline.MappingHighFloor < cfg.Pipeline.MappingMediumFloor {
		return nil, fmt.Errorf("MAPPING_HIGH_FLOOR (%v) must be >= MAPPING_MEDIUM_FLOOR (%v)",
			cfg.Pipeline.MappingHighFloor, cfg.Pipeline.MappingMediumFloor)
	}

	return cfg, nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

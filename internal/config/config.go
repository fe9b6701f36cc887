// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir          string // Base directory for the ledger and cache databases
	MarketDataURL    string // Base URL of the quote service
	LogLevel         string
	Port             int
	DevMode          bool
	BaseCapital      float64   // Capital the return rate is measured against
	BaseCapitalStart time.Time // Trades before this date are outside amount-based stats

	// IncludePrestartCounts keeps pre-start trades in count-based statistics
	// for the "all" range while still excluding them from amount-based ones.
	IncludePrestartCounts bool

	// Reference trading discipline the expectation model reports alongside
	// the probability-weighted return.
	ExpectedHoldingDays  float64
	ExpectedSuccessRate  float64
	HoldingDaysBandPct   float64 // Neutral band for holding days, as share of expected
	PriceTTL             time.Duration
	PriceLookupTimeout   time.Duration
	QuoteRefreshSchedule string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("TRADEBOOK_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	baseStart, err := time.Parse("2006-01-02", getEnv("BASE_CAPITAL_START", "2020-01-01"))
	if err != nil {
		return nil, fmt.Errorf("invalid BASE_CAPITAL_START: %w", err)
	}

	cfg := &Config{
		DataDir:               absDataDir,
		Port:                  getEnvAsInt("PORT", 8080),
		DevMode:               getEnvAsBool("DEV_MODE", false),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		MarketDataURL:         getEnv("MARKETDATA_URL", "http://localhost:9100"),
		BaseCapital:           getEnvAsFloat("BASE_CAPITAL", 3_200_000),
		BaseCapitalStart:      baseStart,
		IncludePrestartCounts: getEnvAsBool("INCLUDE_PRESTART_COUNTS", true),
		ExpectedHoldingDays:   getEnvAsFloat("EXPECTED_HOLDING_DAYS", 15),
		ExpectedSuccessRate:   getEnvAsFloat("EXPECTED_SUCCESS_RATE", 0.55),
		HoldingDaysBandPct:    getEnvAsFloat("HOLDING_DAYS_BAND_PCT", 0.20),
		PriceTTL:              time.Duration(getEnvAsInt("PRICE_TTL_SECONDS", 60)) * time.Second,
		PriceLookupTimeout:    time.Duration(getEnvAsInt("PRICE_TIMEOUT_SECONDS", 5)) * time.Second,
		QuoteRefreshSchedule:  getEnv("QUOTE_REFRESH_SCHEDULE", "@every 1m"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.BaseCapital <= 0 {
		return fmt.Errorf("BASE_CAPITAL must be positive, got %v", c.BaseCapital)
	}
	if c.HoldingDaysBandPct < 0 {
		return fmt.Errorf("HOLDING_DAYS_BAND_PCT must not be negative, got %v", c.HoldingDaysBandPct)
	}
	if c.ExpectedSuccessRate < 0 || c.ExpectedSuccessRate > 1 {
		return fmt.Errorf("EXPECTED_SUCCESS_RATE must be in [0,1], got %v", c.ExpectedSuccessRate)
	}
	if c.PriceTTL <= 0 {
		return fmt.Errorf("PRICE_TTL_SECONDS must be positive")
	}
	if c.PriceLookupTimeout <= 0 {
		return fmt.Errorf("PRICE_TIMEOUT_SECONDS must be positive")
	}
	return nil
}

// LedgerPath returns the path of the trades database.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.DataDir, "ledger.db")
}

// CachePath returns the path of the quote cache database.
func (c *Config) CachePath() string {
	return filepath.Join(c.DataDir, "cache.db")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

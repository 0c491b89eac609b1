// Package config loads the process configuration from the environment into
// one immutable struct. It is constructed once at startup, validated, and
// passed into components; nothing reads environment variables after that.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"wattbudget/internal/core"
)

type Config struct {
	// Smart Meter Texas
	SMTBaseURL  string
	SMTUsername string
	SMTPassword string
	SMTESIID    string

	// Pricing
	KWhRate string

	// Budget backend selection: "ynab", "sheets", or "memory"
	BudgetBackend string

	// YNAB
	YNABBaseURL     string
	YNABAccessToken string
	YNABBudgetID    string
	YNABCategoryID  string

	// Google Sheets backend
	GoogleSpreadsheetID string
	GoogleTargetRange   string

	// Engine policy
	CompletePeriodLag time.Duration

	// Run-boundary retry
	RunMaxAttempts int
	RunBackoffBase time.Duration

	// Observability (all optional)
	HealthcheckURL string
	SQLiteDBPath   string
	AMQPURL        string
	AMQPExchange   string
	AMQPQueue      string

	// Worker
	SyncInterval time.Duration
}

func Load() *Config {
	return &Config{
		SMTBaseURL:  getEnv("SMT_BASE_URL", ""),
		SMTUsername: getEnv("SMT_USERNAME", ""),
		SMTPassword: getEnv("SMT_PASSWORD", ""),
		SMTESIID:    getEnv("SMT_ESIID", ""),

		KWhRate: getEnv("KWH_RATE", ""),

		BudgetBackend: getEnv("BUDGET_BACKEND", "ynab"),

		YNABBaseURL:     getEnv("YNAB_BASE_URL", ""),
		YNABAccessToken: getEnv("YNAB_ACCESS_TOKEN", ""),
		YNABBudgetID:    getEnv("YNAB_BUDGET_ID", ""),
		YNABCategoryID:  getEnv("YNAB_CATEGORY_ID", ""),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleTargetRange:   getEnv("GOOGLE_TARGET_RANGE", ""),

		CompletePeriodLag: getEnvDuration("COMPLETE_PERIOD_LAG", core.DefaultCompletePeriodLag),

		RunMaxAttempts: getEnvInt("RUN_MAX_ATTEMPTS", 3),
		RunBackoffBase: getEnvDuration("RUN_BACKOFF_BASE", 10*time.Second),

		HealthcheckURL: getEnv("HEALTHCHECK_URL", ""),
		SQLiteDBPath:   getEnv("SQLITE_DB_PATH", ""),
		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "wattbudget"),
		AMQPQueue:      getEnv("AMQP_QUEUE", "run_outcomes"),

		SyncInterval: getEnvDuration("SYNC_INTERVAL", 24*time.Hour),
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	var errs []string

	if c.SMTUsername == "" {
		errs = append(errs, "SMT_USERNAME is required")
	}
	if c.SMTPassword == "" {
		errs = append(errs, "SMT_PASSWORD is required")
	}

	if c.KWhRate == "" {
		errs = append(errs, "KWH_RATE is required")
	} else if _, err := core.ParseRate(c.KWhRate); err != nil {
		errs = append(errs, fmt.Sprintf("invalid KWH_RATE %q: must be a positive decimal", c.KWhRate))
	}

	switch c.BudgetBackend {
	case "ynab":
		if c.YNABAccessToken == "" {
			errs = append(errs, "YNAB_ACCESS_TOKEN is required for the ynab backend")
		}
		if c.YNABBudgetID == "" {
			errs = append(errs, "YNAB_BUDGET_ID is required for the ynab backend")
		}
		if c.YNABCategoryID == "" {
			errs = append(errs, "YNAB_CATEGORY_ID is required for the ynab backend")
		}
	case "sheets":
		if c.GoogleSpreadsheetID == "" {
			errs = append(errs, "GOOGLE_SPREADSHEET_ID is required for the sheets backend")
		}
	case "memory":
		// No external configuration.
	default:
		errs = append(errs, fmt.Sprintf("invalid budget backend %q: must be one of [ynab sheets memory]", c.BudgetBackend))
	}

	if c.CompletePeriodLag < time.Hour {
		errs = append(errs, fmt.Sprintf("invalid complete period lag %v: must be at least 1 hour", c.CompletePeriodLag))
	}

	if c.RunMaxAttempts < 1 || c.RunMaxAttempts > 10 {
		errs = append(errs, fmt.Sprintf("invalid run max attempts %d: must be between 1 and 10", c.RunMaxAttempts))
	}
	if c.RunBackoffBase < time.Second {
		errs = append(errs, fmt.Sprintf("invalid run backoff base %v: must be at least 1 second", c.RunBackoffBase))
	}

	if c.HealthcheckURL != "" {
		if u, err := url.Parse(c.HealthcheckURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errs = append(errs, fmt.Sprintf("invalid healthcheck URL %q", c.HealthcheckURL))
		}
	}

	if c.AMQPURL != "" {
		if u, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL %q: %v", c.AMQPURL, err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme %q: must be 'amqp' or 'amqps'", u.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.SyncInterval < time.Minute {
		errs = append(errs, fmt.Sprintf("invalid sync interval %v: must be at least 1 minute", c.SyncInterval))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// Rate returns the parsed unit rate. Call after Validate.
func (c *Config) Rate() (decimal.Decimal, error) {
	return core.ParseRate(c.KWhRate)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

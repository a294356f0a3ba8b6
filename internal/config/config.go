package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds application configuration
type Config struct {
	// HTTP server
	ServerPort      string
	AppBaseURL      string
	SessionDuration time.Duration
	SessionSecret   string
	LedgerTTL       time.Duration

	// Default annual rate, in percent, for savings growth projections
	GrowthRate decimal.Decimal

	// Database
	DatabaseType string
	DatabasePath string
	DatabaseURL  string

	// Admin
	AdminEmail string

	// Email (SES)
	AWSRegion    string
	SESFromEmail string
	SESFromName  string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// OAuth
	GoogleClientID       string
	GoogleClientSecret   string
	AppleClientID        string
	AppleClientSecret    string
	OAuthRedirectBaseURL string

	// Logging
	LogDir string
	Debug  bool

	// Calendar zone for week boundaries
	Timezone string
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:      getEnv("PORT", "8080"),
		AppBaseURL:      getEnv("APP_BASE_URL", "http://localhost:8080"),
		SessionDuration: getEnvDuration("SESSION_DURATION", 24*time.Hour),
		SessionSecret:   getEnv("SESSION_SECRET", ""),
		LedgerTTL:       getEnvDuration("LEDGER_TTL", 12*time.Hour),
		GrowthRate:      getEnvDecimal("GROWTH_RATE", decimal.NewFromInt(30)),

		DatabaseType: getEnv("DB_TYPE", "sqlite"),
		DatabasePath: getEnv("DB_PATH", "./skiipper.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		AdminEmail: strings.ToLower(strings.TrimSpace(getEnv("ADMIN_EMAIL", ""))),

		AWSRegion:    getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail: getEnv("SES_FROM_EMAIL", ""),
		SESFromName:  getEnv("SES_FROM_NAME", "Skiipper"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "skiipper"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "send-weekly-report"),

		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
		AppleClientID:        getEnv("APPLE_CLIENT_ID", ""),
		AppleClientSecret:    getEnv("APPLE_CLIENT_SECRET", ""),
		OAuthRedirectBaseURL: getEnv("OAUTH_REDIRECT_BASE_URL", ""),

		LogDir: getEnv("LOG_DIR", ""),
		Debug:  getEnvBool("DEBUG", false),

		Timezone: getEnv("TIMEZONE", "Local"),
	}
}

// Validate checks the configuration and reports every problem at once
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.ServerPort); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.ServerPort))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch strings.ToLower(c.DatabaseType) {
	case "sqlite", "sqlite3", "":
		if c.DatabasePath == "" {
			errors = append(errors, "DB_PATH cannot be empty when using sqlite")
		}
	case "postgres", "postgresql", "mysql":
		if c.DatabaseURL == "" {
			errors = append(errors, fmt.Sprintf("DATABASE_URL is required when DB_TYPE is %s", c.DatabaseType))
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid database type '%s': must be one of sqlite, postgres, mysql", c.DatabaseType))
	}

	if c.SessionDuration < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session duration %v: must be at least 1 minute", c.SessionDuration))
	}
	if c.LedgerTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid ledger TTL %v: must be at least 1 minute", c.LedgerTTL))
	}

	if c.GrowthRate.LessThanOrEqual(decimal.NewFromInt(-100)) {
		errors = append(errors, fmt.Sprintf("invalid growth rate %s: must be greater than -100", c.GrowthRate))
	}

	if c.SessionSecret != "" && len(c.SessionSecret) < 32 {
		errors = append(errors, "SESSION_SECRET must be at least 32 characters")
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if _, err := c.Location(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// Location resolves Timezone
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// EmailEnabled reports whether outbound email is configured
func (c *Config) EmailEnabled() bool {
	return c.SESFromEmail != ""
}

// QueueEnabled reports whether weekly reports go through AMQP
func (c *Config) QueueEnabled() bool {
	return c.AMQPURL != ""
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return defaultValue
}

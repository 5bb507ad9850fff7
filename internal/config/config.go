package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"invoiceform/internal/logger"
)

// Gateway kinds accepted in INVOICE_GATEWAY.
const (
	GatewayGraphQL = "graphql"
	GatewaySheets  = "sheets"
)

type Config struct {
	// Submission Gateway
	Gateway        string
	InvoiceAPIURL  string
	GatewayTimeout time.Duration

	// Google Sheets gateway
	GoogleSheetURL       string
	GoogleSheetWorksheet string

	// Reference data
	CountriesAPIURL  string
	CountriesTimeout time.Duration

	// Form behavior
	ResetDelay time.Duration

	// Local invoice API
	DevServerAddr      string
	DevServerRateLimit int

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		Gateway:              strings.ToLower(getEnv("INVOICE_GATEWAY", GatewayGraphQL)),
		InvoiceAPIURL:        getEnv("INVOICE_API_URL", "https://sse-frontend-assessment-api-823449bb66ac.herokuapp.com/graphql"),
		GoogleSheetURL:       getEnv("GOOGLE_SHEET_URL", ""),
		GoogleSheetWorksheet: getEnv("GOOGLE_SHEET_WORKSHEET", "Invoices"),
		CountriesAPIURL:      getEnv("COUNTRIES_API_URL", "https://restcountries.com/v3.1/all?fields=name"),
		DevServerAddr:        getEnv("DEV_SERVER_ADDR", ":8080"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:        getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:            getEnv("LOG_OUTPUT", "stderr"),
	}

	var err error
	if config.GatewayTimeout, err = getDurationEnv("GATEWAY_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if config.CountriesTimeout, err = getDurationEnv("COUNTRIES_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if config.ResetDelay, err = getDurationEnv("RESET_DELAY", time.Second); err != nil {
		return nil, err
	}
	if config.DevServerRateLimit, err = getIntEnv("DEV_SERVER_RATE_LIMIT", 60); err != nil {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.Gateway {
	case GatewayGraphQL:
		if c.InvoiceAPIURL == "" {
			return fmt.Errorf("INVOICE_API_URL is required for the graphql gateway")
		}
	case GatewaySheets:
		if c.GoogleSheetURL == "" {
			return fmt.Errorf("GOOGLE_SHEET_URL is required for the sheets gateway")
		}
	default:
		return fmt.Errorf("INVOICE_GATEWAY must be %q or %q, got %q", GatewayGraphQL, GatewaySheets, c.Gateway)
	}
	if c.GatewayTimeout <= 0 {
		return fmt.Errorf("GATEWAY_TIMEOUT must be positive")
	}
	if c.ResetDelay < 0 {
		return fmt.Errorf("RESET_DELAY must not be negative")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, value, err)
	}
	return d, nil
}

func getIntEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, value, err)
	}
	return n, nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"powder-inventory/internal/store"
)

// DefaultSessionSecret is only acceptable outside production
const DefaultSessionSecret = "dev-secret"

type Config struct {
	Environment string
	ListenAddr  string

	StoreBackend    string
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	CredentialsJSON string
	XLSXPath        string
	DSN             string

	GoogleClientID     string
	GoogleClientSecret string
	BaseURL            string
	SessionSecret      string
	SessionExpiry      time.Duration
	AllowedDomain      string

	EnableMetrics     bool
	RateLimitRPS      float64
	RateLimitBurst    int
	ImportMappingPath string
}

func Load() *Config {
	config := &Config{
		Environment:        getEnv("ENVIRONMENT", "development"),
		ListenAddr:         getEnv("LISTEN_ADDR", ":8080"),
		StoreBackend:       getEnv("STORE_BACKEND", store.BackendSheets),
		SpreadsheetID:      os.Getenv("SPREADSHEET_ID"),
		SheetName:          getEnv("SHEET_NAME", "Items"),
		CredentialsFile:    os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		CredentialsJSON:    os.Getenv("SERVICE_ACCOUNT_JSON"),
		XLSXPath:           getEnv("XLSX_PATH", "assets.xlsx"),
		DSN:                os.Getenv("DB_DSN"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		BaseURL:            strings.TrimRight(getEnv("BASE_URL", "http://127.0.0.1:8001"), "/"),
		SessionSecret:      getEnv("SESSION_SECRET", DefaultSessionSecret),
		SessionExpiry:      24 * time.Hour,
		AllowedDomain:      getEnv("ALLOWED_DOMAIN", "andrew.cmu.edu"),
		EnableMetrics:      os.Getenv("ENABLE_METRICS") == "true",
		RateLimitRPS:       5,
		RateLimitBurst:     10,
		ImportMappingPath:  getEnv("IMPORT_MAPPING_PATH", "configs/mapping/assets.yaml"),
	}

	if expiryStr := os.Getenv("SESSION_EXPIRY"); expiryStr != "" {
		if expiry, err := time.ParseDuration(expiryStr); err == nil {
			config.SessionExpiry = expiry
		}
	}
	if rps := os.Getenv("RATE_LIMIT_RPS"); rps != "" {
		if v, err := strconv.ParseFloat(rps, 64); err == nil {
			config.RateLimitRPS = v
		}
	}
	if burst := os.Getenv("RATE_LIMIT_BURST"); burst != "" {
		if v, err := strconv.Atoi(burst); err == nil {
			config.RateLimitBurst = v
		}
	}

	return config
}

// Validate checks the settings the process cannot start without. Missing
// store settings are not fatal: they surface per request as an unavailable
// sheet.
func (c *Config) Validate() error {
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required")
	}
	if c.Environment == "production" {
		if c.SessionSecret == DefaultSessionSecret {
			return errors.New("SESSION_SECRET must be changed in production")
		}
		if len(c.SessionSecret) < 32 {
			return errors.New("SESSION_SECRET must be at least 32 characters in production")
		}
	}
	if c.SessionExpiry < time.Minute {
		return fmt.Errorf("SESSION_EXPIRY must be at least 1m, got %v", c.SessionExpiry)
	}
	if c.SessionExpiry > 30*24*time.Hour {
		return fmt.Errorf("SESSION_EXPIRY must be at most 720h, got %v", c.SessionExpiry)
	}
	if strings.TrimSpace(c.AllowedDomain) == "" {
		return errors.New("ALLOWED_DOMAIN is required")
	}
	switch c.StoreBackend {
	case store.BackendSheets, store.BackendXLSX, store.BackendPostgres, store.BackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative, got %v", c.RateLimitRPS)
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be at least 1, got %d", c.RateLimitBurst)
	}
	return nil
}

func LoadAndValidate() (*Config, error) {
	cfg := Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// StoreConfig maps the settings onto the store package
func (c *Config) StoreConfig() store.Config {
	return store.Config{
		Backend: c.StoreBackend,
		Sheets: store.SheetsConfig{
			SpreadsheetID:   c.SpreadsheetID,
			SheetName:       c.SheetName,
			CredentialsFile: c.CredentialsFile,
			CredentialsJSON: c.CredentialsJSON,
		},
		XLSXPath:  c.XLSXPath,
		DSN:       c.DSN,
		SheetName: c.SheetName,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Adapter store backends.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StorePostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	Database      DatabaseConfig
	Store         StoreConfig
	Import        ImportConfig
	Observability ObservabilityConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
}

type StoreConfig struct {
	Kind string
	Path string
}

type ImportConfig struct {
	HeaderLookahead int
	SampleRows      int
	DefaultCurrency string
	MaxBytes        int
}

type ObservabilityConfig struct {
	MetricsEnabled bool
	LogLevel       string
}

// Load reads configuration from environment variables, after loading a .env
// file from the working directory when one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			Database: getEnv("POSTGRES_DB", "statements"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
			MaxConns: getEnvAsInt("POSTGRES_MAX_CONNS", 10),
		},
		Store: StoreConfig{
			Kind: strings.ToLower(getEnv("ADAPTER_STORE", StoreMemory)),
			Path: getEnv("ADAPTER_STORE_PATH", "./data/adapters"),
		},
		Import: ImportConfig{
			HeaderLookahead: getEnvAsInt("IMPORT_HEADER_LOOKAHEAD", 50),
			SampleRows:      getEnvAsInt("IMPORT_SAMPLE_ROWS", 5),
			DefaultCurrency: strings.ToUpper(getEnv("IMPORT_DEFAULT_CURRENCY", "EUR")),
			MaxBytes:        getEnvAsInt("IMPORT_MAX_BYTES", 10<<20),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", false),
			LogLevel:       getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Kind {
	case StoreMemory, StoreFile, StorePostgres:
	default:
		errs = append(errs, fmt.Errorf("ADAPTER_STORE must be one of memory, file, postgres, got %q", c.Store.Kind))
	}
	if c.Store.Kind == StoreFile && c.Store.Path == "" {
		errs = append(errs, errors.New("ADAPTER_STORE_PATH is required for the file store"))
	}
	if c.Import.HeaderLookahead <= 0 {
		errs = append(errs, errors.New("IMPORT_HEADER_LOOKAHEAD must be positive"))
	}
	if c.Import.SampleRows <= 0 {
		errs = append(errs, errors.New("IMPORT_SAMPLE_ROWS must be positive"))
	}
	if c.Import.MaxBytes <= 0 {
		errs = append(errs, errors.New("IMPORT_MAX_BYTES must be positive"))
	}
	if len(c.Import.DefaultCurrency) != 3 {
		errs = append(errs, fmt.Errorf("IMPORT_DEFAULT_CURRENCY must be an ISO-4217 code, got %q", c.Import.DefaultCurrency))
	}
	return errors.Join(errs...)
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (o ObservabilityConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(o.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
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

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

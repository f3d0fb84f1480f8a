// pkg/config/config.go
package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	// Shared PostgreSQL credentials used for both the production and staging databases
	Postgres *PostgresConfig

	// Migration plan specification, e.g. "account:1|address:2|statement"
	PlanSpec string

	// Directory for the disposable schema dump artifact ("" means os.TempDir)
	ArtifactDir string

	// Timeout applied to each external createdb/pg_dump/pg_restore invocation
	ToolTimeout time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		PlanSpec:    getEnv("MIGRATION_PLAN", ""),
		ArtifactDir: getEnv("SCHEMA_ARTIFACT_DIR", ""),
		ToolTimeout: time.Duration(getEnvAsInt("PG_TOOL_TIMEOUT_SECONDS", 300)) * time.Second,
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "json"),
	}

	pgConfig, err := LoadPostgresConfig()
	if err != nil {
		return nil, errors.New("failed to load PostgreSQL configuration: " + err.Error())
	}
	cfg.Postgres = pgConfig

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	if c.Postgres == nil {
		return errors.New("postgreSQL configuration is required")
	}

	if c.ToolTimeout <= 0 {
		return errors.New("tool timeout must be positive")
	}

	return nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

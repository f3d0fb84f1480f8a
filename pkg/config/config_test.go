package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("POSTGRES_USER", "tester")
	t.Setenv("POSTGRES_PASSWORD", "secret")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Postgres.Host)
	assert.Equal(t, 5432, cfg.Postgres.Port)
	assert.Equal(t, "tester", cfg.Postgres.User)
	assert.Equal(t, 300*time.Second, cfg.ToolTimeout)
	assert.Empty(t, cfg.PlanSpec)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("POSTGRES_PORT", "5433")
	t.Setenv("MIGRATION_PLAN", "users:0|orders")
	t.Setenv("PG_TOOL_TIMEOUT_SECONDS", "30")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Postgres.Host)
	assert.Equal(t, 5433, cfg.Postgres.Port)
	assert.Equal(t, "users:0|orders", cfg.PlanSpec)
	assert.Equal(t, 30*time.Second, cfg.ToolTimeout)
}

func TestLoadConfigMissingUser(t *testing.T) {
	t.Setenv("POSTGRES_USER", "")
	t.Setenv("POSTGRES_PASSWORD", "secret")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSTGRES_USER")
}

func TestLoadConfigMissingPassword(t *testing.T) {
	t.Setenv("POSTGRES_USER", "tester")
	t.Setenv("POSTGRES_PASSWORD", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSTGRES_PASSWORD")
}

func TestConnectionStringPerDatabase(t *testing.T) {
	cfg := &PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "tester",
		Password: "secret",
		SSLMode:  "disable",
	}

	prod := cfg.ConnectionString("arcadia_prod")
	staging := cfg.ConnectionString("arcadia_staging")

	assert.Contains(t, prod, "dbname=arcadia_prod")
	assert.Contains(t, staging, "dbname=arcadia_staging")
	assert.Contains(t, prod, "user=tester")
}

func TestToolEnvCarriesCredentials(t *testing.T) {
	cfg := &PostgresConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "tester",
		Password: "secret",
	}

	env := strings.Join(cfg.ToolEnv(), "\n")
	assert.Contains(t, env, "PGHOST=db.internal")
	assert.Contains(t, env, "PGPORT=5433")
	assert.Contains(t, env, "PGUSER=tester")
	assert.Contains(t, env, "PGPASSWORD=secret")
}

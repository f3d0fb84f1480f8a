// pkg/connector/postgres.go
package connector

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/kmshelley/arcadia-db-migration/pkg/config"
)

// PostgresConnector is a session against one PostgreSQL database.
// One connector is opened per database endpoint (production source or staging
// destination); credentials are shared, the database name is not.
type PostgresConnector struct {
	db     *sqlx.DB
	logger *zap.Logger
	cfg    *config.PostgresConfig
	dbName string
}

// NewPostgresConnector creates and initializes a new PostgreSQL connector for dbName
func NewPostgresConnector(ctx context.Context, cfg *config.PostgresConfig, dbName string) (*PostgresConnector, error) {
	logger := zap.L().Named("postgres-connector")

	logger.Info("Connecting to PostgreSQL",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", dbName),
		zap.String("user", cfg.User))

	db, err := sqlx.Open("pgx", cfg.ConnectionString(dbName))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL connection to %q: %w", dbName, err)
	}

	ApplyConnectionSettings(
		db.DB,
		cfg.MaxOpenConns,
		cfg.MaxIdleConns,
		cfg.ConnMaxLifetime,
		cfg.ConnMaxIdleTime,
	)

	// Set statement timeout if configured
	if cfg.StatementTimeout > 0 {
		_, err = db.ExecContext(
			ctx,
			fmt.Sprintf("SET statement_timeout = %d", cfg.StatementTimeout.Milliseconds()),
		)
		if err != nil {
			logger.Warn("Failed to set statement timeout", zap.Error(err))
		}
	}

	// Verify connection
	if err := PingWithTimeout(ctx, db.DB, 5*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL at %s:%d database %q: %w",
			cfg.Host, cfg.Port, dbName, err)
	}

	connector := &PostgresConnector{
		db:     db,
		logger: logger,
		cfg:    cfg,
		dbName: dbName,
	}

	LogConnectionStats(logger, dbName, db.DB)
	return connector, nil
}

// DBx returns the sqlx wrapper for positional row scanning
func (c *PostgresConnector) DBx() *sqlx.DB {
	return c.db
}

// DatabaseName returns the name of the connected database
func (c *PostgresConnector) DatabaseName() string {
	return c.dbName
}

// Validate verifies the PostgreSQL connection is usable
func (c *PostgresConnector) Validate() error {
	var version string
	err := c.db.QueryRow("SELECT version()").Scan(&version)
	if err != nil {
		return fmt.Errorf("failed to query PostgreSQL version: %w", err)
	}
	c.logger.Info("Connected to PostgreSQL",
		zap.String("database", c.dbName),
		zap.String("version", version))

	return nil
}

// Close closes the database connection
func (c *PostgresConnector) Close() error {
	c.logger.Info("Closing PostgreSQL connection", zap.String("database", c.dbName))
	LogConnectionStats(c.logger, c.dbName, c.db.DB)
	return c.db.Close()
}

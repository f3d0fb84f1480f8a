// Package main is the migratedb CLI: it copies a production PostgreSQL
// database into a freshly created staging database, redacting PII columns in
// flight.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kmshelley/arcadia-db-migration/pkg/config"
	"github.com/kmshelley/arcadia-db-migration/pkg/migrate"
	"github.com/kmshelley/arcadia-db-migration/pkg/pgtool"
)

var (
	sourceDB string
	destDB   string
)

var rootCmd = &cobra.Command{
	Use:   "migratedb --in <source_db> --out <dest_db>",
	Short: "Migrate a production database to a de-identified staging database",
	Long: `migratedb creates a staging PostgreSQL database, replicates the
production schema into it, and copies every configured table with PII columns
replaced by the REDACTED sentinel.

The copy is all-or-nothing: if any table fails, the staging transaction is
rolled back in full and the staging database is left schema-only for
inspection. A failed run is not resumable; retry against a fresh staging
database name.

Connection credentials come from POSTGRES_* environment variables (a .env file
is honored). The table set and redaction positions come from MIGRATION_PLAN,
defaulting to ` + migrate.DefaultPlanSpec + `.`,
	SilenceUsage: true,
	RunE:         runMigrate,
}

func init() {
	rootCmd.Flags().StringVar(&sourceDB, "in", "", "name of the production database to migrate")
	rootCmd.Flags().StringVar(&destDB, "out", "", "name of the staging database to create and load")
	rootCmd.MarkFlagRequired("in")
	rootCmd.MarkFlagRequired("out")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	// Missing .env is fine; the environment may already be populated
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	plan, rules, err := migrate.ParsePlanSpec(cfg.PlanSpec)
	if err != nil {
		return fmt.Errorf("migration plan: %w", err)
	}

	migrator := migrate.NewMigrator(cfg, pgtool.NewClient(cfg), rules)

	result, err := migrator.Run(cmd.Context(), sourceDB, destDB, plan)
	if err != nil {
		return err
	}

	for _, tr := range result.Tables {
		fmt.Printf("%s: %d rows copied in %v\n", tr.Table, tr.RowsCopied, tr.Duration)
	}
	fmt.Printf("migrated %d rows from %s to %s in %v\n",
		result.TotalRows, result.SourceDB, result.DestDB, result.Duration)

	return nil
}

func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.LogFormat == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	zapCfg.Level = level

	return zapCfg.Build()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

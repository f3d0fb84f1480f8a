// pkg/migrate/orchestrator.go
package migrate

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/kmshelley/arcadia-db-migration/pkg/config"
	"github.com/kmshelley/arcadia-db-migration/pkg/connector"
	"github.com/kmshelley/arcadia-db-migration/pkg/pgtool"
	"github.com/kmshelley/arcadia-db-migration/pkg/redact"
)

// RunState represents the current stage of a migration run
type RunState string

const (
	RunStateInit           RunState = "init"
	RunStateCreated        RunState = "created"
	RunStateSchemaExported RunState = "schema_exported"
	RunStateSchemaImported RunState = "schema_imported"
	RunStateSessionsOpen   RunState = "sessions_open"
	RunStateCopying        RunState = "copying"
	RunStateCommitted      RunState = "committed"
	RunStateCommitFailed   RunState = "commit_failed"
	RunStateRolledBack     RunState = "rolled_back"
	RunStateClosed         RunState = "closed"
)

// Session is the database session contract the orchestrator needs from the
// connector layer
type Session interface {
	DBx() *sqlx.DB
	DatabaseName() string
	Validate() error
	Close() error
}

// SessionOpener opens a session against one database by name. Injected so
// tests can supply sessions that never touch a live server.
type SessionOpener func(ctx context.Context, cfg *config.PostgresConfig, dbName string) (Session, error)

func openPostgresSession(ctx context.Context, cfg *config.PostgresConfig, dbName string) (Session, error) {
	return connector.NewPostgresConnector(ctx, cfg, dbName)
}

// Migrator sequences schema replication and the per-table copies, and owns the
// single destination transaction: it is committed or rolled back exactly once
// per run.
type Migrator struct {
	cfg    *config.Config
	tool   pgtool.Runner
	rules  *redact.RuleSet
	open   SessionOpener
	copier *TableCopier
	logger *zap.Logger
	state  RunState
}

// NewMigrator creates a migrator from validated configuration, a
// schema-replication runner and the process-wide redaction rules
func NewMigrator(cfg *config.Config, tool pgtool.Runner, rules *redact.RuleSet) *Migrator {
	logger := zap.L().Named("migrator")
	logger.Info("Redaction rules loaded", zap.Strings("tables", rules.Tables()))
	return &Migrator{
		cfg:    cfg,
		tool:   tool,
		rules:  rules,
		open:   openPostgresSession,
		copier: NewTableCopier(logger),
		logger: logger,
		state:  RunStateInit,
	}
}

// WithSessionOpener overrides how database sessions are opened
func (m *Migrator) WithSessionOpener(open SessionOpener) *Migrator {
	m.open = open
	return m
}

// State returns the current run state
func (m *Migrator) State() RunState {
	return m.state
}

func (m *Migrator) setState(state RunState) {
	prev := m.state
	m.state = state
	if prev != state {
		m.logger.Info("Run state changed",
			zap.String("from", string(prev)),
			zap.String("to", string(state)))
	}
}

// Run migrates sourceDB into a freshly created destDB, scrubbing PII per the
// redaction rules. The returned result always carries the run outcome; the
// error, when non-nil, is the same terminal failure recorded on the result.
//
// A failed run is not resumable. The destination database is kept in its
// schema-only state after a rollback so an operator can inspect it; a retry
// must target a fresh destination name.
func (m *Migrator) Run(ctx context.Context, sourceDB, destDB string, plan *Plan) (*Result, error) {
	result := NewResult(sourceDB, destDB)

	m.logger.Info("Starting migration run",
		zap.String("runID", result.RunID),
		zap.String("source", sourceDB),
		zap.String("destination", destDB),
		zap.Strings("tables", plan.Tables))

	// Fail fast on configuration problems, before any destination mutation
	if err := plan.Validate(m.rules); err != nil {
		return m.fail(result, NewError(ErrorCategoryConfiguration, err))
	}

	// Stage 1: create the staging database
	if err := m.tool.CreateDatabase(ctx, destDB); err != nil {
		return m.fail(result, NewError(ErrorCategoryCreation,
			fmt.Errorf("failed to create database %q: %w", destDB, err)))
	}
	m.setState(RunStateCreated)

	// Stage 2: export a schema-only dump from production
	artifact, err := m.tool.DumpSchema(ctx, sourceDB)
	if err != nil {
		return m.fail(result, NewError(ErrorCategorySchemaExport,
			fmt.Errorf("failed to dump schemas for %q: %w", sourceDB, err)))
	}
	defer os.Remove(artifact)
	m.setState(RunStateSchemaExported)

	// Stage 3: load the schemas into the staging database
	if err := m.tool.RestoreSchema(ctx, destDB, artifact); err != nil {
		return m.fail(result, NewError(ErrorCategorySchemaImport,
			fmt.Errorf("failed to load schemas for %q: %w", destDB, err)))
	}
	m.setState(RunStateSchemaImported)

	// Stage 4: one read session to production, one write session to staging,
	// both released on every exit path
	source, err := m.open(ctx, m.cfg.Postgres, sourceDB)
	if err != nil {
		return m.fail(result, NewError(ErrorCategoryConnection, err))
	}
	defer m.closeSession(source)

	if err := source.Validate(); err != nil {
		return m.fail(result, NewError(ErrorCategoryConnection,
			fmt.Errorf("source session %q not usable: %w", sourceDB, err)))
	}

	dest, err := m.open(ctx, m.cfg.Postgres, destDB)
	if err != nil {
		return m.fail(result, NewError(ErrorCategoryConnection, err))
	}
	defer m.closeSession(dest)

	if err := dest.Validate(); err != nil {
		return m.fail(result, NewError(ErrorCategoryConnection,
			fmt.Errorf("destination session %q not usable: %w", destDB, err)))
	}
	m.setState(RunStateSessionsOpen)

	// Stage 5: copy every plan table inside one destination transaction
	tx, err := dest.DBx().BeginTxx(ctx, nil)
	if err != nil {
		return m.fail(result, NewError(ErrorCategoryConnection,
			fmt.Errorf("failed to begin staging transaction: %w", err)))
	}

	m.setState(RunStateCopying)
	for _, table := range plan.Tables {
		rule, err := m.rules.RulesFor(table)
		if err != nil {
			m.rollback(tx)
			return m.fail(result, NewError(ErrorCategoryConfiguration, err))
		}

		m.logger.Info("Copying table",
			zap.String("runID", result.RunID),
			zap.String("table", table))

		start := time.Now()
		copied, err := m.copier.Copy(ctx, source.DBx(), tx, table, rule)
		if err != nil {
			// Full-run rollback: no table's rows are kept
			m.rollback(tx)
			return m.fail(result, err)
		}

		result.AddTableResult(TableResult{
			Table:      table,
			RowsCopied: copied,
			Duration:   time.Since(start),
		})
	}

	// Stage 6: commit once, after all tables succeeded. A failed commit is not
	// also rolled back (the transaction resolves exactly once); the state
	// records the abandoned commit rather than claiming a rollback happened.
	if err := tx.Commit(); err != nil {
		m.setState(RunStateCommitFailed)
		return m.fail(result, NewError(ErrorCategoryCommit,
			fmt.Errorf("failed to commit staging transaction: %w", err)))
	}
	m.setState(RunStateCommitted)

	result.Complete()
	m.logger.Info("Migration run completed",
		zap.String("runID", result.RunID),
		zap.Int64("totalRows", result.TotalRows),
		zap.Int("tables", len(result.Tables)),
		zap.Duration("duration", result.Duration))

	return result, nil
}

// rollback discards the destination transaction after a copy failure
func (m *Migrator) rollback(tx *sqlx.Tx) {
	if err := tx.Rollback(); err != nil {
		m.logger.Error("Failed to roll back staging transaction", zap.Error(err))
	}
	m.setState(RunStateRolledBack)
}

func (m *Migrator) closeSession(s Session) {
	if err := s.Close(); err != nil {
		m.logger.Error("Failed to close session",
			zap.String("database", s.DatabaseName()),
			zap.Error(err))
	}
	m.setState(RunStateClosed)
}

// fail finalizes the result with the first terminal failure and logs it
func (m *Migrator) fail(result *Result, err error) (*Result, error) {
	result.Fail(err)
	m.logger.Error("Migration run failed",
		zap.String("runID", result.RunID),
		zap.String("stage", result.FailedStage.String()),
		zap.Error(err))
	return result, err
}

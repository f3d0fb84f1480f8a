// pkg/pgtool/pgtool.go
package pgtool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kmshelley/arcadia-db-migration/pkg/config"
)

// Runner is the schema-replication collaborator. Each call blocks until the
// underlying operation reports an outcome; success is judged by exit status,
// never by sniffing the error stream.
type Runner interface {
	// CreateDatabase creates a new, empty database
	CreateDatabase(ctx context.Context, name string) error

	// DumpSchema exports a schema-only dump of the named database and returns
	// the path of the produced artifact
	DumpSchema(ctx context.Context, name string) (string, error)

	// RestoreSchema loads a schema-only dump artifact into the named database
	RestoreSchema(ctx context.Context, name string, artifact string) error
}

// Client runs the PostgreSQL client tools (createdb, pg_dump, pg_restore) as
// subprocesses with the configured credentials in their environment.
type Client struct {
	env         []string
	artifactDir string
	timeout     time.Duration
	logger      *zap.Logger
}

// NewClient creates a schema-replication client from the shared credentials
func NewClient(cfg *config.Config) *Client {
	artifactDir := cfg.ArtifactDir
	if artifactDir == "" {
		artifactDir = os.TempDir()
	}

	return &Client{
		env:         cfg.Postgres.ToolEnv(),
		artifactDir: artifactDir,
		timeout:     cfg.ToolTimeout,
		logger:      zap.L().Named("pgtool"),
	}
}

// CreateDatabase creates a new, empty database via createdb
func (c *Client) CreateDatabase(ctx context.Context, name string) error {
	return c.run(ctx, "createdb", name)
}

// DumpSchema exports a schema-only, tar-format dump of the named database.
// The artifact is a disposable temp file; the caller removes it when the run
// ends.
func (c *Client) DumpSchema(ctx context.Context, name string) (string, error) {
	f, err := os.CreateTemp(c.artifactDir, "schema-*.db")
	if err != nil {
		return "", fmt.Errorf("failed to create schema artifact: %w", err)
	}
	artifact := f.Name()
	f.Close()

	if err := c.run(ctx, "pg_dump", "--schema-only", "--format", "tar", "-f", artifact, name); err != nil {
		os.Remove(artifact)
		return "", err
	}
	return artifact, nil
}

// RestoreSchema loads a schema-only dump artifact into the named database
func (c *Client) RestoreSchema(ctx context.Context, name string, artifact string) error {
	if _, err := os.Stat(artifact); err != nil {
		return fmt.Errorf("schema artifact %s not readable: %w", filepath.Base(artifact), err)
	}
	return c.run(ctx, "pg_restore", "-d", name, "--schema-only", artifact)
}

// run executes one client tool invocation with a bounded runtime
func (c *Client) run(ctx context.Context, tool string, args ...string) error {
	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, tool, args...)
	cmd.Env = c.env

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()

	c.logger.Debug("Ran client tool",
		zap.String("tool", tool),
		zap.Strings("args", args),
		zap.Duration("duration", time.Since(start)),
		zap.Bool("success", err == nil))

	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%s timed out after %v: %w", tool, c.timeout, runCtx.Err())
		}
		if errors.Is(runCtx.Err(), context.Canceled) {
			return fmt.Errorf("%s canceled: %w", tool, runCtx.Err())
		}
		diagnostic := strings.TrimSpace(stderr.String())
		if diagnostic != "" {
			return fmt.Errorf("%s failed: %s: %w", tool, diagnostic, err)
		}
		return fmt.Errorf("%s failed: %w", tool, err)
	}
	return nil
}

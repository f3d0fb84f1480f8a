// pkg/migrate/result.go
package migrate

import (
	"time"

	"github.com/google/uuid"
)

// TableResult records the outcome of one table's copy
type TableResult struct {
	Table      string
	RowsCopied int64
	Duration   time.Duration
}

// Result represents the outcome of a migration run. It is constructed
// progressively while the orchestrator works and finalized exactly once.
type Result struct {
	RunID       string
	SourceDB    string
	DestDB      string
	Tables      []TableResult
	TotalRows   int64
	Success     bool
	FailedStage ErrorCategory
	Err         error
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
}

// NewResult initializes a result for a run
func NewResult(sourceDB, destDB string) *Result {
	return &Result{
		RunID:     uuid.New().String(),
		SourceDB:  sourceDB,
		DestDB:    destDB,
		StartTime: time.Now(),
		Tables:    make([]TableResult, 0),
	}
}

// AddTableResult records one completed table copy
func (r *Result) AddTableResult(tr TableResult) {
	r.Tables = append(r.Tables, tr)
	r.TotalRows += tr.RowsCopied
}

// Complete marks the run successful and stamps the duration
func (r *Result) Complete() {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
	r.Success = true
}

// Fail records the first terminal failure and stamps the duration. Later
// calls are no-ops so the first encountered failure reason is preserved.
func (r *Result) Fail(err error) {
	if r.Err != nil {
		return
	}
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
	r.Success = false
	r.Err = err
	r.FailedStage = CategoryOf(err)
}

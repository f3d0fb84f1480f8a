// pkg/migrate/errors.go
package migrate

import (
	"errors"
	"fmt"
)

// ErrorCategory identifies which stage of a migration run failed. Every
// category is fatal to the run: this system performs no retries anywhere.
type ErrorCategory int

const (
	ErrorCategoryNone ErrorCategory = iota
	// ErrorCategoryConfiguration covers unknown plan tables and malformed
	// redaction positions, detected before any destination mutation
	ErrorCategoryConfiguration
	// ErrorCategoryCreation covers destination database creation failures
	ErrorCategoryCreation
	// ErrorCategorySchemaExport covers pg_dump failures on the source
	ErrorCategorySchemaExport
	// ErrorCategorySchemaImport covers pg_restore failures on the destination
	ErrorCategorySchemaImport
	// ErrorCategoryConnection covers session open and transaction begin failures
	ErrorCategoryConnection
	// ErrorCategoryRowRead covers source-side query and scan failures
	ErrorCategoryRowRead
	// ErrorCategoryRowWrite covers destination-side insert failures
	ErrorCategoryRowWrite
	// ErrorCategoryCommit covers a failure of the single destination commit
	ErrorCategoryCommit
)

// String returns a string representation of the error category
func (ec ErrorCategory) String() string {
	switch ec {
	case ErrorCategoryNone:
		return "None"
	case ErrorCategoryConfiguration:
		return "Configuration"
	case ErrorCategoryCreation:
		return "Creation"
	case ErrorCategorySchemaExport:
		return "SchemaExport"
	case ErrorCategorySchemaImport:
		return "SchemaImport"
	case ErrorCategoryConnection:
		return "Connection"
	case ErrorCategoryRowRead:
		return "RowRead"
	case ErrorCategoryRowWrite:
		return "RowWrite"
	case ErrorCategoryCommit:
		return "Commit"
	default:
		return fmt.Sprintf("Unknown(%d)", ec)
	}
}

// Error is the single terminal failure a migration run reports. It names the
// failed stage, the table being copied when relevant, and wraps the cause.
type Error struct {
	Category ErrorCategory
	Table    string
	Err      error
}

// NewError creates a migration error for a run-level stage
func NewError(category ErrorCategory, err error) *Error {
	return &Error{Category: category, Err: err}
}

// NewTableError creates a migration error attributed to one table's copy
func NewTableError(category ErrorCategory, table string, err error) *Error {
	return &Error{Category: category, Table: table, Err: err}
}

// Error returns a short diagnostic naming the failed stage and the reason
func (e *Error) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("[%s] table %s: %v", e.Category, e.Table, e.Err)
	}
	return fmt.Sprintf("[%s] %v", e.Category, e.Err)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// CategoryOf extracts the failure category from err, or ErrorCategoryNone if
// err is not a migration error
func CategoryOf(err error) ErrorCategory {
	var me *Error
	if errors.As(err, &me) {
		return me.Category
	}
	return ErrorCategoryNone
}

// pkg/redact/redact.go
package redact

import (
	"fmt"
)

// Sentinel is the marker written into every redacted column. Staging consumers
// can rely on this exact string to recognize scrubbed values.
const Sentinel = "REDACTED"

// Row is an ordered sequence of column values, positionally aligned with the
// column order of the source query that produced it.
type Row []interface{}

// Redact returns a copy of row with every index in positions replaced by
// Sentinel. The input row is never mutated; non-redacted values are carried
// over unchanged.
//
// A position outside [0, len(row)) means the rule table and the actual table
// schema have drifted apart. That is never tolerated silently: the caller gets
// an error and must abort the run.
func Redact(row Row, positions []int) (Row, error) {
	for _, pos := range positions {
		if pos < 0 || pos >= len(row) {
			return nil, fmt.Errorf("redaction position %d out of range for row of %d columns", pos, len(row))
		}
	}

	out := make(Row, len(row))
	copy(out, row)
	for _, pos := range positions {
		out[pos] = Sentinel
	}
	return out, nil
}

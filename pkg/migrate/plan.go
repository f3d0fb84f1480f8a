// pkg/migrate/plan.go
package migrate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kmshelley/arcadia-db-migration/pkg/redact"
)

// DefaultPlanSpec is the fixed production migration set: account with the full
// name scrubbed, address with the street address scrubbed, statement verbatim.
const DefaultPlanSpec = "account:1|address:2|statement"

// Plan is the ordered list of tables to migrate. Order matters where the
// destination enforces foreign keys (parents before children); the plan's
// author is responsible for a valid order, the orchestrator does not infer
// dependencies.
type Plan struct {
	Tables []string
}

// Validate checks, before any destination mutation, that every plan table has
// an explicit redaction rule
func (p *Plan) Validate(rules *redact.RuleSet) error {
	if len(p.Tables) == 0 {
		return fmt.Errorf("migration plan contains no tables")
	}

	seen := make(map[string]bool, len(p.Tables))
	for _, table := range p.Tables {
		if seen[table] {
			return fmt.Errorf("table %q appears twice in migration plan", table)
		}
		seen[table] = true

		if _, err := rules.RulesFor(table); err != nil {
			return err
		}
	}
	return nil
}

// ParsePlanSpec parses a plan specification into an ordered plan and its rule
// set. The format is pipe-separated table entries, each optionally carrying
// comma-separated redaction positions:
//
//	account:1|address:2|statement
//
// An empty spec yields the default production plan.
func ParsePlanSpec(spec string) (*Plan, *redact.RuleSet, error) {
	if strings.TrimSpace(spec) == "" {
		spec = DefaultPlanSpec
	}

	var (
		tables []string
		rules  []redact.Rule
	)

	for _, entry := range strings.Split(spec, "|") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		name := entry
		var positions []int
		if idx := strings.Index(entry, ":"); idx >= 0 {
			name = strings.TrimSpace(entry[:idx])
			for _, field := range strings.Split(entry[idx+1:], ",") {
				field = strings.TrimSpace(field)
				if field == "" {
					continue
				}
				pos, err := strconv.Atoi(field)
				if err != nil {
					return nil, nil, fmt.Errorf("plan entry %q: invalid column position %q", entry, field)
				}
				positions = append(positions, pos)
			}
		}
		if name == "" {
			return nil, nil, fmt.Errorf("plan entry %q: missing table name", entry)
		}

		tables = append(tables, name)
		rules = append(rules, redact.Rule{Table: name, Positions: positions})
	}

	ruleSet, err := redact.NewRuleSet(rules)
	if err != nil {
		return nil, nil, err
	}

	plan := &Plan{Tables: tables}
	if err := plan.Validate(ruleSet); err != nil {
		return nil, nil, err
	}

	return plan, ruleSet, nil
}

// pkg/redact/rules.go
package redact

import (
	"fmt"
	"sort"
)

// Rule identifies a table and the zero-based column positions that hold PII.
// An empty Positions slice means the table is copied verbatim.
type Rule struct {
	Table     string
	Positions []int
}

// RuleSet is the process-wide, read-only mapping from table name to its Rule.
// It is built once at startup and never modified afterwards.
type RuleSet struct {
	rules map[string]Rule
}

// NewRuleSet builds a RuleSet from the given rules. Duplicate tables and
// negative positions are configuration errors reported immediately, before any
// database is touched.
func NewRuleSet(rules []Rule) (*RuleSet, error) {
	byTable := make(map[string]Rule, len(rules))
	for _, rule := range rules {
		if rule.Table == "" {
			return nil, fmt.Errorf("redaction rule with empty table name")
		}
		if _, exists := byTable[rule.Table]; exists {
			return nil, fmt.Errorf("duplicate redaction rule for table %q", rule.Table)
		}
		for _, pos := range rule.Positions {
			if pos < 0 {
				return nil, fmt.Errorf("table %q: negative redaction position %d", rule.Table, pos)
			}
		}

		// Normalized position order keeps logs and tests deterministic
		positions := append([]int(nil), rule.Positions...)
		sort.Ints(positions)
		byTable[rule.Table] = Rule{Table: rule.Table, Positions: positions}
	}

	return &RuleSet{rules: byTable}, nil
}

// RulesFor returns the redaction rule for table. An unknown table is a
// configuration error: every table in a migration plan must have an explicit
// rule, even if that rule redacts nothing.
func (rs *RuleSet) RulesFor(table string) (Rule, error) {
	rule, ok := rs.rules[table]
	if !ok {
		return Rule{}, fmt.Errorf("no redaction rule defined for table %q", table)
	}
	return rule, nil
}

// Tables returns the rule table names in sorted order
func (rs *RuleSet) Tables() []string {
	tables := make([]string, 0, len(rs.rules))
	for table := range rs.rules {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	return tables
}

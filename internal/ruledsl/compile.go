package ruledsl

import "fmt"

// RulePredicate is a compiled rule expression ready for repeated,
// allocation-free evaluation against an enriched context.
type RulePredicate = Node

// Compile parses and compiles a rule DSL source string into a RulePredicate.
// The source is typically produced by the internal/upgrade package from a
// Toggle's strategies, constraints, and segments, but Compile itself knows
// nothing about that origin: it only understands the grammar.
func Compile(source string) (RulePredicate, error) {
	node, err := parseExpr(source)
	if err != nil {
		return nil, fmt.Errorf("ruledsl: compile: %w", err)
	}
	return node, nil
}

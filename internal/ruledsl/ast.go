package ruledsl

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/ygg-project/yggcore/internal/ctx"
	"github.com/ygg-project/yggcore/internal/hashing"
)

// randIntn is overridden by tests that need deterministic "random" and
// stickiness-fallback behavior.
var randIntn = func(n int) int { return rand.IntN(n) }

// Node is one compiled rule DSL expression. It is immutable after
// construction and safe to evaluate from any number of goroutines
// concurrently, satisfying the spec's tagged-AST preference over captured
// closures (see DESIGN.md Open Question 1).
type Node interface {
	Eval(c ctx.EnrichedContext) bool
}

// Const is a literal true/false.
type Const bool

func (n Const) Eval(ctx.EnrichedContext) bool { return bool(n) }

// Not inverts its operand. Rollout nodes are never wrapped by Not; the
// upgrader and parser both guarantee that.
type Not struct{ Operand Node }

func (n Not) Eval(c ctx.EnrichedContext) bool { return !n.Operand.Eval(c) }

// And is left-associative conjunction.
type And struct{ Left, Right Node }

func (n And) Eval(c ctx.EnrichedContext) bool { return n.Left.Eval(c) && n.Right.Eval(c) }

// Or is left-associative disjunction.
type Or struct{ Left, Right Node }

func (n Or) Eval(c ctx.EnrichedContext) bool { return n.Left.Eval(c) || n.Right.Eval(c) }

// contextValue resolves a context field token, including the special
// "random" token (a fresh value per evaluation) and "context[\"name\"]"
// arbitrary property lookups (already unwrapped into a plain name by the
// parser).
func contextValue(c ctx.EnrichedContext, field string) (string, bool) {
	if field == "random" {
		return strconv.Itoa(randIntn(100)), true
	}
	return c.Field(field)
}

const numericEpsilon = 1e-9

// NumericCompare implements <, <=, ==, >=, > over a context value parsed as
// a float64. Absent or unparseable context values are false regardless of
// operator or inversion (inversion is applied by a surrounding Not node,
// never folded in here).
type NumericCompare struct {
	Field string
	Op    OrdOp
	Value float64
}

func (n NumericCompare) Eval(c ctx.EnrichedContext) bool {
	raw, ok := contextValue(c, n.Field)
	if !ok {
		return false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return false
	}
	return compareOrdinal(n.Op, v, n.Value, numericEpsilon)
}

// SemverCompare implements <, <=, ==, >=, > over semantic versions.
type SemverCompare struct {
	Field string
	Op    OrdOp
	Value *semver.Version
}

func (n SemverCompare) Eval(c ctx.EnrichedContext) bool {
	raw, ok := contextValue(c, n.Field)
	if !ok {
		return false
	}
	v, err := semver.NewVersion(raw)
	if err != nil {
		return false
	}
	cmp := v.Compare(n.Value)
	switch n.Op {
	case OpLt:
		return cmp < 0
	case OpLte:
		return cmp <= 0
	case OpEq:
		return cmp == 0
	case OpGte:
		return cmp >= 0
	case OpGt:
		return cmp > 0
	default:
		return false
	}
}

// DateCompare implements <, <=, ==, >=, > over RFC3339 instants (UTC).
type DateCompare struct {
	Field string
	Op    OrdOp
	Value time.Time
}

func (n DateCompare) Eval(c ctx.EnrichedContext) bool {
	raw, ok := contextValue(c, n.Field)
	if !ok {
		return false
	}
	v, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return false
	}
	v = v.UTC()
	switch n.Op {
	case OpLt:
		return v.Before(n.Value)
	case OpLte:
		return v.Before(n.Value) || v.Equal(n.Value)
	case OpEq:
		return v.Equal(n.Value)
	case OpGte:
		return v.After(n.Value) || v.Equal(n.Value)
	case OpGt:
		return v.After(n.Value)
	default:
		return false
	}
}

// InList implements membership over a string list.
type InList struct {
	Field  string
	Values []string
}

func (n InList) Eval(c ctx.EnrichedContext) bool {
	raw, ok := contextValue(c, n.Field)
	if !ok {
		return false
	}
	for _, v := range n.Values {
		if v == raw {
			return true
		}
	}
	return false
}

// NotInList implements non-membership. Unlike every other operator, an
// absent context value makes NotInList true directly (not via an Not
// wrapper) per the spec's explicit absence policy.
type NotInList struct {
	Field  string
	Values []string
}

func (n NotInList) Eval(c ctx.EnrichedContext) bool {
	raw, ok := contextValue(c, n.Field)
	if !ok {
		return true
	}
	for _, v := range n.Values {
		if v == raw {
			return false
		}
	}
	return true
}

// FragmentKind distinguishes the three string fragment operators.
type FragmentKind int

const (
	FragStartsWith FragmentKind = iota
	FragEndsWith
	FragContains
)

// Fragment implements {starts,ends,contains}_with_any[_ignore_case].
type Fragment struct {
	Field        string
	Kind         FragmentKind
	Values       []string
	IgnoreCase   bool
}

func (n Fragment) Eval(c ctx.EnrichedContext) bool {
	raw, ok := contextValue(c, n.Field)
	if !ok {
		return false
	}
	subject := raw
	if n.IgnoreCase {
		subject = strings.ToLower(subject)
	}
	for _, frag := range n.Values {
		candidate := frag
		if n.IgnoreCase {
			candidate = strings.ToLower(candidate)
		}
		var match bool
		switch n.Kind {
		case FragStartsWith:
			match = strings.HasPrefix(subject, candidate)
		case FragEndsWith:
			match = strings.HasSuffix(subject, candidate)
		case FragContains:
			match = strings.Contains(subject, candidate)
		}
		if match {
			return true
		}
	}
	return false
}

// ExternalValue looks up a caller-supplied boolean strategy result. Absence
// is false even when this node would otherwise be inverted: the parser
// never wraps ExternalValue in a Not, it bakes inversion in directly, so
// that absence always yields false regardless of the source rule's `!`.
type ExternalValue struct {
	Name     string
	Inverted bool
}

func (n ExternalValue) Eval(c ctx.EnrichedContext) bool {
	v, ok := c.ExternalValue(n.Name)
	if !ok {
		return false
	}
	if n.Inverted {
		return !v
	}
	return v
}

// Rollout implements "P% sticky on <stickiness> [with group_id of "g"]".
// Rollout nodes are never inverted (the grammar has no production for
// `!<rollout>`).
type Rollout struct {
	Percent    float64
	Stickiness []string // pipe-coalesce chain, e.g. ["user_id", "session_id", "random"]
	GroupID    string
}

func (n Rollout) Eval(c ctx.EnrichedContext) bool {
	seed, ok := resolveStickiness(c, n.Stickiness)
	if !ok {
		// No declared stickiness field resolved (and "random" wasn't in the
		// chain to catch it): fail closed rather than drawing a random seed.
		return false
	}
	groupID := n.GroupID
	if groupID == "" {
		groupID = c.ToggleName
	}
	bucket, err := hashing.NormalizeDefault(groupID, seed, 100)
	if err != nil {
		return false
	}
	return float64(bucket) <= n.Percent
}

// resolveStickiness walks a pipe-coalesce chain of field tokens, returning
// the first one that resolves to a non-empty value. "random" always
// resolves (to a fresh value) and so terminates the chain if reached.
func resolveStickiness(c ctx.EnrichedContext, chain []string) (string, bool) {
	for _, field := range chain {
		if field == "random" {
			return strconv.Itoa(randIntn(100)), true
		}
		if v, ok := c.Field(field); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// OrdOp enumerates the ordinal comparison operators.
type OrdOp int

const (
	OpLt OrdOp = iota
	OpLte
	OpEq
	OpGte
	OpGt
)

func compareOrdinal(op OrdOp, a, b, epsilon float64) bool {
	switch op {
	case OpLt:
		return a < b
	case OpLte:
		return a <= b
	case OpEq:
		d := a - b
		if d < 0 {
			d = -d
		}
		return d < epsilon
	case OpGte:
		return a >= b
	case OpGt:
		return a > b
	default:
		return false
	}
}

func parseOrdOp(s string) (OrdOp, bool) {
	switch s {
	case "<":
		return OpLt, true
	case "<=":
		return OpLte, true
	case "==":
		return OpEq, true
	case ">=":
		return OpGte, true
	case ">":
		return OpGt, true
	default:
		return 0, false
	}
}

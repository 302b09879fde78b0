package ruledsl

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/alecthomas/participle/v2/lexer"
)

// parser walks a flat token stream produced by dslLexer. Primaries
// (constraints, literals, rollout and external_value expressions) are
// consumed by recursive descent; the and/or infix chain that connects
// primaries together is folded afterward by foldPrecedence, mirroring the
// PEG-plus-Pratt-parser split in strategy_parsing.rs.
type parser struct {
	tokens []lexer.Token
	pos    int
}

func newParser(src string) (*parser, error) {
	lex, err := dslLexer.Lex("rule", strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("ruledsl: lex: %w", err)
	}
	toks, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, fmt.Errorf("ruledsl: lex: %w", err)
	}
	filtered := toks[:0]
	for _, t := range toks {
		if dslLexer.Symbols()["Whitespace"] == t.Type || dslLexer.Symbols()["EOL"] == t.Type {
			continue
		}
		filtered = append(filtered, t)
	}
	return &parser{tokens: filtered}, nil
}

func (p *parser) peek() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.EOFToken(lexer.Position{})
	}
	return p.tokens[p.pos]
}

func (p *parser) next() lexer.Token {
	t := p.peek()
	p.pos++
	return t
}

func (p *parser) atEOF() bool {
	return p.pos >= len(p.tokens) || p.peek().EOF()
}

func (p *parser) expectValue(v string) error {
	t := p.next()
	if !strings.EqualFold(t.Value, v) {
		return fmt.Errorf("ruledsl: expected %q, got %q at position %d", v, t.Value, t.Pos.Offset)
	}
	return nil
}

// parseExpr parses a full expression: a chain of primaries joined by
// and/or, folded by precedence (and binds tighter than or, both
// left-associative).
func parseExpr(src string) (Node, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	var primaries []Node
	var ops []string
	first, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	primaries = append(primaries, first)
	for !p.atEOF() {
		op := strings.ToLower(p.peek().Value)
		if op != "and" && op != "or" {
			return nil, fmt.Errorf("ruledsl: unexpected token %q at position %d", p.peek().Value, p.peek().Pos.Offset)
		}
		p.next()
		next, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
		primaries = append(primaries, next)
	}
	return foldPrecedence(primaries, ops), nil
}

// foldPrecedence folds a flat primaries/ops chain into a tree, giving `and`
// higher precedence than `or`; both operators are left-associative.
func foldPrecedence(primaries []Node, ops []string) Node {
	// First pass: fold every `and` run into a single node.
	var orPrimaries []Node
	cur := primaries[0]
	for i, op := range ops {
		next := primaries[i+1]
		if op == "and" {
			cur = And{Left: cur, Right: next}
		} else {
			orPrimaries = append(orPrimaries, cur)
			cur = next
		}
	}
	orPrimaries = append(orPrimaries, cur)
	result := orPrimaries[0]
	for _, n := range orPrimaries[1:] {
		result = Or{Left: result, Right: n}
	}
	return result
}

func (p *parser) parsePrimary() (Node, error) {
	t := p.peek()
	switch {
	case t.Value == "!":
		p.next()
		operand, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		if _, ok := operand.(Rollout); ok {
			return nil, fmt.Errorf("ruledsl: a rollout cannot be inverted")
		}
		if ev, ok := operand.(ExternalValue); ok {
			ev.Inverted = !ev.Inverted
			return ev, nil
		}
		return Not{Operand: operand}, nil
	case t.Value == "(":
		p.next()
		inner, err := p.parseExprTokens()
		if err != nil {
			return nil, err
		}
		if err := p.expectValue(")"); err != nil {
			return nil, err
		}
		return inner, nil
	case strings.EqualFold(t.Value, "true"):
		p.next()
		return Const(true), nil
	case strings.EqualFold(t.Value, "false"):
		p.next()
		return Const(false), nil
	case strings.HasSuffix(t.Value, "%"):
		return p.parseRollout()
	case strings.EqualFold(t.Value, "external_value"):
		return p.parseExternalValue()
	default:
		return p.parseFieldPredicate()
	}
}

// parseExprTokens parses a parenthesized sub-expression using the same
// primary/and-or/fold logic as parseExpr, but against the shared token
// cursor rather than a fresh lexer pass.
func (p *parser) parseExprTokens() (Node, error) {
	var primaries []Node
	var ops []string
	first, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	primaries = append(primaries, first)
	for !p.atEOF() && p.peek().Value != ")" {
		op := strings.ToLower(p.peek().Value)
		if op != "and" && op != "or" {
			return nil, fmt.Errorf("ruledsl: unexpected token %q at position %d", p.peek().Value, p.peek().Pos.Offset)
		}
		p.next()
		next, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
		primaries = append(primaries, next)
	}
	return foldPrecedence(primaries, ops), nil
}

func (p *parser) parseRollout() (Node, error) {
	pctTok := p.next()
	pctStr := strings.TrimSuffix(pctTok.Value, "%")
	pct, err := strconv.ParseFloat(pctStr, 64)
	if err != nil {
		return nil, fmt.Errorf("ruledsl: invalid rollout percent %q: %w", pctTok.Value, err)
	}
	if err := p.expectValue("sticky"); err != nil {
		return nil, err
	}
	if err := p.expectValue("on"); err != nil {
		return nil, err
	}
	chain := []string{p.next().Value}
	for p.peek().Value == "|" {
		p.next()
		chain = append(chain, p.next().Value)
	}
	groupID := ""
	if strings.EqualFold(p.peek().Value, "with") {
		p.next()
		if err := p.expectValue("group_id"); err != nil {
			return nil, err
		}
		if err := p.expectValue("of"); err != nil {
			return nil, err
		}
		groupID = unquote(p.next().Value)
	}
	return Rollout{Percent: pct, Stickiness: chain, GroupID: groupID}, nil
}

func (p *parser) parseExternalValue() (Node, error) {
	p.next() // external_value
	if err := p.expectValue("["); err != nil {
		return nil, err
	}
	name := unquote(p.next().Value)
	if err := p.expectValue("]"); err != nil {
		return nil, err
	}
	return ExternalValue{Name: name}, nil
}

func (p *parser) parseFieldPredicate() (Node, error) {
	field := p.next().Value
	if field == "context" && p.peek().Value == "[" {
		p.next()
		field = unquote(p.next().Value)
		if err := p.expectValue("]"); err != nil {
			return nil, err
		}
	}
	op := p.peek()
	switch {
	case op.Value == "<" || op.Value == "<=" || op.Value == "==" || op.Value == ">=" || op.Value == ">":
		p.next()
		literal := p.next().Value
		return buildCompareNode(field, op.Value, literal)
	case strings.EqualFold(op.Value, "not_in"):
		p.next()
		values, err := p.parseStringList()
		if err != nil {
			return nil, err
		}
		return NotInList{Field: field, Values: values}, nil
	case strings.EqualFold(op.Value, "in"):
		p.next()
		values, err := p.parseStringList()
		if err != nil {
			return nil, err
		}
		return InList{Field: field, Values: values}, nil
	case isFragmentOp(op.Value):
		kind, ignoreCase := fragmentKindOf(op.Value)
		p.next()
		values, err := p.parseStringList()
		if err != nil {
			return nil, err
		}
		return Fragment{Field: field, Kind: kind, Values: values, IgnoreCase: ignoreCase}, nil
	default:
		return nil, fmt.Errorf("ruledsl: unexpected operator %q after field %q", op.Value, field)
	}
}

func isFragmentOp(v string) bool {
	switch strings.ToLower(v) {
	case "starts_with_any", "starts_with_any_ignore_case",
		"ends_with_any", "ends_with_any_ignore_case",
		"contains_any", "contains_any_ignore_case":
		return true
	default:
		return false
	}
}

func fragmentKindOf(v string) (FragmentKind, bool) {
	lower := strings.ToLower(v)
	ignoreCase := strings.HasSuffix(lower, "_ignore_case")
	switch {
	case strings.HasPrefix(lower, "starts_with_any"):
		return FragStartsWith, ignoreCase
	case strings.HasPrefix(lower, "ends_with_any"):
		return FragEndsWith, ignoreCase
	default:
		return FragContains, ignoreCase
	}
}

func (p *parser) parseStringList() ([]string, error) {
	if err := p.expectValue("["); err != nil {
		return nil, err
	}
	var out []string
	if p.peek().Value != "]" {
		out = append(out, unquote(p.next().Value))
		for p.peek().Value == "," {
			p.next()
			out = append(out, unquote(p.next().Value))
		}
	}
	if err := p.expectValue("]"); err != nil {
		return nil, err
	}
	return out, nil
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return strings.ReplaceAll(s, `\"`, `"`)
}

var (
	dateShape   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T`)
	semverShape = regexp.MustCompile(`^\d+\.\d+\.\d+`)
)

// buildCompareNode classifies a literal by its textual shape (date, semver,
// or plain number) and builds the matching ordinal comparison node. Bare
// (unquoted) numbers are always numeric; quoted strings are classified by
// shape, since the grammar has no distinct lexical class per comparison
// kind.
func buildCompareNode(field, opStr, literal string) (Node, error) {
	op, ok := parseOrdOp(opStr)
	if !ok {
		return nil, fmt.Errorf("ruledsl: unknown comparison operator %q", opStr)
	}
	if len(literal) >= 2 && literal[0] == '"' {
		raw := unquote(literal)
		switch {
		case dateShape.MatchString(raw):
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return nil, fmt.Errorf("ruledsl: invalid date literal %q: %w", raw, err)
			}
			return DateCompare{Field: field, Op: op, Value: t.UTC()}, nil
		case semverShape.MatchString(raw):
			v, err := semver.NewVersion(raw)
			if err != nil {
				return nil, fmt.Errorf("ruledsl: invalid semver literal %q: %w", raw, err)
			}
			return SemverCompare{Field: field, Op: op, Value: v}, nil
		default:
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("ruledsl: unclassifiable literal %q", raw)
			}
			return NumericCompare{Field: field, Op: op, Value: f}, nil
		}
	}
	f, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		return nil, fmt.Errorf("ruledsl: invalid numeric literal %q: %w", literal, err)
	}
	return NumericCompare{Field: field, Op: op, Value: f}, nil
}

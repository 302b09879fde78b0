// Package ruledsl implements the rule DSL: a small expression grammar over
// an evaluation context, compiled once into a tagged-AST RulePredicate and
// then evaluated without any further string parsing.
//
// Grounded on original_source/unleash-yggdrasil/src/strategy_parsing.rs: a
// PEG grammar for primaries (constraints, literals, rollout expressions),
// with `and`/`or` folded separately by a precedence climber over the flat
// token stream the grammar produces. Tokenizing is delegated to
// github.com/alecthomas/participle/v2/lexer; parsing the primaries and
// folding and/or precedence is hand-rolled on top of that token stream,
// mirroring the pest-PEG-plus-PrattParser split in the source.
package ruledsl

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// dslLexer describes the rule DSL's lexical grammar. Order matters: longer
// keyword-like alternatives must be tried before the generic Ident rule.
var dslLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
	{Name: "String", Pattern: `"(\\"|[^"])*"`},
	{Name: "Percent", Pattern: `\d+(\.\d+)?%`},
	{Name: "Number", Pattern: `-?\d+(\.\d+)?`},
	{Name: "EndsWithAnyIC", Pattern: `ends_with_any_ignore_case`},
	{Name: "EndsWithAny", Pattern: `ends_with_any`},
	{Name: "StartsWithAnyIC", Pattern: `starts_with_any_ignore_case`},
	{Name: "StartsWithAny", Pattern: `starts_with_any`},
	{Name: "ContainsAnyIC", Pattern: `contains_any_ignore_case`},
	{Name: "ContainsAny", Pattern: `contains_any`},
	{Name: "NotIn", Pattern: `not_in`},
	{Name: "ExternalValue", Pattern: `external_value`},
	{Name: "GroupID", Pattern: `group_id`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Op", Pattern: `<=|>=|==|<|>`},
	{Name: "Punct", Pattern: `[()\[\],!|]`},
	{Name: "EOL", Pattern: `\n`},
})

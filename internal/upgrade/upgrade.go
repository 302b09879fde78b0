// Package upgrade rewrites a Toggle's legacy strategy/constraint/segment
// definitions into rule DSL source text that internal/ruledsl can compile.
//
// Grounded on original_source/unleash-yggdrasil/src/strategy_upgrade.rs,
// ported function-for-function including its string formatting quirks
// (comma-with-space vs comma-without-space join styles differ by call
// site in the source and are preserved here).
package upgrade

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ygg-project/yggcore/internal/model"
)

const defaultStickiness = "user_id | session_id | random"

// Upgrade rewrites a toggle's strategies (resolving any segment references
// via segments) into a single rule DSL source string, OR-joining one clause
// per strategy. A toggle with no strategies upgrades to the literal "true".
func Upgrade(strategies []model.Strategy, segments map[int]model.Segment) string {
	if len(strategies) == 0 {
		return "true"
	}
	clauses := make([]string, len(strategies))
	for i, s := range strategies {
		clauses[i] = upgradeStrategy(s, segments)
	}
	return strings.Join(clauses, " or ")
}

// VariantRule is one strategy's upgraded rule paired with the variants and
// stickiness parameter that apply only when that strategy matches.
type VariantRule struct {
	Rule       string
	Variants   []model.Variant
	Stickiness string
}

// BuildVariantRules collects the per-strategy variant sets, each tagged
// with the rule that must hold for those variants to be in play.
func BuildVariantRules(strategies []model.Strategy, segments map[int]model.Segment) []VariantRule {
	var out []VariantRule
	for _, s := range strategies {
		if len(s.Variants) == 0 {
			continue
		}
		stickiness := "default"
		if v, ok := s.Param("stickiness"); ok {
			stickiness = v
		}
		out = append(out, VariantRule{
			Rule:       upgradeStrategy(s, segments),
			Variants:   s.Variants,
			Stickiness: stickiness,
		})
	}
	return out
}

func upgradeStrategy(s model.Strategy, segments map[int]model.Segment) string {
	var strategyRule string
	switch s.Name {
	case "default":
		strategyRule = "true"
	case "userWithId":
		strategyRule = upgradeUserIDStrategy(s)
	case "gradualRolloutUserId":
		strategyRule = upgradeUserIDRollout(s)
	case "gradualRolloutSessionId":
		strategyRule = upgradeSessionIDRollout(s)
	case "gradualRolloutRandom":
		strategyRule = upgradeRandom(s)
	case "flexibleRollout":
		strategyRule = upgradeFlexibleRollout(s)
	case "remoteAddress":
		strategyRule = upgradeRemoteAddress(s)
	default:
		strategyRule = "true"
	}

	var segmentConstraints []model.Constraint
	for _, id := range s.Segments {
		seg, ok := segments[id]
		if !ok {
			// A referenced segment is missing: the whole strategy is broken
			// and must default to false.
			return "false"
		}
		segmentConstraints = append(segmentConstraints, seg.Constraints...)
	}

	raw := append(append([]model.Constraint{}, s.Constraints...), segmentConstraints...)
	constraints := upgradeConstraints(raw)
	if constraints == "" {
		return strategyRule
	}
	return fmt.Sprintf("(%s and (%s))", strategyRule, constraints)
}

func upgradeFlexibleRollout(s model.Strategy) string {
	rollout, ok := s.Param("rollout")
	if !ok {
		return "false"
	}
	stickinessParam, _ := s.Param("stickiness")
	rule := fmt.Sprintf("%s%% sticky on %s", rollout, upgradeStickiness(stickinessParam))
	if groupID, ok := s.Param("groupId"); ok {
		rule = fmt.Sprintf("%s with group_id of %q", rule, groupID)
	}
	return rule
}

func upgradeUserIDStrategy(s model.Strategy) string {
	userIDs, ok := s.Param("userIds")
	if !ok {
		return ""
	}
	parts := strings.Split(userIDs, ",")
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = strconv.Quote(strings.TrimSpace(p))
	}
	return fmt.Sprintf("user_id in [%s]", strings.Join(quoted, ","))
}

func upgradeRemoteAddress(s model.Strategy) string {
	ips, ok := s.Param("IPs")
	if !ok {
		return ""
	}
	parts := strings.Split(ips, ",")
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = strconv.Quote(strings.TrimSpace(p))
	}
	return fmt.Sprintf("remote_address in [%s]", strings.Join(quoted, ", "))
}

func upgradeSessionIDRollout(s model.Strategy) string {
	percentage, ok1 := s.Param("percentage")
	groupID, ok2 := s.Param("groupId")
	if !ok1 || !ok2 {
		return ""
	}
	return fmt.Sprintf("%s%% sticky on session_id with group_id of %q", percentage, groupID)
}

func upgradeUserIDRollout(s model.Strategy) string {
	percentage, ok1 := s.Param("percentage")
	groupID, ok2 := s.Param("groupId")
	if !ok1 || !ok2 {
		return ""
	}
	return fmt.Sprintf("%s%% sticky on user_id with group_id of %q", percentage, groupID)
}

func upgradeRandom(s model.Strategy) string {
	percent, ok := s.Param("percentage")
	if !ok {
		return ""
	}
	return fmt.Sprintf("random < %s", percent)
}

func upgradeConstraints(constraints []model.Constraint) string {
	if len(constraints) == 0 {
		return ""
	}
	parts := make([]string, len(constraints))
	for i, c := range constraints {
		parts[i] = upgradeConstraint(c)
	}
	return strings.Join(parts, " and ")
}

func isStringy(op model.Operator) bool {
	switch op {
	case model.OpNotIn, model.OpIn, model.OpStrEndsWith, model.OpStrStartsWith, model.OpStrContains:
		return true
	default:
		return false
	}
}

func upgradeConstraint(c model.Constraint) string {
	contextName := upgradeContextName(c.ContextName)
	op, ok := upgradeOperator(c.Operator, c.CaseInsensitive)
	if !ok {
		return "false"
	}
	inversion := ""
	if c.Inverted {
		inversion = "!"
	}

	var value string
	if isStringy(c.Operator) {
		quoted := make([]string, len(c.Values))
		for i, v := range c.Values {
			quoted[i] = strconv.Quote(v)
		}
		value = fmt.Sprintf("[%s]", strings.Join(quoted, ", "))
	} else {
		switch c.Operator {
		case model.OpSemverEq, model.OpSemverLt, model.OpSemverGt:
			if strings.HasPrefix(c.Value, "v") {
				// Reject broken semver literals at upgrade time rather than
				// teaching the grammar about them.
				return "false"
			}
			// Quoted so the lexer's bare Number rule (one optional decimal
			// group) doesn't choke on a multi-part semver string; the parser
			// shape-sniffs quoted literals back into a SemverCompare.
			value = strconv.Quote(c.Value)
		case model.OpDateAfter, model.OpDateBefore:
			// Same reasoning: an RFC3339 timestamp isn't a bare Number either.
			value = strconv.Quote(c.Value)
		default:
			value = c.Value
		}
	}
	return fmt.Sprintf("%s%s %s %s", inversion, contextName, op, value)
}

func upgradeOperator(op model.Operator, caseInsensitive bool) (string, bool) {
	switch op {
	case model.OpIn:
		return "in", true
	case model.OpNotIn:
		return "not_in", true
	case model.OpStrEndsWith:
		if caseInsensitive {
			return "ends_with_any_ignore_case", true
		}
		return "ends_with_any", true
	case model.OpStrStartsWith:
		if caseInsensitive {
			return "starts_with_any_ignore_case", true
		}
		return "starts_with_any", true
	case model.OpStrContains:
		if caseInsensitive {
			return "contains_any_ignore_case", true
		}
		return "contains_any", true
	case model.OpNumEq, model.OpSemverEq:
		return "==", true
	case model.OpNumGt, model.OpDateAfter, model.OpSemverGt:
		return ">", true
	case model.OpNumGte:
		return ">=", true
	case model.OpNumLt, model.OpDateBefore, model.OpSemverLt:
		return "<", true
	case model.OpNumLte:
		return "<=", true
	default:
		return "", false
	}
}

func upgradeStickiness(stickinessParam string) string {
	switch stickinessParam {
	case "":
		return defaultStickiness
	case "random":
		return "random"
	case "default":
		return defaultStickiness
	default:
		return upgradeContextName(stickinessParam)
	}
}

func upgradeContextName(contextName string) string {
	switch contextName {
	case "userId":
		return "user_id"
	case "sessionId":
		return "session_id"
	case "currentTime":
		return "current_time"
	case "environment":
		return "environment"
	case "appName":
		return "app_name"
	case "remoteAddress":
		return "remote_address"
	default:
		return fmt.Sprintf("context[%q]", contextName)
	}
}

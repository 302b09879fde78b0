package upgrade

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ygg-project/yggcore/internal/model"
	"github.com/ygg-project/yggcore/internal/ruledsl"
)

func TestNoStrategyIsAlwaysTrue(t *testing.T) {
	require.Equal(t, "true", Upgrade(nil, nil))
}

func TestStrategyWithNoConstraintsHasNoEffect(t *testing.T) {
	s := model.Strategy{
		Name:       "userWithId",
		Parameters: map[string]string{"userIds": "123, 222, 88"},
	}
	require.Equal(t, `user_id in ["123","222","88"]`, Upgrade([]model.Strategy{s}, nil))
}

func TestAddsParenthesisToConstrainedStrategy(t *testing.T) {
	s := model.Strategy{
		Name: "default",
		Constraints: []model.Constraint{
			{ContextName: "userId", Operator: model.OpIn, Values: []string{"7"}},
		},
	}
	require.Equal(t, `(true and (user_id in ["7"]))`, Upgrade([]model.Strategy{s}, nil))
}

func TestMultipleConstraintsAreChainedWithAnds(t *testing.T) {
	c := model.Constraint{ContextName: "userId", Operator: model.OpIn, Values: []string{"7"}}
	s := model.Strategy{Name: "default", Constraints: []model.Constraint{c, c}}
	require.Equal(t, `(true and (user_id in ["7"] and user_id in ["7"]))`, Upgrade([]model.Strategy{s}, nil))
}

func TestMultipleStrategiesAreChainedWithOrs(t *testing.T) {
	s := model.Strategy{Name: "default"}
	require.Equal(t, "true or true", Upgrade([]model.Strategy{s, s}, nil))
}

func TestUpgradesArbitraryContextCorrectly(t *testing.T) {
	s := model.Strategy{
		Name: "default",
		Constraints: []model.Constraint{
			{ContextName: "country", Operator: model.OpIn, Values: []string{"norway"}},
		},
	}
	require.Equal(t, `(true and (context["country"] in ["norway"]))`, Upgrade([]model.Strategy{s}, nil))
}

func TestUpgradesFlexibleRolloutWithAllParameters(t *testing.T) {
	s := model.Strategy{
		Name: "flexibleRollout",
		Parameters: map[string]string{
			"rollout":    "55",
			"stickiness": "userId",
			"groupId":    "Feature.flexibleRollout.userId.55",
		},
	}
	require.Equal(t, `55% sticky on user_id with group_id of "Feature.flexibleRollout.userId.55"`, Upgrade([]model.Strategy{s}, nil))
}

func TestUpgradesFlexibleRolloutWithoutGroupID(t *testing.T) {
	s := model.Strategy{
		Name:       "flexibleRollout",
		Parameters: map[string]string{"rollout": "55", "stickiness": "userId"},
	}
	require.Equal(t, "55% sticky on user_id", Upgrade([]model.Strategy{s}, nil))
}

func TestUpgradesFlexibleRolloutWithoutStickiness(t *testing.T) {
	s := model.Strategy{
		Name: "flexibleRollout",
		Parameters: map[string]string{
			"rollout": "55",
			"groupId": "Feature.flexibleRollout.userId.55",
		},
	}
	require.Equal(t, `55% sticky on user_id | session_id | random with group_id of "Feature.flexibleRollout.userId.55"`, Upgrade([]model.Strategy{s}, nil))
}

func TestUpgradesFlexibleRolloutWithRandomStickiness(t *testing.T) {
	s := model.Strategy{
		Name: "flexibleRollout",
		Parameters: map[string]string{
			"rollout":    "55",
			"stickiness": "random",
			"groupId":    "Feature.flexibleRollout.userId.55",
		},
	}
	require.Equal(t, `55% sticky on random with group_id of "Feature.flexibleRollout.userId.55"`, Upgrade([]model.Strategy{s}, nil))
}

func TestUpgradesStringListOperator(t *testing.T) {
	cases := []struct {
		op       model.Operator
		ci       bool
		expected string
	}{
		{model.OpStrEndsWith, false, `user_id ends_with_any ["some", "thing"]`},
		{model.OpStrStartsWith, false, `user_id starts_with_any ["some", "thing"]`},
		{model.OpStrContains, false, `user_id contains_any ["some", "thing"]`},
		{model.OpStrEndsWith, true, `user_id ends_with_any_ignore_case ["some", "thing"]`},
		{model.OpStrStartsWith, true, `user_id starts_with_any_ignore_case ["some", "thing"]`},
		{model.OpStrContains, true, `user_id contains_any_ignore_case ["some", "thing"]`},
	}
	for _, tc := range cases {
		c := model.Constraint{ContextName: "userId", Operator: tc.op, CaseInsensitive: tc.ci, Values: []string{"some", "thing"}}
		require.Equal(t, tc.expected, upgradeConstraint(c))
	}
}

func TestComparatorConstraint(t *testing.T) {
	cases := []struct {
		op       model.Operator
		value    string
		expected string
	}{
		{model.OpNumLte, "7", "user_id <= 7"},
		{model.OpNumLt, "7", "user_id < 7"},
		{model.OpNumGte, "7", "user_id >= 7"},
		{model.OpNumGt, "7", "user_id > 7"},
		{model.OpSemverLt, "1.2.3", `user_id < "1.2.3"`},
		{model.OpSemverGt, "1.2.3", `user_id > "1.2.3"`},
		{model.OpDateAfter, "2022-01-25T13:00:00Z", `user_id > "2022-01-25T13:00:00Z"`},
		{model.OpDateBefore, "2022-01-25T13:00:00Z", `user_id < "2022-01-25T13:00:00Z"`},
	}
	for _, tc := range cases {
		c := model.Constraint{ContextName: "userId", Operator: tc.op, Value: tc.value}
		require.Equal(t, tc.expected, upgradeConstraint(c))
	}
}

// TestComparatorConstraintCompiles proves the Date/Semver literals upgrade
// emits are quoted the way the rule DSL lexer actually requires: a bare
// RFC3339 timestamp or three-part semver string doesn't tokenize as a single
// Number, so every constraint here must round-trip through ruledsl.Compile,
// not just match an expected string.
func TestComparatorConstraintCompiles(t *testing.T) {
	cases := []model.Constraint{
		{ContextName: "userId", Operator: model.OpSemverEq, Value: "1.2.3"},
		{ContextName: "userId", Operator: model.OpSemverLt, Value: "1.2.3"},
		{ContextName: "userId", Operator: model.OpSemverGt, Value: "1.2.3"},
		{ContextName: "userId", Operator: model.OpDateAfter, Value: "2022-01-25T13:00:00Z"},
		{ContextName: "userId", Operator: model.OpDateBefore, Value: "2022-01-25T13:00:00Z"},
	}
	for _, c := range cases {
		src := upgradeConstraint(c)
		_, err := ruledsl.Compile(src)
		require.NoErrorf(t, err, "upgraded source %q failed to compile", src)
	}
}

func TestHandlesNegation(t *testing.T) {
	c := model.Constraint{ContextName: "userId", Operator: model.OpNumLte, Value: "7", Inverted: true}
	require.Equal(t, "!user_id <= 7", upgradeConstraint(c))
	c.Inverted = false
	require.Equal(t, "user_id <= 7", upgradeConstraint(c))
}

func TestBrokenSegmentReferenceDefaultsToFalse(t *testing.T) {
	s := model.Strategy{Name: "default", Segments: []int{99}}
	require.Equal(t, "false", Upgrade([]model.Strategy{s}, map[int]model.Segment{}))
}

// Package variant resolves a toggle's configured variants against an
// evaluation context: an override scan followed by weighted cumulative
// selection, seeded deterministically by stickiness when possible.
//
// Grounded on original_source/unleash-yggdrasil/src/lib.rs
// (resolve_variant, check_for_variant_override, lookup_override_context,
// get_seed).
package variant

import (
	"math/rand/v2"

	"github.com/ygg-project/yggcore/internal/ctx"
	"github.com/ygg-project/yggcore/internal/hashing"
	"github.com/ygg-project/yggcore/internal/model"
)

// randIntn backs the random fallback used when no stickiness seed can be
// resolved from the context; overridden by tests for determinism.
var randIntn = func(n int) int {
	if n <= 0 {
		return 0
	}
	return rand.IntN(n)
}

// Resolve picks a variant for toggleName from variants given c, or returns
// ok=false when no variant applies (empty list, zero total weight, or no
// candidate survives the cumulative walk). Override rules are checked
// before weighted selection, exactly as in the grounding source.
func Resolve(toggleName string, variants []model.Variant, c ctx.Context) (model.Variant, bool) {
	if len(variants) == 0 {
		return model.Variant{}, false
	}
	if v, ok := checkOverride(variants, c); ok {
		return v, true
	}

	var totalWeight uint32
	for _, v := range variants {
		totalWeight += uint32(v.Weight)
	}
	if totalWeight == 0 {
		return model.Variant{}, false
	}

	target := resolveTarget(toggleName, variants[0].Stickiness, c, totalWeight)

	var cumulative uint32
	for _, v := range variants {
		cumulative += uint32(v.Weight)
		if cumulative > target {
			return v, true
		}
	}
	return model.Variant{}, false
}

func resolveTarget(toggleName, stickiness string, c ctx.Context, totalWeight uint32) uint32 {
	seed, ok := getSeed(stickiness, c)
	if !ok {
		return uint32(randIntn(int(totalWeight)))
	}
	bucket, err := hashing.Normalize(toggleName, seed, totalWeight, hashing.VariantSeed)
	if err != nil {
		return uint32(randIntn(int(totalWeight)))
	}
	// Normalize returns a 1-indexed bucket in [1, totalWeight]; the
	// cumulative walk below expects a 0-indexed target.
	return bucket - 1
}

// getSeed resolves the stickiness field named by a variant definition.
// "default" (or unset) falls back to user_id, then session_id. Any other
// recognized field name is looked up directly; anything else is treated as
// an arbitrary context property name. No fallback to "random" happens
// here: an unresolved custom stickiness name simply yields no seed, and
// the caller falls back to uniform random selection.
func getSeed(stickiness string, c ctx.Context) (string, bool) {
	switch stickiness {
	case "", "default":
		if c.UserID != "" {
			return c.UserID, true
		}
		if c.SessionID != "" {
			return c.SessionID, true
		}
		return "", false
	case "userId":
		return nonEmpty(c.UserID)
	case "sessionId":
		return nonEmpty(c.SessionID)
	case "environment":
		return nonEmpty(c.Environment)
	case "appName":
		return nonEmpty(c.AppName)
	case "remoteAddress":
		return nonEmpty(c.RemoteAddress)
	default:
		return c.Property(stickiness)
	}
}

func nonEmpty(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	return s, true
}

func checkOverride(variants []model.Variant, c ctx.Context) (model.Variant, bool) {
	for _, v := range variants {
		for _, o := range v.Overrides {
			val, ok := lookupOverrideContext(o.ContextName, c)
			if !ok {
				continue
			}
			for _, candidate := range o.Values {
				if candidate == val {
					return v, true
				}
			}
		}
	}
	return model.Variant{}, false
}

func lookupOverrideContext(contextName string, c ctx.Context) (string, bool) {
	switch contextName {
	case "userId":
		return nonEmpty(c.UserID)
	case "sessionId":
		return nonEmpty(c.SessionID)
	case "environment":
		return nonEmpty(c.Environment)
	case "appName":
		return nonEmpty(c.AppName)
	case "currentTime":
		return nonEmpty(c.CurrentTime)
	case "remoteAddress":
		return nonEmpty(c.RemoteAddress)
	default:
		return c.Property(contextName)
	}
}

// ToDef converts a resolved raw Variant (or the absence of one) into the
// wire-level VariantDef a caller sees, applying the toggle's own enabled
// state: a disabled toggle always resolves to the disabled default
// regardless of what Resolve would have picked.
func ToDef(v model.Variant, resolved, toggleEnabled bool) model.VariantDef {
	if !toggleEnabled || !resolved {
		return model.DisabledVariant
	}
	return model.VariantDef{Name: v.Name, Payload: v.Payload, Enabled: true}
}

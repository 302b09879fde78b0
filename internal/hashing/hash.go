// Package hashing provides the deterministic MurmurHash3-based bucketing
// function shared by rollout evaluation and variant resolution.
//
// Grounded on strategy_parsing.rs::normalized_hash: the hash is taken over
// "{group}:{identifier}", reduced modulo the caller-supplied modulus, and
// shifted up by one so results land in [1, modulus] rather than
// [0, modulus). The shift is load-bearing: rollout rules compare
// hash <= percent, so a 0% rollout must never match and a 100% rollout must
// always match.
package hashing

import (
	"fmt"

	"github.com/twmb/murmur3"
)

// VariantSeed is the seed used specifically for weighted variant
// resolution, distinct from the default rollout/enablement seed (0).
const VariantSeed uint32 = 86_028_157

// Normalize computes a deterministic bucket in [1, modulus] for the pair
// (group, identifier) under the given seed. modulus must be > 0.
func Normalize(group, identifier string, modulus uint32, seed uint32) (uint32, error) {
	if modulus == 0 {
		return 0, fmt.Errorf("hashing: modulus must be greater than zero")
	}
	key := group + ":" + identifier
	h := murmur3.SeedSum32(seed, []byte(key))
	return (h % modulus) + 1, nil
}

// NormalizeDefault hashes with the default rollout seed (0).
func NormalizeDefault(group, identifier string, modulus uint32) (uint32, error) {
	return Normalize(group, identifier, modulus, 0)
}

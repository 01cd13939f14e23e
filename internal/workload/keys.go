// Package workload generates seeded, reproducible inputs for the order book
// and the lookup tables, plus a map-based reference model of the book.
package workload

import (
	"golang.org/x/exp/rand"

	"llti.com/internal/lookup"
)

// Keys returns n distinct keys drawn from a PCG source seeded with seed.
func Keys(n int, seed uint64) []int64 {
	rng := rand.New(rand.NewSource(seed))
	seen := make(map[int64]struct{}, n)
	keys := make([]int64, 0, n)
	for len(keys) < n {
		k := int64(rng.Uint64())
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}

// Entries pairs every key with its index in keys.
func Entries(keys []int64) []lookup.Entry[int64] {
	out := make([]lookup.Entry[int64], len(keys))
	for i, k := range keys {
		out[i] = lookup.Entry[int64]{Key: k, Value: int64(i)}
	}
	return out
}

// Queries draws n lookup targets: about hitPct percent are members of keys,
// the rest are guaranteed misses.
func Queries(keys []int64, n, hitPct int, seed uint64) []int64 {
	rng := rand.New(rand.NewSource(seed))
	set := make(map[int64]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}

	out := make([]int64, 0, n)
	for len(out) < n {
		if len(keys) > 0 && rng.Intn(100) < hitPct {
			out = append(out, keys[rng.Intn(len(keys))])
			continue
		}
		k := int64(rng.Uint64())
		if _, hit := set[k]; hit {
			continue
		}
		out = append(out, k)
	}
	return out
}

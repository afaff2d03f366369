package access

import "github.com/dragginzgame/icydb-sub004/internal/value"

// KeyCodec converts predicate literal Values into the planner's key
// representation K and orders K the same way the underlying key bytes are
// ordered, so ByKeys canonicalization (dedup + sort) matches spec S2.
type KeyCodec[K any] interface {
	FromValue(v value.Value) (K, bool)
	Less(a, b K) bool
	Equal(a, b K) bool
}

// canonicalizeKeys sorts ks by codec order and removes adjacent duplicates,
// producing the deterministic ByKeys shape spec §4.E requires ("id IN
// [Ulid(2), Ulid(1)] produces ByKeys([Ulid(1), Ulid(2)]) after
// normalization (sorted, deduped)").
func canonicalizeKeys[K any](ks []K, codec KeyCodec[K]) []K {
	sorted := append([]K(nil), ks...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && codec.Less(sorted[j], sorted[j-1]); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	out := sorted[:0:0]
	for i, k := range sorted {
		if i > 0 && codec.Equal(sorted[i-1], k) {
			continue
		}
		out = append(out, k)
	}
	return out
}

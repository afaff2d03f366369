package value

import (
	"fmt"
	"sort"
)

// normalizeMapEntries enforces unique keys under canonical equality and
// sorts entries into canonical order derived from CanonicalBytes(key), so
// that two maps built with keys in different insertion order always
// normalize, hash, and compare identically (spec §3).
func normalizeMapEntries(entries []MapEntry) ([]MapEntry, error) {
	out := make([]MapEntry, len(entries))
	copy(out, entries)
	sort.Slice(out, func(i, j int) bool {
		return bytesCompare(CanonicalBytes(out[i].Key), CanonicalBytes(out[j].Key)) < 0
	})
	for i := 1; i < len(out); i++ {
		if Equal(out[i-1].Key, out[i].Key) {
			return nil, fmt.Errorf("value: duplicate map key %s", out[i].Key)
		}
	}
	return out, nil
}

// MapGet looks up a key in a normalized map's entries by canonical equality.
func MapGet(entries []MapEntry, key Value) (Value, bool) {
	for _, e := range entries {
		if Equal(e.Key, key) {
			return e.Value, true
		}
	}
	return Value{}, false
}

// MapSet returns a new normalized map with key set to val, replacing any
// existing entry for that key.
func MapSet(entries []MapEntry, key, val Value) (Value, error) {
	out := make([]MapEntry, 0, len(entries)+1)
	replaced := false
	for _, e := range entries {
		if Equal(e.Key, key) {
			out = append(out, MapEntry{Key: key, Value: val})
			replaced = true
			continue
		}
		out = append(out, e)
	}
	if !replaced {
		out = append(out, MapEntry{Key: key, Value: val})
	}
	return NewMap(out)
}

package cursor

import (
	"github.com/dragginzgame/icydb-sub004/internal/ikey"
	"github.com/dragginzgame/icydb-sub004/internal/queryplan"
)

// KeyEnvelope centralizes direction-aware continuation (spec §4.G
// "KeyEnvelope"): given (lower, upper, direction, anchor) it produces a
// half-open envelope that strictly excludes the anchor on the directional
// edge, with Contains/ContinuationAdvanced/IsEmpty defined uniformly for
// both directions.
type KeyEnvelope struct {
	Lower          *ikey.StorageKey
	Upper          *ikey.StorageKey
	LowerInclusive bool
	UpperInclusive bool
	Direction      queryplan.Direction
}

// NewKeyEnvelope rewrites the directional edge to exclude anchor: for
// Ascending scans the lower bound becomes anchor (exclusive); for
// Descending scans the upper bound becomes anchor (exclusive).
func NewKeyEnvelope(lower, upper *ikey.StorageKey, lowerIncl, upperIncl bool, direction queryplan.Direction, anchor *ikey.StorageKey) KeyEnvelope {
	e := KeyEnvelope{Lower: lower, Upper: upper, LowerInclusive: lowerIncl, UpperInclusive: upperIncl, Direction: direction}
	if anchor == nil {
		return e
	}
	a := *anchor
	switch direction {
	case queryplan.Ascending:
		e.Lower = &a
		e.LowerInclusive = false
	case queryplan.Descending:
		e.Upper = &a
		e.UpperInclusive = false
	}
	return e
}

// Contains reports whether k lies within the envelope under its
// inclusivity flags.
func (e KeyEnvelope) Contains(k ikey.StorageKey) bool {
	if e.Lower != nil {
		cmp := k.Compare(*e.Lower)
		if cmp < 0 || (cmp == 0 && !e.LowerInclusive) {
			return false
		}
	}
	if e.Upper != nil {
		cmp := k.Compare(*e.Upper)
		if cmp > 0 || (cmp == 0 && !e.UpperInclusive) {
			return false
		}
	}
	return true
}

// IsEmpty reports whether no key can satisfy the envelope.
func (e KeyEnvelope) IsEmpty() bool {
	if e.Lower == nil || e.Upper == nil {
		return false
	}
	cmp := e.Lower.Compare(*e.Upper)
	if cmp > 0 {
		return true
	}
	if cmp == 0 && !(e.LowerInclusive && e.UpperInclusive) {
		return true
	}
	return false
}

// ContinuationAdvanced reports whether candidate lies strictly after
// anchor under direction's "strictly after" semantics.
func ContinuationAdvanced(candidate, anchor ikey.StorageKey, direction queryplan.Direction) bool {
	cmp := candidate.Compare(anchor)
	if direction == queryplan.Ascending {
		return cmp > 0
	}
	return cmp < 0
}

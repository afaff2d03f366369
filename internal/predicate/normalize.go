package predicate

import (
	"bytes"
	"sort"

	"github.com/dragginzgame/icydb-sub004/internal/fingerprint"
)

// Normalize is idempotent and produces a deterministic canonical form:
// flattened And/And and Or/Or, identity elements dropped, double negation
// eliminated, and children sorted by a deterministic key (spec §4.D).
func Normalize(p Predicate) Predicate {
	switch p.Kind {
	case KindAnd:
		return normalizeAssoc(p.Children, KindAnd, KindTrue, KindFalse)
	case KindOr:
		return normalizeAssoc(p.Children, KindOr, KindFalse, KindTrue)
	case KindNot:
		inner := Normalize(*p.Child)
		if inner.Kind == KindNot {
			return *inner.Child
		}
		return Predicate{Kind: KindNot, Child: &inner}
	default:
		return p
	}
}

// normalizeAssoc handles both And (identity=True, annihilator=False) and Or
// (identity=False, annihilator=True) with the same flatten/drop/sort logic.
func normalizeAssoc(children []Predicate, self, identity, annihilator Kind) Predicate {
	var flat []Predicate
	for _, c := range children {
		nc := Normalize(c)
		if nc.Kind == self {
			flat = append(flat, nc.Children...)
		} else {
			flat = append(flat, nc)
		}
	}

	var out []Predicate
	for _, c := range flat {
		if c.Kind == annihilator {
			return leaf(annihilator)
		}
		if c.Kind == identity {
			continue
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return leaf(identity)
	}

	sortChildren(out)
	out = dedupSorted(out)

	if len(out) == 1 {
		return out[0]
	}
	return Predicate{Kind: self, Children: out}
}

func leaf(k Kind) Predicate { return Predicate{Kind: k} }

func sortChildren(children []Predicate) {
	keys := make([][]byte, len(children))
	for i, c := range children {
		keys[i] = canonicalKey(c)
	}
	idx := make([]int, len(children))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool {
		return bytes.Compare(keys[idx[i]], keys[idx[j]]) < 0
	})
	sorted := make([]Predicate, len(children))
	for i, id := range idx {
		sorted[i] = children[id]
	}
	copy(children, sorted)
}

func dedupSorted(sorted []Predicate) []Predicate {
	out := sorted[:0:0]
	var prevKey []byte
	for _, c := range sorted {
		k := canonicalKey(c)
		if prevKey != nil && bytes.Equal(prevKey, k) {
			continue
		}
		out = append(out, c)
		prevKey = k
	}
	return out
}

// canonicalKey is the deterministic sort key over (tag, field, op,
// value-fingerprint, coercion id+params), recursing into children so
// composite predicates sort deterministically too.
func canonicalKey(p Predicate) []byte {
	var buf []byte
	buf = append(buf, byte(p.Kind))
	buf = fingerprint.FrameElement(buf, 0x01, []byte(p.Field))
	buf = append(buf, byte(p.Op))
	if vfp, ok := fingerprint.Of(p.Value); ok {
		buf = fingerprint.FrameElement(buf, 0x02, vfp.Bytes())
	} else {
		buf = fingerprint.FrameElement(buf, 0x02, nil)
	}
	buf = append(buf, coercionKey(p.Coercion)...)
	buf = fingerprint.FrameElement(buf, 0x03, []byte(p.Text))
	for _, c := range p.Children {
		buf = fingerprint.FrameElement(buf, 0x04, canonicalKey(c))
	}
	if p.Child != nil {
		buf = fingerprint.FrameElement(buf, 0x05, canonicalKey(*p.Child))
	}
	return buf
}

func coercionKey(c Coercion) []byte {
	buf := []byte{byte(c.Kind)}
	if c.Element != nil {
		buf = fingerprint.FrameElement(buf, 0x06, coercionKey(*c.Element))
	}
	return buf
}

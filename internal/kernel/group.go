package kernel

import (
	"bytes"

	"github.com/google/btree"

	"github.com/dragginzgame/icydb-sub004/internal/fingerprint"
	"github.com/dragginzgame/icydb-sub004/internal/value"
)

// GroupKey is the canonical group-key hash over ordered group-field values
// (spec §4.C "drives ... grouping", supplemented by `db/group_key.rs`).
type GroupKey [fingerprint.Size]byte

// ComputeGroupKey hashes values (already in the declared group-field
// order) into a GroupKey, framing each value so that differently-shaped
// groups never collide on concatenation boundaries.
func ComputeGroupKey(values []value.Value) GroupKey {
	var buf []byte
	for i, v := range values {
		buf = fingerprint.FrameElement(buf, byte(i), value.CanonicalBytes(v))
	}
	return GroupKey(fingerprint.OfBytes(buf))
}

// GroupNode is one accumulated group: its key, the group-field values that
// produced it, and a running row count. Extra is caller-owned per-group
// fold state (e.g. a grouped aggregate terminal's running Min/Max/First/
// Last winners); the accumulator never reads or writes it.
type GroupNode struct {
	Key    GroupKey
	Values []value.Value
	Count  uint64
	Extra  any
}

func groupLess(a, b *GroupNode) bool {
	return bytes.Compare(a.Key[:], b.Key[:]) < 0
}

// GroupAccumulator keeps group state ordered by canonical group-key bytes
// in a btree, so grouped terminal output is deterministic without a
// second sort pass (spec Domain stack: `google/btree`).
type GroupAccumulator struct {
	tree *btree.BTreeG[*GroupNode]
}

func NewGroupAccumulator() *GroupAccumulator {
	return &GroupAccumulator{tree: btree.NewG(32, groupLess)}
}

// Observe records one row's membership in the group identified by key,
// creating the group node on first sight, and returns the (possibly
// freshly created) node for the caller to fold further aggregates into.
func (g *GroupAccumulator) Observe(key GroupKey, values []value.Value) *GroupNode {
	probe := &GroupNode{Key: key}
	if existing, found := g.tree.Get(probe); found {
		existing.Count++
		return existing
	}
	node := &GroupNode{Key: key, Values: values, Count: 1}
	g.tree.ReplaceOrInsert(node)
	return node
}

// Ascend iterates groups in canonical key order, stopping early if fn
// returns false.
func (g *GroupAccumulator) Ascend(fn func(*GroupNode) bool) {
	g.tree.Ascend(func(n *GroupNode) bool { return fn(n) })
}

// Len returns the number of distinct groups observed.
func (g *GroupAccumulator) Len() int { return g.tree.Len() }

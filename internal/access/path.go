// Package access implements the typed access-path/access-plan tree of
// spec §3/§4.E: leaf access shapes over a generic key type K, composed into
// a Union/Intersection tree, plus the pure deterministic planner that
// derives a plan from a normalized predicate.
package access

import "github.com/dragginzgame/icydb-sub004/internal/value"

// PathKind discriminates an AccessPath leaf shape.
type PathKind uint8

const (
	PathFullScan PathKind = iota
	PathByKey
	PathByKeys
	PathKeyRange
	PathIndexPrefix
	PathIndexRange
)

// BoundKind discriminates a range-bound shape.
type BoundKind uint8

const (
	BoundUnbounded BoundKind = iota
	BoundIncluded
	BoundExcluded
)

// Bound is one edge of a semantic index range.
type Bound struct {
	Kind  BoundKind
	Value value.Value
}

func Unbounded() Bound                  { return Bound{Kind: BoundUnbounded} }
func Included(v value.Value) Bound      { return Bound{Kind: BoundIncluded, Value: v} }
func Excluded(v value.Value) Bound      { return Bound{Kind: BoundExcluded, Value: v} }

// SemanticIndexRangeSpec names the index, the number of leading field slots
// the range touches (including the ranged field itself), the equality
// prefix, and the half-open-or-closed range bounds on the field at
// FieldSlots-1 (spec §3 "SemanticIndexRangeSpec").
type SemanticIndexRangeSpec struct {
	Index        string
	FieldSlots   int
	PrefixValues []value.Value
	LowerBound   Bound
	UpperBound   Bound
}

// AccessPath is one leaf access shape, typed over the primary-key
// representation K (spec §3 "AccessPath (typed over key type K)").
type AccessPath[K any] struct {
	Kind PathKind

	Key       K   // ByKey
	Keys      []K // ByKeys
	RangeFrom K   // KeyRange
	RangeTo   K   // KeyRange

	Index  string        // IndexPrefix / IndexRange
	Values []value.Value // IndexPrefix prefix values

	Range SemanticIndexRangeSpec // IndexRange
}

func FullScanPath[K any]() AccessPath[K] { return AccessPath[K]{Kind: PathFullScan} }

func ByKeyPath[K any](k K) AccessPath[K] { return AccessPath[K]{Kind: PathByKey, Key: k} }

func ByKeysPath[K any](ks []K) AccessPath[K] { return AccessPath[K]{Kind: PathByKeys, Keys: ks} }

func KeyRangePath[K any](from, to K) AccessPath[K] {
	return AccessPath[K]{Kind: PathKeyRange, RangeFrom: from, RangeTo: to}
}

func IndexPrefixPath[K any](index string, values []value.Value) AccessPath[K] {
	return AccessPath[K]{Kind: PathIndexPrefix, Index: index, Values: values}
}

func IndexRangePath[K any](spec SemanticIndexRangeSpec) AccessPath[K] {
	return AccessPath[K]{Kind: PathIndexRange, Index: spec.Index, Range: spec}
}

// PlanKind discriminates a plan-tree node.
type PlanKind uint8

const (
	PlanLeaf PlanKind = iota
	PlanUnion
	PlanIntersection
)

// AccessPlan is the tree: Path(AccessPath) | Union(children) |
// Intersection(children) (spec §3 "AccessPlan").
type AccessPlan[K any] struct {
	Kind     PlanKind
	Path     AccessPath[K]
	Children []AccessPlan[K]
}

func Leaf[K any](p AccessPath[K]) AccessPlan[K] { return AccessPlan[K]{Kind: PlanLeaf, Path: p} }

func FullScan[K any]() AccessPlan[K] { return Leaf(FullScanPath[K]()) }

func Union[K any](children ...AccessPlan[K]) AccessPlan[K] {
	return AccessPlan[K]{Kind: PlanUnion, Children: children}
}

func Intersection[K any](children ...AccessPlan[K]) AccessPlan[K] {
	return AccessPlan[K]{Kind: PlanIntersection, Children: children}
}

// IsFullScan reports whether p is exactly the FullScan leaf.
func (p AccessPlan[K]) IsFullScan() bool {
	return p.Kind == PlanLeaf && p.Path.Kind == PathFullScan
}

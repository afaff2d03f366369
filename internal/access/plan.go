package access

import (
	"fmt"
	"sort"

	"github.com/dragginzgame/icydb-sub004/internal/model"
	"github.com/dragginzgame/icydb-sub004/internal/predicate"
	"github.com/dragginzgame/icydb-sub004/internal/value"
)

// PlanAccess derives a deterministic AccessPlan from schema and predicate p
// (spec §4.E "plan_access(model, schema, predicate)"). It is pure: identical
// (schema, p) always yields an identical plan.
func PlanAccess[K any](schema model.EntityModel, p predicate.Predicate, codec KeyCodec[K]) AccessPlan[K] {
	normalized := predicate.Normalize(p)
	plan := dispatch(schema, normalized, codec)
	return normalizePlan(plan, codec)
}

func dispatch[K any](schema model.EntityModel, p predicate.Predicate, codec KeyCodec[K]) AccessPlan[K] {
	switch p.Kind {
	case predicate.KindAnd:
		return dispatchAnd(schema, p.Children, codec)

	case predicate.KindOr:
		children := make([]AccessPlan[K], len(p.Children))
		for i, c := range p.Children {
			children[i] = dispatch(schema, c, codec)
		}
		return Union(children...)

	case predicate.KindCompare:
		return dispatchCompare(schema, p, codec)

	default:
		// True/False/Not/IsNull/IsMissing/IsEmpty/IsNotEmpty/TextContains*
		return FullScan[K]()
	}
}

func dispatchAnd[K any](schema model.EntityModel, children []predicate.Predicate, codec KeyCodec[K]) AccessPlan[K] {
	var parts []AccessPlan[K]

	if spec, ok := indexRangeFromAnd(schema, children); ok {
		parts = append(parts, Leaf[K](IndexRangePath[K](spec)))
	} else if idx, vals, ok := indexPrefixFromAnd(schema, children); ok {
		parts = append(parts, Leaf[K](IndexPrefixPath[K](idx, vals)))
	}

	for _, c := range children {
		parts = append(parts, dispatch(schema, c, codec))
	}

	return Intersection(parts...)
}

func dispatchCompare[K any](schema model.EntityModel, p predicate.Predicate, codec KeyCodec[K]) AccessPlan[K] {
	if p.Coercion.Kind != predicate.CoerceStrict {
		return FullScan[K]()
	}

	if p.Field == schema.PrimaryKey {
		switch p.Op {
		case predicate.OpEq:
			if k, ok := codec.FromValue(p.Value); ok {
				return Leaf(ByKeyPath(k))
			}
			return FullScan[K]()
		case predicate.OpIn:
			ks, ok := keysFromList(p.Value, codec)
			if !ok {
				return FullScan[K]()
			}
			return Leaf(ByKeysPath(canonicalizeKeys(ks, codec)))
		default:
			return FullScan[K]()
		}
	}

	switch p.Op {
	case predicate.OpEq:
		matches := schema.IndexesWithLeadingField(p.Field)
		if len(matches) == 0 {
			return FullScan[K]()
		}
		children := make([]AccessPlan[K], len(matches))
		for i, idx := range matches {
			children[i] = Leaf[K](IndexPrefixPath[K](idx.Name.String(), []value.Value{p.Value}))
		}
		return Union(children...)

	case predicate.OpIn:
		matches := schema.IndexesWithLeadingField(p.Field)
		if len(matches) == 0 || p.Value.Kind != value.KindList {
			return FullScan[K]()
		}
		var children []AccessPlan[K]
		for _, idx := range matches {
			for _, v := range p.Value.ListValue() {
				children = append(children, Leaf[K](IndexPrefixPath[K](idx.Name.String(), []value.Value{v})))
			}
		}
		return Union(children...)

	case predicate.OpGt, predicate.OpGte, predicate.OpLt, predicate.OpLte:
		matches := singleFieldIndexes(schema, p.Field)
		if len(matches) == 0 {
			return FullScan[K]()
		}
		children := make([]AccessPlan[K], len(matches))
		for i, idx := range matches {
			children[i] = Leaf[K](IndexRangePath[K](SemanticIndexRangeSpec{
				Index:      idx.Name.String(),
				FieldSlots: 1,
				LowerBound: lowerBoundFor(p.Op, p.Value),
				UpperBound: upperBoundFor(p.Op, p.Value),
			}))
		}
		return Union(children...)

	default:
		return FullScan[K]()
	}
}

func singleFieldIndexes(schema model.EntityModel, field string) []model.IndexModel {
	var out []model.IndexModel
	for _, idx := range schema.IndexesWithLeadingField(field) {
		if len(idx.Fields) == 1 {
			out = append(out, idx)
		}
	}
	return out
}

func lowerBoundFor(op predicate.Op, v value.Value) Bound {
	switch op {
	case predicate.OpGt:
		return Excluded(v)
	case predicate.OpGte:
		return Included(v)
	default:
		return Unbounded()
	}
}

func upperBoundFor(op predicate.Op, v value.Value) Bound {
	switch op {
	case predicate.OpLt:
		return Excluded(v)
	case predicate.OpLte:
		return Included(v)
	default:
		return Unbounded()
	}
}

func keysFromList[K any](v value.Value, codec KeyCodec[K]) ([]K, bool) {
	if v.Kind != value.KindList {
		return nil, false
	}
	items := v.ListValue()
	ks := make([]K, 0, len(items))
	for _, item := range items {
		k, ok := codec.FromValue(item)
		if !ok {
			return nil, false
		}
		ks = append(ks, k)
	}
	return ks, true
}

// fieldConstraint is the per-field classification index_range_from_and and
// index_prefix_from_and build from an And's children (spec §4.E).
type fieldConstraint struct {
	hasEq   bool
	eq      value.Value
	hasLow  bool
	low     Bound
	hasHigh bool
	high    Bound
}

// classifyAndChildren classifies every child into a per-field constraint
// map. Returns ok=false if any child is not a Strict/NumericWiden Compare,
// or if a field receives a conflicting Eq value or an Eq+Range mix.
func classifyAndChildren(children []predicate.Predicate, allowNumericWiden bool) (map[string]fieldConstraint, bool) {
	out := map[string]fieldConstraint{}
	for _, c := range children {
		if c.Kind != predicate.KindCompare {
			return nil, false
		}
		if c.Coercion.Kind != predicate.CoerceStrict && !(allowNumericWiden && c.Coercion.Kind == predicate.CoerceNumericWiden) {
			return nil, false
		}

		fc := out[c.Field]
		switch c.Op {
		case predicate.OpEq:
			if fc.hasLow || fc.hasHigh {
				return nil, false
			}
			if fc.hasEq && !value.Equal(fc.eq, c.Value) {
				return nil, false
			}
			fc.hasEq = true
			fc.eq = c.Value
		case predicate.OpGt, predicate.OpGte:
			if fc.hasEq || fc.hasLow {
				return nil, false
			}
			fc.hasLow = true
			fc.low = lowerBoundFor(c.Op, c.Value)
		case predicate.OpLt, predicate.OpLte:
			if fc.hasEq || fc.hasHigh {
				return nil, false
			}
			fc.hasHigh = true
			fc.high = upperBoundFor(c.Op, c.Value)
		default:
			return nil, false
		}
		out[c.Field] = fc
	}
	return out, true
}

type rangeCandidate struct {
	spec       SemanticIndexRangeSpec
	prefixLen  int
}

// indexRangeFromAnd extracts the deterministic composite-range candidate
// described in spec §4.E, or ok=false if no index fits the And's shape.
func indexRangeFromAnd(schema model.EntityModel, children []predicate.Predicate) (SemanticIndexRangeSpec, bool) {
	constraints, ok := classifyAndChildren(children, true)
	if !ok {
		return SemanticIndexRangeSpec{}, false
	}

	var candidates []rangeCandidate
	for _, idx := range schema.Indexes {
		cand, ok := rangeCandidateFor(idx, constraints)
		if ok {
			candidates = append(candidates, cand)
		}
	}
	if len(candidates) == 0 {
		return SemanticIndexRangeSpec{}, false
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].prefixLen != candidates[j].prefixLen {
			return candidates[i].prefixLen > candidates[j].prefixLen
		}
		return candidates[i].spec.Index < candidates[j].spec.Index
	})
	return candidates[0].spec, true
}

func rangeCandidateFor(idx model.IndexModel, constraints map[string]fieldConstraint) (rangeCandidate, bool) {
	var prefix []value.Value
	k := 0
	for k < len(idx.Fields) {
		fc, has := constraints[idx.Fields[k]]
		if !has || !fc.hasEq {
			break
		}
		prefix = append(prefix, fc.eq)
		k++
	}
	if k >= len(idx.Fields) {
		return rangeCandidate{}, false
	}
	fc, has := constraints[idx.Fields[k]]
	if !has || (!fc.hasLow && !fc.hasHigh) {
		return rangeCandidate{}, false
	}
	for i := k + 1; i < len(idx.Fields); i++ {
		if c, has := constraints[idx.Fields[i]]; has && (c.hasEq || c.hasLow || c.hasHigh) {
			return rangeCandidate{}, false
		}
	}

	lower, upper := fc.low, fc.high
	if lower.Kind != BoundUnbounded && upper.Kind != BoundUnbounded {
		cmp := value.Compare(lower.Value, upper.Value)
		if cmp > 0 {
			return rangeCandidate{}, false
		}
		if cmp == 0 && (lower.Kind == BoundExcluded || upper.Kind == BoundExcluded) {
			return rangeCandidate{}, false
		}
	}

	spec := SemanticIndexRangeSpec{
		Index:        idx.Name.String(),
		FieldSlots:   k + 1,
		PrefixValues: prefix,
		LowerBound:   lower,
		UpperBound:   upper,
	}
	return rangeCandidate{spec: spec, prefixLen: len(prefix)}, true
}

type prefixCandidate struct {
	index      string
	values     []value.Value
	prefixLen  int
	exactMatch bool
}

// indexPrefixFromAnd selects the longest equality-prefix index match
// (spec §4.E "index_prefix_from_and"), used only when no composite range
// was found.
func indexPrefixFromAnd(schema model.EntityModel, children []predicate.Predicate) (string, []value.Value, bool) {
	constraints, ok := classifyAndChildren(children, false)
	if !ok {
		return "", nil, false
	}

	var candidates []prefixCandidate
	for _, idx := range schema.Indexes {
		var values []value.Value
		for _, f := range idx.Fields {
			fc, has := constraints[f]
			if !has || !fc.hasEq {
				break
			}
			values = append(values, fc.eq)
		}
		if len(values) == 0 {
			continue
		}
		candidates = append(candidates, prefixCandidate{
			index:      idx.Name.String(),
			values:     values,
			prefixLen:  len(values),
			exactMatch: len(values) == len(idx.Fields),
		})
	}
	if len(candidates) == 0 {
		return "", nil, false
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].prefixLen != candidates[j].prefixLen {
			return candidates[i].prefixLen > candidates[j].prefixLen
		}
		if candidates[i].exactMatch != candidates[j].exactMatch {
			return candidates[i].exactMatch
		}
		return candidates[i].index < candidates[j].index
	})
	best := candidates[0]
	return best.index, best.values, true
}

// normalizePlan flattens nested Union/Intersection nodes, drops FullScan
// leaves from Intersections, folds single-child composites, and sorts
// children deterministically (spec §4.E step 4).
func normalizePlan[K any](p AccessPlan[K], codec KeyCodec[K]) AccessPlan[K] {
	switch p.Kind {
	case PlanUnion:
		return normalizeComposite(p, PlanUnion, codec)
	case PlanIntersection:
		return normalizeComposite(p, PlanIntersection, codec)
	default:
		return p
	}
}

func normalizeComposite[K any](p AccessPlan[K], self PlanKind, codec KeyCodec[K]) AccessPlan[K] {
	var flat []AccessPlan[K]
	for _, c := range p.Children {
		nc := normalizePlan(c, codec)
		if nc.Kind == self {
			flat = append(flat, nc.Children...)
		} else {
			flat = append(flat, nc)
		}
	}

	if self == PlanIntersection {
		var kept []AccessPlan[K]
		for _, c := range flat {
			if c.IsFullScan() {
				continue
			}
			kept = append(kept, c)
		}
		if len(kept) > 0 {
			flat = kept
		}
	}

	if len(flat) == 0 {
		return FullScan[K]()
	}

	sortPlans(flat)
	flat = dedupPlans(flat)

	if len(flat) == 1 {
		return flat[0]
	}
	return AccessPlan[K]{Kind: self, Children: flat}
}

func planRank[K any](p AccessPlan[K]) int {
	if p.Kind != PlanLeaf {
		return 4
	}
	switch p.Path.Kind {
	case PathByKey, PathByKeys:
		return 0
	case PathIndexRange:
		return 1
	case PathIndexPrefix:
		return 2
	case PathKeyRange:
		return 3
	default:
		return 4
	}
}

func sortPlans[K any](plans []AccessPlan[K]) {
	keys := make([]string, len(plans))
	for i, p := range plans {
		keys[i] = planKey(p)
	}
	sort.SliceStable(plans, func(i, j int) bool {
		if planRank(plans[i]) != planRank(plans[j]) {
			return planRank(plans[i]) < planRank(plans[j])
		}
		return keys[i] < keys[j]
	})
}

func dedupPlans[K any](sorted []AccessPlan[K]) []AccessPlan[K] {
	out := sorted[:0:0]
	var prev string
	first := true
	for _, p := range sorted {
		k := planKey(p)
		if !first && k == prev {
			continue
		}
		out = append(out, p)
		prev = k
		first = false
	}
	return out
}

// planKey is a deterministic string key used only to order/dedup plan
// children; it need not be byte-minimal, only stable for identical inputs.
func planKey[K any](p AccessPlan[K]) string {
	if p.Kind != PlanLeaf {
		sub := make([]string, len(p.Children))
		for i, c := range p.Children {
			sub[i] = planKey(c)
		}
		return fmt.Sprintf("%d%v", p.Kind, sub)
	}
	path := p.Path
	switch path.Kind {
	case PathByKey:
		return fmt.Sprintf("ByKey(%v)", path.Key)
	case PathByKeys:
		return fmt.Sprintf("ByKeys(%v)", path.Keys)
	case PathKeyRange:
		return fmt.Sprintf("KeyRange(%v,%v)", path.RangeFrom, path.RangeTo)
	case PathIndexPrefix:
		return fmt.Sprintf("IndexPrefix(%s,%v)", path.Index, path.Values)
	case PathIndexRange:
		return fmt.Sprintf("IndexRange(%s,%d,%v,%v,%v)", path.Range.Index, path.Range.FieldSlots, path.Range.PrefixValues, path.Range.LowerBound, path.Range.UpperBound)
	default:
		return "FullScan"
	}
}

// Package route implements execution routing (spec §4.J): deriving a
// RouteCapabilities snapshot from a validated plan and using it to pick a
// streaming vs materialized execution mode, direction, and fold mode.
package route

import (
	"github.com/dragginzgame/icydb-sub004/internal/access"
	"github.com/dragginzgame/icydb-sub004/internal/ikey"
	"github.com/dragginzgame/icydb-sub004/internal/model"
	"github.com/dragginzgame/icydb-sub004/internal/queryplan"
)

// IneligibilityReason names why a field-extrema fast path was rejected.
type IneligibilityReason string

const (
	ReasonNone                            IneligibilityReason = ""
	ReasonSpecMissing                     IneligibilityReason = "SpecMissing"
	ReasonAggregateKindMismatch           IneligibilityReason = "AggregateKindMismatch"
	ReasonTargetFieldMissing              IneligibilityReason = "TargetFieldMissing"
	ReasonUnknownTargetField              IneligibilityReason = "UnknownTargetField"
	ReasonUnsupportedFieldType            IneligibilityReason = "UnsupportedFieldType"
	ReasonDistinctNotSupported            IneligibilityReason = "DistinctNotSupported"
	ReasonOffsetNotSupported              IneligibilityReason = "OffsetNotSupported"
	ReasonCompositePathNotSupported       IneligibilityReason = "CompositePathNotSupported"
	ReasonNoMatchingIndex                 IneligibilityReason = "NoMatchingIndex"
	ReasonDescReverseTraversalNotSupported IneligibilityReason = "DescReverseTraversalNotSupported"
	ReasonPageLimitNotSupported            IneligibilityReason = "PageLimitNotSupported"
)

// ExecutionMode is the chosen strategy for running a plan.
type ExecutionMode uint8

const (
	Streaming ExecutionMode = iota
	Materialized
)

// FoldMode names how the reducer runner consumes the key stream.
type FoldMode uint8

const (
	FoldKeysOnly FoldMode = iota
	FoldExistingRows
)

// Capabilities is the RouteCapabilities snapshot derived from a validated
// plan (spec §4.J).
type Capabilities struct {
	StreamingAccessShapeSafe             bool
	PKOrderFastPathEligible               bool
	DescPhysicalReverseSupported          bool
	CountPushdownAccessShapeSupported     bool
	IndexRangeLimitPushdownShapeEligible  bool
	CompositeAggregateFastPathEligible    bool
	BoundedProbeHintSafe                  bool
	FieldMinFastPathEligible              bool
	FieldMinIneligibleReason              IneligibilityReason
	FieldMaxFastPathEligible              bool
	FieldMaxIneligibleReason              IneligibilityReason
}

// walk applies fn to every leaf AccessPath in the plan tree.
func walk[K any](p access.AccessPlan[K], fn func(access.AccessPath[K]) bool) bool {
	switch p.Kind {
	case access.PlanLeaf:
		return fn(p.Path)
	default:
		for _, child := range p.Children {
			if !walk(child, fn) {
				return false
			}
		}
		return true
	}
}

func isComposite[K any](p access.AccessPlan[K]) bool {
	return p.Kind == access.PlanUnion || p.Kind == access.PlanIntersection
}

// DeriveCapabilities computes the RouteCapabilities snapshot for plan
// against schema. hasResidualPredicate reports whether anything remains to
// be filtered in-stream beyond what the access plan already selects.
func DeriveCapabilities(schema model.EntityModel, plan queryplan.QueryPlan[ikey.StorageKey], hasResidualPredicate bool) Capabilities {
	streamingSafe := walk(plan.Access, func(access.AccessPath[ikey.StorageKey]) bool { return true })

	descSafe := walk(plan.Access, func(access.AccessPath[ikey.StorageKey]) bool { return true })

	pkOrderEligible := false
	if len(plan.Order.Fields) == 1 && plan.Order.Fields[0].Field == schema.PrimaryKey {
		switch plan.Access.Kind {
		case access.PlanLeaf:
			switch plan.Access.Path.Kind {
			case access.PathFullScan, access.PathByKey, access.PathByKeys, access.PathKeyRange:
				pkOrderEligible = true
			}
		}
	}

	countPushdown := !isComposite(plan.Access) && !hasResidualPredicate
	indexRangeLimitPushdown := plan.Access.Kind == access.PlanLeaf &&
		plan.Access.Path.Kind == access.PathIndexRange && !hasResidualPredicate

	compositeAggregateFastPath := isComposite(plan.Access) && !hasResidualPredicate && plan.Order.IsEmpty()

	boundedProbeSafe := true
	if plan.Distinct && plan.Page != nil && plan.Page.Offset > 0 {
		boundedProbeSafe = false
	}

	return Capabilities{
		StreamingAccessShapeSafe:            streamingSafe,
		PKOrderFastPathEligible:             pkOrderEligible,
		DescPhysicalReverseSupported:        descSafe,
		CountPushdownAccessShapeSupported:   countPushdown,
		IndexRangeLimitPushdownShapeEligible: indexRangeLimitPushdown,
		CompositeAggregateFastPathEligible:  compositeAggregateFastPath,
		BoundedProbeHintSafe:                boundedProbeSafe,
	}
}

// FieldExtremaEligibility evaluates field_min_fast_path_eligible /
// field_max_fast_path_eligible for an aggregate Min/Max terminal targeting
// field (spec §4.J): eligible only when an index leads with field, the
// plan carries no DISTINCT/offset/composite path, and direction-aware
// reverse traversal is available when needed.
func FieldExtremaEligibility(schema model.EntityModel, plan queryplan.QueryPlan[ikey.StorageKey], kind queryplan.AggregateKind, field string) (bool, IneligibilityReason) {
	if kind != queryplan.AggMin && kind != queryplan.AggMax {
		return false, ReasonAggregateKindMismatch
	}
	if field == "" {
		return false, ReasonTargetFieldMissing
	}
	fm, ok := schema.Field(field)
	if !ok {
		return false, ReasonUnknownTargetField
	}
	if !fm.Type.IsOrderable() {
		return false, ReasonUnsupportedFieldType
	}
	if plan.Distinct {
		return false, ReasonDistinctNotSupported
	}
	if plan.Page != nil && plan.Page.Offset > 0 {
		return false, ReasonOffsetNotSupported
	}
	if plan.Page != nil && plan.Page.Limit > 0 {
		return false, ReasonPageLimitNotSupported
	}
	if isComposite(plan.Access) {
		return false, ReasonCompositePathNotSupported
	}
	if field != schema.PrimaryKey && len(schema.IndexesWithLeadingField(field)) == 0 {
		return false, ReasonNoMatchingIndex
	}
	if kind == queryplan.AggMax {
		// MAX needs a descending traversal from the leading edge; every
		// current leaf shape supports physical reverse traversal.
		descOK := walk(plan.Access, func(access.AccessPath[ikey.StorageKey]) bool { return true })
		if !descOK {
			return false, ReasonDescReverseTraversalNotSupported
		}
	}
	return true, ReasonNone
}

// Plan is the resolved execution route for one query (spec §4.J
// "build_execution_route_plan").
type Plan struct {
	Capabilities      Capabilities
	Direction         queryplan.Direction
	ExecutionMode     ExecutionMode
	AggregateFoldMode FoldMode
}

// planDirection derives the direction a Load plan demands from its
// trailing order field (or Ascending for an unordered plan).
func planDirection(order queryplan.OrderSpec) queryplan.Direction {
	if order.IsEmpty() {
		return queryplan.Ascending
	}
	return order.Fields[len(order.Fields)-1].Direction
}

// BuildLoadRoutePlan builds the route plan for a Load query (spec §4.J
// steps 1-6, Load branch).
func BuildLoadRoutePlan(schema model.EntityModel, plan queryplan.QueryPlan[ikey.StorageKey], hasResidualPredicate, hasCursor bool) Plan {
	caps := DeriveCapabilities(schema, plan, hasResidualPredicate)
	mode := Materialized
	if caps.StreamingAccessShapeSafe {
		mode = Streaming
	}
	return Plan{
		Capabilities:      caps,
		Direction:         planDirection(plan.Order),
		ExecutionMode:     mode,
		AggregateFoldMode: FoldExistingRows,
	}
}

// BuildAggregateRoutePlan builds the route plan for a Count/Exists/Min/
// Max/First/Last aggregate terminal (spec §4.J steps 1-7, Aggregate
// branch).
func BuildAggregateRoutePlan(schema model.EntityModel, plan queryplan.QueryPlan[ikey.StorageKey], kind queryplan.AggregateKind, targetField string, hasResidualPredicate bool) Plan {
	caps := DeriveCapabilities(schema, plan, hasResidualPredicate)

	var dir queryplan.Direction
	var mode ExecutionMode
	var fold FoldMode

	switch kind {
	case queryplan.AggCount:
		dir = queryplan.Ascending
		fold = FoldKeysOnly
		if caps.CountPushdownAccessShapeSupported {
			mode = Streaming
		} else {
			mode = Materialized
		}
	case queryplan.AggExists:
		dir = queryplan.Ascending
		fold = FoldKeysOnly
		if caps.StreamingAccessShapeSafe {
			mode = Streaming
		} else {
			mode = Materialized
		}
	case queryplan.AggFirst:
		dir = queryplan.Ascending
		fold = FoldExistingRows
		if caps.StreamingAccessShapeSafe {
			mode = Streaming
		} else {
			mode = Materialized
		}
	case queryplan.AggLast:
		dir = queryplan.Descending
		fold = FoldExistingRows
		if caps.StreamingAccessShapeSafe && caps.DescPhysicalReverseSupported {
			mode = Streaming
		} else {
			mode = Materialized
		}
	case queryplan.AggMin, queryplan.AggMax:
		fold = FoldExistingRows
		eligible, reason := FieldExtremaEligibility(schema, plan, kind, targetField)
		if kind == queryplan.AggMin {
			caps.FieldMinFastPathEligible, caps.FieldMinIneligibleReason = eligible, reason
			dir = queryplan.Ascending
		} else {
			caps.FieldMaxFastPathEligible, caps.FieldMaxIneligibleReason = eligible, reason
			dir = queryplan.Descending
		}
		if eligible {
			mode = Streaming
		} else {
			mode = Materialized
		}
	}

	return Plan{Capabilities: caps, Direction: dir, ExecutionMode: mode, AggregateFoldMode: fold}
}

// Package queryplan holds the plan-level types shared by the validator,
// router, cursor, and executor: query mode, order/page specs, grouping,
// and the top-level QueryPlan tying an access plan to its policy (spec
// §4.F "validate_query_semantics(schema, model, plan)").
package queryplan

import "github.com/dragginzgame/icydb-sub004/internal/access"

// Mode discriminates a Load vs Delete query.
type Mode uint8

const (
	ModeLoad Mode = iota
	ModeDelete
)

// Direction is the scan/order direction.
type Direction uint8

const (
	Ascending Direction = iota
	Descending
)

// OrderField names one field of an order spec and its direction.
type OrderField struct {
	Field     string
	Direction Direction
}

// OrderSpec is an ordered list of order fields. A non-empty spec must end
// with the primary key exactly once as a terminal tie-break (spec §4.F).
type OrderSpec struct {
	Fields []OrderField
}

func (o OrderSpec) IsEmpty() bool { return len(o.Fields) == 0 }

// PageSpec is a pagination window: offset plus limit.
type PageSpec struct {
	Offset uint64
	Limit  uint64
}

// Consistency names the read-consistency mode a query runs under.
type Consistency uint8

const (
	ConsistencyStrong Consistency = iota
	ConsistencyEventual
)

// AggregateKind names a grouped-plan terminal aggregate.
type AggregateKind uint8

const (
	AggCount AggregateKind = iota
	AggExists
	AggMin
	AggMax
	AggFirst
	AggLast
)

// AggregateSpec is one aggregate terminal of a grouped plan; Field is only
// meaningful for Min/Max.
type AggregateSpec struct {
	Kind  AggregateKind
	Field string
}

// GroupSpec is a grouped-plan shape: group by Fields, compute Aggregates
// per group. Field-target terminals (Min/Max) are restricted to resolvable
// model fields (spec §4.F "Grouped plans").
type GroupSpec struct {
	Fields     []string
	Aggregates []AggregateSpec
}

func (g GroupSpec) IsZero() bool { return len(g.Fields) == 0 && len(g.Aggregates) == 0 }

// QueryPlan[K] is the validated unit the router and executor consume: an
// access plan over primary-key type K plus the query's policy (spec
// §4.F/§4.J/§4.L). The residual predicate is not part of the plan; callers
// pass it alongside.
type QueryPlan[K any] struct {
	Mode        Mode
	Access      access.AccessPlan[K]
	Order       OrderSpec
	Distinct    bool
	Page        *PageSpec
	DeleteLimit *uint64
	Consistency Consistency
	Group       *GroupSpec
}

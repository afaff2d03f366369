package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dragginzgame/icydb-sub004/internal/access"
	"github.com/dragginzgame/icydb-sub004/internal/ikey"
	"github.com/dragginzgame/icydb-sub004/internal/model"
	"github.com/dragginzgame/icydb-sub004/internal/queryplan"
	"github.com/dragginzgame/icydb-sub004/internal/value"
)

func itemSchema(t *testing.T) model.EntityModel {
	t.Helper()
	name, err := ikey.TryNewEntityName("item")
	require.NoError(t, err)
	idxName, err := ikey.TryNewIndexName("item", []string{"rank"})
	require.NoError(t, err)
	return model.EntityModel{
		Path:       "item",
		Name:       name,
		PrimaryKey: "id",
		Fields: []model.FieldModel{
			{Name: "id", Type: model.FieldType{Kind: model.FieldScalar, Scalar: value.KindInt}},
			{Name: "rank", Type: model.FieldType{Kind: model.FieldScalar, Scalar: value.KindUint}},
		},
		Indexes: []model.IndexModel{{Name: idxName, Fields: []string{"rank"}}},
	}
}

func TestDeriveCapabilitiesPKOrderFastPath(t *testing.T) {
	schema := itemSchema(t)
	plan := queryplan.QueryPlan[ikey.StorageKey]{
		Mode:   queryplan.ModeLoad,
		Access: access.FullScan[ikey.StorageKey](),
		Order:  queryplan.OrderSpec{Fields: []queryplan.OrderField{{Field: "id", Direction: queryplan.Ascending}}},
	}
	caps := DeriveCapabilities(schema, plan, false)
	assert.True(t, caps.PKOrderFastPathEligible)
	assert.True(t, caps.StreamingAccessShapeSafe)
}

func TestDeriveCapabilitiesCountPushdownRequiresNoResidual(t *testing.T) {
	schema := itemSchema(t)
	plan := queryplan.QueryPlan[ikey.StorageKey]{Mode: queryplan.ModeLoad, Access: access.FullScan[ikey.StorageKey]()}

	caps := DeriveCapabilities(schema, plan, false)
	assert.True(t, caps.CountPushdownAccessShapeSupported)

	caps2 := DeriveCapabilities(schema, plan, true)
	assert.False(t, caps2.CountPushdownAccessShapeSupported)
}

func TestDeriveCapabilitiesBoundedProbeDisabledByDistinctOffset(t *testing.T) {
	schema := itemSchema(t)
	plan := queryplan.QueryPlan[ikey.StorageKey]{
		Mode:     queryplan.ModeLoad,
		Access:   access.FullScan[ikey.StorageKey](),
		Distinct: true,
		Page:     &queryplan.PageSpec{Offset: 5, Limit: 10},
	}
	caps := DeriveCapabilities(schema, plan, false)
	assert.False(t, caps.BoundedProbeHintSafe)
}

func TestFieldExtremaEligibilityRejectsMissingField(t *testing.T) {
	schema := itemSchema(t)
	plan := queryplan.QueryPlan[ikey.StorageKey]{Mode: queryplan.ModeLoad, Access: access.FullScan[ikey.StorageKey]()}

	eligible, reason := FieldExtremaEligibility(schema, plan, queryplan.AggMin, "")
	assert.False(t, eligible)
	assert.Equal(t, ReasonTargetFieldMissing, reason)
}

func TestFieldExtremaEligibilityRejectsUnknownField(t *testing.T) {
	schema := itemSchema(t)
	plan := queryplan.QueryPlan[ikey.StorageKey]{Mode: queryplan.ModeLoad, Access: access.FullScan[ikey.StorageKey]()}

	eligible, reason := FieldExtremaEligibility(schema, plan, queryplan.AggMin, "missing")
	assert.False(t, eligible)
	assert.Equal(t, ReasonUnknownTargetField, reason)
}

func TestFieldExtremaEligibilitySucceedsForIndexedField(t *testing.T) {
	schema := itemSchema(t)
	plan := queryplan.QueryPlan[ikey.StorageKey]{Mode: queryplan.ModeLoad, Access: access.FullScan[ikey.StorageKey]()}

	eligible, reason := FieldExtremaEligibility(schema, plan, queryplan.AggMin, "rank")
	assert.True(t, eligible)
	assert.Equal(t, ReasonNone, reason)
}

func TestFieldExtremaEligibilityRejectsDistinct(t *testing.T) {
	schema := itemSchema(t)
	plan := queryplan.QueryPlan[ikey.StorageKey]{Mode: queryplan.ModeLoad, Access: access.FullScan[ikey.StorageKey](), Distinct: true}

	eligible, reason := FieldExtremaEligibility(schema, plan, queryplan.AggMax, "rank")
	assert.False(t, eligible)
	assert.Equal(t, ReasonDistinctNotSupported, reason)
}

func TestBuildAggregateRoutePlanCountStreamsWhenEligible(t *testing.T) {
	schema := itemSchema(t)
	plan := queryplan.QueryPlan[ikey.StorageKey]{Mode: queryplan.ModeLoad, Access: access.FullScan[ikey.StorageKey]()}

	rp := BuildAggregateRoutePlan(schema, plan, queryplan.AggCount, "", false)
	assert.Equal(t, Streaming, rp.ExecutionMode)
	assert.Equal(t, FoldKeysOnly, rp.AggregateFoldMode)
}

func TestBuildAggregateRoutePlanMinUsesAscendingDirection(t *testing.T) {
	schema := itemSchema(t)
	plan := queryplan.QueryPlan[ikey.StorageKey]{Mode: queryplan.ModeLoad, Access: access.FullScan[ikey.StorageKey]()}

	rp := BuildAggregateRoutePlan(schema, plan, queryplan.AggMin, "rank", false)
	assert.Equal(t, queryplan.Ascending, rp.Direction)
	assert.True(t, rp.Capabilities.FieldMinFastPathEligible)
}

func TestBuildLoadRoutePlanStreamsByDefault(t *testing.T) {
	schema := itemSchema(t)
	plan := queryplan.QueryPlan[ikey.StorageKey]{Mode: queryplan.ModeLoad, Access: access.FullScan[ikey.StorageKey]()}

	rp := BuildLoadRoutePlan(schema, plan, false, false)
	assert.Equal(t, Streaming, rp.ExecutionMode)
}

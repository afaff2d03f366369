package cursor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dragginzgame/icydb-sub004/internal/access"
	"github.com/dragginzgame/icydb-sub004/internal/explain"
	"github.com/dragginzgame/icydb-sub004/internal/ikey"
	"github.com/dragginzgame/icydb-sub004/internal/model"
	"github.com/dragginzgame/icydb-sub004/internal/predicate"
	"github.com/dragginzgame/icydb-sub004/internal/queryplan"
	"github.com/dragginzgame/icydb-sub004/internal/value"
)

func widgetSchema(t *testing.T) model.EntityModel {
	name, err := ikey.TryNewEntityName("widget")
	require.NoError(t, err)
	return model.EntityModel{
		Path:       "widget",
		Name:       name,
		PrimaryKey: "id",
		Fields: []model.FieldModel{
			{Name: "id", Type: model.FieldType{Kind: model.FieldScalar, Scalar: value.KindInt}},
		},
	}
}

func orderedPlan(t *testing.T) (queryplan.QueryPlan[ikey.StorageKey], predicate.Predicate) {
	pred := predicate.Compare("id", predicate.OpGt, value.Int(0), predicate.Strict)
	plan := queryplan.QueryPlan[ikey.StorageKey]{
		Mode:   queryplan.ModeLoad,
		Access: access.FullScan[ikey.StorageKey](),
		Order:  queryplan.OrderSpec{Fields: []queryplan.OrderField{{Field: "id", Direction: queryplan.Ascending}}},
	}
	return plan, pred
}

func validToken(t *testing.T, plan queryplan.QueryPlan[ikey.StorageKey], projected explain.Plan) Token {
	sig := explain.ContinuationSignature("widget", projected)
	return Token{
		Version:       Version,
		Signature:     sig,
		Direction:     queryplan.Ascending,
		InitialOffset: 0,
		Boundary:      []value.Value{value.Int(1)},
	}
}

func TestValidateAcceptsMatchingCursor(t *testing.T) {
	schema := widgetSchema(t)
	plan, pred := orderedPlan(t)
	projected := explain.Project(plan, pred, false)
	tok := validToken(t, plan, projected)

	require.NoError(t, Validate(tok, schema, "widget", plan, projected))
}

func TestValidateRejectsVersionMismatch(t *testing.T) {
	schema := widgetSchema(t)
	plan, pred := orderedPlan(t)
	projected := explain.Project(plan, pred, false)
	tok := validToken(t, plan, projected)
	tok.Version = 99

	err := Validate(tok, schema, "widget", plan, projected)
	require.Error(t, err)
	var cerr *CursorError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "ContinuationCursorVersionMismatch", cerr.Kind)
}

func TestValidateRejectsSignatureDrift(t *testing.T) {
	schema := widgetSchema(t)
	plan, pred := orderedPlan(t)
	projected := explain.Project(plan, pred, false)
	tok := validToken(t, plan, projected)

	driftedPred := predicate.Compare("id", predicate.OpGt, value.Int(999), predicate.Strict)
	driftedProjected := explain.Project(plan, driftedPred, false)

	err := Validate(tok, schema, "widget", plan, driftedProjected)
	require.Error(t, err)
	var cerr *CursorError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "ContinuationCursorSignatureMismatch", cerr.Kind)
}

func TestValidateRejectsDirectionMismatch(t *testing.T) {
	schema := widgetSchema(t)
	plan, pred := orderedPlan(t)
	projected := explain.Project(plan, pred, false)
	tok := validToken(t, plan, projected)
	tok.Direction = queryplan.Descending

	err := Validate(tok, schema, "widget", plan, projected)
	require.Error(t, err)
	var cerr *CursorError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "ContinuationCursorDirectionMismatch", cerr.Kind)
}

func TestValidateRejectsBoundaryArityMismatch(t *testing.T) {
	schema := widgetSchema(t)
	plan, pred := orderedPlan(t)
	projected := explain.Project(plan, pred, false)
	tok := validToken(t, plan, projected)
	tok.Boundary = []value.Value{value.Int(1), value.Int(2)}

	err := Validate(tok, schema, "widget", plan, projected)
	require.Error(t, err)
	var cerr *CursorError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "ContinuationCursorBoundaryArityMismatch", cerr.Kind)
}

func TestValidateRequiresAnchorForIndexRangePlan(t *testing.T) {
	schema := widgetSchema(t)
	plan, pred := orderedPlan(t)
	plan.Access = access.Leaf[ikey.StorageKey](access.IndexRangePath[ikey.StorageKey](access.SemanticIndexRangeSpec{
		Index: "widget|id", FieldSlots: 1, LowerBound: access.Included(value.Int(0)),
	}))
	projected := explain.Project(plan, pred, false)
	tok := validToken(t, plan, projected)

	err := Validate(tok, schema, "widget", plan, projected)
	require.Error(t, err)
	var cerr *CursorError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "ContinuationCursorAnchorRequired", cerr.Kind)
}

func TestKeyEnvelopeExcludesAnchorOnDirectionalEdge(t *testing.T) {
	lower, err := ikey.TryFromValue(value.Int(0))
	require.NoError(t, err)
	upper, err := ikey.TryFromValue(value.Int(100))
	require.NoError(t, err)
	anchor, err := ikey.TryFromValue(value.Int(10))
	require.NoError(t, err)

	env := NewKeyEnvelope(&lower, &upper, true, true, queryplan.Ascending, &anchor)
	assert.False(t, env.Contains(anchor))

	after, err := ikey.TryFromValue(value.Int(11))
	require.NoError(t, err)
	assert.True(t, env.Contains(after))
	assert.True(t, ContinuationAdvanced(after, anchor, queryplan.Ascending))
}

func TestKeyEnvelopeIsEmptyWhenBoundsInverted(t *testing.T) {
	lower, err := ikey.TryFromValue(value.Int(10))
	require.NoError(t, err)
	upper, err := ikey.TryFromValue(value.Int(5))
	require.NoError(t, err)

	env := NewKeyEnvelope(&lower, &upper, true, true, queryplan.Ascending, nil)
	assert.True(t, env.IsEmpty())
}

package explain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dragginzgame/icydb-sub004/internal/access"
	"github.com/dragginzgame/icydb-sub004/internal/ikey"
	"github.com/dragginzgame/icydb-sub004/internal/predicate"
	"github.com/dragginzgame/icydb-sub004/internal/queryplan"
	"github.com/dragginzgame/icydb-sub004/internal/value"
)

func basePlan(t *testing.T) queryplan.QueryPlan[ikey.StorageKey] {
	k, err := ikey.TryFromValue(value.Int(1))
	require.NoError(t, err)
	return queryplan.QueryPlan[ikey.StorageKey]{
		Mode:   queryplan.ModeLoad,
		Access: access.Leaf[ikey.StorageKey](access.ByKeyPath(k)),
	}
}

func TestFingerprintDeterministic(t *testing.T) {
	plan := basePlan(t)
	p1 := Project(plan, predicate.Compare("id", predicate.OpEq, value.Int(1), predicate.Strict), false)
	p2 := Project(plan, predicate.Compare("id", predicate.OpEq, value.Int(1), predicate.Strict), false)
	assert.Equal(t, p1.Fingerprint(), p2.Fingerprint())
}

func TestFingerprintDiffersOnPageButSignatureDoesNot(t *testing.T) {
	plan := basePlan(t)
	pred := predicate.Compare("id", predicate.OpEq, value.Int(1), predicate.Strict)

	p1 := Project(plan, pred, false)
	plan2 := plan
	plan2.Page = &queryplan.PageSpec{Offset: 0, Limit: 10}
	p2 := Project(plan2, pred, false)

	assert.NotEqual(t, p1.Fingerprint(), p2.Fingerprint())
	assert.Equal(t, ContinuationSignature("widget", p1), ContinuationSignature("widget", p2))
}

func TestContinuationSignatureChangesWithEntityPath(t *testing.T) {
	plan := basePlan(t)
	pred := predicate.Compare("id", predicate.OpEq, value.Int(1), predicate.Strict)
	p := Project(plan, pred, false)

	assert.NotEqual(t, ContinuationSignature("widget", p), ContinuationSignature("gadget", p))
}

func TestContinuationSignatureChangesWithPredicate(t *testing.T) {
	plan := basePlan(t)
	p1 := Project(plan, predicate.Compare("id", predicate.OpEq, value.Int(1), predicate.Strict), false)
	p2 := Project(plan, predicate.Compare("id", predicate.OpEq, value.Int(2), predicate.Strict), false)

	assert.NotEqual(t, ContinuationSignature("widget", p1), ContinuationSignature("widget", p2))
}

// Package cursor implements the continuation-token wire format and
// validation of spec §4.G: a signed, versioned, direction- and
// window-aware resumable token tied to the plan shape it was issued
// against.
package cursor

import (
	"bytes"
	"fmt"

	"github.com/dragginzgame/icydb-sub004/internal/access"
	"github.com/dragginzgame/icydb-sub004/internal/explain"
	"github.com/dragginzgame/icydb-sub004/internal/ikey"
	"github.com/dragginzgame/icydb-sub004/internal/model"
	"github.com/dragginzgame/icydb-sub004/internal/queryplan"
	"github.com/dragginzgame/icydb-sub004/internal/value"
)

// Version is the only token wire version this build understands.
const Version byte = 1

// Token is the wire-bound continuation cursor (spec §4.G).
type Token struct {
	Version       byte
	Signature     [32]byte
	Direction     queryplan.Direction
	InitialOffset uint64
	Boundary      []value.Value
	Anchor        *ikey.StorageKey
}

// CursorError is the continuation-cursor error family.
type CursorError struct {
	Kind string
	Msg  string
}

func (e *CursorError) Error() string { return fmt.Sprintf("cursor: %s: %s", e.Kind, e.Msg) }

func cerr(kind, msg string) error { return &CursorError{Kind: kind, Msg: msg} }

// planDirection derives the direction a plan demands from its trailing
// order field (or Ascending for an unordered plan).
func planDirection(order queryplan.OrderSpec) queryplan.Direction {
	if order.IsEmpty() {
		return queryplan.Ascending
	}
	return order.Fields[len(order.Fields)-1].Direction
}

func requiresAnchor(plan queryplan.QueryPlan[ikey.StorageKey]) bool {
	return plan.Access.Kind == access.PlanLeaf && plan.Access.Path.Kind == access.PathIndexRange
}

// Validate checks tok against schema, entityPath, and plan (spec §4.G
// "Validation of a provided cursor").
func Validate(tok Token, schema model.EntityModel, entityPath string, plan queryplan.QueryPlan[ikey.StorageKey], projected explain.Plan) error {
	if tok.Version != Version {
		return cerr("ContinuationCursorVersionMismatch", "unknown cursor version")
	}

	wantSig := explain.ContinuationSignature(entityPath, projected)
	if !bytes.Equal(tok.Signature[:], wantSig[:]) {
		return cerr("ContinuationCursorSignatureMismatch", "cursor signature does not match the current plan")
	}

	if tok.Direction != planDirection(plan.Order) {
		return cerr("ContinuationCursorDirectionMismatch", "cursor direction does not match the plan's direction")
	}

	wantOffset := uint64(0)
	if plan.Page != nil {
		wantOffset = plan.Page.Offset
	}
	if tok.InitialOffset != wantOffset {
		return cerr("ContinuationCursorWindowMismatch", "cursor initial offset does not match the plan's page offset")
	}

	if len(tok.Boundary) != len(plan.Order.Fields) {
		return cerr("ContinuationCursorBoundaryArityMismatch", "boundary arity does not match the order spec length")
	}

	for i, of := range plan.Order.Fields {
		field, ok := schema.Field(of.Field)
		if !ok {
			return cerr("ContinuationCursorBoundaryArityMismatch", "order field does not resolve on the model")
		}
		slot := tok.Boundary[i]
		if of.Field == schema.PrimaryKey {
			if _, err := ikey.TryFromValue(slot); err != nil {
				return cerr("ContinuationCursorPrimaryKeyTypeMismatch", "primary-key boundary slot is not decodable as a storage key")
			}
			continue
		}
		if field.Type.Kind != model.FieldScalar || field.Type.Scalar != slot.Kind {
			return cerr("ContinuationCursorPrimaryKeyTypeMismatch", "boundary slot type does not match its order field's declared type")
		}
	}

	wantAnchor := requiresAnchor(plan)
	if wantAnchor && tok.Anchor == nil {
		return cerr("ContinuationCursorAnchorRequired", "index-range plans require an index-range anchor")
	}
	if !wantAnchor && tok.Anchor != nil {
		return cerr("ContinuationCursorAnchorUnexpected", "non-index-range plans must not carry an anchor")
	}

	return nil
}

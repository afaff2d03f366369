// Package explain implements the deterministic explain projection, plan
// fingerprint, and continuation signature of spec §4.M/§4.G: a canonical,
// versioned byte encoding of a query plan's shape used both for cache keys
// and for binding a continuation cursor to the plan it was issued against.
package explain

import (
	"crypto/sha256"

	"github.com/dragginzgame/icydb-sub004/internal/access"
	"github.com/dragginzgame/icydb-sub004/internal/fingerprint"
	"github.com/dragginzgame/icydb-sub004/internal/ikey"
	"github.com/dragginzgame/icydb-sub004/internal/predicate"
	"github.com/dragginzgame/icydb-sub004/internal/queryplan"
	"github.com/dragginzgame/icydb-sub004/internal/value"
)

// Version tags the encoding so format changes invalidate old fingerprints
// and signatures outright rather than silently colliding.
const Version byte = 1

// projectionMarker is the single constant tag representing "full row"
// (spec §4.G step 6); IcyDB has no partial-projection surface.
const projectionMarker byte = 0x01

// Plan is the deterministic projection of a query plan: mode, access
// shape, normalized predicate, order spec, distinct flag, order-pushdown
// eligibility, pagination, delete limit, and consistency (spec §4.M).
type Plan struct {
	Mode          queryplan.Mode
	Access        access.AccessPlan[ikey.StorageKey]
	Predicate     predicate.Predicate
	Order         queryplan.OrderSpec
	Distinct      bool
	OrderPushdown bool
	Page          *queryplan.PageSpec
	DeleteLimit   *uint64
	Consistency   queryplan.Consistency
}

// Project builds the deep, deterministic projection of plan (spec §4.M).
func Project(plan queryplan.QueryPlan[ikey.StorageKey], p predicate.Predicate, orderPushdown bool) Plan {
	return Plan{
		Mode:          plan.Mode,
		Access:        plan.Access,
		Predicate:     predicate.Normalize(p),
		Order:         plan.Order,
		Distinct:      plan.Distinct,
		OrderPushdown: orderPushdown,
		Page:          plan.Page,
		DeleteLimit:   plan.DeleteLimit,
		Consistency:   plan.Consistency,
	}
}

// Fingerprint is SHA-256 over a versioned, tagged encoding of the
// projection, including pagination (spec §4.M).
func (p Plan) Fingerprint() [32]byte {
	buf := []byte{Version}
	buf = appendCommon(buf, p)
	buf = appendOptionalPage(buf, p.Page)
	buf = appendOptionalLimit(buf, p.DeleteLimit)
	return sha256.Sum256(buf)
}

// ContinuationSignature is SHA-256 over entityPath plus the same fields as
// Fingerprint, EXCLUDING pagination and delete limit, so a resumed query
// survives window moves (spec §4.G "continuation_signature").
func ContinuationSignature(entityPath string, p Plan) [32]byte {
	var buf []byte
	buf = fingerprint.FrameElement(buf, 0x00, []byte(entityPath))
	buf = appendCommon(buf, p)
	return sha256.Sum256(buf)
}

func appendCommon(buf []byte, p Plan) []byte {
	buf = append(buf, byte(p.Mode))
	buf = fingerprint.FrameElement(buf, 0x10, accessBytes(p.Access))
	buf = fingerprint.FrameElement(buf, 0x11, predicateBytes(p.Predicate))
	buf = fingerprint.FrameElement(buf, 0x12, orderBytes(p.Order))
	if p.Distinct {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	if p.OrderPushdown {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	buf = append(buf, byte(p.Consistency))
	buf = append(buf, projectionMarker)
	return buf
}

func appendOptionalPage(buf []byte, page *queryplan.PageSpec) []byte {
	if page == nil {
		return fingerprint.FrameElement(buf, 0x20, nil)
	}
	var pbuf []byte
	pbuf = appendU64(pbuf, page.Offset)
	pbuf = appendU64(pbuf, page.Limit)
	return fingerprint.FrameElement(buf, 0x20, pbuf)
}

func appendOptionalLimit(buf []byte, limit *uint64) []byte {
	if limit == nil {
		return fingerprint.FrameElement(buf, 0x21, nil)
	}
	var lbuf []byte
	lbuf = appendU64(lbuf, *limit)
	return fingerprint.FrameElement(buf, 0x21, lbuf)
}

func appendU64(buf []byte, v uint64) []byte {
	return append(buf,
		byte(v>>56), byte(v>>48), byte(v>>40), byte(v>>32),
		byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func orderBytes(o queryplan.OrderSpec) []byte {
	var buf []byte
	for _, f := range o.Fields {
		buf = fingerprint.FrameElement(buf, 0x30, []byte(f.Field))
		buf = append(buf, byte(f.Direction))
	}
	return buf
}

func predicateBytes(p predicate.Predicate) []byte {
	var buf []byte
	buf = append(buf, byte(p.Kind))
	buf = fingerprint.FrameElement(buf, 0x40, []byte(p.Field))
	buf = append(buf, byte(p.Op))
	if vfp, ok := fingerprint.Of(p.Value); ok {
		buf = fingerprint.FrameElement(buf, 0x41, vfp.Bytes())
	} else {
		buf = fingerprint.FrameElement(buf, 0x41, nil)
	}
	buf = fingerprint.FrameElement(buf, 0x42, []byte(p.Text))
	for _, c := range p.Children {
		buf = fingerprint.FrameElement(buf, 0x43, predicateBytes(c))
	}
	if p.Child != nil {
		buf = fingerprint.FrameElement(buf, 0x44, predicateBytes(*p.Child))
	}
	return buf
}

func accessBytes(plan access.AccessPlan[ikey.StorageKey]) []byte {
	if plan.Kind != access.PlanLeaf {
		var buf []byte
		buf = append(buf, byte(plan.Kind))
		for _, c := range plan.Children {
			buf = fingerprint.FrameElement(buf, 0x50, accessBytes(c))
		}
		return buf
	}

	path := plan.Path
	buf := []byte{byte(path.Kind)}
	switch path.Kind {
	case access.PathByKey:
		buf = fingerprint.FrameElement(buf, 0x51, path.Key.ToBytes())
	case access.PathByKeys:
		for _, k := range path.Keys {
			buf = fingerprint.FrameElement(buf, 0x52, k.ToBytes())
		}
	case access.PathKeyRange:
		buf = fingerprint.FrameElement(buf, 0x53, path.RangeFrom.ToBytes())
		buf = fingerprint.FrameElement(buf, 0x54, path.RangeTo.ToBytes())
	case access.PathIndexPrefix:
		buf = fingerprint.FrameElement(buf, 0x55, []byte(path.Index))
		for _, v := range path.Values {
			buf = fingerprint.FrameElement(buf, 0x56, value.CanonicalBytes(v))
		}
	case access.PathIndexRange:
		buf = fingerprint.FrameElement(buf, 0x57, []byte(path.Range.Index))
		buf = append(buf, byte(path.Range.FieldSlots))
		for _, v := range path.Range.PrefixValues {
			buf = fingerprint.FrameElement(buf, 0x58, value.CanonicalBytes(v))
		}
		buf = boundBytes(buf, 0x59, path.Range.LowerBound)
		buf = boundBytes(buf, 0x5a, path.Range.UpperBound)
	}
	return buf
}

func boundBytes(buf []byte, tag byte, b access.Bound) []byte {
	inner := []byte{byte(b.Kind)}
	if b.Kind != access.BoundUnbounded {
		if fp, ok := fingerprint.Of(b.Value); ok {
			inner = fingerprint.FrameElement(inner, 0x01, fp.Bytes())
		}
	}
	return fingerprint.FrameElement(buf, tag, inner)
}

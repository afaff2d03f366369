package value

import (
	"bytes"
	"encoding/binary"
)

// Equal is canonical equality: by tag then by variant contents, with
// Decimal normalized and Map normalized+order-independent (spec §4.A).
func Equal(a, b Value) bool {
	return Compare(a, b) == 0
}

// Compare is the total canonical ordering on keyable scalars; for
// non-keyable scalars it is only meaningful within the same variant, and
// the cross-variant fallback is by variant tag (spec §4.A).
func Compare(a, b Value) int {
	if a.Kind != b.Kind {
		if a.Kind < b.Kind {
			return -1
		}
		return 1
	}
	switch a.Kind {
	case KindNull, KindUnit:
		return 0
	case KindBool:
		return cmpBool(a.boolV, b.boolV)
	case KindInt:
		return cmpInt64(a.i64, b.i64)
	case KindUint:
		return cmpUint64(a.u64, b.u64)
	case KindDate, KindTimestamp, KindDuration:
		return cmpInt64(a.i64, b.i64)
	case KindInt128, KindUint128, KindIntBig, KindUintBig:
		return a.big.Cmp(b.big)
	case KindFloat32:
		return cmpFloat64(float64(a.f32), float64(b.f32))
	case KindFloat64:
		return cmpFloat64(a.f64, b.f64)
	case KindDecimal:
		return CompareDecimal(a.dec, b.dec)
	case KindText:
		return bytesCompare([]byte(a.text), []byte(b.text))
	case KindBlob, KindUlid, KindSubaccount, KindPrincipal, KindAccount:
		return bytesCompare(a.blob, b.blob)
	case KindEnum:
		return cmpEnum(a.enum, b.enum)
	case KindList:
		return cmpList(a.list, b.list)
	case KindMap:
		return cmpMap(a.mapv, b.mapv)
	default:
		return 0
	}
}

func cmpBool(a, b bool) int {
	if a == b {
		return 0
	}
	if !a {
		return -1
	}
	return 1
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func bytesCompare(a, b []byte) int { return bytes.Compare(a, b) }

func cmpEnum(a, b Enum) int {
	if c := bytesCompare([]byte(a.Path), []byte(b.Path)); c != 0 {
		return c
	}
	if c := bytesCompare([]byte(a.Variant), []byte(b.Variant)); c != 0 {
		return c
	}
	switch {
	case a.Payload == nil && b.Payload == nil:
		return 0
	case a.Payload == nil:
		return -1
	case b.Payload == nil:
		return 1
	default:
		return Compare(*a.Payload, *b.Payload)
	}
}

func cmpList(a, b []Value) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmpInt64(int64(len(a)), int64(len(b)))
}

func cmpMap(a, b []MapEntry) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := Compare(a[i].Key, b[i].Key); c != 0 {
			return c
		}
		if c := Compare(a[i].Value, b[i].Value); c != 0 {
			return c
		}
	}
	return cmpInt64(int64(len(a)), int64(len(b)))
}

// CanonicalBytes produces a framed, length-prefixed byte encoding used for
// deterministic Map-key ordering and as the pre-image fed to the stable
// hash in internal/fingerprint. Every length-delimited payload is
// length-prefixed so adjacent blobs cannot collide across a boundary
// (spec §4.C "Framed encoding").
func CanonicalBytes(v Value) []byte {
	var buf bytes.Buffer
	writeCanonical(&buf, v)
	return buf.Bytes()
}

func writeCanonical(buf *bytes.Buffer, v Value) {
	buf.WriteByte(byte(v.Kind))
	switch v.Kind {
	case KindNull, KindUnit:
	case KindBool:
		if v.boolV {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	case KindInt:
		writeU64(buf, uint64(v.i64))
	case KindUint:
		writeU64(buf, v.u64)
	case KindDate, KindTimestamp, KindDuration:
		writeU64(buf, uint64(v.i64))
	case KindInt128, KindUint128, KindIntBig, KindUintBig:
		writeFramedBytes(buf, v.big.Bytes())
		if v.big.Sign() < 0 {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	case KindFloat32:
		writeU64(buf, uint64(math32bits(v.f32)))
	case KindFloat64:
		writeU64(buf, math64bits(v.f64))
	case KindDecimal:
		writeFramedBytes(buf, v.dec.Mantissa.Bytes())
		if v.dec.Mantissa.Sign() < 0 {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
		writeU64(buf, uint64(v.dec.Scale))
	case KindText:
		writeFramedBytes(buf, []byte(v.text))
	case KindBlob, KindUlid, KindSubaccount, KindPrincipal, KindAccount:
		writeFramedBytes(buf, v.blob)
	case KindEnum:
		writeFramedBytes(buf, []byte(v.enum.Path))
		writeFramedBytes(buf, []byte(v.enum.Variant))
		if v.enum.Payload != nil {
			buf.WriteByte(1)
			writeCanonical(buf, *v.enum.Payload)
		} else {
			buf.WriteByte(0)
		}
	case KindList:
		writeU64(buf, uint64(len(v.list)))
		for _, item := range v.list {
			buf.WriteByte(0xBE) // element boundary tag
			writeCanonical(buf, item)
		}
	case KindMap:
		writeU64(buf, uint64(len(v.mapv)))
		for _, e := range v.mapv {
			buf.WriteByte(0xBE)
			writeCanonical(buf, e.Key)
			buf.WriteByte(0xBF)
			writeCanonical(buf, e.Value)
		}
	}
}

func writeFramedBytes(buf *bytes.Buffer, b []byte) {
	writeU64(buf, uint64(len(b)))
	buf.Write(b)
}

func writeU64(buf *bytes.Buffer, u uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], u)
	buf.Write(tmp[:])
}

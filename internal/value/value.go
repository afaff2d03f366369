// Package value implements the canonical typed Value universe of the db:
// a tagged sum over scalar and composite kinds, with canonical equality,
// canonical ordering, and normalization rules (Decimal trailing-zero
// removal, Map key/order canonicalization) shared by every layer above it.
package value

import (
	"fmt"
	"math/big"
)

// Kind tags the variant a Value holds. Order of the iota values is the
// cross-variant tag used as the ordering fallback and as the StorageKey tag
// byte (see internal/ikey), so it must never be reordered once persisted
// data exists.
type Kind uint8

const (
	KindNull Kind = iota
	KindUnit
	KindBool
	KindInt
	KindUint
	KindInt128
	KindUint128
	KindIntBig
	KindUintBig
	KindFloat32
	KindFloat64
	KindDecimal
	KindText
	KindBlob
	KindDate
	KindTimestamp
	KindDuration
	KindUlid
	KindPrincipal
	KindSubaccount
	KindAccount
	KindEnum
	KindList
	KindMap
)

// CoercionFamily groups scalar kinds for coercion-legality checks. This is
// the single source of truth referenced by internal/predicate.
type CoercionFamily uint8

const (
	FamilyIdentifier CoercionFamily = iota
	FamilyBlob
	FamilyBool
	FamilyNumeric
	FamilyEnum
	FamilyTextual
	FamilyUnit
)

// Decimal is a normalized mantissa+scale decimal (trailing zeros removed
// before persistence/hashing/equality, per spec §3).
type Decimal struct {
	Mantissa *big.Int
	Scale    int32
}

// Enum is a path-qualified variant with an optional payload.
type Enum struct {
	Path    string // declared enum type path; "" means an unresolved literal
	Variant string
	Payload *Value
}

// MapEntry is one key/value pair of a Map value.
type MapEntry struct {
	Key   Value
	Value Value
}

// Value is the universal runtime value.
type Value struct {
	Kind Kind

	boolV  bool
	i64    int64
	u64    uint64
	f32    float32
	f64    float64
	text   string
	blob   []byte
	big    *big.Int // Int128/Uint128/IntBig/UintBig magnitude (IntBig/Int128 signed via big.Int sign)
	dec    Decimal
	enum   Enum
	list   []Value
	mapv   []MapEntry
}

func Null() Value { return Value{Kind: KindNull} }
func Unit() Value { return Value{Kind: KindUnit} }
func Bool(b bool) Value { return Value{Kind: KindBool, boolV: b} }
func Int(i int64) Value { return Value{Kind: KindInt, i64: i} }
func Uint(u uint64) Value { return Value{Kind: KindUint, u64: u} }
func Float32(f float32) Value { return Value{Kind: KindFloat32, f32: f} }
func Float64(f float64) Value { return Value{Kind: KindFloat64, f64: f} }
func Text(s string) Value { return Value{Kind: KindText, text: s} }
func Blob(b []byte) Value { return Value{Kind: KindBlob, blob: append([]byte(nil), b...)} }
func Date(unixDays int64) Value { return Value{Kind: KindDate, i64: unixDays} }
func Timestamp(unixNanos int64) Value { return Value{Kind: KindTimestamp, i64: unixNanos} }
func Duration(nanos int64) Value { return Value{Kind: KindDuration, i64: nanos} }
func Ulid(b [16]byte) Value { return Value{Kind: KindUlid, blob: b[:]} }
func Subaccount(b [32]byte) Value { return Value{Kind: KindSubaccount, blob: b[:]} }

// Principal stores its raw bytes (<=29 bytes, enforced at the ikey layer).
func Principal(b []byte) Value { return Value{Kind: KindPrincipal, blob: append([]byte(nil), b...)} }

// Account stores its canonical fixed-size encoding.
func Account(b []byte) Value { return Value{Kind: KindAccount, blob: append([]byte(nil), b...)} }

func Int128(v *big.Int) Value { return Value{Kind: KindInt128, big: new(big.Int).Set(v)} }
func Uint128(v *big.Int) Value { return Value{Kind: KindUint128, big: new(big.Int).Set(v)} }
func IntBig(v *big.Int) Value { return Value{Kind: KindIntBig, big: new(big.Int).Set(v)} }
func UintBig(v *big.Int) Value { return Value{Kind: KindUintBig, big: new(big.Int).Set(v)} }

// NewDecimal normalizes the mantissa/scale (trailing zero removal) before
// constructing the Value, per spec §3 and §4.A.
func NewDecimal(mantissa *big.Int, scale int32) Value {
	return Value{Kind: KindDecimal, dec: normalizeDecimal(Decimal{Mantissa: new(big.Int).Set(mantissa), Scale: scale})}
}

func NewEnum(path, variant string, payload *Value) Value {
	return Value{Kind: KindEnum, enum: Enum{Path: path, Variant: variant, Payload: payload}}
}

func List(items []Value) Value {
	return Value{Kind: KindList, list: append([]Value(nil), items...)}
}

// NewMap normalizes entries: keys must be unique under canonical equality,
// and entries are sorted into canonical order before persistence/hashing.
func NewMap(entries []MapEntry) (Value, error) {
	normalized, err := normalizeMapEntries(entries)
	if err != nil {
		return Value{}, err
	}
	return Value{Kind: KindMap, mapv: normalized}, nil
}

// Accessors used by ikey/fingerprint/predicate.

func (v Value) BoolValue() bool       { return v.boolV }
func (v Value) IntValue() int64       { return v.i64 }
func (v Value) UintValue() uint64     { return v.u64 }
func (v Value) Float32Value() float32 { return v.f32 }
func (v Value) Float64Value() float64 { return v.f64 }
func (v Value) TextValue() string     { return v.text }
func (v Value) BlobValue() []byte     { return v.blob }
func (v Value) BigValue() *big.Int    { return v.big }
func (v Value) DecimalValue() Decimal { return v.dec }
func (v Value) EnumValue() Enum       { return v.enum }
func (v Value) ListValue() []Value    { return v.list }
func (v Value) MapValue() []MapEntry  { return v.mapv }

func (v Value) IsNull() bool { return v.Kind == KindNull }

func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindText:
		return fmt.Sprintf("Text(%q)", v.text)
	case KindInt:
		return fmt.Sprintf("Int(%d)", v.i64)
	case KindUint:
		return fmt.Sprintf("Uint(%d)", v.u64)
	default:
		return fmt.Sprintf("%s(%v)", v.Kind, v.raw())
	}
}

func (v Value) raw() any {
	switch v.Kind {
	case KindBool:
		return v.boolV
	case KindFloat32:
		return v.f32
	case KindFloat64:
		return v.f64
	case KindBlob, KindUlid, KindSubaccount, KindPrincipal, KindAccount:
		return v.blob
	case KindInt128, KindUint128, KindIntBig, KindUintBig:
		return v.big
	case KindDecimal:
		return v.dec
	case KindEnum:
		return v.enum
	case KindList:
		return v.list
	case KindMap:
		return v.mapv
	default:
		return nil
	}
}

func (k Kind) String() string {
	names := map[Kind]string{
		KindNull: "Null", KindUnit: "Unit", KindBool: "Bool", KindInt: "Int",
		KindUint: "Uint", KindInt128: "Int128", KindUint128: "Uint128",
		KindIntBig: "IntBig", KindUintBig: "UintBig", KindFloat32: "Float32",
		KindFloat64: "Float64", KindDecimal: "Decimal", KindText: "Text",
		KindBlob: "Blob", KindDate: "Date", KindTimestamp: "Timestamp",
		KindDuration: "Duration", KindUlid: "Ulid", KindPrincipal: "Principal",
		KindSubaccount: "Subaccount", KindAccount: "Account", KindEnum: "Enum",
		KindList: "List", KindMap: "Map",
	}
	if n, ok := names[k]; ok {
		return n
	}
	return "Unknown"
}

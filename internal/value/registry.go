package value

// Caps is the fixed capability metadata for one scalar Kind: the single
// source of truth every coercion-legality check, planner guard, and
// executor field-extrema eligibility check reads from (spec §3, §9
// "Registries as single source of truth"). Never infer a capability from
// another; look it up here.
type Caps struct {
	CoercionFamily          CoercionFamily
	IsNumericValue          bool
	SupportsNumericCoercion bool
	SupportsArithmetic      bool
	SupportsEquality        bool
	SupportsOrdering        bool
	IsKeyable               bool
	IsStorageKeyEncodable   bool
}

// registry is declared once as a table, the same KeyKind switch-driven
// capability dispatch DynamoDB key encoding uses, generalized from three
// key kinds (S/N/B) to the full Value universe.
var registry = map[Kind]Caps{
	KindNull:    {CoercionFamily: FamilyUnit},
	KindUnit:    {CoercionFamily: FamilyUnit, SupportsEquality: true, SupportsOrdering: true, IsKeyable: true, IsStorageKeyEncodable: true},
	KindBool:    {CoercionFamily: FamilyBool, SupportsEquality: true, SupportsOrdering: true, IsKeyable: true, IsStorageKeyEncodable: true},
	KindInt:     {CoercionFamily: FamilyNumeric, IsNumericValue: true, SupportsNumericCoercion: true, SupportsArithmetic: true, SupportsEquality: true, SupportsOrdering: true, IsKeyable: true, IsStorageKeyEncodable: true},
	KindUint:    {CoercionFamily: FamilyNumeric, IsNumericValue: true, SupportsNumericCoercion: true, SupportsArithmetic: true, SupportsEquality: true, SupportsOrdering: true, IsKeyable: true, IsStorageKeyEncodable: true},
	KindInt128:  {CoercionFamily: FamilyNumeric, IsNumericValue: true, SupportsNumericCoercion: true, SupportsArithmetic: true, SupportsEquality: true, SupportsOrdering: true, IsKeyable: true, IsStorageKeyEncodable: true},
	KindUint128: {CoercionFamily: FamilyNumeric, IsNumericValue: true, SupportsNumericCoercion: true, SupportsArithmetic: true, SupportsEquality: true, SupportsOrdering: true, IsKeyable: true, IsStorageKeyEncodable: true},
	KindIntBig:  {CoercionFamily: FamilyNumeric, IsNumericValue: true, SupportsNumericCoercion: true, SupportsArithmetic: true, SupportsEquality: true, SupportsOrdering: true},
	KindUintBig: {CoercionFamily: FamilyNumeric, IsNumericValue: true, SupportsNumericCoercion: true, SupportsArithmetic: true, SupportsEquality: true, SupportsOrdering: true},
	KindFloat32: {CoercionFamily: FamilyNumeric, IsNumericValue: true, SupportsNumericCoercion: true, SupportsArithmetic: true, SupportsEquality: true, SupportsOrdering: true},
	KindFloat64: {CoercionFamily: FamilyNumeric, IsNumericValue: true, SupportsNumericCoercion: true, SupportsArithmetic: true, SupportsEquality: true, SupportsOrdering: true},
	KindDecimal: {CoercionFamily: FamilyNumeric, IsNumericValue: true, SupportsNumericCoercion: true, SupportsArithmetic: true, SupportsEquality: true, SupportsOrdering: true},
	KindText:    {CoercionFamily: FamilyTextual, SupportsEquality: true, SupportsOrdering: true, IsKeyable: true, IsStorageKeyEncodable: true},
	KindBlob:    {CoercionFamily: FamilyBlob, SupportsEquality: true, SupportsOrdering: true},
	KindDate:        {CoercionFamily: FamilyNumeric, IsNumericValue: true, SupportsEquality: true, SupportsOrdering: true, IsKeyable: true, IsStorageKeyEncodable: true},
	KindTimestamp:   {CoercionFamily: FamilyNumeric, IsNumericValue: true, SupportsEquality: true, SupportsOrdering: true, IsKeyable: true, IsStorageKeyEncodable: true},
	KindDuration:    {CoercionFamily: FamilyNumeric, IsNumericValue: true, SupportsEquality: true, SupportsOrdering: true, IsKeyable: true, IsStorageKeyEncodable: true},
	KindUlid:        {CoercionFamily: FamilyIdentifier, SupportsEquality: true, SupportsOrdering: true, IsKeyable: true, IsStorageKeyEncodable: true},
	KindPrincipal:   {CoercionFamily: FamilyIdentifier, SupportsEquality: true, SupportsOrdering: true, IsKeyable: true, IsStorageKeyEncodable: true},
	KindSubaccount:  {CoercionFamily: FamilyIdentifier, SupportsEquality: true, SupportsOrdering: true, IsKeyable: true, IsStorageKeyEncodable: true},
	KindAccount:     {CoercionFamily: FamilyIdentifier, SupportsEquality: true, SupportsOrdering: true, IsKeyable: true, IsStorageKeyEncodable: true},
	KindEnum:        {CoercionFamily: FamilyEnum, SupportsEquality: true},
	KindList:        {CoercionFamily: FamilyBlob, SupportsEquality: true},
	KindMap:         {CoercionFamily: FamilyBlob, SupportsEquality: true},
}

// CapsOf returns the capability row for a Kind. Kinds missing from the
// table (there are none) would return the zero Caps, which denies every
// capability — fail closed.
func CapsOf(k Kind) Caps { return registry[k] }

func (v Value) Caps() Caps { return CapsOf(v.Kind) }

// IsKeyable reports whether this value's scalar may act as a key (index
// entry member, primary key, etc).
func (v Value) IsKeyable() bool { return v.Caps().IsKeyable }

// IsStorageKeyEncodable reports whether this value may materialize as a
// StorageKey (spec §3 — "Only values whose scalar is is_storage_key_encodable").
func (v Value) IsStorageKeyEncodable() bool { return v.Caps().IsStorageKeyEncodable }

// IsIndexable reports whether this value can produce a fingerprint; Null
// never can (spec §3).
func (v Value) IsIndexable() bool { return v.Kind != KindNull }

func (v Value) IsOrderable() bool { return v.Caps().SupportsOrdering }

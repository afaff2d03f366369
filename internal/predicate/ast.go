// Package predicate implements the typed predicate AST of spec §3/§4.D:
// construction, deterministic normalization, enum-literal resolution, and
// schema validation.
package predicate

import "github.com/dragginzgame/icydb-sub004/internal/value"

// Kind discriminates the predicate variant.
type Kind uint8

const (
	KindTrue Kind = iota
	KindFalse
	KindAnd
	KindOr
	KindNot
	KindCompare
	KindIsNull
	KindIsMissing
	KindIsEmpty
	KindIsNotEmpty
	KindTextContains
	KindTextContainsCi
)

// Op is a Compare operator.
type Op uint8

const (
	OpEq Op = iota
	OpNe
	OpLt
	OpLte
	OpGt
	OpGte
	OpIn
	OpNotIn
	OpAnyIn
	OpAllIn
	OpContains
	OpStartsWith
	OpEndsWith
)

// IsOrdering reports whether op requires scalar orderability.
func (o Op) IsOrdering() bool {
	switch o {
	case OpLt, OpLte, OpGt, OpGte:
		return true
	default:
		return false
	}
}

// CoercionKind names a canonical coercion.
type CoercionKind uint8

const (
	CoerceStrict CoercionKind = iota
	CoerceNumericWiden
	CoerceTextCasefold
	CoerceCollectionElement
)

// Coercion is a coercion spec: a kind plus, for CollectionElement, the
// coercion to apply to each element.
type Coercion struct {
	Kind    CoercionKind
	Element *Coercion
}

// Strict is the default coercion spec.
var Strict = Coercion{Kind: CoerceStrict}

// Predicate is the typed predicate tree.
type Predicate struct {
	Kind Kind

	Children []Predicate // And / Or
	Child    *Predicate  // Not

	Field    string // Compare / IsNull / IsMissing / IsEmpty / IsNotEmpty / TextContains*
	Op       Op     // Compare
	Value    value.Value
	Coercion Coercion

	Text         string // TextContains / TextContainsCi search text
}

func True() Predicate  { return Predicate{Kind: KindTrue} }
func False() Predicate { return Predicate{Kind: KindFalse} }

func And(children ...Predicate) Predicate { return Predicate{Kind: KindAnd, Children: children} }
func Or(children ...Predicate) Predicate  { return Predicate{Kind: KindOr, Children: children} }
func Not(child Predicate) Predicate       { return Predicate{Kind: KindNot, Child: &child} }

func Compare(field string, op Op, v value.Value, c Coercion) Predicate {
	return Predicate{Kind: KindCompare, Field: field, Op: op, Value: v, Coercion: c}
}

func IsNull(field string) Predicate      { return Predicate{Kind: KindIsNull, Field: field} }
func IsMissing(field string) Predicate   { return Predicate{Kind: KindIsMissing, Field: field} }
func IsEmpty(field string) Predicate     { return Predicate{Kind: KindIsEmpty, Field: field} }
func IsNotEmpty(field string) Predicate  { return Predicate{Kind: KindIsNotEmpty, Field: field} }

func TextContains(field, text string) Predicate {
	return Predicate{Kind: KindTextContains, Field: field, Text: text}
}

func TextContainsCi(field, text string) Predicate {
	return Predicate{Kind: KindTextContainsCi, Field: field, Text: text}
}

package predicate

import (
	"github.com/dragginzgame/icydb-sub004/internal/model"
	"github.com/dragginzgame/icydb-sub004/internal/value"
)

// Validate checks p against schema: field existence, queryability,
// orderability, operator legality, coercion legality, and literal/type
// compatibility (spec §4.D).
func Validate(schema model.EntityModel, p Predicate) error {
	switch p.Kind {
	case KindTrue, KindFalse:
		return nil

	case KindAnd, KindOr:
		for _, c := range p.Children {
			if err := Validate(schema, c); err != nil {
				return err
			}
		}
		return nil

	case KindNot:
		return Validate(schema, *p.Child)

	case KindIsNull, KindIsMissing, KindIsEmpty, KindIsNotEmpty:
		_, ok := schema.Field(p.Field)
		if !ok {
			return unknownField(p.Field)
		}
		return nil

	case KindTextContains, KindTextContainsCi:
		field, ok := schema.Field(p.Field)
		if !ok {
			return unknownField(p.Field)
		}
		if field.Type.Kind != model.FieldScalar || field.Type.Scalar != value.KindText {
			return invalidOperator(p.Field, "text_contains requires a Text field")
		}
		return nil

	case KindCompare:
		return validateCompare(schema, p)

	default:
		return nil
	}
}

func validateCompare(schema model.EntityModel, p Predicate) error {
	field, ok := schema.Field(p.Field)
	if !ok {
		return unknownField(p.Field)
	}
	if field.Type.Kind == model.FieldStructured && !field.Type.Queryable {
		return nonQueryableFieldType(p.Field)
	}

	if p.Op.IsOrdering() {
		if field.Type.Kind != model.FieldScalar || !value.CapsOf(field.Type.Scalar).SupportsOrdering {
			return invalidOperator(p.Field, "ordering operator on non-orderable scalar")
		}
	}

	if err := validateCoercion(field, p.Coercion); err != nil {
		return err
	}

	litField := field
	if p.Coercion.Kind == CoerceCollectionElement {
		// the literal is compared against the collection's elements
		litField.Type = model.FieldType{Kind: model.FieldScalar, Scalar: field.Type.Scalar}
	}
	return validateLiteral(litField, p.Op, p.Value)
}

func validateCoercion(field model.FieldModel, c Coercion) error {
	switch c.Kind {
	case CoerceStrict:
		return nil
	case CoerceNumericWiden:
		if field.Type.Kind != model.FieldScalar || !value.CapsOf(field.Type.Scalar).SupportsNumericCoercion {
			return invalidOperator(field.Name, "NumericWiden coercion illegal on this field's scalar")
		}
		return nil
	case CoerceTextCasefold:
		if field.Type.Kind != model.FieldScalar || field.Type.Scalar != value.KindText {
			return invalidOperator(field.Name, "TextCasefold coercion only legal on Text fields")
		}
		return nil
	case CoerceCollectionElement:
		if !field.Type.IsElementLike() {
			return invalidOperator(field.Name, "CollectionElement coercion only legal on list-like fields")
		}
		if c.Element != nil {
			return validateCoercion(model.FieldModel{Name: field.Name, Type: model.FieldType{Kind: model.FieldScalar, Scalar: field.Type.Scalar}}, *c.Element)
		}
		return nil
	default:
		return invalidOperator(field.Name, "unknown coercion kind")
	}
}

// validateLiteral enforces literal_matches_type, recursing through
// List/Set/Map element/entry types (spec §4.D).
func validateLiteral(field model.FieldModel, op Op, v value.Value) error {
	switch op {
	case OpIn, OpNotIn, OpAnyIn, OpAllIn:
		if v.Kind != value.KindList {
			return invalidLiteral(field.Name, "expected a list literal for this operator")
		}
		for _, item := range v.ListValue() {
			if err := literalMatchesType(field.Name, field.Type, item); err != nil {
				return err
			}
		}
		return nil
	default:
		return literalMatchesType(field.Name, field.Type, v)
	}
}

func literalMatchesType(fieldName string, t model.FieldType, v value.Value) error {
	switch t.Kind {
	case model.FieldScalar:
		if v.Kind != t.Scalar {
			return invalidLiteral(fieldName, "literal kind does not match declared scalar type")
		}
		return nil
	case model.FieldList, model.FieldSet:
		if v.Kind != value.KindList {
			return invalidLiteral(fieldName, "expected a list literal")
		}
		for _, item := range v.ListValue() {
			if item.Kind != t.Scalar {
				return invalidLiteral(fieldName, "list element kind does not match declared element type")
			}
		}
		return nil
	case model.FieldMap:
		if v.Kind != value.KindMap {
			return invalidLiteral(fieldName, "expected a map literal")
		}
		for _, e := range v.MapValue() {
			if e.Key.Kind != t.MapKey || e.Value.Kind != t.MapValue {
				return invalidLiteral(fieldName, "map entry kind does not match declared key/value type")
			}
		}
		return nil
	case model.FieldStructured:
		return nil
	default:
		return invalidLiteral(fieldName, "unknown field type")
	}
}

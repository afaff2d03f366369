package predicate

import (
	"github.com/dragginzgame/icydb-sub004/internal/model"
	"github.com/dragginzgame/icydb-sub004/internal/value"
)

// NormalizeEnumLiterals resolves loose enum literals (Path == "") in p
// against the declared field enum type from schema. Strict literals whose
// Path disagrees with the field's declared enum path are rejected with
// InvalidLiteral. In/NotIn lists and Contains/AnyIn/AllIn against list/set
// element kinds are recursed element-wise (spec §4.D).
func NormalizeEnumLiterals(schema model.EntityModel, p Predicate) (Predicate, error) {
	switch p.Kind {
	case KindAnd, KindOr:
		out := make([]Predicate, len(p.Children))
		for i, c := range p.Children {
			nc, err := NormalizeEnumLiterals(schema, c)
			if err != nil {
				return Predicate{}, err
			}
			out[i] = nc
		}
		return Predicate{Kind: p.Kind, Children: out}, nil

	case KindNot:
		nc, err := NormalizeEnumLiterals(schema, *p.Child)
		if err != nil {
			return Predicate{}, err
		}
		return Predicate{Kind: KindNot, Child: &nc}, nil

	case KindCompare:
		field, ok := schema.Field(p.Field)
		if !ok {
			return p, nil // unknown-field is reported by Validate, not here
		}
		if field.EnumPath == "" {
			return p, nil
		}
		resolved, err := resolveEnumValue(field.EnumPath, p.Field, p.Value)
		if err != nil {
			return Predicate{}, err
		}
		out := p
		out.Value = resolved
		return out, nil

	default:
		return p, nil
	}
}

// resolveEnumValue recurses through List values (for In/NotIn/AnyIn/AllIn)
// resolving each element, and through a single Enum value directly.
func resolveEnumValue(declaredPath, field string, v value.Value) (value.Value, error) {
	switch v.Kind {
	case value.KindList:
		items := v.ListValue()
		out := make([]value.Value, len(items))
		for i, item := range items {
			resolved, err := resolveEnumValue(declaredPath, field, item)
			if err != nil {
				return value.Value{}, err
			}
			out[i] = resolved
		}
		return value.List(out), nil

	case value.KindEnum:
		e := v.EnumValue()
		if e.Path == "" {
			return value.NewEnum(declaredPath, e.Variant, e.Payload), nil
		}
		if e.Path != declaredPath {
			return value.Value{}, invalidLiteral(field, "enum literal path does not match declared field enum type")
		}
		return v, nil

	default:
		return v, nil
	}
}

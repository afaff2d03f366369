// Package planvalidate implements validate_query_semantics (spec §4.F):
// predicate delegation, order-spec and pagination/delete policy checks, and
// a recursive access-plan/schema compatibility walk.
package planvalidate

import (
	"github.com/dragginzgame/icydb-sub004/internal/access"
	"github.com/dragginzgame/icydb-sub004/internal/model"
	"github.com/dragginzgame/icydb-sub004/internal/predicate"
	"github.com/dragginzgame/icydb-sub004/internal/queryplan"
	"github.com/dragginzgame/icydb-sub004/internal/value"
)

// Validate enforces every check in spec §4.F against schema for the given
// residual predicate p and plan.
func Validate[K any](schema model.EntityModel, p predicate.Predicate, plan queryplan.QueryPlan[K]) error {
	if err := predicate.Validate(schema, p); err != nil {
		return err
	}
	if err := validateOrder(schema, plan.Order); err != nil {
		return err
	}
	if err := validatePolicy(plan); err != nil {
		return err
	}
	if err := validateAccessStructure(schema, plan.Access); err != nil {
		return err
	}
	if plan.Group != nil {
		if err := validateGroup(schema, *plan.Group); err != nil {
			return err
		}
	}
	return nil
}

func validateOrder(schema model.EntityModel, order queryplan.OrderSpec) error {
	if order.IsEmpty() {
		return nil
	}

	seen := map[string]bool{}
	for i, of := range order.Fields {
		field, ok := schema.Field(of.Field)
		if !ok {
			return fieldErr("UnknownOrderField", of.Field, "order field does not exist on the entity")
		}
		if !field.Type.IsOrderable() {
			return fieldErr("NonOrderableOrderField", of.Field, "order field's scalar does not support ordering")
		}
		if of.Field != schema.PrimaryKey {
			if seen[of.Field] {
				return fieldErr("DuplicateOrderField", of.Field, "order field repeated")
			}
			seen[of.Field] = true
		}
		isLast := i == len(order.Fields)-1
		if of.Field == schema.PrimaryKey && !isLast {
			return fieldErr("MisplacedPrimaryKeyOrder", of.Field, "primary key must be the terminal tie-break")
		}
	}

	last := order.Fields[len(order.Fields)-1]
	if last.Field != schema.PrimaryKey {
		return planErr("MissingTerminalPKOrder", "non-empty order spec must end with the primary key")
	}
	return nil
}

func validatePolicy[K any](plan queryplan.QueryPlan[K]) error {
	if plan.Page != nil && plan.Order.IsEmpty() {
		return planErr("PageWithoutOrder", "ordered pagination requires an accompanying order spec")
	}
	if plan.Mode == queryplan.ModeLoad && plan.DeleteLimit != nil {
		return planErr("LoadWithDeleteLimit", "load plans must not carry a delete limit")
	}
	if plan.Mode == queryplan.ModeDelete && plan.Page != nil {
		return planErr("DeleteWithPage", "delete plans must not carry a page spec")
	}
	if plan.DeleteLimit != nil && plan.Order.IsEmpty() {
		return planErr("DeleteLimitWithoutOrder", "delete limit requires an explicit order for deterministic victim selection")
	}
	return nil
}

func validateAccessStructure[K any](schema model.EntityModel, plan access.AccessPlan[K]) error {
	if plan.Kind != access.PlanLeaf {
		for _, c := range plan.Children {
			if err := validateAccessStructure(schema, c); err != nil {
				return err
			}
		}
		return nil
	}

	switch plan.Path.Kind {
	case access.PathFullScan:
		return nil

	case access.PathByKey, access.PathByKeys:
		pkField, ok := schema.PrimaryKeyField()
		if !ok || !pkField.Type.IsKeyable() {
			return fieldErr("PrimaryKeyNotKeyable", schema.PrimaryKey, "primary key field is not keyable")
		}
		return nil

	case access.PathKeyRange:
		pkField, ok := schema.PrimaryKeyField()
		if !ok || !pkField.Type.IsKeyable() {
			return fieldErr("PrimaryKeyNotKeyable", schema.PrimaryKey, "primary key field is not keyable")
		}
		return nil

	case access.PathIndexPrefix:
		return validateIndexPrefix(schema, plan.Path.Index, plan.Path.Values)

	case access.PathIndexRange:
		return validateIndexRange(schema, plan.Path.Range)

	default:
		return planErr("UnknownAccessPathKind", "unrecognized access path kind")
	}
}

func validateIndexPrefix(schema model.EntityModel, indexName string, values []value.Value) error {
	idx, ok := schema.Index(indexName)
	if !ok {
		return indexErr("IndexNotFound", indexName, "index does not belong to this entity")
	}
	if len(values) == 0 || len(values) > len(idx.Fields) {
		return indexErr("IndexPrefixArityInvalid", indexName, "prefix values must be non-empty and no longer than the index's field list")
	}
	for i, v := range values {
		field, ok := schema.Field(idx.Fields[i])
		if !ok || !scalarMatches(field, v) {
			return indexErr("IndexPrefixValueTypeMismatch", indexName, "prefix value does not match its field's declared type")
		}
	}
	return nil
}

func validateIndexRange(schema model.EntityModel, spec access.SemanticIndexRangeSpec) error {
	idx, ok := schema.Index(spec.Index)
	if !ok {
		return indexErr("IndexNotFound", spec.Index, "index does not belong to this entity")
	}
	if len(spec.PrefixValues) >= len(idx.Fields) {
		return indexErr("IndexRangeShapeInvalid", spec.Index, "prefix length must be less than the index's field count")
	}
	if spec.FieldSlots != len(spec.PrefixValues)+1 {
		return indexErr("IndexRangeShapeInvalid", spec.Index, "field_slots must equal prefix length plus the ranged field")
	}
	for i, v := range spec.PrefixValues {
		field, ok := schema.Field(idx.Fields[i])
		if !ok || !scalarMatches(field, v) {
			return indexErr("IndexPrefixValueTypeMismatch", spec.Index, "prefix value does not match its field's declared type")
		}
	}

	rangeField, ok := schema.Field(idx.Fields[len(spec.PrefixValues)])
	if !ok {
		return indexErr("IndexRangeShapeInvalid", spec.Index, "ranged field does not resolve on the model")
	}
	if spec.LowerBound.Kind != access.BoundUnbounded && !scalarMatches(rangeField, spec.LowerBound.Value) {
		return indexErr("IndexRangeBoundTypeMismatch", spec.Index, "lower bound does not match the ranged field's declared type")
	}
	if spec.UpperBound.Kind != access.BoundUnbounded && !scalarMatches(rangeField, spec.UpperBound.Value) {
		return indexErr("IndexRangeBoundTypeMismatch", spec.Index, "upper bound does not match the ranged field's declared type")
	}
	if spec.LowerBound.Kind != access.BoundUnbounded && spec.UpperBound.Kind != access.BoundUnbounded {
		if value.Compare(spec.LowerBound.Value, spec.UpperBound.Value) > 0 {
			return indexErr("IndexRangeBoundsInverted", spec.Index, "lower bound must not exceed upper bound")
		}
	}
	return nil
}

func scalarMatches(field model.FieldModel, v value.Value) bool {
	return field.Type.Kind == model.FieldScalar && field.Type.Scalar == v.Kind
}

func validateGroup(schema model.EntityModel, group queryplan.GroupSpec) error {
	if len(group.Fields) == 0 {
		return planErr("GroupEmptyFields", "grouped plan must name at least one group field")
	}
	if len(group.Aggregates) == 0 {
		return planErr("GroupEmptyAggregates", "grouped plan must name at least one aggregate")
	}
	for _, f := range group.Fields {
		if _, ok := schema.Field(f); !ok {
			return fieldErr("GroupFieldUnknown", f, "group field does not exist on the entity")
		}
	}
	for _, agg := range group.Aggregates {
		switch agg.Kind {
		case queryplan.AggMin, queryplan.AggMax:
			if _, ok := schema.Field(agg.Field); !ok {
				return fieldErr("GroupAggregateFieldUnknown", agg.Field, "aggregate target field does not exist on the entity")
			}
		case queryplan.AggCount, queryplan.AggExists, queryplan.AggFirst, queryplan.AggLast:
			// no field target
			if agg.Field != "" {
				return planErr("GroupAggregateKindRestricted", "field-target grouped terminals are restricted to MIN/MAX")
			}
		default:
			return planErr("GroupAggregateKindRestricted", "field-target grouped terminals are restricted to MIN/MAX")
		}
	}
	return nil
}

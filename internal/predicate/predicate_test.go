package predicate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dragginzgame/icydb-sub004/internal/ikey"
	"github.com/dragginzgame/icydb-sub004/internal/model"
	"github.com/dragginzgame/icydb-sub004/internal/value"
)

func testSchema(t *testing.T) model.EntityModel {
	name, err := ikey.TryNewEntityName("widget")
	require.NoError(t, err)

	return model.EntityModel{
		Path:       "widget",
		Name:       name,
		PrimaryKey: "id",
		Fields: []model.FieldModel{
			field("id", model.FieldScalar, value.KindInt, ""),
			field("label", model.FieldScalar, value.KindText, ""),
			field("score", model.FieldScalar, value.KindFloat64, ""),
			field("status", model.FieldScalar, value.KindEnum, "widget.Status"),
			field("tags", model.FieldList, value.KindText, ""),
			field("payload", model.FieldStructured, value.KindNull, ""),
		},
	}
}

// field is a small helper building a model.FieldModel for tests.
func field(name string, kind model.FieldTypeKind, scalar value.Kind, enumPath string) model.FieldModel {
	ft := model.FieldType{Kind: kind, Scalar: scalar}
	return model.FieldModel{Name: name, Type: ft, EnumPath: enumPath}
}

func TestNormalizeFlattenAndDropsIdentity(t *testing.T) {
	p := And(True(), Compare("id", OpEq, value.Int(1), Strict), And(Compare("label", OpEq, value.Text("a"), Strict)))
	got := Normalize(p)
	require.Equal(t, KindAnd, got.Kind)
	assert.Len(t, got.Children, 2)
}

func TestNormalizeAnnihilator(t *testing.T) {
	p := And(Compare("id", OpEq, value.Int(1), Strict), False())
	got := Normalize(p)
	assert.Equal(t, KindFalse, got.Kind)

	p2 := Or(Compare("id", OpEq, value.Int(1), Strict), True())
	got2 := Normalize(p2)
	assert.Equal(t, KindTrue, got2.Kind)
}

func TestNormalizeDoubleNegation(t *testing.T) {
	inner := Compare("id", OpEq, value.Int(1), Strict)
	got := Normalize(Not(Not(inner)))
	assert.Equal(t, KindCompare, got.Kind)
	assert.Equal(t, "id", got.Field)
}

func TestNormalizeIsIdempotentAndDeterministic(t *testing.T) {
	p := Or(
		Compare("label", OpEq, value.Text("b"), Strict),
		Compare("id", OpEq, value.Int(1), Strict),
		Compare("id", OpEq, value.Int(1), Strict),
	)
	first := Normalize(p)
	second := Normalize(first)
	assert.Equal(t, first, second)
	// Duplicate child collapsed.
	assert.Len(t, first.Children, 2)
}

func TestNormalizeEnumLiteralsResolvesLoosePath(t *testing.T) {
	schema := testSchema(t)
	loose := value.NewEnum("", "Active", nil)
	p := Compare("status", OpEq, loose, Strict)

	resolved, err := NormalizeEnumLiterals(schema, p)
	require.NoError(t, err)
	assert.Equal(t, "widget.Status", resolved.Value.EnumValue().Path)
}

func TestNormalizeEnumLiteralsRejectsMismatchedStrictPath(t *testing.T) {
	schema := testSchema(t)
	strict := value.NewEnum("other.Status", "Active", nil)
	p := Compare("status", OpEq, strict, Strict)

	_, err := NormalizeEnumLiterals(schema, p)
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "InvalidLiteral", verr.Kind)
}

func TestNormalizeEnumLiteralsRecursesIntoInList(t *testing.T) {
	schema := testSchema(t)
	list := value.List([]value.Value{
		value.NewEnum("", "Active", nil),
		value.NewEnum("", "Retired", nil),
	})
	p := Compare("status", OpIn, list, Strict)

	resolved, err := NormalizeEnumLiterals(schema, p)
	require.NoError(t, err)
	for _, item := range resolved.Value.ListValue() {
		assert.Equal(t, "widget.Status", item.EnumValue().Path)
	}
}

func TestValidateUnknownField(t *testing.T) {
	schema := testSchema(t)
	err := Validate(schema, Compare("nope", OpEq, value.Int(1), Strict))
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "UnknownField", verr.Kind)
}

func TestValidateNonQueryableStructuredField(t *testing.T) {
	schema := testSchema(t)
	err := Validate(schema, Compare("payload", OpEq, value.Null(), Strict))
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "NonQueryableFieldType", verr.Kind)
}

func TestValidateOrderingOnNonOrderableScalarRejected(t *testing.T) {
	schema := testSchema(t)
	// Enum does not support ordering.
	err := Validate(schema, Compare("status", OpGt, value.NewEnum("widget.Status", "Active", nil), Strict))
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "InvalidOperator", verr.Kind)
}

func TestValidateOrderingOnOrderableScalarAccepted(t *testing.T) {
	schema := testSchema(t)
	err := Validate(schema, Compare("score", OpGt, value.Float64(1.5), Strict))
	require.NoError(t, err)
}

func TestValidateTextContainsRequiresTextField(t *testing.T) {
	schema := testSchema(t)
	err := Validate(schema, TextContains("score", "abc"))
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "InvalidOperator", verr.Kind)

	require.NoError(t, Validate(schema, TextContains("label", "abc")))
}

func TestValidateNumericWidenRejectedOnText(t *testing.T) {
	schema := testSchema(t)
	err := Validate(schema, Compare("label", OpEq, value.Text("a"), Coercion{Kind: CoerceNumericWiden}))
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "InvalidOperator", verr.Kind)
}

func TestValidateCollectionElementOnlyOnListLikeField(t *testing.T) {
	schema := testSchema(t)
	err := Validate(schema, Compare("label", OpEq, value.Text("a"), Coercion{Kind: CoerceCollectionElement}))
	require.Error(t, err)

	ok := Validate(schema, Compare("tags", OpIn, value.List([]value.Value{value.Text("x")}), Coercion{Kind: CoerceCollectionElement}))
	require.NoError(t, ok)
}

func TestValidateLiteralKindMismatch(t *testing.T) {
	schema := testSchema(t)
	err := Validate(schema, Compare("id", OpEq, value.Text("not-an-int"), Strict))
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "InvalidLiteral", verr.Kind)
}

func TestValidateInRequiresListLiteral(t *testing.T) {
	schema := testSchema(t)
	err := Validate(schema, Compare("id", OpIn, value.Int(1), Strict))
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "InvalidLiteral", verr.Kind)
}

func TestValidateListElementKindMismatch(t *testing.T) {
	schema := testSchema(t)
	err := Validate(schema, Compare("tags", OpIn, value.List([]value.Value{value.Int(1)}), Strict))
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "InvalidLiteral", verr.Kind)
}

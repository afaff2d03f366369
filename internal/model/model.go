// Package model holds the concrete, Go-native shape of the schema/codegen
// layer this engine leaves to its callers: EntityModel, FieldModel,
// IndexModel, and the reduced predicate-layer FieldType view. In the
// original Rust system these are produced by a derive-macro layer; here
// they are plain data a caller constructs once per entity type, the same
// way table.TableDefinition is plain data constructed once per DynamoDB
// table.
package model

import (
	"github.com/dragginzgame/icydb-sub004/internal/ikey"
	"github.com/dragginzgame/icydb-sub004/internal/value"
)

// FieldTypeKind discriminates the reduced predicate-layer field shape.
type FieldTypeKind uint8

const (
	FieldScalar FieldTypeKind = iota
	FieldList
	FieldSet
	FieldMap
	FieldStructured
)

// FieldType is the reduced predicate-layer view of a field's kind, derived
// deterministically from the entity model (spec §3).
type FieldType struct {
	Kind      FieldTypeKind
	Scalar    value.Kind // valid when Kind == FieldScalar, or the element kind for List/Set
	MapKey    value.Kind // valid when Kind == FieldMap
	MapValue  value.Kind // valid when Kind == FieldMap
	Queryable bool       // valid when Kind == FieldStructured
}

func (t FieldType) IsOrderable() bool {
	return t.Kind == FieldScalar && value.CapsOf(t.Scalar).SupportsOrdering
}

func (t FieldType) IsKeyable() bool {
	return t.Kind == FieldScalar && value.CapsOf(t.Scalar).IsKeyable
}

func (t FieldType) IsElementLike() bool {
	return t.Kind == FieldList || t.Kind == FieldSet
}

// FieldModel names one field of an entity and its reduced type.
type FieldModel struct {
	Name string
	Type FieldType
	// EnumPath names the declared enum type for Enum-kind scalar fields, so
	// normalize_enum_literals (internal/predicate) can resolve loose
	// literals against it. Empty for non-enum fields.
	EnumPath string
}

// IndexModel describes one secondary index: an ordered list of field
// names, a uniqueness flag, and the backing index-store namespace.
type IndexModel struct {
	Name     ikey.IndexName
	Fields   []string
	Unique   bool
	Store    string
}

// RelationModel names one strong relation field: a direct or optional
// reference to another entity, participating in reverse-index maintenance
// (spec §4.I). Collection-valued references are weak and have no
// RelationModel.
type RelationModel struct {
	FieldName  string
	Target     ikey.EntityName
	TargetPath string
	Optional   bool
}

// EntityModel is the static per-entity metadata consumed by the
// planner/validator/executor.
type EntityModel struct {
	Path          string
	Name          ikey.EntityName
	Fields        []FieldModel
	PrimaryKey    string
	Indexes       []IndexModel
	Relations     []RelationModel
}

// Field looks up a field by name.
func (m EntityModel) Field(name string) (FieldModel, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldModel{}, false
}

// PrimaryKeyField returns the field model for the primary key.
func (m EntityModel) PrimaryKeyField() (FieldModel, bool) {
	return m.Field(m.PrimaryKey)
}

// Index looks up an index by name.
func (m EntityModel) Index(name string) (IndexModel, bool) {
	for _, idx := range m.Indexes {
		if idx.Name.String() == name {
			return idx, true
		}
	}
	return IndexModel{}, false
}

// IndexesWithLeadingField returns every index whose field list starts with
// field, used by the planner's equality-prefix and range-extraction passes.
func (m EntityModel) IndexesWithLeadingField(field string) []IndexModel {
	var out []IndexModel
	for _, idx := range m.Indexes {
		if len(idx.Fields) > 0 && idx.Fields[0] == field {
			out = append(out, idx)
		}
	}
	return out
}

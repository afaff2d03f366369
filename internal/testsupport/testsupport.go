// Package testsupport holds deterministic fixture builders for package
// test suites: open an in-memory store once per
// test, register it for cleanup, and hand back ready-to-use schema/key
// fixtures instead of repeating the same boilerplate per file.
package testsupport

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dragginzgame/icydb-sub004/internal/ikey"
	"github.com/dragginzgame/icydb-sub004/internal/model"
	"github.com/dragginzgame/icydb-sub004/internal/store"
	"github.com/dragginzgame/icydb-sub004/internal/value"
)

// OpenStore opens an in-memory Store and registers it for cleanup at the
// end of t.
func OpenStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(store.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

// EntityName builds a validated EntityName or fails t.
func EntityName(t *testing.T, name string) ikey.EntityName {
	t.Helper()
	n, err := ikey.TryNewEntityName(name)
	require.NoError(t, err)
	return n
}

// IndexName builds a validated IndexName over entity/fields or fails t.
func IndexName(t *testing.T, entity string, fields []string) ikey.IndexName {
	t.Helper()
	n, err := ikey.TryNewIndexName(entity, fields)
	require.NoError(t, err)
	return n
}

// IntKey builds a StorageKey from an int64 primary-key value or fails t.
func IntKey(t *testing.T, n int64) ikey.StorageKey {
	t.Helper()
	k, err := ikey.TryFromValue(value.Int(n))
	require.NoError(t, err)
	return k
}

// TextKey builds a StorageKey from a text primary-key value or fails t.
func TextKey(t *testing.T, s string) ikey.StorageKey {
	t.Helper()
	k, err := ikey.TryFromValue(value.Text(s))
	require.NoError(t, err)
	return k
}

// SimpleEntity builds a minimal EntityModel fixture with no indexes: an
// integer primary key field "id" plus any extra scalar fields named in
// extraFields, each typed Int.
func SimpleEntity(t *testing.T, path string, extraFields ...string) model.EntityModel {
	t.Helper()
	name := EntityName(t, path)
	fields := []model.FieldModel{
		{Name: "id", Type: model.FieldType{Kind: model.FieldScalar, Scalar: value.KindInt}},
	}
	for _, f := range extraFields {
		fields = append(fields, model.FieldModel{Name: f, Type: model.FieldType{Kind: model.FieldScalar, Scalar: value.KindInt}})
	}
	return model.EntityModel{
		Path:       path,
		Name:       name,
		PrimaryKey: "id",
		Fields:     fields,
	}
}

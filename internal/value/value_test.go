package value

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecimalNormalization(t *testing.T) {
	t.Run("trailing zeros collapse to the same canonical value", func(t *testing.T) {
		a := NewDecimal(big.NewInt(150), 2) // 1.50
		b := NewDecimal(big.NewInt(15), 1)  // 1.5
		assert.True(t, Equal(a, b))
	})

	t.Run("zero mantissa normalizes scale to zero", func(t *testing.T) {
		z := NewDecimal(big.NewInt(0), 5)
		assert.Equal(t, int32(0), z.DecimalValue().Scale)
	})
}

func TestMapNormalization(t *testing.T) {
	t.Run("reordered keys produce canonically equal maps", func(t *testing.T) {
		m1, err := NewMap([]MapEntry{
			{Key: Text("b"), Value: Int(2)},
			{Key: Text("a"), Value: Int(1)},
		})
		require.NoError(t, err)
		m2, err := NewMap([]MapEntry{
			{Key: Text("a"), Value: Int(1)},
			{Key: Text("b"), Value: Int(2)},
		})
		require.NoError(t, err)
		assert.True(t, Equal(m1, m2))
		assert.Equal(t, CanonicalBytes(m1), CanonicalBytes(m2))
	})

	t.Run("duplicate keys are rejected", func(t *testing.T) {
		_, err := NewMap([]MapEntry{
			{Key: Text("a"), Value: Int(1)},
			{Key: Text("a"), Value: Int(2)},
		})
		assert.Error(t, err)
	})
}

func TestMergePatch(t *testing.T) {
	t.Run("nested dot path sets a leaf field", func(t *testing.T) {
		base, err := NewMap([]MapEntry{
			{Key: Text("user"), Value: mustMap(t, MapEntry{Key: Text("name"), Value: Text("old")})},
		})
		require.NoError(t, err)

		patched, err := MergePatch(base, []string{"user", "name"}, Text("new"))
		require.NoError(t, err)

		user, ok := MapGet(patched.MapValue(), Text("user"))
		require.True(t, ok)
		name, ok := MapGet(user.MapValue(), Text("name"))
		require.True(t, ok)
		assert.True(t, Equal(Text("new"), name))
	})

	t.Run("patching through a non-map field reports the field path", func(t *testing.T) {
		base, err := NewMap([]MapEntry{{Key: Text("user"), Value: Int(1)}})
		require.NoError(t, err)

		_, err = MergePatch(base, []string{"user", "name"}, Text("new"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "user")
	})
}

func mustMap(t *testing.T, entries ...MapEntry) Value {
	t.Helper()
	v, err := NewMap(entries)
	require.NoError(t, err)
	return v
}

func TestCanonicalOrderingCrossVariantFallback(t *testing.T) {
	// Different Kinds fall back to ordering by variant tag.
	assert.Negative(t, Compare(Null(), Bool(true)))
	assert.Positive(t, Compare(Text("x"), Int(1)))
}

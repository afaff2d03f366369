package fingerprint

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dragginzgame/icydb-sub004/internal/value"
)

func TestHashCanonicality(t *testing.T) {
	// P4 — canonically-equal values hash identically.
	a := value.NewDecimal(big.NewInt(150), 2)
	b := value.NewDecimal(big.NewInt(15), 1)
	fa, okA := Of(a)
	fb, okB := Of(b)
	require.True(t, okA)
	require.True(t, okB)
	assert.Equal(t, fa, fb)
}

func TestNullIsNotIndexable(t *testing.T) {
	_, ok := Of(value.Null())
	assert.False(t, ok)
}

func TestHashDiffersForDifferentValues(t *testing.T) {
	fa, _ := Of(value.Int(1))
	fb, _ := Of(value.Int(2))
	assert.NotEqual(t, fa, fb)
}

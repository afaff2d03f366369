package ikey

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dragginzgame/icydb-sub004/internal/value"
)

func roundTrip(t *testing.T, v value.Value) StorageKey {
	t.Helper()
	sk, err := TryFromValue(v)
	require.NoError(t, err)
	back, err := TryFromBytes(sk.ToBytes())
	require.NoError(t, err)
	return back
}

func TestStorageKeyRoundTrip(t *testing.T) {
	// P1 — key round-trip for every storage-key-encodable kind.
	cases := []value.Value{
		value.Unit(),
		value.Bool(true),
		value.Bool(false),
		value.Int(-42),
		value.Int(42),
		value.Uint(42),
		value.Text("hello"),
		value.Date(12345),
		value.Timestamp(9999999),
		value.Duration(-100),
		value.Int128(big.NewInt(-123456789)),
		value.Uint128(big.NewInt(123456789)),
	}
	for _, v := range cases {
		t.Run(v.String(), func(t *testing.T) {
			back := roundTrip(t, v)
			decoded, err := back.Value()
			require.NoError(t, err)
			assert.True(t, value.Equal(v, decoded))
		})
	}
}

func TestStorageKeyOrderFaithfulness(t *testing.T) {
	// P2 — signed integer ordering must survive the sign-bit flip.
	lo, err := TryFromValue(value.Int(-10))
	require.NoError(t, err)
	hi, err := TryFromValue(value.Int(10))
	require.NoError(t, err)
	assert.Negative(t, lo.Compare(hi))

	loU, err := TryFromValue(value.Uint(1))
	require.NoError(t, err)
	hiU, err := TryFromValue(value.Uint(2))
	require.NoError(t, err)
	assert.Negative(t, loU.Compare(hiU))
}

func TestStorageKeyDecodeTotalOnShape(t *testing.T) {
	// P3 — random-shaped input never panics; it succeeds or fails cleanly.
	bad := make([]byte, StorageKeySize)
	bad[0] = 255 // invalid tag
	_, err := TryFromBytes(bad)
	assert.Error(t, err)

	tooShort := make([]byte, 10)
	_, err = TryFromBytes(tooShort)
	assert.Error(t, err)
}

func TestDataKeyOrderMatchesRawBytes(t *testing.T) {
	e1, err := TryNewEntityName("Item")
	require.NoError(t, err)
	e2, err := TryNewEntityName("Zebra")
	require.NoError(t, err)
	sk, err := TryFromValue(value.Int(1))
	require.NoError(t, err)

	a := DataKey{Entity: e1, Key: sk}
	b := DataKey{Entity: e2, Key: sk}

	assert.Equal(t, a.Compare(b), compareBytes(a.ToRaw(), b.ToRaw()))
}

func TestDataKeyRawRoundTrip(t *testing.T) {
	e, err := TryNewEntityName("Item")
	require.NoError(t, err)
	sk, err := TryFromValue(value.Text("id-1"))
	require.NoError(t, err)
	dk := DataKey{Entity: e, Key: sk}

	back, err := TryFromRaw(dk.ToRaw())
	require.NoError(t, err)
	assert.Equal(t, dk.ToRaw(), back.ToRaw())
}

func TestEntityNameRejectsNonASCIIAndOverlong(t *testing.T) {
	_, err := TryNewEntityName("")
	assert.Error(t, err)

	_, err = TryNewEntityName("caf\xc3\xa9") // contains a non-ASCII byte
	assert.Error(t, err)

	long := make([]byte, EntityNameMaxLen+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = TryNewEntityName(string(long))
	assert.Error(t, err)
}

func TestIndexNameFieldCountAndByteCap(t *testing.T) {
	_, err := TryNewIndexName("Item", nil)
	assert.Error(t, err)

	tooMany := make([]string, MaxIndexFields+1)
	for i := range tooMany {
		tooMany[i] = "f"
	}
	_, err = TryNewIndexName("Item", tooMany)
	assert.Error(t, err)

	n, err := TryNewIndexName("Item", []string{"tag", "rank"})
	require.NoError(t, err)
	back, err := IndexNameFromBytes(n.ToBytes())
	require.NoError(t, err)
	assert.Equal(t, n.String(), back.String())
}

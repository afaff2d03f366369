// Package ikey implements the fixed-size binary key layouts of spec §4.A:
// the 64-byte StorageKey, the 65-byte EntityName, and the composite
// DataKey. Byte order is chosen so that key comparison by bytes matches
// the canonical Value ordering (spec P2).
package ikey

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/dragginzgame/icydb-sub004/internal/value"
)

// StorageKeySize is the fixed wire size of a StorageKey: 1 tag byte + 63
// payload/padding bytes.
const StorageKeySize = 64

const (
	principalMaxLen   = 29
	accountMaxLen      = 32
	payloadCapacity    = StorageKeySize - 1
)

// StorageKey is the 64-byte canonical encoding of a keyable Value.
type StorageKey struct {
	raw [StorageKeySize]byte
}

// ErrEncode is returned when a value cannot be encoded within the fixed
// StorageKey budget (spec §4.A "serialize unsupported").
type ErrEncode struct {
	Kind   value.Kind
	Reason string
}

func (e *ErrEncode) Error() string {
	return fmt.Sprintf("ikey: cannot encode %s as storage key: %s", e.Kind, e.Reason)
}

// ErrDecode is the corruption-class decode failure (spec §4.A "fails
// closed").
type ErrDecode struct{ Reason string }

func (e *ErrDecode) Error() string { return "ikey: storage key decode: " + e.Reason }

// TryFromValue encodes v as a StorageKey, or fails if v's scalar is not
// storage-key-encodable or its payload exceeds the fixed budget.
func TryFromValue(v value.Value) (StorageKey, error) {
	if !v.IsStorageKeyEncodable() {
		return StorageKey{}, &ErrEncode{Kind: v.Kind, Reason: "scalar is not storage-key-encodable"}
	}

	var sk StorageKey
	sk.raw[0] = byte(v.Kind)
	payload := sk.raw[1:]

	switch v.Kind {
	case value.KindUnit:
		// empty payload, zero padding already present

	case value.KindBool:
		if v.BoolValue() {
			payload[0] = 1
		}

	case value.KindInt:
		writeSignFlippedU64(payload[:8], uint64(v.IntValue()))

	case value.KindUint:
		binary.BigEndian.PutUint64(payload[:8], v.UintValue())

	case value.KindDate, value.KindTimestamp:
		binary.BigEndian.PutUint64(payload[:8], uint64(v.IntValue()))

	case value.KindDuration:
		writeSignFlippedU64(payload[:8], uint64(v.IntValue()))

	case value.KindInt128:
		if err := writeSignFlipped128(payload[:16], v.BigValue()); err != nil {
			return StorageKey{}, &ErrEncode{Kind: v.Kind, Reason: err.Error()}
		}

	case value.KindUint128:
		if err := writeUnsigned128(payload[:16], v.BigValue()); err != nil {
			return StorageKey{}, &ErrEncode{Kind: v.Kind, Reason: err.Error()}
		}

	case value.KindText:
		if err := writeLenPrefixed(payload, []byte(v.TextValue())); err != nil {
			return StorageKey{}, &ErrEncode{Kind: v.Kind, Reason: err.Error()}
		}

	case value.KindUlid:
		if len(v.BlobValue()) != 16 {
			return StorageKey{}, &ErrEncode{Kind: v.Kind, Reason: "ulid must be 16 bytes"}
		}
		copy(payload[:16], v.BlobValue())

	case value.KindSubaccount:
		if len(v.BlobValue()) != 32 {
			return StorageKey{}, &ErrEncode{Kind: v.Kind, Reason: "subaccount must be 32 bytes"}
		}
		copy(payload[:32], v.BlobValue())

	case value.KindPrincipal:
		if len(v.BlobValue()) > principalMaxLen {
			return StorageKey{}, &ErrEncode{Kind: v.Kind, Reason: "principal exceeds max length"}
		}
		payload[0] = byte(len(v.BlobValue()))
		copy(payload[1:], v.BlobValue())

	case value.KindAccount:
		if len(v.BlobValue()) > accountMaxLen {
			return StorageKey{}, &ErrEncode{Kind: v.Kind, Reason: "account exceeds max length"}
		}
		payload[0] = byte(len(v.BlobValue()))
		copy(payload[1:], v.BlobValue())

	default:
		return StorageKey{}, &ErrEncode{Kind: v.Kind, Reason: "unsupported kind"}
	}

	return sk, nil
}

// ToBytes returns the 64-byte wire encoding.
func (k StorageKey) ToBytes() []byte {
	out := make([]byte, StorageKeySize)
	copy(out, k.raw[:])
	return out
}

// TryFromBytes decodes a 64-byte buffer back into a StorageKey, failing
// closed on bad length, invalid tag, out-of-range length prefixes,
// non-zero padding, or a payload that would not re-encode to the same
// bytes (spec §4.A round-trip law).
func TryFromBytes(b []byte) (StorageKey, error) {
	if len(b) != StorageKeySize {
		return StorageKey{}, &ErrDecode{Reason: fmt.Sprintf("expected %d bytes, got %d", StorageKeySize, len(b))}
	}
	var sk StorageKey
	copy(sk.raw[:], b)

	v, err := sk.decodeValue()
	if err != nil {
		return StorageKey{}, err
	}
	reencoded, err := TryFromValue(v)
	if err != nil {
		return StorageKey{}, &ErrDecode{Reason: "decoded value does not re-encode: " + err.Error()}
	}
	if reencoded.raw != sk.raw {
		return StorageKey{}, &ErrDecode{Reason: "decoded value does not round-trip to identical bytes"}
	}
	return sk, nil
}

// Value decodes the StorageKey back into a Value. Callers that already
// went through TryFromBytes can rely on this never failing since the
// round-trip was already checked; it is exposed separately so internal
// callers performing their own round-trip validation can reuse it.
func (k StorageKey) Value() (value.Value, error) { return k.decodeValue() }

func (k StorageKey) decodeValue() (value.Value, error) {
	kind := value.Kind(k.raw[0])
	payload := k.raw[1:]

	switch kind {
	case value.KindUnit:
		if !allZero(payload) {
			return value.Value{}, &ErrDecode{Reason: "unit padding must be zero"}
		}
		return value.Unit(), nil

	case value.KindBool:
		if payload[0] > 1 {
			return value.Value{}, &ErrDecode{Reason: "bool payload must be 0 or 1"}
		}
		if !allZero(payload[1:]) {
			return value.Value{}, &ErrDecode{Reason: "bool padding must be zero"}
		}
		return value.Bool(payload[0] == 1), nil

	case value.KindInt:
		if !allZero(payload[8:]) {
			return value.Value{}, &ErrDecode{Reason: "int padding must be zero"}
		}
		return value.Int(int64(readSignFlippedU64(payload[:8]))), nil

	case value.KindUint:
		if !allZero(payload[8:]) {
			return value.Value{}, &ErrDecode{Reason: "uint padding must be zero"}
		}
		return value.Uint(binary.BigEndian.Uint64(payload[:8])), nil

	case value.KindDate:
		if !allZero(payload[8:]) {
			return value.Value{}, &ErrDecode{Reason: "date padding must be zero"}
		}
		return value.Date(int64(binary.BigEndian.Uint64(payload[:8]))), nil

	case value.KindTimestamp:
		if !allZero(payload[8:]) {
			return value.Value{}, &ErrDecode{Reason: "timestamp padding must be zero"}
		}
		return value.Timestamp(int64(binary.BigEndian.Uint64(payload[:8]))), nil

	case value.KindDuration:
		if !allZero(payload[8:]) {
			return value.Value{}, &ErrDecode{Reason: "duration padding must be zero"}
		}
		return value.Duration(int64(readSignFlippedU64(payload[:8]))), nil

	case value.KindInt128:
		if !allZero(payload[16:]) {
			return value.Value{}, &ErrDecode{Reason: "int128 padding must be zero"}
		}
		return value.Int128(readSignFlipped128(payload[:16])), nil

	case value.KindUint128:
		if !allZero(payload[16:]) {
			return value.Value{}, &ErrDecode{Reason: "uint128 padding must be zero"}
		}
		return value.Uint128(new(big.Int).SetBytes(payload[:16])), nil

	case value.KindText:
		b, rest, err := readLenPrefixed(payload)
		if err != nil {
			return value.Value{}, err
		}
		if !allZero(rest) {
			return value.Value{}, &ErrDecode{Reason: "text padding must be zero"}
		}
		return value.Text(string(b)), nil

	case value.KindUlid:
		var arr [16]byte
		copy(arr[:], payload[:16])
		if !allZero(payload[16:]) {
			return value.Value{}, &ErrDecode{Reason: "ulid padding must be zero"}
		}
		return value.Ulid(arr), nil

	case value.KindSubaccount:
		var arr [32]byte
		copy(arr[:], payload[:32])
		if !allZero(payload[32:]) {
			return value.Value{}, &ErrDecode{Reason: "subaccount padding must be zero"}
		}
		return value.Subaccount(arr), nil

	case value.KindPrincipal:
		n := int(payload[0])
		if n > principalMaxLen {
			return value.Value{}, &ErrDecode{Reason: "principal length prefix out of range"}
		}
		if !allZero(payload[1+n:]) {
			return value.Value{}, &ErrDecode{Reason: "principal padding must be zero"}
		}
		return value.Principal(payload[1 : 1+n]), nil

	case value.KindAccount:
		n := int(payload[0])
		if n > accountMaxLen {
			return value.Value{}, &ErrDecode{Reason: "account length prefix out of range"}
		}
		if !allZero(payload[1+n:]) {
			return value.Value{}, &ErrDecode{Reason: "account padding must be zero"}
		}
		return value.Account(payload[1 : 1+n]), nil

	default:
		return value.Value{}, &ErrDecode{Reason: fmt.Sprintf("invalid or non-keyable tag %d", kind)}
	}
}

// Compare orders two StorageKeys by raw bytes, which spec P2 requires to
// equal the canonical Value ordering for every encodable kind.
func (k StorageKey) Compare(other StorageKey) int {
	for i := 0; i < StorageKeySize; i++ {
		if k.raw[i] != other.raw[i] {
			if k.raw[i] < other.raw[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

func writeSignFlippedU64(dst []byte, bits uint64) {
	binary.BigEndian.PutUint64(dst, bits^(1<<63))
}

func readSignFlippedU64(src []byte) uint64 {
	return binary.BigEndian.Uint64(src) ^ (1 << 63)
}

// int128Offset is 2^127: adding it to a signed 128-bit value maps the
// entire range onto [0, 2^128) while preserving order, the 128-bit analogue
// of XOR-ing the sign bit on a 64-bit int.
var int128Offset = new(big.Int).Lsh(big.NewInt(1), 127)

func writeSignFlipped128(dst []byte, v *big.Int) error {
	if v.Cmp(new(big.Int).Neg(int128Offset)) < 0 || v.Cmp(new(big.Int).Sub(int128Offset, big.NewInt(1))) > 0 {
		return fmt.Errorf("int128 overflow")
	}
	shifted := new(big.Int).Add(v, int128Offset)
	shifted.FillBytes(dst)
	return nil
}

func readSignFlipped128(src []byte) *big.Int {
	shifted := new(big.Int).SetBytes(src)
	return shifted.Sub(shifted, int128Offset)
}

func writeUnsigned128(dst []byte, v *big.Int) error {
	if v.Sign() < 0 || v.BitLen() > 128 {
		return fmt.Errorf("uint128 out of range")
	}
	v.FillBytes(dst)
	return nil
}

func writeLenPrefixed(dst []byte, b []byte) error {
	if len(b) > payloadCapacity-1 {
		return fmt.Errorf("payload too long for fixed key: %d bytes", len(b))
	}
	dst[0] = byte(len(b))
	copy(dst[1:], b)
	return nil
}

func readLenPrefixed(src []byte) (data []byte, rest []byte, err error) {
	n := int(src[0])
	if n > len(src)-1 {
		return nil, nil, &ErrDecode{Reason: "length prefix out of range"}
	}
	return src[1 : 1+n], src[1+n:], nil
}

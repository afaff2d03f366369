// Package fingerprint implements the §4.C stable hash: a 128-bit XXH3-based
// hash with a version byte, computed over the framed canonical encoding
// already produced by internal/value. Identical output for canonically
// equal values is inherited directly from value.CanonicalBytes producing
// identical bytes for canonically equal values.
package fingerprint

import (
	"encoding/binary"

	"github.com/zeebo/xxh3"

	"github.com/dragginzgame/icydb-sub004/internal/value"
)

// Version is bumped whenever the framing or hash algorithm changes, so
// persisted fingerprints from an old build are never silently reinterpreted.
const Version byte = 1

// Size is the fixed output length: 1 version byte + 16 hash bytes.
const Size = 17

// Fingerprint is an opaque 17-byte stable hash.
type Fingerprint [Size]byte

// Of computes the stable hash of v, or returns (zero, false) for
// non-indexable values (Null never produces a fingerprint, spec §3/§4.C).
func Of(v value.Value) (Fingerprint, bool) {
	if !v.IsIndexable() {
		return Fingerprint{}, false
	}
	return OfBytes(value.CanonicalBytes(v)), true
}

// OfBytes hashes an arbitrary pre-framed byte string — used directly by
// group-key hashing (internal/kernel) and relation-id hashing
// (internal/reverseindex), which build their own framed encodings over
// richer structures than a single Value.
func OfBytes(framed []byte) Fingerprint {
	sum := xxh3.Hash128(framed)
	var out Fingerprint
	out[0] = Version
	binary.BigEndian.PutUint64(out[1:9], sum.Hi)
	binary.BigEndian.PutUint64(out[9:17], sum.Lo)
	return out
}

// Bytes returns the raw bytes, e.g. for embedding in a reverse-index id.
func (f Fingerprint) Bytes() []byte { return f[:] }

// FrameElement appends a boundary tag then a length-prefixed payload to buf,
// the same "every length-delimited payload is length-prefixed, every
// element preceded by a boundary tag" contract as value.CanonicalBytes, so
// composite structures (plans, group keys) built outside internal/value can
// still hash collision-safely.
func FrameElement(buf []byte, tag byte, payload []byte) []byte {
	buf = append(buf, tag)
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(payload)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, payload...)
	return buf
}

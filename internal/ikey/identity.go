package ikey

import (
	"encoding/binary"
	"fmt"
)

// EntityNameMaxLen bounds an entity name to 64 ASCII bytes (spec §4.B).
const EntityNameMaxLen = 64

// EntityNameStoredSize is the persisted layout size: 1 length byte + the
// fixed 64-byte buffer (spec §6).
const EntityNameStoredSize = 1 + EntityNameMaxLen

// EntityName is a bounded ASCII entity identifier.
type EntityName struct {
	raw [EntityNameStoredSize]byte
}

// TryNewEntityName enforces non-empty, <=64 bytes, ASCII (spec §4.B).
func TryNewEntityName(s string) (EntityName, error) {
	if len(s) == 0 {
		return EntityName{}, fmt.Errorf("ikey: entity name must not be empty")
	}
	if len(s) > EntityNameMaxLen {
		return EntityName{}, fmt.Errorf("ikey: entity name exceeds %d bytes", EntityNameMaxLen)
	}
	if !isASCII(s) {
		return EntityName{}, fmt.Errorf("ikey: entity name must be ASCII")
	}
	var e EntityName
	e.raw[0] = byte(len(s))
	copy(e.raw[1:], s)
	return e, nil
}

func (e EntityName) String() string {
	n := int(e.raw[0])
	return string(e.raw[1 : 1+n])
}

func (e EntityName) ToBytes() []byte {
	out := make([]byte, EntityNameStoredSize)
	copy(out, e.raw[:])
	return out
}

// EntityNameFromBytes decodes the length-prefixed, zero-padded layout,
// rejecting non-ASCII, zero-length, or non-zero padding.
func EntityNameFromBytes(b []byte) (EntityName, error) {
	if len(b) != EntityNameStoredSize {
		return EntityName{}, fmt.Errorf("ikey: entity name must be %d bytes, got %d", EntityNameStoredSize, len(b))
	}
	n := int(b[0])
	if n == 0 || n > EntityNameMaxLen {
		return EntityName{}, fmt.Errorf("ikey: entity name length prefix out of range: %d", n)
	}
	body := b[1 : 1+n]
	if !isASCII(string(body)) {
		return EntityName{}, fmt.Errorf("ikey: entity name must be ASCII")
	}
	for _, c := range b[1+n:] {
		if c != 0 {
			return EntityName{}, fmt.Errorf("ikey: entity name padding must be zero")
		}
	}
	var e EntityName
	copy(e.raw[:], b)
	return e, nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return false
		}
	}
	return true
}

// MaxIndexFields bounds the number of fields an IndexName may reference
// (spec §4.B).
const MaxIndexFields = 8

// MaxIndexNameLen bounds the total encoded byte layout of an index name.
const MaxIndexNameLen = 256

// IndexName is "entity|field1|field2..." stored length-prefixed (u16) with
// a fixed buffer, so ordering is length-then-bytes rather than lexical
// text order (spec §4.B).
type IndexName struct {
	text string
}

// TryNewIndexName validates field count/length/ASCII and the total byte cap.
func TryNewIndexName(entity string, fields []string) (IndexName, error) {
	if len(fields) == 0 {
		return IndexName{}, fmt.Errorf("ikey: index must reference at least one field")
	}
	if len(fields) > MaxIndexFields {
		return IndexName{}, fmt.Errorf("ikey: index references too many fields: %d > %d", len(fields), MaxIndexFields)
	}
	text := entity
	for _, f := range fields {
		if len(f) == 0 || len(f) > EntityNameMaxLen || !isASCII(f) {
			return IndexName{}, fmt.Errorf("ikey: invalid index field %q", f)
		}
		text += "|" + f
	}
	if len(text) > MaxIndexNameLen-2 {
		return IndexName{}, fmt.Errorf("ikey: index name exceeds byte cap")
	}
	if !isASCII(text) {
		return IndexName{}, fmt.Errorf("ikey: index name must be ASCII")
	}
	return IndexName{text: text}, nil
}

func (n IndexName) String() string { return n.text }

func (n IndexName) ToBytes() []byte {
	out := make([]byte, 2+MaxIndexNameLen-2)
	binary.BigEndian.PutUint16(out[:2], uint16(len(n.text)))
	copy(out[2:], n.text)
	return out
}

func IndexNameFromBytes(b []byte) (IndexName, error) {
	if len(b) != 2+MaxIndexNameLen-2 {
		return IndexName{}, fmt.Errorf("ikey: index name buffer has wrong size")
	}
	n := int(binary.BigEndian.Uint16(b[:2]))
	if n > len(b)-2 {
		return IndexName{}, fmt.Errorf("ikey: index name length prefix out of range")
	}
	body := b[2 : 2+n]
	if !isASCII(string(body)) {
		return IndexName{}, fmt.Errorf("ikey: index name must be ASCII")
	}
	for _, c := range b[2+n:] {
		if c != 0 {
			return IndexName{}, fmt.Errorf("ikey: index name padding must be zero")
		}
	}
	return IndexName{text: string(body)}, nil
}

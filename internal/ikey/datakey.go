package ikey

import "fmt"

// DataKeySize is EntityName::STORED_SIZE + StorageKey::STORED (spec §6).
const DataKeySize = EntityNameStoredSize + StorageKeySize

// DataKey is entity_name ++ storage_key; ordering is lexicographic over
// raw bytes and must equal the derived ordering of (entity, storage_key)
// tuples (spec §4.A).
type DataKey struct {
	Entity EntityName
	Key    StorageKey
}

// ToRaw returns the DataKeySize-byte wire encoding.
func (k DataKey) ToRaw() []byte {
	out := make([]byte, 0, DataKeySize)
	out = append(out, k.Entity.ToBytes()...)
	out = append(out, k.Key.ToBytes()...)
	return out
}

// TryFromRaw decodes a DataKeySize-byte buffer, never panicking: it either
// succeeds and re-encodes identically, or returns a decode error (spec P3).
func TryFromRaw(b []byte) (DataKey, error) {
	if len(b) != DataKeySize {
		return DataKey{}, fmt.Errorf("ikey: data key must be %d bytes, got %d", DataKeySize, len(b))
	}
	ent, err := EntityNameFromBytes(b[:EntityNameStoredSize])
	if err != nil {
		return DataKey{}, err
	}
	sk, err := TryFromBytes(b[EntityNameStoredSize:])
	if err != nil {
		return DataKey{}, err
	}
	return DataKey{Entity: ent, Key: sk}, nil
}

// Compare implements the lexicographic raw-byte ordering, which must equal
// the derived ordering of (entity, storage_key) tuples (spec P2).
func (k DataKey) Compare(other DataKey) int {
	if c := compareBytes(k.Entity.ToBytes(), other.Entity.ToBytes()); c != 0 {
		return c
	}
	return k.Key.Compare(other.Key)
}

func compareBytes(a, b []byte) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

package store

import (
	"encoding/binary"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/dragginzgame/icydb-sub004/internal/icyerr"
	"github.com/dragginzgame/icydb-sub004/internal/ikey"
)

// MaxCommitBytes bounds a persisted CommitMarker (spec §4.H "bounded by
// MAX_COMMIT_BYTES").
const MaxCommitBytes = 4 << 20

// MaxRowBytes bounds a single row op's before/after payload.
const MaxRowBytes = 1 << 20

var commitMarkerKey = []byte("__commit_marker__")

const markerVersion byte = 1

// RowOp is one mutation of the write-protocol batch: at least one of
// Before/After must be present (spec §4.H "Prepare").
type RowOp struct {
	Entity ikey.EntityName
	Key    ikey.StorageKey
	Before []byte // nil if the row did not exist before this op
	After  []byte // nil if the row is being deleted
}

// CommitMarker is the durable, bounded-size batch persisted atomically
// before a write is applied, so a crash mid-apply can be replayed on
// reopen (spec §4.H).
type CommitMarker struct {
	Ops []RowOp
}

// Prepare builds and size-validates a CommitMarker from ops (spec §4.H
// step 1).
func Prepare(ops []RowOp) (CommitMarker, error) {
	for i, op := range ops {
		if op.Before == nil && op.After == nil {
			return CommitMarker{}, icyerr.New(icyerr.InvariantViolation, icyerr.OriginStore, "row op %d: at least one of before/after must be present", i)
		}
		if len(op.Before) > MaxRowBytes || len(op.After) > MaxRowBytes {
			return CommitMarker{}, icyerr.New(icyerr.Unsupported, icyerr.OriginStore, "row op %d: payload exceeds max row size", i)
		}
	}
	cm := CommitMarker{Ops: ops}
	encoded := encodeCommitMarker(cm)
	if len(encoded) > MaxCommitBytes {
		return CommitMarker{}, icyerr.New(icyerr.Unsupported, icyerr.OriginStore, "commit marker exceeds MAX_COMMIT_BYTES")
	}
	return cm, nil
}

func encodeCommitMarker(cm CommitMarker) []byte {
	buf := []byte{markerVersion}
	buf = appendU32(buf, uint32(len(cm.Ops)))
	for _, op := range cm.Ops {
		buf = append(buf, op.Entity.ToBytes()...)
		buf = append(buf, op.Key.ToBytes()...)
		buf = appendOptionalBytes(buf, op.Before)
		buf = appendOptionalBytes(buf, op.After)
	}
	return buf
}

func decodeCommitMarker(b []byte) (CommitMarker, error) {
	if len(b) < 1 {
		return CommitMarker{}, icyerr.New(icyerr.Corruption, icyerr.OriginStore, "commit marker truncated")
	}
	if b[0] != markerVersion {
		return CommitMarker{}, icyerr.New(icyerr.Corruption, icyerr.OriginStore, "commit marker unknown version")
	}
	b = b[1:]
	count, b, err := readU32(b)
	if err != nil {
		return CommitMarker{}, err
	}

	ops := make([]RowOp, 0, count)
	for i := uint32(0); i < count; i++ {
		if len(b) < ikey.EntityNameStoredSize {
			return CommitMarker{}, icyerr.New(icyerr.Corruption, icyerr.OriginStore, "commit marker truncated entity name")
		}
		entity, err := ikey.EntityNameFromBytes(b[:ikey.EntityNameStoredSize])
		if err != nil {
			return CommitMarker{}, icyerr.Wrap(icyerr.Corruption, icyerr.OriginStore, err, "decode failed")
		}
		b = b[ikey.EntityNameStoredSize:]

		if len(b) < ikey.StorageKeySize {
			return CommitMarker{}, icyerr.New(icyerr.Corruption, icyerr.OriginStore, "commit marker truncated storage key")
		}
		key, err := ikey.TryFromBytes(b[:ikey.StorageKeySize])
		if err != nil {
			return CommitMarker{}, icyerr.Wrap(icyerr.Corruption, icyerr.OriginStore, err, "decode failed")
		}
		b = b[ikey.StorageKeySize:]

		before, b2, err := readOptionalBytes(b)
		if err != nil {
			return CommitMarker{}, err
		}
		b = b2
		after, b3, err := readOptionalBytes(b)
		if err != nil {
			return CommitMarker{}, err
		}
		b = b3

		if before == nil && after == nil {
			return CommitMarker{}, icyerr.New(icyerr.Corruption, icyerr.OriginStore, "row op missing both before and after")
		}

		ops = append(ops, RowOp{Entity: entity, Key: key, Before: before, After: after})
	}
	return CommitMarker{Ops: ops}, nil
}

func appendU32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func readU32(b []byte) (uint32, []byte, error) {
	if len(b) < 4 {
		return 0, nil, icyerr.New(icyerr.Corruption, icyerr.OriginStore, "commit marker truncated u32")
	}
	return binary.BigEndian.Uint32(b[:4]), b[4:], nil
}

func appendOptionalBytes(buf []byte, v []byte) []byte {
	if v == nil {
		return appendU32(buf, 0xFFFFFFFF)
	}
	buf = appendU32(buf, uint32(len(v)))
	return append(buf, v...)
}

func readOptionalBytes(b []byte) ([]byte, []byte, error) {
	n, rest, err := readU32(b)
	if err != nil {
		return nil, nil, err
	}
	if n == 0xFFFFFFFF {
		return nil, rest, nil
	}
	if uint32(len(rest)) < n {
		return nil, nil, icyerr.New(icyerr.Corruption, icyerr.OriginStore, "commit marker truncated payload")
	}
	return append([]byte(nil), rest[:n]...), rest[n:], nil
}

// Mark persists cm atomically via the stable cell (spec §4.H step 2).
func (s *Store) Mark(cm CommitMarker) error {
	encoded := encodeCommitMarker(cm)
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(commitMarkerKey, encoded)
	})
}

// Apply writes/deletes each row op's data key, then invokes
// maintainIndexes for every op so secondary and reverse indexes
// (spec §4.I) stay in step with the data store (spec §4.H step 3).
func (s *Store) Apply(cm CommitMarker, maintainIndexes func(op RowOp) error) error {
	for _, op := range cm.Ops {
		if op.After == nil {
			if err := s.DeleteRow(op.Entity, op.Key); err != nil {
				return fmt.Errorf("store: apply delete: %w", err)
			}
		} else {
			if err := s.PutRow(op.Entity, op.Key, op.After); err != nil {
				return fmt.Errorf("store: apply put: %w", err)
			}
		}
		if maintainIndexes != nil {
			if err := maintainIndexes(op); err != nil {
				return fmt.Errorf("store: apply index maintenance: %w", err)
			}
		}
	}
	return nil
}

// Clear removes the commit marker once every index update has succeeded
// (spec §4.H step 4).
func (s *Store) Clear() error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(commitMarkerKey)
	})
}

// PendingMarker returns the decoded commit marker left behind by a prior
// crash, if any (spec §4.H "Recovery").
func (s *Store) PendingMarker() (CommitMarker, bool, error) {
	var found bool
	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, getErr := txn.Get(commitMarkerKey)
		if getErr == badger.ErrKeyNotFound {
			return nil
		}
		if getErr != nil {
			return getErr
		}
		found = true
		return item.Value(func(val []byte) error {
			raw = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil || !found {
		return CommitMarker{}, false, err
	}
	cm, err := decodeCommitMarker(raw)
	if err != nil {
		return CommitMarker{}, false, err
	}
	return cm, true, nil
}

// Recover replays a pending commit marker (re-applying data rows and
// rebuilding derived indexes via maintainIndexes) and clears it
// (spec §4.H "Recovery"). It is a no-op if no marker is pending.
func (s *Store) Recover(maintainIndexes func(op RowOp) error) error {
	cm, pending, err := s.PendingMarker()
	if err != nil {
		return fmt.Errorf("store: recover: decode marker: %w", err)
	}
	if !pending {
		return nil
	}
	if err := s.Apply(cm, maintainIndexes); err != nil {
		return fmt.Errorf("store: recover: replay: %w", err)
	}
	return s.Clear()
}

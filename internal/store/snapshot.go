package store

import (
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/dragginzgame/icydb-sub004/internal/ikey"
)

// systemIndexNamespace marks reverse-index entries maintained internally
// rather than from a schema-declared index (spec §4.I), so Snapshot can
// separate them from user-facing index entries.
const systemIndexNamespace = "~"

// StorageReport is a live snapshot of the data and index stores, broken
// down per entity, mirroring the observability report the original engine
// exposes over its canister query surface.
type StorageReport struct {
	DataEntries      uint64
	IndexEntries     uint64
	UserIndexEntries uint64
	SystemEntries    uint64
	Entities         []EntitySnapshot
	CorruptedKeys    uint64
	CorruptedEntries uint64
}

// EntitySnapshot is the per-entity breakdown of row count, approximate
// memory usage, and primary-key range within the data store.
type EntitySnapshot struct {
	Entity      string
	Entries     uint64
	MemoryBytes uint64
	MinKey      *ikey.StorageKey
	MaxKey      *ikey.StorageKey
}

type entityStats struct {
	entries     uint64
	memoryBytes uint64
	minKey      *ikey.StorageKey
	maxKey      *ikey.StorageKey
}

func (s *entityStats) update(key ikey.StorageKey, rowLen int) {
	s.entries++
	s.memoryBytes += uint64(ikey.DataKeySize + rowLen)

	if s.minKey == nil || key.Compare(*s.minKey) < 0 {
		k := key
		s.minKey = &k
	}
	if s.maxKey == nil || key.Compare(*s.maxKey) > 0 {
		k := key
		s.maxKey = &k
	}
}

// Snapshot builds a StorageReport over the whole store, tolerating corrupt
// keys/entries rather than failing the whole report (spec §4.H "fail
// closed on decode, never on observability").
func (s *Store) Snapshot() (StorageReport, error) {
	var report StorageReport
	byEntity := make(map[string]*entityStats)
	var order []string

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(dataPrefix); it.ValidForPrefix(dataPrefix); it.Next() {
			item := it.Item()
			raw := item.KeyCopy(nil)
			dk, err := ikey.TryFromRaw(raw[len(dataPrefix):])
			if err != nil {
				report.CorruptedKeys++
				continue
			}
			report.DataEntries++

			var rowLen int
			if err := item.Value(func(val []byte) error {
				rowLen = len(val)
				return nil
			}); err != nil {
				return err
			}

			name := dk.Entity.String()
			stats, ok := byEntity[name]
			if !ok {
				stats = &entityStats{}
				byEntity[name] = stats
				order = append(order, name)
			}
			stats.update(dk.Key, rowLen)
		}

		for it.Seek(indexPrefix); it.ValidForPrefix(indexPrefix); it.Next() {
			item := it.Item()
			report.IndexEntries++

			key := item.Key()
			if indexKeyUsesSystemNamespace(key) {
				report.SystemEntries++
			} else {
				report.UserIndexEntries++
			}

			if err := item.Value(func(val []byte) error {
				if _, err := decodeIndexEntry(val); err != nil {
					report.CorruptedEntries++
				}
				return nil
			}); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return StorageReport{}, err
	}

	for _, name := range order {
		stats := byEntity[name]
		report.Entities = append(report.Entities, EntitySnapshot{
			Entity:      name,
			Entries:     stats.entries,
			MemoryBytes: stats.memoryBytes,
			MinKey:      stats.minKey,
			MaxKey:      stats.maxKey,
		})
	}

	return report, nil
}

// indexKeyUsesSystemNamespace reports whether the raw index key's index
// name segment (between indexPrefix and the NUL separator) starts with the
// system namespace marker.
func indexKeyUsesSystemNamespace(rawKey []byte) bool {
	rest := rawKey[len(indexPrefix):]
	sep := indexOf(rest, 0x00)
	if sep < 0 {
		return false
	}
	return strings.HasPrefix(string(rest[:sep]), systemIndexNamespace)
}

func indexOf(b []byte, target byte) int {
	for i, c := range b {
		if c == target {
			return i
		}
	}
	return -1
}

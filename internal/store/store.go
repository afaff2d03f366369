// Package store implements the commit-marker-guarded data and index
// stores of spec §4.H: a lexicographically-ordered data store keyed by
// DataKey, a companion index store keyed by (index name, index key
// bytes), and the crash-recovery write protocol tying them together.
package store

import (
	"bytes"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/dragginzgame/icydb-sub004/internal/ikey"
)

var (
	dataPrefix  = []byte("d:")
	indexPrefix = []byte("i:")
)

// Options configures the BadgerDB-backed store.
type Options struct {
	// Path to the database directory. If empty, uses in-memory mode.
	Path string
	// InMemory forces in-memory mode even if Path is set.
	InMemory bool
	// Logger for BadgerDB. If nil, logging is disabled.
	Logger badger.Logger
}

// Store is the badger-backed substrate for both the data store and the
// index store (spec §4.H "lexicographically-ordered B-tree").
type Store struct {
	db *badger.DB
}

// Open opens the store. If a commit marker was left behind by a prior
// crash, callers must invoke Recover before trusting the store's secondary
// indexes (spec §4.H "Recovery") — Open itself only opens the substrate,
// since rebuilding derived indexes needs the caller's index-maintenance
// callback.
func Open(opts Options) (*Store, error) {
	badgerOpts := badger.DefaultOptions(opts.Path)
	if opts.Path == "" || opts.InMemory {
		badgerOpts = badgerOpts.WithInMemory(true)
	}
	if opts.Logger != nil {
		badgerOpts = badgerOpts.WithLogger(opts.Logger)
	} else {
		badgerOpts = badgerOpts.WithLogger(nil)
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("store: open badger db: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func dataRawKey(entity ikey.EntityName, key ikey.StorageKey) []byte {
	dk := ikey.DataKey{Entity: entity, Key: key}
	return append(append([]byte(nil), dataPrefix...), dk.ToRaw()...)
}

func indexRawKey(indexName string, indexKeyBytes []byte) []byte {
	out := append([]byte(nil), indexPrefix...)
	out = append(out, []byte(indexName)...)
	out = append(out, 0x00) // separator: index names are ASCII and never contain NUL
	out = append(out, indexKeyBytes...)
	return out
}

// GetRow reads the raw row for entity/key, or found=false if absent.
func (s *Store) GetRow(entity ikey.EntityName, key ikey.StorageKey) (row []byte, found bool, err error) {
	rk := dataRawKey(entity, key)
	err = s.db.View(func(txn *badger.Txn) error {
		item, getErr := txn.Get(rk)
		if getErr == badger.ErrKeyNotFound {
			return nil
		}
		if getErr != nil {
			return getErr
		}
		found = true
		return item.Value(func(val []byte) error {
			row = append([]byte(nil), val...)
			return nil
		})
	})
	return row, found, err
}

// PutRow writes entity/key -> row directly (bypassing the commit-marker
// protocol); callers needing crash recovery should go through Apply.
func (s *Store) PutRow(entity ikey.EntityName, key ikey.StorageKey, row []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(dataRawKey(entity, key), row)
	})
}

func (s *Store) DeleteRow(entity ikey.EntityName, key ikey.StorageKey) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(dataRawKey(entity, key))
	})
}

// ScanRows iterates every data row of entity in key order, calling fn with
// the decoded StorageKey and raw row bytes. fn returning an error stops
// iteration and is returned.
func (s *Store) ScanRows(entity ikey.EntityName, fn func(key ikey.StorageKey, row []byte) error) error {
	prefix := append(append([]byte(nil), dataPrefix...), entity.ToBytes()...)
	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			raw := item.KeyCopy(nil)
			dk, err := ikey.TryFromRaw(raw[len(dataPrefix):])
			if err != nil {
				return fmt.Errorf("store: corrupt data key: %w", err)
			}
			var row []byte
			if err := item.Value(func(val []byte) error {
				row = append([]byte(nil), val...)
				return nil
			}); err != nil {
				return err
			}
			if err := fn(dk.Key, row); err != nil {
				return err
			}
		}
		return nil
	})
}

// IndexEntry is the raw value stored at an index key: the set of data keys
// that currently match the index key, ordered for determinism.
type IndexEntry struct {
	Keys []ikey.StorageKey
}

func encodeIndexEntry(e IndexEntry) []byte {
	var buf []byte
	for _, k := range e.Keys {
		buf = append(buf, k.ToBytes()...)
	}
	return buf
}

func decodeIndexEntry(b []byte) (IndexEntry, error) {
	if len(b)%ikey.StorageKeySize != 0 {
		return IndexEntry{}, fmt.Errorf("store: corrupt index entry length %d", len(b))
	}
	var e IndexEntry
	for off := 0; off < len(b); off += ikey.StorageKeySize {
		k, err := ikey.TryFromBytes(b[off : off+ikey.StorageKeySize])
		if err != nil {
			return IndexEntry{}, fmt.Errorf("store: corrupt index entry key: %w", err)
		}
		e.Keys = append(e.Keys, k)
	}
	return e, nil
}

// GetIndexEntry reads the data keys currently recorded under
// (indexName, indexKeyBytes).
func (s *Store) GetIndexEntry(indexName string, indexKeyBytes []byte) (IndexEntry, bool, error) {
	rk := indexRawKey(indexName, indexKeyBytes)
	var entry IndexEntry
	var found bool
	err := s.db.View(func(txn *badger.Txn) error {
		item, getErr := txn.Get(rk)
		if getErr == badger.ErrKeyNotFound {
			return nil
		}
		if getErr != nil {
			return getErr
		}
		found = true
		return item.Value(func(val []byte) error {
			decoded, decErr := decodeIndexEntry(val)
			entry = decoded
			return decErr
		})
	})
	return entry, found, err
}

// PutIndexEntry writes (or, if empty, deletes) the index entry for
// (indexName, indexKeyBytes).
func (s *Store) PutIndexEntry(indexName string, indexKeyBytes []byte, entry IndexEntry) error {
	rk := indexRawKey(indexName, indexKeyBytes)
	return s.db.Update(func(txn *badger.Txn) error {
		if len(entry.Keys) == 0 {
			return txn.Delete(rk)
		}
		return txn.Set(rk, encodeIndexEntry(entry))
	})
}

// ScanIndexPrefix iterates every index entry whose key starts with
// (indexName, prefixBytes), in byte order.
func (s *Store) ScanIndexPrefix(indexName string, prefixBytes []byte, fn func(entry IndexEntry) error) error {
	prefix := indexRawKey(indexName, prefixBytes)
	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var decoded IndexEntry
			if err := item.Value(func(val []byte) error {
				d, err := decodeIndexEntry(val)
				decoded = d
				return err
			}); err != nil {
				return err
			}
			if err := fn(decoded); err != nil {
				return err
			}
		}
		return nil
	})
}

// ScanIndexRange iterates every index entry whose raw key (after the
// indexName namespace) lies within [lower, upper) in byte order.
func (s *Store) ScanIndexRange(indexName string, lower, upper []byte, fn func(entry IndexEntry) error) error {
	lo := indexRawKey(indexName, lower)
	hiNamespace := append(append([]byte(nil), indexPrefix...), []byte(indexName)...)
	hiNamespace = append(hiNamespace, 0x00)
	hi := append(append([]byte(nil), hiNamespace...), upper...)

	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(lo); it.Valid(); it.Next() {
			k := it.Item().Key()
			if bytes.Compare(k, hi) >= 0 {
				break
			}
			var decoded IndexEntry
			if err := it.Item().Value(func(val []byte) error {
				d, err := decodeIndexEntry(val)
				decoded = d
				return err
			}); err != nil {
				return err
			}
			if err := fn(decoded); err != nil {
				return err
			}
		}
		return nil
	})
}

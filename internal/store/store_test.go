package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dragginzgame/icydb-sub004/internal/ikey"
	"github.com/dragginzgame/icydb-sub004/internal/value"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func widgetEntity(t *testing.T) ikey.EntityName {
	t.Helper()
	name, err := ikey.TryNewEntityName("widget")
	require.NoError(t, err)
	return name
}

func storageKey(t *testing.T, n int64) ikey.StorageKey {
	t.Helper()
	k, err := ikey.TryFromValue(value.Int(n))
	require.NoError(t, err)
	return k
}

func TestRowRoundTrip(t *testing.T) {
	s := openTestStore(t)
	entity := widgetEntity(t)
	key := storageKey(t, 1)

	_, found, err := s.GetRow(entity, key)
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, s.PutRow(entity, key, []byte("row-1")))

	row, found, err := s.GetRow(entity, key)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("row-1"), row)

	require.NoError(t, s.DeleteRow(entity, key))
	_, found, err = s.GetRow(entity, key)
	require.NoError(t, err)
	require.False(t, found)
}

func TestScanRowsIteratesInKeyOrder(t *testing.T) {
	s := openTestStore(t)
	entity := widgetEntity(t)

	for _, n := range []int64{3, 1, 2} {
		require.NoError(t, s.PutRow(entity, storageKey(t, n), []byte{byte(n)}))
	}

	var seen []int64
	err := s.ScanRows(entity, func(key ikey.StorageKey, row []byte) error {
		seen = append(seen, int64(row[0]))
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2, 3}, seen)
}

func TestIndexEntryRoundTrip(t *testing.T) {
	s := openTestStore(t)
	k1 := storageKey(t, 1)
	k2 := storageKey(t, 2)

	_, found, err := s.GetIndexEntry("widget|tag", []byte("red"))
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, s.PutIndexEntry("widget|tag", []byte("red"), IndexEntry{Keys: []ikey.StorageKey{k1, k2}}))

	entry, found, err := s.GetIndexEntry("widget|tag", []byte("red"))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []ikey.StorageKey{k1, k2}, entry.Keys)

	require.NoError(t, s.PutIndexEntry("widget|tag", []byte("red"), IndexEntry{}))
	_, found, err = s.GetIndexEntry("widget|tag", []byte("red"))
	require.NoError(t, err)
	require.False(t, found)
}

func TestScanIndexPrefix(t *testing.T) {
	s := openTestStore(t)
	k1 := storageKey(t, 1)
	k2 := storageKey(t, 2)

	require.NoError(t, s.PutIndexEntry("widget|tag", []byte("red"), IndexEntry{Keys: []ikey.StorageKey{k1}}))
	require.NoError(t, s.PutIndexEntry("widget|tag", []byte("redwood"), IndexEntry{Keys: []ikey.StorageKey{k2}}))
	require.NoError(t, s.PutIndexEntry("widget|tag", []byte("blue"), IndexEntry{Keys: []ikey.StorageKey{k2}}))

	var total int
	err := s.ScanIndexPrefix("widget|tag", []byte("red"), func(entry IndexEntry) error {
		total += len(entry.Keys)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, total)
}

func TestScanIndexRange(t *testing.T) {
	s := openTestStore(t)
	k1 := storageKey(t, 1)

	require.NoError(t, s.PutIndexEntry("widget|rank", []byte{1}, IndexEntry{Keys: []ikey.StorageKey{k1}}))
	require.NoError(t, s.PutIndexEntry("widget|rank", []byte{5}, IndexEntry{Keys: []ikey.StorageKey{k1}}))
	require.NoError(t, s.PutIndexEntry("widget|rank", []byte{9}, IndexEntry{Keys: []ikey.StorageKey{k1}}))

	var count int
	err := s.ScanIndexRange("widget|rank", []byte{0}, []byte{9}, func(entry IndexEntry) error {
		count++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestCommitMarkerPrepareRejectsEmptyOp(t *testing.T) {
	entity := widgetEntity(t)
	key := storageKey(t, 1)
	_, err := Prepare([]RowOp{{Entity: entity, Key: key}})
	require.Error(t, err)
}

func TestCommitMarkerRoundTripApplyAndClear(t *testing.T) {
	s := openTestStore(t)
	entity := widgetEntity(t)
	key := storageKey(t, 1)

	cm, err := Prepare([]RowOp{{Entity: entity, Key: key, After: []byte("row-1")}})
	require.NoError(t, err)

	require.NoError(t, s.Mark(cm))

	pending, found, err := s.PendingMarker()
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, cm.Ops, pending.Ops)

	var maintained []RowOp
	require.NoError(t, s.Apply(cm, func(op RowOp) error {
		maintained = append(maintained, op)
		return nil
	}))
	require.Len(t, maintained, 1)

	row, found, err := s.GetRow(entity, key)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("row-1"), row)

	require.NoError(t, s.Clear())

	_, found, err = s.PendingMarker()
	require.NoError(t, err)
	require.False(t, found)
}

func TestRecoverReplaysPendingMarker(t *testing.T) {
	s := openTestStore(t)
	entity := widgetEntity(t)
	key := storageKey(t, 1)

	cm, err := Prepare([]RowOp{{Entity: entity, Key: key, After: []byte("row-1")}})
	require.NoError(t, err)
	require.NoError(t, s.Mark(cm))

	var maintained int
	require.NoError(t, s.Recover(func(op RowOp) error {
		maintained++
		return nil
	}))
	require.Equal(t, 1, maintained)

	row, found, err := s.GetRow(entity, key)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("row-1"), row)

	_, found, err = s.PendingMarker()
	require.NoError(t, err)
	require.False(t, found)
}

func TestRecoverIsNoOpWithoutPendingMarker(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Recover(func(op RowOp) error {
		t.Fatal("maintainIndexes should not be called")
		return nil
	}))
}

func TestCommitMarkerDecodeRejectsTruncatedBytes(t *testing.T) {
	_, err := decodeCommitMarker([]byte{markerVersion})
	require.Error(t, err)

	_, err = decodeCommitMarker(nil)
	require.Error(t, err)

	_, err = decodeCommitMarker([]byte{0xFF})
	require.Error(t, err)
}

func TestCommitMarkerPrepareRejectsOversizedRow(t *testing.T) {
	entity := widgetEntity(t)
	key := storageKey(t, 1)
	oversized := make([]byte, MaxRowBytes+1)
	_, err := Prepare([]RowOp{{Entity: entity, Key: key, After: oversized}})
	require.Error(t, err)
}

func TestSnapshotCountsRowsAndIndexEntries(t *testing.T) {
	s := openTestStore(t)
	entity := widgetEntity(t)

	require.NoError(t, s.PutRow(entity, storageKey(t, 1), []byte("a")))
	require.NoError(t, s.PutRow(entity, storageKey(t, 2), []byte("bb")))
	require.NoError(t, s.PutIndexEntry("widget|tag", []byte("red"), IndexEntry{Keys: []ikey.StorageKey{storageKey(t, 1)}}))
	require.NoError(t, s.PutIndexEntry("~ri|widget|owner", []byte("x"), IndexEntry{Keys: []ikey.StorageKey{storageKey(t, 2)}}))

	report, err := s.Snapshot()
	require.NoError(t, err)

	require.EqualValues(t, 2, report.DataEntries)
	require.EqualValues(t, 2, report.IndexEntries)
	require.EqualValues(t, 1, report.UserIndexEntries)
	require.EqualValues(t, 1, report.SystemEntries)
	require.Len(t, report.Entities, 1)
	require.Equal(t, "widget", report.Entities[0].Entity)
	require.EqualValues(t, 2, report.Entities[0].Entries)
	require.NotNil(t, report.Entities[0].MinKey)
	require.NotNil(t, report.Entities[0].MaxKey)
}

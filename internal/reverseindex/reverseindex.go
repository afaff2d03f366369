// Package reverseindex maintains the derived per-target index of referring
// source keys for strong relation fields (spec §4.I): for each entity with
// direct or optional `Ref<T>` fields, every insert/update/delete keeps a
// `(target, relation id) -> {source keys}` entry in step with the row.
package reverseindex

import (
	"sort"

	"github.com/dragginzgame/icydb-sub004/internal/fingerprint"
	"github.com/dragginzgame/icydb-sub004/internal/ikey"
	"github.com/dragginzgame/icydb-sub004/internal/model"
	"github.com/dragginzgame/icydb-sub004/internal/store"
	"github.com/dragginzgame/icydb-sub004/internal/value"
)

// RelationID computes the `~ri|<target_entity_name>|h<stable_hash(...)>`
// index namespace for one relation field (spec §4.I), so identity limits
// hold regardless of how long the source/target paths are.
func RelationID(sourcePath, fieldName, targetPath string, target ikey.EntityName) string {
	var buf []byte
	buf = fingerprint.FrameElement(buf, 0, []byte(sourcePath))
	buf = fingerprint.FrameElement(buf, 1, []byte(fieldName))
	buf = fingerprint.FrameElement(buf, 2, []byte(targetPath))
	sum := fingerprint.OfBytes(buf)
	return "~ri|" + target.String() + "|h" + hexEncode(sum.Bytes())
}

const hexDigits = "0123456789abcdef"

func hexEncode(b []byte) string {
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hexDigits[c>>4]
		out[i*2+1] = hexDigits[c&0x0f]
	}
	return string(out)
}

// Mutation is one queued reverse-index update: insert or remove SourceKey
// from the entry at (RelationID, TargetKey).
type Mutation struct {
	RelationID string
	TargetKey  ikey.StorageKey
	SourceKey  ikey.StorageKey
	Insert     bool
}

// ComputeMutations diffs before/after against schema's strong relation
// fields and returns the mutation set needed to keep reverse indexes in
// step (spec §4.I, P11). before/after are the decoded row maps, or nil for
// an insert/delete respectively.
func ComputeMutations(schema model.EntityModel, sourceKey ikey.StorageKey, before, after *value.Value) ([]Mutation, error) {
	var out []Mutation
	for _, rel := range schema.Relations {
		oldTarget, hasOld, err := extractTarget(before, rel.FieldName)
		if err != nil {
			return nil, err
		}
		newTarget, hasNew, err := extractTarget(after, rel.FieldName)
		if err != nil {
			return nil, err
		}
		if hasOld && hasNew && oldTarget.Compare(newTarget) == 0 {
			continue
		}

		relationID := RelationID(schema.Path, rel.FieldName, rel.TargetPath, rel.Target)
		if hasOld {
			out = append(out, Mutation{RelationID: relationID, TargetKey: oldTarget, SourceKey: sourceKey, Insert: false})
		}
		if hasNew {
			out = append(out, Mutation{RelationID: relationID, TargetKey: newTarget, SourceKey: sourceKey, Insert: true})
		}
	}

	sortMutations(out)
	return out, nil
}

func extractTarget(row *value.Value, fieldName string) (ikey.StorageKey, bool, error) {
	if row == nil {
		return ikey.StorageKey{}, false, nil
	}
	fieldVal, ok := value.MapGet(row.MapValue(), value.Text(fieldName))
	if !ok || fieldVal.IsNull() {
		return ikey.StorageKey{}, false, nil
	}
	key, err := ikey.TryFromValue(fieldVal)
	if err != nil {
		return ikey.StorageKey{}, false, err
	}
	return key, true, nil
}

func sortMutations(muts []Mutation) {
	sort.Slice(muts, func(i, j int) bool {
		if c := muts[i].TargetKey.Compare(muts[j].TargetKey); c != 0 {
			return c < 0
		}
		if muts[i].RelationID != muts[j].RelationID {
			return muts[i].RelationID < muts[j].RelationID
		}
		return muts[i].SourceKey.Compare(muts[j].SourceKey) < 0
	})
}

// Apply replays mutations against s, loading each (relationID, targetKey)
// entry, inserting/removing the source key, and deleting the entry once it
// is empty (spec §4.I). Apply is a separate call from Store.Apply; the
// executor's delete path runs it after Store.Apply and before Store.Clear,
// so the mutations happen while the commit marker is still in place.
func Apply(s *store.Store, muts []Mutation) error {
	for _, m := range muts {
		entry, _, err := s.GetIndexEntry(m.RelationID, m.TargetKey.ToBytes())
		if err != nil {
			return err
		}
		if m.Insert {
			entry.Keys = insertSorted(entry.Keys, m.SourceKey)
		} else {
			entry.Keys = removeSorted(entry.Keys, m.SourceKey)
		}
		if err := s.PutIndexEntry(m.RelationID, m.TargetKey.ToBytes(), entry); err != nil {
			return err
		}
	}
	return nil
}

func insertSorted(keys []ikey.StorageKey, k ikey.StorageKey) []ikey.StorageKey {
	idx := sort.Search(len(keys), func(i int) bool { return keys[i].Compare(k) >= 0 })
	if idx < len(keys) && keys[idx].Compare(k) == 0 {
		return keys
	}
	out := make([]ikey.StorageKey, 0, len(keys)+1)
	out = append(out, keys[:idx]...)
	out = append(out, k)
	out = append(out, keys[idx:]...)
	return out
}

func removeSorted(keys []ikey.StorageKey, k ikey.StorageKey) []ikey.StorageKey {
	idx := sort.Search(len(keys), func(i int) bool { return keys[i].Compare(k) >= 0 })
	if idx < len(keys) && keys[idx].Compare(k) == 0 {
		return append(keys[:idx], keys[idx+1:]...)
	}
	return keys
}

// Referrers returns the current set of source keys referring to targetKey
// under relationID, used for O(referrers) delete-time strong-relation
// enforcement rather than a full scan.
func Referrers(s *store.Store, relationID string, targetKey ikey.StorageKey) ([]ikey.StorageKey, error) {
	entry, _, err := s.GetIndexEntry(relationID, targetKey.ToBytes())
	if err != nil {
		return nil, err
	}
	return entry.Keys, nil
}

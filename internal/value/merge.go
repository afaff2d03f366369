package value

import (
	"strings"

	"github.com/dragginzgame/icydb-sub004/internal/icyerr"
)

// MergePatch applies a single field-path-addressed update to base, which
// must be a Map (or Null, treated as an empty map to patch into). It walks
// nested Map values by dot-separated path segments, the same nested-path
// traversal FieldRef.Extract uses for reads, generalized to writes. Every
// error carries the dot-joined field path so the caller gets a diagnosable
// location.
func MergePatch(base Value, path []string, newVal Value) (Value, error) {
	if len(path) == 0 {
		return Value{}, icyerr.New(icyerr.Update, icyerr.OriginQuery, "empty field path")
	}
	entries, err := mapEntriesOf(base, path[:0])
	if err != nil {
		return Value{}, err
	}
	updated, err := mergeInto(entries, path, newVal)
	if err != nil {
		return Value{}, err
	}
	return NewMap(updated)
}

func mapEntriesOf(v Value, path []string) ([]MapEntry, error) {
	switch v.Kind {
	case KindNull:
		return nil, nil
	case KindMap:
		return v.mapv, nil
	default:
		return nil, icyerr.New(icyerr.Update, icyerr.OriginQuery, "not a map: %s", v.Kind).WithField(strings.Join(path, "."))
	}
}

func mergeInto(entries []MapEntry, path []string, newVal Value) ([]MapEntry, error) {
	head, rest := path[0], path[1:]
	key := Text(head)

	if len(rest) == 0 {
		out, err := MapSet(entries, key, newVal)
		if err != nil {
			return nil, icyerr.Wrap(icyerr.Update, icyerr.OriginQuery, err, "set field").WithField(head)
		}
		return out.mapv, nil
	}

	child, _ := MapGet(entries, key)
	childEntries, err := mapEntriesOf(child, path[:1])
	if err != nil {
		return nil, err.(*icyerr.Error).WithField(head)
	}
	mergedChild, err := mergeInto(childEntries, rest, newVal)
	if err != nil {
		ie, ok := err.(*icyerr.Error)
		if ok {
			return nil, ie.WithField(head + "." + ie.Field)
		}
		return nil, err
	}
	childMap, err := NewMap(mergedChild)
	if err != nil {
		return nil, icyerr.Wrap(icyerr.Update, icyerr.OriginQuery, err, "normalize nested map").WithField(head)
	}
	out, err := MapSet(entries, key, childMap)
	if err != nil {
		return nil, icyerr.Wrap(icyerr.Update, icyerr.OriginQuery, err, "set field").WithField(head)
	}
	return out.mapv, nil
}

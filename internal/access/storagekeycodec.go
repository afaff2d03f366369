package access

import (
	"github.com/dragginzgame/icydb-sub004/internal/ikey"
	"github.com/dragginzgame/icydb-sub004/internal/value"
)

// StorageKeyCodec is the KeyCodec[ikey.StorageKey] every executor/planner
// call site uses: primary keys are always StorageKey-encoded (spec §3
// "StorageKey").
type StorageKeyCodec struct{}

func (StorageKeyCodec) FromValue(v value.Value) (ikey.StorageKey, bool) {
	k, err := ikey.TryFromValue(v)
	if err != nil {
		return ikey.StorageKey{}, false
	}
	return k, true
}

func (StorageKeyCodec) Less(a, b ikey.StorageKey) bool { return a.Compare(b) < 0 }

func (StorageKeyCodec) Equal(a, b ikey.StorageKey) bool { return a.Compare(b) == 0 }

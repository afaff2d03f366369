package kernel

import (
	"github.com/dragginzgame/icydb-sub004/internal/icyerr"
	"github.com/dragginzgame/icydb-sub004/internal/ikey"
)

// InputMode declares what a Reducer needs to see per item (spec §4.K
// "Reducer runner").
type InputMode uint8

const (
	KeyOnly InputMode = iota
	RowOnly
)

// ReduceResult tells the runner whether to keep pulling or stop early.
type ReduceResult uint8

const (
	Continue ReduceResult = iota
	StopEarly
)

// Item is an ephemeral borrow passed to Reducer.OnItem; reducers must not
// retain it past the call.
type Item struct {
	Key    ikey.StorageKey
	Row    []byte
	HasRow bool
}

// Reducer consumes a stream of Items under its declared InputMode.
type Reducer interface {
	Mode() InputMode
	OnItem(Item) (ReduceResult, error)
}

// FoldEligible is the KeyOnly fold-mode eligibility check: KeysOnly is
// always eligible, ExistingRows probes row existence under a given
// consistency (spec §4.J "aggregate_fold_mode").
type FoldEligible func(key ikey.StorageKey) (bool, error)

// RowResolver resolves a key to its row bytes under the plan's read
// consistency; found=false means the row is absent.
type RowResolver func(key ikey.StorageKey) (row []byte, found bool, err error)

// Window bounds a run: skip Offset keys, then emit at most Limit (0 means
// unbounded).
type Window struct {
	Offset uint64
	Limit  uint64
}

func (w Window) bounded() bool { return w.Limit > 0 }

// RunKeyOnly drives stream through reducer in KeyOnly mode: skip
// window.Offset eligible keys, then feed up to window.Limit eligible keys
// to reducer, honoring StopEarly (spec §4.K "Reducer runner").
func RunKeyOnly(stream KeyStream, eligible FoldEligible, reducer Reducer, window Window) error {
	if reducer.Mode() != KeyOnly {
		return icyerr.New(icyerr.InvariantViolation, icyerr.OriginExecutor, "reducer mode mismatch: expected KeyOnly")
	}

	var skipped uint64
	var emitted uint64
	for {
		k, ok, err := stream.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if eligible != nil {
			good, err := eligible(k)
			if err != nil {
				return err
			}
			if !good {
				continue
			}
		}
		if skipped < window.Offset {
			skipped++
			continue
		}
		res, err := reducer.OnItem(Item{Key: k})
		if err != nil {
			return err
		}
		emitted++
		if res == StopEarly {
			return nil
		}
		if window.bounded() && emitted >= window.Limit {
			return nil
		}
	}
}

// RunRowOnly drives stream through reducer in RowOnly mode: resolves each
// key to a row via resolve, staging only rows that exist, and honors
// StopEarly/window the same way as RunKeyOnly.
func RunRowOnly(stream KeyStream, resolve RowResolver, reducer Reducer, window Window) error {
	if reducer.Mode() != RowOnly {
		return icyerr.New(icyerr.InvariantViolation, icyerr.OriginExecutor, "reducer mode mismatch: expected RowOnly")
	}

	var skipped uint64
	var emitted uint64
	for {
		k, ok, err := stream.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		row, found, err := resolve(k)
		if err != nil {
			return err
		}
		if !found {
			continue
		}
		if skipped < window.Offset {
			skipped++
			continue
		}
		res, err := reducer.OnItem(Item{Key: k, Row: row, HasRow: true})
		if err != nil {
			return err
		}
		emitted++
		if res == StopEarly {
			return nil
		}
		if window.bounded() && emitted >= window.Limit {
			return nil
		}
	}
}

// AggregateKind names the scalar aggregate terminals the state machine
// supports (spec §4.K "AggregateStateReducer").
type AggregateKind uint8

const (
	AggCount AggregateKind = iota
	AggExists
	AggFirst
	AggLast
)

// AggregateStateReducer is the canonical KeyOnly aggregate state machine
// for Count/Exists/First/Last.
type AggregateStateReducer struct {
	kind  AggregateKind
	count uint64
	first *ikey.StorageKey
	last  *ikey.StorageKey
	seen  bool
}

func NewAggregateStateReducer(kind AggregateKind) *AggregateStateReducer {
	return &AggregateStateReducer{kind: kind}
}

func (r *AggregateStateReducer) Mode() InputMode { return KeyOnly }

func (r *AggregateStateReducer) OnItem(item Item) (ReduceResult, error) {
	r.count++
	r.seen = true
	if r.first == nil {
		k := item.Key
		r.first = &k
	}
	k := item.Key
	r.last = &k

	switch r.kind {
	case AggExists, AggFirst:
		return StopEarly, nil
	default:
		return Continue, nil
	}
}

// Count returns the number of keys observed (meaningful for AggCount).
func (r *AggregateStateReducer) Count() uint64 { return r.count }

// Exists reports whether any key was observed.
func (r *AggregateStateReducer) Exists() bool { return r.seen }

// First returns the first key observed, if any.
func (r *AggregateStateReducer) First() (ikey.StorageKey, bool) {
	if r.first == nil {
		return ikey.StorageKey{}, false
	}
	return *r.first, true
}

// Last returns the last key observed, if any.
func (r *AggregateStateReducer) Last() (ikey.StorageKey, bool) {
	if r.last == nil {
		return ikey.StorageKey{}, false
	}
	return *r.last, true
}

// RowCollectorReducer is a RowOnly no-op reducer that stages every row it
// sees, for the Load execution path.
type RowCollectorReducer struct {
	Rows []CollectedRow
}

// CollectedRow is one materialized (key, row) pair.
type CollectedRow struct {
	Key ikey.StorageKey
	Row []byte
}

func (r *RowCollectorReducer) Mode() InputMode { return RowOnly }

func (r *RowCollectorReducer) OnItem(item Item) (ReduceResult, error) {
	row := append([]byte(nil), item.Row...)
	r.Rows = append(r.Rows, CollectedRow{Key: item.Key, Row: row})
	return Continue, nil
}

// FieldExtremaReducer tracks the best row under a direction-aware ordered
// traversal of the stream, terminating on the first row it sees — the
// stream itself must already be ordered by the target field (spec §4.K
// "Field-extrema fold": MIN under ascending index-leading traversal
// terminates on the first existing row).
type FieldExtremaReducer struct {
	winner *CollectedRow
}

func (r *FieldExtremaReducer) Mode() InputMode { return RowOnly }

func (r *FieldExtremaReducer) OnItem(item Item) (ReduceResult, error) {
	row := append([]byte(nil), item.Row...)
	w := CollectedRow{Key: item.Key, Row: row}
	r.winner = &w
	return StopEarly, nil
}

// Winner returns the winning row, if the stream produced one.
func (r *FieldExtremaReducer) Winner() (CollectedRow, bool) {
	if r.winner == nil {
		return CollectedRow{}, false
	}
	return *r.winner, true
}

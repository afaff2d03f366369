// Package kernel implements the ordered key-stream contract of spec §4.K:
// pull-based, single-threaded iterators over a single entity's StorageKeys
// in a declared direction, the reducer runner that drives them, and the
// grouped-aggregate accumulator.
package kernel

import (
	"github.com/dragginzgame/icydb-sub004/internal/icyerr"
	"github.com/dragginzgame/icydb-sub004/internal/ikey"
	"github.com/dragginzgame/icydb-sub004/internal/queryplan"
)

// KeyStream is a pull-based, single-threaded iterator over StorageKeys of
// one entity, strictly monotonic in its declared Direction. Duplicates are
// only ever adjacent-equal, never out of order; a violation is reported as
// an InvariantViolation error by the stream that detects it.
type KeyStream interface {
	// Next returns the next key, or ok=false on clean exhaustion, or a
	// terminal error.
	Next() (key ikey.StorageKey, ok bool, err error)
	Direction() queryplan.Direction
}

func less(k1, k2 ikey.StorageKey, dir queryplan.Direction) bool {
	c := k1.Compare(k2)
	if dir == queryplan.Ascending {
		return c < 0
	}
	return c > 0
}

// VecKeyStream adapts a pre-materialized, already-ordered slice of keys.
type VecKeyStream struct {
	keys []ikey.StorageKey
	dir  queryplan.Direction
	i    int
}

// NewVecKeyStream wraps keys, which must already be ordered per dir.
func NewVecKeyStream(keys []ikey.StorageKey, dir queryplan.Direction) *VecKeyStream {
	return &VecKeyStream{keys: keys, dir: dir}
}

func (v *VecKeyStream) Direction() queryplan.Direction { return v.dir }

func (v *VecKeyStream) Next() (ikey.StorageKey, bool, error) {
	if v.i >= len(v.keys) {
		return ikey.StorageKey{}, false, nil
	}
	k := v.keys[v.i]
	v.i++
	return k, true, nil
}

// monitor enforces strict monotonicity (adjacent-equal permitted) of keys
// pulled from an upstream source, per the declared direction.
type monitor struct {
	dir  queryplan.Direction
	last *ikey.StorageKey
}

func (m *monitor) check(k ikey.StorageKey) error {
	if m.last == nil {
		prev := k
		m.last = &prev
		return nil
	}
	c := k.Compare(*m.last)
	ok := c == 0
	if m.dir == queryplan.Ascending {
		ok = ok || c > 0
	} else {
		ok = ok || c < 0
	}
	if !ok {
		return icyerr.New(icyerr.InvariantViolation, icyerr.OriginExecutor, "non-monotonic key order")
	}
	prev := k
	m.last = &prev
	return nil
}

// MergeKeyStream pulls from two ordered streams, emitting the union in
// order and suppressing duplicate output keys.
type MergeKeyStream struct {
	a, b       KeyStream
	dir        queryplan.Direction
	pendingA   *ikey.StorageKey
	pendingB   *ikey.StorageKey
	haveA      bool
	haveB      bool
	exhaustedA bool
	exhaustedB bool
	monA, monB monitor
	lastOut    *ikey.StorageKey
}

// NewMergeKeyStream merges a and b, which must share a's direction.
func NewMergeKeyStream(a, b KeyStream) *MergeKeyStream {
	dir := a.Direction()
	return &MergeKeyStream{a: a, b: b, dir: dir, monA: monitor{dir: dir}, monB: monitor{dir: dir}}
}

func (m *MergeKeyStream) Direction() queryplan.Direction { return m.dir }

func (m *MergeKeyStream) fillA() error {
	if m.haveA || m.exhaustedA {
		return nil
	}
	k, ok, err := m.a.Next()
	if err != nil {
		return err
	}
	if !ok {
		m.exhaustedA = true
		return nil
	}
	if err := m.monA.check(k); err != nil {
		return err
	}
	m.pendingA = &k
	m.haveA = true
	return nil
}

func (m *MergeKeyStream) fillB() error {
	if m.haveB || m.exhaustedB {
		return nil
	}
	k, ok, err := m.b.Next()
	if err != nil {
		return err
	}
	if !ok {
		m.exhaustedB = true
		return nil
	}
	if err := m.monB.check(k); err != nil {
		return err
	}
	m.pendingB = &k
	m.haveB = true
	return nil
}

func (m *MergeKeyStream) emit(k ikey.StorageKey) (ikey.StorageKey, bool, error) {
	if m.lastOut != nil && k.Compare(*m.lastOut) == 0 {
		return k, false, nil
	}
	out := k
	m.lastOut = &out
	return k, true, nil
}

func (m *MergeKeyStream) Next() (ikey.StorageKey, bool, error) {
	for {
		if err := m.fillA(); err != nil {
			return ikey.StorageKey{}, false, err
		}
		if err := m.fillB(); err != nil {
			return ikey.StorageKey{}, false, err
		}

		switch {
		case !m.haveA && !m.haveB:
			return ikey.StorageKey{}, false, nil
		case m.haveA && !m.haveB:
			k := *m.pendingA
			m.haveA = false
			if k2, emitted, err := m.emit(k); emitted || err != nil {
				return k2, emitted, err
			}
			continue
		case !m.haveA && m.haveB:
			k := *m.pendingB
			m.haveB = false
			if k2, emitted, err := m.emit(k); emitted || err != nil {
				return k2, emitted, err
			}
			continue
		default:
			a, b := *m.pendingA, *m.pendingB
			var chosen ikey.StorageKey
			switch {
			case a.Compare(b) == 0:
				chosen = a
				m.haveA, m.haveB = false, false
			case less(a, b, m.dir):
				chosen = a
				m.haveA = false
			default:
				chosen = b
				m.haveB = false
			}
			if k2, emitted, err := m.emit(chosen); emitted || err != nil {
				return k2, emitted, err
			}
			continue
		}
	}
}

// IntersectKeyStream emits keys present in both ordered inputs; exhaustion
// of either side terminates output.
type IntersectKeyStream struct {
	a, b       KeyStream
	dir        queryplan.Direction
	monA, monB monitor

	curA, curB         ikey.StorageKey
	haveA, haveB       bool
	exhaustedA         bool
	exhaustedB         bool
}

func NewIntersectKeyStream(a, b KeyStream) *IntersectKeyStream {
	dir := a.Direction()
	return &IntersectKeyStream{a: a, b: b, dir: dir, monA: monitor{dir: dir}, monB: monitor{dir: dir}}
}

func (s *IntersectKeyStream) Direction() queryplan.Direction { return s.dir }

func (s *IntersectKeyStream) advanceA() error {
	if s.exhaustedA {
		s.haveA = false
		return nil
	}
	k, ok, err := s.a.Next()
	if err != nil {
		return err
	}
	if !ok {
		s.exhaustedA = true
		s.haveA = false
		return nil
	}
	if err := s.monA.check(k); err != nil {
		return err
	}
	s.curA, s.haveA = k, true
	return nil
}

func (s *IntersectKeyStream) advanceB() error {
	if s.exhaustedB {
		s.haveB = false
		return nil
	}
	k, ok, err := s.b.Next()
	if err != nil {
		return err
	}
	if !ok {
		s.exhaustedB = true
		s.haveB = false
		return nil
	}
	if err := s.monB.check(k); err != nil {
		return err
	}
	s.curB, s.haveB = k, true
	return nil
}

func (s *IntersectKeyStream) Next() (ikey.StorageKey, bool, error) {
	if !s.haveA && !s.exhaustedA {
		if err := s.advanceA(); err != nil {
			return ikey.StorageKey{}, false, err
		}
	}
	if !s.haveB && !s.exhaustedB {
		if err := s.advanceB(); err != nil {
			return ikey.StorageKey{}, false, err
		}
	}

	for s.haveA && s.haveB {
		switch {
		case s.curA.Compare(s.curB) == 0:
			out := s.curA
			if err := s.advanceA(); err != nil {
				return ikey.StorageKey{}, false, err
			}
			if err := s.advanceB(); err != nil {
				return ikey.StorageKey{}, false, err
			}
			return out, true, nil
		case less(s.curA, s.curB, s.dir):
			if err := s.advanceA(); err != nil {
				return ikey.StorageKey{}, false, err
			}
		default:
			if err := s.advanceB(); err != nil {
				return ikey.StorageKey{}, false, err
			}
		}
	}
	return ikey.StorageKey{}, false, nil
}

// DistinctKeyStream wraps an ordered stream, emitting at most one of each
// adjacent-equal key and recording the deduped count (spec §4.K, P9).
type DistinctKeyStream struct {
	inner   KeyStream
	mon     monitor
	lastOut *ikey.StorageKey
	deduped uint64
}

func NewDistinctKeyStream(inner KeyStream) *DistinctKeyStream {
	return &DistinctKeyStream{inner: inner, mon: monitor{dir: inner.Direction()}}
}

func (d *DistinctKeyStream) Direction() queryplan.Direction { return d.inner.Direction() }

// Deduped returns the number of keys suppressed as duplicates so far.
func (d *DistinctKeyStream) Deduped() uint64 { return d.deduped }

func (d *DistinctKeyStream) Next() (ikey.StorageKey, bool, error) {
	for {
		k, ok, err := d.inner.Next()
		if err != nil || !ok {
			return ikey.StorageKey{}, false, err
		}
		if err := d.mon.check(k); err != nil {
			return ikey.StorageKey{}, false, err
		}
		if d.lastOut != nil && k.Compare(*d.lastOut) == 0 {
			d.deduped++
			continue
		}
		out := k
		d.lastOut = &out
		return k, true, nil
	}
}

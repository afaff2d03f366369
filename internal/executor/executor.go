// Package executor ties the router, the ordered key-stream kernel, and the
// commit-marker write path together into the Load/Delete/Aggregate
// orchestration of spec §4.L.
package executor

import (
	"sort"

	"github.com/dragginzgame/icydb-sub004/internal/access"
	"github.com/dragginzgame/icydb-sub004/internal/cursor"
	"github.com/dragginzgame/icydb-sub004/internal/explain"
	"github.com/dragginzgame/icydb-sub004/internal/icyerr"
	"github.com/dragginzgame/icydb-sub004/internal/ikey"
	"github.com/dragginzgame/icydb-sub004/internal/kernel"
	"github.com/dragginzgame/icydb-sub004/internal/model"
	"github.com/dragginzgame/icydb-sub004/internal/predicate"
	"github.com/dragginzgame/icydb-sub004/internal/queryplan"
	"github.com/dragginzgame/icydb-sub004/internal/reverseindex"
	"github.com/dragginzgame/icydb-sub004/internal/route"
	"github.com/dragginzgame/icydb-sub004/internal/store"
	"github.com/dragginzgame/icydb-sub004/internal/value"
)

// RowCodec is the external-collaborator contract (spec §6 "Schema/
// codegen"): converting a row's typed entity E to/from the wire bytes and
// its canonical Value, and reading one field's Value off it for order/
// group-key extraction.
type RowCodec[E any] interface {
	Encode(e E) ([]byte, error)
	Decode(row []byte) (E, error)
	PrimaryKey(e E) (ikey.StorageKey, error)
	FieldValue(e E, field string) (value.Value, error)
}

// Context binds a store handle, an entity's schema, and its row codec, the
// unit every Load/Delete/Aggregate call operates against (spec §4.L
// "Context<E>").
type Context[E any] struct {
	Store  *store.Store
	Schema model.EntityModel
	Codec  RowCodec[E]
}

// Read resolves key under MissingOk semantics: found=false for an absent
// row rather than an error.
func (c *Context[E]) Read(key ikey.StorageKey) (E, bool, error) {
	var zero E
	row, found, err := c.Store.GetRow(c.Schema.Name, key)
	if err != nil || !found {
		return zero, false, err
	}
	e, err := c.Codec.Decode(row)
	if err != nil {
		return zero, false, err
	}
	if err := c.checkRowIdentity(e, key); err != nil {
		return zero, false, err
	}
	return e, true, nil
}

// ReadStrict resolves key, treating a missing row as corruption (spec §7
// "Not-found reads ... in Strict they become Corruption/Store").
func (c *Context[E]) ReadStrict(key ikey.StorageKey) (E, error) {
	e, found, err := c.Read(key)
	if err != nil {
		return e, err
	}
	if !found {
		return e, icyerr.New(icyerr.Corruption, icyerr.OriginStore, "strict read: row missing for key")
	}
	return e, nil
}

func (c *Context[E]) checkRowIdentity(e E, key ikey.StorageKey) error {
	pk, err := c.Codec.PrimaryKey(e)
	if err != nil {
		return err
	}
	if pk.Compare(key) != 0 {
		return icyerr.New(icyerr.Corruption, icyerr.OriginStore, "decoded row's primary key does not match its data key")
	}
	return nil
}

// candidatesFromAccess materializes the ordered (ascending) key set for a
// single AccessPath leaf (spec §4.L "candidates_from_access").
func (c *Context[E]) candidatesFromAccess(path access.AccessPath[ikey.StorageKey]) ([]ikey.StorageKey, error) {
	switch path.Kind {
	case access.PathFullScan:
		var keys []ikey.StorageKey
		err := c.Store.ScanRows(c.Schema.Name, func(key ikey.StorageKey, _ []byte) error {
			keys = append(keys, key)
			return nil
		})
		return keys, err

	case access.PathByKey:
		return []ikey.StorageKey{path.Key}, nil

	case access.PathByKeys:
		return path.Keys, nil

	case access.PathKeyRange:
		var keys []ikey.StorageKey
		err := c.Store.ScanRows(c.Schema.Name, func(key ikey.StorageKey, _ []byte) error {
			if key.Compare(path.RangeFrom) >= 0 && key.Compare(path.RangeTo) <= 0 {
				keys = append(keys, key)
			}
			return nil
		})
		return keys, err

	case access.PathIndexPrefix:
		prefixBytes, err := encodeValues(path.Values)
		if err != nil {
			return nil, err
		}
		var keys []ikey.StorageKey
		err = c.Store.ScanIndexPrefix(path.Index, prefixBytes, func(entry store.IndexEntry) error {
			keys = append(keys, entry.Keys...)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return sortDedup(keys), nil

	case access.PathIndexRange:
		lower, upper, err := encodeRangeBounds(path.Range)
		if err != nil {
			return nil, err
		}
		var keys []ikey.StorageKey
		err = c.Store.ScanIndexRange(path.Index, lower, upper, func(entry store.IndexEntry) error {
			keys = append(keys, entry.Keys...)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return sortDedup(keys), nil

	default:
		return nil, icyerr.New(icyerr.InvariantViolation, icyerr.OriginExecutor, "unreachable access path kind")
	}
}

func encodeValues(values []value.Value) ([]byte, error) {
	var out []byte
	for _, v := range values {
		out = append(out, value.CanonicalBytes(v)...)
	}
	return out, nil
}

func encodeRangeBounds(spec access.SemanticIndexRangeSpec) (lower, upper []byte, err error) {
	prefix, err := encodeValues(spec.PrefixValues)
	if err != nil {
		return nil, nil, err
	}
	lower = append(append([]byte(nil), prefix...), boundLowerBytes(spec.LowerBound)...)
	upper = append(append([]byte(nil), prefix...), boundUpperBytes(spec.UpperBound)...)
	return lower, upper, nil
}

func boundLowerBytes(b access.Bound) []byte {
	if b.Kind == access.BoundUnbounded {
		return nil
	}
	return value.CanonicalBytes(b.Value)
}

func boundUpperBytes(b access.Bound) []byte {
	if b.Kind == access.BoundUnbounded {
		return []byte{0xFF}
	}
	out := value.CanonicalBytes(b.Value)
	if b.Kind == access.BoundExcluded {
		return out
	}
	return append(out, 0x00)
}

func sortDedup(keys []ikey.StorageKey) []ikey.StorageKey {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Compare(keys[j]) < 0 })
	out := keys[:0]
	for i, k := range keys {
		if i == 0 || k.Compare(out[len(out)-1]) != 0 {
			out = append(out, k)
		}
	}
	return out
}

// buildKeyStream recursively compiles plan into an ordered kernel.KeyStream
// in dir, merging Union nodes and intersecting Intersection nodes pairwise
// (spec §4.L step 4).
func (c *Context[E]) buildKeyStream(plan access.AccessPlan[ikey.StorageKey], dir queryplan.Direction) (kernel.KeyStream, error) {
	switch plan.Kind {
	case access.PlanLeaf:
		keys, err := c.candidatesFromAccess(plan.Path)
		if err != nil {
			return nil, err
		}
		if dir == queryplan.Descending {
			reverse(keys)
		}
		return kernel.NewVecKeyStream(keys, dir), nil

	case access.PlanUnion:
		return c.buildComposite(plan.Children, dir, false)

	case access.PlanIntersection:
		return c.buildComposite(plan.Children, dir, true)

	default:
		return nil, icyerr.New(icyerr.InvariantViolation, icyerr.OriginExecutor, "unreachable plan kind")
	}
}

func (c *Context[E]) buildComposite(children []access.AccessPlan[ikey.StorageKey], dir queryplan.Direction, intersect bool) (kernel.KeyStream, error) {
	if len(children) == 0 {
		return kernel.NewVecKeyStream(nil, dir), nil
	}
	acc, err := c.buildKeyStream(children[0], dir)
	if err != nil {
		return nil, err
	}
	for _, child := range children[1:] {
		next, err := c.buildKeyStream(child, dir)
		if err != nil {
			return nil, err
		}
		if intersect {
			acc = kernel.NewIntersectKeyStream(acc, next)
		} else {
			acc = kernel.NewMergeKeyStream(acc, next)
		}
	}
	return acc, nil
}

func reverse(keys []ikey.StorageKey) {
	for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
		keys[i], keys[j] = keys[j], keys[i]
	}
}

// LoadResult is the outcome of a Load call: the emitted rows plus an
// opaque next cursor token, if the window did not exhaust the stream.
type LoadResult[E any] struct {
	Rows       []E
	NextCursor *cursor.Token
}

// boundedStream filters an inner KeyStream down to the keys a continuation
// token has not yet emitted, via cursor.ContinuationAdvanced against the
// token's anchor (spec §4.L step 6, §4.G).
type boundedStream struct {
	inner  kernel.KeyStream
	anchor ikey.StorageKey
	dir    queryplan.Direction
}

func (b *boundedStream) Direction() queryplan.Direction { return b.dir }

func (b *boundedStream) Next() (ikey.StorageKey, bool, error) {
	for {
		k, ok, err := b.inner.Next()
		if err != nil || !ok {
			return k, ok, err
		}
		if cursor.ContinuationAdvanced(k, b.anchor, b.dir) {
			return k, true, nil
		}
	}
}

// cursorAnchorKey resolves the StorageKey a resumed stream must advance
// past: the token's explicit index-range anchor if present, otherwise the
// primary-key slot of its boundary (every order spec terminates in the
// primary key, so the boundary's last slot always names one).
func cursorAnchorKey(tok *cursor.Token) (*ikey.StorageKey, error) {
	if tok.Anchor != nil {
		return tok.Anchor, nil
	}
	if len(tok.Boundary) == 0 {
		return nil, nil
	}
	k, err := ikey.TryFromValue(tok.Boundary[len(tok.Boundary)-1])
	if err != nil {
		return nil, err
	}
	return &k, nil
}

// Load executes plan's Load mode (spec §4.L "Load execution"). residual is
// the predicate left beyond the access plan's own selection; it feeds route
// capability derivation and the explain projection only, and rows are not
// filtered by it. tok is the caller-supplied continuation, or nil for a
// fresh query.
func (c *Context[E]) Load(entityPath string, plan queryplan.QueryPlan[ikey.StorageKey], residual predicate.Predicate, tok *cursor.Token) (LoadResult[E], error) {
	hasResidual := residual.Kind != predicate.KindTrue
	caps := route.DeriveCapabilities(c.Schema, plan, hasResidual)
	projected := explain.Project(plan, residual, caps.PKOrderFastPathEligible)

	if tok != nil {
		if err := cursor.Validate(*tok, c.Schema, entityPath, plan, projected); err != nil {
			return LoadResult[E]{}, err
		}
	}

	dir := queryplan.Ascending
	if !plan.Order.IsEmpty() {
		dir = plan.Order.Fields[len(plan.Order.Fields)-1].Direction
	}

	stream, err := c.buildKeyStream(plan.Access, dir)
	if err != nil {
		return LoadResult[E]{}, err
	}
	if plan.Distinct {
		stream = kernel.NewDistinctKeyStream(stream)
	}

	if tok != nil {
		anchor, err := cursorAnchorKey(tok)
		if err != nil {
			return LoadResult[E]{}, err
		}
		if anchor != nil {
			stream = &boundedStream{inner: stream, anchor: *anchor, dir: dir}
		}
	}

	window := kernel.Window{}
	if plan.Page != nil {
		window = kernel.Window{Offset: plan.Page.Offset, Limit: plan.Page.Limit}
	}

	resolve := func(key ikey.StorageKey) ([]byte, bool, error) {
		return c.Store.GetRow(c.Schema.Name, key)
	}
	collector := &kernel.RowCollectorReducer{}
	if err := kernel.RunRowOnly(stream, resolve, collector, window); err != nil {
		return LoadResult[E]{}, err
	}

	rows := make([]E, 0, len(collector.Rows))
	for _, cr := range collector.Rows {
		e, err := c.Codec.Decode(cr.Row)
		if err != nil {
			return LoadResult[E]{}, err
		}
		if err := c.checkRowIdentity(e, cr.Key); err != nil {
			return LoadResult[E]{}, err
		}
		rows = append(rows, e)
	}

	result := LoadResult[E]{Rows: rows}
	if plan.Page != nil && uint64(len(rows)) == plan.Page.Limit && plan.Page.Limit > 0 {
		next, err := c.buildNextCursor(entityPath, plan, projected, rows[len(rows)-1])
		if err != nil {
			return LoadResult[E]{}, err
		}
		result.NextCursor = next
	}
	return result, nil
}

func (c *Context[E]) buildNextCursor(entityPath string, plan queryplan.QueryPlan[ikey.StorageKey], projected explain.Plan, last E) (*cursor.Token, error) {
	boundary := make([]value.Value, len(plan.Order.Fields))
	for i, of := range plan.Order.Fields {
		v, err := c.Codec.FieldValue(last, of.Field)
		if err != nil {
			return nil, err
		}
		boundary[i] = v
	}

	dir := queryplan.Ascending
	if !plan.Order.IsEmpty() {
		dir = plan.Order.Fields[len(plan.Order.Fields)-1].Direction
	}

	var offset uint64
	if plan.Page != nil {
		offset = plan.Page.Offset
	}

	tok := &cursor.Token{
		Version:       cursor.Version,
		Signature:     explain.ContinuationSignature(entityPath, projected),
		Direction:     dir,
		InitialOffset: offset,
		Boundary:      boundary,
	}
	if plan.Access.Kind == access.PlanLeaf && plan.Access.Path.Kind == access.PathIndexRange {
		key, err := c.Codec.PrimaryKey(last)
		if err != nil {
			return nil, err
		}
		tok.Anchor = &key
	}
	return tok, nil
}

// Delete executes plan's Delete mode: walk the access plan up to
// plan.DeleteLimit keys, then write the batch via the commit-marker
// protocol, maintaining reverse indexes for every affected row (spec
// §4.L "Delete execution", §4.I).
func (c *Context[E]) Delete(plan queryplan.QueryPlan[ikey.StorageKey]) (int, error) {
	dir := queryplan.Ascending
	if !plan.Order.IsEmpty() {
		dir = plan.Order.Fields[len(plan.Order.Fields)-1].Direction
	}
	stream, err := c.buildKeyStream(plan.Access, dir)
	if err != nil {
		return 0, err
	}
	if plan.Distinct {
		stream = kernel.NewDistinctKeyStream(stream)
	}

	limit := uint64(0)
	if plan.DeleteLimit != nil {
		limit = *plan.DeleteLimit
	}

	var keys []ikey.StorageKey
	for {
		if limit > 0 && uint64(len(keys)) >= limit {
			break
		}
		k, ok, err := stream.Next()
		if err != nil {
			return 0, err
		}
		if !ok {
			break
		}
		keys = append(keys, k)
	}

	var ops []store.RowOp
	var allMuts []reverseindex.Mutation
	for _, k := range keys {
		row, found, err := c.Store.GetRow(c.Schema.Name, k)
		if err != nil {
			return 0, err
		}
		if !found {
			continue
		}
		e, err := c.Codec.Decode(row)
		if err != nil {
			return 0, err
		}
		before := rowValue(c, e)
		muts, err := reverseindex.ComputeMutations(c.Schema, k, before, nil)
		if err != nil {
			return 0, err
		}
		allMuts = append(allMuts, muts...)
		ops = append(ops, store.RowOp{Entity: c.Schema.Name, Key: k, Before: row})
	}
	if len(ops) == 0 {
		return 0, nil
	}

	cm, err := store.Prepare(ops)
	if err != nil {
		return 0, err
	}
	if err := c.Store.Mark(cm); err != nil {
		return 0, err
	}
	if err := c.Store.Apply(cm, func(store.RowOp) error { return nil }); err != nil {
		return 0, err
	}
	if err := reverseindex.Apply(c.Store, allMuts); err != nil {
		return 0, err
	}
	if err := c.Store.Clear(); err != nil {
		return 0, err
	}
	return len(ops), nil
}

// rowValue decodes a row's field values into a value.Value Map for reverse
// -index diffing, using the codec's FieldValue accessor over every
// relation field the schema declares.
func rowValue[E any](c *Context[E], e E) *value.Value {
	entries := make([]value.MapEntry, 0, len(c.Schema.Relations))
	for _, rel := range c.Schema.Relations {
		v, err := c.Codec.FieldValue(e, rel.FieldName)
		if err != nil {
			continue
		}
		entries = append(entries, value.MapEntry{Key: value.Text(rel.FieldName), Value: v})
	}
	m, err := value.NewMap(entries)
	if err != nil {
		return nil
	}
	return &m
}

// AggregateResult is the outcome of an Aggregate call, in the shape of
// spec §6's AggregateOutput: exactly one of the fields is meaningful,
// selected by the caller's AggregateKind.
type AggregateResult struct {
	Count  uint64
	Exists bool
	Key    *ikey.StorageKey
}

// Aggregate executes a Count/Exists/First/Last/Min/Max terminal over plan
// (spec §4.L "Aggregate execution"). spec.Field names the target field for
// Min/Max and is ignored otherwise.
func (c *Context[E]) Aggregate(plan queryplan.QueryPlan[ikey.StorageKey], spec queryplan.AggregateSpec) (AggregateResult, error) {
	kind := spec.Kind
	rp := route.BuildAggregateRoutePlan(c.Schema, plan, kind, spec.Field, false)

	if kind == queryplan.AggMin || kind == queryplan.AggMax {
		return c.aggregateFieldExtrema(plan, rp, kind, spec.Field)
	}

	stream, err := c.buildKeyStream(plan.Access, rp.Direction)
	if err != nil {
		return AggregateResult{}, err
	}

	var reducerKind kernel.AggregateKind
	switch kind {
	case queryplan.AggCount:
		reducerKind = kernel.AggCount
	case queryplan.AggExists:
		reducerKind = kernel.AggExists
	case queryplan.AggFirst:
		reducerKind = kernel.AggFirst
	case queryplan.AggLast:
		reducerKind = kernel.AggLast
	default:
		return AggregateResult{}, icyerr.New(icyerr.InvariantViolation, icyerr.OriginExecutor, "aggregate kind not handled by the scalar adapter")
	}

	agg := kernel.NewAggregateStateReducer(reducerKind)
	if err := kernel.RunKeyOnly(stream, nil, agg, kernel.Window{}); err != nil {
		return AggregateResult{}, err
	}

	result := AggregateResult{Count: agg.Count(), Exists: agg.Exists()}
	switch kind {
	case queryplan.AggFirst:
		if k, ok := agg.First(); ok {
			result.Key = &k
		}
	case queryplan.AggLast:
		if k, ok := agg.Last(); ok {
			result.Key = &k
		}
	}
	return result, nil
}

// aggregateFieldExtrema resolves a MIN/MAX field-target terminal (spec
// §4.L "field-target extrema have their own adapter"): stream candidates
// already ordered by the target field and take the first winner via
// kernel.FieldExtremaReducer, driven by the route's eligibility check.
func (c *Context[E]) aggregateFieldExtrema(plan queryplan.QueryPlan[ikey.StorageKey], rp route.Plan, kind queryplan.AggregateKind, field string) (AggregateResult, error) {
	eligible, reason := rp.Capabilities.FieldMinFastPathEligible, rp.Capabilities.FieldMinIneligibleReason
	if kind == queryplan.AggMax {
		eligible, reason = rp.Capabilities.FieldMaxFastPathEligible, rp.Capabilities.FieldMaxIneligibleReason
	}
	if !eligible {
		return AggregateResult{}, icyerr.New(icyerr.InvariantViolation, icyerr.OriginExecutor, "field-extrema fast path ineligible: %s", reason)
	}

	var stream kernel.KeyStream
	var err error
	if field == c.Schema.PrimaryKey {
		stream, err = c.buildKeyStream(plan.Access, rp.Direction)
	} else {
		idxs := c.Schema.IndexesWithLeadingField(field)
		stream, err = c.fieldOrderedStream(idxs[0].Name.String(), rp.Direction)
	}
	if err != nil {
		return AggregateResult{}, err
	}

	resolve := func(key ikey.StorageKey) ([]byte, bool, error) {
		return c.Store.GetRow(c.Schema.Name, key)
	}
	reducer := &kernel.FieldExtremaReducer{}
	if err := kernel.RunRowOnly(stream, resolve, reducer, kernel.Window{}); err != nil {
		return AggregateResult{}, err
	}

	result := AggregateResult{}
	if winner, ok := reducer.Winner(); ok {
		result.Exists = true
		k := winner.Key
		result.Key = &k
	}
	return result, nil
}

// fieldOrderedStream materializes the first key recorded under each of
// indexName's entries in ascending field-value order (the index store's own iteration
// order), reversing in-memory for a descending terminal — the same
// materialize-then-reverse shape buildKeyStream uses for its leaf case.
func (c *Context[E]) fieldOrderedStream(indexName string, dir queryplan.Direction) (kernel.KeyStream, error) {
	var keys []ikey.StorageKey
	err := c.Store.ScanIndexRange(indexName, nil, []byte{0xFF}, func(entry store.IndexEntry) error {
		if len(entry.Keys) > 0 {
			keys = append(keys, entry.Keys[0])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if dir == queryplan.Descending {
		reverse(keys)
	}
	return kernel.NewVecKeyStream(keys, dir), nil
}

// GroupedRow is one output row of a grouped-aggregate terminal: the
// group's key field values (in group.Fields order) plus one resolved
// cell per group.Aggregates entry, in the same order.
type GroupedRow struct {
	GroupValues []value.Value
	Cells       []AggregateResult
}

// groupFold is the per-group state a grouped-aggregate terminal folds
// each row into, stored in kernel.GroupNode.Extra: one running count/
// winner-key per requested aggregate, plus the current Min/Max field
// value each extrema aggregate is tracking.
type groupFold struct {
	counts  []uint64
	seen    []bool
	keys    []*ikey.StorageKey
	extrema []value.Value
}

func newGroupFold(n int) *groupFold {
	return &groupFold{
		counts:  make([]uint64, n),
		seen:    make([]bool, n),
		keys:    make([]*ikey.StorageKey, n),
		extrema: make([]value.Value, n),
	}
}

// Grouped executes plan's grouped-aggregate terminal (spec.md §1 module L
// "grouped terminals", validated by internal/planvalidate's GroupSpec
// check): partition the access plan's rows into canonical-order buckets
// via kernel.GroupAccumulator/GroupKey, folding each of group.Aggregates
// independently per bucket.
func (c *Context[E]) Grouped(plan queryplan.QueryPlan[ikey.StorageKey], group queryplan.GroupSpec) ([]GroupedRow, error) {
	stream, err := c.buildKeyStream(plan.Access, queryplan.Ascending)
	if err != nil {
		return nil, err
	}
	if plan.Distinct {
		stream = kernel.NewDistinctKeyStream(stream)
	}

	acc := kernel.NewGroupAccumulator()
	for {
		k, ok, err := stream.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		row, found, err := c.Store.GetRow(c.Schema.Name, k)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		e, err := c.Codec.Decode(row)
		if err != nil {
			return nil, err
		}
		if err := c.checkRowIdentity(e, k); err != nil {
			return nil, err
		}

		values := make([]value.Value, len(group.Fields))
		for i, f := range group.Fields {
			v, err := c.Codec.FieldValue(e, f)
			if err != nil {
				return nil, err
			}
			values[i] = v
		}

		node := acc.Observe(kernel.ComputeGroupKey(values), values)
		fold, ok := node.Extra.(*groupFold)
		if !ok {
			fold = newGroupFold(len(group.Aggregates))
			node.Extra = fold
		}
		for i, agg := range group.Aggregates {
			if err := c.foldGroupAggregate(fold, i, agg, k, e); err != nil {
				return nil, err
			}
		}
	}

	rows := make([]GroupedRow, 0, acc.Len())
	acc.Ascend(func(n *kernel.GroupNode) bool {
		fold, _ := n.Extra.(*groupFold)
		cells := make([]AggregateResult, len(group.Aggregates))
		for i := range group.Aggregates {
			cells[i] = AggregateResult{Count: fold.counts[i], Exists: fold.seen[i], Key: fold.keys[i]}
		}
		rows = append(rows, GroupedRow{GroupValues: n.Values, Cells: cells})
		return true
	})
	return rows, nil
}

// foldGroupAggregate folds one row into agg's running state within fold,
// slot i: Count/Exists track presence, First/Last track stream order, and
// Min/Max compare the row's target-field value against the current
// extremum.
func (c *Context[E]) foldGroupAggregate(fold *groupFold, i int, agg queryplan.AggregateSpec, k ikey.StorageKey, e E) error {
	fold.counts[i]++
	first := !fold.seen[i]
	fold.seen[i] = true

	switch agg.Kind {
	case queryplan.AggCount, queryplan.AggExists:
		// presence/count only; no key tracked.
	case queryplan.AggFirst:
		if first {
			kk := k
			fold.keys[i] = &kk
		}
	case queryplan.AggLast:
		kk := k
		fold.keys[i] = &kk
	case queryplan.AggMin, queryplan.AggMax:
		v, err := c.Codec.FieldValue(e, agg.Field)
		if err != nil {
			return err
		}
		update := first
		if !first {
			cmp := value.Compare(v, fold.extrema[i])
			if agg.Kind == queryplan.AggMin {
				update = cmp < 0
			} else {
				update = cmp > 0
			}
		}
		if update {
			kk := k
			fold.keys[i] = &kk
			fold.extrema[i] = v
		}
	}
	return nil
}

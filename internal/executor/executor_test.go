package executor

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dragginzgame/icydb-sub004/internal/access"
	"github.com/dragginzgame/icydb-sub004/internal/ikey"
	"github.com/dragginzgame/icydb-sub004/internal/model"
	"github.com/dragginzgame/icydb-sub004/internal/predicate"
	"github.com/dragginzgame/icydb-sub004/internal/queryplan"
	"github.com/dragginzgame/icydb-sub004/internal/store"
	"github.com/dragginzgame/icydb-sub004/internal/value"
)

type widget struct {
	ID   int64
	Rank uint64
}

type widgetCodec struct{}

func (widgetCodec) Encode(w widget) ([]byte, error) {
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[0:8], uint64(w.ID))
	binary.BigEndian.PutUint64(buf[8:16], w.Rank)
	return buf, nil
}

func (widgetCodec) Decode(row []byte) (widget, error) {
	return widget{
		ID:   int64(binary.BigEndian.Uint64(row[0:8])),
		Rank: binary.BigEndian.Uint64(row[8:16]),
	}, nil
}

func (widgetCodec) PrimaryKey(w widget) (ikey.StorageKey, error) {
	return ikey.TryFromValue(value.Int(w.ID))
}

func (widgetCodec) FieldValue(w widget, field string) (value.Value, error) {
	switch field {
	case "id":
		return value.Int(w.ID), nil
	case "rank":
		return value.Uint(w.Rank), nil
	default:
		return value.Value{}, nil
	}
}

func widgetSchema(t *testing.T) model.EntityModel {
	t.Helper()
	name, err := ikey.TryNewEntityName("widget")
	require.NoError(t, err)
	return model.EntityModel{
		Path:       "widget",
		Name:       name,
		PrimaryKey: "id",
		Fields: []model.FieldModel{
			{Name: "id", Type: model.FieldType{Kind: model.FieldScalar, Scalar: value.KindInt}},
			{Name: "rank", Type: model.FieldType{Kind: model.FieldScalar, Scalar: value.KindUint}},
		},
	}
}

func newTestContext(t *testing.T) *Context[widget] {
	t.Helper()
	s, err := store.Open(store.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return &Context[widget]{Store: s, Schema: widgetSchema(t), Codec: widgetCodec{}}
}

func putWidget(t *testing.T, c *Context[widget], w widget) {
	t.Helper()
	row, err := c.Codec.Encode(w)
	require.NoError(t, err)
	key, err := c.Codec.PrimaryKey(w)
	require.NoError(t, err)
	require.NoError(t, c.Store.PutRow(c.Schema.Name, key, row))
}

func TestReadRoundTrip(t *testing.T) {
	c := newTestContext(t)
	putWidget(t, c, widget{ID: 1, Rank: 7})

	key, err := c.Codec.PrimaryKey(widget{ID: 1})
	require.NoError(t, err)

	got, found, err := c.Read(key)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, uint64(7), got.Rank)
}

func TestReadStrictErrorsOnMissingRow(t *testing.T) {
	c := newTestContext(t)
	key, err := c.Codec.PrimaryKey(widget{ID: 99})
	require.NoError(t, err)

	_, err = c.ReadStrict(key)
	require.Error(t, err)
}

func TestLoadFullScanOrdersAscending(t *testing.T) {
	c := newTestContext(t)
	for _, n := range []int64{3, 1, 2} {
		putWidget(t, c, widget{ID: n, Rank: uint64(n) * 10})
	}

	plan := queryplan.QueryPlan[ikey.StorageKey]{
		Mode:   queryplan.ModeLoad,
		Access: access.FullScan[ikey.StorageKey](),
		Order:  queryplan.OrderSpec{Fields: []queryplan.OrderField{{Field: "id", Direction: queryplan.Ascending}}},
	}

	result, err := c.Load("widget", plan, predicate.True(), nil)
	require.NoError(t, err)
	require.Len(t, result.Rows, 3)
	require.Equal(t, int64(1), result.Rows[0].ID)
	require.Equal(t, int64(2), result.Rows[1].ID)
	require.Equal(t, int64(3), result.Rows[2].ID)
	require.Nil(t, result.NextCursor)
}

func TestLoadWithPageReturnsNextCursor(t *testing.T) {
	c := newTestContext(t)
	for _, n := range []int64{1, 2, 3, 4} {
		putWidget(t, c, widget{ID: n, Rank: uint64(n)})
	}

	plan := queryplan.QueryPlan[ikey.StorageKey]{
		Mode:   queryplan.ModeLoad,
		Access: access.FullScan[ikey.StorageKey](),
		Order:  queryplan.OrderSpec{Fields: []queryplan.OrderField{{Field: "id", Direction: queryplan.Ascending}}},
		Page:   &queryplan.PageSpec{Limit: 2},
	}

	result, err := c.Load("widget", plan, predicate.True(), nil)
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
	require.NotNil(t, result.NextCursor)
	require.Equal(t, int64(1), result.Rows[0].ID)
	require.Equal(t, int64(2), result.Rows[1].ID)
}

func TestLoadResumesFromNextCursor(t *testing.T) {
	c := newTestContext(t)
	for _, n := range []int64{1, 2, 3, 4} {
		putWidget(t, c, widget{ID: n, Rank: uint64(n)})
	}

	plan := queryplan.QueryPlan[ikey.StorageKey]{
		Mode:   queryplan.ModeLoad,
		Access: access.FullScan[ikey.StorageKey](),
		Order:  queryplan.OrderSpec{Fields: []queryplan.OrderField{{Field: "id", Direction: queryplan.Ascending}}},
		Page:   &queryplan.PageSpec{Limit: 2},
	}

	page1, err := c.Load("widget", plan, predicate.True(), nil)
	require.NoError(t, err)
	require.Len(t, page1.Rows, 2)
	require.Equal(t, int64(1), page1.Rows[0].ID)
	require.Equal(t, int64(2), page1.Rows[1].ID)
	require.NotNil(t, page1.NextCursor)

	page2, err := c.Load("widget", plan, predicate.True(), page1.NextCursor)
	require.NoError(t, err)
	require.Len(t, page2.Rows, 2)
	require.Equal(t, int64(3), page2.Rows[0].ID)
	require.Equal(t, int64(4), page2.Rows[1].ID)

	if page2.NextCursor != nil {
		page3, err := c.Load("widget", plan, predicate.True(), page2.NextCursor)
		require.NoError(t, err)
		require.Empty(t, page3.Rows)
		require.Nil(t, page3.NextCursor)
	}
}

func TestDeleteRemovesMatchingRows(t *testing.T) {
	c := newTestContext(t)
	for _, n := range []int64{1, 2, 3} {
		putWidget(t, c, widget{ID: n, Rank: uint64(n)})
	}

	plan := queryplan.QueryPlan[ikey.StorageKey]{
		Mode:   queryplan.ModeDelete,
		Access: access.FullScan[ikey.StorageKey](),
	}

	n, err := c.Delete(plan)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	key, err := c.Codec.PrimaryKey(widget{ID: 1})
	require.NoError(t, err)
	_, found, err := c.Read(key)
	require.NoError(t, err)
	require.False(t, found)
}

func TestAggregateCount(t *testing.T) {
	c := newTestContext(t)
	for _, n := range []int64{1, 2, 3} {
		putWidget(t, c, widget{ID: n, Rank: uint64(n)})
	}

	plan := queryplan.QueryPlan[ikey.StorageKey]{Mode: queryplan.ModeLoad, Access: access.FullScan[ikey.StorageKey]()}
	result, err := c.Aggregate(plan, queryplan.AggregateSpec{Kind: queryplan.AggCount})
	require.NoError(t, err)
	require.EqualValues(t, 3, result.Count)
}

func TestAggregateExistsOnEmptyEntity(t *testing.T) {
	c := newTestContext(t)
	plan := queryplan.QueryPlan[ikey.StorageKey]{Mode: queryplan.ModeLoad, Access: access.FullScan[ikey.StorageKey]()}
	result, err := c.Aggregate(plan, queryplan.AggregateSpec{Kind: queryplan.AggExists})
	require.NoError(t, err)
	require.False(t, result.Exists)
}

func TestAggregateFirstAndLast(t *testing.T) {
	c := newTestContext(t)
	for _, n := range []int64{1, 2, 3} {
		putWidget(t, c, widget{ID: n, Rank: uint64(n)})
	}

	plan := queryplan.QueryPlan[ikey.StorageKey]{Mode: queryplan.ModeLoad, Access: access.FullScan[ikey.StorageKey]()}

	first, err := c.Aggregate(plan, queryplan.AggregateSpec{Kind: queryplan.AggFirst})
	require.NoError(t, err)
	require.NotNil(t, first.Key)

	last, err := c.Aggregate(plan, queryplan.AggregateSpec{Kind: queryplan.AggLast})
	require.NoError(t, err)
	require.NotNil(t, last.Key)
}

func TestAggregateMinMaxOnPrimaryKey(t *testing.T) {
	c := newTestContext(t)
	for _, n := range []int64{3, 1, 4, 2} {
		putWidget(t, c, widget{ID: n, Rank: uint64(n)})
	}

	plan := queryplan.QueryPlan[ikey.StorageKey]{Mode: queryplan.ModeLoad, Access: access.FullScan[ikey.StorageKey]()}

	min, err := c.Aggregate(plan, queryplan.AggregateSpec{Kind: queryplan.AggMin, Field: "id"})
	require.NoError(t, err)
	require.NotNil(t, min.Key)
	require.True(t, min.Exists)
	wantMin, err := c.Codec.PrimaryKey(widget{ID: 1})
	require.NoError(t, err)
	require.Equal(t, wantMin, *min.Key)

	max, err := c.Aggregate(plan, queryplan.AggregateSpec{Kind: queryplan.AggMax, Field: "id"})
	require.NoError(t, err)
	require.NotNil(t, max.Key)
	require.True(t, max.Exists)
	wantMax, err := c.Codec.PrimaryKey(widget{ID: 4})
	require.NoError(t, err)
	require.Equal(t, wantMax, *max.Key)
}

func TestGroupedCountsAndExtremaPerGroup(t *testing.T) {
	c := newTestContext(t)
	// two buckets by rank%2: evens {2,4}, odds {1,3,5}
	for _, n := range []int64{1, 2, 3, 4, 5} {
		putWidget(t, c, widget{ID: n, Rank: uint64(n % 2)})
	}

	plan := queryplan.QueryPlan[ikey.StorageKey]{Mode: queryplan.ModeLoad, Access: access.FullScan[ikey.StorageKey]()}
	group := queryplan.GroupSpec{
		Fields: []string{"rank"},
		Aggregates: []queryplan.AggregateSpec{
			{Kind: queryplan.AggCount},
			{Kind: queryplan.AggMin, Field: "id"},
			{Kind: queryplan.AggMax, Field: "id"},
		},
	}

	rows, err := c.Grouped(plan, group)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byRank := map[uint64]GroupedRow{}
	for _, r := range rows {
		byRank[r.GroupValues[0].UintValue()] = r
	}

	odd := byRank[1]
	require.EqualValues(t, 3, odd.Cells[0].Count)
	wantOddMin, err := c.Codec.PrimaryKey(widget{ID: 1})
	require.NoError(t, err)
	require.Equal(t, wantOddMin, *odd.Cells[1].Key)
	wantOddMax, err := c.Codec.PrimaryKey(widget{ID: 5})
	require.NoError(t, err)
	require.Equal(t, wantOddMax, *odd.Cells[2].Key)

	even := byRank[0]
	require.EqualValues(t, 2, even.Cells[0].Count)
	wantEvenMin, err := c.Codec.PrimaryKey(widget{ID: 2})
	require.NoError(t, err)
	require.Equal(t, wantEvenMin, *even.Cells[1].Key)
	wantEvenMax, err := c.Codec.PrimaryKey(widget{ID: 4})
	require.NoError(t, err)
	require.Equal(t, wantEvenMax, *even.Cells[2].Key)
}

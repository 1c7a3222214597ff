package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/derekwisong/datui/frame"
)

func tradesFrame(t *testing.T) *frame.DataFrame {
	t.Helper()
	df, err := frame.New(
		frame.NewSeries("sym", []interface{}{"AAPL", "MSFT", "AAPL", "GOOG"}),
		frame.NewSeries("qty", []interface{}{int64(100), int64(50), int64(200), int64(75)}),
		frame.NewSeries("price", []interface{}{150.0, 300.0, 155.0, 2800.0}),
	)
	require.NoError(t, err)
	return df
}

func TestRecomputeIdentity(t *testing.T) {
	p := New(tradesFrame(t))
	df, err := p.Recompute()
	require.NoError(t, err)
	require.Equal(t, 4, df.Height())
	require.Equal(t, StateClean, p.State())
}

func TestStageOrderQueryThenFilterThenSort(t *testing.T) {
	p := New(tradesFrame(t))
	require.NoError(t, p.SetQuery("select sym, notional: qty * price"))
	p.SetFilters([]FilterStatement{{Column: "notional", Operator: ">", Value: "16000"}})
	p.SetSort(SortSpec{Keys: []SortKeySpec{{Column: "notional", Descending: true}}})

	df, err := p.Recompute()
	require.NoError(t, err)
	require.Equal(t, 2, df.Height())
	notional, err := df.Column("notional")
	require.NoError(t, err)
	require.Equal(t, 210000.0, notional.Values[0])
	require.Equal(t, 31000.0, notional.Values[1])
}

func TestSetterOrderIndependence(t *testing.T) {
	query := "select sym, qty where price < 1000"
	sort := SortSpec{Keys: []SortKeySpec{{Column: "qty"}}}

	a := New(tradesFrame(t))
	require.NoError(t, a.SetQuery(query))
	a.SetSort(sort)
	resultA, err := a.Recompute()
	require.NoError(t, err)

	b := New(tradesFrame(t))
	b.SetSort(sort)
	require.NoError(t, b.SetQuery(query))
	resultB, err := b.Recompute()
	require.NoError(t, err)

	require.Equal(t, resultA.Rows(), resultB.Rows())
}

func TestClearedStageIsSkipped(t *testing.T) {
	p := New(tradesFrame(t))
	require.NoError(t, p.SetQuery("select sym"))
	p.SetSort(SortSpec{Keys: []SortKeySpec{{Column: "sym"}}})
	_, err := p.Recompute()
	require.NoError(t, err)

	p.ClearQuery()
	df, err := p.Recompute()
	require.NoError(t, err)
	require.Equal(t, 3, df.Width(), "clearing the query restores all source columns")
	syms, err := df.Column("sym")
	require.NoError(t, err)
	require.Equal(t, "AAPL", syms.Values[0], "sort stage still applies")
}

func TestStateMachine(t *testing.T) {
	p := New(tradesFrame(t))
	require.Equal(t, StateClean, p.State())

	p.SetSort(SortSpec{Keys: []SortKeySpec{{Column: "qty"}}})
	require.Equal(t, StateDirty, p.State())

	_, err := p.Recompute()
	require.NoError(t, err)
	require.Equal(t, StateClean, p.State())

	p.SetFilters([]FilterStatement{{Column: "ghost", Operator: "=", Value: "1"}})
	require.Equal(t, StateDirty, p.State())
	_, err = p.Recompute()
	require.Error(t, err)
	require.Equal(t, StateError, p.State())
	require.Error(t, p.Err())

	// The previous good result stays available for display.
	require.NotNil(t, p.Result())
	require.Equal(t, 4, p.Result().Height())
}

func TestStageErrorIdentifiesStage(t *testing.T) {
	p := New(tradesFrame(t))
	p.SetFilters([]FilterStatement{{Column: "ghost", Operator: "=", Value: "1"}})
	_, err := p.Recompute()

	var se *StageError
	require.ErrorAs(t, err, &se)
	require.Equal(t, StageFilters, se.Stage)
	var notFound *frame.ColumnNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestQueryParseErrorLeavesActiveQuery(t *testing.T) {
	p := New(tradesFrame(t))
	require.NoError(t, p.SetQuery("select sym"))
	require.Error(t, p.SetQuery("select avg["))
	require.Equal(t, "select sym", p.Query())
}

func TestFilterOperators(t *testing.T) {
	base := tradesFrame(t)
	tests := []struct {
		filter FilterStatement
		want   int
	}{
		{FilterStatement{Column: "qty", Operator: ">=", Value: "100"}, 2},
		{FilterStatement{Column: "qty", Operator: "!=", Value: "50"}, 3},
		{FilterStatement{Column: "sym", Operator: "=", Value: "AAPL"}, 2},
		{FilterStatement{Column: "sym", Operator: "contains", Value: "OO"}, 1},
		{FilterStatement{Column: "sym", Operator: "!contains", Value: "A"}, 2},
		{FilterStatement{Column: "price", Operator: "<", Value: "200"}, 2},
	}
	for _, tt := range tests {
		p := New(base)
		p.SetFilters([]FilterStatement{tt.filter})
		df, err := p.Recompute()
		require.NoError(t, err, "filter %v", tt.filter)
		require.Equal(t, tt.want, df.Height(), "filter %v", tt.filter)
	}
}

func TestFiltersAreANDCombined(t *testing.T) {
	p := New(tradesFrame(t))
	p.SetFilters([]FilterStatement{
		{Column: "sym", Operator: "=", Value: "AAPL"},
		{Column: "qty", Operator: ">", Value: "150"},
	})
	df, err := p.Recompute()
	require.NoError(t, err)
	require.Equal(t, 1, df.Height())
}

func TestFilterValueTypeError(t *testing.T) {
	p := New(tradesFrame(t))
	p.SetFilters([]FilterStatement{{Column: "qty", Operator: ">", Value: "abc"}})
	_, err := p.Recompute()
	var se *StageError
	require.ErrorAs(t, err, &se)
	require.Equal(t, StageFilters, se.Stage)
}

func TestFilterNullValue(t *testing.T) {
	df, err := frame.New(
		frame.NewSeries("a", []interface{}{int64(1), nil, int64(3)}),
	)
	require.NoError(t, err)
	p := New(df)
	p.SetFilters([]FilterStatement{{Column: "a", Operator: "=", Value: "null"}})
	out, err := p.Recompute()
	require.NoError(t, err)
	require.Equal(t, 1, out.Height())
}

func TestReshapePivotStage(t *testing.T) {
	p := New(tradesFrame(t))
	require.NoError(t, p.SetReshape(ReshapeSpec{Pivot: &frame.PivotSpec{
		Index:  []string{"sym"},
		Column: "sym",
		Value:  "qty",
		Agg:    "sum",
	}}))
	df, err := p.Recompute()
	require.NoError(t, err)
	require.Equal(t, 3, df.Height())
}

func TestReshapeXOR(t *testing.T) {
	p := New(tradesFrame(t))
	err := p.SetReshape(ReshapeSpec{
		Pivot: &frame.PivotSpec{},
		Melt:  &MeltRequest{},
	})
	require.Error(t, err)
	err = p.SetReshape(ReshapeSpec{})
	require.Error(t, err)
}

func TestColumnOrderStage(t *testing.T) {
	p := New(tradesFrame(t))
	p.SetColumnOrder(ColumnOrderSpec{Order: []string{"price", "sym"}, LockedCount: 1})
	df, err := p.Recompute()
	require.NoError(t, err)
	require.Equal(t, []string{"price", "sym", "qty"}, df.Schema().Names())
}

func TestSnapshotRoundTrip(t *testing.T) {
	p := New(tradesFrame(t))
	require.NoError(t, p.SetQuery("select sym, qty"))
	p.SetFilters([]FilterStatement{{Column: "qty", Operator: ">", Value: "60"}})
	p.SetSort(SortSpec{Keys: []SortKeySpec{{Column: "qty", Descending: true}}})
	snap := p.Capture()

	q := New(tradesFrame(t))
	failed := q.Apply(snap)
	require.Empty(t, failed)
	want, err := p.Recompute()
	require.NoError(t, err)
	got, err := q.Recompute()
	require.NoError(t, err)
	require.Equal(t, want.Rows(), got.Rows())
}

func TestSnapshotApplyRecoverablePerStage(t *testing.T) {
	p := New(tradesFrame(t))
	failed := p.Apply(Snapshot{
		Query:   "select avg[",
		Filters: []FilterStatement{{Column: "qty", Operator: ">", Value: "60"}},
		Sort:    &SortSpec{Keys: []SortKeySpec{{Column: "qty"}}},
	})
	require.Len(t, failed, 1)
	require.Equal(t, StageQuery, failed[0].Stage)

	// The surviving stages still apply.
	df, err := p.Recompute()
	require.NoError(t, err)
	require.Equal(t, 3, df.Height())
	qty, err := df.Column("qty")
	require.NoError(t, err)
	require.Equal(t, int64(75), qty.Values[0])
}

func TestControllerSupersession(t *testing.T) {
	p := New(tradesFrame(t))
	c := NewController(p, nil)

	require.NoError(t, p.SetQuery("select sym"))
	first := c.Request(context.Background())
	require.NoError(t, p.SetQuery("select sym, qty"))
	latest := c.Request(context.Background())
	require.Greater(t, latest, first)

	// The newest generation must arrive; an older one may only show up
	// before it, never after.
	deadline := time.After(5 * time.Second)
	for {
		select {
		case u := <-c.Updates():
			require.NoError(t, u.Err)
			if u.Generation == latest {
				c.Close()
				return
			}
			require.Less(t, u.Generation, latest)
		case <-deadline:
			t.Fatal("latest generation never delivered")
		}
	}
}

func TestControllerDeliversErrors(t *testing.T) {
	p := New(tradesFrame(t))
	c := NewController(p, nil)
	p.SetFilters([]FilterStatement{{Column: "ghost", Operator: "=", Value: "1"}})
	gen := c.Request(context.Background())

	select {
	case u := <-c.Updates():
		require.Equal(t, gen, u.Generation)
		require.Error(t, u.Err)
		var stageErr *StageError
		require.True(t, errors.As(u.Err, &stageErr))
	case <-time.After(5 * time.Second):
		t.Fatal("no update delivered")
	}
	c.Close()
}

// slowTradesFrame is large enough that a grouped median keeps a recompute
// busy while the test changes settings underneath it.
func slowTradesFrame(t *testing.T) *frame.DataFrame {
	t.Helper()
	const n = 400000
	syms := make([]interface{}, n)
	prices := make([]interface{}, n)
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			syms[i] = "AAPL"
		} else {
			syms[i] = "MSFT"
		}
		prices[i] = float64(i % 997)
	}
	df, err := frame.New(
		frame.NewSeries("sym", syms),
		frame.NewSeries("price", prices),
	)
	require.NoError(t, err)
	return df
}

func TestSupersededRecomputeNeverPublishes(t *testing.T) {
	p := New(slowTradesFrame(t))
	c := NewController(p, nil)

	require.NoError(t, p.SetQuery("select m: med price by sym"))
	c.Request(context.Background())
	require.NoError(t, p.SetQuery("select sym"))
	latest := c.Request(context.Background())

	deadline := time.After(30 * time.Second)
	for {
		select {
		case u := <-c.Updates():
			require.NoError(t, u.Err)
			if u.Generation != latest {
				continue
			}
			// Wait out the slower superseded run, then check that the
			// published result still belongs to the newest settings.
			c.Close()
			require.Equal(t, []string{"sym"}, p.Result().Schema().Names())
			require.Equal(t, StateClean, p.State())
			return
		case <-deadline:
			t.Fatal("latest generation never delivered")
		}
	}
}

func TestSetterDuringRecomputeKeepsDirty(t *testing.T) {
	p := New(slowTradesFrame(t))
	require.NoError(t, p.SetQuery("select m: med price by sym"))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = p.Recompute()
	}()

	// Recompute captures its settings and enters Computing atomically, so
	// once Computing is visible the in-flight run cannot include the
	// filter set below.
	deadline := time.Now().Add(30 * time.Second)
	for p.State() != StateComputing {
		if time.Now().After(deadline) {
			t.Fatal("recompute never entered the computing state")
		}
		time.Sleep(100 * time.Microsecond)
	}
	p.SetFilters([]FilterStatement{{Column: "sym", Operator: "=", Value: "AAPL"}})
	<-done

	require.Equal(t, StateDirty, p.State(),
		"a result that omits the new filter must not be published as clean")

	df, err := p.Recompute()
	require.NoError(t, err)
	require.Equal(t, StateClean, p.State())
	require.Equal(t, 1, df.Height())
}

func TestMeltStrategies(t *testing.T) {
	df, err := frame.New(
		frame.NewSeries("id", []interface{}{int64(1), int64(2)}),
		frame.NewSeries("q1_rev", []interface{}{10.0, 20.0}),
		frame.NewSeries("q2_rev", []interface{}{30.0, 40.0}),
		frame.NewSeries("note", []interface{}{"a", "b"}),
		frame.NewSeries("q1_final", []interface{}{true, false}),
		frame.NewSeries("q2_final", []interface{}{false, true}),
	)
	require.NoError(t, err)
	schema := df.Schema()

	all, err := MeltRequest{Index: []string{"id"}, Strategy: MeltStrategy{Kind: MeltAllExceptIndex}}.resolve(schema)
	require.NoError(t, err)
	require.Equal(t, []string{"q1_rev", "q2_rev", "note", "q1_final", "q2_final"}, all.Value)

	pat, err := MeltRequest{Index: []string{"id"}, Strategy: MeltStrategy{Kind: MeltByPattern, Pattern: "q*_rev"}}.resolve(schema)
	require.NoError(t, err)
	require.Equal(t, []string{"q1_rev", "q2_rev"}, pat.Value)

	typ, err := MeltRequest{Index: []string{"id"}, Strategy: MeltStrategy{Kind: MeltByType, Type: "numeric"}}.resolve(schema)
	require.NoError(t, err)
	require.Equal(t, []string{"q1_rev", "q2_rev"}, typ.Value)

	booleans, err := MeltRequest{Index: []string{"id"}, Strategy: MeltStrategy{Kind: MeltByType, Type: "boolean"}}.resolve(schema)
	require.NoError(t, err)
	require.Equal(t, []string{"q1_final", "q2_final"}, booleans.Value)

	exp, err := MeltRequest{Index: []string{"id"}, Strategy: MeltStrategy{Kind: MeltExplicit, Columns: []string{"note"}}}.resolve(schema)
	require.NoError(t, err)
	require.Equal(t, []string{"note"}, exp.Value)

	_, err = MeltRequest{Index: []string{"id"}, Strategy: MeltStrategy{Kind: MeltByPattern, Pattern: "zz*"}}.resolve(schema)
	var reshape *frame.ReshapeError
	require.ErrorAs(t, err, &reshape)

	_, err = MeltRequest{Index: []string{"ghost"}}.resolve(schema)
	require.ErrorAs(t, err, &reshape)
}

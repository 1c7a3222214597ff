package frame

import (
	"errors"
	"testing"
)

func salesFrame(t *testing.T) *DataFrame {
	t.Helper()
	df, err := New(
		NewSeries("region", []interface{}{"east", "west", "east", "west"}),
		NewSeries("units", []interface{}{int64(5), int64(3), nil, int64(7)}),
		NewSeries("price", []interface{}{10.0, 20.0, 30.0, 40.0}),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return df
}

func TestLazyIsImmutable(t *testing.T) {
	df := salesFrame(t)
	base := df.Lazy()
	_ = base.Filter(BinOp(">", Col("price"), Lit(15.0)))
	out, err := base.Collect()
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if out.Height() != 4 {
		t.Errorf("base frame mutated: height %d, want 4", out.Height())
	}
}

func TestProjectBroadcastsScalars(t *testing.T) {
	df := salesFrame(t)
	out, err := df.Lazy().Project(
		Alias(Col("region"), "region"),
		Alias(Lit(int64(1)), "one"),
	).Collect()
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	ones, _ := out.Column("one")
	if ones.Len() != 4 || ones.Values[3] != int64(1) {
		t.Errorf("one = %v, want broadcast to 4 rows", ones.Values)
	}
}

func TestProjectAggConflict(t *testing.T) {
	df := salesFrame(t)
	_, err := df.Lazy().Project(
		Alias(Col("region"), "region"),
		Alias(Agg("sum", Col("price")), "total"),
	).Collect()
	var conflict *AggregationConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("got %v, want AggregationConflictError", err)
	}
}

func TestProjectAllAggregations(t *testing.T) {
	df := salesFrame(t)
	out, err := df.Lazy().Project(
		Alias(Agg("sum", Col("price")), "total"),
		Alias(Agg("count", Col("units")), "n"),
	).Collect()
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if out.Height() != 1 {
		t.Fatalf("height = %d, want 1", out.Height())
	}
	totals, _ := out.Column("total")
	if totals.Values[0] != 100.0 {
		t.Errorf("total = %v, want 100", totals.Values[0])
	}
	ns, _ := out.Column("n")
	if ns.Values[0] != int64(3) {
		t.Errorf("n = %v, want 3 (null excluded)", ns.Values[0])
	}
}

func TestSortNullsFirstAscending(t *testing.T) {
	df := salesFrame(t)
	out, err := df.Lazy().Sort(SortKey{Column: "units"}).Collect()
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	units, _ := out.Column("units")
	if units.Values[0] != nil {
		t.Errorf("units[0] = %v, want null first", units.Values[0])
	}
	if units.Values[1] != int64(3) || units.Values[3] != int64(7) {
		t.Errorf("units = %v, want ascending after null", units.Values)
	}
}

func TestSortDescending(t *testing.T) {
	df := salesFrame(t)
	out, err := df.Lazy().Sort(SortKey{Column: "price", Desc: true}).Collect()
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	prices, _ := out.Column("price")
	if prices.Values[0] != 40.0 || prices.Values[3] != 10.0 {
		t.Errorf("prices = %v, want descending", prices.Values)
	}
}

func TestSortStableMultiKey(t *testing.T) {
	df := salesFrame(t)
	out, err := df.Lazy().Sort(
		SortKey{Column: "region"},
		SortKey{Column: "price", Desc: true},
	).Collect()
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	regions, _ := out.Column("region")
	prices, _ := out.Column("price")
	if regions.Values[0] != "east" || prices.Values[0] != 30.0 {
		t.Errorf("row 0 = (%v, %v), want (east, 30)", regions.Values[0], prices.Values[0])
	}
	if regions.Values[2] != "west" || prices.Values[2] != 40.0 {
		t.Errorf("row 2 = (%v, %v), want (west, 40)", regions.Values[2], prices.Values[2])
	}
}

func TestSortUnknownColumn(t *testing.T) {
	df := salesFrame(t)
	_, err := df.Lazy().Sort(SortKey{Column: "ghost"}).Collect()
	var notFound *ColumnNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("got %v, want ColumnNotFoundError", err)
	}
}

func TestSlice(t *testing.T) {
	df := salesFrame(t)
	tests := []struct {
		offset, length int
		wantHeight     int
	}{
		{0, 2, 2},
		{1, 10, 3}, // clamped to frame end
		{2, -1, 2}, // negative length means to the end
		{9, 5, 0},  // offset past the end
	}
	for _, tt := range tests {
		out, err := df.Lazy().Slice(tt.offset, tt.length).Collect()
		if err != nil {
			t.Errorf("Slice(%d, %d): %v", tt.offset, tt.length, err)
			continue
		}
		if out.Height() != tt.wantHeight {
			t.Errorf("Slice(%d, %d) height = %d, want %d", tt.offset, tt.length, out.Height(), tt.wantHeight)
		}
	}
}

func TestReorder(t *testing.T) {
	df := salesFrame(t)
	out, err := df.Lazy().Reorder([]string{"price"}).Collect()
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	names := out.Schema().Names()
	want := []string{"price", "region", "units"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("column %d = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestReorderUnknownColumn(t *testing.T) {
	df := salesFrame(t)
	_, err := df.Lazy().Reorder([]string{"ghost"}).Collect()
	var notFound *ColumnNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("got %v, want ColumnNotFoundError", err)
	}
}

func TestGroupByOrderAndAggregates(t *testing.T) {
	df := salesFrame(t)
	out, err := df.Lazy().GroupBy(
		[]Expr{Alias(Col("region"), "region")},
		[]Expr{
			Alias(Agg("sum", Col("price")), "total"),
			Alias(Col("price"), "prices"),
		},
	).Collect()
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	regions, _ := out.Column("region")
	if regions.Values[0] != "east" || regions.Values[1] != "west" {
		t.Fatalf("regions = %v, want first-appearance order", regions.Values)
	}
	totals, _ := out.Column("total")
	if totals.Values[0] != 40.0 || totals.Values[1] != 60.0 {
		t.Errorf("totals = %v, want [40 60]", totals.Values)
	}
	prices, _ := out.Column("prices")
	if prices.Type != TypeList {
		t.Fatalf("prices type = %v, want list", prices.Type)
	}
	east := prices.Values[0].([]interface{})
	if len(east) != 2 || east[0] != 10.0 || east[1] != 30.0 {
		t.Errorf("east prices = %v, want [10 30]", east)
	}
}

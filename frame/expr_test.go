package frame

import (
	"testing"
)

func numFrame(t *testing.T) *DataFrame {
	t.Helper()
	df, err := New(
		NewSeries("a", []interface{}{int64(1), int64(2), int64(3)}),
		NewSeries("b", []interface{}{int64(10), int64(20), int64(30)}),
		NewSeries("f", []interface{}{1.5, 2.5, 3.5}),
		NewSeries("s", []interface{}{"x", "y", "z"}),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return df
}

func evalOn(t *testing.T, df *DataFrame, e Expr) Series {
	t.Helper()
	s, err := e.eval(df)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	return s
}

func TestArithmeticIntPreservation(t *testing.T) {
	df := numFrame(t)
	s := evalOn(t, df, BinOp("+", Col("a"), Col("b")))
	if s.Values[0] != int64(11) {
		t.Errorf("a+b[0] = %v (%T), want int64 11", s.Values[0], s.Values[0])
	}
	s = evalOn(t, df, BinOp("*", Col("a"), Col("f")))
	if s.Values[1] != 5.0 {
		t.Errorf("a*f[1] = %v, want 5.0", s.Values[1])
	}
}

func TestPercentIsDivision(t *testing.T) {
	df := numFrame(t)
	s := evalOn(t, df, BinOp("%", Col("b"), Col("a")))
	want := []interface{}{10.0, 10.0, 10.0}
	for i := range want {
		if s.Values[i] != want[i] {
			t.Errorf("b%%a[%d] = %v, want %v", i, s.Values[i], want[i])
		}
	}
}

func TestDivisionByZeroIsNull(t *testing.T) {
	df, _ := New(NewSeries("x", []interface{}{int64(1)}))
	s := evalOn(t, df, BinOp("%", Col("x"), Lit(int64(0))))
	if s.Values[0] != nil {
		t.Errorf("x/0 = %v, want null", s.Values[0])
	}
}

func TestStringConcat(t *testing.T) {
	df := numFrame(t)
	s := evalOn(t, df, BinOp("+", Col("s"), Lit("!")))
	if s.Values[0] != "x!" {
		t.Errorf("s+\"!\" = %v, want x!", s.Values[0])
	}
}

func TestArithmeticNullPropagation(t *testing.T) {
	df, _ := New(NewSeries("x", []interface{}{int64(1), nil}))
	s := evalOn(t, df, BinOp("+", Col("x"), Lit(int64(1))))
	if s.Values[0] != int64(2) || s.Values[1] != nil {
		t.Errorf("x+1 = %v, want [2 null]", s.Values)
	}
}

func TestLiteralBroadcast(t *testing.T) {
	df := numFrame(t)
	s := evalOn(t, df, BinOp("*", Col("a"), Lit(int64(2))))
	if s.Len() != 3 || s.Values[2] != int64(6) {
		t.Errorf("a*2 = %v, want length 3 ending in 6", s.Values)
	}
}

func TestScalarFunctions(t *testing.T) {
	df, err := New(
		NewSeries("name", []interface{}{"Ann", nil, "bob"}),
		NewSeries("x", []interface{}{-2.5, 1.2, nil}),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	s := evalOn(t, df, Fn("upper", Col("name")))
	if s.Values[0] != "ANN" || s.Values[1] != nil {
		t.Errorf("upper = %v", s.Values)
	}
	s = evalOn(t, df, Fn("len", Col("name")))
	if s.Values[0] != int64(3) {
		t.Errorf("len = %v", s.Values)
	}
	s = evalOn(t, df, Fn("null", Col("name")))
	if s.Values[0] != false || s.Values[1] != true {
		t.Errorf("null = %v", s.Values)
	}
	s = evalOn(t, df, Fn("abs", Col("x")))
	if s.Values[0] != 2.5 || s.Values[2] != nil {
		t.Errorf("abs = %v", s.Values)
	}
	s = evalOn(t, df, Fn("floor", Col("x")))
	if s.Values[1] != 1.0 {
		t.Errorf("floor = %v", s.Values)
	}
	s = evalOn(t, df, Fn("ceil", Col("x")))
	if s.Values[1] != 2.0 {
		t.Errorf("ceil = %v", s.Values)
	}
}

func TestPatternFunctions(t *testing.T) {
	df, _ := New(NewSeries("name", []interface{}{"Dr Jones", "Mr Smith"}))
	s := evalOn(t, df, FnPattern("starts_with", Col("name"), "Dr"))
	if s.Values[0] != true || s.Values[1] != false {
		t.Errorf("starts_with = %v", s.Values)
	}
	s = evalOn(t, df, FnPattern("contains", Col("name"), "Smi"))
	if s.Values[0] != false || s.Values[1] != true {
		t.Errorf("contains = %v", s.Values)
	}
	s = evalOn(t, df, FnPattern("ends_with", Col("name"), "th"))
	if s.Values[1] != true {
		t.Errorf("ends_with = %v", s.Values)
	}
}

func TestNotRequiresBool(t *testing.T) {
	df := numFrame(t)
	if _, err := Fn("not", Col("a")).eval(df); err == nil {
		t.Error("not over ints should fail with a type mismatch")
	}
}

func TestAggExprReduces(t *testing.T) {
	df := numFrame(t)
	s := evalOn(t, df, Agg("sum", Col("a")))
	if s.Len() != 1 || s.Values[0] != int64(6) {
		t.Errorf("sum a = %v, want single cell 6", s.Values)
	}
	if !Agg("sum", Col("a")).HasAgg() {
		t.Error("HasAgg should be true for aggregations")
	}
}

func TestAggOverExpression(t *testing.T) {
	df := numFrame(t)
	s := evalOn(t, df, Agg("avg", BinOp("+", Col("a"), Col("b"))))
	if s.Values[0] != 22.0 {
		t.Errorf("avg(a+b) = %v, want 22", s.Values[0])
	}
}

func TestColumnRefsWalk(t *testing.T) {
	e := BinOp("+", Col("a"), Coalesce(Col("b"), Fn("abs", Col("c"))))
	refs := ColumnRefs(e)
	if len(refs) != 3 {
		t.Errorf("refs = %v, want 3 columns", refs)
	}
}

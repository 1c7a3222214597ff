package frame

import (
	"testing"
	"time"
)

func TestCompareNumbers(t *testing.T) {
	tests := []struct {
		left  interface{}
		op    string
		right interface{}
		want  bool
	}{
		{int64(3), "=", int64(3), true},
		{int64(3), "=", 3.0, true},
		{3.001, "=", 3.0, false},
		{3.0000000001, "=", 3.0, true}, // within epsilon
		{int64(3), "!=", int64(4), true},
		{int64(3), "<", int64(4), true},
		{int64(4), "<=", int64(4), true},
		{5.5, ">", 5.0, true},
		{5.0, ">=", 5.5, false},
		{int64(1), "<>", int64(2), true},
	}
	for _, tt := range tests {
		got, err := Compare(tt.left, tt.op, tt.right)
		if err != nil {
			t.Errorf("Compare(%v %s %v): %v", tt.left, tt.op, tt.right, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Compare(%v %s %v) = %v, want %v", tt.left, tt.op, tt.right, got, tt.want)
		}
	}
}

func TestCompareStringsAndTimes(t *testing.T) {
	if ok, _ := Compare("apple", "<", "banana"); !ok {
		t.Error("apple < banana should hold")
	}
	a := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	b := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	if ok, _ := Compare(a, "<", b); !ok {
		t.Error("earlier time should compare less")
	}
	if ok, _ := Compare(a, "=", a); !ok {
		t.Error("equal times should compare equal")
	}
}

func TestCompareNulls(t *testing.T) {
	if ok, _ := Compare(nil, "=", nil); !ok {
		t.Error("null = null should hold")
	}
	if ok, _ := Compare(nil, "=", int64(1)); ok {
		t.Error("null = 1 should not hold")
	}
	if ok, _ := Compare(nil, "!=", int64(1)); !ok {
		t.Error("null != 1 should hold")
	}
	// Ordered comparison against null is false, not an error.
	if ok, err := Compare(nil, "<", int64(1)); err != nil || ok {
		t.Errorf("null < 1 = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestOrderValues(t *testing.T) {
	tests := []struct {
		a, b interface{}
		want int
	}{
		{nil, nil, 0},
		{nil, int64(1), -1}, // nulls order first
		{int64(1), nil, 1},
		{int64(1), int64(2), -1},
		{2.5, 2.5, 0},
		{"a", "b", -1},
		{int64(2), 2.0, 0},
	}
	for _, tt := range tests {
		if got := OrderValues(tt.a, tt.b); got != tt.want {
			t.Errorf("OrderValues(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

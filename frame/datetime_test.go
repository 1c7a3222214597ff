package frame

import (
	"testing"
	"time"
)

func tsFrame(t *testing.T) *DataFrame {
	t.Helper()
	df, err := New(NewSeries("ts", []interface{}{
		time.Date(2021, 3, 15, 9, 30, 45, 0, time.UTC),
		time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC),
		nil,
	}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return df
}

func TestDateAccessors(t *testing.T) {
	df := tsFrame(t)
	tests := []struct {
		name  string
		want0 interface{}
		want1 interface{}
	}{
		{"year", int64(2021), int64(2024)},
		{"month", int64(3), int64(12)},
		{"day", int64(15), int64(31)},
		{"time", "09:30:45", "23:59:59"},
		{"week", int64(11), int64(1)}, // 2024-12-31 is ISO week 1 of 2025
	}
	for _, tt := range tests {
		s := evalOn(t, df, Accessor(Col("ts"), tt.name, ""))
		if s.Values[0] != tt.want0 || s.Values[1] != tt.want1 {
			t.Errorf("%s = %v, want [%v %v _]", tt.name, s.Values, tt.want0, tt.want1)
		}
		if s.Values[2] != nil {
			t.Errorf("%s of null = %v, want null", tt.name, s.Values[2])
		}
	}
}

func TestDowMondayBased(t *testing.T) {
	df, _ := New(NewSeries("d", []interface{}{
		time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC), // Monday
		time.Date(2021, 3, 21, 0, 0, 0, 0, time.UTC), // Sunday
	}))
	s := evalOn(t, df, Accessor(Col("d"), "dow", ""))
	if s.Values[0] != int64(1) || s.Values[1] != int64(7) {
		t.Errorf("dow = %v, want [1 7]", s.Values)
	}
}

func TestDateTruncation(t *testing.T) {
	df := tsFrame(t)
	s := evalOn(t, df, Accessor(Col("ts"), "date", ""))
	if s.Type != TypeDate {
		t.Errorf("type = %v, want date", s.Type)
	}
	got := s.Values[0].(time.Time)
	if got.Hour() != 0 || got.Day() != 15 {
		t.Errorf("date = %v, want midnight truncation", got)
	}
}

func TestMonthBounds(t *testing.T) {
	df := tsFrame(t)
	start := evalOn(t, df, Accessor(Col("ts"), "month_start", ""))
	if start.Values[0].(time.Time).Day() != 1 {
		t.Errorf("month_start = %v, want day 1", start.Values[0])
	}
	end := evalOn(t, df, Accessor(Col("ts"), "month_end", ""))
	if end.Values[0].(time.Time).Day() != 31 {
		t.Errorf("month_end = %v, want March 31", end.Values[0])
	}
	// February in a leap year.
	feb, _ := New(NewSeries("d", []interface{}{time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)}))
	end = evalOn(t, feb, Accessor(Col("d"), "month_end", ""))
	if end.Values[0].(time.Time).Day() != 29 {
		t.Errorf("leap-year feb month_end = %v, want day 29", end.Values[0])
	}
}

func TestFormatAccessor(t *testing.T) {
	df := tsFrame(t)
	s := evalOn(t, df, Accessor(Col("ts"), "format", "%Y-%m"))
	if s.Values[0] != "2021-03" {
		t.Errorf("format = %v, want 2021-03", s.Values[0])
	}
	s = evalOn(t, df, Accessor(Col("ts"), "format", "%d/%m/%Y %H:%M"))
	if s.Values[0] != "15/03/2021 09:30" {
		t.Errorf("format = %v, want 15/03/2021 09:30", s.Values[0])
	}
}

func TestStrftimeDirectives(t *testing.T) {
	ts := time.Date(2021, 3, 15, 9, 5, 7, 0, time.UTC)
	tests := []struct {
		pattern string
		want    string
	}{
		{"%Y", "2021"},
		{"%y", "21"},
		{"%B", "March"},
		{"%b", "Mar"},
		{"%A", "Monday"},
		{"%a", "Mon"},
		{"%j", "074"},
		{"%H:%M:%S", "09:05:07"},
		{"100%%", "100%"},
		{"plain text", "plain text"},
	}
	for _, tt := range tests {
		if got := strftime(ts, tt.pattern); got != tt.want {
			t.Errorf("strftime(%q) = %q, want %q", tt.pattern, got, tt.want)
		}
	}
}

func TestStringAccessorOnStrings(t *testing.T) {
	df, _ := New(NewSeries("name", []interface{}{"Ann", "Bob"}))
	s := evalOn(t, df, Accessor(Col("name"), "lower", ""))
	if s.Values[0] != "ann" {
		t.Errorf("lower = %v", s.Values)
	}
	s = evalOn(t, df, Accessor(Col("name"), "starts_with", "A"))
	if s.Values[0] != true || s.Values[1] != false {
		t.Errorf("starts_with = %v", s.Values)
	}
}

func TestDateAccessorOnNonTemporal(t *testing.T) {
	df, _ := New(NewSeries("n", []interface{}{int64(1)}))
	if _, err := Accessor(Col("n"), "year", "").eval(df); err == nil {
		t.Error("year on ints should fail with a type mismatch")
	}
}

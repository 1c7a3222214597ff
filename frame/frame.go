// Package frame implements the lazy columnar backend the query engine and
// transformation pipeline compile against.
//
// A DataFrame is an ordered collection of typed Series. A LazyFrame composes
// operations (project, filter, group+aggregate, sort, pivot, melt, slice)
// over a base DataFrame without materializing rows until Collect is called.
package frame

import (
	"fmt"
	"time"
)

// DType identifies the declared type of a Series.
type DType int

const (
	TypeNull DType = iota
	TypeBool
	TypeInt
	TypeFloat
	TypeString
	TypeDate
	TypeDatetime
	TypeList
)

// String returns the display name of the type.
func (t DType) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeString:
		return "string"
	case TypeDate:
		return "date"
	case TypeDatetime:
		return "datetime"
	case TypeList:
		return "list"
	default:
		return fmt.Sprintf("dtype(%d)", int(t))
	}
}

// IsNumeric reports whether the type supports arithmetic.
func (t DType) IsNumeric() bool {
	return t == TypeInt || t == TypeFloat
}

// IsTemporal reports whether the type carries a time.Time value.
func (t DType) IsTemporal() bool {
	return t == TypeDate || t == TypeDatetime
}

// TimeUnit is the sub-second precision of a datetime column or literal.
type TimeUnit int

const (
	UnitMilliseconds TimeUnit = iota
	UnitMicroseconds
	UnitNanoseconds
)

// String returns the display name of the unit.
func (u TimeUnit) String() string {
	switch u {
	case UnitMilliseconds:
		return "ms"
	case UnitMicroseconds:
		return "us"
	case UnitNanoseconds:
		return "ns"
	default:
		return fmt.Sprintf("unit(%d)", int(u))
	}
}

// Field is one named, typed column in a schema.
type Field struct {
	Name string
	Type DType
}

// Schema is the ordered column layout of a frame.
type Schema []Field

// Lookup returns the field with the given name.
func (s Schema) Lookup(name string) (Field, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Names returns the column names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// Series is a single named column. Cells are held as interface{} values with
// nil meaning null: int64 for ints, float64 for floats, string, bool,
// time.Time for dates/datetimes, and []interface{} for list cells.
type Series struct {
	Name   string
	Type   DType
	Unit   TimeUnit // sub-second precision when Type is TypeDatetime
	Elem   DType    // element type when Type is TypeList
	Values []interface{}
}

// Len returns the number of cells.
func (s Series) Len() int { return len(s.Values) }

// Field returns the schema field for this series.
func (s Series) Field() Field { return Field{Name: s.Name, Type: s.Type} }

// Rename returns a copy of the series with a new name.
func (s Series) Rename(name string) Series {
	s.Name = name
	return s
}

// take returns a copy of the series restricted to the given row indices.
func (s Series) take(idx []int) Series {
	values := make([]interface{}, len(idx))
	for i, j := range idx {
		values[i] = s.Values[j]
	}
	return Series{Name: s.Name, Type: s.Type, Unit: s.Unit, Elem: s.Elem, Values: values}
}

// InferDType determines the series type from its values. Mixed int/float
// widens to float; any other mix degrades to string.
func InferDType(values []interface{}) DType {
	t := TypeNull
	for _, v := range values {
		if v == nil {
			continue
		}
		vt := valueDType(v)
		switch {
		case t == TypeNull:
			t = vt
		case t == vt:
		case t.IsNumeric() && vt.IsNumeric():
			t = TypeFloat
		default:
			return TypeString
		}
	}
	return t
}

func valueDType(v interface{}) DType {
	switch v.(type) {
	case bool:
		return TypeBool
	case int64:
		return TypeInt
	case float64:
		return TypeFloat
	case string:
		return TypeString
	case time.Time:
		return TypeDatetime
	case []interface{}:
		return TypeList
	default:
		return TypeString
	}
}

// NewSeries builds a series, inferring the type from the values.
func NewSeries(name string, values []interface{}) Series {
	return Series{Name: name, Type: InferDType(values), Values: values}
}

// DataFrame is an ordered set of equal-length Series.
type DataFrame struct {
	cols []Series
}

// New creates a DataFrame from columns. All columns must share one length
// and names must be unique.
func New(cols ...Series) (*DataFrame, error) {
	seen := make(map[string]bool, len(cols))
	height := -1
	for _, c := range cols {
		if seen[c.Name] {
			return nil, fmt.Errorf("duplicate column name %q", c.Name)
		}
		seen[c.Name] = true
		if height == -1 {
			height = c.Len()
		} else if c.Len() != height {
			return nil, fmt.Errorf("column %q has length %d, want %d", c.Name, c.Len(), height)
		}
	}
	return &DataFrame{cols: cols}, nil
}

// Height returns the number of rows.
func (df *DataFrame) Height() int {
	if len(df.cols) == 0 {
		return 0
	}
	return df.cols[0].Len()
}

// Width returns the number of columns.
func (df *DataFrame) Width() int { return len(df.cols) }

// Schema returns the ordered schema of the frame.
func (df *DataFrame) Schema() Schema {
	s := make(Schema, len(df.cols))
	for i, c := range df.cols {
		s[i] = c.Field()
	}
	return s
}

// Columns returns the underlying series in order.
func (df *DataFrame) Columns() []Series { return df.cols }

// Column returns the series with the given name.
func (df *DataFrame) Column(name string) (Series, error) {
	for _, c := range df.cols {
		if c.Name == name {
			return c, nil
		}
	}
	return Series{}, &ColumnNotFoundError{Name: name}
}

// HasColumn reports whether a column exists.
func (df *DataFrame) HasColumn(name string) bool {
	_, err := df.Column(name)
	return err == nil
}

// Row returns one row as a column-name keyed map.
func (df *DataFrame) Row(i int) map[string]interface{} {
	row := make(map[string]interface{}, len(df.cols))
	for _, c := range df.cols {
		row[c.Name] = c.Values[i]
	}
	return row
}

// Rows materializes every row as a map. Intended for output formatting and
// tests, not for bulk processing.
func (df *DataFrame) Rows() []map[string]interface{} {
	rows := make([]map[string]interface{}, df.Height())
	for i := range rows {
		rows[i] = df.Row(i)
	}
	return rows
}

// Take returns a new frame restricted to the given row indices.
func (df *DataFrame) Take(idx []int) *DataFrame {
	cols := make([]Series, len(df.cols))
	for i, c := range df.cols {
		cols[i] = c.take(idx)
	}
	return &DataFrame{cols: cols}
}

// Lazy wraps the frame in a LazyFrame with no pending operations.
func (df *DataFrame) Lazy() *LazyFrame {
	return &LazyFrame{src: df}
}

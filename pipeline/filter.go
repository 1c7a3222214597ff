package pipeline

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/derekwisong/datui/frame"
)

// FilterOperators enumerates the operators the structured filter UI
// offers.
var FilterOperators = []string{"=", "!=", ">", "<", ">=", "<=", "contains", "!contains"}

// FilterStatement is one structured filter row: column, operator, and a
// raw value typed by the user. A list of statements is always combined
// with AND; this is independent of a query's own where clause.
type FilterStatement struct {
	Column   string `json:"column"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

func (f FilterStatement) String() string {
	return fmt.Sprintf("%s %s %s", f.Column, f.Operator, f.Value)
}

// predicate compiles the statement against the schema of the frame it
// will filter. The raw value is parsed according to the column's type.
func (f FilterStatement) predicate(schema frame.Schema) (frame.Expr, error) {
	field, ok := schema.Lookup(f.Column)
	if !ok {
		return nil, &frame.ColumnNotFoundError{Name: f.Column}
	}

	switch f.Operator {
	case "contains", "!contains":
		if field.Type != frame.TypeString {
			return nil, &frame.TypeMismatchError{Column: f.Column, Expected: "string", Actual: field.Type}
		}
		pred := frame.FnPattern("contains", frame.Col(f.Column), f.Value)
		if f.Operator == "!contains" {
			pred = frame.Fn("not", pred)
		}
		return pred, nil
	case "=", "!=", ">", "<", ">=", "<=":
		value, err := parseFilterValue(field, f.Value)
		if err != nil {
			return nil, err
		}
		return frame.BinOp(f.Operator, frame.Col(f.Column), frame.Lit(value)), nil
	default:
		return nil, fmt.Errorf("unknown filter operator %q", f.Operator)
	}
}

// parseFilterValue converts the raw text value to the column's type. The
// literal "null" compares against null cells.
func parseFilterValue(field frame.Field, raw string) (interface{}, error) {
	text := strings.TrimSpace(raw)
	if text == "null" {
		return nil, nil
	}
	switch field.Type {
	case frame.TypeInt:
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return n, nil
		}
		// Allow float text against int columns; comparison is numeric.
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return f, nil
		}
		return nil, fmt.Errorf("cannot parse %q as a number for column %q", raw, field.Name)
	case frame.TypeFloat:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot parse %q as a number for column %q", raw, field.Name)
		}
		return f, nil
	case frame.TypeBool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return nil, fmt.Errorf("cannot parse %q as a bool for column %q", raw, field.Name)
		}
		return b, nil
	case frame.TypeDate, frame.TypeDatetime:
		t, err := parseTimeValue(text)
		if err != nil {
			return nil, fmt.Errorf("cannot parse %q as a date for column %q", raw, field.Name)
		}
		return t, nil
	default:
		return raw, nil
	}
}

var timeLayouts = []string{
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006.01.02",
}

func parseTimeValue(text string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", text)
}

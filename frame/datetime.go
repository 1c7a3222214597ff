package frame

import (
	"fmt"
	"strings"
	"time"
)

// dateAccessors are the accessors valid on date/datetime columns.
var dateAccessors = map[string]bool{
	"date": true, "time": true, "year": true, "month": true, "week": true,
	"day": true, "dow": true, "weekday": true, "month_start": true,
	"month_end": true, "format": true,
}

// stringAccessors are the accessors valid on string columns.
var stringAccessors = map[string]bool{
	"len": true, "length": true, "upper": true, "lower": true,
	"starts_with": true, "ends_with": true, "contains": true,
}

// IsDateAccessor reports whether name is a date/datetime accessor.
func IsDateAccessor(name string) bool { return dateAccessors[strings.ToLower(name)] }

// IsStringAccessor reports whether name is a string accessor.
func IsStringAccessor(name string) bool { return stringAccessors[strings.ToLower(name)] }

// IsAccessor reports whether name is any known accessor.
func IsAccessor(name string) bool { return IsDateAccessor(name) || IsStringAccessor(name) }

// AccessorRequiresArg reports whether the accessor takes a bracket argument.
func AccessorRequiresArg(name string) bool {
	switch strings.ToLower(name) {
	case "format", "starts_with", "ends_with", "contains":
		return true
	default:
		return false
	}
}

type accessorExpr struct {
	base Expr
	name string
	arg  string
}

// Accessor applies a date/time or string component accessor to an
// expression. arg carries the bracket argument for format, starts_with,
// ends_with and contains; it is empty otherwise.
func Accessor(base Expr, name, arg string) Expr {
	return &accessorExpr{base: base, name: strings.ToLower(name), arg: arg}
}

func (e *accessorExpr) Name() string                    { return e.base.Name() }
func (e *accessorExpr) HasAgg() bool                    { return e.base.HasAgg() }
func (e *accessorExpr) walkColumns(set map[string]bool) { e.base.walkColumns(set) }

func (e *accessorExpr) eval(df *DataFrame) (Series, error) {
	base, err := e.base.eval(df)
	if err != nil {
		return Series{}, err
	}
	values := make([]interface{}, base.Len())
	for i, v := range base.Values {
		out, err := e.apply(v, base.Name)
		if err != nil {
			return Series{}, err
		}
		values[i] = out
	}
	s := Series{Name: e.Name(), Type: InferDType(values), Values: values}
	if e.name == "date" || e.name == "month_start" || e.name == "month_end" {
		s.Type = TypeDate
	}
	return s, nil
}

func (e *accessorExpr) apply(v interface{}, column string) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	if t, ok := toTime(v); ok && IsDateAccessor(e.name) {
		return applyDateAccessor(e.name, e.arg, t)
	}
	if IsStringAccessor(e.name) {
		return applyScalarFn(normalizeStringAccessor(e.name), v, e.arg, column)
	}
	if IsDateAccessor(e.name) {
		return nil, &TypeMismatchError{Column: column, Expected: "date or datetime", Actual: valueDType(v)}
	}
	return nil, fmt.Errorf("unknown accessor %q", e.name)
}

func normalizeStringAccessor(name string) string {
	if name == "length" {
		return "len"
	}
	return name
}

func applyDateAccessor(name, arg string, t time.Time) (interface{}, error) {
	switch name {
	case "date":
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()), nil
	case "time":
		return t.Format("15:04:05"), nil
	case "year":
		return int64(t.Year()), nil
	case "month":
		return int64(t.Month()), nil
	case "week":
		_, week := t.ISOWeek()
		return int64(week), nil
	case "day":
		return int64(t.Day()), nil
	case "dow", "weekday":
		// Monday = 1 .. Sunday = 7.
		wd := int64(t.Weekday())
		if wd == 0 {
			wd = 7
		}
		return wd, nil
	case "month_start":
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()), nil
	case "month_end":
		first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
		return first.AddDate(0, 1, -1), nil
	case "format":
		if arg == "" {
			return nil, fmt.Errorf("format accessor requires an argument, e.g. .format[\"%%Y-%%m\"]")
		}
		return strftime(t, arg), nil
	default:
		return nil, fmt.Errorf("unknown date/time accessor %q", name)
	}
}

// strftime formats t using a strftime-style pattern, matching the format
// directives the original accessor surface accepts.
func strftime(t time.Time, pattern string) string {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		if pattern[i] != '%' || i+1 >= len(pattern) {
			b.WriteByte(pattern[i])
			continue
		}
		i++
		switch pattern[i] {
		case 'Y':
			fmt.Fprintf(&b, "%04d", t.Year())
		case 'y':
			fmt.Fprintf(&b, "%02d", t.Year()%100)
		case 'm':
			fmt.Fprintf(&b, "%02d", int(t.Month()))
		case 'd':
			fmt.Fprintf(&b, "%02d", t.Day())
		case 'H':
			fmt.Fprintf(&b, "%02d", t.Hour())
		case 'M':
			fmt.Fprintf(&b, "%02d", t.Minute())
		case 'S':
			fmt.Fprintf(&b, "%02d", t.Second())
		case 'j':
			fmt.Fprintf(&b, "%03d", t.YearDay())
		case 'B':
			b.WriteString(t.Month().String())
		case 'b':
			b.WriteString(t.Format("Jan"))
		case 'A':
			b.WriteString(t.Weekday().String())
		case 'a':
			b.WriteString(t.Format("Mon"))
		case '%':
			b.WriteByte('%')
		default:
			b.WriteByte('%')
			b.WriteByte(pattern[i])
		}
	}
	return b.String()
}

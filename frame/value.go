package frame

import (
	"fmt"
	"math"
	"time"
)

// toFloat64 converts a numeric cell to float64 if possible.
func toFloat64(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	default:
		return 0, false
	}
}

func toString(v interface{}) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func toBool(v interface{}) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func toTime(v interface{}) (time.Time, bool) {
	t, ok := v.(time.Time)
	return t, ok
}

// numbersEqual compares floats with an epsilon scaled to magnitude.
func numbersEqual(a, b float64) bool {
	const epsilon = 1e-9
	diff := math.Abs(a - b)
	threshold := epsilon * math.Max(1.0, math.Max(math.Abs(a), math.Abs(b)))
	return diff < threshold
}

// Compare compares two cells using a comparison operator
// (= != <> < > <= >=). Null cells compare equal only to null under = and
// unequal under !=; every ordering comparison against null is false.
func Compare(left interface{}, op string, right interface{}) (bool, error) {
	if left == nil || right == nil {
		switch op {
		case "=":
			return left == nil && right == nil, nil
		case "!=", "<>":
			return (left == nil) != (right == nil), nil
		}
		return false, nil
	}

	if ln, ok := toFloat64(left); ok {
		if rn, ok := toFloat64(right); ok {
			return compareNumbers(ln, op, rn), nil
		}
	}
	if ls, ok := toString(left); ok {
		if rs, ok := toString(right); ok {
			return compareOrdered(ls, op, rs), nil
		}
	}
	if lt, ok := toTime(left); ok {
		if rt, ok := toTime(right); ok {
			return compareTimes(lt, op, rt), nil
		}
	}
	if lb, ok := toBool(left); ok {
		if rb, ok := toBool(right); ok {
			switch op {
			case "=":
				return lb == rb, nil
			case "!=", "<>":
				return lb != rb, nil
			}
			return false, fmt.Errorf("operator %q not supported for booleans", op)
		}
	}
	return false, fmt.Errorf("cannot compare %T with %T", left, right)
}

func compareNumbers(left float64, op string, right float64) bool {
	switch op {
	case "=":
		return numbersEqual(left, right)
	case "!=", "<>":
		return !numbersEqual(left, right)
	case "<":
		return left < right
	case ">":
		return left > right
	case "<=":
		return left <= right
	case ">=":
		return left >= right
	default:
		return false
	}
}

func compareOrdered(left, op, right string) bool {
	switch op {
	case "=":
		return left == right
	case "!=", "<>":
		return left != right
	case "<":
		return left < right
	case ">":
		return left > right
	case "<=":
		return left <= right
	case ">=":
		return left >= right
	default:
		return false
	}
}

func compareTimes(left time.Time, op string, right time.Time) bool {
	switch op {
	case "=":
		return left.Equal(right)
	case "!=", "<>":
		return !left.Equal(right)
	case "<":
		return left.Before(right)
	case ">":
		return left.After(right)
	case "<=":
		return !left.After(right)
	case ">=":
		return !left.Before(right)
	default:
		return false
	}
}

// OrderValues orders two cells for sorting: -1 if a < b, 0 if equal,
// +1 if a > b. Nulls order first.
func OrderValues(a, b interface{}) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}

	if an, ok := toFloat64(a); ok {
		if bn, ok := toFloat64(b); ok {
			switch {
			case an < bn:
				return -1
			case an > bn:
				return 1
			default:
				return 0
			}
		}
	}
	if as, ok := toString(a); ok {
		if bs, ok := toString(b); ok {
			switch {
			case as < bs:
				return -1
			case as > bs:
				return 1
			default:
				return 0
			}
		}
	}
	if at, ok := toTime(a); ok {
		if bt, ok := toTime(b); ok {
			switch {
			case at.Before(bt):
				return -1
			case at.After(bt):
				return 1
			default:
				return 0
			}
		}
	}
	if ab, ok := toBool(a); ok {
		if bb, ok := toBool(b); ok {
			switch {
			case !ab && bb:
				return -1
			case ab && !bb:
				return 1
			default:
				return 0
			}
		}
	}
	// Incomparable types: fall back to formatted representation so sorting
	// stays deterministic.
	return compareFormatted(a, b)
}

func compareFormatted(a, b interface{}) int {
	as := fmt.Sprintf("%v", a)
	bs := fmt.Sprintf("%v", b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}

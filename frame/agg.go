package frame

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// AggFns enumerates the supported aggregation function names, after alias
// normalization (avg/mean -> avg, std/stddev -> std, med/median -> med,
// len/length -> len).
var AggFns = []string{"avg", "min", "max", "count", "sum", "std", "med", "first", "last", "len"}

// NormalizeAggFn maps an aggregation name or alias to its canonical name.
// The second result is false for unknown names.
func NormalizeAggFn(name string) (string, bool) {
	switch strings.ToLower(name) {
	case "avg", "mean":
		return "avg", true
	case "std", "stddev":
		return "std", true
	case "med", "median":
		return "med", true
	case "len", "length":
		return "len", true
	case "min", "max", "count", "sum", "first", "last":
		return strings.ToLower(name), true
	default:
		return "", false
	}
}

// reduce collapses a slice of cells to one aggregate value.
func reduce(fn string, values []interface{}) (interface{}, error) {
	switch fn {
	case "count":
		var n int64
		for _, v := range values {
			if v != nil {
				n++
			}
		}
		return n, nil
	case "len":
		return int64(len(values)), nil
	case "first":
		if len(values) == 0 {
			return nil, nil
		}
		return values[0], nil
	case "last":
		if len(values) == 0 {
			return nil, nil
		}
		return values[len(values)-1], nil
	case "min", "max":
		var best interface{}
		for _, v := range values {
			if v == nil {
				continue
			}
			if best == nil {
				best = v
				continue
			}
			cmp := OrderValues(v, best)
			if (fn == "min" && cmp < 0) || (fn == "max" && cmp > 0) {
				best = v
			}
		}
		return best, nil
	}

	// The remaining aggregations are numeric.
	nums := make([]float64, 0, len(values))
	allInt := true
	for _, v := range values {
		if v == nil {
			continue
		}
		f, ok := toFloat64(v)
		if !ok {
			return nil, fmt.Errorf("aggregation %q requires numeric values, got %T", fn, v)
		}
		if _, isInt := v.(int64); !isInt {
			allInt = false
		}
		nums = append(nums, f)
	}
	if len(nums) == 0 {
		return nil, nil
	}

	switch fn {
	case "sum":
		var sum float64
		for _, f := range nums {
			sum += f
		}
		if allInt {
			return int64(sum), nil
		}
		return sum, nil
	case "avg":
		var sum float64
		for _, f := range nums {
			sum += f
		}
		return sum / float64(len(nums)), nil
	case "std":
		// Sample standard deviation (ddof = 1).
		if len(nums) < 2 {
			return nil, nil
		}
		var sum float64
		for _, f := range nums {
			sum += f
		}
		mean := sum / float64(len(nums))
		var sq float64
		for _, f := range nums {
			d := f - mean
			sq += d * d
		}
		return math.Sqrt(sq / float64(len(nums)-1)), nil
	case "med":
		sorted := make([]float64, len(nums))
		copy(sorted, nums)
		sort.Float64s(sorted)
		mid := len(sorted) / 2
		if len(sorted)%2 == 1 {
			return sorted[mid], nil
		}
		return (sorted[mid-1] + sorted[mid]) / 2, nil
	default:
		return nil, fmt.Errorf("unknown aggregation %q", fn)
	}
}

// groupKey builds a collision-safe hash key from key-column cells.
func groupKey(keys []Series, row int) string {
	var b strings.Builder
	for i, s := range keys {
		if i > 0 {
			b.WriteString("\x00||\x00")
		}
		b.WriteString(s.Name)
		b.WriteString("\x00:\x00")
		fmt.Fprintf(&b, "%#v", s.Values[row])
	}
	return b.String()
}

package frame

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

// Expr is a compiled column expression. Expressions are immutable once
// built and safe for concurrent reads.
//
// eval returns a series of length df.Height(), except for aggregations,
// which reduce to a single-cell series. Binary operations broadcast
// single-cell operands.
type Expr interface {
	// Name is the output column name the expression produces.
	Name() string
	// HasAgg reports whether the expression contains an aggregation.
	HasAgg() bool
	// walkColumns records every column the expression references.
	walkColumns(set map[string]bool)
	eval(df *DataFrame) (Series, error)
}

// ColumnRefs returns the names of all columns an expression touches.
func ColumnRefs(e Expr) []string {
	set := make(map[string]bool)
	e.walkColumns(set)
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	return names
}

// --- column reference ---

type colExpr struct {
	name string
}

// Col references a column by name.
func Col(name string) Expr { return &colExpr{name: name} }

func (e *colExpr) Name() string                    { return e.name }
func (e *colExpr) HasAgg() bool                    { return false }
func (e *colExpr) walkColumns(set map[string]bool) { set[e.name] = true }

func (e *colExpr) eval(df *DataFrame) (Series, error) {
	return df.Column(e.name)
}

// --- literal ---

type litExpr struct {
	value interface{}
	dtype DType
	unit  TimeUnit
}

// Lit builds a literal expression. Supported values: int64, float64,
// string, bool, time.Time, nil.
func Lit(v interface{}) Expr {
	dt := TypeNull
	if v != nil {
		dt = valueDType(v)
	}
	return &litExpr{value: v, dtype: dt}
}

// LitDatetime builds a timestamp literal carrying an explicit precision.
func LitDatetime(t time.Time, unit TimeUnit) Expr {
	return &litExpr{value: t, dtype: TypeDatetime, unit: unit}
}

// LitDate builds a date literal.
func LitDate(t time.Time) Expr {
	return &litExpr{value: t, dtype: TypeDate}
}

func (e *litExpr) Name() string                  { return "literal" }
func (e *litExpr) HasAgg() bool                  { return false }
func (e *litExpr) walkColumns(map[string]bool)   {}
func (e *litExpr) eval(*DataFrame) (Series, error) {
	return Series{Name: e.Name(), Type: e.dtype, Unit: e.unit, Values: []interface{}{e.value}}, nil
}

// --- alias ---

type aliasExpr struct {
	inner Expr
	alias string
}

// Alias renames the output column of an expression.
func Alias(e Expr, name string) Expr { return &aliasExpr{inner: e, alias: name} }

func (e *aliasExpr) Name() string                    { return e.alias }
func (e *aliasExpr) HasAgg() bool                    { return e.inner.HasAgg() }
func (e *aliasExpr) walkColumns(set map[string]bool) { e.inner.walkColumns(set) }

func (e *aliasExpr) eval(df *DataFrame) (Series, error) {
	s, err := e.inner.eval(df)
	if err != nil {
		return Series{}, err
	}
	return s.Rename(e.alias), nil
}

// --- binary operation ---

type binExpr struct {
	op    string
	left  Expr
	right Expr
}

// BinOp applies a binary operator: arithmetic (+ - * %), comparison
// (= != <> < > <= >=), or logical (and, or). Note % is division.
func BinOp(op string, left, right Expr) Expr {
	return &binExpr{op: op, left: left, right: right}
}

func (e *binExpr) Name() string { return e.left.Name() }
func (e *binExpr) HasAgg() bool { return e.left.HasAgg() || e.right.HasAgg() }

func (e *binExpr) walkColumns(set map[string]bool) {
	e.left.walkColumns(set)
	e.right.walkColumns(set)
}

func (e *binExpr) eval(df *DataFrame) (Series, error) {
	left, err := e.left.eval(df)
	if err != nil {
		return Series{}, err
	}
	right, err := e.right.eval(df)
	if err != nil {
		return Series{}, err
	}

	n := broadcastLen(left.Len(), right.Len())
	values := make([]interface{}, n)

	switch e.op {
	case "+", "-", "*", "%":
		for i := 0; i < n; i++ {
			v, err := applyArith(e.op, cellAt(left, i), cellAt(right, i))
			if err != nil {
				return Series{}, err
			}
			values[i] = v
		}
	case "=", "!=", "<>", "<", ">", "<=", ">=":
		for i := 0; i < n; i++ {
			lv, rv := cellAt(left, i), cellAt(right, i)
			ok, err := Compare(lv, e.op, rv)
			if err != nil {
				return Series{}, err
			}
			values[i] = ok
		}
	case "and", "or":
		for i := 0; i < n; i++ {
			lb, _ := toBool(cellAt(left, i))
			rb, _ := toBool(cellAt(right, i))
			if e.op == "and" {
				values[i] = lb && rb
			} else {
				values[i] = lb || rb
			}
		}
	default:
		return Series{}, fmt.Errorf("unknown operator %q", e.op)
	}

	return Series{Name: e.Name(), Type: InferDType(values), Values: values}, nil
}

func broadcastLen(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// cellAt indexes a series, broadcasting single-cell series.
func cellAt(s Series, i int) interface{} {
	if s.Len() == 1 {
		return s.Values[0]
	}
	if i >= s.Len() {
		return nil
	}
	return s.Values[i]
}

func applyArith(op string, left, right interface{}) (interface{}, error) {
	if left == nil || right == nil {
		return nil, nil
	}
	if op == "+" {
		if ls, ok := toString(left); ok {
			if rs, ok := toString(right); ok {
				return ls + rs, nil
			}
		}
	}
	ln, lok := toFloat64(left)
	rn, rok := toFloat64(right)
	if !lok || !rok {
		return nil, fmt.Errorf("cannot apply %q to %T and %T", op, left, right)
	}
	li, lInt := left.(int64)
	ri, rInt := right.(int64)
	bothInt := lInt && rInt

	switch op {
	case "+":
		if bothInt {
			return li + ri, nil
		}
		return ln + rn, nil
	case "-":
		if bothInt {
			return li - ri, nil
		}
		return ln - rn, nil
	case "*":
		if bothInt {
			return li * ri, nil
		}
		return ln * rn, nil
	case "%":
		// % is division in the query language, and division always
		// produces a float.
		if rn == 0 {
			return nil, nil
		}
		return ln / rn, nil
	default:
		return nil, fmt.Errorf("unknown arithmetic operator %q", op)
	}
}

// --- coalesce ---

type coalesceExpr struct {
	operands []Expr
}

// Coalesce returns the first non-null operand per row, left to right.
func Coalesce(operands ...Expr) Expr { return &coalesceExpr{operands: operands} }

func (e *coalesceExpr) Name() string {
	if len(e.operands) > 0 {
		return e.operands[0].Name()
	}
	return "coalesce"
}

func (e *coalesceExpr) HasAgg() bool {
	for _, op := range e.operands {
		if op.HasAgg() {
			return true
		}
	}
	return false
}

func (e *coalesceExpr) walkColumns(set map[string]bool) {
	for _, op := range e.operands {
		op.walkColumns(set)
	}
}

func (e *coalesceExpr) eval(df *DataFrame) (Series, error) {
	if len(e.operands) == 0 {
		return Series{}, fmt.Errorf("coalesce requires at least one operand")
	}
	series := make([]Series, len(e.operands))
	n := 0
	for i, op := range e.operands {
		s, err := op.eval(df)
		if err != nil {
			return Series{}, err
		}
		series[i] = s
		n = broadcastLen(n, s.Len())
	}
	values := make([]interface{}, n)
	for i := 0; i < n; i++ {
		for _, s := range series {
			if v := cellAt(s, i); v != nil {
				values[i] = v
				break
			}
		}
	}
	return Series{Name: e.Name(), Type: InferDType(values), Values: values}, nil
}

// --- scalar functions ---

type fnExpr struct {
	name    string
	arg     Expr
	pattern string // for starts_with / ends_with / contains
}

// Fn applies a scalar or predicate function: not, null, upper,
// lower, len, abs, floor, ceil, starts_with, ends_with, contains.
func Fn(name string, arg Expr) Expr { return &fnExpr{name: name, arg: arg} }

// FnPattern applies a string predicate carrying a pattern argument.
func FnPattern(name string, arg Expr, pattern string) Expr {
	return &fnExpr{name: name, arg: arg, pattern: pattern}
}

func (e *fnExpr) Name() string                    { return e.arg.Name() }
func (e *fnExpr) HasAgg() bool                    { return e.arg.HasAgg() }
func (e *fnExpr) walkColumns(set map[string]bool) { e.arg.walkColumns(set) }

func (e *fnExpr) eval(df *DataFrame) (Series, error) {
	arg, err := e.arg.eval(df)
	if err != nil {
		return Series{}, err
	}
	values := make([]interface{}, arg.Len())
	for i, v := range arg.Values {
		out, err := applyScalarFn(e.name, v, e.pattern, arg.Name)
		if err != nil {
			return Series{}, err
		}
		values[i] = out
	}
	return Series{Name: e.Name(), Type: InferDType(values), Values: values}, nil
}

func applyScalarFn(name string, v interface{}, pattern, column string) (interface{}, error) {
	switch name {
	case "null":
		return v == nil, nil
	case "not":
		if v == nil {
			return nil, nil
		}
		b, ok := toBool(v)
		if !ok {
			return nil, &TypeMismatchError{Column: column, Expected: "bool", Actual: valueDType(v)}
		}
		return !b, nil
	}
	if v == nil {
		return nil, nil
	}
	switch name {
	case "upper", "lower", "len", "length", "starts_with", "ends_with", "contains":
		s, ok := toString(v)
		if !ok {
			return nil, &TypeMismatchError{Column: column, Expected: "string", Actual: valueDType(v)}
		}
		switch name {
		case "upper":
			return strings.ToUpper(s), nil
		case "lower":
			return strings.ToLower(s), nil
		case "len", "length":
			return int64(utf8.RuneCountInString(s)), nil
		case "starts_with":
			return strings.HasPrefix(s, pattern), nil
		case "ends_with":
			return strings.HasSuffix(s, pattern), nil
		case "contains":
			return strings.Contains(s, pattern), nil
		}
	case "abs", "floor", "ceil", "ceiling":
		f, ok := toFloat64(v)
		if !ok {
			return nil, &TypeMismatchError{Column: column, Expected: "numeric", Actual: valueDType(v)}
		}
		switch name {
		case "abs":
			if i, isInt := v.(int64); isInt {
				if i < 0 {
					return -i, nil
				}
				return i, nil
			}
			return math.Abs(f), nil
		case "floor":
			return math.Floor(f), nil
		case "ceil", "ceiling":
			return math.Ceil(f), nil
		}
	}
	return nil, fmt.Errorf("unknown function %q", name)
}

// --- aggregation ---

type aggExpr struct {
	fn  string
	arg Expr
}

// Agg reduces the argument expression with an aggregation function: sum,
// avg, min, max, count, std, med, first, last, len.
func Agg(fn string, arg Expr) Expr { return &aggExpr{fn: fn, arg: arg} }

func (e *aggExpr) Name() string                    { return e.arg.Name() }
func (e *aggExpr) HasAgg() bool                    { return true }
func (e *aggExpr) walkColumns(set map[string]bool) { e.arg.walkColumns(set) }

func (e *aggExpr) eval(df *DataFrame) (Series, error) {
	arg, err := e.arg.eval(df)
	if err != nil {
		return Series{}, err
	}
	v, err := reduce(e.fn, arg.Values)
	if err != nil {
		return Series{}, err
	}
	return Series{Name: e.Name(), Type: InferDType([]interface{}{v}), Values: []interface{}{v}}, nil
}

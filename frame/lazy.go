package frame

import (
	"fmt"
	"sort"
)

// LazyFrame composes operations over a base DataFrame without executing
// them. Every method returns a new LazyFrame; a LazyFrame is immutable once
// built and safe to share across goroutines for reads.
type LazyFrame struct {
	src *DataFrame
	ops []operation
}

type operation interface {
	apply(df *DataFrame) (*DataFrame, error)
}

func (lf *LazyFrame) with(op operation) *LazyFrame {
	ops := make([]operation, len(lf.ops), len(lf.ops)+1)
	copy(ops, lf.ops)
	return &LazyFrame{src: lf.src, ops: append(ops, op)}
}

// Collect executes the pending operations and materializes the result.
func (lf *LazyFrame) Collect() (*DataFrame, error) {
	df := lf.src
	var err error
	for _, op := range lf.ops {
		df, err = op.apply(df)
		if err != nil {
			return nil, err
		}
	}
	return df, nil
}

// SrcSchema returns the schema of the base frame, before any pending
// operations.
func (lf *LazyFrame) SrcSchema() Schema { return lf.src.Schema() }

// --- projection ---

type projectOp struct {
	exprs []Expr
}

// Project evaluates expressions into output columns, preserving order.
// With no expressions the projection is the identity.
func (lf *LazyFrame) Project(exprs ...Expr) *LazyFrame {
	if len(exprs) == 0 {
		return lf
	}
	return lf.with(&projectOp{exprs: exprs})
}

func (op *projectOp) apply(df *DataFrame) (*DataFrame, error) {
	series := make([]Series, len(op.exprs))
	height := 0
	for i, e := range op.exprs {
		s, err := e.eval(df)
		if err != nil {
			return nil, err
		}
		series[i] = s
		if s.Len() > height {
			height = s.Len()
		}
	}
	for i, e := range op.exprs {
		if series[i].Len() == height {
			continue
		}
		if series[i].Len() == 1 && !e.HasAgg() {
			// Broadcast literals and scalar expressions.
			v := series[i].Values[0]
			values := make([]interface{}, height)
			for j := range values {
				values[j] = v
			}
			series[i].Values = values
			continue
		}
		return nil, &AggregationConflictError{Item: e.Name()}
	}
	return New(series...)
}

// --- filter ---

type filterOp struct {
	pred Expr
}

// Filter keeps only rows for which the predicate evaluates to true.
func (lf *LazyFrame) Filter(pred Expr) *LazyFrame {
	return lf.with(&filterOp{pred: pred})
}

func (op *filterOp) apply(df *DataFrame) (*DataFrame, error) {
	s, err := op.pred.eval(df)
	if err != nil {
		return nil, err
	}
	idx := make([]int, 0, df.Height())
	for i := 0; i < df.Height(); i++ {
		if b, ok := toBool(cellAt(s, i)); ok && b {
			idx = append(idx, i)
		}
	}
	return df.Take(idx), nil
}

// --- group by + aggregate ---

type groupByOp struct {
	keys  []Expr
	items []Expr
}

// GroupBy groups rows by the key expressions and evaluates the item
// expressions per group. Aggregated items reduce to one cell per group;
// non-aggregated items become list cells holding the ordered member
// values, enabling drill-down into group members.
func (lf *LazyFrame) GroupBy(keys []Expr, items []Expr) *LazyFrame {
	return lf.with(&groupByOp{keys: keys, items: items})
}

func (op *groupByOp) apply(df *DataFrame) (*DataFrame, error) {
	keyCols := make([]Series, len(op.keys))
	for i, k := range op.keys {
		s, err := k.eval(df)
		if err != nil {
			return nil, err
		}
		if s.Len() != df.Height() {
			return nil, fmt.Errorf("group key %q does not evaluate row-wise", k.Name())
		}
		keyCols[i] = s
	}

	// Hash-based grouping, preserving first-appearance order.
	groupIdx := make(map[string]int)
	var groups [][]int
	var order []string
	for row := 0; row < df.Height(); row++ {
		key := groupKey(keyCols, row)
		gi, ok := groupIdx[key]
		if !ok {
			gi = len(groups)
			groupIdx[key] = gi
			groups = append(groups, nil)
			order = append(order, key)
		}
		groups[gi] = append(groups[gi], row)
	}

	out := make([]Series, 0, len(op.keys)+len(op.items))
	for i, k := range op.keys {
		values := make([]interface{}, len(groups))
		for gi, rows := range groups {
			values[gi] = keyCols[i].Values[rows[0]]
		}
		out = append(out, Series{Name: k.Name(), Type: keyCols[i].Type, Unit: keyCols[i].Unit, Values: values})
	}

	for _, item := range op.items {
		values := make([]interface{}, len(groups))
		isList := !item.HasAgg()
		var elem DType
		for gi, rows := range groups {
			sub := df.Take(rows)
			s, err := item.eval(sub)
			if err != nil {
				return nil, err
			}
			if isList {
				cell := make([]interface{}, s.Len())
				copy(cell, s.Values)
				values[gi] = cell
				elem = s.Type
			} else {
				if s.Len() != 1 {
					return nil, fmt.Errorf("aggregation %q produced %d values for one group", item.Name(), s.Len())
				}
				values[gi] = s.Values[0]
			}
		}
		s := Series{Name: item.Name(), Values: values}
		if isList {
			s.Type = TypeList
			s.Elem = elem
		} else {
			s.Type = InferDType(values)
		}
		out = append(out, s)
	}

	return New(out...)
}

// --- sort ---

// SortKey is one (column, direction) pair of a sort specification.
type SortKey struct {
	Column string
	Desc   bool
}

type sortOp struct {
	keys []SortKey
}

// Sort orders rows by the given keys. Nulls order first ascending and last
// descending. The sort is stable.
func (lf *LazyFrame) Sort(keys ...SortKey) *LazyFrame {
	if len(keys) == 0 {
		return lf
	}
	return lf.with(&sortOp{keys: keys})
}

func (op *sortOp) apply(df *DataFrame) (*DataFrame, error) {
	cols := make([]Series, len(op.keys))
	for i, k := range op.keys {
		c, err := df.Column(k.Column)
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}
	idx := make([]int, df.Height())
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		for i, k := range op.keys {
			cmp := OrderValues(cols[i].Values[idx[a]], cols[i].Values[idx[b]])
			if cmp == 0 {
				continue
			}
			if k.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
	return df.Take(idx), nil
}

// --- slice ---

type sliceOp struct {
	offset int
	length int
}

// Slice keeps length rows starting at offset.
func (lf *LazyFrame) Slice(offset, length int) *LazyFrame {
	return lf.with(&sliceOp{offset: offset, length: length})
}

func (op *sliceOp) apply(df *DataFrame) (*DataFrame, error) {
	start := op.offset
	if start < 0 {
		start = 0
	}
	if start > df.Height() {
		start = df.Height()
	}
	end := start + op.length
	if op.length < 0 || end > df.Height() {
		end = df.Height()
	}
	idx := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		idx = append(idx, i)
	}
	return df.Take(idx), nil
}

// --- column reorder ---

type reorderOp struct {
	order []string
}

// Reorder places the named columns first, in the given order; columns not
// named keep their relative order after them. A name absent from the frame
// is a ColumnNotFoundError.
func (lf *LazyFrame) Reorder(order []string) *LazyFrame {
	if len(order) == 0 {
		return lf
	}
	return lf.with(&reorderOp{order: order})
}

func (op *reorderOp) apply(df *DataFrame) (*DataFrame, error) {
	placed := make(map[string]bool, len(op.order))
	out := make([]Series, 0, df.Width())
	for _, name := range op.order {
		c, err := df.Column(name)
		if err != nil {
			return nil, err
		}
		if placed[name] {
			continue
		}
		placed[name] = true
		out = append(out, c)
	}
	for _, c := range df.Columns() {
		if !placed[c.Name] {
			out = append(out, c)
		}
	}
	return New(out...)
}

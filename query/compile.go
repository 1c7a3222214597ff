package query

import (
	"fmt"

	"github.com/derekwisong/datui/frame"
)

// Compile resolves a parsed query against the frame's schema and appends
// the corresponding lazy operations. The identity query returns the frame
// unchanged.
//
// Without a by clause the query compiles to filters followed by a
// projection. With one, it compiles to group-by-and-aggregate: select
// items with an aggregation reduce to one cell per group, the rest become
// list columns holding the ordered member values. Each where AND-group is
// routed by the columns it touches: groups touching only source columns
// filter source rows before grouping, groups touching aggregate outputs
// filter group rows afterwards.
func Compile(q *ParsedQuery, lf *frame.LazyFrame) (*frame.LazyFrame, error) {
	if q.IsIdentity() {
		return lf, nil
	}
	lw := &lowerer{
		schema:  lf.SrcSchema(),
		grouped: q.Group != nil,
	}

	var keyExprs []frame.Expr
	keyNames := map[string]bool{}
	keyRefs := map[string]bool{}
	if q.Group != nil {
		for _, item := range q.Group.Keys {
			name := item.Alias
			if name == "" {
				name = AutoName(item.Expr)
			}
			e, err := lw.lower(item.Expr, false)
			if err != nil {
				return nil, err
			}
			for _, ref := range ColumnRefs(item.Expr) {
				keyRefs[ref] = true
			}
			keyExprs = append(keyExprs, frame.Alias(e, name))
			keyNames[name] = true
			lw.outputs = append(lw.outputs, name)
		}
	}

	var itemExprs []frame.Expr
	aggOutputs := map[string]bool{}
	for _, item := range q.Select {
		name := item.Alias
		if name == "" {
			name = AutoName(item.Expr)
		}
		e, err := lw.lower(item.Expr, false)
		if err != nil {
			return nil, err
		}
		itemExprs = append(itemExprs, frame.Alias(e, name))
		if e.HasAgg() {
			aggOutputs[name] = true
		}
		if q.Group != nil {
			lw.outputs = append(lw.outputs, name)
		}
	}

	// With a group and no explicit items, every non-key column becomes a
	// list column so group members stay reachable.
	if q.Group != nil && len(itemExprs) == 0 {
		for _, f := range lw.schema {
			if keyNames[f.Name] || keyRefs[f.Name] {
				continue
			}
			itemExprs = append(itemExprs, frame.Col(f.Name))
			lw.outputs = append(lw.outputs, f.Name)
		}
	}

	var preFilters, postFilters []frame.Expr
	if q.Where != nil {
		for _, group := range q.Where.AndGroups {
			post := false
			if q.Group != nil {
				for _, alt := range group.Alternatives {
					for _, ref := range ColumnRefs(alt) {
						if _, inSource := lw.schema.Lookup(ref); !inSource && (aggOutputs[ref] || keyNames[ref]) {
							post = true
						}
					}
				}
			}
			pred, err := lw.lowerOrGroup(group, post)
			if err != nil {
				return nil, err
			}
			if post {
				postFilters = append(postFilters, pred)
			} else {
				preFilters = append(preFilters, pred)
			}
		}
	}

	for _, pred := range preFilters {
		lf = lf.Filter(pred)
	}
	if q.Group != nil {
		lf = lf.GroupBy(keyExprs, itemExprs)
	} else if len(itemExprs) > 0 {
		lf = lf.Project(itemExprs...)
	}
	for _, pred := range postFilters {
		lf = lf.Filter(pred)
	}
	return lf, nil
}

// ColumnRefs lists the column names an expression touches, in first
// appearance order.
func ColumnRefs(e Expr) []string {
	var refs []string
	seen := map[string]bool{}
	var walk func(Expr)
	walk = func(e Expr) {
		switch n := e.(type) {
		case *ColumnRef:
			if !seen[n.Name] {
				seen[n.Name] = true
				refs = append(refs, n.Name)
			}
		case *BinaryOp:
			walk(n.Left)
			walk(n.Right)
		case *Coalesce:
			for _, op := range n.Operands {
				walk(op)
			}
		case *Call:
			walk(n.Arg)
		case *Accessor:
			walk(n.Base)
		}
	}
	walk(e)
	return refs
}

// lowerer translates AST expressions into frame expressions against a
// resolved schema.
type lowerer struct {
	schema  frame.Schema
	grouped bool

	// outputs collects grouped output column names so post-group filters
	// can reference aggregate results that do not exist in the source.
	outputs []string
}

func (lw *lowerer) hasOutput(name string) bool {
	for _, n := range lw.outputs {
		if n == name {
			return true
		}
	}
	return false
}

// lowerOrGroup combines the alternatives of one AND-segment with OR.
// Comparisons are legal here; this is the where clause.
func (lw *lowerer) lowerOrGroup(group OrGroup, post bool) (frame.Expr, error) {
	var pred frame.Expr
	for _, alt := range group.Alternatives {
		e, err := lw.lowerFilter(alt, post)
		if err != nil {
			return nil, err
		}
		if pred == nil {
			pred = e
		} else {
			pred = frame.BinOp("or", pred, e)
		}
	}
	return pred, nil
}

func (lw *lowerer) lowerFilter(e Expr, post bool) (frame.Expr, error) {
	if post {
		// Post-group predicates resolve against the grouped output.
		sub := &lowerer{schema: lw.outputSchema(), grouped: false}
		return sub.lower(e, true)
	}
	return lw.lower(e, true)
}

// outputSchema approximates the grouped result schema for post-group
// filter resolution. Types are unknown until execution.
func (lw *lowerer) outputSchema() frame.Schema {
	s := make(frame.Schema, 0, len(lw.outputs))
	for _, name := range lw.outputs {
		f := frame.Field{Name: name}
		if src, ok := lw.schema.Lookup(name); ok {
			f.Type = src.Type
		}
		s = append(s, f)
	}
	return s
}

func (lw *lowerer) lower(e Expr, inWhere bool) (frame.Expr, error) {
	switch n := e.(type) {
	case *ColumnRef:
		if _, ok := lw.schema.Lookup(n.Name); !ok {
			if !(lw.grouped && lw.hasOutput(n.Name)) {
				return nil, &frame.ColumnNotFoundError{Name: n.Name}
			}
		}
		return frame.Col(n.Name), nil
	case *NumberLit:
		if n.IsInt {
			return frame.Lit(int64(n.Value)), nil
		}
		return frame.Lit(n.Value), nil
	case *StringLit:
		return frame.Lit(n.Value), nil
	case *DateLit:
		return frame.LitDate(n.Value), nil
	case *TimestampLit:
		return frame.LitDatetime(n.Value, n.Unit), nil
	case *BinaryOp:
		if isComparisonOp(n.Op) && !inWhere {
			return nil, fmt.Errorf("comparison %q is only valid in a where clause", n.Op)
		}
		left, err := lw.lower(n.Left, inWhere)
		if err != nil {
			return nil, err
		}
		right, err := lw.lower(n.Right, inWhere)
		if err != nil {
			return nil, err
		}
		return frame.BinOp(n.Op, left, right), nil
	case *Coalesce:
		ops := make([]frame.Expr, len(n.Operands))
		for i, op := range n.Operands {
			e, err := lw.lower(op, inWhere)
			if err != nil {
				return nil, err
			}
			ops[i] = e
		}
		return frame.Coalesce(ops...), nil
	case *Call:
		arg, err := lw.lower(n.Arg, inWhere)
		if err != nil {
			return nil, err
		}
		return lw.lowerCall(n.Name, arg)
	case *Accessor:
		base, err := lw.lower(n.Base, inWhere)
		if err != nil {
			return nil, err
		}
		if err := lw.checkAccessor(n); err != nil {
			return nil, err
		}
		return frame.Accessor(base, n.Name, n.Arg), nil
	default:
		return nil, fmt.Errorf("unsupported expression %T", e)
	}
}

// lowerCall maps a call to an aggregation or scalar function. len and
// length are the one overlap: with a group they aggregate to group size,
// without one they are string length.
func (lw *lowerer) lowerCall(name string, arg frame.Expr) (frame.Expr, error) {
	if name == "len" || name == "length" {
		if lw.grouped {
			return frame.Agg("len", arg), nil
		}
		return frame.Fn("len", arg), nil
	}
	if norm, ok := frame.NormalizeAggFn(name); ok {
		return frame.Agg(norm, arg), nil
	}
	switch name {
	case "not", "null", "upper", "lower", "abs", "floor", "ceil", "ceiling":
		return frame.Fn(name, arg), nil
	}
	return nil, fmt.Errorf("unknown function %q", name)
}

// checkAccessor validates an accessor against the declared type of its
// base column when that type is statically known. Derived bases are
// checked at execution instead.
func (lw *lowerer) checkAccessor(n *Accessor) error {
	col, ok := n.Base.(*ColumnRef)
	if !ok {
		return nil
	}
	f, ok := lw.schema.Lookup(col.Name)
	if !ok || f.Type == frame.TypeNull {
		return nil
	}
	switch {
	case frame.IsDateAccessor(n.Name) && !frame.IsStringAccessor(n.Name):
		if !f.Type.IsTemporal() {
			return &frame.TypeMismatchError{Column: col.Name, Expected: "date or datetime", Actual: f.Type}
		}
	case frame.IsStringAccessor(n.Name) && !frame.IsDateAccessor(n.Name):
		if f.Type != frame.TypeString {
			return &frame.TypeMismatchError{Column: col.Name, Expected: "string", Actual: f.Type}
		}
	}
	return nil
}

func isComparisonOp(op string) bool {
	switch op {
	case "=", "!=", "<>", "<", ">", "<=", ">=":
		return true
	}
	return false
}

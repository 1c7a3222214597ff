package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/derekwisong/datui/frame"
)

// Expr is a parsed expression node. Expressions are immutable once built.
//
// String renders a canonical form that reparses to a structurally equal
// tree: binary operations are always parenthesized so the canonical text
// is independent of the binding rule, and calls always use bracket form.
type Expr interface {
	exprNode()
	String() string
}

// ColumnRef references a column by name.
type ColumnRef struct {
	Name string
}

func (e *ColumnRef) exprNode() {}

func (e *ColumnRef) String() string {
	if isPlainIdent(e.Name) {
		return e.Name
	}
	return fmt.Sprintf("col[%q]", e.Name)
}

// NumberLit is an integer or float literal.
type NumberLit struct {
	Value float64
	IsInt bool
}

func (e *NumberLit) exprNode() {}

func (e *NumberLit) String() string {
	if e.IsInt {
		return fmt.Sprintf("%d", int64(e.Value))
	}
	return fmt.Sprintf("%g", e.Value)
}

// StringLit is a quoted string literal.
type StringLit struct {
	Value string
}

func (e *StringLit) exprNode()      {}
func (e *StringLit) String() string { return fmt.Sprintf("%q", e.Value) }

// DateLit is a YYYY.MM.DD literal.
type DateLit struct {
	Value time.Time
}

func (e *DateLit) exprNode() {}

func (e *DateLit) String() string {
	return e.Value.Format("2006.01.02")
}

// TimestampLit is a YYYY.MM.DDTHH:MM:SS[.frac] literal. Unit is selected by
// the count of fractional digits: 1-3 millisecond, 4-6 microsecond,
// 7-9 nanosecond.
type TimestampLit struct {
	Value      time.Time
	Unit       frame.TimeUnit
	FracDigits int
}

func (e *TimestampLit) exprNode() {}

func (e *TimestampLit) String() string {
	base := e.Value.Format("2006.01.02T15:04:05")
	if e.FracDigits == 0 {
		return base
	}
	frac := fmt.Sprintf("%09d", e.Value.Nanosecond())
	return base + "." + frac[:e.FracDigits]
}

// BinaryOp is a binary operation: arithmetic (+ - * %), or comparison
// (= != <> < > <= >=). The coalesce operator has its own node.
type BinaryOp struct {
	Op    string
	Left  Expr
	Right Expr
}

func (e *BinaryOp) exprNode() {}

func (e *BinaryOp) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left, e.Op, e.Right)
}

// Coalesce returns the first non-null operand, left to right. Chains of ^
// are flattened into one ordered operand list.
type Coalesce struct {
	Operands []Expr
}

func (e *Coalesce) exprNode() {}

func (e *Coalesce) String() string {
	parts := make([]string, len(e.Operands))
	for i, op := range e.Operands {
		parts[i] = op.String()
	}
	return "(" + strings.Join(parts, " ^ ") + ")"
}

// Call is the canonical function-call node. Both surface forms, fn[expr]
// and fn expr, normalize to this shape during parsing.
type Call struct {
	Name string
	Arg  Expr
}

func (e *Call) exprNode()      {}
func (e *Call) String() string { return fmt.Sprintf("%s[%s]", e.Name, e.Arg) }

// Accessor applies a date/time or string component accessor to an
// expression: expr.name or expr.name["arg"].
type Accessor struct {
	Base   Expr
	Name   string
	Arg    string
	HasArg bool
}

func (e *Accessor) exprNode() {}

func (e *Accessor) String() string {
	if e.HasArg {
		return fmt.Sprintf("%s.%s[%q]", e.Base, e.Name, e.Arg)
	}
	return fmt.Sprintf("%s.%s", e.Base, e.Name)
}

// SelectItem is one item of a select or by clause. Order is significant:
// it defines output column order.
type SelectItem struct {
	Alias string // empty when no explicit alias
	Expr  Expr
}

// String renders the item in canonical form.
func (it SelectItem) String() string {
	if it.Alias == "" {
		return it.Expr.String()
	}
	alias := it.Alias
	if !isPlainIdent(alias) {
		alias = fmt.Sprintf("col[%q]", alias)
	}
	return alias + ": " + it.Expr.String()
}

// GroupSpec holds the ordered grouping keys of a by clause. Its presence
// switches select compilation to grouped form.
type GroupSpec struct {
	Keys []SelectItem
}

// OrGroup is one AND-segment of a where clause: alternatives combined
// with OR.
type OrGroup struct {
	Alternatives []Expr
}

// WhereClause is the parsed where body: AND across groups, OR within a
// group. Comma binds more broadly than pipe: "A, B | C" means
// A AND (B OR C).
type WhereClause struct {
	AndGroups []OrGroup
}

// ParsedQuery is the result of parsing one query submission. A nil Group
// and Where mean the clause was absent. The zero value is the identity
// query (select everything).
type ParsedQuery struct {
	Select []SelectItem
	Group  *GroupSpec
	Where  *WhereClause

	// Text is the raw query this was parsed from.
	Text string
}

// IsIdentity reports whether the query changes nothing.
func (q *ParsedQuery) IsIdentity() bool {
	return q == nil || (len(q.Select) == 0 && q.Group == nil && q.Where == nil)
}

// String renders the canonical form of the query.
func (q *ParsedQuery) String() string {
	var b strings.Builder
	b.WriteString("select")
	for i, item := range q.Select {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(" " + item.String())
	}
	if q.Group != nil {
		b.WriteString(" by")
		for i, item := range q.Group.Keys {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(" " + item.String())
		}
	}
	if q.Where != nil {
		b.WriteString(" where ")
		groups := make([]string, len(q.Where.AndGroups))
		for i, g := range q.Where.AndGroups {
			alts := make([]string, len(g.Alternatives))
			for j, alt := range g.Alternatives {
				alts[j] = alt.String()
			}
			groups[i] = strings.Join(alts, " | ")
		}
		b.WriteString(strings.Join(groups, ", "))
	}
	return b.String()
}

// AutoName derives the output column name for an unaliased expression.
// An accessor chain on a bare column is named {column}_{accessor} (with
// the accessor argument appended when present); other expressions take the
// name of their leftmost column or "literal".
func AutoName(e Expr) string {
	switch n := e.(type) {
	case *ColumnRef:
		return n.Name
	case *Accessor:
		suffix := n.Name
		if n.HasArg {
			suffix += "_" + n.Arg
		}
		base := AutoName(n.Base)
		if base == "" || base == "literal" {
			return suffix
		}
		return base + "_" + suffix
	case *Call:
		return AutoName(n.Arg)
	case *BinaryOp:
		return AutoName(n.Left)
	case *Coalesce:
		if len(n.Operands) > 0 {
			return AutoName(n.Operands[0])
		}
		return "coalesce"
	default:
		return "literal"
	}
}

// isPlainIdent reports whether the name can be written without the col[]
// bracket form.
func isPlainIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_',
			'a' <= r && r <= 'z',
			'A' <= r && r <= 'Z':
		case '0' <= r && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	switch s {
	case "select", "by", "where":
		return false
	}
	return true
}

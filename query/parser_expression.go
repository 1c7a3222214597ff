package query

import (
	"strconv"
	"strings"

	"github.com/derekwisong/datui/frame"
)

// maxExprDepth bounds expression nesting so a pathological input cannot
// blow the stack.
const maxExprDepth = 200

// functionNames holds every callable name: aggregations plus scalar
// functions. Names are matched case-insensitively.
var functionNames = map[string]bool{
	"avg": true, "mean": true, "min": true, "max": true, "count": true,
	"std": true, "stddev": true, "med": true, "median": true, "sum": true,
	"first": true, "last": true, "len": true, "length": true,
	"not": true, "null": true, "upper": true, "lower": true,
	"abs": true, "floor": true, "ceil": true, "ceiling": true,
}

func isFunctionName(name string) bool {
	return functionNames[strings.ToLower(name)]
}

// parseExpr parses a complete expression from the token slice. All tokens
// must be consumed.
//
// Binding is right to left: the leftmost operator outside any parentheses
// or brackets is the root, its left operand is everything before it and
// its right operand is everything after, parsed recursively. So a + b * c
// becomes a + (b * c), and c > c % n compares c against c % n.
func parseExpr(tokens []Token, depth int) (Expr, error) {
	if depth > maxExprDepth {
		return nil, syntaxErrorf(tokens[0].Pos, "expression nesting too deep")
	}
	if len(tokens) == 0 {
		return nil, syntaxErrorf(0, "empty expression")
	}

	// A bare function call binds the whole remaining expression as its
	// argument, so "avg a + b" is avg[(a + b)]. Checked before the
	// operator scan.
	if tokens[0].is(TokenIdent) && isFunctionName(tokens[0].Value) &&
		len(tokens) > 1 && !tokens[1].is(TokenLBracket) && !tokens[1].is(TokenDot) {
		arg, err := parseExpr(tokens[1:], depth+1)
		if err != nil {
			return nil, err
		}
		return &Call{Name: strings.ToLower(tokens[0].Value), Arg: arg}, nil
	}

	// Leftmost top-level operator is the root.
	opPos := -1
	parenDepth, bracketDepth := 0, 0
	for i, tok := range tokens {
		switch tok.Type {
		case TokenLParen:
			parenDepth++
		case TokenRParen:
			parenDepth--
		case TokenLBracket:
			bracketDepth++
		case TokenRBracket:
			bracketDepth--
		case TokenOp:
			if parenDepth == 0 && bracketDepth == 0 {
				opPos = i
			}
		}
		if opPos >= 0 {
			break
		}
	}

	if opPos < 0 {
		expr, rest, err := parseTerm(tokens, depth)
		if err != nil {
			return nil, err
		}
		if len(rest) > 0 {
			return nil, syntaxErrorf(rest[0].Pos, "unexpected token %q", rest[0].Value)
		}
		return expr, nil
	}

	op := tokens[opPos]
	if opPos == 0 {
		return nil, syntaxErrorf(op.Pos, "missing left operand for %q", op.Value)
	}
	if opPos == len(tokens)-1 {
		return nil, syntaxErrorf(op.Pos, "missing right operand for %q", op.Value)
	}
	right, err := parseExpr(tokens[opPos+1:], depth+1)
	if err != nil {
		return nil, err
	}
	left, err := parseExpr(tokens[:opPos], depth+1)
	if err != nil {
		return nil, err
	}
	if op.Value == "^" {
		// Coalesce chains flatten into one ordered operand list.
		if c, ok := right.(*Coalesce); ok {
			return &Coalesce{Operands: append([]Expr{left}, c.Operands...)}, nil
		}
		return &Coalesce{Operands: []Expr{left, right}}, nil
	}
	norm := op.Value
	if norm == "<>" {
		norm = "!="
	}
	return &BinaryOp{Op: norm, Left: left, Right: right}, nil
}

// parseTerm parses one operand: a column reference, literal, bracketed
// function call, or parenthesized expression, followed by any accessor
// chain. It returns the unconsumed remainder.
func parseTerm(tokens []Token, depth int) (Expr, []Token, error) {
	if len(tokens) == 0 {
		return nil, nil, syntaxErrorf(0, "unexpected end of expression")
	}
	tok := tokens[0]
	switch tok.Type {
	case TokenIdent:
		if len(tokens) > 1 && tokens[1].is(TokenLBracket) {
			if tok.Value == "col" {
				return parseColBracket(tokens)
			}
			return parseCallBracket(tokens, depth)
		}
		return parseAccessors(&ColumnRef{Name: tok.Value}, tokens[1:])
	case TokenNumber:
		n, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return nil, nil, syntaxErrorf(tok.Pos, "invalid number %q", tok.Value)
		}
		isInt := !strings.Contains(tok.Value, ".")
		return &NumberLit{Value: n, IsInt: isInt}, tokens[1:], nil
	case TokenString:
		return &StringLit{Value: tok.Value}, tokens[1:], nil
	case TokenDate:
		return &DateLit{Value: tok.Time}, tokens[1:], nil
	case TokenTimestamp:
		lit := &TimestampLit{Value: tok.Time, Unit: tok.Unit, FracDigits: tok.FracDigits}
		return lit, tokens[1:], nil
	case TokenLParen:
		end, err := matchParen(tokens, 0)
		if err != nil {
			return nil, nil, err
		}
		inner := tokens[1 : end-1]
		if len(inner) == 0 {
			return nil, nil, syntaxErrorf(tok.Pos, "empty parentheses")
		}
		expr, err := parseExpr(inner, depth+1)
		if err != nil {
			return nil, nil, err
		}
		return parseAccessors(expr, tokens[end:])
	default:
		return nil, nil, syntaxErrorf(tok.Pos, "unexpected token %q", tok.Value)
	}
}

// parseColBracket parses col["name"] or col[name], for columns whose names
// are not plain identifiers.
func parseColBracket(tokens []Token) (Expr, []Token, error) {
	end, err := matchBracket(tokens, 1)
	if err != nil {
		return nil, nil, err
	}
	inner := tokens[2 : end-1]
	if len(inner) != 1 || !(inner[0].is(TokenString) || inner[0].is(TokenIdent)) {
		return nil, nil, syntaxErrorf(tokens[0].Pos, "col[] requires a single string or identifier")
	}
	return parseAccessors(&ColumnRef{Name: inner[0].Value}, tokens[end:])
}

// parseCallBracket parses fn[expr]. The bracketed form and the bare form
// produce the same Call node.
func parseCallBracket(tokens []Token, depth int) (Expr, []Token, error) {
	name := tokens[0]
	if !isFunctionName(name.Value) {
		return nil, nil, syntaxErrorf(name.Pos, "unknown function %q", name.Value)
	}
	end, err := matchBracket(tokens, 1)
	if err != nil {
		return nil, nil, err
	}
	inner := tokens[2 : end-1]
	if len(inner) == 0 {
		return nil, nil, syntaxErrorf(name.Pos, "function %s requires an argument", name.Value)
	}
	arg, err := parseExpr(inner, depth+1)
	if err != nil {
		return nil, nil, err
	}
	call := &Call{Name: strings.ToLower(name.Value), Arg: arg}
	return parseAccessors(call, tokens[end:])
}

// parseAccessors consumes a chain of .name or .name["arg"] accessors after
// a term. Accessor names are validated here; whether the accessor fits the
// operand's type is checked at compile time.
func parseAccessors(base Expr, tokens []Token) (Expr, []Token, error) {
	expr := base
	for len(tokens) >= 2 && tokens[0].is(TokenDot) && tokens[1].is(TokenIdent) {
		name := strings.ToLower(tokens[1].Value)
		if !frame.IsAccessor(name) {
			return nil, nil, syntaxErrorf(tokens[1].Pos, "unknown accessor %q", tokens[1].Value)
		}
		acc := &Accessor{Base: expr, Name: name}
		consumed := 2
		if len(tokens) >= 5 && tokens[2].is(TokenLBracket) &&
			(tokens[3].is(TokenString) || tokens[3].is(TokenIdent)) &&
			tokens[4].is(TokenRBracket) {
			acc.Arg = tokens[3].Value
			acc.HasArg = true
			consumed = 5
		}
		if frame.AccessorRequiresArg(name) && !acc.HasArg {
			return nil, nil, syntaxErrorf(tokens[1].Pos,
				"accessor %s requires an argument, e.g. .%s[%q]", name, name, "x")
		}
		expr = acc
		tokens = tokens[consumed:]
	}
	return expr, tokens, nil
}

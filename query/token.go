// Package query implements the select/by/where query language: the lexer,
// the depth-aware clause splitter, the expression and filter-clause
// parsers, and the compiler that resolves parsed queries against a schema
// into lazy frame operations.
//
// The language binds operators right to left: the leftmost top-level
// operator of an expression is the root and everything to its right is one
// subexpression, so a + b * c parses as a + (b * c). Parentheses override
// this grouping.
package query

import (
	"time"

	"github.com/derekwisong/datui/frame"
)

// TokenType identifies a lexical token.
type TokenType int

const (
	// Keywords
	TokenSelect TokenType = iota
	TokenBy
	TokenWhere

	// Literals
	TokenIdent
	TokenNumber
	TokenString
	TokenDate
	TokenTimestamp

	// Operators (arithmetic, comparison, coalesce)
	TokenOp

	// Delimiters
	TokenComma     // ,
	TokenColon     // :
	TokenPipe      // |
	TokenDot       // .
	TokenLParen    // (
	TokenRParen    // )
	TokenLBracket  // [
	TokenRBracket  // ]

	TokenEOF
)

// Token is a lexical token. Pos is the byte offset of the token's first
// character in the query text.
type Token struct {
	Type  TokenType
	Value string
	Pos   int

	// Time and Unit carry the parsed value of date and timestamp
	// literals. FracDigits is the count of fractional-second digits in a
	// timestamp literal, which selects Unit.
	Time       time.Time
	Unit       frame.TimeUnit
	FracDigits int
}

func (t Token) is(tt TokenType) bool { return t.Type == tt }

// isOp reports whether the token is the given operator.
func (t Token) isOp(op string) bool { return t.Type == TokenOp && t.Value == op }

package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/derekwisong/datui/frame"
)

// SyntaxError reports malformed query text: unmatched delimiters, clause
// order violations, bad literals, unexpected tokens. Pos is the byte
// offset of the offending character in the query text.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d: %s", e.Pos, e.Msg)
}

func syntaxErrorf(pos int, format string, args ...interface{}) error {
	return &SyntaxError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// Span is a half-open byte range in the query text.
type Span struct {
	Start int
	End   int
}

// DiagnosticKind classifies a diagnostic for display.
type DiagnosticKind string

const (
	DiagSyntax              DiagnosticKind = "syntax"
	DiagColumnNotFound      DiagnosticKind = "column-not-found"
	DiagTypeMismatch        DiagnosticKind = "type-mismatch"
	DiagAggregationConflict DiagnosticKind = "aggregation-conflict"
	DiagReshape             DiagnosticKind = "reshape"
	DiagBackend             DiagnosticKind = "backend"
)

// Diagnostic is the displayable form of a query failure, carrying an
// optional source span for inline highlighting in the query input.
type Diagnostic struct {
	Kind    DiagnosticKind
	Message string
	Span    *Span
}

// Diagnose classifies an error into a Diagnostic.
func Diagnose(err error) Diagnostic {
	var synErr *SyntaxError
	if errors.As(err, &synErr) {
		return Diagnostic{
			Kind:    DiagSyntax,
			Message: synErr.Msg,
			Span:    &Span{Start: synErr.Pos, End: synErr.Pos + 1},
		}
	}
	var notFound *frame.ColumnNotFoundError
	if errors.As(err, &notFound) {
		return Diagnostic{Kind: DiagColumnNotFound, Message: err.Error()}
	}
	var mismatch *frame.TypeMismatchError
	if errors.As(err, &mismatch) {
		return Diagnostic{Kind: DiagTypeMismatch, Message: err.Error()}
	}
	var conflict *frame.AggregationConflictError
	if errors.As(err, &conflict) {
		return Diagnostic{Kind: DiagAggregationConflict, Message: err.Error()}
	}
	var reshape *frame.ReshapeError
	if errors.As(err, &reshape) {
		return Diagnostic{Kind: DiagReshape, Message: err.Error()}
	}
	return Diagnostic{Kind: DiagBackend, Message: SanitizeErrorMessage(err.Error())}
}

// SanitizeErrorMessage rewrites backend error messages into actionable
// query errors. Duplicate-output-name failures get an alias hint.
func SanitizeErrorMessage(msg string) string {
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "duplicate column name") || strings.Contains(lower, "duplicate output name") {
		return msg + `. Use aliases to rename columns, e.g. "select my_date: timestamp.date"`
	}
	return msg
}

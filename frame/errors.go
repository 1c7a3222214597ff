package frame

import "fmt"

// ColumnNotFoundError reports a reference to a column absent from the schema.
type ColumnNotFoundError struct {
	Name string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column %q not found", e.Name)
}

// TypeMismatchError reports an accessor or function applied to a column of
// the wrong type.
type TypeMismatchError struct {
	Column   string
	Expected string
	Actual   DType
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("column %q: expected %s, got %s", e.Column, e.Expected, e.Actual)
}

// AggregationConflictError reports a select list mixing aggregated and
// non-aggregated expressions without a grouping.
type AggregationConflictError struct {
	Item string
}

func (e *AggregationConflictError) Error() string {
	return fmt.Sprintf("select mixes aggregations with non-aggregated expression %q; add a by clause", e.Item)
}

// ReshapeError reports an invalid pivot or melt specification.
type ReshapeError struct {
	Op     string // "pivot" or "melt"
	Reason string
}

func (e *ReshapeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

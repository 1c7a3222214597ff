package frame

import (
	"fmt"
	"sort"
)

// PivotSpec describes a long-to-wide reshape: one output row per distinct
// index combination, one new column per distinct value of Column, cells
// aggregated from Value.
type PivotSpec struct {
	Index       []string `json:"index"`
	Column      string   `json:"pivot_column"`
	Value       string   `json:"value_column"`
	Agg         string   `json:"aggregation"`
	SortColumns bool     `json:"sort_columns"`
}

// MeltSpec describes a wide-to-long reshape. Value holds the resolved value
// columns; VariableName and ValueName default to "variable" and "value".
type MeltSpec struct {
	Index        []string `json:"index"`
	Value        []string `json:"value_columns"`
	VariableName string   `json:"variable_name"`
	ValueName    string   `json:"value_name"`
}

type pivotOp struct {
	spec PivotSpec
}

// Pivot reshapes the frame long-to-wide.
func (lf *LazyFrame) Pivot(spec PivotSpec) *LazyFrame {
	return lf.with(&pivotOp{spec: spec})
}

func (op *pivotOp) apply(df *DataFrame) (*DataFrame, error) {
	spec := op.spec
	for _, name := range append(append([]string{}, spec.Index...), spec.Column, spec.Value) {
		if !df.HasColumn(name) {
			return nil, &ReshapeError{Op: "pivot", Reason: fmt.Sprintf("column %q not found", name)}
		}
	}
	fn, ok := NormalizeAggFn(spec.Agg)
	if !ok {
		return nil, &ReshapeError{Op: "pivot", Reason: fmt.Sprintf("unknown aggregation %q", spec.Agg)}
	}
	valueCol, _ := df.Column(spec.Value)
	if valueCol.Type == TypeString && fn != "first" && fn != "last" {
		return nil, &ReshapeError{
			Op:     "pivot",
			Reason: fmt.Sprintf("aggregation %q is not valid for string column %q; only first and last are", fn, spec.Value),
		}
	}
	pivotCol, _ := df.Column(spec.Column)

	indexCols := make([]Series, len(spec.Index))
	for i, name := range spec.Index {
		indexCols[i], _ = df.Column(name)
	}

	// Distinct pivot values in first-appearance order.
	headerIdx := make(map[string]int)
	var headers []string
	// Row groups by index key, first-appearance order.
	rowIdx := make(map[string]int)
	var rowOrder []int // representative source row per output row
	// cells[outRow][header] collects member values of Value.
	var cells []map[string][]interface{}

	for row := 0; row < df.Height(); row++ {
		header := formatCell(pivotCol.Values[row])
		if _, ok := headerIdx[header]; !ok {
			headerIdx[header] = len(headers)
			headers = append(headers, header)
		}
		key := groupKey(indexCols, row)
		ri, ok := rowIdx[key]
		if !ok {
			ri = len(rowOrder)
			rowIdx[key] = ri
			rowOrder = append(rowOrder, row)
			cells = append(cells, make(map[string][]interface{}))
		}
		cells[ri][header] = append(cells[ri][header], valueCol.Values[row])
	}

	if spec.SortColumns {
		sort.Strings(headers)
	}

	out := make([]Series, 0, len(spec.Index)+len(headers))
	for i, name := range spec.Index {
		values := make([]interface{}, len(rowOrder))
		for ri, src := range rowOrder {
			values[ri] = indexCols[i].Values[src]
		}
		out = append(out, Series{Name: name, Type: indexCols[i].Type, Unit: indexCols[i].Unit, Values: values})
	}
	for _, header := range headers {
		values := make([]interface{}, len(rowOrder))
		for ri := range rowOrder {
			v, err := reduce(fn, cells[ri][header])
			if err != nil {
				return nil, &ReshapeError{Op: "pivot", Reason: err.Error()}
			}
			values[ri] = v
		}
		out = append(out, Series{Name: header, Type: InferDType(values), Values: values})
	}
	return New(out...)
}

type meltOp struct {
	spec MeltSpec
}

// Melt reshapes the frame wide-to-long.
func (lf *LazyFrame) Melt(spec MeltSpec) *LazyFrame {
	return lf.with(&meltOp{spec: spec})
}

func (op *meltOp) apply(df *DataFrame) (*DataFrame, error) {
	spec := op.spec
	for _, name := range append(append([]string{}, spec.Index...), spec.Value...) {
		if !df.HasColumn(name) {
			return nil, &ReshapeError{Op: "melt", Reason: fmt.Sprintf("column %q not found", name)}
		}
	}
	if len(spec.Value) == 0 {
		return nil, &ReshapeError{Op: "melt", Reason: "no value columns"}
	}
	variable := spec.VariableName
	if variable == "" {
		variable = "variable"
	}
	valueName := spec.ValueName
	if valueName == "" {
		valueName = "value"
	}

	height := df.Height() * len(spec.Value)
	out := make([]Series, 0, len(spec.Index)+2)
	for _, name := range spec.Index {
		src, _ := df.Column(name)
		values := make([]interface{}, 0, height)
		for range spec.Value {
			values = append(values, src.Values...)
		}
		out = append(out, Series{Name: name, Type: src.Type, Unit: src.Unit, Values: values})
	}

	variables := make([]interface{}, 0, height)
	values := make([]interface{}, 0, height)
	for _, vc := range spec.Value {
		src, _ := df.Column(vc)
		for i := 0; i < df.Height(); i++ {
			variables = append(variables, vc)
			values = append(values, src.Values[i])
		}
	}
	out = append(out,
		Series{Name: variable, Type: TypeString, Values: variables},
		Series{Name: valueName, Type: InferDType(values), Values: values},
	)
	return New(out...)
}

// formatCell renders a cell for use as a pivot column header.
func formatCell(v interface{}) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%v", v)
}

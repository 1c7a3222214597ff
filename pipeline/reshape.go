package pipeline

import (
	"fmt"
	"path"
	"strings"

	"github.com/derekwisong/datui/frame"
)

// MeltStrategyKind selects how a melt request picks its value columns.
type MeltStrategyKind string

const (
	// MeltAllExceptIndex melts every column not named as an index.
	MeltAllExceptIndex MeltStrategyKind = "all-except-index"
	// MeltByPattern melts columns whose names match a glob pattern.
	MeltByPattern MeltStrategyKind = "pattern"
	// MeltByType melts columns of one type kind: numeric, string,
	// temporal, or boolean.
	MeltByType MeltStrategyKind = "dtype"
	// MeltExplicit melts an explicit column list.
	MeltExplicit MeltStrategyKind = "explicit"
)

// MeltStrategy describes value-column selection for a melt. Only the
// field matching Kind is consulted.
type MeltStrategy struct {
	Kind    MeltStrategyKind `json:"kind"`
	Pattern string           `json:"pattern,omitempty"`
	Type    string           `json:"type,omitempty"`
	Columns []string         `json:"columns,omitempty"`
}

// MeltRequest is a wide-to-long reshape whose value columns are resolved
// against the live schema at recompute time, so it stays valid as queries
// change the column set.
type MeltRequest struct {
	Index        []string     `json:"index"`
	Strategy     MeltStrategy `json:"strategy"`
	VariableName string       `json:"variable_name,omitempty"`
	ValueName    string       `json:"value_name,omitempty"`
}

// resolve expands the strategy into a concrete backend melt spec.
func (m MeltRequest) resolve(schema frame.Schema) (frame.MeltSpec, error) {
	index := make(map[string]bool, len(m.Index))
	for _, name := range m.Index {
		if _, ok := schema.Lookup(name); !ok {
			return frame.MeltSpec{}, &frame.ReshapeError{Op: "melt", Reason: fmt.Sprintf("index column %q not found", name)}
		}
		index[name] = true
	}

	var value []string
	switch m.Strategy.Kind {
	case MeltAllExceptIndex, "":
		for _, f := range schema {
			if !index[f.Name] {
				value = append(value, f.Name)
			}
		}
	case MeltByPattern:
		for _, f := range schema {
			if index[f.Name] {
				continue
			}
			ok, err := path.Match(m.Strategy.Pattern, f.Name)
			if err != nil {
				return frame.MeltSpec{}, &frame.ReshapeError{Op: "melt", Reason: fmt.Sprintf("bad pattern %q", m.Strategy.Pattern)}
			}
			if ok {
				value = append(value, f.Name)
			}
		}
	case MeltByType:
		for _, f := range schema {
			if index[f.Name] {
				continue
			}
			if typeKindMatches(f.Type, m.Strategy.Type) {
				value = append(value, f.Name)
			}
		}
	case MeltExplicit:
		value = append(value, m.Strategy.Columns...)
	default:
		return frame.MeltSpec{}, &frame.ReshapeError{Op: "melt", Reason: fmt.Sprintf("unknown strategy %q", m.Strategy.Kind)}
	}

	if len(value) == 0 {
		return frame.MeltSpec{}, &frame.ReshapeError{Op: "melt", Reason: "strategy selected no value columns"}
	}
	return frame.MeltSpec{
		Index:        m.Index,
		Value:        value,
		VariableName: m.VariableName,
		ValueName:    m.ValueName,
	}, nil
}

func typeKindMatches(t frame.DType, kind string) bool {
	switch strings.ToLower(kind) {
	case "numeric":
		return t.IsNumeric()
	case "string":
		return t == frame.TypeString
	case "temporal":
		return t.IsTemporal()
	case "boolean":
		return t == frame.TypeBool
	default:
		return false
	}
}

// ReshapeSpec holds the active reshape: a pivot or a melt, never both.
type ReshapeSpec struct {
	Pivot *frame.PivotSpec `json:"pivot,omitempty"`
	Melt  *MeltRequest     `json:"melt,omitempty"`
}

func (r ReshapeSpec) validate() error {
	if r.Pivot != nil && r.Melt != nil {
		return fmt.Errorf("reshape cannot hold both a pivot and a melt")
	}
	if r.Pivot == nil && r.Melt == nil {
		return fmt.Errorf("reshape holds neither a pivot nor a melt")
	}
	return nil
}

// ColumnOrderSpec pins the display order of columns. The first
// LockedCount entries of Order stay fixed while the view scrolls
// horizontally.
type ColumnOrderSpec struct {
	Order       []string `json:"order"`
	LockedCount int      `json:"locked_count"`
}

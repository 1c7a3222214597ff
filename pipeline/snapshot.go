package pipeline

// Snapshot is the serializable form of the pipeline's settings, used for
// saved templates. Absent stages marshal as absent fields.
type Snapshot struct {
	Query       string            `json:"query,omitempty"`
	Filters     []FilterStatement `json:"filters,omitempty"`
	Sort        *SortSpec         `json:"sort,omitempty"`
	Reshape     *ReshapeSpec      `json:"reshape,omitempty"`
	ColumnOrder *ColumnOrderSpec  `json:"column_order,omitempty"`
}

// IsEmpty reports whether the snapshot carries no settings at all.
func (s Snapshot) IsEmpty() bool {
	return s.Query == "" && len(s.Filters) == 0 && s.Sort == nil &&
		s.Reshape == nil && s.ColumnOrder == nil
}

// Capture copies the current settings into a snapshot.
func (p *Pipeline) Capture() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	snap := Snapshot{Query: p.queryText}
	if len(p.filters) > 0 {
		snap.Filters = append([]FilterStatement(nil), p.filters...)
	}
	if p.sort != nil {
		s := *p.sort
		snap.Sort = &s
	}
	if p.reshape != nil {
		r := *p.reshape
		snap.Reshape = &r
	}
	if p.order != nil {
		o := *p.order
		snap.ColumnOrder = &o
	}
	return snap
}

// Apply replays a snapshot onto the pipeline, stage by stage. A stage
// that fails to apply, such as a query that no longer parses, is skipped
// and reported; the remaining stages still apply. The caller decides
// whether partial application is acceptable.
func (p *Pipeline) Apply(snap Snapshot) []*StageError {
	var failed []*StageError
	record := func(err error) {
		if err == nil {
			return
		}
		if se, ok := err.(*StageError); ok {
			failed = append(failed, se)
			return
		}
		failed = append(failed, &StageError{Stage: "snapshot", Cause: err})
	}

	if snap.Query != "" {
		record(p.SetQuery(snap.Query))
	} else {
		p.ClearQuery()
	}
	if len(snap.Filters) > 0 {
		p.SetFilters(snap.Filters)
	} else {
		p.ClearFilters()
	}
	if snap.Sort != nil {
		p.SetSort(*snap.Sort)
	} else {
		p.ClearSort()
	}
	if snap.Reshape != nil {
		record(p.SetReshape(*snap.Reshape))
	} else {
		p.ClearReshape()
	}
	if snap.ColumnOrder != nil {
		p.SetColumnOrder(*snap.ColumnOrder)
	} else {
		p.ClearColumnOrder()
	}
	return failed
}

// Package pipeline orchestrates the deterministic transformation pipeline
// over a base frame: query, structured filters, sort, reshape, and column
// order, always reapplied in that fixed order from the original source.
// Settings can be changed in any order; the result depends only on what is
// set, never on when it was set.
package pipeline

import (
	"sync"

	"github.com/derekwisong/datui/frame"
	"github.com/derekwisong/datui/query"
)

// State is the pipeline lifecycle state.
type State int

const (
	// StateClean means the result matches the current settings.
	StateClean State = iota
	// StateDirty means a setting changed since the last recompute.
	StateDirty
	// StateComputing means a recompute is in flight.
	StateComputing
	// StateError means the last recompute failed; the previous result is
	// kept for display.
	StateError
)

func (s State) String() string {
	switch s {
	case StateClean:
		return "clean"
	case StateDirty:
		return "dirty"
	case StateComputing:
		return "computing"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// SortKeySpec is one column/direction pair of a sort setting.
type SortKeySpec struct {
	Column     string `json:"column"`
	Descending bool   `json:"descending,omitempty"`
}

// SortSpec is the active sort setting.
type SortSpec struct {
	Keys []SortKeySpec `json:"keys"`
}

// Pipeline holds the base frame and the five stage settings. All methods
// are safe for concurrent use.
type Pipeline struct {
	mu   sync.Mutex
	base *frame.DataFrame

	queryText string
	parsed    *query.ParsedQuery
	filters   []FilterStatement
	sort      *SortSpec
	reshape   *ReshapeSpec
	order     *ColumnOrderSpec

	// version counts settings changes. A recompute captures it with the
	// settings and only publishes if it is still current, so a run that
	// was superseded mid-flight can never overwrite a newer result.
	version uint64

	state   State
	lastErr error
	result  *frame.DataFrame
}

// New builds a pipeline over the base frame. The initial result is the
// base itself.
func New(base *frame.DataFrame) *Pipeline {
	return &Pipeline{base: base, result: base, state: StateClean}
}

// Base returns the untransformed source frame.
func (p *Pipeline) Base() *frame.DataFrame {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.base
}

// SetQuery parses and installs query text. A parse failure leaves the
// active query unchanged.
func (p *Pipeline) SetQuery(text string) error {
	parsed, err := query.ParseQuery(text)
	if err != nil {
		return stageErr(StageQuery, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queryText = text
	p.parsed = parsed
	p.markDirty()
	return nil
}

// ClearQuery removes the active query.
func (p *Pipeline) ClearQuery() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queryText = ""
	p.parsed = nil
	p.markDirty()
}

// Query returns the active query text.
func (p *Pipeline) Query() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queryText
}

// SetFilters replaces the structured filter list.
func (p *Pipeline) SetFilters(filters []FilterStatement) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.filters = append([]FilterStatement(nil), filters...)
	p.markDirty()
}

// ClearFilters removes all structured filters.
func (p *Pipeline) ClearFilters() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.filters = nil
	p.markDirty()
}

// SetSort replaces the sort setting.
func (p *Pipeline) SetSort(spec SortSpec) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sort = &spec
	p.markDirty()
}

// ClearSort removes the sort setting.
func (p *Pipeline) ClearSort() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sort = nil
	p.markDirty()
}

// SetReshape installs a reshape. Exactly one of pivot or melt must be
// present.
func (p *Pipeline) SetReshape(spec ReshapeSpec) error {
	if err := spec.validate(); err != nil {
		return stageErr(StageReshape, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reshape = &spec
	p.markDirty()
	return nil
}

// ClearReshape removes the reshape setting.
func (p *Pipeline) ClearReshape() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reshape = nil
	p.markDirty()
}

// SetColumnOrder installs the column order and lock count.
func (p *Pipeline) SetColumnOrder(spec ColumnOrderSpec) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.order = &spec
	p.markDirty()
}

// ClearColumnOrder removes the column order setting.
func (p *Pipeline) ClearColumnOrder() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.order = nil
	p.markDirty()
}

// markDirty must be called with the lock held. Bumping the version
// invalidates any recompute already in flight: its outcome will fail the
// publication check, keeping the state Dirty until a recompute of the new
// settings lands.
func (p *Pipeline) markDirty() {
	p.version++
	p.state = StateDirty
}

// State returns the lifecycle state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Err returns the error of the last failed recompute, nil otherwise.
func (p *Pipeline) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// Result returns the last successfully computed frame. While the state is
// Dirty or Error this is the previous good result.
func (p *Pipeline) Result() *frame.DataFrame {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.result
}

// settings is an immutable copy of the stage configuration, taken under
// the lock so a recompute sees one consistent view.
type settings struct {
	parsed  *query.ParsedQuery
	filters []FilterStatement
	sort    *SortSpec
	reshape *ReshapeSpec
	order   *ColumnOrderSpec
}

// Recompute reapplies every set stage to the base frame, in fixed order.
// On success the result replaces the previous one and the state returns
// to Clean; on failure the previous result is kept and the state becomes
// Error.
//
// If a setting changes while the recompute is running, the outcome is
// returned to the caller but not published: Result, State, and Err keep
// reflecting the newest settings, never a superseded run that finished
// late.
func (p *Pipeline) Recompute() (*frame.DataFrame, error) {
	p.mu.Lock()
	p.state = StateComputing
	base := p.base
	version := p.version
	s := settings{
		parsed:  p.parsed,
		filters: append([]FilterStatement(nil), p.filters...),
		sort:    p.sort,
		reshape: p.reshape,
		order:   p.order,
	}
	p.mu.Unlock()

	df, err := apply(base, s)

	p.mu.Lock()
	defer p.mu.Unlock()
	if version != p.version {
		// Superseded mid-flight; whoever bumped the version left the
		// state Dirty, and a newer recompute owns publication now.
		return df, err
	}
	if err != nil {
		p.state = StateError
		p.lastErr = err
		return nil, err
	}
	p.state = StateClean
	p.lastErr = nil
	p.result = df
	return df, nil
}

// apply runs the stages. Each stage materializes so the next one resolves
// against the schema the previous one produced.
func apply(base *frame.DataFrame, s settings) (*frame.DataFrame, error) {
	df := base

	if s.parsed != nil && !s.parsed.IsIdentity() {
		lf, err := query.Compile(s.parsed, df.Lazy())
		if err != nil {
			return nil, stageErr(StageQuery, err)
		}
		df, err = lf.Collect()
		if err != nil {
			return nil, stageErr(StageQuery, err)
		}
	}

	if len(s.filters) > 0 {
		lf := df.Lazy()
		schema := df.Schema()
		for _, f := range s.filters {
			pred, err := f.predicate(schema)
			if err != nil {
				return nil, stageErr(StageFilters, err)
			}
			lf = lf.Filter(pred)
		}
		var err error
		df, err = lf.Collect()
		if err != nil {
			return nil, stageErr(StageFilters, err)
		}
	}

	if s.sort != nil && len(s.sort.Keys) > 0 {
		keys := make([]frame.SortKey, len(s.sort.Keys))
		for i, k := range s.sort.Keys {
			keys[i] = frame.SortKey{Column: k.Column, Desc: k.Descending}
		}
		var err error
		df, err = df.Lazy().Sort(keys...).Collect()
		if err != nil {
			return nil, stageErr(StageSort, err)
		}
	}

	if s.reshape != nil {
		lf := df.Lazy()
		switch {
		case s.reshape.Pivot != nil:
			lf = lf.Pivot(*s.reshape.Pivot)
		case s.reshape.Melt != nil:
			spec, err := s.reshape.Melt.resolve(df.Schema())
			if err != nil {
				return nil, stageErr(StageReshape, err)
			}
			lf = lf.Melt(spec)
		}
		var err error
		df, err = lf.Collect()
		if err != nil {
			return nil, stageErr(StageReshape, err)
		}
	}

	if s.order != nil && len(s.order.Order) > 0 {
		var err error
		df, err = df.Lazy().Reorder(s.order.Order).Collect()
		if err != nil {
			return nil, stageErr(StageColumnOrder, err)
		}
	}

	return df, nil
}

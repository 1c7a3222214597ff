package pipeline

import "fmt"

// Stage names one step of the transformation pipeline, in application
// order.
type Stage string

const (
	StageQuery       Stage = "query"
	StageFilters     Stage = "filters"
	StageSort        Stage = "sort"
	StageReshape     Stage = "reshape"
	StageColumnOrder Stage = "column-order"
)

// StageError wraps a failure with the stage it occurred in, so the UI can
// point at the offending setting.
type StageError struct {
	Stage Stage
	Cause error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Cause)
}

func (e *StageError) Unwrap() error { return e.Cause }

func stageErr(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Cause: err}
}

package pipeline

import (
	"github.com/pkg/errors"

	"github.com/mrsingh-rishi/storybook-narrator/model"
)

// StageError reports which stage of a run failed.
type StageError struct {
	Stage model.Stage
	Err   error
}

func (e *StageError) Error() string {
	return string(e.Stage) + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error { return e.Err }

// stageErr records a stack at the failure site for the log.
func stageErr(stage model.Stage, err error) error {
	return errors.WithStack(&StageError{Stage: stage, Err: err})
}

// FailedStage returns the stage recorded in err, if any.
func FailedStage(err error) (model.Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}

package installer

import (
	"errors"
	"fmt"

	"jvmget/task"
)

// Stage sentinels. A failure from the catalog stage onwards matches exactly
// one of them through errors.Is on the result's Cause. Locator failures and a
// context ending while waiting on a concurrent install are returned as is.
var (
	ErrCatalog     = errors.New("catalog query failed")
	ErrSelection   = errors.New("no matching release")
	ErrDownload    = task.ErrDownload
	ErrUnpack      = task.ErrUnpack
	ErrConsistency = errors.New("installation not found after unpack")
)

// StageError ties an underlying failure to the install stage it happened in
type StageError struct {
	Stage error
	Msg   string
	Err   error
}

func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Err != nil && errors.Is(e.Err, e.Stage):
		// task errors already carry the stage prefix
		if e.Msg != "" {
			return fmt.Sprintf("%v (%s)", e.Err, e.Msg)
		}
		return e.Err.Error()
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Msg, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Stage, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return e.Stage.Error()
}

func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Stage}
	}
	return []error{e.Stage, e.Err}
}

func stageErr(stage error, msg string, err error) error {
	return &StageError{Stage: stage, Msg: msg, Err: err}
}

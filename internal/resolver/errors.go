package resolver

import (
	"errors"
	"fmt"
)

// ErrComputationFailed matches every *Error returned by Resolve.
var ErrComputationFailed = errors.New("resolver: score computation failed")

// Stage names the pipeline step that failed.
type Stage string

const (
	StageFetch   Stage = "fetch"
	StageExtract Stage = "extract"
	StageCompute Stage = "compute"
)

// Error is the single failure outcome of a recomputation. The stored record is
// left as it was. Err keeps the underlying cause for errors.As.
type Error struct {
	ID    string
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("resolver: %s %s: %v", e.Stage, e.ID, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrComputationFailed) hold for any *Error.
func (e *Error) Is(target error) bool {
	return target == ErrComputationFailed
}

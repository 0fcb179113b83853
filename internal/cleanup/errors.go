package cleanup

import "errors"

var (
	ErrPartialSweep   = errors.New("some items could not be removed")
	ErrNothingRemoved = errors.New("none of the paths were present")
)

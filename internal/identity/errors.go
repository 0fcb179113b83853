package identity

import "errors"

var (
	ErrCorruptState = errors.New("identity state file is not a valid JSON object")
	ErrIOFailure    = errors.New("identity state file could not be written")
)

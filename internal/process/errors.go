package process

import "errors"

var (
	ErrNotInstalled       = errors.New("application is not installed")
	ErrTerminateFailed    = errors.New("failed to terminate process")
	ErrNothingToTerminate = errors.New("launched application was no longer running")
)

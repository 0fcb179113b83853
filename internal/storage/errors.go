package storage

import "errors"

var (
	ErrUnsupportedPlatform = errors.New("unsupported operating system")
)

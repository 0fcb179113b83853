package installer

import "errors"

var (
	ErrEndpointUnreachable   = errors.New("download endpoint unreachable")
	ErrBadResponse           = errors.New("bad response from download endpoint")
	ErrDownloadIncomplete    = errors.New("installer download incomplete")
	ErrInstallerLaunchFailed = errors.New("installer could not be launched")
	ErrInstallerFailed       = errors.New("installer did not complete successfully")
)

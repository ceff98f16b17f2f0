package resources

import "errors"

var (
	ErrClosed      = errors.New("loader closed")
	ErrUnsupported = errors.New("unsupported resource format")
)

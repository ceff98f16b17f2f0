package registry

import "errors"

var (
	ErrDuplicateRegistration = errors.New("class already registered")
	ErrUnknownClass          = errors.New("unknown class")
	ErrAbstractClass         = errors.New("class is not creatable")
	ErrNotReady              = errors.New("registry is not sealed")
	ErrSealed                = errors.New("registry is sealed")
)

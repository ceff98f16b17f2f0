package components

import "errors"

var (
	ErrNilOwner        = errors.New("component owner is nil")
	ErrUnknownKind     = errors.New("unknown component kind")
	ErrDuplicateKind   = errors.New("component kind already registered")
	ErrMissingRequired = errors.New("required component kind not registered")
)

package value

import "errors"

var (
	ErrTypeMismatch    = errors.New("value type mismatch")
	ErrIndexOutOfRange = errors.New("array index out of range")
	ErrNotCallable     = errors.New("function value has no callee")
	ErrTooDeep         = errors.New("value nesting too deep")
)

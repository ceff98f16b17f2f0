package reflection

import "errors"

var (
	ErrPropertyNotFound  = errors.New("property not found")
	ErrProcedureNotFound = errors.New("procedure not found")
	ErrEventNotFound     = errors.New("event not found")
	ErrInvalidValueType  = errors.New("invalid value type")
	ErrReadOnlyProperty  = errors.New("property is read-only")
	ErrArgument          = errors.New("argument error")
	ErrInvalidReceiver   = errors.New("receiver does not implement class")
	ErrNoEventSource     = errors.New("receiver cannot carry events")
)

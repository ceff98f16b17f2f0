package bridge

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTarget = errors.New("target is not an object reference")
	ErrNativePanic   = errors.New("native code panicked")
)

// ScriptError is the only error type the bridge returns. Err is one of the
// sentinel errors of the reflection, models, registry or value packages, or
// ErrNativePanic.
type ScriptError struct {
	Op     string // get, set, call, connect, create
	Class  string
	Member string
	Err    error
}

func (e *ScriptError) Error() string {
	switch {
	case e.Class == "":
		return fmt.Sprintf("%s %s: %v", e.Op, e.Member, e.Err)
	case e.Member == "":
		return fmt.Sprintf("%s %s: %v", e.Op, e.Class, e.Err)
	default:
		return fmt.Sprintf("%s %s.%s: %v", e.Op, e.Class, e.Member, e.Err)
	}
}

func (e *ScriptError) Unwrap() error { return e.Err }

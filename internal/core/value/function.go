package value

import (
	"fmt"

	"github.com/google/uuid"
)

// Callable is the native shape of a script-defined function.
type Callable func(args []Value) (Value, error)

// Function is a script callback carried inside a Value. Two Function values
// are equal only when they wrap the same *Function.
type Function struct {
	id   string
	name string
	call Callable
}

// NewFunction wraps fn under a display name.
func NewFunction(name string, fn Callable) *Function {
	return &Function{id: uuid.NewString(), name: name, call: fn}
}

func (f *Function) ID() string { return f.id }

func (f *Function) Name() string {
	if f == nil || f.name == "" {
		return "<anonymous>"
	}
	return f.name
}

// Call invokes the function. A callee returning no value yields Null.
func (f *Function) Call(args ...Value) (Value, error) {
	if f == nil || f.call == nil {
		return Null(), fmt.Errorf("%w: %s", ErrNotCallable, f.Name())
	}
	return f.call(args)
}

// Package bridge is the surface the embedded interpreter talks to. Every
// call is synchronous and goes through the target's reflection table; the
// bridge never sees concrete native types.
package bridge

import (
	"fmt"

	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/events/bus"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/models"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/observability/log"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/value"
)

const (
	OpGet     = "get"
	OpSet     = "set"
	OpCall    = "call"
	OpConnect = "connect"
	OpCreate  = "create"
)

type Bridge struct {
	world *models.World
	log   log.Log
}

func New(world *models.World, logger log.Log) *Bridge {
	return &Bridge{
		world: world,
		log:   logger.With(log.String("component", "bridge")),
	}
}

func (b *Bridge) World() *models.World { return b.world }

// Ref converts an object into the Value scripts hold.
func Ref(obj models.Object) value.Value {
	return value.Ref(obj.Base().ID())
}

// Get reads a property of target.
func (b *Bridge) Get(target value.Value, prop string) (out value.Value, err error) {
	out = value.Null()
	err = b.guard(OpGet, target, prop, func(obj models.Object) error {
		v, err := obj.Base().Api().Get(obj, prop)
		out = v
		return err
	})
	return out, err
}

// Set writes a property of target.
func (b *Bridge) Set(target value.Value, prop string, v value.Value) error {
	return b.guard(OpSet, target, prop, func(obj models.Object) error {
		return obj.Base().Api().Set(obj, prop, v)
	})
}

// Call invokes a procedure of target. Procedures without a result return
// Null.
func (b *Bridge) Call(target value.Value, proc string, args ...value.Value) (out value.Value, err error) {
	out = value.Null()
	err = b.guard(OpCall, target, proc, func(obj models.Object) error {
		v, err := obj.Base().Api().Invoke(obj, proc, args)
		out = v
		return err
	})
	return out, err
}

// Connect subscribes a script Function to an event of target.
func (b *Bridge) Connect(target value.Value, event string, callback value.Value) (conn *bus.Connection, err error) {
	err = b.guard(OpConnect, target, event, func(obj models.Object) error {
		fn, err := callback.AsFunction()
		if err != nil {
			return err
		}
		conn, err = obj.Base().Api().Subscribe(obj, event, b.handler(fn))
		return err
	})
	return conn, err
}

// handler adapts a script Function to a subscriber. A panicking callback is
// reported as an error from the fire that ran it.
func (b *Bridge) handler(fn *value.Function) bus.Handler {
	return func(args []value.Value) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: callback %s: %v", ErrNativePanic, fn.Name(), r)
				b.log.Error("script callback panicked", log.String("callback", fn.Name()), log.Any("panic", r))
			}
		}()
		_, err = fn.Call(args...)
		return err
	}
}

// Create builds and adopts an entity of class through the registry.
func (b *Bridge) Create(class string) (out value.Value, err error) {
	out = value.Null()
	defer b.rescue(OpCreate, class, "", &err)
	obj, err := b.world.Create(class)
	if err != nil {
		return out, b.fail(&ScriptError{Op: OpCreate, Class: class, Err: err})
	}
	return Ref(obj), nil
}

// Resolve returns the live object behind target.
func (b *Bridge) Resolve(target value.Value) (models.Object, error) {
	id, err := target.AsRef()
	if err != nil {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidTarget, target.Tag())
	}
	return b.world.Get(id)
}

func (b *Bridge) guard(op string, target value.Value, member string, fn func(models.Object) error) (err error) {
	obj, err := b.Resolve(target)
	if err != nil {
		return b.fail(&ScriptError{Op: op, Member: member, Err: err})
	}
	class := obj.Base().ClassName()
	defer b.rescue(op, class, member, &err)
	if err = fn(obj); err != nil {
		return b.fail(&ScriptError{Op: op, Class: class, Member: member, Err: err})
	}
	return nil
}

func (b *Bridge) rescue(op, class, member string, err *error) {
	r := recover()
	if r == nil {
		return
	}
	b.log.Error("native code panicked",
		log.String("op", op),
		log.String("class", class),
		log.String("member", member),
		log.Any("panic", r),
	)
	*err = &ScriptError{Op: op, Class: class, Member: member, Err: fmt.Errorf("%w: %v", ErrNativePanic, r)}
}

func (b *Bridge) fail(se *ScriptError) error {
	b.log.Debug("script error", log.Error(se))
	return se
}

// Package reflection implements per-class dispatch tables ("Apis") of named
// properties, procedures and events with single-parent inheritance.
//
// An Api never knows the Go type of the objects it serves: getters, setters
// and procedures receive the instance as `any` and assert the shape they need.
// Bind and BindProcedure wrap typed closures so class code stays typed.
package reflection

import (
	"fmt"
	"slices"

	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/events/bus"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/value"
)

type (
	Getter        func(self any) (value.Value, error)
	Setter        func(self any, v value.Value) error
	ProcedureFunc func(self any, args []value.Value) (value.Value, error)
)

// Property is a getter/setter pair accepting values of one tag.
type Property struct {
	Name  string
	Type  value.Tag
	Get   Getter
	Set   Setter // nil for read-only properties
	Owner *Api
}

// ReadOnly reports whether the property lacks a setter.
func (p *Property) ReadOnly() bool { return p.Set == nil }

// Accepts reports whether v may be assigned to the property. Object
// references may always be cleared with Null.
func (p *Property) Accepts(v value.Value) bool {
	return v.Tag() == p.Type || (p.Type == value.TagObjectRef && v.IsNull())
}

// Procedure is a native callable with a fixed parameter list.
type Procedure struct {
	Name   string
	Params []value.Tag
	// Variadic procedures accept any number of extra trailing arguments.
	Variadic bool
	Call     ProcedureFunc
	Owner    *Api
}

// CheckArgs validates arity and tags without coercing anything.
func (p *Procedure) CheckArgs(args []value.Value) error {
	if len(args) < len(p.Params) || (!p.Variadic && len(args) > len(p.Params)) {
		return fmt.Errorf("%w: %s expects %d argument(s), got %d", ErrArgument, p.Name, len(p.Params), len(args))
	}
	for i, want := range p.Params {
		if args[i].Tag() != want {
			return fmt.Errorf("%w: %s argument #%d expects %s, got %s", ErrArgument, p.Name, i+1, want, args[i].Tag())
		}
	}
	return nil
}

// Event is a declared event name. Subscribers live on each instance.
type Event struct {
	Name  string
	Owner *Api
}

// EventSource is implemented by instances that can carry per-instance event
// subscriber lists. Signal creates the list on first use; LookupSignal never
// allocates.
type EventSource interface {
	Signal(name string) bus.Signal
	LookupSignal(name string) (bus.Signal, bool)
}

// Api is the reflection table of one class.
type Api struct {
	class      string
	base       *Api
	properties map[string]*Property
	procedures map[string]*Procedure
	events     map[string]*Event
	changed    string
}

// NewApi creates the table for class, optionally inheriting from base.
func NewApi(class string, base *Api) *Api {
	return &Api{
		class:      class,
		base:       base,
		properties: make(map[string]*Property),
		procedures: make(map[string]*Procedure),
		events:     make(map[string]*Event),
	}
}

func (a *Api) Class() string { return a.class }

func (a *Api) Base() *Api { return a.base }

// Inherit sets the base table. A class has at most one base; calling Inherit
// again replaces it.
func (a *Api) Inherit(base *Api) *Api {
	for b := base; b != nil; b = b.base {
		if b == a {
			panic(fmt.Sprintf("reflection: %s cannot inherit from its own descendant %s", a.class, base.class))
		}
	}
	a.base = base
	return a
}

// IsA reports whether class names this table or one of its bases.
func (a *Api) IsA(class string) bool {
	for t := a; t != nil; t = t.base {
		if t.class == class {
			return true
		}
	}
	return false
}

// DeclareProperty adds or replaces a property on this table. Declaring a name
// already present on a base shadows the base entry for this class.
func (a *Api) DeclareProperty(name string, tag value.Tag, get Getter, set Setter) *Api {
	if get == nil {
		panic(fmt.Sprintf("reflection: property %s.%s has no getter", a.class, name))
	}
	a.properties[name] = &Property{Name: name, Type: tag, Get: get, Set: set, Owner: a}
	return a
}

// DeclareProcedure adds or replaces a procedure on this table.
func (a *Api) DeclareProcedure(name string, params []value.Tag, fn ProcedureFunc) *Api {
	a.procedures[name] = &Procedure{Name: name, Params: params, Call: fn, Owner: a}
	return a
}

// DeclareVariadic adds a procedure accepting extra trailing arguments.
func (a *Api) DeclareVariadic(name string, params []value.Tag, fn ProcedureFunc) *Api {
	a.procedures[name] = &Procedure{Name: name, Params: params, Variadic: true, Call: fn, Owner: a}
	return a
}

// DeclareEvent adds an event name to this table.
func (a *Api) DeclareEvent(name string) *Api {
	a.events[name] = &Event{Name: name, Owner: a}
	return a
}

// NotifyChanges makes every successful Set fire event with the property name.
// Derived tables inherit the setting.
func (a *Api) NotifyChanges(event string) *Api {
	a.changed = event
	return a
}

func (a *Api) changeEvent() string {
	for t := a; t != nil; t = t.base {
		if t.changed != "" {
			return t.changed
		}
	}
	return ""
}

// ResolveProperty walks the chain from this table upward.
func (a *Api) ResolveProperty(name string) (*Property, error) {
	for t := a; t != nil; t = t.base {
		if p, ok := t.properties[name]; ok {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s.%s", ErrPropertyNotFound, a.class, name)
}

// ResolveProcedure walks the chain from this table upward.
func (a *Api) ResolveProcedure(name string) (*Procedure, error) {
	for t := a; t != nil; t = t.base {
		if p, ok := t.procedures[name]; ok {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s.%s", ErrProcedureNotFound, a.class, name)
}

// ResolveEvent walks the chain from this table upward.
func (a *Api) ResolveEvent(name string) (*Event, error) {
	for t := a; t != nil; t = t.base {
		if e, ok := t.events[name]; ok {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: %s.%s", ErrEventNotFound, a.class, name)
}

// Get reads a property of self.
func (a *Api) Get(self any, name string) (value.Value, error) {
	p, err := a.ResolveProperty(name)
	if err != nil {
		return value.Null(), err
	}
	return p.Get(self)
}

// Set writes a property of self after checking the value tag.
func (a *Api) Set(self any, name string, v value.Value) error {
	p, err := a.ResolveProperty(name)
	if err != nil {
		return err
	}
	if p.ReadOnly() {
		return fmt.Errorf("%w: %s.%s", ErrReadOnlyProperty, a.class, name)
	}
	if !p.Accepts(v) {
		return fmt.Errorf("%w: %s.%s expects %s, got %s", ErrInvalidValueType, a.class, name, p.Type, v.Tag())
	}
	if err = p.Set(self, v); err != nil {
		return err
	}
	event := a.changeEvent()
	if _, ok := self.(EventSource); !ok || event == "" {
		return nil
	}
	if _, err = a.ResolveEvent(event); err != nil {
		return nil
	}
	return a.Fire(self, event, value.String(name))
}

// Invoke calls a procedure of self. Arguments must match the declared
// parameter tags exactly.
func (a *Api) Invoke(self any, name string, args []value.Value) (value.Value, error) {
	p, err := a.ResolveProcedure(name)
	if err != nil {
		return value.Null(), err
	}
	if err = p.CheckArgs(args); err != nil {
		return value.Null(), err
	}
	return p.Call(self, args)
}

// Fire invokes the subscribers of a declared event on self, in subscription
// order, synchronously.
func (a *Api) Fire(self any, name string, args ...value.Value) error {
	src, err := a.source(self, name)
	if err != nil {
		return err
	}
	sig, ok := src.LookupSignal(name)
	if !ok {
		return nil
	}
	return sig.Fire(args...)
}

// Subscribe connects handler to a declared event on self.
func (a *Api) Subscribe(self any, name string, handler bus.Handler) (*bus.Connection, error) {
	src, err := a.source(self, name)
	if err != nil {
		return nil, err
	}
	return src.Signal(name).Connect(handler), nil
}

func (a *Api) source(self any, name string) (EventSource, error) {
	if _, err := a.ResolveEvent(name); err != nil {
		return nil, err
	}
	src, ok := self.(EventSource)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNoEventSource, self)
	}
	return src, nil
}

// PropertyNames lists every property visible on this class, inherited ones
// included, sorted.
func (a *Api) PropertyNames() []string {
	return a.collect(func(t *Api) []string { return keys(t.properties) })
}

// ProcedureNames lists every procedure visible on this class, sorted.
func (a *Api) ProcedureNames() []string {
	return a.collect(func(t *Api) []string { return keys(t.procedures) })
}

// EventNames lists every event visible on this class, sorted.
func (a *Api) EventNames() []string {
	return a.collect(func(t *Api) []string { return keys(t.events) })
}

func (a *Api) collect(names func(*Api) []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for t := a; t != nil; t = t.base {
		for _, n := range names(t) {
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	slices.Sort(out)
	return out
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

package models

import (
	"slices"

	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/events/bus"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/handle"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/reflection"
)

// State is the lifecycle stage of an entity.
type State uint8

const (
	StateDetached State = iota // not adopted by a world yet
	StateAlive
	StateDestroying
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateDetached:
		return "detached"
	case StateAlive:
		return "alive"
	case StateDestroying:
		return "destroying"
	default:
		return "destroyed"
	}
}

// Object is anything built around an Entity. Concrete classes embed Entity
// and get Base for free.
type Object interface {
	Base() *Entity
}

// Entity is a scene graph node. The parent and children are ids, never
// pointers: the World resolves them and reports stale ones.
type Entity struct {
	id       handle.ID
	name     string
	class    string
	api      *reflection.Api
	parent   handle.ID
	children []handle.ID
	world    *World
	state    State
	signals  map[string]bus.Signal
}

var _ reflection.EventSource = (*Entity)(nil)

func (e *Entity) Base() *Entity { return e }

// Bind attaches the class name and reflection table. The registry calls it
// once right after construction.
func (e *Entity) Bind(class string, api *reflection.Api) {
	e.class = class
	e.api = api
	if e.name == "" {
		e.name = class
	}
}

func (e *Entity) ID() handle.ID { return e.id }

func (e *Entity) Name() string { return e.name }

func (e *Entity) SetName(name string) { e.name = name }

func (e *Entity) ClassName() string { return e.class }

func (e *Entity) Api() *reflection.Api { return e.api }

// Parent returns the parent id or handle.Nil.
func (e *Entity) Parent() handle.ID { return e.parent }

// Children returns a copy of the ordered child ids.
func (e *Entity) Children() []handle.ID { return slices.Clone(e.children) }

func (e *Entity) World() *World { return e.world }

func (e *Entity) State() State { return e.state }

// Alive reports whether the entity is in a world and not being destroyed.
func (e *Entity) Alive() bool { return e.state == StateAlive }

// Signal returns the subscriber list for an event, creating it on first use.
func (e *Entity) Signal(name string) bus.Signal {
	if s, ok := e.signals[name]; ok {
		return s
	}
	if e.signals == nil {
		e.signals = make(map[string]bus.Signal)
	}
	s := bus.New(name)
	e.signals[name] = s
	return s
}

func (e *Entity) LookupSignal(name string) (bus.Signal, bool) {
	s, ok := e.signals[name]
	return s, ok
}

func (e *Entity) dropSignals() {
	for _, s := range e.signals {
		s.DisconnectAll()
	}
	e.signals = nil
}

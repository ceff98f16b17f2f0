// Package models holds the entity graph: entities, the arena that owns them
// and the parent/child relation between them.
package models

import (
	"fmt"
	"iter"
	"reflect"
	"slices"
	"strings"

	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/components"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/events/bus"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/handle"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/observability/log"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/value"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/pkg/sequence"
)

// Lifecycle events fired on entities whose class declares them.
const (
	EventChildAdded   = "ChildAdded"
	EventChildRemoved = "ChildRemoved"
	EventDestroying   = "Destroying"
)

// Factory builds an unadopted object for a class name.
type Factory interface {
	Create(class string) (Object, error)
}

type Options struct {
	// MaxEntities caps live entities; 0 means unlimited.
	MaxEntities int
	// MaxSearchDepth bounds FindByName, FindByPath and Descendants.
	MaxSearchDepth int
}

const DefaultMaxSearchDepth = 64

type arenaSlot struct {
	generation uint32
	obj        Object
}

// World owns every live entity. It is not safe for concurrent use: all
// mutation happens on the simulation thread.
type World struct {
	log     log.Log
	factory Factory
	opts    Options

	slots []arenaSlot
	free  []uint32
	live  int

	components *components.Manager
	services   map[reflect.Type]any

	added   bus.Signal
	removed bus.Signal
}

func NewWorld(logger log.Log, factory Factory, opts Options) *World {
	if opts.MaxSearchDepth <= 0 {
		opts.MaxSearchDepth = DefaultMaxSearchDepth
	}
	return &World{
		log:        logger.With(log.String("component", "world")),
		factory:    factory,
		opts:       opts,
		components: components.NewManager(),
		services:   make(map[reflect.Type]any),
		added:      bus.New("Added"),
		removed:    bus.New("Removed"),
	}
}

// Components returns the component manager shared by every entity.
func (w *World) Components() *components.Manager { return w.components }

// Added fires with the ObjectRef of every adopted entity.
func (w *World) Added() bus.Signal { return w.added }

// Removed fires once with the ObjectRef of every destroyed entity, after
// its id has been invalidated.
func (w *World) Removed() bus.Signal { return w.removed }

// Len returns the number of live entities.
func (w *World) Len() int { return w.live }

// Create builds an entity of class through the factory and adopts it.
func (w *World) Create(class string) (Object, error) {
	if w.factory == nil {
		return nil, fmt.Errorf("world has no factory for %q", class)
	}
	obj, err := w.factory.Create(class)
	if err != nil {
		return nil, err
	}
	if _, err = w.Adopt(obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// Adopt assigns an id to a bound, parentless object.
func (w *World) Adopt(obj Object) (handle.ID, error) {
	e := obj.Base()
	if e.world != nil || e.state != StateDetached {
		return handle.Nil, fmt.Errorf("%w: %s", ErrAlreadyAdopted, e.id)
	}
	if e.api == nil {
		return handle.Nil, ErrUnbound
	}
	if w.opts.MaxEntities > 0 && w.live >= w.opts.MaxEntities {
		return handle.Nil, fmt.Errorf("%w: %d", ErrWorldFull, w.opts.MaxEntities)
	}

	var index uint32
	if n := len(w.free); n > 0 {
		index = w.free[n-1]
		w.free = w.free[:n-1]
	} else {
		index = uint32(len(w.slots))
		w.slots = append(w.slots, arenaSlot{generation: 1})
	}
	slot := &w.slots[index]
	slot.obj = obj

	e.id = handle.Make(index, slot.generation)
	e.world = w
	e.state = StateAlive
	w.live++

	w.notify(w.added, value.Ref(e.id))
	return e.id, nil
}

// Get resolves id to its live object.
func (w *World) Get(id handle.ID) (Object, error) {
	if id.IsNil() || int(id.Index()) >= len(w.slots) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidID, id)
	}
	slot := w.slots[id.Index()]
	if slot.generation != id.Generation() || slot.obj == nil {
		return nil, fmt.Errorf("%w: %s", ErrEntityDestroyed, id)
	}
	return slot.obj, nil
}

// Entity is Get returning the base entity.
func (w *World) Entity(id handle.ID) (*Entity, error) {
	obj, err := w.Get(id)
	if err != nil {
		return nil, err
	}
	return obj.Base(), nil
}

// Contains reports whether id refers to a live entity.
func (w *World) Contains(id handle.ID) bool {
	_, err := w.Get(id)
	return err == nil
}

func (w *World) alive(id handle.ID) (*Entity, error) {
	e, err := w.Entity(id)
	if err != nil {
		return nil, err
	}
	if !e.Alive() {
		return nil, fmt.Errorf("%w: %s is %s", ErrEntityDestroyed, id, e.state)
	}
	return e, nil
}

// Attach appends child to parent's children.
func (w *World) Attach(child, parent handle.ID) error {
	c, err := w.alive(child)
	if err != nil {
		return err
	}
	p, err := w.alive(parent)
	if err != nil {
		return err
	}
	if !c.parent.IsNil() {
		return fmt.Errorf("%w: %s under %s", ErrAlreadyParented, child, c.parent)
	}
	if w.isAncestor(child, p) {
		return fmt.Errorf("%w: %s is an ancestor of %s", ErrCycleDetected, child, parent)
	}

	p.children = append(p.children, child)
	c.parent = parent
	w.fire(p, EventChildAdded, value.Ref(child))
	return nil
}

// isAncestor reports whether id is e or one of e's ancestors.
func (w *World) isAncestor(id handle.ID, e *Entity) bool {
	for cur := e; cur != nil; {
		if cur.id == id {
			return true
		}
		if cur.parent.IsNil() {
			return false
		}
		next, err := w.Entity(cur.parent)
		if err != nil {
			return false
		}
		cur = next
	}
	return false
}

// Detach removes child from its parent. Detaching a parentless entity is a
// no-op.
func (w *World) Detach(child handle.ID) error {
	c, err := w.Entity(child)
	if err != nil {
		return err
	}
	w.detach(c)
	return nil
}

func (w *World) detach(c *Entity) {
	if c.parent.IsNil() {
		return
	}
	p, err := w.Entity(c.parent)
	c.parent = handle.Nil
	if err != nil {
		return
	}
	if i := slices.Index(p.children, c.id); i >= 0 {
		p.children = slices.Delete(p.children, i, i+1)
	}
	w.fire(p, EventChildRemoved, value.Ref(c.id))
}

// Reparent moves child under parent, or detaches it when parent is Nil. The
// move is validated before the old parent is touched.
func (w *World) Reparent(child, parent handle.ID) error {
	c, err := w.alive(child)
	if err != nil {
		return err
	}
	if parent.IsNil() {
		w.detach(c)
		return nil
	}
	if c.parent == parent {
		return nil
	}
	p, err := w.alive(parent)
	if err != nil {
		return err
	}
	if w.isAncestor(child, p) {
		return fmt.Errorf("%w: %s is an ancestor of %s", ErrCycleDetected, child, parent)
	}
	w.detach(c)
	return w.Attach(child, parent)
}

// Destroy destroys the entity and all of its descendants, children first.
// Destroying an entity that is already destroyed, or being destroyed, is a
// no-op.
func (w *World) Destroy(id handle.ID) error {
	if id.IsNil() || int(id.Index()) >= len(w.slots) {
		return fmt.Errorf("%w: %s", ErrInvalidID, id)
	}
	e, err := w.Entity(id)
	if err != nil || e.state != StateAlive {
		return nil
	}

	e.state = StateDestroying
	w.fire(e, EventDestroying)

	// Handlers may have destroyed or moved children meanwhile; only those
	// still parented here are ours to destroy.
	for _, cid := range slices.Clone(e.children) {
		child, err := w.Entity(cid)
		if err != nil || child.parent != id {
			continue
		}
		_ = w.Destroy(cid)
	}

	w.detach(e)
	w.components.RemoveAll(id)
	w.release(id)
	e.children = nil
	e.state = StateDestroyed
	e.dropSignals()

	w.log.Debug("entity destroyed",
		log.Stringer("id", id),
		log.String("class", e.class),
		log.String("name", e.name),
	)
	w.notify(w.removed, value.Ref(id))
	return nil
}

func (w *World) release(id handle.ID) {
	slot := &w.slots[id.Index()]
	slot.obj = nil
	slot.generation++
	if slot.generation == 0 {
		slot.generation = 1
	}
	w.free = append(w.free, id.Index())
	w.live--
}

// Children returns a snapshot of id's children.
func (w *World) Children(id handle.ID) ([]handle.ID, error) {
	e, err := w.Entity(id)
	if err != nil {
		return nil, err
	}
	return e.Children(), nil
}

// FindChild returns the first direct child of parent named name.
func (w *World) FindChild(parent handle.ID, name string) (handle.ID, bool) {
	e, err := w.Entity(parent)
	if err != nil {
		return handle.Nil, false
	}
	for _, cid := range e.children {
		if c, err := w.Entity(cid); err == nil && c.name == name {
			return cid, true
		}
	}
	return handle.Nil, false
}

// Descendants yields every descendant of root depth-first, pre-order,
// excluding root itself. Each level is snapshotted as it is entered, and
// the walk stops at the configured search depth.
func (w *World) Descendants(root handle.ID) *sequence.Iterator[handle.ID] {
	return sequence.New(func(yield func(handle.ID) bool) {
		e, err := w.Entity(root)
		if err != nil {
			return
		}
		w.walk(e, 1, yield)
	})
}

func (w *World) walk(e *Entity, depth int, yield func(handle.ID) bool) bool {
	if depth > w.opts.MaxSearchDepth {
		return true
	}
	for _, cid := range slices.Clone(e.children) {
		c, err := w.Entity(cid)
		if err != nil {
			continue
		}
		if !yield(cid) || !w.walk(c, depth+1, yield) {
			return false
		}
	}
	return true
}

// FindByName returns the first descendant of root named name.
func (w *World) FindByName(root handle.ID, name string) (handle.ID, bool) {
	return w.Descendants(root).Find(func(id handle.ID) bool {
		e, err := w.Entity(id)
		return err == nil && e.name == name
	})
}

// FindByPath follows slash separated child names from root, e.g.
// "Workspace/Lamp/Bulb". Empty segments are ignored.
func (w *World) FindByPath(root handle.ID, path string) (handle.ID, bool) {
	cur := root
	if !w.Contains(root) {
		return handle.Nil, false
	}
	depth := 0
	for segment := range strings.SplitSeq(path, "/") {
		if segment == "" {
			continue
		}
		if depth++; depth > w.opts.MaxSearchDepth {
			return handle.Nil, false
		}
		next, ok := w.FindChild(cur, segment)
		if !ok {
			return handle.Nil, false
		}
		cur = next
	}
	return cur, true
}

// Ancestors yields the parent chain of id, nearest first.
func (w *World) Ancestors(id handle.ID) iter.Seq[*Entity] {
	return func(yield func(*Entity) bool) {
		e, err := w.Entity(id)
		if err != nil {
			return
		}
		for !e.parent.IsNil() {
			if e, err = w.Entity(e.parent); err != nil || !yield(e) {
				return
			}
		}
	}
}

func (w *World) fire(e *Entity, event string, args ...value.Value) {
	if e.api == nil {
		return
	}
	if _, err := e.api.ResolveEvent(event); err != nil {
		return
	}
	sig, ok := e.LookupSignal(event)
	if !ok {
		return
	}
	if err := sig.Fire(args...); err != nil {
		w.log.Warn("event handler failed",
			log.String("event", event),
			log.Stringer("id", e.id),
			log.Error(err),
		)
	}
}

func (w *World) notify(sig bus.Signal, args ...value.Value) {
	if err := sig.Fire(args...); err != nil {
		w.log.Warn("world handler failed", log.String("event", sig.Name()), log.Error(err))
	}
}

// Provide stores a service on the world under its static type.
func Provide[T any](w *World, svc T) {
	w.services[reflect.TypeFor[T]()] = svc
}

// Service returns the service stored for T.
func Service[T any](w *World) (T, bool) {
	svc, ok := w.services[reflect.TypeFor[T]()]
	if !ok {
		var zero T
		return zero, false
	}
	return svc.(T), true
}

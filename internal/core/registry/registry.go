// Package registry maps class names to reflection tables and constructors.
//
// A Registry is filled during an explicit initialisation phase and then
// sealed; Create refuses to run before Seal, and Register panics after it.
package registry

import (
	"fmt"
	"slices"
	"sync"

	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/models"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/reflection"
)

// Constructor returns a fresh, unbound object of one concrete class.
type Constructor func() models.Object

// Class is one registry entry.
type Class struct {
	Name string
	Api  *reflection.Api
	New  Constructor // nil for abstract classes
}

// Abstract reports whether the class can only be inherited from.
func (c *Class) Abstract() bool { return c.New == nil }

type Registry struct {
	mu      sync.RWMutex
	classes map[string]*Class
	sealed  bool
}

var _ models.Factory = (*Registry)(nil)

func New() *Registry {
	return &Registry{classes: make(map[string]*Class)}
}

// Register adds a class. Registering a name twice, or registering after
// Seal, is a programming error and panics.
func (r *Registry) Register(name string, api *reflection.Api, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		panic(fmt.Errorf("%w: cannot register %s", ErrSealed, name))
	}
	if _, ok := r.classes[name]; ok {
		panic(fmt.Errorf("%w: %s", ErrDuplicateRegistration, name))
	}
	if api == nil {
		panic(fmt.Sprintf("registry: class %s has no api", name))
	}
	r.classes[name] = &Class{Name: name, Api: api, New: ctor}
}

// Seal ends the registration phase.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Create builds an object of class name, bound to its name and table. The
// object is not adopted by any world.
func (r *Registry) Create(name string) (models.Object, error) {
	r.mu.RLock()
	sealed := r.sealed
	c, ok := r.classes[name]
	r.mu.RUnlock()

	if !sealed {
		return nil, ErrNotReady
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownClass, name)
	}
	if c.Abstract() {
		return nil, fmt.Errorf("%w: %s", ErrAbstractClass, name)
	}
	obj := c.New()
	obj.Base().Bind(name, c.Api)
	return obj, nil
}

// Class returns the entry registered under name.
func (r *Registry) Class(name string) (*Class, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.classes[name]
	return c, ok
}

// Classes lists registered class names, sorted.
func (r *Registry) Classes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.classes))
	for n := range r.classes {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.classes)
}

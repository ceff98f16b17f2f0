package components

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/handle"
)

// Storage is the untyped view of a Store used by the manager and by code
// that only knows a kind name.
type Storage interface {
	Kind() Kind
	Requires() []Kind
	Has(owner handle.ID) bool
	Attach(owner handle.ID) error
	Remove(owner handle.ID) bool
	Len() int
}

var _ Storage = (*Store[struct{}])(nil)

// Manager owns one store per registered kind.
type Manager struct {
	stores map[Kind]Storage
	byType map[reflect.Type]Storage
	order  []Kind
}

func NewManager() *Manager {
	return &Manager{
		stores: make(map[Kind]Storage),
		byType: make(map[reflect.Type]Storage),
	}
}

// Register creates the store for T under kind. Required kinds must already
// be registered. Registering a kind or type twice is a programming error and
// panics.
func Register[T any](m *Manager, kind Kind, requires ...Kind) *Store[T] {
	t := reflect.TypeFor[T]()
	if _, ok := m.stores[kind]; ok {
		panic(fmt.Errorf("%w: %s", ErrDuplicateKind, kind))
	}
	if _, ok := m.byType[t]; ok {
		panic(fmt.Errorf("%w: %s", ErrDuplicateKind, t))
	}
	for _, r := range requires {
		if _, ok := m.stores[r]; !ok {
			panic(fmt.Errorf("%w: %s requires %s", ErrMissingRequired, kind, r))
		}
	}

	s := NewStore[T](kind)
	s.requires = slices.Clone(requires)
	s.manager = m
	m.stores[kind] = s
	m.byType[t] = s
	m.order = append(m.order, kind)
	return s
}

// StoreOf returns the store registered for T.
func StoreOf[T any](m *Manager) (*Store[T], bool) {
	s, ok := m.byType[reflect.TypeFor[T]()]
	if !ok {
		return nil, false
	}
	return s.(*Store[T]), true
}

// Storage returns the store registered under kind.
func (m *Manager) Storage(kind Kind) (Storage, error) {
	s, ok := m.stores[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return s, nil
}

// Kinds lists registered kinds in registration order.
func (m *Manager) Kinds() []Kind {
	return slices.Clone(m.order)
}

// Remove drops the owner's component of kind together with every component
// that requires it.
func (m *Manager) Remove(kind Kind, owner handle.ID) (bool, error) {
	s, err := m.Storage(kind)
	if err != nil {
		return false, err
	}
	for _, k := range m.dependents(kind) {
		m.stores[k].Remove(owner)
	}
	return s.Remove(owner), nil
}

// RemoveAll drops every component of owner, dependents before their
// requirements.
func (m *Manager) RemoveAll(owner handle.ID) {
	for i := len(m.order) - 1; i >= 0; i-- {
		m.stores[m.order[i]].Remove(owner)
	}
}

// dependents returns the kinds that directly or transitively require kind,
// most dependent first.
func (m *Manager) dependents(kind Kind) []Kind {
	var out []Kind
	// requirements are always registered before their dependents
	for _, k := range m.order {
		for _, r := range m.stores[k].Requires() {
			if r == kind || slices.Contains(out, r) {
				out = append(out, k)
				break
			}
		}
	}
	slices.Reverse(out)
	return out
}

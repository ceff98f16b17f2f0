// Package components holds per-kind component state addressed by entity id.
//
// Components are an additive layer next to the entity graph: a Store[T] is a
// dense table mapping an owning entity to at most one T. Slots live in fixed
// size blocks, so a *T returned by Create or Get stays valid until the
// component is destroyed.
package components

import (
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/handle"
)

const blockSize = 64

// Kind names a component type, e.g. "Transform".
type Kind string

// ID is the slot index of a component inside its store.
type ID uint32

type slot[T any] struct {
	owner handle.ID
	valid bool
	data  T
}

// Store is the dense storage of one component kind.
type Store[T any] struct {
	kind     Kind
	requires []Kind
	manager  *Manager

	blocks [][blockSize]slot[T]
	index  map[handle.ID]ID
	free   []ID
	next   ID
}

// NewStore creates a standalone store. Stores created through Register also
// resolve their required kinds through the manager.
func NewStore[T any](kind Kind) *Store[T] {
	return &Store[T]{
		kind:  kind,
		index: make(map[handle.ID]ID),
	}
}

func (s *Store[T]) Kind() Kind { return s.kind }

// Requires lists the kinds that Create adds to the owner first.
func (s *Store[T]) Requires() []Kind { return s.requires }

func (s *Store[T]) at(id ID) *slot[T] {
	return &s.blocks[id/blockSize][id%blockSize]
}

// Create returns the owner's component, creating it (and its required
// components) when absent. Calling Create again returns the same id and
// pointer.
func (s *Store[T]) Create(owner handle.ID) (ID, *T, error) {
	if owner.IsNil() {
		return 0, nil, ErrNilOwner
	}
	if id, ok := s.index[owner]; ok {
		return id, &s.at(id).data, nil
	}
	if s.manager != nil {
		for _, k := range s.requires {
			dep, err := s.manager.Storage(k)
			if err != nil {
				return 0, nil, err
			}
			if err = dep.Attach(owner); err != nil {
				return 0, nil, err
			}
		}
	}

	var id ID
	if n := len(s.free); n > 0 {
		id = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		id = s.next
		s.next++
		if int(id/blockSize) >= len(s.blocks) {
			s.blocks = append(s.blocks, [blockSize]slot[T]{})
		}
	}

	sl := s.at(id)
	*sl = slot[T]{owner: owner, valid: true}
	s.index[owner] = id
	return id, &sl.data, nil
}

// Attach creates the owner's component with its zero value.
func (s *Store[T]) Attach(owner handle.ID) error {
	_, _, err := s.Create(owner)
	return err
}

// Get returns the owner's live component.
func (s *Store[T]) Get(owner handle.ID) (*T, bool) {
	id, ok := s.index[owner]
	if !ok {
		return nil, false
	}
	return &s.at(id).data, true
}

// ID returns the slot of the owner's component.
func (s *Store[T]) ID(owner handle.ID) (ID, bool) {
	id, ok := s.index[owner]
	return id, ok
}

// Owner returns the entity owning slot id, if the slot is live.
func (s *Store[T]) Owner(id ID) (handle.ID, bool) {
	if id >= s.next {
		return handle.Nil, false
	}
	sl := s.at(id)
	if !sl.valid {
		return handle.Nil, false
	}
	return sl.owner, true
}

func (s *Store[T]) Has(owner handle.ID) bool {
	_, ok := s.index[owner]
	return ok
}

// Destroy invalidates the owner's component and recycles its slot. The slot
// is cleared immediately so a later Create never observes old data.
func (s *Store[T]) Destroy(owner handle.ID) bool {
	id, ok := s.index[owner]
	if !ok {
		return false
	}
	delete(s.index, owner)
	*s.at(id) = slot[T]{}
	s.free = append(s.free, id)
	return true
}

// Remove is Destroy under the Storage interface.
func (s *Store[T]) Remove(owner handle.ID) bool { return s.Destroy(owner) }

// Len returns the number of live components.
func (s *Store[T]) Len() int { return len(s.index) }

// Each visits live components in slot order until fn returns false.
func (s *Store[T]) Each(fn func(owner handle.ID, c *T) bool) {
	for id := ID(0); id < s.next; id++ {
		sl := s.at(id)
		if !sl.valid {
			continue
		}
		if !fn(sl.owner, &sl.data) {
			return
		}
	}
}

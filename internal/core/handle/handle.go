package handle

import "fmt"

// ID identifies an entity for as long as it is alive.
// The low 32 bits hold the arena slot, the high 32 bits its generation.
// Generations start at 1, so the zero ID never refers to anything.
type ID uint64

// Nil is the empty reference.
const Nil ID = 0

// Make packs a slot index and generation into an ID.
func Make(index, generation uint32) ID {
	return ID(uint64(generation)<<32 | uint64(index))
}

// Index returns the arena slot of the ID.
func (id ID) Index() uint32 {
	return uint32(id)
}

// Generation returns the slot generation the ID was issued for.
func (id ID) Generation() uint32 {
	return uint32(id >> 32)
}

// IsNil reports whether id is the empty reference.
func (id ID) IsNil() bool {
	return id == Nil
}

func (id ID) String() string {
	if id == Nil {
		return "nil"
	}
	return fmt.Sprintf("%d:%d", id.Index(), id.Generation())
}

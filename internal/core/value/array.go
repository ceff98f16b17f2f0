package value

import (
	"fmt"
	"strings"
)

// MaxDepth bounds how deeply nested arrays are compared, printed and
// encoded. Arrays are shared, so one can contain itself.
const MaxDepth = 64

// Array is an ordered sequence of Values. Element tags are homogeneous by
// convention only. An Array is shared by every Value that wraps it.
type Array struct {
	items []Value
}

// NewArray copies items into a new Array.
func NewArray(items ...Value) *Array {
	a := &Array{items: make([]Value, len(items))}
	copy(a.items, items)
	return a
}

// Len returns the number of elements; a nil Array is empty.
func (a *Array) Len() int {
	if a == nil {
		return 0
	}
	return len(a.items)
}

// Append adds values to the end of the array.
func (a *Array) Append(values ...Value) {
	a.items = append(a.items, values...)
}

// Index returns the element at i.
func (a *Array) Index(i int) (Value, error) {
	if i < 0 || i >= a.Len() {
		return Null(), fmt.Errorf("%w: index %d, length %d", ErrIndexOutOfRange, i, a.Len())
	}
	return a.items[i], nil
}

// SetIndex replaces the element at i.
func (a *Array) SetIndex(i int, v Value) error {
	if i < 0 || i >= a.Len() {
		return fmt.Errorf("%w: index %d, length %d", ErrIndexOutOfRange, i, a.Len())
	}
	a.items[i] = v
	return nil
}

// Items returns a copy of the elements.
func (a *Array) Items() []Value {
	out := make([]Value, a.Len())
	if a != nil {
		copy(out, a.items)
	}
	return out
}

// Equal compares arrays element by element. Arrays nested deeper than
// MaxDepth are unequal unless they are the same array.
func (a *Array) Equal(b *Array) bool { return a.equal(b, 0) }

func (a *Array) equal(b *Array, depth int) bool {
	if a == b {
		return true
	}
	if a.Len() != b.Len() || depth >= MaxDepth {
		return false
	}
	for i := 0; i < a.Len(); i++ {
		if !equal(a.items[i], b.items[i], depth+1) {
			return false
		}
	}
	return true
}

func (a *Array) String() string { return a.format(0) }

func (a *Array) format(depth int) string {
	if depth >= MaxDepth {
		return "[...]"
	}
	var sb strings.Builder
	sb.WriteByte('[')
	for i := 0; i < a.Len(); i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(a.items[i].format(depth + 1))
	}
	sb.WriteByte(']')
	return sb.String()
}

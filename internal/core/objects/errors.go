package objects

import (
	"errors"
	"fmt"
	"math"

	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/reflection"
)

var (
	ErrNotInWorld = errors.New("object is not in a world")
	ErrOutOfRange = errors.New("value out of range")
	ErrNotAPart   = errors.New("object is not a Part")
)

// unbounded is the upper limit of properties with no maximum; it still
// rejects infinities.
const unbounded = math.MaxFloat64

// within reports lo <= d <= hi. NaN is never within any range.
func within(d, lo, hi float64) bool {
	return d >= lo && d <= hi
}

// outOfRange is a tag-correct value the property cannot hold. It matches
// reflection.ErrInvalidValueType as well as ErrOutOfRange.
func outOfRange(prop string, v any) error {
	return fmt.Errorf("%w: %w: %s %v", reflection.ErrInvalidValueType, ErrOutOfRange, prop, v)
}

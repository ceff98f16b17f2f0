// Package value implements the tagged union exchanged between native code
// and the script interpreter.
package value

import (
	"fmt"
	"strconv"

	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/handle"
)

// Value is a closed tagged union. The zero Value is Null.
// Payload accessors check the tag and never panic.
type Value struct {
	tag Tag
	b   bool
	i   int64
	d   float64
	s   string
	v3  Vector3
	col Color
	arr *Array
	ref handle.ID
	fn  *Function
}

func Null() Value { return Value{} }
func Bool(b bool) Value { return Value{tag: TagBool, b: b} }
func Integer(i int64) Value { return Value{tag: TagInteger, i: i} }
func Double(d float64) Value { return Value{tag: TagDouble, d: d} }
func String(s string) Value { return Value{tag: TagString, s: s} }
func Vec3(v Vector3) Value { return Value{tag: TagVector3, v3: v} }
func Col(c Color) Value { return Value{tag: TagColor, col: c} }
func Ref(id handle.ID) Value { return Value{tag: TagObjectRef, ref: id} }
func ArrayOf(items ...Value) Value { return FromArray(NewArray(items...)) }

// FromArray wraps a. A nil array becomes a new empty one.
func FromArray(a *Array) Value {
	if a == nil {
		a = NewArray()
	}
	return Value{tag: TagArray, arr: a}
}

// Func wraps a script callable. A nil function yields Null.
func Func(f *Function) Value {
	if f == nil {
		return Null()
	}
	return Value{tag: TagFunction, fn: f}
}

// Tag returns the discriminant of v.
func (v Value) Tag() Tag { return v.tag }

// IsNull reports whether v holds no payload.
func (v Value) IsNull() bool { return v.tag == TagNull }

// Is reports whether v carries the given tag.
func (v Value) Is(t Tag) bool { return v.tag == t }

func mismatch(want, got Tag) error {
	return fmt.Errorf("%w: expected %s, got %s", ErrTypeMismatch, want, got)
}

func (v Value) AsBool() (bool, error) {
	if v.tag != TagBool {
		return false, mismatch(TagBool, v.tag)
	}
	return v.b, nil
}

func (v Value) AsInteger() (int64, error) {
	if v.tag != TagInteger {
		return 0, mismatch(TagInteger, v.tag)
	}
	return v.i, nil
}

func (v Value) AsDouble() (float64, error) {
	if v.tag != TagDouble {
		return 0, mismatch(TagDouble, v.tag)
	}
	return v.d, nil
}

func (v Value) AsString() (string, error) {
	if v.tag != TagString {
		return "", mismatch(TagString, v.tag)
	}
	return v.s, nil
}

func (v Value) AsVector3() (Vector3, error) {
	if v.tag != TagVector3 {
		return Vector3{}, mismatch(TagVector3, v.tag)
	}
	return v.v3, nil
}

func (v Value) AsColor() (Color, error) {
	if v.tag != TagColor {
		return Color{}, mismatch(TagColor, v.tag)
	}
	return v.col, nil
}

func (v Value) AsArray() (*Array, error) {
	if v.tag != TagArray {
		return nil, mismatch(TagArray, v.tag)
	}
	return v.arr, nil
}

// AsRef returns the referenced entity id. The reference is weak: the entity
// may have been destroyed since the Value was made.
func (v Value) AsRef() (handle.ID, error) {
	if v.tag != TagObjectRef {
		return handle.Nil, mismatch(TagObjectRef, v.tag)
	}
	return v.ref, nil
}

func (v Value) AsFunction() (*Function, error) {
	if v.tag != TagFunction {
		return nil, mismatch(TagFunction, v.tag)
	}
	return v.fn, nil
}

// As extracts a payload by Go type. T must be one of the payload types.
func As[T any](v Value) (T, error) {
	var out T
	var (
		got any
		err error
	)
	switch any(out).(type) {
	case bool:
		got, err = v.AsBool()
	case int64:
		got, err = v.AsInteger()
	case float64:
		got, err = v.AsDouble()
	case string:
		got, err = v.AsString()
	case Vector3:
		got, err = v.AsVector3()
	case Color:
		got, err = v.AsColor()
	case *Array:
		got, err = v.AsArray()
	case handle.ID:
		got, err = v.AsRef()
	case *Function:
		got, err = v.AsFunction()
	default:
		return out, fmt.Errorf("%w: %T is not a value payload", ErrTypeMismatch, out)
	}
	if err != nil {
		return out, err
	}
	return got.(T), nil
}

// Equal reports whether a and b hold the same tag and payload.
// Values of different tags are never equal.
func Equal(a, b Value) bool { return equal(a, b, 0) }

func equal(a, b Value, depth int) bool {
	if a.tag != b.tag {
		return false
	}
	switch a.tag {
	case TagNull:
		return true
	case TagBool:
		return a.b == b.b
	case TagInteger:
		return a.i == b.i
	case TagDouble:
		return a.d == b.d
	case TagString:
		return a.s == b.s
	case TagVector3:
		return a.v3 == b.v3
	case TagColor:
		return a.col == b.col
	case TagArray:
		return a.arr.equal(b.arr, depth)
	case TagObjectRef:
		return a.ref == b.ref
	case TagFunction:
		return a.fn == b.fn
	}
	return false
}

// Equal is shorthand for Equal(v, o).
func (v Value) Equal(o Value) bool { return Equal(v, o) }

func (v Value) String() string { return v.format(0) }

func (v Value) format(depth int) string {
	switch v.tag {
	case TagNull:
		return "null"
	case TagBool:
		return strconv.FormatBool(v.b)
	case TagInteger:
		return strconv.FormatInt(v.i, 10)
	case TagDouble:
		return strconv.FormatFloat(v.d, 'g', -1, 64)
	case TagString:
		return strconv.Quote(v.s)
	case TagVector3:
		return v.v3.String()
	case TagColor:
		return v.col.String()
	case TagArray:
		return v.arr.format(depth)
	case TagObjectRef:
		return "ref(" + v.ref.String() + ")"
	case TagFunction:
		return "function " + v.fn.Name()
	}
	return v.tag.String()
}

package value

import "fmt"

// Tag discriminates the payload held by a Value.
type Tag uint8

const (
	TagNull Tag = iota
	TagBool
	TagInteger
	TagDouble
	TagString
	TagVector3
	TagColor
	TagArray
	TagObjectRef
	TagFunction
)

var tagNames = [...]string{
	TagNull:      "Null",
	TagBool:      "Bool",
	TagInteger:   "Integer",
	TagDouble:    "Double",
	TagString:    "String",
	TagVector3:   "Vector3",
	TagColor:     "Color",
	TagArray:     "Array",
	TagObjectRef: "ObjectRef",
	TagFunction:  "Function",
}

func (t Tag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return fmt.Sprintf("Tag(%d)", uint8(t))
}

// ParseTag is the inverse of Tag.String.
func ParseTag(name string) (Tag, error) {
	for t, n := range tagNames {
		if n == name {
			return Tag(t), nil
		}
	}
	return TagNull, fmt.Errorf("%w: unknown tag %q", ErrTypeMismatch, name)
}

// Vector3 is the engine's 3D vector payload.
type Vector3 struct {
	X, Y, Z float64
}

func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vector3) Scale(f float64) Vector3 {
	return Vector3{v.X * f, v.Y * f, v.Z * f}
}

func (v Vector3) String() string {
	return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z)
}

// Color is a linear RGB color payload, components in [0, 1].
type Color struct {
	R, G, B float64
}

func (c Color) String() string {
	return fmt.Sprintf("rgb(%g, %g, %g)", c.R, c.G, c.B)
}

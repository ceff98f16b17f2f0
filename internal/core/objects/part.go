package objects

import (
	"fmt"
	"reflect"

	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/components"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/models"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/reflection"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/value"
)

var DefaultPartSize = value.Vector3{X: 4, Y: 1, Z: 2}

// Part is a physical block. Its placement and motion live in the Transform
// and RigidBody components, created the first time they are written.
type Part struct {
	models.Entity
	size         value.Vector3
	color        value.Color
	transparency float64
	anchored     bool
}

func newPart() models.Object {
	return &Part{size: DefaultPartSize, color: value.Color{R: 0.64, G: 0.64, B: 0.64}}
}

// lookup returns o's component of type T without creating it.
func lookup[T any](o models.Object) (*T, bool) {
	e := o.Base()
	if e.World() == nil || !e.Alive() {
		return nil, false
	}
	s, ok := components.StoreOf[T](e.World().Components())
	if !ok {
		return nil, false
	}
	return s.Get(e.ID())
}

// ensure returns o's component of type T, creating it and its requirements.
func ensure[T any](o models.Object) (*T, error) {
	w, id, err := worldOf(o)
	if err != nil {
		return nil, err
	}
	s, ok := components.StoreOf[T](w.Components())
	if !ok {
		return nil, fmt.Errorf("%w: %s", components.ErrUnknownKind, reflect.TypeFor[T]().Name())
	}
	_, c, err := s.Create(id)
	return c, err
}

// Velocity returns the current velocity, zero without a RigidBody.
func (p *Part) Velocity() value.Vector3 {
	if body, ok := lookup[RigidBody](p); ok {
		return body.Velocity
	}
	return value.Vector3{}
}

// ApplyImpulse changes the velocity by impulse/mass. Anchored parts do not
// move.
func (p *Part) ApplyImpulse(impulse value.Vector3) (value.Vector3, error) {
	if p.anchored {
		return p.Velocity(), nil
	}
	body, err := ensure[RigidBody](p)
	if err != nil {
		return value.Vector3{}, err
	}
	if body.Mass <= 0 {
		body.Mass = DefaultMass
	}
	body.Velocity = body.Velocity.Add(impulse.Scale(1 / body.Mass))
	return body.Velocity, nil
}

func newPartApi(base *reflection.Api) *reflection.Api {
	api := reflection.NewApi("Part", base)

	get, set := reflection.Bind(
		func(p *Part) value.Value {
			if t, ok := lookup[Transform](p); ok {
				return value.Vec3(t.Position)
			}
			return value.Vec3(value.Vector3{})
		},
		func(p *Part, v value.Value) error {
			pos, err := v.AsVector3()
			if err != nil {
				return err
			}
			t, err := ensure[Transform](p)
			if err != nil {
				return err
			}
			t.Position = pos
			return nil
		},
	)
	api.DeclareProperty("Position", value.TagVector3, get, set)

	get, set = reflection.Bind(
		func(p *Part) value.Value {
			if t, ok := lookup[Transform](p); ok {
				return value.Vec3(t.Rotation)
			}
			return value.Vec3(value.Vector3{})
		},
		func(p *Part, v value.Value) error {
			rot, err := v.AsVector3()
			if err != nil {
				return err
			}
			t, err := ensure[Transform](p)
			if err != nil {
				return err
			}
			t.Rotation = rot
			return nil
		},
	)
	api.DeclareProperty("Orientation", value.TagVector3, get, set)

	get, set = reflection.Bind(
		func(p *Part) value.Value { return value.Vec3(p.size) },
		func(p *Part, v value.Value) error {
			size, err := v.AsVector3()
			if err != nil {
				return err
			}
			if !within(size.X, 0, unbounded) || !within(size.Y, 0, unbounded) || !within(size.Z, 0, unbounded) {
				return outOfRange("Size", size)
			}
			p.size = size
			return nil
		},
	)
	api.DeclareProperty("Size", value.TagVector3, get, set)

	get, set = reflection.Bind(
		func(p *Part) value.Value { return value.Col(p.color) },
		reflection.SetColor(func(p *Part, c value.Color) { p.color = c }),
	)
	api.DeclareProperty("Color", value.TagColor, get, set)

	get, set = reflection.Bind(
		func(p *Part) value.Value { return value.Double(p.transparency) },
		func(p *Part, v value.Value) error {
			d, err := v.AsDouble()
			if err != nil {
				return err
			}
			if !within(d, 0, 1) {
				return outOfRange("Transparency", d)
			}
			p.transparency = d
			return nil
		},
	)
	api.DeclareProperty("Transparency", value.TagDouble, get, set)

	get, set = reflection.Bind(
		func(p *Part) value.Value { return value.Bool(p.anchored) },
		reflection.SetBool(func(p *Part, b bool) { p.anchored = b }),
	)
	api.DeclareProperty("Anchored", value.TagBool, get, set)

	get, set = reflection.Bind(
		func(p *Part) value.Value {
			if body, ok := lookup[RigidBody](p); ok && body.Mass > 0 {
				return value.Double(body.Mass)
			}
			return value.Double(DefaultMass)
		},
		func(p *Part, v value.Value) error {
			d, err := v.AsDouble()
			if err != nil {
				return err
			}
			if d <= 0 || !within(d, 0, unbounded) {
				return outOfRange("Mass", d)
			}
			body, err := ensure[RigidBody](p)
			if err != nil {
				return err
			}
			body.Mass = d
			return nil
		},
	)
	api.DeclareProperty("Mass", value.TagDouble, get, set)

	get, _ = reflection.Bind[*Part](func(p *Part) value.Value { return value.Vec3(p.Velocity()) }, nil)
	api.DeclareProperty("Velocity", value.TagVector3, get, nil)

	api.DeclareProcedure("ApplyImpulse", []value.Tag{value.TagVector3}, reflection.BindProcedure(
		func(p *Part, args []value.Value) (value.Value, error) {
			impulse, _ := args[0].AsVector3()
			v, err := p.ApplyImpulse(impulse)
			if err != nil {
				return value.Null(), err
			}
			return value.Vec3(v), nil
		}))
	return api
}

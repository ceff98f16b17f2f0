package objects

import (
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/models"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/reflection"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/value"
)

const (
	DefaultBrightness = 1.0
	DefaultLightRange = 16.0
	MaxSpotRange      = 60.0
	DefaultSpotAngle  = 90.0
)

var White = value.Color{R: 1, G: 1, B: 1}

// Light is the common state of every light source.
type Light struct {
	models.Entity
	brightness float64
	color      value.Color
	reach      float64
	enabled    bool
	shadows    bool
}

type lightObject interface {
	models.Object
	light() *Light
}

func (l *Light) light() *Light { return l }

func (l *Light) defaults() {
	l.brightness = DefaultBrightness
	l.color = White
	l.reach = DefaultLightRange
	l.enabled = true
}

func newLight() models.Object {
	l := &Light{}
	l.defaults()
	return l
}

type PointLight struct {
	Light
}

func newPointLight() models.Object {
	l := &PointLight{}
	l.defaults()
	return l
}

type SpotLight struct {
	Light
	angle float64
}

func newSpotLight() models.Object {
	l := &SpotLight{angle: DefaultSpotAngle}
	l.defaults()
	return l
}

type DirectionalLight struct {
	Light
	direction value.Vector3
}

func newDirectionalLight() models.Object {
	l := &DirectionalLight{direction: value.Vector3{Y: -1}}
	l.defaults()
	return l
}

func (l *Light) Brightness() float64 { return l.brightness }

func newLightApi(base *reflection.Api) *reflection.Api {
	api := reflection.NewApi("Light", base)

	get, set := reflection.Bind(
		func(l lightObject) value.Value { return value.Double(l.light().brightness) },
		reflection.SetDouble(func(l lightObject, d float64) { l.light().brightness = d }),
	)
	api.DeclareProperty("Brightness", value.TagDouble, get, set)

	get, set = reflection.Bind(
		func(l lightObject) value.Value { return value.Col(l.light().color) },
		reflection.SetColor(func(l lightObject, c value.Color) { l.light().color = c }),
	)
	api.DeclareProperty("Color", value.TagColor, get, set)

	get, set = reflection.Bind(
		func(l lightObject) value.Value { return value.Double(l.light().reach) },
		func(l lightObject, v value.Value) error { return setRange(l.light(), v, unbounded) },
	)
	api.DeclareProperty("Range", value.TagDouble, get, set)

	get, set = reflection.Bind(
		func(l lightObject) value.Value { return value.Bool(l.light().enabled) },
		reflection.SetBool(func(l lightObject, b bool) { l.light().enabled = b }),
	)
	api.DeclareProperty("Enabled", value.TagBool, get, set)

	get, set = reflection.Bind(
		func(l lightObject) value.Value { return value.Bool(l.light().shadows) },
		reflection.SetBool(func(l lightObject, b bool) { l.light().shadows = b }),
	)
	api.DeclareProperty("Shadows", value.TagBool, get, set)
	return api
}

// setRange accepts finite ranges in [0, limit].
func setRange(l *Light, v value.Value, limit float64) error {
	d, err := v.AsDouble()
	if err != nil {
		return err
	}
	if !within(d, 0, limit) {
		return outOfRange("Range", d)
	}
	l.reach = d
	return nil
}

func newPointLightApi(base *reflection.Api) *reflection.Api {
	return reflection.NewApi("PointLight", base)
}

func newSpotLightApi(base *reflection.Api) *reflection.Api {
	api := reflection.NewApi("SpotLight", base)

	get, set := reflection.Bind(
		func(s *SpotLight) value.Value { return value.Double(s.reach) },
		func(s *SpotLight, v value.Value) error { return setRange(&s.Light, v, MaxSpotRange) },
	)
	api.DeclareProperty("Range", value.TagDouble, get, set)

	get, set = reflection.Bind(
		func(s *SpotLight) value.Value { return value.Double(s.angle) },
		func(s *SpotLight, v value.Value) error {
			d, err := v.AsDouble()
			if err != nil {
				return err
			}
			if !within(d, 0, 180) {
				return outOfRange("Angle", d)
			}
			s.angle = d
			return nil
		},
	)
	api.DeclareProperty("Angle", value.TagDouble, get, set)
	return api
}

func newDirectionalLightApi(base *reflection.Api) *reflection.Api {
	api := reflection.NewApi("DirectionalLight", base)
	get, set := reflection.Bind(
		func(d *DirectionalLight) value.Value { return value.Vec3(d.direction) },
		reflection.SetVector3(func(d *DirectionalLight, v value.Vector3) { d.direction = v }),
	)
	api.DeclareProperty("Direction", value.TagVector3, get, set)
	return api
}

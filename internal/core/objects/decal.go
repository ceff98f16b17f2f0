package objects

import (
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/models"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/reflection"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/value"
)

// TextureLoader is the asynchronous loader seen from the main thread.
// Neither method may block.
type TextureLoader interface {
	Request(path string)
	Ready(path string) bool
}

// Decal projects a texture onto its parent.
type Decal struct {
	models.Entity
	texture string
}

func newDecal() models.Object { return &Decal{} }

func (d *Decal) loader() (TextureLoader, bool) {
	if d.World() == nil {
		return nil, false
	}
	return models.Service[TextureLoader](d.World())
}

func newDecalApi(base *reflection.Api) *reflection.Api {
	api := reflection.NewApi("Decal", base)

	get, set := reflection.Bind(
		func(d *Decal) value.Value { return value.String(d.texture) },
		reflection.SetString(func(d *Decal, path string) {
			d.texture = path
			if l, ok := d.loader(); ok && path != "" {
				l.Request(path)
			}
		}),
	)
	api.DeclareProperty("Texture", value.TagString, get, set)

	get, _ = reflection.Bind[*Decal](func(d *Decal) value.Value {
		l, ok := d.loader()
		return value.Bool(ok && d.texture != "" && l.Ready(d.texture))
	}, nil)
	api.DeclareProperty("TextureReady", value.TagBool, get, nil)
	return api
}

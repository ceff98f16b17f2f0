// Package objects declares the built-in classes and their reflection tables.
package objects

import (
	"sync"

	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/models"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/observability/log"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/reflection"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/registry"
)

// RegisterAll registers every built-in class on reg, bases before
// derived classes.
func RegisterAll(reg *registry.Registry) {
	object := newObjectApi()
	reg.Register("Object", object, nil)

	reg.Register("DataModel", newDataModelApi(object), newDataModel)
	reg.Register("Folder", reflection.NewApi("Folder", object), newFolder)
	reg.Register("Model", newModelApi(object), newModel)

	light := newLightApi(object)
	reg.Register("Light", light, newLight)
	reg.Register("PointLight", newPointLightApi(light), newPointLight)
	reg.Register("SpotLight", newSpotLightApi(light), newSpotLight)
	reg.Register("DirectionalLight", newDirectionalLightApi(light), newDirectionalLight)

	reg.Register("Part", newPartApi(object), newPart)
	reg.Register("Decal", newDecalApi(object), newDecal)
	reg.Register("Script", newScriptApi(object), newScript)
}

var (
	classesOnce sync.Once
	classes     *registry.Registry
)

// Classes returns the process registry, built and sealed on first use.
func Classes() *registry.Registry {
	classesOnce.Do(func() {
		r := registry.New()
		RegisterAll(r)
		r.Seal()
		classes = r
	})
	return classes
}

// NewWorld creates a world backed by the process registry, with the
// built-in component kinds registered.
func NewWorld(logger log.Log, opts models.Options) *models.World {
	w := models.NewWorld(logger, Classes(), opts)
	RegisterComponents(w.Components())
	return w
}

package objects

import (
	"fmt"

	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/handle"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/models"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/reflection"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/value"
)

// EventStepped fires on the DataModel once per tick with the tick length in
// seconds.
const EventStepped = "Stepped"

// DataModel is the root of a scene.
type DataModel struct {
	models.Entity
	elapsed float64
}

func newDataModel() models.Object { return &DataModel{} }

// Step advances the scene clock and fires Stepped.
func (d *DataModel) Step(dt float64) error {
	d.elapsed += dt
	return d.Api().Fire(d, EventStepped, value.Double(dt))
}

func (d *DataModel) Elapsed() float64 { return d.elapsed }

func newDataModelApi(base *reflection.Api) *reflection.Api {
	api := reflection.NewApi("DataModel", base)
	get, _ := reflection.Bind[*DataModel](func(d *DataModel) value.Value {
		return value.Double(d.elapsed)
	}, nil)
	api.DeclareProperty("Time", value.TagDouble, get, nil)
	api.DeclareEvent(EventStepped)
	return api
}

// Folder groups objects without adding behaviour.
type Folder struct {
	models.Entity
}

func newFolder() models.Object { return &Folder{} }

// Model groups parts that move together.
type Model struct {
	models.Entity
	primary handle.ID
}

func newModel() models.Object { return &Model{} }

// PrimaryPart returns the primary part id, or Nil once that part is gone.
func (m *Model) PrimaryPart() handle.ID {
	if w := m.World(); w == nil || !w.Contains(m.primary) {
		return handle.Nil
	}
	return m.primary
}

func newModelApi(base *reflection.Api) *reflection.Api {
	api := reflection.NewApi("Model", base)
	get, set := reflection.Bind(
		func(m *Model) value.Value { return ref(m.PrimaryPart()) },
		setPrimaryPart,
	)
	api.DeclareProperty("PrimaryPart", value.TagObjectRef, get, set)
	return api
}

func setPrimaryPart(m *Model, v value.Value) error {
	if v.IsNull() {
		m.primary = handle.Nil
		return nil
	}
	w, _, err := worldOf(m)
	if err != nil {
		return err
	}
	id, err := v.AsRef()
	if err != nil {
		return err
	}
	obj, err := w.Get(id)
	if err != nil {
		return err
	}
	if _, ok := obj.(*Part); !ok {
		return fmt.Errorf("%w: %s", ErrNotAPart, obj.Base().ClassName())
	}
	m.primary = id
	return nil
}

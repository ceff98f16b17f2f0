package objects

import (
	"fmt"
	"slices"
	"strings"

	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/components"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/handle"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/models"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/reflection"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/value"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/pkg/sequence"
)

// EventChanged fires after every successful property write, with the
// property name.
const EventChanged = "Changed"

func worldOf(self models.Object) (*models.World, handle.ID, error) {
	e := self.Base()
	if e.World() == nil || !e.Alive() {
		return nil, handle.Nil, fmt.Errorf("%w: %s", ErrNotInWorld, e.Name())
	}
	return e.World(), e.ID(), nil
}

func ref(id handle.ID) value.Value {
	if id.IsNil() {
		return value.Null()
	}
	return value.Ref(id)
}

func refs(ids *sequence.Iterator[handle.ID]) value.Value {
	return value.ArrayOf(sequence.ToArray(ids, value.Ref)...)
}

func stringArg(args []value.Value, i int) string {
	s, _ := args[i].AsString()
	return s
}

// newObjectApi builds the abstract base table every class inherits.
func newObjectApi() *reflection.Api {
	api := reflection.NewApi("Object", nil)

	get, set := reflection.Bind(
		func(o models.Object) value.Value { return value.String(o.Base().Name()) },
		reflection.SetString(func(o models.Object, s string) { o.Base().SetName(s) }),
	)
	api.DeclareProperty("Name", value.TagString, get, set)

	get, _ = reflection.Bind[models.Object](func(o models.Object) value.Value {
		return value.String(o.Base().ClassName())
	}, nil)
	api.DeclareProperty("ClassName", value.TagString, get, nil)

	get, set = reflection.Bind(
		func(o models.Object) value.Value { return ref(o.Base().Parent()) },
		setParent,
	)
	api.DeclareProperty("Parent", value.TagObjectRef, get, set)

	api.DeclareProcedure("GetChildren", nil, reflection.BindProcedure(
		func(o models.Object, _ []value.Value) (value.Value, error) {
			return refs(sequence.From(o.Base().Children())), nil
		}))
	api.DeclareProcedure("GetDescendants", nil, reflection.BindProcedure(
		func(o models.Object, _ []value.Value) (value.Value, error) {
			w, id, err := worldOf(o)
			if err != nil {
				return value.Null(), err
			}
			return refs(w.Descendants(id)), nil
		}))
	api.DeclareProcedure("FindFirstChild", []value.Tag{value.TagString}, reflection.BindProcedure(
		func(o models.Object, args []value.Value) (value.Value, error) {
			w, id, err := worldOf(o)
			if err != nil {
				return value.Null(), err
			}
			child, _ := w.FindChild(id, stringArg(args, 0))
			return ref(child), nil
		}))
	api.DeclareProcedure("FindByPath", []value.Tag{value.TagString}, reflection.BindProcedure(
		func(o models.Object, args []value.Value) (value.Value, error) {
			w, id, err := worldOf(o)
			if err != nil {
				return value.Null(), err
			}
			found, _ := w.FindByPath(id, stringArg(args, 0))
			return ref(found), nil
		}))
	api.DeclareProcedure("GetFullName", nil, reflection.BindProcedure(
		func(o models.Object, _ []value.Value) (value.Value, error) {
			return value.String(FullName(o)), nil
		}))
	api.DeclareProcedure("IsA", []value.Tag{value.TagString}, reflection.BindProcedure(
		func(o models.Object, args []value.Value) (value.Value, error) {
			return value.Bool(o.Base().Api().IsA(stringArg(args, 0))), nil
		}))
	api.DeclareProcedure("Destroy", nil, reflection.BindProcedure(
		func(o models.Object, _ []value.Value) (value.Value, error) {
			e := o.Base()
			if e.World() == nil {
				return value.Null(), nil
			}
			return value.Null(), e.World().Destroy(e.ID())
		}))
	api.DeclareProcedure("GetPropertyNames", nil, reflection.BindProcedure(
		func(o models.Object, _ []value.Value) (value.Value, error) {
			names := o.Base().Api().PropertyNames()
			return value.ArrayOf(sequence.ToArray(sequence.From(names), value.String)...), nil
		}))

	api.DeclareProcedure("AddComponent", []value.Tag{value.TagString}, reflection.BindProcedure(addComponent))
	api.DeclareProcedure("HasComponent", []value.Tag{value.TagString}, reflection.BindProcedure(hasComponent))
	api.DeclareProcedure("RemoveComponent", []value.Tag{value.TagString}, reflection.BindProcedure(removeComponent))

	api.DeclareEvent(models.EventChildAdded).
		DeclareEvent(models.EventChildRemoved).
		DeclareEvent(models.EventDestroying).
		DeclareEvent(EventChanged).
		NotifyChanges(EventChanged)
	return api
}

func setParent(o models.Object, v value.Value) error {
	w, id, err := worldOf(o)
	if err != nil {
		return err
	}
	if v.IsNull() {
		return w.Reparent(id, handle.Nil)
	}
	parent, err := v.AsRef()
	if err != nil {
		return err
	}
	return w.Reparent(id, parent)
}

// FullName joins the names from the outermost ancestor down to o with dots.
func FullName(o models.Object) string {
	e := o.Base()
	names := []string{e.Name()}
	if w := e.World(); w != nil {
		for a := range w.Ancestors(e.ID()) {
			names = append(names, a.Name())
		}
	}
	slices.Reverse(names)
	return strings.Join(names, ".")
}

func storage(o models.Object, kind string) (components.Storage, handle.ID, error) {
	w, id, err := worldOf(o)
	if err != nil {
		return nil, handle.Nil, err
	}
	s, err := w.Components().Storage(components.Kind(kind))
	if err != nil {
		return nil, handle.Nil, err
	}
	return s, id, nil
}

func addComponent(o models.Object, args []value.Value) (value.Value, error) {
	s, id, err := storage(o, stringArg(args, 0))
	if err != nil {
		return value.Null(), err
	}
	if err = s.Attach(id); err != nil {
		return value.Null(), err
	}
	return value.Bool(true), nil
}

func hasComponent(o models.Object, args []value.Value) (value.Value, error) {
	s, id, err := storage(o, stringArg(args, 0))
	if err != nil {
		return value.Null(), err
	}
	return value.Bool(s.Has(id)), nil
}

func removeComponent(o models.Object, args []value.Value) (value.Value, error) {
	w, id, err := worldOf(o)
	if err != nil {
		return value.Null(), err
	}
	removed, err := w.Components().Remove(components.Kind(stringArg(args, 0)), id)
	if err != nil {
		return value.Null(), err
	}
	return value.Bool(removed), nil
}

package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/handle"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/observability/log"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/reflection"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/value"
)

type node struct {
	Entity
}

var nodeApi = reflection.NewApi("Node", nil).
	DeclareEvent(EventChildAdded).
	DeclareEvent(EventChildRemoved).
	DeclareEvent(EventDestroying)

type nodeFactory struct{}

func (nodeFactory) Create(class string) (Object, error) {
	if class != "Node" {
		return nil, fmt.Errorf("unknown class %q", class)
	}
	n := &node{}
	n.Bind(class, nodeApi)
	return n, nil
}

func newWorld(t *testing.T, opts Options) *World {
	t.Helper()
	return NewWorld(log.NewNop(), nodeFactory{}, opts)
}

func spawn(t *testing.T, w *World, name string) handle.ID {
	t.Helper()
	obj, err := w.Create("Node")
	require.NoError(t, err)
	obj.Base().SetName(name)
	return obj.Base().ID()
}

func TestCreateAndGet(t *testing.T) {
	w := newWorld(t, Options{})
	id := spawn(t, w, "A")

	e, err := w.Entity(id)
	require.NoError(t, err)
	assert.Equal(t, "Node", e.ClassName())
	assert.Equal(t, "A", e.Name())
	assert.True(t, e.Alive())
	assert.Equal(t, 1, w.Len())

	_, err = w.Get(handle.Nil)
	assert.ErrorIs(t, err, ErrInvalidID)
	_, err = w.Get(handle.Make(99, 1))
	assert.ErrorIs(t, err, ErrInvalidID)
	_, err = w.Create("Nope")
	assert.Error(t, err)
}

func TestDefaultNameIsClass(t *testing.T) {
	w := newWorld(t, Options{})
	obj, err := w.Create("Node")
	require.NoError(t, err)
	assert.Equal(t, "Node", obj.Base().Name())
}

func TestAdoptRejectsUnboundAndTwice(t *testing.T) {
	w := newWorld(t, Options{})
	_, err := w.Adopt(&node{})
	assert.ErrorIs(t, err, ErrUnbound)

	obj, err := w.Create("Node")
	require.NoError(t, err)
	_, err = w.Adopt(obj)
	assert.ErrorIs(t, err, ErrAlreadyAdopted)
}

func TestAttachRules(t *testing.T) {
	w := newWorld(t, Options{})
	a, b, c := spawn(t, w, "A"), spawn(t, w, "B"), spawn(t, w, "C")

	require.NoError(t, w.Attach(b, a))
	require.NoError(t, w.Attach(c, b))

	assert.ErrorIs(t, w.Attach(a, c), ErrCycleDetected)
	assert.ErrorIs(t, w.Attach(a, a), ErrCycleDetected)
	assert.ErrorIs(t, w.Attach(c, a), ErrAlreadyParented)

	require.NoError(t, w.Detach(c))
	require.NoError(t, w.Detach(c))
	require.NoError(t, w.Attach(c, a))

	kids, err := w.Children(a)
	require.NoError(t, err)
	assert.Equal(t, []handle.ID{b, c}, kids)
}

func TestChildEvents(t *testing.T) {
	w := newWorld(t, Options{})
	a, b := spawn(t, w, "A"), spawn(t, w, "B")
	ea, _ := w.Entity(a)

	var events []string
	_, err := nodeApi.Subscribe(ea, EventChildAdded, func(args []value.Value) error {
		ref, _ := args[0].AsRef()
		events = append(events, "added "+ref.String())
		return nil
	})
	require.NoError(t, err)
	_, err = nodeApi.Subscribe(ea, EventChildRemoved, func(args []value.Value) error {
		ref, _ := args[0].AsRef()
		events = append(events, "removed "+ref.String())
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, w.Attach(b, a))
	require.NoError(t, w.Detach(b))
	assert.Equal(t, []string{"added " + b.String(), "removed " + b.String()}, events)
}

func TestReparentValidatesFirst(t *testing.T) {
	w := newWorld(t, Options{})
	a, b, c := spawn(t, w, "A"), spawn(t, w, "B"), spawn(t, w, "C")
	require.NoError(t, w.Attach(b, a))
	require.NoError(t, w.Attach(c, b))

	assert.ErrorIs(t, w.Reparent(a, c), ErrCycleDetected)
	eb, _ := w.Entity(b)
	assert.Equal(t, a, eb.Parent(), "failed reparent must not detach")

	require.NoError(t, w.Reparent(c, a))
	kids, _ := w.Children(a)
	assert.Equal(t, []handle.ID{b, c}, kids)

	require.NoError(t, w.Reparent(c, handle.Nil))
	ec, _ := w.Entity(c)
	assert.True(t, ec.Parent().IsNil())
}

func TestDestroyCascade(t *testing.T) {
	w := newWorld(t, Options{})
	root := spawn(t, w, "Root")
	a, b, c := spawn(t, w, "A"), spawn(t, w, "B"), spawn(t, w, "C")
	require.NoError(t, w.Attach(a, root))
	require.NoError(t, w.Attach(b, a))
	require.NoError(t, w.Attach(c, b))

	var removed []handle.ID
	w.Removed().Connect(func(args []value.Value) error {
		ref, _ := args[0].AsRef()
		removed = append(removed, ref)
		return nil
	})

	require.NoError(t, w.Destroy(a))
	assert.Equal(t, []handle.ID{c, b, a}, removed, "children are destroyed before their parent")

	for _, id := range []handle.ID{a, b, c} {
		_, err := w.Get(id)
		assert.ErrorIs(t, err, ErrEntityDestroyed)
	}
	for _, name := range []string{"A", "B", "C"} {
		_, ok := w.FindByName(root, name)
		assert.False(t, ok, name)
	}
	kids, _ := w.Children(root)
	assert.Empty(t, kids)
	assert.Equal(t, 1, w.Len())

	require.NoError(t, w.Destroy(a))
	assert.Len(t, removed, 3, "second destroy is a no-op")
}

func TestDestroyNPlusOne(t *testing.T) {
	w := newWorld(t, Options{})
	root := spawn(t, w, "Root")
	for i := range 5 {
		id := spawn(t, w, fmt.Sprint(i))
		require.NoError(t, w.Attach(id, root))
		if i%2 == 0 {
			deeper := spawn(t, w, fmt.Sprint("deep", i))
			require.NoError(t, w.Attach(deeper, id))
		}
	}
	descendants := w.Descendants(root).Count()
	require.Equal(t, 8, descendants)

	seen := map[handle.ID]int{}
	w.Removed().Connect(func(args []value.Value) error {
		ref, _ := args[0].AsRef()
		seen[ref]++
		return nil
	})
	require.NoError(t, w.Destroy(root))
	assert.Len(t, seen, descendants+1)
	for id, n := range seen {
		assert.Equal(t, 1, n, id.String())
	}
	assert.Zero(t, w.Len())
}

func TestDestroyReentrant(t *testing.T) {
	w := newWorld(t, Options{})
	root := spawn(t, w, "Root")
	a, b, other := spawn(t, w, "A"), spawn(t, w, "B"), spawn(t, w, "Other")
	require.NoError(t, w.Attach(a, root))
	require.NoError(t, w.Attach(b, root))

	ea, _ := w.Entity(a)
	// destroying the parent from inside a child's Destroying handler
	_, err := nodeApi.Subscribe(ea, EventDestroying, func([]value.Value) error {
		return w.Destroy(root)
	})
	require.NoError(t, err)

	er, _ := w.Entity(root)
	// moving a sibling away while the root is being destroyed
	_, err = nodeApi.Subscribe(er, EventDestroying, func([]value.Value) error {
		return w.Detach(b)
	})
	require.NoError(t, err)

	require.NoError(t, w.Destroy(a))
	assert.False(t, w.Contains(a))
	assert.False(t, w.Contains(root))
	assert.True(t, w.Contains(b), "b was detached before the cascade reached it")
	assert.True(t, w.Contains(other))
}

func TestDestroyingHandlerErrorIsNotFatal(t *testing.T) {
	w := newWorld(t, Options{})
	a := spawn(t, w, "A")
	ea, _ := w.Entity(a)
	_, err := nodeApi.Subscribe(ea, EventDestroying, func([]value.Value) error {
		return errors.New("handler failed")
	})
	require.NoError(t, err)
	require.NoError(t, w.Destroy(a))
	assert.False(t, w.Contains(a))
	assert.Equal(t, StateDestroyed, ea.State())
	_, ok := ea.LookupSignal(EventDestroying)
	assert.False(t, ok)
}

func TestStaleIDAfterSlotReuse(t *testing.T) {
	w := newWorld(t, Options{})
	a := spawn(t, w, "A")
	require.NoError(t, w.Destroy(a))
	b := spawn(t, w, "B")

	assert.Equal(t, a.Index(), b.Index())
	assert.NotEqual(t, a, b)
	_, err := w.Get(a)
	assert.ErrorIs(t, err, ErrEntityDestroyed)
	assert.ErrorIs(t, w.Attach(a, b), ErrEntityDestroyed)
	assert.NoError(t, w.Destroy(a))
	assert.True(t, w.Contains(b))
}

func TestWorldFull(t *testing.T) {
	w := newWorld(t, Options{MaxEntities: 2})
	spawn(t, w, "A")
	id := spawn(t, w, "B")
	_, err := w.Create("Node")
	assert.ErrorIs(t, err, ErrWorldFull)

	require.NoError(t, w.Destroy(id))
	_, err = w.Create("Node")
	assert.NoError(t, err)
}

func TestFindByPathAndDepth(t *testing.T) {
	w := newWorld(t, Options{MaxSearchDepth: 2})
	root := spawn(t, w, "Root")
	a, b, c := spawn(t, w, "A"), spawn(t, w, "B"), spawn(t, w, "C")
	require.NoError(t, w.Attach(a, root))
	require.NoError(t, w.Attach(b, a))
	require.NoError(t, w.Attach(c, b))

	got, ok := w.FindByPath(root, "A/B")
	require.True(t, ok)
	assert.Equal(t, b, got)
	got, ok = w.FindByPath(root, "/A//B/")
	require.True(t, ok)
	assert.Equal(t, b, got)
	_, ok = w.FindByPath(root, "A/B/C")
	assert.False(t, ok, "path deeper than the search bound")
	_, ok = w.FindByPath(root, "A/X")
	assert.False(t, ok)

	_, ok = w.FindByName(root, "C")
	assert.False(t, ok, "C sits below the search bound")
	got, ok = w.FindByName(root, "B")
	require.True(t, ok)
	assert.Equal(t, b, got)
	_, ok = w.FindByName(root, "Root")
	assert.False(t, ok, "root itself is not searched")

	var chain []string
	for e := range w.Ancestors(c) {
		chain = append(chain, e.Name())
	}
	assert.Equal(t, []string{"B", "A", "Root"}, chain)
}

func TestServices(t *testing.T) {
	type clock struct{ tick int }
	w := newWorld(t, Options{})
	_, ok := Service[*clock](w)
	assert.False(t, ok)

	c := &clock{tick: 3}
	Provide(w, c)
	got, ok := Service[*clock](w)
	require.True(t, ok)
	assert.Same(t, c, got)
}

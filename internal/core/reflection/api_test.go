package reflection

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/events/bus"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/value"
)

type lamp struct {
	brightness float64
	label      string
	signals    map[string]bus.Signal
}

func (l *lamp) Signal(name string) bus.Signal {
	if l.signals == nil {
		l.signals = make(map[string]bus.Signal)
	}
	if s, ok := l.signals[name]; ok {
		return s
	}
	s := bus.New(name)
	l.signals[name] = s
	return s
}

func (l *lamp) LookupSignal(name string) (bus.Signal, bool) {
	s, ok := l.signals[name]
	return s, ok
}

type spotLamp struct {
	lamp
	angle float64
}

type lampLike interface{ base() *lamp }

func (l *lamp) base() *lamp { return l }

func newTables() (base, derived *Api) {
	base = NewApi("Lamp", nil)
	get, set := Bind(
		func(l lampLike) value.Value { return value.Double(l.base().brightness) },
		SetDouble(func(l lampLike, d float64) { l.base().brightness = d }),
	)
	base.DeclareProperty("Brightness", value.TagDouble, get, set)
	get, _ = Bind[lampLike](func(l lampLike) value.Value { return value.String(l.base().label) }, nil)
	base.DeclareProperty("Label", value.TagString, get, nil)
	base.DeclareProcedure("Scale", []value.Tag{value.TagDouble}, BindProcedure(func(l lampLike, args []value.Value) (value.Value, error) {
		f, _ := args[0].AsDouble()
		l.base().brightness *= f
		return value.Double(l.base().brightness), nil
	}))
	base.DeclareEvent("Changed").DeclareEvent("Flicker").NotifyChanges("Changed")

	derived = NewApi("SpotLamp", nil).Inherit(base)
	get, set = Bind(
		func(s *spotLamp) value.Value { return value.Double(s.brightness * 2) },
		SetDouble(func(s *spotLamp, d float64) { s.brightness = d / 2 }),
	)
	derived.DeclareProperty("Brightness", value.TagDouble, get, set)
	get, set = Bind(
		func(s *spotLamp) value.Value { return value.Double(s.angle) },
		SetDouble(func(s *spotLamp, d float64) { s.angle = d }),
	)
	derived.DeclareProperty("Angle", value.TagDouble, get, set)
	return base, derived
}

func TestGetSetRoundTrip(t *testing.T) {
	base, _ := newTables()
	l := &lamp{brightness: 1}

	require.NoError(t, base.Set(l, "Brightness", value.Double(2.5)))
	got, err := base.Get(l, "Brightness")
	require.NoError(t, err)
	assert.True(t, got.Equal(value.Double(2.5)))

	_, err = base.Get(l, "Nonexistent")
	assert.ErrorIs(t, err, ErrPropertyNotFound)
	assert.ErrorIs(t, base.Set(l, "Nonexistent", value.Null()), ErrPropertyNotFound)
	assert.ErrorIs(t, base.Set(l, "Brightness", value.Integer(2)), ErrInvalidValueType)
	assert.ErrorIs(t, base.Set(l, "Label", value.String("x")), ErrReadOnlyProperty)
}

func TestInheritanceResolution(t *testing.T) {
	base, derived := newTables()

	p, err := derived.ResolveProperty("Label")
	require.NoError(t, err)
	assert.Same(t, base, p.Owner)

	p, err = derived.ResolveProperty("Brightness")
	require.NoError(t, err)
	assert.Same(t, derived, p.Owner)

	s := &spotLamp{lamp: lamp{brightness: 1}}
	got, err := derived.Get(s, "Brightness")
	require.NoError(t, err)
	assert.True(t, got.Equal(value.Double(2)))

	// base entries still serve derived instances through the interface receiver
	out, err := derived.Invoke(s, "Scale", []value.Value{value.Double(3)})
	require.NoError(t, err)
	assert.True(t, out.Equal(value.Double(3)))

	assert.True(t, derived.IsA("Lamp"))
	assert.False(t, base.IsA("SpotLamp"))
	assert.Equal(t, []string{"Angle", "Brightness", "Label"}, derived.PropertyNames())
	assert.Equal(t, []string{"Changed", "Flicker"}, derived.EventNames())
	assert.Equal(t, []string{"Scale"}, derived.ProcedureNames())
}

func TestInvokeArgumentErrors(t *testing.T) {
	base, _ := newTables()
	l := &lamp{brightness: 1}

	_, err := base.Invoke(l, "Scale", nil)
	assert.ErrorIs(t, err, ErrArgument)
	_, err = base.Invoke(l, "Scale", []value.Value{value.Integer(2)})
	assert.ErrorIs(t, err, ErrArgument)
	_, err = base.Invoke(l, "Scale", []value.Value{value.Double(2), value.Double(2)})
	assert.ErrorIs(t, err, ErrArgument)
	_, err = base.Invoke(l, "Explode", nil)
	assert.ErrorIs(t, err, ErrProcedureNotFound)
}

func TestVariadicProcedure(t *testing.T) {
	api := NewApi("Logger", nil)
	api.DeclareVariadic("Print", []value.Tag{value.TagString}, func(_ any, args []value.Value) (value.Value, error) {
		return value.Integer(int64(len(args))), nil
	})

	out, err := api.Invoke(&lamp{}, "Print", []value.Value{value.String("a"), value.Integer(1), value.Null()})
	require.NoError(t, err)
	assert.True(t, out.Equal(value.Integer(3)))
	_, err = api.Invoke(&lamp{}, "Print", nil)
	assert.ErrorIs(t, err, ErrArgument)
}

func TestInvalidReceiver(t *testing.T) {
	_, derived := newTables()
	_, err := derived.Get(&lamp{}, "Angle")
	assert.ErrorIs(t, err, ErrInvalidReceiver)
}

func TestFireOrderAndSnapshot(t *testing.T) {
	base, _ := newTables()
	l := &lamp{}
	var calls []string
	var connA *bus.Connection
	connA, err := base.Subscribe(l, "Flicker", func([]value.Value) error {
		calls = append(calls, "A")
		connA.Disconnect()
		return nil
	})
	require.NoError(t, err)
	_, err = base.Subscribe(l, "Flicker", func([]value.Value) error {
		calls = append(calls, "B")
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, base.Fire(l, "Flicker"))
	require.NoError(t, base.Fire(l, "Flicker"))
	assert.Equal(t, []string{"A", "B", "B"}, calls)

	assert.ErrorIs(t, base.Fire(l, "Explode"), ErrEventNotFound)
	_, err = base.Subscribe(l, "Explode", func([]value.Value) error { return nil })
	assert.ErrorIs(t, err, ErrEventNotFound)
	_, err = base.Subscribe(struct{}{}, "Flicker", func([]value.Value) error { return nil })
	assert.ErrorIs(t, err, ErrNoEventSource)
}

func TestSetFiresChanged(t *testing.T) {
	base, _ := newTables()
	l := &lamp{}
	var changed []string
	_, err := base.Subscribe(l, "Changed", func(args []value.Value) error {
		name, _ := args[0].AsString()
		changed = append(changed, name)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, base.Set(l, "Brightness", value.Double(4)))
	assert.Equal(t, []string{"Brightness"}, changed)

	boom := errors.New("boom")
	_, _ = base.Subscribe(l, "Changed", func([]value.Value) error { return boom })
	assert.ErrorIs(t, base.Set(l, "Brightness", value.Double(5)), boom)
	assert.Equal(t, 5.0, l.brightness)
}

func TestInheritCyclePanics(t *testing.T) {
	a := NewApi("A", nil)
	b := NewApi("B", a)
	assert.Panics(t, func() { a.Inherit(b) })
}

package components

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/handle"
)

type position struct{ X, Y, Z float64 }

type body struct {
	Mass     float64
	Velocity [3]float64
}

type sensor struct{ Range float64 }

func TestCreateIsIdempotent(t *testing.T) {
	s := NewStore[position]("Position")
	owner := handle.Make(0, 1)

	id1, p1, err := s.Create(owner)
	require.NoError(t, err)
	p1.X = 4

	id2, p2, err := s.Create(owner)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
	assert.Same(t, p1, p2)
	assert.Equal(t, 4.0, p2.X)
	assert.Equal(t, 1, s.Len())
}

func TestDestroyRecyclesZeroedSlot(t *testing.T) {
	s := NewStore[position]("Position")
	a, b := handle.Make(0, 1), handle.Make(1, 1)

	id, p, err := s.Create(a)
	require.NoError(t, err)
	*p = position{1, 2, 3}

	assert.True(t, s.Destroy(a))
	assert.False(t, s.Destroy(a))
	assert.False(t, s.Has(a))
	_, ok := s.Owner(id)
	assert.False(t, ok)

	reused, q, err := s.Create(b)
	require.NoError(t, err)
	assert.Equal(t, id, reused)
	assert.Equal(t, position{}, *q)

	owner, ok := s.Owner(reused)
	require.True(t, ok)
	assert.Equal(t, b, owner)
}

func TestPointersSurviveGrowth(t *testing.T) {
	s := NewStore[position]("Position")
	_, first, err := s.Create(handle.Make(0, 1))
	require.NoError(t, err)
	first.Y = 7

	for i := uint32(1); i < 3*blockSize; i++ {
		_, _, err := s.Create(handle.Make(i, 1))
		require.NoError(t, err)
	}
	got, ok := s.Get(handle.Make(0, 1))
	require.True(t, ok)
	assert.Same(t, first, got)
	assert.Equal(t, 7.0, got.Y)
}

func TestNilOwnerRejected(t *testing.T) {
	s := NewStore[position]("Position")
	_, _, err := s.Create(handle.Nil)
	assert.ErrorIs(t, err, ErrNilOwner)
}

func TestEachVisitsLiveInSlotOrder(t *testing.T) {
	s := NewStore[position]("Position")
	for i := uint32(0); i < 4; i++ {
		_, p, _ := s.Create(handle.Make(i, 1))
		p.X = float64(i)
	}
	s.Destroy(handle.Make(1, 1))

	var seen []float64
	s.Each(func(_ handle.ID, p *position) bool {
		seen = append(seen, p.X)
		return true
	})
	assert.Equal(t, []float64{0, 2, 3}, seen)
}

func TestManagerDependencies(t *testing.T) {
	m := NewManager()
	positions := Register[position](m, "Position")
	bodies := Register[body](m, "Body", "Position")
	sensors := Register[sensor](m, "Sensor", "Body")
	owner := handle.Make(3, 2)

	_, p, err := positions.Create(owner)
	require.NoError(t, err)
	p.Z = 9

	_, _, err = sensors.Create(owner)
	require.NoError(t, err)
	assert.True(t, bodies.Has(owner))
	existing, _ := positions.Get(owner)
	assert.Equal(t, 9.0, existing.Z, "auto-created dependency must not reset an existing component")

	removed, err := m.Remove("Position", owner)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, bodies.Has(owner))
	assert.False(t, sensors.Has(owner))

	_, _, err = sensors.Create(owner)
	require.NoError(t, err)
	m.RemoveAll(owner)
	for _, k := range m.Kinds() {
		st, err := m.Storage(k)
		require.NoError(t, err)
		assert.False(t, st.Has(owner), k)
	}

	got, ok := StoreOf[body](m)
	require.True(t, ok)
	assert.Same(t, bodies, got)
	_, ok = StoreOf[int](m)
	assert.False(t, ok)
	assert.Equal(t, []Kind{"Position", "Body", "Sensor"}, m.Kinds())
}

func TestManagerRegistrationErrors(t *testing.T) {
	m := NewManager()
	Register[position](m, "Position")

	assert.Panics(t, func() { Register[body](m, "Position") })
	assert.Panics(t, func() { Register[position](m, "Other") })
	assert.Panics(t, func() { Register[body](m, "Body", "Missing") })

	_, err := m.Storage("Missing")
	assert.ErrorIs(t, err, ErrUnknownKind)
	_, err = m.Remove("Missing", handle.Make(0, 1))
	assert.ErrorIs(t, err, ErrUnknownKind)
}

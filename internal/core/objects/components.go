package objects

import (
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/components"
	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/value"
)

const (
	KindTransform components.Kind = "Transform"
	KindRigidBody components.Kind = "RigidBody"
)

// Transform places an entity in world space.
type Transform struct {
	Position value.Vector3
	Rotation value.Vector3 // euler angles, degrees
}

// RigidBody is the physics-facing state of an entity. The physics step
// itself lives outside this module.
type RigidBody struct {
	Mass     float64
	Velocity value.Vector3
}

// DefaultMass is used by a RigidBody created with a zero mass.
const DefaultMass = 1.0

// RegisterComponents registers the built-in component kinds on m.
func RegisterComponents(m *components.Manager) {
	components.Register[Transform](m, KindTransform)
	components.Register[RigidBody](m, KindRigidBody, KindTransform)
}

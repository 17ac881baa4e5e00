package components

import (
	"github.com/jakecoffman/cp"
	"github.com/yohamta/donburi"
)

// BodyType selects how the simulation moves a body.
type BodyType int

const (
	// BodyDynamic bodies are fully simulated: gravity, forces, impulses.
	BodyDynamic BodyType = iota
	// BodyStatic bodies never move.
	BodyStatic
	// BodyKinematic bodies move toward externally supplied targets but are
	// not pushed by other bodies.
	BodyKinematic
)

func (t BodyType) String() string {
	switch t {
	case BodyDynamic:
		return "dynamic"
	case BodyStatic:
		return "static"
	case BodyKinematic:
		return "kinematic"
	}
	return "unknown"
}

// RigidBodyData describes the motion properties of an entity. Handle is owned
// by the physics world; game code must not touch it.
type RigidBodyData struct {
	Type            BodyType
	Velocity        Vector
	AngularVelocity float64
	GravityScale    float64
	LinearDamping   float64
	AngularDamping  float64
	CanRotate       bool
	CCD             bool

	// Handle is nil until the physics world tracks this body.
	Handle *cp.Body
}

var RigidBody = donburi.NewComponentType[RigidBodyData]()

// NewRigidBody returns a RigidBodyData with the default motion properties.
func NewRigidBody(t BodyType) RigidBodyData {
	return RigidBodyData{
		Type:         t,
		GravityScale: 1,
		CanRotate:    true,
	}
}

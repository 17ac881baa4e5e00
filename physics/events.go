package physics

import (
	"github.com/yohamta/donburi"

	"github.com/magicjedi90/insiculous-2d-sub000/components"
)

// CollisionEvent reports one frame of a collision pair's lifecycle. Started
// is true only on the first step the pair is found touching; Stopped is true
// only on the step the pair separates. A steady-state contact has both false.
type CollisionEvent struct {
	EntityA donburi.Entity
	EntityB donburi.Entity
	Started bool
	Stopped bool
}

// ContactPoint is one world-space contact, in display units. Depth is the
// penetration depth; positive values mean overlap.
type ContactPoint struct {
	Point  components.Vector
	Normal components.Vector
	Depth  float64
}

// CollisionData bundles an event with its contact manifold. Stopped events
// carry no points since the contact geometry no longer exists.
type CollisionData struct {
	Event  CollisionEvent
	Points []ContactPoint
}

// EntityPair is an unordered entity pair normalized so that either ordering
// of the same two entities produces an identical key.
type EntityPair struct {
	A donburi.Entity
	B donburi.Entity
}

// MakePair returns the canonical pair for two entities.
func MakePair(a, b donburi.Entity) EntityPair {
	if b < a {
		a, b = b, a
	}
	return EntityPair{A: a, B: b}
}

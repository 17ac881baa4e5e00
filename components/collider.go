package components

import (
	"github.com/jakecoffman/cp"
	"github.com/yohamta/donburi"
)

// ShapeKind selects the collision geometry of a collider.
type ShapeKind int

const (
	ShapeBox ShapeKind = iota
	ShapeCircle
	ShapeCapsuleX
	ShapeCapsuleY
)

// ColliderData describes the collision geometry of an entity, in display
// units. Handle is owned by the physics world; game code must not touch it.
type ColliderData struct {
	Kind ShapeKind
	// HalfWidth/HalfHeight are the box half-extents. HalfHeight doubles as
	// the capsule half-height (along the capsule axis, excluding the caps).
	HalfWidth  float64
	HalfHeight float64
	// Radius applies to circles and capsules.
	Radius float64
	// Offset is the local translation from the body origin.
	Offset Vector
	// Sensor colliders report contacts but exert no impulse.
	Sensor      bool
	Friction    float64
	Restitution float64
	// Group and Mask are collision filter bitmasks. A pair is considered
	// only when each collider's Group intersects the other's Mask. Zero
	// means "match everything".
	Group uint
	Mask  uint

	// Handle is nil until the physics world tracks this collider.
	Handle *cp.Shape
}

var Collider = donburi.NewComponentType[ColliderData]()

// NewBoxCollider returns a box collider with the given half-extents.
func NewBoxCollider(halfWidth, halfHeight float64) ColliderData {
	return ColliderData{
		Kind:       ShapeBox,
		HalfWidth:  halfWidth,
		HalfHeight: halfHeight,
		Friction:   0.8,
	}
}

// NewCircleCollider returns a circle collider with the given radius.
func NewCircleCollider(radius float64) ColliderData {
	return ColliderData{
		Kind:     ShapeCircle,
		Radius:   radius,
		Friction: 0.8,
	}
}

// NewCapsuleCollider returns a capsule collider. Horizontal selects the
// capsule axis; halfHeight is measured along that axis, excluding the caps.
func NewCapsuleCollider(halfHeight, radius float64, horizontal bool) ColliderData {
	kind := ShapeCapsuleY
	if horizontal {
		kind = ShapeCapsuleX
	}
	return ColliderData{
		Kind:       kind,
		HalfHeight: halfHeight,
		Radius:     radius,
		Friction:   0.8,
	}
}

package physics

import (
	"github.com/jakecoffman/cp"
	"github.com/yohamta/donburi"

	"github.com/magicjedi90/insiculous-2d-sub000/components"
)

// RaycastHit describes the first collider struck by a ray, in display units.
type RaycastHit struct {
	Entity   donburi.Entity
	Point    components.Vector
	Normal   components.Vector
	Distance float64
}

// Raycast casts a ray from origin along direction and returns the first hit
// within maxDistance, or ok=false when nothing is struck. Direction need not
// be normalized.
func (w *World) Raycast(origin, direction components.Vector, maxDistance float64) (RaycastHit, bool) {
	if w == nil || maxDistance <= 0 {
		return RaycastHit{}, false
	}
	dir := direction.Normalize()
	if dir.Length() == 0 {
		return RaycastHit{}, false
	}

	start := w.toSim(origin)
	end := w.toSim(origin.Add(dir.Mult(maxDistance)))
	info := w.space.SegmentQueryFirst(start, end, 0, cp.ShapeFilter{
		Group:      cp.NO_GROUP,
		Categories: cp.ALL_CATEGORIES,
		Mask:       cp.ALL_CATEGORIES,
	})
	if info.Shape == nil {
		return RaycastHit{}, false
	}
	entity, ok := w.shapeOwner[info.Shape]
	if !ok {
		return RaycastHit{}, false
	}

	return RaycastHit{
		Entity:   entity,
		Point:    w.toDisplay(info.Point),
		Normal:   components.Vector{X: info.Normal.X, Y: info.Normal.Y},
		Distance: maxDistance * info.Alpha,
	}, true
}

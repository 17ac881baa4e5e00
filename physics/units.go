package physics

import (
	"github.com/jakecoffman/cp"

	"github.com/magicjedi90/insiculous-2d-sub000/components"
)

// Lengths cross the wrapper boundary in display units (pixels) and live
// inside the simulation in engine units. Angles are radians on both sides.

func (w *World) toSim(v components.Vector) cp.Vector {
	return cp.Vector{X: v.X / w.cfg.PixelsPerUnit, Y: v.Y / w.cfg.PixelsPerUnit}
}

func (w *World) toDisplay(v cp.Vector) components.Vector {
	return components.Vector{X: v.X * w.cfg.PixelsPerUnit, Y: v.Y * w.cfg.PixelsPerUnit}
}

func (w *World) toSimScalar(s float64) float64 {
	return s / w.cfg.PixelsPerUnit
}

func (w *World) toDisplayScalar(s float64) float64 {
	return s * w.cfg.PixelsPerUnit
}

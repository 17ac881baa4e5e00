package debugdraw

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/jakecoffman/cp"

	"github.com/magicjedi90/insiculous-2d-sub000/physics"
)

// Draw renders every simulation shape onto screen for debugging. Simulation
// coordinates are scaled back to display units by the world's configured
// pixels-per-unit.
func Draw(w *physics.World, screen *ebiten.Image) {
	if w == nil || w.Space() == nil || screen == nil {
		return
	}
	cp.DrawSpace(w.Space(), &drawer{screen: screen, scale: w.Config().PixelsPerUnit})
}

type drawer struct {
	screen *ebiten.Image
	scale  float64
}

func (d *drawer) point(v cp.Vector) cp.Vector {
	return cp.Vector{X: v.X * d.scale, Y: v.Y * d.scale}
}

func (d *drawer) DrawCircle(pos cp.Vector, angle, radius float64, outline, fill cp.FColor, data interface{}) {
	if d.screen == nil {
		return
	}
	c := fcolorToRGBA(outline)
	p := d.point(pos)
	r := radius * d.scale
	steps := 20
	prev := cp.Vector{X: p.X + r, Y: p.Y}
	for i := 1; i <= steps; i++ {
		th := float64(i) * (2 * math.Pi / float64(steps))
		cur := cp.Vector{X: p.X + math.Cos(th)*r, Y: p.Y + math.Sin(th)*r}
		ebitenutil.DrawLine(d.screen, prev.X, prev.Y, cur.X, cur.Y, c)
		prev = cur
	}
	ax := p.X + math.Cos(angle)*r
	ay := p.Y + math.Sin(angle)*r
	ebitenutil.DrawLine(d.screen, p.X, p.Y, ax, ay, c)
}

func (d *drawer) DrawSegment(a, b cp.Vector, fill cp.FColor, data interface{}) {
	if d.screen == nil {
		return
	}
	pa, pb := d.point(a), d.point(b)
	ebitenutil.DrawLine(d.screen, pa.X, pa.Y, pb.X, pb.Y, fcolorToRGBA(fill))
}

func (d *drawer) DrawFatSegment(a, b cp.Vector, radius float64, outline, fill cp.FColor, data interface{}) {
	if d.screen == nil {
		return
	}
	pa, pb := d.point(a), d.point(b)
	ebitenutil.DrawLine(d.screen, pa.X, pa.Y, pb.X, pb.Y, fcolorToRGBA(outline))
	if radius > 0 {
		d.DrawCircle(a, 0, radius, outline, fill, data)
		d.DrawCircle(b, 0, radius, outline, fill, data)
	}
}

func (d *drawer) DrawPolygon(count int, verts []cp.Vector, radius float64, outline, fill cp.FColor, data interface{}) {
	if d.screen == nil || count == 0 {
		return
	}
	c := fcolorToRGBA(outline)
	for i := 0; i < count; i++ {
		j := (i + 1) % count
		a := d.point(verts[i])
		b := d.point(verts[j])
		ebitenutil.DrawLine(d.screen, a.X, a.Y, b.X, b.Y, c)
	}
	if radius > 0 {
		for i := 0; i < count; i++ {
			d.DrawCircle(verts[i], 0, radius, outline, fill, data)
		}
	}
}

func (d *drawer) DrawDot(size float64, pos cp.Vector, fill cp.FColor, data interface{}) {
	if d.screen == nil {
		return
	}
	c := fcolorToRGBA(fill)
	p := d.point(pos)
	l := size / 2
	ebitenutil.DrawLine(d.screen, p.X-l, p.Y, p.X+l, p.Y, c)
	ebitenutil.DrawLine(d.screen, p.X, p.Y-l, p.X, p.Y+l, c)
}

func (d *drawer) Flags() uint {
	return cp.DRAW_SHAPES | cp.DRAW_COLLISION_POINTS
}

func (d *drawer) OutlineColor() cp.FColor {
	return cp.FColor{R: 0.2, G: 1.0, B: 0.2, A: 1.0}
}

func (d *drawer) ShapeColor(shape *cp.Shape, data interface{}) cp.FColor {
	if shape == nil {
		return cp.FColor{R: 1, G: 1, B: 1, A: 1}
	}
	if shape.Sensor() {
		return cp.FColor{R: 1.0, G: 0.85, B: 0.2, A: 1.0}
	}
	if shape.Body() != nil && shape.Body().GetType() == cp.BODY_STATIC {
		return cp.FColor{R: 0.4, G: 0.7, B: 1.0, A: 1.0}
	}
	return cp.FColor{R: 0.9, G: 0.4, B: 0.9, A: 1.0}
}

func (d *drawer) ConstraintColor() cp.FColor {
	return cp.FColor{R: 0.7, G: 0.7, B: 0.7, A: 1.0}
}

func (d *drawer) CollisionPointColor() cp.FColor {
	return cp.FColor{R: 1.0, G: 0.1, B: 0.1, A: 1.0}
}

func (d *drawer) Data() interface{} {
	return nil
}

func fcolorToRGBA(c cp.FColor) color.RGBA {
	clamp := func(v float32) uint8 {
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		return uint8(v * 255)
	}
	return color.RGBA{R: clamp(c.R), G: clamp(c.G), B: clamp(c.B), A: clamp(c.A)}
}

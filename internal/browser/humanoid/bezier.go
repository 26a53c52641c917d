// internal/browser/humanoid/bezier.go
package humanoid

import (
	"github.com/xkilldash9x/mimic/internal/config"
	"github.com/xkilldash9x/mimic/internal/jitter"
)

// CubicPath is a cubic Bezier curve defined by its four control points.
type CubicPath struct {
	P0, P1, P2, P3 Point
}

// At evaluates the curve at t in [0, 1].
func (c CubicPath) At(t float64) Point {
	return BezierPoint(c.P0, c.P1, c.P2, c.P3, t)
}

// BezierPoint evaluates a cubic Bezier curve with the polynomial coefficient
// expansion B(t) = a*t^3 + b*t^2 + c*t + p0.
func BezierPoint(p0, p1, p2, p3 Point, t float64) Point {
	cx := 3 * (p1.X - p0.X)
	bx := 3*(p2.X-p1.X) - cx
	ax := p3.X - p0.X - cx - bx

	cy := 3 * (p1.Y - p0.Y)
	by := 3*(p2.Y-p1.Y) - cy
	ay := p3.Y - p0.Y - cy - by

	t2 := t * t
	t3 := t2 * t
	return Point{
		X: ax*t3 + bx*t2 + cx*t + p0.X,
		Y: ay*t3 + by*t2 + cy*t + p0.Y,
	}
}

// BuildControlPoints places two control points along the start->end axis at
// independently drawn fractions (cfg.Control1 and cfg.Control2) and pushes
// each sideways by an independently drawn perpendicular deviation of up to
// cfg.Deviation times the span. Identical endpoints yield identical control
// points.
func BuildControlPoints(start, end Point, cfg config.HumanoidConfig) (Point, Point) {
	axis := end.Sub(start)
	span := axis.Mag()
	if span < 1e-9 {
		return start, end
	}
	normal := axis.Normalize().Perp()

	place := func(frac config.FloatRange) Point {
		along := start.Add(axis.Mul(frac.Sample()))
		offset := jitter.Float(-cfg.Deviation, cfg.Deviation) * span
		return along.Add(normal.Mul(offset))
	}
	return place(cfg.Control1), place(cfg.Control2)
}

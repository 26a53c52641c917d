// internal/browser/humanoid/vector.go
package humanoid

import "math"

// Point is a coordinate (or displacement) in the top-level viewport's
// coordinate space. It is an immutable value type.
type Point struct {
	X float64
	Y float64
}

func (p Point) Add(o Point) Point { return Point{X: p.X + o.X, Y: p.Y + o.Y} }

func (p Point) Sub(o Point) Point { return Point{X: p.X - o.X, Y: p.Y - o.Y} }

// Mul scales both components by s.
func (p Point) Mul(s float64) Point { return Point{X: p.X * s, Y: p.Y * s} }

// Mag is the Euclidean length of p taken as a vector.
func (p Point) Mag() float64 { return math.Hypot(p.X, p.Y) }

// Dist is the Euclidean distance between p and o.
func (p Point) Dist(o Point) float64 { return math.Hypot(p.X-o.X, p.Y-o.Y) }

// Normalize returns the unit vector along p, or the zero vector when p is
// (numerically) zero.
func (p Point) Normalize() Point {
	m := p.Mag()
	if m < 1e-9 {
		return Point{}
	}
	return p.Mul(1 / m)
}

// Perp returns p rotated 90 degrees counter-clockwise.
func (p Point) Perp() Point { return Point{X: -p.Y, Y: p.X} }

// Clamp confines p to the rectangle [0, w] x [0, h].
func (p Point) Clamp(w, h float64) Point {
	return Point{X: math.Max(0, math.Min(w, p.X)), Y: math.Max(0, math.Min(h, p.Y))}
}

// internal/browser/humanoid/vector_test.go
package humanoid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPointArithmetic(t *testing.T) {
	a, b := Point{3, 4}, Point{1, -2}
	assert.Equal(t, Point{4, 2}, a.Add(b))
	assert.Equal(t, Point{2, 6}, a.Sub(b))
	assert.Equal(t, Point{6, 8}, a.Mul(2))
	assert.Equal(t, 5.0, a.Mag())
	assert.Equal(t, 5.0, Point{}.Dist(a))
	assert.Equal(t, Point{-4, 3}, a.Perp())
}

func TestPointNormalize(t *testing.T) {
	n := Point{3, 4}.Normalize()
	assert.InDelta(t, 0.6, n.X, 1e-9)
	assert.InDelta(t, 0.8, n.Y, 1e-9)
	assert.Equal(t, Point{}, Point{}.Normalize(), "zero vector stays zero")
}

func TestPointClamp(t *testing.T) {
	assert.Equal(t, Point{0, 800}, Point{-5, 900}.Clamp(1280, 800))
	assert.Equal(t, Point{10, 10}, Point{10, 10}.Clamp(1280, 800))
}

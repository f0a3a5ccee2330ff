package strata

import "math"

// MinExtent is the smallest width or height a Bounds is clamped to after
// a transform.
const MinExtent = 1.0

// Bounds is an axis-aligned rectangle in canvas pixel coordinates.
//
// Width and Height are stored alongside the extremes so that consumers
// can read them without recomputation; every mutator keeps
// Width == MaxX-MinX and Height == MaxY-MinY.
type Bounds struct {
	MinX   float64 `json:"minX" yaml:"minX"`
	MinY   float64 `json:"minY" yaml:"minY"`
	MaxX   float64 `json:"maxX" yaml:"maxX"`
	MaxY   float64 `json:"maxY" yaml:"maxY"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// BoundsAround returns the square of half-size r centered on p.
func BoundsAround(p Point, r float64) Bounds {
	return Bounds{MinX: p.X - r, MinY: p.Y - r, MaxX: p.X + r, MaxY: p.Y + r}.Recompute()
}

// BoundsOf returns the bounds of points, each inflated by r.
// An empty slice yields the zero Bounds.
func BoundsOf(points []Point, r float64) Bounds {
	if len(points) == 0 {
		return Bounds{}
	}
	b := BoundsAround(points[0], r)
	for _, p := range points[1:] {
		b = b.Expand(p, r)
	}
	return b
}

// Expand grows b to include the square of half-size r around p.
func (b Bounds) Expand(p Point, r float64) Bounds {
	b.MinX = math.Min(b.MinX, p.X-r)
	b.MinY = math.Min(b.MinY, p.Y-r)
	b.MaxX = math.Max(b.MaxX, p.X+r)
	b.MaxY = math.Max(b.MaxY, p.Y+r)
	return b.Recompute()
}

// Translate moves b by (dx, dy).
func (b Bounds) Translate(dx, dy float64) Bounds {
	b.MinX += dx
	b.MaxX += dx
	b.MinY += dy
	b.MaxY += dy
	return b.Recompute()
}

// Recompute derives Width and Height from the extremes, swapping min and
// max if they were inverted.
func (b Bounds) Recompute() Bounds {
	if b.MaxX < b.MinX {
		b.MinX, b.MaxX = b.MaxX, b.MinX
	}
	if b.MaxY < b.MinY {
		b.MinY, b.MaxY = b.MaxY, b.MinY
	}
	b.Width = b.MaxX - b.MinX
	b.Height = b.MaxY - b.MinY
	return b
}

// Clamp widens b symmetrically about its center until both extents are
// at least min.
func (b Bounds) Clamp(min float64) Bounds {
	b = b.Recompute()
	if b.Width < min {
		cx := (b.MinX + b.MaxX) / 2
		b.MinX, b.MaxX = cx-min/2, cx+min/2
	}
	if b.Height < min {
		cy := (b.MinY + b.MaxY) / 2
		b.MinY, b.MaxY = cy-min/2, cy+min/2
	}
	return b.Recompute()
}

// Contains reports whether p lies inside b, edges included.
func (b Bounds) Contains(p Point) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// Center returns the midpoint of b.
func (b Bounds) Center() Point {
	return Point{X: (b.MinX + b.MaxX) / 2, Y: (b.MinY + b.MaxY) / 2}
}

// IsEmpty reports whether b has no area.
func (b Bounds) IsEmpty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Consistent reports whether the cached extents match the extremes.
func (b Bounds) Consistent() bool {
	const eps = 1e-9
	return b.Width >= 0 && b.Height >= 0 &&
		math.Abs(b.Width-(b.MaxX-b.MinX)) < eps &&
		math.Abs(b.Height-(b.MaxY-b.MinY)) < eps
}

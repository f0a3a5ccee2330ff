package mask

import (
	"image"
	"image/draw"

	"github.com/disintegration/imaging"
	"golang.org/x/image/vector"

	"github.com/gogpu/strata"
)

// Shape is a clip region source. Coverage returns one byte per pixel of a
// width x height canvas, 255 inside and 0 outside.
type Shape interface {
	Coverage(width, height int) []byte
}

// Rect is an axis-aligned rectangle clip shape.
type Rect struct {
	X, Y, W, H float64
}

// Coverage implements Shape.
func (r Rect) Coverage(width, height int) []byte {
	var p Path
	p.MoveTo(r.X, r.Y)
	p.LineTo(r.X+r.W, r.Y)
	p.LineTo(r.X+r.W, r.Y+r.H)
	p.LineTo(r.X, r.Y+r.H)
	p.Close()
	return p.Coverage(width, height)
}

// Ellipse is an axis-aligned ellipse clip shape.
type Ellipse struct {
	CX, CY, RX, RY float64
}

// kappa approximates a quarter circle with one cubic Bézier.
const kappa = 0.5522847498307936

// Coverage implements Shape.
func (e Ellipse) Coverage(width, height int) []byte {
	kx, ky := e.RX*kappa, e.RY*kappa
	var p Path
	p.MoveTo(e.CX+e.RX, e.CY)
	p.CubeTo(e.CX+e.RX, e.CY+ky, e.CX+kx, e.CY+e.RY, e.CX, e.CY+e.RY)
	p.CubeTo(e.CX-kx, e.CY+e.RY, e.CX-e.RX, e.CY+ky, e.CX-e.RX, e.CY)
	p.CubeTo(e.CX-e.RX, e.CY-ky, e.CX-kx, e.CY-e.RY, e.CX, e.CY-e.RY)
	p.CubeTo(e.CX+kx, e.CY-e.RY, e.CX+e.RX, e.CY-ky, e.CX+e.RX, e.CY)
	p.Close()
	return p.Coverage(width, height)
}

// SegmentOp is the kind of a path segment.
type SegmentOp uint8

// Path segment kinds.
const (
	SegMoveTo SegmentOp = iota
	SegLineTo
	SegQuadTo
	SegCubeTo
	SegClose
)

// Segment is one path command. Points holds 1, 2 or 3 meaningful entries
// depending on Op.
type Segment struct {
	Op     SegmentOp
	Points [3]strata.Point
}

// Path is a closed-outline clip shape, filled with the non-zero rule.
// Text outlines are delivered as a Path.
type Path struct {
	Segments []Segment
}

// MoveTo starts a new subpath.
func (p *Path) MoveTo(x, y float64) {
	p.Segments = append(p.Segments, Segment{Op: SegMoveTo, Points: [3]strata.Point{{X: x, Y: y}}})
}

// LineTo adds a line to (x, y).
func (p *Path) LineTo(x, y float64) {
	p.Segments = append(p.Segments, Segment{Op: SegLineTo, Points: [3]strata.Point{{X: x, Y: y}}})
}

// QuadTo adds a quadratic Bézier.
func (p *Path) QuadTo(cx, cy, x, y float64) {
	p.Segments = append(p.Segments, Segment{Op: SegQuadTo, Points: [3]strata.Point{{X: cx, Y: cy}, {X: x, Y: y}}})
}

// CubeTo adds a cubic Bézier.
func (p *Path) CubeTo(c1x, c1y, c2x, c2y, x, y float64) {
	p.Segments = append(p.Segments, Segment{Op: SegCubeTo, Points: [3]strata.Point{{X: c1x, Y: c1y}, {X: c2x, Y: c2y}, {X: x, Y: y}}})
}

// Close closes the current subpath.
func (p *Path) Close() {
	p.Segments = append(p.Segments, Segment{Op: SegClose})
}

// Transform returns a copy of p with every point mapped through m.
func (p Path) Transform(m strata.Matrix) Path {
	out := Path{Segments: make([]Segment, len(p.Segments))}
	for i, s := range p.Segments {
		for j := range s.Points {
			s.Points[j] = m.TransformPoint(s.Points[j])
		}
		out.Segments[i] = s
	}
	return out
}

// Coverage implements Shape.
func (p Path) Coverage(width, height int) []byte {
	a := p.Alpha(width, height)
	if a == nil {
		return nil
	}
	return binarize(a, 128)
}

// Alpha rasterizes p with antialiasing, one byte per pixel.
func (p Path) Alpha(width, height int) []byte {
	if width <= 0 || height <= 0 {
		return nil
	}
	z := vector.NewRasterizer(width, height)
	z.DrawOp = draw.Src
	open := false
	for _, s := range p.Segments {
		pt := s.Points
		switch s.Op {
		case SegMoveTo:
			if open {
				z.ClosePath()
			}
			z.MoveTo(float32(pt[0].X), float32(pt[0].Y))
			open = true
		case SegLineTo:
			z.LineTo(float32(pt[0].X), float32(pt[0].Y))
		case SegQuadTo:
			z.QuadTo(float32(pt[0].X), float32(pt[0].Y), float32(pt[1].X), float32(pt[1].Y))
		case SegCubeTo:
			z.CubeTo(float32(pt[0].X), float32(pt[0].Y), float32(pt[1].X), float32(pt[1].Y),
				float32(pt[2].X), float32(pt[2].Y))
		case SegClose:
			if open {
				z.ClosePath()
				open = false
			}
		}
	}
	if open {
		z.ClosePath()
	}
	a := image.NewAlpha(image.Rect(0, 0, width, height))
	z.Draw(a, a.Bounds(), image.Opaque, image.Point{})
	return a.Pix
}

// ImageShape derives a clip region from an image's alpha channel, scaled
// to W x H and placed at (X, Y). Pixels with alpha at or above Threshold
// are inside. A zero Threshold selects 128.
type ImageShape struct {
	Image     image.Image
	X, Y      int
	W, H      int
	Threshold uint8
}

// Coverage implements Shape.
func (s ImageShape) Coverage(width, height int) []byte {
	out := make([]byte, width*height)
	if s.Image == nil {
		return out
	}
	w, h := s.W, s.H
	if w <= 0 || h <= 0 {
		w, h = s.Image.Bounds().Dx(), s.Image.Bounds().Dy()
	}
	scaled := imaging.Resize(s.Image, w, h, imaging.NearestNeighbor)
	threshold := s.Threshold
	if threshold == 0 {
		threshold = 128
	}
	for y := 0; y < h; y++ {
		cy := y + s.Y
		if cy < 0 || cy >= height {
			continue
		}
		for x := 0; x < w; x++ {
			cx := x + s.X
			if cx < 0 || cx >= width {
				continue
			}
			if scaled.Pix[y*scaled.Stride+x*4+3] >= threshold {
				out[cy*width+cx] = 255
			}
		}
	}
	return out
}

func binarize(pix []byte, threshold byte) []byte {
	out := make([]byte, len(pix))
	for i, v := range pix {
		if v >= threshold {
			out[i] = 255
		}
	}
	return out
}

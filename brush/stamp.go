package brush

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"

	"github.com/gogpu/strata"
	"github.com/gogpu/strata/internal/blend"
)

// Stamp is one rendered impression of the brush.
type Stamp struct {
	Center   strata.Point
	Radius   float64
	Color    strata.RGBA
	Opacity  float64
	Hardness float64
}

// StampRenderer draws stamps onto a surface. Implementations must always
// paint with the normal operator: a layer's blend mode belongs to
// composition, never to painting.
type StampRenderer interface {
	Stamp(dst *strata.Surface, s Stamp)
}

// RoundBrush is the default StampRenderer: an antialiased disc with an
// optional soft edge.
//
// RoundBrush reuses scratch buffers and is not safe for concurrent use.
type RoundBrush struct {
	ras   *vector.Rasterizer
	alpha *image.Alpha
}

// NewRoundBrush creates a round stamp renderer.
func NewRoundBrush() *RoundBrush {
	return &RoundBrush{ras: &vector.Rasterizer{}}
}

// kappa approximates a quarter circle with one cubic Bézier.
const kappa = 0.5522847498307936

// Stamp implements StampRenderer.
func (b *RoundBrush) Stamp(dst *strata.Surface, s Stamp) {
	if dst == nil || s.Radius <= 0 || s.Opacity <= 0 {
		return
	}
	box := image.Rect(
		int(math.Floor(s.Center.X-s.Radius)), int(math.Floor(s.Center.Y-s.Radius)),
		int(math.Ceil(s.Center.X+s.Radius)), int(math.Ceil(s.Center.Y+s.Radius)),
	).Intersect(dst.Bounds())
	if box.Empty() {
		return
	}

	cov := b.coverage(box, s)
	sr, sg, sb, sa := s.Color.WithAlpha(s.Color.A * s.Opacity).Premul()
	d := dst.Data()
	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			c := cov.Pix[(y-box.Min.Y)*cov.Stride+(x-box.Min.X)]
			if c == 0 {
				continue
			}
			i := dst.PixOffset(x, y)
			pr, pg, pb, pa := scale(sr, sg, sb, sa, c)
			d[i], d[i+1], d[i+2], d[i+3] = blend.SourceOver(pr, pg, pb, pa, d[i], d[i+1], d[i+2], d[i+3])
		}
	}
}

// coverage rasterizes the stamp's alpha into a box-sized buffer.
func (b *RoundBrush) coverage(box image.Rectangle, s Stamp) *image.Alpha {
	w, h := box.Dx(), box.Dy()
	if b.alpha == nil || b.alpha.Rect.Dx() != w || b.alpha.Rect.Dy() != h {
		b.alpha = image.NewAlpha(image.Rect(0, 0, w, h))
	} else {
		clear(b.alpha.Pix)
	}

	cx := s.Center.X - float64(box.Min.X)
	cy := s.Center.Y - float64(box.Min.Y)

	if s.Hardness >= 1 {
		r, k := float32(s.Radius), float32(s.Radius*kappa)
		x, y := float32(cx), float32(cy)
		z := b.ras
		z.Reset(w, h)
		z.DrawOp = draw.Src
		z.MoveTo(x+r, y)
		z.CubeTo(x+r, y+k, x+k, y+r, x, y+r)
		z.CubeTo(x-k, y+r, x-r, y+k, x-r, y)
		z.CubeTo(x-r, y-k, x-k, y-r, x, y-r)
		z.CubeTo(x+k, y-r, x+r, y-k, x+r, y)
		z.ClosePath()
		z.Draw(b.alpha, b.alpha.Bounds(), image.Opaque, image.Point{})
		return b.alpha
	}

	// Soft edge: full alpha inside Hardness*Radius, linear falloff to the rim.
	inner := s.Hardness * s.Radius
	for py := 0; py < h; py++ {
		for px := 0; px < w; px++ {
			d := math.Hypot(float64(px)+0.5-cx, float64(py)+0.5-cy)
			var a float64
			switch {
			case d <= inner:
				a = 1
			case d < s.Radius:
				a = (s.Radius - d) / (s.Radius - inner)
			}
			if a > 0 {
				b.alpha.SetAlpha(px, py, color.Alpha{A: uint8(a*255 + 0.5)})
			}
		}
	}
	return b.alpha
}

func scale(r, g, b, a, c uint8) (uint8, uint8, uint8, uint8) {
	if c == 255 {
		return r, g, b, a
	}
	m := func(v uint8) uint8 { return uint8((uint16(v)*uint16(c) + 127) / 255) }
	return m(r), m(g), m(b), m(a)
}

// Package mask implements the two per-layer visibility constraints used by
// the composition engine.
//
// A LayerMask is a graded grayscale map: luminance 0..255 maps linearly to
// visibility 0..1 and multiplies the layer's alpha after its content has
// been drawn. A ClipMask is binary: a Shape defines an inside region, and
// drawing outside it is suppressed before any content is rendered. When a
// layer carries both, a pixel must pass both to be visible.
package mask

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"

	"github.com/gogpu/strata"
)

// LayerMask is a graded visibility map for one layer.
type LayerMask struct {
	// Gray holds the luminance. It normally matches the canvas size; a
	// mismatched mask is resampled when applied.
	Gray     *image.Gray
	Enabled  bool
	Inverted bool
}

// NewLayerMask creates a fully visible, enabled mask.
func NewLayerMask(width, height int) (*LayerMask, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: layer mask %dx%d", strata.ErrInvalidDimensions, width, height)
	}
	g := image.NewGray(image.Rect(0, 0, width, height))
	for i := range g.Pix {
		g.Pix[i] = 255
	}
	return &LayerMask{Gray: g, Enabled: true}, nil
}

// LayerMaskFromImage builds an enabled mask from the luminance of img.
func LayerMaskFromImage(img image.Image) *LayerMask {
	b := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(g, g.Bounds(), img, b.Min, draw.Src)
	return &LayerMask{Gray: g, Enabled: true}
}

// At returns the stored luminance at (x, y), ignoring Inverted.
func (m *LayerMask) At(x, y int) uint8 {
	return m.Gray.GrayAt(x, y).Y
}

// Set stores luminance at (x, y).
func (m *LayerMask) Set(x, y int, v uint8) {
	m.Gray.SetGray(x, y, color.Gray{Y: v})
}

// Visibility returns the per-pixel visibility for a width x height layer,
// with Inverted applied.
func (m *LayerMask) Visibility(width, height int) []byte {
	src := m.Gray
	if src.Bounds().Dx() != width || src.Bounds().Dy() != height {
		src = resampleGray(src, width, height)
	}
	out := make([]byte, width*height)
	for y := 0; y < height; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+width]
		copy(out[y*width:], row)
	}
	if m.Inverted {
		for i, v := range out {
			out[i] = 255 - v
		}
	}
	return out
}

// Apply multiplies every pixel of s by the mask. Disabled masks are no-ops.
func (m *LayerMask) Apply(s *strata.Surface) error {
	if m == nil || !m.Enabled || m.Gray == nil {
		return nil
	}
	return multiplyAlpha(s, m.Visibility(s.Width(), s.Height()))
}

// Clone returns a deep copy of m.
func (m *LayerMask) Clone() *LayerMask {
	if m == nil {
		return nil
	}
	c := *m
	if m.Gray != nil {
		g := *m.Gray
		g.Pix = append([]uint8(nil), m.Gray.Pix...)
		c.Gray = &g
	}
	return &c
}

func resampleGray(src *image.Gray, width, height int) *image.Gray {
	nrgba := imaging.Resize(src, width, height, imaging.Linear)
	g := image.NewGray(image.Rect(0, 0, width, height))
	draw.Draw(g, g.Bounds(), nrgba, image.Point{}, draw.Src)
	return g
}

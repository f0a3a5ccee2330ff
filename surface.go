package strata

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
)

// Surface is a fixed-size raster of premultiplied RGBA8 pixels.
//
// A Surface is the single source of truth for a layer's pixels. It
// implements draw.Image, so golang.org/x/image/vector and
// golang.org/x/image/draw can render straight into it.
//
// Surface is not safe for concurrent mutation.
type Surface struct {
	width  int
	height int
	data   []uint8 // premultiplied RGBA, 4 bytes per pixel
}

var _ draw.Image = (*Surface)(nil)

// NewSurface creates a transparent surface with the given dimensions.
func NewSurface(width, height int) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	return &Surface{
		width:  width,
		height: height,
		data:   make([]uint8, width*height*4),
	}, nil
}

// MustSurface is like NewSurface but panics on invalid dimensions.
// Use only where dimensions are programming constants.
func MustSurface(width, height int) *Surface {
	s, err := NewSurface(width, height)
	if err != nil {
		panic(err)
	}
	return s
}

// Width returns the width of the surface.
func (s *Surface) Width() int { return s.width }

// Height returns the height of the surface.
func (s *Surface) Height() int { return s.height }

// Data returns the raw premultiplied RGBA pixel data.
func (s *Surface) Data() []uint8 { return s.data }

// Stride returns the number of bytes per row.
func (s *Surface) Stride() int { return s.width * 4 }

// PixOffset returns the index of the first byte of pixel (x, y),
// or -1 when the coordinates fall outside the surface.
func (s *Surface) PixOffset(x, y int) int {
	if x < 0 || x >= s.width || y < 0 || y >= s.height {
		return -1
	}
	return (y*s.width + x) * 4
}

// RGBA returns an *image.RGBA that shares pixel memory with the surface.
func (s *Surface) RGBA() *image.RGBA {
	return &image.RGBA{
		Pix:    s.data,
		Stride: s.Stride(),
		Rect:   image.Rect(0, 0, s.width, s.height),
	}
}

// ColorModel implements image.Image.
func (s *Surface) ColorModel() color.Model { return color.RGBAModel }

// Bounds implements image.Image.
func (s *Surface) Bounds() image.Rectangle { return image.Rect(0, 0, s.width, s.height) }

// At implements image.Image.
func (s *Surface) At(x, y int) color.Color { return s.RGBAAt(x, y) }

// RGBAAt returns the premultiplied pixel at (x, y). Outside pixels are transparent.
func (s *Surface) RGBAAt(x, y int) color.RGBA {
	i := s.PixOffset(x, y)
	if i < 0 {
		return color.RGBA{}
	}
	return color.RGBA{R: s.data[i], G: s.data[i+1], B: s.data[i+2], A: s.data[i+3]}
}

// Set implements draw.Image.
func (s *Surface) Set(x, y int, c color.Color) {
	s.SetRGBA(x, y, color.RGBAModel.Convert(c).(color.RGBA))
}

// SetRGBA stores a premultiplied pixel. Coordinates outside are ignored.
func (s *Surface) SetRGBA(x, y int, c color.RGBA) {
	i := s.PixOffset(x, y)
	if i < 0 {
		return
	}
	s.data[i+0] = c.R
	s.data[i+1] = c.G
	s.data[i+2] = c.B
	s.data[i+3] = c.A
}

// Clear makes every pixel transparent.
func (s *Surface) Clear() {
	clear(s.data)
}

// Fill sets every pixel to c.
func (s *Surface) Fill(c RGBA) {
	r, g, b, a := c.Premul()
	for i := 0; i < len(s.data); i += 4 {
		s.data[i+0] = r
		s.data[i+1] = g
		s.data[i+2] = b
		s.data[i+3] = a
	}
}

// Clone returns a deep copy of the surface.
func (s *Surface) Clone() *Surface {
	c := &Surface{width: s.width, height: s.height, data: make([]uint8, len(s.data))}
	copy(c.data, s.data)
	return c
}

// CopyFrom overwrites s with the pixels of src. Both surfaces must share
// dimensions; otherwise ErrInvalidDimensions is returned and s is unchanged.
func (s *Surface) CopyFrom(src *Surface) error {
	if src.width != s.width || src.height != s.height {
		return fmt.Errorf("%w: copy %dx%d into %dx%d", ErrInvalidDimensions,
			src.width, src.height, s.width, s.height)
	}
	copy(s.data, src.data)
	return nil
}

// Equal reports whether two surfaces have identical dimensions and pixels.
func (s *Surface) Equal(other *Surface) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.width == other.width && s.height == other.height && bytes.Equal(s.data, other.data)
}

// IsEmpty reports whether every pixel is fully transparent.
func (s *Surface) IsEmpty() bool {
	for i := 3; i < len(s.data); i += 4 {
		if s.data[i] != 0 {
			return false
		}
	}
	return true
}

// ToImage copies the surface into a new *image.RGBA.
func (s *Surface) ToImage() *image.RGBA {
	img := image.NewRGBA(s.Bounds())
	copy(img.Pix, s.data)
	return img
}

// SurfaceFromImage creates a surface holding a copy of img.
func SurfaceFromImage(img image.Image) (*Surface, error) {
	b := img.Bounds()
	s, err := NewSurface(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	draw.Draw(s.RGBA(), s.Bounds(), img, b.Min, draw.Src)
	return s, nil
}

package effect

import (
	"image"
	"image/color"

	"github.com/gogpu/strata"
)

// unpremultiplied returns a copy of s whose RGB bytes are straight alpha.
// bild operates on raw channel bytes, so color adjustments must not see
// premultiplied values.
func unpremultiplied(s *strata.Surface) *image.RGBA {
	img := s.ToImage()
	p := img.Pix
	for i := 0; i < len(p); i += 4 {
		a := p[i+3]
		if a == 0 || a == 255 {
			continue
		}
		p[i] = unpremul(p[i], a)
		p[i+1] = unpremul(p[i+1], a)
		p[i+2] = unpremul(p[i+2], a)
	}
	return img
}

// premultipliedWithAlpha converts a straight-alpha bild result back to
// premultiplied form, taking alpha from the original surface.
func premultipliedWithAlpha(img image.Image, orig *strata.Surface) *image.RGBA {
	out := image.NewRGBA(orig.Bounds())
	o := orig.Data()
	b := img.Bounds()
	for y := 0; y < orig.Height(); y++ {
		for x := 0; x < orig.Width(); x++ {
			i := y*out.Stride + x*4
			a := o[i+3]
			if a == 0 {
				continue
			}
			var r, g, bl uint8
			switch src := img.(type) {
			case *image.RGBA:
				j := src.PixOffset(b.Min.X+x, b.Min.Y+y)
				r, g, bl = src.Pix[j], src.Pix[j+1], src.Pix[j+2]
			case *image.Gray:
				v := src.GrayAt(b.Min.X+x, b.Min.Y+y).Y
				r, g, bl = v, v, v
			default:
				c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
				r, g, bl = c.R, c.G, c.B
			}
			out.Pix[i] = mul8(r, a)
			out.Pix[i+1] = mul8(g, a)
			out.Pix[i+2] = mul8(bl, a)
			out.Pix[i+3] = a
		}
	}
	return out
}

// overlay paints c over every pixel, keeping each pixel's alpha.
func overlay(s *strata.Surface, c strata.RGBA) *image.RGBA {
	n := c.Color().(color.NRGBA)
	out := image.NewRGBA(s.Bounds())
	o := s.Data()
	for i := 0; i < len(o); i += 4 {
		a := o[i+3]
		out.Pix[i] = mul8(n.R, a)
		out.Pix[i+1] = mul8(n.G, a)
		out.Pix[i+2] = mul8(n.B, a)
		out.Pix[i+3] = a
	}
	return out
}

// silhouette returns the alpha shape of s filled with c, premultiplied.
func silhouette(s *strata.Surface, c strata.RGBA) *image.RGBA {
	n := c.Color().(color.NRGBA)
	out := image.NewRGBA(s.Bounds())
	o := s.Data()
	for i := 0; i < len(o); i += 4 {
		a := mul8(o[i+3], n.A)
		out.Pix[i] = mul8(n.R, a)
		out.Pix[i+1] = mul8(n.G, a)
		out.Pix[i+2] = mul8(n.B, a)
		out.Pix[i+3] = a
	}
	return out
}

// gain multiplies every premultiplied pixel by k, clamping at opaque.
func gain(img *image.RGBA, k float64) {
	p := img.Pix
	for i := 0; i < len(p); i += 4 {
		a := float64(p[i+3])
		if a == 0 {
			continue
		}
		na := a * k
		if na > 255 {
			na = 255
		}
		f := na / a
		for j := 0; j < 4; j++ {
			v := float64(p[i+j])*f + 0.5
			if v > 255 {
				v = 255
			}
			p[i+j] = uint8(v)
		}
	}
}

func mul8(a, b uint8) uint8 {
	return uint8((uint16(a)*uint16(b) + 127) / 255)
}

func unpremul(c, a uint8) uint8 {
	v := (uint16(c)*255 + uint16(a)/2) / uint16(a)
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func lerp8(a, b uint8, t float64) uint8 {
	if t >= 1 {
		return b
	}
	return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5)
}

package effect

import (
	"image"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/blur"
	bildeffect "github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/transform"

	"github.com/gogpu/strata"
	"github.com/gogpu/strata/internal/blend"
)

// Defaults for absent parameters.
const (
	DefaultBlurRadius   = 4.0
	DefaultShadowOffset = 4.0
	DefaultGlowRadius   = 8.0
	DefaultGlowSpread   = 2.0
)

// Apply runs the enabled effects of stack on buf, in order.
//
// Filter effects replace the buffer with a filtered copy, mixed in with the
// effect's blend mode and opacity. Behind effects (drop shadow, outer glow)
// are drawn underneath the existing pixels. Every effect starts from the
// normal operator, so one effect's blend mode never carries over to the next
// effect or to the layer's own composite.
//
// Unknown effect types are skipped with a warning.
func Apply(buf *strata.Surface, stack []Effect) {
	for _, e := range stack {
		if !e.Enabled || e.Opacity <= 0 {
			continue
		}
		if !e.Type.Valid() {
			strata.Logger().Warn("effect: skipping unknown effect", "type", string(e.Type))
			continue
		}
		if e.Type.Behind() {
			applyBehind(buf, e)
		} else {
			applyFilter(buf, e)
		}
	}
}

func applyFilter(buf *strata.Surface, e Effect) {
	filtered := render(buf, e)
	if filtered == nil {
		return
	}
	fn := blend.SourceOver
	mixed := e.BlendMode != strata.BlendNormal
	if mixed {
		fn = blend.MustFor(e.BlendMode)
	}
	opacity := e.Opacity
	if e.Type == ColorOverlay {
		opacity *= e.Color.A
	}

	d := buf.Data()
	f := filtered.Pix
	for i := 0; i < len(d); i += 4 {
		fr, fg, fb, fa := f[i], f[i+1], f[i+2], f[i+3]
		if mixed {
			fr, fg, fb, fa = fn(fr, fg, fb, fa, d[i], d[i+1], d[i+2], d[i+3])
		}
		d[i] = lerp8(d[i], fr, opacity)
		d[i+1] = lerp8(d[i+1], fg, opacity)
		d[i+2] = lerp8(d[i+2], fb, opacity)
		d[i+3] = lerp8(d[i+3], fa, opacity)
	}
}

// render produces the filtered premultiplied image for a filter effect.
func render(buf *strata.Surface, e Effect) *image.RGBA {
	switch e.Type {
	case Blur:
		r := e.Param(ParamRadius, DefaultBlurRadius)
		if r <= 0 {
			return nil
		}
		return blur.Gaussian(buf.RGBA(), r)
	case ColorOverlay:
		return overlay(buf, e.Color)
	}

	straight := unpremultiplied(buf)
	var out image.Image
	switch e.Type {
	case Brightness:
		out = adjust.Brightness(straight, e.Param(ParamAmount, 0))
	case Contrast:
		out = adjust.Contrast(straight, e.Param(ParamAmount, 0))
	case Saturation:
		out = adjust.Saturation(straight, e.Param(ParamAmount, 0))
	case Hue:
		out = adjust.Hue(straight, int(e.Param(ParamDegrees, 0)))
	case Gamma:
		out = adjust.Gamma(straight, e.Param(ParamGamma, 1))
	case Invert:
		out = bildeffect.Invert(straight)
	case Grayscale:
		out = bildeffect.Grayscale(straight)
	case Sepia:
		out = bildeffect.Sepia(straight)
	case Sharpen:
		out = bildeffect.Sharpen(straight)
	case Emboss:
		out = bildeffect.Emboss(straight)
	default:
		return nil
	}
	return premultipliedWithAlpha(out, buf)
}

func applyBehind(buf *strata.Surface, e Effect) {
	var (
		dx, dy int
		radius float64
		spread = 1.0
	)
	switch e.Type {
	case DropShadow:
		dx = int(e.Param(ParamOffsetX, DefaultShadowOffset))
		dy = int(e.Param(ParamOffsetY, DefaultShadowOffset))
		radius = e.Param(ParamRadius, DefaultBlurRadius)
	case OuterGlow:
		radius = e.Param(ParamRadius, DefaultGlowRadius)
		spread = e.Param(ParamSpread, DefaultGlowSpread)
	}

	shadow := silhouette(buf, e.Color)
	if dx != 0 || dy != 0 {
		// bild translates with y pointing up.
		shadow = transform.Translate(shadow, dx, -dy)
	}
	if radius > 0 {
		shadow = blur.Gaussian(shadow, radius)
	}
	if spread != 1 {
		gain(shadow, spread)
	}

	under := blend.ForOp(blend.OpDestinationOver)
	d := buf.Data()
	s := shadow.Pix
	for i := 0; i < len(d); i += 4 {
		sr, sg, sb, sa := blend.ScaleAlpha(s[i], s[i+1], s[i+2], s[i+3], e.Opacity)
		if sa == 0 {
			continue
		}
		d[i], d[i+1], d[i+2], d[i+3] = under(sr, sg, sb, sa, d[i], d[i+1], d[i+2], d[i+3])
	}
}

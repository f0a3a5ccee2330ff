package blend

import (
	"fmt"

	"github.com/gogpu/strata"
)

// Composite draws src onto dst with fn, scaling every source pixel by
// opacity. If coverage is non-nil it holds one byte per pixel that further
// scales the source, which is how clip shapes constrain drawing. Both
// surfaces must have the same size.
func Composite(dst, src *strata.Surface, fn Func, opacity float64, coverage []byte) error {
	if dst.Width() != src.Width() || dst.Height() != src.Height() {
		return fmt.Errorf("%w: composite %dx%d onto %dx%d", strata.ErrInvalidDimensions,
			src.Width(), src.Height(), dst.Width(), dst.Height())
	}
	if coverage != nil && len(coverage) != dst.Width()*dst.Height() {
		return fmt.Errorf("%w: coverage has %d entries", strata.ErrInvalidDimensions, len(coverage))
	}
	if opacity <= 0 {
		return nil
	}

	s := src.Data()
	d := dst.Data()
	for i := 0; i < len(s); i += 4 {
		sr, sg, sb, sa := s[i], s[i+1], s[i+2], s[i+3]
		if sa == 0 && sr == 0 && sg == 0 && sb == 0 {
			continue
		}
		if coverage != nil {
			c := coverage[i/4]
			if c == 0 {
				continue
			}
			if c < 255 {
				sr, sg, sb, sa = mulDiv255(sr, c), mulDiv255(sg, c), mulDiv255(sb, c), mulDiv255(sa, c)
			}
		}
		sr, sg, sb, sa = ScaleAlpha(sr, sg, sb, sa, opacity)
		d[i], d[i+1], d[i+2], d[i+3] = fn(sr, sg, sb, sa, d[i], d[i+1], d[i+2], d[i+3])
	}
	return nil
}

// MultiplyAlpha scales every pixel of s by the matching alpha byte.
// alpha must hold one byte per pixel.
func MultiplyAlpha(s *strata.Surface, alpha []byte) error {
	if len(alpha) != s.Width()*s.Height() {
		return fmt.Errorf("%w: alpha has %d entries for %dx%d", strata.ErrInvalidDimensions,
			len(alpha), s.Width(), s.Height())
	}
	d := s.Data()
	for i, a := range alpha {
		if a == 255 {
			continue
		}
		j := i * 4
		d[j], d[j+1], d[j+2], d[j+3] = mulDiv255(d[j], a), mulDiv255(d[j+1], a), mulDiv255(d[j+2], a), mulDiv255(d[j+3], a)
	}
	return nil
}

// Pixel blends a single premultiplied pixel pair. It is mainly useful for
// computing expected results.
func Pixel(mode strata.BlendMode, src, dst [4]byte, opacity float64) [4]byte {
	fn, _ := For(mode)
	sr, sg, sb, sa := ScaleAlpha(src[0], src[1], src[2], src[3], opacity)
	r, g, b, a := fn(sr, sg, sb, sa, dst[0], dst[1], dst[2], dst[3])
	return [4]byte{r, g, b, a}
}

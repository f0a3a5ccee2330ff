package blend

// Non-separable blend modes (W3C Compositing and Blending Level 1, section 9).

type rgb struct{ r, g, b float64 }

func lum(c rgb) float64 { return 0.30*c.r + 0.59*c.g + 0.11*c.b }

func sat(c rgb) float64 {
	return max(c.r, c.g, c.b) - min(c.r, c.g, c.b)
}

func clipColor(c rgb) rgb {
	l := lum(c)
	n := min(c.r, c.g, c.b)
	x := max(c.r, c.g, c.b)
	if n < 0 && l-n != 0 {
		c = rgb{l + (c.r-l)*l/(l-n), l + (c.g-l)*l/(l-n), l + (c.b-l)*l/(l-n)}
	}
	if x > 1 && x-l != 0 {
		c = rgb{l + (c.r-l)*(1-l)/(x-l), l + (c.g-l)*(1-l)/(x-l), l + (c.b-l)*(1-l)/(x-l)}
	}
	return c
}

func setLum(c rgb, l float64) rgb {
	d := l - lum(c)
	return clipColor(rgb{c.r + d, c.g + d, c.b + d})
}

func setSat(c rgb, s float64) rgb {
	ch := []*float64{&c.r, &c.g, &c.b}
	// sort pointers by value: ch[0] min, ch[2] max
	if *ch[0] > *ch[1] {
		ch[0], ch[1] = ch[1], ch[0]
	}
	if *ch[1] > *ch[2] {
		ch[1], ch[2] = ch[2], ch[1]
	}
	if *ch[0] > *ch[1] {
		ch[0], ch[1] = ch[1], ch[0]
	}
	lo, mid, hi := *ch[0], *ch[1], *ch[2]
	if hi > lo {
		*ch[1] = (mid - lo) * s / (hi - lo)
		*ch[2] = s
	} else {
		*ch[1], *ch[2] = 0, 0
	}
	*ch[0] = 0
	return c
}

func hslHue(s, d rgb) rgb        { return setLum(setSat(s, sat(d)), lum(d)) }
func hslSaturation(s, d rgb) rgb { return setLum(setSat(d, sat(s)), lum(d)) }
func hslColor(s, d rgb) rgb      { return setLum(s, lum(d)) }
func hslLuminosity(s, d rgb) rgb { return setLum(d, lum(s)) }

// nonSeparable builds a premultiplied blend function from a blend that
// operates on whole straight-alpha RGB triplets.
func nonSeparable(fn func(s, d rgb) rgb) Func {
	return func(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
		if sa == 0 {
			return dr, dg, db, da
		}
		if da == 0 {
			return sr, sg, sb, sa
		}
		s := rgb{float64(unpremul(sr, sa)) / 255, float64(unpremul(sg, sa)) / 255, float64(unpremul(sb, sa)) / 255}
		d := rgb{float64(unpremul(dr, da)) / 255, float64(unpremul(dg, da)) / 255, float64(unpremul(db, da)) / 255}
		b := fn(s, d)
		return composeChannel(sr, dr, sa, da, uint32(unit8(b.r))),
			composeChannel(sg, dg, sa, da, uint32(unit8(b.g))),
			composeChannel(sb, db, sa, da, uint32(unit8(b.b))),
			addDiv255(sa, mulDiv255(da, 255-sa))
	}
}

package blend

// mulDiv255 multiplies two bytes and divides by 255 with rounding.
// Formula: (a*b + 127) / 255
func mulDiv255(a, b byte) byte {
	return byte((uint16(a)*uint16(b) + 127) / 255)
}

// addDiv255 adds two bytes and clamps to 255.
func addDiv255(a, b byte) byte {
	sum := uint16(a) + uint16(b)
	if sum > 255 {
		return 255
	}
	return byte(sum)
}

// unpremul converts a premultiplied channel to straight alpha.
func unpremul(c, a byte) byte {
	if a == 0 {
		return 0
	}
	v := (uint16(c)*255 + uint16(a)/2) / uint16(a)
	if v > 255 {
		return 255
	}
	return byte(v)
}

// ScaleAlpha multiplies a premultiplied pixel by opacity in [0, 1].
func ScaleAlpha(r, g, b, a byte, opacity float64) (byte, byte, byte, byte) {
	if opacity >= 1 {
		return r, g, b, a
	}
	if opacity <= 0 {
		return 0, 0, 0, 0
	}
	o := byte(opacity*255 + 0.5)
	return mulDiv255(r, o), mulDiv255(g, o), mulDiv255(b, o), mulDiv255(a, o)
}

func minByte(a, b byte) byte {
	if a < b {
		return a
	}
	return b
}

func maxByte(a, b byte) byte {
	if a > b {
		return a
	}
	return b
}

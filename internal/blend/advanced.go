package blend

import (
	"math"

	"github.com/gogpu/strata"
)

// For returns the blend function for a layer blend mode. The boolean is
// false when mode is not recognized, in which case source-over is returned.
func For(mode strata.BlendMode) (Func, bool) {
	switch mode {
	case strata.BlendNormal:
		return SourceOver, true
	case strata.BlendMultiply:
		return separable(multiplyChan), true
	case strata.BlendScreen:
		return separable(screenChan), true
	case strata.BlendOverlay:
		return separable(overlayChan), true
	case strata.BlendDarken:
		return separable(minByte), true
	case strata.BlendLighten:
		return separable(maxByte), true
	case strata.BlendColorDodge:
		return separable(colorDodgeChan), true
	case strata.BlendColorBurn:
		return separable(colorBurnChan), true
	case strata.BlendHardLight:
		return separable(hardLightChan), true
	case strata.BlendSoftLight:
		return separable(softLightChan), true
	case strata.BlendDifference:
		return separable(differenceChan), true
	case strata.BlendExclusion:
		return separable(exclusionChan), true
	case strata.BlendHue:
		return nonSeparable(hslHue), true
	case strata.BlendSaturation:
		return nonSeparable(hslSaturation), true
	case strata.BlendColor:
		return nonSeparable(hslColor), true
	case strata.BlendLuminosity:
		return nonSeparable(hslLuminosity), true
	default:
		return SourceOver, false
	}
}

// MustFor is like For but logs a warning and falls back to source-over for
// unknown modes.
func MustFor(mode strata.BlendMode) Func {
	fn, ok := For(mode)
	if !ok {
		strata.Logger().Warn("blend: unrecognized blend mode, using source-over", "mode", mode.String())
	}
	return fn
}

// separable builds a premultiplied blend function from a per-channel blend
// B(s, d) on straight-alpha values, using
//
//	Result = (1 - Sa) * D + (1 - Da) * S + Sa * Da * B(Cs, Cb)
func separable(blendChan func(s, d byte) byte) Func {
	return func(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
		if sa == 0 {
			return dr, dg, db, da
		}
		if da == 0 {
			return sr, sg, sb, sa
		}
		mix := func(sc, dc byte) byte {
			b := blendChan(unpremul(sc, sa), unpremul(dc, da))
			return composeChannel(sc, dc, sa, da, uint32(b))
		}
		return mix(sr, dr), mix(sg, dg), mix(sb, db), addDiv255(sa, mulDiv255(da, 255-sa))
	}
}

// composeChannel evaluates (1-Sa)*Dc + (1-Da)*Sc + Sa*Da*B in integer math.
// sc and dc are premultiplied, b is straight-alpha in [0, 255].
func composeChannel(sc, dc, sa, da byte, b uint32) byte {
	const d = 255 * 255
	num := uint32(255-sa)*uint32(dc)*255 +
		uint32(255-da)*uint32(sc)*255 +
		uint32(sa)*uint32(da)*b
	v := (num + d/2) / d
	if v > 255 {
		return 255
	}
	return byte(v)
}

func multiplyChan(s, d byte) byte { return mulDiv255(s, d) }

func screenChan(s, d byte) byte { return 255 - mulDiv255(255-s, 255-d) }

func overlayChan(s, d byte) byte { return hardLightChan(d, s) }

func hardLightChan(s, d byte) byte {
	if s <= 127 {
		v := (2*uint16(s)*uint16(d) + 127) / 255
		return byte(v)
	}
	inv := (2*uint16(255-s)*uint16(255-d) + 127) / 255
	if inv > 255 {
		return 0
	}
	return 255 - byte(inv)
}

func colorDodgeChan(s, d byte) byte {
	if d == 0 {
		return 0
	}
	if s == 255 {
		return 255
	}
	v := (uint16(d)*255 + uint16(255-s)/2) / uint16(255-s)
	if v > 255 {
		return 255
	}
	return byte(v)
}

func colorBurnChan(s, d byte) byte {
	if d == 255 {
		return 255
	}
	if s == 0 {
		return 0
	}
	v := (uint16(255-d)*255 + uint16(s)/2) / uint16(s)
	if v > 255 {
		return 0
	}
	return 255 - byte(v)
}

func softLightChan(s, d byte) byte {
	sf := float64(s) / 255
	df := float64(d) / 255
	var r float64
	if sf <= 0.5 {
		r = df - (1-2*sf)*df*(1-df)
	} else {
		var dx float64
		if df <= 0.25 {
			dx = ((16*df-12)*df + 4) * df
		} else {
			dx = math.Sqrt(df)
		}
		r = df + (2*sf-1)*(dx-df)
	}
	return unit8(r)
}

func differenceChan(s, d byte) byte {
	if s > d {
		return s - d
	}
	return d - s
}

func exclusionChan(s, d byte) byte {
	v := int(s) + int(d) - 2*int(mulDiv255(s, d))
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

func unit8(v float64) byte {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return byte(v*255 + 0.5)
}

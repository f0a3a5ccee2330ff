package strata

import (
	"fmt"
	"strings"
)

// BlendMode is the per-layer pixel combination operator used when a layer
// is drawn onto the accumulated composite.
//
// Blend modes follow the W3C Compositing and Blending Level 1 definitions.
// Strokes are always written into a layer with BlendNormal; a layer's
// configured mode is applied only once, at composite time.
type BlendMode uint8

// Blend modes.
const (
	BlendNormal BlendMode = iota
	BlendMultiply
	BlendScreen
	BlendOverlay
	BlendDarken
	BlendLighten
	BlendColorDodge
	BlendColorBurn
	BlendHardLight
	BlendSoftLight
	BlendDifference
	BlendExclusion
	BlendHue
	BlendSaturation
	BlendColor
	BlendLuminosity

	blendModeCount
)

var blendModeNames = [blendModeCount]string{
	BlendNormal:     "normal",
	BlendMultiply:   "multiply",
	BlendScreen:     "screen",
	BlendOverlay:    "overlay",
	BlendDarken:     "darken",
	BlendLighten:    "lighten",
	BlendColorDodge: "color-dodge",
	BlendColorBurn:  "color-burn",
	BlendHardLight:  "hard-light",
	BlendSoftLight:  "soft-light",
	BlendDifference: "difference",
	BlendExclusion:  "exclusion",
	BlendHue:        "hue",
	BlendSaturation: "saturation",
	BlendColor:      "color",
	BlendLuminosity: "luminosity",
}

// BlendModes returns every supported blend mode in declaration order.
func BlendModes() []BlendMode {
	modes := make([]BlendMode, blendModeCount)
	for i := range modes {
		modes[i] = BlendMode(i)
	}
	return modes
}

// Valid reports whether m is a known blend mode.
func (m BlendMode) Valid() bool { return m < blendModeCount }

// String returns the CSS-style name of the blend mode.
func (m BlendMode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("BlendMode(%d)", uint8(m))
	}
	return blendModeNames[m]
}

// ParseBlendMode parses a blend mode name. "source-over" is accepted as an
// alias of "normal". Matching is case-insensitive.
func ParseBlendMode(name string) (BlendMode, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "source-over" || name == "" {
		return BlendNormal, true
	}
	for i, n := range blendModeNames {
		if n == name {
			return BlendMode(i), true
		}
	}
	return BlendNormal, false
}

// MarshalText implements encoding.TextMarshaler.
func (m BlendMode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("strata: unknown blend mode %d", uint8(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *BlendMode) UnmarshalText(text []byte) error {
	mode, ok := ParseBlendMode(string(text))
	if !ok {
		return fmt.Errorf("strata: unknown blend mode %q", text)
	}
	*m = mode
	return nil
}

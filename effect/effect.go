// Package effect implements the non-destructive per-layer effect stack.
//
// Effects never modify a layer's content surface. The composition engine
// copies the content into an isolation buffer and runs Pipeline.Apply on
// that buffer.
package effect

import (
	"fmt"
	"maps"

	"github.com/gogpu/strata"
)

// Type names an effect kind.
type Type string

// Effect kinds.
const (
	Blur         Type = "blur"
	DropShadow   Type = "drop-shadow"
	OuterGlow    Type = "outer-glow"
	Brightness   Type = "brightness"
	Contrast     Type = "contrast"
	Saturation   Type = "saturation"
	Hue          Type = "hue"
	Gamma        Type = "gamma"
	Invert       Type = "invert"
	Grayscale    Type = "grayscale"
	Sepia        Type = "sepia"
	Sharpen      Type = "sharpen"
	Emboss       Type = "emboss"
	ColorOverlay Type = "color-overlay"
)

var knownTypes = map[Type]bool{
	Blur: true, DropShadow: true, OuterGlow: true, Brightness: true,
	Contrast: true, Saturation: true, Hue: true, Gamma: true, Invert: true,
	Grayscale: true, Sepia: true, Sharpen: true, Emboss: true, ColorOverlay: true,
}

// Valid reports whether t is a known effect kind.
func (t Type) Valid() bool { return knownTypes[t] }

// Behind reports whether the effect is painted underneath the content
// (shadows and glows) rather than filtering it.
func (t Type) Behind() bool { return t == DropShadow || t == OuterGlow }

// Parameter names read by the pipeline.
const (
	ParamRadius  = "radius"  // blur, drop-shadow, outer-glow
	ParamOffsetX = "dx"      // drop-shadow
	ParamOffsetY = "dy"      // drop-shadow
	ParamSpread  = "spread"  // outer-glow alpha gain
	ParamAmount  = "amount"  // brightness, contrast, saturation: -1..1
	ParamDegrees = "degrees" // hue
	ParamGamma   = "gamma"   // gamma
)

// Effect is one entry of a layer's effect stack.
type Effect struct {
	Type      Type               `json:"type" yaml:"type"`
	Enabled   bool               `json:"enabled" yaml:"enabled"`
	Opacity   float64            `json:"opacity" yaml:"opacity"`
	BlendMode strata.BlendMode   `json:"blendMode" yaml:"blendMode"`
	Params    map[string]float64 `json:"params,omitempty" yaml:"params,omitempty"`
	// Color tints drop-shadow, outer-glow and color-overlay.
	Color strata.RGBA `json:"color" yaml:"color"`
}

// New returns an enabled effect of kind t at full opacity with normal blend.
func New(t Type, params map[string]float64) Effect {
	e := Effect{Type: t, Enabled: true, Opacity: 1, Params: params}
	switch t {
	case DropShadow:
		e.Color = strata.Black.WithAlpha(0.75)
	case OuterGlow:
		e.Color = strata.Hex("#ffe680")
	case ColorOverlay:
		e.Color = strata.Black
	}
	return e
}

// Param returns the named parameter or def when it is absent.
func (e Effect) Param(name string, def float64) float64 {
	if v, ok := e.Params[name]; ok {
		return v
	}
	return def
}

// Clone returns a copy of e that does not share its Params map.
func (e Effect) Clone() Effect {
	e.Params = maps.Clone(e.Params)
	return e
}

// Validate reports malformed effects.
func (e Effect) Validate() error {
	if !e.Type.Valid() {
		return fmt.Errorf("effect: unknown type %q", e.Type)
	}
	if e.Opacity < 0 || e.Opacity > 1 {
		return fmt.Errorf("effect: %s opacity %v out of [0,1]", e.Type, e.Opacity)
	}
	if !e.BlendMode.Valid() {
		return fmt.Errorf("effect: %s has invalid blend mode", e.Type)
	}
	return nil
}

// CloneStack deep-copies an effect stack.
func CloneStack(stack []Effect) []Effect {
	if stack == nil {
		return nil
	}
	out := make([]Effect, len(stack))
	for i, e := range stack {
		out[i] = e.Clone()
	}
	return out
}

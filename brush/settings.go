// Package brush renders brush stamps and spaces them along a stroke.
//
// Live painting and redraw-after-transform share the same Trail, so a
// stroke replayed from its recorded points is stamped at the same density
// as the original pass.
package brush

import (
	"math"

	"github.com/gogpu/strata"
)

// Defaults used when settings are missing or malformed.
const (
	DefaultSize     = 10.0
	DefaultSpacing  = 0.25
	FallbackSize    = 1.0
	MinStep         = 0.5 // px
	DefaultGradient = 100.0
)

// Gradient blends the stroke color toward To over Length pixels of travel.
type Gradient struct {
	Enabled bool        `json:"enabled" yaml:"enabled"`
	To      strata.RGBA `json:"to" yaml:"to"`
	Length  float64     `json:"length" yaml:"length"`
}

// Settings describe one brush. Spacing is a fraction of Size: a size 10
// brush with spacing 0.3 stamps every 3px.
type Settings struct {
	Size     float64     `json:"size" yaml:"size"`
	Color    strata.RGBA `json:"color" yaml:"color"`
	Opacity  float64     `json:"opacity" yaml:"opacity"`
	Spacing  float64     `json:"spacing" yaml:"spacing"`
	Hardness float64     `json:"hardness" yaml:"hardness"`
	Gradient Gradient    `json:"gradient" yaml:"gradient"`
}

// DefaultSettings returns a hard black round brush.
func DefaultSettings() Settings {
	return Settings{Size: DefaultSize, Color: strata.Black, Opacity: 1, Spacing: DefaultSpacing, Hardness: 1}
}

// FromConfig converts the configured default brush.
func FromConfig(c strata.BrushConfig) Settings {
	return Settings{Size: c.Size, Color: c.Color, Opacity: c.Opacity, Spacing: c.Spacing, Hardness: c.Hardness}
}

// Normalize replaces missing or malformed fields with a minimal default
// stamp and reports whether anything was replaced. A stroke is never
// aborted because of bad settings.
func (s Settings) Normalize() (Settings, bool) {
	fixed := false
	if !(s.Size > 0) || math.IsInf(s.Size, 0) {
		s.Size = FallbackSize
		fixed = true
	}
	if s.Color.IsZero() {
		s.Color = strata.Black
		fixed = true
	}
	if !(s.Opacity > 0) || s.Opacity > 1 {
		s.Opacity = 1
		fixed = true
	}
	if !(s.Spacing > 0) || math.IsInf(s.Spacing, 0) {
		s.Spacing = DefaultSpacing
		fixed = true
	}
	if s.Hardness < 0 || s.Hardness > 1 || math.IsNaN(s.Hardness) {
		s.Hardness = 1
		fixed = true
	}
	if s.Gradient.Enabled && !(s.Gradient.Length > 0) {
		s.Gradient.Length = DefaultGradient
	}
	return s, fixed
}

// Radius is half the brush size.
func (s Settings) Radius() float64 { return s.Size / 2 }

// Step is the distance between consecutive stamps.
func (s Settings) Step() float64 {
	return math.Max(s.Spacing*s.Size, MinStep)
}

// ColorAt returns the stamp color after travelled pixels of stroke length.
func (s Settings) ColorAt(travelled float64) strata.RGBA {
	if !s.Gradient.Enabled {
		return s.Color
	}
	l := s.Gradient.Length
	if !(l > 0) {
		l = DefaultGradient
	}
	return s.Color.Lerp(s.Gradient.To, math.Min(travelled/l, 1))
}

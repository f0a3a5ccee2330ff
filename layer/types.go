package layer

import (
	"fmt"
	"math"
	"strings"

	"github.com/gogpu/strata"
)

// Type is the kind of a layer.
type Type uint8

// Layer kinds.
const (
	TypePaint Type = iota
	TypeText
	TypeImage
	TypeVector
	TypePuff
	TypeEmbroidery
	TypeAdjustment
	TypeGroup

	typeCount
)

var typeNames = [typeCount]string{
	TypePaint:      "paint",
	TypeText:       "text",
	TypeImage:      "image",
	TypeVector:     "vector",
	TypePuff:       "puff",
	TypeEmbroidery: "embroidery",
	TypeAdjustment: "adjustment",
	TypeGroup:      "group",
}

func (t Type) String() string {
	if t >= typeCount {
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
	return typeNames[t]
}

// ParseType parses a layer type name.
func ParseType(s string) (Type, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range typeNames {
		if n == s {
			return Type(i), nil
		}
	}
	return 0, fmt.Errorf("layer: unknown type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	if t >= typeCount {
		return nil, fmt.Errorf("layer: unknown type %d", uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(b []byte) error {
	v, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// LockFlags restrict which mutations a layer accepts.
type LockFlags uint8

// Lock flags.
const (
	LockPosition LockFlags = 1 << iota // transform and selection moves
	LockPixels                         // raster redraws
	LockAlpha                          // changes to coverage

	LockNone LockFlags = 0
	LockAll            = LockPosition | LockPixels | LockAlpha
)

// Has reports whether every flag in f is set.
func (l LockFlags) Has(f LockFlags) bool { return l&f == f }

// Transform is a layer's placement, applied at composite time.
// Rotation and skew are in radians. Scale, rotation and skew act about
// Pivot, in canvas coordinates, before the translation.
type Transform struct {
	TranslateX float64      `json:"translateX" yaml:"translateX"`
	TranslateY float64      `json:"translateY" yaml:"translateY"`
	ScaleX     float64      `json:"scaleX" yaml:"scaleX"`
	ScaleY     float64      `json:"scaleY" yaml:"scaleY"`
	Rotation   float64      `json:"rotation" yaml:"rotation"`
	SkewX      float64      `json:"skewX" yaml:"skewX"`
	SkewY      float64      `json:"skewY" yaml:"skewY"`
	Pivot      strata.Point `json:"pivot" yaml:"pivot"`
}

// IdentityTransform returns the transform that leaves a layer in place.
func IdentityTransform() Transform {
	return Transform{ScaleX: 1, ScaleY: 1}
}

// Matrix returns the affine matrix mapping layer content to the canvas.
func (t Transform) Matrix() strata.Matrix {
	sx, sy := t.ScaleX, t.ScaleY
	if sx == 0 && sy == 0 {
		// zero value means unscaled
		sx, sy = 1, 1
	}
	local := strata.Rotate(t.Rotation).
		Multiply(strata.Shear(math.Tan(t.SkewX), math.Tan(t.SkewY))).
		Multiply(strata.Scale(sx, sy))
	return strata.Translate(t.TranslateX, t.TranslateY).Multiply(local.About(t.Pivot))
}

// IsIdentity reports whether the transform leaves the layer in place.
func (t Transform) IsIdentity() bool {
	return t.Matrix().IsIdentity()
}

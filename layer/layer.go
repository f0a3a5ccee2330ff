// Package layer owns the layer and group entities and the Store through
// which every structural mutation happens.
//
// A layer's content surface is the single source of truth for its pixels.
// StrokeData is descriptive metadata: it is read only when a finished
// stroke is redrawn after a transform, never during normal composition.
//
// Groups reference their children by id. Children carry no parent link;
// membership is answered by the Store.
package layer

import (
	"slices"
	"time"

	"github.com/jinzhu/copier"

	"github.com/gogpu/strata"
	"github.com/gogpu/strata/brush"
	"github.com/gogpu/strata/effect"
	"github.com/gogpu/strata/mask"
)

// Props are the user-editable properties shared by every layer.
type Props struct {
	Name      string           `json:"name" yaml:"name"`
	Visible   bool             `json:"visible" yaml:"visible"`
	Opacity   float64          `json:"opacity" yaml:"opacity"`
	BlendMode strata.BlendMode `json:"blendMode" yaml:"blendMode"`
	Locked    LockFlags        `json:"locked" yaml:"locked"`
	Transform Transform        `json:"transform" yaml:"transform"`
	Effects   []effect.Effect  `json:"effects,omitempty" yaml:"effects,omitempty"`
}

// StrokeData describes the gesture that produced a paint layer.
type StrokeData struct {
	ID        string         `json:"id" yaml:"id"`
	Points    []strata.Point `json:"points" yaml:"points"`
	Bounds    strata.Bounds  `json:"bounds" yaml:"bounds"`
	Settings  brush.Settings `json:"settings" yaml:"settings"`
	Tool      string         `json:"tool" yaml:"tool"`
	CreatedAt time.Time      `json:"createdAt" yaml:"createdAt"`
	Selected  bool           `json:"isSelected" yaml:"isSelected"`
}

// Clone returns a deep copy of d.
func (d *StrokeData) Clone() *StrokeData {
	if d == nil {
		return nil
	}
	c := *d
	c.Points = slices.Clone(d.Points)
	return &c
}

// TextData describes the text of a text layer.
type TextData struct {
	Text   string       `json:"text" yaml:"text"`
	Size   float64      `json:"size" yaml:"size"`
	Color  strata.RGBA  `json:"color" yaml:"color"`
	Origin strata.Point `json:"origin" yaml:"origin"`
}

// Layer is one independently stylable raster surface.
type Layer struct {
	ID    string `json:"id" yaml:"id"`
	Type  Type   `json:"type" yaml:"type"`
	Order int    `json:"order" yaml:"order"` // index within its sibling scope
	Props

	Mask     *mask.LayerMask `json:"-" yaml:"-"`
	ClipMask *mask.ClipMask  `json:"-" yaml:"-"`

	Content *strata.Surface `json:"-" yaml:"-"`
	Stroke  *StrokeData     `json:"stroke,omitempty" yaml:"stroke,omitempty"`
	Text    *TextData       `json:"text,omitempty" yaml:"text,omitempty"`
}

// CanMove reports whether position-changing operations are allowed.
func (l *Layer) CanMove() bool { return !l.Locked.Has(LockPosition) }

// CanRedraw reports whether the layer's pixels may be regenerated.
func (l *Layer) CanRedraw() bool {
	return !l.Locked.Has(LockPixels) && !l.Locked.Has(LockAlpha)
}

// IsStroke reports whether l is a finished paint stroke.
func (l *Layer) IsStroke() bool { return l.Type == TypePaint && l.Stroke != nil }

// clone deep-copies l. The content is copied into content, which must be
// a surface of the same size, or cloned when content is nil.
func (l *Layer) clone(content *strata.Surface) *Layer {
	c := &Layer{ID: l.ID, Type: l.Type, Order: l.Order}
	copyProps(&c.Props, &l.Props)
	c.Mask = l.Mask.Clone()
	c.ClipMask = l.ClipMask.Clone()
	c.Stroke = l.Stroke.Clone()
	if l.Text != nil {
		t := *l.Text
		c.Text = &t
	}
	switch {
	case l.Content == nil:
	case content != nil:
		_ = content.CopyFrom(l.Content)
		c.Content = content
	default:
		c.Content = l.Content.Clone()
	}
	return c
}

// copyProps deep-copies layer properties, including each effect's
// parameter map.
func copyProps(dst, src *Props) {
	if err := copier.CopyWithOption(dst, src, copier.Option{DeepCopy: true}); err != nil {
		strata.Logger().Warn("layer: property copy failed, copying shallow", "err", err)
		*dst = *src
		dst.Effects = effect.CloneStack(src.Effects)
	}
	if len(src.Effects) == 0 {
		dst.Effects = nil
	}
}

// Group composites its children offscreen and draws the union once with
// its own opacity and blend mode.
type Group struct {
	ID        string           `json:"id" yaml:"id"`
	Name      string           `json:"name" yaml:"name"`
	Children  []string         `json:"children" yaml:"children"` // back to front
	Order     int              `json:"order" yaml:"order"`
	Visible   bool             `json:"visible" yaml:"visible"`
	Opacity   float64          `json:"opacity" yaml:"opacity"`
	BlendMode strata.BlendMode `json:"blendMode" yaml:"blendMode"`
	Collapsed bool             `json:"collapsed" yaml:"collapsed"`
}

func (g *Group) clone() *Group {
	c := *g
	c.Children = slices.Clone(g.Children)
	return &c
}

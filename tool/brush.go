package tool

import (
	"github.com/gogpu/strata"
	"github.com/gogpu/strata/stroke"
)

// Brush paints one stroke layer per gesture.
type Brush struct {
	strokes *stroke.Manager
}

// NewBrush returns the brush tool over m.
func NewBrush(m *stroke.Manager) *Brush { return &Brush{strokes: m} }

// Kind implements Tool.
func (*Brush) Kind() Kind { return KindBrush }

// PointerDown implements Tool.
func (b *Brush) PointerDown(p strata.Point) error { return b.strokes.PointerDown(p) }

// PointerMove implements Tool. Moves without a gesture are hover and
// are ignored.
func (b *Brush) PointerMove(p strata.Point) error {
	if b.strokes.State() != stroke.Active {
		return nil
	}
	return b.strokes.PointerMove(p)
}

// PointerUp implements Tool.
func (b *Brush) PointerUp(p strata.Point) error {
	if b.strokes.State() != stroke.Active {
		return nil
	}
	_, err := b.strokes.PointerUp(p)
	return err
}

// Key implements Tool. Escape abandons the gesture.
func (b *Brush) Key(k Key) error {
	if k == KeyEscape {
		b.strokes.Cancel()
	}
	return nil
}

// Cancel implements Tool.
func (b *Brush) Cancel() { b.strokes.Cancel() }

package tool

import (
	"github.com/gogpu/strata"
	"github.com/gogpu/strata/selection"
)

// NudgeStep is the distance an arrow key moves the selection.
const NudgeStep = 1

// Select picks, moves, resizes, rotates and deletes strokes.
type Select struct {
	sel *selection.Manager
}

// NewSelect returns the select tool over m.
func NewSelect(m *selection.Manager) *Select { return &Select{sel: m} }

// Kind implements Tool.
func (*Select) Kind() Kind { return KindSelect }

// PointerDown implements Tool.
func (s *Select) PointerDown(p strata.Point) error { return s.sel.PointerDown(p) }

// PointerMove implements Tool.
func (s *Select) PointerMove(p strata.Point) error {
	if !s.sel.Dragging() {
		return nil
	}
	return s.sel.Drag(p)
}

// PointerUp implements Tool.
func (s *Select) PointerUp(p strata.Point) error {
	s.sel.PointerUp(p)
	return nil
}

// Key implements Tool. Escape ends a transform, or deselects when there
// is none.
func (s *Select) Key(k Key) error {
	switch k {
	case KeyEscape:
		if s.sel.Dragging() {
			s.sel.Escape()
			return nil
		}
		s.sel.Deselect()
	case KeyDelete:
		return s.sel.Delete()
	case KeyLeft:
		return s.nudge(-NudgeStep, 0)
	case KeyRight:
		return s.nudge(NudgeStep, 0)
	case KeyUp:
		return s.nudge(0, -NudgeStep)
	case KeyDown:
		return s.nudge(0, NudgeStep)
	}
	return nil
}

func (s *Select) nudge(dx, dy float64) error {
	if s.sel.Selected() == "" {
		return nil
	}
	return s.sel.Nudge(dx, dy)
}

// Cancel implements Tool. An in-flight transform is committed as on
// capture loss.
func (s *Select) Cancel() { s.sel.LostCapture() }

// Deactivate implements Deactivator.
func (s *Select) Deactivate() { s.sel.Deselect() }

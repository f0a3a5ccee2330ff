package selection

import (
	"fmt"
	"math"
	"slices"

	"github.com/gogpu/strata"
	"github.com/gogpu/strata/brush"
)

// Handle identifies a transform handle on the selection outline.
type Handle uint8

// Handles. The four corners resize, Rotate sits above the top edge.
const (
	HandleNone Handle = iota
	HandleTopLeft
	HandleTopRight
	HandleBottomRight
	HandleBottomLeft
	HandleRotate
)

// rotateOffset is the distance of the rotate handle above the bounds.
const rotateOffset = 16.0

// Handles returns the center of every handle of the selected stroke, in
// layer space.
func (m *Manager) Handles() map[Handle]strata.Point {
	b, ok := m.Bounds()
	if !ok {
		return nil
	}
	return handlePoints(b)
}

func handlePoints(b strata.Bounds) map[Handle]strata.Point {
	return map[Handle]strata.Point{
		HandleTopLeft:     {X: b.MinX, Y: b.MinY},
		HandleTopRight:    {X: b.MaxX, Y: b.MinY},
		HandleBottomRight: {X: b.MaxX, Y: b.MaxY},
		HandleBottomLeft:  {X: b.MinX, Y: b.MaxY},
		HandleRotate:      {X: (b.MinX + b.MaxX) / 2, Y: b.MinY - rotateOffset},
	}
}

// opposite returns the corner that stays fixed while h is dragged.
func opposite(h Handle) Handle {
	switch h {
	case HandleTopLeft:
		return HandleBottomRight
	case HandleTopRight:
		return HandleBottomLeft
	case HandleBottomRight:
		return HandleTopLeft
	case HandleBottomLeft:
		return HandleTopRight
	default:
		return HandleNone
	}
}

// HandleAt returns the handle of the selected stroke under p, given in
// canvas coordinates.
func (m *Manager) HandleAt(p strata.Point) Handle {
	l, ok := m.store.Layer(m.state.SelectedLayerID)
	if !ok || l.Stroke == nil {
		return HandleNone
	}
	local, ok := toLocal(l, p)
	if !ok {
		return HandleNone
	}
	half := max(m.style.HandleSize, 1) / 2
	for _, h := range []Handle{HandleRotate, HandleTopLeft, HandleTopRight, HandleBottomRight, HandleBottomLeft} {
		c := m.Handles()[h]
		if math.Abs(local.X-c.X) <= half && math.Abs(local.Y-c.Y) <= half {
			return h
		}
	}
	return HandleNone
}

// PointerDown is the select tool's press: a handle of the selected
// stroke starts a resize or rotate, the selected stroke starts a move,
// anything else changes the selection.
func (m *Manager) PointerDown(p strata.Point) error {
	if h := m.HandleAt(p); h != HandleNone {
		mode := ModeResize
		if h == HandleRotate {
			mode = ModeRotate
		}
		return m.Begin(mode, h, p)
	}
	id := m.Click(p)
	if id == "" {
		return nil
	}
	return m.Begin(ModeMove, HandleNone, p)
}

// Begin starts a transform of the selected stroke at canvas point p.
func (m *Manager) Begin(mode Mode, h Handle, p strata.Point) error {
	id := m.state.SelectedLayerID
	l, ok := m.store.Layer(id)
	if !ok || l.Stroke == nil {
		return fmt.Errorf("selection: begin %s: nothing selected", mode)
	}
	if mode == ModeNone {
		return nil
	}
	if !l.CanMove() || !l.CanRedraw() {
		return fmt.Errorf("selection: %s %q: %w", mode, id, strata.ErrLocked)
	}
	if (mode == ModeResize) != (h >= HandleTopLeft && h <= HandleBottomLeft) {
		return fmt.Errorf("selection: %s cannot use handle %d", mode, h)
	}
	local, ok := toLocal(l, p)
	if !ok {
		return fmt.Errorf("selection: layer %q transform is not invertible", id)
	}
	m.End()

	d := &drag{
		layerID:     id,
		settings:    l.Stroke.Settings,
		origin:      slices.Clone(l.Stroke.Points),
		startBounds: l.Stroke.Bounds,
		start:       local,
		last:        local,
		points:      slices.Clone(l.Stroke.Points),
		bounds:      l.Stroke.Bounds,
	}
	switch mode {
	case ModeResize:
		d.pivot = handlePoints(d.startBounds)[opposite(h)]
	case ModeRotate:
		d.pivot = d.startBounds.Center()
	}
	if m.history != nil {
		if _, err := m.history.Snapshot(mode.String()); err == nil {
			d.snapshotted = true
		}
	}
	m.drag = d
	m.state.Mode, m.state.Handle, m.state.DragStart = mode, h, p
	return nil
}

// Drag continues the transform with canvas point p.
func (m *Manager) Drag(p strata.Point) error {
	d := m.drag
	if d == nil {
		return nil
	}
	l, ok := m.store.Layer(d.layerID)
	if !ok {
		m.abandon()
		return fmt.Errorf("selection: drag: %w", strata.ErrUnknownLayer)
	}
	local, ok := toLocal(l, p)
	if !ok {
		return nil
	}
	r := d.settings.Radius()

	switch m.state.Mode {
	case ModeMove:
		delta := local.Sub(d.last)
		d.last = local
		if delta == (strata.Point{}) {
			return nil
		}
		d.total = d.total.Add(delta)
		d.bounds = d.bounds.Translate(delta.X, delta.Y).Recompute()
		d.points = transformPoints(d.origin, strata.Translate(d.total.X, d.total.Y))
	case ModeResize:
		sx := scaleFactor(d.start.X, local.X, d.pivot.X)
		sy := scaleFactor(d.start.Y, local.Y, d.pivot.Y)
		d.last = local
		d.points = transformPoints(d.origin, strata.Scale(sx, sy).About(d.pivot))
		d.bounds = strata.BoundsOf(d.points, r).Clamp(strata.MinExtent)
	case ModeRotate:
		theta := angle(d.pivot, local) - angle(d.pivot, d.start)
		d.last = local
		d.points = transformPoints(d.origin, strata.Rotate(theta).About(d.pivot))
		d.bounds = strata.BoundsOf(d.points, r).Clamp(strata.MinExtent)
	default:
		return nil
	}
	d.changed = true
	m.redraw(d)
	return nil
}

// scaleFactor maps the handle's travel from start to now relative to a
// fixed pivot. Degenerate extents keep the scale at 1.
func scaleFactor(start, now, pivot float64) float64 {
	span := start - pivot
	if math.Abs(span) < 1e-9 {
		return 1
	}
	return (now - pivot) / span
}

func transformPoints(pts []strata.Point, mat strata.Matrix) []strata.Point {
	out := make([]strata.Point, len(pts))
	for i, p := range pts {
		out[i] = mat.TransformPoint(p)
	}
	return out
}

// redraw clears the layer and re-stamps the stroke along its points at
// the original spacing.
func (m *Manager) redraw(d *drag) {
	l, ok := m.store.Layer(d.layerID)
	if !ok || l.Content == nil {
		return
	}
	l.Content.Clear()
	n := brush.Replay(l.Content, m.renderer, d.settings, d.points)
	strata.Logger().Debug("selection: redraw", "id", d.layerID, "stamps", n)
	m.store.Touch(d.layerID)
	m.changed()
}

// End commits the transform in progress: the stroke's points and bounds
// are replaced with their transformed values. It always leaves the mode
// at none, and is a no-op when nothing is being dragged.
func (m *Manager) End() {
	d := m.drag
	m.drag = nil
	m.state.Mode, m.state.Handle = ModeNone, HandleNone
	if d == nil {
		return
	}
	l, ok := m.store.Layer(d.layerID)
	if !ok || !d.changed {
		if d.snapshotted && m.history != nil {
			m.history.Discard()
		}
		return
	}
	data := l.Stroke.Clone()
	data.Points = d.points
	data.Bounds = d.bounds.Recompute().Clamp(strata.MinExtent)
	if err := m.store.SetStrokeData(d.layerID, data); err != nil {
		strata.Logger().Warn("selection: commit failed", "id", d.layerID, "err", err)
	}
	m.changed()
}

// PointerUp ends the transform.
func (m *Manager) PointerUp(strata.Point) { m.End() }

// Escape force-ends any transform.
func (m *Manager) Escape() { m.End() }

// LostCapture ends the transform when the pointer capture or focus is
// lost.
func (m *Manager) LostCapture() { m.End() }

// abandon drops the drag without committing; used when its layer is gone.
func (m *Manager) abandon() {
	if m.drag != nil && m.drag.snapshotted && m.history != nil {
		m.history.Discard()
	}
	m.drag = nil
	m.state.Mode, m.state.Handle = ModeNone, HandleNone
}

// Nudge moves the selected stroke by (dx, dy) in layer space as one
// undoable step.
func (m *Manager) Nudge(dx, dy float64) error {
	id := m.state.SelectedLayerID
	l, ok := m.store.Layer(id)
	if !ok || l.Stroke == nil {
		return nil
	}
	c := l.Stroke.Bounds.Center()
	start := l.Transform.Matrix().TransformPoint(c)
	end := l.Transform.Matrix().TransformPoint(c.Add(strata.Pt(dx, dy)))
	if err := m.Begin(ModeMove, HandleNone, start); err != nil {
		return err
	}
	err := m.Drag(end)
	m.End()
	return err
}

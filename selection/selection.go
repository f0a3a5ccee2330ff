// Package selection hit-tests finished strokes, keeps at most one of
// them selected, and moves, resizes or rotates the selected stroke by
// redrawing it from its recorded points.
package selection

import (
	"fmt"
	"math"
	"slices"

	"github.com/gogpu/strata"
	"github.com/gogpu/strata/brush"
	"github.com/gogpu/strata/compose"
	"github.com/gogpu/strata/layer"
)

// OverlayName is the compose overlay slot used for the outline.
const OverlayName = "selection"

// Mode is the active transform kind.
type Mode uint8

// Transform modes.
const (
	ModeNone Mode = iota
	ModeMove
	ModeResize
	ModeRotate
)

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeMove:
		return "move"
	case ModeResize:
		return "resize"
	case ModeRotate:
		return "rotate"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// State is the observable selection state.
type State struct {
	SelectedLayerID string
	Mode            Mode
	Handle          Handle
	DragStart       strata.Point
}

// History is the undo capability a Manager snapshots into.
type History interface {
	Snapshot(label string) (string, error)
	Discard() bool
}

// OverlayHost is where the selection outline is installed. *compose.Engine
// implements it.
type OverlayHost interface {
	SetOverlay(name string, o compose.Overlay)
	RemoveOverlay(name string)
}

// Scheduler is the throttled recomposition a deselect cancels and
// re-requests. *compose.Scheduler implements it.
type Scheduler interface {
	Request() uint64
	Cancel()
}

// Style controls the outline.
type Style struct {
	OutlineColor strata.RGBA
	OutlineWidth float64
	HandleSize   float64
}

// StyleFromConfig converts the configured selection style.
func StyleFromConfig(c strata.SelectionConfig) Style {
	return Style{OutlineColor: c.OutlineColor, OutlineWidth: c.OutlineWidth, HandleSize: c.HandleSize}
}

// Manager is the single writer of selection state.
type Manager struct {
	store    *layer.Store
	renderer brush.StampRenderer
	history  History
	host     OverlayHost
	sched    Scheduler
	onChange func()
	style    Style

	state State
	drag  *drag
}

// drag is the in-flight transform. Points are in layer raster space.
type drag struct {
	layerID     string
	settings    brush.Settings
	origin      []strata.Point
	startBounds strata.Bounds
	start       strata.Point
	last        strata.Point
	total       strata.Point
	pivot       strata.Point
	points      []strata.Point
	bounds      strata.Bounds
	snapshotted bool
	changed     bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithHistory snapshots h before every transform and delete.
func WithHistory(h History) Option {
	return func(m *Manager) { m.history = h }
}

// WithOverlayHost installs the outline into host while something is
// selected.
func WithOverlayHost(host OverlayHost) Option {
	return func(m *Manager) { m.host = host }
}

// WithScheduler cancels s when the selection is cleared, so a pass
// requested for the old selection never runs.
func WithScheduler(s Scheduler) Option {
	return func(m *Manager) { m.sched = s }
}

// WithStyle sets the outline style.
func WithStyle(s Style) Option {
	return func(m *Manager) { m.style = s }
}

// OnChange registers fn to run after every visible change.
func OnChange(fn func()) Option {
	return func(m *Manager) { m.onChange = fn }
}

// New returns a Manager over store. renderer redraws strokes after a
// transform.
func New(store *layer.Store, renderer brush.StampRenderer, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		renderer: renderer,
		style:    StyleFromConfig(strata.DefaultConfig().Selection),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns a copy of the selection state.
func (m *Manager) State() State { return m.state }

// Selected returns the selected layer id, or "".
func (m *Manager) Selected() string { return m.state.SelectedLayerID }

// Dragging reports whether a transform is in progress.
func (m *Manager) Dragging() bool { return m.drag != nil }

// HitTest returns the topmost shown stroke layer whose bounds contain
// p, given in canvas coordinates.
func (m *Manager) HitTest(p strata.Point) (string, bool) {
	layers := m.store.Layers()
	for _, l := range slices.Backward(layers) {
		if !l.IsStroke() || !m.store.Shown(l.ID) {
			continue
		}
		local, ok := toLocal(l, p)
		if ok && m.boundsOf(l).Contains(local) {
			return l.ID, true
		}
	}
	return "", false
}

// Click selects the stroke under p, or clears the selection when there
// is none.
func (m *Manager) Click(p strata.Point) string {
	id, ok := m.HitTest(p)
	if !ok {
		m.Deselect()
		return ""
	}
	if err := m.Select(id); err != nil {
		return ""
	}
	return id
}

// Select makes id the only selected layer.
func (m *Manager) Select(id string) error {
	l, ok := m.store.Layer(id)
	if !ok {
		strata.Logger().Warn("selection: unknown layer", "id", id)
		return fmt.Errorf("selection: %q: %w", id, strata.ErrUnknownLayer)
	}
	if !l.IsStroke() {
		return fmt.Errorf("selection: %q is not a stroke layer", id)
	}
	if m.state.SelectedLayerID == id {
		return nil
	}
	m.End()
	m.mark(m.state.SelectedLayerID, false)
	m.state = State{SelectedLayerID: id}
	m.mark(id, true)
	if m.host != nil {
		m.host.SetOverlay(OverlayName, outline{m})
	}
	m.changed()
	return nil
}

// Deselect clears the selection and removes the outline.
func (m *Manager) Deselect() {
	if m.state.SelectedLayerID == "" {
		return
	}
	m.End()
	m.mark(m.state.SelectedLayerID, false)
	m.state = State{}
	if m.host != nil {
		m.host.RemoveOverlay(OverlayName)
	}
	m.cleared()
}

// mark updates the isSelected flag of a stroke layer's metadata.
func (m *Manager) mark(id string, selected bool) {
	l, ok := m.store.Layer(id)
	if !ok || l.Stroke == nil || l.Stroke.Selected == selected {
		return
	}
	d := l.Stroke.Clone()
	d.Selected = selected
	_ = m.store.SetStrokeData(id, d)
}

// Delete removes the selected layer. It is undoable through the history.
func (m *Manager) Delete() error {
	id := m.state.SelectedLayerID
	if id == "" {
		return nil
	}
	m.End()
	if m.history != nil {
		if _, err := m.history.Snapshot("delete"); err != nil {
			strata.Logger().Warn("selection: delete without undo", "id", id, "err", err)
		}
	}
	if err := m.store.DeleteLayer(id); err != nil {
		return err
	}
	m.state = State{}
	if m.host != nil {
		m.host.RemoveOverlay(OverlayName)
	}
	m.cleared()
	return nil
}

// Sync reconciles the selection with the store after an undo or redo
// replaced its contents. A dangling transform is dropped.
func (m *Manager) Sync() {
	m.drag = nil
	id := m.state.SelectedLayerID
	m.state = State{SelectedLayerID: id}
	if l, ok := m.store.Layer(id); id != "" && (!ok || !l.IsStroke()) {
		id = ""
		m.state = State{}
	}
	for _, l := range m.store.Layers() {
		m.mark(l.ID, l.ID == id)
	}
	if id == "" {
		if m.host != nil {
			m.host.RemoveOverlay(OverlayName)
		}
		return
	}
	if m.host != nil {
		m.host.SetOverlay(OverlayName, outline{m})
	}
}

// Bounds returns the selected stroke's bounds in layer space, following
// an in-flight transform.
func (m *Manager) Bounds() (strata.Bounds, bool) {
	l, ok := m.store.Layer(m.state.SelectedLayerID)
	if !ok || l.Stroke == nil {
		return strata.Bounds{}, false
	}
	return m.boundsOf(l), true
}

func (m *Manager) boundsOf(l *layer.Layer) strata.Bounds {
	if m.drag != nil && m.drag.layerID == l.ID {
		return m.drag.bounds
	}
	return l.Stroke.Bounds
}

// cleared restarts recomposition without the selection's context.
func (m *Manager) cleared() {
	if m.sched != nil {
		m.sched.Cancel()
		m.sched.Request()
	}
	m.changed()
}

func (m *Manager) changed() {
	if m.onChange != nil {
		m.onChange()
	}
}

// toLocal maps a canvas point into a layer's raster space.
func toLocal(l *layer.Layer, p strata.Point) (strata.Point, bool) {
	mat := l.Transform.Matrix()
	if mat.IsIdentity() {
		return p, true
	}
	inv, ok := mat.Invert()
	if !ok {
		return strata.Point{}, false
	}
	return inv.TransformPoint(p), true
}

func angle(c, p strata.Point) float64 { return math.Atan2(p.Y-c.Y, p.X-c.X) }

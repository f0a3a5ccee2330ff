// Package stroke owns the lifecycle of a paint gesture: one pointer-down
// to pointer-up sequence produces exactly one paint layer.
//
// The session draws directly onto the layer's content surface with the
// normal operator. On pointer-up the recorded points, bounds and brush
// settings are attached to the layer as metadata.
package stroke

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/gogpu/strata"
	"github.com/gogpu/strata/brush"
	"github.com/gogpu/strata/internal/idgen"
	"github.com/gogpu/strata/layer"
)

// State is the session state machine.
type State uint8

// Session states.
const (
	Idle State = iota
	Active
	Finalizing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case Finalizing:
		return "finalizing"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// ErrNoSession is returned by pointer events that need an active gesture.
var ErrNoSession = errors.New("stroke: no active session")

// Session is the ephemeral record of one gesture.
type Session struct {
	ID       string
	LayerID  string
	Points   []strata.Point
	Bounds   strata.Bounds
	Settings brush.Settings
	Tool     string

	trail       *brush.Trail
	snapshotted bool
	snapshotID  string
}

// History is the undo capability a Manager snapshots into.
type History interface {
	Snapshot(label string) (string, error)
	Discard() bool
	Newest() string
}

// Manager runs the Idle -> Active -> Finalizing -> Idle state machine.
// It is the only writer of session state.
type Manager struct {
	store    *layer.Store
	renderer brush.StampRenderer
	history  History
	onChange func()
	newID    idgen.Generator
	now      func() time.Time

	settings brush.Settings
	tool     string

	state   State
	session *Session
	strokes int
}

// Option configures a Manager.
type Option func(*Manager)

// WithHistory snapshots h at the start of every gesture.
func WithHistory(h History) Option {
	return func(m *Manager) { m.history = h }
}

// OnChange registers fn to run whenever a gesture changes pixels.
// Callers typically request a throttled composite.
func OnChange(fn func()) Option {
	return func(m *Manager) { m.onChange = fn }
}

// WithIDGenerator sets the generator for stroke ids.
func WithIDGenerator(g idgen.Generator) Option {
	return func(m *Manager) {
		if g != nil {
			m.newID = g
		}
	}
}

// WithClock sets the clock stamped into stroke metadata.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithSettings sets the initial brush settings.
func WithSettings(s brush.Settings) Option {
	return func(m *Manager) { m.settings = s }
}

// New returns a Manager painting into store with renderer.
func New(store *layer.Store, renderer brush.StampRenderer, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		renderer: renderer,
		newID:    idgen.Default,
		now:      time.Now,
		settings: brush.DefaultSettings(),
		tool:     "brush",
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current state.
func (m *Manager) State() State { return m.state }

// Session returns the active session, or nil when idle.
func (m *Manager) Session() *Session { return m.session }

// Strokes returns the number of gestures finalized so far.
func (m *Manager) Strokes() int { return m.strokes }

// Settings returns the brush settings used for the next gesture.
func (m *Manager) Settings() brush.Settings { return m.settings }

// SetSettings changes the brush for the next gesture. An active gesture
// keeps the settings it started with.
func (m *Manager) SetSettings(s brush.Settings) { m.settings = s }

// SetTool names the tool recorded in stroke metadata.
func (m *Manager) SetTool(name string) { m.tool = name }

// PointerDown starts a gesture at p on a new paint layer. A gesture that
// is still active is finalized first.
func (m *Manager) PointerDown(p strata.Point) error {
	if m.state == Active {
		if _, err := m.PointerUp(p); err != nil {
			return err
		}
	}

	settings, fixed := m.settings.Normalize()
	if fixed {
		strata.Logger().Warn("stroke: malformed brush settings, using fallback", "settings", m.settings)
	}

	snapshotted, snapshotID := false, ""
	if m.history != nil {
		if sid, err := m.history.Snapshot("stroke"); err == nil {
			snapshotted, snapshotID = true, sid
		}
	}

	id, err := m.store.CreateLayer(layer.TypePaint, "")
	if err != nil {
		if snapshotted {
			m.history.Discard()
		}
		strata.Logger().Warn("stroke: gesture skipped", "err", err)
		return fmt.Errorf("stroke: begin: %w", err)
	}
	l, _ := m.store.Layer(id)
	_ = m.store.SetActiveLayer(id)

	s := &Session{
		ID:          m.newID(),
		LayerID:     id,
		Points:      []strata.Point{p},
		Bounds:      strata.BoundsAround(p, settings.Radius()),
		Settings:    settings,
		Tool:        m.tool,
		trail:       brush.NewTrail(l.Content, m.renderer, settings),
		snapshotted: snapshotted,
		snapshotID:  snapshotID,
	}
	s.trail.Add(p)
	m.session = s
	m.state = Active
	m.changed(id)
	return nil
}

// PointerMove appends p to the active gesture and stamps up to it.
func (m *Manager) PointerMove(p strata.Point) error {
	s := m.session
	if m.state != Active || s == nil {
		return ErrNoSession
	}
	if !m.store.Exists(s.LayerID) {
		// The layer vanished under the gesture; nothing left to paint on.
		if s.snapshotted && m.history != nil && m.history.Newest() == s.snapshotID {
			m.history.Discard()
		}
		m.reset()
		return fmt.Errorf("stroke: layer %s: %w", s.LayerID, strata.ErrUnknownLayer)
	}
	s.Points = append(s.Points, p)
	s.Bounds = s.Bounds.Expand(p, s.Settings.Radius())
	if s.trail.Add(p) > 0 {
		m.changed(s.LayerID)
	}
	return nil
}

// PointerUp ends the active gesture at p, attaches the stroke metadata
// to its layer and returns the layer id. The session is cleared even if
// attaching fails.
func (m *Manager) PointerUp(p strata.Point) (string, error) {
	s := m.session
	if m.state != Active || s == nil {
		return "", ErrNoSession
	}
	if last := s.Points[len(s.Points)-1]; last != p {
		if err := m.PointerMove(p); err != nil {
			return "", err
		}
	}

	m.state = Finalizing
	defer m.reset()

	data := &layer.StrokeData{
		ID:        s.ID,
		Points:    slices.Clone(s.Points),
		Bounds:    s.Bounds.Recompute().Clamp(strata.MinExtent),
		Settings:  s.Settings,
		Tool:      s.Tool,
		CreatedAt: m.now(),
	}
	if err := m.store.SetStrokeData(s.LayerID, data); err != nil {
		return "", fmt.Errorf("stroke: finalize: %w", err)
	}
	m.strokes++
	return s.LayerID, nil
}

// Cancel abandons the active gesture: the partial layer is deleted and
// the snapshot taken for it is discarded. It is a no-op when idle.
func (m *Manager) Cancel() {
	s := m.session
	if s == nil {
		m.state = Idle
		return
	}
	if m.store.Exists(s.LayerID) {
		_ = m.store.DeleteLayer(s.LayerID)
	}
	if s.snapshotted && m.history != nil {
		m.history.Discard()
	}
	m.reset()
	if m.onChange != nil {
		m.onChange()
	}
}

func (m *Manager) reset() {
	m.session = nil
	m.state = Idle
}

func (m *Manager) changed(id string) {
	m.store.Touch(id)
	if m.onChange != nil {
		m.onChange()
	}
}

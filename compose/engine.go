// Package compose combines a layer store into one output surface.
//
// Every layer is drawn with a fixed sequence of stages:
//
//  1. copy the content into an isolation buffer, resampled through the
//     layer transform when it is not the identity
//  2. run the effect stack on the buffer
//  3. intersect clip coverage with the layer mask
//  4. composite the buffer onto the accumulated result with the layer's
//     blend mode and opacity, constrained by that coverage
//
// The layer's blend mode is used only in step 4. Strokes are always
// written into layer content with the normal operator, so each blend is
// applied exactly once. Groups are composited into their own buffer,
// which is then drawn once with the group's opacity and blend mode.
package compose

import (
	"fmt"
	"slices"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/gogpu/strata"
	"github.com/gogpu/strata/effect"
	"github.com/gogpu/strata/internal/blend"
	"github.com/gogpu/strata/layer"
	"github.com/gogpu/strata/mask"
)

// Source is the layer tree an Engine composites. *layer.Store
// implements it.
type Source interface {
	Width() int
	Height() int
	Root() []string
	Layer(id string) (*layer.Layer, bool)
	Group(id string) (*layer.Group, bool)
	Revision() uint64
	Pool() *strata.Pool
}

// Overlay is a transient decoration drawn on top of every layer. It is
// never stored on a layer.
type Overlay interface {
	DrawOverlay(dst *strata.Surface)
}

// OverlayFunc adapts a function to Overlay.
type OverlayFunc func(dst *strata.Surface)

// DrawOverlay implements Overlay.
func (f OverlayFunc) DrawOverlay(dst *strata.Surface) { f(dst) }

type namedOverlay struct {
	name    string
	overlay Overlay
}

// Engine composites a Source. It is not safe for concurrent use.
type Engine struct {
	src        Source
	background strata.RGBA
	overlays   []namedOverlay

	output *strata.Surface
	valid  bool
	key    changeKey
	passes int

	overlayRev uint64
}

type changeKey struct {
	revision   uint64
	overlayRev uint64
	background strata.RGBA
}

// Option configures an Engine.
type Option func(*Engine)

// WithBackground paints c under the first layer.
func WithBackground(c strata.RGBA) Option {
	return func(e *Engine) { e.background = c }
}

// New returns an Engine compositing src.
func New(src Source, opts ...Option) *Engine {
	e := &Engine{src: src}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetBackground changes the background color.
func (e *Engine) SetBackground(c strata.RGBA) { e.background = c }

// SetOverlay installs or replaces the overlay registered under name.
// Overlays are drawn in registration order.
func (e *Engine) SetOverlay(name string, o Overlay) {
	e.overlayRev++
	for i := range e.overlays {
		if e.overlays[i].name == name {
			e.overlays[i].overlay = o
			return
		}
	}
	e.overlays = append(e.overlays, namedOverlay{name: name, overlay: o})
}

// RemoveOverlay removes the overlay registered under name.
func (e *Engine) RemoveOverlay(name string) {
	n := len(e.overlays)
	e.overlays = slices.DeleteFunc(e.overlays, func(o namedOverlay) bool { return o.name == name })
	if len(e.overlays) != n {
		e.overlayRev++
	}
}

// HasOverlay reports whether an overlay is registered under name.
func (e *Engine) HasOverlay(name string) bool {
	return slices.ContainsFunc(e.overlays, func(o namedOverlay) bool { return o.name == name })
}

// Invalidate forces the next ComposeIfChanged to run a pass.
func (e *Engine) Invalidate() { e.valid = false }

// Composed returns the last complete composite, or nil before the first
// successful pass. The surface is owned by the engine and is replaced by
// the next pass.
func (e *Engine) Composed() *strata.Surface { return e.output }

// Passes returns the number of composite passes run.
func (e *Engine) Passes() int { return e.passes }

// Changed reports whether anything observable changed since the last
// successful pass.
func (e *Engine) Changed() bool {
	return !e.valid || e.key != e.currentKey()
}

func (e *Engine) currentKey() changeKey {
	return changeKey{revision: e.src.Revision(), overlayRev: e.overlayRev, background: e.background}
}

// ComposeIfChanged runs a pass only when something changed. It reports
// whether a pass ran.
func (e *Engine) ComposeIfChanged() (*strata.Surface, bool) {
	if !e.Changed() {
		return e.output, false
	}
	out := e.Compose()
	return out, out != nil
}

// Compose runs a full pass and returns the new composite. It returns nil
// when a surface cannot be allocated; the previous composite stays
// available through Composed.
func (e *Engine) Compose() *strata.Surface {
	pool := e.src.Pool()
	w, h := e.src.Width(), e.src.Height()
	key := e.currentKey()

	out, err := pool.Acquire(w, h)
	if err != nil {
		strata.Logger().Warn("compose: cannot allocate output", "err", err)
		e.valid = false
		return nil
	}
	if !e.background.IsZero() {
		out.Fill(e.background)
	}
	if err := e.composeScope(out, e.src.Root()); err != nil {
		pool.Release(out)
		strata.Logger().Warn("compose: pass aborted", "err", err)
		e.valid = false
		return nil
	}
	for _, o := range e.overlays {
		o.overlay.DrawOverlay(out)
	}

	pool.Release(e.output)
	e.output = out
	e.key = key
	e.valid = true
	e.passes++
	strata.Logger().Debug("compose: pass", "passes", e.passes, "revision", key.revision)
	return out
}

func (e *Engine) composeScope(dst *strata.Surface, ids []string) error {
	for _, id := range ids {
		if l, ok := e.src.Layer(id); ok {
			if err := e.drawLayer(dst, l); err != nil {
				return err
			}
			continue
		}
		if g, ok := e.src.Group(id); ok {
			if err := e.drawGroup(dst, g); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Engine) drawGroup(dst *strata.Surface, g *layer.Group) error {
	if !g.Visible || g.Opacity <= 0 || len(g.Children) == 0 {
		return nil
	}
	pool := e.src.Pool()
	buf, err := pool.Acquire(dst.Width(), dst.Height())
	if err != nil {
		return fmt.Errorf("group %s: %w", g.ID, err)
	}
	defer pool.Release(buf)

	if err := e.composeScope(buf, g.Children); err != nil {
		return err
	}
	return blend.Composite(dst, buf, blendFunc(g.BlendMode, g.ID), g.Opacity, nil)
}

func (e *Engine) drawLayer(dst *strata.Surface, l *layer.Layer) error {
	if !l.Visible || l.Opacity <= 0 || l.Content == nil {
		return nil
	}
	pool := e.src.Pool()
	buf, err := pool.Acquire(dst.Width(), dst.Height())
	if err != nil {
		return fmt.Errorf("layer %s: %w", l.ID, err)
	}
	defer pool.Release(buf)

	place(buf, l.Content, l.Transform)
	effect.Apply(buf, l.Effects)

	coverage := mask.Intersect(l.ClipMask.Coverage(buf.Width(), buf.Height()), visibility(l.Mask, buf))
	return blend.Composite(dst, buf, blendFunc(l.BlendMode, l.ID), l.Opacity, coverage)
}

// place copies content into buf through the layer transform.
func place(buf, content *strata.Surface, t layer.Transform) {
	m := t.Matrix()
	if m.IsIdentity() && content.Width() == buf.Width() && content.Height() == buf.Height() {
		_ = buf.CopyFrom(content)
		return
	}
	s2d := f64.Aff3{m.A, m.B, m.C, m.D, m.E, m.F}
	draw.BiLinear.Transform(buf.RGBA(), s2d, content.RGBA(), content.Bounds(), draw.Src, nil)
}

func visibility(m *mask.LayerMask, buf *strata.Surface) []byte {
	if m == nil || !m.Enabled || m.Gray == nil {
		return nil
	}
	return m.Visibility(buf.Width(), buf.Height())
}

func blendFunc(mode strata.BlendMode, id string) blend.Func {
	fn, ok := blend.For(mode)
	if !ok {
		strata.Logger().Warn("compose: unrecognized blend mode, using source-over", "id", id, "mode", uint8(mode))
		return blend.SourceOver
	}
	return fn
}

package selection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/strata"
	"github.com/gogpu/strata/brush"
	"github.com/gogpu/strata/compose"
	"github.com/gogpu/strata/history"
	"github.com/gogpu/strata/internal/idgen"
	"github.com/gogpu/strata/layer"
	"github.com/gogpu/strata/stroke"
)

type fixture struct {
	store   *layer.Store
	engine  *compose.Engine
	history *history.Manager
	strokes *stroke.Manager
	sel     *Manager
	rec     *brush.Recorder
}

func setup(t *testing.T) *fixture {
	t.Helper()
	s, err := layer.NewStore(64, 48, layer.WithIDGenerator(idgen.Sequential()))
	require.NoError(t, err)
	f := &fixture{store: s, rec: &brush.Recorder{Next: brush.NewRoundBrush()}}
	f.engine = compose.New(s)
	f.history = history.New(s)
	settings := brush.DefaultSettings()
	settings.Size, settings.Spacing = 10, 0.3
	f.strokes = stroke.New(s, f.rec, stroke.WithSettings(settings), stroke.WithHistory(f.history))
	f.sel = New(s, f.rec, WithHistory(f.history), WithOverlayHost(f.engine))
	return f
}

func (f *fixture) draw(t *testing.T, pts ...strata.Point) string {
	t.Helper()
	require.NoError(t, f.strokes.PointerDown(pts[0]))
	for _, p := range pts[1:] {
		require.NoError(t, f.strokes.PointerMove(p))
	}
	id, err := f.strokes.PointerUp(pts[len(pts)-1])
	require.NoError(t, err)
	return id
}

func (f *fixture) stroke(t *testing.T, id string) *layer.StrokeData {
	t.Helper()
	l, ok := f.store.Layer(id)
	require.True(t, ok)
	require.NotNil(t, l.Stroke)
	return l.Stroke
}

func line(f *fixture, t *testing.T) string {
	return f.draw(t, strata.Pt(10, 10), strata.Pt(20, 10), strata.Pt(30, 10))
}

func TestMoveScenario(t *testing.T) {
	f := setup(t)
	id := line(f, t)

	require.NoError(t, f.sel.PointerDown(strata.Pt(20, 10)))
	assert.Equal(t, id, f.sel.Selected())
	assert.Equal(t, ModeMove, f.sel.State().Mode)

	require.NoError(t, f.sel.Drag(strata.Pt(22, 12)))
	f.rec.Reset()
	require.NoError(t, f.sel.Drag(strata.Pt(25, 15)))
	f.sel.PointerUp(strata.Pt(25, 15))

	d := f.stroke(t, id)
	assert.Equal(t, strata.Bounds{MinX: 10, MinY: 10, MaxX: 40, MaxY: 20, Width: 30, Height: 10}, d.Bounds)
	assert.Equal(t, []strata.Point{{X: 15, Y: 15}, {X: 25, Y: 15}, {X: 35, Y: 15}}, d.Points)
	assert.Equal(t, ModeNone, f.sel.State().Mode)

	require.Len(t, f.rec.Stamps, 7)
	assert.LessOrEqual(t, brush.MaxGap(f.rec.Stamps), 3.0+1e-9)
	assert.Equal(t, strata.Pt(15, 15), f.rec.Stamps[0].Center)
}

// Each drag sample moves by the distance from the previous sample.
func TestMoveUsesPreviousSample(t *testing.T) {
	f := setup(t)
	id := line(f, t)
	require.NoError(t, f.sel.Select(id))
	require.NoError(t, f.sel.Begin(ModeMove, HandleNone, strata.Pt(20, 10)))
	for i := 1; i <= 10; i++ {
		require.NoError(t, f.sel.Drag(strata.Pt(20+float64(i), 10)))
	}
	f.sel.End()
	b := f.stroke(t, id).Bounds
	assert.Equal(t, 15.0, b.MinX)
	assert.Equal(t, 45.0, b.MaxX)
	assert.True(t, b.Consistent())
}

func TestRedrawContinuityForAnyDelta(t *testing.T) {
	for _, delta := range []strata.Point{{X: 0.3, Y: 0.7}, {X: -4, Y: 11.5}, {X: 17, Y: 3}} {
		f := setup(t)
		id := line(f, t)
		require.NoError(t, f.sel.Select(id))
		require.NoError(t, f.sel.Begin(ModeMove, HandleNone, strata.Pt(20, 10)))
		f.rec.Reset()
		require.NoError(t, f.sel.Drag(strata.Pt(20, 10).Add(delta)))
		f.sel.End()
		assert.LessOrEqual(t, brush.MaxGap(f.rec.Stamps), 3.0+1e-9, "delta %v", delta)
		assert.True(t, f.stroke(t, id).Bounds.Consistent())
	}
}

func TestSelectionExclusivity(t *testing.T) {
	f := setup(t)
	a := line(f, t)
	b := f.draw(t, strata.Pt(10, 35), strata.Pt(30, 35))

	f.sel.Click(strata.Pt(20, 10))
	assert.Equal(t, a, f.sel.Selected())
	out := f.engine.Compose()
	require.NotNil(t, out)
	assert.NotZero(t, out.RGBAAt(5, 5).A, "outline of a is drawn")

	f.sel.Click(strata.Pt(20, 35))
	assert.Equal(t, b, f.sel.Selected())
	assert.False(t, f.stroke(t, a).Selected)
	assert.True(t, f.stroke(t, b).Selected)

	selected := 0
	for _, l := range f.store.Layers() {
		if l.Stroke != nil && l.Stroke.Selected {
			selected++
		}
	}
	assert.Equal(t, 1, selected)

	out = f.engine.Compose()
	assert.Zero(t, out.RGBAAt(5, 5).A, "outline of a is gone")

	f.sel.Click(strata.Pt(60, 45))
	assert.Equal(t, "", f.sel.Selected())
	assert.False(t, f.engine.HasOverlay(OverlayName))
}

func TestHitTestTopmostFirst(t *testing.T) {
	f := setup(t)
	_ = line(f, t)
	top := f.draw(t, strata.Pt(15, 10), strata.Pt(25, 10))

	id, ok := f.sel.HitTest(strata.Pt(20, 10))
	assert.True(t, ok)
	assert.Equal(t, top, id)

	_, ok = f.sel.HitTest(strata.Pt(60, 40))
	assert.False(t, ok)

	require.NoError(t, f.store.SetProperty(top, layer.Patch{Visible: layer.Ptr(false)}))
	id, _ = f.sel.HitTest(strata.Pt(20, 10))
	assert.NotEqual(t, top, id)
}

func TestHiddenGroupHidesStroke(t *testing.T) {
	f := setup(t)
	id := line(f, t)
	g, err := f.store.CreateGroup("", []string{id})
	require.NoError(t, err)
	require.NoError(t, f.sel.Select(id))
	assert.NotZero(t, outlinePixels(f), "outline drawn while shown")

	require.NoError(t, f.store.SetGroupProperty(g, layer.GroupPatch{Visible: layer.Ptr(false)}))
	_, ok := f.sel.HitTest(strata.Pt(20, 10))
	assert.False(t, ok)
	assert.Zero(t, outlinePixels(f))
}

// outlinePixels counts the pixels the selection outline covers.
func outlinePixels(f *fixture) int {
	dst := strata.MustSurface(f.store.Width(), f.store.Height())
	outline{f.sel}.DrawOverlay(dst)
	n := 0
	for y := 0; y < dst.Height(); y++ {
		for x := 0; x < dst.Width(); x++ {
			if dst.RGBAAt(x, y).A != 0 {
				n++
			}
		}
	}
	return n
}

func TestHitTestThroughLayerTransform(t *testing.T) {
	f := setup(t)
	id := line(f, t)
	tr := layer.IdentityTransform()
	tr.TranslateY = 20
	require.NoError(t, f.store.SetProperty(id, layer.Patch{Transform: &tr}))

	_, ok := f.sel.HitTest(strata.Pt(20, 10))
	assert.False(t, ok)
	got, ok := f.sel.HitTest(strata.Pt(20, 30))
	assert.True(t, ok)
	assert.Equal(t, id, got)
}

func TestResize(t *testing.T) {
	f := setup(t)
	id := line(f, t)
	require.NoError(t, f.sel.Select(id))
	assert.Equal(t, HandleBottomRight, f.sel.HandleAt(strata.Pt(35, 15)))

	require.NoError(t, f.sel.PointerDown(strata.Pt(35, 15)))
	assert.Equal(t, ModeResize, f.sel.State().Mode)
	f.rec.Reset()
	require.NoError(t, f.sel.Drag(strata.Pt(65, 15)))
	f.sel.End()

	d := f.stroke(t, id)
	assert.Equal(t, []strata.Point{{X: 15, Y: 10}, {X: 35, Y: 10}, {X: 55, Y: 10}}, d.Points)
	assert.Equal(t, 10.0, d.Bounds.MinX)
	assert.Equal(t, 60.0, d.Bounds.MaxX)
	assert.True(t, d.Bounds.Consistent())
	assert.LessOrEqual(t, brush.MaxGap(f.rec.Stamps), 3.0+1e-9)
}

func TestResizeCollapseClamps(t *testing.T) {
	f := setup(t)
	id := f.draw(t, strata.Pt(10, 10), strata.Pt(30, 30))
	require.NoError(t, f.sel.Select(id))
	require.NoError(t, f.sel.Begin(ModeResize, HandleBottomRight, strata.Pt(35, 35)))
	require.NoError(t, f.sel.Drag(strata.Pt(5, 5)))
	f.sel.End()
	b := f.stroke(t, id).Bounds
	assert.True(t, b.Consistent())
	assert.GreaterOrEqual(t, b.Width, strata.MinExtent)
	assert.GreaterOrEqual(t, b.Height, strata.MinExtent)
}

func TestRotate(t *testing.T) {
	f := setup(t)
	id := line(f, t)
	require.NoError(t, f.sel.Select(id))
	require.NoError(t, f.sel.Begin(ModeRotate, HandleRotate, strata.Pt(20, -11)))
	require.NoError(t, f.sel.Drag(strata.Pt(41, 10)))
	f.sel.End()

	d := f.stroke(t, id)
	require.Len(t, d.Points, 3)
	assert.InDelta(t, 20, d.Points[0].X, 1e-9)
	assert.InDelta(t, 0, d.Points[0].Y, 1e-9)
	assert.InDelta(t, 20, d.Points[2].X, 1e-9)
	assert.InDelta(t, 20, d.Points[2].Y, 1e-9)
	assert.InDelta(t, 10, d.Bounds.Width, 1e-9)
	assert.InDelta(t, 30, d.Bounds.Height, 1e-9)
}

func TestEscapeAndCaptureLossEndTransform(t *testing.T) {
	f := setup(t)
	id := line(f, t)
	require.NoError(t, f.sel.Select(id))

	require.NoError(t, f.sel.Begin(ModeMove, HandleNone, strata.Pt(20, 10)))
	require.NoError(t, f.sel.Drag(strata.Pt(21, 10)))
	f.sel.Escape()
	assert.Equal(t, ModeNone, f.sel.State().Mode)
	assert.False(t, f.sel.Dragging())
	assert.Equal(t, 6.0, f.stroke(t, id).Bounds.MinX, "escape commits")

	require.NoError(t, f.sel.Begin(ModeMove, HandleNone, strata.Pt(20, 10)))
	f.sel.LostCapture()
	assert.Equal(t, ModeNone, f.sel.State().Mode)
}

func TestUnchangedTransformDiscardsSnapshot(t *testing.T) {
	f := setup(t)
	id := line(f, t)
	require.NoError(t, f.sel.Select(id))
	before, _ := f.history.Len()
	require.NoError(t, f.sel.Begin(ModeMove, HandleNone, strata.Pt(20, 10)))
	f.sel.End()
	after, _ := f.history.Len()
	assert.Equal(t, before, after)
}

func TestMoveIsUndoable(t *testing.T) {
	f := setup(t)
	id := line(f, t)
	require.NoError(t, f.sel.Select(id))
	before := f.engine.Compose().Clone()

	require.NoError(t, f.sel.Begin(ModeMove, HandleNone, strata.Pt(20, 10)))
	require.NoError(t, f.sel.Drag(strata.Pt(26, 19)))
	f.sel.End()
	moved := f.engine.Compose().Clone()
	assert.False(t, moved.Equal(before))

	require.True(t, f.history.Undo())
	f.sel.Sync()
	assert.True(t, f.engine.Compose().Equal(before))

	require.True(t, f.history.Redo())
	f.sel.Sync()
	assert.True(t, f.engine.Compose().Equal(moved))
}

func TestDeleteSelected(t *testing.T) {
	f := setup(t)
	id := line(f, t)
	require.NoError(t, f.sel.Select(id))
	require.NoError(t, f.sel.Delete())
	assert.False(t, f.store.Exists(id))
	assert.Equal(t, "", f.sel.Selected())
	assert.False(t, f.engine.HasOverlay(OverlayName))

	require.True(t, f.history.Undo())
	assert.True(t, f.store.Exists(id))
	f.sel.Sync()
	assert.Equal(t, "", f.sel.Selected())
}

func TestSyncDropsVanishedSelection(t *testing.T) {
	f := setup(t)
	id := line(f, t)
	require.NoError(t, f.sel.Select(id))
	require.True(t, f.history.Undo()) // removes the stroke itself
	f.sel.Sync()
	assert.Equal(t, "", f.sel.Selected())
	assert.False(t, f.engine.HasOverlay(OverlayName))
}

func TestLockedLayerRejectsTransform(t *testing.T) {
	f := setup(t)
	id := line(f, t)
	require.NoError(t, f.sel.Select(id))
	require.NoError(t, f.store.SetProperty(id, layer.Patch{Locked: layer.Ptr(layer.LockPosition)}))
	assert.ErrorIs(t, f.sel.Begin(ModeMove, HandleNone, strata.Pt(20, 10)), strata.ErrLocked)
	assert.ErrorIs(t, f.sel.Nudge(1, 1), strata.ErrLocked)
	assert.Equal(t, ModeNone, f.sel.State().Mode)

	require.NoError(t, f.store.SetProperty(id, layer.Patch{Locked: layer.Ptr(layer.LockPixels)}))
	assert.ErrorIs(t, f.sel.Begin(ModeMove, HandleNone, strata.Pt(20, 10)), strata.ErrLocked)
}

func TestNudge(t *testing.T) {
	f := setup(t)
	id := line(f, t)
	require.NoError(t, f.sel.Select(id))
	require.NoError(t, f.sel.Nudge(2, -1))
	b := f.stroke(t, id).Bounds
	assert.Equal(t, 7.0, b.MinX)
	assert.Equal(t, 4.0, b.MinY)
	undo, _ := f.history.Len()
	assert.Equal(t, 2, undo, "stroke plus nudge")
}

func TestHandles(t *testing.T) {
	f := setup(t)
	id := line(f, t)
	assert.Nil(t, f.sel.Handles())
	require.NoError(t, f.sel.Select(id))
	h := f.sel.Handles()
	assert.Equal(t, strata.Pt(5, 5), h[HandleTopLeft])
	assert.Equal(t, strata.Pt(20, 5-rotateOffset), h[HandleRotate])
	assert.Equal(t, HandleNone, f.sel.HandleAt(strata.Pt(20, 10)))
	assert.False(t, math.IsNaN(h[HandleBottomRight].X))
}

type schedulerLog struct{ calls []string }

func (s *schedulerLog) Request() uint64 {
	s.calls = append(s.calls, "request")
	return 0
}

func (s *schedulerLog) Cancel() { s.calls = append(s.calls, "cancel") }

func TestClearingSelectionCancelsScheduledCompose(t *testing.T) {
	f := setup(t)
	sched := &schedulerLog{}
	f.sel = New(f.store, f.rec, WithHistory(f.history), WithOverlayHost(f.engine), WithScheduler(sched))
	a := line(f, t)
	b := f.draw(t, strata.Pt(10, 30), strata.Pt(30, 30))

	require.NoError(t, f.sel.Select(a))
	assert.Empty(t, sched.calls)
	f.sel.Deselect()
	assert.Equal(t, []string{"cancel", "request"}, sched.calls)
	f.sel.Deselect()
	assert.Len(t, sched.calls, 2, "deselecting nothing is a no-op")

	sched.calls = nil
	require.NoError(t, f.sel.Select(b))
	require.NoError(t, f.sel.Delete())
	assert.Equal(t, []string{"cancel", "request"}, sched.calls)
}

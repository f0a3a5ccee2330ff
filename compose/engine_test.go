package compose

import (
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/strata"
	"github.com/gogpu/strata/effect"
	"github.com/gogpu/strata/internal/blend"
	"github.com/gogpu/strata/internal/idgen"
	"github.com/gogpu/strata/layer"
	"github.com/gogpu/strata/mask"
)

func newStore(t *testing.T, w, h int) *layer.Store {
	t.Helper()
	s, err := layer.NewStore(w, h, layer.WithIDGenerator(idgen.Sequential()))
	require.NoError(t, err)
	return s
}

func filled(t *testing.T, s *layer.Store, c strata.RGBA, p layer.Patch) string {
	t.Helper()
	id, err := s.CreateLayer(layer.TypePaint, "")
	require.NoError(t, err)
	l, _ := s.Layer(id)
	l.Content.Fill(c)
	require.NoError(t, s.SetProperty(id, p))
	return id
}

func px(c color.RGBA) [4]byte { return [4]byte{c.R, c.G, c.B, c.A} }

func at(s *strata.Surface, x, y int) [4]byte { return px(s.RGBAAt(x, y)) }

func content(t *testing.T, s *layer.Store, id string) [4]byte {
	t.Helper()
	l, ok := s.Layer(id)
	require.True(t, ok)
	return at(l.Content, 0, 0)
}

// The layer blend runs exactly once, at composite time.
func TestBlendAppliedOnce(t *testing.T) {
	s := newStore(t, 2, 2)
	bottom := filled(t, s, strata.RGBA{R: 200.0 / 255, G: 100.0 / 255, B: 50.0 / 255, A: 1}, layer.Patch{})
	top := filled(t, s, strata.RGBA{R: 128.0 / 255, G: 128.0 / 255, B: 128.0 / 255, A: 1},
		layer.Patch{BlendMode: layer.Ptr(strata.BlendMultiply)})

	out := New(s).Compose()
	require.NotNil(t, out)

	base := blend.Pixel(strata.BlendNormal, content(t, s, bottom), [4]byte{}, 1)
	once := blend.Pixel(strata.BlendMultiply, content(t, s, top), base, 1)
	twice := blend.Pixel(strata.BlendMultiply, content(t, s, top), once, 1)

	assert.Equal(t, once, at(out, 1, 1))
	assert.NotEqual(t, twice, at(out, 1, 1))
}

func TestMultiplyUnderHalfOpacity(t *testing.T) {
	s := newStore(t, 2, 2)
	l1 := filled(t, s, strata.RGB(0.8, 0.4, 0.2), layer.Patch{BlendMode: layer.Ptr(strata.BlendMultiply)})
	l2 := filled(t, s, strata.RGB(0.2, 0.6, 1), layer.Patch{Opacity: layer.Ptr(0.5)})

	out := New(s).Compose()
	require.NotNil(t, out)

	want := blend.Pixel(strata.BlendMultiply, content(t, s, l1), [4]byte{}, 1)
	want = blend.Pixel(strata.BlendNormal, content(t, s, l2), want, 0.5)
	assert.Equal(t, want, at(out, 0, 0))
}

func TestComposeIsDeterministic(t *testing.T) {
	s := newStore(t, 8, 8)
	filled(t, s, strata.RGB(0.1, 0.7, 0.3), layer.Patch{BlendMode: layer.Ptr(strata.BlendScreen)})
	filled(t, s, strata.RGBA{R: 0.9, G: 0.2, B: 0.5, A: 0.6}, layer.Patch{
		BlendMode: layer.Ptr(strata.BlendOverlay),
		Effects:   &[]effect.Effect{effect.New(effect.Blur, nil)},
	})

	e := New(s, WithBackground(strata.White))
	first := e.Compose().Clone()
	second := e.Compose()
	assert.True(t, first.Equal(second))
	assert.Equal(t, 2, e.Passes())
}

func TestComposeIfChanged(t *testing.T) {
	s := newStore(t, 4, 4)
	id := filled(t, s, strata.Red, layer.Patch{})
	e := New(s)

	_, ran := e.ComposeIfChanged()
	assert.True(t, ran)
	_, ran = e.ComposeIfChanged()
	assert.False(t, ran)

	s.Touch(id)
	_, ran = e.ComposeIfChanged()
	assert.True(t, ran)

	e.SetOverlay("x", OverlayFunc(func(*strata.Surface) {}))
	_, ran = e.ComposeIfChanged()
	assert.True(t, ran)
	assert.Equal(t, 3, e.Passes())
}

func TestInvisibleAndTransparentLayersSkipped(t *testing.T) {
	s := newStore(t, 2, 2)
	filled(t, s, strata.Red, layer.Patch{Visible: layer.Ptr(false)})
	filled(t, s, strata.Blue, layer.Patch{Opacity: layer.Ptr(0.0)})
	out := New(s).Compose()
	require.NotNil(t, out)
	assert.True(t, out.IsEmpty())
}

func TestGroupOpacityAppliesToUnion(t *testing.T) {
	s := newStore(t, 2, 2)
	a := filled(t, s, strata.Red, layer.Patch{})
	b := filled(t, s, strata.Blue, layer.Patch{})
	g, err := s.CreateGroup("", []string{a, b})
	require.NoError(t, err)
	require.NoError(t, s.SetGroupProperty(g, layer.GroupPatch{Opacity: layer.Ptr(0.5)}))

	out := New(s).Compose()
	require.NotNil(t, out)

	// The union is opaque blue; drawn once at half opacity.
	want := blend.Pixel(strata.BlendNormal, content(t, s, b), [4]byte{}, 0.5)
	assert.Equal(t, want, at(out, 0, 0))

	// Drawing each child at half opacity would leave some red showing.
	perLayer := blend.Pixel(strata.BlendNormal, content(t, s, a), [4]byte{}, 0.5)
	perLayer = blend.Pixel(strata.BlendNormal, content(t, s, b), perLayer, 0.5)
	assert.NotEqual(t, perLayer, at(out, 0, 0))
}

func TestHiddenGroupHidesChildren(t *testing.T) {
	s := newStore(t, 2, 2)
	a := filled(t, s, strata.Red, layer.Patch{})
	g, _ := s.CreateGroup("", []string{a})
	require.NoError(t, s.SetGroupProperty(g, layer.GroupPatch{Visible: layer.Ptr(false)}))
	assert.True(t, New(s).Compose().IsEmpty())
}

func TestClipAndLayerMaskIntersect(t *testing.T) {
	s := newStore(t, 4, 1)
	id := filled(t, s, strata.Red, layer.Patch{})

	require.NoError(t, s.SetClipMask(id, mask.NewClipMask(mask.Rect{X: 0, Y: 0, W: 2, H: 1})))
	m, err := mask.NewLayerMask(4, 1)
	require.NoError(t, err)
	m.Set(1, 0, 0)
	require.NoError(t, s.SetMask(id, m))

	out := New(s).Compose()
	require.NotNil(t, out)
	assert.Equal(t, uint8(255), out.RGBAAt(0, 0).A, "inside clip, mask visible")
	assert.Equal(t, uint8(0), out.RGBAAt(1, 0).A, "inside clip, masked out")
	assert.Equal(t, uint8(0), out.RGBAAt(2, 0).A, "outside clip")

	m.Enabled = false
	s.Touch(id)
	out = New(s).Compose()
	assert.Equal(t, uint8(255), out.RGBAAt(1, 0).A)
}

func TestInvertedClip(t *testing.T) {
	s := newStore(t, 4, 1)
	id := filled(t, s, strata.Red, layer.Patch{})
	c := mask.NewClipMask(mask.Rect{X: 0, Y: 0, W: 2, H: 1})
	c.Inverted = true
	require.NoError(t, s.SetClipMask(id, c))

	out := New(s).Compose()
	assert.Equal(t, uint8(0), out.RGBAAt(0, 0).A)
	assert.Equal(t, uint8(255), out.RGBAAt(3, 0).A)
}

func TestEffectBlendDoesNotLeak(t *testing.T) {
	s := newStore(t, 2, 2)
	bottom := filled(t, s, strata.RGB(0.5, 0.5, 0.5), layer.Patch{})
	inv := effect.New(effect.Invert, nil)
	inv.BlendMode = strata.BlendDifference
	top := filled(t, s, strata.RGB(0.2, 0.4, 0.6), layer.Patch{Effects: &[]effect.Effect{inv}})

	out := New(s).Compose()
	require.NotNil(t, out)

	// The effect modifies the top layer's buffer only; the layer itself
	// composites with normal, so an opaque top hides the bottom entirely.
	buf := strata.MustSurface(2, 2)
	l, _ := s.Layer(top)
	require.NoError(t, buf.CopyFrom(l.Content))
	effect.Apply(buf, l.Effects)
	want := blend.Pixel(strata.BlendNormal, at(buf, 0, 0), content(t, s, bottom), 1)
	assert.Equal(t, want, at(out, 0, 0))
	assert.Equal(t, content(t, s, top), at(l.Content, 0, 0), "effects never touch content")
}

func TestLayerTransformTranslates(t *testing.T) {
	s := newStore(t, 4, 4)
	id, _ := s.CreateLayer(layer.TypePaint, "")
	l, _ := s.Layer(id)
	l.Content.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})
	tr := layer.IdentityTransform()
	tr.TranslateX, tr.TranslateY = 2, 1
	require.NoError(t, s.SetProperty(id, layer.Patch{Transform: &tr}))

	out := New(s).Compose()
	require.NotNil(t, out)
	assert.Equal(t, uint8(255), out.RGBAAt(2, 1).A)
	assert.Equal(t, uint8(0), out.RGBAAt(0, 0).A)
}

func TestUnknownBlendFallsBackToSourceOver(t *testing.T) {
	s := newStore(t, 1, 1)
	id := filled(t, s, strata.Green, layer.Patch{})
	l, _ := s.Layer(id)
	l.BlendMode = strata.BlendMode(77)

	out := New(s).Compose()
	require.NotNil(t, out)
	assert.Equal(t, content(t, s, id), at(out, 0, 0))
}

func TestOverlays(t *testing.T) {
	s := newStore(t, 2, 2)
	e := New(s)
	e.SetOverlay("dot", OverlayFunc(func(dst *strata.Surface) {
		dst.SetRGBA(0, 0, color.RGBA{G: 255, A: 255})
	}))
	assert.True(t, e.HasOverlay("dot"))
	assert.Equal(t, uint8(255), e.Compose().RGBAAt(0, 0).G)

	e.RemoveOverlay("dot")
	assert.False(t, e.HasOverlay("dot"))
	assert.True(t, e.Changed())
	assert.True(t, e.Compose().IsEmpty())
}

func TestComposeAllocationFailure(t *testing.T) {
	pool := strata.NewPool(0, 2*2*4)
	s, err := layer.NewStore(2, 2, layer.WithPool(pool))
	require.NoError(t, err)
	_, err = s.CreateLayer(layer.TypePaint, "")
	require.NoError(t, err)

	e := New(s)
	assert.Nil(t, e.Compose())
	assert.Nil(t, e.Composed())
	assert.True(t, e.Changed())
}

func TestUndoRestoresComposite(t *testing.T) {
	s := newStore(t, 2, 2)
	id := filled(t, s, strata.Red, layer.Patch{BlendMode: layer.Ptr(strata.BlendScreen)})
	e := New(s, WithBackground(strata.RGB(0.2, 0.2, 0.2)))
	before := e.Compose().Clone()

	st, err := s.State()
	require.NoError(t, err)
	require.NoError(t, s.SetProperty(id, layer.Patch{Opacity: layer.Ptr(0.3)}))
	assert.False(t, e.Compose().Equal(before))

	require.NoError(t, s.Restore(st))
	assert.True(t, e.Compose().Equal(before))
}

type countingComposer struct {
	changed  bool
	ifCalls  int
	composes int
}

func (c *countingComposer) ComposeIfChanged() (*strata.Surface, bool) {
	c.ifCalls++
	if !c.changed {
		return nil, false
	}
	return strata.MustSurface(1, 1), true
}

func (c *countingComposer) Compose() *strata.Surface {
	c.composes++
	return strata.MustSurface(1, 1)
}

func TestSchedulerThrottles(t *testing.T) {
	c := &countingComposer{changed: true}
	frames := 0
	sch := NewScheduler(c, 16*time.Millisecond, func(*strata.Surface) { frames++ })
	t0 := time.Unix(0, 0)

	assert.False(t, sch.Poll(t0), "nothing requested")
	for i := range 10 {
		sch.Request()
		sch.Poll(t0.Add(time.Duration(i) * time.Millisecond))
	}
	assert.Equal(t, 1, c.ifCalls, "ten requests inside one interval run one pass")
	assert.True(t, sch.Pending())

	assert.True(t, sch.Poll(t0.Add(16*time.Millisecond)))
	assert.Equal(t, 2, frames)
	assert.False(t, sch.Pending())
}

func TestSchedulerCancel(t *testing.T) {
	c := &countingComposer{changed: true}
	sch := NewScheduler(c, time.Millisecond, nil)
	gen := sch.Request()
	sch.Cancel()
	assert.NotEqual(t, gen, sch.Generation())
	assert.False(t, sch.Poll(time.Unix(10, 0)))
	assert.Equal(t, 0, c.ifCalls)
}

func TestSchedulerFlushAndSkip(t *testing.T) {
	c := &countingComposer{}
	sch := NewScheduler(c, time.Hour, nil)
	sch.Request()
	assert.False(t, sch.Poll(time.Unix(0, 0)), "unchanged composites are skipped")
	sch.Request()
	assert.NotNil(t, sch.Flush())
	assert.Equal(t, 1, c.composes)
	assert.False(t, sch.Pending())
}

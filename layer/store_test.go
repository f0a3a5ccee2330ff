package layer

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/strata"
	"github.com/gogpu/strata/effect"
	"github.com/gogpu/strata/internal/idgen"
	"github.com/gogpu/strata/mask"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(8, 8, WithIDGenerator(idgen.Sequential()))
	require.NoError(t, err)
	return s
}

func ids(ls []*Layer) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.ID
	}
	return out
}

func TestCreateLayerDefaults(t *testing.T) {
	s := newStore(t)
	id, err := s.CreateLayer(TypePaint, "")
	require.NoError(t, err)

	l, ok := s.Layer(id)
	require.True(t, ok)
	assert.Equal(t, "Paint 1", l.Name)
	assert.True(t, l.Visible)
	assert.Equal(t, 1.0, l.Opacity)
	assert.Equal(t, strata.BlendNormal, l.BlendMode)
	assert.True(t, l.Transform.IsIdentity())
	require.NotNil(t, l.Content)
	assert.Equal(t, 8, l.Content.Width())
	assert.True(t, l.Content.IsEmpty())
	assert.Equal(t, 0, l.Order)
}

func TestCreateLayerNamesAndOrder(t *testing.T) {
	s := newStore(t)
	a, _ := s.CreateLayer(TypePaint, "")
	b, _ := s.CreateLayer(TypePaint, "")
	c, _ := s.CreateLayer(TypeText, "title")

	assert.Equal(t, []string{a, b, c}, s.Root())
	lb, _ := s.Layer(b)
	lc, _ := s.Layer(c)
	assert.Equal(t, "Paint 2", lb.Name)
	assert.Equal(t, "title", lc.Name)
	assert.Equal(t, 1, lb.Order)
	assert.Equal(t, 2, lc.Order)
}

func TestCreateLayerAllocationFailure(t *testing.T) {
	pool := strata.NewPool(1, 8*8*4)
	s, err := NewStore(8, 8, WithPool(pool))
	require.NoError(t, err)

	_, err = s.CreateLayer(TypePaint, "")
	require.NoError(t, err)
	rev := s.Revision()
	_, err = s.CreateLayer(TypePaint, "")
	require.ErrorIs(t, err, strata.ErrAllocation)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, rev, s.Revision())
}

func TestUnknownIDsAreNoOps(t *testing.T) {
	s := newStore(t)
	rev := s.Revision()
	for name, err := range map[string]error{
		"delete":    s.DeleteLayer("nope"),
		"property":  s.SetProperty("nope", Patch{Visible: Ptr(false)}),
		"active":    s.SetActiveLayer("nope"),
		"mask":      s.SetMask("nope", nil),
		"stroke":    s.SetStrokeData("nope", nil),
		"group":     s.SetGroupProperty("nope", GroupPatch{}),
		"move":      s.Move("nope", 0),
		"ungroup":   s.Ungroup("nope"),
		"addtogrp":  s.AddToGroup("nope", "nope"),
		"clip mask": s.SetClipMask("nope", nil),
	} {
		assert.ErrorIs(t, err, strata.ErrUnknownLayer, name)
	}
	_, err := s.DuplicateLayer("nope")
	assert.ErrorIs(t, err, strata.ErrUnknownLayer)
	assert.Equal(t, rev, s.Revision())
}

func TestDeleteActiveLayerClearsActive(t *testing.T) {
	s := newStore(t)
	a, _ := s.CreateLayer(TypePaint, "")
	b, _ := s.CreateLayer(TypePaint, "")
	require.NoError(t, s.SetActiveLayer(b))

	require.NoError(t, s.DeleteLayer(b))
	assert.Equal(t, "", s.ActiveLayer())
	assert.Equal(t, []string{a}, s.Root())
	assert.Equal(t, 1, s.Pool().Retained(8, 8))
}

func TestDuplicateLayer(t *testing.T) {
	s := newStore(t)
	a, _ := s.CreateLayer(TypePaint, "ink")
	b, _ := s.CreateLayer(TypePaint, "")
	la, _ := s.Layer(a)
	la.Content.Fill(strata.Red)
	la.Effects = []effect.Effect{effect.New(effect.Blur, map[string]float64{effect.ParamRadius: 2})}
	la.Stroke = &StrokeData{ID: "s", Points: []strata.Point{{X: 1, Y: 1}}, Selected: true}

	dup, err := s.DuplicateLayer(a)
	require.NoError(t, err)
	assert.Equal(t, []string{a, dup, b}, s.Root())

	ld, _ := s.Layer(dup)
	assert.Equal(t, "ink copy", ld.Name)
	assert.True(t, ld.Content.Equal(la.Content))
	assert.NotSame(t, la.Content, ld.Content)
	require.Len(t, ld.Effects, 1)

	ld.Effects[0].Params[effect.ParamRadius] = 9
	assert.Equal(t, 2.0, la.Effects[0].Params[effect.ParamRadius], "effect params must be deep-copied")
	require.NotNil(t, ld.Stroke)
	assert.NotEqual(t, "s", ld.Stroke.ID)
	assert.False(t, ld.Stroke.Selected)
	ld.Stroke.Points[0].X = 5
	assert.Equal(t, 1.0, la.Stroke.Points[0].X)
}

func TestSetPropertyValidation(t *testing.T) {
	s := newStore(t)
	id, _ := s.CreateLayer(TypePaint, "")

	require.NoError(t, s.SetProperty(id, Patch{
		Opacity:   Ptr(0.5),
		BlendMode: Ptr(strata.BlendMultiply),
		Name:      Ptr("shade"),
	}))
	l, _ := s.Layer(id)
	assert.Equal(t, 0.5, l.Opacity)
	assert.Equal(t, strata.BlendMultiply, l.BlendMode)
	assert.Equal(t, "shade", l.Name)

	assert.Error(t, s.SetProperty(id, Patch{Opacity: Ptr(1.5)}))
	assert.Error(t, s.SetProperty(id, Patch{BlendMode: Ptr(strata.BlendMode(99))}))
	assert.Error(t, s.SetProperty(id, Patch{Effects: &[]effect.Effect{{Type: "bogus"}}}))
	assert.Equal(t, 0.5, l.Opacity)
}

func TestSetPropertyLocks(t *testing.T) {
	s := newStore(t)
	id, _ := s.CreateLayer(TypePaint, "")
	l, _ := s.Layer(id)

	require.NoError(t, s.SetProperty(id, Patch{Locked: Ptr(LockPosition)}))
	tr := IdentityTransform()
	tr.TranslateX = 3
	assert.ErrorIs(t, s.SetProperty(id, Patch{Transform: &tr}), strata.ErrLocked)
	assert.NoError(t, s.SetProperty(id, Patch{Opacity: Ptr(0.3)}))
	assert.False(t, l.CanMove())

	require.NoError(t, s.SetProperty(id, Patch{Locked: Ptr(LockAll)}))
	assert.ErrorIs(t, s.SetProperty(id, Patch{Opacity: Ptr(1.0)}), strata.ErrLocked)
	assert.ErrorIs(t, s.SetMask(id, nil), strata.ErrLocked)
	assert.NoError(t, s.SetProperty(id, Patch{Visible: Ptr(false)}))
	assert.False(t, l.CanRedraw())

	require.NoError(t, s.SetProperty(id, Patch{Locked: Ptr(LockNone)}))
	assert.NoError(t, s.SetProperty(id, Patch{Transform: &tr}))
	assert.Equal(t, 3.0, l.Transform.TranslateX)
}

func TestReorder(t *testing.T) {
	s := newStore(t)
	a, _ := s.CreateLayer(TypePaint, "")
	b, _ := s.CreateLayer(TypePaint, "")
	c, _ := s.CreateLayer(TypePaint, "")

	require.NoError(t, s.Reorder([]string{c, a, b}))
	assert.Equal(t, []string{c, a, b}, ids(s.Layers()))
	for i, l := range s.Layers() {
		assert.Equal(t, i, l.Order)
	}
}

func TestReorderRejectsNonPermutations(t *testing.T) {
	s := newStore(t)
	a, _ := s.CreateLayer(TypePaint, "")
	b, _ := s.CreateLayer(TypePaint, "")
	c, _ := s.CreateLayer(TypePaint, "")
	g, err := s.CreateGroup("", []string{c})
	require.NoError(t, err)

	tests := map[string][]string{
		"empty":     nil,
		"duplicate": {a, a, g},
		"short":     {a, b},
		"cross":     {a, b, c},
		"unknown":   {a, b, "x"},
	}
	before := s.Root()
	for name, order := range tests {
		err := s.Reorder(order)
		assert.True(t, errors.Is(err, strata.ErrInvalidOrder) || errors.Is(err, strata.ErrUnknownLayer), "%s: %v", name, err)
		assert.Equal(t, before, s.Root(), name)
	}
}

// Order values stay unique among siblings after every structural edit.
func TestOrderUniquePerScope(t *testing.T) {
	s := newStore(t)
	var all []string
	for range 6 {
		id, _ := s.CreateLayer(TypePaint, "")
		all = append(all, id)
	}
	g, err := s.CreateGroup("g", []string{all[1], all[3]})
	require.NoError(t, err)
	require.NoError(t, s.Move(all[5], 0))
	_, err = s.DuplicateLayer(all[3])
	require.NoError(t, err)
	require.NoError(t, s.AddToGroup(g, all[4]))
	require.NoError(t, s.DeleteLayer(all[0]))

	check := func(scope []string) {
		seen := map[int]bool{}
		for i, id := range scope {
			order := -1
			if l, ok := s.Layer(id); ok {
				order = l.Order
			} else if gr, ok := s.Group(id); ok {
				order = gr.Order
			}
			assert.Equal(t, i, order, id)
			assert.False(t, seen[order])
			seen[order] = true
		}
	}
	check(s.Root())
	check(s.Children(g))
}

func TestGroups(t *testing.T) {
	s := newStore(t)
	a, _ := s.CreateLayer(TypePaint, "")
	b, _ := s.CreateLayer(TypePaint, "")
	c, _ := s.CreateLayer(TypePaint, "")

	g, err := s.CreateGroup("", []string{c, b})
	require.NoError(t, err)
	assert.Equal(t, []string{a, g}, s.Root())
	assert.Equal(t, []string{b, c}, s.Children(g))
	parent, ok := s.ParentOf(b)
	assert.True(t, ok)
	assert.Equal(t, g, parent)
	assert.Equal(t, []string{a, b, c}, ids(s.Layers()))

	assert.ErrorIs(t, s.AddToGroup(g, g), strata.ErrInvalidOrder)
	inner, err := s.CreateGroup("inner", []string{c})
	require.NoError(t, err)
	assert.ErrorIs(t, s.AddToGroup(inner, g), strata.ErrInvalidOrder, "cycle")

	require.NoError(t, s.Ungroup(g))
	assert.Equal(t, []string{a, b, inner}, s.Root())
	assert.False(t, s.IsGroup(g))
}

func TestShownFollowsAncestors(t *testing.T) {
	s := newStore(t)
	a, _ := s.CreateLayer(TypePaint, "")
	b, _ := s.CreateLayer(TypePaint, "")
	outer, err := s.CreateGroup("", []string{b})
	require.NoError(t, err)
	inner, err := s.CreateGroup("", []string{b})
	require.NoError(t, err)
	parent, _ := s.ParentOf(inner)
	require.Equal(t, outer, parent)

	assert.True(t, s.Shown(a))
	assert.True(t, s.Shown(b))
	require.NoError(t, s.SetGroupProperty(outer, GroupPatch{Visible: Ptr(false)}))
	assert.False(t, s.Shown(b), "hidden grandparent")
	assert.True(t, s.Shown(a))

	require.NoError(t, s.SetGroupProperty(outer, GroupPatch{Visible: Ptr(true)}))
	require.NoError(t, s.SetProperty(b, Patch{Visible: Ptr(false)}))
	assert.False(t, s.Shown(b))
	assert.False(t, s.Shown("missing"))
	assert.False(t, s.Shown(outer), "groups are not layers")
}

func TestDeleteGroupIsRecursive(t *testing.T) {
	s := newStore(t)
	a, _ := s.CreateLayer(TypePaint, "")
	b, _ := s.CreateLayer(TypePaint, "")
	c, _ := s.CreateLayer(TypePaint, "")
	inner, _ := s.CreateGroup("", []string{c})
	outer, _ := s.CreateGroup("", []string{b, inner})
	require.NoError(t, s.SetActiveLayer(c))

	require.NoError(t, s.DeleteLayer(outer))
	assert.Equal(t, []string{a}, s.Root())
	assert.Equal(t, 1, s.Len())
	assert.False(t, s.Exists(inner))
	assert.Equal(t, "", s.ActiveLayer())
}

func TestCreateLayerGroupType(t *testing.T) {
	s := newStore(t)
	id, err := s.CreateLayer(TypeGroup, "")
	require.NoError(t, err)
	g, ok := s.Group(id)
	require.True(t, ok)
	assert.Equal(t, "Group 1", g.Name)
	assert.Empty(t, g.Children)

	require.NoError(t, s.SetGroupProperty(id, GroupPatch{Opacity: Ptr(0.25), Collapsed: Ptr(true)}))
	assert.Equal(t, 0.25, g.Opacity)
	assert.True(t, g.Collapsed)
	assert.Error(t, s.SetGroupProperty(id, GroupPatch{Opacity: Ptr(-1.0)}))
}

func TestStateRestore(t *testing.T) {
	s := newStore(t)
	a, _ := s.CreateLayer(TypePaint, "")
	la, _ := s.Layer(a)
	la.Content.Fill(strata.Blue)
	require.NoError(t, s.SetMask(a, mustMask(t)))

	st, err := s.State()
	require.NoError(t, err)

	la.Content.Fill(strata.Red)
	_, _ = s.CreateLayer(TypePaint, "")
	require.NoError(t, s.SetProperty(a, Patch{Opacity: Ptr(0.1)}))

	require.NoError(t, s.Restore(st))
	assert.Equal(t, []string{a}, s.Root())
	restored, _ := s.Layer(a)
	assert.Equal(t, 1.0, restored.Opacity)
	assert.Equal(t, color.RGBA{B: 255, A: 255}, restored.Content.RGBAAt(0, 0))
	require.NotNil(t, restored.Mask)

	// The state survives a restore and can be restored again.
	restored.Content.Fill(strata.Green)
	require.NoError(t, s.Restore(st))
	again, _ := s.Layer(a)
	assert.Equal(t, color.RGBA{B: 255, A: 255}, again.Content.RGBAAt(0, 0))
}

func TestRestoreFailureLeavesStoreIntact(t *testing.T) {
	pool := strata.NewPool(0, 2*8*8*4)
	s, err := NewStore(8, 8, WithPool(pool), WithIDGenerator(idgen.Sequential()))
	require.NoError(t, err)
	a, _ := s.CreateLayer(TypePaint, "")

	st, err := s.State()
	require.NoError(t, err)
	_, err = s.State()
	require.ErrorIs(t, err, strata.ErrAllocation)

	la, _ := s.Layer(a)
	la.Content.Fill(strata.Red)
	rev := s.Revision()
	require.ErrorIs(t, s.Restore(st), strata.ErrAllocation)
	assert.Equal(t, rev, s.Revision())
	assert.Same(t, la, mustLayer(t, s, a))
	assert.Equal(t, color.RGBA{R: 255, A: 255}, la.Content.RGBAAt(0, 0))
}

func TestCreateImageLayerFitsAndCenters(t *testing.T) {
	s := newStore(t)
	img := image.NewNRGBA(image.Rect(0, 0, 16, 8))
	for y := range 8 {
		for x := range 16 {
			img.SetNRGBA(x, y, color.NRGBA{R: 255, A: 255})
		}
	}
	id, err := s.CreateImageLayer(img, "photo")
	require.NoError(t, err)
	l := mustLayer(t, s, id)
	assert.Equal(t, TypeImage, l.Type)

	// 16x8 fits an 8x8 canvas as 8x4, centered vertically.
	assert.Equal(t, uint8(0), l.Content.RGBAAt(4, 1).A)
	assert.Equal(t, uint8(255), l.Content.RGBAAt(4, 3).A)
	assert.Equal(t, uint8(0), l.Content.RGBAAt(4, 6).A)

	_, err = s.CreateImageLayer(image.NewNRGBA(image.Rect(0, 0, 0, 0)), "")
	assert.Error(t, err)
}

func TestClipMaskAttach(t *testing.T) {
	s := newStore(t)
	id, _ := s.CreateLayer(TypePaint, "")
	require.NoError(t, s.SetClipMask(id, mask.NewClipMask(mask.Rect{X: 0, Y: 0, W: 4, H: 4})))
	assert.NotNil(t, mustLayer(t, s, id).ClipMask)
	require.NoError(t, s.SetClipMask(id, nil))
	assert.Nil(t, mustLayer(t, s, id).ClipMask)
}

func TestTransformMatrix(t *testing.T) {
	tr := IdentityTransform()
	tr.TranslateX, tr.TranslateY = 2, 3
	tr.ScaleX, tr.ScaleY = 2, 2
	tr.Pivot = strata.Pt(1, 1)
	got := tr.Matrix().TransformPoint(strata.Pt(2, 1))
	assert.InDelta(t, 5.0, got.X, 1e-9)
	assert.InDelta(t, 4.0, got.Y, 1e-9)
	assert.True(t, Transform{}.IsIdentity())
}

func TestTypeText(t *testing.T) {
	for i := range typeCount {
		b, err := i.MarshalText()
		require.NoError(t, err)
		var got Type
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, i, got)
	}
	_, err := ParseType("sticker")
	assert.Error(t, err)
}

func mustMask(t *testing.T) *mask.LayerMask {
	t.Helper()
	m, err := mask.NewLayerMask(8, 8)
	require.NoError(t, err)
	return m
}

func mustLayer(t *testing.T, s *Store, id string) *Layer {
	t.Helper()
	l, ok := s.Layer(id)
	require.True(t, ok, id)
	return l
}

package selection

import (
	"image"
	"math"

	"github.com/gogpu/strata"
	"github.com/gogpu/strata/internal/blend"
)

// outline draws the selection rectangle and its handles. It reads the
// manager's live state at draw time, so an in-flight transform is
// followed without reinstalling the overlay.
type outline struct{ m *Manager }

// DrawOverlay implements compose.Overlay.
func (o outline) DrawOverlay(dst *strata.Surface) {
	m := o.m
	l, ok := m.store.Layer(m.state.SelectedLayerID)
	if !ok || l.Stroke == nil || !m.store.Shown(l.ID) {
		return
	}
	mat := l.Transform.Matrix()
	b := m.boundsOf(l)
	corners := []strata.Point{
		mat.TransformPoint(strata.Pt(b.MinX, b.MinY)),
		mat.TransformPoint(strata.Pt(b.MaxX, b.MinY)),
		mat.TransformPoint(strata.Pt(b.MaxX, b.MaxY)),
		mat.TransformPoint(strata.Pt(b.MinX, b.MaxY)),
	}
	box := strata.BoundsOf(corners, 0)

	c := m.style.OutlineColor
	w := int(math.Max(1, math.Round(m.style.OutlineWidth)))
	r := image.Rect(int(math.Floor(box.MinX)), int(math.Floor(box.MinY)),
		int(math.Ceil(box.MaxX)), int(math.Ceil(box.MaxY)))

	fillRect(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+w), c)
	fillRect(dst, image.Rect(r.Min.X, r.Max.Y-w, r.Max.X, r.Max.Y), c)
	fillRect(dst, image.Rect(r.Min.X, r.Min.Y, r.Min.X+w, r.Max.Y), c)
	fillRect(dst, image.Rect(r.Max.X-w, r.Min.Y, r.Max.X, r.Max.Y), c)

	half := int(math.Max(1, m.style.HandleSize) / 2)
	for _, p := range handlePoints(b) {
		q := mat.TransformPoint(p)
		x, y := int(math.Round(q.X)), int(math.Round(q.Y))
		fillRect(dst, image.Rect(x-half, y-half, x+half, y+half), c)
	}
}

// fillRect paints c over r with source-over.
func fillRect(dst *strata.Surface, r image.Rectangle, c strata.RGBA) {
	r = r.Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	sr, sg, sb, sa := c.Premul()
	d := dst.Data()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			i := dst.PixOffset(x, y)
			d[i], d[i+1], d[i+2], d[i+3] = blend.SourceOver(sr, sg, sb, sa, d[i], d[i+1], d[i+2], d[i+3])
		}
	}
}

package text

import (
	"fmt"

	"golang.org/x/image/font/sfnt"

	"github.com/gogpu/strata"
	"github.com/gogpu/strata/mask"
)

// segment is one cached glyph outline command in pixel units relative to
// the glyph origin.
type segment struct {
	op  sfnt.SegmentOp
	pts [3]strata.Point
}

// glyphOutline returns the outline of gid at size, from the cache when
// possible.
func (f *Font) glyphOutline(gid sfnt.GlyphIndex, size float64) ([]segment, error) {
	key := glyphKey{gid: gid, ppem: toFixed(size)}
	if segs, ok := f.outlines.Get(key); ok {
		return segs, nil
	}

	f.mu.Lock()
	raw, err := f.outline.LoadGlyph(&f.buf, gid, key.ppem, nil)
	var segs []segment
	if err == nil {
		segs = make([]segment, len(raw))
		for i, s := range raw {
			seg := segment{op: s.Op}
			for j, a := range s.Args {
				seg.pts[j] = strata.Pt(fromFixed(a.X), fromFixed(a.Y))
			}
			segs[i] = seg
		}
	}
	f.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("text: glyph %d: %w", gid, err)
	}
	f.outlines.Set(key, segs)
	return segs, nil
}

// Outline returns the filled outline of s, shaped at size, with the
// baseline origin at origin. The result can be used as a clip shape.
func (f *Font) Outline(s string, size float64, origin strata.Point) (mask.Path, error) {
	var p mask.Path
	for _, g := range f.Shape(s, size) {
		segs, err := f.glyphOutline(sfnt.GlyphIndex(g.ID), size)
		if err != nil {
			return mask.Path{}, err
		}
		at := origin.Add(strata.Pt(g.X, g.Y))
		for _, seg := range segs {
			a, b, c := seg.pts[0].Add(at), seg.pts[1].Add(at), seg.pts[2].Add(at)
			switch seg.op {
			case sfnt.SegmentOpMoveTo:
				p.MoveTo(a.X, a.Y)
			case sfnt.SegmentOpLineTo:
				p.LineTo(a.X, a.Y)
			case sfnt.SegmentOpQuadTo:
				p.QuadTo(a.X, a.Y, b.X, b.Y)
			case sfnt.SegmentOpCubeTo:
				p.CubeTo(a.X, a.Y, b.X, b.Y, c.X, c.Y)
			}
		}
		if len(segs) > 0 {
			p.Close()
		}
	}
	return p, nil
}

// Shape is a clip shape that covers the outline of a string.
type Shape struct {
	Font   *Font
	Text   string
	Size   float64
	Origin strata.Point
}

// Coverage implements mask.Shape. A missing font yields no coverage.
func (s Shape) Coverage(width, height int) []byte {
	if s.Font == nil {
		strata.Logger().Warn("text: clip shape without font")
		return make([]byte, width*height)
	}
	p, err := s.Font.Outline(s.Text, s.Size, s.Origin)
	if err != nil {
		strata.Logger().Warn("text: clip outline failed", "err", err)
		return make([]byte, width*height)
	}
	if len(p.Segments) == 0 {
		return make([]byte, width*height)
	}
	return p.Coverage(width, height)
}

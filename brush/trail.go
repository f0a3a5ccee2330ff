package brush

import "github.com/gogpu/strata"

// Trail stamps a brush along a polyline at a fixed spacing.
//
// Points are sparse relative to the rendered stroke: between two
// consecutive points Trail emits intermediate stamps every Settings.Step
// pixels, carrying the leftover distance into the next segment so that
// spacing stays uniform across sample boundaries.
type Trail struct {
	dst      *strata.Surface
	renderer StampRenderer
	settings Settings

	started bool
	last    strata.Point
	carry   float64 // distance travelled since the last stamp
	base    float64 // stroke length up to last
	stamps  int
}

// NewTrail starts a trail drawing onto dst.
func NewTrail(dst *strata.Surface, r StampRenderer, s Settings) *Trail {
	s, _ = s.Normalize()
	return &Trail{dst: dst, renderer: r, settings: s}
}

// Add extends the trail to p and returns the number of stamps emitted.
// The first point is always stamped.
func (t *Trail) Add(p strata.Point) int {
	if !t.started {
		t.started = true
		t.last = p
		t.stamp(p, 0)
		return 1
	}
	seg := t.last.Distance(p)
	if seg == 0 {
		return 0
	}
	step := t.settings.Step()
	n := 0
	at := step - t.carry
	for ; at <= seg+1e-9; at += step {
		t.stamp(t.last.Lerp(p, at/seg), t.base+at)
		n++
	}
	t.carry = seg - (at - step)
	t.base += seg
	t.last = p
	return n
}

// Stamps returns the number of stamps emitted so far.
func (t *Trail) Stamps() int { return t.stamps }

// Length returns the polyline length covered so far.
func (t *Trail) Length() float64 { return t.base }

func (t *Trail) stamp(p strata.Point, travelled float64) {
	t.stamps++
	if t.renderer == nil {
		return
	}
	s := t.settings
	t.renderer.Stamp(t.dst, Stamp{
		Center:   p,
		Radius:   s.Radius(),
		Color:    s.ColorAt(travelled),
		Opacity:  s.Opacity,
		Hardness: s.Hardness,
	})
}

// Replay stamps points onto dst exactly as a live trail over the same
// points would, and returns the number of stamps.
func Replay(dst *strata.Surface, r StampRenderer, s Settings, points []strata.Point) int {
	t := NewTrail(dst, r, s)
	for _, p := range points {
		t.Add(p)
	}
	return t.Stamps()
}

// Recorder is a StampRenderer that records every stamp and optionally
// forwards it to Next.
type Recorder struct {
	Next   StampRenderer
	Stamps []Stamp
}

// Stamp implements StampRenderer.
func (r *Recorder) Stamp(dst *strata.Surface, s Stamp) {
	r.Stamps = append(r.Stamps, s)
	if r.Next != nil {
		r.Next.Stamp(dst, s)
	}
}

// Reset forgets recorded stamps.
func (r *Recorder) Reset() { r.Stamps = r.Stamps[:0] }

// MaxGap returns the largest distance between consecutive stamp centers.
func MaxGap(stamps []Stamp) float64 {
	var gap float64
	for i := 1; i < len(stamps); i++ {
		gap = max(gap, stamps[i-1].Center.Distance(stamps[i].Center))
	}
	return gap
}

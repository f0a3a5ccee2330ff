package mask

import (
	"github.com/gogpu/strata"
	"github.com/gogpu/strata/internal/blend"
)

// ClipMask constrains a layer to the inside of a Shape. Inverted swaps
// inside and outside.
//
// Coverage is cached per canvas size. SetShape drops the cache; call
// Invalidate after mutating the shape in place.
type ClipMask struct {
	shape    Shape
	Enabled  bool
	Inverted bool

	cached   []byte
	cachedW  int
	cachedH  int
	cachedIn bool
}

// NewClipMask returns an enabled clip mask for shape.
func NewClipMask(shape Shape) *ClipMask {
	return &ClipMask{shape: shape, Enabled: true}
}

// Shape returns the clip shape.
func (c *ClipMask) Shape() Shape { return c.shape }

// SetShape replaces the clip shape and drops cached coverage.
func (c *ClipMask) SetShape(s Shape) {
	c.shape = s
	c.cached = nil
}

// Coverage returns the binary coverage for a width x height canvas with
// Inverted applied. A nil mask, a disabled mask or a mask without a shape
// returns nil, meaning everything is visible.
func (c *ClipMask) Coverage(width, height int) []byte {
	if c == nil || !c.Enabled || c.shape == nil {
		return nil
	}
	if c.cached != nil && c.cachedW == width && c.cachedH == height && c.cachedIn == c.Inverted {
		return c.cached
	}
	cov := c.shape.Coverage(width, height)
	if len(cov) != width*height {
		strata.Logger().Warn("mask: clip shape returned wrong coverage size",
			"got", len(cov), "want", width*height)
		cov = make([]byte, width*height)
	}
	if c.Inverted {
		inv := make([]byte, len(cov))
		for i, v := range cov {
			inv[i] = 255 - v
		}
		cov = inv
	}
	c.cached, c.cachedW, c.cachedH, c.cachedIn = cov, width, height, c.Inverted
	return cov
}

// Invalidate drops cached coverage.
func (c *ClipMask) Invalidate() {
	if c != nil {
		c.cached = nil
	}
}

// Clone returns a copy of c sharing the immutable shape value.
func (c *ClipMask) Clone() *ClipMask {
	if c == nil {
		return nil
	}
	return &ClipMask{shape: c.shape, Enabled: c.Enabled, Inverted: c.Inverted}
}

// Intersect combines clip coverage with layer-mask visibility so that a
// pixel is visible only where both allow it. Either argument may be nil.
func Intersect(clip, visibility []byte) []byte {
	switch {
	case clip == nil:
		return visibility
	case visibility == nil:
		return clip
	}
	out := make([]byte, len(clip))
	for i := range out {
		out[i] = byte((uint16(clip[i])*uint16(visibility[i]) + 127) / 255)
	}
	return out
}

func multiplyAlpha(s *strata.Surface, alpha []byte) error {
	return blend.MultiplyAlpha(s, alpha)
}

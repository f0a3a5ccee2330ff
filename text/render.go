package text

import (
	"fmt"

	"github.com/gogpu/strata"
	"github.com/gogpu/strata/internal/blend"
)

// Params describe one line of text to draw.
type Params struct {
	Text   string
	Size   float64
	Color  strata.RGBA
	Origin strata.Point // baseline start
}

// Render draws p onto dst with antialiasing and the normal operator.
func Render(dst *strata.Surface, f *Font, p Params) error {
	if f == nil {
		return ErrNoFont
	}
	if dst == nil {
		return fmt.Errorf("text: render: nil surface")
	}
	if p.Text == "" || p.Size <= 0 {
		return nil
	}
	path, err := f.Outline(p.Text, p.Size, p.Origin)
	if err != nil {
		return err
	}
	if len(path.Segments) == 0 {
		return nil
	}
	alpha := path.Alpha(dst.Width(), dst.Height())

	c := p.Color
	if c.IsZero() {
		c = strata.Black
	}
	cr, cg, cb, ca := c.Premul()
	d := dst.Data()
	for i, a := range alpha {
		if a == 0 {
			continue
		}
		j := i * 4
		sr, sg, sb, sa := scale(cr, a), scale(cg, a), scale(cb, a), scale(ca, a)
		d[j], d[j+1], d[j+2], d[j+3] = blend.SourceOver(sr, sg, sb, sa, d[j], d[j+1], d[j+2], d[j+3])
	}
	return nil
}

func scale(v, a byte) byte { return byte((uint16(v)*uint16(a) + 127) / 255) }

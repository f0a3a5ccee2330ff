package text

import (
	"github.com/go-text/typesetting/di"
	gotext "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/text/unicode/bidi"
)

// Glyph is one positioned glyph. X and Y are pen offsets from the text
// origin in pixels.
type Glyph struct {
	ID      gotext.GID
	Cluster int // rune index into the source text
	X, Y    float64
	Advance float64
}

// Run is a maximal span of one direction.
type Run struct {
	Start, End int // rune indices, End exclusive
	RTL        bool
}

// Runs splits s into directional runs for a left-to-right paragraph.
// Neutral characters join the run before them; a leading neutral joins
// the first strong run.
func Runs(s string) []Run {
	runes := []rune(s)
	if len(runes) == 0 {
		return nil
	}
	var runs []Run
	cur := Run{RTL: firstStrongRTL(runes)}
	for i, r := range runes {
		rtl, strong := direction(r)
		if strong && rtl != cur.RTL {
			if i > cur.Start {
				cur.End = i
				runs = append(runs, cur)
			}
			cur = Run{Start: i, RTL: rtl}
		}
	}
	cur.End = len(runes)
	return append(runs, cur)
}

func direction(r rune) (rtl, strong bool) {
	props, _ := bidi.LookupRune(r)
	switch props.Class() {
	case bidi.R, bidi.AL:
		return true, true
	case bidi.L:
		return false, true
	}
	return false, false
}

func firstStrongRTL(runes []rune) bool {
	for _, r := range runes {
		if rtl, strong := direction(r); strong {
			return rtl
		}
	}
	return false
}

// Shape lays s out on a single line at size pixels per em.
func (f *Font) Shape(s string, size float64) []Glyph {
	runes := []rune(s)
	if len(runes) == 0 || size <= 0 {
		return nil
	}
	face := gotext.NewFace(f.shaping)
	var hb shaping.HarfbuzzShaper

	var out []Glyph
	var pen float64
	for _, run := range Runs(s) {
		dir := di.DirectionLTR
		if run.RTL {
			dir = di.DirectionRTL
		}
		output := hb.Shape(shaping.Input{
			Text:      runes,
			RunStart:  run.Start,
			RunEnd:    run.End,
			Direction: dir,
			Face:      face,
			Size:      toFixed(size),
			Script:    script(runes[run.Start:run.End]),
			Language:  language.NewLanguage("en"),
		})
		for _, g := range output.Glyphs {
			adv := fromFixed(g.Advance)
			out = append(out, Glyph{
				ID:      g.GlyphID,
				Cluster: g.TextIndex(),
				X:       pen + fromFixed(g.XOffset),
				Y:       -fromFixed(g.YOffset),
				Advance: adv,
			})
			pen += adv
		}
	}
	return out
}

// Width returns the advance width of s at size.
func (f *Font) Width(s string, size float64) float64 {
	var w float64
	for _, g := range f.Shape(s, size) {
		w += g.Advance
	}
	return w
}

// script returns the script of the first non-space rune.
func script(runes []rune) language.Script {
	for _, r := range runes {
		switch r {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

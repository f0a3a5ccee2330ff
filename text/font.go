// Package text renders text layers and produces text-outline clip shapes.
//
// Text is split into bidi runs, each run is shaped with HarfBuzz through
// go-text/typesetting, and glyph outlines come from x/image/font/sfnt.
// Outline coordinates are in pixels with the Y axis pointing down and
// the origin on the baseline.
package text

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	gotext "github.com/go-text/typesetting/font"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/strata/internal/cache"
)

// ErrNoFont is returned when an operation needs a font and none is given.
var ErrNoFont = errors.New("text: no font")

// outlineCacheSize is the soft limit of cached glyph outlines per font.
const outlineCacheSize = 1024

// Font is a parsed TrueType or OpenType font. It holds a go-text font for
// shaping and an sfnt font for outlines.
//
// A Font is safe for concurrent use.
type Font struct {
	shaping *gotext.Font
	outline *sfnt.Font

	mu       sync.Mutex // guards buf
	buf      sfnt.Buffer
	outlines *cache.Cache[glyphKey, []segment]
}

type glyphKey struct {
	gid  sfnt.GlyphIndex
	ppem fixed.Int26_6
}

// Parse parses font data.
func Parse(data []byte) (*Font, error) {
	face, err := gotext.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("text: parse font: %w", err)
	}
	sf, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("text: parse outlines: %w", err)
	}
	return &Font{
		shaping:  face.Font,
		outline:  sf,
		outlines: cache.New[glyphKey, []segment](outlineCacheSize),
	}, nil
}

var (
	defaultOnce sync.Once
	defaultFont *Font
	defaultErr  error
)

// Default returns the embedded Go Regular font.
func Default() (*Font, error) {
	defaultOnce.Do(func() {
		defaultFont, defaultErr = Parse(goregular.TTF)
	})
	return defaultFont, defaultErr
}

// Name returns the font's full name, if it has one.
func (f *Font) Name() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	name, err := f.outline.Name(&f.buf, sfnt.NameIDFull)
	if err != nil {
		return ""
	}
	return name
}

// Metrics are vertical font metrics in pixels.
type Metrics struct {
	Ascent     float64
	Descent    float64
	LineHeight float64
}

// Metrics returns the font's vertical metrics at size pixels per em.
func (f *Font) Metrics(size float64) (Metrics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, err := f.outline.Metrics(&f.buf, toFixed(size), font.HintingNone)
	if err != nil {
		return Metrics{}, fmt.Errorf("text: metrics: %w", err)
	}
	return Metrics{
		Ascent:     fromFixed(m.Ascent),
		Descent:    fromFixed(m.Descent),
		LineHeight: fromFixed(m.Height),
	}, nil
}

// CachedOutlines returns the number of glyph outlines held in the cache.
func (f *Font) CachedOutlines() int { return f.outlines.Len() }

func toFixed(v float64) fixed.Int26_6 { return fixed.Int26_6(v * 64) }

func fromFixed(v fixed.Int26_6) float64 { return float64(v) / 64 }

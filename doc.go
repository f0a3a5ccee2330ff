// Package strata is a layered raster editing core.
//
// # Overview
//
// strata keeps a stack of independently editable 2D surfaces (layers) and
// combines them into one premultiplied RGBA bitmap that an external
// consumer, typically a 3D renderer, uploads as a texture. Every freehand
// paint gesture gets its own layer, which stays selectable and movable
// after the gesture ends.
//
// # Quick Start
//
//	import "github.com/gogpu/strata/editor"
//
//	ed, err := editor.New(strata.NewConfig(strata.WithCanvasSize(512, 512)))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ed.PointerDown(strata.Pt(10, 10))
//	ed.PointerMove(strata.Pt(60, 40))
//	ed.PointerUp(strata.Pt(60, 40))
//	out := ed.Compose()
//
// # Architecture
//
// The root package holds the shared vocabulary: Surface, Pool, RGBA,
// BlendMode, geometry and Config. Sub-packages build on it:
//   - layer: layer and group entities and the Store that owns them
//   - mask, effect: per-layer pipeline stages
//   - compose: the composition engine and its throttled scheduler
//   - history: snapshot undo/redo
//   - brush, stroke: stamping and the one-gesture-one-layer session
//   - selection: hit testing and move/resize/rotate of finished strokes
//   - text: text layers and text-outline clip shapes
//   - tool, editor: input dispatch and wiring
//
// # Coordinate System
//
// Origin (0,0) at top-left, X increases right, Y increases down. Angles are
// in radians.
//
// # Pixels
//
// Surfaces store premultiplied RGBA8. Strokes are always painted with the
// normal operator; a layer's blend mode is applied only when the layer is
// composited.
package strata

// Version is the current version of the library.
const Version = "0.1.0"

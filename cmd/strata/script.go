package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/strata"
	"github.com/gogpu/strata/brush"
	"github.com/gogpu/strata/editor"
	"github.com/gogpu/strata/layer"
	"github.com/gogpu/strata/tool"
)

// Script is a list of editor steps.
//
//	steps:
//	  - brush: {size: 8, color: "#ff0000"}
//	  - stroke: [[10, 10], [60, 10]]
//	  - tool: select
//	  - drag: [[30, 10], [30, 40]]
//	  - layer: {blend: multiply, opacity: 0.5}
//	  - undo: 1
type Script struct {
	Steps []Step `yaml:"steps"`
}

// Step is one action. Exactly one field is set.
type Step struct {
	Tool   string       `yaml:"tool,omitempty"`
	Brush  *BrushStep   `yaml:"brush,omitempty"`
	Stroke [][2]float64 `yaml:"stroke,omitempty"`
	Drag   [][2]float64 `yaml:"drag,omitempty"`
	Click  *[2]float64  `yaml:"click,omitempty"`
	Text   *TextStep    `yaml:"text,omitempty"`
	Key    string       `yaml:"key,omitempty"`
	Layer  *LayerStep   `yaml:"layer,omitempty"`
	Image  *ImageStep   `yaml:"image,omitempty"`
	Undo   int          `yaml:"undo,omitempty"`
	Redo   int          `yaml:"redo,omitempty"`
}

// BrushStep changes the brush for following strokes.
type BrushStep struct {
	Size     float64     `yaml:"size"`
	Color    strata.RGBA `yaml:"color"`
	Opacity  float64     `yaml:"opacity"`
	Spacing  float64     `yaml:"spacing"`
	Hardness float64     `yaml:"hardness"`
}

// apply overrides the fields of s that b sets.
func (b *BrushStep) apply(s brush.Settings) brush.Settings {
	if b.Size != 0 {
		s.Size = b.Size
	}
	if !b.Color.IsZero() {
		s.Color = b.Color
	}
	if b.Opacity != 0 {
		s.Opacity = b.Opacity
	}
	if b.Spacing != 0 {
		s.Spacing = b.Spacing
	}
	if b.Hardness != 0 {
		s.Hardness = b.Hardness
	}
	return s
}

// TextStep places a text layer.
type TextStep struct {
	Value string      `yaml:"value"`
	At    [2]float64  `yaml:"at"`
	Size  float64     `yaml:"size"`
	Color strata.RGBA `yaml:"color"`
}

// LayerStep changes properties of the active layer.
type LayerStep struct {
	Name    *string           `yaml:"name"`
	Visible *bool             `yaml:"visible"`
	Opacity *float64          `yaml:"opacity"`
	Blend   *strata.BlendMode `yaml:"blend"`
}

// ImageStep loads an image file onto a new layer.
type ImageStep struct {
	Path string `yaml:"path"`
	Name string `yaml:"name"`
}

var keys = map[string]tool.Key{
	"escape": tool.KeyEscape,
	"delete": tool.KeyDelete,
	"left":   tool.KeyLeft,
	"right":  tool.KeyRight,
	"up":     tool.KeyUp,
	"down":   tool.KeyDown,
}

// LoadScript reads a YAML script.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script %s: %w", path, err)
	}
	return ParseScript(data)
}

// ParseScript decodes a YAML script.
func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	return &s, nil
}

// Replay runs every step against ed. Relative image paths resolve
// against dir.
func (s *Script) Replay(ed *editor.Editor, dir string) error {
	for i, st := range s.Steps {
		if err := st.run(ed, dir); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}

func (st Step) run(ed *editor.Editor, dir string) error {
	switch {
	case st.Tool != "":
		k, ok := tool.ParseKind(st.Tool)
		if !ok {
			return fmt.Errorf("%w: %q", tool.ErrUnknownTool, st.Tool)
		}
		return ed.Tools.Use(k)
	case st.Brush != nil:
		ed.Strokes.SetSettings(st.Brush.apply(ed.Strokes.Settings()))
	case st.Stroke != nil:
		if err := ed.Tools.Use(tool.KindBrush); err != nil {
			return err
		}
		return gesture(ed, st.Stroke)
	case st.Drag != nil:
		return gesture(ed, st.Drag)
	case st.Click != nil:
		return gesture(ed, [][2]float64{*st.Click})
	case st.Text != nil:
		t := st.Text
		ed.Text.Value, ed.Text.Size, ed.Text.Color = t.Value, t.Size, t.Color
		if ed.Text.Color.IsZero() {
			ed.Text.Color = strata.Black
		}
		_, err := ed.Text.Place(pt(t.At))
		return err
	case st.Key != "":
		k, ok := keys[st.Key]
		if !ok {
			return fmt.Errorf("unknown key %q", st.Key)
		}
		return ed.Tools.Key(k)
	case st.Layer != nil:
		return setLayer(ed, st.Layer)
	case st.Image != nil:
		path := st.Image.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		img, err := imaging.Open(path)
		if err != nil {
			return err
		}
		_, err = ed.AddImage(img, st.Image.Name)
		return err
	case st.Undo > 0:
		for range st.Undo {
			ed.Undo()
		}
	case st.Redo > 0:
		for range st.Redo {
			ed.Redo()
		}
	default:
		return fmt.Errorf("empty step")
	}
	return nil
}

func gesture(ed *editor.Editor, pts [][2]float64) error {
	if len(pts) == 0 {
		return fmt.Errorf("gesture without points")
	}
	if err := ed.Tools.PointerDown(pt(pts[0])); err != nil {
		return err
	}
	for _, p := range pts[1:] {
		if err := ed.Tools.PointerMove(pt(p)); err != nil {
			return err
		}
	}
	return ed.Tools.PointerUp(pt(pts[len(pts)-1]))
}

func setLayer(ed *editor.Editor, ls *LayerStep) error {
	id := ed.Store.ActiveLayer()
	if id == "" {
		return fmt.Errorf("layer step: %w", strata.ErrUnknownLayer)
	}
	snap, err := ed.History.Snapshot("properties")
	if err != nil {
		strata.Logger().Warn("layer step without undo", "err", err)
	}
	err = ed.Store.SetProperty(id, layer.Patch{
		Name: ls.Name, Visible: ls.Visible, Opacity: ls.Opacity, BlendMode: ls.Blend,
	})
	if err != nil {
		if snap != "" {
			ed.History.Discard()
		}
		return err
	}
	ed.Scheduler.Request()
	return nil
}

func pt(p [2]float64) strata.Point { return strata.Pt(p[0], p[1]) }

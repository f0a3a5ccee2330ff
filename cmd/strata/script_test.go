package main

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/strata"
	"github.com/gogpu/strata/editor"
	"github.com/gogpu/strata/layer"
	"github.com/gogpu/strata/tool"
)

const sample = `
steps:
  - brush: {size: 6, color: "#ff0000"}
  - stroke: [[10, 10], [30, 10]]
  - layer: {blend: multiply, opacity: 0.5}
  - stroke: [[10, 30], [30, 30]]
  - tool: select
  - drag: [[20, 30], [20, 40]]
  - key: escape
  - text: {value: "Hi", at: [40, 40], size: 16}
`

func newEditor(t *testing.T) *editor.Editor {
	t.Helper()
	ed, err := editor.New(strata.NewConfig(strata.WithCanvasSize(64, 48)))
	require.NoError(t, err)
	return ed
}

func TestReplay(t *testing.T) {
	sc, err := ParseScript([]byte(sample))
	require.NoError(t, err)
	require.Len(t, sc.Steps, 8)

	ed := newEditor(t)
	require.NoError(t, sc.Replay(ed, "."))

	layers := ed.Store.Layers()
	require.Len(t, layers, 3)
	assert.Equal(t, strata.BlendMultiply, layers[0].BlendMode)
	assert.Equal(t, 0.5, layers[0].Opacity)
	assert.Equal(t, strata.Hex("#ff0000"), layers[0].Stroke.Settings.Color)
	assert.Equal(t, 6.0, layers[0].Stroke.Settings.Size)
	assert.Equal(t, strata.Pt(10, 40), layers[1].Stroke.Points[0])
	assert.Equal(t, layer.TypeText, layers[2].Type)
	assert.Equal(t, tool.KindSelect, ed.Tools.Active())
	assert.Empty(t, ed.Selection.Selected())
}

func TestReplayUndoRedo(t *testing.T) {
	sc, err := ParseScript([]byte(`
steps:
  - stroke: [[5, 5], [20, 5]]
  - stroke: [[5, 20], [20, 20]]
  - undo: 2
  - redo: 1
`))
	require.NoError(t, err)
	ed := newEditor(t)
	require.NoError(t, sc.Replay(ed, "."))
	assert.Equal(t, 1, ed.Store.Len())
	assert.True(t, ed.History.CanRedo())
}

func TestReplayErrors(t *testing.T) {
	tests := []string{
		"steps: [{tool: lasso}]",
		"steps: [{key: f1}]",
		"steps: [{}]",
		"steps: [{layer: {opacity: 0.5}}]",
		"steps: [{image: {path: missing.png}}]",
	}
	for _, src := range tests {
		sc, err := ParseScript([]byte(src))
		require.NoError(t, err, src)
		assert.Error(t, sc.Replay(newEditor(t), t.TempDir()), src)
	}

	_, err := ParseScript([]byte("steps: [{layer: {blend: bogus}}]"))
	assert.Error(t, err)
}

func TestRunWritesPNG(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "editor.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("width = 32\nheight = 16\nbackground = \"#ffffff\"\n"), 0o600))
	scriptPath := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(scriptPath, []byte("steps:\n  - stroke: [[4, 8], [28, 8]]\n"), 0o600))
	out := filepath.Join(dir, "out.png")

	require.NoError(t, run(cfgPath, scriptPath, out))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())
	assert.Equal(t, 16, img.Bounds().Dy())
	r, g, b, _ := img.At(16, 8).RGBA()
	assert.Zero(t, r+g+b, "black stroke")
	r, _, _, _ = img.At(16, 1).RGBA()
	assert.Equal(t, uint32(0xffff), r, "white background")
}

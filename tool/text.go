package tool

import (
	"fmt"

	"github.com/gogpu/strata"
	"github.com/gogpu/strata/layer"
	"github.com/gogpu/strata/text"
)

// DefaultTextSize is the text size in pixels used when none is set.
const DefaultTextSize = 24

// Text places a text layer at the clicked point.
type Text struct {
	store   *layer.Store
	font    *text.Font
	history History

	// Content of the next text layer.
	Value string
	Size  float64
	Color strata.RGBA

	onChange func()
}

// NewText returns the text tool. h and onChange may be nil.
func NewText(store *layer.Store, f *text.Font, h History, onChange func()) *Text {
	return &Text{
		store:    store,
		font:     f,
		history:  h,
		Value:    "Text",
		Size:     DefaultTextSize,
		Color:    strata.Black,
		onChange: onChange,
	}
}

// Kind implements Tool.
func (*Text) Kind() Kind { return KindText }

// PointerDown implements Tool. It creates a text layer with its baseline
// starting at p.
func (t *Text) PointerDown(p strata.Point) error {
	_, err := t.Place(p)
	return err
}

// Place creates the text layer and returns its id.
func (t *Text) Place(p strata.Point) (string, error) {
	if t.font == nil {
		return "", text.ErrNoFont
	}
	if t.Value == "" {
		return "", nil
	}
	snapshotted := false
	if t.history != nil {
		if _, err := t.history.Snapshot("text"); err == nil {
			snapshotted = true
		}
	}
	id, err := t.place(p)
	if err != nil {
		if snapshotted {
			t.history.Discard()
		}
		strata.Logger().Warn("tool: text skipped", "err", err)
		return "", err
	}
	if t.onChange != nil {
		t.onChange()
	}
	return id, nil
}

func (t *Text) place(p strata.Point) (string, error) {
	size := t.Size
	if size <= 0 {
		size = DefaultTextSize
	}
	id, err := t.store.CreateLayer(layer.TypeText, "")
	if err != nil {
		return "", fmt.Errorf("tool: text: %w", err)
	}
	data := &layer.TextData{Text: t.Value, Size: size, Color: t.Color, Origin: p}
	l, _ := t.store.Layer(id)
	err = text.Render(l.Content, t.font, text.Params{Text: data.Text, Size: data.Size, Color: data.Color, Origin: data.Origin})
	if err == nil {
		err = t.store.SetTextData(id, data)
	}
	if err != nil {
		_ = t.store.DeleteLayer(id)
		return "", fmt.Errorf("tool: text: %w", err)
	}
	_ = t.store.SetActiveLayer(id)
	t.store.Touch(id)
	return id, nil
}

// PointerMove implements Tool.
func (*Text) PointerMove(strata.Point) error { return nil }

// PointerUp implements Tool.
func (*Text) PointerUp(strata.Point) error { return nil }

// Key implements Tool.
func (*Text) Key(Key) error { return nil }

// Cancel implements Tool.
func (*Text) Cancel() {}

// Package editor assembles a complete layer editor from a Config: the
// surface pool, layer store, undo history, composition engine with its
// throttled scheduler, stroke sessions, selection and the tool
// dispatcher.
package editor

import (
	"fmt"
	"image"
	"time"

	"github.com/gogpu/strata"
	"github.com/gogpu/strata/brush"
	"github.com/gogpu/strata/compose"
	"github.com/gogpu/strata/history"
	"github.com/gogpu/strata/internal/idgen"
	"github.com/gogpu/strata/layer"
	"github.com/gogpu/strata/selection"
	"github.com/gogpu/strata/stroke"
	"github.com/gogpu/strata/text"
	"github.com/gogpu/strata/tool"
)

// Editor owns every component of one canvas. Components are exported for
// read access; mutate them only through their own methods.
type Editor struct {
	Config    *strata.Config
	Pool      *strata.Pool
	Store     *layer.Store
	History   *history.Manager
	Engine    *compose.Engine
	Scheduler *compose.Scheduler
	Strokes   *stroke.Manager
	Selection *selection.Manager
	Text      *tool.Text
	Tools     *tool.Dispatcher

	onFrame []func(*strata.Surface)
}

type options struct {
	renderer brush.StampRenderer
	font     *text.Font
	ids      idgen.Generator
	clock    func() time.Time
	onFrame  []func(*strata.Surface)
}

// Option configures New.
type Option func(*options)

// WithRenderer replaces the default round brush.
func WithRenderer(r brush.StampRenderer) Option {
	return func(o *options) { o.renderer = r }
}

// WithFont sets the font of the text tool. The embedded Go font is used
// otherwise.
func WithFont(f *text.Font) Option {
	return func(o *options) { o.font = f }
}

// WithIDGenerator sets the generator for layer, group and snapshot ids.
func WithIDGenerator(g idgen.Generator) Option {
	return func(o *options) { o.ids = g }
}

// WithClock sets the time source for stroke timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.clock = now }
}

// OnFrame registers fn to receive every new composite. The surface is
// only valid until the next composite.
func OnFrame(fn func(*strata.Surface)) Option {
	return func(o *options) { o.onFrame = append(o.onFrame, fn) }
}

// New builds an editor. A nil cfg selects strata.DefaultConfig.
func New(cfg *strata.Config, opts ...Option) (*Editor, error) {
	if cfg == nil {
		cfg = strata.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{renderer: brush.NewRoundBrush()}
	for _, opt := range opts {
		opt(&o)
	}

	e := &Editor{
		Config:  cfg,
		Pool:    strata.NewPool(cfg.PoolBucketSize, cfg.SurfaceBudget),
		onFrame: o.onFrame,
	}

	storeOpts := []layer.StoreOption{layer.WithPool(e.Pool)}
	historyOpts := []history.Option{
		history.WithDepth(cfg.HistoryDepth),
		history.OnRestore(e.restored),
	}
	strokeOpts := []stroke.Option{stroke.WithSettings(brush.FromConfig(cfg.Brush))}
	if o.ids != nil {
		storeOpts = append(storeOpts, layer.WithIDGenerator(o.ids))
		historyOpts = append(historyOpts, history.WithIDGenerator(o.ids))
		strokeOpts = append(strokeOpts, stroke.WithIDGenerator(o.ids))
	}
	if o.clock != nil {
		strokeOpts = append(strokeOpts, stroke.WithClock(o.clock))
	}

	store, err := layer.NewStore(cfg.Width, cfg.Height, storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("editor: %w", err)
	}
	e.Store = store
	e.History = history.New(store, historyOpts...)
	e.Engine = compose.New(store, compose.WithBackground(cfg.Background))
	e.Scheduler = compose.NewScheduler(e.Engine, cfg.ComposeInterval(), e.frame)

	request := func() { e.Scheduler.Request() }
	strokeOpts = append(strokeOpts, stroke.WithHistory(e.History), stroke.OnChange(request))
	e.Strokes = stroke.New(store, o.renderer, strokeOpts...)
	e.Selection = selection.New(store, o.renderer,
		selection.WithHistory(e.History),
		selection.WithOverlayHost(e.Engine),
		selection.WithScheduler(e.Scheduler),
		selection.WithStyle(selection.StyleFromConfig(cfg.Selection)),
		selection.OnChange(request),
	)

	font := o.font
	if font == nil {
		if font, err = text.Default(); err != nil {
			strata.Logger().Warn("editor: no default font, text tool disabled", "err", err)
		}
	}
	e.Text = tool.NewText(store, font, e.History, request)

	registry := tool.NewRegistry(tool.NewBrush(e.Strokes), tool.NewSelect(e.Selection), e.Text)
	if e.Tools, err = tool.NewDispatcher(registry, tool.KindBrush, e.Scheduler); err != nil {
		return nil, fmt.Errorf("editor: %w", err)
	}
	strata.Logger().Debug("editor: ready", "width", cfg.Width, "height", cfg.Height)
	return e, nil
}

// restored runs after undo or redo replaced the store contents.
func (e *Editor) restored(label string) {
	e.Selection.Sync()
	e.Scheduler.Request()
	strata.Logger().Debug("editor: restored", "label", label)
}

func (e *Editor) frame(s *strata.Surface) {
	for _, fn := range e.onFrame {
		fn(s)
	}
}

// Undo interrupts the active gesture and restores the previous snapshot.
func (e *Editor) Undo() bool {
	e.Tools.Tool().Cancel()
	return e.History.Undo()
}

// Redo interrupts the active gesture and reapplies the next snapshot.
func (e *Editor) Redo() bool {
	e.Tools.Tool().Cancel()
	return e.History.Redo()
}

// Tick drives throttled recomposition from the event loop.
func (e *Editor) Tick(now time.Time) bool { return e.Scheduler.Poll(now) }

// Composite composes immediately and returns the result, or nil if the
// output surface could not be allocated.
func (e *Editor) Composite() *strata.Surface { return e.Scheduler.Flush() }

// AddImage places img, scaled to fit and centered, on a new image layer.
func (e *Editor) AddImage(img image.Image, name string) (string, error) {
	snap, err := e.History.Snapshot("image")
	if err != nil {
		strata.Logger().Warn("editor: image without undo", "err", err)
	}
	id, err := e.Store.CreateImageLayer(img, name)
	if err != nil {
		if snap != "" {
			e.History.Discard()
		}
		return "", err
	}
	e.Scheduler.Request()
	return id, nil
}

// Package texture hands composites to a GPU texture consumer.
//
// A Bridge receives each new composite from the compose scheduler,
// keeps a private copy, and uploads it through gpucontext when the
// consumer draws:
//
//	b, _ := texture.New(provider, cfg.Width, cfg.Height)
//	ed, _ := editor.New(cfg, editor.OnFrame(b.Frame))
//
//	app.OnDraw(func(dc *gogpu.Context) {
//	    ed.Tick(time.Now())
//	    b.RenderTo(dc.AsTextureDrawer(), 0, 0)
//	})
//
// The texture is created lazily on the first upload, updated in place
// while the composite size is stable, and recreated when it changes.
// Uploads only happen when a new composite arrived, so the consumer
// always sees a complete frame.
package texture

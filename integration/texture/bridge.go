package texture

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/strata"
)

var (
	// ErrClosed is returned when a closed Bridge is used.
	ErrClosed = errors.New("texture: bridge is closed")

	// ErrNilProvider is returned when New gets a nil DeviceProvider.
	ErrNilProvider = errors.New("texture: nil DeviceProvider")

	// ErrNoCreator is returned when the draw context cannot create
	// textures.
	ErrNoCreator = errors.New("texture: draw context has no TextureCreator")
)

// Format is the pixel layout of uploaded data: premultiplied RGBA8.
const Format = gputypes.TextureFormatRGBA8Unorm

type destroyer interface {
	Destroy()
}

// Stats counts texture activity.
type Stats struct {
	Frames  int // composites received
	Creates int
	Uploads int // in-place updates
}

// Bridge is not safe for concurrent use; drive it from the event loop
// that runs the compose scheduler.
type Bridge struct {
	provider gpucontext.DeviceProvider
	width    int
	height   int

	data        []byte
	dirty       bool
	sizeChanged bool

	texture any // gpucontext.Texture once created
	old     any // awaiting destruction after recreate

	stats  Stats
	closed bool
}

// New returns a Bridge for composites of width x height.
func New(provider gpucontext.DeviceProvider, width, height int) (*Bridge, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", strata.ErrInvalidDimensions, width, height)
	}
	if f := provider.SurfaceFormat(); f != gputypes.TextureFormatUndefined && f != Format {
		strata.Logger().Debug("texture: surface format differs from upload format", "surface", f, "upload", Format)
	}
	return &Bridge{provider: provider, width: width, height: height}, nil
}

// Size returns the current texture dimensions.
func (b *Bridge) Size() (width, height int) { return b.width, b.height }

// IsDirty reports whether a received composite has not been uploaded.
func (b *Bridge) IsDirty() bool { return b.dirty }

// Texture returns the current texture, or nil before the first upload.
func (b *Bridge) Texture() any { return b.texture }

// Stats returns the activity counters.
func (b *Bridge) Stats() Stats { return b.stats }

// Provider returns the device provider, or nil once closed.
func (b *Bridge) Provider() gpucontext.DeviceProvider {
	if b.closed {
		return nil
	}
	return b.provider
}

// Frame receives a new composite. The pixels are copied, since the
// composite surface is recycled by the next pass. It matches the
// scheduler's frame callback.
func (b *Bridge) Frame(s *strata.Surface) {
	if b.closed || s == nil {
		return
	}
	if s.Width() != b.width || s.Height() != b.height {
		b.width, b.height = s.Width(), s.Height()
		b.sizeChanged = true
		b.data = nil
	}
	b.data = append(b.data[:0], s.Data()...)
	b.dirty = true
	b.stats.Frames++
}

// Upload makes the texture current with the newest composite. It
// returns nil and no error when no composite was received yet.
func (b *Bridge) Upload(creator gpucontext.TextureCreator) (any, error) {
	if b.closed {
		return nil, ErrClosed
	}
	if b.sizeChanged {
		if b.texture != nil {
			destroy(b.old)
			b.old, b.texture = b.texture, nil
		}
		b.sizeChanged = false
	}
	if b.data == nil {
		return b.texture, nil
	}
	if b.texture != nil && !b.dirty {
		return b.texture, nil
	}

	if b.texture == nil {
		if creator == nil {
			return nil, ErrNoCreator
		}
		tex, err := creator.NewTextureFromRGBA(b.width, b.height, b.data)
		if err != nil {
			return nil, fmt.Errorf("texture: create %dx%d: %w", b.width, b.height, err)
		}
		if pt, ok := tex.(interface{ SetPremultiplied(bool) }); ok {
			pt.SetPremultiplied(true)
		}
		b.texture = tex
		// Creation waits for the GPU, so the replaced texture is idle now.
		destroy(b.old)
		b.old = nil
		b.stats.Creates++
		b.dirty = false
		return tex, nil
	}

	if u, ok := b.texture.(gpucontext.TextureUpdater); ok {
		if err := u.UpdateData(b.data); err != nil {
			return nil, fmt.Errorf("texture: update: %w", err)
		}
		b.stats.Uploads++
	}
	b.dirty = false
	return b.texture, nil
}

// RenderTo uploads if needed and draws the texture at (x, y).
func (b *Bridge) RenderTo(dc gpucontext.TextureDrawer, x, y float32) error {
	if b.closed {
		return ErrClosed
	}
	tex, err := b.Upload(dc.TextureCreator())
	if err != nil {
		return err
	}
	if tex == nil {
		return nil
	}
	gt, ok := tex.(gpucontext.Texture)
	if !ok {
		return fmt.Errorf("texture: %T is not a gpucontext.Texture", tex)
	}
	return dc.DrawTexture(gt, x, y)
}

// Close destroys the textures. It is idempotent.
func (b *Bridge) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	destroy(b.old)
	destroy(b.texture)
	b.old, b.texture = nil, nil
	b.data = nil
	b.provider = nil
	return nil
}

func destroy(t any) {
	if d, ok := t.(destroyer); ok {
		d.Destroy()
	}
}

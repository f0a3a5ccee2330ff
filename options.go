package strata

import "time"

// Option adjusts a Config.
//
// Example:
//
//	cfg := strata.NewConfig(
//	    strata.WithCanvasSize(2048, 2048),
//	    strata.WithHistoryDepth(100),
//	)
type Option func(*Config)

// NewConfig returns DefaultConfig with opts applied in order.
func NewConfig(opts ...Option) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Apply applies opts to c.
func (c *Config) Apply(opts ...Option) *Config {
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithCanvasSize sets the canvas dimensions.
func WithCanvasSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithBackground sets the color painted under the first layer.
func WithBackground(bg RGBA) Option {
	return func(c *Config) {
		c.Background = bg
	}
}

// WithHistoryDepth sets the maximum number of undo snapshots.
func WithHistoryDepth(depth int) Option {
	return func(c *Config) {
		c.HistoryDepth = depth
	}
}

// WithComposeInterval sets the minimum time between composite passes.
func WithComposeInterval(d time.Duration) Option {
	return func(c *Config) {
		c.ComposeIntervalMS = int(d / time.Millisecond)
	}
}

// WithSurfaceBudget bounds surface memory in bytes. 0 means unlimited.
func WithSurfaceBudget(bytes int64) Option {
	return func(c *Config) {
		c.SurfaceBudget = bytes
	}
}

// WithPoolBucketSize sets how many released surfaces are kept per size.
func WithPoolBucketSize(n int) Option {
	return func(c *Config) {
		c.PoolBucketSize = n
	}
}

// WithBrush sets the default brush.
func WithBrush(b BrushConfig) Option {
	return func(c *Config) {
		c.Brush = b
	}
}

package strata

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds the editor configuration.
type Config struct {
	// Canvas size in pixels. Every layer surface and the composite share it.
	Width  int `toml:"width" yaml:"width"`
	Height int `toml:"height" yaml:"height"`

	// Background is painted under the first layer. Zero means transparent.
	Background RGBA `toml:"background" yaml:"background"`

	// PoolBucketSize bounds the surfaces retained per dimension.
	PoolBucketSize int `toml:"pool_bucket_size" yaml:"pool_bucket_size"`
	// SurfaceBudget bounds surface memory in bytes. 0 means unlimited.
	SurfaceBudget int64 `toml:"surface_budget" yaml:"surface_budget"`

	// HistoryDepth is the maximum number of undo snapshots.
	HistoryDepth int `toml:"history_depth" yaml:"history_depth"`

	// ComposeIntervalMS caps recomposition to once per interval.
	ComposeIntervalMS int `toml:"compose_interval_ms" yaml:"compose_interval_ms"`

	Brush     BrushConfig     `toml:"brush" yaml:"brush"`
	Selection SelectionConfig `toml:"selection" yaml:"selection"`
}

// BrushConfig holds the default brush settings.
type BrushConfig struct {
	Size     float64 `toml:"size" yaml:"size"`
	Color    RGBA    `toml:"color" yaml:"color"`
	Opacity  float64 `toml:"opacity" yaml:"opacity"`
	Spacing  float64 `toml:"spacing" yaml:"spacing"`
	Hardness float64 `toml:"hardness" yaml:"hardness"`
}

// SelectionConfig styles the selection outline overlay.
type SelectionConfig struct {
	OutlineColor RGBA    `toml:"outline_color" yaml:"outline_color"`
	OutlineWidth float64 `toml:"outline_width" yaml:"outline_width"`
	HandleSize   float64 `toml:"handle_size" yaml:"handle_size"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Width:             1024,
		Height:            1024,
		PoolBucketSize:    DefaultPoolBucketSize,
		HistoryDepth:      50,
		ComposeIntervalMS: 16,
		Brush: BrushConfig{
			Size:     10,
			Color:    Black,
			Opacity:  1,
			Spacing:  0.25,
			Hardness: 1,
		},
		Selection: SelectionConfig{
			OutlineColor: Hex("#1e90ff"),
			OutlineWidth: 1,
			HandleSize:   8,
		},
	}
}

// ComposeInterval returns the recomposition interval as a duration.
func (c *Config) ComposeInterval() time.Duration {
	return time.Duration(c.ComposeIntervalMS) * time.Millisecond
}

// Validate checks that values are usable.
func (c *Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: canvas size %dx%d", ErrInvalidConfig, c.Width, c.Height)
	}
	if c.PoolBucketSize < 0 {
		return fmt.Errorf("%w: pool_bucket_size must be >= 0", ErrInvalidConfig)
	}
	if c.SurfaceBudget < 0 {
		return fmt.Errorf("%w: surface_budget must be >= 0", ErrInvalidConfig)
	}
	if c.HistoryDepth <= 0 {
		return fmt.Errorf("%w: history_depth must be > 0", ErrInvalidConfig)
	}
	if c.ComposeIntervalMS < 0 {
		return fmt.Errorf("%w: compose_interval_ms must be >= 0", ErrInvalidConfig)
	}
	if c.Brush.Opacity < 0 || c.Brush.Opacity > 1 {
		return fmt.Errorf("%w: brush.opacity %v out of [0,1]", ErrInvalidConfig, c.Brush.Opacity)
	}
	return nil
}

// LoadConfig reads a TOML or YAML config file, chosen by extension, on top
// of DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := ParseConfig(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	Logger().Info("strata: config loaded", "path", path, "width", cfg.Width, "height", cfg.Height)
	return cfg, nil
}

// ParseConfig decodes data in the format named by ext (".toml", ".yaml"
// or ".yml") on top of DefaultConfig and validates the result.
func ParseConfig(data []byte, ext string) (*Config, error) {
	cfg := DefaultConfig()
	switch strings.ToLower(ext) {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unsupported config format %q", ErrInvalidConfig, ext)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Command strata replays a gesture script against a layer editor and
// writes the composite as a PNG.
//
// Usage:
//
//	strata -config editor.toml -script gestures.yaml -out out.png
package main

import (
	"flag"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gogpu/strata"
	"github.com/gogpu/strata/editor"
)

func main() {
	var (
		config  = flag.String("config", "", "config file (.toml or .yaml)")
		script  = flag.String("script", "", "gesture script (.yaml)")
		output  = flag.String("out", "out.png", "output PNG file")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	strata.SetLogger(logger)

	if err := run(*config, *script, *output); err != nil {
		logger.Error("strata failed", "err", err)
		os.Exit(1)
	}
}

func run(configPath, scriptPath, output string) error {
	cfg := strata.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = strata.LoadConfig(configPath); err != nil {
			return err
		}
	}
	ed, err := editor.New(cfg)
	if err != nil {
		return err
	}

	if scriptPath != "" {
		sc, err := LoadScript(scriptPath)
		if err != nil {
			return err
		}
		if err := sc.Replay(ed, filepath.Dir(scriptPath)); err != nil {
			return err
		}
	}

	out := ed.Composite()
	if out == nil {
		return fmt.Errorf("compose: %w", strata.ErrAllocation)
	}
	return writePNG(output, out)
}

func writePNG(path string, s *strata.Surface) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, s.ToImage()); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	strata.Logger().Info("composite written", "path", path, "width", s.Width(), "height", s.Height())
	return nil
}

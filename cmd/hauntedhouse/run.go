package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"runtime"

	"haunted-house/animate"
	"haunted-house/assets"
	"haunted-house/controls"
	"haunted-house/haunted"
	"haunted-house/loop"
	"haunted-house/placement"
	"haunted-house/renderer"
	"haunted-house/window"
)

func run(ctx context.Context, opts *options) error {
	catalog, err := loadCatalog(opts.config)
	if err != nil {
		return err
	}
	variant, err := catalog.Lookup(opts.variant)
	if err != nil {
		return err
	}

	cfg := window.DefaultWindowConfig()
	cfg.Width = opts.width
	cfg.Height = opts.height
	cfg.Fullscreen = opts.fullscreen
	win, err := window.NewWindow(cfg)
	if err != nil {
		return err
	}
	defer win.Destroy()

	engine, err := renderer.NewRenderEngine(win.Width, win.Height, win)
	if err != nil {
		return err
	}
	defer engine.Destroy()

	loader := assets.NewLoader(opts.textures, runtime.NumCPU())
	defer loader.Close()

	var rng placement.RandomSource
	if opts.seed == 0 {
		rng = placement.SysRand{}
	}
	hs, err := haunted.Assemble(variant, haunted.Options{
		Seed:     opts.seed,
		Rand:     rng,
		Textures: loader,
		Aspect:   float32(win.Width) / float32(max(win.Height, 1)),
	})
	if err != nil {
		return err
	}

	orbit := controls.NewOrbit(hs.Camera, win)
	win.OnScroll(func(_, yoff float64) {
		orbit.Zoom(yoff)
	})

	if opts.tune != "" {
		if err := writeTuningFile(opts.tune, hs); err != nil {
			return err
		}
		if err := hs.Panel.Watch(ctx, opts.tune); err != nil {
			return err
		}
	}

	l, err := loop.New(loop.Config{
		Scene:      hs.Graph,
		Camera:     hs.Camera,
		Renderer:   engine,
		Clock:      animate.NewClock(),
		Animator:   &animate.Animator{TimeScale: opts.timeScale},
		Controller: orbit,
		Lights:     hs.Roaming,
		Tuning:     hs.Panel,
	})
	if err != nil {
		return err
	}
	win.OnResize(l.Resize)
	win.OnContentScale(l.SetPixelDensity)
	l.Resize(win.Width, win.Height)
	l.SetPixelDensity(win.ContentScale())

	stop := closeOnCancel(ctx, win)
	defer stop()

	err = l.Run(win)
	stats := engine.DrawStats()
	slog.Debug("last frame", "objects", stats.Objects, "triangles", stats.Triangles,
		"culled", stats.Culled, "shadowMaps", stats.ShadowMaps)
	return err
}

// closeOnCancel asks c to close once ctx ends. The returned stop func ends
// the watcher and waits for it; call it before the window is destroyed.
func closeOnCancel(ctx context.Context, c interface{ RequestClose() }) (stop func()) {
	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		select {
		case <-ctx.Done():
			c.RequestClose()
		case <-done:
		}
	}()
	return func() {
		close(done)
		<-exited
	}
}

// writeTuningFile seeds the parameter file with the current values when it
// does not exist yet.
func writeTuningFile(path string, hs *haunted.Scene) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat parameter file: %w", err)
	}
	data, err := hs.Panel.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write parameter file: %w", err)
	}
	slog.Info("wrote parameter file", "path", path, "params", len(hs.Panel.Names()))
	return nil
}

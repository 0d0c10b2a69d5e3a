// Package loop drives the per-frame update and draw cycle.
package loop

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"haunted-house/animate"
	"haunted-house/core"
	"haunted-house/scene"
)

// ErrFrame wraps a renderer failure. Frames are not retried.
var ErrFrame = errors.New("frame failed")

// MaxPixelDensity caps the render-target scale on high-DPI displays.
const MaxPixelDensity = 2

// CameraController moves the camera once per tick.
type CameraController interface {
	Update()
}

// Renderer draws a scene from a camera.
type Renderer interface {
	SetViewportSize(width, height int)
	SetPixelDensity(ratio float32)
	Draw(s *scene.Scene, camera *scene.Camera) error
}

// Host owns the window and its event queue.
type Host interface {
	PollEvents()
	SwapBuffers()
	ShouldClose() bool
}

// PendingApplier holds updates queued from other goroutines, such as live
// parameter tuning.
type PendingApplier interface {
	ApplyPending()
}

// Config wires a Loop. Scene, Camera and Renderer are required.
type Config struct {
	Scene      *scene.Scene
	Camera     *scene.Camera
	Renderer   Renderer
	Clock      *animate.Clock
	Controller CameraController
	Animator   *animate.Animator
	Lights     []animate.RoamingLight
	Tuning     PendingApplier
}

// Loop owns the scene, camera and clock for the lifetime of the window.
// Only Resize and SetPixelDensity may be called from other goroutines.
type Loop struct {
	cfg    Config
	frames uint64

	mu             sync.Mutex
	pendingSize    *[2]int
	pendingDensity *float32
}

func New(cfg Config) (*Loop, error) {
	if cfg.Scene == nil || cfg.Camera == nil {
		return nil, core.ConfigErrorf("loop needs a scene and a camera")
	}
	if cfg.Renderer == nil {
		return nil, core.ConfigErrorf("loop needs a renderer")
	}
	if cfg.Clock == nil {
		cfg.Clock = animate.NewClock()
	}
	if cfg.Animator == nil {
		cfg.Animator = &animate.Animator{}
	}
	return &Loop{cfg: cfg}, nil
}

// Resize queues a viewport change for the next tick. Non-positive sizes,
// as reported for minimized windows, are dropped.
func (l *Loop) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		slog.Debug("ignoring empty resize", "width", width, "height", height)
		return
	}
	l.mu.Lock()
	l.pendingSize = &[2]int{width, height}
	l.mu.Unlock()
}

// SetPixelDensity queues a device pixel ratio, capped at MaxPixelDensity.
func (l *Loop) SetPixelDensity(ratio float32) {
	if !(ratio > 0) {
		return
	}
	ratio = min(ratio, MaxPixelDensity)
	l.mu.Lock()
	l.pendingDensity = &ratio
	l.mu.Unlock()
}

// Tick runs one frame: pending host events, clock, controller, animator,
// then draw, in that order.
func (l *Loop) Tick() error {
	l.applyPending()

	t := l.cfg.Clock.Advance()
	if l.cfg.Controller != nil {
		l.cfg.Controller.Update()
	}
	l.cfg.Animator.Tick(t, l.cfg.Lights)

	l.frames++
	if err := l.cfg.Renderer.Draw(l.cfg.Scene, l.cfg.Camera); err != nil {
		return fmt.Errorf("%w: frame %d at t=%.3fs: %w", ErrFrame, l.frames, t, err)
	}
	return nil
}

// Run ticks until the host asks to close or a frame fails.
func (l *Loop) Run(host Host) error {
	slog.Info("render loop started", "lights", len(l.cfg.Lights))
	for !host.ShouldClose() {
		host.PollEvents()
		if err := l.Tick(); err != nil {
			slog.Error("render loop stopped", "err", err)
			return err
		}
		host.SwapBuffers()
	}
	slog.Info("render loop finished", "frames", l.frames)
	return nil
}

// Frames is the number of frames drawn so far.
func (l *Loop) Frames() uint64 {
	return l.frames
}

func (l *Loop) applyPending() {
	l.mu.Lock()
	size, density := l.pendingSize, l.pendingDensity
	l.pendingSize, l.pendingDensity = nil, nil
	l.mu.Unlock()

	if size != nil {
		l.cfg.Camera.UpdateAspectRatio(size[0], size[1])
		l.cfg.Renderer.SetViewportSize(size[0], size[1])
		slog.Debug("viewport resized", "width", size[0], "height", size[1])
	}
	if density != nil {
		l.cfg.Renderer.SetPixelDensity(*density)
	}
	if l.cfg.Tuning != nil {
		l.cfg.Tuning.ApplyPending()
	}
}

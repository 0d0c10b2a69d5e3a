// Package window hosts the GLFW window and its OpenGL context.
package window

import (
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func init() {
	runtime.LockOSThread()
}

// DoubleClickInterval is the longest gap between two presses that still
// counts as a double-click.
const DoubleClickInterval = 300 * time.Millisecond

type Window struct {
	Handle     *glfw.Window
	Width      int
	Height     int
	Title      string
	Fullscreen bool

	// windowed rect restored when leaving fullscreen
	savedX, savedY, savedW, savedH int

	lastClick time.Time

	onResize []func(width, height int)
	onScale  []func(scale float32)
	onButton []func(button int, pressed bool)
	onScroll []func(xoff, yoff float64)
}

type WindowConfig struct {
	Width      int
	Height     int
	Title      string
	Resizable  bool
	VSync      bool
	Fullscreen bool
}

func DefaultWindowConfig() WindowConfig {
	return WindowConfig{
		Width:     1280,
		Height:    720,
		Title:     "Haunted House",
		Resizable: true,
		VSync:     true,
	}
}

// NewWindow creates a window with a current OpenGL 4.1 core context.
func NewWindow(config WindowConfig) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, boolToInt(config.Resizable))
	glfw.WindowHint(glfw.ScaleToMonitor, glfw.True)

	handle, err := glfw.CreateWindow(config.Width, config.Height, config.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	handle.MakeContextCurrent()
	if config.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	window := &Window{
		Handle: handle,
		Width:  config.Width,
		Height: config.Height,
		Title:  config.Title,
	}

	handle.SetSizeCallback(func(_ *glfw.Window, width, height int) {
		window.Width = width
		window.Height = height
		for _, cb := range window.onResize {
			cb(width, height)
		}
	})
	handle.SetContentScaleCallback(func(_ *glfw.Window, x, _ float32) {
		for _, cb := range window.onScale {
			cb(x)
		}
	})
	handle.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		if action == glfw.Press && button == glfw.MouseButtonLeft {
			now := time.Now()
			if now.Sub(window.lastClick) <= DoubleClickInterval {
				window.ToggleFullscreen()
				window.lastClick = time.Time{}
			} else {
				window.lastClick = now
			}
		}
		for _, cb := range window.onButton {
			cb(int(button), action == glfw.Press)
		}
	})
	handle.SetScrollCallback(func(_ *glfw.Window, xoff, yoff float64) {
		for _, cb := range window.onScroll {
			cb(xoff, yoff)
		}
	})
	handle.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyF11:
			window.ToggleFullscreen()
		case glfw.KeyEscape:
			if window.Fullscreen {
				window.ToggleFullscreen()
			} else {
				handle.SetShouldClose(true)
			}
		}
	})

	if config.Fullscreen {
		window.ToggleFullscreen()
	}
	return window, nil
}

// OnResize registers a listener for window size changes in screen coordinates.
func (w *Window) OnResize(cb func(width, height int)) {
	w.onResize = append(w.onResize, cb)
}

// OnContentScale registers a listener for device pixel ratio changes.
func (w *Window) OnContentScale(cb func(scale float32)) {
	w.onScale = append(w.onScale, cb)
}

func (w *Window) OnMouseButton(cb func(button int, pressed bool)) {
	w.onButton = append(w.onButton, cb)
}

func (w *Window) OnScroll(cb func(xoff, yoff float64)) {
	w.onScroll = append(w.onScroll, cb)
}

// ToggleFullscreen switches between the primary monitor's video mode and
// the last windowed rect. The size callback reports the new dimensions.
func (w *Window) ToggleFullscreen() {
	if w.Fullscreen {
		w.Handle.SetMonitor(nil, w.savedX, w.savedY, w.savedW, w.savedH, glfw.DontCare)
		w.Fullscreen = false
		slog.Debug("left fullscreen", "width", w.savedW, "height", w.savedH)
		return
	}
	monitor := glfw.GetPrimaryMonitor()
	if monitor == nil {
		slog.Warn("fullscreen unavailable: no primary monitor")
		return
	}
	w.savedX, w.savedY = w.Handle.GetPos()
	w.savedW, w.savedH = w.Handle.GetSize()
	mode := monitor.GetVideoMode()
	w.Handle.SetMonitor(monitor, 0, 0, mode.Width, mode.Height, mode.RefreshRate)
	w.Fullscreen = true
	slog.Debug("entered fullscreen", "width", mode.Width, "height", mode.Height)
}

// ContentScale reports the device pixel ratio.
func (w *Window) ContentScale() float32 {
	x, _ := w.Handle.GetContentScale()
	return x
}

func (w *Window) ShouldClose() bool {
	return w.Handle.ShouldClose()
}

// RequestClose flags the window to close. glfw allows it from any goroutine.
func (w *Window) RequestClose() {
	w.Handle.SetShouldClose(true)
}

func (w *Window) PollEvents() {
	glfw.PollEvents()
}

func (w *Window) SwapBuffers() {
	w.Handle.SwapBuffers()
}

func (w *Window) GetFramebufferSize() (int, int) {
	return w.Handle.GetFramebufferSize()
}

func (w *Window) Destroy() {
	w.Handle.Destroy()
	glfw.Terminate()
}

func (w *Window) IsMouseButtonPressed(button int) bool {
	return w.Handle.GetMouseButton(glfw.MouseButton(button)) == glfw.Press
}

func (w *Window) GetCursorPos() (float64, float64) {
	return w.Handle.GetCursorPos()
}

func boolToInt(b bool) int {
	if b {
		return glfw.True
	}
	return glfw.False
}

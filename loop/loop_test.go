package loop

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"haunted-house/animate"
	"haunted-house/core"
	hmath "haunted-house/math"
	"haunted-house/scene"
)

// recorder collects call order across the fakes.
type recorder struct {
	calls []string
}

func (r *recorder) add(s string) { r.calls = append(r.calls, s) }

type fakeRenderer struct {
	rec           *recorder
	width, height int
	density       float32
	err           error
	draws         int
}

func (f *fakeRenderer) SetViewportSize(w, h int) {
	f.rec.add("viewport")
	f.width, f.height = w, h
}

func (f *fakeRenderer) SetPixelDensity(r float32) {
	f.rec.add("density")
	f.density = r
}

func (f *fakeRenderer) Draw(*scene.Scene, *scene.Camera) error {
	f.rec.add("draw")
	f.draws++
	return f.err
}

type fakeController struct{ rec *recorder }

func (f fakeController) Update() { f.rec.add("controller") }

type fakeTuning struct{ rec *recorder }

func (f fakeTuning) ApplyPending() { f.rec.add("tuning") }

type fakeHost struct {
	rec    *recorder
	frames int
	polls  int
	swaps  int
}

func (h *fakeHost) PollEvents() { h.polls++ }
func (h *fakeHost) SwapBuffers() { h.swaps++ }
func (h *fakeHost) ShouldClose() bool { return h.swaps >= h.frames }

type fixture struct {
	rec      *recorder
	renderer *fakeRenderer
	camera   *scene.Camera
	ghost    *scene.Node
	now      time.Time
	loop     *Loop
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{rec: &recorder{}, now: time.Unix(0, 0)}
	f.renderer = &fakeRenderer{rec: f.rec}
	f.camera = scene.NewCamera(50*math.Pi/180, 1, 0.1, 100)
	f.ghost = scene.NewLightNode("ghost1", scene.NewPointLight(core.ColorWhite, 2, 3))

	s := scene.NewScene()
	s.AddNode(f.ghost)
	s.SetCamera(f.camera)

	clock := animate.NewClockWithSource(func() time.Time { return f.now })
	l, err := New(Config{
		Scene:      s,
		Camera:     f.camera,
		Renderer:   f.renderer,
		Clock:      clock,
		Controller: fakeController{f.rec},
		Lights: []animate.RoamingLight{{Node: f.ghost, Orbit: func(t float64) hmath.Vec3 {
			f.rec.add("animate")
			return animate.OrbitA(t)
		}}},
		Tuning:     fakeTuning{f.rec},
	})
	require.NoError(t, err)
	f.loop = l
	return f
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, core.ErrConfiguration)

	_, err = New(Config{Scene: scene.NewScene(), Camera: scene.NewCamera(1, 1, 0.1, 10)})
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestTickOrder(t *testing.T) {
	f := newFixture(t)
	f.loop.Resize(800, 600)
	require.NoError(t, f.loop.Tick())
	assert.Equal(t, []string{"viewport", "tuning", "controller", "animate", "draw"}, f.rec.calls)
}

func TestResizeAppliesAtTickBoundary(t *testing.T) {
	f := newFixture(t)
	f.loop.Resize(1920, 1080)
	assert.Zero(t, f.renderer.width, "nothing changes before the tick")

	require.NoError(t, f.loop.Tick())
	assert.Equal(t, float32(1920)/float32(1080), f.camera.AspectRatio)
	assert.Equal(t, 1920, f.renderer.width)
	assert.Equal(t, 1080, f.renderer.height)
}

func TestResizeKeepsLatest(t *testing.T) {
	f := newFixture(t)
	f.loop.Resize(640, 480)
	f.loop.Resize(1280, 720)
	f.loop.Resize(0, 0)
	require.NoError(t, f.loop.Tick())
	assert.Equal(t, 1280, f.renderer.width)
	assert.Equal(t, 1, countOf(f.rec.calls, "viewport"))

	require.NoError(t, f.loop.Tick())
	assert.Equal(t, 1, countOf(f.rec.calls, "viewport"), "applied once")
}

func TestResizeFromManyGoroutines(t *testing.T) {
	f := newFixture(t)
	var wg sync.WaitGroup
	for i := 1; i <= 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f.loop.Resize(100*i, 100)
		}(i)
	}
	wg.Wait()
	require.NoError(t, f.loop.Tick())
	assert.Equal(t, 100, f.renderer.height)
}

func TestPixelDensityIsCapped(t *testing.T) {
	f := newFixture(t)
	f.loop.SetPixelDensity(3)
	require.NoError(t, f.loop.Tick())
	assert.Equal(t, float32(2), f.renderer.density)

	f.loop.SetPixelDensity(1.25)
	require.NoError(t, f.loop.Tick())
	assert.Equal(t, float32(1.25), f.renderer.density)
}

func TestTickMovesGhostAlongOrbit(t *testing.T) {
	f := newFixture(t)
	halfTurn := math.Pi
	f.now = f.now.Add(time.Duration(halfTurn * float64(time.Second)))
	require.NoError(t, f.loop.Tick())

	p := f.ghost.WorldPosition()
	assert.InDelta(t, -5, p.X, 1e-4)
	assert.InDelta(t, 0, p.Y, 1e-4)
	assert.InDelta(t, 0, p.Z, 1e-4)
}

func TestDrawErrorIsFrameError(t *testing.T) {
	f := newFixture(t)
	gpu := errors.New("context lost")
	f.renderer.err = gpu

	err := f.loop.Tick()
	assert.ErrorIs(t, err, ErrFrame)
	assert.ErrorIs(t, err, gpu)
	assert.Equal(t, 1, f.renderer.draws)
}

func TestRunUntilClose(t *testing.T) {
	f := newFixture(t)
	host := &fakeHost{rec: f.rec, frames: 3}
	require.NoError(t, f.loop.Run(host))
	assert.Equal(t, 3, host.polls)
	assert.Equal(t, 3, host.swaps)
	assert.Equal(t, uint64(3), f.loop.Frames())
}

func TestRunStopsOnFrameError(t *testing.T) {
	f := newFixture(t)
	f.renderer.err = errors.New("boom")
	host := &fakeHost{rec: f.rec, frames: 10}
	err := f.loop.Run(host)
	assert.ErrorIs(t, err, ErrFrame)
	assert.Zero(t, host.swaps)
	assert.Equal(t, 1, f.renderer.draws)
}

func countOf(calls []string, name string) int {
	n := 0
	for _, c := range calls {
		if c == name {
			n++
		}
	}
	return n
}

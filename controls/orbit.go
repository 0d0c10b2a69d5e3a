// Package controls turns pointer input into camera motion.
package controls

import (
	"sync"

	"github.com/chewxy/math32"

	"haunted-house/core"
	"haunted-house/math"
	"haunted-house/scene"
)

// Pointer is the slice of the window the orbit controller polls each update.
type Pointer interface {
	IsMouseButtonPressed(button int) bool
	GetCursorPos() (float64, float64)
}

// polar angle keeps this far from the poles so LookAt never degenerates
const polarEpsilon = 1e-4

// Orbit keeps the camera on a sphere around Target. Left-drag rotates,
// right-drag pans and scroll zooms. Input accumulates into pending deltas
// and each Update applies DampingFactor of them, so motion eases out.
type Orbit struct {
	Camera *scene.Camera
	Target math.Vec3

	DampingFactor float32
	RotateSpeed   float32 // radians per pixel
	PanSpeed      float32 // fraction of the orbit radius per pixel
	ZoomStep      float32 // radius multiplier per scroll notch, < 1
	MinDistance   float32
	MaxDistance   float32

	pointer Pointer

	mu         sync.Mutex
	radius     float32
	theta      float32 // azimuth around +Y, measured from +Z
	phi        float32 // polar angle from +Y
	deltaTheta float32
	deltaPhi   float32
	panOffset  math.Vec3
	zoomScale  float32

	dragButton   int
	lastX, lastY float64
}

// NewOrbit starts orbiting from the camera's current position and target.
// pointer may be nil when input is fed through Rotate, Pan and Zoom.
func NewOrbit(camera *scene.Camera, pointer Pointer) *Orbit {
	o := &Orbit{
		Camera:        camera,
		Target:        camera.Target,
		DampingFactor: 0.05,
		RotateSpeed:   0.005,
		PanSpeed:      0.002,
		ZoomStep:      0.95,
		MinDistance:   1,
		MaxDistance:   50,
		pointer:       pointer,
		zoomScale:     1,
		dragButton:    -1,
	}
	o.syncFromCamera()
	return o
}

// syncFromCamera derives the spherical state from the camera offset.
func (o *Orbit) syncFromCamera() {
	offset := o.Camera.Position.Sub(o.Target)
	o.radius = offset.Length()
	if o.radius == 0 {
		o.theta, o.phi = 0, math32.Pi/2
		return
	}
	o.theta = math32.Atan2(offset.X, offset.Z)
	o.phi = math32.Acos(clamp(offset.Y/o.radius, -1, 1))
}

// Rotate queues a drag of dx, dy pixels.
func (o *Orbit) Rotate(dx, dy float32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.deltaTheta -= dx * o.RotateSpeed
	o.deltaPhi -= dy * o.RotateSpeed
}

// Pan queues a target shift of dx, dy pixels in the view plane.
func (o *Orbit) Pan(dx, dy float32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	right, up := o.viewAxes()
	k := o.radius * o.PanSpeed
	o.panOffset = o.panOffset.Add(right.Mul(-dx * k)).Add(up.Mul(dy * k))
}

// Zoom queues scroll notches; positive moves closer.
func (o *Orbit) Zoom(notches float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.zoomScale *= math32.Pow(o.ZoomStep, float32(notches))
}

// Update polls the pointer, applies one damping step and moves the camera.
func (o *Orbit) Update() {
	o.pollPointer()

	o.mu.Lock()
	defer o.mu.Unlock()

	o.theta += o.deltaTheta * o.DampingFactor
	o.phi += o.deltaPhi * o.DampingFactor
	o.phi = clamp(o.phi, polarEpsilon, math32.Pi-polarEpsilon)
	o.Target = o.Target.Add(o.panOffset.Mul(o.DampingFactor))

	o.radius = clamp(o.radius*o.zoomScale, o.MinDistance, o.MaxDistance)
	o.zoomScale = 1

	decay := 1 - o.DampingFactor
	o.deltaTheta *= decay
	o.deltaPhi *= decay
	o.panOffset = o.panOffset.Mul(decay)

	sinPhi := math32.Sin(o.phi)
	offset := math.Vec3{
		X: o.radius * sinPhi * math32.Sin(o.theta),
		Y: o.radius * math32.Cos(o.phi),
		Z: o.radius * sinPhi * math32.Cos(o.theta),
	}
	o.Camera.SetPosition(o.Target.Add(offset))
	o.Camera.LookAt(o.Target)
}

// Distance is the current orbit radius.
func (o *Orbit) Distance() float32 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.radius
}

func (o *Orbit) pollPointer() {
	if o.pointer == nil {
		return
	}
	button := -1
	switch {
	case o.pointer.IsMouseButtonPressed(core.MouseButtonLeft):
		button = core.MouseButtonLeft
	case o.pointer.IsMouseButtonPressed(core.MouseButtonRight):
		button = core.MouseButtonRight
	}
	x, y := o.pointer.GetCursorPos()
	if button != o.dragButton {
		o.dragButton = button
		o.lastX, o.lastY = x, y
		return
	}
	dx, dy := float32(x-o.lastX), float32(y-o.lastY)
	o.lastX, o.lastY = x, y
	switch button {
	case core.MouseButtonLeft:
		o.Rotate(dx, dy)
	case core.MouseButtonRight:
		o.Pan(dx, dy)
	}
}

// viewAxes returns the camera's right and up vectors. Caller holds mu.
func (o *Orbit) viewAxes() (right, up math.Vec3) {
	back := o.Camera.Position.Sub(o.Target).Normalize()
	right = math.Vec3Up.Cross(back).Normalize()
	up = back.Cross(right)
	return right, up
}

func clamp(v, lo, hi float32) float32 {
	return math32.Max(lo, math32.Min(hi, v))
}

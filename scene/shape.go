package scene

import (
	"haunted-house/core"
)

// Shape is a parametric geometry descriptor. The set of implementations is
// closed: Box, Cone, Sphere and Plane. Descriptors are comparable values,
// so equal shapes can key a cache.
type Shape interface {
	ShapeName() string
	validate() error
	geometry() ([]core.Vertex, []uint32)
}

// Default segment counts used when a descriptor leaves them zero.
const (
	DefaultConeSegments         = 32
	DefaultSphereWidthSegments  = 32
	DefaultSphereHeightSegments = 16
)

// Box is centered on the origin.
type Box struct {
	Width, Height, Depth float32
}

// Cone stands on the XZ plane centered on the origin, apex at +Height/2.
type Cone struct {
	Radius         float32
	Height         float32
	RadialSegments int
}

// Sphere is a UV sphere with poles on the Y axis.
type Sphere struct {
	Radius         float32
	WidthSegments  int
	HeightSegments int
}

// Plane lies in XY facing +Z.
type Plane struct {
	Width          float32
	Height         float32
	WidthSegments  int
	HeightSegments int
}

func (Box) ShapeName() string { return "box" }
func (Cone) ShapeName() string { return "cone" }
func (Sphere) ShapeName() string { return "sphere" }
func (Plane) ShapeName() string { return "plane" }

func positive(shape, field string, v float32) error {
	if !(v > 0) {
		return core.ConfigErrorf("%s %s must be positive, got %v", shape, field, v)
	}
	return nil
}

// segments resolves a segment count: zero takes def, anything below min
// is rejected.
func segments(shape, field string, n, def, min int) (int, error) {
	if n == 0 {
		n = def
	}
	if n < min {
		return 0, core.ConfigErrorf("%s %s must be at least %d, got %d", shape, field, min, n)
	}
	return n, nil
}

func (b Box) validate() error {
	for _, d := range []struct {
		name string
		v    float32
	}{{"width", b.Width}, {"height", b.Height}, {"depth", b.Depth}} {
		if err := positive("box", d.name, d.v); err != nil {
			return err
		}
	}
	return nil
}

func (c Cone) validate() error {
	if err := positive("cone", "radius", c.Radius); err != nil {
		return err
	}
	if err := positive("cone", "height", c.Height); err != nil {
		return err
	}
	_, err := segments("cone", "radial segments", c.RadialSegments, DefaultConeSegments, 3)
	return err
}

func (s Sphere) validate() error {
	if err := positive("sphere", "radius", s.Radius); err != nil {
		return err
	}
	if _, err := segments("sphere", "width segments", s.WidthSegments, DefaultSphereWidthSegments, 3); err != nil {
		return err
	}
	_, err := segments("sphere", "height segments", s.HeightSegments, DefaultSphereHeightSegments, 2)
	return err
}

func (p Plane) validate() error {
	if err := positive("plane", "width", p.Width); err != nil {
		return err
	}
	if err := positive("plane", "height", p.Height); err != nil {
		return err
	}
	if _, err := segments("plane", "width segments", p.WidthSegments, 1, 1); err != nil {
		return err
	}
	_, err := segments("plane", "height segments", p.HeightSegments, 1, 1)
	return err
}

func (b Box) geometry() ([]core.Vertex, []uint32) {
	return boxGeometry(b.Width, b.Height, b.Depth)
}

func (c Cone) geometry() ([]core.Vertex, []uint32) {
	n, _ := segments("cone", "radial segments", c.RadialSegments, DefaultConeSegments, 3)
	return coneGeometry(c.Radius, c.Height, n)
}

func (s Sphere) geometry() ([]core.Vertex, []uint32) {
	w, _ := segments("sphere", "width segments", s.WidthSegments, DefaultSphereWidthSegments, 3)
	h, _ := segments("sphere", "height segments", s.HeightSegments, DefaultSphereHeightSegments, 2)
	return sphereGeometry(s.Radius, w, h)
}

func (p Plane) geometry() ([]core.Vertex, []uint32) {
	w, _ := segments("plane", "width segments", p.WidthSegments, 1, 1)
	h, _ := segments("plane", "height segments", p.HeightSegments, 1, 1)
	return planeGeometry(p.Width, p.Height, w, h)
}

package scene

import (
	"haunted-house/core"
	"haunted-house/math"
)

// TextureSet names the optional maps of a textured material. Any entry may
// be nil, and any non-nil entry may still be unresolved.
type TextureSet struct {
	Albedo           *Texture
	Normal           *Texture
	Roughness        *Texture
	AmbientOcclusion *Texture
	Alpha            *Texture
	Metalness        *Texture
	Displacement     *Texture
}

// All returns the non-nil maps.
func (ts TextureSet) All() []*Texture {
	var out []*Texture
	for _, t := range []*Texture{ts.Albedo, ts.Normal, ts.Roughness, ts.AmbientOcclusion, ts.Alpha, ts.Metalness, ts.Displacement} {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}

func (ts TextureSet) Empty() bool {
	return len(ts.All()) == 0
}

// Material describes surface appearance: a flat Color, or a TextureSet
// modulated by Color. Meshes share materials by pointer.
type Material struct {
	Name  string
	Color core.Color
	Maps  TextureSet

	// Metallic-roughness parameters, multiplied with their maps when present.
	Roughness float32
	Metalness float32

	// DisplacementScale is the world-space height of a white displacement texel.
	DisplacementScale float32

	// Repeat tiles every map; zero components mean 1.
	Repeat math.Vec2

	// Transparent enables alpha blending (Alpha map or Color.A < 1).
	Transparent bool
}

// DefaultMaterial returns a plain white matte material.
func DefaultMaterial() *Material {
	return NewColorMaterial("Default", core.ColorWhite)
}

// NewColorMaterial creates a flat-colored material.
func NewColorMaterial(name string, color core.Color) *Material {
	return &Material{
		Name:      name,
		Color:     color,
		Roughness: 1,
		Repeat:    math.Vec2{X: 1, Y: 1},
	}
}

// NewTexturedMaterial creates a material driven by maps.
func NewTexturedMaterial(name string, maps TextureSet) *Material {
	m := NewColorMaterial(name, core.ColorWhite)
	m.Maps = maps
	if maps.Metalness != nil {
		m.Metalness = 1
	}
	return m
}

func (m *Material) Textured() bool {
	return !m.Maps.Empty()
}

// NeedsAOUV reports whether meshes using m need the second UV channel.
func (m *Material) NeedsAOUV() bool {
	return m.Maps.AmbientOcclusion != nil
}

// UVRepeat is Repeat with zero components treated as 1.
func (m *Material) UVRepeat() math.Vec2 {
	r := m.Repeat
	if r.X == 0 {
		r.X = 1
	}
	if r.Y == 0 {
		r.Y = 1
	}
	return r
}

package scene

import (
	"haunted-house/core"
	"haunted-house/math"
)

// LightKind selects how a light contributes to shading.
type LightKind int

const (
	// LightAmbient lights every surface uniformly; position is ignored.
	LightAmbient LightKind = iota
	// LightDirectional shines from the node position toward Target.
	LightDirectional
	// LightPoint radiates from the node position and fades out at Range.
	LightPoint
)

func (k LightKind) String() string {
	switch k {
	case LightAmbient:
		return "ambient"
	case LightDirectional:
		return "directional"
	case LightPoint:
		return "point"
	}
	return "unknown"
}

// Light is the payload of a light node. Position comes from the node.
type Light struct {
	Kind      LightKind
	Color     core.Color
	Intensity float32

	// Point lights: distance where the contribution reaches zero (0 means
	// unbounded) and the falloff exponent.
	Range float32
	Decay float32

	// Directional lights aim at this world-space point.
	Target math.Vec3
}

func NewAmbientLight(color core.Color, intensity float32) *Light {
	return &Light{Kind: LightAmbient, Color: color, Intensity: intensity}
}

func NewDirectionalLight(color core.Color, intensity float32) *Light {
	return &Light{Kind: LightDirectional, Color: color, Intensity: intensity}
}

func NewPointLight(color core.Color, intensity, rng float32) *Light {
	return &Light{Kind: LightPoint, Color: color, Intensity: intensity, Range: rng, Decay: 1}
}

// ShadowFlags records a node's shadow participation. The map fields only
// apply to lights that cast.
type ShadowFlags struct {
	CastShadow    bool
	ReceiveShadow bool
	MapWidth      int
	MapHeight     int
	Far           float32
}

// HasMap reports whether shadow-map dimensions have been assigned.
func (f ShadowFlags) HasMap() bool {
	return f.MapWidth > 0 && f.MapHeight > 0
}

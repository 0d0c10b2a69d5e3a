// Package placement scatters repeated scene items around a center point.
package placement

import (
	"math"

	"haunted-house/core"
	hmath "haunted-house/math"
)

const (
	// GraveHeight lifts markers so they sit partly sunk in the ground.
	GraveHeight = 0.3

	// MaxTilt bounds the random Y and Z rotation of each marker, in radians.
	MaxTilt = 0.2
)

// PlaceGraveyard returns count transforms spread over the annulus between
// innerRadius and innerRadius+radiusSpan. For every item it draws, in order,
// the angle, the radius, the Y tilt and the Z tilt; the same source state
// therefore always produces the same layout.
func PlaceGraveyard(count int, innerRadius, radiusSpan float64, rng RandomSource) ([]core.Transform, error) {
	if count < 0 {
		return nil, core.ConfigErrorf("grave count must not be negative, got %d", count)
	}
	if innerRadius < 0 {
		return nil, core.ConfigErrorf("inner radius must not be negative, got %v", innerRadius)
	}
	if !(radiusSpan > 0) {
		return nil, core.ConfigErrorf("radius span must be positive, got %v", radiusSpan)
	}
	if rng == nil {
		return nil, core.ConfigErrorf("nil random source")
	}

	out := make([]core.Transform, 0, count)
	for i := 0; i < count; i++ {
		angle := rng.Float64() * 2 * math.Pi
		radius := innerRadius + rng.Float64()*radiusSpan
		rotY := tilt(rng.Float64())
		rotZ := tilt(rng.Float64())

		t := core.NewTransform()
		t.Position = hmath.Vec3{
			X: float32(math.Cos(angle) * radius),
			Y: GraveHeight,
			Z: float32(math.Sin(angle) * radius),
		}
		t.Rotation = hmath.Vec3{Y: float32(rotY), Z: float32(rotZ)}
		out = append(out, t)
	}
	return out, nil
}

// tilt maps a uniform draw in [0, 1) onto [-MaxTilt, MaxTilt).
func tilt(u float64) float64 {
	return (u - 0.5) * 2 * MaxTilt
}

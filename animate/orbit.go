package animate

import (
	"math"
	"sort"

	"haunted-house/core"
	hmath "haunted-house/math"
)

// Orbit maps elapsed seconds to a position. Orbits are pure and periodic.
type Orbit func(t float64) hmath.Vec3

// OrbitA circles the house at radius 5 while bobbing twice per lap.
func OrbitA(t float64) hmath.Vec3 {
	return vec(math.Cos(t)*5, math.Sin(t*2), math.Sin(t)*5)
}

// OrbitB sweeps an ellipse with a slow vertical drift.
func OrbitB(t float64) hmath.Vec3 {
	return vec(-math.Cos(t)*2, math.Sin(t)+math.Sin(t*0.32), math.Sin(t)*7)
}

// OrbitC is OrbitB reflected in Z with its bob inverted.
func OrbitC(t float64) hmath.Vec3 {
	return vec(-math.Cos(t)*2, -math.Sin(t)+math.Sin(t*0.32), -math.Sin(t)*7)
}

var orbits = map[string]Orbit{
	"a": OrbitA,
	"b": OrbitB,
	"c": OrbitC,
}

// OrbitByName resolves the orbit names used in variant files.
func OrbitByName(name string) (Orbit, error) {
	o, ok := orbits[name]
	if !ok {
		return nil, core.ConfigErrorf("unknown orbit %q (have %v)", name, OrbitNames())
	}
	return o, nil
}

// OrbitNames lists the registered orbit names in sorted order.
func OrbitNames() []string {
	names := make([]string, 0, len(orbits))
	for n := range orbits {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func vec(x, y, z float64) hmath.Vec3 {
	return hmath.Vec3{X: float32(x), Y: float32(y), Z: float32(z)}
}

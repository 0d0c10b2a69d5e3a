// Package animate moves roaming lights along closed orbits.
package animate

import "haunted-house/scene"

// RoamingLight binds a light node to the orbit that positions it.
type RoamingLight struct {
	Node  *scene.Node
	Orbit Orbit
}

// Animator positions roaming lights for a given time.
type Animator struct {
	// TimeScale multiplies t before it reaches the orbits; zero means 1.
	TimeScale float64
}

// Tick moves every light to its orbit position at t seconds. Nodes are
// written through SetPosition so their world matrices are invalidated.
func (a *Animator) Tick(t float64, lights []RoamingLight) {
	if a.TimeScale != 0 {
		t *= a.TimeScale
	}
	for _, l := range lights {
		if l.Node == nil || l.Orbit == nil {
			continue
		}
		l.Node.SetPosition(l.Orbit(t))
	}
}

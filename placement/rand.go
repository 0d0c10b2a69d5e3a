package placement

import "math/rand/v2"

// RandomSource yields uniform floats in [0, 1). Placement only ever draws
// through this interface, so a seeded source makes a layout reproducible.
type RandomSource interface {
	// Float64 returns a pseudo-random number in the half-open interval [0.0, 1.0).
	Float64() float64
}

// NewRand returns a deterministic source for seed.
func NewRand(seed uint64) RandomSource {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// SysRand draws from the process-wide generator and is not reproducible.
type SysRand struct{}

func (SysRand) Float64() float64 {
	return rand.Float64()
}
